package whisperx

import (
	"context"
	"encoding/json"
	"os"
	"os/exec"
	"path/filepath"
	"strings"

	"github.com/cockroachdb/errors"
)

// CommandRunner executes an external command and returns its combined output.
type CommandRunner func(ctx context.Context, name string, args ...string) ([]byte, error)

// Service provides WhisperX transcription capabilities.
type Service struct {
	cfg           Config
	commandRunner CommandRunner
}

// NewService creates a WhisperX service with the given configuration.
func NewService(cfg Config) *Service {
	cfg.Model = strings.TrimSpace(cfg.Model)
	if cfg.Model == "" {
		cfg.Model = DefaultModel
	}
	cfg.Language = normalizeLanguage(cfg.Language)
	return &Service{cfg: cfg}
}

// WithCommandRunner sets a custom command runner (for testing).
func (s *Service) WithCommandRunner(runner CommandRunner) {
	s.commandRunner = runner
}

// Model returns the configured model name.
func (s *Service) Model() string {
	return s.cfg.Model
}

// With returns a copy of the service that uses model and language when they
// are non-empty.
func (s *Service) With(model, language string) *Service {
	clone := *s
	if model = strings.TrimSpace(model); model != "" {
		clone.cfg.Model = model
	}
	if language = normalizeLanguage(language); language != "" {
		clone.cfg.Language = language
	}
	return &clone
}

// run executes a command, using the custom runner if set.
func (s *Service) run(ctx context.Context, name string, args ...string) error {
	runner := s.commandRunner
	if runner == nil {
		runner = execRunner
	}
	output, err := runner(ctx, name, args...)
	if err != nil {
		return errors.Wrapf(err, "%s: %s", name, lastLines(string(output), 5))
	}
	return nil
}

func execRunner(ctx context.Context, name string, args ...string) ([]byte, error) {
	cmd := exec.CommandContext(ctx, name, args...) //nolint:gosec

	// Torch 2.6 changed torch.load default to weights_only=true, breaking WhisperX checkpoints.
	if os.Getenv("TORCH_FORCE_NO_WEIGHTS_ONLY_LOAD") == "" {
		cmd.Env = append(os.Environ(), "TORCH_FORCE_NO_WEIGHTS_ONLY_LOAD=1")
	}
	return cmd.CombinedOutput()
}

// Result contains the parsed output of one transcription.
type Result struct {
	Text     string
	Language string
	Segments []Segment
	JSONPath string
}

// TranscribeFile transcribes an audio file. WhisperX writes its JSON output
// into outputDir, which must be private to this call.
func (s *Service) TranscribeFile(ctx context.Context, source, outputDir string) (Result, error) {
	var result Result

	if source == "" {
		return result, errors.New("transcribe: source path required")
	}
	if outputDir == "" {
		return result, errors.New("transcribe: output dir required")
	}
	if err := os.MkdirAll(outputDir, 0o755); err != nil {
		return result, errors.Wrap(err, "transcribe: ensure output dir")
	}

	if err := s.run(ctx, UVXCommand, s.buildArgs(source, outputDir)...); err != nil {
		return result, errors.Wrap(err, "whisperx")
	}

	baseName := strings.TrimSuffix(filepath.Base(source), filepath.Ext(source))
	result.JSONPath = filepath.Join(outputDir, baseName+".json")

	payload, err := loadPayload(result.JSONPath)
	if err != nil {
		return result, err
	}
	result.Segments = payload.Segments
	result.Language = normalizeLanguage(payload.Language)
	if result.Language == "" {
		result.Language = s.cfg.Language
	}
	result.Text = joinSegments(payload.Segments)
	return result, nil
}

// buildArgs constructs the uvx command arguments for WhisperX.
func (s *Service) buildArgs(source, outputDir string) []string {
	args := make([]string, 0, 24)

	if s.cfg.CUDAEnabled {
		args = append(args,
			"--index-url", CUDAIndexURL,
			"--extra-index-url", PypiIndexURL,
		)
	} else {
		args = append(args, "--index-url", PypiIndexURL)
	}

	args = append(args,
		"whisperx",
		source,
		"--model", s.cfg.Model,
		"--batch_size", BatchSize,
		"--output_dir", outputDir,
		"--output_format", OutputFormat,
		"--vad_method", VADMethod,
	)

	if s.cfg.Language != "" {
		args = append(args, "--language", s.cfg.Language)
	}

	if s.cfg.CUDAEnabled {
		args = append(args, "--device", CUDADevice)
	} else {
		args = append(args, "--device", CPUDevice, "--compute_type", CPUComputeType)
	}

	return args
}

// Segment represents a transcribed segment from WhisperX JSON output.
type Segment struct {
	Text  string  `json:"text"`
	Start float64 `json:"start"`
	End   float64 `json:"end"`
}

type payload struct {
	Language string    `json:"language"`
	Segments []Segment `json:"segments"`
}

func loadPayload(jsonPath string) (payload, error) {
	var parsed payload
	data, err := os.ReadFile(jsonPath)
	if err != nil {
		return parsed, errors.Wrap(err, "read whisperx json")
	}
	if err := json.Unmarshal(data, &parsed); err != nil {
		return parsed, errors.Wrap(err, "parse whisperx json")
	}
	return parsed, nil
}

func joinSegments(segments []Segment) string {
	parts := make([]string, 0, len(segments))
	for _, seg := range segments {
		if text := strings.TrimSpace(seg.Text); text != "" {
			parts = append(parts, text)
		}
	}
	return strings.Join(parts, " ")
}

// normalizeLanguage reduces codes such as "en-US" or "EN" to "en".
func normalizeLanguage(value string) string {
	value = strings.ToLower(strings.TrimSpace(value))
	if idx := strings.IndexAny(value, "-_"); idx > 0 {
		value = value[:idx]
	}
	return value
}

func lastLines(output string, n int) string {
	lines := strings.Split(strings.TrimSpace(output), "\n")
	if len(lines) > n {
		lines = lines[len(lines)-n:]
	}
	return strings.Join(lines, " | ")
}
