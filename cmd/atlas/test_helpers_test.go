package main

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/pelletier/go-toml/v2"

	"memoryatlas/internal/config"
	"memoryatlas/internal/enrich"
	"memoryatlas/internal/testsupport"
	"memoryatlas/internal/transcribe"
)

type cliTestEnv struct {
	cfg        *config.Config
	configPath string
}

func setupCLITestEnv(t *testing.T) *cliTestEnv {
	t.Helper()

	cfg := testsupport.NewConfig(t)
	configPath := filepath.Join(testsupport.BaseDir(cfg), "config.toml")
	writeTestConfig(t, configPath, cfg)
	return &cliTestEnv{cfg: cfg, configPath: configPath}
}

func writeTestConfig(t *testing.T, path string, cfg *config.Config) {
	t.Helper()

	data, err := toml.Marshal(cfg)
	if err != nil {
		t.Fatalf("marshal config: %v", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
}

// seedRecordings writes a Voice Memos catalogue with two recordings whose
// audio files exist.
func seedRecordings(t *testing.T, env *cliTestEnv) {
	t.Helper()

	testsupport.SeedVoiceMemosDB(t, env.cfg.Source.VoiceMemosDB,
		testsupport.VoiceMemoRow{
			UniqueID:   "AAAA1111-0000-0000-0000-000000000001",
			Path:       "20240301 081500.m4a",
			Duration:   42,
			RecordedAt: time.Date(2024, 3, 1, 8, 15, 0, 0, time.UTC),
			Title:      "Morning thoughts",
			WriteAudio: true,
		},
		testsupport.VoiceMemoRow{
			UniqueID:   "BBBB2222-0000-0000-0000-000000000002",
			Path:       "20240302 190000.m4a",
			Duration:   125.4,
			RecordedAt: time.Date(2024, 3, 2, 19, 0, 0, 0, time.UTC),
			Title:      "Evening walk",
			WriteAudio: true,
		},
	)
}

func runCLI(t *testing.T, configPath string, args ...string) (string, error) {
	t.Helper()

	cmd := newRootCommand()
	var stdout, stderr bytes.Buffer
	cmd.SetOut(&stdout)
	cmd.SetErr(&stderr)
	flags := []string{"--log-level", "error"}
	if configPath != "" {
		flags = append(flags, "--config", configPath)
	}
	cmd.SetArgs(append(flags, args...))
	err := cmd.ExecuteContext(context.Background())
	return stdout.String(), err
}

type stubTranscriber struct {
	calls int
}

func (s *stubTranscriber) Transcribe(_ context.Context, req transcribe.Request) (transcribe.Result, error) {
	s.calls++
	return transcribe.Result{
		Text:     "transcript of " + filepath.Base(req.SourcePath),
		Language: "en",
		Segments: []transcribe.Segment{{Start: 0, End: 1, Text: "transcript"}},
	}, nil
}

type stubCompleter struct{}

func (stubCompleter) Complete(context.Context, string) (string, error) {
	return `{"summary": "A short reflection.", "topics": ["plans", "walks"], "people": "none", "sentiment": "Positive"}`, nil
}

// useStubCollaborators swaps the stage collaborators for in-process fakes.
func useStubCollaborators(t *testing.T) *stubTranscriber {
	t.Helper()

	transcriber := &stubTranscriber{}
	original := factories
	factories = stageFactories{
		transcriber: func(*config.Config) transcribe.Transcriber { return transcriber },
		completer:   func(*config.Config) enrich.Completer { return stubCompleter{} },
	}
	t.Cleanup(func() { factories = original })
	return transcriber
}
