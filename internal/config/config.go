package config

import (
	_ "embed"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/pelletier/go-toml/v2"
)

//go:embed sample_config.toml
var sampleConfig string

// Paths contains the local data locations owned by MemoryAtlas.
type Paths struct {
	DataDir        string `toml:"data_dir"`
	DBPath         string `toml:"db_path"`
	JSONLPath      string `toml:"jsonl_path"`
	TranscriptsDir string `toml:"transcripts_dir"`
	LogDir         string `toml:"log_dir"`
}

// Source contains configuration for the external recording catalogues.
type Source struct {
	VoiceMemosDB   string `toml:"voice_memos_db"`
	ScanVoiceMemos bool   `toml:"scan_voice_memos"`
}

// Vault locates the notes vault and the folder MemoryAtlas writes into.
type Vault struct {
	VaultPath string `toml:"vault_path"`
	// AtlasDir is the folder inside the vault that holds generated notes.
	// Relative values are resolved against VaultPath.
	AtlasDir string `toml:"atlas_dir"`
}

// Transcription contains configuration for the WhisperX stage.
type Transcription struct {
	Model          string  `toml:"model"`
	Language       string  `toml:"language"`
	MinDurationSec float64 `toml:"min_duration_sec"`
	CUDAEnabled    bool    `toml:"cuda_enabled"`
}

// Enrichment contains configuration for the LLM summarisation stage.
type Enrichment struct {
	BaseURL            string  `toml:"base_url"`
	APIKey             string  `toml:"api_key"`
	Model              string  `toml:"model"`
	TimeoutSeconds     int     `toml:"timeout_seconds"`
	RequestsPerMinute  float64 `toml:"requests_per_minute"`
	MaxTranscriptChars int     `toml:"max_transcript_chars"`
}

// Logging contains configuration for log output.
type Logging struct {
	Format string `toml:"format"`
	Level  string `toml:"level"`
}

// Config encapsulates all configuration values for MemoryAtlas.
//
// Configuration sections by subsystem:
//   - Paths: local database, audit trail and transcript storage
//   - Source: Voice Memos catalogue location
//   - Vault: notes vault and generated folder
//   - Transcription: WhisperX model settings and minimum duration
//   - Enrichment: OpenAI-compatible endpoint used for summaries
//   - Logging: log format and level
type Config struct {
	Paths         Paths         `toml:"paths"`
	Source        Source        `toml:"source"`
	Vault         Vault         `toml:"vault"`
	Transcription Transcription `toml:"transcription"`
	Enrichment    Enrichment    `toml:"enrichment"`
	Logging       Logging       `toml:"logging"`
}

// DefaultConfigPath returns the absolute path to the default configuration file location.
func DefaultConfigPath() (string, error) {
	return expandPath("~/.config/memoryatlas/config.toml")
}

// Load locates, parses, and validates a configuration file. The returned config has all
// path fields expanded and normalized.
func Load(path string) (*Config, string, bool, error) {
	cfg := Default()

	resolvedPath, exists, err := resolveConfigPath(path)
	if err != nil {
		return nil, "", false, err
	}

	if exists {
		if isLegacyPath(resolvedPath) {
			if err := decodeLegacy(resolvedPath, &cfg); err != nil {
				return nil, "", false, err
			}
		} else if err := decodeTOML(resolvedPath, &cfg); err != nil {
			return nil, "", false, err
		}
	}

	if err := cfg.normalize(); err != nil {
		return nil, "", false, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, "", false, err
	}

	return &cfg, resolvedPath, exists, nil
}

func decodeTOML(path string, cfg *Config) error {
	file, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("open config: %w", err)
	}
	defer file.Close()

	decoder := toml.NewDecoder(file)
	if err := decoder.Decode(cfg); err != nil {
		return fmt.Errorf("parse config: %w", err)
	}
	return nil
}

func resolveConfigPath(path string) (string, bool, error) {
	if path != "" {
		expanded, err := expandPath(path)
		if err != nil {
			return "", false, err
		}
		_, err = os.Stat(expanded)
		if err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				return expanded, false, nil
			}
			return "", false, fmt.Errorf("stat config: %w", err)
		}
		return expanded, true, nil
	}

	defaultPath, err := DefaultConfigPath()
	if err != nil {
		return "", false, err
	}

	projectPath, err := filepath.Abs("memoryatlas.toml")
	if err != nil {
		return "", false, err
	}

	if info, err := os.Stat(defaultPath); err == nil && !info.IsDir() {
		return defaultPath, true, nil
	}
	if info, err := os.Stat(projectPath); err == nil && !info.IsDir() {
		return projectPath, true, nil
	}

	return defaultPath, false, nil
}

// EnsureDirectories creates the local directories MemoryAtlas writes to.
// The vault is left alone; publishing creates its folder on demand.
func (c *Config) EnsureDirectories() error {
	dirs := []string{
		c.Paths.DataDir,
		c.Paths.TranscriptsDir,
		c.Paths.LogDir,
		filepath.Dir(c.Paths.DBPath),
		filepath.Dir(c.Paths.JSONLPath),
	}
	for _, dir := range dirs {
		if strings.TrimSpace(dir) == "" {
			continue
		}
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create directory %q: %w", dir, err)
		}
	}
	return nil
}

// NotesDir returns the absolute directory receiving one note per asset.
func (c *Config) NotesDir() string {
	return filepath.Join(c.Vault.AtlasDir, "voice")
}

// NoteRelativePrefix returns the vault-relative folder recorded as an asset's note path.
func (c *Config) NoteRelativePrefix() string {
	return filepath.ToSlash(filepath.Join(filepath.Base(c.Vault.AtlasDir), "voice"))
}

// LockPath returns the single-instance lock file guarding mutating commands.
func (c *Config) LockPath() string {
	return filepath.Join(c.Paths.DataDir, "atlas.lock")
}

// WhisperXBinary returns the launcher used to run WhisperX.
func (c *Config) WhisperXBinary() string {
	return "uvx"
}

func expandPath(pathValue string) (string, error) {
	if pathValue == "" {
		return pathValue, nil
	}
	if strings.HasPrefix(pathValue, "~") {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("resolve home directory: %w", err)
		}
		if pathValue == "~" {
			pathValue = home
		} else if len(pathValue) > 1 && (pathValue[1] == '/' || pathValue[1] == '\\') {
			pathValue = filepath.Join(home, pathValue[2:])
		}
	}
	cleaned := filepath.Clean(pathValue)
	absolute, err := filepath.Abs(cleaned)
	if err != nil {
		return "", fmt.Errorf("resolve absolute path for %q: %w", cleaned, err)
	}
	return absolute, nil
}

// ExpandPath exposes the repository path expansion rules for other packages.
func ExpandPath(pathValue string) (string, error) {
	return expandPath(pathValue)
}

// CreateSample writes a sample configuration file to the specified location.
func CreateSample(path string) error {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create config directory: %w", err)
		}
	}

	if err := os.WriteFile(path, []byte(sampleConfig), 0o644); err != nil {
		return fmt.Errorf("write sample config: %w", err)
	}
	return nil
}

// LLMConfig contains the connection settings for the enrichment endpoint.
type LLMConfig struct {
	APIKey            string
	BaseURL           string
	Model             string
	TimeoutSeconds    int
	RequestsPerMinute float64
}

// GetLLM returns the enrichment connection settings.
func (c *Config) GetLLM() LLMConfig {
	return LLMConfig{
		APIKey:            strings.TrimSpace(c.Enrichment.APIKey),
		BaseURL:           strings.TrimSpace(c.Enrichment.BaseURL),
		Model:             strings.TrimSpace(c.Enrichment.Model),
		TimeoutSeconds:    c.Enrichment.TimeoutSeconds,
		RequestsPerMinute: c.Enrichment.RequestsPerMinute,
	}
}
