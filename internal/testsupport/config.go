package testsupport

import (
	"path/filepath"
	"testing"

	"memoryatlas/internal/config"
)

// ConfigOption allows callers to customize the generated test configuration.
type ConfigOption func(*configBuilder)

type configBuilder struct {
	t       testing.TB
	baseDir string
	cfg     *config.Config
}

// NewConfig produces a config seeded with unique temp directories per test.
// Every path lives under one temp root so nothing escapes the test.
func NewConfig(t testing.TB, opts ...ConfigOption) *config.Config {
	t.Helper()

	base := t.TempDir()
	cfgVal := config.Default()
	cfgVal.Paths.DataDir = filepath.Join(base, "data")
	cfgVal.Paths.DBPath = filepath.Join(base, "data", "atlas.db")
	cfgVal.Paths.JSONLPath = filepath.Join(base, "data", "atlas.jsonl")
	cfgVal.Paths.TranscriptsDir = filepath.Join(base, "data", "transcripts")
	cfgVal.Paths.LogDir = filepath.Join(base, "data", "logs")
	cfgVal.Source.VoiceMemosDB = filepath.Join(base, "recordings", "CloudRecordings.db")
	cfgVal.Vault.VaultPath = filepath.Join(base, "vault")
	cfgVal.Vault.AtlasDir = filepath.Join(base, "vault", "MemoryAtlas")
	cfgVal.Enrichment.BaseURL = "http://127.0.0.1:0/v1/chat/completions"

	builder := &configBuilder{
		t:       t,
		baseDir: base,
		cfg:     &cfgVal,
	}

	for _, opt := range opts {
		opt(builder)
	}

	if err := builder.cfg.EnsureDirectories(); err != nil {
		t.Fatalf("ensure directories: %v", err)
	}
	return builder.cfg
}

// WithMinDuration overrides the transcription minimum duration.
func WithMinDuration(seconds float64) ConfigOption {
	return func(b *configBuilder) {
		b.cfg.Transcription.MinDurationSec = seconds
	}
}

// WithLLMEndpoint points enrichment at the given base URL, typically an httptest server.
func WithLLMEndpoint(baseURL string) ConfigOption {
	return func(b *configBuilder) {
		b.cfg.Enrichment.BaseURL = baseURL
	}
}

// BaseDir returns the root temp directory backing the generated config.
func BaseDir(cfg *config.Config) string {
	return filepath.Dir(cfg.Paths.DataDir)
}
