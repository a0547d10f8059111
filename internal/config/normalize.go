package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/joho/godotenv"
)

func (c *Config) normalize() error {
	if err := c.normalizePaths(); err != nil {
		return err
	}
	loadDotEnv(filepath.Join(c.Paths.DataDir, ".env"), ".env")
	if err := c.normalizeSource(); err != nil {
		return err
	}
	if err := c.normalizeVault(); err != nil {
		return err
	}
	c.normalizeTranscription()
	c.normalizeEnrichment()
	c.normalizeLogging()
	return nil
}

// loadDotEnv populates unset environment variables from the given files.
// Missing files are ignored and existing variables are never overwritten.
func loadDotEnv(paths ...string) {
	for _, path := range paths {
		if info, err := os.Stat(path); err != nil || info.IsDir() {
			continue
		}
		_ = godotenv.Load(path)
	}
}

func (c *Config) normalizePaths() error {
	var err error
	if strings.TrimSpace(c.Paths.DataDir) == "" {
		c.Paths.DataDir = defaultDataDir
	}
	if c.Paths.DataDir, err = expandPath(c.Paths.DataDir); err != nil {
		return fmt.Errorf("paths.data_dir: %w", err)
	}
	derived := []struct {
		key      string
		value    *string
		fallback string
	}{
		{"paths.db_path", &c.Paths.DBPath, defaultDBName},
		{"paths.jsonl_path", &c.Paths.JSONLPath, defaultJSONLName},
		{"paths.transcripts_dir", &c.Paths.TranscriptsDir, defaultTranscriptsDirName},
		{"paths.log_dir", &c.Paths.LogDir, defaultLogDirName},
	}
	for _, entry := range derived {
		if strings.TrimSpace(*entry.value) == "" {
			*entry.value = filepath.Join(c.Paths.DataDir, entry.fallback)
		}
		if *entry.value, err = expandPath(*entry.value); err != nil {
			return fmt.Errorf("%s: %w", entry.key, err)
		}
	}
	return nil
}

func (c *Config) normalizeSource() error {
	var err error
	if c.Source.VoiceMemosDB, err = expandPath(strings.TrimSpace(c.Source.VoiceMemosDB)); err != nil {
		return fmt.Errorf("source.voice_memos_db: %w", err)
	}
	return nil
}

func (c *Config) normalizeVault() error {
	var err error
	if c.Vault.VaultPath, err = expandPath(strings.TrimSpace(c.Vault.VaultPath)); err != nil {
		return fmt.Errorf("vault.vault_path: %w", err)
	}
	atlasDir := strings.TrimSpace(c.Vault.AtlasDir)
	if atlasDir == "" {
		atlasDir = defaultAtlasDir
	}
	if !filepath.IsAbs(atlasDir) && !strings.HasPrefix(atlasDir, "~") && c.Vault.VaultPath != "" {
		atlasDir = filepath.Join(c.Vault.VaultPath, atlasDir)
	}
	if c.Vault.AtlasDir, err = expandPath(atlasDir); err != nil {
		return fmt.Errorf("vault.atlas_dir: %w", err)
	}
	return nil
}

func (c *Config) normalizeTranscription() {
	c.Transcription.Model = strings.TrimSpace(c.Transcription.Model)
	if c.Transcription.Model == "" {
		c.Transcription.Model = defaultWhisperModel
	}
	c.Transcription.Language = strings.ToLower(strings.TrimSpace(c.Transcription.Language))
}

func (c *Config) normalizeEnrichment() {
	if c.Enrichment.APIKey == "" {
		if value, ok := os.LookupEnv("MEMORYATLAS_LLM_API_KEY"); ok {
			c.Enrichment.APIKey = value
		}
	}
	c.Enrichment.APIKey = strings.TrimSpace(c.Enrichment.APIKey)
	c.Enrichment.BaseURL = strings.TrimSpace(c.Enrichment.BaseURL)
	if c.Enrichment.BaseURL == "" {
		c.Enrichment.BaseURL = ollamaBaseURL()
	}
	c.Enrichment.Model = strings.TrimSpace(c.Enrichment.Model)
	if c.Enrichment.Model == "" {
		c.Enrichment.Model = defaultLLMModel
	}
	if c.Enrichment.TimeoutSeconds == 0 {
		c.Enrichment.TimeoutSeconds = defaultLLMTimeoutSeconds
	}
	if c.Enrichment.MaxTranscriptChars == 0 {
		c.Enrichment.MaxTranscriptChars = defaultMaxTranscriptChars
	}
}

// ollamaBaseURL derives the chat completions endpoint from OLLAMA_HOST when set.
func ollamaBaseURL() string {
	host, ok := os.LookupEnv("OLLAMA_HOST")
	host = strings.TrimRight(strings.TrimSpace(host), "/")
	if !ok || host == "" {
		return defaultLLMBaseURL
	}
	if !strings.HasPrefix(host, "http://") && !strings.HasPrefix(host, "https://") {
		host = "http://" + host
	}
	return host + "/v1/chat/completions"
}

func (c *Config) normalizeLogging() {
	c.Logging.Format = strings.ToLower(strings.TrimSpace(c.Logging.Format))
	if c.Logging.Format == "" {
		c.Logging.Format = defaultLogFormat
	}
	c.Logging.Level = strings.ToLower(strings.TrimSpace(c.Logging.Level))
	if c.Logging.Level == "" {
		c.Logging.Level = defaultLogLevel
	}
}
