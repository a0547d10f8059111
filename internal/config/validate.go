package config

import (
	"errors"
	"fmt"
	"net/url"
	"strings"
)

// Validate ensures the configuration is usable.
func (c *Config) Validate() error {
	if err := c.validatePaths(); err != nil {
		return err
	}
	if err := c.validateTranscription(); err != nil {
		return err
	}
	if err := c.validateEnrichment(); err != nil {
		return err
	}
	return c.validateLogging()
}

func (c *Config) validatePaths() error {
	if strings.TrimSpace(c.Paths.DataDir) == "" {
		return errors.New("paths.data_dir must be set")
	}
	if strings.TrimSpace(c.Vault.VaultPath) == "" {
		return errors.New("vault.vault_path must be set")
	}
	if c.Source.ScanVoiceMemos && strings.TrimSpace(c.Source.VoiceMemosDB) == "" {
		return errors.New("source.voice_memos_db must be set when source.scan_voice_memos is true")
	}
	return nil
}

func (c *Config) validateTranscription() error {
	if c.Transcription.MinDurationSec < 0 {
		return errors.New("transcription.min_duration_sec must be non-negative")
	}
	return nil
}

func (c *Config) validateEnrichment() error {
	if c.Enrichment.TimeoutSeconds <= 0 {
		return errors.New("enrichment.timeout_seconds must be positive")
	}
	if c.Enrichment.RequestsPerMinute < 0 {
		return errors.New("enrichment.requests_per_minute must be non-negative")
	}
	if c.Enrichment.MaxTranscriptChars <= 0 {
		return errors.New("enrichment.max_transcript_chars must be positive")
	}
	parsed, err := url.Parse(c.Enrichment.BaseURL)
	if err != nil || parsed.Scheme == "" || parsed.Host == "" {
		return fmt.Errorf("enrichment.base_url %q must be an absolute URL", c.Enrichment.BaseURL)
	}
	return nil
}

func (c *Config) validateLogging() error {
	switch c.Logging.Format {
	case "console", "json":
	default:
		return fmt.Errorf("logging.format %q must be console or json", c.Logging.Format)
	}
	switch c.Logging.Level {
	case "debug", "info", "warn", "warning", "error":
	default:
		return fmt.Errorf("logging.level %q must be debug, info, warn, or error", c.Logging.Level)
	}
	return nil
}
