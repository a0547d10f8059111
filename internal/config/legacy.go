package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

// legacyConfig mirrors the flat config.yaml layout used before the TOML
// sections were introduced. Unknown keys are ignored.
type legacyConfig struct {
	DataDir         *string `yaml:"data_dir"`
	DBPath          *string `yaml:"db_path"`
	JSONLPath       *string `yaml:"jsonl_path"`
	AppleDBPath     *string `yaml:"apple_db_path"`
	VaultPath       *string `yaml:"vault_path"`
	AtlasVaultDir   *string `yaml:"atlas_vault_dir"`
	ScanVoiceMemos  *bool   `yaml:"scan_voice_memos"`
	WhisperModel    *string `yaml:"whisper_model"`
	WhisperLanguage *string `yaml:"whisper_language"`
	OllamaModel     *string `yaml:"ollama_model"`
}

func isLegacyPath(path string) bool {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return true
	default:
		return false
	}
}

func decodeLegacy(path string, cfg *Config) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("open config: %w", err)
	}
	var legacy legacyConfig
	if err := yaml.Unmarshal(data, &legacy); err != nil {
		return fmt.Errorf("parse legacy config: %w", err)
	}
	legacy.apply(cfg)
	return nil
}

func (l legacyConfig) apply(cfg *Config) {
	setString(&cfg.Paths.DataDir, l.DataDir)
	setString(&cfg.Paths.DBPath, l.DBPath)
	setString(&cfg.Paths.JSONLPath, l.JSONLPath)
	setString(&cfg.Source.VoiceMemosDB, l.AppleDBPath)
	setString(&cfg.Vault.VaultPath, l.VaultPath)
	setString(&cfg.Vault.AtlasDir, l.AtlasVaultDir)
	setString(&cfg.Transcription.Model, l.WhisperModel)
	setString(&cfg.Transcription.Language, l.WhisperLanguage)
	setString(&cfg.Enrichment.Model, l.OllamaModel)
	if l.ScanVoiceMemos != nil {
		cfg.Source.ScanVoiceMemos = *l.ScanVoiceMemos
	}
}

func setString(target *string, value *string) {
	if value != nil {
		*target = *value
	}
}
