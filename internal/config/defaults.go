package config

const (
	defaultDataDir            = "~/.local/share/memoryatlas"
	defaultDBName             = "atlas.db"
	defaultJSONLName          = "atlas.jsonl"
	defaultTranscriptsDirName = "transcripts"
	defaultLogDirName         = "logs"
	defaultVoiceMemosDB       = "~/Library/Group Containers/group.com.apple.VoiceMemos.shared/Recordings/CloudRecordings.db"
	defaultVaultPath          = "~/Documents/Vault"
	defaultAtlasDir           = "MemoryAtlas"
	defaultWhisperModel       = "large-v3-turbo"
	defaultMinDurationSec     = 5.0
	defaultLLMBaseURL         = "http://localhost:11434/v1/chat/completions"
	defaultLLMModel           = "qwen2.5:14b"
	defaultLLMTimeoutSeconds  = 300
	defaultMaxTranscriptChars = 15000
	defaultLogFormat          = "console"
	defaultLogLevel           = "info"
)

// Default returns a Config populated with repository defaults. Derived paths
// (database, JSONL trail, transcripts, logs) stay empty and are filled in
// relative to the data directory during normalization.
func Default() Config {
	return Config{
		Paths: Paths{
			DataDir: defaultDataDir,
		},
		Source: Source{
			VoiceMemosDB:   defaultVoiceMemosDB,
			ScanVoiceMemos: true,
		},
		Vault: Vault{
			VaultPath: defaultVaultPath,
			AtlasDir:  defaultAtlasDir,
		},
		Transcription: Transcription{
			Model:          defaultWhisperModel,
			MinDurationSec: defaultMinDurationSec,
		},
		Enrichment: Enrichment{
			Model:              defaultLLMModel,
			TimeoutSeconds:     defaultLLMTimeoutSeconds,
			MaxTranscriptChars: defaultMaxTranscriptChars,
		},
		Logging: Logging{
			Format: defaultLogFormat,
			Level:  defaultLogLevel,
		},
	}
}
