package whisperx

// Config captures runtime settings for WhisperX operations.
type Config struct {
	// Model is the WhisperX model to use (e.g., "large-v3-turbo").
	Model string
	// CUDAEnabled enables GPU acceleration.
	CUDAEnabled bool
	// Language forces a transcription language; empty lets WhisperX detect it.
	Language string
}

// WhisperX configuration constants.
const (
	DefaultModel   = "large-v3-turbo"
	CUDAIndexURL   = "https://download.pytorch.org/whl/cu128"
	PypiIndexURL   = "https://pypi.org/simple"
	BatchSize      = "8"
	OutputFormat   = "json"
	VADMethod      = "silero"
	CPUDevice      = "cpu"
	CUDADevice     = "cuda"
	CPUComputeType = "int8"
)

// UVXCommand launches WhisperX in an ephemeral environment.
const UVXCommand = "uvx"
