package transcribe

//go:generate mockgen -source=interfaces.go -destination=mocks/mocks.go -package=mocks

import "context"

// Request names the audio to transcribe and optional overrides.
type Request struct {
	SourcePath string
	Model      string
	Language   string
}

// Segment is one timed span of transcript text.
type Segment struct {
	Start float64 `json:"start"`
	End   float64 `json:"end"`
	Text  string  `json:"text"`
}

// Result is the collaborator output for one recording.
type Result struct {
	Text     string
	Language string
	Segments []Segment
}

// Transcriber converts audio into text.
type Transcriber interface {
	Transcribe(ctx context.Context, req Request) (Result, error)
}
