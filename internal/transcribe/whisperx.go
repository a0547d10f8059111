package transcribe

import (
	"context"
	"os"

	"github.com/cockroachdb/errors"

	"memoryatlas/internal/services"
	"memoryatlas/internal/services/whisperx"
)

// WhisperX adapts the WhisperX CLI service to Transcriber. Each call runs in
// its own scratch directory that is removed afterwards.
type WhisperX struct {
	svc        *whisperx.Service
	scratchDir string
}

// NewWhisperX wraps svc. Scratch directories are created under scratchDir,
// or the system temp dir when empty.
func NewWhisperX(svc *whisperx.Service, scratchDir string) *WhisperX {
	return &WhisperX{svc: svc, scratchDir: scratchDir}
}

// Transcribe runs WhisperX on the request's source file.
func (w *WhisperX) Transcribe(ctx context.Context, req Request) (Result, error) {
	if w.scratchDir != "" {
		if err := os.MkdirAll(w.scratchDir, 0o755); err != nil {
			return Result{}, errors.Wrap(err, "ensure scratch dir")
		}
	}
	dir, err := os.MkdirTemp(w.scratchDir, "whisperx-*")
	if err != nil {
		return Result{}, errors.Wrap(err, "create scratch dir")
	}
	defer os.RemoveAll(dir)

	out, err := w.svc.With(req.Model, req.Language).TranscribeFile(ctx, req.SourcePath, dir)
	if err != nil {
		if ctx.Err() != nil {
			return Result{}, errors.WithStack(ctx.Err())
		}
		return Result{}, services.Wrap(services.ErrExternalTool, "transcribe", "whisperx", "", err)
	}

	segments := make([]Segment, 0, len(out.Segments))
	for _, seg := range out.Segments {
		segments = append(segments, Segment{Start: seg.Start, End: seg.End, Text: seg.Text})
	}
	return Result{Text: out.Text, Language: out.Language, Segments: segments}, nil
}
