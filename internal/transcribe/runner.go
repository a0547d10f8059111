package transcribe

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"path/filepath"
	"strings"
	"time"

	"github.com/cockroachdb/errors"

	"memoryatlas/internal/assets"
	"memoryatlas/internal/auditlog"
	"memoryatlas/internal/config"
	"memoryatlas/internal/fileutil"
	"memoryatlas/internal/logging"
	"memoryatlas/internal/progress"
	"memoryatlas/internal/services"
	"memoryatlas/internal/stageexec"
	"memoryatlas/internal/textutil"
)

// StageName labels logs, audit rows and progress for this stage.
const StageName = "transcribe"

// ErrMissingSourceFile reports that a record's audio file is gone.
var ErrMissingSourceFile = errors.Mark(errors.New("source file missing"), services.ErrNotFound)

// Options controls one transcription batch.
type Options struct {
	Limit    int
	Model    string
	Language string
	DryRun   bool
	Origin   assets.Origin
}

// Counts summarises a batch. TotalSeconds is the audio duration of the
// records transcribed, or of the whole selection for a dry run.
type Counts struct {
	Done         int
	Failed       int
	Skipped      int
	Selected     int
	TotalSeconds float64
}

// Summary renders the counts for operators.
func (c Counts) Summary() string {
	return fmt.Sprintf("%d done, %d failed, %d skipped", c.Done, c.Failed, c.Skipped)
}

// Runner transcribes eligible records one at a time, shortest first.
type Runner struct {
	cfg         *config.Config
	store       *assets.Store
	transcriber Transcriber
	trail       *auditlog.Trail
	logger      *slog.Logger
	emitter     progress.Emitter
	now         func() time.Time
}

// RunnerOption customises a Runner.
type RunnerOption func(*Runner)

// WithEmitter reports progress through e.
func WithEmitter(e progress.Emitter) RunnerOption {
	return func(r *Runner) {
		if e != nil {
			r.emitter = e
		}
	}
}

// WithClock overrides the wall clock used for timing.
func WithClock(now func() time.Time) RunnerOption {
	return func(r *Runner) {
		if now != nil {
			r.now = now
		}
	}
}

// NewRunner builds a transcription runner.
func NewRunner(cfg *config.Config, store *assets.Store, transcriber Transcriber, trail *auditlog.Trail, logger *slog.Logger, opts ...RunnerOption) *Runner {
	r := &Runner{
		cfg:         cfg,
		store:       store,
		transcriber: transcriber,
		trail:       trail,
		logger:      logging.NewComponentLogger(logger, StageName),
		emitter:     progress.Nop{},
		now:         time.Now,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Run processes the current selection. A cancelled context stops the batch
// before the next record; the record in flight stays running.
func (r *Runner) Run(ctx context.Context, opts Options) (Counts, error) {
	origin := opts.Origin
	if origin.Command == "" {
		origin.Command = StageName
	}
	ctx = services.WithRunID(ctx, origin.RunID)
	logger := logging.WithContext(ctx, r.logger)

	candidates, err := r.store.TranscriptionCandidates(ctx, r.cfg.Transcription.MinDurationSec, opts.Limit)
	if err != nil {
		return Counts{}, errors.Wrap(err, "select transcription candidates")
	}
	var counts Counts
	counts.Selected = len(candidates)
	var selectedSeconds float64
	for _, a := range candidates {
		selectedSeconds += a.Duration()
	}

	if opts.DryRun || len(candidates) == 0 {
		if opts.DryRun {
			counts.TotalSeconds = selectedSeconds
		}
		logger.Info("transcription selection",
			logging.Int("count", len(candidates)),
			logging.Float64("audio_seconds", selectedSeconds),
			logging.Bool("dry_run", opts.DryRun),
		)
		return counts, nil
	}

	model := r.model(opts)
	startDetail := map[string]any{"count": len(candidates), "model": model, "audio_seconds": selectedSeconds}
	r.audit(ctx, logger, origin, assets.ActionStart, "", startDetail)
	r.emitter.Stage(StageName, fmt.Sprintf("%d memos, %s of audio, model %s", len(candidates), textutil.DurationDisplay(selectedSeconds), model))

	tracker := progress.NewTrackerWithClock(len(candidates), selectedSeconds, r.now)
	for _, asset := range candidates {
		if ctx.Err() != nil {
			break
		}
		outcome, err := r.process(ctx, origin, opts, asset)
		if err != nil && ctx.Err() != nil {
			logger.Warn("transcription interrupted", logging.String(logging.FieldAssetID, asset.ID))
			break
		}
		switch outcome {
		case progress.OutcomeDone:
			counts.Done++
			counts.TotalSeconds += asset.Duration()
		case progress.OutcomeSkipped:
			counts.Skipped++
		default:
			counts.Failed++
		}
		r.emitter.Item(StageName, asset.DisplayTitle(), outcome, tracker.Advance(asset.Duration()))
	}

	completeDetail := map[string]any{
		"done":          counts.Done,
		"failed":        counts.Failed,
		"skipped":       counts.Skipped,
		"audio_seconds": counts.TotalSeconds,
	}
	persistCtx := context.WithoutCancel(ctx)
	if ctx.Err() != nil {
		completeDetail["interrupted"] = true
	}
	r.audit(persistCtx, logger, origin, assets.ActionComplete, "", completeDetail)
	r.emitter.Complete(StageName, counts.Summary())

	if err := ctx.Err(); err != nil {
		return counts, errors.WithStack(err)
	}
	return counts, nil
}

func (r *Runner) model(opts Options) string {
	if m := strings.TrimSpace(opts.Model); m != "" {
		return m
	}
	return r.cfg.Transcription.Model
}

func (r *Runner) language(opts Options) string {
	if l := strings.TrimSpace(opts.Language); l != "" {
		return l
	}
	return r.cfg.Transcription.Language
}

func (r *Runner) process(ctx context.Context, origin assets.Origin, opts Options, asset *assets.Asset) (string, error) {
	err := stageexec.Run(ctx, stageexec.Options{
		Logger:    r.logger,
		StageName: StageName,
		Asset:     asset,
		Handler: stageexec.HandlerFunc(func(stageCtx context.Context, a *assets.Asset) error {
			return r.transcribeOne(stageCtx, origin, opts, a)
		}),
		OnFailure: func(persistCtx context.Context, a *assets.Asset, f stageexec.Failure) error {
			if ctx.Err() != nil {
				return nil
			}
			return r.recordFailure(persistCtx, origin, a, f)
		},
	})
	switch {
	case err == nil:
		return progress.OutcomeDone, nil
	case services.FailureStatus(err) == assets.StatusSkipped:
		return progress.OutcomeSkipped, err
	default:
		return progress.OutcomeFailed, err
	}
}

func (r *Runner) transcribeOne(ctx context.Context, origin assets.Origin, opts Options, asset *assets.Asset) error {
	if !fileutil.Exists(asset.SourcePath) {
		return stageexec.WithReason(errors.Wrapf(ErrMissingSourceFile, "%s", asset.SourcePath), assets.MissingSourceReason)
	}
	if asset.Status != assets.StatusRunning {
		if err := r.store.MarkRunning(ctx, origin, asset.ID); err != nil {
			return err
		}
	}

	model := r.model(opts)
	started := r.now()
	result, err := r.transcriber.Transcribe(ctx, Request{
		SourcePath: asset.SourcePath,
		Model:      model,
		Language:   r.language(opts),
	})
	if err != nil {
		return err
	}
	elapsed := r.now().Sub(started).Seconds()

	// The audio is already transcribed; the remaining writes must land even
	// if the batch is cancelled now.
	ctx = context.WithoutCancel(ctx)
	text := strings.TrimSpace(result.Text)
	lang := result.Language
	if lang == "" {
		lang = "unknown"
	}
	txtPath, err := r.writeArtifacts(asset, model, lang, text, result.Segments, elapsed)
	if err != nil {
		return err
	}
	if err := r.store.MarkTranscribed(ctx, origin, asset.ID, assets.TranscriptOutput{
		Model:    model,
		Language: lang,
		Path:     txtPath,
	}); err != nil {
		return err
	}

	speed := speedFactor(asset.Duration(), elapsed)
	logging.WithContext(ctx, r.logger).Info("transcribed",
		logging.String("language", lang),
		logging.Int("segments", len(result.Segments)),
		logging.Int("text_length", len([]rune(text))),
		logging.String("speed", fmt.Sprintf("%.1fx", speed)),
	)
	r.trailLog(origin, assets.ActionDone, asset.ID, map[string]any{
		"model":       model,
		"language":    lang,
		"speed":       fmt.Sprintf("%.1fx", speed),
		"text_length": len([]rune(text)),
		"segments":    len(result.Segments),
	})
	return nil
}

func (r *Runner) recordFailure(ctx context.Context, origin assets.Origin, asset *assets.Asset, f stageexec.Failure) error {
	if f.Status == assets.StatusSkipped {
		if err := r.store.MarkSkipped(ctx, origin, asset.ID, f.Reason); err != nil {
			return err
		}
		r.trailLog(origin, assets.ActionSkipped, asset.ID, map[string]any{"reason": f.Reason})
		return nil
	}
	if err := r.store.MarkFailed(ctx, origin, asset.ID, f.Reason); err != nil {
		return err
	}
	r.trailLog(origin, assets.ActionFailed, asset.ID, map[string]any{"error": f.Reason})
	return nil
}

type transcriptDocument struct {
	Text              string    `json:"text"`
	Language          string    `json:"language"`
	Segments          []Segment `json:"segments"`
	Model             string    `json:"model"`
	DurationSec       float64   `json:"duration_sec"`
	TranscribeTimeSec float64   `json:"transcribe_time_sec"`
	SpeedFactor       float64   `json:"speed_factor"`
}

// writeArtifacts stores <id>.txt and <id>.json, replacing earlier attempts,
// and returns the text path.
func (r *Runner) writeArtifacts(asset *assets.Asset, model, lang, text string, segments []Segment, elapsed float64) (string, error) {
	dir := r.cfg.Paths.TranscriptsDir
	txtPath := filepath.Join(dir, asset.ID+".txt")
	jsonPath := filepath.Join(dir, asset.ID+".json")

	if segments == nil {
		segments = []Segment{}
	}
	doc, err := json.MarshalIndent(transcriptDocument{
		Text:              text,
		Language:          lang,
		Segments:          segments,
		Model:             model,
		DurationSec:       asset.Duration(),
		TranscribeTimeSec: elapsed,
		SpeedFactor:       speedFactor(asset.Duration(), elapsed),
	}, "", "  ")
	if err != nil {
		return "", errors.Wrap(err, "encode transcript json")
	}
	if err := fileutil.WriteFileAtomic(txtPath, []byte(text), 0o644); err != nil {
		return "", errors.Wrap(err, "write transcript text")
	}
	if err := fileutil.WriteFileAtomic(jsonPath, doc, 0o644); err != nil {
		return "", errors.Wrap(err, "write transcript json")
	}
	return txtPath, nil
}

func speedFactor(duration, elapsed float64) float64 {
	if elapsed <= 0 {
		return 0
	}
	return duration / elapsed
}

func (r *Runner) audit(ctx context.Context, logger *slog.Logger, origin assets.Origin, action, assetID string, detail map[string]any) {
	if err := r.store.LogAction(ctx, origin, action, assetID, detail); err != nil {
		logger.Warn("audit row not written", logging.String("action", action), logging.Error(err))
	}
	r.trailLog(origin, action, assetID, detail)
}

func (r *Runner) trailLog(origin assets.Origin, action, assetID string, detail map[string]any) {
	if err := r.trail.Log(origin, action, assetID, detail); err != nil {
		r.logger.Warn("audit trail not written", logging.String("action", action), logging.Error(err))
	}
}
