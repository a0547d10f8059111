package enrich

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/cockroachdb/errors"

	"memoryatlas/internal/assets"
	"memoryatlas/internal/auditlog"
	"memoryatlas/internal/config"
	"memoryatlas/internal/logging"
	"memoryatlas/internal/progress"
	"memoryatlas/internal/services"
	"memoryatlas/internal/stageexec"
)

// StageName labels logs, audit rows and progress for this stage.
const StageName = "enrich"

// Failure reasons stored in enrich_error.
const (
	ReasonTranscriptMissing = "transcript file not found"
	ReasonEmptyTranscript   = "empty transcript"
	ReasonLLMFailed         = "llm call failed"
	ReasonInvalidJSON       = "invalid JSON response"
)

// Options controls one enrichment batch.
type Options struct {
	Limit  int
	Model  string
	DryRun bool
	Origin assets.Origin
}

// Counts summarises a batch.
type Counts struct {
	Done     int
	Failed   int
	Skipped  int
	Selected int
}

// Summary renders the counts for operators.
func (c Counts) Summary() string {
	return fmt.Sprintf("%d done, %d failed, %d skipped", c.Done, c.Failed, c.Skipped)
}

// Runner enriches transcribed records that have no summary yet.
type Runner struct {
	cfg       *config.Config
	store     *assets.Store
	completer Completer
	trail     *auditlog.Trail
	logger    *slog.Logger
	emitter   progress.Emitter
	now       func() time.Time
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

// NewRunner builds an enrichment runner.
func NewRunner(cfg *config.Config, store *assets.Store, completer Completer, trail *auditlog.Trail, logger *slog.Logger, opts ...RunnerOption) *Runner {
	r := &Runner{
		cfg:       cfg,
		store:     store,
		completer: completer,
		trail:     trail,
		logger:    logging.NewComponentLogger(logger, StageName),
		emitter:   progress.Nop{},
		now:       time.Now,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Run enriches the current selection one record at a time.
func (r *Runner) Run(ctx context.Context, opts Options) (Counts, error) {
	origin := opts.Origin
	if origin.Command == "" {
		origin.Command = StageName
	}
	ctx = services.WithRunID(ctx, origin.RunID)
	logger := logging.WithContext(ctx, r.logger)

	candidates, err := r.store.EnrichmentCandidates(ctx, opts.Limit)
	if err != nil {
		return Counts{}, errors.Wrap(err, "select enrichment candidates")
	}
	counts := Counts{Selected: len(candidates)}
	if opts.DryRun || len(candidates) == 0 {
		for _, a := range candidates {
			logger.Info("would enrich",
				logging.String(logging.FieldAssetID, a.ID),
				logging.String("title", a.DisplayTitle()),
				logging.String("duration", a.DurationDisplay()),
			)
		}
		return counts, nil
	}

	completer := r.completer
	if selector, ok := completer.(ModelSelector); ok && strings.TrimSpace(opts.Model) != "" {
		completer = selector.ForModel(opts.Model)
	}

	r.audit(ctx, logger, origin, assets.ActionStart, map[string]any{"count": len(candidates), "model": r.model(opts)})
	r.emitter.Stage(StageName, fmt.Sprintf("%d transcripts, model %s", len(candidates), r.model(opts)))

	tracker := progress.NewTrackerWithClock(len(candidates), 0, r.now)
	for _, asset := range candidates {
		if ctx.Err() != nil {
			break
		}
		outcome, err := r.process(ctx, origin, completer, asset)
		if err != nil && ctx.Err() != nil {
			logger.Warn("enrichment interrupted", logging.String(logging.FieldAssetID, asset.ID))
			break
		}
		switch outcome {
		case progress.OutcomeDone:
			counts.Done++
		case progress.OutcomeSkipped:
			counts.Skipped++
		default:
			counts.Failed++
		}
		r.emitter.Item(StageName, asset.DisplayTitle(), outcome, tracker.Advance(0))
	}

	detail := map[string]any{"done": counts.Done, "failed": counts.Failed, "skipped": counts.Skipped}
	if ctx.Err() != nil {
		detail["interrupted"] = true
	}
	r.audit(context.WithoutCancel(ctx), logger, origin, assets.ActionComplete, detail)
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
	return r.cfg.Enrichment.Model
}

func (r *Runner) process(ctx context.Context, origin assets.Origin, completer Completer, asset *assets.Asset) (string, error) {
	err := stageexec.Run(ctx, stageexec.Options{
		Logger:    r.logger,
		StageName: StageName,
		Asset:     asset,
		Handler: stageexec.HandlerFunc(func(stageCtx context.Context, a *assets.Asset) error {
			return r.enrichOne(stageCtx, origin, completer, a)
		}),
		OnFailure: func(persistCtx context.Context, a *assets.Asset, f stageexec.Failure) error {
			if ctx.Err() != nil || errors.Is(f.Err, assets.ErrNotEligible) {
				return nil
			}
			return r.recordFailure(persistCtx, origin, a, f.Reason)
		},
	})
	switch {
	case err == nil:
		return progress.OutcomeDone, nil
	case errors.Is(err, assets.ErrNotEligible):
		return progress.OutcomeSkipped, err
	default:
		return progress.OutcomeFailed, err
	}
}

func (r *Runner) enrichOne(ctx context.Context, origin assets.Origin, completer Completer, asset *assets.Asset) error {
	data, err := os.ReadFile(asset.TranscriptPath)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return stageexec.WithReason(services.Wrap(services.ErrNotFound, StageName, "read transcript", asset.TranscriptPath, err), ReasonTranscriptMissing)
		}
		return stageexec.WithReason(err, "read error: "+err.Error())
	}
	transcript := strings.TrimSpace(string(data))
	if transcript == "" {
		return stageexec.WithReason(services.Wrap(services.ErrValidation, StageName, "read transcript", "transcript is empty", nil), ReasonEmptyTranscript)
	}

	prompt := BuildPrompt(transcript, r.cfg.Enrichment.MaxTranscriptChars)
	reply, err := completer.Complete(ctx, prompt)
	if err != nil {
		if ctx.Err() != nil {
			return errors.WithStack(ctx.Err())
		}
		return stageexec.WithReason(services.Wrap(services.ErrExternalTool, StageName, "complete", "", err), ReasonLLMFailed)
	}
	if strings.TrimSpace(reply) == "" {
		return stageexec.WithReason(services.Wrap(services.ErrExternalTool, StageName, "complete", "empty response", nil), ReasonLLMFailed)
	}

	enrichment, err := ParseEnrichment(reply)
	if err != nil {
		logging.WithContext(ctx, r.logger).Debug("unparseable enrichment response",
			logging.String("response_snippet", snippet(reply, 200)),
			logging.Error(err),
		)
		return stageexec.WithReason(err, ReasonInvalidJSON)
	}

	if err := r.store.SaveEnrichment(context.WithoutCancel(ctx), origin, asset.ID, enrichment); err != nil {
		return err
	}
	r.trailLog(origin, assets.ActionEnriched, asset.ID, map[string]any{"sentiment": enrichment.Sentiment})
	return nil
}

func (r *Runner) recordFailure(ctx context.Context, origin assets.Origin, asset *assets.Asset, reason string) error {
	if err := r.store.RecordEnrichmentFailure(ctx, origin, asset.ID, reason); err != nil {
		return err
	}
	r.trailLog(origin, assets.ActionEnrichFailed, asset.ID, map[string]any{"reason": reason})
	return nil
}

func (r *Runner) audit(ctx context.Context, logger *slog.Logger, origin assets.Origin, action string, detail map[string]any) {
	if err := r.store.LogAction(ctx, origin, action, "", detail); err != nil {
		logger.Warn("audit row not written", logging.String("action", action), logging.Error(err))
	}
	r.trailLog(origin, action, "", detail)
}

func (r *Runner) trailLog(origin assets.Origin, action, assetID string, detail map[string]any) {
	if err := r.trail.Log(origin, action, assetID, detail); err != nil {
		r.logger.Warn("audit trail not written", logging.String("action", action), logging.Error(err))
	}
}

func snippet(value string, limit int) string {
	runes := []rune(strings.TrimSpace(value))
	if len(runes) > limit {
		return string(runes[:limit]) + "..."
	}
	return string(runes)
}
