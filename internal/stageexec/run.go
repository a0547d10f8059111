package stageexec

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/cockroachdb/errors"

	"memoryatlas/internal/assets"
	"memoryatlas/internal/logging"
	"memoryatlas/internal/services"
)

// ErrStageExecution marks a per-record failure inside a stage runner.
var ErrStageExecution = errors.Mark(errors.New("stage execution failed"), services.ErrExternalTool)

// Handler is the per-record stage contract used by the execution helper.
type Handler interface {
	Execute(context.Context, *assets.Asset) error
}

// HandlerFunc adapts a function to Handler.
type HandlerFunc func(context.Context, *assets.Asset) error

// Execute calls f.
func (f HandlerFunc) Execute(ctx context.Context, asset *assets.Asset) error {
	return f(ctx, asset)
}

// Failure describes a failed record handed to the FailureRecorder.
type Failure struct {
	Status assets.Status
	Reason string
	Err    error
}

// FailureRecorder persists a failure for a record.
type FailureRecorder func(context.Context, *assets.Asset, Failure) error

// Options controls one stage execution.
type Options struct {
	Logger    *slog.Logger
	StageName string
	Asset     *assets.Asset
	Handler   Handler
	OnFailure FailureRecorder
}

// Run executes the handler for a single record. Errors and panics are
// converted into a Failure, persisted through OnFailure, logged, and returned
// so the caller can count them and move on to the next record.
func Run(ctx context.Context, opts Options) error {
	if opts.Handler == nil {
		return fmt.Errorf("stage handler unavailable: %s", opts.StageName)
	}
	if opts.Asset == nil {
		return fmt.Errorf("asset is required")
	}

	stageCtx := services.WithAssetID(services.WithStage(ctx, opts.StageName), opts.Asset.ID)
	stageLogger := logging.WithContext(stageCtx, opts.Logger)

	stageLogger.Debug(
		"stage started",
		logging.String(logging.FieldEventType, "stage_start"),
		logging.String("title", strings.TrimSpace(opts.Asset.Title)),
		logging.String("source_file", strings.TrimSpace(opts.Asset.SourcePath)),
	)

	if err := execute(stageCtx, opts.Handler, opts.Asset); err != nil {
		return handleFailure(stageCtx, stageLogger, opts, err)
	}

	stageLogger.Debug("stage completed", logging.String(logging.FieldEventType, "stage_complete"))
	return nil
}

func execute(ctx context.Context, handler Handler, asset *assets.Asset) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = errors.Mark(errors.Newf("panic: %v", r), ErrStageExecution)
		}
	}()
	err = handler.Execute(ctx, asset)
	if err != nil && !classified(err) {
		err = errors.Mark(err, ErrStageExecution)
	}
	return err
}

func classified(err error) bool {
	return errors.IsAny(err,
		services.ErrExternalTool,
		services.ErrValidation,
		services.ErrConfiguration,
		services.ErrNotFound,
		services.ErrTimeout,
		services.ErrTransient,
		assets.ErrRecordWrite,
		context.Canceled,
		context.DeadlineExceeded,
	)
}

func handleFailure(ctx context.Context, logger *slog.Logger, opts Options, stageErr error) error {
	failure := Failure{
		Status: services.FailureStatus(stageErr),
		Reason: ReasonFor(stageErr),
		Err:    stageErr,
	}
	details := services.Details(stageErr)

	attrs := []logging.Attr{
		logging.String("resolved_status", string(failure.Status)),
		logging.String("reason", failure.Reason),
		logging.String(logging.FieldErrorKind, details.Kind),
		logging.Error(stageErr),
	}
	if details.Hint != "" {
		attrs = append(attrs, logging.String(logging.FieldErrorHint, details.Hint))
	}
	if failure.Status == assets.StatusSkipped {
		logging.WarnWithContext(logger, "stage skipped", "stage_skip", append(attrs,
			logging.String(logging.FieldImpact, "record parked until an operator requeues it"))...)
	} else {
		logging.ErrorWithContext(logger, "stage failed", "stage_failure", attrs...)
	}

	if opts.OnFailure != nil {
		// The batch context may already be cancelled; the failure must still land.
		persistCtx := context.WithoutCancel(ctx)
		if err := opts.OnFailure(persistCtx, opts.Asset, failure); err != nil {
			logger.Error("failed to persist stage failure", logging.Error(err))
			return errors.CombineErrors(stageErr, err)
		}
	}
	return stageErr
}

type reasonError struct {
	cause  error
	reason string
}

func (e *reasonError) Error() string { return e.reason + ": " + e.cause.Error() }
func (e *reasonError) Unwrap() error { return e.cause }

// WithReason attaches the short reason persisted with a failed record.
func WithReason(err error, reason string) error {
	if err == nil {
		return nil
	}
	return &reasonError{cause: err, reason: reason}
}

// ReasonFor returns the persisted reason for err: the outermost reason
// attached with WithReason, or the error message.
func ReasonFor(err error) string {
	if err == nil {
		return ""
	}
	var re *reasonError
	if errors.As(err, &re) {
		return re.reason
	}
	message := strings.TrimSpace(services.Details(err).Message)
	if message == "" {
		return "stage failed"
	}
	return message
}
