package services

import (
	"strings"

	"github.com/cockroachdb/errors"

	"memoryatlas/internal/assets"
)

var (
	ErrExternalTool  = errors.New("external tool error")
	ErrValidation    = errors.New("validation error")
	ErrConfiguration = errors.New("configuration error")
	ErrNotFound      = errors.New("not found")
	ErrTimeout       = errors.New("timeout")
	ErrTransient     = errors.New("transient failure")
)

// Wrap builds an error message that includes stage context while marking it
// with the provided sentinel for later status classification. The marker should
// be one of the exported sentinel errors above.
func Wrap(marker error, stage, operation, message string, err error) error {
	detail := buildDetail(stage, operation, message)
	if marker == nil {
		marker = ErrTransient
	}
	var wrapped error
	if err != nil {
		wrapped = errors.WrapWithDepth(1, err, detail)
	} else {
		wrapped = errors.NewWithDepth(1, detail)
	}
	return errors.Mark(wrapped, marker)
}

// WithHint attaches an operator-facing remediation hint.
func WithHint(err error, hint string) error {
	if err == nil || strings.TrimSpace(hint) == "" {
		return err
	}
	return errors.WithHint(err, hint)
}

// FailureStatus maps a per-record stage error to the transcript status the
// runner should persist. Missing inputs can never succeed without operator
// action, so they are parked as skipped instead of failed.
func FailureStatus(err error) assets.Status {
	switch {
	case err == nil:
		return assets.StatusFailed
	case errors.Is(err, ErrNotFound):
		return assets.StatusSkipped
	default:
		return assets.StatusFailed
	}
}

// ErrorDetails summarises an error for logs and audit rows.
type ErrorDetails struct {
	Kind    string
	Message string
	Hint    string
}

// Details extracts the classification, message, and hints from err.
func Details(err error) ErrorDetails {
	if err == nil {
		return ErrorDetails{}
	}
	return ErrorDetails{
		Kind:    kindOf(err),
		Message: strings.TrimSpace(err.Error()),
		Hint:    strings.Join(errors.GetAllHints(err), "; "),
	}
}

func kindOf(err error) string {
	switch {
	case errors.Is(err, ErrValidation):
		return "validation"
	case errors.Is(err, ErrConfiguration):
		return "configuration"
	case errors.Is(err, ErrNotFound):
		return "not_found"
	case errors.Is(err, ErrTimeout):
		return "timeout"
	case errors.Is(err, ErrExternalTool):
		return "external_tool"
	default:
		return "transient"
	}
}

func buildDetail(stage, operation, message string) string {
	parts := make([]string, 0, 3)
	if stage = strings.TrimSpace(stage); stage != "" {
		parts = append(parts, stage)
	}
	if operation = strings.TrimSpace(operation); operation != "" {
		parts = append(parts, operation)
	}
	if message = strings.TrimSpace(message); message != "" {
		parts = append(parts, message)
	}
	if len(parts) == 0 {
		return "service failure"
	}
	return strings.Join(parts, ": ")
}
