package progress

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"strconv"

	"github.com/mattn/go-isatty"
	"github.com/pterm/pterm"

	"memoryatlas/internal/logging"
)

// Outcome labels reported per record.
const (
	OutcomeDone    = "done"
	OutcomeFailed  = "failed"
	OutcomeSkipped = "skipped"
)

// Emitter reports batch progress to the operator.
type Emitter interface {
	Stage(stage, message string)
	Item(stage, label, outcome string, snap Snapshot)
	Complete(stage, summary string)
}

// NewEmitter returns a pterm emitter when out is a terminal and a log-backed
// emitter otherwise.
func NewEmitter(out *os.File, logger *slog.Logger) Emitter {
	if out != nil && IsTerminal(out.Fd()) {
		return NewCLIEmitter(out)
	}
	return NewLogEmitter(logger)
}

// IsTerminal reports whether fd refers to a terminal.
func IsTerminal(fd uintptr) bool {
	return isatty.IsTerminal(fd) || isatty.IsCygwinTerminal(fd)
}

// CLIEmitter prints coloured progress lines with pterm.
type CLIEmitter struct {
	w io.Writer
}

// NewCLIEmitter writes progress lines to w.
func NewCLIEmitter(w io.Writer) *CLIEmitter {
	return &CLIEmitter{w: w}
}

// Stage prints a batch-level message under a coloured stage label.
func (e *CLIEmitter) Stage(stage, message string) {
	pterm.Fprintln(e.w, fmt.Sprintf("%s %s", pterm.LightCyan(stage+":"), message))
}

// Item prints one record outcome with its position in the batch, plus the
// percentage and ETA once an estimate exists.
func (e *CLIEmitter) Item(stage, label, outcome string, snap Snapshot) {
	var mark string
	switch outcome {
	case OutcomeDone:
		mark = pterm.Green("✓")
	case OutcomeSkipped:
		mark = pterm.Yellow("-")
	default:
		mark = pterm.Red("✗")
	}
	line := fmt.Sprintf("%s [%d/%d] %s %s", mark, snap.Done, snap.Total, label, pterm.Gray(outcome))
	if snap.ETA > 0 {
		line += pterm.Gray(fmt.Sprintf("  %.0f%%  eta %s", snap.Percent(), FormatDuration(snap.ETA)))
	}
	pterm.Fprintln(e.w, line)
}

// Complete prints the batch summary.
func (e *CLIEmitter) Complete(stage, summary string) {
	pterm.Fprintln(e.w, fmt.Sprintf("%s %s", pterm.LightGreen(stage+" complete:"), summary))
}

// LogEmitter reports progress as structured log lines.
type LogEmitter struct {
	logger *slog.Logger
}

// NewLogEmitter logs progress through logger.
func NewLogEmitter(logger *slog.Logger) *LogEmitter {
	if logger == nil {
		logger = logging.NewNop()
	}
	return &LogEmitter{logger: logger}
}

// Stage logs a batch-level message at info.
func (e *LogEmitter) Stage(stage, message string) {
	e.logger.Info(message, logging.String(logging.FieldStage, stage), logging.String(logging.FieldEventType, "batch_start"))
}

// Item logs one record outcome with progress fields.
func (e *LogEmitter) Item(stage, label, outcome string, snap Snapshot) {
	attrs := []logging.Attr{
		logging.String(logging.FieldStage, stage),
		logging.String(logging.FieldEventType, "batch_progress"),
		logging.String("outcome", outcome),
		logging.Int("done", snap.Done),
		logging.Int("total", snap.Total),
		logging.String("percent", strconv.FormatFloat(snap.Percent(), 'f', 0, 64)),
	}
	if snap.ETA > 0 {
		attrs = append(attrs, logging.String("eta", FormatDuration(snap.ETA)))
	}
	e.logger.Info(label, logging.Args(attrs...)...)
}

// Complete logs the batch summary.
func (e *LogEmitter) Complete(stage, summary string) {
	e.logger.Info(stage+" complete", logging.String(logging.FieldStage, stage), logging.String(logging.FieldEventType, "batch_complete"), logging.String("summary", summary))
}

// Nop discards progress.
type Nop struct{}

func (Nop) Stage(string, string)                  {}
func (Nop) Item(string, string, string, Snapshot) {}
func (Nop) Complete(string, string)               {}

func itoa(v int) string { return strconv.Itoa(v) }

func pad2(v int) string {
	if v < 10 {
		return "0" + strconv.Itoa(v)
	}
	return strconv.Itoa(v)
}
