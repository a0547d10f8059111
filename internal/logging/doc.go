// Package logging assembles the slog loggers used by the atlas CLI.
//
// It owns the console and JSON handlers, routes output to stderr plus the
// log file under the configured log directory, and exposes context-aware
// helpers so stage code tags every line with the asset id, stage, and run id
// carried on the context. A no-op logger is provided for tests and wiring
// code that cannot fail.
package logging
