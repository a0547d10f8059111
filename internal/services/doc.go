// Package services defines shared utilities consumed by the stage runners and
// external integrations.
//
// Key responsibilities:
//   - Context helpers that stamp asset IDs, stage names, and batch run
//     identifiers for logging and the audit trail.
//   - Structured error markers plus the Wrap helper that translate per-record
//     failures into consistent transcript statuses (failed vs skipped).
//
// Use these helpers when wiring new stage logic so failure handling and
// observability stay uniform across the pipeline.
package services
