// Package preflight provides readiness checks for the external tools,
// catalogues, and filesystem paths the pipeline depends on.
//
// The CLI "atlas doctor" command runs RunAll and exits non-zero when a
// required check fails. Optional checks (the enrichment endpoint) are reported
// but never fail the command, since scanning and transcription work without
// them.
package preflight
