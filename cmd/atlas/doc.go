// Package main hosts the atlas CLI entrypoint and command graph.
//
// The Cobra command tree maps each pipeline stage (scan, transcribe, enrich,
// publish) and the maintenance commands (status, doctor, info, retry) onto the
// internal packages. It centralizes configuration resolution, logger setup,
// the single-instance lock, and run-id allocation so subcommands only wire
// the stage they drive.
//
// Keep this package lean: stage behaviour belongs in internal packages and is
// surfaced here through flags.
package main
