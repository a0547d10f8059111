// Package assets persists voice-memo assets in SQLite and owns their lifecycle.
//
// The Store is the single source of truth for an asset's current state. It
// reconciles scan candidates with idempotent upserts, validates every
// transcript status change against the transition table in transitions.go,
// and writes an action_log row in the same transaction as each mutation so the
// audit table never disagrees with the asset row it describes.
//
// Schema changes bump schemaVersion in schema.go; operators re-run init and
// scan to rebuild the catalogue, since every source-derived field can be
// recovered from the recordings database.
package assets
