// Package scan reconciles the asset catalogue against a source snapshot. Each
// pass upserts every candidate and records the batch in both the store's
// action log and the JSONL trail.
package scan
