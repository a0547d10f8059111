// Package auditlog maintains the append-only JSONL trail that mirrors the
// action_log table in a file operators can grep or tail. Each line carries
// the keys ts, cmd, act and, when present, id, d and run.
package auditlog
