// Package transcribe runs the transcription stage: it selects eligible voice
// memos shortest first, hands each to a Transcriber, stores the text and JSON
// artifacts, and records every outcome in the asset store and audit trail.
package transcribe
