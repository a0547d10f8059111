// Package whisperx runs WhisperX over a single audio file and returns the
// transcript text, detected language, and timed segments.
//
// WhisperX is launched through uvx so no Python environment has to be managed
// by hand. Output is written as JSON into a caller-supplied scratch directory
// and parsed back; the caller decides where durable artifacts live.
package whisperx
