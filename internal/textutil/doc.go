// Package textutil provides the pure text helpers used to name and fingerprint
// published notes.
//
// The primary use cases are:
//   - Slugifying titles into filesystem-safe, ASCII note filenames
//   - Deriving short asset ids and human-readable durations
//   - Fingerprinting rendered content so unchanged notes are not rewritten
//   - Truncating long transcripts on rune boundaries
//
// Everything here is deterministic and free of I/O.
package textutil
