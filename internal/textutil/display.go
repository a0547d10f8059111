package textutil

import (
	"fmt"
	"strings"
)

// ShortID returns the first dash-separated segment of an id, or its first
// eight characters when the id has no dash.
func ShortID(id string) string {
	if head, _, found := strings.Cut(id, "-"); found {
		return head
	}
	if len(id) > 8 {
		return id[:8]
	}
	return id
}

// DurationDisplay formats whole seconds as m:ss, or h:mm:ss once an hour is
// reached. Fractional seconds are truncated.
func DurationDisplay(seconds float64) string {
	total := int(seconds)
	if total < 0 {
		total = 0
	}
	h := total / 3600
	m := (total % 3600) / 60
	s := total % 60
	if h > 0 {
		return fmt.Sprintf("%d:%02d:%02d", h, m, s)
	}
	return fmt.Sprintf("%d:%02d", m, s)
}

// TruncateRunes cuts value to at most limit runes and appends suffix when it
// had to cut. The second result reports whether truncation happened.
func TruncateRunes(value string, limit int, suffix string) (string, bool) {
	if limit <= 0 {
		return value, false
	}
	count := 0
	for i := range value {
		if count == limit {
			return value[:i] + suffix, true
		}
		count++
	}
	return value, false
}

// Ternary is a generic conditional helper that returns a if cond is true, b otherwise.
func Ternary[T any](cond bool, a, b T) T {
	if cond {
		return a
	}
	return b
}
