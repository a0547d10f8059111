package textutil

import (
	"strings"
	"testing"
)

func TestSlug(t *testing.T) {
	tests := []struct {
		name  string
		title string
		want  string
	}{
		{"simple", "Morning thoughts", "morning-thoughts"},
		{"punctuation", "  Call with Ana: plans!! ", "call-with-ana-plans"},
		{"collapses whitespace", "a \t  b\nc", "a-b-c"},
		{"keeps hyphens", "--re-think--", "re-think"},
		{"diacritics", "Café Crème", "cafe-creme"},
		{"empty", "", "untitled"},
		{"only symbols", "???", "untitled"},
		{"non latin", "Привет", "untitled"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Slug(tt.title); got != tt.want {
				t.Errorf("Slug(%q) = %q, want %q", tt.title, got, tt.want)
			}
		})
	}
}

func TestSlugTruncatesToSixty(t *testing.T) {
	got := Slug(strings.Repeat("abcde ", 20))
	if len(got) != 60 {
		t.Fatalf("expected 60 characters, got %d (%q)", len(got), got)
	}
}

func TestShortID(t *testing.T) {
	if got := ShortID("1A2B3C4D-5E6F-7A8B"); got != "1A2B3C4D" {
		t.Fatalf("unexpected short id %q", got)
	}
	if got := ShortID("abcdef0123456789"); got != "abcdef01" {
		t.Fatalf("unexpected short id %q", got)
	}
	if got := ShortID("abc"); got != "abc" {
		t.Fatalf("unexpected short id %q", got)
	}
}

func TestDurationDisplay(t *testing.T) {
	tests := []struct {
		seconds float64
		want    string
	}{
		{125.4, "2:05"},
		{0, "0:00"},
		{59.99, "0:59"},
		{3600, "1:00:00"},
		{3725, "1:02:05"},
	}
	for _, tt := range tests {
		if got := DurationDisplay(tt.seconds); got != tt.want {
			t.Errorf("DurationDisplay(%v) = %q, want %q", tt.seconds, got, tt.want)
		}
	}
}

func TestFingerprintStable(t *testing.T) {
	a := Fingerprint("hello")
	if a != Fingerprint("hello") {
		t.Fatal("expected identical content to fingerprint identically")
	}
	if len(a) != 16 {
		t.Fatalf("expected 16 hex characters, got %d", len(a))
	}
	if a == Fingerprint("hello!") {
		t.Fatal("expected different content to change the fingerprint")
	}
}

func TestTruncateRunes(t *testing.T) {
	got, cut := TruncateRunes("héllo wörld", 5, "…")
	if !cut || got != "héllo…" {
		t.Fatalf("unexpected truncation %q cut=%v", got, cut)
	}
	got, cut = TruncateRunes("short", 10, "…")
	if cut || got != "short" {
		t.Fatalf("unexpected truncation %q cut=%v", got, cut)
	}
}
