package publish

import (
	"strings"
	"testing"

	"github.com/cockroachdb/errors"

	"memoryatlas/internal/assets"
	"memoryatlas/internal/textutil"
)

func morningThoughts() *assets.Asset {
	duration := 125.4
	return &assets.Asset{
		ID:          "5F3A9C2E-1B7D-4E8A-9F00-1234567890AB",
		SourceType:  assets.SourceVoiceMemo,
		Title:       "Morning thoughts",
		DurationSec: &duration,
		RecordedAt:  "2024-03-01T08:15:00Z",
		FileFormat:  "m4a",
		Status:      assets.StatusPending,
	}
}

func TestRenderNotePendingAsset(t *testing.T) {
	a := morningThoughts()
	note, err := RenderNote(a)
	if err != nil {
		t.Fatalf("RenderNote: %v", err)
	}
	for _, want := range []string{
		"---\nuuid: 5F3A9C2E-1B7D-4E8A-9F00-1234567890AB\ntype: voice_memo\n",
		`title: "Morning thoughts"`,
		"recorded: 2024-03-01T08:15:00Z\ndate: 2024-03-01\n",
		"duration: 2:05\nduration_sec: 125.4\n",
		"format: m4a\ntranscribed: false\nenriched: false\n",
		"tags: [memoryatlas, memoryatlas/voice-memo]\n",
		"atlas-id: 5F3A9C2E\n",
		"# Morning thoughts\n",
		"| Duration | 2:05 |",
		"| Source | Apple Voice Memos |",
		"| UUID | `5F3A9C2E` |",
		"## Transcript\n\n*Pending transcription.*\n",
	} {
		if !strings.Contains(note, want) {
			t.Fatalf("note missing %q:\n%s", want, note)
		}
	}
	if strings.Contains(note, "## Summary") {
		t.Fatal("pending asset should not have a summary section")
	}
	if !strings.HasSuffix(note, "*Pending transcription.*\n") {
		t.Fatalf("note should end with a single newline:\n%q", note[len(note)-40:])
	}
	if got := a.NoteFilename(); got != "2024-03-01_morning-thoughts_5F3A9C2E.md" {
		t.Fatalf("NoteFilename = %q", got)
	}
}

func TestRenderNoteEnrichedAsset(t *testing.T) {
	a := morningThoughts()
	a.Status = assets.StatusDone
	a.TranscriptPath = "/data/transcripts/x.txt"
	a.Summary = "Plans for the garden."
	a.Topics = "garden, seeds"
	a.People = "None"
	a.Sentiment = "positive"
	a.Title = `The "big" plan`

	note, err := RenderNote(a)
	if err != nil {
		t.Fatalf("RenderNote: %v", err)
	}
	for _, want := range []string{
		`title: "The \"big\" plan"`,
		"transcribed: true\nenriched: true\n",
		"tags: [memoryatlas, memoryatlas/voice-memo, memoryatlas/transcribed]",
		"[Open transcript](file:///data/transcripts/x.txt)",
		"## Summary\n\nPlans for the garden.\n\n**Topics**: garden, seeds\n\n**Sentiment**: positive\n",
	} {
		if !strings.Contains(note, want) {
			t.Fatalf("note missing %q:\n%s", want, note)
		}
	}
	if strings.Contains(note, "**People**") {
		t.Fatal("people of \"none\" should be omitted")
	}
}

func TestRenderNoteLocationAndUnknowns(t *testing.T) {
	lat, lon := 52.52, 13.405
	a := &assets.Asset{ID: "abcdef1234567", SourceType: assets.SourceVoiceMemo, HasGPS: true, Lat: &lat, Lon: &lon, Place: "Berlin"}
	note, err := RenderNote(a)
	if err != nil {
		t.Fatalf("RenderNote: %v", err)
	}
	for _, want := range []string{
		`title: "Untitled"`,
		"format: unknown",
		"location: [52.52, 13.405]\nplace: \"Berlin\"\n",
		"# Untitled Recording",
		"| Duration | unknown |",
		"| Format | .? |",
		"| Location | Berlin |",
		"atlas-id: abcdef12\n",
	} {
		if !strings.Contains(note, want) {
			t.Fatalf("note missing %q:\n%s", want, note)
		}
	}
	if strings.Contains(note, "recorded:") || strings.Contains(note, "duration_sec") {
		t.Fatal("absent fields should be omitted from frontmatter")
	}
}

func TestRenderNoteIsDeterministic(t *testing.T) {
	first, err := RenderNote(morningThoughts())
	if err != nil {
		t.Fatal(err)
	}
	second, err := RenderNote(morningThoughts())
	if err != nil {
		t.Fatal(err)
	}
	if textutil.Fingerprint(first) != textutil.Fingerprint(second) {
		t.Fatal("equal assets must render equal notes")
	}
	changed := morningThoughts()
	changed.Title = "Evening thoughts"
	third, err := RenderNote(changed)
	if err != nil {
		t.Fatal(err)
	}
	if textutil.Fingerprint(first) == textutil.Fingerprint(third) {
		t.Fatal("a rendered field change must change the fingerprint")
	}
}

func TestRenderNoteRejectsIncompleteAsset(t *testing.T) {
	if _, err := RenderNote(&assets.Asset{}); !errors.Is(err, ErrRender) {
		t.Fatalf("expected ErrRender, got %v", err)
	}
	if _, err := RenderNote(&assets.Asset{ID: "x"}); !errors.Is(err, ErrRender) {
		t.Fatalf("expected ErrRender without source type, got %v", err)
	}
}
