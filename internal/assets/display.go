package assets

import (
	"memoryatlas/internal/textutil"
)

// ShortID returns the abbreviated identifier used in note names and frontmatter.
func (a Asset) ShortID() string {
	return textutil.ShortID(a.ID)
}

// DurationDisplay renders the duration as m:ss or h:mm:ss, or "unknown".
func (a Asset) DurationDisplay() string {
	if a.DurationSec == nil {
		return "unknown"
	}
	return textutil.DurationDisplay(*a.DurationSec)
}

// RecordedDate returns the YYYY-MM-DD prefix of RecordedAt, or "" when unknown.
func (a Asset) RecordedDate() string {
	if len(a.RecordedAt) < 10 {
		return ""
	}
	return a.RecordedAt[:10]
}

// NoteFilename returns the deterministic vault filename for the asset.
func (a Asset) NoteFilename() string {
	date := textutil.Ternary(a.RecordedDate() != "", a.RecordedDate(), "undated")
	return date + "_" + textutil.Slug(a.Title) + "_" + a.ShortID() + ".md"
}
