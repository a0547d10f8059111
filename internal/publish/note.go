package publish

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/cockroachdb/errors"

	"memoryatlas/internal/assets"
	"memoryatlas/internal/services"
)

// ErrRender marks an asset that cannot be rendered into a note.
var ErrRender = errors.Mark(errors.New("note render failed"), services.ErrValidation)

var sourceLabels = map[assets.SourceType]string{
	assets.SourceVoiceMemo:   "Apple Voice Memos",
	assets.SourceVideo:       "Video",
	assets.SourceAudioImport: "Audio import",
}

// RenderNote produces the markdown note for an asset. The output depends only
// on the asset fields, so equal assets render byte-identical notes.
func RenderNote(a *assets.Asset) (string, error) {
	if a == nil || strings.TrimSpace(a.ID) == "" {
		return "", errors.Wrap(ErrRender, "asset has no id")
	}
	if a.SourceType == "" {
		return "", errors.Wrapf(ErrRender, "asset %s has no source type", a.ID)
	}

	var b strings.Builder
	line := func(format string, args ...any) {
		fmt.Fprintf(&b, format, args...)
		b.WriteByte('\n')
	}

	line("---")
	line("uuid: %s", a.ID)
	line("type: %s", a.SourceType)
	line(`title: "%s"`, strings.ReplaceAll(a.DisplayTitle(), `"`, `\"`))
	if a.RecordedAt != "" {
		line("recorded: %s", a.RecordedAt)
		line("date: %s", a.RecordedDate())
	}
	if a.DurationSec != nil {
		line("duration: %s", a.DurationDisplay())
		line("duration_sec: %.1f", *a.DurationSec)
	}
	line("format: %s", orDefault(a.FileFormat, "unknown"))
	line("transcribed: %t", a.Transcribed())
	line("enriched: %t", a.Enriched())
	line("tags: [%s]", strings.Join(noteTags(a), ", "))
	line("atlas-id: %s", a.ShortID())
	if a.HasGPS && a.Lat != nil && a.Lon != nil {
		line("location: [%s, %s]", formatCoord(*a.Lat), formatCoord(*a.Lon))
		if a.Place != "" {
			line(`place: "%s"`, strings.ReplaceAll(a.Place, `"`, `\"`))
		}
	}
	line("---")
	line("")

	line("# %s", orDefault(strings.TrimSpace(a.Title), "Untitled Recording"))
	line("")
	line("| Field | Value |")
	line("|-------|-------|")
	if a.RecordedAt != "" {
		line("| Recorded | %s |", a.RecordedAt)
	}
	line("| Duration | %s |", a.DurationDisplay())
	line("| Format | .%s |", orDefault(a.FileFormat, "?"))
	line("| Source | %s |", orDefault(sourceLabels[a.SourceType], string(a.SourceType)))
	line("| UUID | `%s` |", a.ShortID())
	if a.Place != "" {
		line("| Location | %s |", a.Place)
	}
	line("")

	line("## Transcript")
	line("")
	if a.Transcribed() && a.TranscriptPath != "" {
		line("[Open transcript](file://%s)", a.TranscriptPath)
	} else {
		line("*Pending transcription.*")
	}
	line("")

	if a.Summary != "" {
		line("## Summary")
		line("")
		line("%s", a.Summary)
		line("")
		if a.Topics != "" {
			line("**Topics**: %s", a.Topics)
			line("")
		}
		if a.People != "" && !strings.EqualFold(a.People, "none") {
			line("**People**: %s", a.People)
			line("")
		}
		if a.Sentiment != "" {
			line("**Sentiment**: %s", a.Sentiment)
			line("")
		}
	}

	return strings.TrimSuffix(b.String(), "\n"), nil
}

func noteTags(a *assets.Asset) []string {
	tags := []string{"memoryatlas", "memoryatlas/" + strings.ReplaceAll(string(a.SourceType), "_", "-")}
	if a.Transcribed() {
		tags = append(tags, "memoryatlas/transcribed")
	}
	return tags
}

func formatCoord(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

func orDefault(value, fallback string) string {
	if value == "" {
		return fallback
	}
	return value
}
