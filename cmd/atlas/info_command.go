package main

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/cockroachdb/errors"
	"github.com/spf13/cobra"

	"memoryatlas/internal/assets"
	"memoryatlas/internal/services"
	"memoryatlas/internal/textutil"
)

const infoActionLimit = 10

func newInfoCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "info <id or prefix>",
		Short: "Show details and recent audit events for one recording",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := ctx.openStore()
			if err != nil {
				return err
			}
			defer store.Close()

			asset, err := store.FindByPrefix(cmd.Context(), args[0])
			if err != nil {
				if errors.Is(err, assets.ErrAmbiguousPrefix) {
					return services.WithHint(err, "use a longer prefix")
				}
				return err
			}
			actions, err := store.RecentActions(cmd.Context(), asset.ID, infoActionLimit)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			fmt.Fprintln(out, renderFields(assetFields(asset)))
			if len(actions) == 0 {
				fmt.Fprintln(out, "No audit events recorded.")
				return nil
			}
			fmt.Fprintln(out, renderActions(actions))
			return nil
		},
	}
}

func assetFields(a *assets.Asset) [][2]string {
	fields := [][2]string{
		{"ID", a.ID},
		{"Title", a.DisplayTitle()},
		{"Source", string(a.SourceType)},
		{"Path", a.SourcePath},
		{"Recorded", valueOr(a.RecordedAt, "unknown")},
		{"Duration", a.DurationDisplay()},
		{"Format", valueOr(a.FileFormat, "unknown")},
		{"Transcript", string(a.Status)},
	}
	if a.TranscriptModel != "" {
		fields = append(fields, [2]string{"Model", a.TranscriptModel})
	}
	if a.TranscriptLang != "" {
		fields = append(fields, [2]string{"Language", a.TranscriptLang})
	}
	if a.TranscriptPath != "" {
		fields = append(fields, [2]string{"Transcript file", a.TranscriptPath})
	}
	if a.TranscriptError != "" {
		fields = append(fields, [2]string{"Transcript error", a.TranscriptError})
	}
	fields = append(fields, [2]string{"Enriched", yesNo(a.Enriched())})
	if a.Summary != "" {
		fields = append(fields,
			[2]string{"Summary", a.Summary},
			[2]string{"Topics", a.Topics},
			[2]string{"People", a.People},
			[2]string{"Sentiment", a.Sentiment},
		)
	}
	if a.EnrichError != "" {
		fields = append(fields, [2]string{"Enrich error", a.EnrichError})
	}
	fields = append(fields, [2]string{"Published", yesNo(a.Published())})
	if a.NotePath != "" {
		fields = append(fields, [2]string{"Note", a.NotePath})
	}
	return fields
}

func renderActions(actions []assets.Action) string {
	rows := make([][]string, 0, len(actions))
	for _, act := range actions {
		rows = append(rows, []string{
			act.Timestamp,
			act.Command,
			act.Action,
			truncateDetail(act.Detail, 60),
		})
	}
	return renderTable([]string{"When", "Command", "Action", "Detail"}, rows, nil) + "\n" +
		strconv.Itoa(len(actions)) + " most recent events"
}

func truncateDetail(detail string, limit int) string {
	truncated, _ := textutil.TruncateRunes(strings.TrimSpace(detail), limit, "…")
	return truncated
}

func valueOr(value, fallback string) string {
	if strings.TrimSpace(value) == "" {
		return fallback
	}
	return value
}
