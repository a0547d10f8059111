package main

import (
	"fmt"
	"strconv"
	"time"

	"github.com/spf13/cobra"

	"memoryatlas/internal/assets"
)

func newStatusCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show catalogue statistics",
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := ctx.openStore()
			if err != nil {
				return err
			}
			defer store.Close()

			stats, err := store.Stats(cmd.Context())
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), renderStats(stats))
			return nil
		},
	}
}

func renderStats(stats assets.Stats) string {
	rows := [][]string{
		{"Recordings", strconv.Itoa(stats.Total)},
		{"Hours", fmt.Sprintf("%.1f", stats.TotalHours)},
	}
	for _, status := range assets.AllStatuses() {
		rows = append(rows, []string{"Transcript " + string(status), strconv.Itoa(stats.ByStatus[status])})
	}
	rows = append(rows,
		[]string{"Enriched", strconv.Itoa(stats.Enriched)},
		[]string{"Published", strconv.Itoa(stats.Published)},
	)
	return renderTable([]string{"Metric", "Count"}, rows, []columnAlignment{alignLeft, alignRight})
}

func secondsDuration(seconds float64) time.Duration {
	return time.Duration(seconds * float64(time.Second))
}
