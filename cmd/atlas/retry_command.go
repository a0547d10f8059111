package main

import (
	"fmt"

	"github.com/cockroachdb/errors"
	"github.com/spf13/cobra"

	"memoryatlas/internal/assets"
	"memoryatlas/internal/services"
)

func newRetryCommand(ctx *commandContext) *cobra.Command {
	var stranded bool

	cmd := &cobra.Command{
		Use:   "retry [id or prefix]",
		Short: "Requeue stranded or skipped recordings",
		Long: "With --stranded, move every recording left in running by an interrupted batch to failed so the next transcribe run retries it.\n" +
			"With an id, return a skipped recording to pending.",
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if stranded == (len(args) == 1) {
				return services.WithHint(errors.New("retry needs either --stranded or one recording id"), "run 'atlas retry --help'")
			}
			return ctx.withLock(func() error {
				store, trail, err := ctx.pipeline()
				if err != nil {
					return err
				}
				defer store.Close()

				origin := newOrigin("retry")
				logger := ctx.getLogger()
				out := cmd.OutOrStdout()

				if stranded {
					moved, err := store.RequeueRunning(cmd.Context(), origin)
					if err != nil {
						return err
					}
					logTrail(logger, trail, origin, assets.ActionRequeue, "", map[string]any{"stranded": moved})
					fmt.Fprintf(out, "Requeued %d stranded recordings\n", moved)
					return nil
				}

				asset, err := store.FindByPrefix(cmd.Context(), args[0])
				if err != nil {
					return err
				}
				if err := store.RequeueSkipped(cmd.Context(), origin, asset.ID); err != nil {
					if errors.Is(err, assets.ErrNotEligible) {
						return services.WithHint(err, "only skipped recordings can be requeued by id")
					}
					return err
				}
				logTrail(logger, trail, origin, assets.ActionRequeue, asset.ID, map[string]any{"from": string(assets.StatusSkipped)})
				fmt.Fprintf(out, "Requeued %s (%s)\n", asset.ShortID(), asset.DisplayTitle())
				return nil
			})
		},
	}

	cmd.Flags().BoolVar(&stranded, "stranded", false, "Move recordings stuck in running to failed")
	return cmd
}
