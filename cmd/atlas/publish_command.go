package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"memoryatlas/internal/publish"
)

func newPublishCommand(ctx *commandContext) *cobra.Command {
	var opts publish.Options

	cmd := &cobra.Command{
		Use:   "publish",
		Short: "Write vault notes for unpublished recordings and refresh the index",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			return ctx.withLock(func() error {
				store, trail, err := ctx.pipeline()
				if err != nil {
					return err
				}
				defer store.Close()

				opts.Origin = newOrigin(publish.StageName)
				publisher := publish.NewPublisher(cfg, store, trail, ctx.getLogger())
				counts, err := publisher.Publish(cmd.Context(), opts)
				out := cmd.OutOrStdout()
				if opts.IndexOnly {
					fmt.Fprintln(out, "Index regenerated")
				} else {
					fmt.Fprintf(out, "Publish: %s\n", counts.Summary())
				}
				if err != nil {
					return err
				}
				if counts.Error > 0 {
					return fmt.Errorf("%d notes could not be published", counts.Error)
				}
				return nil
			})
		},
	}

	cmd.Flags().BoolVar(&opts.Force, "force", false, "Rewrite every note")
	cmd.Flags().BoolVar(&opts.IndexOnly, "index-only", false, "Only regenerate the index note")
	return cmd
}
