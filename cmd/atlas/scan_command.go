package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"memoryatlas/internal/scan"
	"memoryatlas/internal/voicememos"
)

func newScanCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "scan",
		Short: "Import voice memo metadata into the catalogue",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			if !cfg.Source.ScanVoiceMemos {
				fmt.Fprintln(cmd.OutOrStdout(), "Voice Memos scanning is disabled (source.scan_voice_memos = false)")
				return nil
			}
			return ctx.withLock(func() error {
				store, trail, err := ctx.pipeline()
				if err != nil {
					return err
				}
				defer store.Close()

				reader := voicememos.NewReader(cfg.Source.VoiceMemosDB)
				scanner := scan.NewScanner(reader, store, trail, ctx.getLogger())
				counts, err := scanner.Run(cmd.Context(), newOrigin(scan.StageName))
				if err != nil {
					return err
				}
				out := cmd.OutOrStdout()
				fmt.Fprintf(out, "Scanned %s\n", reader.Path())
				fmt.Fprintln(out, counts.Summary())
				if counts.Errors > 0 {
					return fmt.Errorf("%d records could not be written", counts.Errors)
				}
				return nil
			})
		},
	}
}
