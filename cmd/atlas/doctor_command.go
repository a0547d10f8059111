package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"memoryatlas/internal/assets"
	"memoryatlas/internal/fileutil"
	"memoryatlas/internal/logging"
	"memoryatlas/internal/preflight"
)

func newDoctorCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "doctor",
		Short: "Check folders, the source catalogue, tools and the language model",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}

			// Open would create the schema.
			var store *assets.Store
			if fileutil.Exists(cfg.Paths.DBPath) {
				s, err := ctx.openStore()
				if err != nil {
					ctx.getLogger().Debug("store unavailable for doctor", logging.Error(err))
				} else {
					store = s
					defer store.Close()
				}
			}

			results := preflight.RunAll(cmd.Context(), cfg, store)
			out := cmd.OutOrStdout()
			colorize := shouldColorize(out)
			for _, line := range renderSectionHeader("MemoryAtlas doctor", colorize) {
				fmt.Fprintln(out, line)
			}
			for _, r := range results {
				kind := checkOK
				switch {
				case !r.Passed && r.Optional:
					kind = checkWarn
				case !r.Passed:
					kind = checkFail
				}
				fmt.Fprintln(out, renderCheckLine(r.Name, kind, r.Detail, colorize))
			}

			failed := preflight.Failed(results)
			if failed > 0 {
				fmt.Fprintf(out, "\n%d issue(s) found.\n", failed)
				return fmt.Errorf("doctor: %d required check(s) failed", failed)
			}
			fmt.Fprintf(out, "\nAll %d required checks passed.\n", countRequired(results))
			return nil
		},
	}
}

func countRequired(results []preflight.Result) int {
	n := 0
	for _, r := range results {
		if !r.Optional {
			n++
		}
	}
	return n
}
