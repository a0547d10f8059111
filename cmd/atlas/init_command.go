package main

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"memoryatlas/internal/config"
	"memoryatlas/internal/publish"
)

func newInitCommand(ctx *commandContext) *cobra.Command {
	var sample bool
	var overwrite bool

	cmd := &cobra.Command{
		Use:         "init",
		Short:       "Create folders, the database and the vault about note",
		Annotations: map[string]string{"skipConfigLoad": "true"},
		RunE: func(cmd *cobra.Command, args []string) error {
			if sample {
				return writeSampleConfig(cmd, strings.TrimSpace(*ctx.configFlag), overwrite)
			}

			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			store, trail, err := ctx.pipeline()
			if err != nil {
				return err
			}
			defer store.Close()

			if err := os.MkdirAll(cfg.NotesDir(), 0o755); err != nil {
				return fmt.Errorf("create notes directory: %w", err)
			}
			publisher := publish.NewPublisher(cfg, store, trail, ctx.getLogger())
			aboutPath, err := publisher.WriteAbout()
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Data directory: %s\n", cfg.Paths.DataDir)
			fmt.Fprintf(out, "Database:       %s\n", cfg.Paths.DBPath)
			fmt.Fprintf(out, "Transcripts:    %s\n", cfg.Paths.TranscriptsDir)
			fmt.Fprintf(out, "Vault notes:    %s\n", cfg.NotesDir())
			fmt.Fprintf(out, "Wrote %s\n", aboutPath)
			fmt.Fprintln(out, "Next: atlas scan")
			return nil
		},
	}

	cmd.Flags().BoolVar(&sample, "config-sample", false, "Write a sample configuration file to --config (or the default path) and exit")
	cmd.Flags().BoolVar(&overwrite, "overwrite", false, "Overwrite an existing configuration file")
	return cmd
}

func writeSampleConfig(cmd *cobra.Command, target string, overwrite bool) error {
	if target == "" {
		defaultPath, err := config.DefaultConfigPath()
		if err != nil {
			return fmt.Errorf("determine default config path: %w", err)
		}
		target = defaultPath
	} else {
		expanded, err := config.ExpandPath(target)
		if err != nil {
			return fmt.Errorf("resolve config path: %w", err)
		}
		target = expanded
	}

	if !overwrite {
		if _, err := os.Stat(target); err == nil {
			return fmt.Errorf("config file already exists at %s (use --overwrite to replace it)", target)
		} else if !os.IsNotExist(err) {
			return fmt.Errorf("check config path: %w", err)
		}
	}

	if err := config.CreateSample(target); err != nil {
		return fmt.Errorf("create sample config: %w", err)
	}

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "Wrote sample configuration to %s\n", target)
	fmt.Fprintln(out, "Edit vault_path and voice_memos_db before running atlas init.")
	return nil
}
