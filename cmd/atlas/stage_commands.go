package main

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"memoryatlas/internal/assets"
	"memoryatlas/internal/auditlog"
	"memoryatlas/internal/config"
	"memoryatlas/internal/enrich"
	"memoryatlas/internal/logging"
	"memoryatlas/internal/progress"
	"memoryatlas/internal/publish"
	"memoryatlas/internal/services/llm"
	"memoryatlas/internal/services/whisperx"
	"memoryatlas/internal/transcribe"
)

// stageFactories builds the collaborators behind the stage commands. Tests
// replace them with fakes.
type stageFactories struct {
	transcriber func(cfg *config.Config) transcribe.Transcriber
	completer   func(cfg *config.Config) enrich.Completer
}

var factories = stageFactories{
	transcriber: func(cfg *config.Config) transcribe.Transcriber {
		svc := whisperx.NewService(whisperx.Config{
			Model:       cfg.Transcription.Model,
			Language:    cfg.Transcription.Language,
			CUDAEnabled: cfg.Transcription.CUDAEnabled,
		})
		return transcribe.NewWhisperX(svc, filepath.Join(cfg.Paths.DataDir, "tmp"))
	},
	completer: func(cfg *config.Config) enrich.Completer {
		llmCfg := cfg.GetLLM()
		return enrich.NewLLMCompleter(llm.NewClient(llm.Config{
			APIKey:            llmCfg.APIKey,
			BaseURL:           llmCfg.BaseURL,
			Model:             llmCfg.Model,
			TimeoutSeconds:    llmCfg.TimeoutSeconds,
			RequestsPerMinute: llmCfg.RequestsPerMinute,
		}))
	},
}

func newTranscribeCommand(ctx *commandContext) *cobra.Command {
	var opts transcribe.Options

	cmd := &cobra.Command{
		Use:   "transcribe",
		Short: "Transcribe pending recordings, shortest first",
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

				logger := ctx.getLogger()
				opts.Origin = newOrigin(transcribe.StageName)
				runner := transcribe.NewRunner(cfg, store, factories.transcriber(cfg), trail, logger,
					transcribe.WithEmitter(progress.NewEmitter(os.Stdout, logger)))

				counts, runErr := runner.Run(cmd.Context(), opts)
				out := cmd.OutOrStdout()
				if opts.DryRun {
					fmt.Fprintf(out, "%d recordings selected (%s of audio)\n",
						counts.Selected, progress.FormatDuration(secondsDuration(counts.TotalSeconds)))
					return runErr
				}
				fmt.Fprintf(out, "Transcribe: %s\n", counts.Summary())
				if counts.Done > 0 {
					republish(cmd, ctx, store, trail, opts.Origin)
				}
				return runErr
			})
		},
	}

	cmd.Flags().IntVarP(&opts.Limit, "limit", "n", 0, "Maximum recordings to transcribe (0 = all)")
	cmd.Flags().StringVarP(&opts.Model, "model", "m", "", "WhisperX model override")
	cmd.Flags().StringVarP(&opts.Language, "language", "l", "", "Force a transcription language")
	cmd.Flags().BoolVar(&opts.DryRun, "dry-run", false, "List the selection without transcribing")
	return cmd
}

func newEnrichCommand(ctx *commandContext) *cobra.Command {
	var opts enrich.Options

	cmd := &cobra.Command{
		Use:   "enrich",
		Short: "Summarise transcripts with the configured language model",
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

				logger := ctx.getLogger()
				opts.Origin = newOrigin(enrich.StageName)
				runner := enrich.NewRunner(cfg, store, factories.completer(cfg), trail, logger,
					enrich.WithEmitter(progress.NewEmitter(os.Stdout, logger)))

				counts, runErr := runner.Run(cmd.Context(), opts)
				out := cmd.OutOrStdout()
				if opts.DryRun {
					fmt.Fprintf(out, "%d transcripts selected\n", counts.Selected)
					return runErr
				}
				fmt.Fprintf(out, "Enrich: %s\n", counts.Summary())
				if counts.Done > 0 {
					republish(cmd, ctx, store, trail, opts.Origin)
				}
				return runErr
			})
		},
	}

	cmd.Flags().IntVarP(&opts.Limit, "limit", "n", 0, "Maximum transcripts to enrich (0 = all)")
	cmd.Flags().StringVarP(&opts.Model, "model", "m", "", "Language model override")
	cmd.Flags().BoolVar(&opts.DryRun, "dry-run", false, "List the selection without calling the model")
	return cmd
}

// republish refreshes notes after a stage produced new content. Only notes
// whose fingerprint changed are rewritten. Failures are reported but do not
// fail the stage command.
func republish(cmd *cobra.Command, ctx *commandContext, store *assets.Store, trail *auditlog.Trail, origin assets.Origin) {
	cfg, err := ctx.ensureConfig()
	if err != nil {
		return
	}
	publisher := publish.NewPublisher(cfg, store, trail, ctx.getLogger())
	counts, err := publisher.Publish(context.WithoutCancel(cmd.Context()), publish.Options{Refresh: true, Origin: origin})
	if err != nil {
		ctx.getLogger().Warn("republish failed", logging.Error(err))
		return
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Publish: %s\n", counts.Summary())
}
