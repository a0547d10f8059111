package preflight

import (
	"context"

	"memoryatlas/internal/assets"
	"memoryatlas/internal/config"
)

// Result reports the outcome of a single preflight check.
type Result struct {
	Name     string
	Passed   bool
	Optional bool
	Detail   string
}

// RunAll executes every applicable check for the given config. The store may
// be nil when the database could not be opened; the store check then reports
// the database as missing.
func RunAll(ctx context.Context, cfg *config.Config, store *assets.Store) []Result {
	if cfg == nil {
		return nil
	}

	results := []Result{
		CheckDirectoryAccess("Data directory", cfg.Paths.DataDir),
		CheckDirectoryAccess("Transcripts directory", cfg.Paths.TranscriptsDir),
		CheckDirectoryAccess("Vault atlas directory", cfg.Vault.AtlasDir),
	}

	if cfg.Source.ScanVoiceMemos {
		results = append(results, CheckSourceCatalogue(ctx, cfg.Source.VoiceMemosDB))
	}

	results = append(results, CheckStore(ctx, cfg.Paths.DBPath, store))
	results = append(results, CheckSystemDeps(cfg)...)

	llm := CheckLLM(ctx, "Enrichment LLM", cfg.GetLLM())
	llm.Optional = true
	results = append(results, llm)

	return results
}

// Failed reports how many required checks did not pass.
func Failed(results []Result) int {
	failed := 0
	for _, r := range results {
		if !r.Passed && !r.Optional {
			failed++
		}
	}
	return failed
}
