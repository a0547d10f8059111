package preflight

import (
	"context"
	"errors"
	"fmt"
	"net"
	"os"
	"strings"
	"time"

	"golang.org/x/sys/unix"

	"memoryatlas/internal/assets"
	"memoryatlas/internal/config"
	"memoryatlas/internal/services/llm"
	"memoryatlas/internal/voicememos"
)

// CheckLLM verifies that the enrichment endpoint answers a JSON completion.
// It uses a 30-second timeout and a single attempt (no retries).
func CheckLLM(ctx context.Context, name string, cfg config.LLMConfig) Result {
	if strings.TrimSpace(cfg.BaseURL) == "" {
		return Result{Name: name, Detail: "base url missing"}
	}
	if strings.TrimSpace(cfg.Model) == "" {
		return Result{Name: name, Detail: "model missing"}
	}

	checkCtx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	client := llm.NewClient(llm.Config{
		APIKey:         cfg.APIKey,
		BaseURL:        cfg.BaseURL,
		Model:          cfg.Model,
		TimeoutSeconds: cfg.TimeoutSeconds,
	}, llm.WithRetryMaxAttempts(1))

	if err := client.HealthCheck(checkCtx); err != nil {
		return Result{Name: name, Detail: summarizeLLMError(err)}
	}
	return Result{Name: name, Passed: true, Detail: fmt.Sprintf("%s reachable (%s)", cfg.BaseURL, cfg.Model)}
}

// CheckDirectoryAccess verifies that the directory exists and is readable/writable.
func CheckDirectoryAccess(name, path string) Result {
	if strings.TrimSpace(path) == "" {
		return Result{Name: name, Detail: "path not configured"}
	}
	info, err := os.Stat(path)
	if err != nil {
		if os.IsNotExist(err) {
			return Result{Name: name, Detail: fmt.Sprintf("%s (error: does not exist, run 'atlas init')", path)}
		}
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: stat: %v)", path, err)}
	}
	if !info.IsDir() {
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: is not a directory)", path)}
	}
	if err := unix.Access(path, unix.R_OK|unix.W_OK|unix.X_OK); err != nil {
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: insufficient permissions: %v)", path, err)}
	}
	return Result{Name: name, Passed: true, Detail: fmt.Sprintf("%s (read/write ok)", path)}
}

// CheckSourceCatalogue opens the Voice Memos catalogue read-only and counts
// the recordings it would import.
func CheckSourceCatalogue(ctx context.Context, path string) Result {
	const name = "Voice Memos catalogue"

	if strings.TrimSpace(path) == "" {
		return Result{Name: name, Detail: "path not configured"}
	}
	candidates, err := voicememos.NewReader(path).ListCandidates(ctx)
	if err != nil {
		if errors.Is(err, voicememos.ErrSourceUnavailable) {
			return Result{Name: name, Detail: fmt.Sprintf("%s (error: not found)", path)}
		}
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: %v)", path, err)}
	}
	return Result{Name: name, Passed: true, Detail: fmt.Sprintf("%s (%d recordings)", path, len(candidates))}
}

// CheckStore reports schema and integrity status of the asset database.
func CheckStore(ctx context.Context, path string, store *assets.Store) Result {
	const name = "Atlas database"

	if store == nil {
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: not opened, run 'atlas init')", path)}
	}
	health, err := store.CheckHealth(ctx)
	switch {
	case err != nil:
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: %v)", path, err)}
	case !health.DatabaseExists:
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: does not exist, run 'atlas init')", path)}
	case len(health.MissingColumns) > 0:
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: missing columns %s)", path, strings.Join(health.MissingColumns, ", "))}
	case !health.IntegrityCheck:
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: integrity check failed)", path)}
	}
	return Result{
		Name:   name,
		Passed: true,
		Detail: fmt.Sprintf("%s (schema v%d, %d assets)", path, health.SchemaVersion, health.TotalAssets),
	}
}

// summarizeLLMError produces a human-readable summary for LLM health check failures.
func summarizeLLMError(err error) string {
	if errors.Is(err, context.DeadlineExceeded) {
		return "health check timed out (LLM API unresponsive)"
	}
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return "health check timed out (LLM API unreachable)"
	}
	return err.Error()
}
