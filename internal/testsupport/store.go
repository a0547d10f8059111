package testsupport

import (
	"context"
	"testing"

	"memoryatlas/internal/assets"
	"memoryatlas/internal/config"
)

// TestOrigin is the audit origin recorded by helpers in this package.
var TestOrigin = assets.Origin{Command: "test", RunID: "test-run"}

// MustOpenStore opens an asset store for tests and registers cleanup.
func MustOpenStore(t testing.TB, cfg *config.Config) *assets.Store {
	t.Helper()

	store, err := assets.Open(cfg.Paths.DBPath)
	if err != nil {
		t.Fatalf("assets.Open: %v", err)
	}
	t.Cleanup(func() {
		_ = store.Close()
	})
	return store
}

// NewCandidate returns a voice memo candidate with the given identity and duration.
func NewCandidate(id string, durationSec float64) assets.Candidate {
	duration := durationSec
	return assets.Candidate{
		ID:          id,
		SourceType:  assets.SourceVoiceMemo,
		SourcePath:  "/recordings/" + id + ".m4a",
		Filename:    id + ".m4a",
		Title:       "Memo " + id,
		DurationSec: &duration,
		RecordedAt:  "2024-03-01T08:15:00Z",
		FileFormat:  "m4a",
	}
}

// MustUpsert inserts or refreshes the candidate, failing the test on error.
func MustUpsert(t testing.TB, store *assets.Store, c assets.Candidate) assets.UpsertResult {
	t.Helper()

	result, err := store.Upsert(context.Background(), TestOrigin, c)
	if err != nil {
		t.Fatalf("Upsert %s: %v", c.ID, err)
	}
	return result
}

// MustGet loads an asset by id, failing the test when it is missing.
func MustGet(t testing.TB, store *assets.Store, id string) *assets.Asset {
	t.Helper()

	asset, err := store.Get(context.Background(), id)
	if err != nil {
		t.Fatalf("Get %s: %v", id, err)
	}
	if asset == nil {
		t.Fatalf("asset %s not found", id)
	}
	return asset
}
