package preflight

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"memoryatlas/internal/config"
	"memoryatlas/internal/testsupport"
)

func TestCheckDirectoryAccess_OK(t *testing.T) {
	dir := t.TempDir()
	result := CheckDirectoryAccess("test", dir)
	if !result.Passed {
		t.Fatalf("expected pass for temp dir, got: %s", result.Detail)
	}
}

func TestCheckDirectoryAccess_NotExist(t *testing.T) {
	result := CheckDirectoryAccess("test", filepath.Join(t.TempDir(), "nope"))
	if result.Passed {
		t.Fatal("expected failure for missing dir")
	}
	if !strings.Contains(result.Detail, "atlas init") {
		t.Fatalf("expected init hint, got %q", result.Detail)
	}
}

func TestCheckDirectoryAccess_NotDir(t *testing.T) {
	f := filepath.Join(t.TempDir(), "file.txt")
	if err := os.WriteFile(f, []byte("x"), 0o644); err != nil {
		t.Fatal(err)
	}
	result := CheckDirectoryAccess("test", f)
	if result.Passed {
		t.Fatal("expected failure for file path")
	}
}

func TestCheckSourceCatalogue(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	testsupport.SeedVoiceMemosDB(t, cfg.Source.VoiceMemosDB,
		testsupport.VoiceMemoRow{UniqueID: "A", Path: "a.m4a", Duration: 12, RecordedAt: time.Date(2024, 3, 1, 8, 0, 0, 0, time.UTC)},
		testsupport.VoiceMemoRow{UniqueID: "B", Path: "b.m4a", Duration: 30, RecordedAt: time.Date(2024, 3, 2, 8, 0, 0, 0, time.UTC)},
	)

	result := CheckSourceCatalogue(context.Background(), cfg.Source.VoiceMemosDB)
	if !result.Passed {
		t.Fatalf("expected pass, got: %s", result.Detail)
	}
	if !strings.Contains(result.Detail, "2 recordings") {
		t.Fatalf("expected recording count, got %q", result.Detail)
	}

	missing := CheckSourceCatalogue(context.Background(), filepath.Join(t.TempDir(), "none.db"))
	if missing.Passed || !strings.Contains(missing.Detail, "not found") {
		t.Fatalf("expected not found failure, got %+v", missing)
	}
}

func TestCheckStore(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenStore(t, cfg)
	testsupport.MustUpsert(t, store, testsupport.NewCandidate("A-1", 10))

	result := CheckStore(context.Background(), cfg.Paths.DBPath, store)
	if !result.Passed {
		t.Fatalf("expected healthy store, got: %s", result.Detail)
	}
	if !strings.Contains(result.Detail, "1 assets") {
		t.Fatalf("expected asset count, got %q", result.Detail)
	}

	if CheckStore(context.Background(), cfg.Paths.DBPath, nil).Passed {
		t.Fatal("expected failure without a store")
	}
}

func TestCheckLLM_OK(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]any{
			"choices": []map[string]any{{"message": map[string]string{"content": `{"ok":true}`}}},
		})
	}))
	defer srv.Close()

	result := CheckLLM(context.Background(), "LLM", config.LLMConfig{BaseURL: srv.URL, Model: "qwen2.5:14b"})
	if !result.Passed {
		t.Fatalf("expected pass, got: %s", result.Detail)
	}
}

func TestCheckLLM_ServerError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	result := CheckLLM(context.Background(), "LLM", config.LLMConfig{BaseURL: srv.URL, Model: "m"})
	if result.Passed {
		t.Fatal("expected failure for server error")
	}
}

func TestCheckLLM_MissingSettings(t *testing.T) {
	if CheckLLM(context.Background(), "LLM", config.LLMConfig{Model: "m"}).Passed {
		t.Fatal("expected failure for missing URL")
	}
	if CheckLLM(context.Background(), "LLM", config.LLMConfig{BaseURL: "http://localhost"}).Passed {
		t.Fatal("expected failure for missing model")
	}
}

func TestRunAll_NilConfig(t *testing.T) {
	if results := RunAll(context.Background(), nil, nil); results != nil {
		t.Fatal("expected nil results for nil config")
	}
}

func TestRunAll_LLMIsOptional(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	cfg.Source.ScanVoiceMemos = false
	store := testsupport.MustOpenStore(t, cfg)

	results := RunAll(context.Background(), cfg, store)
	byName := make(map[string]Result, len(results))
	for _, r := range results {
		byName[r.Name] = r
	}
	for _, name := range []string{"Data directory", "Transcripts directory", "Vault atlas directory", "Atlas database"} {
		if !byName[name].Passed {
			t.Errorf("check %q failed: %s", name, byName[name].Detail)
		}
	}
	if _, ok := byName["Voice Memos catalogue"]; ok {
		t.Error("catalogue check should be skipped when scanning is disabled")
	}
	llm, ok := byName["Enrichment LLM"]
	if !ok || llm.Passed || !llm.Optional {
		t.Fatalf("expected optional failing LLM check, got %+v", llm)
	}
	if _, ok := byName["uvx"]; !ok {
		t.Fatal("expected uvx check")
	}
}

func TestFailedIgnoresOptional(t *testing.T) {
	results := []Result{
		{Name: "a", Passed: true},
		{Name: "b", Passed: false, Optional: true},
		{Name: "c", Passed: false},
	}
	if got := Failed(results); got != 1 {
		t.Fatalf("Failed = %d, want 1", got)
	}
}
