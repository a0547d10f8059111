package main

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/cockroachdb/errors"

	"memoryatlas/internal/assets"
	"memoryatlas/internal/auditlog"
	"memoryatlas/internal/config"
	"memoryatlas/internal/enrich"
	"memoryatlas/internal/lockfile"
	"memoryatlas/internal/publish"
	"memoryatlas/internal/testsupport"
	"memoryatlas/internal/transcribe"
	"memoryatlas/internal/voicememos"
)

func TestCLIInitScanPublishStatus(t *testing.T) {
	env := setupCLITestEnv(t)
	seedRecordings(t, env)

	out, err := runCLI(t, env.configPath, "init")
	if err != nil {
		t.Fatalf("init: %v", err)
	}
	if !strings.Contains(out, publish.AboutFilename) {
		t.Fatalf("init output missing about note: %q", out)
	}
	if _, err := os.Stat(filepath.Join(env.cfg.Vault.AtlasDir, publish.AboutFilename)); err != nil {
		t.Fatalf("about note not written: %v", err)
	}

	out, err = runCLI(t, env.configPath, "scan")
	if err != nil {
		t.Fatalf("scan: %v", err)
	}
	if !strings.Contains(out, "2 insert, 0 update, 0 skip") {
		t.Fatalf("unexpected scan output: %q", out)
	}
	out, err = runCLI(t, env.configPath, "scan")
	if err != nil {
		t.Fatalf("second scan: %v", err)
	}
	if !strings.Contains(out, "0 insert, 0 update, 2 skip") {
		t.Fatalf("rescan should skip unchanged recordings: %q", out)
	}

	out, err = runCLI(t, env.configPath, "publish")
	if err != nil {
		t.Fatalf("publish: %v", err)
	}
	if !strings.Contains(out, "2 created, 0 updated, 0 skipped, 0 errors") {
		t.Fatalf("unexpected publish output: %q", out)
	}
	entries, err := os.ReadDir(env.cfg.NotesDir())
	if err != nil {
		t.Fatalf("read notes dir: %v", err)
	}
	if len(entries) != 2 {
		t.Fatalf("expected 2 notes, got %d", len(entries))
	}

	out, err = runCLI(t, env.configPath, "status")
	if err != nil {
		t.Fatalf("status: %v", err)
	}
	for _, want := range []string{"Recordings", "Transcript pending", "Published"} {
		if !strings.Contains(out, want) {
			t.Fatalf("status output missing %q: %q", want, out)
		}
	}

	out, err = runCLI(t, env.configPath, "info", "AAAA")
	if err != nil {
		t.Fatalf("info: %v", err)
	}
	for _, want := range []string{"Morning thoughts", "insert", "create", "scan"} {
		if !strings.Contains(out, want) {
			t.Fatalf("info output missing %q: %q", want, out)
		}
	}

	records, err := auditlog.ReadAll(env.cfg.Paths.JSONLPath)
	if err != nil {
		t.Fatalf("read trail: %v", err)
	}
	inserts := 0
	for _, rec := range records {
		if rec.Command == "scan" && rec.Action == string(assets.UpsertInserted) {
			inserts++
			if rec.RunID == "" {
				t.Fatalf("trail record without run id: %+v", rec)
			}
		}
	}
	if inserts != 2 {
		t.Fatalf("expected 2 scan insert trail records, got %d", inserts)
	}
}

func TestCLITranscribeAndEnrichRepublishNotes(t *testing.T) {
	env := setupCLITestEnv(t)
	seedRecordings(t, env)
	transcriber := useStubCollaborators(t)

	for _, args := range [][]string{{"scan"}, {"publish"}} {
		if _, err := runCLI(t, env.configPath, args...); err != nil {
			t.Fatalf("%v: %v", args, err)
		}
	}

	out, err := runCLI(t, env.configPath, "transcribe", "--dry-run")
	if err != nil {
		t.Fatalf("transcribe dry run: %v", err)
	}
	if !strings.Contains(out, "2 recordings selected") || transcriber.calls != 0 {
		t.Fatalf("dry run should only report the selection: %q (calls %d)", out, transcriber.calls)
	}

	out, err = runCLI(t, env.configPath, "transcribe")
	if err != nil {
		t.Fatalf("transcribe: %v", err)
	}
	if !strings.Contains(out, "Transcribe: 2 done, 0 failed, 0 skipped") {
		t.Fatalf("unexpected transcribe output: %q", out)
	}
	if !strings.Contains(out, "Publish: 0 created, 2 updated, 0 skipped, 0 errors") {
		t.Fatalf("transcribe should refresh changed notes: %q", out)
	}

	out, err = runCLI(t, env.configPath, "enrich", "-n", "1")
	if err != nil {
		t.Fatalf("enrich: %v", err)
	}
	if !strings.Contains(out, "Enrich: 1 done") {
		t.Fatalf("unexpected enrich output: %q", out)
	}
	if !strings.Contains(out, "Publish: 0 created, 1 updated, 1 skipped") {
		t.Fatalf("enrich should refresh only the enriched note: %q", out)
	}

	store := testsupport.MustOpenStore(t, env.cfg)
	enriched := testsupport.MustGet(t, store, "AAAA1111-0000-0000-0000-000000000001")
	if enriched.Summary != "A short reflection." || enriched.Topics != "plans, walks" {
		t.Fatalf("enrichment not saved: %+v", enriched)
	}
	note := testsupport.ReadText(t, filepath.Join(env.cfg.NotesDir(), enriched.NoteFilename()))
	if !strings.Contains(note, "## Summary") || !strings.Contains(note, "**Sentiment**: positive") {
		t.Fatalf("note not refreshed with enrichment:\n%s", note)
	}
}

func TestCLIScanMissingSource(t *testing.T) {
	env := setupCLITestEnv(t)

	_, err := runCLI(t, env.configPath, "scan")
	if err == nil {
		t.Fatal("expected scan to fail without a catalogue")
	}
	if !errors.Is(err, voicememos.ErrSourceUnavailable) {
		t.Fatalf("expected ErrSourceUnavailable, got %v", err)
	}
	if formatError(err) == "" {
		t.Fatal("expected formatted error")
	}
}

func TestCLIRefusesWhileLocked(t *testing.T) {
	env := setupCLITestEnv(t)
	seedRecordings(t, env)

	lock, err := lockfile.Acquire(env.cfg.LockPath())
	if err != nil {
		t.Fatalf("acquire lock: %v", err)
	}
	defer lock.Release()

	_, err = runCLI(t, env.configPath, "scan")
	if !errors.Is(err, lockfile.ErrLocked) {
		t.Fatalf("expected ErrLocked, got %v", err)
	}
	if !strings.Contains(formatError(err), "Hint:") {
		t.Fatalf("expected lock hint, got %q", formatError(err))
	}
}

func TestCLIRetry(t *testing.T) {
	env := setupCLITestEnv(t)
	store := testsupport.MustOpenStore(t, env.cfg)
	ctx := context.Background()
	testsupport.MustUpsert(t, store, testsupport.NewCandidate("RUN-1", 30))
	testsupport.MustUpsert(t, store, testsupport.NewCandidate("SKIP-2", 30))
	if err := store.MarkRunning(ctx, testsupport.TestOrigin, "RUN-1"); err != nil {
		t.Fatal(err)
	}
	if err := store.MarkSkipped(ctx, testsupport.TestOrigin, "SKIP-2", assets.MissingSourceReason); err != nil {
		t.Fatal(err)
	}

	if _, err := runCLI(t, env.configPath, "retry"); err == nil {
		t.Fatal("expected usage error without arguments")
	}

	out, err := runCLI(t, env.configPath, "retry", "--stranded")
	if err != nil {
		t.Fatalf("retry --stranded: %v", err)
	}
	if !strings.Contains(out, "Requeued 1 stranded") {
		t.Fatalf("unexpected output: %q", out)
	}
	if got := testsupport.MustGet(t, store, "RUN-1"); got.Status != assets.StatusFailed || got.TranscriptError != assets.InterruptedReason {
		t.Fatalf("stranded record not requeued: %+v", got)
	}

	if _, err := runCLI(t, env.configPath, "retry", "RUN-1"); !errors.Is(err, assets.ErrNotEligible) {
		t.Fatalf("expected ErrNotEligible for a failed record, got %v", err)
	}

	out, err = runCLI(t, env.configPath, "retry", "SKIP")
	if err != nil {
		t.Fatalf("retry SKIP: %v", err)
	}
	if !strings.Contains(out, "Requeued SKIP") {
		t.Fatalf("unexpected output: %q", out)
	}
	if got := testsupport.MustGet(t, store, "SKIP-2"); got.Status != assets.StatusPending {
		t.Fatalf("skipped record not requeued: %+v", got)
	}
}

func TestCLIInfoUnknownAsset(t *testing.T) {
	env := setupCLITestEnv(t)
	if _, err := runCLI(t, env.configPath, "info", "nope"); !errors.Is(err, assets.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestCLIDoctorReportsFailures(t *testing.T) {
	env := setupCLITestEnv(t)

	out, err := runCLI(t, env.configPath, "doctor")
	if err == nil {
		t.Fatal("expected doctor to fail without a catalogue")
	}
	if !strings.Contains(out, "Voice Memos catalogue:") || !strings.Contains(out, "[FAIL]") {
		t.Fatalf("unexpected doctor output: %q", out)
	}
	if !strings.Contains(out, "Enrichment LLM:") || !strings.Contains(out, "[WARN]") {
		t.Fatalf("expected optional LLM warning: %q", out)
	}
}

func TestCLIInitConfigSample(t *testing.T) {
	target := filepath.Join(t.TempDir(), "atlas", "config.toml")

	out, err := runCLI(t, target, "init", "--config-sample")
	if err != nil {
		t.Fatalf("init --config-sample: %v", err)
	}
	if !strings.Contains(out, target) {
		t.Fatalf("expected target path in output: %q", out)
	}
	data, err := os.ReadFile(target)
	if err != nil {
		t.Fatalf("read sample: %v", err)
	}
	if !strings.Contains(string(data), "[enrichment]") {
		t.Fatalf("sample config missing sections:\n%s", data)
	}

	if _, err := runCLI(t, target, "init", "--config-sample"); err == nil {
		t.Fatal("expected refusal to overwrite an existing config")
	}
	if _, err := runCLI(t, target, "init", "--config-sample", "--overwrite"); err != nil {
		t.Fatalf("overwrite: %v", err)
	}
}

func TestCLIStageFactoriesReceiveLoadedConfig(t *testing.T) {
	env := setupCLITestEnv(t)
	if _, err := runCLI(t, env.configPath, "init"); err != nil {
		t.Fatalf("init: %v", err)
	}

	var got []*config.Config
	original := factories
	factories = stageFactories{
		transcriber: func(cfg *config.Config) transcribe.Transcriber {
			got = append(got, cfg)
			return &stubTranscriber{}
		},
		completer: func(cfg *config.Config) enrich.Completer {
			got = append(got, cfg)
			return stubCompleter{}
		},
	}
	t.Cleanup(func() { factories = original })

	for _, command := range []string{"transcribe", "enrich"} {
		if _, err := runCLI(t, env.configPath, command); err != nil {
			t.Fatalf("%s: %v", command, err)
		}
	}
	if len(got) != 2 {
		t.Fatalf("expected both factories to run, got %d calls", len(got))
	}
	for _, cfg := range got {
		if cfg == nil || cfg.Paths.DBPath != env.cfg.Paths.DBPath {
			t.Fatalf("factory received unexpected config: %+v", cfg)
		}
	}

	if original.transcriber(env.cfg) == nil || original.completer(env.cfg) == nil {
		t.Fatal("production factories should build collaborators from the config")
	}
}
