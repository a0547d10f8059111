package publish_test

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
	"memoryatlas/internal/logging"
	"memoryatlas/internal/publish"
	"memoryatlas/internal/testsupport"
)

var origin = assets.Origin{Command: "publish", RunID: "run-3"}

func newPublisher(t *testing.T) (*config.Config, *assets.Store, *publish.Publisher) {
	t.Helper()
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenStore(t, cfg)
	trail, err := auditlog.Open(cfg.Paths.JSONLPath)
	if err != nil {
		t.Fatalf("auditlog.Open: %v", err)
	}
	return cfg, store, publish.NewPublisher(cfg, store, trail, logging.NewNop())
}

func mustPublish(t *testing.T, p *publish.Publisher, opts publish.Options) publish.Counts {
	t.Helper()
	opts.Origin = origin
	counts, err := p.Publish(context.Background(), opts)
	if err != nil {
		t.Fatalf("Publish: %v", err)
	}
	return counts
}

func TestPublishCreatesNotesAndIndex(t *testing.T) {
	cfg, store, p := newPublisher(t)
	testsupport.MustUpsert(t, store, testsupport.NewCandidate("A-1", 125.4))
	testsupport.MustUpsert(t, store, testsupport.NewCandidate("B-2", 30))

	counts := mustPublish(t, p, publish.Options{})
	if counts.Created != 2 || counts.Updated != 0 || counts.Error != 0 {
		t.Fatalf("unexpected counts: %+v", counts)
	}

	a := testsupport.MustGet(t, store, "A-1")
	wantRel := "MemoryAtlas/voice/" + a.NoteFilename()
	if a.NotePath != wantRel {
		t.Fatalf("note path = %q, want %q", a.NotePath, wantRel)
	}
	if len(a.NoteHash) != 16 || a.PublishedAt == "" {
		t.Fatalf("publication fields not set: %+v", a)
	}
	note := testsupport.ReadText(t, filepath.Join(cfg.NotesDir(), a.NoteFilename()))
	if !strings.Contains(note, "duration: 2:05") {
		t.Fatalf("unexpected note:\n%s", note)
	}

	index := testsupport.ReadText(t, filepath.Join(cfg.Vault.AtlasDir, publish.IndexFilename))
	if !strings.Contains(index, "> 2 recordings | 0 hours | 2 published | 0 transcribed") {
		t.Fatalf("index stats line missing:\n%s", index)
	}
	if !strings.Contains(index, `FROM "MemoryAtlas/voice"`) {
		t.Fatalf("index folder missing:\n%s", index)
	}

	records, err := auditlog.ReadAll(cfg.Paths.JSONLPath)
	if err != nil {
		t.Fatalf("ReadAll: %v", err)
	}
	creates := 0
	for _, rec := range records {
		if rec.Action == assets.ActionCreate {
			creates++
			if rec.Detail["note_path"] == "" {
				t.Fatalf("create record without note path: %+v", rec)
			}
		}
	}
	if creates != 2 {
		t.Fatalf("expected 2 create trail records, got %d", creates)
	}
}

func TestPublishAssetFingerprintStability(t *testing.T) {
	cfg, store, p := newPublisher(t)
	ctx := context.Background()
	testsupport.MustUpsert(t, store, testsupport.NewCandidate("A-1", 60))

	action, err := p.PublishAsset(ctx, origin, testsupport.MustGet(t, store, "A-1"), false)
	if err != nil || action != assets.ActionCreate {
		t.Fatalf("first publish = %q, %v", action, err)
	}
	path := filepath.Join(cfg.NotesDir(), testsupport.MustGet(t, store, "A-1").NoteFilename())
	before, err := os.Stat(path)
	if err != nil {
		t.Fatal(err)
	}

	action, err = p.PublishAsset(ctx, origin, testsupport.MustGet(t, store, "A-1"), false)
	if err != nil || action != "" {
		t.Fatalf("second publish should skip, got %q, %v", action, err)
	}
	after, err := os.Stat(path)
	if err != nil {
		t.Fatal(err)
	}
	if !after.ModTime().Equal(before.ModTime()) {
		t.Fatal("unchanged note was rewritten")
	}

	if err := store.MarkRunning(ctx, origin, "A-1"); err != nil {
		t.Fatal(err)
	}
	action, err = p.PublishAsset(ctx, origin, testsupport.MustGet(t, store, "A-1"), false)
	if err != nil || action != "" {
		t.Fatalf("status running does not change the rendered note, got %q, %v", action, err)
	}
	if err := store.MarkTranscribed(ctx, origin, "A-1", assets.TranscriptOutput{Model: "m", Language: "en", Path: "/t/A-1.txt"}); err != nil {
		t.Fatal(err)
	}
	action, err = p.PublishAsset(ctx, origin, testsupport.MustGet(t, store, "A-1"), false)
	if err != nil || action != assets.ActionUpdate {
		t.Fatalf("changed note should update, got %q, %v", action, err)
	}
	action, err = p.PublishAsset(ctx, origin, testsupport.MustGet(t, store, "A-1"), false)
	if err != nil || action != "" {
		t.Fatalf("exactly one rewrite expected, got %q, %v", action, err)
	}
}

func TestPublishModes(t *testing.T) {
	_, store, p := newPublisher(t)
	ctx := context.Background()
	testsupport.MustUpsert(t, store, testsupport.NewCandidate("A-1", 60))
	testsupport.MustUpsert(t, store, testsupport.NewCandidate("B-2", 90))
	mustPublish(t, p, publish.Options{})

	if counts := mustPublish(t, p, publish.Options{}); counts != (publish.Counts{}) {
		t.Fatalf("default publish should only visit unpublished assets, got %+v", counts)
	}
	if counts := mustPublish(t, p, publish.Options{Refresh: true}); counts.Skipped != 2 {
		t.Fatalf("refresh without changes should skip both, got %+v", counts)
	}

	if err := store.MarkSkipped(ctx, origin, "B-2", assets.MissingSourceReason); err != nil {
		t.Fatal(err)
	}
	if err := store.MarkRunning(ctx, origin, "A-1"); err != nil {
		t.Fatal(err)
	}
	if err := store.MarkTranscribed(ctx, origin, "A-1", assets.TranscriptOutput{Path: "/t/A-1.txt"}); err != nil {
		t.Fatal(err)
	}
	counts := mustPublish(t, p, publish.Options{Refresh: true})
	if counts.Updated != 1 || counts.Skipped != 1 {
		t.Fatalf("refresh should rewrite only the changed note, got %+v", counts)
	}

	if counts := mustPublish(t, p, publish.Options{Force: true}); counts.Updated != 2 {
		t.Fatalf("force should rewrite every note, got %+v", counts)
	}
}

func TestPublishIndexOnly(t *testing.T) {
	cfg, store, p := newPublisher(t)
	testsupport.MustUpsert(t, store, testsupport.NewCandidate("A-1", 60))

	counts := mustPublish(t, p, publish.Options{IndexOnly: true})
	if counts != (publish.Counts{}) {
		t.Fatalf("index-only should not publish notes, got %+v", counts)
	}
	if testsupport.MustGet(t, store, "A-1").NotePath != "" {
		t.Fatal("index-only must not mark assets published")
	}
	if _, err := os.Stat(filepath.Join(cfg.Vault.AtlasDir, publish.IndexFilename)); err != nil {
		t.Fatalf("index not written: %v", err)
	}
}

func TestPublishWritesIndexWhenCancelled(t *testing.T) {
	cfg, store, p := newPublisher(t)
	testsupport.MustUpsert(t, store, testsupport.NewCandidate("A-1", 60))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	counts, err := p.Publish(ctx, publish.Options{Origin: origin})
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("expected cancellation error, got %v", err)
	}
	if counts.Created != 0 {
		t.Fatalf("cancelled publish should write no notes, got %+v", counts)
	}
	index := testsupport.ReadText(t, filepath.Join(cfg.Vault.AtlasDir, publish.IndexFilename))
	if !strings.Contains(index, "> 1 recordings") {
		t.Fatalf("index not regenerated after cancellation:\n%s", index)
	}
}

func TestPublishCountsErrorsAndContinues(t *testing.T) {
	cfg, store, p := newPublisher(t)
	testsupport.MustUpsert(t, store, testsupport.NewCandidate("A-1", 60))
	testsupport.MustUpsert(t, store, testsupport.NewCandidate("B-2", 60))

	blocked := filepath.Join(cfg.NotesDir(), testsupport.MustGet(t, store, "A-1").NoteFilename())
	if err := os.MkdirAll(filepath.Join(blocked, "child"), 0o755); err != nil {
		t.Fatal(err)
	}

	counts := mustPublish(t, p, publish.Options{})
	if counts.Error != 1 || counts.Created != 1 {
		t.Fatalf("unexpected counts: %+v", counts)
	}
	if testsupport.MustGet(t, store, "A-1").NotePath != "" {
		t.Fatal("failed publish must not record a note path")
	}
	actions, err := store.RecentActions(context.Background(), "A-1", 5)
	if err != nil {
		t.Fatal(err)
	}
	if len(actions) == 0 || actions[0].Action != assets.ActionError || actions[0].Command != "publish" {
		t.Fatalf("expected publish error audit row, got %+v", actions)
	}
}

func TestPublishRemovesStaleNoteAfterRename(t *testing.T) {
	cfg, store, p := newPublisher(t)
	c := testsupport.NewCandidate("A-1", 60)
	testsupport.MustUpsert(t, store, c)
	mustPublish(t, p, publish.Options{})
	oldPath := filepath.Join(cfg.NotesDir(), testsupport.MustGet(t, store, "A-1").NoteFilename())

	c.Title = "Renamed memo"
	testsupport.MustUpsert(t, store, c)
	counts := mustPublish(t, p, publish.Options{Refresh: true})
	if counts.Created != 1 {
		t.Fatalf("renamed note should be created at its new path, got %+v", counts)
	}
	if _, err := os.Stat(oldPath); !os.IsNotExist(err) {
		t.Fatalf("stale note still present: %v", err)
	}
	a := testsupport.MustGet(t, store, "A-1")
	if !strings.Contains(a.NotePath, "renamed-memo") {
		t.Fatalf("note path not updated: %s", a.NotePath)
	}
}

func TestWriteAbout(t *testing.T) {
	cfg, _, p := newPublisher(t)
	path, err := p.WriteAbout()
	if err != nil {
		t.Fatalf("WriteAbout: %v", err)
	}
	if path != filepath.Join(cfg.Vault.AtlasDir, publish.AboutFilename) {
		t.Fatalf("unexpected path %s", path)
	}
	content := testsupport.ReadText(t, path)
	for _, want := range []string{"# About MemoryAtlas", "`MemoryAtlas/voice/`", cfg.Paths.DBPath} {
		if !strings.Contains(content, want) {
			t.Fatalf("about note missing %q", want)
		}
	}
}
