package publish

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/cockroachdb/errors"

	"memoryatlas/internal/assets"
	"memoryatlas/internal/auditlog"
	"memoryatlas/internal/config"
	"memoryatlas/internal/fileutil"
	"memoryatlas/internal/logging"
	"memoryatlas/internal/services"
	"memoryatlas/internal/textutil"
)

// StageName labels logs and audit rows written by the publisher.
const StageName = "publish"

// Options controls one publish pass.
type Options struct {
	// Force rewrites every note, published or not.
	Force bool
	// Refresh revisits published assets too, skipping unchanged notes.
	Refresh bool
	// IndexOnly regenerates the dashboard without touching notes.
	IndexOnly bool
	Origin    assets.Origin
}

// Counts summarises a publish pass.
type Counts struct {
	Created int
	Updated int
	Skipped int
	Error   int
}

// Summary renders the counts for operators.
func (c Counts) Summary() string {
	return fmt.Sprintf("%d created, %d updated, %d skipped, %d errors", c.Created, c.Updated, c.Skipped, c.Error)
}

// Publisher renders asset notes into the vault.
type Publisher struct {
	cfg    *config.Config
	store  *assets.Store
	trail  *auditlog.Trail
	logger *slog.Logger
}

// NewPublisher builds a publisher writing under cfg.Vault.AtlasDir.
func NewPublisher(cfg *config.Config, store *assets.Store, trail *auditlog.Trail, logger *slog.Logger) *Publisher {
	return &Publisher{
		cfg:    cfg,
		store:  store,
		trail:  trail,
		logger: logging.NewComponentLogger(logger, StageName),
	}
}

// Publish writes notes for never-published assets, then regenerates the
// index. Force rewrites every note; Refresh revisits every asset but only
// rewrites notes whose fingerprint changed.
func (p *Publisher) Publish(ctx context.Context, opts Options) (Counts, error) {
	origin := opts.Origin
	if origin.Command == "" {
		origin.Command = StageName
	}
	ctx = services.WithStage(services.WithRunID(ctx, origin.RunID), StageName)
	logger := logging.WithContext(ctx, p.logger)

	var (
		counts   Counts
		notesErr error
	)
	if !opts.IndexOnly {
		counts, notesErr = p.publishNotes(ctx, logger, origin, opts)
	}

	// The index reflects whatever was committed, even after an interrupted pass.
	path, err := p.WriteIndex(context.WithoutCancel(ctx))
	if err != nil {
		return counts, errors.CombineErrors(notesErr, err)
	}
	logger.Debug("index written", logging.String("path", path))
	return counts, notesErr
}

func (p *Publisher) publishNotes(ctx context.Context, logger *slog.Logger, origin assets.Origin, opts Options) (Counts, error) {
	var counts Counts
	var (
		candidates []*assets.Asset
		err        error
	)
	if opts.Force || opts.Refresh {
		candidates, err = p.store.List(ctx)
	} else {
		candidates, err = p.store.Unpublished(ctx)
	}
	if err != nil {
		return counts, errors.Wrap(err, "select assets to publish")
	}
	if err := os.MkdirAll(p.cfg.NotesDir(), 0o755); err != nil {
		return counts, services.Wrap(services.ErrConfiguration, StageName, "ensure notes dir", p.cfg.NotesDir(), err)
	}

	p.audit(ctx, logger, origin, assets.ActionStart, "", map[string]any{"count": len(candidates), "force": opts.Force})
	for _, asset := range candidates {
		if ctx.Err() != nil {
			break
		}
		action, err := p.PublishAsset(ctx, origin, asset, opts.Force)
		switch {
		case err != nil:
			counts.Error++
			logging.ErrorWithContext(logger, "publish failed", "publish_error",
				logging.String(logging.FieldAssetID, asset.ID),
				logging.Error(err),
			)
			p.audit(context.WithoutCancel(ctx), logger, origin, assets.ActionError, asset.ID, map[string]any{"error": err.Error()})
		case action == assets.ActionCreate:
			counts.Created++
		case action == assets.ActionUpdate:
			counts.Updated++
		default:
			counts.Skipped++
		}
	}
	p.audit(context.WithoutCancel(ctx), logger, origin, assets.ActionComplete, "", map[string]any{
		"created": counts.Created,
		"updated": counts.Updated,
		"skipped": counts.Skipped,
		"error":   counts.Error,
	})
	logger.Info("publish complete", logging.String("summary", counts.Summary()))
	if err := ctx.Err(); err != nil {
		return counts, errors.WithStack(err)
	}
	return counts, nil
}

// PublishAsset writes the note for one asset unless the note on disk already
// matches its fingerprint. It returns the audit action taken (create or
// update), or "" when the note was current.
func (p *Publisher) PublishAsset(ctx context.Context, origin assets.Origin, asset *assets.Asset, force bool) (string, error) {
	content, err := RenderNote(asset)
	if err != nil {
		return "", err
	}
	hash := textutil.Fingerprint(content)
	filename := asset.NoteFilename()
	notePath := filepath.Join(p.cfg.NotesDir(), filename)
	relative := p.cfg.NoteRelativePrefix() + "/" + filename

	exists := fileutil.Exists(notePath)
	if exists && asset.NoteHash == hash && !force {
		return "", nil
	}
	if err := fileutil.WriteFileAtomic(notePath, []byte(content), 0o644); err != nil {
		return "", errors.Wrapf(err, "write note %s", filename)
	}
	p.removeStaleNote(asset, relative)

	action := assets.ActionUpdate
	if !exists {
		action = assets.ActionCreate
	}
	if err := p.store.MarkPublished(ctx, origin, asset.ID, relative, hash, action); err != nil {
		return "", err
	}
	p.trailLog(origin, action, asset.ID, map[string]any{"note_path": relative})
	return action, nil
}

// removeStaleNote deletes the previously published note when a title change
// moved the asset to a new filename.
func (p *Publisher) removeStaleNote(asset *assets.Asset, relative string) {
	previous := strings.TrimSpace(asset.NotePath)
	if previous == "" || previous == relative {
		return
	}
	prefix := p.cfg.NoteRelativePrefix() + "/"
	if !strings.HasPrefix(previous, prefix) || strings.Contains(previous[len(prefix):], "/") {
		return
	}
	stale := filepath.Join(p.cfg.NotesDir(), previous[len(prefix):])
	if err := os.Remove(stale); err != nil && !errors.Is(err, os.ErrNotExist) {
		p.logger.Warn("stale note not removed",
			logging.String(logging.FieldAssetID, asset.ID),
			logging.String("path", stale),
			logging.Error(err),
		)
	}
}

func (p *Publisher) audit(ctx context.Context, logger *slog.Logger, origin assets.Origin, action, assetID string, detail map[string]any) {
	if err := p.store.LogAction(ctx, origin, action, assetID, detail); err != nil {
		logger.Warn("audit row not written", logging.String("action", action), logging.Error(err))
	}
	p.trailLog(origin, action, assetID, detail)
}

func (p *Publisher) trailLog(origin assets.Origin, action, assetID string, detail map[string]any) {
	if err := p.trail.Log(origin, action, assetID, detail); err != nil {
		p.logger.Warn("audit trail not written", logging.String("action", action), logging.Error(err))
	}
}
