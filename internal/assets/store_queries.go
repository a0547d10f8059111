package assets

import (
	"context"
	"database/sql"
	"strings"

	"github.com/cockroachdb/errors"
)

// Get returns the asset with the exact id.
func (s *Store) Get(ctx context.Context, id string) (*Asset, error) {
	var row assetRow
	err := s.db.GetContext(ensureContext(ctx), &row, "SELECT "+assetColumns+" FROM asset WHERE id = ?", id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, errors.Wrapf(ErrNotFound, "asset %s", id)
	}
	if err != nil {
		return nil, errors.Wrap(err, "get asset")
	}
	return row.toAsset(), nil
}

// FindByPrefix resolves an exact id or a unique id prefix.
func (s *Store) FindByPrefix(ctx context.Context, prefix string) (*Asset, error) {
	ctx = ensureContext(ctx)
	prefix = strings.TrimSpace(prefix)
	if prefix == "" {
		return nil, errors.Wrap(ErrNotFound, "empty asset id")
	}
	if asset, err := s.Get(ctx, prefix); err == nil {
		return asset, nil
	} else if !errors.Is(err, ErrNotFound) {
		return nil, err
	}

	var rows []assetRow
	err := s.db.SelectContext(ctx, &rows,
		"SELECT "+assetColumns+" FROM asset WHERE substr(id, 1, ?) = ? ORDER BY id LIMIT 2",
		len(prefix), prefix)
	if err != nil {
		return nil, errors.Wrap(err, "find asset by prefix")
	}
	switch len(rows) {
	case 0:
		return nil, errors.Wrapf(ErrNotFound, "no asset matching %q", prefix)
	case 1:
		return rows[0].toAsset(), nil
	default:
		return nil, errors.Wrapf(ErrAmbiguousPrefix, "%q matches %s and %s", prefix, rows[0].ID, rows[1].ID)
	}
}

// List returns assets ordered by recording time, optionally filtered by status.
func (s *Store) List(ctx context.Context, statuses ...Status) ([]*Asset, error) {
	query := "SELECT " + assetColumns + " FROM asset"
	args := make([]any, 0, len(statuses))
	if len(statuses) > 0 {
		query += " WHERE transcript_status IN (" + makePlaceholders(len(statuses)) + ")"
		for _, status := range statuses {
			args = append(args, string(status))
		}
	}
	query += " ORDER BY recorded_at ASC, id ASC"
	return s.selectAssets(ctx, query, args...)
}

// Unpublished returns assets that have never been published.
func (s *Store) Unpublished(ctx context.Context) ([]*Asset, error) {
	return s.selectAssets(ctx,
		"SELECT "+assetColumns+" FROM asset WHERE note_path IS NULL ORDER BY recorded_at ASC, id ASC")
}

// TranscriptionCandidates selects assets eligible for transcription, shortest
// first. Running assets are included: a batch that crashed mid-record leaves
// the asset running, and the next batch re-attempts it.
func (s *Store) TranscriptionCandidates(ctx context.Context, minDurationSec float64, limit int) ([]*Asset, error) {
	query := "SELECT " + assetColumns + ` FROM asset
		WHERE transcript_status IN (?, ?, ?)
		  AND duration_sec > ?
		ORDER BY duration_sec ASC, id ASC`
	args := []any{string(StatusPending), string(StatusFailed), string(StatusRunning), minDurationSec}
	if limit > 0 {
		query += " LIMIT ?"
		args = append(args, limit)
	}
	return s.selectAssets(ctx, query, args...)
}

// EnrichmentCandidates selects transcribed assets without a summary, shortest first.
func (s *Store) EnrichmentCandidates(ctx context.Context, limit int) ([]*Asset, error) {
	query := "SELECT " + assetColumns + ` FROM asset
		WHERE transcript_status = ?
		  AND summary IS NULL
		  AND transcript_path IS NOT NULL
		ORDER BY duration_sec ASC, id ASC`
	args := []any{string(StatusDone)}
	if limit > 0 {
		query += " LIMIT ?"
		args = append(args, limit)
	}
	return s.selectAssets(ctx, query, args...)
}

func (s *Store) selectAssets(ctx context.Context, query string, args ...any) ([]*Asset, error) {
	var rows []assetRow
	if err := s.db.SelectContext(ensureContext(ctx), &rows, query, args...); err != nil {
		return nil, errors.Wrap(err, "select assets")
	}
	return rowsToAssets(rows), nil
}

// Stats aggregates catalogue counts.
func (s *Store) Stats(ctx context.Context) (Stats, error) {
	ctx = ensureContext(ctx)
	var agg struct {
		Total       int     `db:"total"`
		Published   int     `db:"published"`
		Transcribed int     `db:"transcribed"`
		Enriched    int     `db:"enriched"`
		TotalHours  float64 `db:"total_hours"`
	}
	err := s.db.GetContext(ctx, &agg, `SELECT
		COUNT(*) AS total,
		COUNT(CASE WHEN note_path IS NOT NULL THEN 1 END) AS published,
		COUNT(CASE WHEN transcript_status = 'done' THEN 1 END) AS transcribed,
		COUNT(CASE WHEN summary IS NOT NULL THEN 1 END) AS enriched,
		COALESCE(SUM(duration_sec), 0) / 3600.0 AS total_hours
	FROM asset`)
	if err != nil {
		return Stats{}, errors.Wrap(err, "asset stats")
	}

	var byStatus []struct {
		Status string `db:"transcript_status"`
		Count  int    `db:"count"`
	}
	if err := s.db.SelectContext(ctx, &byStatus,
		"SELECT transcript_status, COUNT(*) AS count FROM asset GROUP BY transcript_status"); err != nil {
		return Stats{}, errors.Wrap(err, "status breakdown")
	}

	stats := Stats{
		Total:       agg.Total,
		TotalHours:  agg.TotalHours,
		Published:   agg.Published,
		Transcribed: agg.Transcribed,
		Enriched:    agg.Enriched,
		ByStatus:    make(map[Status]int, len(allStatuses)),
	}
	for _, status := range allStatuses {
		stats.ByStatus[status] = 0
	}
	for _, row := range byStatus {
		stats.ByStatus[Status(row.Status)] = row.Count
	}
	return stats, nil
}

// RecentActions returns the newest audit events for an asset, newest first.
// An empty assetID returns batch-level and per-asset events alike.
func (s *Store) RecentActions(ctx context.Context, assetID string, limit int) ([]Action, error) {
	if limit <= 0 {
		limit = 20
	}
	query := "SELECT id, timestamp, command, asset_id, action, detail, run_id FROM action_log"
	args := []any{}
	if assetID != "" {
		query += " WHERE asset_id = ?"
		args = append(args, assetID)
	}
	query += " ORDER BY id DESC LIMIT ?"
	args = append(args, limit)

	var rows []actionRow
	if err := s.db.SelectContext(ensureContext(ctx), &rows, query, args...); err != nil {
		return nil, errors.Wrap(err, "recent actions")
	}
	actions := make([]Action, 0, len(rows))
	for _, row := range rows {
		actions = append(actions, row.toAction())
	}
	return actions, nil
}
