package assets

import (
	"context"
	_ "embed"
	"fmt"

	"github.com/cockroachdb/errors"
)

//go:embed schema.sql
var schemaSQL string

// schemaVersion is the current schema version. Bump this when the schema changes.
const schemaVersion = 1

// requiredColumns lists the asset columns CheckHealth expects to find.
var requiredColumns = []string{
	"id", "source_type", "source_path", "filename", "title", "duration_sec",
	"recorded_at", "file_format", "file_size_bytes", "audio_digest",
	"has_gps", "lat", "lon", "place",
	"transcript_status", "transcript_model", "transcript_lang", "transcript_at",
	"transcript_path", "transcript_error",
	"summary", "topics", "people", "sentiment", "enriched_at", "enrich_error",
	"note_path", "published_at", "note_hash", "scanned_at", "updated_at",
}

func (s *Store) initSchema(ctx context.Context) error {
	var tableExists int
	err := s.db.QueryRowContext(ctx,
		"SELECT COUNT(1) FROM sqlite_master WHERE type='table' AND name='schema_version'",
	).Scan(&tableExists)
	if err != nil {
		return fmt.Errorf("check schema_version table: %w", err)
	}

	if tableExists == 0 {
		return s.createSchema(ctx)
	}

	var version int
	err = s.db.QueryRowContext(ctx, "SELECT version FROM schema_version LIMIT 1").Scan(&version)
	if err != nil {
		return fmt.Errorf("read schema version: %w", err)
	}

	if version != schemaVersion {
		return errors.WithHint(
			errors.Wrapf(ErrSchemaMismatch, "database has version %d, expected %d", version, schemaVersion),
			"delete the database, then run 'atlas init' and 'atlas scan' to rebuild it",
		)
	}

	return nil
}

func (s *Store) createSchema(ctx context.Context) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin schema tx: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.ExecContext(ctx, schemaSQL); err != nil {
		return fmt.Errorf("create schema: %w", err)
	}

	if _, err := tx.ExecContext(ctx, "INSERT INTO schema_version (version) VALUES (?)", schemaVersion); err != nil {
		return fmt.Errorf("record schema version: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit schema: %w", err)
	}
	return nil
}
