package assets

import (
	"context"
	"database/sql"
	"strings"

	"github.com/cockroachdb/errors"
	"github.com/jmoiron/sqlx"
)

type sourceFields struct {
	Title       sql.NullString  `db:"title"`
	DurationSec sql.NullFloat64 `db:"duration_sec"`
	RecordedAt  sql.NullString  `db:"recorded_at"`
	UpdatedAt   string          `db:"updated_at"`
}

// Upsert reconciles a scan candidate with the stored asset. A new id is
// inserted as pending; an existing id is rewritten only when its title,
// duration, or recorded-at changed, and then only its source-derived fields.
// Stage fields are never touched. Calling Upsert again with the same candidate
// always reports UpsertSkipped and performs no write.
func (s *Store) Upsert(ctx context.Context, origin Origin, c Candidate) (UpsertResult, error) {
	c.ID = strings.TrimSpace(c.ID)
	if c.ID == "" {
		return "", errors.New("upsert: candidate id is required")
	}
	if c.SourceType == "" {
		c.SourceType = SourceVoiceMemo
	}

	var result UpsertResult
	err := s.withTx(ctx, "upsert asset", func(tx *sqlx.Tx) error {
		var existing sourceFields
		err := tx.GetContext(ctx, &existing,
			"SELECT title, duration_sec, recorded_at, updated_at FROM asset WHERE id = ?", c.ID)
		switch {
		case errors.Is(err, sql.ErrNoRows):
			if err := s.insertCandidate(ctx, tx, c); err != nil {
				return err
			}
			result = UpsertInserted
		case err != nil:
			return errors.Wrap(err, "load existing asset")
		default:
			if sourceUnchanged(existing, c) {
				result = UpsertSkipped
				return nil
			}
			if err := s.updateCandidate(ctx, tx, c, existing.UpdatedAt); err != nil {
				return err
			}
			result = UpsertUpdated
		}
		return s.insertAction(ctx, tx, origin, c.ID, string(result), map[string]any{
			"title":        c.Title,
			"duration_sec": nullableFloat(c.DurationSec),
			"recorded_at":  c.RecordedAt,
		})
	})
	if err != nil {
		return "", err
	}
	return result, nil
}

func sourceUnchanged(existing sourceFields, c Candidate) bool {
	if existing.Title.String != c.Title {
		return false
	}
	if existing.RecordedAt.String != c.RecordedAt {
		return false
	}
	switch {
	case !existing.DurationSec.Valid && c.DurationSec == nil:
		return true
	case existing.DurationSec.Valid && c.DurationSec != nil:
		return existing.DurationSec.Float64 == *c.DurationSec
	default:
		return false
	}
}

func (s *Store) insertCandidate(ctx context.Context, tx *sqlx.Tx, c Candidate) error {
	scannedAt := s.timestamp()
	_, err := tx.ExecContext(ctx, `INSERT INTO asset (
		id, source_type, source_path, filename, title, duration_sec, recorded_at,
		file_format, file_size_bytes, audio_digest, transcript_status, scanned_at, updated_at
	) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		c.ID,
		string(c.SourceType),
		c.SourcePath,
		c.Filename,
		nullableString(c.Title),
		nullableFloat(c.DurationSec),
		nullableString(c.RecordedAt),
		nullableString(c.FileFormat),
		nullableInt(c.FileSize),
		nullableBytes(c.AudioDigest),
		string(StatusPending),
		scannedAt,
		s.nextUpdatedAt(""),
	)
	if err != nil {
		return errors.Wrap(err, "insert asset")
	}
	return nil
}

func (s *Store) updateCandidate(ctx context.Context, tx *sqlx.Tx, c Candidate, previousUpdatedAt string) error {
	_, err := tx.ExecContext(ctx, `UPDATE asset SET
		source_path = ?, filename = ?, title = ?, duration_sec = ?, recorded_at = ?,
		file_format = ?, file_size_bytes = ?, audio_digest = ?, updated_at = ?
	WHERE id = ?`,
		c.SourcePath,
		c.Filename,
		nullableString(c.Title),
		nullableFloat(c.DurationSec),
		nullableString(c.RecordedAt),
		nullableString(c.FileFormat),
		nullableInt(c.FileSize),
		nullableBytes(c.AudioDigest),
		s.nextUpdatedAt(previousUpdatedAt),
		c.ID,
	)
	if err != nil {
		return errors.Wrap(err, "update asset")
	}
	return nil
}
