package assets

import (
	"context"
	"database/sql"
	"strings"

	"github.com/cockroachdb/errors"
	"github.com/jmoiron/sqlx"
)

type assignment struct {
	column string
	value  any
}

func (s *Store) loadState(ctx context.Context, tx *sqlx.Tx, id string) (stateRow, error) {
	var state stateRow
	err := tx.GetContext(ctx, &state,
		"SELECT transcript_status, transcript_path, updated_at FROM asset WHERE id = ?", id)
	if errors.Is(err, sql.ErrNoRows) {
		return state, errors.Wrapf(ErrNotFound, "asset %s", id)
	}
	if err != nil {
		return state, errors.Wrap(err, "load asset state")
	}
	return state, nil
}

// transition moves an asset to the target status along the transition table,
// applying set in the same statement and recording the audit row in the same
// transaction. The UPDATE is guarded on the status it was validated against.
func (s *Store) transition(ctx context.Context, origin Origin, id string, to Status, set []assignment, detail map[string]any) error {
	return s.withTx(ctx, "transition to "+string(to), func(tx *sqlx.Tx) error {
		state, err := s.loadState(ctx, tx, id)
		if err != nil {
			return err
		}
		from := Status(state.Status)
		if err := ValidateTransition(from, to); err != nil {
			return errors.Wrapf(err, "asset %s", id)
		}

		columns := []string{"transcript_status = ?", "updated_at = ?"}
		args := []any{string(to), s.nextUpdatedAt(state.UpdatedAt)}
		for _, a := range set {
			columns = append(columns, a.column+" = ?")
			args = append(args, a.value)
		}
		args = append(args, id, string(from))

		res, err := tx.ExecContext(ctx,
			"UPDATE asset SET "+strings.Join(columns, ", ")+" WHERE id = ? AND transcript_status = ?",
			args...)
		if err != nil {
			return errors.Wrap(err, "update asset status")
		}
		if n, err := res.RowsAffected(); err == nil && n != 1 {
			return errors.Wrapf(ErrInvalidTransition, "asset %s left %s before the update applied", id, from)
		}

		if detail == nil {
			detail = map[string]any{}
		}
		detail["from"] = string(from)
		return s.insertAction(ctx, tx, origin, id, string(to), detail)
	})
}

// MarkRunning records that a stage started work on the asset.
func (s *Store) MarkRunning(ctx context.Context, origin Origin, id string) error {
	return s.transition(ctx, origin, id, StatusRunning, nil, nil)
}

// MarkTranscribed records a completed transcription and its output location.
func (s *Store) MarkTranscribed(ctx context.Context, origin Origin, id string, out TranscriptOutput) error {
	return s.transition(ctx, origin, id, StatusDone, []assignment{
		{"transcript_model", nullableString(out.Model)},
		{"transcript_lang", nullableString(out.Language)},
		{"transcript_at", s.timestamp()},
		{"transcript_path", nullableString(out.Path)},
		{"transcript_error", nil},
	}, map[string]any{
		"model":    out.Model,
		"language": out.Language,
		"path":     out.Path,
	})
}

// MarkFailed records a retryable stage failure.
func (s *Store) MarkFailed(ctx context.Context, origin Origin, id, reason string) error {
	return s.transition(ctx, origin, id, StatusFailed, []assignment{
		{"transcript_error", nullableString(reason)},
	}, map[string]any{"reason": reason})
}

// MarkSkipped parks an asset that cannot be processed without operator action.
func (s *Store) MarkSkipped(ctx context.Context, origin Origin, id, reason string) error {
	return s.transition(ctx, origin, id, StatusSkipped, []assignment{
		{"transcript_error", nullableString(reason)},
	}, map[string]any{"reason": reason})
}

// SaveEnrichment stores the four enrichment fields. The write is refused with
// ErrNotEligible unless the transcript is done and its path is recorded.
func (s *Store) SaveEnrichment(ctx context.Context, origin Origin, id string, e Enrichment) error {
	return s.withTx(ctx, "save enrichment", func(tx *sqlx.Tx) error {
		state, err := s.loadState(ctx, tx, id)
		if err != nil {
			return err
		}
		if Status(state.Status) != StatusDone || !state.TranscriptPath.Valid || state.TranscriptPath.String == "" {
			return errors.Wrapf(ErrNotEligible, "asset %s has no completed transcript", id)
		}
		_, err = tx.ExecContext(ctx, `UPDATE asset SET
			summary = ?, topics = ?, people = ?, sentiment = ?,
			enriched_at = ?, enrich_error = NULL, updated_at = ?
		WHERE id = ? AND transcript_status = ? AND transcript_path IS NOT NULL`,
			nullableString(e.Summary),
			nullableString(e.Topics),
			nullableString(e.People),
			nullableString(e.Sentiment),
			s.timestamp(),
			s.nextUpdatedAt(state.UpdatedAt),
			id,
			string(StatusDone),
		)
		if err != nil {
			return errors.Wrap(err, "update enrichment")
		}
		return s.insertAction(ctx, tx, origin, id, ActionEnriched, map[string]any{
			"sentiment": e.Sentiment,
		})
	})
}

// RecordEnrichmentFailure stores the reason the last enrichment attempt failed.
func (s *Store) RecordEnrichmentFailure(ctx context.Context, origin Origin, id, reason string) error {
	return s.withTx(ctx, "record enrichment failure", func(tx *sqlx.Tx) error {
		state, err := s.loadState(ctx, tx, id)
		if err != nil {
			return err
		}
		_, err = tx.ExecContext(ctx,
			"UPDATE asset SET enrich_error = ?, updated_at = ? WHERE id = ?",
			nullableString(reason), s.nextUpdatedAt(state.UpdatedAt), id)
		if err != nil {
			return errors.Wrap(err, "update enrichment failure")
		}
		return s.insertAction(ctx, tx, origin, id, ActionEnrichFailed, map[string]any{"reason": reason})
	})
}

// MarkPublished records the note written for the asset and its fingerprint.
// action is the audit action name (create or update).
func (s *Store) MarkPublished(ctx context.Context, origin Origin, id, notePath, noteHash, action string) error {
	return s.withTx(ctx, "mark published", func(tx *sqlx.Tx) error {
		state, err := s.loadState(ctx, tx, id)
		if err != nil {
			return err
		}
		_, err = tx.ExecContext(ctx,
			"UPDATE asset SET note_path = ?, published_at = ?, note_hash = ?, updated_at = ? WHERE id = ?",
			notePath, s.timestamp(), noteHash, s.nextUpdatedAt(state.UpdatedAt), id)
		if err != nil {
			return errors.Wrap(err, "update publication")
		}
		return s.insertAction(ctx, tx, origin, id, action, map[string]any{"note_path": notePath})
	})
}

// RequeueRunning moves every asset stranded in running to failed so the next
// batch retries it. It returns the number of assets moved.
func (s *Store) RequeueRunning(ctx context.Context, origin Origin) (int, error) {
	var ids []string
	if err := s.db.SelectContext(ensureContext(ctx), &ids,
		"SELECT id FROM asset WHERE transcript_status = ? ORDER BY id", string(StatusRunning)); err != nil {
		return 0, errors.Wrap(err, "list running assets")
	}
	moved := 0
	for _, id := range ids {
		if err := s.MarkFailed(ctx, origin, id, InterruptedReason); err != nil {
			if errors.Is(err, ErrInvalidTransition) {
				continue
			}
			return moved, err
		}
		moved++
	}
	return moved, nil
}

// RequeueSkipped returns a skipped asset to pending. It is an administrative
// override outside the runner transition table and is audited as requeue.
func (s *Store) RequeueSkipped(ctx context.Context, origin Origin, id string) error {
	return s.withTx(ctx, "requeue skipped", func(tx *sqlx.Tx) error {
		state, err := s.loadState(ctx, tx, id)
		if err != nil {
			return err
		}
		if Status(state.Status) != StatusSkipped {
			return errors.Wrapf(ErrNotEligible, "asset %s is %s, not skipped", id, state.Status)
		}
		_, err = tx.ExecContext(ctx,
			"UPDATE asset SET transcript_status = ?, transcript_error = NULL, updated_at = ? WHERE id = ? AND transcript_status = ?",
			string(StatusPending), s.nextUpdatedAt(state.UpdatedAt), id, string(StatusSkipped))
		if err != nil {
			return errors.Wrap(err, "requeue asset")
		}
		return s.insertAction(ctx, tx, origin, id, ActionRequeue, map[string]any{"from": string(StatusSkipped)})
	})
}

// LogAction appends a batch-level audit event (start, complete, error).
func (s *Store) LogAction(ctx context.Context, origin Origin, action, assetID string, detail map[string]any) error {
	return s.withTx(ctx, "log action", func(tx *sqlx.Tx) error {
		return s.insertAction(ctx, tx, origin, assetID, action, detail)
	})
}
