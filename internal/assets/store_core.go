package assets

import (
	"context"
	"database/sql"
	"encoding/json"
	"strings"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/jmoiron/sqlx"
)

const (
	sqliteBusyCode          = 5
	busyRetryAttempts       = 5
	busyRetryInitialBackoff = 10 * time.Millisecond
	busyRetryMaxBackoff     = 200 * time.Millisecond

	timestampLayout = "2006-01-02T15:04:05Z"
	updatedLayout   = "2006-01-02T15:04:05.000Z"
)

func ensureContext(ctx context.Context) context.Context {
	if ctx != nil {
		return ctx
	}
	return context.Background()
}

func isSQLiteBusy(err error) bool {
	if err == nil {
		return false
	}
	var coder interface{ Code() int }
	if errors.As(err, &coder) && coder.Code() == sqliteBusyCode {
		return true
	}
	msg := err.Error()
	return strings.Contains(msg, "SQLITE_BUSY") || strings.Contains(msg, "database is locked")
}

func retryOnBusy(ctx context.Context, op func() error) error {
	delay := busyRetryInitialBackoff
	var lastErr error
	for attempt := 0; attempt < busyRetryAttempts; attempt++ {
		lastErr = op()
		if lastErr == nil {
			return nil
		}
		if !isSQLiteBusy(lastErr) || attempt == busyRetryAttempts-1 {
			break
		}
		select {
		case <-time.After(delay):
		case <-ctx.Done():
			return ctx.Err()
		}
		if next := delay * 2; next <= busyRetryMaxBackoff {
			delay = next
		}
	}
	return lastErr
}

// withTx runs fn inside a transaction, retrying the whole unit on SQLITE_BUSY.
// Any failure rolls back every statement fn issued. Storage failures are
// marked ErrRecordWrite; domain refusals pass through unchanged.
func (s *Store) withTx(ctx context.Context, op string, fn func(*sqlx.Tx) error) error {
	ctx = ensureContext(ctx)
	err := retryOnBusy(ctx, func() error {
		tx, err := s.db.BeginTxx(ctx, nil)
		if err != nil {
			return err
		}
		if err := fn(tx); err != nil {
			_ = tx.Rollback()
			return err
		}
		return tx.Commit()
	})
	if err == nil {
		return nil
	}
	if isDomainError(err) {
		return err
	}
	return errors.Mark(errors.Wrap(err, op), ErrRecordWrite)
}

// insertAction appends an action_log row inside tx.
func (s *Store) insertAction(ctx context.Context, tx *sqlx.Tx, origin Origin, assetID, action string, detail map[string]any) error {
	encoded, err := encodeDetail(detail)
	if err != nil {
		return err
	}
	_, err = tx.ExecContext(ctx,
		"INSERT INTO action_log (timestamp, command, asset_id, action, detail, run_id) VALUES (?, ?, ?, ?, ?, ?)",
		s.timestamp(), origin.Command, nullableString(assetID), action, encoded, nullableString(origin.RunID),
	)
	if err != nil {
		return errors.Wrap(err, "insert action log")
	}
	return nil
}

func encodeDetail(detail map[string]any) (any, error) {
	if len(detail) == 0 {
		return nil, nil
	}
	data, err := json.Marshal(detail)
	if err != nil {
		return nil, errors.Wrap(err, "encode action detail")
	}
	return string(data), nil
}

func (s *Store) clock() time.Time {
	if s.now == nil {
		return time.Now().UTC()
	}
	return s.now().UTC()
}

func (s *Store) timestamp() string {
	return s.clock().Format(timestampLayout)
}

// nextUpdatedAt returns a millisecond timestamp strictly after previous so
// updated_at increases on every mutation even within the same millisecond or
// when the wall clock steps backwards.
func (s *Store) nextUpdatedAt(previous string) string {
	now := s.clock().Truncate(time.Millisecond)
	if prev, err := time.Parse(updatedLayout, previous); err == nil && !now.After(prev) {
		now = prev.Add(time.Millisecond)
	}
	return now.Format(updatedLayout)
}

func nullableString(value string) any {
	if value == "" {
		return nil
	}
	return value
}

func nullableFloat(value *float64) any {
	if value == nil {
		return nil
	}
	return *value
}

func nullableInt(value int64) any {
	if value <= 0 {
		return nil
	}
	return value
}

func nullableBytes(value []byte) any {
	if len(value) == 0 {
		return nil
	}
	return value
}

func floatPtr(value sql.NullFloat64) *float64 {
	if !value.Valid {
		return nil
	}
	v := value.Float64
	return &v
}

func makePlaceholders(count int) string {
	if count <= 0 {
		return ""
	}
	placeholders := make([]byte, 0, count*2)
	for i := 0; i < count; i++ {
		if i > 0 {
			placeholders = append(placeholders, ',')
		}
		placeholders = append(placeholders, '?')
	}
	return string(placeholders)
}
