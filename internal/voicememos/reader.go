package voicememos

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/jmoiron/sqlx"
	_ "modernc.org/sqlite"

	"memoryatlas/internal/assets"
	"memoryatlas/internal/services"
)

// AppleEpochOffset is the number of seconds between the Unix epoch and the
// Core Data reference date (2001-01-01T00:00:00Z).
const AppleEpochOffset = 978307200

// RecordedAtLayout is the UTC layout stored in recorded_at.
const RecordedAtLayout = "2006-01-02T15:04:05Z"

// ErrSourceUnavailable reports that the Voice Memos catalogue cannot be read.
var ErrSourceUnavailable = errors.Mark(errors.New("voice memos catalogue unavailable"), services.ErrNotFound)

const recordingsQuery = `SELECT
	ZUNIQUEID, ZPATH, ZDURATION, ZDATE, ZENCRYPTEDTITLE, ZAUDIODIGEST
FROM ZCLOUDRECORDING
ORDER BY ZDATE ASC, ZUNIQUEID ASC`

type recordingRow struct {
	UniqueID sql.NullString  `db:"ZUNIQUEID"`
	Path     sql.NullString  `db:"ZPATH"`
	Duration sql.NullFloat64 `db:"ZDURATION"`
	Date     sql.NullFloat64 `db:"ZDATE"`
	Title    sql.NullString  `db:"ZENCRYPTEDTITLE"`
	Digest   []byte          `db:"ZAUDIODIGEST"`
}

// Reader lists recordings from a Voice Memos CloudRecordings.db without
// modifying it.
type Reader struct {
	dbPath string
}

// NewReader returns a reader for the catalogue at dbPath.
func NewReader(dbPath string) *Reader {
	return &Reader{dbPath: dbPath}
}

// Path returns the catalogue location.
func (r *Reader) Path() string {
	return r.dbPath
}

// RecordingsDir is the directory audio paths are resolved against.
func (r *Reader) RecordingsDir() string {
	return filepath.Dir(r.dbPath)
}

// ListCandidates reads every recording with an audio path, oldest first.
// The whole listing is one read transaction so a scan sees a single snapshot.
func (r *Reader) ListCandidates(ctx context.Context) ([]assets.Candidate, error) {
	if strings.TrimSpace(r.dbPath) == "" {
		return nil, errors.Wrap(ErrSourceUnavailable, "voice memos database path is empty")
	}
	if _, err := os.Stat(r.dbPath); err != nil {
		return nil, errors.Wrapf(withSourceHint(ErrSourceUnavailable), "stat %s: %v", r.dbPath, err)
	}

	db, err := sqlx.Open("sqlite", fmt.Sprintf("file:%s?mode=ro&immutable=1", r.dbPath))
	if err != nil {
		return nil, errors.Wrapf(ErrSourceUnavailable, "open %s: %v", r.dbPath, err)
	}
	defer db.Close()

	tx, err := db.BeginTxx(ctx, &sql.TxOptions{ReadOnly: true})
	if err != nil {
		return nil, errors.Wrapf(withSourceHint(ErrSourceUnavailable), "begin read of %s: %v", r.dbPath, err)
	}
	defer func() { _ = tx.Rollback() }()

	var rows []recordingRow
	if err := tx.SelectContext(ctx, &rows, recordingsQuery); err != nil {
		return nil, errors.Wrapf(withSourceHint(ErrSourceUnavailable), "query recordings: %v", err)
	}

	dir := r.RecordingsDir()
	candidates := make([]assets.Candidate, 0, len(rows))
	for _, row := range rows {
		if c, ok := row.toCandidate(dir); ok {
			candidates = append(candidates, c)
		}
	}
	return candidates, nil
}

func (row recordingRow) toCandidate(dir string) (assets.Candidate, bool) {
	if !row.Path.Valid || strings.TrimSpace(row.Path.String) == "" {
		return assets.Candidate{}, false
	}
	if !row.UniqueID.Valid || strings.TrimSpace(row.UniqueID.String) == "" {
		return assets.Candidate{}, false
	}
	name := row.Path.String
	c := assets.Candidate{
		ID:          row.UniqueID.String,
		SourceType:  assets.SourceVoiceMemo,
		SourcePath:  filepath.Join(dir, name),
		Filename:    name,
		Title:       row.Title.String,
		FileFormat:  strings.TrimPrefix(strings.ToLower(filepath.Ext(name)), "."),
		AudioDigest: row.Digest,
	}
	if row.Duration.Valid {
		duration := row.Duration.Float64
		c.DurationSec = &duration
	}
	if row.Date.Valid {
		c.RecordedAt = AppleTimestamp(row.Date.Float64)
	}
	if info, err := os.Stat(c.SourcePath); err == nil && info.Mode().IsRegular() {
		c.FileSize = info.Size()
	}
	return c, true
}

// AppleTimestamp converts Core Data seconds to the recorded_at string.
func AppleTimestamp(seconds float64) string {
	sec := int64(seconds)
	nsec := int64((seconds - float64(sec)) * float64(time.Second))
	return time.Unix(sec+AppleEpochOffset, nsec).UTC().Format(RecordedAtLayout)
}

func withSourceHint(err error) error {
	return services.WithHint(err, "grant Full Disk Access to the terminal or set source.voice_memos_db")
}
