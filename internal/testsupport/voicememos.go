package testsupport

import (
	"database/sql"
	"os"
	"path/filepath"
	"testing"
	"time"

	_ "modernc.org/sqlite"
)

// appleEpoch is the reference date Core Data timestamps count from.
var appleEpoch = time.Date(2001, 1, 1, 0, 0, 0, 0, time.UTC)

// VoiceMemoRow describes one ZCLOUDRECORDING row to seed.
type VoiceMemoRow struct {
	UniqueID   string
	Path       string
	Duration   float64
	RecordedAt time.Time
	Title      string
	Digest     []byte
	// WriteAudio creates the audio file next to the catalogue.
	WriteAudio bool
}

// SeedVoiceMemosDB creates a Voice Memos style catalogue at path with the given rows.
func SeedVoiceMemosDB(t testing.TB, path string, rows ...VoiceMemoRow) {
	t.Helper()

	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatalf("mkdir catalogue dir: %v", err)
	}
	db, err := sql.Open("sqlite", path)
	if err != nil {
		t.Fatalf("open catalogue: %v", err)
	}
	defer db.Close()

	const ddl = `CREATE TABLE IF NOT EXISTS ZCLOUDRECORDING (
		Z_PK INTEGER PRIMARY KEY,
		ZUNIQUEID VARCHAR,
		ZPATH VARCHAR,
		ZDURATION FLOAT,
		ZDATE TIMESTAMP,
		ZENCRYPTEDTITLE VARCHAR,
		ZAUDIODIGEST BLOB
	)`
	if _, err := db.Exec(ddl); err != nil {
		t.Fatalf("create ZCLOUDRECORDING: %v", err)
	}
	for _, row := range rows {
		var date any
		if !row.RecordedAt.IsZero() {
			date = row.RecordedAt.Sub(appleEpoch).Seconds()
		}
		var memoPath any
		if row.Path != "" {
			memoPath = row.Path
		}
		if _, err := db.Exec(
			"INSERT INTO ZCLOUDRECORDING (ZUNIQUEID, ZPATH, ZDURATION, ZDATE, ZENCRYPTEDTITLE, ZAUDIODIGEST) VALUES (?, ?, ?, ?, ?, ?)",
			row.UniqueID, memoPath, row.Duration, date, row.Title, row.Digest,
		); err != nil {
			t.Fatalf("insert recording %s: %v", row.UniqueID, err)
		}
		if row.WriteAudio && row.Path != "" {
			WriteFile(t, filepath.Join(filepath.Dir(path), row.Path), 2048)
		}
	}
}
