package assets

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/jmoiron/sqlx"
	_ "modernc.org/sqlite"
)

const driverName = "sqlite"

// Store manages asset persistence backed by SQLite.
type Store struct {
	db   *sqlx.DB
	path string
	now  func() time.Time
}

// Open initializes or connects to the asset database at path.
func Open(path string) (*Store, error) {
	if path == "" {
		return nil, errors.New("asset database path is required")
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("ensure database directory: %w", err)
	}

	db, err := sqlx.Open(driverName, path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite db: %w", err)
	}
	// A single connection keeps every transaction serialised in-process.
	db.SetMaxOpenConns(1)

	pragmas := []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA foreign_keys = ON",
		"PRAGMA busy_timeout = 5000",
	}
	for _, pragma := range pragmas {
		if _, execErr := db.Exec(pragma); execErr != nil {
			_ = db.Close()
			return nil, fmt.Errorf("apply pragma %q: %w", pragma, execErr)
		}
	}

	store := &Store{db: db, path: path, now: time.Now}
	if err := store.initSchema(context.Background()); err != nil {
		_ = db.Close()
		return nil, err
	}

	return store, nil
}

// NewWithDB wraps an existing connection without touching the schema. It is
// used with drivers that cannot run the embedded schema, such as SQL mocks.
func NewWithDB(db *sql.DB) *Store {
	return &Store{db: sqlx.NewDb(db, driverName), now: time.Now}
}

// SetClock overrides the wall clock used for timestamps.
func (s *Store) SetClock(now func() time.Time) {
	if now == nil {
		now = time.Now
	}
	s.now = now
}

// Path returns the database file path.
func (s *Store) Path() string {
	return s.path
}

// Close closes the underlying database connection.
func (s *Store) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

// CheckHealth inspects the database file, schema, and integrity.
func (s *Store) CheckHealth(ctx context.Context) (DatabaseHealth, error) {
	health := DatabaseHealth{DBPath: s.path}

	if s.path == "" {
		return health, errors.New("asset database path is unknown")
	}
	info, err := os.Stat(s.path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return health, nil
		}
		return health, fmt.Errorf("stat asset database: %w", err)
	}
	if info.IsDir() {
		return health, fmt.Errorf("asset database path %q is a directory", s.path)
	}
	health.DatabaseExists = true

	connCtx, cancel := context.WithTimeout(ensureContext(ctx), 2*time.Second)
	defer cancel()

	if err := s.db.GetContext(connCtx, &health.SchemaVersion, "SELECT version FROM schema_version LIMIT 1"); err != nil {
		health.Error = err.Error()
		return health, fmt.Errorf("read schema version: %w", err)
	}

	var columns []struct {
		CID     int            `db:"cid"`
		Name    string         `db:"name"`
		Type    string         `db:"type"`
		NotNull int            `db:"notnull"`
		Default sql.NullString `db:"dflt_value"`
		PK      int            `db:"pk"`
	}
	if err := s.db.SelectContext(connCtx, &columns, "PRAGMA table_info(asset)"); err != nil {
		health.Error = err.Error()
		return health, fmt.Errorf("table info: %w", err)
	}
	present := make([]string, 0, len(columns))
	for _, col := range columns {
		present = append(present, col.Name)
	}
	for _, name := range requiredColumns {
		if !slices.Contains(present, name) {
			health.MissingColumns = append(health.MissingColumns, name)
		}
	}

	var integrity string
	if err := s.db.GetContext(connCtx, &integrity, "PRAGMA integrity_check"); err != nil {
		health.Error = err.Error()
		return health, fmt.Errorf("integrity check: %w", err)
	}
	health.IntegrityCheck = integrity == "ok"

	if len(health.MissingColumns) == 0 {
		if err := s.db.GetContext(connCtx, &health.TotalAssets, "SELECT COUNT(*) FROM asset"); err != nil {
			health.Error = err.Error()
			return health, fmt.Errorf("count assets: %w", err)
		}
	}
	return health, nil
}
