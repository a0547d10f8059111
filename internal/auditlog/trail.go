package auditlog

import (
	"bufio"
	"encoding/json"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/cockroachdb/errors"

	"memoryatlas/internal/assets"
)

// TimestampLayout is the UTC layout of the ts key.
const TimestampLayout = "2006-01-02T15:04:05Z"

// Record is one line of the trail file.
type Record struct {
	Timestamp string         `json:"ts"`
	Command   string         `json:"cmd"`
	Action    string         `json:"act"`
	AssetID   string         `json:"id,omitempty"`
	Detail    map[string]any `json:"d,omitempty"`
	RunID     string         `json:"run,omitempty"`
}

// Trail appends audit records to a JSONL file. A nil Trail discards records.
type Trail struct {
	path string
	mu   sync.Mutex
	now  func() time.Time
}

// Open prepares a trail at path, creating its parent directory.
func Open(path string) (*Trail, error) {
	if path == "" {
		return nil, errors.New("audit trail path is required")
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, errors.Wrap(err, "create audit trail directory")
	}
	return &Trail{path: path, now: time.Now}, nil
}

// Path returns the trail file location.
func (t *Trail) Path() string {
	if t == nil {
		return ""
	}
	return t.path
}

// SetClock overrides the timestamp source. Intended for tests.
func (t *Trail) SetClock(now func() time.Time) {
	if t == nil || now == nil {
		return
	}
	t.mu.Lock()
	t.now = now
	t.mu.Unlock()
}

// Log appends one event attributed to origin.
func (t *Trail) Log(origin assets.Origin, action, assetID string, detail map[string]any) error {
	if t == nil {
		return nil
	}
	t.mu.Lock()
	defer t.mu.Unlock()

	rec := Record{
		Timestamp: t.now().UTC().Format(TimestampLayout),
		Command:   origin.Command,
		Action:    action,
		AssetID:   assetID,
		RunID:     origin.RunID,
	}
	if len(detail) > 0 {
		rec.Detail = detail
	}
	line, err := json.Marshal(rec)
	if err != nil {
		return errors.Wrap(err, "encode audit record")
	}
	line = append(line, '\n')

	f, err := os.OpenFile(t.path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return errors.Wrap(err, "open audit trail")
	}
	if _, err := f.Write(line); err != nil {
		_ = f.Close()
		return errors.Wrap(err, "append audit record")
	}
	return errors.Wrap(f.Close(), "close audit trail")
}

// ReadAll decodes every record in the trail at path. A missing file yields no
// records. Lines that fail to decode are skipped.
func ReadAll(path string) ([]Record, error) {
	f, err := os.Open(path)
	if errors.Is(err, os.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, errors.Wrap(err, "open audit trail")
	}
	defer f.Close()

	var records []Record
	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for scanner.Scan() {
		var rec Record
		if err := json.Unmarshal(scanner.Bytes(), &rec); err != nil {
			continue
		}
		records = append(records, rec)
	}
	if err := scanner.Err(); err != nil {
		return records, errors.Wrap(err, "read audit trail")
	}
	return records, nil
}
