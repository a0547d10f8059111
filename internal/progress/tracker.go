package progress

import (
	"sync"
	"time"
)

// Snapshot is the batch position after a record finished.
type Snapshot struct {
	Done             int
	Total            int
	ProcessedSeconds float64
	TotalSeconds     float64
	Elapsed          time.Duration
	// ETA is zero until enough audio has been processed to estimate a rate.
	ETA time.Duration
}

// Percent returns the share of audio processed, 0 to 100.
func (s Snapshot) Percent() float64 {
	if s.TotalSeconds <= 0 {
		if s.Total == 0 {
			return 0
		}
		return float64(s.Done) * 100 / float64(s.Total)
	}
	pct := s.ProcessedSeconds * 100 / s.TotalSeconds
	if pct > 100 {
		return 100
	}
	return pct
}

// Tracker estimates remaining time from cumulative audio seconds processed
// against elapsed wall time.
type Tracker struct {
	mu        sync.Mutex
	total     int
	totalSec  float64
	done      int
	processed float64
	start     time.Time
	now       func() time.Time
}

// NewTracker starts a tracker for total records holding totalSeconds of audio.
func NewTracker(total int, totalSeconds float64) *Tracker {
	return NewTrackerWithClock(total, totalSeconds, time.Now)
}

// NewTrackerWithClock is NewTracker with an injectable clock.
func NewTrackerWithClock(total int, totalSeconds float64, now func() time.Time) *Tracker {
	if now == nil {
		now = time.Now
	}
	return &Tracker{total: total, totalSec: totalSeconds, start: now(), now: now}
}

// Advance records one finished record of the given audio length.
func (t *Tracker) Advance(seconds float64) Snapshot {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.done++
	if seconds > 0 {
		t.processed += seconds
	}
	return t.snapshotLocked()
}

// Snapshot returns the current position without advancing.
func (t *Tracker) Snapshot() Snapshot {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.snapshotLocked()
}

func (t *Tracker) snapshotLocked() Snapshot {
	elapsed := t.now().Sub(t.start)
	snap := Snapshot{
		Done:             t.done,
		Total:            t.total,
		ProcessedSeconds: t.processed,
		TotalSeconds:     t.totalSec,
		Elapsed:          elapsed,
	}
	remaining := t.totalSec - t.processed
	if t.processed > 0 && remaining > 0 && elapsed > 0 {
		rate := elapsed.Seconds() / t.processed
		snap.ETA = time.Duration(remaining * rate * float64(time.Second)).Round(time.Second)
	}
	return snap
}

// FormatDuration renders d as "1h02m", "3m05s" or "42s".
func FormatDuration(d time.Duration) string {
	d = d.Round(time.Second)
	switch {
	case d >= time.Hour:
		h := int(d.Hours())
		m := int(d.Minutes()) % 60
		return itoa(h) + "h" + pad2(m) + "m"
	case d >= time.Minute:
		m := int(d.Minutes())
		s := int(d.Seconds()) % 60
		return itoa(m) + "m" + pad2(s) + "s"
	default:
		return itoa(int(d.Seconds())) + "s"
	}
}
