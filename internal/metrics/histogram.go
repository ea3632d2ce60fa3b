// Package metrics implements the status/metrics sink (spec §4.7): an
// in-memory, high-dynamic-range histogram of per-tick latencies. The
// histogram itself never survives a restart, but its snapshot is written
// to disk each tick so the status verb, running in a separate process, can
// read it.
package metrics

import (
	"encoding/json"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/HdrHistogram/hdrhistogram-go"
)

const (
	minLatencyMicros int64 = 1
	maxLatencyMicros int64 = 3_600_000_000 // 1 hour, in microseconds
	sigFigs          int   = 3
)

// Sink accumulates tick-duration samples and serves a read-only snapshot.
type Sink struct {
	mu   sync.Mutex
	hist *hdrhistogram.Histogram
}

// NewSink creates an empty Sink covering [1µs, 1h] at 3 significant figures.
func NewSink() *Sink {
	return &Sink{hist: hdrhistogram.New(minLatencyMicros, maxLatencyMicros, sigFigs)}
}

// Record adds one tick-duration sample. Durations outside the histogram's
// range are clamped to the nearest bound rather than dropped, so a single
// pathological tick never silently vanishes from the summary.
func (s *Sink) Record(d time.Duration) {
	micros := d.Microseconds()
	if micros < minLatencyMicros {
		micros = minLatencyMicros
	}
	if micros > maxLatencyMicros {
		micros = maxLatencyMicros
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	_ = s.hist.RecordValue(micros)
}

// Snapshot is a read-only view of the histogram at the moment it was taken.
type Snapshot struct {
	Count int64
	Min   int64
	Max   int64
	Mean  float64
	P50   int64
	P90   int64
	P99   int64
}

// Snapshot returns the current distribution of recorded tick latencies, in microseconds.
func (s *Sink) Snapshot() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()

	return Snapshot{
		Count: s.hist.TotalCount(),
		Min:   s.hist.Min(),
		Max:   s.hist.Max(),
		Mean:  s.hist.Mean(),
		P50:   s.hist.ValueAtQuantile(50.0),
		P90:   s.hist.ValueAtQuantile(90.0),
		P99:   s.hist.ValueAtQuantile(99.0),
	}
}

// WriteSnapshotFile atomically persists snap as JSON at path, the daemon's
// side of the filesystem IPC a sibling `status` invocation reads from. The
// write follows the same tmp-then-rename discipline as the configuration
// document, so a reader never observes a partial file.
func WriteSnapshotFile(path string, snap Snapshot) error {
	data, err := json.Marshal(snap)
	if err != nil {
		return err
	}

	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}

	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return err
	}
	return os.Rename(tmp, path)
}

// ReadSnapshotFile reads a snapshot previously written by WriteSnapshotFile.
// A missing file (no tick has run yet, or no daemon has ever run) is
// reported via os.IsNotExist on the returned error rather than a distinct
// sentinel, so callers can use the standard check.
func ReadSnapshotFile(path string) (Snapshot, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Snapshot{}, err
	}
	var snap Snapshot
	if err := json.Unmarshal(data, &snap); err != nil {
		return Snapshot{}, err
	}
	return snap, nil
}
