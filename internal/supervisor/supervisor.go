package supervisor

import (
	"context"
	"time"

	"github.com/bashhack/dura/internal/daemon"
	"github.com/bashhack/dura/internal/dconfig"
	"github.com/bashhack/dura/internal/events"
	"github.com/bashhack/dura/internal/metrics"
	"github.com/bashhack/dura/internal/vcs"

	internalErrors "github.com/bashhack/dura/internal/errors"
)

// DefaultInterval is the fixed tick cadence of spec §4.5 absent any
// per-repo polling_seconds override.
const DefaultInterval = 5 * time.Second

// Supervisor runs the single-daemon, multi-repo tick loop.
type Supervisor struct {
	store    *dconfig.Store
	logger   *events.Logger
	sink     *metrics.Sink
	accel    *accelerator
	interval time.Duration

	lastCaptureAt map[string]time.Time
}

// Option configures a Supervisor at construction time.
type Option func(*Supervisor)

// WithInterval overrides the default 5-second tick cadence. Primarily for tests.
func WithInterval(d time.Duration) Option {
	return func(s *Supervisor) { s.interval = d }
}

// WithAccelerator enables the fsnotify-based accelerator described in spec §9.
func WithAccelerator() Option {
	return func(s *Supervisor) { s.accel = newAccelerator(s.logger) }
}

// New creates a Supervisor over store, emitting events through logger and
// recording tick latencies in sink.
func New(store *dconfig.Store, logger *events.Logger, sink *metrics.Sink, opts ...Option) *Supervisor {
	s := &Supervisor{
		store:         store,
		logger:        logger,
		sink:          sink,
		interval:      DefaultInterval,
		lastCaptureAt: map[string]time.Time{},
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Run executes the tick loop until ctx is canceled or the shutdown marker
// file is observed at the top of a tick. Cancellation is only checked at
// tick boundaries (the inter-tick sleep); it never interrupts a capture
// already in flight, matching spec §5's suspension-point model.
func (s *Supervisor) Run(ctx context.Context) error {
	if s.accel != nil {
		defer s.accel.Close()
	}

	for {
		shutdown, err := daemon.ShutdownRequested()
		if err != nil {
			s.logger.Error("failed to check shutdown marker: %v", err)
		} else if shutdown {
			return daemon.Release(s.store)
		}

		s.runTick()

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(s.interval):
		}
	}
}

// runTick implements one pass of spec §4.5: reload the document, iterate
// watched repos in deterministic order, capture the ones that are due, and
// record the tick's wall-clock latency. A per-repo failure is logged and
// never aborts the remaining repos in this tick.
func (s *Supervisor) runTick() {
	doc, err := s.store.Load()
	if err != nil {
		s.logger.Error("failed to load configuration: %v", err)
		return
	}

	repoPaths := doc.SortedRepoPaths()

	if s.accel != nil {
		maxDepth := make(map[string]*int, len(repoPaths))
		for _, p := range repoPaths {
			maxDepth[p] = doc.Repos[p].MaxDepth
		}
		s.accel.sync(repoPaths, maxDepth)
	}

	var dirty map[string]bool
	if s.accel != nil {
		dirty = s.accel.drain()
	}

	t0 := time.Now()

	for _, repoPath := range repoPaths {
		repoCfg := doc.Repos[repoPath]
		if !s.due(repoPath, repoCfg, dirty) {
			continue
		}
		s.captureOne(repoPath, repoCfg, doc)
		s.lastCaptureAt[repoPath] = time.Now()
	}

	s.sink.Record(time.Since(t0))
	s.persistStatus()
}

// persistStatus writes the latency sink's current snapshot to the status
// file a sibling `status` invocation reads, the filesystem IPC path for
// metrics that otherwise live only in this process's memory. A write
// failure is logged and never aborts the tick loop; status reporting is
// strictly best-effort.
func (s *Supervisor) persistStatus() {
	path, err := dconfig.StatusPath()
	if err != nil {
		s.logger.Warn("failed to resolve status path: %v", err)
		return
	}
	if err := metrics.WriteSnapshotFile(path, s.sink.Snapshot()); err != nil {
		s.logger.Warn("failed to persist status snapshot: %v", err)
	}
}

// due reports whether repoPath should be captured this tick: always true
// absent a polling_seconds override, true if the accelerator marked it
// dirty, and otherwise true only once its override interval has elapsed.
func (s *Supervisor) due(repoPath string, cfg *dconfig.RepoConfig, dirty map[string]bool) bool {
	if cfg.PollingSeconds == nil {
		return true
	}
	if dirty != nil && dirty[repoPath] {
		return true
	}
	last, ok := s.lastCaptureAt[repoPath]
	if !ok {
		return true
	}
	return time.Since(last) >= time.Duration(*cfg.PollingSeconds)*time.Second
}

// captureOne runs the capture engine against one repo and emits the
// resulting SnapshotEvent, isolating any error from the rest of the tick.
func (s *Supervisor) captureOne(repoPath string, repoCfg *dconfig.RepoConfig, doc *dconfig.Document) {
	start := time.Now()
	cfg := planConfig(repoCfg, doc)

	result, err := vcs.Capture(repoPath, cfg)
	elapsed := time.Since(start)

	if err != nil {
		s.logger.Warn("capture failed for %s: %v", repoPath, err)
		s.logger.Emit(events.SnapshotEvent{
			Time:          start,
			Repo:          repoPath,
			Outcome:       events.OutcomeError,
			ErrorKind:     errorKind(err),
			ElapsedMicros: elapsed.Microseconds(),
		})
		return
	}

	if result == nil {
		s.logger.Emit(events.SnapshotEvent{
			Time:          start,
			Repo:          repoPath,
			Outcome:       events.OutcomeNothing,
			ElapsedMicros: elapsed.Microseconds(),
		})
		return
	}

	s.logger.Emit(events.SnapshotEvent{
		Time:          start,
		Repo:          repoPath,
		Outcome:       events.OutcomeCaptured,
		Branch:        result.Branch,
		CommitHash:    result.CommitHash.String(),
		BaseHash:      result.BaseHash.String(),
		ElapsedMicros: elapsed.Microseconds(),
	})
}

// planConfig merges the document's global commit-identity settings with one
// repo's include/exclude/max_depth overrides into the vcs.PlanConfig shape
// the capture engine expects.
func planConfig(repoCfg *dconfig.RepoConfig, doc *dconfig.Document) vcs.PlanConfig {
	return vcs.PlanConfig{
		Include:                repoCfg.Include,
		Exclude:                repoCfg.Exclude,
		MaxDepth:               repoCfg.MaxDepth,
		CommitAuthor:           doc.CommitAuthor,
		CommitEmail:            doc.CommitEmail,
		CommitExcludeGitConfig: doc.CommitExcludeGitConfig,
	}
}

// errorKind reduces err to a short machine-readable tag for the event stream.
func errorKind(err error) string {
	var repoErr *internalErrors.RepoError
	if internalErrors.As(err, &repoErr) {
		switch {
		case internalErrors.Is(repoErr.Err, internalErrors.ErrNotRepository):
			return "not_a_repository"
		case internalErrors.Is(repoErr.Err, internalErrors.ErrBareRepository):
			return "bare_repository"
		default:
			return "repo_error"
		}
	}

	var writeErr *internalErrors.VCSWriteError
	if internalErrors.As(err, &writeErr) {
		return "write_failed"
	}

	return "unknown"
}
