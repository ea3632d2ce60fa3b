package supervisor

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	gogit "github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing/object"

	"github.com/bashhack/dura/internal/daemon"
	"github.com/bashhack/dura/internal/dconfig"
	"github.com/bashhack/dura/internal/events"
	"github.com/bashhack/dura/internal/metrics"
)

func initTestRepo(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	repo, err := gogit.PlainInit(dir, false)
	if err != nil {
		t.Fatalf("PlainInit failed: %v", err)
	}

	if err := os.WriteFile(filepath.Join(dir, "foo.txt"), []byte("v1\n"), 0o644); err != nil {
		t.Fatalf("WriteFile failed: %v", err)
	}

	wt, err := repo.Worktree()
	if err != nil {
		t.Fatalf("Worktree failed: %v", err)
	}
	if err := wt.AddWithOptions(&gogit.AddOptions{All: true}); err != nil {
		t.Fatalf("Add failed: %v", err)
	}
	if _, err := wt.Commit("initial", &gogit.CommitOptions{
		Author: &object.Signature{Name: "Test", Email: "test@example.com", When: time.Now()},
	}); err != nil {
		t.Fatalf("Commit failed: %v", err)
	}

	return dir
}

func TestDueAlwaysTrueWithoutPollingOverride(t *testing.T) {
	s := New(nil, events.NewDefault(), metrics.NewSink())
	if !s.due("/repo", &dconfig.RepoConfig{}, nil) {
		t.Error("expected a repo with no polling_seconds override to be due every tick")
	}
}

func TestDueRespectsPollingSecondsOverride(t *testing.T) {
	s := New(nil, events.NewDefault(), metrics.NewSink())
	seconds := 60
	cfg := &dconfig.RepoConfig{PollingSeconds: &seconds}

	if !s.due("/repo", cfg, nil) {
		t.Error("expected a repo never captured before to be due immediately")
	}

	s.lastCaptureAt["/repo"] = time.Now()
	if s.due("/repo", cfg, nil) {
		t.Error("expected a repo captured moments ago not to be due yet")
	}

	s.lastCaptureAt["/repo"] = time.Now().Add(-2 * time.Minute)
	if !s.due("/repo", cfg, nil) {
		t.Error("expected a repo past its polling interval to be due again")
	}
}

func TestDueAcceleratorDirtyBypassesOverride(t *testing.T) {
	s := New(nil, events.NewDefault(), metrics.NewSink())
	seconds := 3600
	cfg := &dconfig.RepoConfig{PollingSeconds: &seconds}

	s.lastCaptureAt["/repo"] = time.Now()
	dirty := map[string]bool{"/repo": true}

	if !s.due("/repo", cfg, dirty) {
		t.Error("expected the accelerator's dirty flag to force capture regardless of the polling override")
	}
}

func TestRunTickCapturesDueRepos(t *testing.T) {
	t.Setenv(dconfig.EnvConfigHome, t.TempDir())

	repoDir := initTestRepo(t)
	if err := os.WriteFile(filepath.Join(repoDir, "foo.txt"), []byte("v2\n"), 0o644); err != nil {
		t.Fatalf("WriteFile failed: %v", err)
	}

	store := dconfig.NewStoreAt(filepath.Join(t.TempDir(), "config.toml"))
	if _, err := store.Watch(repoDir); err != nil {
		t.Fatalf("Watch failed: %v", err)
	}

	var stdout, stderr bytes.Buffer
	logger := events.New(&stdout, &stderr)
	sink := metrics.NewSink()

	s := New(store, logger, sink)
	s.runTick()

	if stdout.Len() == 0 {
		t.Fatal("expected runTick to emit at least one event")
	}
	if sink.Snapshot().Count != 1 {
		t.Errorf("expected exactly one latency sample recorded, got %d", sink.Snapshot().Count)
	}

	statusPath, err := dconfig.StatusPath()
	if err != nil {
		t.Fatalf("StatusPath failed: %v", err)
	}
	snap, err := metrics.ReadSnapshotFile(statusPath)
	if err != nil {
		t.Fatalf("expected runTick to persist a status snapshot: %v", err)
	}
	if snap.Count != 1 {
		t.Errorf("expected the persisted snapshot to reflect the tick's sample, got count=%d", snap.Count)
	}
}

func TestRunTickIsolatesPerRepoFailures(t *testing.T) {
	t.Setenv(dconfig.EnvConfigHome, t.TempDir())

	store := dconfig.NewStoreAt(filepath.Join(t.TempDir(), "config.toml"))
	if _, err := store.Watch(t.TempDir()); err != nil { // not a git repo
		t.Fatalf("Watch failed: %v", err)
	}

	goodRepo := initTestRepo(t)
	if err := os.WriteFile(filepath.Join(goodRepo, "foo.txt"), []byte("v2\n"), 0o644); err != nil {
		t.Fatalf("WriteFile failed: %v", err)
	}
	if _, err := store.Watch(goodRepo); err != nil {
		t.Fatalf("Watch failed: %v", err)
	}

	var stdout, stderr bytes.Buffer
	logger := events.New(&stdout, &stderr)
	sink := metrics.NewSink()

	s := New(store, logger, sink)
	s.runTick()

	if sink.Snapshot().Count != 1 {
		t.Errorf("expected runTick to complete despite one failing repo, got %d latency samples", sink.Snapshot().Count)
	}
}

func TestRunStopsOnShutdownMarker(t *testing.T) {
	dir := t.TempDir()
	t.Setenv(dconfig.EnvConfigHome, dir)

	store := dconfig.NewStoreAt(filepath.Join(dir, dconfig.DocumentFilename))
	if err := daemon.RequestShutdown(); err != nil {
		t.Fatalf("RequestShutdown failed: %v", err)
	}

	s := New(store, events.NewDefault(), metrics.NewSink(), WithInterval(time.Hour))

	done := make(chan error, 1)
	go func() { done <- s.Run(context.Background()) }()

	select {
	case err := <-done:
		if err != nil {
			t.Errorf("expected clean shutdown, got error: %v", err)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("expected Run to observe the shutdown marker and return promptly")
	}
}

func TestRunRespectsContextCancellation(t *testing.T) {
	dir := t.TempDir()
	t.Setenv(dconfig.EnvConfigHome, dir)

	store := dconfig.NewStoreAt(filepath.Join(dir, dconfig.DocumentFilename))
	s := New(store, events.NewDefault(), metrics.NewSink(), WithInterval(10*time.Millisecond))

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- s.Run(ctx) }()

	time.Sleep(30 * time.Millisecond)
	cancel()

	select {
	case err := <-done:
		if err != context.Canceled {
			t.Errorf("expected context.Canceled, got %v", err)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("expected Run to return after context cancellation")
	}
}
