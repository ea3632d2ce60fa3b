package supervisor

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/bashhack/dura/internal/events"
)

func TestAcceleratorMarkAndDrain(t *testing.T) {
	a := newAccelerator(events.NewDefault())

	a.mark("/repo/a")
	a.mark("/repo/b")

	dirty := a.drain()
	if len(dirty) != 2 || !dirty["/repo/a"] || !dirty["/repo/b"] {
		t.Errorf("expected both marked repos in the drained set, got %v", dirty)
	}

	if again := a.drain(); len(again) != 0 {
		t.Errorf("expected drain to reset the dirty set, got %v", again)
	}
}

func TestAcceleratorSyncStartsAndStopsWatchers(t *testing.T) {
	a := newAccelerator(events.NewDefault())
	repoDir := t.TempDir()

	a.sync([]string{repoDir}, map[string]*int{repoDir: nil})

	a.mu.Lock()
	_, watching := a.watchers[repoDir]
	a.mu.Unlock()
	if !watching {
		t.Fatal("expected sync to start a watcher for a newly configured repo")
	}

	a.sync([]string{}, map[string]*int{})

	a.mu.Lock()
	_, stillWatching := a.watchers[repoDir]
	a.mu.Unlock()
	if stillWatching {
		t.Error("expected sync to stop the watcher for a repo no longer configured")
	}
}

func TestAcceleratorDetectsFileChanges(t *testing.T) {
	a := newAccelerator(events.NewDefault())
	repoDir := t.TempDir()

	a.startWatching(repoDir, nil)
	defer a.Close()

	path := filepath.Join(repoDir, "touched.txt")
	if err := os.WriteFile(path, []byte("hello"), 0o644); err != nil {
		t.Fatalf("failed to write fixture file: %v", err)
	}

	deadline := time.After(2 * time.Second)
	for {
		select {
		case <-deadline:
			t.Fatal("expected the accelerator to observe the new file within the deadline")
		default:
			if dirty := a.drain(); dirty[repoDir] {
				return
			}
			time.Sleep(10 * time.Millisecond)
		}
	}
}

func TestIsGitInternalPath(t *testing.T) {
	cases := map[string]bool{
		filepath.Join("/repo", ".git", "index"):         true,
		filepath.Join("/repo", ".git"):                  true,
		filepath.Join("/repo", "src", "main.go"):        false,
		filepath.Join("/repo", "gitignore-but-not-dot"): false,
	}
	for path, want := range cases {
		if got := isGitInternalPath(path); got != want {
			t.Errorf("isGitInternalPath(%q) = %v, want %v", path, got, want)
		}
	}
}
