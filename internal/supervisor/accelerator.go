package supervisor

import (
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/fsnotify/fsnotify"

	"github.com/bashhack/dura/internal/events"
)

// accelerator watches the filesystem under each configured repo and marks it
// dirty on any change, so the next tick captures it regardless of how much of
// its polling_seconds window remains. A watcher it cannot start for some repo
// just leaves that repo on plain polling; nothing here is load-bearing for
// correctness.
type accelerator struct {
	logger *events.Logger

	mu       sync.Mutex
	dirty    map[string]bool
	watchers map[string]*fsnotify.Watcher
}

func newAccelerator(logger *events.Logger) *accelerator {
	return &accelerator{
		logger:   logger,
		dirty:    map[string]bool{},
		watchers: map[string]*fsnotify.Watcher{},
	}
}

// sync starts watchers for newly configured repos and tears down watchers for
// repos no longer present in the document.
func (a *accelerator) sync(repoPaths []string, maxDepth map[string]*int) {
	want := make(map[string]bool, len(repoPaths))
	for _, p := range repoPaths {
		want[p] = true
	}

	a.mu.Lock()
	for p, w := range a.watchers {
		if !want[p] {
			w.Close()
			delete(a.watchers, p)
			delete(a.dirty, p)
		}
	}
	a.mu.Unlock()

	for _, p := range repoPaths {
		a.mu.Lock()
		_, watching := a.watchers[p]
		a.mu.Unlock()
		if watching {
			continue
		}
		a.startWatching(p, maxDepth[p])
	}
}

func (a *accelerator) startWatching(repoPath string, maxDepth *int) {
	w, err := fsnotify.NewWatcher()
	if err != nil {
		a.logger.Warn("fsnotify unavailable for %s, falling back to plain polling: %v", repoPath, err)
		return
	}

	if err := addTreeRecursive(w, repoPath, maxDepth); err != nil {
		a.logger.Warn("fsnotify failed to watch %s, falling back to plain polling: %v", repoPath, err)
		w.Close()
		return
	}

	a.mu.Lock()
	a.watchers[repoPath] = w
	a.mu.Unlock()

	go a.pump(repoPath, w)
}

func (a *accelerator) pump(repoPath string, w *fsnotify.Watcher) {
	for {
		select {
		case ev, ok := <-w.Events:
			if !ok {
				return
			}
			if isGitInternalPath(ev.Name) {
				continue
			}
			a.mark(repoPath)
		case err, ok := <-w.Errors:
			if !ok {
				return
			}
			a.logger.Warn("fsnotify error watching %s: %v", repoPath, err)
		}
	}
}

func (a *accelerator) mark(repoPath string) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.dirty[repoPath] = true
}

// drain returns the set of repos marked dirty since the last drain and
// resets it.
func (a *accelerator) drain() map[string]bool {
	a.mu.Lock()
	defer a.mu.Unlock()
	out := a.dirty
	a.dirty = map[string]bool{}
	return out
}

// Close stops every watcher. Safe to call once at shutdown.
func (a *accelerator) Close() {
	a.mu.Lock()
	defer a.mu.Unlock()
	for p, w := range a.watchers {
		w.Close()
		delete(a.watchers, p)
	}
}

func addTreeRecursive(w *fsnotify.Watcher, root string, maxDepth *int) error {
	return filepath.WalkDir(root, func(path string, d os.DirEntry, err error) error {
		if err != nil {
			return nil
		}
		if !d.IsDir() {
			return nil
		}
		if d.Name() == ".git" {
			return filepath.SkipDir
		}
		if maxDepth != nil {
			rel, relErr := filepath.Rel(root, path)
			if relErr == nil && rel != "." {
				depth := strings.Count(filepath.ToSlash(rel), "/") + 1
				if depth > *maxDepth {
					return filepath.SkipDir
				}
			}
		}
		return w.Add(path)
	})
}

func isGitInternalPath(name string) bool {
	sep := string(filepath.Separator)
	return strings.Contains(name, sep+".git"+sep) || strings.HasSuffix(name, sep+".git")
}
