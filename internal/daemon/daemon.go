package daemon

import (
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"syscall"

	"github.com/bashhack/dura/internal/dconfig"
	internalErrors "github.com/bashhack/dura/internal/errors"
)

// Acquire implements spec §4.6's startup sequence: read the pid field, and
// if it names a live process that looks like this program, refuse to start
// a second daemon. Otherwise claim the slot for the current process.
func Acquire(store *dconfig.Store) error {
	doc, err := store.Load()
	if err != nil {
		return err
	}

	if doc.PID != nil && isRunningDura(*doc.PID) {
		return internalErrors.NewSingletonConflictError(*doc.PID)
	}

	pid := os.Getpid()
	return store.SetPID(&pid)
}

// isRunningDura reports whether pid names a live process whose executable
// looks like this program, guarding against a stale pid that has since been
// recycled by an unrelated process.
func isRunningDura(pid int) bool {
	if !isProcessRunning(pid) {
		return false
	}

	// Executable-name matching is Linux-specific (/proc); other platforms
	// fall back to liveness alone, same as gitbak's admission that it only
	// fully supports Unix-like hosts.
	if runtime.GOOS != "linux" {
		return true
	}

	target, err := os.Readlink(fmt.Sprintf("/proc/%d/exe", pid))
	if err != nil {
		// Can't introspect it (permissions, already exited); assume it's
		// still the daemon rather than risk a double-start.
		return true
	}

	self, err := os.Executable()
	if err != nil {
		return true
	}

	return filepath.Base(target) == filepath.Base(self)
}

// isProcessRunning checks for process liveness using signal 0, the same
// technique gitbak's internal/lock.isProcessRunning uses.
func isProcessRunning(pid int) bool {
	process, err := os.FindProcess(pid)
	if err != nil {
		return false
	}
	return process.Signal(syscall.Signal(0)) == nil
}

// RequestShutdown implements the `kill` verb: write the shutdown marker
// file. It never errors on "no daemon running" — the verb is defined to
// exit 0 either way (spec §6).
func RequestShutdown() error {
	path, err := dconfig.ShutdownPath()
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return internalErrors.Wrap(err, "failed to create runtime directory")
	}
	return os.WriteFile(path, []byte{}, 0o644)
}

// ShutdownRequested reports whether the shutdown marker file is present.
func ShutdownRequested() (bool, error) {
	path, err := dconfig.ShutdownPath()
	if err != nil {
		return false, err
	}
	_, err = os.Stat(path)
	if err == nil {
		return true, nil
	}
	if os.IsNotExist(err) {
		return false, nil
	}
	return false, err
}

// Release implements the daemon side of shutdown: remove the marker file
// and clear the pid field, tolerating a marker that is already gone (a
// sibling `kill` could theoretically race another shutdown path).
func Release(store *dconfig.Store) error {
	path, err := dconfig.ShutdownPath()
	if err != nil {
		return err
	}
	if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
		return internalErrors.Wrap(err, "failed to remove shutdown marker")
	}
	return store.SetPID(nil)
}
