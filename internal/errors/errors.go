// Package errors centralizes the error vocabulary used across dura.
//
// It mirrors the standard library's errors/fmt idioms (sentinel errors,
// %w wrapping, typed errors with Unwrap) rather than introducing a
// third-party error package, since nothing in the capture/supervisor
// path needs stack traces or multierror aggregation beyond what
// errors.Join already provides.
package errors

import (
	"errors"
	"fmt"
)

// Sentinel errors usable with errors.Is for coarse-grained error-kind checks.
var (
	// ErrNotRepository indicates the target path is not a Git working copy.
	ErrNotRepository = errors.New("not a git repository")

	// ErrBareRepository indicates the target path is a bare repository, which
	// has no working tree and therefore nothing for the capture engine to observe.
	ErrBareRepository = errors.New("repository is bare")

	// ErrUnbornHead indicates HEAD has no commits yet; there is no parent to
	// anchor a side branch on.
	ErrUnbornHead = errors.New("HEAD is unborn")

	// ErrAlreadyRunning indicates another dura daemon is already running for this user.
	ErrAlreadyRunning = errors.New("a dura daemon is already running")

	// ErrRefConflict indicates a ref compare-and-swap failed because the side
	// branch moved between planning and writing.
	ErrRefConflict = errors.New("side branch ref changed during capture")

	// ErrInvalidConfiguration indicates a malformed or conflicting configuration document.
	ErrInvalidConfiguration = errors.New("invalid configuration")
)

// New creates a new error with the given message.
func New(message string) error {
	return errors.New(message)
}

// Errorf creates a new formatted error.
func Errorf(format string, args ...interface{}) error {
	return fmt.Errorf(format, args...)
}

// Wrap wraps an error with a message for additional context.
func Wrap(err error, message string) error {
	return fmt.Errorf("%s: %w", message, err)
}

// Wrapf wraps an error with a formatted message for additional context.
func Wrapf(err error, format string, args ...interface{}) error {
	return fmt.Errorf("%s: %w", fmt.Sprintf(format, args...), err)
}

// Is reports whether target is in err's chain.
func Is(err, target error) bool {
	return errors.Is(err, target)
}

// As finds the first error in err's chain that matches target.
func As(err error, target any) bool {
	return errors.As(err, target)
}

// RepoError represents a per-repository failure encountered while planning or
// capturing a snapshot. It is always non-fatal to the supervisor loop.
type RepoError struct {
	RepoPath string
	Err      error
}

func (e *RepoError) Error() string {
	return fmt.Sprintf("repo %s: %v", e.RepoPath, e.Err)
}

func (e *RepoError) Unwrap() error { return e.Err }

// NewRepoError creates a RepoError for the given repository path.
func NewRepoError(repoPath string, err error) *RepoError {
	return &RepoError{RepoPath: repoPath, Err: err}
}

// VCSWriteError represents a failure writing objects or a ref during capture.
type VCSWriteError struct {
	RepoPath string
	Branch   string
	Err      error
}

func (e *VCSWriteError) Error() string {
	return fmt.Sprintf("write to %s on %s failed: %v", e.RepoPath, e.Branch, e.Err)
}

func (e *VCSWriteError) Unwrap() error { return e.Err }

// NewVCSWriteError creates a VCSWriteError.
func NewVCSWriteError(repoPath, branch string, err error) *VCSWriteError {
	return &VCSWriteError{RepoPath: repoPath, Branch: branch, Err: err}
}

// ConfigError represents an error in the persisted configuration document.
type ConfigError struct {
	Path string
	Err  error
}

func (e *ConfigError) Error() string {
	return fmt.Sprintf("config %s: %v", e.Path, e.Err)
}

func (e *ConfigError) Unwrap() error { return e.Err }

// NewConfigError creates a ConfigError for the given config file path.
func NewConfigError(path string, err error) *ConfigError {
	return &ConfigError{Path: path, Err: err}
}

// SingletonConflictError indicates another daemon already owns the pid slot.
type SingletonConflictError struct {
	PID int
}

func (e *SingletonConflictError) Error() string {
	return fmt.Sprintf("dura is already running as pid %d", e.PID)
}

func (e *SingletonConflictError) Unwrap() error { return ErrAlreadyRunning }

// NewSingletonConflictError creates a SingletonConflictError for the given pid.
func NewSingletonConflictError(pid int) *SingletonConflictError {
	return &SingletonConflictError{PID: pid}
}
