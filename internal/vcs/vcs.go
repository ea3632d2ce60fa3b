package vcs

import (
	gogit "github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing"

	internalErrors "github.com/bashhack/dura/internal/errors"
)

// CaptureResult describes the outcome of one successful capture, for the
// structured event a caller logs.
type CaptureResult struct {
	RepoPath   string
	Branch     string
	CommitHash plumbing.Hash
	BaseHash   plumbing.Hash
}

// IsRepository reports whether path is a Git working copy go-git can open.
func IsRepository(path string) bool {
	_, err := gogit.PlainOpen(path)
	return err == nil
}

// Capture runs plan-then-write against one repository, returning nil when
// there is nothing to capture. This is the single entry point the
// supervisor loop and the `dura capture` verb both call.
func Capture(repoPath string, cfg PlanConfig) (*CaptureResult, error) {
	plan, err := PlanCapture(repoPath, cfg)
	if err != nil {
		return nil, err
	}
	if plan == nil {
		return nil, nil
	}

	commitHash, err := WriteCapture(plan)
	if err != nil {
		if internalErrors.Is(err, internalErrors.ErrRefConflict) {
			// The branch moved under us; the next tick will replan against
			// its new tip rather than fight over this one.
			return nil, nil
		}
		return nil, err
	}

	return &CaptureResult{
		RepoPath:   plan.RepoPath,
		Branch:     plan.Branch,
		CommitHash: commitHash,
		BaseHash:   plan.HeadHash,
	}, nil
}
