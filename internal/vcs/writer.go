package vcs

import (
	"time"

	"github.com/go-git/go-git/v5/plumbing"
	"github.com/go-git/go-git/v5/plumbing/object"

	internalErrors "github.com/bashhack/dura/internal/errors"
)

// WriteCapture implements spec §4.4: build the commit object for plan and
// compare-and-swap the side branch ref to point at it. HEAD, the index, and
// the working tree are never touched — the only ref this function ever
// writes is plan.BranchRefName().
//
// If the ref has moved since PlanCapture observed it (another process raced
// this capture, or the daemon retried after a partial failure with a stale
// plan), the compare-and-swap fails and WriteCapture returns ErrRefConflict;
// callers should simply let the next tick replan rather than retry inline.
func WriteCapture(plan *Plan) (plumbing.Hash, error) {
	now := time.Now()
	sig := object.Signature{
		Name:  plan.Author.Name,
		Email: plan.Author.Email,
		When:  now,
	}

	commit := &object.Commit{
		Author:       sig,
		Committer:    sig,
		Message:      plan.Message,
		TreeHash:     plan.TreeHash,
		ParentHashes: []plumbing.Hash{plan.ParentHash},
	}

	obj := plan.repo.Storer.NewEncodedObject()
	if err := commit.Encode(obj); err != nil {
		return plumbing.ZeroHash, internalErrors.NewVCSWriteError(plan.RepoPath, plan.Branch, err)
	}

	commitHash, err := plan.repo.Storer.SetEncodedObject(obj)
	if err != nil {
		return plumbing.ZeroHash, internalErrors.NewVCSWriteError(plan.RepoPath, plan.Branch, err)
	}

	refName := plan.BranchRefName()
	newRef := plumbing.NewHashReference(refName, commitHash)

	var oldRef *plumbing.Reference
	if existing, err := plan.repo.Reference(refName, true); err == nil {
		if existing.Hash() != plan.ParentHash {
			return plumbing.ZeroHash, internalErrors.Wrap(internalErrors.ErrRefConflict, plan.Branch)
		}
		oldRef = existing
	} else if plan.ParentHash != plan.HeadHash {
		// The branch existed when we planned but has disappeared since.
		return plumbing.ZeroHash, internalErrors.Wrap(internalErrors.ErrRefConflict, plan.Branch)
	}

	if err := plan.repo.Storer.CheckAndSetReference(newRef, oldRef); err != nil {
		return plumbing.ZeroHash, internalErrors.NewVCSWriteError(plan.RepoPath, plan.Branch, err)
	}

	return commitHash, nil
}
