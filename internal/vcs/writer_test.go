package vcs

import (
	"testing"

	"github.com/go-git/go-git/v5/plumbing"

	internalErrors "github.com/bashhack/dura/internal/errors"
)

func TestWriteCaptureDetectsRefConflict(t *testing.T) {
	dir, repo := initRepo(t)
	writeFile(t, dir, "foo.txt", "v1\n")
	commitAll(t, repo, "initial")

	writeFile(t, dir, "foo.txt", "v2\n")
	plan, err := PlanCapture(dir, PlanConfig{})
	if err != nil || plan == nil {
		t.Fatalf("PlanCapture failed: plan=%v err=%v", plan, err)
	}

	// Simulate a sibling process racing us: someone else captures first,
	// moving the side branch ref out from under our stale plan.
	if _, err := WriteCapture(plan); err != nil {
		t.Fatalf("first WriteCapture failed: %v", err)
	}

	if _, err := WriteCapture(plan); err == nil {
		t.Fatal("expected a stale plan's second write to be rejected as a ref conflict")
	} else if !internalErrors.Is(err, internalErrors.ErrRefConflict) {
		t.Errorf("expected ErrRefConflict, got %v", err)
	}
}

func TestWriteCaptureProducesFastForwardableRef(t *testing.T) {
	dir, repo := initRepo(t)
	writeFile(t, dir, "foo.txt", "v1\n")
	commitAll(t, repo, "initial")

	writeFile(t, dir, "foo.txt", "v2\n")
	plan, err := PlanCapture(dir, PlanConfig{})
	if err != nil || plan == nil {
		t.Fatalf("PlanCapture failed: plan=%v err=%v", plan, err)
	}

	commitHash, err := WriteCapture(plan)
	if err != nil {
		t.Fatalf("WriteCapture failed: %v", err)
	}

	ref, err := repo.Reference(plan.BranchRefName(), true)
	if err != nil {
		t.Fatalf("expected branch ref to exist: %v", err)
	}
	if ref.Hash() != commitHash {
		t.Errorf("expected ref to point at %s, got %s", commitHash, ref.Hash())
	}
	if ref.Hash() == plumbing.ZeroHash {
		t.Error("expected a non-zero commit hash")
	}
}
