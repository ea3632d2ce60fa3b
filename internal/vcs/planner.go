package vcs

import (
	"errors"
	"os"
	"path/filepath"

	gogit "github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/config"
	"github.com/go-git/go-git/v5/plumbing"
	"github.com/go-git/go-git/v5/plumbing/filemode"
	"github.com/go-git/go-git/v5/plumbing/object"
	"github.com/go-git/go-git/v5/plumbing/storer"

	internalErrors "github.com/bashhack/dura/internal/errors"
)

// CommitMessage is the fixed message every capture commit carries.
const CommitMessage = "dura auto-backup"

// SentinelName and SentinelEmail are used when commit_exclude_git_config is
// set and no explicit commit_author/commit_email override is configured.
const (
	SentinelName  = "dura"
	SentinelEmail = "dura@github.io"
)

// Identity is the author/committer identity a capture commit is stamped with.
type Identity struct {
	Name  string
	Email string
}

// PlanConfig carries the per-repo and global configuration the planner needs.
type PlanConfig struct {
	Include                []string
	Exclude                []string
	MaxDepth               *int
	CommitAuthor           *string
	CommitEmail            *string
	CommitExcludeGitConfig bool
}

// Plan is the in-memory value described by spec §3: everything the writer
// needs to materialize one capture, plus a handle back to the already-open
// repository so Write does not need to reopen it.
type Plan struct {
	RepoPath   string
	HeadHash   plumbing.Hash
	ParentHash plumbing.Hash
	Branch     string
	TreeHash   plumbing.Hash
	Message    string
	Author     Identity

	repo *gogit.Repository
}

// BranchRefName returns the fully qualified ref name for this plan's side branch.
func (p *Plan) BranchRefName() plumbing.ReferenceName {
	return plumbing.NewBranchReferenceName(p.Branch)
}

// PlanCapture implements spec §4.3's steps 1-11, returning (nil, nil) when
// there is nothing to capture and a *RepoError for anything that should be
// logged and skipped rather than treated as fatal.
func PlanCapture(repoPath string, cfg PlanConfig) (*Plan, error) {
	repo, err := gogit.PlainOpen(repoPath)
	if err != nil {
		if errors.Is(err, gogit.ErrRepositoryNotExists) {
			return nil, internalErrors.NewRepoError(repoPath, internalErrors.ErrNotRepository)
		}
		return nil, internalErrors.NewRepoError(repoPath, err)
	}

	if _, err := repo.Worktree(); err != nil {
		if errors.Is(err, gogit.ErrIsBareRepository) {
			return nil, internalErrors.NewRepoError(repoPath, internalErrors.ErrBareRepository)
		}
		return nil, internalErrors.NewRepoError(repoPath, err)
	}

	head, err := repo.Head()
	if err != nil {
		if errors.Is(err, plumbing.ErrReferenceNotFound) {
			// Unborn HEAD: nothing to anchor a side branch on yet.
			return nil, nil
		}
		return nil, internalErrors.NewRepoError(repoPath, err)
	}
	headHash := head.Hash()

	headCommit, err := repo.CommitObject(headHash)
	if err != nil {
		return nil, internalErrors.NewRepoError(repoPath, err)
	}

	branch := "dura/" + headHash.String()
	branchRef := plumbing.NewBranchReferenceName(branch)

	parentHash := headHash
	parentCommit := headCommit
	if existing, err := repo.Reference(branchRef, true); err == nil {
		if tip, err := repo.CommitObject(existing.Hash()); err == nil {
			parentHash = tip.Hash
			parentCommit = tip
		}
	}

	parentTree, err := parentCommit.Tree()
	if err != nil {
		return nil, internalErrors.NewRepoError(repoPath, err)
	}

	changes, err := collectChanges(repoPath, repo.Storer, parentTree, cfg)
	if err != nil {
		return nil, internalErrors.NewRepoError(repoPath, err)
	}
	if len(changes) == 0 {
		return nil, nil
	}

	treeHash, isEmpty, err := applyTreeChanges(repo.Storer, parentTree, changes)
	if err != nil {
		return nil, internalErrors.NewRepoError(repoPath, err)
	}
	if !isEmpty && treeHash == parentTree.Hash {
		return nil, nil
	}
	if isEmpty {
		// Every tracked path was deleted; nothing survives to commit.
		return nil, nil
	}

	identity := resolveIdentity(repo, cfg)

	return &Plan{
		RepoPath:   repoPath,
		HeadHash:   headHash,
		ParentHash: parentHash,
		Branch:     branch,
		TreeHash:   treeHash,
		Message:    CommitMessage,
		Author:     identity,
		repo:       repo,
	}, nil
}

// collectChanges enumerates every path whose content differs from
// parentTree, respecting include/exclude and max_depth. Candidate paths
// come from walking the worktree on disk directly, never from go-git's
// Status(), which is computed relative to HEAD/index and would miss a path
// that has been reverted back to HEAD's content but still differs from the
// dura branch's advanced parent tree. A second pass over parentTree itself
// catches paths that disappeared from disk entirely. Every comparison is
// against parentTree, so the result is always "parent tree vs. what's
// actually there now", matching how the original computed a tree-to-index
// diff against the parent commit's tree rather than HEAD's.
func collectChanges(repoPath string, s storer.EncodedObjectStorer, parentTree *object.Tree, cfg PlanConfig) (map[string]change, error) {
	changes := map[string]change{}
	seen := map[string]bool{}

	walkErr := filepath.WalkDir(repoPath, func(abs string, d os.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			if d.Name() == ".git" {
				return filepath.SkipDir
			}
			return nil
		}

		rel, err := filepath.Rel(repoPath, abs)
		if err != nil {
			return err
		}
		path := filepath.ToSlash(rel)

		if cfg.MaxDepth != nil && pathDepth(path) > *cfg.MaxDepth {
			return nil
		}
		if !pathAllowed(path, cfg.Include, cfg.Exclude) {
			return nil
		}
		seen[path] = true

		info, err := d.Info()
		if err != nil {
			return err
		}

		prior, priorErr := parentTree.FindEntry(path)
		hasPrior := priorErr == nil

		var (
			mode    filemode.FileMode
			content []byte
		)

		if info.Mode()&os.ModeSymlink != 0 {
			target, linkErr := os.Readlink(abs)
			if linkErr != nil {
				return linkErr
			}
			mode = filemode.Symlink
			content = []byte(target)
		} else {
			data, readErr := os.ReadFile(abs)
			if readErr != nil {
				return readErr
			}
			content = data
			mode = filemode.Regular
			if info.Mode()&0o111 != 0 {
				mode = filemode.Executable
			}
		}

		hash, err := writeBlob(s, content)
		if err != nil {
			return err
		}

		if hasPrior && prior.Mode == mode && prior.Hash == hash {
			return nil
		}
		changes[path] = change{mode: mode, hash: hash}
		return nil
	})
	if walkErr != nil {
		return nil, walkErr
	}

	files := parentTree.Files()
	defer files.Close()
	if err := files.ForEach(func(f *object.File) error {
		if seen[f.Name] {
			return nil
		}
		if cfg.MaxDepth != nil && pathDepth(f.Name) > *cfg.MaxDepth {
			return nil
		}
		if !pathAllowed(f.Name, cfg.Include, cfg.Exclude) {
			return nil
		}
		changes[f.Name] = change{deleted: true}
		return nil
	}); err != nil {
		return nil, err
	}

	return changes, nil
}

// resolveIdentity implements the precedence of spec §4.3 step 10.
func resolveIdentity(repo *gogit.Repository, cfg PlanConfig) Identity {
	if cfg.CommitAuthor != nil || cfg.CommitEmail != nil {
		id := Identity{Name: SentinelName, Email: SentinelEmail}
		if cfg.CommitAuthor != nil {
			id.Name = *cfg.CommitAuthor
		}
		if cfg.CommitEmail != nil {
			id.Email = *cfg.CommitEmail
		}
		return id
	}

	if cfg.CommitExcludeGitConfig {
		return Identity{Name: SentinelName, Email: SentinelEmail}
	}

	if gitCfg, err := repo.ConfigScoped(config.LocalScope); err == nil {
		name, email := gitCfg.User.Name, gitCfg.User.Email
		if name != "" || email != "" {
			if name == "" {
				name = SentinelName
			}
			if email == "" {
				email = SentinelEmail
			}
			return Identity{Name: name, Email: email}
		}
	}

	return Identity{Name: SentinelName, Email: SentinelEmail}
}
