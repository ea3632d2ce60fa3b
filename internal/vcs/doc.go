// Package vcs implements the capture engine: given one working copy, decide
// whether it has uncommitted changes and, if so, write exactly one new
// commit onto a side branch rooted at the working copy's current HEAD.
//
// All access goes through go-git's plumbing layer rather than its porcelain
// Worktree.Add/Commit, and rather than any os/exec call to a git binary.
// Planning and writing never touch HEAD, the on-disk index, or the working
// tree; besides writing new blob, tree and commit objects, the only
// mutation performed anywhere in this package is a compare-and-swap update
// of a single ref under refs/heads/dura/.
package vcs
