package vcs

import (
	"sort"
	"strings"

	"github.com/go-git/go-git/v5/plumbing"
	"github.com/go-git/go-git/v5/plumbing/filemode"
	"github.com/go-git/go-git/v5/plumbing/object"
	"github.com/go-git/go-git/v5/plumbing/storer"
)

// change describes a single path's new state relative to a parent tree.
// A zero-value change with deleted set to false and hash set to the zero
// hash never occurs in practice; callers always populate either deleted or
// mode+hash.
type change struct {
	deleted bool
	mode    filemode.FileMode
	hash    plumbing.Hash
}

// writeBlob stores content as a new blob object and returns its hash.
// go-git's content-addressable storer makes this idempotent: writing the
// same bytes twice yields the same hash without duplicating storage.
func writeBlob(s storer.EncodedObjectStorer, content []byte) (plumbing.Hash, error) {
	obj := s.NewEncodedObject()
	obj.SetType(plumbing.BlobObject)

	w, err := obj.Writer()
	if err != nil {
		return plumbing.ZeroHash, err
	}
	if _, err := w.Write(content); err != nil {
		_ = w.Close()
		return plumbing.ZeroHash, err
	}
	if err := w.Close(); err != nil {
		return plumbing.ZeroHash, err
	}

	return s.SetEncodedObject(obj)
}

// applyTreeChanges rebuilds parent (or an empty tree, if parent is nil) with
// changes applied, writing every new blob/tree object it needs along the
// way. It returns the resulting tree hash and whether that tree is now
// empty (in which case the caller should drop the corresponding directory
// entry rather than keep a pointer to an empty tree, matching git's own
// refusal to track empty directories).
func applyTreeChanges(s storer.EncodedObjectStorer, parent *object.Tree, changes map[string]change) (plumbing.Hash, bool, error) {
	entries := map[string]object.TreeEntry{}
	if parent != nil {
		for _, e := range parent.Entries {
			entries[e.Name] = e
		}
	}

	leaf := map[string]change{}
	groups := map[string]map[string]change{}
	for path, c := range changes {
		if i := strings.IndexByte(path, '/'); i >= 0 {
			top, rest := path[:i], path[i+1:]
			if groups[top] == nil {
				groups[top] = map[string]change{}
			}
			groups[top][rest] = c
		} else {
			leaf[path] = c
		}
	}

	for name, c := range leaf {
		if c.deleted {
			delete(entries, name)
			continue
		}
		entries[name] = object.TreeEntry{Name: name, Mode: c.mode, Hash: c.hash}
	}

	for name, sub := range groups {
		var subtree *object.Tree
		if existing, ok := entries[name]; ok && existing.Mode == filemode.Dir {
			if t, err := object.GetTree(s, existing.Hash); err == nil {
				subtree = t
			}
		}

		hash, isEmpty, err := applyTreeChanges(s, subtree, sub)
		if err != nil {
			return plumbing.ZeroHash, false, err
		}
		if isEmpty {
			delete(entries, name)
			continue
		}
		entries[name] = object.TreeEntry{Name: name, Mode: filemode.Dir, Hash: hash}
	}

	if len(entries) == 0 {
		return plumbing.ZeroHash, true, nil
	}

	list := make([]object.TreeEntry, 0, len(entries))
	for _, e := range entries {
		list = append(list, e)
	}
	sort.Slice(list, func(i, j int) bool { return treeEntryLess(list[i], list[j]) })

	tree := &object.Tree{Entries: list}
	obj := s.NewEncodedObject()
	if err := tree.Encode(obj); err != nil {
		return plumbing.ZeroHash, false, err
	}

	hash, err := s.SetEncodedObject(obj)
	if err != nil {
		return plumbing.ZeroHash, false, err
	}
	return hash, false, nil
}

// treeEntryLess orders tree entries the way git canonicalizes them: as if
// every directory name carried a trailing slash. Getting this wrong would
// still produce a valid-looking tree object with the wrong hash, so it is
// worth getting right rather than relying on plain name comparison.
func treeEntryLess(a, b object.TreeEntry) bool {
	an, bn := a.Name, b.Name
	if a.Mode == filemode.Dir {
		an += "/"
	}
	if b.Mode == filemode.Dir {
		bn += "/"
	}
	return an < bn
}
