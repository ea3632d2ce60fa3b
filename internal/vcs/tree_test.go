package vcs

import (
	"sort"
	"testing"

	"github.com/go-git/go-git/v5/plumbing/filemode"
	"github.com/go-git/go-git/v5/plumbing/object"
)

func TestTreeEntryLessOrdersDirectoriesAsIfSlashTerminated(t *testing.T) {
	// Git's canonical tree order treats "lib" (a directory) as "lib/", which
	// sorts after "lib-extra" (a file) even though a byte-wise comparison of
	// "lib" vs "lib-extra" would put "lib" first.
	entries := []object.TreeEntry{
		{Name: "lib-extra", Mode: filemode.Regular},
		{Name: "lib", Mode: filemode.Dir},
	}

	sort.Slice(entries, func(i, j int) bool { return treeEntryLess(entries[i], entries[j]) })

	if entries[0].Name != "lib-extra" || entries[1].Name != "lib" {
		t.Errorf("expected lib-extra before lib, got order: %v, %v", entries[0].Name, entries[1].Name)
	}
}

func TestTreeEntryLessPlainLexicographic(t *testing.T) {
	entries := []object.TreeEntry{
		{Name: "zebra", Mode: filemode.Regular},
		{Name: "apple", Mode: filemode.Regular},
	}

	sort.Slice(entries, func(i, j int) bool { return treeEntryLess(entries[i], entries[j]) })

	if entries[0].Name != "apple" || entries[1].Name != "zebra" {
		t.Errorf("expected apple before zebra, got: %v, %v", entries[0].Name, entries[1].Name)
	}
}
