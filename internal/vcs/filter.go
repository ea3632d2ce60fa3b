package vcs

import (
	"strings"

	"github.com/bmatcuk/doublestar/v4"
)

// pathAllowed applies the per-repo include filter (if non-empty, the path
// must match at least one glob) and then the exclude filter (the path must
// match none), per spec step 6. Globs are matched with doublestar so
// "src/**/*.rs"-style double-star patterns work the way the configuration
// document's examples assume.
func pathAllowed(path string, include, exclude []string) bool {
	if len(include) > 0 && !matchesAny(path, include) {
		return false
	}
	if matchesAny(path, exclude) {
		return false
	}
	return true
}

func matchesAny(path string, patterns []string) bool {
	for _, pattern := range patterns {
		if ok, err := doublestar.Match(pattern, path); err == nil && ok {
			return true
		}
	}
	return false
}

// pathDepth returns the number of directory components before the final
// path segment, used to bound the walk depth against a per-repo max_depth.
func pathDepth(path string) int {
	return strings.Count(path, "/")
}
