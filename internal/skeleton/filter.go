package skeleton

import (
	"path"
	"strings"
)

// matchPattern matches a glob against a slash-separated path. Patterns
// without a separator also match against the base name, so "*.bin"
// catches nested weight files.
func matchPattern(pattern, p string) bool {
	if ok, err := path.Match(pattern, p); err == nil && ok {
		return true
	}
	if !strings.Contains(pattern, "/") {
		if ok, err := path.Match(pattern, path.Base(p)); err == nil && ok {
			return true
		}
	}
	return false
}

// ApplyFilters keeps items matching any include pattern (all, when
// none given) and dropping any exclude match, then truncates to
// maxFiles. A negative maxFiles means unlimited.
func ApplyFilters(items []TreeItem, includes, excludes []string, maxFiles int) []TreeItem {
	keep := func(p string) bool {
		if len(includes) > 0 {
			matched := false
			for _, pat := range includes {
				if matchPattern(pat, p) {
					matched = true
					break
				}
			}
			if !matched {
				return false
			}
		}
		for _, pat := range excludes {
			if matchPattern(pat, p) {
				return false
			}
		}
		return true
	}

	filtered := make([]TreeItem, 0, len(items))
	for _, it := range items {
		if keep(it.Path) {
			filtered = append(filtered, it)
		}
	}
	if maxFiles >= 0 && len(filtered) > maxFiles {
		filtered = filtered[:maxFiles]
	}
	return filtered
}
