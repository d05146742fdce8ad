// Package matching decides which files under a document root are indexed.
//
// Patterns are matched against the slash separated path relative to the root:
//
//	name/       any directory segment named name
//	name/**     same as name/
//	**/a/b      the trailing path segments a/b
//	*.ext       the file base name
//	/a/*.md     anchored at the root
package matching

import (
	"path/filepath"
	"strings"

	"github.com/viant/docrag/matching/option"
)

// Manager applies inclusion, exclusion and size rules
type Manager struct {
	options *option.Options
}

// New creates a manager
func New(opts ...option.Option) *Manager {
	return &Manager{options: option.NewOptions(opts...)}
}

// IsExcluded reports whether the file at relativePath with size bytes must be skipped
func (m *Manager) IsExcluded(relativePath string, size int) bool {
	if m.options.MaxFileSize > 0 && size > m.options.MaxFileSize {
		return true
	}
	path := strings.TrimPrefix(filepath.ToSlash(relativePath), "/")
	if len(m.options.Inclusions) > 0 && !matchAny(path, m.options.Inclusions) {
		return true
	}
	return matchAny(path, m.options.Exclusions)
}

// IsExcludedDir reports whether the whole directory at relativePath can be pruned
func (m *Manager) IsExcludedDir(relativePath string) bool {
	path := strings.Trim(filepath.ToSlash(relativePath), "/")
	return matchAny(path+"/", m.options.Exclusions)
}

func matchAny(path string, patterns []string) bool {
	for _, pattern := range patterns {
		pattern = strings.TrimSpace(pattern)
		if pattern == "" || strings.HasPrefix(pattern, "#") {
			continue
		}
		if Match(pattern, path) {
			return true
		}
	}
	return false
}

// Match reports whether the relative path matches pattern
func Match(pattern, path string) bool {
	segments := strings.Split(path, "/")
	dirs := segments[:len(segments)-1]
	anchored := strings.HasPrefix(pattern, "/")
	pattern = strings.TrimPrefix(pattern, "/")

	switch {
	case strings.HasSuffix(pattern, "/**"):
		dir := strings.TrimPrefix(strings.TrimSuffix(pattern, "/**"), "**/")
		return containsDir(dirs, strings.Split(dir, "/"), anchored)
	case strings.HasSuffix(pattern, "/"):
		dir := strings.TrimSuffix(pattern, "/")
		return containsDir(dirs, strings.Split(dir, "/"), anchored)
	case strings.HasPrefix(pattern, "**/"):
		return matchTail(segments, strings.Split(strings.TrimPrefix(pattern, "**/"), "/"))
	case !anchored && !strings.Contains(pattern, "/"):
		ok, _ := filepath.Match(pattern, segments[len(segments)-1])
		return ok
	default:
		ok, _ := filepath.Match(pattern, path)
		return ok
	}
}

func containsDir(dirs, parts []string, anchored bool) bool {
	last := len(dirs) - len(parts)
	if anchored && last > 0 {
		last = 0
	}
	for i := 0; i <= last; i++ {
		if matchSegments(dirs[i:i+len(parts)], parts) {
			return true
		}
	}
	return false
}

func matchTail(segments, parts []string) bool {
	start := len(segments) - len(parts)
	if start < 0 {
		return false
	}
	return matchSegments(segments[start:], parts)
}

func matchSegments(segments, parts []string) bool {
	for i, part := range parts {
		if ok, _ := filepath.Match(part, segments[i]); !ok {
			return false
		}
	}
	return true
}
