package ignore

import (
	"path/filepath"
	"strings"
	"sync"

	"github.com/bmatcuk/doublestar/v4"
)

// Matcher decides whether a path should be excluded from indexing. It
// combines the settings' configured exclude patterns with the
// project's .gitignore and any language-specific build output
// directories detected from the project's own build configuration
// (package.json, tsconfig.json, Cargo.toml, pyproject.toml), loaded
// once per project root and cached.
type Matcher struct {
	configured []string
	gitignore  *GitignoreParser
}

// cache keys project roots to their parsed .gitignore, read-mostly and
// safe for concurrent readers.
var cache sync.Map // map[string]*GitignoreParser

// New builds a Matcher for projectRoot from the configured exclude
// patterns, a .gitignore loaded from the root if present, and any
// build output directories DetectOutputDirectories finds in the
// project's own build configuration files.
func New(projectRoot string, configuredExcludes []string) *Matcher {
	gp := loadCached(projectRoot)

	detected := NewBuildArtifactDetector(projectRoot).DetectOutputDirectories()
	configured := append(append([]string(nil), configuredExcludes...), detected...)
	configured = DeduplicatePatterns(configured)

	return &Matcher{
		configured: configured,
		gitignore:  gp,
	}
}

// ActivePatterns returns every exclusion pattern currently in effect
// for the matcher: configured patterns (including any detected build
// output directories folded in by New) plus the project's .gitignore
// entries translated to the same glob syntax, deduplicated.
func (m *Matcher) ActivePatterns() []string {
	patterns := append([]string(nil), m.configured...)
	if m.gitignore != nil {
		patterns = append(patterns, m.gitignore.GetExclusionPatterns()...)
	}
	return DeduplicatePatterns(patterns)
}

func loadCached(projectRoot string) *GitignoreParser {
	if cached, ok := cache.Load(projectRoot); ok {
		return cached.(*GitignoreParser)
	}

	gp := NewGitignoreParser()
	_ = gp.LoadGitignore(projectRoot) // absent .gitignore is not an error
	cache.Store(projectRoot, gp)
	return gp
}

// ShouldExclude reports whether path (relative to the project root,
// forward-slash normalized) is excluded: literal segment match,
// single-segment wildcards, directory-only trailing slash patterns,
// and a full-path glob attempt, case-sensitively.
func (m *Matcher) ShouldExclude(path string, isDir bool) bool {
	path = filepath.ToSlash(path)

	if m.matchesConfigured(path, isDir) {
		return true
	}
	if m.gitignore != nil && m.gitignore.ShouldIgnore(path, isDir) {
		return true
	}
	return false
}

// ShouldExcludeDir is ShouldExclude specialized for directories, used
// by the walker to prune before descending — an excluded directory is
// never opened.
func (m *Matcher) ShouldExcludeDir(path string) bool {
	return m.ShouldExclude(path, true)
}

func (m *Matcher) matchesConfigured(path string, isDir bool) bool {
	segments := strings.Split(path, "/")
	base := segments[len(segments)-1]

	for _, pattern := range m.configured {
		directoryOnly := strings.HasSuffix(pattern, "/")
		trimmed := strings.TrimSuffix(pattern, "/")

		if directoryOnly && !isDir {
			// A directory-only pattern still excludes files inside a
			// matching directory; check the path's component chain.
			if pathContainsDirComponent(segments, trimmed) {
				return true
			}
			continue
		}

		// Literal/glob match against any single path segment.
		for _, seg := range segments {
			if matched, _ := filepath.Match(trimmed, seg); matched {
				return true
			}
		}
		if base == trimmed {
			return true
		}

		// Full-path glob match (doublestar, supports **).
		if matched, _ := doublestar.Match(trimmed, path); matched {
			return true
		}
		if directoryOnly && pathContainsDirComponent(segments, trimmed) {
			return true
		}
	}

	return false
}

func pathContainsDirComponent(segments []string, dirPattern string) bool {
	for _, seg := range segments {
		if matched, _ := filepath.Match(dirPattern, seg); matched {
			return true
		}
	}
	return false
}
