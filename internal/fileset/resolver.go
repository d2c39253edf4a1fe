// Package fileset resolves the declaration document patterns of a configuration into file paths.
package fileset

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path"
	"path/filepath"
	"slices"
	"strings"
)

// Resolver resolves glob patterns against an fs.FS and rewrites the discovered
// paths using a join function for deterministic, de-duplicated results.
//
// Patterns use path.Match syntax per segment; a "**" segment matches any number
// of directories.
type Resolver struct {
	fsys    fs.FS
	join    func(name string) string
	exclude []string
}

// ErrNoPatterns indicates that Resolve was invoked without any glob patterns.
var ErrNoPatterns = errors.New("fileset: no patterns provided")

// PatternError wraps syntax issues reported while evaluating a glob pattern.
type PatternError struct {
	Pattern string
	Err     error
}

// Error implements the error interface.
func (e PatternError) Error() string {
	return fmt.Sprintf("invalid glob pattern %q: %v", e.Pattern, e.Err)
}

// Unwrap returns the underlying error.
func (e PatternError) Unwrap() error { return e.Err }

// NoMatchError describes which patterns failed to yield any results.
type NoMatchError struct {
	Patterns []string
}

// Error implements the error interface.
func (e NoMatchError) Error() string {
	return "patterns matched no files: " + strings.Join(e.Patterns, ", ")
}

// NewResolver constructs a Resolver against the provided filesystem without any
// path rewriting, preserving the original match names. Useful for tests.
func NewResolver(fsys fs.FS) Resolver {
	return Resolver{
		fsys: fsys,
		join: func(name string) string { return name },
	}
}

// NewOSResolver constructs a Resolver rooted at base that returns absolute OS
// paths for each match.
func NewOSResolver(base string) (Resolver, error) {
	absBase, err := filepath.Abs(base)
	if err != nil {
		return Resolver{}, fmt.Errorf("resolve base %q: %w", base, err)
	}

	info, err := os.Stat(absBase)
	if err != nil {
		return Resolver{}, fmt.Errorf("stat base %q: %w", absBase, err)
	}
	if !info.IsDir() {
		return Resolver{}, fmt.Errorf("base %q is not a directory", absBase)
	}

	return Resolver{
		fsys: os.DirFS(absBase),
		join: func(name string) string {
			if filepath.IsAbs(name) {
				return filepath.Clean(name)
			}
			return filepath.Join(absBase, filepath.FromSlash(name))
		},
	}, nil
}

// Exclude returns a copy of r that drops matches of any of patterns. Exclude
// patterns are validated by Resolve.
func (r Resolver) Exclude(patterns ...string) Resolver {
	r.exclude = append(slices.Clone(r.exclude), patterns...)
	return r
}

// Resolve evaluates each glob pattern, accumulating matches, and returns a
// deterministically sorted list of de-duplicated paths. A pattern whose matches
// are all excluded counts as matching nothing.
func (r Resolver) Resolve(patterns []string) ([]string, error) {
	if r.fsys == nil {
		return nil, errors.New("fileset: resolver has no filesystem")
	}

	if len(patterns) == 0 {
		return nil, ErrNoPatterns
	}

	for _, pattern := range r.exclude {
		if _, err := path.Match(filepath.ToSlash(pattern), ""); err != nil {
			return nil, PatternError{Pattern: pattern, Err: err}
		}
	}

	joinFn := r.join
	if joinFn == nil {
		joinFn = func(name string) string { return name }
	}

	combined := make([]string, 0)
	missing := make([]string, 0)

	for _, pattern := range patterns {
		globPattern := filepath.ToSlash(pattern)

		matches, err := r.glob(globPattern)
		if err != nil {
			return nil, PatternError{Pattern: pattern, Err: err}
		}
		matches = slices.DeleteFunc(matches, r.excluded)

		if len(matches) == 0 {
			missing = append(missing, pattern)
			continue
		}

		for _, match := range matches {
			combined = append(combined, joinFn(match))
		}
	}

	if len(missing) > 0 {
		return nil, NoMatchError{Patterns: append([]string(nil), missing...)}
	}

	slices.Sort(combined)
	return slices.Compact(combined), nil
}

func (r Resolver) glob(pattern string) ([]string, error) {
	if !strings.Contains(pattern, "**") {
		return fs.Glob(r.fsys, pattern)
	}
	if _, err := path.Match(strings.ReplaceAll(pattern, "**", "*"), ""); err != nil {
		return nil, err
	}

	// Walk from the longest prefix without wildcards.
	root := "."
	segments := strings.Split(pattern, "/")
	for i, seg := range segments {
		if strings.ContainsAny(seg, "*?[\\") {
			if i > 0 {
				root = strings.Join(segments[:i], "/")
			}
			break
		}
	}

	var matches []string
	err := fs.WalkDir(r.fsys, root, func(name string, d fs.DirEntry, err error) error {
		if err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				return fs.SkipDir
			}
			return err
		}
		if !d.IsDir() && matchSegments(segments, strings.Split(name, "/")) {
			matches = append(matches, name)
		}
		return nil
	})
	return matches, err
}

func (r Resolver) excluded(name string) bool {
	parts := strings.Split(name, "/")
	for _, pattern := range r.exclude {
		segments := strings.Split(filepath.ToSlash(pattern), "/")
		if matchSegments(segments, parts) {
			return true
		}
		// A pattern naming a directory excludes everything below it.
		if matchSegments(append(segments, "**"), parts) {
			return true
		}
	}
	return false
}

// matchSegments matches a slash-split name against a slash-split pattern in
// which "**" matches zero or more segments.
func matchSegments(pattern, name []string) bool {
	for len(pattern) > 0 {
		if pattern[0] == "**" {
			for i := 0; i <= len(name); i++ {
				if matchSegments(pattern[1:], name[i:]) {
					return true
				}
			}
			return false
		}
		if len(name) == 0 {
			return false
		}
		if ok, err := path.Match(pattern[0], name[0]); err != nil || !ok {
			return false
		}
		pattern, name = pattern[1:], name[1:]
	}
	return len(name) == 0
}
