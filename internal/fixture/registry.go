// Package fixture tracks the filesystem paths a packaging scenario may leave
// behind and removes them between cases.
//
// A Registry holds literal paths and glob patterns. Patterns are resolved
// against the filesystem every time Resolve or Purge is called; nothing is
// cached between calls.
package fixture

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"

	"github.com/bmatcuk/doublestar/v4"
)

// Kind distinguishes literal paths from glob patterns.
type Kind int

const (
	Literal Kind = iota
	Pattern
)

func (k Kind) String() string {
	if k == Pattern {
		return "pattern"
	}
	return "literal"
}

// Path is one registry entry.
type Path struct {
	Kind  Kind
	Value string
}

// Lit declares a literal path.
func Lit(path string) Path { return Path{Kind: Literal, Value: path} }

// Glob declares a glob pattern. Patterns support "**".
func Glob(pattern string) Path { return Path{Kind: Pattern, Value: pattern} }

// Parse turns a configured string into a Path: anything containing glob
// metacharacters is a pattern, everything else is a literal.
func Parse(s string) Path {
	if hasMeta(s) {
		return Glob(s)
	}
	return Lit(s)
}

func hasMeta(s string) bool {
	for _, r := range s {
		switch r {
		case '*', '?', '[', '{':
			return true
		}
	}
	return false
}

// StandardPaths lists every path a packaging scenario can create relative
// to the fixture project.
func StandardPaths() []Path {
	return []Path{
		Lit("puck"),
		Lit("puck2"),
		Lit("puck3"),
		Lit("node_modules"),
		Lit(".serverless"),
		Lit(".requirements.zip"),
		Lit(".requirements-cache"),
		Lit("foobar"),
		Lit("package-lock.json"),
		Lit("slimPatterns.yml"),
		Lit("serverless.yml.bak"),
		Glob("serverless-python-requirements-*.tgz"),
	}
}

// Registry is the static set of fixture paths.
type Registry struct {
	paths []Path
}

// NewRegistry creates a registry over paths.
func NewRegistry(paths ...Path) *Registry {
	return &Registry{paths: append([]Path(nil), paths...)}
}

// DefaultRegistry returns StandardPaths plus the user cache directory.
func DefaultRegistry(cachePath string) *Registry {
	paths := StandardPaths()
	if cachePath != "" {
		paths = append(paths, Lit(cachePath))
	}
	return NewRegistry(paths...)
}

// Add appends entries to the registry.
func (r *Registry) Add(paths ...Path) {
	r.paths = append(r.paths, paths...)
}

// Paths returns a copy of the declared entries.
func (r *Registry) Paths() []Path {
	return append([]Path(nil), r.paths...)
}

// Resolve expands every entry against root (the current working directory
// when root is empty). Literals are returned whether or not they exist;
// patterns yield only current matches.
func (r *Registry) Resolve(root string) ([]string, error) {
	var resolved []string
	for _, p := range r.paths {
		matches, err := Resolve(root, p)
		if err != nil {
			return nil, err
		}
		resolved = append(resolved, matches...)
	}
	return resolved, nil
}

// Purge resolves the registry and removes every result. Paths that do not
// exist are not an error, so Purge is idempotent.
func (r *Registry) Purge(root string) error {
	paths, err := r.Resolve(root)
	if err != nil {
		return err
	}
	for _, path := range paths {
		if err := Remove(path); err != nil {
			return err
		}
	}
	return nil
}

// Resolve expands one entry against root. It is a pure query over the
// current filesystem.
func Resolve(root string, p Path) ([]string, error) {
	if root == "" {
		root = "."
	}

	switch p.Kind {
	case Literal:
		if filepath.IsAbs(p.Value) {
			return []string{p.Value}, nil
		}
		return []string{filepath.Join(root, p.Value)}, nil
	case Pattern:
		if filepath.IsAbs(p.Value) {
			return nil, fmt.Errorf("glob pattern %q must be relative", p.Value)
		}
		matches, err := Match(root, filepath.ToSlash(p.Value))
		if err != nil {
			return nil, err
		}
		for i, m := range matches {
			matches[i] = filepath.Join(root, filepath.FromSlash(m))
		}
		return matches, nil
	default:
		return nil, fmt.Errorf("unknown fixture kind %d", p.Kind)
	}
}

// Match returns the slash-separated paths under root matching pattern, in
// lexical order. A missing root yields no matches.
func Match(root, pattern string) ([]string, error) {
	if !doublestar.ValidatePattern(pattern) {
		return nil, fmt.Errorf("invalid glob pattern %q", pattern)
	}
	if _, err := os.Stat(root); os.IsNotExist(err) {
		return nil, nil
	}
	matches, err := doublestar.Glob(os.DirFS(root), pattern)
	if err != nil {
		return nil, fmt.Errorf("failed to match %q under %s: %w", pattern, root, err)
	}
	sort.Strings(matches)
	return matches, nil
}

// Remove deletes path and everything below it. A missing path is success.
func Remove(path string) error {
	if err := os.RemoveAll(path); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("failed to remove %s: %w", path, err)
	}
	return nil
}

// Exists reports whether path is present (without following a final symlink).
func Exists(path string) bool {
	_, err := os.Lstat(path)
	return !errors.Is(err, fs.ErrNotExist)
}
