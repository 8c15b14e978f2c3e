package harness

import (
	"embed"
	"fmt"
	"io/fs"
	"os"
	"path"
	"path/filepath"
	"sort"

	"github.com/bmatcuk/doublestar/v4"
)

//go:embed scenarios/*.yaml
var builtinScenarios embed.FS

// BuiltinScenarios returns the packaging scenarios shipped with the harness,
// in run order.
func BuiltinScenarios() ([]*Scenario, error) {
	return loadScenarios(builtinScenarios, "scenarios")
}

// LoadScenarios parses every *.yaml and *.yml file in dir, in file name
// order. Scenario names must be unique.
func LoadScenarios(dir string) ([]*Scenario, error) {
	return loadScenarios(os.DirFS(dir), ".")
}

func loadScenarios(fsys fs.FS, dir string) ([]*Scenario, error) {
	entries, err := fs.ReadDir(fsys, dir)
	if err != nil {
		return nil, fmt.Errorf("failed to read scenario directory: %w", err)
	}

	var names []string
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		switch filepath.Ext(e.Name()) {
		case ".yaml", ".yml":
			names = append(names, e.Name())
		}
	}
	sort.Strings(names)

	seen := make(map[string]string, len(names))
	scenarios := make([]*Scenario, 0, len(names))
	for _, name := range names {
		file := path.Join(dir, name)
		data, err := fs.ReadFile(fsys, file)
		if err != nil {
			return nil, fmt.Errorf("failed to read %s: %w", file, err)
		}
		s, err := ParseScenario(name, data)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", name, err)
		}
		if prev, ok := seen[s.Name]; ok {
			return nil, fmt.Errorf("duplicate scenario name %q in %s and %s", s.Name, prev, name)
		}
		seen[s.Name] = name
		scenarios = append(scenarios, s)
	}
	return scenarios, nil
}

// FilterScenarios keeps the scenarios whose name matches pattern. An empty
// pattern keeps everything.
func FilterScenarios(scenarios []*Scenario, pattern string) ([]*Scenario, error) {
	if pattern == "" {
		return scenarios, nil
	}
	if !doublestar.ValidatePattern(pattern) {
		return nil, fmt.Errorf("invalid filter pattern %q", pattern)
	}
	var kept []*Scenario
	for _, s := range scenarios {
		if ok, _ := doublestar.Match(pattern, s.Name); ok {
			kept = append(kept, s)
		}
	}
	return kept, nil
}
