package harness

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vrymel/serverless-python-requirements/internal/interpreter"
)

func writeScenario(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "scenario.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestLoadScenario_ValidFile(t *testing.T) {
	path := writeScenario(t, `
name: py3-zip
description: "py3.6 can package flask with zip option"
python_version: 3
options:
  zip: true
extract_dir: puck2
assertions:
  - type: entry_present
    entry: .requirements.zip
  - type: entry_absent
    entry: flask
    message: "flask isn't packaged on its own"
  - type: glob_empty
    pattern: "**/*.pyc"
`)

	scenario, err := LoadScenario(path)
	require.NoError(t, err)

	assert.Equal(t, "py3-zip", scenario.Name)
	assert.Equal(t, "py3.6 can package flask with zip option", scenario.Description)
	assert.Equal(t, 3, scenario.PythonVersion)
	assert.True(t, scenario.Options.Zip)
	assert.False(t, scenario.Options.Slim)
	assert.Equal(t, "puck2", scenario.extractDir())
	require.Len(t, scenario.Assertions, 3)
	assert.Equal(t, AssertEntryAbsent, scenario.Assertions[1].Type)
	assert.Equal(t, "flask isn't packaged on its own", scenario.Assertions[1].Message)
	assert.Equal(t, "**/*.pyc", scenario.Assertions[2].Pattern)
}

func TestLoadScenario_MissingFile(t *testing.T) {
	_, err := LoadScenario("/nonexistent/scenario.yaml")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to read scenario file")
}

func TestParseScenario_SchemaViolations(t *testing.T) {
	tests := []struct {
		name    string
		content string
	}{
		{
			name: "missing name",
			content: `
description: "no name"
assertions:
  - type: entry_present
    entry: flask
`,
		},
		{
			name: "missing description",
			content: `
name: nodesc
assertions:
  - type: entry_present
    entry: flask
`,
		},
		{
			name: "unknown top-level field",
			content: `
name: extra
description: "extra field"
flags: ["--zip=true"]
assertions:
  - type: entry_present
    entry: flask
`,
		},
		{
			name: "unknown option",
			content: `
name: opt
description: "unknown option"
options:
  dockerize: true
assertions:
  - type: entry_present
    entry: flask
`,
		},
		{
			name: "empty assertions",
			content: `
name: empty
description: "no assertions"
assertions: []
`,
		},
		{
			name: "unknown assertion type",
			content: `
name: badtype
description: "bad assertion"
assertions:
  - type: trace_contains
    entry: flask
`,
		},
		{
			name: "python version is not a number",
			content: `
name: pystr
description: "string version"
python_version: "3"
assertions:
  - type: entry_present
    entry: flask
`,
		},
		{
			name: "upper case name",
			content: `
name: Py3
description: "bad name"
assertions:
  - type: entry_present
    entry: flask
`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseScenario("test.yaml", []byte(tt.content))
			require.Error(t, err)
			assert.Contains(t, err.Error(), "does not match schema")
		})
	}
}

func TestParseScenario_ValidationErrors(t *testing.T) {
	tests := []struct {
		name    string
		content string
		wantErr string
	}{
		{
			name: "unsupported python version",
			content: `
name: py4
description: "py4"
python_version: 4
assertions:
  - type: entry_present
    entry: flask
`,
			wantErr: "version must be 2 or 3",
		},
		{
			name: "entry_present without entry",
			content: `
name: noentry
description: "missing entry"
assertions:
  - type: entry_present
`,
			wantErr: "entry is required for entry_present",
		},
		{
			name: "glob_empty without pattern",
			content: `
name: nopattern
description: "missing pattern"
assertions:
  - type: glob_empty
`,
			wantErr: "pattern is required for glob_empty",
		},
		{
			name: "nested entry",
			content: `
name: nested
description: "nested entry"
assertions:
  - type: entry_absent
    entry: flask/__init__.py
`,
			wantErr: "must be a top-level name",
		},
		{
			name: "extract dir escapes project",
			content: `
name: escape
description: "escape"
extract_dir: ../outside
assertions:
  - type: entry_present
    entry: flask
`,
			wantErr: "extract_dir must stay inside the fixture project",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseScenario("test.yaml", []byte(tt.content))
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestParseScenario_InvalidVersionWrapsSentinel(t *testing.T) {
	_, err := ParseScenario("test.yaml", []byte(`
name: py1
description: "py1"
python_version: 1
assertions:
  - type: entry_present
    entry: flask
`))
	require.Error(t, err)
	assert.ErrorIs(t, err, interpreter.ErrInvalidVersion)
}

func TestPackageArgs(t *testing.T) {
	tests := []struct {
		name     string
		scenario Scenario
		goos     string
		want     []string
	}{
		{
			name: "default options",
			goos: "linux",
			want: []string{"package"},
		},
		{
			name:     "python 3",
			scenario: Scenario{PythonVersion: 3},
			goos:     "linux",
			want:     []string{"--pythonBin=python3.6", "package"},
		},
		{
			name:     "python 2 on windows with zip",
			scenario: Scenario{PythonVersion: 2, Options: PackageOptions{Zip: true}},
			goos:     "windows",
			want:     []string{"--pythonBin=c:/python27-x64/python.exe", "--zip=true", "package"},
		},
		{
			name:     "zip and slim compose",
			scenario: Scenario{PythonVersion: 3, Options: PackageOptions{Zip: true, Slim: true}},
			goos:     "darwin",
			want:     []string{"--pythonBin=python3.6", "--zip=true", "--slim=true", "package"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := tt.scenario.PackageArgs(tt.goos)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestPackageArgs_InvalidVersion(t *testing.T) {
	s := Scenario{Name: "bad", PythonVersion: 4}
	_, err := s.PackageArgs("linux")
	require.Error(t, err)
	assert.ErrorIs(t, err, interpreter.ErrInvalidVersion)
	assert.Contains(t, err.Error(), "scenario bad")
}

func TestBuiltinScenarios(t *testing.T) {
	scenarios, err := BuiltinScenarios()
	require.NoError(t, err)

	var names []string
	for _, s := range scenarios {
		names = append(names, s.Name)
	}
	assert.Equal(t, []string{"default-options", "py3-default", "py3-zip", "py3-slim"}, names)
}

func TestLoadScenarios_DuplicateNames(t *testing.T) {
	dir := t.TempDir()
	content := []byte(`
name: same
description: "dup"
assertions:
  - type: entry_present
    entry: flask
`)
	require.NoError(t, os.WriteFile(filepath.Join(dir, "a.yaml"), content, 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "b.yml"), content, 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "notes.txt"), []byte("ignored"), 0o644))

	_, err := LoadScenarios(dir)
	require.Error(t, err)
	assert.Contains(t, err.Error(), `duplicate scenario name "same"`)
}

func TestFilterScenarios(t *testing.T) {
	scenarios, err := BuiltinScenarios()
	require.NoError(t, err)

	kept, err := FilterScenarios(scenarios, "py3-*")
	require.NoError(t, err)
	assert.Len(t, kept, 3)

	kept, err = FilterScenarios(scenarios, "")
	require.NoError(t, err)
	assert.Len(t, kept, 4)

	kept, err = FilterScenarios(scenarios, "py3-zip")
	require.NoError(t, err)
	require.Len(t, kept, 1)
	assert.Equal(t, "py3-zip", kept[0].Name)

	_, err = FilterScenarios(scenarios, "py3-[")
	assert.Error(t, err)
}
