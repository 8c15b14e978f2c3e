package harness

import (
	"bytes"
	_ "embed"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/cuecontext"
	cueyaml "cuelang.org/go/encoding/yaml"
	"gopkg.in/yaml.v3"

	"github.com/vrymel/serverless-python-requirements/internal/interpreter"
)

//go:embed scenario.cue
var scenarioSchema string

// DefaultExtractDir is where the packaged artifact is unpacked when a
// scenario does not name a directory.
const DefaultExtractDir = "puck"

// Scenario defines one packaging test case.
type Scenario struct {
	// Name uniquely identifies this scenario and names its golden file.
	Name string `yaml:"name"`

	// Description is the human-readable test name.
	Description string `yaml:"description"`

	// PythonVersion selects --pythonBin. Zero keeps the plugin default.
	PythonVersion int `yaml:"python_version,omitempty"`

	// Options are the packaging flags passed to `sls package`.
	Options PackageOptions `yaml:"options,omitempty"`

	// ExtractDir is the directory the artifact is unpacked into, relative
	// to the fixture project. Defaults to DefaultExtractDir.
	ExtractDir string `yaml:"extract_dir,omitempty"`

	// Assertions run against the extracted directory.
	Assertions []Assertion `yaml:"assertions"`
}

// PackageOptions are the plugin flags a scenario exercises. They compose
// independently.
type PackageOptions struct {
	Zip  bool `yaml:"zip,omitempty"`
	Slim bool `yaml:"slim,omitempty"`
}

// extractDir returns the configured directory or the default.
func (s *Scenario) extractDir() string {
	if s.ExtractDir == "" {
		return DefaultExtractDir
	}
	return s.ExtractDir
}

// PackageArgs builds the `sls` argument list for goos. An unsupported
// python version fails here, before any command is launched.
func (s *Scenario) PackageArgs(goos string) ([]string, error) {
	var args []string
	if s.PythonVersion != 0 {
		bin, err := interpreter.Resolve(s.PythonVersion, goos)
		if err != nil {
			return nil, fmt.Errorf("scenario %s: %w", s.Name, err)
		}
		args = append(args, "--pythonBin="+bin)
	}
	if s.Options.Zip {
		args = append(args, "--zip=true")
	}
	if s.Options.Slim {
		args = append(args, "--slim=true")
	}
	return append(args, "package"), nil
}

// LoadScenario reads and parses a scenario YAML file.
// Returns an error if the file doesn't exist, does not match the schema,
// contains unknown fields, or fails validation.
func LoadScenario(path string) (*Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read scenario file: %w", err)
	}
	return ParseScenario(path, data)
}

// ParseScenario parses scenario YAML. filename is used in error positions.
func ParseScenario(filename string, data []byte) (*Scenario, error) {
	if err := checkSchema(filename, data); err != nil {
		return nil, err
	}

	var scenario Scenario
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true)
	if err := decoder.Decode(&scenario); err != nil {
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}

	if err := validateScenario(&scenario); err != nil {
		return nil, fmt.Errorf("invalid scenario: %w", err)
	}

	return &scenario, nil
}

// checkSchema unifies the document with #Scenario from scenario.cue.
func checkSchema(filename string, data []byte) error {
	ctx := cuecontext.New()

	schema := ctx.CompileString(scenarioSchema, cue.Filename("scenario.cue"))
	if err := schema.Err(); err != nil {
		return fmt.Errorf("failed to compile scenario schema: %w", err)
	}

	file, err := cueyaml.Extract(filename, data)
	if err != nil {
		return fmt.Errorf("failed to parse YAML: %w", err)
	}
	doc := ctx.BuildFile(file)
	if err := doc.Err(); err != nil {
		return fmt.Errorf("failed to parse YAML: %w", err)
	}

	def := schema.LookupPath(cue.ParsePath("#Scenario"))
	if err := def.Unify(doc).Validate(cue.Concrete(true)); err != nil {
		return fmt.Errorf("scenario does not match schema: %w", err)
	}
	return nil
}

// validateScenario checks the rules the schema cannot express.
func validateScenario(s *Scenario) error {
	if s.Name == "" {
		return fmt.Errorf("name is required")
	}

	if s.Description == "" {
		return fmt.Errorf("description is required")
	}

	if s.PythonVersion != 0 {
		if err := interpreter.Validate(s.PythonVersion); err != nil {
			return fmt.Errorf("python_version: %w", err)
		}
	}

	if s.ExtractDir != "" {
		if filepath.IsAbs(s.ExtractDir) || strings.HasPrefix(filepath.Clean(s.ExtractDir), "..") {
			return fmt.Errorf("extract_dir must stay inside the fixture project: %s", s.ExtractDir)
		}
	}

	if len(s.Assertions) == 0 {
		return fmt.Errorf("assertions list is required and must be non-empty")
	}

	for i, assertion := range s.Assertions {
		if err := validateAssertion(i, &assertion); err != nil {
			return err
		}
	}

	return nil
}

// validateAssertion validates a single assertion based on its type.
func validateAssertion(index int, a *Assertion) error {
	if a.Type == "" {
		return fmt.Errorf("assertions[%d]: type is required", index)
	}

	switch a.Type {
	case AssertEntryPresent, AssertEntryAbsent:
		if a.Entry == "" {
			return fmt.Errorf("assertions[%d]: entry is required for %s", index, a.Type)
		}
		if strings.ContainsAny(a.Entry, `/\`) {
			return fmt.Errorf("assertions[%d]: entry must be a top-level name, got %q", index, a.Entry)
		}
	case AssertGlobEmpty:
		if a.Pattern == "" {
			return fmt.Errorf("assertions[%d]: pattern is required for %s", index, a.Type)
		}
	default:
		return fmt.Errorf("assertions[%d]: unknown assertion type %q", index, a.Type)
	}

	return nil
}
