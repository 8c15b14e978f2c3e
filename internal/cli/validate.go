package cli

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"github.com/spf13/cobra"

	"github.com/vrymel/serverless-python-requirements/internal/harness"
)

// FileValidation is the verdict for one scenario file.
type FileValidation struct {
	File  string `json:"file"`
	Name  string `json:"name,omitempty"`
	Valid bool   `json:"valid"`
	Error string `json:"error,omitempty"`
}

// ValidationResult holds validation results.
type ValidationResult struct {
	Valid bool             `json:"valid"`
	Files []FileValidation `json:"files"`
}

// NewValidateCommand creates the validate command.
func NewValidateCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "validate <file-or-dir>...",
		Short: "Check scenario files without running them",
		Long: `Check scenario YAML files against the scenario schema and the
validation rules (supported python versions, assertion fields) without
launching any command. Directories are expanded to their *.yaml and *.yml
files.`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runValidate(cmd, rootOpts, args)
		},
	}

	return cmd
}

func runValidate(cmd *cobra.Command, opts *RootOptions, args []string) error {
	out := opts.formatter(cmd)

	files, err := expandScenarioFiles(args)
	if err != nil {
		return out.Fail(ExitCommandError, ErrCodeScenario, "failed to find scenario files", err)
	}

	result := ValidationResult{Valid: true, Files: make([]FileValidation, 0, len(files))}
	for _, file := range files {
		v := FileValidation{File: file, Valid: true}
		s, err := harness.LoadScenario(file)
		if err != nil {
			v.Valid = false
			v.Error = err.Error()
			result.Valid = false
		} else {
			v.Name = s.Name
		}
		out.VerboseLog("Checked %s", file)
		result.Files = append(result.Files, v)
	}

	if out.JSON() {
		resp := CLIResponse{Status: "ok", Data: result}
		if !result.Valid {
			resp.Status = "error"
			resp.Error = &CLIError{Code: ErrCodeScenario, Message: "invalid scenario files"}
		}
		if err := out.encode(resp); err != nil {
			return err
		}
	} else {
		for _, v := range result.Files {
			if v.Valid {
				fmt.Fprintln(out.Writer, statusLine(true, fmt.Sprintf("%s (%s)", v.File, v.Name)))
			} else {
				fmt.Fprintln(out.Writer, statusLine(false, v.File))
				fmt.Fprintf(out.Writer, "  %s\n", v.Error)
			}
		}
	}

	if !result.Valid {
		return reportedExitError(ExitFailure, "invalid scenario files", nil)
	}
	return nil
}

// expandScenarioFiles turns file and directory arguments into a sorted
// list of YAML files.
func expandScenarioFiles(args []string) ([]string, error) {
	var files []string
	for _, arg := range args {
		info, err := os.Stat(arg)
		if err != nil {
			return nil, err
		}
		if !info.IsDir() {
			files = append(files, arg)
			continue
		}
		for _, pattern := range []string{"*.yaml", "*.yml"} {
			matches, err := filepath.Glob(filepath.Join(arg, pattern))
			if err != nil {
				return nil, err
			}
			files = append(files, matches...)
		}
	}
	sort.Strings(files)
	return files, nil
}
