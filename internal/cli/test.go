package cli

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/vrymel/serverless-python-requirements/internal/config"
	"github.com/vrymel/serverless-python-requirements/internal/harness"
	"github.com/vrymel/serverless-python-requirements/internal/store"
)

// TestOptions holds flags for the test command.
type TestOptions struct {
	*RootOptions
	Filter    string // scenario filter (glob pattern)
	GoldenDir string // listing snapshots to compare against
	Update    bool   // rewrite snapshots instead of comparing
}

// TestResult holds the overall test result.
type TestResult struct {
	RunID     string            `json:"run_id,omitempty"`
	Scenarios []*harness.Result `json:"scenarios"`
	Passed    int               `json:"passed"`
	Failed    int               `json:"failed"`
	Total     int               `json:"total"`
}

// NewTestCommand creates the test command.
func NewTestCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &TestOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "test [scenarios-dir]",
		Short: "Run packaging scenarios",
		Long: `Run packaging scenarios against the serverless CLI.

Without a directory the built-in scenarios run (default options, python 3,
python 3 with --zip, python 3 with --slim). Run from the plugin checkout:
the fixture project is tests/base unless configured otherwise.

Exit codes:
  0 - All scenarios passed
  1 - One or more scenarios failed
  2 - Command error (invalid config, missing directory, etc.)

Examples:
  slsreq test
  slsreq test --filter "py3-*"
  slsreq test ./scenarios --golden testdata/golden
  slsreq test --golden testdata/golden --update
  slsreq test --db history.db --format json`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			dir := ""
			if len(args) == 1 {
				dir = args[0]
			}
			return runTests(cmd, opts, dir)
		},
	}

	cmd.Flags().StringVar(&opts.Filter, "filter", "", "filter scenarios by name glob")
	cmd.Flags().StringVar(&opts.GoldenDir, "golden", "", "directory of listing snapshots ({name}.golden)")
	cmd.Flags().BoolVar(&opts.Update, "update", false, "rewrite listing snapshots")

	return cmd
}

func runTests(cmd *cobra.Command, opts *TestOptions, dir string) error {
	out := opts.formatter(cmd)
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	if opts.Update && opts.GoldenDir == "" {
		return out.Fail(ExitCommandError, ErrCodeArgument, "--update requires --golden", nil)
	}

	cfg, err := opts.loadConfig()
	if err != nil {
		return out.Fail(ExitCommandError, ErrCodeConfig, "failed to load configuration", err)
	}
	if cfg.Source != "" {
		out.VerboseLog("Using configuration %s", cfg.Source)
	}

	scenarios, err := selectScenarios(cfg, dir, opts.Filter)
	if err != nil {
		return out.Fail(ExitCommandError, ErrCodeScenario, "failed to load scenarios", err)
	}

	if len(scenarios) == 0 {
		if out.JSON() {
			return out.Success(TestResult{Scenarios: []*harness.Result{}})
		}
		fmt.Fprintln(out.Writer, "No scenarios found.")
		return nil
	}

	logger := opts.logger(cmd.ErrOrStderr())
	lc, err := harness.New(cfg.HarnessOptions(logger))
	if err != nil {
		return out.Fail(ExitCommandError, ErrCodeConfig, "failed to start harness", err)
	}

	var history *store.Store
	var runID string
	if cfg.HistoryDB != "" {
		history, err = store.Open(cfg.HistoryDB)
		if err != nil {
			return out.Fail(ExitCommandError, ErrCodeHistory, "failed to open run history", err)
		}
		defer history.Close()

		run, err := history.BeginRun(ctx, opts.Filter)
		if err != nil {
			return out.Fail(ExitCommandError, ErrCodeHistory, "failed to record run", err)
		}
		runID = run.ID
		out.VerboseLog("Recording run %s in %s", runID, cfg.HistoryDB)
	}

	result := TestResult{
		RunID:     runID,
		Scenarios: make([]*harness.Result, 0, len(scenarios)),
		Total:     len(scenarios),
	}

	for i, s := range scenarios {
		out.VerboseLog("Running %s: %s", s.Name, s.Description)
		res := lc.RunScenario(s)

		if opts.GoldenDir != "" && res.Pass {
			if err := checkGolden(opts, res); err != nil {
				res.AddError(err.Error())
			}
		}

		if history != nil {
			if err := history.WriteCase(ctx, runID, i+1, res); err != nil {
				return out.Fail(ExitCommandError, ErrCodeHistory, "failed to record case", err)
			}
		}

		result.Scenarios = append(result.Scenarios, res)
		if res.Pass {
			result.Passed++
		} else {
			result.Failed++
		}

		if !out.JSON() {
			printScenario(out, s, res)
		}
	}

	if history != nil {
		if _, err := history.FinishRun(ctx, runID); err != nil {
			return out.Fail(ExitCommandError, ErrCodeHistory, "failed to finish run", err)
		}
	}

	if out.JSON() {
		return outputTestJSON(out, result)
	}
	return outputTestText(out, result)
}

// selectScenarios loads scenarios from dir, the configured scenario_dir, or
// the built-in set, in that order of preference.
func selectScenarios(cfg config.Config, dir, filter string) ([]*harness.Scenario, error) {
	if dir == "" {
		dir = cfg.ScenarioDir
	}

	var scenarios []*harness.Scenario
	var err error
	if dir == "" {
		scenarios, err = harness.BuiltinScenarios()
	} else {
		info, statErr := os.Stat(dir)
		if statErr != nil {
			return nil, fmt.Errorf("scenarios directory not found: %s", dir)
		}
		if !info.IsDir() {
			return nil, fmt.Errorf("not a directory: %s", dir)
		}
		scenarios, err = harness.LoadScenarios(dir)
	}
	if err != nil {
		return nil, err
	}
	return harness.FilterScenarios(scenarios, filter)
}

// checkGolden compares or rewrites the listing snapshot of res.
func checkGolden(opts *TestOptions, res *harness.Result) error {
	snapshot, err := harness.SnapshotListing(res.Name, res.Listing)
	if err != nil {
		return err
	}
	path := filepath.Join(opts.GoldenDir, res.Name+".golden")

	if opts.Update {
		if err := os.MkdirAll(opts.GoldenDir, 0o755); err != nil {
			return fmt.Errorf("failed to create golden directory: %w", err)
		}
		if err := os.WriteFile(path, snapshot, 0o644); err != nil {
			return fmt.Errorf("failed to write golden file: %w", err)
		}
		return nil
	}

	want, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read golden file: %w", err)
	}
	if !bytes.Equal(want, snapshot) {
		return fmt.Errorf("listing does not match %s:\n  want: %s\n  got:  %s", path, want, snapshot)
	}
	return nil
}

func printScenario(out *OutputFormatter, s *harness.Scenario, res *harness.Result) {
	fmt.Fprintln(out.Writer, statusLine(res.Pass, fmt.Sprintf("%s %s", s.Name, dim(s.Description))))
	for _, e := range res.Errors {
		fmt.Fprintf(out.Writer, "  %s\n", e)
	}
	if out.Verbose {
		for _, ev := range res.Trace {
			fmt.Fprintf(out.Writer, "  %s\n", dim(formatEvent(ev)))
		}
	}
}

// outputTestJSON outputs the test result as JSON.
func outputTestJSON(out *OutputFormatter, result TestResult) error {
	response := CLIResponse{
		Status: "ok",
		Data:   result,
		RunID:  result.RunID,
	}

	if result.Failed > 0 {
		response.Status = "error"
		response.Error = &CLIError{
			Code:    "E_TEST_FAILED",
			Message: fmt.Sprintf("%d scenario(s) failed", result.Failed),
		}
	}

	if err := out.encode(response); err != nil {
		return err
	}

	if result.Failed > 0 {
		return reportedExitError(ExitFailure, fmt.Sprintf("%d scenario(s) failed", result.Failed), nil)
	}
	return nil
}

// outputTestText outputs the test summary as text.
func outputTestText(out *OutputFormatter, result TestResult) error {
	w := out.Writer

	fmt.Fprintln(w)
	fmt.Fprintf(w, "Test Summary: %d passed, %d failed, %d total\n", result.Passed, result.Failed, result.Total)
	if result.RunID != "" {
		fmt.Fprintf(w, "Run: %s\n", result.RunID)
	}

	if result.Failed > 0 {
		return reportedExitError(ExitFailure, fmt.Sprintf("%d scenario(s) failed", result.Failed), nil)
	}

	fmt.Fprintln(w, statusLine(true, "All scenarios passed"))
	return nil
}

func formatEvent(ev harness.TraceEvent) string {
	status := "?"
	switch {
	case ev.LaunchError != "":
		status = "launch error: " + ev.LaunchError
	case ev.ExitStatus != nil:
		status = fmt.Sprintf("exit %d", *ev.ExitStatus)
	}
	line := fmt.Sprintf("[%d] %s", ev.Seq, ev.Program)
	for _, a := range ev.Args {
		line += " " + a
	}
	return fmt.Sprintf("%s (%s, %dms)", line, status, ev.DurationMS)
}
