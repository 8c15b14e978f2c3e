package cli

import (
	"context"
	"errors"
	"fmt"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/vrymel/serverless-python-requirements/internal/harness"
	"github.com/vrymel/serverless-python-requirements/internal/store"
)

// HistoryOptions holds flags for the history command.
type HistoryOptions struct {
	*RootOptions
	Limit int
}

// RunDetail is one run with its cases.
type RunDetail struct {
	Run   store.Run         `json:"run"`
	Cases []*harness.Result `json:"cases"`
}

// NewHistoryCommand creates the history command.
func NewHistoryCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &HistoryOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "history [run-id]",
		Short: "Show recorded runs",
		Long: `List recorded runs, newest first, or show the cases and command
trace of one run. Requires --db or history_db in the configuration.

Examples:
  slsreq history --db history.db
  slsreq history --db history.db --limit 5
  slsreq history --db history.db 0190b7a4-...`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			runID := ""
			if len(args) == 1 {
				runID = args[0]
			}
			return runHistory(cmd, opts, runID)
		},
	}

	cmd.Flags().IntVar(&opts.Limit, "limit", 20, "maximum number of runs to list (0 = all)")

	return cmd
}

func runHistory(cmd *cobra.Command, opts *HistoryOptions, runID string) error {
	out := opts.formatter(cmd)
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	cfg, err := opts.loadConfig()
	if err != nil {
		return out.Fail(ExitCommandError, ErrCodeConfig, "failed to load configuration", err)
	}
	if cfg.HistoryDB == "" {
		return out.Fail(ExitCommandError, ErrCodeHistory, "no run-history database configured (use --db)", nil)
	}

	st, err := store.Open(cfg.HistoryDB)
	if err != nil {
		return out.Fail(ExitCommandError, ErrCodeHistory, "failed to open run history", err)
	}
	defer st.Close()

	if runID != "" {
		return showRun(ctx, out, st, runID)
	}

	runs, err := st.ListRuns(ctx, opts.Limit)
	if err != nil {
		return out.Fail(ExitCommandError, ErrCodeHistory, "failed to list runs", err)
	}

	if out.JSON() {
		return out.Success(runs)
	}
	if len(runs) == 0 {
		fmt.Fprintln(out.Writer, "No runs recorded.")
		return nil
	}

	tw := tabwriter.NewWriter(out.Writer, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "RUN\tSTARTED\tPASSED\tFAILED\tFILTER")
	for _, r := range runs {
		fmt.Fprintf(tw, "%s\t%s\t%d\t%d\t%s\n", r.ID, r.StartedAt.Format(time.RFC3339), r.Passed, r.Failed, r.Filter)
	}
	return tw.Flush()
}

func showRun(ctx context.Context, out *OutputFormatter, st *store.Store, runID string) error {
	run, err := st.GetRun(ctx, runID)
	if errors.Is(err, store.ErrRunNotFound) {
		return out.Fail(ExitCommandError, ErrCodeHistory, fmt.Sprintf("run %s not found", runID), nil)
	}
	if err != nil {
		return out.Fail(ExitCommandError, ErrCodeHistory, "failed to read run", err)
	}

	cases, err := st.RunCases(ctx, runID)
	if err != nil {
		return out.Fail(ExitCommandError, ErrCodeHistory, "failed to read cases", err)
	}

	if out.JSON() {
		return out.Success(RunDetail{Run: run, Cases: cases})
	}

	fmt.Fprintf(out.Writer, "Run %s started %s: %d passed, %d failed\n",
		run.ID, run.StartedAt.Format(time.RFC3339), run.Passed, run.Failed)
	for _, c := range cases {
		fmt.Fprintln(out.Writer, statusLine(c.Pass, c.Name))
		for _, e := range c.Errors {
			fmt.Fprintf(out.Writer, "  %s\n", e)
		}
		for _, ev := range c.Trace {
			fmt.Fprintf(out.Writer, "  %s\n", dim(formatEvent(ev)))
		}
	}
	return nil
}
