package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/vrymel/serverless-python-requirements/internal/harness"
)

// rowScanner is satisfied by *sql.Row and *sql.Rows.
type rowScanner interface {
	Scan(dest ...any) error
}

// GetRun returns a single run.
func (s *Store) GetRun(ctx context.Context, runID string) (Run, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT id, started_at, finished_at, filter, passed, failed
		FROM runs
		WHERE id = ?
	`, runID)

	run, err := scanRun(row)
	if errors.Is(err, sql.ErrNoRows) {
		return Run{}, fmt.Errorf("run %s: %w", runID, ErrRunNotFound)
	}
	return run, err
}

// ListRuns returns the most recent runs, newest first. A non-positive
// limit returns every run.
func (s *Store) ListRuns(ctx context.Context, limit int) ([]Run, error) {
	if limit <= 0 {
		limit = -1
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT id, started_at, finished_at, filter, passed, failed
		FROM runs
		ORDER BY started_at DESC, id COLLATE BINARY DESC
		LIMIT ?
	`, limit)
	if err != nil {
		return nil, fmt.Errorf("query runs: %w", err)
	}
	defer rows.Close()

	runs := []Run{}
	for rows.Next() {
		run, err := scanRun(rows)
		if err != nil {
			return nil, err
		}
		runs = append(runs, run)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate runs: %w", err)
	}
	return runs, nil
}

// RunCases returns the results recorded for a run, in case order, each
// with its command trace.
func (s *Store) RunCases(ctx context.Context, runID string) ([]*harness.Result, error) {
	if _, err := s.GetRun(ctx, runID); err != nil {
		return nil, err
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT seq, scenario, pass, errors, listing
		FROM cases
		WHERE run_id = ?
		ORDER BY seq ASC
	`, runID)
	if err != nil {
		return nil, fmt.Errorf("query cases: %w", err)
	}

	type caseRow struct {
		seq    int
		result *harness.Result
	}
	var cases []caseRow
	for rows.Next() {
		var (
			seq                 int
			name, errs, listing string
			pass                int
		)
		if err := rows.Scan(&seq, &name, &pass, &errs, &listing); err != nil {
			rows.Close()
			return nil, fmt.Errorf("scan case: %w", err)
		}
		result := harness.NewResult(name)
		result.Pass = pass == 1
		if result.Errors, err = unmarshalStrings(errs); err != nil {
			rows.Close()
			return nil, err
		}
		list, err := unmarshalStrings(listing)
		if err != nil {
			rows.Close()
			return nil, err
		}
		if len(list) > 0 {
			result.Listing = list
		}
		cases = append(cases, caseRow{seq: seq, result: result})
	}
	if err := rows.Err(); err != nil {
		rows.Close()
		return nil, fmt.Errorf("iterate cases: %w", err)
	}
	rows.Close()

	results := make([]*harness.Result, 0, len(cases))
	for _, c := range cases {
		trace, err := s.caseCommands(ctx, runID, c.seq)
		if err != nil {
			return nil, err
		}
		c.result.Trace = trace
		results = append(results, c.result)
	}
	return results, nil
}

// caseCommands returns the trace of one case ordered by seq.
func (s *Store) caseCommands(ctx context.Context, runID string, caseSeq int) ([]harness.TraceEvent, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT seq, program, args, dir, exit_status, launch_error, duration_ms
		FROM commands
		WHERE run_id = ? AND case_seq = ?
		ORDER BY seq ASC
	`, runID, caseSeq)
	if err != nil {
		return nil, fmt.Errorf("query commands: %w", err)
	}
	defer rows.Close()

	trace := []harness.TraceEvent{}
	for rows.Next() {
		var (
			ev     harness.TraceEvent
			args   string
			status sql.NullInt64
		)
		if err := rows.Scan(&ev.Seq, &ev.Program, &args, &ev.Dir, &status, &ev.LaunchError, &ev.DurationMS); err != nil {
			return nil, fmt.Errorf("scan command: %w", err)
		}
		if ev.Args, err = unmarshalStrings(args); err != nil {
			return nil, err
		}
		if status.Valid {
			code := int(status.Int64)
			ev.ExitStatus = &code
		}
		trace = append(trace, ev)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate commands: %w", err)
	}
	return trace, nil
}

func scanRun(row rowScanner) (Run, error) {
	var (
		run      Run
		started  string
		finished sql.NullString
	)
	if err := row.Scan(&run.ID, &started, &finished, &run.Filter, &run.Passed, &run.Failed); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Run{}, err
		}
		return Run{}, fmt.Errorf("scan run: %w", err)
	}

	var err error
	if run.StartedAt, err = parseTime(started); err != nil {
		return Run{}, err
	}
	if finished.Valid {
		t, err := parseTime(finished.String)
		if err != nil {
			return Run{}, err
		}
		run.FinishedAt = &t
	}
	return run, nil
}
