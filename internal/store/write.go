package store

import (
	"context"
	"fmt"
	"time"

	"github.com/vrymel/serverless-python-requirements/internal/harness"
)

// Run is one invocation of the scenario suite.
type Run struct {
	ID         string     `json:"id"`
	StartedAt  time.Time  `json:"started_at"`
	FinishedAt *time.Time `json:"finished_at,omitempty"`
	Filter     string     `json:"filter,omitempty"`
	Passed     int        `json:"passed"`
	Failed     int        `json:"failed"`
}

// BeginRun inserts a new run and returns it.
func (s *Store) BeginRun(ctx context.Context, filter string) (Run, error) {
	run := Run{
		ID:        s.newID(),
		StartedAt: s.now().UTC(),
		Filter:    filter,
	}

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO runs (id, started_at, filter)
		VALUES (?, ?, ?)
	`, run.ID, formatTime(run.StartedAt), run.Filter)
	if err != nil {
		return Run{}, fmt.Errorf("begin run: %w", err)
	}

	return run, nil
}

// WriteCase stores a scenario result and its command trace under runID.
// seq orders cases within the run. The case and its commands are written
// in one transaction.
func (s *Store) WriteCase(ctx context.Context, runID string, seq int, result *harness.Result) error {
	errorsJSON, err := marshalStrings(result.Errors)
	if err != nil {
		return fmt.Errorf("write case: %w", err)
	}
	listingJSON, err := marshalStrings(result.Listing)
	if err != nil {
		return fmt.Errorf("write case: %w", err)
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("write case: %w", err)
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx, `
		INSERT INTO cases (run_id, seq, scenario, pass, errors, listing)
		VALUES (?, ?, ?, ?, ?, ?)
	`, runID, seq, result.Name, boolToInt(result.Pass), errorsJSON, listingJSON)
	if err != nil {
		return fmt.Errorf("write case: %w", err)
	}

	for _, ev := range result.Trace {
		argsJSON, err := marshalStrings(ev.Args)
		if err != nil {
			return fmt.Errorf("write command: %w", err)
		}
		_, err = tx.ExecContext(ctx, `
			INSERT INTO commands
			(run_id, case_seq, seq, program, args, dir, exit_status, launch_error, duration_ms)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
		`, runID, seq, ev.Seq, ev.Program, argsJSON, ev.Dir, ev.ExitStatus, ev.LaunchError, ev.DurationMS)
		if err != nil {
			return fmt.Errorf("write command: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("write case: %w", err)
	}
	return nil
}

// FinishRun stamps the run as finished and tallies its cases.
func (s *Store) FinishRun(ctx context.Context, runID string) (Run, error) {
	res, err := s.db.ExecContext(ctx, `
		UPDATE runs SET
			finished_at = ?,
			passed = (SELECT COUNT(*) FROM cases WHERE run_id = runs.id AND pass = 1),
			failed = (SELECT COUNT(*) FROM cases WHERE run_id = runs.id AND pass = 0)
		WHERE id = ?
	`, formatTime(s.now()), runID)
	if err != nil {
		return Run{}, fmt.Errorf("finish run: %w", err)
	}

	n, err := res.RowsAffected()
	if err != nil {
		return Run{}, fmt.Errorf("finish run: %w", err)
	}
	if n == 0 {
		return Run{}, fmt.Errorf("finish run %s: %w", runID, ErrRunNotFound)
	}

	return s.GetRun(ctx, runID)
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
