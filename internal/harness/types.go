package harness

import (
	"fmt"
	"log/slog"

	"github.com/vrymel/serverless-python-requirements/internal/command"
)

// TB is the assertion handle a scenario body receives. *testing.T satisfies
// it, as does Recorder.
type TB interface {
	Helper()
	Errorf(format string, args ...any)
	Logf(format string, args ...any)
	Failed() bool
}

// Body is a test-case body. Returned errors fail the case; assertion
// failures are recorded through t and do not stop the body.
type Body func(t TB, env *Env) error

// TraceEvent records one external command a case ran.
type TraceEvent struct {
	Seq         int64    `json:"seq"`
	Program     string   `json:"program"`
	Args        []string `json:"args"`
	Dir         string   `json:"dir,omitempty"`
	ExitStatus  *int     `json:"exit_status,omitempty"`
	LaunchError string   `json:"launch_error,omitempty"`
	DurationMS  int64    `json:"duration_ms"`
}

// Result is the outcome of one scenario run outside of go test.
type Result struct {
	// Name is the scenario name.
	Name string `json:"name"`

	// Pass is true until an error is recorded.
	Pass bool `json:"pass"`

	// Trace lists every command the case ran, in order.
	Trace []TraceEvent `json:"trace"`

	// Errors holds assertion failures and the case error, if any.
	Errors []string `json:"errors,omitempty"`

	// Listing holds the entries of the extracted artifact directory, when
	// the case got that far.
	Listing []string `json:"listing,omitempty"`
}

// NewResult creates a passing result for name.
func NewResult(name string) *Result {
	return &Result{
		Name:   name,
		Pass:   true,
		Trace:  []TraceEvent{},
		Errors: []string{},
	}
}

// AddError records a failure and marks the result as failed.
func (r *Result) AddError(err string) {
	r.Errors = append(r.Errors, err)
	r.Pass = false
}

// AddInvocation appends a completed command to the trace.
func (r *Result) AddInvocation(inv command.Invocation) {
	event := TraceEvent{
		Seq:        int64(len(r.Trace) + 1),
		Program:    inv.Program,
		Args:       inv.Args,
		Dir:        inv.Dir,
		ExitStatus: inv.Outcome.ExitStatus,
		DurationMS: inv.Duration.Milliseconds(),
	}
	if inv.Outcome.LaunchErr != nil {
		event.LaunchError = inv.Outcome.LaunchErr.Error()
	}
	r.Trace = append(r.Trace, event)
}

// Recorder is a TB that collects failures into a Result.
type Recorder struct {
	result *Result
	logger *slog.Logger
}

// NewRecorder creates a Recorder writing into result.
func NewRecorder(result *Result, logger *slog.Logger) *Recorder {
	if logger == nil {
		logger = discardLogger()
	}
	return &Recorder{result: result, logger: logger}
}

func (r *Recorder) Helper() {}

func (r *Recorder) Errorf(format string, args ...any) {
	r.result.AddError(fmt.Sprintf(format, args...))
}

func (r *Recorder) Logf(format string, args ...any) {
	r.logger.Debug(fmt.Sprintf(format, args...), "scenario", r.result.Name)
}

func (r *Recorder) Failed() bool {
	return !r.result.Pass
}
