package command

import (
	"bytes"
	"errors"
	"io"
	"log/slog"
	"os"
	"os/exec"
	"strings"
	"time"
	"unicode"
)

// Outcome is the normalized result of one program invocation.
// After Exec returns, exactly one of LaunchErr and ExitStatus is set.
type Outcome struct {
	ExitStatus *int
	Stdout     []byte
	Stderr     []byte
	LaunchErr  error
}

// Err converts the outcome into the error a caller must surface, or nil when
// the program exited zero.
func (o Outcome) Err(program string) error {
	if o.LaunchErr != nil {
		return o.LaunchErr
	}
	if o.ExitStatus != nil && *o.ExitStatus != 0 {
		return &ExitError{
			Program: program,
			Status:  *o.ExitStatus,
			Stdout:  o.Stdout,
			Stderr:  o.Stderr,
		}
	}
	return nil
}

// Invocation describes a completed call, as reported to an Observer.
type Invocation struct {
	Program  string
	Args     []string
	Dir      string
	Outcome  Outcome
	Started  time.Time
	Duration time.Duration
}

// Observer receives every completed invocation of a Runner.
type Observer interface {
	Observe(inv Invocation)
}

// ObserverFunc adapts a function to the Observer interface.
type ObserverFunc func(inv Invocation)

// Observe implements Observer.
func (f ObserverFunc) Observe(inv Invocation) { f(inv) }

// Option customizes a single invocation.
type Option func(*callOptions)

type callOptions struct {
	dir   string
	env   Overlay
	stdin io.Reader
}

// WithDir runs the program in dir instead of the current working directory.
func WithDir(dir string) Option {
	return func(o *callOptions) { o.dir = dir }
}

// WithEnv layers overlay over the runner's environment for this call only.
func WithEnv(overlay Overlay) Option {
	return func(o *callOptions) { o.env = overlay }
}

// WithStdin feeds r to the program's standard input.
func WithStdin(r io.Reader) Option {
	return func(o *callOptions) { o.stdin = r }
}

// Runner executes one fixed program.
type Runner struct {
	Program string

	// Logger receives debug records for every call and error records with
	// the captured streams of failed calls. Nil discards.
	Logger *slog.Logger

	// Observer, when set, is notified after every call.
	Observer Observer

	// Environ returns the ambient environment. Defaults to os.Environ.
	Environ func() []string

	now func() time.Time
}

// New creates a Runner bound to program.
func New(program string) *Runner {
	return &Runner{Program: program}
}

// Exec runs the program with args and returns the raw outcome.
// It blocks until the child terminates.
func (r *Runner) Exec(args []string, opts ...Option) Outcome {
	var o callOptions
	for _, opt := range opts {
		opt(&o)
	}

	if r.Program == "" {
		return Outcome{LaunchErr: ErrEmptyProgram}
	}

	ambient := r.environ()
	overlays := append(DefaultOverlays(ambient), o.env)

	// #nosec G204 - the harness only runs its own fixed tool names
	cmd := exec.Command(r.Program, args...)
	cmd.Dir = o.dir
	cmd.Env = BuildEnv(ambient, overlays...)
	cmd.Stdin = o.stdin

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	r.logger().Debug("running command",
		"program", r.Program,
		"args", args,
		"dir", o.dir,
	)

	started := r.clock()
	runErr := cmd.Run()
	duration := r.clock().Sub(started)

	outcome := Outcome{Stdout: stdout.Bytes(), Stderr: stderr.Bytes()}
	var exitErr *exec.ExitError
	switch {
	case runErr == nil:
		status := 0
		outcome.ExitStatus = &status
	case errors.As(runErr, &exitErr):
		status := exitErr.ExitCode()
		outcome.ExitStatus = &status
	default:
		outcome.LaunchErr = runErr
	}

	if r.Observer != nil {
		r.Observer.Observe(Invocation{
			Program:  r.Program,
			Args:     append([]string(nil), args...),
			Dir:      o.dir,
			Outcome:  outcome,
			Started:  started,
			Duration: duration,
		})
	}

	return outcome
}

// Run executes the program and returns its standard output with trailing
// whitespace trimmed. Launch failures are returned unmodified; a non-zero
// exit is returned as an *ExitError after both streams are logged.
func (r *Runner) Run(args []string, opts ...Option) (string, error) {
	outcome := r.Exec(args, opts...)
	if err := outcome.Err(r.Program); err != nil {
		if outcome.LaunchErr != nil {
			r.logger().Error("command could not be launched",
				"program", r.Program,
				"error", outcome.LaunchErr,
			)
		} else {
			r.logger().Error("command failed",
				"program", r.Program,
				"args", args,
				"status", *outcome.ExitStatus,
				"stdout", string(outcome.Stdout),
				"stderr", string(outcome.Stderr),
			)
		}
		return "", err
	}
	return strings.TrimRightFunc(string(outcome.Stdout), unicode.IsSpace), nil
}

func (r *Runner) environ() []string {
	if r.Environ != nil {
		return r.Environ()
	}
	return os.Environ()
}

func (r *Runner) logger() *slog.Logger {
	if r.Logger != nil {
		return r.Logger
	}
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func (r *Runner) clock() time.Time {
	if r.now != nil {
		return r.now()
	}
	return time.Now()
}
