package harness

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"runtime"
	"testing"

	"github.com/vrymel/serverless-python-requirements/internal/command"
	"github.com/vrymel/serverless-python-requirements/internal/fixture"
)

// Layout names the paths a case touches, relative to the directory the
// harness was started from.
type Layout struct {
	// ProjectDir is the fixture serverless project.
	ProjectDir string `mapstructure:"project_dir"`

	// PluginDir is the plugin checkout, relative to ProjectDir.
	PluginDir string `mapstructure:"plugin_dir"`

	// ConfigFile is the tracked file reverted with `git checkout` after
	// every case, relative to ProjectDir.
	ConfigFile string `mapstructure:"config_file"`

	// Artifact is the package `sls package` writes, relative to ProjectDir.
	Artifact string `mapstructure:"artifact"`

	// SpaceDir is removed after every case.
	SpaceDir string `mapstructure:"space_dir"`
}

// DefaultLayout returns the plugin repository layout.
func DefaultLayout() Layout {
	return Layout{
		ProjectDir: filepath.Join("tests", "base"),
		PluginDir:  filepath.Join("..", ".."),
		ConfigFile: "serverless.yml",
		Artifact:   filepath.Join(".serverless", "sls-py-req-test.zip"),
		SpaceDir:   filepath.Join("tests", "base with a space"),
	}
}

func (l Layout) withDefaults() Layout {
	d := DefaultLayout()
	if l.ProjectDir == "" {
		l.ProjectDir = d.ProjectDir
	}
	if l.PluginDir == "" {
		l.PluginDir = d.PluginDir
	}
	if l.ConfigFile == "" {
		l.ConfigFile = d.ConfigFile
	}
	if l.Artifact == "" {
		l.Artifact = d.Artifact
	}
	if l.SpaceDir == "" {
		l.SpaceDir = d.SpaceDir
	}
	return l
}

// Env is the context a case body runs in. A fresh copy is handed to every
// case.
type Env struct {
	// OriginalDir is the working directory captured when the harness
	// started. Every case ends back in it.
	OriginalDir string

	// CachePath is the user cache directory evicted around the case.
	CachePath string

	Layout Layout
	Tools  *command.Toolchain
	Logger *slog.Logger

	// GOOS selects interpreter paths.
	GOOS string

	// Listing is set by the body to the entries of the extracted artifact.
	Listing []string

	// Fixtures are case-scoped paths, relative to the project, that a body
	// created outside the standard registry. Teardown purges them too.
	Fixtures []fixture.Path
}

// ProjectPath returns the absolute fixture project directory.
func (e *Env) ProjectPath() string {
	return filepath.Join(e.OriginalDir, e.Layout.ProjectDir)
}

// Options configures a Lifecycle. Zero values select the defaults.
type Options struct {
	Layout Layout

	// Tools defaults to command.NewToolchain with the standard programs.
	Tools *command.Toolchain

	// CachePath defaults to fixture.UserCachePath. It is queried on every
	// setup and teardown.
	CachePath fixture.CachePathFunc

	// ExtraFixtures are appended to the standard registry.
	ExtraFixtures []fixture.Path

	Logger *slog.Logger

	// GOOS defaults to runtime.GOOS.
	GOOS string

	// OriginalDir defaults to the current working directory.
	OriginalDir string
}

// Lifecycle wraps case bodies with setup and guaranteed teardown.
type Lifecycle struct {
	originalDir string
	layout      Layout
	tools       *command.Toolchain
	cachePath   fixture.CachePathFunc
	extra       []fixture.Path
	logger      *slog.Logger
	goos        string
}

// New creates a Lifecycle. The working directory is captured here, once.
func New(opts Options) (*Lifecycle, error) {
	originalDir := opts.OriginalDir
	if originalDir == "" {
		wd, err := os.Getwd()
		if err != nil {
			return nil, fmt.Errorf("failed to capture working directory: %w", err)
		}
		originalDir = wd
	}
	abs, err := filepath.Abs(originalDir)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve %s: %w", originalDir, err)
	}

	logger := opts.Logger
	if logger == nil {
		logger = discardLogger()
	}

	tools := opts.Tools
	if tools == nil {
		tools = command.NewToolchain(command.DefaultPrograms(), logger)
	}

	cachePath := opts.CachePath
	if cachePath == nil {
		cachePath = fixture.UserCachePath
	}

	goos := opts.GOOS
	if goos == "" {
		goos = runtime.GOOS
	}

	return &Lifecycle{
		originalDir: abs,
		layout:      opts.Layout.withDefaults(),
		tools:       tools,
		cachePath:   cachePath,
		extra:       append([]fixture.Path(nil), opts.ExtraFixtures...),
		logger:      logger,
		goos:        goos,
	}, nil
}

// OriginalDir returns the directory captured by New.
func (l *Lifecycle) OriginalDir() string { return l.originalDir }

// Tools returns the toolchain handed to case bodies.
func (l *Lifecycle) Tools() *command.Toolchain { return l.tools }

// Registry returns the fixture registry teardown purges, with the cache
// directory resolved now.
func (l *Lifecycle) Registry() (*fixture.Registry, error) {
	cachePath, err := l.cachePath()
	if err != nil {
		return nil, err
	}
	reg := fixture.DefaultRegistry(cachePath)
	reg.Add(l.extra...)
	return reg, nil
}

// Run executes body between setup and teardown. The returned error joins
// the setup or body error with any teardown error.
func (l *Lifecycle) Run(t TB, body Body) error {
	_, err := l.run(t, body)
	return err
}

func (l *Lifecycle) run(t TB, body Body) (env *Env, err error) {
	env = l.newEnv()

	defer func() {
		if terr := l.teardown(env); terr != nil {
			l.logger.Error("teardown failed", "error", terr)
			err = errors.Join(err, fmt.Errorf("teardown: %w", terr))
		}
	}()

	if err := l.setup(env); err != nil {
		return env, fmt.Errorf("setup: %w", err)
	}

	return env, body(t, env)
}

// Test registers body as a subtest named desc.
func (l *Lifecycle) Test(t *testing.T, desc string, body Body) bool {
	t.Helper()
	return t.Run(desc, func(t *testing.T) {
		if err := l.Run(t, body); err != nil {
			t.Fatal(err)
		}
	})
}

// RunScenario runs s outside of go test, recording the command trace and
// every failure in the returned Result. A panicking body is recovered after
// teardown and reported as a failure.
func (l *Lifecycle) RunScenario(s *Scenario) *Result {
	result := NewResult(s.Name)
	rec := NewRecorder(result, l.logger)

	l.tools.SetObserver(command.ObserverFunc(result.AddInvocation))
	defer l.tools.SetObserver(nil)

	var env *Env
	err := func() (err error) {
		defer func() {
			if r := recover(); r != nil {
				err = fmt.Errorf("panic: %v", r)
			}
		}()
		env, err = l.run(rec, s.Body())
		return err
	}()

	if env != nil {
		result.Listing = env.Listing
	}
	if err != nil {
		result.AddError(err.Error())
	}

	l.logger.Info("scenario finished",
		"scenario", s.Name,
		"pass", result.Pass,
		"commands", len(result.Trace),
	)
	return result
}

func (l *Lifecycle) newEnv() *Env {
	return &Env{
		OriginalDir: l.originalDir,
		Layout:      l.layout,
		Tools:       l.tools,
		Logger:      l.logger,
		GOOS:        l.goos,
	}
}

// setup evicts the user cache directory.
func (l *Lifecycle) setup(env *Env) error {
	path, err := fixture.EvictCache(l.cachePath)
	if err != nil {
		return err
	}
	env.CachePath = path
	l.logger.Debug("evicted cache", "path", path)
	return nil
}

// teardown restores the clean state. Every step runs even if an earlier
// one failed.
func (l *Lifecycle) teardown(env *Env) error {
	var errs []error
	project := env.ProjectPath()

	reg, err := l.Registry()
	if err != nil {
		errs = append(errs, fmt.Errorf("failed to resolve cache path: %w", err))
		reg = fixture.NewRegistry(fixture.StandardPaths()...)
		reg.Add(l.extra...)
	}
	reg.Add(env.Fixtures...)
	if err := reg.Purge(project); err != nil {
		errs = append(errs, err)
	}

	if _, err := l.tools.Git.Run([]string{"checkout", l.layout.ConfigFile}, command.WithDir(project)); err != nil {
		errs = append(errs, fmt.Errorf("failed to revert %s: %w", l.layout.ConfigFile, err))
	}

	if err := os.Chdir(env.OriginalDir); err != nil {
		errs = append(errs, fmt.Errorf("failed to restore working directory: %w", err))
	}

	if err := fixture.Remove(filepath.Join(env.OriginalDir, l.layout.SpaceDir)); err != nil {
		errs = append(errs, err)
	}

	return errors.Join(errs...)
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}
