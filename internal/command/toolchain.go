package command

import "log/slog"

// Default program names for the four tools the harness drives.
const (
	ProgramSls   = "sls"
	ProgramGit   = "git"
	ProgramNpm   = "npm"
	ProgramUnzip = "unzip"
)

// Programs names the executables backing a Toolchain.
type Programs struct {
	Sls   string `mapstructure:"sls"`
	Git   string `mapstructure:"git"`
	Npm   string `mapstructure:"npm"`
	Unzip string `mapstructure:"unzip"`
}

// DefaultPrograms returns the standard executable names.
func DefaultPrograms() Programs {
	return Programs{
		Sls:   ProgramSls,
		Git:   ProgramGit,
		Npm:   ProgramNpm,
		Unzip: ProgramUnzip,
	}
}

// withDefaults fills empty names from DefaultPrograms.
func (p Programs) withDefaults() Programs {
	d := DefaultPrograms()
	if p.Sls == "" {
		p.Sls = d.Sls
	}
	if p.Git == "" {
		p.Git = d.Git
	}
	if p.Npm == "" {
		p.Npm = d.Npm
	}
	if p.Unzip == "" {
		p.Unzip = d.Unzip
	}
	return p
}

// Toolchain groups the four runners a scenario needs.
type Toolchain struct {
	Sls   *Runner
	Git   *Runner
	Npm   *Runner
	Unzip *Runner
}

// NewToolchain builds a Toolchain for programs, sharing logger across runners.
// Empty program names fall back to the defaults.
func NewToolchain(programs Programs, logger *slog.Logger) *Toolchain {
	programs = programs.withDefaults()
	tc := &Toolchain{
		Sls:   New(programs.Sls),
		Git:   New(programs.Git),
		Npm:   New(programs.Npm),
		Unzip: New(programs.Unzip),
	}
	for _, r := range tc.runners() {
		r.Logger = logger
	}
	return tc
}

// SetObserver attaches obs to every runner. Passing nil detaches.
func (tc *Toolchain) SetObserver(obs Observer) {
	for _, r := range tc.runners() {
		r.Observer = obs
	}
}

func (tc *Toolchain) runners() []*Runner {
	return []*Runner{tc.Sls, tc.Git, tc.Npm, tc.Unzip}
}
