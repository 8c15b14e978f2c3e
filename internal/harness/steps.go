package harness

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/vrymel/serverless-python-requirements/internal/fixture"
)

// Body returns the case body for s:
//
//	cd <project>
//	npm pack <plugin>
//	npm i <artifact>
//	sls [--pythonBin=...] [--zip=true] [--slim=true] package
//	unzip <package> -d <extract dir>
//
// followed by the scenario assertions over the extracted directory.
// Assertion failures are reported through t; command failures are returned.
func (s *Scenario) Body() Body {
	return func(t TB, env *Env) error {
		t.Helper()

		args, err := s.PackageArgs(env.GOOS)
		if err != nil {
			return err
		}

		if err := EnterProject(env); err != nil {
			return err
		}

		artifact, err := PackPlugin(env)
		if err != nil {
			return err
		}

		if err := InstallPlugin(env, artifact); err != nil {
			return err
		}

		if err := Package(env, args); err != nil {
			return err
		}

		dir := s.extractDir()
		if err := Extract(env, dir); err != nil {
			return err
		}

		listing, err := ListDir(dir)
		if err != nil {
			return err
		}
		env.Listing = listing.Entries

		for _, failure := range EvaluateAssertions(listing, s.Assertions) {
			t.Errorf("%s: %v", s.Name, failure)
		}
		return nil
	}
}

// EnterProject changes into the fixture project directory.
func EnterProject(env *Env) error {
	if err := os.Chdir(env.ProjectPath()); err != nil {
		return fmt.Errorf("failed to enter fixture project: %w", err)
	}
	return nil
}

// PackPlugin runs `npm pack` on the plugin checkout and returns the tarball
// name, taken from the last line npm prints.
func PackPlugin(env *Env) (string, error) {
	out, err := env.Tools.Npm.Run([]string{"pack", env.Layout.PluginDir})
	if err != nil {
		return "", err
	}
	lines := strings.Split(out, "\n")
	artifact := strings.TrimSpace(lines[len(lines)-1])
	if artifact == "" {
		return "", fmt.Errorf("npm pack %s printed no artifact name", env.Layout.PluginDir)
	}
	env.Logger.Debug("packed plugin", "artifact", artifact)
	return artifact, nil
}

// InstallPlugin installs the packed plugin into the fixture project.
func InstallPlugin(env *Env, artifact string) error {
	_, err := env.Tools.Npm.Run([]string{"i", artifact})
	return err
}

// Package runs `sls` with args.
func Package(env *Env, args []string) error {
	_, err := env.Tools.Sls.Run(args)
	return err
}

// Extract unpacks the serverless package into dir, replacing anything a
// previous run left there. The outermost directory the unpack creates is
// recorded on env so teardown removes it.
func Extract(env *Env, dir string) error {
	env.Fixtures = append(env.Fixtures, fixture.Lit(createdRoot(dir)))
	if err := fixture.Remove(dir); err != nil {
		return err
	}
	_, err := env.Tools.Unzip.Run([]string{env.Layout.Artifact, "-d", dir})
	return err
}

// createdRoot returns the first component of the relative path dir that does
// not exist yet, or dir itself when every parent is already present.
func createdRoot(dir string) string {
	parts := strings.Split(filepath.Clean(dir), string(filepath.Separator))
	for i := range parts[:len(parts)-1] {
		prefix := filepath.Join(parts[:i+1]...)
		if !fixture.Exists(prefix) {
			return prefix
		}
	}
	return filepath.Clean(dir)
}
