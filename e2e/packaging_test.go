//go:build e2e

// Package e2e runs the built-in packaging scenarios against the real
// serverless, npm, git and unzip binaries.
//
// Point SLSREQ_PLUGIN_ROOT at a serverless-python-requirements checkout and
// run:
//
//	go test -tags e2e ./e2e/...
package e2e

import (
	"log/slog"
	"os"
	"os/exec"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/vrymel/serverless-python-requirements/internal/config"
	"github.com/vrymel/serverless-python-requirements/internal/harness"
	"github.com/vrymel/serverless-python-requirements/internal/testutil"
)

const pluginRootEnv = "SLSREQ_PLUGIN_ROOT"

func TestBuiltinScenarios(t *testing.T) {
	root := os.Getenv(pluginRootEnv)
	if root == "" {
		t.Skipf("%s is not set", pluginRootEnv)
	}

	cfg, err := config.Load(config.LoadOptions{WorkingDirectory: root})
	require.NoError(t, err)

	for _, program := range []string{cfg.Programs.Sls, cfg.Programs.Npm, cfg.Programs.Git, cfg.Programs.Unzip} {
		if _, err := exec.LookPath(program); err != nil {
			t.Skipf("%s not found on PATH", program)
		}
	}

	testutil.Chdir(t, root)

	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelInfo}))
	lc, err := harness.New(cfg.HarnessOptions(logger))
	require.NoError(t, err)

	scenarios, err := harness.BuiltinScenarios()
	require.NoError(t, err)

	for _, s := range scenarios {
		lc.Test(t, s.Description, s.Body())
	}
}
