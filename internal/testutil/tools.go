package testutil

import (
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"testing"
)

// Environment variables understood by the fake tools.
const (
	// FakeLogEnv names the file every fake tool appends "<tool> <args>" to.
	FakeLogEnv = "SLSREQ_FAKE_LOG"
	// FakeSlsExitEnv makes the fake sls exit with the given status.
	FakeSlsExitEnv = "FAKE_SLS_EXIT"
	// FakeGitExitEnv makes the fake git exit with the given status.
	FakeGitExitEnv = "FAKE_GIT_EXIT"
)

// FakePackageName is the tarball the fake npm "packs".
const FakePackageName = "serverless-python-requirements-4.0.0.tgz"

const fakeSls = `#!/bin/sh
echo "sls $*" >> "${SLSREQ_FAKE_LOG:-/dev/null}"
if [ -n "$FAKE_SLS_EXIT" ]; then
  echo "packaging exploded" >&2
  exit "$FAKE_SLS_EXIT"
fi
zip=false
slim=false
for arg in "$@"; do
  case "$arg" in
    --zip=true) zip=true ;;
    --slim=true) slim=true ;;
  esac
done
mkdir -p .serverless
out=.serverless/sls-py-req-test.zip
echo "handler.py" > "$out"
if [ "$zip" = true ]; then
  echo ".requirements.zip" >> "$out"
  echo "unzip_requirements.py" >> "$out"
else
  echo "flask/__init__.py" >> "$out"
  if [ "$slim" != true ]; then
    echo "flask/__pycache__/__init__.cpython-36.pyc" >> "$out"
  fi
fi
`

// fakeUnzip treats the "archive" as a manifest of entries to create.
const fakeUnzip = `#!/bin/sh
echo "unzip $*" >> "${SLSREQ_FAKE_LOG:-/dev/null}"
src="$1"
dest="$3"
if [ ! -f "$src" ]; then
  echo "unzip: cannot find $src" >&2
  exit 9
fi
while IFS= read -r entry; do
  mkdir -p "$dest/$(dirname "$entry")"
  : > "$dest/$entry"
done < "$src"
`

const fakeNpm = `#!/bin/sh
echo "npm $*" >> "${SLSREQ_FAKE_LOG:-/dev/null}"
case "$1" in
  pack)
    : > "` + FakePackageName + `"
    echo "` + FakePackageName + `"
    ;;
  i|install)
    mkdir -p node_modules/serverless-python-requirements
    : > package-lock.json
    ;;
esac
`

const fakeGit = `#!/bin/sh
echo "git $*" >> "${SLSREQ_FAKE_LOG:-/dev/null}"
if [ -n "$FAKE_GIT_EXIT" ]; then
  echo "git: pathspec did not match" >&2
  exit "$FAKE_GIT_EXIT"
fi
`

// FakeTools is a set of shell-script stand-ins for sls, npm, git and unzip
// installed at the front of PATH.
type FakeTools struct {
	BinDir  string
	LogPath string
}

// RequirePOSIXShell skips the test on platforms without /bin/sh.
func RequirePOSIXShell(t testing.TB) {
	t.Helper()
	if runtime.GOOS == "windows" {
		t.Skip("fake tools are POSIX shell scripts")
	}
}

// InstallFakeTools writes the fake tools to a temp dir, prepends it to PATH
// and points SLSREQ_FAKE_LOG at a fresh log file. Environment changes are
// undone when the test ends.
func InstallFakeTools(t testing.TB) *FakeTools {
	t.Helper()
	RequirePOSIXShell(t)

	root := t.TempDir()
	binDir := filepath.Join(root, "bin")
	if err := os.MkdirAll(binDir, 0o755); err != nil {
		t.Fatalf("failed to create bin dir: %v", err)
	}

	WriteExecutable(t, binDir, "sls", fakeSls)
	WriteExecutable(t, binDir, "npm", fakeNpm)
	WriteExecutable(t, binDir, "git", fakeGit)
	WriteExecutable(t, binDir, "unzip", fakeUnzip)

	logPath := filepath.Join(root, "calls.log")
	t.Setenv("PATH", binDir+string(os.PathListSeparator)+os.Getenv("PATH"))
	t.Setenv(FakeLogEnv, logPath)

	return &FakeTools{BinDir: binDir, LogPath: logPath}
}

// Calls returns the recorded invocations, one "<tool> <args>" per entry.
func (f *FakeTools) Calls(t testing.TB) []string {
	t.Helper()
	data, err := os.ReadFile(f.LogPath)
	if os.IsNotExist(err) {
		return nil
	}
	if err != nil {
		t.Fatalf("failed to read fake tool log: %v", err)
	}
	trimmed := strings.TrimRight(string(data), "\n")
	if trimmed == "" {
		return nil
	}
	return strings.Split(trimmed, "\n")
}

// WriteExecutable writes script to dir/name with the executable bit set and
// returns its path.
func WriteExecutable(t testing.TB, dir, name, script string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, []byte(script), 0o755); err != nil {
		t.Fatalf("failed to write %s: %v", name, err)
	}
	return path
}

// NewPluginTree creates a temp directory laid out like the plugin repository
// (tests/base/serverless.yml) and returns its root.
func NewPluginTree(t testing.TB) string {
	t.Helper()
	root := t.TempDir()
	base := filepath.Join(root, "tests", "base")
	if err := os.MkdirAll(base, 0o755); err != nil {
		t.Fatalf("failed to create fixture project: %v", err)
	}
	if err := os.WriteFile(filepath.Join(base, "serverless.yml"), []byte("service: sls-py-req-test\n"), 0o644); err != nil {
		t.Fatalf("failed to write serverless.yml: %v", err)
	}
	return root
}

// Chdir switches the working directory to dir and restores the previous one
// when the test ends.
func Chdir(t testing.TB, dir string) {
	t.Helper()
	originalDir, err := os.Getwd()
	if err != nil {
		t.Fatalf("failed to getwd: %v", err)
	}
	if err := os.Chdir(dir); err != nil {
		t.Fatalf("failed to change working directory: %v", err)
	}
	t.Cleanup(func() {
		if err := os.Chdir(originalDir); err != nil {
			t.Fatalf("failed to restore working directory: %v", err)
		}
	})
}
