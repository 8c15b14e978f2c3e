package fixture

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func touch(t *testing.T, path string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, nil, 0o644))
}

func TestParse(t *testing.T) {
	tests := []struct {
		in   string
		want Path
	}{
		{"puck", Lit("puck")},
		{".requirements.zip", Lit(".requirements.zip")},
		{"serverless-python-requirements-*.tgz", Glob("serverless-python-requirements-*.tgz")},
		{"puck/**/*.pyc", Glob("puck/**/*.pyc")},
		{"file?.txt", Glob("file?.txt")},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			assert.Equal(t, tt.want, Parse(tt.in))
		})
	}
}

func TestResolve_LiteralIsJoinedEvenWhenMissing(t *testing.T) {
	root := t.TempDir()
	got, err := Resolve(root, Lit("puck"))
	require.NoError(t, err)
	assert.Equal(t, []string{filepath.Join(root, "puck")}, got)
}

func TestResolve_AbsoluteLiteralUntouched(t *testing.T) {
	abs := filepath.Join(t.TempDir(), "cache")
	got, err := Resolve("/somewhere/else", Lit(abs))
	require.NoError(t, err)
	assert.Equal(t, []string{abs}, got)
}

func TestResolve_PatternRescansEveryCall(t *testing.T) {
	root := t.TempDir()
	p := Glob("serverless-python-requirements-*.tgz")

	got, err := Resolve(root, p)
	require.NoError(t, err)
	assert.Empty(t, got)

	touch(t, filepath.Join(root, "serverless-python-requirements-4.0.0.tgz"))
	touch(t, filepath.Join(root, "serverless-python-requirements-4.0.1.tgz"))
	touch(t, filepath.Join(root, "unrelated.tgz"))

	got, err = Resolve(root, p)
	require.NoError(t, err)
	assert.Equal(t, []string{
		filepath.Join(root, "serverless-python-requirements-4.0.0.tgz"),
		filepath.Join(root, "serverless-python-requirements-4.0.1.tgz"),
	}, got)
}

func TestResolve_RecursivePattern(t *testing.T) {
	root := t.TempDir()
	touch(t, filepath.Join(root, "puck", "flask", "__init__.py"))
	touch(t, filepath.Join(root, "puck", "flask", "__pycache__", "app.cpython-36.pyc"))
	touch(t, filepath.Join(root, "puck", "top.pyc"))

	got, err := Resolve(root, Glob("puck/**/*.pyc"))
	require.NoError(t, err)
	assert.Equal(t, []string{
		filepath.Join(root, "puck", "flask", "__pycache__", "app.cpython-36.pyc"),
		filepath.Join(root, "puck", "top.pyc"),
	}, got)
}

func TestResolve_AbsolutePatternRejected(t *testing.T) {
	_, err := Resolve("", Glob(filepath.Join(t.TempDir(), "*.tgz")))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "must be relative")
}

func TestMatch_InvalidPattern(t *testing.T) {
	_, err := Match(t.TempDir(), "puck/[")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid glob pattern")
}

func TestMatch_MissingRoot(t *testing.T) {
	got, err := Match(filepath.Join(t.TempDir(), "absent"), "*")
	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestPurge_RemovesEveryRegisteredPath(t *testing.T) {
	root := t.TempDir()
	cache := filepath.Join(t.TempDir(), "serverless-python-requirements")

	touch(t, filepath.Join(root, "puck", "flask", "__init__.py"))
	touch(t, filepath.Join(root, "node_modules", "x", "index.js"))
	touch(t, filepath.Join(root, ".serverless", "sls-py-req-test.zip"))
	touch(t, filepath.Join(root, "package-lock.json"))
	touch(t, filepath.Join(root, "serverless-python-requirements-4.0.0.tgz"))
	touch(t, filepath.Join(cache, "downloads", "flask.whl"))
	touch(t, filepath.Join(root, "serverless.yml"))

	reg := DefaultRegistry(cache)
	require.NoError(t, reg.Purge(root))

	resolved, err := reg.Resolve(root)
	require.NoError(t, err)
	for _, path := range resolved {
		assert.False(t, Exists(path), "%s should be gone", path)
	}
	assert.NoDirExists(t, cache)
	assert.FileExists(t, filepath.Join(root, "serverless.yml"), "unregistered files survive")
}

func TestPurge_Idempotent(t *testing.T) {
	root := t.TempDir()
	touch(t, filepath.Join(root, "puck2", "a"))

	reg := DefaultRegistry("")
	require.NoError(t, reg.Purge(root))
	require.NoError(t, reg.Purge(root))
	require.NoError(t, reg.Purge(root))
	assert.NoDirExists(t, filepath.Join(root, "puck2"))
}

func TestRegistry_AddAndPathsCopy(t *testing.T) {
	reg := NewRegistry(Lit("a"))
	reg.Add(Glob("b-*"))

	paths := reg.Paths()
	require.Len(t, paths, 2)
	paths[0] = Lit("mutated")
	assert.Equal(t, Lit("a"), reg.Paths()[0])
}

func TestDefaultRegistry_IncludesCachePath(t *testing.T) {
	reg := DefaultRegistry("/home/u/.cache/serverless-python-requirements")
	paths := reg.Paths()
	assert.Equal(t, Lit("/home/u/.cache/serverless-python-requirements"), paths[len(paths)-1])
	assert.Len(t, paths, len(StandardPaths())+1)
}

func TestEvictCache(t *testing.T) {
	cache := filepath.Join(t.TempDir(), "serverless-python-requirements")
	touch(t, filepath.Join(cache, "wheel"))

	path, err := EvictCache(FixedCachePath(cache))
	require.NoError(t, err)
	assert.Equal(t, cache, path)
	assert.NoDirExists(t, cache)

	_, err = EvictCache(FixedCachePath(cache))
	assert.NoError(t, err, "absent cache is not an error")
}

func TestUserCachePath(t *testing.T) {
	t.Setenv("XDG_CACHE_HOME", "/tmp/xdg-cache")
	t.Setenv("HOME", "/tmp/home")

	path, err := UserCachePath()
	require.NoError(t, err)
	assert.Equal(t, CacheDirName, filepath.Base(path))
}

func TestKindString(t *testing.T) {
	assert.Equal(t, "literal", Literal.String())
	assert.Equal(t, "pattern", Pattern.String())
}
