package fixture

import (
	"fmt"
	"os"
	"path/filepath"
)

// CacheDirName is the directory the plugin keeps under the user cache root.
const CacheDirName = "serverless-python-requirements"

// CachePathFunc returns the absolute path of the user-level cache directory.
type CachePathFunc func() (string, error)

// UserCachePath is the default accessor: <user cache dir>/serverless-python-requirements.
func UserCachePath() (string, error) {
	root, err := os.UserCacheDir()
	if err != nil {
		return "", fmt.Errorf("failed to locate user cache directory: %w", err)
	}
	return filepath.Join(root, CacheDirName), nil
}

// FixedCachePath returns an accessor that always answers path.
func FixedCachePath(path string) CachePathFunc {
	return func() (string, error) { return path, nil }
}

// EvictCache removes the directory reported by accessor. A missing
// directory is not an error.
func EvictCache(accessor CachePathFunc) (string, error) {
	path, err := accessor()
	if err != nil {
		return "", err
	}
	if path == "" {
		return "", nil
	}
	return path, Remove(path)
}
