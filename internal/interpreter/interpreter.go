// Package interpreter resolves the python binary a packaging scenario passes
// to `sls package --pythonBin=...`.
package interpreter

import (
	"errors"
	"fmt"
	"runtime"
)

// ErrInvalidVersion is returned for any major version other than 2 or 3.
var ErrInvalidVersion = errors.New("version must be 2 or 3")

// Validate reports ErrInvalidVersion unless version is 2 or 3.
func Validate(version int) error {
	if version != 2 && version != 3 {
		return fmt.Errorf("%w: got %d", ErrInvalidVersion, version)
	}
	return nil
}

// Resolve returns the interpreter path for a major version on goos.
// Windows uses the fixed CI install locations; every other platform uses
// the versioned binary name on PATH.
func Resolve(version int, goos string) (string, error) {
	if err := Validate(version); err != nil {
		return "", err
	}
	if goos == "windows" {
		if version == 2 {
			return "c:/python27-x64/python.exe", nil
		}
		return "c:/python36-x64/python.exe", nil
	}
	if version == 2 {
		return "python2.7", nil
	}
	return "python3.6", nil
}

// ForHost resolves version for the running platform.
func ForHost(version int) (string, error) {
	return Resolve(version, runtime.GOOS)
}
