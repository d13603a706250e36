// Package fsutil holds small filesystem helpers shared by edit operations.
package fsutil

import (
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"io/fs"
	"os"
	"strings"
)

// CreateTempDir creates a new directory under the system temp dir whose name
// starts with prefix. The caller removes it.
func CreateTempDir(prefix string) (string, error) {
	return os.MkdirTemp(os.TempDir(), prefix+"*")
}

// HashInputs returns a stable name for a set of input paths: the hex SHA-256
// of the paths joined by "|". Order matters.
func HashInputs(paths []string) string {
	return HashString(strings.Join(paths, "|"))
}

// HashString returns the hex SHA-256 of s.
func HashString(s string) string {
	sum := sha256.Sum256([]byte(s))
	return hex.EncodeToString(sum[:])
}

// Exists reports whether path exists. Errors other than "not found"
// (permission denied, for instance) report true so callers do not overwrite
// what they cannot inspect.
func Exists(path string) bool {
	_, err := os.Stat(path)
	return !errors.Is(err, fs.ErrNotExist)
}
