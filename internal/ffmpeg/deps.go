package ffmpeg

import (
	"context"
	"io"
	"net/http"
	"os"
	"os/exec"
	"time"

	"github.com/gofrs/flock"
)

// ---------------------------------------------------------------------------
// Seams - resolution and installation talk to the host only through these
// ---------------------------------------------------------------------------

// hostEnv answers lookups about the machine: environment, home directory,
// PATH and existing files.
type hostEnv interface {
	Getenv(key string) string
	UserHomeDir() (string, error)
	LookPath(file string) (string, error)
	Stat(name string) (os.FileInfo, error)
}

// installFS is the filesystem surface an install touches.
type installFS interface {
	MkdirAll(path string, perm os.FileMode) error
	CreateTemp(dir, pattern string) (*os.File, error)
	Open(name string) (io.ReadCloser, error)
	ReadFile(name string) ([]byte, error)
	WriteFile(name string, data []byte, perm os.FileMode) error
	Rename(oldpath, newpath string) error
	Remove(name string) error
	Chmod(name string, mode os.FileMode) error
}

// httpDoer abstracts HTTP client operations.
type httpDoer interface {
	Do(req *http.Request) (*http.Response, error)
}

// installLock serializes installs across processes sharing a home directory.
type installLock interface {
	TryLockContext(ctx context.Context, retryDelay time.Duration) (bool, error)
	Unlock() error
}

// lockFactory opens the lock guarding an install directory.
type lockFactory func(path string) installLock

// outputFn runs a short informational command and returns everything it
// printed, stdout and stderr combined.
type outputFn func(ctx context.Context, name string, args ...string) ([]byte, error)

// ---------------------------------------------------------------------------
// Host-backed implementations
// ---------------------------------------------------------------------------

var (
	_ hostEnv     = osHost{}
	_ installFS   = osInstallFS{}
	_ installLock = (*flock.Flock)(nil)
	_ outputFn    = combinedOutput
)

func newFileLock(path string) installLock {
	return flock.New(path)
}

func combinedOutput(ctx context.Context, name string, args ...string) ([]byte, error) {
	// #nosec G204 -- name is a resolved ffmpeg path, args are fixed by callers
	return exec.CommandContext(ctx, name, args...).CombinedOutput()
}

type osHost struct{}

func (osHost) Getenv(key string) string              { return os.Getenv(key) }
func (osHost) UserHomeDir() (string, error)          { return os.UserHomeDir() }
func (osHost) LookPath(file string) (string, error)  { return exec.LookPath(file) }
func (osHost) Stat(name string) (os.FileInfo, error) { return os.Stat(name) }

type osInstallFS struct{}

func (osInstallFS) MkdirAll(path string, perm os.FileMode) error { return os.MkdirAll(path, perm) }

func (osInstallFS) CreateTemp(dir, pattern string) (*os.File, error) {
	return os.CreateTemp(dir, pattern)
}

func (osInstallFS) Open(name string) (io.ReadCloser, error) {
	// #nosec G304 -- only temp files inside the install dir are opened
	return os.Open(name)
}

func (osInstallFS) ReadFile(name string) ([]byte, error) {
	// #nosec G304 -- marker path is built from the install dir
	return os.ReadFile(name)
}

func (osInstallFS) WriteFile(name string, data []byte, perm os.FileMode) error {
	return os.WriteFile(name, data, perm)
}

func (osInstallFS) Rename(oldpath, newpath string) error { return os.Rename(oldpath, newpath) }
func (osInstallFS) Remove(name string) error             { return os.Remove(name) }
func (osInstallFS) Chmod(name string, mode os.FileMode) error {
	return os.Chmod(name, mode)
}
