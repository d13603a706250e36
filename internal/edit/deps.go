package edit

import (
	"context"
	"os"

	"github.com/alnah/go-mediakit/internal/ffmpeg"
	"github.com/alnah/go-mediakit/internal/fsutil"
	"github.com/alnah/go-mediakit/internal/probe"
)

// processRunner runs one supervised ffmpeg invocation.
type processRunner interface {
	Run(ctx context.Context, inv ffmpeg.Invocation, h ffmpeg.Handlers) error
}

// mediaProber answers the metadata queries edit operations need.
type mediaProber interface {
	Duration(ctx context.Context, path string) (float64, error)
	VideoDimensions(ctx context.Context, path string) (width, height int, err error)
}

// fileSystem abstracts the filesystem operations used by edits.
type fileSystem interface {
	Stat(name string) (os.FileInfo, error)
	WriteFile(name string, data []byte, perm os.FileMode) error
	MkdirAll(path string, perm os.FileMode) error
	ReadDir(name string) ([]os.DirEntry, error)
	Remove(name string) error
	RemoveAll(path string) error
}

// tempDirFunc creates a fresh temporary directory whose name starts with prefix.
type tempDirFunc func(prefix string) (string, error)

// --- Default implementations using real OS functions ---

// Compile-time interface verification.
var (
	_ processRunner = (*ffmpeg.Supervisor)(nil)
	_ mediaProber   = (*probe.Prober)(nil)
	_ fileSystem    = osFileSystem{}
	_ tempDirFunc   = fsutil.CreateTempDir
)

// osFileSystem implements fileSystem with the os package.
type osFileSystem struct{}

func (osFileSystem) Stat(name string) (os.FileInfo, error) { return os.Stat(name) }

func (osFileSystem) WriteFile(name string, data []byte, perm os.FileMode) error {
	return os.WriteFile(name, data, perm)
}

func (osFileSystem) MkdirAll(path string, perm os.FileMode) error { return os.MkdirAll(path, perm) }

func (osFileSystem) ReadDir(name string) ([]os.DirEntry, error) { return os.ReadDir(name) }

func (osFileSystem) Remove(name string) error { return os.Remove(name) }

func (osFileSystem) RemoveAll(path string) error { return os.RemoveAll(path) }
