package audio

import (
	"context"
	"os"

	"github.com/alnah/go-mediakit/internal/ffmpeg"
)

// processRunner runs one supervised ffmpeg invocation.
type processRunner interface {
	Run(ctx context.Context, inv ffmpeg.Invocation, h ffmpeg.Handlers) error
}

// durationProber returns a media file's duration in seconds.
type durationProber interface {
	Duration(ctx context.Context, path string) (float64, error)
}

// fileStatter retrieves file information.
type fileStatter interface {
	Stat(name string) (os.FileInfo, error)
}

// dirMaker creates output directories.
type dirMaker interface {
	MkdirAll(path string, perm os.FileMode) error
}

// fileRemover deletes a chunk left behind by a failed cut.
type fileRemover interface {
	Remove(name string) error
}

// --- Default implementations using real OS functions ---

// Compile-time interface verification.
var (
	_ processRunner = (*ffmpeg.Supervisor)(nil)
	_ fileStatter   = osFileStatter{}
	_ dirMaker      = osDirMaker{}
	_ fileRemover   = osFileRemover{}
)

// osFileStatter implements fileStatter using os.Stat.
type osFileStatter struct{}

func (osFileStatter) Stat(name string) (os.FileInfo, error) {
	return os.Stat(name)
}

// osDirMaker implements dirMaker using os.MkdirAll.
type osDirMaker struct{}

func (osDirMaker) MkdirAll(path string, perm os.FileMode) error {
	return os.MkdirAll(path, perm)
}

// osFileRemover implements fileRemover using os.Remove.
type osFileRemover struct{}

func (osFileRemover) Remove(name string) error {
	return os.Remove(name)
}
