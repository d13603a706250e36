// Package edit implements media edits on top of the ffmpeg supervisor:
// slicing, merging, audio replacement and delay, frame extraction and
// speech formatting.
package edit

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"math"
	"runtime"
	"strconv"

	"github.com/alnah/go-mediakit/internal/fsutil"
)

// tempDirPrefix names temporary directories created by multi-step edits.
const tempDirPrefix = "mediakit-"

// Editor runs edit operations. It holds no per-call state and is safe for
// concurrent use.
type Editor struct {
	runner    processRunner
	prober    mediaProber
	logger    *slog.Logger
	threads   int
	overwrite bool

	// Injectable dependencies (defaults to OS implementations).
	fs      fileSystem
	tempDir tempDirFunc
}

// Option configures an Editor.
type Option func(*Editor)

// WithLogger sets the logger for debug output.
func WithLogger(l *slog.Logger) Option {
	return func(e *Editor) {
		if l != nil {
			e.logger = l
		}
	}
}

// WithThreads sets the thread count passed to ffmpeg in fast mode.
// Default: runtime.NumCPU().
func WithThreads(n int) Option {
	return func(e *Editor) {
		if n > 0 {
			e.threads = n
		}
	}
}

// WithOverwrite allows edits to replace existing output files.
// Without it, an existing output fails with ErrOutputExists before ffmpeg runs.
func WithOverwrite(overwrite bool) Option {
	return func(e *Editor) { e.overwrite = overwrite }
}

// WithFileSystem replaces filesystem access.
func WithFileSystem(f fileSystem) Option {
	return func(e *Editor) { e.fs = f }
}

// WithTempDirFunc replaces temporary directory creation.
func WithTempDirFunc(fn tempDirFunc) Option {
	return func(e *Editor) { e.tempDir = fn }
}

// NewEditor returns an Editor. runner executes ffmpeg and prober answers
// duration and dimension queries.
func NewEditor(runner processRunner, prober mediaProber, opts ...Option) *Editor {
	e := &Editor{
		runner:  runner,
		prober:  prober,
		logger:  slog.New(slog.NewTextHandler(io.Discard, nil)),
		threads: runtime.NumCPU(),
		fs:      osFileSystem{},
		tempDir: fsutil.CreateTempDir,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// threadArgs returns "-threads N" in fast mode.
func (e *Editor) threadArgs(fast bool) []string {
	if !fast {
		return nil
	}
	return []string{"-threads", strconv.Itoa(e.threads)}
}

// checkOutput refuses to clobber an existing file unless overwriting is enabled.
func (e *Editor) checkOutput(path string) error {
	if e.overwrite {
		return nil
	}
	_, err := e.fs.Stat(path)
	if err == nil {
		return fmt.Errorf("%w: %s", ErrOutputExists, path)
	}
	if !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("check output %s: %w", path, err)
	}
	return nil
}

// secs formats seconds for -ss, -t and -itsoffset with millisecond precision.
func secs(v float64) string {
	return strconv.FormatFloat(math.Round(v*1000)/1000, 'f', -1, 64)
}
