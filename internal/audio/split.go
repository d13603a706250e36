package audio

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"math"
	"os"
	"path/filepath"
	"runtime"
	"strconv"
	"strings"
	"sync"

	"golang.org/x/sync/errgroup"

	"github.com/alnah/go-mediakit/internal/ffmpeg"
	"github.com/alnah/go-mediakit/internal/format"
	"github.com/alnah/go-mediakit/internal/segment"
)

// Default split parameters.
const (
	// DefaultChunkDuration is the target chunk length in seconds.
	DefaultChunkDuration = 60.0

	// DefaultChunkMinThreshold drops ranges no longer than this many seconds.
	DefaultChunkMinThreshold = 1.0

	// DefaultShortClipPadding is the silence, in seconds, appended to each
	// chunk. Very short clips otherwise fail downstream decoding.
	DefaultShortClipPadding = 0.5
)

// Chunk is one piece of a split recording.
// The caller owns the chunk files and is responsible for removing them.
type Chunk struct {
	Path  string        `json:"path"`
	Index int           `json:"index"`
	Range segment.Range `json:"range"`
}

// String returns a human-readable representation for logging.
func (c Chunk) String() string {
	return fmt.Sprintf("chunk %d: %s-%s",
		c.Index,
		format.Duration(c.Range.StartTime()),
		format.Duration(c.Range.EndTime()))
}

// SplitOptions configures Split. Zero values select the defaults.
type SplitOptions struct {
	ChunkDuration     float64
	ChunkMinThreshold float64
	Silence           SilenceOptions
	Padding           float64
}

func (o SplitOptions) withDefaults() SplitOptions {
	if o.ChunkDuration == 0 {
		o.ChunkDuration = DefaultChunkDuration
	}
	if o.ChunkMinThreshold == 0 {
		o.ChunkMinThreshold = DefaultChunkMinThreshold
	}
	if o.Padding == 0 {
		o.Padding = DefaultShortClipPadding
	}
	o.Silence = o.Silence.withDefaults()
	return o
}

// SplitCallbacks report split progress. Any of them may be nil.
// Callbacks are serialized; they never run concurrently with each other.
type SplitCallbacks struct {
	OnStarted  func(total int)
	OnProgress func(path string, index int)
	OnFinished func()
}

// Splitter cuts recordings into chunks at silences.
type Splitter struct {
	runner   processRunner
	prober   durationProber
	detector *Detector
	workers  int
	logger   *slog.Logger

	// Injectable dependencies (defaults to OS implementations).
	statter fileStatter
	dirs    dirMaker
	remover fileRemover
}

// SplitterOption configures a Splitter.
type SplitterOption func(*Splitter)

// WithWorkers bounds how many chunks are cut concurrently.
// Default: runtime.NumCPU().
func WithWorkers(n int) SplitterOption {
	return func(s *Splitter) {
		if n > 0 {
			s.workers = n
		}
	}
}

// WithSplitterLogger sets the logger for debug output.
func WithSplitterLogger(l *slog.Logger) SplitterOption {
	return func(s *Splitter) {
		if l != nil {
			s.logger = l
		}
	}
}

// WithFileStatter sets the file statter used to check the input.
func WithFileStatter(st fileStatter) SplitterOption {
	return func(s *Splitter) { s.statter = st }
}

// WithDirMaker sets how the output directory is created.
func WithDirMaker(d dirMaker) SplitterOption {
	return func(s *Splitter) { s.dirs = d }
}

// WithFileRemover sets how a partially written chunk is deleted.
func WithFileRemover(r fileRemover) SplitterOption {
	return func(s *Splitter) { s.remover = r }
}

// NewSplitter returns a Splitter. runner executes ffmpeg and prober supplies
// the input duration.
func NewSplitter(runner processRunner, prober durationProber, opts ...SplitterOption) *Splitter {
	s := &Splitter{
		runner:  runner,
		prober:  prober,
		workers: runtime.NumCPU(),
		logger:  slog.New(slog.NewTextHandler(io.Discard, nil)),
		statter: osFileStatter{},
		dirs:    osDirMaker{},
		remover: osFileRemover{},
	}
	for _, opt := range opts {
		opt(s)
	}
	s.detector = NewDetector(runner, WithDetectorLogger(s.logger))
	return s
}

// DetectSilences runs silence detection with the Splitter's runner.
func (s *Splitter) DetectSilences(ctx context.Context, input string, opts SilenceOptions) ([]segment.Range, error) {
	return s.detector.DetectSilences(ctx, input, opts)
}

// Split cuts input into chunks of about opts.ChunkDuration seconds, ending
// each chunk at a silence when one falls inside the budget. Chunks are
// written to outputDir, or next to input when outputDir is empty.
//
// When the whole input fits in one chunk, input itself is returned and no
// file is written. Otherwise the chunks are cut concurrently; the first
// failure cancels the remaining cuts, and a chunk whose cut did not
// complete is removed.
func (s *Splitter) Split(ctx context.Context, input, outputDir string, opts SplitOptions, cb SplitCallbacks) ([]Chunk, error) {
	opts = opts.withDefaults()
	if !(opts.ChunkDuration > 0) {
		return nil, fmt.Errorf("%w: chunk duration %v", segment.ErrInvalidBudget, opts.ChunkDuration)
	}
	if _, err := s.statter.Stat(input); err != nil {
		return nil, fmt.Errorf("%w: %s", ErrFileNotFound, input)
	}

	s.logger.Debug("splitting",
		"input", input,
		"chunk_duration", opts.ChunkDuration,
		"chunk_min_threshold", opts.ChunkMinThreshold,
		"silence_threshold", opts.Silence.Threshold,
		"silence_duration", opts.Silence.Duration)

	total, err := s.prober.Duration(ctx, input)
	if err != nil {
		return nil, fmt.Errorf("probe duration of %s: %w", input, err)
	}
	if !(total > 0) {
		return nil, fmt.Errorf("%w: %s reports %v seconds", ErrNoDuration, input, total)
	}
	if opts.ChunkDuration >= total {
		return []Chunk{{Path: input, Index: 0, Range: segment.Range{Start: 0, End: total}}}, nil
	}

	silences, err := s.detector.DetectSilences(ctx, input, opts.Silence)
	if err != nil {
		return nil, err
	}
	ranges, err := segment.Segment(silences, opts.ChunkDuration, total)
	if err != nil {
		return nil, err
	}
	ranges = segment.FilterShorter(ranges, opts.ChunkMinThreshold)
	s.logger.Debug("chunk ranges computed", "input", input, "ranges", ranges)

	if outputDir == "" {
		outputDir = filepath.Dir(input)
	}
	chunks := planChunks(input, outputDir, ranges)
	if len(chunks) == 0 {
		return nil, nil
	}
	if err := s.dirs.MkdirAll(outputDir, 0o750); err != nil {
		return nil, fmt.Errorf("create output directory: %w", err)
	}

	var mu sync.Mutex
	notify := func(fn func()) {
		mu.Lock()
		defer mu.Unlock()
		fn()
	}

	if cb.OnStarted != nil {
		cb.OnStarted(len(chunks))
	}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.workers)
	for _, c := range chunks {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			if err := s.cut(gctx, input, c, opts.Padding); err != nil {
				return err
			}
			if cb.OnProgress != nil {
				notify(func() { cb.OnProgress(c.Path, c.Index) })
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	if cb.OnFinished != nil {
		cb.OnFinished()
	}
	return chunks, nil
}

// planChunks names one chunk per range: <name>-chunk-000<ext>, ...
func planChunks(input, outputDir string, ranges []segment.Range) []Chunk {
	ext := filepath.Ext(input)
	name := strings.TrimSuffix(filepath.Base(input), ext)

	chunks := make([]Chunk, len(ranges))
	for i, r := range ranges {
		chunks[i] = Chunk{
			Path:  filepath.Join(outputDir, fmt.Sprintf("%s-chunk-%03d%s", name, i, ext)),
			Index: i,
			Range: r,
		}
	}
	return chunks
}

// chunkFilters pads each chunk with silence and normalizes loudness, which
// helps speech recognition on short or quiet clips.
func chunkFilters(padding float64) string {
	return strings.Join([]string{
		"apad=pad_dur=" + seconds(padding),
		"loudnorm",
		"compand",
	}, ",")
}

// cutInvocation returns the ffmpeg invocation that writes chunk c.
func cutInvocation(input string, c Chunk, padding float64) ffmpeg.Invocation {
	return ffmpeg.Invocation{
		Inputs: []ffmpeg.Input{ffmpeg.InputFile(input)},
		Output: ffmpeg.FilePath(c.Path),
		InputOptions: []string{
			"-ss", seconds(c.Range.Start),
		},
		OutputOptions: []string{
			"-t", seconds(c.Range.Duration()),
			"-af", chunkFilters(padding),
		},
		Overwrite: true,
	}
}

func (s *Splitter) cut(ctx context.Context, input string, c Chunk, padding float64) error {
	if err := s.runner.Run(ctx, cutInvocation(input, c, padding), ffmpeg.Handlers{}); err != nil {
		if rmErr := s.remover.Remove(c.Path); rmErr != nil && !errors.Is(rmErr, os.ErrNotExist) {
			s.logger.Warn("failed to remove partial chunk", "path", c.Path, "error", rmErr)
		}
		return fmt.Errorf("%w: %s: %w", ErrSplitFailed, c.Path, err)
	}
	s.logger.Debug("chunk written", "chunk", c.String(), "path", c.Path)
	return nil
}

// seconds formats v with millisecond precision, hiding float noise such as
// 14.87-7.34 = 7.529999999999999.
func seconds(v float64) string {
	return strconv.FormatFloat(math.Round(v*1000)/1000, 'f', -1, 64)
}
