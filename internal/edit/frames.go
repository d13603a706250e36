package edit

import (
	"cmp"
	"context"
	"fmt"
	"math"
	"path/filepath"
	"slices"
	"strconv"
	"strings"

	"github.com/alnah/go-mediakit/internal/ffmpeg"
	"github.com/alnah/go-mediakit/internal/filter"
)

// Frame defaults.
const (
	DefaultFramePrefix    = "frame_"
	DefaultFrameExtension = ".jpg"
)

// FramesOptions configures Frames.
type FramesOptions struct {
	// Frequency is the interval between frames, in seconds.
	Frequency     float64
	OutputFolder  string
	Prefix        string // default "frame_"
	Extension     string // default ".jpg"
	Crop          *filter.Crop
	Preprocessing *filter.Preprocessing
}

// Frame is one extracted still.
type Frame struct {
	Path  string  `json:"path"`
	Start float64 `json:"start"` // seconds into the video
}

// Frames extracts one still every opts.Frequency seconds and returns them
// ordered by timestamp. Frame n is taken at n*Frequency.
func (e *Editor) Frames(ctx context.Context, video string, opts FramesOptions) ([]Frame, error) {
	if !(opts.Frequency > 0) || math.IsInf(opts.Frequency, 0) {
		return nil, fmt.Errorf("%w: %v", ErrInvalidFrequency, opts.Frequency)
	}
	if opts.Prefix == "" {
		opts.Prefix = DefaultFramePrefix
	}
	if opts.Extension == "" {
		opts.Extension = DefaultFrameExtension
	}

	vf, err := e.frameFilters(ctx, video, opts)
	if err != nil {
		return nil, err
	}
	if err := e.fs.MkdirAll(opts.OutputFolder, 0o750); err != nil {
		return nil, fmt.Errorf("create output folder: %w", err)
	}

	pattern := filepath.Join(opts.OutputFolder, opts.Prefix+"%04d"+opts.Extension)
	inv := ffmpeg.Invocation{
		Inputs: []ffmpeg.Input{ffmpeg.InputFile(video)},
		Output: ffmpeg.FilePath(pattern),
		OutputOptions: []string{
			"-vf", vf,
			"-vsync", "vfr",
			"-start_number", "0",
		},
		// Frame sequences are regenerated in place.
		Overwrite: true,
	}
	if err := e.runner.Run(ctx, inv, ffmpeg.Handlers{}); err != nil {
		return nil, fmt.Errorf("extract frames from %s: %w", video, err)
	}

	frames, err := e.collectFrames(opts.OutputFolder, opts.Prefix, opts.Extension, opts.Frequency)
	if err != nil {
		return nil, err
	}
	e.logger.Debug("frames extracted", "video", video, "count", len(frames))
	return frames, nil
}

// frameFilters builds the -vf chain: fps, then crop, then preprocessing.
func (e *Editor) frameFilters(ctx context.Context, video string, opts FramesOptions) (string, error) {
	filters := []string{"fps=1/" + strconv.FormatFloat(opts.Frequency, 'f', -1, 64)}

	if opts.Crop != nil {
		w, h, err := e.prober.VideoDimensions(ctx, video)
		if err != nil {
			return "", err
		}
		crop, err := filter.CropFilter(w, h, *opts.Crop)
		if err != nil {
			return "", err
		}
		filters = append(filters, crop)
	}

	if opts.Preprocessing != nil {
		pre, err := opts.Preprocessing.Filter()
		if err != nil {
			return "", err
		}
		if pre != "" {
			filters = append(filters, pre)
		}
	}
	return strings.Join(filters, ","), nil
}

// collectFrames lists <prefix><n><ext> files in folder. Files whose number
// does not parse are ignored.
func (e *Editor) collectFrames(folder, prefix, ext string, frequency float64) ([]Frame, error) {
	entries, err := e.fs.ReadDir(folder)
	if err != nil {
		return nil, fmt.Errorf("list frames: %w", err)
	}

	var frames []Frame
	for _, entry := range entries {
		name := entry.Name()
		if entry.IsDir() || !strings.HasPrefix(name, prefix) || !strings.HasSuffix(name, ext) {
			continue
		}
		n, err := strconv.Atoi(strings.TrimSuffix(strings.TrimPrefix(name, prefix), ext))
		if err != nil {
			continue
		}
		frames = append(frames, Frame{
			Path:  filepath.Join(folder, name),
			Start: float64(n) * frequency,
		})
	}
	slices.SortFunc(frames, func(a, b Frame) int { return cmp.Compare(a.Start, b.Start) })
	return frames, nil
}
