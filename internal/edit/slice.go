package edit

import (
	"context"
	"fmt"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/alnah/go-mediakit/internal/ffmpeg"
	"github.com/alnah/go-mediakit/internal/segment"
)

// SliceOptions configures Slice.
type SliceOptions struct {
	Ranges       []segment.Range
	OutputFolder string
	Fast         bool
}

// sliceNames returns <folder>/<name>_<i+1><ext> for each of n slices.
func sliceNames(input, folder string, n int) []string {
	ext := filepath.Ext(input)
	name := strings.TrimSuffix(filepath.Base(input), ext)

	names := make([]string, n)
	for i := range n {
		names[i] = filepath.Join(folder, name+"_"+strconv.Itoa(i+1)+ext)
	}
	return names
}

// Slice writes one file per range, in order, and returns their paths.
// Ranges must be closed (End > Start); see segment.Resolve.
func (e *Editor) Slice(ctx context.Context, input string, opts SliceOptions) ([]string, error) {
	if len(opts.Ranges) == 0 {
		return nil, segment.ErrEmptyRanges
	}
	for i, r := range opts.Ranges {
		if r.Start < 0 || r.End <= r.Start {
			return nil, fmt.Errorf("%w: range %d (%s)", segment.ErrInvalidRanges, i+1, r)
		}
	}

	outputs := sliceNames(input, opts.OutputFolder, len(opts.Ranges))
	for _, out := range outputs {
		if err := e.checkOutput(out); err != nil {
			return nil, err
		}
	}
	if opts.OutputFolder != "" {
		if err := e.fs.MkdirAll(opts.OutputFolder, 0o750); err != nil {
			return nil, fmt.Errorf("create output folder: %w", err)
		}
	}

	written := make([]string, 0, len(outputs))
	for i, r := range opts.Ranges {
		inv := ffmpeg.Invocation{
			Inputs:        []ffmpeg.Input{ffmpeg.InputFile(input)},
			Output:        ffmpeg.FilePath(outputs[i]),
			InputOptions:  []string{"-ss", secs(r.Start)},
			OutputOptions: append([]string{"-t", secs(r.Duration())}, e.threadArgs(opts.Fast)...),
			Overwrite:     e.overwrite,
		}
		if err := e.runner.Run(ctx, inv, ffmpeg.Handlers{}); err != nil {
			return written, fmt.Errorf("slice %d of %s: %w", i+1, input, err)
		}
		e.logger.Debug("slice written", "range", r.String(), "output", outputs[i])
		written = append(written, outputs[i])
	}
	return written, nil
}
