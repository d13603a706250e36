package edit

import (
	"context"
	"fmt"

	"github.com/alnah/go-mediakit/internal/segment"
)

// CutOptions configures Cut.
type CutOptions struct {
	// Ranges to keep. Only the last range may leave End at 0, meaning
	// "until the end of the input".
	Ranges []segment.Range
	Fast   bool
}

// Cut keeps the given ranges of input and joins them into output.
// Intermediate slices live in a temporary directory that is removed whether
// or not the cut succeeds.
func (e *Editor) Cut(ctx context.Context, input, output string, opts CutOptions) (string, error) {
	if len(opts.Ranges) == 0 {
		return "", segment.ErrEmptyRanges
	}

	var total float64
	if segment.NeedsDuration(opts.Ranges) {
		d, err := e.prober.Duration(ctx, input)
		if err != nil {
			return "", fmt.Errorf("probe duration of %s: %w", input, err)
		}
		total = d
	}
	ranges, err := segment.Resolve(opts.Ranges, total)
	if err != nil {
		return "", err
	}
	if err := e.checkOutput(output); err != nil {
		return "", err
	}

	dir, err := e.tempDir(tempDirPrefix)
	if err != nil {
		return "", fmt.Errorf("create temp directory: %w", err)
	}
	defer func() { _ = e.fs.RemoveAll(dir) }()

	e.logger.Debug("cutting", "input", input, "ranges", ranges, "temp_dir", dir)

	parts, err := e.Slice(ctx, input, SliceOptions{Ranges: ranges, OutputFolder: dir, Fast: opts.Fast})
	if err != nil {
		return "", err
	}
	return e.Merge(ctx, parts, output, MergeOptions{Fast: opts.Fast})
}
