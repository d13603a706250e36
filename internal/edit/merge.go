package edit

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/alnah/go-mediakit/internal/ffmpeg"
	"github.com/alnah/go-mediakit/internal/fsutil"
)

// MergeOptions configures Merge.
type MergeOptions struct {
	Fast bool
}

// concatManifest returns the concat demuxer listing for paths, one
// "file '<path>'" line each. Single quotes are escaped the way the demuxer
// expects: ' becomes '\''.
func concatManifest(paths []string) string {
	lines := make([]string, len(paths))
	for i, p := range paths {
		lines[i] = "file '" + strings.ReplaceAll(p, "'", `'\''`) + "'"
	}
	return strings.Join(lines, "\n") + "\n"
}

// manifestPath names the manifest after the inputs so concurrent merges of
// different inputs do not collide.
func manifestPath(absInputs []string) string {
	return filepath.Join(os.TempDir(), fsutil.HashInputs(absInputs)+".txt")
}

// Merge concatenates inputs into output without re-encoding. Inputs must
// share codecs and parameters, as slices of one source do.
func (e *Editor) Merge(ctx context.Context, inputs []string, output string, opts MergeOptions) (string, error) {
	if len(inputs) == 0 {
		return "", ErrNoInputs
	}
	if err := e.checkOutput(output); err != nil {
		return "", err
	}

	abs := make([]string, len(inputs))
	for i, in := range inputs {
		p, err := filepath.Abs(in)
		if err != nil {
			return "", fmt.Errorf("resolve %s: %w", in, err)
		}
		abs[i] = p
	}

	manifest := manifestPath(abs)
	if err := e.fs.WriteFile(manifest, []byte(concatManifest(abs)), 0o600); err != nil {
		return "", fmt.Errorf("write concat manifest: %w", err)
	}
	defer func() { _ = e.fs.Remove(manifest) }()

	inv := ffmpeg.Invocation{
		Inputs:        []ffmpeg.Input{ffmpeg.InputFile(manifest)},
		Output:        ffmpeg.FilePath(output),
		InputOptions:  []string{"-f", "concat", "-safe", "0"},
		OutputOptions: append([]string{"-c", "copy"}, e.threadArgs(opts.Fast)...),
		Overwrite:     e.overwrite,
	}
	if err := e.runner.Run(ctx, inv, ffmpeg.Handlers{}); err != nil {
		return "", fmt.Errorf("merge into %s: %w", output, err)
	}
	e.logger.Debug("merged", "inputs", len(inputs), "output", output)
	return output, nil
}
