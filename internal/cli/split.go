package cli

import (
	"context"
	"errors"
	"fmt"
	"os"
	"sync"

	"github.com/schollz/progressbar/v3"
	"github.com/spf13/cobra"

	"github.com/alnah/go-mediakit/internal/audio"
	"github.com/alnah/go-mediakit/internal/config"
	"github.com/alnah/go-mediakit/internal/interrupt"
)

type splitOptions struct {
	outputDir        string
	chunkDuration    float64
	minChunk         float64
	silenceDuration  float64
	silenceThreshold float64
}

// SplitCmd creates the split command.
// The env parameter provides injectable dependencies for testing.
func SplitCmd(env *Env) *cobra.Command {
	var opts splitOptions

	cmd := &cobra.Command{
		Use:   "split <file>",
		Short: "Split a recording into chunks at silences",
		Long: `Split a recording into chunks of about --chunk-duration seconds.

Each chunk ends at the last silence that starts inside its budget, so words
are not cut in half. Chunks are written as <name>-chunk-NNN<ext> to
--output-dir, the output-dir setting, or next to the input.

Press Ctrl+C once to stop and keep the chunks already written, twice to stop
and remove them.`,
		Example: `  mediakit split lecture.mp3
  mediakit split lecture.mp3 -o chunks --chunk-duration 300 --silence-threshold -40`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runSplit(cmd.Context(), env, args[0], opts)
		},
	}

	cmd.Flags().StringVarP(&opts.outputDir, "output-dir", "o", "", "Directory for the chunks")
	cmd.Flags().Float64Var(&opts.chunkDuration, "chunk-duration", 0, "Target chunk length in seconds (default: config, then 60)")
	cmd.Flags().Float64Var(&opts.minChunk, "min-chunk", 0, "Drop chunks no longer than this many seconds (default 1)")
	cmd.Flags().Float64Var(&opts.silenceDuration, "silence-duration", 0, "Minimum silence length in seconds")
	cmd.Flags().Float64Var(&opts.silenceThreshold, "silence-threshold", 0, "Silence level in dB, negative")

	return cmd
}

// splitSettings merges flags over configured values.
func splitSettings(opts splitOptions, cfg config.Config) (string, audio.SplitOptions, error) {
	switch {
	case opts.chunkDuration < 0:
		return "", audio.SplitOptions{}, fmt.Errorf("%w: --chunk-duration must be positive", ErrUsage)
	case opts.minChunk < 0:
		return "", audio.SplitOptions{}, fmt.Errorf("%w: --min-chunk must not be negative", ErrUsage)
	case opts.silenceDuration < 0:
		return "", audio.SplitOptions{}, fmt.Errorf("%w: --silence-duration must not be negative", ErrUsage)
	case opts.silenceThreshold > 0:
		return "", audio.SplitOptions{}, fmt.Errorf("%w: --silence-threshold must be negative", ErrUsage)
	}

	so := audio.SplitOptions{
		ChunkDuration:     cfg.ChunkDuration,
		ChunkMinThreshold: opts.minChunk,
		Silence:           silenceOptions(cfg.SilenceDuration, cfg.SilenceThreshold),
	}
	if opts.chunkDuration > 0 {
		so.ChunkDuration = opts.chunkDuration
	}
	if opts.silenceDuration > 0 {
		so.Silence.Duration = opts.silenceDuration
	}
	if opts.silenceThreshold < 0 {
		so.Silence.Threshold = opts.silenceThreshold
	}

	dir := opts.outputDir
	if dir == "" {
		dir = cfg.OutputDir
	}
	return config.ExpandPath(dir), so, nil
}

// runSplit executes the split. The first Ctrl+C cancels the remaining cuts;
// the chunks already written are kept unless a second Ctrl+C follows.
func runSplit(ctx context.Context, env *Env, input string, opts splitOptions) error {
	if err := checkInput(input); err != nil {
		return err
	}
	s, err := env.openSession(ctx)
	if err != nil {
		return err
	}
	defer func() { _ = s.Close() }()

	dir, so, err := splitSettings(opts, s.cfg)
	if err != nil {
		return err
	}

	handler, ctx := env.Interrupts(ctx, env.Stderr)
	defer handler.Stop()

	var (
		mu      sync.Mutex
		written []string
		bar     *progressbar.ProgressBar
	)
	fmt.Fprintln(env.Stderr, "Detecting silences...")
	chunks, err := s.tools.Splitter.Split(ctx, input, dir, so, audio.SplitCallbacks{
		OnStarted: func(total int) {
			bar = newProgressBar(env.Stderr, total, "Cutting chunks")
		},
		OnProgress: func(path string, _ int) {
			mu.Lock()
			written = append(written, path)
			mu.Unlock()
			if bar != nil {
				_ = bar.Add(1)
			}
		},
		OnFinished: func() {
			if bar != nil {
				_ = bar.Finish()
			}
		},
	})
	if err != nil {
		if !handler.WasInterrupted() {
			return err
		}
		mu.Lock()
		partial := append([]string(nil), written...)
		mu.Unlock()
		return keepOrDiscard(env, handler, partial, err)
	}

	for _, c := range chunks {
		fmt.Fprintln(env.Stdout, c.Path)
	}
	s.logger.Info("split finished", "input", input, "chunks", len(chunks))
	return nil
}

// keepOrDiscard settles an interrupted split: it waits for a possible second
// Ctrl+C, removes the partial chunks on abort, and otherwise lists them.
// The returned error always carries context.Canceled.
func keepOrDiscard(env *Env, handler *interrupt.Handler, partial []string, cause error) error {
	decision := handler.WaitForDecision("Interrupted, keeping finished chunks. Press Ctrl+C again to remove them.")
	if decision == interrupt.Abort {
		var errs []error
		for _, p := range partial {
			if err := os.Remove(p); err != nil && !errors.Is(err, os.ErrNotExist) {
				errs = append(errs, err)
			}
		}
		if err := errors.Join(errs...); err != nil {
			fmt.Fprintf(env.Stderr, "Warning: failed to remove chunks: %v\n", err)
		}
		fmt.Fprintf(env.Stderr, "Removed %d chunk(s).\n", len(partial))
	} else {
		for _, p := range partial {
			fmt.Fprintln(env.Stdout, p)
		}
		fmt.Fprintf(env.Stderr, "Kept %d chunk(s).\n", len(partial))
	}
	if errors.Is(cause, context.Canceled) {
		return cause
	}
	return fmt.Errorf("%w: %w", context.Canceled, cause)
}
