package edit

import (
	"context"
	"fmt"
	"strings"

	"github.com/alnah/go-mediakit/internal/ffmpeg"
	"github.com/alnah/go-mediakit/internal/filter"
)

// FormatOptions configures Format.
type FormatOptions struct {
	// NoiseReduction overrides the default speech cleanup chain.
	// Nil selects filter.DefaultNoiseReduction().
	NoiseReduction *filter.NoiseReduction

	// DisableNoiseReduction skips every audio filter.
	DisableNoiseReduction bool

	// OutputFormat sets the container (-f). Required when writing to a stream.
	OutputFormat string

	Fast bool
}

// FormatCallbacks report formatting progress. Any of them may be nil.
type FormatCallbacks struct {
	OnStarted  func(output string)
	OnProgress func(percent float64)
	OnFinished func(output string)
}

// sinkName describes an output for callbacks and logs.
func sinkName(s ffmpeg.Sink) string {
	switch v := s.(type) {
	case ffmpeg.FilePath:
		return string(v)
	case ffmpeg.StreamSink:
		return "pipe:1"
	default:
		return fmt.Sprint(s)
	}
}

// formatOptions returns the output options for a mono speech conversion.
func (e *Editor) formatOptions(opts FormatOptions) []string {
	args := []string{"-ac", "1"}
	if !opts.DisableNoiseReduction {
		nr := filter.DefaultNoiseReduction()
		if opts.NoiseReduction != nil {
			nr = *opts.NoiseReduction
		}
		if filters := nr.Filters(); len(filters) > 0 {
			args = append(args, "-af", strings.Join(filters, ","))
		}
	}
	args = append(args, e.threadArgs(opts.Fast)...)
	if opts.OutputFormat != "" {
		args = append(args, "-f", opts.OutputFormat)
	}
	return args
}

// Format converts input to mono and cleans up speech for transcription.
// Input and output may each be a file or a stream.
func (e *Editor) Format(ctx context.Context, input ffmpeg.Source, output ffmpeg.Sink, opts FormatOptions, cb FormatCallbacks) error {
	if _, ok := output.(ffmpeg.StreamSink); ok && opts.OutputFormat == "" {
		return fmt.Errorf("%w: streaming output needs an output format", ffmpeg.ErrInvalidInvocation)
	}
	name := sinkName(output)
	if path, ok := output.(ffmpeg.FilePath); ok {
		if err := e.checkOutput(string(path)); err != nil {
			return err
		}
	}

	inv := ffmpeg.Invocation{
		Inputs:        []ffmpeg.Input{{Source: input}},
		Output:        output,
		OutputOptions: e.formatOptions(opts),
		Overwrite:     e.overwrite,
	}
	e.logger.Debug("formatting", "output", name, "noise_reduction", !opts.DisableNoiseReduction, "fast", opts.Fast)

	if cb.OnStarted != nil {
		cb.OnStarted(name)
	}
	h := ffmpeg.Handlers{}
	if cb.OnProgress != nil {
		h.OnProgress = func(p ffmpeg.Progress) {
			pct := 0.0
			if p.Percent != nil {
				pct = *p.Percent
			}
			cb.OnProgress(pct)
		}
	}
	if err := e.runner.Run(ctx, inv, h); err != nil {
		return fmt.Errorf("format %s: %w", name, err)
	}
	if cb.OnFinished != nil {
		cb.OnFinished(name)
	}
	return nil
}
