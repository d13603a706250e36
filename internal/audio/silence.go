package audio

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"math"
	"regexp"
	"strconv"

	"github.com/alnah/go-mediakit/internal/ffmpeg"
	"github.com/alnah/go-mediakit/internal/segment"
)

// Default silence detection parameters.
const (
	// DefaultSilenceDuration is the minimum pause, in seconds, reported as silence.
	DefaultSilenceDuration = 0.5

	// DefaultSilenceThreshold is the level, in dB, under which audio counts as silent.
	DefaultSilenceThreshold = -50.0
)

// SilenceOptions configures silence detection. Zero values select the defaults.
type SilenceOptions struct {
	Duration  float64 // seconds
	Threshold float64 // dB, negative
}

func (o SilenceOptions) withDefaults() SilenceOptions {
	if o.Duration <= 0 {
		o.Duration = DefaultSilenceDuration
	}
	if o.Threshold == 0 {
		o.Threshold = DefaultSilenceThreshold
	}
	return o
}

// silenceFilter returns the silencedetect audio filter for opts.
func silenceFilter(opts SilenceOptions) string {
	return fmt.Sprintf("silencedetect=n=%sdB:d=%s",
		strconv.FormatFloat(opts.Threshold, 'f', -1, 64),
		strconv.FormatFloat(opts.Duration, 'f', -1, 64))
}

// Detector finds silent intervals with ffmpeg's silencedetect filter.
type Detector struct {
	runner processRunner
	logger *slog.Logger
}

// DetectorOption configures a Detector.
type DetectorOption func(*Detector)

// WithDetectorLogger sets the logger for debug output.
func WithDetectorLogger(l *slog.Logger) DetectorOption {
	return func(d *Detector) {
		if l != nil {
			d.logger = l
		}
	}
}

// NewDetector returns a Detector running ffmpeg through runner.
func NewDetector(runner processRunner, opts ...DetectorOption) *Detector {
	d := &Detector{
		runner: runner,
		logger: slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// DetectSilences returns the silent intervals of input in stream order.
func (d *Detector) DetectSilences(ctx context.Context, input string, opts SilenceOptions) ([]segment.Range, error) {
	opts = opts.withDefaults()
	d.logger.Debug("detecting silences", "input", input, "threshold_db", opts.Threshold, "min_duration", opts.Duration)

	var acc silenceAccumulator
	inv := ffmpeg.Invocation{
		Inputs: []ffmpeg.Input{ffmpeg.InputFile(input)},
		Output: ffmpeg.NullSink(),
		OutputOptions: []string{
			"-af", silenceFilter(opts),
			"-f", "null",
		},
		// The null device always exists; -n would make ffmpeg refuse it.
		Overwrite: true,
	}
	err := d.runner.Run(ctx, inv, ffmpeg.Handlers{OnDiagnosticLine: acc.feed})
	if err != nil {
		return nil, fmt.Errorf("detect silences in %s: %w", input, err)
	}

	d.logger.Debug("silences detected", "input", input, "count", len(acc.intervals))
	return acc.intervals, nil
}

// ---------------------------------------------------------------------------
// silenceAccumulator - pairs silence_start / silence_end diagnostic lines
// ---------------------------------------------------------------------------

var (
	silenceStartRe = regexp.MustCompile(`silence_start:\s*(\S+)`)
	silenceEndRe   = regexp.MustCompile(`silence_end:\s*([^\s|]+)`)
)

// silenceAccumulator keeps at most one open start. A second start before an
// end replaces the first, and a start still open at end of stream is dropped.
type silenceAccumulator struct {
	open      float64
	haveOpen  bool
	intervals []segment.Range
}

func (a *silenceAccumulator) feed(line string) {
	if m := silenceStartRe.FindStringSubmatch(line); m != nil {
		start, ok := parseTimestamp(m[1])
		a.open, a.haveOpen = start, ok
		return
	}

	m := silenceEndRe.FindStringSubmatch(line)
	if m == nil || !a.haveOpen {
		return
	}
	if end, ok := parseTimestamp(m[1]); ok && end > a.open {
		a.intervals = append(a.intervals, segment.Range{Start: a.open, End: end})
	}
	a.haveOpen = false
}

// parseTimestamp parses a silencedetect timestamp. ffmpeg reports tiny
// negative starts for silence at the very beginning; those are clamped to 0.
func parseTimestamp(s string) (float64, bool) {
	v, err := strconv.ParseFloat(s, 64)
	if err != nil || math.IsNaN(v) || math.IsInf(v, 0) {
		return 0, false
	}
	return math.Max(v, 0), true
}
