package cli

import (
	"context"
	"fmt"
	"math"

	"github.com/spf13/cobra"

	"github.com/alnah/go-mediakit/internal/config"
	"github.com/alnah/go-mediakit/internal/edit"
	"github.com/alnah/go-mediakit/internal/segment"
)

const rangeFlagUsage = `Time range "start-end", e.g. 1:30-2:05 (repeatable; the last may omit its end)`

// resolveRanges parses range flags and closes an open last range with the
// input's duration.
func resolveRanges(ctx context.Context, p Prober, input string, specs []string) ([]segment.Range, error) {
	if len(specs) == 0 {
		return nil, fmt.Errorf("%w: at least one --range is required", segment.ErrEmptyRanges)
	}
	ranges, err := segment.ParseTimecodeRanges(specs)
	if err != nil {
		return nil, err
	}
	var total float64
	if segment.NeedsDuration(ranges) {
		if total, err = p.Duration(ctx, input); err != nil {
			return nil, fmt.Errorf("probe duration of %s: %w", input, err)
		}
	}
	return segment.Resolve(ranges, total)
}

// outputPath places a relative output under the configured output-dir.
func outputPath(output string, cfg config.Config) string {
	return config.ResolveOutputPath(config.ExpandPath(output), config.ExpandPath(cfg.OutputDir), "")
}

// ---------------------------------------------------------------------------
// slice
// ---------------------------------------------------------------------------

// SliceCmd creates the slice command.
func SliceCmd(env *Env) *cobra.Command {
	var (
		ranges []string
		folder string
		fast   bool
	)

	cmd := &cobra.Command{
		Use:   "slice <file>",
		Short: "Write one file per time range",
		Long: `Write one file per --range, named <name>_1<ext>, <name>_2<ext>, ...

Slices are re-encoded so they start exactly on the requested time.`,
		Example: `  mediakit slice talk.mp4 --range 0:10-0:45 --range 2:00-
  mediakit slice talk.mp4 -r 90-120 -o clips --fast`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runSlice(cmd.Context(), env, args[0], ranges, folder, fast)
		},
	}

	cmd.Flags().StringArrayVarP(&ranges, "range", "r", nil, rangeFlagUsage)
	cmd.Flags().StringVarP(&folder, "output-dir", "o", "", "Directory for the slices (default: config output-dir, then the current directory)")
	cmd.Flags().BoolVar(&fast, "fast", false, "Use every CPU core")

	return cmd
}

func runSlice(ctx context.Context, env *Env, input string, specs []string, folder string, fast bool) error {
	if err := checkInput(input); err != nil {
		return err
	}
	s, err := env.openSession(ctx)
	if err != nil {
		return err
	}
	defer func() { _ = s.Close() }()

	ranges, err := resolveRanges(ctx, s.tools.Prober, input, specs)
	if err != nil {
		return err
	}
	if folder == "" {
		folder = s.cfg.OutputDir
	}

	outputs, err := s.tools.Editor.Slice(ctx, input, edit.SliceOptions{
		Ranges:       ranges,
		OutputFolder: config.ExpandPath(folder),
		Fast:         fast,
	})
	if err != nil {
		return err
	}
	for _, out := range outputs {
		fmt.Fprintln(env.Stdout, out)
	}
	return nil
}

// ---------------------------------------------------------------------------
// merge
// ---------------------------------------------------------------------------

// MergeCmd creates the merge command.
func MergeCmd(env *Env) *cobra.Command {
	var fast bool

	cmd := &cobra.Command{
		Use:   "merge <output> <input>...",
		Short: "Concatenate files without re-encoding",
		Long: `Concatenate inputs into output with ffmpeg's concat demuxer.

Inputs must share codecs and parameters, as slices of one source do.`,
		Example: `  mediakit merge full.mp4 part_1.mp4 part_2.mp4 part_3.mp4`,
		Args:    cobra.MinimumNArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runMerge(cmd.Context(), env, args[0], args[1:], fast)
		},
	}

	cmd.Flags().BoolVar(&fast, "fast", false, "Use every CPU core")

	return cmd
}

func runMerge(ctx context.Context, env *Env, output string, inputs []string, fast bool) error {
	for _, in := range inputs {
		if err := checkInput(in); err != nil {
			return err
		}
	}
	s, err := env.openSession(ctx)
	if err != nil {
		return err
	}
	defer func() { _ = s.Close() }()

	out, err := s.tools.Editor.Merge(ctx, inputs, outputPath(output, s.cfg), edit.MergeOptions{Fast: fast})
	if err != nil {
		return err
	}
	fmt.Fprintln(env.Stdout, out)
	return nil
}

// ---------------------------------------------------------------------------
// cut
// ---------------------------------------------------------------------------

// CutCmd creates the cut command.
func CutCmd(env *Env) *cobra.Command {
	var (
		ranges []string
		fast   bool
	)

	cmd := &cobra.Command{
		Use:   "cut <input> <output>",
		Short: "Keep only the given time ranges",
		Long: `Keep the --range parts of input, in order, and join them into output.

Everything outside the ranges is dropped.`,
		Example: `  mediakit cut talk.mp4 short.mp4 --range 0:00-4:00 --range 6:00-8:00
  mediakit cut talk.mp4 trimmed.mp4 -r 0:12-`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runCut(cmd.Context(), env, args[0], args[1], ranges, fast)
		},
	}

	cmd.Flags().StringArrayVarP(&ranges, "range", "r", nil, rangeFlagUsage)
	cmd.Flags().BoolVar(&fast, "fast", false, "Use every CPU core")

	return cmd
}

func runCut(ctx context.Context, env *Env, input, output string, specs []string, fast bool) error {
	if err := checkInput(input); err != nil {
		return err
	}
	if len(specs) == 0 {
		return fmt.Errorf("%w: at least one --range is required", segment.ErrEmptyRanges)
	}
	ranges, err := segment.ParseTimecodeRanges(specs)
	if err != nil {
		return err
	}

	s, err := env.openSession(ctx)
	if err != nil {
		return err
	}
	defer func() { _ = s.Close() }()

	// Cut resolves an open last range itself.
	out, err := s.tools.Editor.Cut(ctx, input, outputPath(output, s.cfg), edit.CutOptions{Ranges: ranges, Fast: fast})
	if err != nil {
		return err
	}
	fmt.Fprintln(env.Stdout, out)
	return nil
}

// ---------------------------------------------------------------------------
// replace-audio / delay-audio
// ---------------------------------------------------------------------------

// ReplaceAudioCmd creates the replace-audio command.
func ReplaceAudioCmd(env *Env) *cobra.Command {
	return &cobra.Command{
		Use:   "replace-audio <video> <audio> <output>",
		Short: "Replace a video's audio track",
		Long: `Copy the video stream of <video> and the audio stream of <audio> into
<output>. The result is as long as the shorter of the two.`,
		Example: `  mediakit replace-audio talk.mp4 cleaned.wav talk-clean.mp4`,
		Args:    cobra.ExactArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runReplaceAudio(cmd.Context(), env, args[0], args[1], args[2])
		},
	}
}

func runReplaceAudio(ctx context.Context, env *Env, video, audio, output string) error {
	for _, in := range []string{video, audio} {
		if err := checkInput(in); err != nil {
			return err
		}
	}
	s, err := env.openSession(ctx)
	if err != nil {
		return err
	}
	defer func() { _ = s.Close() }()

	out, err := s.tools.Editor.ReplaceAudio(ctx, video, audio, outputPath(output, s.cfg))
	if err != nil {
		return err
	}
	fmt.Fprintln(env.Stdout, out)
	return nil
}

// DelayAudioCmd creates the delay-audio command.
func DelayAudioCmd(env *Env) *cobra.Command {
	var delay float64

	cmd := &cobra.Command{
		Use:   "delay-audio <input> <output>",
		Short: "Shift the audio track against the video",
		Long: `Shift the audio of <input> by --delay seconds. A positive delay plays the
audio later, a negative one earlier. Streams are copied, not re-encoded.`,
		Example: `  mediakit delay-audio talk.mp4 synced.mp4 --delay 0.35
  mediakit delay-audio talk.mp4 synced.mp4 --delay=-1.2`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runDelayAudio(cmd.Context(), env, args[0], args[1], delay)
		},
	}

	cmd.Flags().Float64VarP(&delay, "delay", "d", 0, "Audio offset in seconds")
	_ = cmd.MarkFlagRequired("delay")

	return cmd
}

func runDelayAudio(ctx context.Context, env *Env, input, output string, delay float64) error {
	if math.IsNaN(delay) || math.IsInf(delay, 0) {
		return fmt.Errorf("%w: %v", edit.ErrInvalidDelay, delay)
	}
	if err := checkInput(input); err != nil {
		return err
	}
	s, err := env.openSession(ctx)
	if err != nil {
		return err
	}
	defer func() { _ = s.Close() }()

	out, err := s.tools.Editor.DelayAudio(ctx, input, outputPath(output, s.cfg), delay)
	if err != nil {
		return err
	}
	fmt.Fprintln(env.Stdout, out)
	return nil
}
