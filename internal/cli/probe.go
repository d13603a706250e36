package cli

import (
	"context"
	"fmt"
	"strconv"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"

	"github.com/alnah/go-mediakit/internal/audio"
	"github.com/alnah/go-mediakit/internal/format"
	"github.com/alnah/go-mediakit/internal/probe"
	"github.com/alnah/go-mediakit/internal/segment"
)

// ProbeCmd creates the probe command.
// The env parameter provides injectable dependencies for testing.
func ProbeCmd(env *Env) *cobra.Command {
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "probe <file>",
		Short: "Show container and stream metadata",
		Long: `Show container and stream metadata reported by ffprobe.

Results are cached when probe-cache is configured; the cache is keyed by
path, size and modification time.`,
		Example: `  mediakit probe talk.mp4
  mediakit probe talk.mp4 --json`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runProbe(cmd.Context(), env, args[0], asJSON)
		},
	}

	cmd.Flags().BoolVar(&asJSON, "json", false, "Print raw metadata as JSON")

	return cmd
}

func runProbe(ctx context.Context, env *Env, input string, asJSON bool) error {
	if err := checkInput(input); err != nil {
		return err
	}
	s, err := env.openSession(ctx)
	if err != nil {
		return err
	}
	defer func() { _ = s.Close() }()

	md, err := s.tools.Prober.Probe(ctx, input)
	if err != nil {
		return err
	}
	if asJSON {
		return printJSON(env.Stdout, md)
	}
	printMetadata(env, input, md)
	return nil
}

// printMetadata writes a container summary followed by a table of streams.
func printMetadata(env *Env, input string, md probe.Metadata) {
	fmt.Fprintf(env.Stdout, "%s\n", input)
	fmt.Fprintf(env.Stdout, "  format:   %s\n", md.Format.FormatName)
	fmt.Fprintf(env.Stdout, "  duration: %s\n", format.Duration(format.Seconds(md.DurationSeconds())))
	if size := md.SizeBytes(); size > 0 {
		fmt.Fprintf(env.Stdout, "  size:     %s\n", format.Size(size))
	}
	if br, err := strconv.ParseInt(md.Format.BitRate, 10, 64); err == nil && br > 0 {
		fmt.Fprintf(env.Stdout, "  bitrate:  %s\n", format.Bitrate(br))
	}

	rows := make([]table.Row, 0, len(md.Streams))
	for _, st := range md.Streams {
		rows = append(rows, table.Row{st.Index, st.Kind(), st.CodecName, streamDetails(st), streamDuration(st)})
	}
	renderTable(env.Stdout, table.Row{"#", "Type", "Codec", "Details", "Duration"}, rows, 1, 5)
}

func streamDetails(st probe.Stream) string {
	switch st.Kind() {
	case probe.KindVideo:
		return fmt.Sprintf("%dx%d", st.Width, st.Height)
	case probe.KindAudio:
		if st.SampleRate != "" {
			return fmt.Sprintf("%d ch, %s Hz", st.Channels, st.SampleRate)
		}
		return fmt.Sprintf("%d ch", st.Channels)
	default:
		return ""
	}
}

func streamDuration(st probe.Stream) string {
	if d := st.DurationSeconds(); d > 0 {
		return format.Clock(d)
	}
	return ""
}

// SilencesCmd creates the silences command.
func SilencesCmd(env *Env) *cobra.Command {
	var (
		duration  float64
		threshold float64
		asJSON    bool
	)

	cmd := &cobra.Command{
		Use:   "silences <file>",
		Short: "List silent intervals",
		Long: `List the silent intervals of a file's audio track.

Defaults come from the silence-duration and silence-threshold settings, then
0.5 s and -50 dB.`,
		Example: `  mediakit silences talk.wav
  mediakit silences talk.wav --threshold -35 --duration 1.2 --json`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runSilences(cmd.Context(), env, args[0], duration, threshold, asJSON)
		},
	}

	cmd.Flags().Float64Var(&duration, "duration", 0, "Minimum silence length in seconds")
	cmd.Flags().Float64Var(&threshold, "threshold", 0, "Silence level in dB, negative")
	cmd.Flags().BoolVar(&asJSON, "json", false, "Print intervals as JSON")

	return cmd
}

func runSilences(ctx context.Context, env *Env, input string, duration, threshold float64, asJSON bool) error {
	if duration < 0 {
		return fmt.Errorf("%w: --duration must not be negative", ErrUsage)
	}
	if threshold > 0 {
		return fmt.Errorf("%w: --threshold must be negative", ErrUsage)
	}
	if err := checkInput(input); err != nil {
		return err
	}
	s, err := env.openSession(ctx)
	if err != nil {
		return err
	}
	defer func() { _ = s.Close() }()

	opts := silenceOptions(s.cfg.SilenceDuration, s.cfg.SilenceThreshold)
	if duration > 0 {
		opts.Duration = duration
	}
	if threshold < 0 {
		opts.Threshold = threshold
	}

	ranges, err := s.tools.Splitter.DetectSilences(ctx, input, opts)
	if err != nil {
		return err
	}
	if asJSON {
		if ranges == nil {
			ranges = []segment.Range{}
		}
		return printJSON(env.Stdout, ranges)
	}
	if len(ranges) == 0 {
		fmt.Fprintln(env.Stderr, "No silence found.")
		return nil
	}

	rows := make([]table.Row, 0, len(ranges))
	for i, r := range ranges {
		rows = append(rows, table.Row{i + 1, format.Clock(r.Start), format.Clock(r.End), strconv.FormatFloat(r.Duration(), 'f', 3, 64)})
	}
	renderTable(env.Stdout, table.Row{"#", "Start", "End", "Seconds"}, rows, 1, 4)
	return nil
}

// silenceOptions builds detection options from configured values; zero
// values fall back to the audio package defaults.
func silenceOptions(duration, threshold float64) audio.SilenceOptions {
	return audio.SilenceOptions{Duration: duration, Threshold: threshold}
}
