package cli

import (
	"context"
	"fmt"
	"strings"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"

	"github.com/alnah/go-mediakit/internal/config"
	"github.com/alnah/go-mediakit/internal/edit"
	"github.com/alnah/go-mediakit/internal/ffmpeg"
	"github.com/alnah/go-mediakit/internal/filter"
	"github.com/alnah/go-mediakit/internal/format"
)

type framesOptions struct {
	frequency  float64
	folder     string
	prefix     string
	ext        string
	crop       string
	preprocess string
	grayscale  bool
	asJSON     bool
}

// FramesCmd creates the frames command.
// The env parameter provides injectable dependencies for testing.
func FramesCmd(env *Env) *cobra.Command {
	var opts framesOptions

	cmd := &cobra.Command{
		Use:   "frames <video>",
		Short: "Extract stills at a fixed interval",
		Long: `Extract one still every --frequency seconds, optionally cropped and
preprocessed for text recognition.

Crop presets: ` + joinPresets(filter.CropPresets()) + `
Preprocessing presets: DarkTextOnLightBackground, LightTextOnDarkBackground`,
		Example: `  mediakit frames slides.mp4 --frequency 5 -o stills
  mediakit frames slides.mp4 -f 2 --crop BottomText --preprocess DarkTextOnLightBackground`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runFrames(cmd.Context(), env, args[0], opts)
		},
	}

	cmd.Flags().Float64VarP(&opts.frequency, "frequency", "f", 1, "Seconds between stills")
	cmd.Flags().StringVarP(&opts.folder, "output-dir", "o", "", "Directory for the stills (default: config output-dir, then the current directory)")
	cmd.Flags().StringVar(&opts.prefix, "prefix", edit.DefaultFramePrefix, "File name prefix")
	cmd.Flags().StringVar(&opts.ext, "ext", edit.DefaultFrameExtension, "Image extension")
	cmd.Flags().StringVar(&opts.crop, "crop", "", "Crop preset")
	cmd.Flags().StringVar(&opts.preprocess, "preprocess", "", "Preprocessing preset")
	cmd.Flags().BoolVar(&opts.grayscale, "grayscale", false, "Convert stills to grayscale")
	cmd.Flags().BoolVar(&opts.asJSON, "json", false, "Print stills as JSON")
	cmd.MarkFlagsMutuallyExclusive("preprocess", "grayscale")

	return cmd
}

func joinPresets(presets []filter.CropPreset) string {
	names := make([]string, len(presets))
	for i, p := range presets {
		names[i] = string(p)
	}
	return strings.Join(names, ", ")
}

// framesSettings turns flags into edit options, validating preset names
// before any process runs.
func framesSettings(opts framesOptions, cfg config.Config) (edit.FramesOptions, error) {
	fo := edit.FramesOptions{
		Frequency:    opts.frequency,
		OutputFolder: opts.folder,
		Prefix:       opts.prefix,
		Extension:    opts.ext,
	}
	if fo.OutputFolder == "" {
		fo.OutputFolder = cfg.OutputDir
	}
	fo.OutputFolder = config.ExpandPath(fo.OutputFolder)
	if fo.Extension != "" && !strings.HasPrefix(fo.Extension, ".") {
		fo.Extension = "." + fo.Extension
	}

	if opts.crop != "" {
		c, err := filter.PresetCrop(filter.CropPreset(opts.crop))
		if err != nil {
			return edit.FramesOptions{}, err
		}
		fo.Crop = &c
	}
	switch {
	case opts.preprocess != "":
		p := filter.Preprocessing{Preset: filter.FramePreset(opts.preprocess)}
		if _, err := p.Filter(); err != nil {
			return edit.FramesOptions{}, err
		}
		fo.Preprocessing = &p
	case opts.grayscale:
		fo.Preprocessing = &filter.Preprocessing{Grayscale: true}
	}
	return fo, nil
}

func runFrames(ctx context.Context, env *Env, video string, opts framesOptions) error {
	if err := checkInput(video); err != nil {
		return err
	}
	s, err := env.openSession(ctx)
	if err != nil {
		return err
	}
	defer func() { _ = s.Close() }()

	fo, err := framesSettings(opts, s.cfg)
	if err != nil {
		return err
	}
	frames, err := s.tools.Editor.Frames(ctx, video, fo)
	if err != nil {
		return err
	}

	if opts.asJSON {
		if frames == nil {
			frames = []edit.Frame{}
		}
		return printJSON(env.Stdout, frames)
	}
	rows := make([]table.Row, 0, len(frames))
	for _, f := range frames {
		rows = append(rows, table.Row{format.Clock(f.Start), f.Path})
	}
	renderTable(env.Stdout, table.Row{"Time", "File"}, rows)
	fmt.Fprintf(env.Stderr, "%d still(s) written\n", len(frames))
	return nil
}

// ---------------------------------------------------------------------------
// format
// ---------------------------------------------------------------------------

// stdio is the path argument naming standard input or output.
const stdio = "-"

type formatCmdOptions struct {
	outputFormat string
	noDenoise    bool
	highpass     float64
	lowpass      float64
	fast         bool
}

// FormatCmd creates the format command.
func FormatCmd(env *Env) *cobra.Command {
	var opts formatCmdOptions

	cmd := &cobra.Command{
		Use:   "format <input> <output>",
		Short: "Convert audio to mono speech for transcription",
		Long: `Convert audio to mono and clean it up for speech recognition: band-pass
filtering, FFT denoising and loudness normalization.

Use - for <input> or <output> to read from stdin or write to stdout. Writing
to stdout requires --format.`,
		Example: `  mediakit format interview.m4a interview.wav
  cat interview.m4a | mediakit format - - --format wav > interview.wav
  mediakit format noisy.mp3 clean.flac --highpass 120`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runFormat(cmd.Context(), env, args[0], args[1], opts)
		},
	}

	cmd.Flags().StringVar(&opts.outputFormat, "format", "", "Output container, e.g. wav, mp3, flac (required for stdout)")
	cmd.Flags().BoolVar(&opts.noDenoise, "no-denoise", false, "Skip every audio filter")
	cmd.Flags().Float64Var(&opts.highpass, "highpass", 0, "High-pass cutoff in Hz (default 200)")
	cmd.Flags().Float64Var(&opts.lowpass, "lowpass", 0, "Low-pass cutoff in Hz (default 3000)")
	cmd.Flags().BoolVar(&opts.fast, "fast", false, "Use every CPU core")

	return cmd
}

func runFormat(ctx context.Context, env *Env, input, output string, opts formatCmdOptions) error {
	if output == stdio && opts.outputFormat == "" {
		return fmt.Errorf("%w: writing to stdout requires --format", ErrUsage)
	}
	if opts.highpass < 0 || opts.lowpass < 0 {
		return fmt.Errorf("%w: filter cutoffs must be positive", ErrUsage)
	}
	if input != stdio {
		if err := checkInput(input); err != nil {
			return err
		}
	}
	s, err := env.openSession(ctx)
	if err != nil {
		return err
	}
	defer func() { _ = s.Close() }()

	var src ffmpeg.Source = ffmpeg.FilePath(input)
	if input == stdio {
		src = ffmpeg.Stream{R: env.Stdin}
	}
	var sink ffmpeg.Sink
	if output == stdio {
		sink = ffmpeg.StreamSink{W: env.Stdout}
	} else {
		sink = ffmpeg.FilePath(outputPath(output, s.cfg))
	}

	fo := edit.FormatOptions{
		DisableNoiseReduction: opts.noDenoise,
		OutputFormat:          opts.outputFormat,
		Fast:                  opts.fast,
	}
	if opts.highpass > 0 || opts.lowpass > 0 {
		nr := filter.DefaultNoiseReduction()
		if opts.highpass > 0 {
			nr.Highpass = filter.Float(opts.highpass)
		}
		if opts.lowpass > 0 {
			nr.Lowpass = filter.Float(opts.lowpass)
		}
		fo.NoiseReduction = &nr
	}

	bar := newProgressBar(env.Stderr, 100, "Formatting")
	err = s.tools.Editor.Format(ctx, src, sink, fo, edit.FormatCallbacks{
		OnProgress: func(percent float64) { _ = bar.Set(int(percent)) },
		OnFinished: func(name string) {
			_ = bar.Finish()
			if name != "pipe:1" {
				fmt.Fprintln(env.Stdout, name)
			}
		},
	})
	return err
}
