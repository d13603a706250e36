package cli

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"github.com/spf13/cobra"

	"github.com/alnah/go-mediakit/internal/audio"
	"github.com/alnah/go-mediakit/internal/config"
	"github.com/alnah/go-mediakit/internal/fsutil"
	"github.com/alnah/go-mediakit/internal/lang"
	"github.com/alnah/go-mediakit/internal/transcribe"
)

// supportedFormats lists audio formats accepted by OpenAI's transcription API.
// Source: https://platform.openai.com/docs/guides/speech-to-text
var supportedFormats = map[string]bool{
	".ogg":  true,
	".mp3":  true,
	".wav":  true,
	".m4a":  true,
	".flac": true,
	".mp4":  true,
	".mpeg": true,
	".mpga": true,
	".webm": true,
}

// supportedFormatsList returns a sorted, comma-separated list for error messages.
func supportedFormatsList() string {
	formats := make([]string, 0, len(supportedFormats))
	for ext := range supportedFormats {
		formats = append(formats, strings.TrimPrefix(ext, "."))
	}
	slices.Sort(formats)
	return strings.Join(formats, ", ")
}

// clampParallel constrains parallel request count to valid range [1, MaxRecommendedParallel].
func clampParallel(n int) int {
	return min(max(n, 1), transcribe.MaxRecommendedParallel)
}

// deriveOutputPath converts an audio file path to a transcript path.
// Example: "session.ogg" -> "session.txt"
func deriveOutputPath(inputPath string) string {
	ext := filepath.Ext(inputPath)
	return strings.TrimSuffix(inputPath, ext) + ".txt"
}

type transcribeOptions struct {
	output   string
	language string
	prompt   string
	parallel int
}

// TranscribeCmd creates the transcribe command.
// The env parameter provides injectable dependencies for testing.
func TranscribeCmd(env *Env) *cobra.Command {
	var opts transcribeOptions

	cmd := &cobra.Command{
		Use:   "transcribe <audio-file>",
		Short: "Transcribe an audio file",
		Long: `Transcribe an audio file using OpenAI's transcription API.

The audio is split into chunks at natural silence points, the chunks are
transcribed in parallel, and the transcript is written with an [HH:MM:SS]
marker at the start of each chunk.

Requires OPENAI_API_KEY.

Supported formats: ` + supportedFormatsList(),
		Example: `  mediakit transcribe lecture.mp3
  mediakit transcribe interview.m4a -o interview.txt -l fr
  mediakit transcribe talk.wav --prompt "Kubernetes, etcd, kubelet"`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runTranscribe(cmd.Context(), env, args[0], opts)
		},
	}

	cmd.Flags().StringVarP(&opts.output, "output", "o", "", "Output file path (default: <input>.txt)")
	cmd.Flags().StringVarP(&opts.language, "language", "l", "", "Audio language (ISO 639-1 code, e.g., en, fr, pt-BR)")
	cmd.Flags().StringVar(&opts.prompt, "prompt", "", "Vocabulary hint passed to the model")
	cmd.Flags().IntVarP(&opts.parallel, "parallel", "p", transcribe.MaxRecommendedParallel, "Max concurrent API requests (1-10)")

	return cmd
}

// runTranscribe executes the transcription pipeline.
// Validation order: file exists -> format -> language -> API key -> output.
func runTranscribe(ctx context.Context, env *Env, input string, opts transcribeOptions) error {
	// === VALIDATION (fail-fast) ===

	if err := checkInput(input); err != nil {
		return err
	}
	ext := strings.ToLower(filepath.Ext(input))
	if !supportedFormats[ext] {
		return fmt.Errorf("%w: unsupported format %q (supported: %s)",
			ErrUsage, ext, supportedFormatsList())
	}
	if err := lang.Validate(opts.language); err != nil {
		return err
	}
	apiKey := env.Getenv(EnvOpenAIAPIKey)
	if apiKey == "" {
		return fmt.Errorf("%w (set it with: export %s=sk-...)", transcribe.ErrAPIKeyMissing, EnvOpenAIAPIKey)
	}

	// === SETUP ===

	s, err := env.openSession(ctx)
	if err != nil {
		return err
	}
	defer func() { _ = s.Close() }()

	output := config.ResolveOutputPath(config.ExpandPath(opts.output),
		config.ExpandPath(s.cfg.OutputDir), deriveOutputPath(filepath.Base(input)))
	if !env.Overwrite && fsutil.Exists(output) {
		return fmt.Errorf("%w: %s", ErrOutputExists, output)
	}

	// === CHUNKING ===

	tmp, err := fsutil.CreateTempDir("mediakit-transcribe-")
	if err != nil {
		return fmt.Errorf("create chunk directory: %w", err)
	}
	defer func() {
		if err := os.RemoveAll(tmp); err != nil {
			fmt.Fprintf(env.Stderr, "Warning: failed to cleanup chunks: %v\n", err)
		}
	}()

	fmt.Fprintln(env.Stderr, "Detecting silences...")
	chunks, err := s.tools.Splitter.Split(ctx, input, tmp, audio.SplitOptions{
		ChunkDuration: s.cfg.ChunkDuration,
		Silence:       silenceOptions(s.cfg.SilenceDuration, s.cfg.SilenceThreshold),
	}, audio.SplitCallbacks{})
	if err != nil {
		return err
	}
	fmt.Fprintf(env.Stderr, "Chunking audio... %d chunk(s)\n", len(chunks))

	// === TRANSCRIPTION ===

	transcriber := env.TranscriberFactory.NewTranscriber(apiKey, s.logger)
	fmt.Fprintln(env.Stderr, "Transcribing...")
	transcript, err := transcribe.TranscribeChunks(ctx, chunks, transcriber, transcribe.Options{
		Prompt:   opts.prompt,
		Language: opts.language,
	}, clampParallel(opts.parallel))
	if err != nil {
		return err
	}

	// === WRITE OUTPUT ===

	if err := writeOutput(output, env.Overwrite, transcript); err != nil {
		return err
	}
	fmt.Fprintf(env.Stderr, "Done: %s\n", output)
	return nil
}
