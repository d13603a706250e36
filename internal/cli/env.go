package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/google/uuid"
	openai "github.com/sashabaranov/go-openai"
	"github.com/spf13/pflag"

	"github.com/alnah/go-mediakit/internal/audio"
	"github.com/alnah/go-mediakit/internal/config"
	"github.com/alnah/go-mediakit/internal/edit"
	"github.com/alnah/go-mediakit/internal/ffmpeg"
	"github.com/alnah/go-mediakit/internal/interrupt"
	"github.com/alnah/go-mediakit/internal/logging"
	"github.com/alnah/go-mediakit/internal/probe"
	"github.com/alnah/go-mediakit/internal/segment"
	"github.com/alnah/go-mediakit/internal/transcribe"
)

// EnvOpenAIAPIKey is the environment variable holding the OpenAI API key.
const EnvOpenAIAPIKey = "OPENAI_API_KEY"

// defaultLogLevel keeps the CLI quiet unless asked otherwise; progress is
// printed separately.
const defaultLogLevel = "warn"

// Env holds injectable dependencies for CLI commands.
// This is the central injection point for testing CLI commands in isolation.
//
// All fields have sensible defaults via DefaultEnv(). Tests can override
// specific fields using the With* options or by creating a custom Env.
//
// Env must not be nil when passed to command functions. Use DefaultEnv()
// or NewEnv() to create a valid instance.
type Env struct {
	// I/O and environment
	Stdin  io.Reader
	Stdout io.Writer
	Stderr io.Writer
	Getenv func(string) string
	Now    func() time.Time

	// Global flags, bound with BindFlags.
	LogLevel  string
	LogFormat string
	Overwrite bool

	// Factories for domain objects
	FFmpegResolver     FFmpegResolver
	ConfigLoader       ConfigLoader
	ToolsFactory       ToolsFactory
	TranscriberFactory TranscriberFactory
	Interrupts         InterruptFactory
	Serve              ServeFunc
}

// FFmpegResolver locates the ffmpeg and ffprobe binaries.
type FFmpegResolver interface {
	Resolve(ctx context.Context) (string, error)
	ResolveProbe(ffmpegPath string) (string, error)
	CheckVersion(ctx context.Context, ffmpegPath string)
}

// ConfigLoader loads and provides access to configuration.
type ConfigLoader interface {
	Load() (config.Config, error)
}

// Prober inspects media files.
type Prober interface {
	Probe(ctx context.Context, path string) (probe.Metadata, error)
	Duration(ctx context.Context, path string) (float64, error)
}

// Splitter detects silences and splits recordings at them.
type Splitter interface {
	DetectSilences(ctx context.Context, input string, opts audio.SilenceOptions) ([]segment.Range, error)
	Split(ctx context.Context, input, outputDir string, opts audio.SplitOptions, cb audio.SplitCallbacks) ([]audio.Chunk, error)
}

// Editor runs file-level edit operations.
type Editor interface {
	Slice(ctx context.Context, input string, opts edit.SliceOptions) ([]string, error)
	Merge(ctx context.Context, inputs []string, output string, opts edit.MergeOptions) (string, error)
	Cut(ctx context.Context, input, output string, opts edit.CutOptions) (string, error)
	ReplaceAudio(ctx context.Context, video, audio, output string) (string, error)
	DelayAudio(ctx context.Context, input, output string, delay float64) (string, error)
	Frames(ctx context.Context, video string, opts edit.FramesOptions) ([]edit.Frame, error)
	Format(ctx context.Context, input ffmpeg.Source, output ffmpeg.Sink, opts edit.FormatOptions, cb edit.FormatCallbacks) error
}

// Tools bundles the media operations built for one command run.
type Tools struct {
	Prober   Prober
	Splitter Splitter
	Editor   Editor

	// closers run in reverse order on Close.
	closers []func() error
}

// Close releases resources held by the tools, such as the probe cache.
func (t *Tools) Close() error {
	var errs []error
	for i := len(t.closers) - 1; i >= 0; i-- {
		errs = append(errs, t.closers[i]())
	}
	return errors.Join(errs...)
}

// ToolsOptions configures ToolsFactory.NewTools.
type ToolsOptions struct {
	FFmpegPath  string
	FFprobePath string
	ProbeCache  string // SQLite cache path; empty disables caching
	Overwrite   bool
	Logger      *slog.Logger
}

// ToolsFactory creates the media operations.
type ToolsFactory interface {
	NewTools(opts ToolsOptions) (*Tools, error)
}

// TranscriberFactory creates transcribers for audio-to-text conversion.
type TranscriberFactory interface {
	NewTranscriber(apiKey string, logger *slog.Logger) transcribe.Transcriber
}

// InterruptFactory creates the double Ctrl+C handler for long runs.
type InterruptFactory func(parent context.Context, stderr io.Writer) (*interrupt.Handler, context.Context)

// ServeFunc serves h on addr until ctx is cancelled.
type ServeFunc func(ctx context.Context, addr string, h http.Handler) error

// EnvOption configures an Env.
type EnvOption func(*Env)

// WithStdin sets the stdin reader.
func WithStdin(r io.Reader) EnvOption {
	return func(e *Env) {
		e.Stdin = r
	}
}

// WithStdout sets the stdout writer.
func WithStdout(w io.Writer) EnvOption {
	return func(e *Env) {
		e.Stdout = w
	}
}

// WithStderr sets the stderr writer.
func WithStderr(w io.Writer) EnvOption {
	return func(e *Env) {
		e.Stderr = w
	}
}

// WithGetenv sets the environment variable getter.
func WithGetenv(fn func(string) string) EnvOption {
	return func(e *Env) {
		e.Getenv = fn
	}
}

// WithNow sets the time provider.
func WithNow(fn func() time.Time) EnvOption {
	return func(e *Env) {
		e.Now = fn
	}
}

// WithFFmpegResolver sets the FFmpeg resolver.
func WithFFmpegResolver(r FFmpegResolver) EnvOption {
	return func(e *Env) {
		e.FFmpegResolver = r
	}
}

// WithConfigLoader sets the config loader.
func WithConfigLoader(l ConfigLoader) EnvOption {
	return func(e *Env) {
		e.ConfigLoader = l
	}
}

// WithToolsFactory sets the media tools factory.
func WithToolsFactory(f ToolsFactory) EnvOption {
	return func(e *Env) {
		e.ToolsFactory = f
	}
}

// WithTranscriberFactory sets the transcriber factory.
func WithTranscriberFactory(f TranscriberFactory) EnvOption {
	return func(e *Env) {
		e.TranscriberFactory = f
	}
}

// WithInterrupts sets the interrupt handler factory.
func WithInterrupts(f InterruptFactory) EnvOption {
	return func(e *Env) {
		e.Interrupts = f
	}
}

// WithServe sets the HTTP serve function.
func WithServe(fn ServeFunc) EnvOption {
	return func(e *Env) {
		e.Serve = fn
	}
}

// DefaultEnv returns an Env with production defaults.
func DefaultEnv() *Env {
	return &Env{
		Stdin:              os.Stdin,
		Stdout:             os.Stdout,
		Stderr:             os.Stderr,
		Getenv:             os.Getenv,
		Now:                time.Now,
		FFmpegResolver:     &defaultFFmpegResolver{},
		ConfigLoader:       &defaultConfigLoader{},
		ToolsFactory:       &defaultToolsFactory{},
		TranscriberFactory: &defaultTranscriberFactory{},
		Interrupts:         defaultInterrupts,
		Serve:              serveHTTP,
	}
}

// NewEnv creates an Env with the given options applied to defaults.
func NewEnv(opts ...EnvOption) *Env {
	env := DefaultEnv()
	for _, opt := range opts {
		opt(env)
	}
	return env
}

// BindFlags registers the global flags on fs, usually the root command's
// persistent flags.
func (e *Env) BindFlags(fs *pflag.FlagSet) {
	fs.StringVar(&e.LogLevel, "log-level", "", "Log level: debug, info, warn, error (default: config log-level, then warn)")
	fs.StringVar(&e.LogFormat, "log-format", logging.FormatAuto, "Log format: text or json (default: text on a terminal)")
	fs.BoolVarP(&e.Overwrite, "overwrite", "y", false, "Replace existing output files")
}

// loadConfig loads the configuration, warning instead of failing so a broken
// config file never blocks a run.
func (e *Env) loadConfig() config.Config {
	cfg, err := e.ConfigLoader.Load()
	if err != nil {
		fmt.Fprintf(e.Stderr, "Warning: failed to load config: %v\n", err)
	}
	return cfg
}

// logger builds the run logger. The level comes from --log-level, then the
// config file, then defaultLogLevel. Every record carries the invocation id.
func (e *Env) logger(cfg config.Config) (*slog.Logger, error) {
	level := e.LogLevel
	if level == "" {
		level = cfg.LogLevel
	}
	if level == "" {
		level = defaultLogLevel
	}
	l, err := logging.New(logging.Options{Level: level, Format: e.LogFormat, Output: e.Stderr})
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrUsage, err)
	}
	return l.With("invocation_id", uuid.NewString()), nil
}

// session is the state shared by commands that run ffmpeg.
type session struct {
	cfg    config.Config
	logger *slog.Logger
	tools  *Tools
}

func (s *session) Close() error {
	return s.tools.Close()
}

// openSession loads configuration, resolves the binaries and builds the tools.
func (e *Env) openSession(ctx context.Context) (*session, error) {
	cfg := e.loadConfig()
	logger, err := e.logger(cfg)
	if err != nil {
		return nil, err
	}

	ffmpegPath, err := e.FFmpegResolver.Resolve(ctx)
	if err != nil {
		return nil, err
	}
	e.FFmpegResolver.CheckVersion(ctx, ffmpegPath)
	ffprobePath, err := e.FFmpegResolver.ResolveProbe(ffmpegPath)
	if err != nil {
		return nil, err
	}
	logger.Debug("binaries resolved", "ffmpeg", ffmpegPath, "ffprobe", ffprobePath)

	tools, err := e.ToolsFactory.NewTools(ToolsOptions{
		FFmpegPath:  ffmpegPath,
		FFprobePath: ffprobePath,
		ProbeCache:  cfg.ProbeCache,
		Overwrite:   e.Overwrite,
		Logger:      logger,
	})
	if err != nil {
		return nil, err
	}
	return &session{cfg: cfg, logger: logger, tools: tools}, nil
}

// ---------------------------------------------------------------------------
// Default implementations - delegate to real packages
// ---------------------------------------------------------------------------

// defaultFFmpegResolver implements FFmpegResolver using the ffmpeg package.
type defaultFFmpegResolver struct{}

func (defaultFFmpegResolver) Resolve(ctx context.Context) (string, error) {
	return ffmpeg.Resolve(ctx)
}

func (defaultFFmpegResolver) ResolveProbe(ffmpegPath string) (string, error) {
	return ffmpeg.ResolveProbe(ffmpegPath)
}

func (defaultFFmpegResolver) CheckVersion(ctx context.Context, ffmpegPath string) {
	ffmpeg.CheckVersion(ctx, ffmpegPath)
}

// defaultConfigLoader implements ConfigLoader using the config package.
type defaultConfigLoader struct{}

func (defaultConfigLoader) Load() (config.Config, error) {
	return config.Load()
}

// defaultToolsFactory wires the ffmpeg supervisor into the probe, audio and
// edit packages.
type defaultToolsFactory struct{}

func (defaultToolsFactory) NewTools(opts ToolsOptions) (*Tools, error) {
	tools := &Tools{}

	proberOpts := []probe.Option{probe.WithLogger(opts.Logger)}
	if opts.ProbeCache != "" {
		cache, err := probe.OpenCache(config.ExpandPath(opts.ProbeCache))
		if err != nil {
			// The cache only saves time; run without it.
			opts.Logger.Warn("probe cache disabled", "path", opts.ProbeCache, "error", err)
		} else {
			proberOpts = append(proberOpts, probe.WithCache(cache))
			tools.closers = append(tools.closers, cache.Close)
		}
	}
	prober := probe.NewProber(opts.FFprobePath, proberOpts...)

	runner := ffmpeg.NewSupervisor(opts.FFmpegPath, ffmpeg.WithLogger(opts.Logger))
	tools.Prober = prober
	tools.Splitter = audio.NewSplitter(runner, prober, audio.WithSplitterLogger(opts.Logger))
	tools.Editor = edit.NewEditor(runner, prober,
		edit.WithLogger(opts.Logger),
		edit.WithOverwrite(opts.Overwrite))
	return tools, nil
}

// defaultTranscriberFactory implements TranscriberFactory using OpenAI.
type defaultTranscriberFactory struct{}

func (defaultTranscriberFactory) NewTranscriber(apiKey string, logger *slog.Logger) transcribe.Transcriber {
	client := openai.NewClient(apiKey)
	return transcribe.NewOpenAITranscriber(client, transcribe.WithLogger(logger))
}

// defaultInterrupts listens for SIGINT and SIGTERM. A second signal does not
// exit the process on its own: the command removes its partial output first
// and main exits with ExitInterrupt.
func defaultInterrupts(parent context.Context, stderr io.Writer) (*interrupt.Handler, context.Context) {
	sigCh := make(chan os.Signal, 2)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	return interrupt.NewHandlerWithOptions(parent, interrupt.Options{
		SigCh:    sigCh,
		ExitFunc: func(int) {},
		Stderr:   stderr,
	})
}

// Compile-time interface verification.
var (
	_ FFmpegResolver     = (*defaultFFmpegResolver)(nil)
	_ ConfigLoader       = (*defaultConfigLoader)(nil)
	_ ToolsFactory       = (*defaultToolsFactory)(nil)
	_ TranscriberFactory = (*defaultTranscriberFactory)(nil)
	_ Prober             = (*probe.Prober)(nil)
	_ Splitter           = (*audio.Splitter)(nil)
	_ Editor             = (*edit.Editor)(nil)
	_ InterruptFactory   = defaultInterrupts
	_ ServeFunc          = serveHTTP
)
