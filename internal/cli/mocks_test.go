package cli

import (
	"context"
	"log/slog"
	"sync"

	"github.com/alnah/go-mediakit/internal/audio"
	"github.com/alnah/go-mediakit/internal/config"
	"github.com/alnah/go-mediakit/internal/edit"
	"github.com/alnah/go-mediakit/internal/ffmpeg"
	"github.com/alnah/go-mediakit/internal/probe"
	"github.com/alnah/go-mediakit/internal/segment"
	"github.com/alnah/go-mediakit/internal/transcribe"
)

// ---------------------------------------------------------------------------
// Mock FFmpegResolver
// ---------------------------------------------------------------------------

type mockFFmpegResolver struct {
	ResolveFunc      func(ctx context.Context) (string, error)
	ResolveProbeFunc func(ffmpegPath string) (string, error)

	mu           sync.Mutex
	resolveCalls int
}

func (m *mockFFmpegResolver) Resolve(ctx context.Context) (string, error) {
	m.mu.Lock()
	m.resolveCalls++
	m.mu.Unlock()

	if m.ResolveFunc != nil {
		return m.ResolveFunc(ctx)
	}
	return "/usr/bin/ffmpeg", nil
}

func (m *mockFFmpegResolver) ResolveProbe(ffmpegPath string) (string, error) {
	if m.ResolveProbeFunc != nil {
		return m.ResolveProbeFunc(ffmpegPath)
	}
	return "/usr/bin/ffprobe", nil
}

func (m *mockFFmpegResolver) CheckVersion(context.Context, string) {}

func (m *mockFFmpegResolver) ResolveCalls() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.resolveCalls
}

// ---------------------------------------------------------------------------
// Mock ConfigLoader
// ---------------------------------------------------------------------------

type mockConfigLoader struct {
	LoadFunc func() (config.Config, error)
}

func (m *mockConfigLoader) Load() (config.Config, error) {
	if m.LoadFunc != nil {
		return m.LoadFunc()
	}
	return config.Config{}, nil
}

// ---------------------------------------------------------------------------
// Mock ToolsFactory + Prober, Splitter, Editor
// ---------------------------------------------------------------------------

type mockToolsFactory struct {
	prober   *mockProber
	splitter *mockSplitter
	editor   *mockEditor
	err      error

	mu    sync.Mutex
	calls []ToolsOptions
}

func (m *mockToolsFactory) NewTools(opts ToolsOptions) (*Tools, error) {
	m.mu.Lock()
	m.calls = append(m.calls, opts)
	m.mu.Unlock()

	if m.err != nil {
		return nil, m.err
	}
	return &Tools{Prober: m.prober, Splitter: m.splitter, Editor: m.editor}, nil
}

func (m *mockToolsFactory) Calls() []ToolsOptions {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]ToolsOptions(nil), m.calls...)
}

type mockProber struct {
	ProbeFunc    func(ctx context.Context, path string) (probe.Metadata, error)
	DurationFunc func(ctx context.Context, path string) (float64, error)
}

func (m *mockProber) Probe(ctx context.Context, path string) (probe.Metadata, error) {
	if m.ProbeFunc != nil {
		return m.ProbeFunc(ctx, path)
	}
	return probe.Metadata{}, nil
}

func (m *mockProber) Duration(ctx context.Context, path string) (float64, error) {
	if m.DurationFunc != nil {
		return m.DurationFunc(ctx, path)
	}
	return 60, nil
}

type mockSplitter struct {
	DetectSilencesFunc func(ctx context.Context, input string, opts audio.SilenceOptions) ([]segment.Range, error)
	SplitFunc          func(ctx context.Context, input, outputDir string, opts audio.SplitOptions, cb audio.SplitCallbacks) ([]audio.Chunk, error)

	mu         sync.Mutex
	splitCalls []splitCall
}

type splitCall struct {
	Input     string
	OutputDir string
	Opts      audio.SplitOptions
}

func (m *mockSplitter) DetectSilences(ctx context.Context, input string, opts audio.SilenceOptions) ([]segment.Range, error) {
	if m.DetectSilencesFunc != nil {
		return m.DetectSilencesFunc(ctx, input, opts)
	}
	return nil, nil
}

func (m *mockSplitter) Split(ctx context.Context, input, outputDir string, opts audio.SplitOptions, cb audio.SplitCallbacks) ([]audio.Chunk, error) {
	m.mu.Lock()
	m.splitCalls = append(m.splitCalls, splitCall{Input: input, OutputDir: outputDir, Opts: opts})
	m.mu.Unlock()

	if m.SplitFunc != nil {
		return m.SplitFunc(ctx, input, outputDir, opts, cb)
	}
	return []audio.Chunk{{Path: input, Index: 0, Range: segment.Range{Start: 0, End: 10}}}, nil
}

func (m *mockSplitter) SplitCalls() []splitCall {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]splitCall(nil), m.splitCalls...)
}

type mockEditor struct {
	SliceFunc        func(ctx context.Context, input string, opts edit.SliceOptions) ([]string, error)
	MergeFunc        func(ctx context.Context, inputs []string, output string, opts edit.MergeOptions) (string, error)
	CutFunc          func(ctx context.Context, input, output string, opts edit.CutOptions) (string, error)
	ReplaceAudioFunc func(ctx context.Context, video, audio, output string) (string, error)
	DelayAudioFunc   func(ctx context.Context, input, output string, delay float64) (string, error)
	FramesFunc       func(ctx context.Context, video string, opts edit.FramesOptions) ([]edit.Frame, error)
	FormatFunc       func(ctx context.Context, input ffmpeg.Source, output ffmpeg.Sink, opts edit.FormatOptions, cb edit.FormatCallbacks) error
}

func (m *mockEditor) Slice(ctx context.Context, input string, opts edit.SliceOptions) ([]string, error) {
	if m.SliceFunc != nil {
		return m.SliceFunc(ctx, input, opts)
	}
	return nil, nil
}

func (m *mockEditor) Merge(ctx context.Context, inputs []string, output string, opts edit.MergeOptions) (string, error) {
	if m.MergeFunc != nil {
		return m.MergeFunc(ctx, inputs, output, opts)
	}
	return output, nil
}

func (m *mockEditor) Cut(ctx context.Context, input, output string, opts edit.CutOptions) (string, error) {
	if m.CutFunc != nil {
		return m.CutFunc(ctx, input, output, opts)
	}
	return output, nil
}

func (m *mockEditor) ReplaceAudio(ctx context.Context, video, audio, output string) (string, error) {
	if m.ReplaceAudioFunc != nil {
		return m.ReplaceAudioFunc(ctx, video, audio, output)
	}
	return output, nil
}

func (m *mockEditor) DelayAudio(ctx context.Context, input, output string, delay float64) (string, error) {
	if m.DelayAudioFunc != nil {
		return m.DelayAudioFunc(ctx, input, output, delay)
	}
	return output, nil
}

func (m *mockEditor) Frames(ctx context.Context, video string, opts edit.FramesOptions) ([]edit.Frame, error) {
	if m.FramesFunc != nil {
		return m.FramesFunc(ctx, video, opts)
	}
	return nil, nil
}

func (m *mockEditor) Format(ctx context.Context, input ffmpeg.Source, output ffmpeg.Sink, opts edit.FormatOptions, cb edit.FormatCallbacks) error {
	if m.FormatFunc != nil {
		return m.FormatFunc(ctx, input, output, opts, cb)
	}
	return nil
}

// ---------------------------------------------------------------------------
// Mock TranscriberFactory + Transcriber
// ---------------------------------------------------------------------------

type mockTranscriberFactory struct {
	transcriber *mockTranscriber

	mu    sync.Mutex
	calls []string // API keys passed
}

func (m *mockTranscriberFactory) NewTranscriber(apiKey string, _ *slog.Logger) transcribe.Transcriber {
	m.mu.Lock()
	m.calls = append(m.calls, apiKey)
	m.mu.Unlock()

	if m.transcriber != nil {
		return m.transcriber
	}
	return &mockTranscriber{}
}

func (m *mockTranscriberFactory) Calls() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]string(nil), m.calls...)
}

type mockTranscriber struct {
	TranscribeFunc func(ctx context.Context, audioPath string, opts transcribe.Options) (transcribe.Result, error)

	mu    sync.Mutex
	calls []transcribe.Options
}

func (m *mockTranscriber) Transcribe(ctx context.Context, audioPath string, opts transcribe.Options) (transcribe.Result, error) {
	m.mu.Lock()
	m.calls = append(m.calls, opts)
	m.mu.Unlock()

	if m.TranscribeFunc != nil {
		return m.TranscribeFunc(ctx, audioPath, opts)
	}
	return transcribe.Result{Text: "transcribed text"}, nil
}

func (m *mockTranscriber) Calls() []transcribe.Options {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]transcribe.Options(nil), m.calls...)
}

// Compile-time interface verification.
var (
	_ FFmpegResolver         = (*mockFFmpegResolver)(nil)
	_ ConfigLoader           = (*mockConfigLoader)(nil)
	_ ToolsFactory           = (*mockToolsFactory)(nil)
	_ Prober                 = (*mockProber)(nil)
	_ Splitter               = (*mockSplitter)(nil)
	_ Editor                 = (*mockEditor)(nil)
	_ TranscriberFactory     = (*mockTranscriberFactory)(nil)
	_ transcribe.Transcriber = (*mockTranscriber)(nil)
)
