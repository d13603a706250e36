package server_test

import (
	"context"
	"io"
	"sync"

	"github.com/alnah/go-mediakit/internal/audio"
	"github.com/alnah/go-mediakit/internal/edit"
	"github.com/alnah/go-mediakit/internal/ffmpeg"
	"github.com/alnah/go-mediakit/internal/probe"
	"github.com/alnah/go-mediakit/internal/segment"
	"github.com/alnah/go-mediakit/internal/server"
)

// Compile-time interface verification.
var (
	_ server.MetadataProber  = (*mockProber)(nil)
	_ server.SilenceDetector = (*mockDetector)(nil)
	_ server.ChunkSplitter   = (*mockSplitter)(nil)
	_ server.AudioFormatter  = (*mockFormatter)(nil)
)

type mockProber struct {
	md  probe.Metadata
	err error

	mu   sync.Mutex
	path string
}

func (m *mockProber) Probe(_ context.Context, path string) (probe.Metadata, error) {
	m.mu.Lock()
	m.path = path
	m.mu.Unlock()
	return m.md, m.err
}

type mockDetector struct {
	ranges []segment.Range
	err    error

	mu   sync.Mutex
	opts audio.SilenceOptions
}

func (m *mockDetector) DetectSilences(_ context.Context, _ string, opts audio.SilenceOptions) ([]segment.Range, error) {
	m.mu.Lock()
	m.opts = opts
	m.mu.Unlock()
	return m.ranges, m.err
}

func (m *mockDetector) options() audio.SilenceOptions {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.opts
}

// mockSplitter reports every chunk through the callbacks. When gate is set
// it blocks until gate is closed or ctx ends.
type mockSplitter struct {
	chunks []audio.Chunk
	err    error
	gate   chan struct{}
}

func (m *mockSplitter) Split(ctx context.Context, _, _ string, _ audio.SplitOptions, cb audio.SplitCallbacks) ([]audio.Chunk, error) {
	if m.gate != nil {
		select {
		case <-m.gate:
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	if m.err != nil {
		return nil, m.err
	}
	if cb.OnStarted != nil {
		cb.OnStarted(len(m.chunks))
	}
	for _, c := range m.chunks {
		if cb.OnProgress != nil {
			cb.OnProgress(c.Path, c.Index)
		}
	}
	if cb.OnFinished != nil {
		cb.OnFinished()
	}
	return m.chunks, nil
}

// mockFormatter copies the input stream to the output, or runs FormatFunc.
type mockFormatter struct {
	FormatFunc func(in io.Reader, out io.Writer) error

	mu   sync.Mutex
	opts edit.FormatOptions
}

func (m *mockFormatter) Format(_ context.Context, input ffmpeg.Source, output ffmpeg.Sink, opts edit.FormatOptions, _ edit.FormatCallbacks) error {
	m.mu.Lock()
	m.opts = opts
	m.mu.Unlock()

	in := input.(ffmpeg.Stream).R
	out := output.(ffmpeg.StreamSink).W
	if m.FormatFunc != nil {
		return m.FormatFunc(in, out)
	}
	_, err := io.Copy(out, in)
	return err
}

func (m *mockFormatter) options() edit.FormatOptions {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.opts
}
