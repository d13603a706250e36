package audio_test

import (
	"context"
	"os"
	"sync"
	"time"

	"github.com/alnah/go-mediakit/internal/audio"
	"github.com/alnah/go-mediakit/internal/ffmpeg"
)

// Compile-time interface verification.
var (
	_ audio.ProcessRunner  = (*mockRunner)(nil)
	_ audio.DurationProber = mockProber{}
	_ audio.FileStatter    = mockStatter{}
	_ audio.FileRemover    = (*recordingRemover)(nil)
)

// mockRunner records invocations and replays diagnostic lines.
// RunFunc, when set, decides the outcome of each invocation.
type mockRunner struct {
	lines   []string
	err     error
	RunFunc func(ctx context.Context, inv ffmpeg.Invocation) error

	mu   sync.Mutex
	invs []ffmpeg.Invocation
}

func (m *mockRunner) Run(ctx context.Context, inv ffmpeg.Invocation, h ffmpeg.Handlers) error {
	m.mu.Lock()
	m.invs = append(m.invs, inv)
	m.mu.Unlock()

	for _, line := range m.lines {
		if h.OnDiagnosticLine != nil {
			h.OnDiagnosticLine(line)
		}
	}
	if m.RunFunc != nil {
		return m.RunFunc(ctx, inv)
	}
	return m.err
}

func (m *mockRunner) invocations() []ffmpeg.Invocation {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]ffmpeg.Invocation(nil), m.invs...)
}

// mockProber returns a fixed duration.
type mockProber struct {
	duration float64
	err      error
}

func (m mockProber) Duration(context.Context, string) (float64, error) {
	return m.duration, m.err
}

// mockStatter reports every file as existing unless err is set.
type mockStatter struct {
	err error
}

func (m mockStatter) Stat(name string) (os.FileInfo, error) {
	if m.err != nil {
		return nil, m.err
	}
	return fakeFileInfo{name: name}, nil
}

type fakeFileInfo struct {
	name string
}

func (f fakeFileInfo) Name() string       { return f.name }
func (f fakeFileInfo) Size() int64        { return 1024 }
func (f fakeFileInfo) Mode() os.FileMode  { return 0o644 }
func (f fakeFileInfo) ModTime() time.Time { return time.Time{} }
func (f fakeFileInfo) IsDir() bool        { return false }
func (f fakeFileInfo) Sys() any           { return nil }

// noopDirs skips directory creation.
type noopDirs struct{}

func (noopDirs) MkdirAll(string, os.FileMode) error { return nil }

// recordingRemover records removed paths without touching the filesystem.
type recordingRemover struct {
	mu    sync.Mutex
	paths []string
}

func (r *recordingRemover) Remove(name string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.paths = append(r.paths, name)
	return nil
}

func (r *recordingRemover) removed() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]string(nil), r.paths...)
}
