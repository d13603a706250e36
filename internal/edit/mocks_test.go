package edit_test

import (
	"context"
	"sync"

	"github.com/alnah/go-mediakit/internal/edit"
	"github.com/alnah/go-mediakit/internal/ffmpeg"
)

// Compile-time interface verification.
var (
	_ edit.ProcessRunner = (*mockRunner)(nil)
	_ edit.MediaProber   = mockProber{}
)

// mockRunner records invocations. RunFunc, when set, decides the outcome of
// each invocation and may create files to stand in for ffmpeg output.
type mockRunner struct {
	err      error
	progress []ffmpeg.Progress
	RunFunc  func(ctx context.Context, inv ffmpeg.Invocation) error

	mu   sync.Mutex
	invs []ffmpeg.Invocation
}

func (m *mockRunner) Run(ctx context.Context, inv ffmpeg.Invocation, h ffmpeg.Handlers) error {
	m.mu.Lock()
	m.invs = append(m.invs, inv)
	m.mu.Unlock()

	for _, p := range m.progress {
		if h.OnProgress != nil {
			h.OnProgress(p)
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

// args returns the argument vector of the i-th invocation.
func (m *mockRunner) args(i int) []string {
	args, err := m.invocations()[i].Args()
	if err != nil {
		panic(err)
	}
	return args
}

// mockProber returns fixed metadata and counts duration lookups.
type mockProber struct {
	duration      float64
	width, height int
	err           error
	calls         *int
}

func (m mockProber) Duration(context.Context, string) (float64, error) {
	if m.calls != nil {
		*m.calls++
	}
	return m.duration, m.err
}

func (m mockProber) VideoDimensions(context.Context, string) (int, int, error) {
	return m.width, m.height, m.err
}
