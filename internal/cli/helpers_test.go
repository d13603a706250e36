package cli

import (
	"bytes"
	"context"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/alnah/go-mediakit/internal/config"
	"github.com/alnah/go-mediakit/internal/interrupt"
)

// ---------------------------------------------------------------------------
// syncBuffer - thread-safe bytes.Buffer for concurrent test output
// ---------------------------------------------------------------------------

type syncBuffer struct {
	mu  sync.Mutex
	buf bytes.Buffer
}

func (b *syncBuffer) Write(p []byte) (n int, err error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.Write(p)
}

func (b *syncBuffer) String() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.String()
}

// Compile-time check that syncBuffer implements io.Writer.
var _ io.Writer = (*syncBuffer)(nil)

// ---------------------------------------------------------------------------
// testMocks - convenience struct for grouping all mocks
// ---------------------------------------------------------------------------

type testMocks struct {
	ffmpegResolver *mockFFmpegResolver
	configLoader   *mockConfigLoader
	tools          *mockToolsFactory
	prober         *mockProber
	splitter       *mockSplitter
	editor         *mockEditor
	transcriber    *mockTranscriberFactory
	stdout         *syncBuffer
	stderr         *syncBuffer
}

func newTestMocks() *testMocks {
	m := &testMocks{
		ffmpegResolver: &mockFFmpegResolver{},
		configLoader:   &mockConfigLoader{},
		prober:         &mockProber{},
		splitter:       &mockSplitter{},
		editor:         &mockEditor{},
		transcriber:    &mockTranscriberFactory{},
		stdout:         &syncBuffer{},
		stderr:         &syncBuffer{},
	}
	m.tools = &mockToolsFactory{prober: m.prober, splitter: m.splitter, editor: m.editor}
	return m
}

// ---------------------------------------------------------------------------
// testEnv - creates a fully mocked Env for testing
// ---------------------------------------------------------------------------

// testEnv creates a test Env with all dependencies mocked.
// Returns the Env and the mocks for assertions.
func testEnv() (*Env, *testMocks) {
	m := newTestMocks()
	env := &Env{
		Stdin:              bytes.NewReader(nil),
		Stdout:             m.stdout,
		Stderr:             m.stderr,
		Getenv:             defaultTestEnv,
		Now:                fixedTime(time.Date(2026, 1, 26, 14, 30, 52, 0, time.UTC)),
		FFmpegResolver:     m.ffmpegResolver,
		ConfigLoader:       m.configLoader,
		ToolsFactory:       m.tools,
		TranscriberFactory: m.transcriber,
		Interrupts:         noInterrupts,
		Serve: func(ctx context.Context, addr string, h http.Handler) error {
			return nil
		},
	}
	return env, m
}

// noInterrupts returns a handler that never sees a signal.
func noInterrupts(parent context.Context, stderr io.Writer) (*interrupt.Handler, context.Context) {
	return interrupt.NewHandlerWithOptions(parent, interrupt.Options{
		ExitFunc: func(int) {},
		Stderr:   stderr,
	})
}

// ---------------------------------------------------------------------------
// Test helpers
// ---------------------------------------------------------------------------

// fixedTime returns a function that always returns the given time.
func fixedTime(t time.Time) func() time.Time {
	return func() time.Time { return t }
}

// staticEnv returns a getenv function that returns values from the given map.
func staticEnv(env map[string]string) func(string) string {
	return func(key string) string {
		return env[key]
	}
}

// defaultTestEnv returns an OpenAI API key.
func defaultTestEnv(key string) string {
	if key == EnvOpenAIAPIKey {
		return "test-openai-key"
	}
	return ""
}

// createTestFile creates a temporary media file for testing.
// Returns the file path. The file is automatically cleaned up after the test.
func createTestFile(t *testing.T, name string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, []byte("fake media content"), 0o644); err != nil {
		t.Fatalf("failed to create test file: %v", err)
	}
	return path
}

// configWith returns a ConfigLoader that returns cfg.
func configWith(cfg config.Config) *mockConfigLoader {
	return &mockConfigLoader{
		LoadFunc: func() (config.Config, error) { return cfg, nil },
	}
}
