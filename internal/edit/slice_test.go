package edit_test

// Notes:
// - Editor runs against mockRunner/mockProber; no process is spawned
// - Outputs live under t.TempDir(); mockRunner only creates files when a
//   test needs them to exist

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"testing"

	"github.com/alnah/go-mediakit/internal/edit"
	"github.com/alnah/go-mediakit/internal/ffmpeg"
	"github.com/alnah/go-mediakit/internal/segment"
)

func TestSliceNames(t *testing.T) {
	t.Parallel()

	got := edit.SliceNames("/media/talk.mp4", "out", 3)
	want := []string{
		filepath.Join("out", "talk_1.mp4"),
		filepath.Join("out", "talk_2.mp4"),
		filepath.Join("out", "talk_3.mp4"),
	}
	if !slices.Equal(got, want) {
		t.Errorf("SliceNames() = %v, want %v", got, want)
	}
}

func TestSecs(t *testing.T) {
	t.Parallel()

	tests := []struct {
		in   float64
		want string
	}{
		{0, "0"},
		{1.5, "1.5"},
		{14.87 - 7.34, "7.53"},
		{-0.25, "-0.25"},
		{2.00049, "2"},
	}
	for _, tt := range tests {
		if got := edit.Secs(tt.in); got != tt.want {
			t.Errorf("Secs(%v) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestEditor_Slice(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	runner := &mockRunner{}
	e := edit.NewEditor(runner, mockProber{})

	ranges := []segment.Range{{Start: 0, End: 4}, {Start: 6, End: 8.5}}
	got, err := e.Slice(context.Background(), "in.mp4", edit.SliceOptions{Ranges: ranges, OutputFolder: dir})
	if err != nil {
		t.Fatalf("Slice() error = %v", err)
	}

	want := []string{filepath.Join(dir, "in_1.mp4"), filepath.Join(dir, "in_2.mp4")}
	if !slices.Equal(got, want) {
		t.Errorf("Slice() = %v, want %v", got, want)
	}

	wantArgs := [][]string{
		{"-hide_banner", "-n", "-ss", "0", "-i", "in.mp4", "-t", "4", want[0]},
		{"-hide_banner", "-n", "-ss", "6", "-i", "in.mp4", "-t", "2.5", want[1]},
	}
	if n := len(runner.invocations()); n != 2 {
		t.Fatalf("runs = %d, want 2", n)
	}
	for i := range wantArgs {
		if got := runner.args(i); !slices.Equal(got, wantArgs[i]) {
			t.Errorf("run %d args = %v, want %v", i, got, wantArgs[i])
		}
	}
}

func TestEditor_Slice_FastAddsThreads(t *testing.T) {
	t.Parallel()

	runner := &mockRunner{}
	e := edit.NewEditor(runner, mockProber{}, edit.WithThreads(4), edit.WithOverwrite(true))

	_, err := e.Slice(context.Background(), "in.mp4", edit.SliceOptions{
		Ranges:       []segment.Range{{Start: 1, End: 2}},
		OutputFolder: t.TempDir(),
		Fast:         true,
	})
	if err != nil {
		t.Fatalf("Slice() error = %v", err)
	}

	args := strings.Join(runner.args(0), " ")
	if !strings.Contains(args, "-t 1 -threads 4 ") {
		t.Errorf("args = %q, want -threads 4 after -t", args)
	}
	if !strings.HasPrefix(args, "-hide_banner -y ") {
		t.Errorf("args = %q, want -y with overwrite", args)
	}
}

func TestEditor_Slice_Errors(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		ranges  []segment.Range
		wantErr error
	}{
		{"no ranges", nil, segment.ErrEmptyRanges},
		{"open end", []segment.Range{{Start: 5, End: 0}}, segment.ErrInvalidRanges},
		{"reversed", []segment.Range{{Start: 5, End: 2}}, segment.ErrInvalidRanges},
		{"negative start", []segment.Range{{Start: -1, End: 2}}, segment.ErrInvalidRanges},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			runner := &mockRunner{}
			e := edit.NewEditor(runner, mockProber{})
			_, err := e.Slice(context.Background(), "in.mp4", edit.SliceOptions{Ranges: tt.ranges, OutputFolder: t.TempDir()})
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("Slice() error = %v, want %v", err, tt.wantErr)
			}
			if n := len(runner.invocations()); n != 0 {
				t.Errorf("runs = %d, want 0", n)
			}
		})
	}
}

func TestEditor_Slice_RefusesExistingOutput(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, "in_2.mp4"), []byte("x"), 0o600); err != nil {
		t.Fatal(err)
	}

	runner := &mockRunner{}
	e := edit.NewEditor(runner, mockProber{})
	_, err := e.Slice(context.Background(), "in.mp4", edit.SliceOptions{
		Ranges:       []segment.Range{{Start: 0, End: 1}, {Start: 2, End: 3}},
		OutputFolder: dir,
	})
	if !errors.Is(err, edit.ErrOutputExists) {
		t.Errorf("Slice() error = %v, want ErrOutputExists", err)
	}
	if n := len(runner.invocations()); n != 0 {
		t.Errorf("runs = %d, want 0 (checked before any slice)", n)
	}
}

func TestEditor_Slice_StopsOnFailure(t *testing.T) {
	t.Parallel()

	calls := 0
	runner := &mockRunner{RunFunc: func(context.Context, ffmpeg.Invocation) error {
		calls++
		if calls == 2 {
			return &ffmpeg.ExitError{Code: 1, Tail: []string{"boom"}}
		}
		return nil
	}}
	e := edit.NewEditor(runner, mockProber{})

	got, err := e.Slice(context.Background(), "in.mp4", edit.SliceOptions{
		Ranges:       []segment.Range{{Start: 0, End: 1}, {Start: 1, End: 2}, {Start: 2, End: 3}},
		OutputFolder: t.TempDir(),
	})
	if !errors.Is(err, ffmpeg.ErrRuntime) {
		t.Errorf("Slice() error = %v, want ErrRuntime", err)
	}
	if len(got) != 1 {
		t.Errorf("written = %v, want the first slice only", got)
	}
	if calls != 2 {
		t.Errorf("runs = %d, want 2", calls)
	}
}
