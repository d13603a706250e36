package edit_test

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"testing"

	"github.com/alnah/go-mediakit/internal/edit"
	"github.com/alnah/go-mediakit/internal/ffmpeg"
	"github.com/alnah/go-mediakit/internal/filter"
)

// writeFrames stands in for ffmpeg's image2 muxer: it creates n files from
// the invocation's output pattern.
func writeFrames(n int) func(context.Context, ffmpeg.Invocation) error {
	return func(_ context.Context, inv ffmpeg.Invocation) error {
		pattern := string(inv.Output.(ffmpeg.FilePath))
		for i := range n {
			if err := os.WriteFile(fmt.Sprintf(pattern, i), []byte("jpg"), 0o600); err != nil {
				return err
			}
		}
		return nil
	}
}

func optionValue(args []string, flag string) string {
	i := slices.Index(args, flag)
	if i < 0 || i+1 >= len(args) {
		return ""
	}
	return args[i+1]
}

func TestEditor_Frames(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	// Unrelated files in the folder are ignored.
	for _, name := range []string{"notes.txt", "frame_x.jpg", "other_0001.jpg"} {
		if err := os.WriteFile(filepath.Join(dir, name), nil, 0o600); err != nil {
			t.Fatal(err)
		}
	}

	runner := &mockRunner{RunFunc: writeFrames(12)}
	e := edit.NewEditor(runner, mockProber{})

	frames, err := e.Frames(context.Background(), "talk.mp4", edit.FramesOptions{Frequency: 2.5, OutputFolder: dir})
	if err != nil {
		t.Fatalf("Frames() error = %v", err)
	}
	if len(frames) != 12 {
		t.Fatalf("Frames() returned %d frames, want 12", len(frames))
	}
	for i, f := range frames {
		if want := float64(i) * 2.5; f.Start != want {
			t.Errorf("frames[%d].Start = %v, want %v", i, f.Start, want)
		}
		if want := filepath.Join(dir, fmt.Sprintf("frame_%04d.jpg", i)); f.Path != want {
			t.Errorf("frames[%d].Path = %q, want %q", i, f.Path, want)
		}
	}

	args := runner.args(0)
	if got := optionValue(args, "-vf"); got != "fps=1/2.5" {
		t.Errorf("-vf = %q, want fps=1/2.5", got)
	}
	if got := optionValue(args, "-vsync"); got != "vfr" {
		t.Errorf("-vsync = %q, want vfr", got)
	}
	if got := optionValue(args, "-start_number"); got != "0" {
		t.Errorf("-start_number = %q, want 0", got)
	}
	if got, want := args[len(args)-1], filepath.Join(dir, "frame_%04d.jpg"); got != want {
		t.Errorf("output = %q, want %q", got, want)
	}
}

func TestEditor_Frames_Filters(t *testing.T) {
	t.Parallel()

	crop, err := filter.PresetCrop(filter.BottomText)
	if err != nil {
		t.Fatal(err)
	}

	runner := &mockRunner{}
	e := edit.NewEditor(runner, mockProber{width: 1920, height: 1080})

	_, err = e.Frames(context.Background(), "talk.mp4", edit.FramesOptions{
		Frequency:     1,
		OutputFolder:  t.TempDir(),
		Prefix:        "shot-",
		Extension:     ".png",
		Crop:          &crop,
		Preprocessing: &filter.Preprocessing{Grayscale: true},
	})
	if err != nil {
		t.Fatalf("Frames() error = %v", err)
	}

	args := runner.args(0)
	want := "fps=1/1,crop=1920:270:0:810,format=gray"
	if got := optionValue(args, "-vf"); got != want {
		t.Errorf("-vf = %q, want %q", got, want)
	}
	if got := args[len(args)-1]; filepath.Base(got) != "shot-%04d.png" {
		t.Errorf("output = %q, want shot-%%04d.png pattern", got)
	}
}

func TestEditor_Frames_Errors(t *testing.T) {
	t.Parallel()

	dimErr := probeError("no video stream")
	crop := filter.Crop{Top: 10}

	tests := []struct {
		name    string
		opts    edit.FramesOptions
		prober  mockProber
		wantErr error
	}{
		{"zero frequency", edit.FramesOptions{}, mockProber{}, edit.ErrInvalidFrequency},
		{"negative frequency", edit.FramesOptions{Frequency: -1}, mockProber{}, edit.ErrInvalidFrequency},
		{"dimensions unavailable", edit.FramesOptions{Frequency: 1, Crop: &crop}, mockProber{err: dimErr}, dimErr},
		{"crop covers frame", edit.FramesOptions{Frequency: 1, Crop: &filter.Crop{Top: 60, Bottom: 60}}, mockProber{width: 640, height: 480}, filter.ErrInvalidCrop},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			tt.opts.OutputFolder = t.TempDir()
			runner := &mockRunner{}
			e := edit.NewEditor(runner, tt.prober)
			_, err := e.Frames(context.Background(), "talk.mp4", tt.opts)
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("Frames() error = %v, want %v", err, tt.wantErr)
			}
			if n := len(runner.invocations()); n != 0 {
				t.Errorf("runs = %d, want 0", n)
			}
		})
	}
}

type probeError string

func (e probeError) Error() string { return string(e) }
