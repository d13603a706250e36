package cli

import (
	"context"
	"encoding/json"
	"errors"
	"path/filepath"
	"strings"
	"testing"

	"github.com/spf13/cobra"

	"github.com/alnah/go-mediakit/internal/audio"
	"github.com/alnah/go-mediakit/internal/config"
	"github.com/alnah/go-mediakit/internal/ffmpeg"
	"github.com/alnah/go-mediakit/internal/probe"
	"github.com/alnah/go-mediakit/internal/segment"
)

// execute runs cmd with args, discarding cobra's own usage output.
func execute(cmd *cobra.Command, args ...string) error {
	cmd.SetArgs(args)
	cmd.SetOut(&syncBuffer{})
	cmd.SetErr(&syncBuffer{})
	return cmd.Execute()
}

func testMetadata() probe.Metadata {
	return probe.Metadata{
		Format: probe.Format{FormatName: "mov,mp4,m4a", Duration: "62.5", Size: "1048576", BitRate: "128000"},
		Streams: []probe.Stream{
			{Index: 0, CodecName: "h264", CodecType: "video", Width: 1920, Height: 1080, Duration: "62.5"},
			{Index: 1, CodecName: "aac", CodecType: "audio", Channels: 2, SampleRate: "48000"},
		},
	}
}

// ---------------------------------------------------------------------------
// probe
// ---------------------------------------------------------------------------

func TestProbeCmd_Table(t *testing.T) {
	t.Parallel()

	input := createTestFile(t, "talk.mp4")
	env, m := testEnv()
	m.prober.ProbeFunc = func(_ context.Context, path string) (probe.Metadata, error) {
		if path != input {
			t.Errorf("Probe(%q), want %q", path, input)
		}
		return testMetadata(), nil
	}

	if err := execute(ProbeCmd(env), input); err != nil {
		t.Fatalf("probe %s unexpected error: %v", input, err)
	}
	out := m.stdout.String()
	for _, want := range []string{"mov,mp4,m4a", "h264", "1920x1080", "aac", "2 ch, 48000 Hz", "1.0 MB"} {
		if !strings.Contains(out, want) {
			t.Errorf("stdout = %q, want containing %q", out, want)
		}
	}
}

func TestProbeCmd_JSON(t *testing.T) {
	t.Parallel()

	input := createTestFile(t, "talk.mp4")
	env, m := testEnv()
	m.prober.ProbeFunc = func(context.Context, string) (probe.Metadata, error) {
		return testMetadata(), nil
	}

	if err := execute(ProbeCmd(env), input, "--json"); err != nil {
		t.Fatalf("probe --json unexpected error: %v", err)
	}
	var got probe.Metadata
	if err := json.Unmarshal([]byte(m.stdout.String()), &got); err != nil {
		t.Fatalf("stdout is not JSON: %v\n%s", err, m.stdout.String())
	}
	if len(got.Streams) != 2 || got.Streams[0].CodecName != "h264" {
		t.Errorf("decoded streams = %+v, want h264 then aac", got.Streams)
	}
}

func TestProbeCmd_Errors(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		setup    func(m *testMocks)
		missing  bool
		wantErr  error
		wantCode int
	}{
		{
			name:     "missing input",
			missing:  true,
			wantErr:  ErrFileNotFound,
			wantCode: ExitValidation,
		},
		{
			name: "ffmpeg not found",
			setup: func(m *testMocks) {
				m.ffmpegResolver.ResolveFunc = func(context.Context) (string, error) {
					return "", ffmpeg.ErrNotFound
				}
			},
			wantErr:  ffmpeg.ErrNotFound,
			wantCode: ExitSetup,
		},
		{
			name: "probe failure",
			setup: func(m *testMocks) {
				m.prober.ProbeFunc = func(context.Context, string) (probe.Metadata, error) {
					return probe.Metadata{}, probe.ErrProbeFailed
				}
			},
			wantErr:  probe.ErrProbeFailed,
			wantCode: ExitProcessing,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			env, m := testEnv()
			if tt.setup != nil {
				tt.setup(m)
			}
			input := createTestFile(t, "in.mp4")
			if tt.missing {
				input = filepath.Join(t.TempDir(), "missing.mp4")
			}

			err := execute(ProbeCmd(env), input)
			if !errors.Is(err, tt.wantErr) {
				t.Fatalf("probe error = %v, want %v", err, tt.wantErr)
			}
			if got := ExitCode(err); got != tt.wantCode {
				t.Errorf("ExitCode(%v) = %d, want %d", err, got, tt.wantCode)
			}
		})
	}
}

// ---------------------------------------------------------------------------
// silences
// ---------------------------------------------------------------------------

func TestSilencesCmd_Table(t *testing.T) {
	t.Parallel()

	input := createTestFile(t, "talk.wav")
	env, m := testEnv()
	m.splitter.DetectSilencesFunc = func(context.Context, string, audio.SilenceOptions) ([]segment.Range, error) {
		return []segment.Range{{Start: 1.5, End: 2.25}, {Start: 61, End: 62}}, nil
	}

	if err := execute(SilencesCmd(env), input); err != nil {
		t.Fatalf("silences unexpected error: %v", err)
	}
	out := m.stdout.String()
	for _, want := range []string{"00:00:01.500", "00:00:02.250", "0.750", "00:01:01.000"} {
		if !strings.Contains(out, want) {
			t.Errorf("stdout = %q, want containing %q", out, want)
		}
	}
}

func TestSilencesCmd_OptionPrecedence(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		cfg  config.Config
		args []string
		want audio.SilenceOptions
	}{
		{
			name: "defaults left to the detector",
			want: audio.SilenceOptions{},
		},
		{
			name: "config values",
			cfg:  config.Config{SilenceDuration: 0.8, SilenceThreshold: -40},
			want: audio.SilenceOptions{Duration: 0.8, Threshold: -40},
		},
		{
			name: "flags override config",
			cfg:  config.Config{SilenceDuration: 0.8, SilenceThreshold: -40},
			args: []string{"--duration", "1.2", "--threshold", "-30"},
			want: audio.SilenceOptions{Duration: 1.2, Threshold: -30},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			input := createTestFile(t, "talk.wav")
			env, m := testEnv()
			env.ConfigLoader = configWith(tt.cfg)

			var got audio.SilenceOptions
			m.splitter.DetectSilencesFunc = func(_ context.Context, _ string, opts audio.SilenceOptions) ([]segment.Range, error) {
				got = opts
				return nil, nil
			}

			if err := execute(SilencesCmd(env), append([]string{input}, tt.args...)...); err != nil {
				t.Fatalf("silences unexpected error: %v", err)
			}
			if got != tt.want {
				t.Errorf("DetectSilences options = %+v, want %+v", got, tt.want)
			}
		})
	}
}

func TestSilencesCmd_EmptyJSONIsArray(t *testing.T) {
	t.Parallel()

	input := createTestFile(t, "talk.wav")
	env, m := testEnv()

	if err := execute(SilencesCmd(env), input, "--json"); err != nil {
		t.Fatalf("silences --json unexpected error: %v", err)
	}
	if got := strings.TrimSpace(m.stdout.String()); got != "[]" {
		t.Errorf("stdout = %q, want []", got)
	}
}

func TestSilencesCmd_NoSilence(t *testing.T) {
	t.Parallel()

	input := createTestFile(t, "talk.wav")
	env, m := testEnv()

	if err := execute(SilencesCmd(env), input); err != nil {
		t.Fatalf("silences unexpected error: %v", err)
	}
	if !strings.Contains(m.stderr.String(), "No silence found.") {
		t.Errorf("stderr = %q, want containing %q", m.stderr.String(), "No silence found.")
	}
	if m.stdout.String() != "" {
		t.Errorf("stdout = %q, want empty", m.stdout.String())
	}
}

func TestSilencesCmd_InvalidFlags(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		args []string
	}{
		{"negative duration", []string{"--duration", "-1"}},
		{"positive threshold", []string{"--threshold", "5"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			input := createTestFile(t, "talk.wav")
			env, m := testEnv()

			err := execute(SilencesCmd(env), append([]string{input}, tt.args...)...)
			if !errors.Is(err, ErrUsage) {
				t.Fatalf("silences %v error = %v, want ErrUsage", tt.args, err)
			}
			if m.ffmpegResolver.ResolveCalls() != 0 {
				t.Error("ffmpeg was resolved before flag validation")
			}
		})
	}
}
