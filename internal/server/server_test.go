package server_test

// Notes:
// - Handlers run behind httptest.Server with mocked probing, detection,
//   splitting and formatting; no ffmpeg process is spawned
// - Job ids are fixed with WithIDFunc so routes can be built up front

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/alnah/go-mediakit/internal/audio"
	"github.com/alnah/go-mediakit/internal/ffmpeg"
	"github.com/alnah/go-mediakit/internal/probe"
	"github.com/alnah/go-mediakit/internal/segment"
	"github.com/alnah/go-mediakit/internal/server"
)

type deps struct {
	prober    *mockProber
	detector  *mockDetector
	splitter  *mockSplitter
	formatter *mockFormatter
}

func newDeps() deps {
	return deps{
		prober:    &mockProber{},
		detector:  &mockDetector{},
		splitter:  &mockSplitter{},
		formatter: &mockFormatter{},
	}
}

// newTestServer starts d behind an httptest.Server. Jobs get the id "job-1".
func newTestServer(t *testing.T, d deps, opts ...server.Option) *httptest.Server {
	t.Helper()
	opts = append([]server.Option{server.WithIDFunc(func() string { return "job-1" })}, opts...)
	s := server.New(d.prober, d.detector, d.splitter, d.formatter, opts...)
	t.Cleanup(s.Close)
	ts := httptest.NewServer(s.Router())
	t.Cleanup(ts.Close)
	return ts
}

func post(t *testing.T, url, body string) *http.Response {
	t.Helper()
	resp, err := http.Post(url, "application/json", strings.NewReader(body))
	if err != nil {
		t.Fatalf("POST %s: %v", url, err)
	}
	t.Cleanup(func() { _ = resp.Body.Close() })
	return resp
}

func get(t *testing.T, url string) *http.Response {
	t.Helper()
	resp, err := http.Get(url)
	if err != nil {
		t.Fatalf("GET %s: %v", url, err)
	}
	t.Cleanup(func() { _ = resp.Body.Close() })
	return resp
}

func decode[T any](t *testing.T, resp *http.Response) T {
	t.Helper()
	var v T
	if err := json.NewDecoder(resp.Body).Decode(&v); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	return v
}

type errorBody struct {
	Error string `json:"error"`
}

// ---------------------------------------------------------------------------
// Tests for /healthz and /probe
// ---------------------------------------------------------------------------

func TestHealth(t *testing.T) {
	t.Parallel()

	ts := newTestServer(t, newDeps())
	resp := get(t, ts.URL+"/healthz")

	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d, want %d", resp.StatusCode, http.StatusOK)
	}
	body, _ := io.ReadAll(resp.Body)
	if string(body) != "ok" {
		t.Errorf("body = %q, want %q", body, "ok")
	}
}

func TestProbe(t *testing.T) {
	t.Parallel()

	d := newDeps()
	d.prober.md = probe.Metadata{
		Format: probe.Format{FormatName: "wav", Duration: "12.5"},
		Streams: []probe.Stream{
			{Index: 0, CodecName: "pcm_s16le", CodecType: "audio", Channels: 1},
		},
	}
	ts := newTestServer(t, d)

	resp := get(t, ts.URL+"/probe?path=/media/talk.wav")
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d, want %d", resp.StatusCode, http.StatusOK)
	}
	md := decode[probe.Metadata](t, resp)
	if md.Format.FormatName != "wav" || md.DurationSeconds() != 12.5 {
		t.Errorf("format = %+v, want wav lasting 12.5s", md.Format)
	}
	if len(md.Streams) != 1 || md.Streams[0].Kind() != probe.KindAudio {
		t.Errorf("streams = %+v, want one audio stream", md.Streams)
	}
	if d.prober.path != "/media/talk.wav" {
		t.Errorf("probed %q, want %q", d.prober.path, "/media/talk.wav")
	}
}

func TestProbe_Errors(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		query    string
		err      error
		wantCode int
	}{
		{"missing path", "", nil, http.StatusBadRequest},
		{"probe failure", "?path=x.wav", fmt.Errorf("%w: x.wav: exit status 1", probe.ErrProbeFailed), http.StatusUnprocessableEntity},
		{"unexpected failure", "?path=x.wav", errors.New("boom"), http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			d := newDeps()
			d.prober.err = tt.err
			ts := newTestServer(t, d)

			resp := get(t, ts.URL+"/probe"+tt.query)
			if resp.StatusCode != tt.wantCode {
				t.Fatalf("status = %d, want %d", resp.StatusCode, tt.wantCode)
			}
			if body := decode[errorBody](t, resp); body.Error == "" {
				t.Error("error body is empty")
			}
		})
	}
}

// ---------------------------------------------------------------------------
// Tests for /silences
// ---------------------------------------------------------------------------

func TestSilences(t *testing.T) {
	t.Parallel()

	d := newDeps()
	d.detector.ranges = []segment.Range{{Start: 1.5, End: 2}, {Start: 7.25, End: 9}}
	ts := newTestServer(t, d)

	resp := post(t, ts.URL+"/silences", `{"path":"talk.wav","duration":0.8,"threshold":-40}`)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d, want %d", resp.StatusCode, http.StatusOK)
	}
	got := decode[struct {
		Silences []segment.Range `json:"silences"`
	}](t, resp)
	if len(got.Silences) != 2 || got.Silences[1] != (segment.Range{Start: 7.25, End: 9}) {
		t.Errorf("silences = %v, want %v", got.Silences, d.detector.ranges)
	}
	want := audio.SilenceOptions{Duration: 0.8, Threshold: -40}
	if opts := d.detector.options(); opts != want {
		t.Errorf("options = %+v, want %+v", opts, want)
	}
}

func TestSilences_EmptyIsArray(t *testing.T) {
	t.Parallel()

	ts := newTestServer(t, newDeps())
	resp := post(t, ts.URL+"/silences", `{"path":"tone.wav"}`)

	body, _ := io.ReadAll(resp.Body)
	if strings.TrimSpace(string(body)) != `{"silences":[]}` {
		t.Errorf("body = %s, want an empty silences array", body)
	}
}

func TestSilences_Errors(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		body     string
		err      error
		wantCode int
	}{
		{"malformed json", `{"path":`, nil, http.StatusBadRequest},
		{"unknown field", `{"path":"a.wav","level":3}`, nil, http.StatusBadRequest},
		{"missing path", `{"duration":1}`, nil, http.StatusBadRequest},
		{"negative duration", `{"path":"a.wav","duration":-1}`, nil, http.StatusBadRequest},
		{"positive threshold", `{"path":"a.wav","threshold":3}`, nil, http.StatusBadRequest},
		{"detector runtime error", `{"path":"a.wav"}`, &ffmpeg.ExitError{Code: 1}, http.StatusUnprocessableEntity},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			d := newDeps()
			d.detector.err = tt.err
			ts := newTestServer(t, d)

			resp := post(t, ts.URL+"/silences", tt.body)
			if resp.StatusCode != tt.wantCode {
				t.Errorf("status = %d, want %d", resp.StatusCode, tt.wantCode)
			}
		})
	}
}

// ---------------------------------------------------------------------------
// Tests for /format
// ---------------------------------------------------------------------------

func TestFormat_StreamsBody(t *testing.T) {
	t.Parallel()

	tests := []struct {
		query           string
		wantMuxer       string
		wantContentType string
	}{
		{"", "wav", "audio/wav"},
		{"?ext=.wav", "wav", "audio/wav"},
		{"?ext=.MP3", "mp3", "audio/mpeg"},
		{"?ext=flac", "flac", "audio/flac"},
	}

	for _, tt := range tests {
		t.Run("ext"+tt.query, func(t *testing.T) {
			t.Parallel()

			d := newDeps()
			ts := newTestServer(t, d)

			resp, err := http.Post(ts.URL+"/format"+tt.query, "application/octet-stream", strings.NewReader("raw-audio-bytes"))
			if err != nil {
				t.Fatalf("POST /format: %v", err)
			}
			defer func() { _ = resp.Body.Close() }()

			if resp.StatusCode != http.StatusOK {
				t.Fatalf("status = %d, want %d", resp.StatusCode, http.StatusOK)
			}
			if ct := resp.Header.Get("Content-Type"); ct != tt.wantContentType {
				t.Errorf("Content-Type = %q, want %q", ct, tt.wantContentType)
			}
			body, _ := io.ReadAll(resp.Body)
			if string(body) != "raw-audio-bytes" {
				t.Errorf("body = %q, want the streamed input", body)
			}
			if got := d.formatter.options().OutputFormat; got != tt.wantMuxer {
				t.Errorf("OutputFormat = %q, want %q", got, tt.wantMuxer)
			}
		})
	}
}

func TestFormat_OutputBeforeInputEOF(t *testing.T) {
	t.Parallel()

	d := newDeps()
	d.formatter.FormatFunc = func(in io.Reader, w io.Writer) error {
		head := make([]byte, 1024)
		if _, err := io.ReadFull(in, head); err != nil {
			return err
		}
		_, _ = io.WriteString(w, "HDR|")
		rest, err := io.ReadAll(in)
		_, _ = fmt.Fprintf(w, "read=%d err=%v", len(head)+len(rest), err)
		return nil
	}
	ts := newTestServer(t, d)

	body := strings.Repeat("a", 100_000)
	resp, err := http.Post(ts.URL+"/format", "application/octet-stream", strings.NewReader(body))
	if err != nil {
		t.Fatalf("POST /format: %v", err)
	}
	defer func() { _ = resp.Body.Close() }()

	got, _ := io.ReadAll(resp.Body)
	if want := "HDR|read=100000 err=<nil>"; string(got) != want {
		t.Errorf("body = %q, want %q", got, want)
	}
}

func TestFormat_Errors(t *testing.T) {
	t.Parallel()

	t.Run("unsupported extension", func(t *testing.T) {
		t.Parallel()

		ts := newTestServer(t, newDeps())
		resp := post(t, ts.URL+"/format?ext=.xyz", "data")
		if resp.StatusCode != http.StatusBadRequest {
			t.Errorf("status = %d, want %d", resp.StatusCode, http.StatusBadRequest)
		}
	})

	t.Run("failure before output", func(t *testing.T) {
		t.Parallel()

		d := newDeps()
		d.formatter.FormatFunc = func(io.Reader, io.Writer) error {
			return &ffmpeg.ExitError{Code: 1, Tail: []string{"pipe:0: Invalid data found when processing input"}}
		}
		ts := newTestServer(t, d)

		resp := post(t, ts.URL+"/format", "not audio")
		if resp.StatusCode != http.StatusUnprocessableEntity {
			t.Fatalf("status = %d, want %d", resp.StatusCode, http.StatusUnprocessableEntity)
		}
		if body := decode[errorBody](t, resp); !strings.Contains(body.Error, "Invalid data") {
			t.Errorf("error = %q, want the ffmpeg diagnostic", body.Error)
		}
	})

	t.Run("failure after output", func(t *testing.T) {
		t.Parallel()

		d := newDeps()
		d.formatter.FormatFunc = func(_ io.Reader, w io.Writer) error {
			_, _ = io.WriteString(w, "RIFF")
			return &ffmpeg.ExitError{Code: 1}
		}
		ts := newTestServer(t, d)

		resp := post(t, ts.URL+"/format", "data")
		if resp.StatusCode != http.StatusOK {
			t.Fatalf("status = %d, want %d once output has started", resp.StatusCode, http.StatusOK)
		}
		body, _ := io.ReadAll(resp.Body)
		if string(body) != "RIFF" {
			t.Errorf("body = %q, want the partial output", body)
		}
	})
}

// ---------------------------------------------------------------------------
// Tests for statusFor
// ---------------------------------------------------------------------------

func TestStatusFor(t *testing.T) {
	t.Parallel()

	tests := []struct {
		err  error
		want int
	}{
		{server.ErrBadRequest, http.StatusBadRequest},
		{server.ErrUnsupportedFormat, http.StatusBadRequest},
		{fmt.Errorf("%w: chunk duration 0", segment.ErrInvalidBudget), http.StatusBadRequest},
		{ffmpeg.ErrInvalidInvocation, http.StatusBadRequest},
		{server.ErrJobNotFound, http.StatusNotFound},
		{fmt.Errorf("%w: a.wav", audio.ErrFileNotFound), http.StatusNotFound},
		{probe.ErrProbeDecode, http.StatusUnprocessableEntity},
		{fmt.Errorf("%w: a.wav reports 0 seconds", audio.ErrNoDuration), http.StatusUnprocessableEntity},
		{&ffmpeg.ExitError{Code: 1}, http.StatusUnprocessableEntity},
		{errors.New("disk full"), http.StatusInternalServerError},
	}

	for _, tt := range tests {
		if got := server.StatusFor(tt.err); got != tt.want {
			t.Errorf("StatusFor(%v) = %d, want %d", tt.err, got, tt.want)
		}
	}
}
