// Package transcribe turns split audio chunks into a timestamped transcript
// with the OpenAI transcription API.
package transcribe

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"path/filepath"
	"strings"
	"time"

	openai "github.com/sashabaranov/go-openai"

	"github.com/alnah/go-mediakit/internal/apierr"
	"github.com/alnah/go-mediakit/internal/lang"
	"github.com/alnah/go-mediakit/internal/logging"
)

// DefaultModel returns per-segment timestamps with verbose_json.
const DefaultModel = openai.Whisper1

// MaxRecommendedParallel is the recommended upper limit for concurrent API
// requests. Higher values may trigger rate limiting.
const MaxRecommendedParallel = 10

const (
	defaultMaxRetries = 5
	defaultBaseDelay  = 1 * time.Second
	defaultMaxDelay   = 30 * time.Second
)

// Options configures a transcription request.
type Options struct {
	// Prompt gives vocabulary or context hints.
	Prompt string

	// Language is a BCP 47 tag. Empty means auto-detect.
	Language string
}

// Segment is one timed span of recognized speech, in seconds from the start
// of the transcribed file.
type Segment struct {
	Start float64 `json:"start"`
	End   float64 `json:"end"`
	Text  string  `json:"text"`
}

// Result is the transcription of one file.
type Result struct {
	Text     string    `json:"text"`
	Segments []Segment `json:"segments,omitempty"`
}

// Transcriber transcribes one audio file.
type Transcriber interface {
	Transcribe(ctx context.Context, audioPath string, opts Options) (Result, error)
}

// audioTranscriber is satisfied by *openai.Client.
type audioTranscriber interface {
	CreateTranscription(ctx context.Context, req openai.AudioRequest) (openai.AudioResponse, error)
}

// Compile-time interface compliance checks.
var (
	_ Transcriber      = (*OpenAITranscriber)(nil)
	_ audioTranscriber = (*openai.Client)(nil)
)

// OpenAITranscriber transcribes audio with OpenAI, retrying transient
// failures with exponential backoff.
type OpenAITranscriber struct {
	client audioTranscriber
	model  string
	retry  apierr.Policy
	logger *slog.Logger
}

// Option configures an OpenAITranscriber.
type Option func(*OpenAITranscriber)

// WithMaxRetries sets how many times a transient failure is retried.
func WithMaxRetries(n int) Option {
	return func(t *OpenAITranscriber) {
		if n >= 0 {
			t.retry.Attempts = n + 1
		}
	}
}

// WithRetryDelays sets the base and max delays for exponential backoff.
func WithRetryDelays(base, maxDelay time.Duration) Option {
	return func(t *OpenAITranscriber) {
		if base > 0 {
			t.retry.Base = base
		}
		if maxDelay > 0 {
			t.retry.Max = maxDelay
		}
	}
}

// WithModel overrides DefaultModel.
func WithModel(model string) Option {
	return func(t *OpenAITranscriber) {
		if model != "" {
			t.model = model
		}
	}
}

// WithLogger sets the logger for retry diagnostics.
func WithLogger(l *slog.Logger) Option {
	return func(t *OpenAITranscriber) {
		if l != nil {
			t.logger = l
		}
	}
}

// NewOpenAITranscriber returns a transcriber backed by client.
func NewOpenAITranscriber(client *openai.Client, opts ...Option) *OpenAITranscriber {
	return newTranscriber(client, opts...)
}

func newTranscriber(client audioTranscriber, opts ...Option) *OpenAITranscriber {
	t := &OpenAITranscriber{
		client: client,
		model:  DefaultModel,
		retry: apierr.Policy{
			Attempts: defaultMaxRetries + 1,
			Base:     defaultBaseDelay,
			Max:      defaultMaxDelay,
		},
		logger: logging.Discard(),
	}
	for _, opt := range opts {
		opt(t)
	}
	return t
}

// Transcribe transcribes audioPath. Accepted formats are those of the API:
// mp3, mp4, mpeg, mpga, m4a, wav, webm, ogg.
func (t *OpenAITranscriber) Transcribe(ctx context.Context, audioPath string, opts Options) (Result, error) {
	if err := lang.Validate(opts.Language); err != nil {
		return Result{}, err
	}
	req := openai.AudioRequest{
		Model:    t.model,
		FilePath: audioPath,
		Format:   openai.AudioResponseFormatVerboseJSON,
		Prompt:   opts.Prompt,
		Language: lang.BaseCode(opts.Language),
	}

	return apierr.Do(ctx, t.retry, func(attempt int) (Result, error) {
		resp, err := t.client.CreateTranscription(ctx, req)
		if err != nil {
			err = classifyError(err)
			t.logger.Debug("transcription attempt failed",
				"file", filepath.Base(audioPath), "attempt", attempt, "error", err)
			return Result{}, err
		}
		return toResult(resp), nil
	})
}

func toResult(resp openai.AudioResponse) Result {
	r := Result{Text: strings.TrimSpace(resp.Text)}
	for _, s := range resp.Segments {
		r.Segments = append(r.Segments, Segment{
			Start: s.Start,
			End:   s.End,
			Text:  strings.TrimSpace(s.Text),
		})
	}
	return r
}

// classifyError maps OpenAI API errors to apierr sentinels.
func classifyError(err error) error {
	var apiErr *openai.APIError
	if errors.As(err, &apiErr) {
		return apierr.FromStatus(apiErr.HTTPStatusCode, apiErr.Message)
	}
	var reqErr *openai.RequestError
	if errors.As(err, &reqErr) {
		return apierr.FromStatus(reqErr.HTTPStatusCode, reqErr.Error())
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return fmt.Errorf("request timed out: %w", apierr.ErrTimeout)
	}
	return err
}
