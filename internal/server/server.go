// Package server exposes probing, silence detection, formatting and split
// jobs over HTTP. Split jobs run in the background and publish their
// progress to websocket subscribers.
package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"github.com/alnah/go-mediakit/internal/audio"
	"github.com/alnah/go-mediakit/internal/edit"
	"github.com/alnah/go-mediakit/internal/ffmpeg"
	"github.com/alnah/go-mediakit/internal/probe"
	"github.com/alnah/go-mediakit/internal/segment"
)

const (
	// DefaultJobTimeout bounds a single background job.
	DefaultJobTimeout = 30 * time.Minute

	maxRequestBytes = 1 << 20
	writeWait       = 10 * time.Second
	subscriberQueue = 64
)

// container maps a /format extension to an ffmpeg muxer and a content type.
type container struct {
	muxer       string
	contentType string
}

var containers = map[string]container{
	"wav":  {muxer: "wav", contentType: "audio/wav"},
	"mp3":  {muxer: "mp3", contentType: "audio/mpeg"},
	"flac": {muxer: "flac", contentType: "audio/flac"},
	"ogg":  {muxer: "ogg", contentType: "audio/ogg"},
	"opus": {muxer: "opus", contentType: "audio/ogg"},
}

// Server serves the HTTP API. Create it with New and release it with Close.
type Server struct {
	logger     *slog.Logger
	router     *chi.Mux
	jobTimeout time.Duration
	newID      func() string

	prober    metadataProber
	detector  silenceDetector
	splitter  chunkSplitter
	formatter audioFormatter

	// ctx is the parent of every background job; Close cancels it.
	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup

	mu   sync.RWMutex
	jobs map[string]*Job
	subs map[string]map[*subscriber]struct{}

	upgrader websocket.Upgrader
}

// Option configures a Server.
type Option func(*Server)

// WithLogger sets the request and job logger.
func WithLogger(l *slog.Logger) Option {
	return func(s *Server) {
		if l != nil {
			s.logger = l
		}
	}
}

// WithJobTimeout bounds each background job. Default: DefaultJobTimeout.
func WithJobTimeout(d time.Duration) Option {
	return func(s *Server) {
		if d > 0 {
			s.jobTimeout = d
		}
	}
}

// WithIDFunc replaces job id generation.
func WithIDFunc(fn func() string) Option {
	return func(s *Server) {
		if fn != nil {
			s.newID = fn
		}
	}
}

// New returns a Server with its routes registered.
func New(prober metadataProber, detector silenceDetector, splitter chunkSplitter, formatter audioFormatter, opts ...Option) *Server {
	ctx, cancel := context.WithCancel(context.Background())
	s := &Server{
		logger:     slog.New(slog.NewTextHandler(io.Discard, nil)),
		router:     chi.NewRouter(),
		jobTimeout: DefaultJobTimeout,
		newID:      uuid.NewString,
		prober:     prober,
		detector:   detector,
		splitter:   splitter,
		formatter:  formatter,
		ctx:        ctx,
		cancel:     cancel,
		jobs:       make(map[string]*Job),
		subs:       make(map[string]map[*subscriber]struct{}),
		upgrader: websocket.Upgrader{
			CheckOrigin: func(r *http.Request) bool { return true },
		},
	}
	for _, opt := range opts {
		opt(s)
	}
	s.registerRoutes()
	return s
}

// Router returns the HTTP handler.
func (s *Server) Router() http.Handler {
	return s.router
}

// Close cancels running jobs and waits for them to settle.
func (s *Server) Close() {
	s.cancel()
	s.wg.Wait()
}

func (s *Server) registerRoutes() {
	s.router.Use(middleware.RequestID)
	s.router.Use(middleware.RealIP)
	s.router.Use(s.requestLogger)
	s.router.Use(middleware.Recoverer)

	s.router.Get("/healthz", s.health)
	s.router.Get("/probe", s.probe)
	s.router.Post("/silences", s.silences)
	s.router.Post("/format", s.format)
	s.router.Post("/jobs/split", s.startSplit)
	s.router.Get("/jobs/{id}", s.jobStatus)
	s.router.Get("/jobs/{id}/ws", s.jobEvents)
}

func (s *Server) requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)
		s.logger.Debug("request",
			"method", r.Method,
			"path", r.URL.Path,
			"status", ww.Status(),
			"duration", time.Since(start),
			"request_id", middleware.GetReqID(r.Context()))
	})
}

// ---------------------------------------------------------------------------
// Handlers
// ---------------------------------------------------------------------------

func (s *Server) health(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	_, _ = io.WriteString(w, "ok")
}

func (s *Server) probe(w http.ResponseWriter, r *http.Request) {
	path := r.URL.Query().Get("path")
	if path == "" {
		s.respondError(w, fmt.Errorf("%w: path is required", ErrBadRequest))
		return
	}
	md, err := s.prober.Probe(r.Context(), path)
	if err != nil {
		s.respondError(w, err)
		return
	}
	s.respondJSON(w, http.StatusOK, md)
}

type silencesRequest struct {
	Path      string  `json:"path"`
	Duration  float64 `json:"duration"`
	Threshold float64 `json:"threshold"`
}

type silencesResponse struct {
	Silences []segment.Range `json:"silences"`
}

func (s *Server) silences(w http.ResponseWriter, r *http.Request) {
	var req silencesRequest
	if err := decodeJSON(w, r, &req); err != nil {
		s.respondError(w, err)
		return
	}
	switch {
	case req.Path == "":
		s.respondError(w, fmt.Errorf("%w: path is required", ErrBadRequest))
		return
	case req.Duration < 0:
		s.respondError(w, fmt.Errorf("%w: duration must not be negative", ErrBadRequest))
		return
	case req.Threshold > 0:
		s.respondError(w, fmt.Errorf("%w: threshold must not be positive", ErrBadRequest))
		return
	}

	ranges, err := s.detector.DetectSilences(r.Context(), req.Path, audio.SilenceOptions{
		Duration:  req.Duration,
		Threshold: req.Threshold,
	})
	if err != nil {
		s.respondError(w, err)
		return
	}
	if ranges == nil {
		ranges = []segment.Range{}
	}
	s.respondJSON(w, http.StatusOK, silencesResponse{Silences: ranges})
}

// format streams the request body through ffmpeg and the result back.
func (s *Server) format(w http.ResponseWriter, r *http.Request) {
	ext := r.URL.Query().Get("ext")
	if ext == "" {
		ext = ".wav"
	}
	c, ok := containers[strings.ToLower(strings.TrimPrefix(ext, "."))]
	if !ok {
		s.respondError(w, fmt.Errorf("%w: %s", ErrUnsupportedFormat, ext))
		return
	}

	// HTTP/1.1 closes the request body on the first flush unless both
	// directions are kept open; ffmpeg writes headers before reaching EOF.
	if err := http.NewResponseController(w).EnableFullDuplex(); err != nil {
		s.respondError(w, fmt.Errorf("enable full duplex: %w", err))
		return
	}

	out := &lazyWriter{w: w, contentType: c.contentType}
	err := s.formatter.Format(r.Context(),
		ffmpeg.Stream{R: r.Body},
		ffmpeg.StreamSink{W: out},
		edit.FormatOptions{OutputFormat: c.muxer},
		edit.FormatCallbacks{})
	if err != nil {
		if !out.started {
			s.respondError(w, err)
			return
		}
		// The status line is gone; all that is left is to cut the stream short.
		s.logger.Warn("format stream interrupted", "error", err)
		return
	}
	out.start()
}

// lazyWriter delays the response header until the first byte of output, so
// a conversion that fails early can still answer with an error status.
type lazyWriter struct {
	w           http.ResponseWriter
	contentType string
	started     bool
}

func (l *lazyWriter) start() {
	if l.started {
		return
	}
	l.started = true
	l.w.Header().Set("Content-Type", l.contentType)
	l.w.WriteHeader(http.StatusOK)
}

func (l *lazyWriter) Write(p []byte) (int, error) {
	l.start()
	n, err := l.w.Write(p)
	if f, ok := l.w.(http.Flusher); ok {
		f.Flush()
	}
	return n, err
}

type splitRequest struct {
	Path          string  `json:"path"`
	OutputDir     string  `json:"outputDir"`
	ChunkDuration float64 `json:"chunkDuration"`
}

type jobCreated struct {
	ID string `json:"id"`
}

func (s *Server) startSplit(w http.ResponseWriter, r *http.Request) {
	var req splitRequest
	if err := decodeJSON(w, r, &req); err != nil {
		s.respondError(w, err)
		return
	}
	switch {
	case req.Path == "":
		s.respondError(w, fmt.Errorf("%w: path is required", ErrBadRequest))
		return
	case req.ChunkDuration < 0:
		s.respondError(w, fmt.Errorf("%w: chunkDuration must not be negative", ErrBadRequest))
		return
	}

	job := s.createJob(jobKindSplit, req.Path, req.OutputDir)
	s.logger.Info("split job queued", "job_id", job.ID, "input", req.Path)

	s.wg.Add(1)
	go s.runSplit(job.ID, req)

	w.Header().Set("Location", "/jobs/"+job.ID)
	s.respondJSON(w, http.StatusAccepted, jobCreated{ID: job.ID})
}

func (s *Server) jobStatus(w http.ResponseWriter, r *http.Request) {
	job, ok := s.job(chi.URLParam(r, "id"))
	if !ok {
		s.respondError(w, ErrJobNotFound)
		return
	}
	s.respondJSON(w, http.StatusOK, job)
}

// jobEvents upgrades to a websocket and pushes the job's events until it
// reaches a terminal state or the client goes away. The first message is
// always a status snapshot.
func (s *Server) jobEvents(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if _, ok := s.job(id); !ok {
		s.respondError(w, ErrJobNotFound)
		return
	}

	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.logger.Warn("websocket upgrade failed", "job_id", id, "error", err)
		return
	}
	defer func() { _ = conn.Close() }()

	sub := s.subscribe(id)

	go func() {
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				s.unsubscribe(id, sub)
				return
			}
		}
	}()

	for evt := range sub.send {
		_ = conn.SetWriteDeadline(time.Now().Add(writeWait))
		if err := conn.WriteJSON(evt); err != nil {
			s.unsubscribe(id, sub)
			return
		}
	}
	_ = conn.WriteControl(websocket.CloseMessage,
		websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""),
		time.Now().Add(writeWait))
}

// ---------------------------------------------------------------------------
// Responses
// ---------------------------------------------------------------------------

type errorResponse struct {
	Error string `json:"error"`
}

func (s *Server) respondJSON(w http.ResponseWriter, code int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		s.logger.Error("failed to encode json", "error", err)
	}
}

func (s *Server) respondError(w http.ResponseWriter, err error) {
	code := statusFor(err)
	if code >= http.StatusInternalServerError {
		s.logger.Error("request failed", "error", err)
	}
	s.respondJSON(w, code, errorResponse{Error: err.Error()})
}

// statusFor maps domain errors to HTTP status codes.
func statusFor(err error) int {
	switch {
	case errors.Is(err, ErrBadRequest),
		errors.Is(err, ErrUnsupportedFormat),
		errors.Is(err, segment.ErrInvalidBudget),
		errors.Is(err, ffmpeg.ErrInvalidInvocation):
		return http.StatusBadRequest
	case errors.Is(err, ErrJobNotFound),
		errors.Is(err, audio.ErrFileNotFound):
		return http.StatusNotFound
	case errors.Is(err, probe.ErrProbeFailed),
		errors.Is(err, probe.ErrProbeDecode),
		errors.Is(err, audio.ErrNoDuration),
		errors.Is(err, ffmpeg.ErrRuntime):
		return http.StatusUnprocessableEntity
	default:
		return http.StatusInternalServerError
	}
}

func decodeJSON(w http.ResponseWriter, r *http.Request, v any) error {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxRequestBytes))
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		return fmt.Errorf("%w: %w", ErrBadRequest, err)
	}
	return nil
}
