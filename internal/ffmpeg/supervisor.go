package ffmpeg

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/exec"
	"strings"
	"sync/atomic"
	"syscall"
	"time"
)

const (
	// defaultGracePeriod is how long a cancelled run may take to exit after
	// SIGTERM before it is killed.
	defaultGracePeriod = 5 * time.Second

	// defaultTailLines caps the diagnostic lines kept for error reports.
	defaultTailLines = 40

	stderrReadSize = 4096
)

// Handlers receive events from a single run. All callbacks are invoked from
// the goroutine that called Run, in order. Any of them may be nil.
type Handlers struct {
	// OnProgress receives every progress snapshot. Percent is set once the
	// input duration has been announced.
	OnProgress func(Progress)

	// OnDiagnosticLine receives every non-blank stderr line.
	OnDiagnosticLine func(line string)

	// OnDone is called once when ffmpeg exits with status 0.
	OnDone func()

	// OnError is called once with the error Run is about to return.
	OnError func(err error)
}

// commandFn builds the process for a run.
type commandFn func(name string, args []string) *exec.Cmd

func defaultCommand(name string, args []string) *exec.Cmd {
	// #nosec G204 -- name comes from Resolver, args from Invocation.Args
	return exec.Command(name, args...)
}

// ---------------------------------------------------------------------------
// Supervisor - runs ffmpeg and settles exactly one outcome per run
// ---------------------------------------------------------------------------

// Supervisor spawns and supervises ffmpeg processes.
// A Supervisor holds no per-run state and is safe for concurrent use.
type Supervisor struct {
	binary    string
	grace     time.Duration
	tailLines int
	logger    *slog.Logger
	command   commandFn
}

// SupervisorOption configures a Supervisor.
type SupervisorOption func(*Supervisor)

// WithGracePeriod sets the delay between SIGTERM and SIGKILL on cancellation.
func WithGracePeriod(d time.Duration) SupervisorOption {
	return func(s *Supervisor) { s.grace = d }
}

// WithTailLines sets how many diagnostic lines are kept for error reports.
func WithTailLines(n int) SupervisorOption {
	return func(s *Supervisor) { s.tailLines = n }
}

// WithLogger sets the logger used for debug output.
func WithLogger(l *slog.Logger) SupervisorOption {
	return func(s *Supervisor) {
		if l != nil {
			s.logger = l
		}
	}
}

// WithCommand replaces process construction.
func WithCommand(fn commandFn) SupervisorOption {
	return func(s *Supervisor) { s.command = fn }
}

// NewSupervisor returns a Supervisor that runs binary.
func NewSupervisor(binary string, opts ...SupervisorOption) *Supervisor {
	s := &Supervisor{
		binary:    binary,
		grace:     defaultGracePeriod,
		tailLines: defaultTailLines,
		logger:    slog.New(slog.NewTextHandler(io.Discard, nil)),
		command:   defaultCommand,
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.tailLines < 1 {
		s.tailLines = 1
	}
	return s
}

// Binary returns the path of the supervised executable.
func (s *Supervisor) Binary() string {
	return s.binary
}

// Run executes one ffmpeg invocation and blocks until it has exited and its
// diagnostic stream has been fully read.
//
// The returned error is one of:
//   - ErrInvalidInvocation: rejected before spawning
//   - ErrSpawn: the process could not be started
//   - *ExitError (ErrRuntime): non-zero exit, with the diagnostic tail
//   - ErrPipe: a caller stream could not be copied
//   - ErrCancelled: ctx was cancelled; also matches ctx's error
func (s *Supervisor) Run(ctx context.Context, inv Invocation, h Handlers) error {
	err := s.run(ctx, inv, h)
	if err != nil {
		if h.OnError != nil {
			h.OnError(err)
		}
		return err
	}
	if h.OnDone != nil {
		h.OnDone()
	}
	return nil
}

func (s *Supervisor) run(parent context.Context, inv Invocation, h Handlers) error {
	args, err := inv.Args()
	if err != nil {
		return err
	}
	s.logger.Debug("running ffmpeg", "binary", s.binary, "args", strings.Join(args, " "), "dir", inv.Dir)

	cmd := s.command(s.binary, args)
	cmd.Dir = inv.Dir
	prepareCommand(cmd)

	// abort carries pipe failures; parent cancellation flows through as its cause.
	ctx, abort := context.WithCancelCause(parent)
	defer abort(nil)

	in, out := inv.stdin(), inv.stdout()

	var stdinPipe io.WriteCloser
	if in != nil {
		if stdinPipe, err = cmd.StdinPipe(); err != nil {
			return fmt.Errorf("%w: stdin: %w", ErrSpawn, err)
		}
	}
	var stdoutPipe io.ReadCloser
	if out != nil {
		if stdoutPipe, err = cmd.StdoutPipe(); err != nil {
			return fmt.Errorf("%w: stdout: %w", ErrSpawn, err)
		}
	}
	stderrPipe, err := cmd.StderrPipe()
	if err != nil {
		return fmt.Errorf("%w: stderr: %w", ErrSpawn, err)
	}

	if err := cmd.Start(); err != nil {
		return fmt.Errorf("%w: %w", ErrSpawn, err)
	}

	exited := make(chan struct{})
	watched := make(chan struct{})
	var killed atomic.Bool
	go func() {
		defer close(watched)
		s.watch(ctx, cmd.Process, exited, &killed)
	}()

	stdinDone := make(chan struct{})
	if stdinPipe != nil {
		go func() {
			defer close(stdinDone)
			_, err := io.Copy(stdinPipe, in)
			_ = stdinPipe.Close()
			if err != nil && !isClosedPipe(err) {
				abort(fmt.Errorf("%w: stdin: %w", ErrPipe, err))
			}
		}()
	} else {
		close(stdinDone)
	}

	stdoutDone := make(chan struct{})
	if stdoutPipe != nil {
		go func() {
			defer close(stdoutDone)
			if _, err := io.Copy(out, stdoutPipe); err != nil {
				abort(fmt.Errorf("%w: stdout: %w", ErrPipe, err))
				// Keep ffmpeg from blocking on a full pipe until it is stopped.
				_, _ = io.Copy(io.Discard, stdoutPipe)
			}
		}()
	} else {
		close(stdoutDone)
	}

	diag := newDiagnostics(s.tailLines, h)
	buf := make([]byte, stderrReadSize)
	for {
		n, rerr := stderrPipe.Read(buf)
		if n > 0 {
			diag.feed(buf[:n])
		}
		if rerr != nil {
			break
		}
	}
	diag.flush()
	<-stdoutDone

	waitErr := cmd.Wait()
	close(exited)
	<-watched

	// A reader blocked on the caller's side cannot hold up the outcome.
	select {
	case <-stdinDone:
	case <-time.After(s.grace):
	}

	if killed.Load() {
		cause := context.Cause(ctx)
		if errors.Is(cause, ErrPipe) {
			return cause
		}
		return fmt.Errorf("%w: %w", ErrCancelled, cause)
	}

	if waitErr != nil {
		var exitErr *exec.ExitError
		if errors.As(waitErr, &exitErr) {
			return &ExitError{Code: exitErr.ExitCode(), Tail: diag.tail}
		}
		return fmt.Errorf("%w: %w", ErrRuntime, waitErr)
	}

	if cause := context.Cause(ctx); errors.Is(cause, ErrPipe) {
		return cause
	}
	return nil
}

// watch stops the process when ctx ends before it exits: SIGTERM first, then
// SIGKILL once the grace period has elapsed.
func (s *Supervisor) watch(ctx context.Context, p *os.Process, exited <-chan struct{}, killed *atomic.Bool) {
	select {
	case <-exited:
		return
	case <-ctx.Done():
	}

	killed.Store(true)
	s.logger.Debug("stopping ffmpeg", "pid", p.Pid, "cause", context.Cause(ctx))
	_ = terminate(p)

	timer := time.NewTimer(s.grace)
	defer timer.Stop()
	select {
	case <-exited:
	case <-timer.C:
		s.logger.Debug("killing ffmpeg after grace period", "pid", p.Pid, "grace", s.grace)
		_ = kill(p)
	}
}

// isClosedPipe reports write errors caused by ffmpeg no longer reading stdin,
// which happens legitimately when it has all the input it needs.
func isClosedPipe(err error) bool {
	return errors.Is(err, syscall.EPIPE) || errors.Is(err, os.ErrClosed)
}

// ---------------------------------------------------------------------------
// diagnostics - per-run stderr accumulator, owned by the Run goroutine
// ---------------------------------------------------------------------------

type diagnostics struct {
	handlers Handlers
	pending  []byte
	tail     []string
	tailCap  int

	duration     float64
	haveDuration bool
}

func newDiagnostics(tailCap int, h Handlers) *diagnostics {
	return &diagnostics{handlers: h, tailCap: tailCap}
}

// feed splits raw stderr bytes into lines. ffmpeg terminates progress lines
// with '\r' and everything else with '\n'; both end a line. A trailing
// partial line stays pending until more bytes arrive or flush is called.
func (d *diagnostics) feed(p []byte) {
	d.pending = append(d.pending, p...)
	start := 0
	for {
		i := bytes.IndexAny(d.pending[start:], "\r\n")
		if i < 0 {
			break
		}
		d.line(string(d.pending[start : start+i]))
		start += i + 1
	}
	d.pending = append(d.pending[:0], d.pending[start:]...)
}

// flush handles the final unterminated line at end of stream.
func (d *diagnostics) flush() {
	if len(d.pending) > 0 {
		d.line(string(d.pending))
		d.pending = d.pending[:0]
	}
}

func (d *diagnostics) line(raw string) {
	line := strings.ToValidUTF8(raw, "�")
	if strings.TrimSpace(line) == "" {
		return
	}

	d.tail = append(d.tail, line)
	if len(d.tail) > d.tailCap {
		d.tail = d.tail[len(d.tail)-d.tailCap:]
	}

	if d.handlers.OnDiagnosticLine != nil {
		d.handlers.OnDiagnosticLine(line)
	}

	// Later inputs announce their own durations; the first one wins.
	if !d.haveDuration {
		if dur, ok := ParseDuration(line); ok {
			d.duration, d.haveDuration = dur, true
		}
	}

	p, ok := ParseProgress(line)
	if !ok {
		return
	}
	if d.haveDuration && d.duration > 0 && p.Timemark != "" {
		pct := percentOf(p.Timemark, d.duration)
		p.Percent = &pct
	}
	if d.handlers.OnProgress != nil {
		d.handlers.OnProgress(p)
	}
}
