// Package interrupt implements double Ctrl+C handling for long CLI runs:
// the first interrupt cancels the running operation, a second one within
// a short window exits the process immediately.
package interrupt

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"
)

// Decision is what the user chose after the first Ctrl+C.
type Decision int

const (
	// KeepPartial keeps the output written before the interrupt.
	KeepPartial Decision = iota
	// Abort discards everything and exits.
	Abort
)

// String returns the string representation of the Decision.
func (d Decision) String() string {
	switch d {
	case KeepPartial:
		return "KeepPartial"
	case Abort:
		return "Abort"
	default:
		return fmt.Sprintf("Decision(%d)", d)
	}
}

// ExitInterrupt is the exit code for interrupt (130 = 128 + SIGINT).
const ExitInterrupt = 130

const (
	// window is how long a second Ctrl+C counts as an abort.
	window = 2 * time.Second

	pollInterval = 100 * time.Millisecond

	abortMessage = "\nAborted."
)

// Handler watches for SIGINT/SIGTERM and cancels its context on the first one.
type Handler struct {
	mu       sync.Mutex
	first    time.Time
	signals  int
	aborted  bool
	stopped  bool
	cancel   context.CancelFunc
	done     chan struct{}
	exitFunc func(int)
	now      func() time.Time
	stderr   io.Writer
}

// Options holds injectable dependencies.
type Options struct {
	SigCh    <-chan os.Signal
	ExitFunc func(int)
	NowFunc  func() time.Time
	// Stderr must be safe for concurrent writes. Defaults to os.Stderr.
	Stderr io.Writer
}

// NewHandler creates a handler listening for SIGINT/SIGTERM. The returned
// context is cancelled on the first interrupt.
func NewHandler(parent context.Context) (*Handler, context.Context) {
	sigCh := make(chan os.Signal, 2)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	return NewHandlerWithOptions(parent, Options{SigCh: sigCh})
}

// NewHandlerWithOptions creates a handler with injectable dependencies.
func NewHandlerWithOptions(parent context.Context, opts Options) (*Handler, context.Context) {
	ctx, cancel := context.WithCancel(parent)

	h := &Handler{
		cancel:   cancel,
		done:     make(chan struct{}),
		exitFunc: os.Exit,
		now:      time.Now,
		stderr:   os.Stderr,
	}
	if opts.ExitFunc != nil {
		h.exitFunc = opts.ExitFunc
	}
	if opts.NowFunc != nil {
		h.now = opts.NowFunc
	}
	if opts.Stderr != nil {
		h.stderr = opts.Stderr
	}
	if opts.SigCh != nil {
		go h.listen(opts.SigCh)
	}
	return h, ctx
}

func (h *Handler) listen(sigCh <-chan os.Signal) {
	for {
		select {
		case <-h.done:
			return
		case _, ok := <-sigCh:
			if !ok {
				return
			}
			if h.record() {
				_, _ = fmt.Fprintln(h.stderr, abortMessage)
				h.exitFunc(ExitInterrupt)
				return
			}
		}
	}
}

// record registers one signal and reports whether it is an abort.
func (h *Handler) record() bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.stopped {
		return false
	}

	now := h.now()
	h.signals++
	if h.signals == 1 {
		h.first = now
		h.cancel()
		return false
	}
	if now.Sub(h.first) <= window {
		h.aborted = true
		return true
	}
	return false
}

// WasInterrupted reports whether at least one interrupt was received.
func (h *Handler) WasInterrupted() bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.signals > 0
}

func (h *Handler) isAborted() bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.aborted
}

// WaitForDecision gives the user the rest of the abort window to press
// Ctrl+C again. It prints message first, and returns at once with
// KeepPartial when no interrupt happened.
func (h *Handler) WaitForDecision(message string) Decision {
	h.mu.Lock()
	interrupted, aborted, first := h.signals > 0, h.aborted, h.first
	h.mu.Unlock()

	switch {
	case !interrupted:
		return KeepPartial
	case aborted:
		return Abort
	}

	remaining := window - h.now().Sub(first)
	if remaining <= 0 {
		return KeepPartial
	}
	_, _ = fmt.Fprintln(h.stderr, message)

	ticker := time.NewTicker(pollInterval)
	defer ticker.Stop()
	deadline := time.NewTimer(remaining)
	defer deadline.Stop()

	for {
		select {
		case <-deadline.C:
			if h.isAborted() {
				return Abort
			}
			return KeepPartial
		case <-ticker.C:
			if h.isAborted() {
				return Abort
			}
		}
	}
}

// Stop releases the signal handler. Safe to call more than once.
func (h *Handler) Stop() {
	h.mu.Lock()
	if h.stopped {
		h.mu.Unlock()
		return
	}
	h.stopped = true
	h.mu.Unlock()

	signal.Reset(syscall.SIGINT, syscall.SIGTERM)
	close(h.done)
}
