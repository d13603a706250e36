package ffmpeg

import (
	"errors"
	"fmt"
	"strings"
)

// ErrNotFound indicates the ffmpeg or ffprobe binary is not installed and auto-download failed.
var ErrNotFound = errors.New("ffmpeg not found")

// ErrUnsupportedPlatform indicates the OS/architecture is not supported for auto-download.
var ErrUnsupportedPlatform = errors.New("unsupported platform for FFmpeg auto-download")

// ErrChecksumMismatch indicates a downloaded file's checksum verification failed.
var ErrChecksumMismatch = errors.New("checksum mismatch")

// ErrDownloadFailed indicates a file download could not be completed.
var ErrDownloadFailed = errors.New("download failed")

// ErrInvalidInvocation indicates an Invocation cannot be turned into an argument vector.
var ErrInvalidInvocation = errors.New("invalid ffmpeg invocation")

// ErrSpawn indicates the ffmpeg process could not be started.
var ErrSpawn = errors.New("ffmpeg could not be started")

// ErrRuntime indicates ffmpeg ran but did not exit cleanly.
var ErrRuntime = errors.New("ffmpeg failed")

// ErrPipe indicates copying a caller stream into or out of ffmpeg failed.
var ErrPipe = errors.New("ffmpeg stream copy failed")

// ErrCancelled indicates the run was stopped through its context.
var ErrCancelled = errors.New("ffmpeg run cancelled")

// ExitError reports a non-zero ffmpeg exit status together with the last
// diagnostic lines it printed.
type ExitError struct {
	Code int
	Tail []string
}

func (e *ExitError) Error() string {
	if msg := ErrorMessage(e.Tail); msg != "" {
		return fmt.Sprintf("ffmpeg exited with code %d: %s", e.Code, msg)
	}
	return fmt.Sprintf("ffmpeg exited with code %d", e.Code)
}

// Unwrap lets errors.Is(err, ErrRuntime) match exit failures.
func (e *ExitError) Unwrap() error {
	return ErrRuntime
}

// Output returns the captured diagnostic tail as a single block of text.
func (e *ExitError) Output() string {
	return strings.Join(e.Tail, "\n")
}
