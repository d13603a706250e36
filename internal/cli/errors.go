package cli

import (
	"context"
	"errors"
	"strings"

	"github.com/alnah/go-mediakit/internal/apierr"
	"github.com/alnah/go-mediakit/internal/audio"
	"github.com/alnah/go-mediakit/internal/config"
	"github.com/alnah/go-mediakit/internal/edit"
	"github.com/alnah/go-mediakit/internal/ffmpeg"
	"github.com/alnah/go-mediakit/internal/filter"
	"github.com/alnah/go-mediakit/internal/interrupt"
	"github.com/alnah/go-mediakit/internal/lang"
	"github.com/alnah/go-mediakit/internal/probe"
	"github.com/alnah/go-mediakit/internal/segment"
	"github.com/alnah/go-mediakit/internal/transcribe"
)

// CLI-specific sentinel errors.
// These are validation/usage errors that don't belong to domain packages.

var (
	// ErrUsage indicates invalid flags or arguments.
	ErrUsage = errors.New("invalid usage")

	// ErrFileNotFound indicates the specified input file does not exist.
	ErrFileNotFound = errors.New("file not found")

	// ErrOutputExists indicates the output file already exists.
	ErrOutputExists = errors.New("output file already exists")
)

// Exit codes.
const (
	ExitOK            = 0
	ExitGeneral       = 1
	ExitUsage         = 2
	ExitSetup         = 3
	ExitValidation    = 4
	ExitProcessing    = 5
	ExitTranscription = 6
	ExitInterrupt     = interrupt.ExitInterrupt
)

// ExitCode maps an error returned by a command to the process exit code.
func ExitCode(err error) int {
	switch {
	case err == nil:
		return ExitOK

	case errors.Is(err, context.Canceled), errors.Is(err, ffmpeg.ErrCancelled):
		return ExitInterrupt

	case errors.Is(err, ErrUsage), isCobraUsageError(err):
		return ExitUsage

	case errors.Is(err, ffmpeg.ErrNotFound),
		errors.Is(err, ffmpeg.ErrUnsupportedPlatform),
		errors.Is(err, ffmpeg.ErrChecksumMismatch),
		errors.Is(err, ffmpeg.ErrDownloadFailed),
		errors.Is(err, ffmpeg.ErrSpawn),
		errors.Is(err, transcribe.ErrAPIKeyMissing),
		errors.Is(err, config.ErrNotDirectory),
		errors.Is(err, config.ErrNotWritable):
		return ExitSetup

	case errors.Is(err, ErrFileNotFound),
		errors.Is(err, ErrOutputExists),
		errors.Is(err, audio.ErrFileNotFound),
		errors.Is(err, edit.ErrNoInputs),
		errors.Is(err, edit.ErrOutputExists),
		errors.Is(err, edit.ErrInvalidFrequency),
		errors.Is(err, edit.ErrInvalidDelay),
		errors.Is(err, segment.ErrInvalidBudget),
		errors.Is(err, segment.ErrEmptyRanges),
		errors.Is(err, segment.ErrInvalidRanges),
		errors.Is(err, filter.ErrUnknownPreset),
		errors.Is(err, filter.ErrInvalidCrop),
		errors.Is(err, ffmpeg.ErrInvalidInvocation),
		errors.Is(err, lang.ErrInvalid),
		errors.Is(err, config.ErrUnknownKey),
		errors.Is(err, config.ErrInvalidValue):
		return ExitValidation

	case errors.Is(err, ffmpeg.ErrRuntime),
		errors.Is(err, ffmpeg.ErrPipe),
		errors.Is(err, probe.ErrProbeFailed),
		errors.Is(err, probe.ErrProbeDecode),
		errors.Is(err, probe.ErrNoDimensions),
		errors.Is(err, audio.ErrNoDuration),
		errors.Is(err, audio.ErrSplitFailed):
		return ExitProcessing

	case errors.Is(err, apierr.ErrRateLimit),
		errors.Is(err, apierr.ErrQuotaExceeded),
		errors.Is(err, apierr.ErrTimeout),
		errors.Is(err, apierr.ErrAuthFailed),
		errors.Is(err, apierr.ErrBadRequest),
		errors.Is(err, apierr.ErrServer),
		errors.Is(err, transcribe.ErrNoChunks):
		return ExitTranscription
	}
	return ExitGeneral
}

// cobraUsageErrorPatterns contains error message substrings that indicate Cobra usage errors.
// Cobra doesn't expose typed errors, so string matching is the only reliable approach.
var cobraUsageErrorPatterns = []string{
	"required flag",             // Missing required flag
	"unknown flag",              // Flag doesn't exist
	"unknown shorthand",         // Short flag doesn't exist
	"unknown command",           // Subcommand doesn't exist
	"flag needs an argument",    // Flag provided without value
	"invalid argument",          // Invalid flag value type
	"if any flags in the group", // Mutually exclusive flag violation
	"accepts ",                  // Wrong number of arguments (e.g., "accepts 1 arg(s)")
	"requires at least",         // Too few arguments
	"requires at most",          // Too many arguments
}

// isCobraUsageError checks if an error is a Cobra usage/parsing error.
func isCobraUsageError(err error) bool {
	msg := err.Error()
	for _, pattern := range cobraUsageErrorPatterns {
		if strings.Contains(msg, pattern) {
			return true
		}
	}
	return false
}
