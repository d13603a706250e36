package audio

import "github.com/alnah/go-mediakit/internal/segment"

// Export internal functions for testing.
// This file is only compiled during tests (suffix _test.go).

// SilenceFilter exports silenceFilter for testing.
var SilenceFilter = silenceFilter

// PlanChunks exports planChunks for testing.
var PlanChunks = planChunks

// CutInvocation exports cutInvocation for testing.
var CutInvocation = cutInvocation

// AccumulateSilences feeds lines through a fresh silenceAccumulator.
func AccumulateSilences(lines []string) []segment.Range {
	var a silenceAccumulator
	for _, line := range lines {
		a.feed(line)
	}
	return a.intervals
}

// --- Dependency injection exports ---

// ProcessRunner exports processRunner interface for testing.
type ProcessRunner = processRunner

// DurationProber exports durationProber interface for testing.
type DurationProber = durationProber

// FileStatter exports fileStatter interface for testing.
type FileStatter = fileStatter

// FileRemover exports fileRemover interface for testing.
type FileRemover = fileRemover
