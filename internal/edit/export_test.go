package edit

// Export internal functions for testing.
// This file is only compiled during tests (suffix _test.go).

// ConcatManifest exports concatManifest for testing.
var ConcatManifest = concatManifest

// SliceNames exports sliceNames for testing.
var SliceNames = sliceNames

// Secs exports secs for testing.
var Secs = secs

// --- Dependency injection exports ---

// ProcessRunner exports processRunner interface for testing.
type ProcessRunner = processRunner

// MediaProber exports mediaProber interface for testing.
type MediaProber = mediaProber

// FileSystem exports fileSystem interface for testing.
type FileSystem = fileSystem
