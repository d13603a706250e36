package server

// Export internal functions for testing.
// This file is only compiled during tests (suffix _test.go).

// StatusFor exports statusFor for testing.
var StatusFor = statusFor

// --- Dependency injection exports ---

// MetadataProber exports metadataProber interface for testing.
type MetadataProber = metadataProber

// SilenceDetector exports silenceDetector interface for testing.
type SilenceDetector = silenceDetector

// ChunkSplitter exports chunkSplitter interface for testing.
type ChunkSplitter = chunkSplitter

// AudioFormatter exports audioFormatter interface for testing.
type AudioFormatter = audioFormatter
