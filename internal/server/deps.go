package server

import (
	"context"

	"github.com/alnah/go-mediakit/internal/audio"
	"github.com/alnah/go-mediakit/internal/edit"
	"github.com/alnah/go-mediakit/internal/ffmpeg"
	"github.com/alnah/go-mediakit/internal/probe"
	"github.com/alnah/go-mediakit/internal/segment"
)

// metadataProber inspects media files.
type metadataProber interface {
	Probe(ctx context.Context, path string) (probe.Metadata, error)
}

// silenceDetector finds silent intervals.
type silenceDetector interface {
	DetectSilences(ctx context.Context, input string, opts audio.SilenceOptions) ([]segment.Range, error)
}

// chunkSplitter cuts recordings into chunks.
type chunkSplitter interface {
	Split(ctx context.Context, input, outputDir string, opts audio.SplitOptions, cb audio.SplitCallbacks) ([]audio.Chunk, error)
}

// audioFormatter converts audio for transcription.
type audioFormatter interface {
	Format(ctx context.Context, input ffmpeg.Source, output ffmpeg.Sink, opts edit.FormatOptions, cb edit.FormatCallbacks) error
}

// Compile-time interface verification.
var (
	_ metadataProber  = (*probe.Prober)(nil)
	_ silenceDetector = (*audio.Splitter)(nil)
	_ chunkSplitter   = (*audio.Splitter)(nil)
	_ audioFormatter  = (*edit.Editor)(nil)
)
