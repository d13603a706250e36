package transcribe

import (
	"context"
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"golang.org/x/sync/errgroup"

	"github.com/alnah/go-mediakit/internal/audio"
	"github.com/alnah/go-mediakit/internal/format"
)

// ChunkTranscript is the transcription of one chunk, with segment times
// shifted to the source timeline.
type ChunkTranscript struct {
	Chunk    audio.Chunk `json:"chunk"`
	Text     string      `json:"text"`
	Segments []Segment   `json:"segments,omitempty"`
}

// Transcript is the ordered transcription of a split input.
type Transcript []ChunkTranscript

// TranscribeChunks transcribes chunks concurrently, at most maxParallel at
// a time, and returns them in chunk order. The first failure cancels the
// remaining requests.
func TranscribeChunks(ctx context.Context, chunks []audio.Chunk, t Transcriber, opts Options, maxParallel int) (Transcript, error) {
	if len(chunks) == 0 {
		return nil, ErrNoChunks
	}

	out := make(Transcript, len(chunks))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(max(maxParallel, 1))

	for i, chunk := range chunks {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			res, err := t.Transcribe(gctx, chunk.Path, opts)
			if err != nil {
				return fmt.Errorf("chunk %d (%s): %w", chunk.Index, filepath.Base(chunk.Path), err)
			}
			out[i] = ChunkTranscript{
				Chunk:    chunk,
				Text:     res.Text,
				Segments: offset(res.Segments, chunk.Range.Start),
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return out, nil
}

func offset(segments []Segment, by float64) []Segment {
	if len(segments) == 0 {
		return nil
	}
	shifted := make([]Segment, len(segments))
	for i, s := range segments {
		shifted[i] = Segment{Start: s.Start + by, End: s.End + by, Text: s.Text}
	}
	return shifted
}

// Text joins the chunk texts with blank lines, without markers.
func (tr Transcript) Text() string {
	parts := make([]string, 0, len(tr))
	for _, c := range tr {
		if c.Text != "" {
			parts = append(parts, c.Text)
		}
	}
	return strings.Join(parts, "\n\n")
}

// WriteTo writes each chunk as "[HH:MM:SS] text", separated by blank lines.
// Chunks with no speech are skipped.
func (tr Transcript) WriteTo(w io.Writer) (int64, error) {
	var b strings.Builder
	for _, c := range tr {
		if c.Text == "" {
			continue
		}
		if b.Len() > 0 {
			b.WriteString("\n")
		}
		fmt.Fprintf(&b, "[%s] %s\n", format.Timecode(c.Chunk.Range.Start), c.Text)
	}
	n, err := io.WriteString(w, b.String())
	return int64(n), err
}
