package ffmpeg

import (
	"fmt"
	"io"
	"os"
)

// Standard stream pseudo-paths understood by ffmpeg.
const (
	stdinPath  = "pipe:0"
	stdoutPath = "pipe:1"
)

// Source is where an input comes from: a FilePath or a Stream.
type Source interface {
	sourceArg() string
}

// Sink is where the output goes: a FilePath or a StreamSink.
type Sink interface {
	sinkArg() string
}

// FilePath is a media file on disk. It can be used as a Source or a Sink.
type FilePath string

func (p FilePath) sourceArg() string { return string(p) }
func (p FilePath) sinkArg() string   { return string(p) }

// Stream feeds ffmpeg from a caller-owned reader through standard input.
type Stream struct {
	R io.Reader
}

func (Stream) sourceArg() string { return stdinPath }

// StreamSink receives ffmpeg's standard output.
type StreamSink struct {
	W io.Writer
}

func (StreamSink) sinkArg() string { return stdoutPath }

// NullSink returns the platform null device, used with "-f null".
func NullSink() FilePath {
	return FilePath(os.DevNull)
}

// Input is one "-i" entry. Options are emitted right before its "-i" flag,
// which is where per-input flags such as -itsoffset or -ss belong.
type Input struct {
	Source  Source
	Options []string
}

// InputFile is a convenience constructor for a file input.
func InputFile(path string, opts ...string) Input {
	return Input{Source: FilePath(path), Options: opts}
}

// InputStream is a convenience constructor for a stream input.
func InputStream(r io.Reader, opts ...string) Input {
	return Input{Source: Stream{R: r}, Options: opts}
}

// Invocation describes a single ffmpeg run.
// Overwrite has no default: false emits -n so an existing output is never
// replaced silently.
type Invocation struct {
	Inputs        []Input
	Output        Sink
	InputOptions  []string
	OutputOptions []string
	Overwrite     bool
	Dir           string
}

// Args builds the ordered argument vector:
//
//	-hide_banner -y|-n <input options> [<per-input options> -i <input>]... <output options> <output>
func (inv Invocation) Args() ([]string, error) {
	if err := inv.validate(); err != nil {
		return nil, err
	}

	args := make([]string, 0, 4+len(inv.InputOptions)+3*len(inv.Inputs)+len(inv.OutputOptions))
	args = append(args, "-hide_banner")
	if inv.Overwrite {
		args = append(args, "-y")
	} else {
		args = append(args, "-n")
	}
	args = append(args, inv.InputOptions...)
	for _, in := range inv.Inputs {
		args = append(args, in.Options...)
		args = append(args, "-i", in.Source.sourceArg())
	}
	args = append(args, inv.OutputOptions...)
	args = append(args, inv.Output.sinkArg())
	return args, nil
}

func (inv Invocation) validate() error {
	if len(inv.Inputs) == 0 {
		return fmt.Errorf("%w: no inputs", ErrInvalidInvocation)
	}
	streams := 0
	for i, in := range inv.Inputs {
		switch src := in.Source.(type) {
		case nil:
			return fmt.Errorf("%w: input %d has no source", ErrInvalidInvocation, i)
		case FilePath:
			if src == "" {
				return fmt.Errorf("%w: input %d has an empty path", ErrInvalidInvocation, i)
			}
		case Stream:
			if src.R == nil {
				return fmt.Errorf("%w: input %d has a nil reader", ErrInvalidInvocation, i)
			}
			streams++
		}
	}
	if streams > 1 {
		return fmt.Errorf("%w: only one input can be read from standard input", ErrInvalidInvocation)
	}
	switch dst := inv.Output.(type) {
	case nil:
		return fmt.Errorf("%w: no output", ErrInvalidInvocation)
	case FilePath:
		if dst == "" {
			return fmt.Errorf("%w: empty output path", ErrInvalidInvocation)
		}
	case StreamSink:
		if dst.W == nil {
			return fmt.Errorf("%w: nil output writer", ErrInvalidInvocation)
		}
	}
	return nil
}

// stdin returns the reader of the stream input, if any.
func (inv Invocation) stdin() io.Reader {
	for _, in := range inv.Inputs {
		if s, ok := in.Source.(Stream); ok {
			return s.R
		}
	}
	return nil
}

// stdout returns the writer of the stream output, if any.
func (inv Invocation) stdout() io.Writer {
	if s, ok := inv.Output.(StreamSink); ok {
		return s.W
	}
	return nil
}
