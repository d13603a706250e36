package probe

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"os/exec"
	"strings"
)

// commandRunner runs ffprobe and returns its standard output.
type commandRunner interface {
	Output(ctx context.Context, name string, args []string) ([]byte, error)
}

// fileStatter retrieves file information for cache keys.
type fileStatter interface {
	Stat(name string) (os.FileInfo, error)
}

// --- Default implementations using real OS functions ---

// Compile-time interface verification.
var (
	_ commandRunner = osCommandRunner{}
	_ fileStatter   = osFileStatter{}
)

// osCommandRunner implements commandRunner with exec.CommandContext.
// Stderr is folded into the error so failures carry ffprobe's message.
type osCommandRunner struct{}

func (osCommandRunner) Output(ctx context.Context, name string, args []string) ([]byte, error) {
	// #nosec G204 -- name comes from ffmpeg.ResolveProbe, args are fixed
	cmd := exec.CommandContext(ctx, name, args...)
	var stderr bytes.Buffer
	cmd.Stderr = &stderr
	out, err := cmd.Output()
	if err != nil {
		if msg := strings.TrimSpace(stderr.String()); msg != "" {
			return out, fmt.Errorf("%w: %s", err, msg)
		}
		return out, err
	}
	return out, nil
}

// osFileStatter implements fileStatter using os.Stat.
type osFileStatter struct{}

func (osFileStatter) Stat(name string) (os.FileInfo, error) {
	return os.Stat(name)
}
