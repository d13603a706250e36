//go:build windows

package ffmpeg

import (
	"os"
	"os/exec"
)

func prepareCommand(*exec.Cmd) {}

// terminate has no graceful form on Windows without a console; the process is killed.
func terminate(p *os.Process) error {
	return p.Kill()
}

func kill(p *os.Process) error {
	return p.Kill()
}
