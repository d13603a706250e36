//go:build !windows

package ffmpeg

import (
	"os"
	"os/exec"
	"syscall"

	"golang.org/x/sys/unix"
)

// prepareCommand puts ffmpeg in its own process group so that signals reach
// any helper processes it spawns.
func prepareCommand(cmd *exec.Cmd) {
	cmd.SysProcAttr = &syscall.SysProcAttr{Setpgid: true}
}

// terminate asks the process group to stop. ffmpeg handles SIGTERM by
// finishing the current packet and writing the container trailer.
func terminate(p *os.Process) error {
	return unix.Kill(-p.Pid, unix.SIGTERM)
}

// kill stops the process group immediately.
func kill(p *os.Process) error {
	if err := unix.Kill(-p.Pid, unix.SIGKILL); err != nil {
		return p.Kill()
	}
	return nil
}
