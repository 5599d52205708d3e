//go:build windows

package process

import (
	"os"
	"os/exec"
)

// SetGroup is a no-op on Windows; there are no Unix process groups.
func SetGroup(cmd *exec.Cmd) {}

// Term force-kills the process. Windows has no SIGTERM equivalent for
// console children started this way.
func Term(proc *os.Process) error {
	if proc == nil {
		return nil
	}
	return proc.Kill()
}

// Kill force-kills the process.
func Kill(proc *os.Process) error {
	if proc == nil {
		return nil
	}
	return proc.Kill()
}
