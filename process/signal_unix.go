//go:build unix

package process

import (
	"errors"
	"os"
	"os/exec"
	"syscall"
)

// SetGroup configures cmd to start in its own process group so signals sent
// to the group reach the whole child tree.
func SetGroup(cmd *exec.Cmd) {
	if cmd.SysProcAttr == nil {
		cmd.SysProcAttr = &syscall.SysProcAttr{}
	}
	cmd.SysProcAttr.Setpgid = true
}

// Term sends SIGTERM to the process group, falling back to the process
// itself if the group is already gone.
func Term(proc *os.Process) error {
	return signalGroup(proc, syscall.SIGTERM)
}

// Kill sends SIGKILL to the process group, falling back to the process
// itself if the group is already gone.
func Kill(proc *os.Process) error {
	return signalGroup(proc, syscall.SIGKILL)
}

func signalGroup(proc *os.Process, sig syscall.Signal) error {
	if proc == nil || proc.Pid <= 0 {
		return nil
	}
	// Negative pid addresses the group; the child is its group leader.
	if err := syscall.Kill(-proc.Pid, sig); err == nil {
		return nil
	} else if !errors.Is(err, syscall.ESRCH) {
		return err
	}
	return proc.Signal(sig)
}

// Alive reports whether a process with the given pid exists.
func Alive(pid int) bool {
	return syscall.Kill(pid, 0) == nil
}
