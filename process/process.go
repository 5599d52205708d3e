// Package process provides process-group lifecycle control for the Claude
// CLI child. The child is started as a process group leader so that timeout
// kills reach its entire tree, not just the direct child.
package process

import (
	"os"
	"time"

	"subagent/logger"
)

// killWaitTimeout bounds how long we wait for exit after SIGKILL.
const killWaitTimeout = 2 * time.Second

// TerminateGroup stops the child's process group: SIGTERM first, then
// SIGKILL after grace if the child hasn't exited. done must be closed when
// the process has been reaped (i.e. after Wait returns).
//
// Best effort throughout: the child may exit, or its group may already be
// gone, between any two steps.
func TerminateGroup(proc *os.Process, done <-chan struct{}, grace time.Duration) {
	log := logger.WithComponent("process")

	if err := Term(proc); err != nil {
		log.Debug("SIGTERM failed", "pid", proc.Pid, "error", err)
	}

	select {
	case <-done:
		return
	case <-time.After(grace):
	}

	log.Debug("grace period expired, escalating to SIGKILL", "pid", proc.Pid)
	if err := Kill(proc); err != nil {
		log.Debug("SIGKILL failed", "pid", proc.Pid, "error", err)
	}

	select {
	case <-done:
	case <-time.After(killWaitTimeout):
		log.Warn("process did not exit after SIGKILL", "pid", proc.Pid)
	}
}
