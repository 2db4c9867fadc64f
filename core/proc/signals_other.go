//go:build !unix

package proc

import (
	"os"
	"syscall"
)

// Only the signals the runtime can deliver are listed.
var signalTable = []SignalInfo{
	{"INT", syscall.SIGINT},
	{"KILL", syscall.SIGKILL},
	{"TERM", syscall.SIGTERM},
}

// Kill sends sig to the process pid.
func Kill(pid int, sig syscall.Signal) error {
	p, err := os.FindProcess(pid)
	if err != nil {
		return err
	}
	return p.Signal(sig)
}
