//go:build unix

package proc

import (
	"syscall"

	"golang.org/x/sys/unix"
)

var signalTable = []SignalInfo{
	{"HUP", unix.SIGHUP},
	{"INT", unix.SIGINT},
	{"QUIT", unix.SIGQUIT},
	{"ILL", unix.SIGILL},
	{"TRAP", unix.SIGTRAP},
	{"ABRT", unix.SIGABRT},
	{"BUS", unix.SIGBUS},
	{"FPE", unix.SIGFPE},
	{"KILL", unix.SIGKILL},
	{"USR1", unix.SIGUSR1},
	{"SEGV", unix.SIGSEGV},
	{"USR2", unix.SIGUSR2},
	{"PIPE", unix.SIGPIPE},
	{"ALRM", unix.SIGALRM},
	{"TERM", unix.SIGTERM},
	{"CHLD", unix.SIGCHLD},
	{"CONT", unix.SIGCONT},
	{"STOP", unix.SIGSTOP},
	{"TSTP", unix.SIGTSTP},
	{"TTIN", unix.SIGTTIN},
	{"TTOU", unix.SIGTTOU},
	{"URG", unix.SIGURG},
	{"XCPU", unix.SIGXCPU},
	{"XFSZ", unix.SIGXFSZ},
	{"VTALRM", unix.SIGVTALRM},
	{"PROF", unix.SIGPROF},
	{"WINCH", unix.SIGWINCH},
	{"IO", unix.SIGIO},
	{"SYS", unix.SIGSYS},
}

// Kill sends sig to the process pid.
func Kill(pid int, sig syscall.Signal) error {
	return unix.Kill(pid, sig)
}
