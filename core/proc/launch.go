// Package proc turns resolved commands into operating system processes and
// tracks them afterwards: PATH resolution with a command cache, spawning
// with redirections, process image replacement, exit status translation,
// signal delivery, trap bookkeeping and coprocesses.
package proc

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"os/exec"
	"syscall"

	"github.com/josephlewis42/procsh/core/logger"
)

// Exit codes following POSIX shell conventions.
const (
	ExitSuccess       = 0
	ExitFailure       = 1
	ExitUsage         = 2
	ExitNotExecutable = 126
	ExitNotFound      = 127
	ExitSignalBase    = 128
)

// Request describes a process to start.
type Request struct {
	// Path is the resolved executable.
	Path string
	// Argv holds command line arguments, including the command as Argv[0].
	Argv []string
	// Env holds "key=value" pairs for the child.
	Env []string
	// Dir is the working directory, empty means the shell's.
	Dir string
	// Files is the descriptor table, nil means the child gets /dev/null.
	Files *Files
}

// Launcher starts child processes and registers them with a job table.
type Launcher struct {
	Jobs *Jobs
	Log  *logger.SessionLogger

	execve func(argv0 string, argv, envv []string) error
	fds    fdOps
}

// NewLauncher creates a launcher whose children are tracked in jobs.
func NewLauncher(jobs *Jobs, log *logger.SessionLogger) *Launcher {
	return &Launcher{
		Jobs:   jobs,
		Log:    log,
		execve: execve,
		fds:    fdOps{dup: dup, dup2: dup2, close: closeFd},
	}
}

func (l *Launcher) command(req *Request) *exec.Cmd {
	argv := append([]string(nil), req.Argv...)
	if len(argv) == 0 {
		argv = []string{req.Path}
	}
	env := append([]string(nil), req.Env...)
	if env == nil {
		env = []string{}
	}

	cmd := &exec.Cmd{
		Path: req.Path,
		Args: argv,
		Env:  env,
		Dir:  req.Dir,
	}
	if req.Files != nil {
		cmd.Stdin, cmd.Stdout, cmd.Stderr = req.Files.ChildStdio()
		cmd.ExtraFiles = req.Files.Extra()
	}
	return cmd
}

func (l *Launcher) start(cmd *exec.Cmd) (*Job, error) {
	if err := cmd.Start(); err != nil {
		return nil, err
	}
	job := l.Jobs.add(cmd)
	l.Log.RunCommand(cmd.Path, cmd.Args, job.Pid)
	return job, nil
}

// Start spawns the process without waiting for it.
//
// The child is created by the runtime's fork and exec: descriptors are
// rebound in the child and, if the image replacement fails, the child exits
// on its own and the failure is reported here.
func (l *Launcher) Start(req *Request) (*Job, error) {
	return l.start(l.command(req))
}

// Run spawns the process, waits for it and returns its exit code.
func (l *Launcher) Run(req *Request) (int, error) {
	job, err := l.Start(req)
	if err != nil {
		return StartErrorCode(err), err
	}
	return l.Wait(job), nil
}

// Wait waits for a job started by Start and removes it from the table.
func (l *Launcher) Wait(job *Job) int {
	code := job.Wait()
	l.Jobs.Remove(job.ID)
	l.Log.ProcessExit(job.Pid, code)
	return code
}

// Exec replaces the current process image. The argument and environment
// snapshots are complete before the replacement is attempted. It only
// returns on failure.
func (l *Launcher) Exec(path string, argv, env []string) error {
	argv = append([]string(nil), argv...)
	if len(argv) == 0 {
		argv = []string{path}
	}
	env = append([]string(nil), env...)

	l.Log.RunCommand(path, argv, os.Getpid())
	if err := l.execve(path, argv, env); err != nil {
		return &os.PathError{Op: "exec", Path: path, Err: err}
	}
	return fmt.Errorf("exec %s: returned without error", path)
}

// ExecRequest rebinds the shell's own descriptors to req.Files and then
// replaces the process image. It only returns on failure, after putting the
// shell's descriptors back.
func (l *Launcher) ExecRequest(req *Request) error {
	restore := func() {}
	if req.Files != nil {
		var err error
		if restore, err = req.Files.bind(l.fds); err != nil {
			return &os.PathError{Op: "exec", Path: req.Path, Err: err}
		}
	}
	err := l.Exec(req.Path, req.Argv, req.Env)
	restore()
	return err
}

// ExitStatus translates a finished process's wait status to a shell exit
// code: the exit status when it exited, 128+N when killed by signal N and 1
// otherwise.
func ExitStatus(ps *os.ProcessState) int {
	if ps == nil {
		return ExitFailure
	}
	ws, ok := ps.Sys().(syscall.WaitStatus)
	if !ok {
		if code := ps.ExitCode(); code >= 0 {
			return code
		}
		return ExitFailure
	}
	switch {
	case ws.Exited():
		return ws.ExitStatus()
	case ws.Signaled():
		return ExitSignalBase + int(ws.Signal())
	default:
		return ExitFailure
	}
}

// StartErrorCode maps a failure to start a process to a shell exit code.
func StartErrorCode(err error) int {
	switch {
	case err == nil:
		return ExitSuccess
	case errors.Is(err, ErrNotFound), errors.Is(err, fs.ErrNotExist):
		return ExitNotFound
	default:
		// Permission problems, bad executable formats and failed forks all
		// mean the command was found but could not be run.
		return ExitNotExecutable
	}
}
