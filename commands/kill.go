package commands

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"syscall"

	"github.com/josephlewis42/procsh/core/proc"
)

const killUse = "kill [-s sigspec | -n signum | -sigspec] pid | %job ... or kill -l [sigspec]"

// Kill implements the kill builtin. A bad signal aborts the command, a pid
// that can't be signalled is reported and the remaining pids are still
// signalled.
func Kill(ctx *Context, args []string) int {
	rest := args[1:]
	if len(rest) == 0 {
		return usageError(ctx, args, killUse, errors.New("not enough arguments"))
	}

	sig := syscall.SIGTERM
	spec := ""
	switch first := rest[0]; {
	case first == "-l" || first == "-L":
		return listSignals(ctx, args[0], rest[1:])
	case first == "-s" || first == "-n":
		if len(rest) < 2 {
			return usageError(ctx, args, killUse, fmt.Errorf("%s: option requires an argument", first))
		}
		spec = rest[1]
		rest = rest[2:]
	case first == "--":
		rest = rest[1:]
	case len(first) > 1 && first[0] == '-':
		spec = first[1:]
		rest = rest[1:]
	}

	if spec != "" {
		parsed, err := proc.ParseSignal(spec)
		if err != nil {
			ctx.LogInvalidInvocation(args, err)
			fmt.Fprintf(ctx.Stderr(), "%s: %s: invalid signal specification\n", args[0], spec)
			return ExitFailure
		}
		sig = parsed
	}

	if len(rest) > 0 && rest[0] == "--" {
		rest = rest[1:]
	}
	if len(rest) == 0 {
		return usageError(ctx, args, killUse, errors.New("pid argument required"))
	}

	s, _ := ctx.Shell()
	name, _ := proc.SignalName(sig)
	code := ExitSuccess
	for _, target := range rest {
		pid, err := targetPid(s, target)
		if err != nil {
			fmt.Fprintf(ctx.Stderr(), "%s: %s: %v\n", args[0], target, err)
			code = ExitFailure
			continue
		}

		if s != nil && pid == os.Getpid() && s.trapped(name) {
			// Delivered straight to the queue so the trap runs at the next
			// dispatch point rather than whenever the runtime forwards it.
			if !s.Signals.Raise(sig) {
				err = errors.New("signal queue full")
			}
		} else {
			err = proc.Kill(pid, sig)
		}
		if s != nil {
			s.Log.SignalSent(pid, name, err)
		}
		if err != nil {
			fmt.Fprintf(ctx.Stderr(), "%s: (%d) - %v\n", args[0], pid, err)
			code = ExitFailure
		}
	}
	return code
}

// targetPid resolves a pid or a %N job reference.
func targetPid(s *Shell, target string) (int, error) {
	if strings.HasPrefix(target, "%") {
		if s == nil {
			return 0, ErrNoShellContext
		}
		id, err := strconv.Atoi(target[1:])
		if err != nil {
			return 0, errors.New("no such job")
		}
		job, ok := s.Jobs.Get(id)
		if !ok {
			return 0, errors.New("no such job")
		}
		return job.Pid, nil
	}

	pid, err := strconv.Atoi(target)
	if err != nil {
		return 0, errors.New("arguments must be process or job IDs")
	}
	return pid, nil
}

// listSignals prints every signal as "N NAME", or translates each argument
// between names and numbers. Exit statuses above 128 name the signal that
// caused them.
func listSignals(ctx *Context, name string, specs []string) int {
	if len(specs) == 0 {
		for _, info := range proc.Signals() {
			fmt.Fprintf(ctx.Stdout(), "%d %s\n", info.Number, info.Name)
		}
		return ExitSuccess
	}

	code := ExitSuccess
	for _, spec := range specs {
		if num, err := strconv.Atoi(spec); err == nil {
			if num > proc.ExitSignalBase {
				num -= proc.ExitSignalBase
			}
			if sigName, ok := proc.SignalName(syscall.Signal(num)); ok {
				fmt.Fprintln(ctx.Stdout(), sigName)
				continue
			}
		} else if sig, err := proc.ParseSignal(spec); err == nil {
			fmt.Fprintln(ctx.Stdout(), int(sig))
			continue
		}
		fmt.Fprintf(ctx.Stderr(), "%s: %s: invalid signal specification\n", name, spec)
		code = ExitFailure
	}
	return code
}

func init() {
	addBuiltin("kill", Kill)
}
