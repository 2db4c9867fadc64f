package commands

import (
	"errors"
	"fmt"
	"strconv"

	"github.com/josephlewis42/procsh/core/parse"
	"github.com/josephlewis42/procsh/core/proc"
)

// Coproc implements the coproc builtin. The optional NAME is recognized when
// the first argument is an identifier that doesn't name a command.
func Coproc(ctx *Context, args []string) int {
	const use = "coproc [NAME] command [arg ...]"
	s, err := ctx.Shell()
	if err != nil {
		fmt.Fprintf(ctx.Stderr(), "%s: %v\n", args[0], err)
		return ExitFailure
	}

	rest := args[1:]
	name := proc.DefaultCoprocName
	if len(rest) >= 2 && nameRegex.MatchString(rest[0]) {
		if kind, _ := s.lookupCommand(rest[0], "", true); kind == kindNotFound {
			name, rest = rest[0], rest[1:]
		}
	}
	if len(rest) == 0 {
		return usageError(ctx, args, use, errors.New("command required"))
	}

	if err := s.Coprocs.Check(name); err != nil {
		fmt.Fprintf(ctx.Stderr(), "%s: %v\n", args[0], err)
		return ExitFailure
	}

	cmd := &parse.Command{Name: rest[0], Args: rest[1:]}
	req, err := s.request(ctx, cmd)
	if err != nil {
		return s.reportStartError(ctx, cmd, err)
	}

	co, err := s.Launcher.StartCoproc(name, req)
	if err != nil {
		fmt.Fprintf(ctx.Stderr(), "%s: %v\n", args[0], err)
		return proc.StartErrorCode(err)
	}
	if err := s.Coprocs.Add(co); err != nil {
		co.Close()
		fmt.Fprintf(ctx.Stderr(), "%s: %v\n", args[0], err)
		return ExitFailure
	}
	go co.Job.Wait()

	s.SetVar(name+"_PID", strconv.Itoa(co.Pid()))
	s.SetVar(name+"_0", strconv.Itoa(co.ReadFd()))
	s.SetVar(name+"_1", strconv.Itoa(co.WriteFd()))
	s.lastBg = co.Pid()

	if s.Interactive {
		fmt.Fprintf(ctx.Stderr(), "[%d] %d\n", co.Job.ID, co.Pid())
	}
	return ExitSuccess
}

func init() {
	addBuiltin("coproc", Coproc)
}
