package commands

import (
	"fmt"
	"os"
	"strconv"
	"strings"
)

// Exit implements the exit builtin.
func Exit(ctx *Context, args []string) int {
	s, shellErr := ctx.Shell()

	code := ExitSuccess
	if shellErr == nil {
		code = s.lastRet
	}
	switch len(args) {
	case 1:
	case 2:
		n, err := strconv.Atoi(args[1])
		if err != nil {
			fmt.Fprintf(ctx.Stderr(), "%s: %s: numeric argument required\n", args[0], args[1])
			n = ExitUsage
		}
		code = n & 0xff
	default:
		fmt.Fprintf(ctx.Stderr(), "%s: too many arguments\n", args[0])
		return ExitFailure
	}

	if shellErr == nil {
		s.Exit(code)
	}
	return code
}

func True(ctx *Context, args []string) int {
	return ExitSuccess
}

func False(ctx *Context, args []string) int {
	return ExitFailure
}

// Source implements the . and source builtins.
func Source(ctx *Context, args []string) int {
	s, err := ctx.Shell()
	if err != nil {
		fmt.Fprintf(ctx.Stderr(), "%s: %v\n", args[0], err)
		return ExitFailure
	}
	if len(args) < 2 {
		return usageError(ctx, args, args[0]+" filename [arguments]", fmt.Errorf("filename argument required"))
	}

	path := args[1]
	if !strings.Contains(path, "/") {
		if found, err := s.Resolver.Search(path); err == nil {
			path = found
		}
	}
	src, err := os.ReadFile(path)
	if err != nil {
		fmt.Fprintf(ctx.Stderr(), "%s: %v\n", args[0], err)
		return ExitFailure
	}

	if len(args) > 2 {
		saved := s.Store.Args()
		s.Store.SetArgs(args[2:])
		defer s.Store.SetArgs(saved)
	}
	return s.RunWith(ctx.Stdio(), string(src), args[1])
}

// History implements the history builtin.
func History(ctx *Context, args []string) int {
	cmd := &SimpleCommand{
		Use:   "history [-c]",
		Short: "Display the history list with line numbers.",
	}
	clearAll := cmd.Flags().Bool('c', "clear the history by deleting all entries")

	return cmd.Run(ctx, args, func() int {
		s, err := ctx.Shell()
		if err != nil {
			fmt.Fprintf(ctx.Stderr(), "%s: %v\n", args[0], err)
			return ExitFailure
		}

		if *clearAll {
			if s.Readline != nil {
				s.Readline.Operation.ResetHistory()
			}
			s.history = nil
			return ExitSuccess
		}

		for i, line := range s.history {
			fmt.Fprintf(ctx.Stdout(), "% 5d  %s\n", i+1, line)
		}
		return ExitSuccess
	})
}

// Help implements the help builtin.
func Help(ctx *Context, args []string) int {
	w := ctx.Stdout()
	fmt.Fprintln(w, "procsh, a POSIX command interpreter")
	fmt.Fprintln(w, "These shell commands are defined internally.  Type `help' to see this list.")
	fmt.Fprintln(w, "Most builtins accept --help to describe their options.")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Builtins:")
	fmt.Fprintln(w)
	fmt.Fprintln(w, strings.Join(ListBuiltins(), "\n"))

	return ExitSuccess
}

func init() {
	addBuiltin("exit", Exit)
	addBuiltin("true", True)
	addBuiltin("false", False)
	addBuiltin(":", True)
	addBuiltin(".", Source)
	addBuiltin("source", Source)
	addBuiltin("history", History)
	addBuiltin("help", Help)
}
