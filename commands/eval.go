package commands

import (
	"errors"
	"fmt"
	"strings"

	"github.com/josephlewis42/procsh/core/parse"
	"github.com/josephlewis42/procsh/core/proc"
)

// Eval implements the eval builtin.
func Eval(ctx *Context, args []string) int {
	text := strings.TrimSpace(strings.Join(args[1:], " "))
	if text == "" {
		return ExitSuccess
	}
	code, err := ctx.ExecuteShellCommand(text)
	if err != nil {
		fmt.Fprintf(ctx.Stderr(), "%s: %v\n", args[0], err)
		return ExitFailure
	}
	return code
}

// Exec implements the exec builtin: it replaces the shell with the given
// program. If the replacement fails a non-interactive shell exits.
func Exec(ctx *Context, args []string) int {
	s, err := ctx.Shell()
	if err != nil {
		fmt.Fprintf(ctx.Stderr(), "%s: %v\n", args[0], err)
		return ExitFailure
	}
	if len(args) == 1 {
		return ExitSuccess
	}

	cmd := &parse.Command{Name: args[1], Args: args[2:]}
	req, err := s.request(ctx, cmd)
	if err == nil && s.inSubshell() {
		// Only the subshell is replaced, so the program runs to completion
		// and its status ends the subshell.
		var code int
		if code, err = s.Launcher.Run(req); err == nil {
			s.Exit(code)
			return code
		}
	} else if err == nil {
		err = s.Launcher.ExecRequest(req)
	}

	code := proc.StartErrorCode(err)
	s.Log.UnknownCommand(cmd.Argv(), err)
	if code == ExitNotFound {
		fmt.Fprintf(ctx.Stderr(), "%s: %s: not found\n", args[0], cmd.Name)
	} else {
		fmt.Fprintf(ctx.Stderr(), "%s: %v\n", args[0], err)
	}
	if !s.Interactive || s.inSubshell() {
		s.Exit(code)
	}
	return code
}

type commandKind int

const (
	kindNotFound commandKind = iota
	kindFunction
	kindBuiltin
	kindHashed
	kindFile
)

func (k commandKind) String() string {
	switch k {
	case kindFunction:
		return "function"
	case kindBuiltin:
		return "builtin"
	case kindHashed, kindFile:
		return "file"
	default:
		return ""
	}
}

// lookupCommand reports what running name would execute. An empty
// searchPath means PATH and the command cache.
func (s *Shell) lookupCommand(name, searchPath string, functions bool) (commandKind, string) {
	if _, ok := s.Function(name); ok && functions {
		return kindFunction, name
	}
	if _, ok := AllBuiltins[name]; ok {
		return kindBuiltin, name
	}

	var path string
	var err error
	switch {
	case strings.Contains(name, "/"):
		path, err = s.Resolver.Resolve(name)
	case searchPath != "":
		path, err = s.Resolver.SearchPath(searchPath, name)
	default:
		if cached, ok := s.Resolver.Cached(name); ok {
			return kindHashed, cached
		}
		path, err = s.Resolver.Search(name)
	}
	if err != nil {
		return kindNotFound, ""
	}
	return kindFile, path
}

func describe(name string, kind commandKind, detail string) string {
	switch kind {
	case kindFunction:
		return fmt.Sprintf("%s is a function", name)
	case kindBuiltin:
		return fmt.Sprintf("%s is a shell builtin", name)
	case kindHashed:
		return fmt.Sprintf("%s is hashed (%s)", name, detail)
	default:
		return fmt.Sprintf("%s is %s", name, detail)
	}
}

// Command implements the command builtin, running a builtin or program while
// bypassing shell functions.
func Command(ctx *Context, args []string) int {
	cmd := &SimpleCommand{
		Use:   "command [-pVv] command [arg ...]",
		Short: "Execute a simple command or display information about commands.",
	}
	opts := cmd.Flags()
	defaultPath := opts.Bool('p', "use a default value for PATH that is guaranteed to find all of the standard utilities")
	verbose := opts.Bool('V', "print a more verbose description of each COMMAND")
	short := opts.Bool('v', "print a description of COMMAND similar to the `type' builtin")

	return cmd.Run(ctx, args, func() int {
		s, err := ctx.Shell()
		if err != nil {
			fmt.Fprintf(ctx.Stderr(), "%s: %v\n", args[0], err)
			return ExitFailure
		}
		rest := opts.Args()
		if len(rest) == 0 {
			return ExitSuccess
		}

		searchPath := ""
		if *defaultPath {
			searchPath = s.Config.DefaultPath
		}

		if *verbose || *short {
			code := ExitSuccess
			for _, name := range rest {
				kind, detail := s.lookupCommand(name, searchPath, true)
				switch {
				case kind == kindNotFound:
					if *verbose {
						fmt.Fprintf(ctx.Stderr(), "%s: %s: not found\n", args[0], name)
					}
					code = ExitFailure
				case *verbose:
					fmt.Fprintln(ctx.Stdout(), describe(name, kind, detail))
				default:
					fmt.Fprintln(ctx.Stdout(), detail)
				}
			}
			return code
		}

		call := &parse.Command{Name: rest[0], Args: rest[1:]}
		if !*defaultPath || ctx.IsBuiltin(call.Name) {
			return s.execute(ctx.Stdio(), call, findCommand, false)
		}

		kind, path := s.lookupCommand(call.Name, searchPath, false)
		if kind == kindNotFound {
			return s.reportStartError(ctx, call, proc.ErrNotFound)
		}
		code, err := s.Launcher.Run(&proc.Request{
			Path:  path,
			Argv:  call.Argv(),
			Env:   s.environ(),
			Files: ctx.files,
		})
		if err != nil {
			return s.reportStartError(ctx, call, err)
		}
		return code
	})
}

// BuiltinCmd implements the builtin builtin.
func BuiltinCmd(ctx *Context, args []string) int {
	if len(args) < 2 {
		return ExitSuccess
	}
	if !ctx.IsBuiltin(args[1]) {
		fmt.Fprintf(ctx.Stderr(), "%s: %s: not a shell builtin\n", args[0], args[1])
		return ExitFailure
	}
	code, err := ctx.ExecuteBuiltinCmd(&parse.Command{Name: args[1], Args: args[2:]})
	if errors.Is(err, ErrNoShellContext) {
		// Builtins still run standalone, they report missing state themselves.
		return AllBuiltins[args[1]].Main(ctx, args[1:])
	}
	return code
}

// Type implements the type builtin.
func Type(ctx *Context, args []string) int {
	cmd := &SimpleCommand{
		Use:   "type [-pt] name [name ...]",
		Short: "Display information about command type.",
	}
	opts := cmd.Flags()
	pathOnly := opts.Bool('p', "print the file that would be executed, if any")
	kindOnly := opts.Bool('t', "print a single word: function, builtin or file")

	return cmd.Run(ctx, args, func() int {
		s, err := ctx.Shell()
		if err != nil {
			fmt.Fprintf(ctx.Stderr(), "%s: %v\n", args[0], err)
			return ExitFailure
		}

		code := ExitSuccess
		for _, name := range opts.Args() {
			kind, detail := s.lookupCommand(name, "", true)
			switch {
			case kind == kindNotFound:
				if !*kindOnly && !*pathOnly {
					fmt.Fprintf(ctx.Stderr(), "%s: %s: not found\n", args[0], name)
				}
				code = ExitFailure
			case *kindOnly:
				fmt.Fprintln(ctx.Stdout(), kind)
			case *pathOnly:
				if kind == kindHashed || kind == kindFile {
					fmt.Fprintln(ctx.Stdout(), detail)
				}
			default:
				fmt.Fprintln(ctx.Stdout(), describe(name, kind, detail))
			}
		}
		return code
	})
}

func init() {
	addBuiltin("eval", Eval)
	addBuiltin("exec", Exec)
	addBuiltin("command", Command)
	addBuiltin("builtin", BuiltinCmd)
	addBuiltin("type", Type)
}
