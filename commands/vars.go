package commands

import (
	"errors"
	"fmt"
	"strings"
	"text/tabwriter"
)

// Shell options settable with `set -o`.
const (
	OptErrexit   = "errexit"
	OptNoclobber = "noclobber"
	OptNounset   = "nounset"
	OptXtrace    = "xtrace"
)

// shellOptions maps single letter flags to option names.
var shellOptions = []struct {
	letter byte
	name   string
}{
	{'C', OptNoclobber},
	{'e', OptErrexit},
	{'u', OptNounset},
	{'x', OptXtrace},
}

func optionByLetter(c byte) (string, bool) {
	for _, opt := range shellOptions {
		if opt.letter == c {
			return opt.name, true
		}
	}
	return "", false
}

func isOption(name string) bool {
	for _, opt := range shellOptions {
		if opt.name == name {
			return true
		}
	}
	return false
}

// shellQuote quotes s so the shell reads it back as a single word.
func shellQuote(s string) string {
	return "'" + strings.ReplaceAll(s, "'", `'\''`) + "'"
}

// splitAssign splits NAME=value, ok is false if arg has no '='.
func splitAssign(arg string) (name, value string, ok bool) {
	i := strings.IndexByte(arg, '=')
	if i < 0 {
		return arg, "", false
	}
	return arg[:i], arg[i+1:], true
}

// Export implements the export builtin.
func Export(ctx *Context, args []string) int {
	cmd := &SimpleCommand{
		Use:   "export [-fn] [name[=value] ...] or export -p",
		Short: "Set export attribute for shell variables.",
	}
	opts := cmd.Flags()
	functions := opts.Bool('f', "refer to shell functions")
	remove := opts.Bool('n', "remove the export property from each NAME")
	list := opts.Bool('p', "display a list of all exported variables or functions")

	return cmd.Run(ctx, args, func() int {
		s, err := ctx.Shell()
		if err != nil {
			fmt.Fprintf(ctx.Stderr(), "%s: %v\n", args[0], err)
			return ExitFailure
		}
		names := opts.Args()

		if *list || len(names) == 0 {
			if *functions {
				for _, name := range s.FunctionNames() {
					if s.exportedFuncs[name] {
						body, _ := s.Function(name)
						fmt.Fprintf(ctx.Stdout(), "%s() %s\nexport -f %s\n", name, body, name)
					}
				}
				return ExitSuccess
			}
			for _, name := range s.Store.ExportedNames() {
				fmt.Fprintf(ctx.Stdout(), "export %s=%s\n", name, shellQuote(s.Store.Getvar(name)))
			}
			return ExitSuccess
		}

		code := ExitSuccess
		for _, arg := range names {
			name, value, assign := splitAssign(arg)

			if *functions {
				if _, ok := s.Function(name); !ok {
					fmt.Fprintf(ctx.Stderr(), "%s: %s: not a function\n", args[0], name)
					code = ExitFailure
					continue
				}
				if *remove {
					delete(s.exportedFuncs, name)
				} else {
					s.exportedFuncs[name] = true
				}
				continue
			}

			if !nameRegex.MatchString(name) {
				fmt.Fprintf(ctx.Stderr(), "%s: `%s': %v\n", args[0], arg, ErrInvalidName)
				code = ExitFailure
				continue
			}
			if assign {
				s.SetVar(name, value)
			}
			if *remove {
				s.Store.Unexport(name)
			} else {
				s.Store.Export(name)
			}
		}
		return code
	})
}

// Set implements the set builtin: shell options, positional parameters and
// NAME=value assignments given before the first positional parameter.
func Set(ctx *Context, args []string) int {
	const use = "set [-Ceux] [-o option-name] [--] [name=value ...] [arg ...]"
	s, err := ctx.Shell()
	if err != nil {
		fmt.Fprintf(ctx.Stderr(), "%s: %v\n", args[0], err)
		return ExitFailure
	}

	if len(args) == 1 {
		it := s.Store.IterateVars()
		for k, v, ok := it.Next(); ok; k, v, ok = it.Next() {
			fmt.Fprintf(ctx.Stdout(), "%s=%s\n", k, shellQuote(v))
		}
		return ExitSuccess
	}

	rest := args[1:]
	for len(rest) > 0 {
		arg := rest[0]
		if arg == "--" || arg == "-" {
			s.Store.SetArgs(append([]string{}, rest[1:]...))
			return ExitSuccess
		}
		if len(arg) < 2 || (arg[0] != '-' && arg[0] != '+') {
			break
		}
		on := arg[0] == '-'
		rest = rest[1:]

		if arg[1:] == "o" {
			if len(rest) == 0 {
				printOptions(ctx, s, !on)
				continue
			}
			name := rest[0]
			rest = rest[1:]
			if !isOption(name) {
				fmt.Fprintf(ctx.Stderr(), "%s: %s: invalid option name\n", args[0], name)
				return ExitFailure
			}
			s.Store.SetOption(name, on)
			continue
		}

		for i := 1; i < len(arg); i++ {
			name, ok := optionByLetter(arg[i])
			if !ok {
				return usageError(ctx, args, use, fmt.Errorf("%c%c: invalid option", arg[0], arg[i]))
			}
			s.Store.SetOption(name, on)
		}
	}

	for len(rest) > 0 {
		name, value, ok := splitAssign(rest[0])
		if !ok || !nameRegex.MatchString(name) {
			break
		}
		s.SetVar(name, value)
		rest = rest[1:]
	}
	if len(rest) > 0 {
		s.Store.SetArgs(append([]string{}, rest...))
	}
	return ExitSuccess
}

func printOptions(ctx *Context, s *Shell, reusable bool) {
	if reusable {
		for _, opt := range shellOptions {
			flag := "+o"
			if s.Store.Option(opt.name) {
				flag = "-o"
			}
			fmt.Fprintf(ctx.Stdout(), "set %s %s\n", flag, opt.name)
		}
		return
	}

	w := tabwriter.NewWriter(ctx.Stdout(), 0, 8, 1, ' ', 0)
	for _, opt := range shellOptions {
		state := "off"
		if s.Store.Option(opt.name) {
			state = "on"
		}
		fmt.Fprintf(w, "%s\t%s\n", opt.name, state)
	}
	w.Flush()
}

// Unset implements the unset builtin.
func Unset(ctx *Context, args []string) int {
	cmd := &SimpleCommand{
		Use:   "unset [-f] [-v] [name ...]",
		Short: "Unset values and attributes of shell variables and functions.",
	}
	opts := cmd.Flags()
	functions := opts.Bool('f', "treat each NAME as a shell function")
	variables := opts.Bool('v', "treat each NAME as a shell variable")

	return cmd.Run(ctx, args, func() int {
		s, err := ctx.Shell()
		if err != nil {
			fmt.Fprintf(ctx.Stderr(), "%s: %v\n", args[0], err)
			return ExitFailure
		}
		if *functions && *variables {
			return usageError(ctx, args, cmd.Use, errors.New("cannot simultaneously unset a function and a variable"))
		}

		env, _ := ctx.Env()
		code := ExitSuccess
		for _, name := range opts.Args() {
			switch {
			case *functions:
				s.UnsetFunction(name)
				delete(s.exportedFuncs, name)
			case !nameRegex.MatchString(name):
				fmt.Fprintf(ctx.Stderr(), "%s: `%s': %v\n", args[0], name, ErrInvalidName)
				code = ExitFailure
			default:
				// Without -v a name that isn't a variable may be a function.
				if !env.Remove(name) && !*variables {
					s.UnsetFunction(name)
					delete(s.exportedFuncs, name)
				}
			}
		}
		return code
	})
}

func init() {
	addBuiltin("export", Export)
	addBuiltin("set", Set)
	addBuiltin("unset", Unset)
}
