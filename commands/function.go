package commands

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/josephlewis42/procsh/core/state"
)

// Local implements the local builtin.
func Local(ctx *Context, args []string) int {
	s, err := ctx.Shell()
	if err != nil {
		fmt.Fprintf(ctx.Stderr(), "%s: %v\n", args[0], err)
		return ExitFailure
	}
	frame, err := s.Store.Frames.Top()
	if err != nil {
		fmt.Fprintf(ctx.Stderr(), "%s: can only be used in a function\n", args[0])
		return ExitFailure
	}

	if len(args) == 1 {
		locals := state.NewTable()
		for k, v := range frame.Locals() {
			locals.Set(k, v)
		}
		it := locals.Iterate()
		for k, v, ok := it.Next(); ok; k, v, ok = it.Next() {
			fmt.Fprintf(ctx.Stdout(), "%s=%s\n", k, shellQuote(v))
		}
		return ExitSuccess
	}

	code := ExitSuccess
	for _, arg := range args[1:] {
		name, value, _ := splitAssign(arg)
		if !nameRegex.MatchString(name) {
			fmt.Fprintf(ctx.Stderr(), "%s: `%s': %v\n", args[0], arg, ErrInvalidName)
			code = ExitFailure
			continue
		}
		s.Store.Frames.Declare(name, value)
	}
	return code
}

// Return implements the return builtin.
func Return(ctx *Context, args []string) int {
	s, err := ctx.Shell()
	if err != nil {
		fmt.Fprintf(ctx.Stderr(), "%s: %v\n", args[0], err)
		return ExitFailure
	}

	code := s.lastRet
	switch len(args) {
	case 1:
	case 2:
		n, err := strconv.Atoi(args[1])
		if err != nil {
			return usageError(ctx, args, "return [n]", fmt.Errorf("%s: numeric argument required", args[1]))
		}
		code = n & 0xff
	default:
		return usageError(ctx, args, "return [n]", errors.New("too many arguments"))
	}

	if err := s.Store.Frames.RequestReturn(code); err != nil {
		fmt.Fprintf(ctx.Stderr(), "%s: can only `return' from a function\n", args[0])
		return ExitFailure
	}
	return code
}

// Getopts implements the getopts builtin. OPTIND names the next argument to
// inspect; the position inside a group of clustered flags is kept in the
// session.
func Getopts(ctx *Context, args []string) int {
	const use = "getopts optstring name [arg ...]"
	s, err := ctx.Shell()
	if err != nil {
		fmt.Fprintf(ctx.Stderr(), "%s: %v\n", args[0], err)
		return ExitFailure
	}
	if len(args) < 3 {
		return usageError(ctx, args, use, errors.New("not enough arguments"))
	}
	optstring, name := args[1], args[2]
	if !nameRegex.MatchString(name) {
		return usageError(ctx, args, use, fmt.Errorf("`%s': %w", name, ErrInvalidName))
	}

	params := args[3:]
	if len(args) == 3 {
		params = s.Store.Args()
	}

	optind, err := strconv.Atoi(s.Store.Getvar(EnvOptind))
	if err != nil || optind < 1 {
		optind = 1
	}
	pos := s.Store.GetoptsPos(optind)

	silent := strings.HasPrefix(optstring, ":")
	optstring = strings.TrimPrefix(optstring, ":")

	finish := func(result string, code int) int {
		s.SetVar(name, result)
		s.SetVar(EnvOptind, strconv.Itoa(optind))
		s.Store.SetGetoptsPos(optind, pos)
		return code
	}

	if optind > len(params) {
		pos = 0
		return finish("?", ExitFailure)
	}
	arg := params[optind-1]
	if pos == 0 {
		if arg == "--" {
			optind++
			return finish("?", ExitFailure)
		}
		if len(arg) < 2 || arg[0] != '-' {
			return finish("?", ExitFailure)
		}
		pos = 1
	}

	c := arg[pos]
	pos++
	advance := func() {
		if pos >= len(arg) {
			optind++
			pos = 0
		}
	}

	i := strings.IndexByte(optstring, c)
	if i < 0 || c == ':' {
		if silent {
			s.SetVar(EnvOptarg, string(c))
		} else {
			s.UnsetVar(EnvOptarg)
			fmt.Fprintf(ctx.Stderr(), "%s: illegal option -- %c\n", args[0], c)
		}
		advance()
		return finish("?", ExitSuccess)
	}

	if i+1 < len(optstring) && optstring[i+1] == ':' {
		switch {
		case pos < len(arg):
			s.SetVar(EnvOptarg, arg[pos:])
			optind++
		case optind < len(params):
			s.SetVar(EnvOptarg, params[optind])
			optind += 2
		default:
			optind++
			pos = 0
			if silent {
				s.SetVar(EnvOptarg, string(c))
				return finish(":", ExitSuccess)
			}
			s.UnsetVar(EnvOptarg)
			fmt.Fprintf(ctx.Stderr(), "%s: option requires an argument -- %c\n", args[0], c)
			return finish("?", ExitSuccess)
		}
		pos = 0
		return finish(string(c), ExitSuccess)
	}

	s.UnsetVar(EnvOptarg)
	advance()
	return finish(string(c), ExitSuccess)
}

func init() {
	addBuiltin("local", Local)
	addBuiltin("return", Return)
	addBuiltin("getopts", Getopts)
}
