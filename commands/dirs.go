package commands

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/josephlewis42/procsh/core/state"
	"github.com/josephlewis42/procsh/third_party/realpath"
)

// Cwd returns the logical working directory.
func (s *Shell) Cwd() string {
	if pwd := s.Store.Getvar(EnvPWD); filepath.IsAbs(pwd) {
		return pwd
	}
	pwd, _ := os.Getwd()
	return pwd
}

// Chdir changes the working directory and updates PWD and OLDPWD. Relative
// directories are resolved against PWD; physical resolves symbolic links.
func (s *Shell) Chdir(dir string, physical bool) error {
	target := dir
	if !filepath.IsAbs(target) {
		target = filepath.Join(s.Cwd(), target)
	}
	target = filepath.Clean(target)
	if physical {
		resolved, err := realpath.Resolve(target)
		if err != nil {
			return &os.PathError{Op: "chdir", Path: dir, Err: err}
		}
		target = resolved
	}

	if err := os.Chdir(target); err != nil {
		return err
	}
	s.SetVar(EnvOldPWD, s.Cwd())
	s.SetVar(EnvPWD, target)
	return nil
}

// Cd implements the cd builtin.
func Cd(ctx *Context, args []string) int {
	cmd := &SimpleCommand{
		Use:   "cd [-L|-P] [dir|-]",
		Short: "Change the shell working directory.",
	}
	opts := cmd.Flags()
	opts.Bool('L', "follow symbolic links lexically (default)")
	physical := opts.Bool('P', "resolve symbolic links before changing directory")

	return cmd.Run(ctx, args, func() int {
		s, err := ctx.Shell()
		if err != nil {
			fmt.Fprintf(ctx.Stderr(), "%s: %v\n", args[0], err)
			return ExitFailure
		}

		var dir string
		switch rest := opts.Args(); len(rest) {
		case 0:
			home, ok := s.Store.Var(EnvHome)
			if !ok || home == "" {
				fmt.Fprintf(ctx.Stderr(), "%s: HOME not set\n", args[0])
				return ExitFailure
			}
			dir = home
		case 1:
			dir = rest[0]
			if dir == "-" {
				old, ok := s.Store.Var(EnvOldPWD)
				if !ok || old == "" {
					fmt.Fprintf(ctx.Stderr(), "%s: OLDPWD not set\n", args[0])
					return ExitFailure
				}
				dir = old
				defer func() { fmt.Fprintln(ctx.Stdout(), s.Cwd()) }()
			}
		default:
			fmt.Fprintf(ctx.Stderr(), "%s: too many arguments\n", args[0])
			return ExitFailure
		}

		if err := s.Chdir(dir, *physical); err != nil {
			fmt.Fprintf(ctx.Stderr(), "%s: %v\n", args[0], err)
			return ExitFailure
		}
		return ExitSuccess
	})
}

// stackOffset parses a +N or -N directory stack argument.
func stackOffset(arg string) (n int, fromLeft bool, ok bool) {
	if len(arg) < 2 || (arg[0] != '+' && arg[0] != '-') {
		return 0, false, false
	}
	n, err := strconv.Atoi(arg[1:])
	if err != nil || n < 0 {
		return 0, false, false
	}
	return n, arg[0] == '+', true
}

func stackError(ctx *Context, name string, err error) int {
	if errors.Is(err, state.ErrStackEmpty) {
		fmt.Fprintf(ctx.Stderr(), "%s: directory stack empty\n", name)
	} else {
		fmt.Fprintf(ctx.Stderr(), "%s: %v\n", name, err)
	}
	return ExitFailure
}

// Pushd implements the pushd builtin.
func Pushd(ctx *Context, args []string) int {
	const use = "pushd [dir | +N | -N]"
	s, err := ctx.Shell()
	if err != nil {
		fmt.Fprintf(ctx.Stderr(), "%s: %v\n", args[0], err)
		return ExitFailure
	}
	dirs := s.Store.Dirs
	cwd := s.Cwd()

	switch len(args) {
	case 1:
		// Exchange the top of the stack with the working directory.
		top, err := dirs.Swap(cwd)
		if errors.Is(err, state.ErrStackEmpty) {
			fmt.Fprintf(ctx.Stderr(), "%s: no other directory\n", args[0])
			return ExitFailure
		}
		if err != nil {
			return stackError(ctx, args[0], err)
		}
		if err := s.Chdir(top, false); err != nil {
			dirs.Swap(top)
			fmt.Fprintf(ctx.Stderr(), "%s: %v\n", args[0], err)
			return ExitFailure
		}
		return ExitSuccess

	case 2:
	default:
		return usageError(ctx, args, use, errors.New("too many arguments"))
	}

	if n, fromLeft, ok := stackOffset(args[1]); ok {
		saved := dirs.Entries()
		i, err := dirs.Index(n, fromLeft)
		if err != nil {
			return stackError(ctx, args[0], err)
		}
		target, err := dirs.Rotate(cwd, i)
		if err != nil {
			return stackError(ctx, args[0], err)
		}
		if err := s.Chdir(target, false); err != nil {
			restoreDirs(dirs, saved)
			fmt.Fprintf(ctx.Stderr(), "%s: %v\n", args[0], err)
			return ExitFailure
		}
		return ExitSuccess
	}

	if err := dirs.Push(cwd); err != nil {
		return stackError(ctx, args[0], err)
	}
	if err := s.Chdir(args[1], false); err != nil {
		dirs.Pop()
		fmt.Fprintf(ctx.Stderr(), "%s: %v\n", args[0], err)
		return ExitFailure
	}
	return ExitSuccess
}

func restoreDirs(dirs *state.DirStack, saved []string) {
	dirs.Clear()
	for _, dir := range saved {
		dirs.Push(dir)
	}
}

// Popd implements the popd builtin.
func Popd(ctx *Context, args []string) int {
	const use = "popd [+N | -N]"
	s, err := ctx.Shell()
	if err != nil {
		fmt.Fprintf(ctx.Stderr(), "%s: %v\n", args[0], err)
		return ExitFailure
	}
	dirs := s.Store.Dirs

	switch len(args) {
	case 1:
		top, err := dirs.Pop()
		if err != nil {
			return stackError(ctx, args[0], err)
		}
		if err := s.Chdir(top, false); err != nil {
			dirs.Push(top)
			fmt.Fprintf(ctx.Stderr(), "%s: %v\n", args[0], err)
			return ExitFailure
		}
		return ExitSuccess

	case 2:
		n, fromLeft, ok := stackOffset(args[1])
		if !ok {
			return usageError(ctx, args, use, fmt.Errorf("%s: invalid argument", args[1]))
		}
		i, err := dirs.Index(n, fromLeft)
		if err != nil {
			return stackError(ctx, args[0], err)
		}
		if _, err := dirs.Remove(i); err != nil {
			return stackError(ctx, args[0], err)
		}
		return ExitSuccess

	default:
		return usageError(ctx, args, use, errors.New("too many arguments"))
	}
}

// Dirs implements the dirs builtin. Entries are listed oldest first, so the
// most recent push is rightmost.
func Dirs(ctx *Context, args []string) int {
	cmd := &SimpleCommand{
		Use:   "dirs [-clpv]",
		Short: "Display the directory stack.",
	}
	opts := cmd.Flags()
	clearStack := opts.Bool('c', "clear the directory stack by deleting all of the elements")
	long := opts.Bool('l', "do not abbreviate the home directory with a tilde")
	perLine := opts.Bool('p', "print the directory stack with one entry per line")
	verbose := opts.Bool('v', "print the directory stack with one entry per line, prefixed with its position")
	var cp ColorPrinter
	cp.Init(opts, ctx)

	return cmd.Run(ctx, args, func() int {
		s, err := ctx.Shell()
		if err != nil {
			fmt.Fprintf(ctx.Stderr(), "%s: %v\n", args[0], err)
			return ExitFailure
		}
		if len(opts.Args()) > 0 {
			return usageError(ctx, args, cmd.Use, errors.New("too many arguments"))
		}

		if *clearStack {
			s.Store.Dirs.Clear()
			return ExitSuccess
		}

		home := s.Store.Getvar(EnvHome)
		var shown []string
		for _, dir := range s.Store.Dirs.Entries() {
			if !*long && home != "" && (dir == home || strings.HasPrefix(dir, home+"/")) {
				dir = "~" + strings.TrimPrefix(dir, home)
			}
			shown = append(shown, dir)
		}

		w := ctx.Stdout()
		switch {
		case *verbose:
			for i, dir := range shown {
				fmt.Fprintf(w, "%s  %s\n", cp.Sprintf(ColorBoldCyan, "%2d", i), dir)
			}
		case *perLine:
			for _, dir := range shown {
				fmt.Fprintln(w, dir)
			}
		case len(shown) > 0:
			fmt.Fprintln(w, strings.Join(shown, " "))
		}
		return ExitSuccess
	})
}

func init() {
	addBuiltin("cd", Cd)
	addBuiltin("pushd", Pushd)
	addBuiltin("popd", Popd)
	addBuiltin("dirs", Dirs)
}
