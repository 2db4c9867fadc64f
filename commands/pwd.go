package commands

import (
	"fmt"
	"os"

	"github.com/josephlewis42/procsh/third_party/realpath"
)

// Pwd implements the pwd builtin.
func Pwd(ctx *Context, args []string) int {
	cmd := &SimpleCommand{
		Use:   "pwd [-LP]",
		Short: "Print the name of the current working directory.",
	}
	opts := cmd.Flags()
	opts.Bool('L', "print the value of $PWD if it names the current working directory")
	physical := opts.Bool('P', "print the physical directory, without any symbolic links")

	return cmd.Run(ctx, args, func() int {
		pwd, err := os.Getwd()
		if err != nil {
			fmt.Fprintf(ctx.Stderr(), "%s: %v\n", args[0], err)
			return ExitFailure
		}

		if s, err := ctx.Shell(); err == nil && !*physical {
			if logical := s.Store.Getvar(EnvPWD); logical != "" && sameDir(logical, pwd) {
				pwd = logical
			}
		}
		if *physical {
			if resolved, err := realpath.Resolve(pwd); err == nil {
				pwd = resolved
			}
		}

		fmt.Fprintln(ctx.Stdout(), pwd)
		return ExitSuccess
	})
}

func sameDir(a, b string) bool {
	ai, err := os.Stat(a)
	if err != nil {
		return false
	}
	bi, err := os.Stat(b)
	if err != nil {
		return false
	}
	return os.SameFile(ai, bi)
}

func init() {
	addBuiltin("pwd", Pwd)
}
