package commands

import (
	"errors"
	"fmt"
	"text/tabwriter"

	"github.com/josephlewis42/procsh/third_party/realpath"
)

// Bookmark implements the bookmark builtin: named directories that can be
// jumped to.
func Bookmark(ctx *Context, args []string) int {
	cmd := &SimpleCommand{
		Use:   "bookmark [-a name [dir] | -d name | name]",
		Short: "Save, remove, list or jump to named directories.",
	}
	opts := cmd.Flags()
	add := opts.Bool('a', "bookmark DIR, or the current directory, as NAME")
	remove := opts.Bool('d', "remove the bookmark NAME")

	return cmd.Run(ctx, args, func() int {
		s, err := ctx.Shell()
		if err != nil {
			fmt.Fprintf(ctx.Stderr(), "%s: %v\n", args[0], err)
			return ExitFailure
		}
		marks, _ := ctx.Bookmarks()
		rest := opts.Args()

		switch {
		case *add && *remove:
			return usageError(ctx, args, cmd.Use, errors.New("-a and -d are mutually exclusive"))

		case *add:
			if len(rest) < 1 || len(rest) > 2 {
				return usageError(ctx, args, cmd.Use, errors.New("-a takes a name and an optional directory"))
			}
			dir := s.Cwd()
			if len(rest) == 2 {
				dir = rest[1]
			}
			resolved, err := realpath.Resolve(dir)
			if err != nil {
				fmt.Fprintf(ctx.Stderr(), "%s: %s: %v\n", args[0], dir, err)
				return ExitFailure
			}
			if err := marks.Set(rest[0], resolved); err != nil {
				fmt.Fprintf(ctx.Stderr(), "%s: %v\n", args[0], err)
				return ExitFailure
			}
			return ExitSuccess

		case *remove:
			if len(rest) == 0 {
				return usageError(ctx, args, cmd.Use, errors.New("-d: name required"))
			}
			code := ExitSuccess
			for _, name := range rest {
				if !marks.Remove(name) {
					fmt.Fprintf(ctx.Stderr(), "%s: %s: not found\n", args[0], name)
					code = ExitFailure
				}
			}
			return code

		case len(rest) == 0:
			w := tabwriter.NewWriter(ctx.Stdout(), 0, 8, 2, ' ', 0)
			it := marks.Iterate()
			for name, dir, ok := it.Next(); ok; name, dir, ok = it.Next() {
				fmt.Fprintf(w, "%s\t%s\n", name, dir)
			}
			w.Flush()
			return ExitSuccess

		case len(rest) == 1:
			dir, ok := marks.Get(rest[0])
			if !ok {
				fmt.Fprintf(ctx.Stderr(), "%s: %s: not found\n", args[0], rest[0])
				return ExitFailure
			}
			if err := s.Chdir(dir, false); err != nil {
				fmt.Fprintf(ctx.Stderr(), "%s: %v\n", args[0], err)
				return ExitFailure
			}
			return ExitSuccess

		default:
			return usageError(ctx, args, cmd.Use, errors.New("too many arguments"))
		}
	})
}

func init() {
	addBuiltin("bookmark", Bookmark)
}
