package commands

import (
	"errors"
	"fmt"
	"text/tabwriter"
)

// Hash implements the hash builtin over the command cache.
func Hash(ctx *Context, args []string) int {
	cmd := &SimpleCommand{
		Use:   "hash [-lr] [-p pathname] [-dt] [name ...]",
		Short: "Remember or display program locations.",
	}
	opts := cmd.Flags()
	reset := opts.Bool('r', "forget all remembered locations")
	reusable := opts.Bool('l', "display in a format that may be reused as input")
	forget := opts.Bool('d', "forget the remembered location of each NAME")
	path := opts.String('p', "", "use PATHNAME as the full pathname of NAME", "pathname")
	show := opts.Bool('t', "print the remembered location of each NAME")

	return cmd.Run(ctx, args, func() int {
		s, err := ctx.Shell()
		if err != nil {
			fmt.Fprintf(ctx.Stderr(), "%s: %v\n", args[0], err)
			return ExitFailure
		}
		table, _ := ctx.Hash()
		names := opts.Args()

		switch {
		case *reset:
			s.Resolver.Reset()
			return ExitSuccess

		case *path != "":
			if len(names) == 0 {
				return usageError(ctx, args, cmd.Use, errors.New("-p: name argument required"))
			}
			for _, name := range names {
				if err := s.Resolver.Add(name, *path); err != nil {
					fmt.Fprintf(ctx.Stderr(), "%s: %s: %v\n", args[0], name, err)
					return ExitFailure
				}
			}
			return ExitSuccess

		case *forget:
			code := ExitSuccess
			for _, name := range names {
				if !s.Resolver.Forget(name) {
					fmt.Fprintf(ctx.Stderr(), "%s: %s: not found\n", args[0], name)
					code = ExitFailure
				}
			}
			return code

		case *show:
			if len(names) == 0 {
				return usageError(ctx, args, cmd.Use, errors.New("-t: argument required"))
			}
			code := ExitSuccess
			for _, name := range names {
				found, ok := table.Get(name)
				switch {
				case !ok:
					fmt.Fprintf(ctx.Stderr(), "%s: %s: not found\n", args[0], name)
					code = ExitFailure
				case len(names) > 1:
					fmt.Fprintf(ctx.Stdout(), "%s\t%s\n", name, found)
				default:
					fmt.Fprintln(ctx.Stdout(), found)
				}
			}
			return code

		case len(names) > 0:
			code := ExitSuccess
			for _, name := range names {
				if ctx.IsBuiltin(name) {
					continue
				}
				if _, err := s.Resolver.Remember(name); err != nil {
					fmt.Fprintf(ctx.Stderr(), "%s: %s: not found\n", args[0], name)
					code = ExitFailure
				}
			}
			return code
		}

		it := table.Iterate()
		key, value, ok := it.Next()
		if !ok {
			fmt.Fprintf(ctx.Stdout(), "%s: hash table empty\n", args[0])
			return ExitSuccess
		}

		if *reusable {
			for ; ok; key, value, ok = it.Next() {
				fmt.Fprintf(ctx.Stdout(), "builtin hash -p %s %s\n", value, key)
			}
			return ExitSuccess
		}

		w := tabwriter.NewWriter(ctx.Stdout(), 0, 8, 1, ' ', tabwriter.AlignRight)
		fmt.Fprintln(w, "hits\t command")
		for ; ok; key, value, ok = it.Next() {
			fmt.Fprintf(w, "%d\t %s\n", s.Resolver.Hits(key), value)
		}
		w.Flush()
		return ExitSuccess
	})
}

func init() {
	addBuiltin("hash", Hash)
}
