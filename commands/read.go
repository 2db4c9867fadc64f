package commands

import (
	"errors"
	"fmt"
	"io"
	"strings"
)

// readLine reads up to a newline one byte at a time so nothing past the line
// is consumed from a shared descriptor. Unless raw, a backslash escapes the
// next character and a backslash-newline continues the line.
func readLine(r io.Reader, raw bool) (string, error) {
	if r == nil {
		return "", io.EOF
	}
	var line strings.Builder
	buf := make([]byte, 1)
	escaped := false
	for {
		n, err := r.Read(buf)
		if n == 1 {
			c := buf[0]
			switch {
			case escaped:
				escaped = false
				if c != '\n' {
					line.WriteByte(c)
				}
			case c == '\\' && !raw:
				escaped = true
			case c == '\n':
				return line.String(), nil
			default:
				line.WriteByte(c)
			}
		}
		if err != nil {
			return line.String(), err
		}
	}
}

// splitFields splits line on blanks into at most n fields, the last field
// keeps the rest of the line.
func splitFields(line string, n int) []string {
	var out []string
	rest := strings.TrimLeft(line, " \t")
	for len(out) < n-1 && rest != "" {
		i := strings.IndexAny(rest, " \t")
		if i < 0 {
			break
		}
		out = append(out, rest[:i])
		rest = strings.TrimLeft(rest[i:], " \t")
	}
	if rest = strings.TrimRight(rest, " \t"); rest != "" {
		out = append(out, rest)
	}
	return out
}

// Read implements the read builtin.
func Read(ctx *Context, args []string) int {
	cmd := &SimpleCommand{
		Use:   "read [-r] [name ...]",
		Short: "Read a line from the standard input and split it into fields.",
	}
	opts := cmd.Flags()
	raw := opts.Bool('r', "do not allow backslashes to escape any characters")

	return cmd.Run(ctx, args, func() int {
		env, err := ctx.Env()
		if err != nil {
			fmt.Fprintf(ctx.Stderr(), "%s: %v\n", args[0], err)
			return ExitFailure
		}
		names := opts.Args()
		if len(names) == 0 {
			names = []string{"REPLY"}
		}

		line, readErr := readLine(ctx.Stdin(), *raw)
		if readErr != nil && !errors.Is(readErr, io.EOF) {
			fmt.Fprintf(ctx.Stderr(), "%s: %v\n", args[0], readErr)
			return ExitFailure
		}

		fields := splitFields(line, len(names))
		for i, name := range names {
			value := ""
			if i < len(fields) {
				value = fields[i]
			}
			if err := env.Set(name, value); err != nil {
				fmt.Fprintf(ctx.Stderr(), "%s: %v\n", args[0], err)
				return ExitFailure
			}
		}

		if readErr != nil {
			return ExitFailure
		}
		return ExitSuccess
	})
}

func init() {
	addBuiltin("read", Read)
}
