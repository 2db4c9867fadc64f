package commands

import (
	"fmt"
	"strings"
)

var simpleEscapes = map[byte]byte{
	'n':  '\n',
	'r':  '\r',
	't':  '\t',
	'\\': '\\',
	'b':  '\b',
	'a':  '\a',
	'f':  '\f',
	'v':  '\v',
	'e':  '\033',
}

func digitValue(c byte, base int) (int, bool) {
	var v int
	switch {
	case '0' <= c && c <= '9':
		v = int(c - '0')
	case 'a' <= c && c <= 'f':
		v = int(c-'a') + 10
	case 'A' <= c && c <= 'F':
		v = int(c-'A') + 10
	default:
		return 0, false
	}
	return v, v < base
}

// readNumber consumes up to max digits of the given base from the start of s.
func readNumber(s string, base, max int) (value, n int) {
	for n < max && n < len(s) {
		d, ok := digitValue(s[n], base)
		if !ok {
			break
		}
		value = value*base + d
		n++
	}
	return value, n
}

// expandEscapes interprets backslash escapes the way echo -e does. stop is
// true if a \c was found, everything after it is dropped.
func expandEscapes(s string) (out string, stop bool) {
	var sb strings.Builder
	for i := 0; i < len(s); i++ {
		if s[i] != '\\' || i+1 == len(s) {
			sb.WriteByte(s[i])
			continue
		}

		i++
		c := s[i]
		if r, ok := simpleEscapes[c]; ok {
			sb.WriteByte(r)
			continue
		}

		switch c {
		case 'c':
			return sb.String(), true
		case '0':
			v, n := readNumber(s[i+1:], 8, 3)
			sb.WriteByte(byte(v))
			i += n
		case 'x':
			v, n := readNumber(s[i+1:], 16, 2)
			if n == 0 {
				sb.WriteString(`\x`)
				continue
			}
			sb.WriteByte(byte(v))
			i += n
		default:
			sb.WriteByte('\\')
			sb.WriteByte(c)
		}
	}
	return sb.String(), false
}

func unescape(s string) string {
	out, _ := expandEscapes(s)
	return out
}

// Echo implements the echo builtin.
func Echo(ctx *Context, args []string) int {
	cmd := &SimpleCommand{
		Use:   "echo [-neE] [ARG] ...",
		Short: "Display a line of text.",
	}

	opt := cmd.Flags()
	escaped := opt.Bool('e', "interpret backslash escapes")
	literal := opt.Bool('E', "don't interpret backslash escapes (default)")
	noNewline := opt.Bool('n', "do not output the trailing newline")

	return cmd.Run(ctx, args, func() int {
		w := ctx.Stdout()
		interpret := *escaped && !*literal

		for i, arg := range opt.Args() {
			if i > 0 {
				fmt.Fprint(w, " ")
			}

			if interpret {
				var stop bool
				if arg, stop = expandEscapes(arg); stop {
					fmt.Fprint(w, arg)
					return ExitSuccess
				}
			}

			fmt.Fprint(w, arg)
		}

		if !*noNewline {
			fmt.Fprintln(w)
		}

		return ExitSuccess
	})
}

func init() {
	addBuiltin("echo", Echo)
}
