package commands

import (
	"fmt"
	"io"
	"sort"

	"github.com/fatih/color"
	getopt "github.com/pborman/getopt/v2"
)

// Builtin is a command that runs inside the shell process.
type Builtin interface {
	Main(ctx *Context, args []string) int
}

// BuiltinFunc adapts a function to a Builtin.
type BuiltinFunc func(ctx *Context, args []string) int

func (f BuiltinFunc) Main(ctx *Context, args []string) int {
	return f(ctx, args)
}

var _ Builtin = (BuiltinFunc)(nil)

// AllBuiltins holds a list of all registered shell builtins
var AllBuiltins = make(map[string]Builtin)

func addBuiltin(name string, fn BuiltinFunc) {
	AllBuiltins[name] = fn
}

// ListBuiltins returns the names of all builtins in sorted order.
func ListBuiltins() []string {
	var out []string
	for name := range AllBuiltins {
		out = append(out, name)
	}
	sort.Strings(out)
	return out
}

// SimpleCommand parses a builtin's options with getopt and adds a --help
// flag.
type SimpleCommand struct {
	// Use holds a one line usage string
	Use string
	// Short holds a one line description of the command.
	Short string

	flags *getopt.Set
	help  *bool
}

// Flags gets the command's flag set.
func (s *SimpleCommand) Flags() *getopt.Set {
	if s.flags == nil {
		s.flags = getopt.New()
	}

	return s.flags
}

// PrintHelp writes help for the command to the given writer.
func (s *SimpleCommand) PrintHelp(w io.Writer) {
	fmt.Fprintf(w, "usage: %s\n%s\n\nFlags:\n", s.Use, s.Short)
	s.Flags().PrintOptions(w)
}

// Run parses args and calls the callback if they were valid. Invalid flags
// are a usage error.
func (s *SimpleCommand) Run(ctx *Context, args []string, callback func() int) int {
	opts := s.Flags()
	if s.help == nil {
		s.help = opts.BoolLong("help", 'h', "show this help and exit")
	}

	if err := opts.Getopt(args, nil); err != nil {
		return usageError(ctx, args, s.Use, err)
	}

	if *s.help {
		s.PrintHelp(ctx.Stdout())
		return ExitSuccess
	}

	return callback()
}

// usageError logs and reports a malformed invocation.
func usageError(ctx *Context, args []string, use string, err error) int {
	ctx.LogInvalidInvocation(args, err)
	fmt.Fprintf(ctx.Stderr(), "%s: %s\nusage: %s\n", args[0], err, use)
	return ExitUsage
}

const (
	colorAlways = "always"
	colorAuto   = "auto"
	colorNever  = "never"
)

var (
	ColorBoldCyan = color.New(color.FgCyan, color.Bold)
	ColorBoldRed  = color.New(color.FgRed, color.Bold)
)

// ColorPrinter colors output according to a --color flag.
type ColorPrinter struct {
	value *string
	ctx   *Context
}

// Init sets up the flag and context to determine the color output.
func (c *ColorPrinter) Init(flags *getopt.Set, ctx *Context) {
	c.ctx = ctx
	c.value = flags.EnumLong(
		"color",
		rune(0), // No short flag.
		[]string{colorAlways, colorAuto, colorNever},
		colorAuto,
		"colorize the output (always|auto|never)")
}

func (c *ColorPrinter) ShouldColor() bool {
	switch {
	case *c.value == colorNever:
		return false
	case *c.value == colorAlways:
		return true
	default:
		return c.ctx.IsTerminal()
	}
}

func (c *ColorPrinter) Sprintf(color *color.Color, format string, a ...interface{}) string {
	if c.ShouldColor() {
		// fatih/color disables itself when stdout isn't a terminal.
		color.EnableColor()
		return color.Sprintf(format, a...)
	}
	return fmt.Sprintf(format, a...)
}
