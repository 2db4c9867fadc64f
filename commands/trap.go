package commands

import (
	"errors"
	"fmt"
	"strings"
	"syscall"

	"github.com/josephlewis42/procsh/core/proc"
)

const (
	// trapExit names the pseudo signal whose trap runs when the session
	// closes.
	trapExit = "EXIT"
	// trapDefault as an action restores the default handling of a signal.
	trapDefault = "-"
)

// ErrUntrappable is returned for signals whose handling can't be changed.
var ErrUntrappable = errors.New("signal cannot be trapped")

// interactiveIgnored holds signals an interactive shell survives by default.
var interactiveIgnored = []syscall.Signal{syscall.SIGINT, syscall.SIGQUIT, syscall.SIGTERM}

func isInteractiveIgnored(sig syscall.Signal) bool {
	for _, ignored := range interactiveIgnored {
		if sig == ignored {
			return true
		}
	}
	return false
}

// trapName canonicalizes a signal specification to the key used in the trap
// table.
func trapName(spec string) (string, error) {
	upper := strings.TrimPrefix(strings.ToUpper(spec), "SIG")
	if upper == trapExit || spec == "0" {
		return trapExit, nil
	}
	sig, err := proc.ParseSignal(spec)
	if err != nil {
		return "", err
	}
	name, ok := proc.SignalName(sig)
	if !ok {
		return "", fmt.Errorf("%s: %w", spec, proc.ErrBadSignal)
	}
	return name, nil
}

// SetTrap installs action for the signal named by spec, replacing any
// previous action. An empty action ignores the signal and "-" restores its
// default handling; both remove the trap entry.
func (s *Shell) SetTrap(spec, action string) error {
	name, err := trapName(spec)
	if err != nil {
		return err
	}

	if name == trapExit {
		if action == "" || action == trapDefault {
			s.Store.Traps.Remove(name)
			return nil
		}
		return s.Store.Traps.Set(name, action)
	}

	if name == "KILL" || name == "STOP" {
		return fmt.Errorf("%s: %w", name, ErrUntrappable)
	}
	switch action {
	case trapDefault:
		s.Store.Traps.Remove(name)
		delete(s.ignored, name)
	case "":
		s.Store.Traps.Remove(name)
		s.ignored[name] = true
	default:
		if err := s.Store.Traps.Set(name, action); err != nil {
			return err
		}
		delete(s.ignored, name)
	}
	s.applySignals(map[string]bool{name: true})
	return nil
}

// trapped reports whether name has a trap action.
func (s *Shell) trapped(name string) bool {
	_, ok := s.Store.Traps.Get(name)
	return ok
}

// runPendingTraps runs the actions of signals received since the last call.
func (s *Shell) runPendingTraps(ec execContext) {
	for _, sig := range s.Signals.Pending() {
		name, ok := proc.SignalName(sig)
		if !ok {
			continue
		}
		if action, ok := s.Store.Traps.Get(name); ok {
			s.runTrap(ec.stdio, name, action)
		}
	}
}

func (s *Shell) runTrap(stdio proc.Stdio, name, action string) {
	saved := s.lastRet
	s.Log.TrapFired(name, action)
	s.RunWith(stdio, action, "trap")
	s.lastRet = saved
}

// Trap implements the trap builtin.
func Trap(ctx *Context, args []string) int {
	cmd := &SimpleCommand{
		Use:   "trap [-lp] [[action] signal_spec ...]",
		Short: "Trap signals and other events.",
	}
	opts := cmd.Flags()
	list := opts.Bool('l', "print a list of signal names and their corresponding numbers")
	show := opts.Bool('p', "display the trap commands associated with each SIGNAL_SPEC")

	return cmd.Run(ctx, args, func() int {
		if *list {
			for _, info := range proc.Signals() {
				fmt.Fprintf(ctx.Stdout(), "%2d) SIG%s\n", info.Number, info.Name)
			}
			return ExitSuccess
		}

		traps, err := ctx.Traps()
		if err != nil {
			fmt.Fprintf(ctx.Stderr(), "%s: %v\n", args[0], err)
			return ExitFailure
		}
		rest := opts.Args()

		if len(rest) == 0 || *show {
			return printTraps(ctx, args[0], traps, rest)
		}

		action := rest[0]
		specs := rest[1:]
		if len(rest) == 1 {
			// A lone signal resets it.
			action, specs = trapDefault, rest
		}

		code := ExitSuccess
		for _, spec := range specs {
			if err := traps.Set(spec, action); err != nil {
				if errors.Is(err, proc.ErrBadSignal) {
					err = errors.New("invalid signal specification")
				}
				fmt.Fprintf(ctx.Stderr(), "%s: %s: %v\n", args[0], spec, err)
				code = ExitFailure
			}
		}
		return code
	})
}

func printTraps(ctx *Context, name string, traps Entries, specs []string) int {
	if len(specs) == 0 {
		it := traps.Iterate()
		for sig, action, ok := it.Next(); ok; sig, action, ok = it.Next() {
			fmt.Fprintf(ctx.Stdout(), "trap -- %s %s\n", shellQuote(action), sig)
		}
		return ExitSuccess
	}

	code := ExitSuccess
	for _, spec := range specs {
		sig, err := trapName(spec)
		if err != nil {
			fmt.Fprintf(ctx.Stderr(), "%s: %s: invalid signal specification\n", name, spec)
			code = ExitFailure
			continue
		}
		if action, ok := traps.Get(sig); ok {
			fmt.Fprintf(ctx.Stdout(), "trap -- %s %s\n", shellQuote(action), sig)
		}
	}
	return code
}

func init() {
	addBuiltin("trap", Trap)
}
