package commands

import (
	"os"

	"github.com/josephlewis42/procsh/core/proc"
)

// subshell runs fn as a subshell environment: an exit inside it only ends
// fn, and variables, functions, options, traps, positional parameters and
// the working directory are put back afterwards. The command hash is shared.
func (s *Shell) subshell(ec execContext, fn func() error) error {
	snap := s.Store.Snapshot()
	functions := copyStrings(s.functions)
	exportedFuncs := copyBools(s.exportedFuncs)
	ignored := copyBools(s.ignored)
	shellName := s.Name
	parentExit, _ := s.Store.Traps.Get(trapExit)
	wd, wdErr := os.Getwd()
	quit := s.Quit

	s.depth++
	err := fn()
	s.depth--

	if action, ok := s.Store.Traps.Get(trapExit); ok && action != parentExit {
		status := s.ExitCode()
		s.Store.Traps.Remove(trapExit)
		inner := s.Quit
		s.Quit = false
		s.runTrap(ec.stdio, trapExit, action)
		s.Quit = inner
		s.lastRet = status
	}
	if s.Quit && !quit {
		s.Quit = false
		s.lastRet = s.exitStatus
	}

	changed := s.trappedNames()
	s.Store.Restore(snap)
	s.functions = functions
	s.exportedFuncs = exportedFuncs
	s.ignored = ignored
	s.Name = shellName
	if wdErr == nil {
		os.Chdir(wd)
	}
	for name := range s.trappedNames() {
		changed[name] = true
	}
	s.applySignals(changed)
	return err
}

// inSubshell reports whether a subshell environment is running.
func (s *Shell) inSubshell() bool {
	return s.depth > 0
}

// trappedNames returns the signals whose disposition differs from the
// default: trapped or ignored.
func (s *Shell) trappedNames() map[string]bool {
	out := make(map[string]bool)
	for _, name := range s.Store.Traps.Keys() {
		out[name] = true
	}
	for name := range s.ignored {
		out[name] = true
	}
	return out
}

// applySignals makes the runtime's handling of each named signal match the
// trap table.
func (s *Shell) applySignals(names map[string]bool) {
	for name := range names {
		if name == trapExit {
			continue
		}
		sig, err := proc.ParseSignal(name)
		if err != nil {
			continue
		}
		_, trapped := s.Store.Traps.Get(name)
		switch {
		case trapped:
			s.Signals.Catch(sig)
		case s.ignored[name]:
			s.Signals.Ignore(sig)
		case s.Interactive && isInteractiveIgnored(sig):
			s.Signals.Catch(sig)
		default:
			s.Signals.Default(sig)
		}
	}
}

func copyStrings(m map[string]string) map[string]string {
	out := make(map[string]string, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}

func copyBools(m map[string]bool) map[string]bool {
	out := make(map[string]bool, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}
