// Package state holds the mutable state of a shell session: variables,
// options, traps, the command hash, bookmarks, the directory stack and the
// function call stack. It contains no process logic.
package state

import (
	"fmt"
	"sort"
)

// Store owns all mutable session state.
type Store struct {
	// Vars holds global shell variables.
	Vars *MapEnv
	// Options holds enabled `set -o` options, keyed by option name.
	Options *Table
	// Traps maps signal names (without the SIG prefix) to trap actions.
	Traps *Table
	// Hash maps command names to absolute executable paths.
	Hash *Table
	// Bookmarks maps bookmark names to absolute directories.
	Bookmarks *Table

	Dirs   *DirStack
	Frames *CallStack

	// Positional holds $1..$N outside of any function.
	Positional []string

	exported map[string]bool

	// getopts keeps the character offset inside the current argument,
	// valid while OPTIND still equals optind.
	optind int
	optpos int
}

// NewStore creates a store whose variables are seeded from environ, every
// seeded variable is exported.
func NewStore(environ []string, dirCapacity int) *Store {
	s := &Store{
		Vars:      NewMapEnv(),
		Options:   NewTable(),
		Traps:     NewTable(),
		Hash:      NewPathTable(),
		Bookmarks: NewPathTable(),
		Dirs:      NewDirStack(dirCapacity),
		Frames:    &CallStack{},
		exported:  make(map[string]bool),
	}

	for _, kv := range environ {
		key, value := SplitEnv(kv)
		if key == "" {
			continue
		}
		s.Vars.Setenv(key, value)
		s.exported[key] = true
	}
	return s
}

// Var looks a variable up, function locals shadow globals.
func (s *Store) Var(name string) (string, bool) {
	if v, ok := s.Frames.Lookup(name); ok {
		return v, true
	}
	return s.Vars.LookupEnv(name)
}

// Getvar returns the value of a variable or the empty string.
func (s *Store) Getvar(name string) string {
	v, _ := s.Var(name)
	return v
}

// SetVar assigns a variable, updating the innermost local binding if one
// exists.
func (s *Store) SetVar(name, value string) {
	if s.Frames.Assign(name, value) {
		return
	}
	s.Vars.Setenv(name, value)
}

// UnsetVar removes the innermost binding of name. Unsetting a global also
// drops its export attribute.
func (s *Store) UnsetVar(name string) {
	if s.Frames.Unbind(name) {
		return
	}
	s.Vars.Unsetenv(name)
	delete(s.exported, name)
}

// Export marks name for inclusion in child environments.
func (s *Store) Export(name string) {
	s.exported[name] = true
}

// Unexport removes the export attribute from name.
func (s *Store) Unexport(name string) {
	delete(s.exported, name)
}

// IsExported reports whether name is exported.
func (s *Store) IsExported(name string) bool {
	return s.exported[name]
}

// ExportedNames returns the exported names that currently have a value.
func (s *Store) ExportedNames() []string {
	var out []string
	for name := range s.exported {
		if _, ok := s.Var(name); ok {
			out = append(out, name)
		}
	}
	sort.Strings(out)
	return out
}

// Environ builds the environment handed to child processes.
func (s *Store) Environ() []string {
	var out []string
	for _, name := range s.ExportedNames() {
		out = append(out, fmt.Sprintf("%s=%s", name, s.Getvar(name)))
	}
	return out
}

// Option reports whether a `set -o` option is on.
func (s *Store) Option(name string) bool {
	_, ok := s.Options.Get(name)
	return ok
}

// SetOption turns an option on or off.
func (s *Store) SetOption(name string, on bool) {
	if on {
		s.Options.Set(name, "on")
		return
	}
	s.Options.Remove(name)
}

// Args returns the positional parameters in scope.
func (s *Store) Args() []string {
	if f, err := s.Frames.Top(); err == nil {
		return f.Args
	}
	return s.Positional
}

// SetArgs replaces the positional parameters in scope.
func (s *Store) SetArgs(args []string) {
	if f, err := s.Frames.Top(); err == nil {
		f.Args = args
		return
	}
	s.Positional = args
}

// GetoptsPos returns the saved offset within the current getopts argument.
// It resets to zero whenever OPTIND was changed behind getopts' back.
func (s *Store) GetoptsPos(optind int) int {
	if optind != s.optind {
		return 0
	}
	return s.optpos
}

// SetGetoptsPos records the getopts cursor.
func (s *Store) SetGetoptsPos(optind, pos int) {
	s.optind = optind
	s.optpos = pos
}

// VarNames returns the names of every variable in scope, sorted.
func (s *Store) VarNames() []string {
	seen := make(map[string]bool)
	var out []string
	for _, name := range append(s.Vars.Keys(), s.Frames.Names()...) {
		if !seen[name] {
			seen[name] = true
			out = append(out, name)
		}
	}
	sort.Strings(out)
	return out
}

// IterateVars returns an iterator over the variables in scope.
func (s *Store) IterateVars() *Iterator {
	return NewIterator(s.VarNames, s.Var)
}
