package commands

import (
	"errors"
	"io"
	"os"

	"github.com/josephlewis42/procsh/core/parse"
	"github.com/josephlewis42/procsh/core/proc"
	"github.com/josephlewis42/procsh/core/state"
	"github.com/mattn/go-isatty"
)

// ErrNoShellContext is returned when a builtin needs a shell session but was
// invoked without one.
var ErrNoShellContext = errors.New("no shell context")

const (
	ExitSuccess       = proc.ExitSuccess
	ExitFailure       = proc.ExitFailure
	ExitUsage         = proc.ExitUsage
	ExitNotExecutable = proc.ExitNotExecutable
	ExitNotFound      = proc.ExitNotFound
)

// Entries is a keyed store exposed to builtins. Mutations are visible to
// subsequent reads immediately.
type Entries interface {
	Get(key string) (string, bool)
	Set(key, value string) error
	Remove(key string) bool
	Iterate() *state.Iterator
}

var _ Entries = (*state.Table)(nil)

// Context is handed to every builtin. It carries the builtin's standard
// streams and, when one exists, the shell session it runs in.
type Context struct {
	files *proc.Files
	shell *Shell
}

// NewContext creates a context that isn't attached to a shell session.
// Operations needing a session fail with ErrNoShellContext.
func NewContext(stdio proc.Stdio) *Context {
	return &Context{files: proc.NewFiles(stdio)}
}

func (c *Context) Stdin() io.Reader {
	return c.files.Stdio().In
}

func (c *Context) Stdout() io.Writer {
	return c.files.Stdio().Out
}

func (c *Context) Stderr() io.Writer {
	return c.files.Stdio().Err
}

// Stdio returns the standard streams of the builtin.
func (c *Context) Stdio() proc.Stdio {
	return c.files.Stdio()
}

// IsTerminal reports whether stdout is attached to a terminal.
func (c *Context) IsTerminal() bool {
	f, ok := c.Stdout().(*os.File)
	if !ok {
		return false
	}
	return isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())
}

// Shell returns the session the builtin runs in.
func (c *Context) Shell() (*Shell, error) {
	if c.shell == nil {
		return nil, ErrNoShellContext
	}
	return c.shell, nil
}

// IsBuiltin reports whether name is a registered builtin.
func (c *Context) IsBuiltin(name string) bool {
	_, ok := AllBuiltins[name]
	return ok
}

// LogInvalidInvocation records a malformed builtin call in the event log.
func (c *Context) LogInvalidInvocation(args []string, err error) {
	if c.shell != nil {
		c.shell.Log.InvalidInvocation(args, err)
	}
}

// ExecuteExternalCmd runs cmd as an external program, skipping functions and
// builtins.
func (c *Context) ExecuteExternalCmd(cmd *parse.Command) (int, error) {
	s, err := c.Shell()
	if err != nil {
		return ExitFailure, err
	}
	return s.execute(c.Stdio(), cmd, findExternal, false), nil
}

// ExecuteBuiltinCmd runs cmd as a builtin, skipping functions and external
// programs.
func (c *Context) ExecuteBuiltinCmd(cmd *parse.Command) (int, error) {
	s, err := c.Shell()
	if err != nil {
		return ExitFailure, err
	}
	return s.execute(c.Stdio(), cmd, findBuiltins, false), nil
}

// ExecuteShellCommand parses and runs text in the current session.
func (c *Context) ExecuteShellCommand(text string) (int, error) {
	s, err := c.Shell()
	if err != nil {
		return ExitFailure, err
	}
	return s.RunWith(c.Stdio(), text, "eval"), nil
}

// Hash returns the command cache.
func (c *Context) Hash() (Entries, error) {
	s, err := c.Shell()
	if err != nil {
		return nil, err
	}
	return s.Store.Hash, nil
}

// Env returns the shell variables in scope.
func (c *Context) Env() (Entries, error) {
	s, err := c.Shell()
	if err != nil {
		return nil, err
	}
	return &varEntries{s}, nil
}

// Traps returns the trap table. Setting or removing an entry also changes
// how the shell handles the signal.
func (c *Context) Traps() (Entries, error) {
	s, err := c.Shell()
	if err != nil {
		return nil, err
	}
	return &trapEntries{s}, nil
}

// Bookmarks returns the named directories.
func (c *Context) Bookmarks() (Entries, error) {
	s, err := c.Shell()
	if err != nil {
		return nil, err
	}
	return s.Store.Bookmarks, nil
}

type varEntries struct {
	s *Shell
}

func (v *varEntries) Get(key string) (string, bool) {
	return v.s.Store.Var(key)
}

func (v *varEntries) Set(key, value string) error {
	return v.s.SetVar(key, value)
}

func (v *varEntries) Remove(key string) bool {
	_, ok := v.s.Store.Var(key)
	v.s.UnsetVar(key)
	return ok
}

func (v *varEntries) Iterate() *state.Iterator {
	return v.s.Store.IterateVars()
}

type trapEntries struct {
	s *Shell
}

func (t *trapEntries) Get(key string) (string, bool) {
	name, err := trapName(key)
	if err != nil {
		return "", false
	}
	return t.s.Store.Traps.Get(name)
}

func (t *trapEntries) Set(key, value string) error {
	return t.s.SetTrap(key, value)
}

func (t *trapEntries) Remove(key string) bool {
	name, err := trapName(key)
	if err != nil {
		return false
	}
	_, ok := t.s.Store.Traps.Get(name)
	return ok && t.s.SetTrap(name, trapDefault) == nil
}

func (t *trapEntries) Iterate() *state.Iterator {
	return t.s.Store.Traps.Iterate()
}
