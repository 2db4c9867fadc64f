package commands

import (
	"errors"
	"fmt"
	"io"
	"os"
	"regexp"
	"strings"

	"github.com/abiosoft/readline"
	"github.com/josephlewis42/procsh/core/config"
	"github.com/josephlewis42/procsh/core/logger"
	"github.com/josephlewis42/procsh/core/parse"
	"github.com/josephlewis42/procsh/core/proc"
	"github.com/josephlewis42/procsh/core/state"
	"github.com/mattn/go-isatty"
	"github.com/spf13/afero"
	"golang.org/x/term"
)

const (
	EnvHome            = "HOME"
	EnvPWD             = "PWD"
	EnvOldPWD          = "OLDPWD"
	EnvPath            = "PATH"
	EnvPrompt          = "PS1"
	EnvUser            = "USER"
	EnvUsername        = "USERNAME"
	EnvOptind          = "OPTIND"
	EnvOptarg          = "OPTARG"
	DefaultColorPrompt = `\033[01;34m\w\033[00m\$ `
	DefaultPrompt      = `\w\$ `

	// maxFunctionDepth bounds recursion through shell functions.
	maxFunctionDepth = 1000
)

var (
	// ErrInvalidName is returned when assigning to something that isn't a
	// valid shell identifier.
	ErrInvalidName = errors.New("not a valid identifier")

	nameRegex = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*$`)
)

// Shell is a single shell session. It is not safe for concurrent use.
type Shell struct {
	// Name is reported as $0.
	Name string

	Config   *config.Configuration
	Store    *state.Store
	Resolver *proc.Resolver
	Jobs     *proc.Jobs
	Launcher *proc.Launcher
	Coprocs  *proc.Coprocs
	Signals  *proc.SignalQueue
	Log      *logger.SessionLogger
	Readline *readline.Instance

	// Interactive is set while reading commands from a terminal.
	Interactive bool

	stdio proc.Stdio

	// functions maps function names to their body text.
	functions     map[string]string
	exportedFuncs map[string]bool

	lastRet    int
	lastBg     int
	exitStatus int
	condDepth  int
	history    []string

	// substituted is set when a command substitution ran while expanding
	// the current command.
	substituted bool

	// depth counts the subshell environments currently running.
	depth int
	// ignored holds signals trapped with an empty action.
	ignored map[string]bool

	// Set to true to quit the shell
	Quit bool
}

// NewShell creates a session whose variables are seeded from environ.
func NewShell(cfg *config.Configuration, log *logger.SessionLogger, environ []string, stdio proc.Stdio) *Shell {
	jobs := proc.NewJobs()

	s := &Shell{
		Name:      "sh",
		Config:    cfg,
		Jobs:      jobs,
		Launcher:  proc.NewLauncher(jobs, log),
		Coprocs:   proc.NewCoprocs(),
		Signals:   proc.NewSignalQueue(16),
		Log:       log,
		stdio:     stdio,
		functions: make(map[string]string),
		ignored:   make(map[string]bool),

		exportedFuncs: make(map[string]bool),
	}
	store := state.NewStore(s.importFunctions(environ), cfg.DirStackCapacity)
	s.Store = store
	s.Resolver = proc.NewResolver(afero.NewOsFs(), store.Hash, func() string {
		return store.Getvar(EnvPath)
	})
	s.Init()
	return s
}

// Init sets up the variables a login shell would have.
func (s *Shell) Init() {
	if _, ok := s.Store.Var(EnvPath); !ok {
		s.SetVar(EnvPath, s.Config.DefaultPath)
		s.Store.Export(EnvPath)
	}
	if pwd, err := os.Getwd(); err == nil {
		s.SetVar(EnvPWD, pwd)
		s.Store.Export(EnvPWD)
	}
	if _, ok := s.Store.Var(EnvPrompt); !ok {
		s.SetVar(EnvPrompt, s.Config.Prompt)
	}
	s.SetVar(EnvOptind, "1")
}

// Stdio returns the session's standard streams.
func (s *Shell) Stdio() proc.Stdio {
	return s.stdio
}

// SetVar assigns a shell variable. Changing PATH empties the command cache.
func (s *Shell) SetVar(name, value string) error {
	if !nameRegex.MatchString(name) {
		return fmt.Errorf("`%s': %w", name, ErrInvalidName)
	}
	s.Store.SetVar(name, value)
	switch name {
	case EnvPath:
		s.Resolver.Reset()
	case EnvOptind:
		// Assigning OPTIND restarts getopts at the start of an argument.
		s.Store.SetGetoptsPos(0, 0)
	}
	return nil
}

// UnsetVar removes a shell variable.
func (s *Shell) UnsetVar(name string) {
	s.Store.UnsetVar(name)
	if name == EnvPath {
		s.Resolver.Reset()
	}
}

// Function returns the body of a shell function.
func (s *Shell) Function(name string) (string, bool) {
	body, ok := s.functions[name]
	return body, ok
}

// SetFunction defines or replaces a shell function.
func (s *Shell) SetFunction(name, body string) {
	s.functions[name] = body
}

// UnsetFunction removes a shell function, reporting whether it existed.
func (s *Shell) UnsetFunction(name string) bool {
	_, ok := s.functions[name]
	delete(s.functions, name)
	return ok
}

// FunctionNames returns the defined function names.
func (s *Shell) FunctionNames() []string {
	table := state.NewTable()
	for name, body := range s.functions {
		table.Set(name, body)
	}
	return table.Keys()
}

// Exit stops the session with the given status once the running command
// returns.
func (s *Shell) Exit(code int) {
	s.exitStatus = code
	s.Quit = true
}

// ExitCode returns the status the session would exit with.
func (s *Shell) ExitCode() int {
	if s.Quit {
		return s.exitStatus
	}
	return s.lastRet
}

// Run parses and executes src with the session's streams.
func (s *Shell) Run(src string) int {
	return s.RunWith(s.stdio, src, s.Name)
}

// RunWith parses and executes src with the given streams, returning the
// status of the last command.
func (s *Shell) RunWith(stdio proc.Stdio, src, name string) int {
	file, err := parse.Parse(src, name)
	if err != nil {
		fmt.Fprintf(stdio.Err, "sh: syntax error: %v\n", err)
		s.lastRet = ExitUsage
		return s.lastRet
	}

	ec := execContext{stdio: stdio}
	if err := s.executeStmts(ec, file.Stmts); err != nil {
		s.reportError(stdio, err)
	}
	return s.lastRet
}

// RunScript executes the file at path with args as the positional
// parameters.
func (s *Shell) RunScript(path string, args []string) int {
	src, err := os.ReadFile(path)
	if err != nil {
		fmt.Fprintf(s.stdio.Err, "sh: %v\n", err)
		return ExitNotFound
	}
	s.Name = path
	s.Store.Positional = args
	s.Run(string(src))
	return s.ExitCode()
}

func (s *Shell) reportError(stdio proc.Stdio, err error) {
	fmt.Fprintf(stdio.Err, "sh: %v\n", err)
	if errors.Is(err, parse.ErrUnsupported) {
		s.lastRet = ExitUsage
	} else {
		s.lastRet = ExitFailure
	}
}

func (s *Shell) isTerminal() bool {
	f, ok := s.stdio.Out.(*os.File)
	return ok && isatty.IsTerminal(f.Fd())
}

func (s *Shell) initReadline() error {
	if s.Readline != nil {
		return nil
	}

	cfg := &readline.Config{
		Stdin:        readline.NewCancelableStdin(s.stdio.In),
		Stdout:       s.stdio.Out,
		Stderr:       s.stdio.Err,
		HistoryLimit: s.Config.HistoryLimit,
		FuncGetWidth: func() int {
			f, ok := s.stdio.Out.(*os.File)
			if !ok {
				return 80
			}
			width, _, err := term.GetSize(int(f.Fd()))
			if err != nil {
				return 80
			}
			return width
		},
		FuncIsTerminal: s.isTerminal,
	}

	if err := cfg.Init(); err != nil {
		return err
	}

	rl, err := readline.NewEx(cfg)
	if err != nil {
		return err
	}
	s.Readline = rl
	return nil
}

func (s *Shell) prompt() string {
	prompt := s.Store.Getvar(EnvPrompt)
	if prompt == "" {
		prompt = DefaultPrompt
		if s.isTerminal() {
			prompt = DefaultColorPrompt
		}
	}

	user := s.Store.Getvar(EnvUser)
	if user == "" {
		user = s.Store.Getvar(EnvUsername)
	}
	host, _ := os.Hostname()
	prompt = strings.ReplaceAll(prompt, `\u`, user)
	prompt = strings.ReplaceAll(prompt, `\h`, host)

	pwd := s.Store.Getvar(EnvPWD)
	home := s.Store.Getvar(EnvHome)
	if home != "" && strings.HasPrefix(pwd, home) {
		pwd = "~" + strings.TrimPrefix(pwd, home)
	}
	prompt = strings.ReplaceAll(prompt, `\w`, pwd)

	if os.Geteuid() == 0 {
		prompt = strings.ReplaceAll(prompt, `\$`, "#")
	} else {
		prompt = strings.ReplaceAll(prompt, `\$`, "$")
	}

	return unescape(prompt)
}

// RunInteractive reads and runs lines until the input closes or the shell
// exits.
func (s *Shell) RunInteractive() int {
	if err := s.initReadline(); err != nil {
		fmt.Fprintf(s.stdio.Err, "sh: %s\n", err)
		return ExitFailure
	}
	s.Interactive = true
	for _, sig := range interactiveIgnored {
		s.Signals.Catch(sig)
	}

	for !s.Quit {
		s.Readline.SetPrompt(s.prompt())
		line, err := s.Readline.Readline()

		// This doesn't make sense for shell, but it needs to be kept in line with
		// the readline history.
		s.history = append(s.history, line)
		if limit := s.Config.HistoryLimit; limit > 0 && len(s.history) > limit {
			s.history = s.history[len(s.history)-limit:]
		}

		switch {
		case err == io.EOF:
			return s.ExitCode() // Input closed, quit.

		case err == readline.ErrInterrupt:
			// Interrupt clears line.
			continue
		case err != nil:
			fmt.Fprintln(s.stdio.Err, ColorBoldRed.Sprintf("sh: readline: %v", err))
			continue

		case len(strings.TrimSpace(line)) == 0:
			continue // empty line

		default:
			s.Run(line)
		}
		s.runPendingTraps(execContext{stdio: s.stdio})
	}
	return s.ExitCode()
}

// Close runs the traps of signals still pending, then the EXIT trap, and
// releases the session's coprocesses and signal subscriptions. It returns the
// session's exit status.
func (s *Shell) Close() int {
	s.runPendingTraps(execContext{stdio: s.stdio})

	if action, ok := s.Store.Traps.Get(trapExit); ok {
		s.Store.Traps.Remove(trapExit)
		quit := s.Quit
		s.Quit = false
		status := s.ExitCode()
		s.runTrap(s.stdio, trapExit, action)
		s.lastRet = status
		s.Quit = quit || s.Quit
	}

	s.Coprocs.CloseAll()
	s.Signals.Stop()
	if s.Readline != nil {
		s.Readline.Close()
	}
	return s.ExitCode()
}
