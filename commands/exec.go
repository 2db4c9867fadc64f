package commands

import (
	"bytes"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/josephlewis42/procsh/core/parse"
	"github.com/josephlewis42/procsh/core/proc"
	"github.com/josephlewis42/procsh/core/state"
	"mvdan.cc/sh/v3/syntax"
)

type lookupMode int

const (
	findFunctions lookupMode = 1 << iota
	findBuiltins
	findExternal

	findCommand = findBuiltins | findExternal
	findAll     = findFunctions | findBuiltins | findExternal
)

type execContext struct {
	stdio proc.Stdio
}

func (s *Shell) logSyntaxError(node syntax.Node) error {
	err := parse.Unsupported(node)
	s.Log.InvalidInvocation([]string{"sh", parse.String(node)}, err)
	return err
}

// stopped reports whether the statements of the current body should stop
// running.
func (s *Shell) stopped() bool {
	return s.Quit || s.Store.Frames.Returning()
}

func (s *Shell) executeStmts(ec execContext, stmts []*syntax.Stmt) error {
	for _, stmt := range stmts {
		if s.stopped() {
			return nil
		}
		if err := s.executeStatement(ec, stmt); err != nil {
			return err
		}
		s.runPendingTraps(ec)

		if s.lastRet != 0 && s.condDepth == 0 && s.Store.Option(OptErrexit) {
			s.Exit(s.lastRet)
		}
	}
	return nil
}

func (s *Shell) expander(ec execContext) parse.Env {
	return &shellEnv{s: s, ec: ec}
}

func (s *Shell) openOptions() proc.OpenOptions {
	return proc.OpenOptions{
		NoClobber: s.Store.Option(OptNoclobber),
		Lookup:    s.Coprocs.File,
	}
}

func (s *Shell) executeStatement(ec execContext, stmt *syntax.Stmt) error {
	if stmt.Negated {
		s.condDepth++
		defer func() {
			s.condDepth--
			if s.lastRet == 0 {
				s.lastRet = ExitFailure
			} else {
				s.lastRet = ExitSuccess
			}
		}()
	}

	switch cmd := stmt.Cmd.(type) {
	case *syntax.CallExpr:
		return s.executeCall(ec, cmd, stmt.Redirs, stmt.Background)
	case nil:
		// A statement made only of redirections creates or truncates files.
		return s.executeCall(ec, nil, stmt.Redirs, false)
	}

	if len(stmt.Redirs) > 0 {
		redirs, err := parse.Redirects(s.expander(ec), stmt.Redirs)
		if err != nil {
			return err
		}
		files, err := redirs.Open(ec.stdio, s.openOptions())
		if err != nil {
			fmt.Fprintf(ec.stdio.Err, "sh: %v\n", err)
			s.lastRet = ExitFailure
			return nil
		}
		defer files.Close()
		ec.stdio = files.Stdio()
	}

	switch cmd := stmt.Cmd.(type) {
	case *syntax.BinaryCmd:
		switch cmd.Op {
		case syntax.AndStmt, syntax.OrStmt:
			s.condDepth++
			err := s.executeStatement(ec, cmd.X)
			s.condDepth--
			if err != nil {
				return err
			}
			if (cmd.Op == syntax.AndStmt) == (s.lastRet == 0) && !s.stopped() {
				return s.executeStatement(ec, cmd.Y)
			}
		case syntax.Pipe:
			return s.executePipeline(ec, cmd)
		default:
			// Fail for unknown operations.
			return s.logSyntaxError(stmt)
		}

	case *syntax.Block:
		return s.executeStmts(ec, cmd.Stmts)

	case *syntax.Subshell:
		return s.subshell(ec, func() error {
			return s.executeStmts(ec, cmd.Stmts)
		})

	case *syntax.IfClause:
		return s.executeIf(ec, cmd)

	case *syntax.WhileClause:
		return s.executeWhile(ec, cmd)

	case *syntax.FuncDecl:
		s.SetFunction(cmd.Name.Value, parse.String(cmd.Body))
		s.lastRet = ExitSuccess

	default:
		// Fail for other types of statements
		return s.logSyntaxError(stmt)
	}

	return nil
}

func (s *Shell) executeCond(ec execContext, stmts []*syntax.Stmt) (bool, error) {
	s.condDepth++
	defer func() { s.condDepth-- }()
	if err := s.executeStmts(ec, stmts); err != nil {
		return false, err
	}
	return s.lastRet == 0, nil
}

func (s *Shell) executeIf(ec execContext, clause *syntax.IfClause) error {
	for ; clause != nil; clause = clause.Else {
		if len(clause.Cond) == 0 {
			// else branch
			return s.executeStmts(ec, clause.Then)
		}
		ok, err := s.executeCond(ec, clause.Cond)
		if err != nil {
			return err
		}
		if s.stopped() {
			return nil
		}
		if ok {
			return s.executeStmts(ec, clause.Then)
		}
	}
	s.lastRet = ExitSuccess
	return nil
}

func (s *Shell) executeWhile(ec execContext, clause *syntax.WhileClause) error {
	status := ExitSuccess
	for !s.stopped() {
		ok, err := s.executeCond(ec, clause.Cond)
		if err != nil {
			return err
		}
		if ok == clause.Until || s.stopped() {
			break
		}
		if err := s.executeStmts(ec, clause.Do); err != nil {
			return err
		}
		status = s.lastRet
	}
	if !s.Store.Frames.Returning() {
		s.lastRet = status
	}
	return nil
}

func (s *Shell) executeCall(ec execContext, call *syntax.CallExpr, redirs []*syntax.Redirect, background bool) error {
	cmd, substituted, err := s.buildCall(ec, call, redirs)
	if err != nil {
		return err
	}
	s.runCall(ec, cmd, substituted, background)
	return nil
}

// buildCall expands a simple command. substituted reports whether a command
// substitution ran during the expansion.
func (s *Shell) buildCall(ec execContext, call *syntax.CallExpr, redirs []*syntax.Redirect) (cmd *parse.Command, substituted bool, err error) {
	s.substituted = false
	cmd, err = parse.Build(s.expander(ec), call, redirs)
	return cmd, s.substituted, err
}

func (s *Shell) trace(ec execContext, cmd *parse.Command) {
	if s.Store.Option(OptXtrace) {
		trace := append(cmd.Environ(), cmd.Argv()...)
		fmt.Fprintf(ec.stdio.Err, "+ %s\n", strings.Join(trace, " "))
	}
}

// runCall runs an expanded simple command and sets $?.
func (s *Shell) runCall(ec execContext, cmd *parse.Command, substituted, background bool) {
	s.trace(ec, cmd)

	if cmd.Name == "" {
		// If the full command was assignments, set them. Otherwise they should
		// only be populated for the upcoming command.
		status := ExitSuccess
		if substituted {
			status = s.lastRet
		}
		for _, a := range cmd.Assigns {
			if err := s.SetVar(a.Name, a.Value); err != nil {
				fmt.Fprintf(ec.stdio.Err, "sh: %v\n", err)
				status = ExitFailure
			}
		}
		files, err := cmd.Redirections.Open(ec.stdio, s.openOptions())
		if err != nil {
			fmt.Fprintf(ec.stdio.Err, "sh: %v\n", err)
			status = ExitFailure
		} else {
			files.Close()
		}
		s.lastRet = status
		return
	}

	s.lastRet = s.execute(ec.stdio, cmd, findAll, background)
}

// execute applies cmd's redirections on top of stdio and runs the first
// function, builtin or program named cmd.Name that mode allows.
func (s *Shell) execute(stdio proc.Stdio, cmd *parse.Command, mode lookupMode, background bool) int {
	files, err := cmd.Redirections.Open(stdio, s.openOptions())
	if err != nil {
		fmt.Fprintf(stdio.Err, "sh: %v\n", err)
		return ExitFailure
	}
	defer files.Close()

	ctx := &Context{files: files, shell: s}
	if mode&findFunctions != 0 {
		if body, ok := s.functions[cmd.Name]; ok {
			return s.callFunction(ctx, cmd, body)
		}
	}
	if mode&findBuiltins != 0 {
		if builtin, ok := AllBuiltins[cmd.Name]; ok {
			return s.runBuiltin(ctx, builtin, cmd)
		}
	}
	if mode&findExternal != 0 {
		return s.runExternal(ctx, cmd, background)
	}

	fmt.Fprintf(ctx.Stderr(), "sh: %s: not found\n", cmd.Name)
	return ExitNotFound
}

func (s *Shell) callFunction(ctx *Context, cmd *parse.Command, body string) int {
	if s.Store.Frames.Depth() >= maxFunctionDepth {
		fmt.Fprintf(ctx.Stderr(), "sh: %s: maximum function nesting level exceeded (%d)\n", cmd.Name, maxFunctionDepth)
		return ExitFailure
	}

	return s.Store.Frames.Call(cmd.Name, cmd.Args, func(*state.Frame) int {
		for _, a := range cmd.Assigns {
			s.Store.Frames.Declare(a.Name, a.Value)
		}
		return s.RunWith(ctx.Stdio(), body, cmd.Name)
	})
}

// runBuiltin runs a builtin with cmd's prefix assignments in effect for the
// duration of the call.
func (s *Shell) runBuiltin(ctx *Context, builtin Builtin, cmd *parse.Command) int {
	type saved struct {
		value string
		set   bool
	}
	restore := make(map[string]saved)
	for _, a := range cmd.Assigns {
		if _, ok := restore[a.Name]; !ok {
			value, set := s.Store.Var(a.Name)
			restore[a.Name] = saved{value, set}
		}
		if err := s.SetVar(a.Name, a.Value); err != nil {
			fmt.Fprintf(ctx.Stderr(), "sh: %v\n", err)
			return ExitFailure
		}
	}
	defer func() {
		for name, old := range restore {
			if old.set {
				s.Store.SetVar(name, old.value)
			} else {
				s.UnsetVar(name)
			}
		}
	}()

	return builtin.Main(ctx, cmd.Argv())
}

// request builds the process request for an external command.
func (s *Shell) request(ctx *Context, cmd *parse.Command) (*proc.Request, error) {
	path, err := s.Resolver.Resolve(cmd.Name)
	if err != nil {
		return nil, err
	}
	return &proc.Request{
		Path:  path,
		Argv:  cmd.Argv(),
		Env:   append(s.environ(), cmd.Environ()...),
		Files: ctx.files,
	}, nil
}

func (s *Shell) reportStartError(ctx *Context, cmd *parse.Command, err error) int {
	s.Log.UnknownCommand(cmd.Argv(), err)
	code := proc.StartErrorCode(err)
	if code == ExitNotFound {
		fmt.Fprintf(ctx.Stderr(), "sh: %s: command not found\n", cmd.Name)
	} else {
		fmt.Fprintf(ctx.Stderr(), "sh: %s: %v\n", cmd.Name, err)
	}
	return code
}

func (s *Shell) runExternal(ctx *Context, cmd *parse.Command, background bool) int {
	req, err := s.request(ctx, cmd)
	if err != nil {
		return s.reportStartError(ctx, cmd, err)
	}

	if background {
		job, err := s.Launcher.Start(req)
		if err != nil {
			return s.reportStartError(ctx, cmd, err)
		}
		s.lastBg = job.Pid
		if s.Interactive {
			fmt.Fprintf(ctx.Stderr(), "[%d] %d\n", job.ID, job.Pid)
		}
		return ExitSuccess
	}

	code, err := s.Launcher.Run(req)
	if err != nil {
		return s.reportStartError(ctx, cmd, err)
	}
	return code
}

// shellEnv exposes the session to word expansion along with the special
// parameters that only exist during expansion.
type shellEnv struct {
	s  *Shell
	ec execContext
}

var _ parse.Env = (*shellEnv)(nil)

func (e *shellEnv) Var(name string) (string, bool) {
	switch name {
	case "?":
		return strconv.Itoa(int(uint8(e.s.lastRet))), true
	case "$":
		return strconv.Itoa(os.Getpid()), true
	case "!":
		if e.s.lastBg == 0 {
			return "", false
		}
		return strconv.Itoa(e.s.lastBg), true
	case "0":
		return e.s.Name, true
	}
	return e.s.Store.Var(name)
}

func (e *shellEnv) SetVar(name, value string) {
	e.s.SetVar(name, value)
}

func (e *shellEnv) Args() []string {
	return e.s.Store.Args()
}

func (e *shellEnv) Subst(stmts []*syntax.Stmt) (string, error) {
	buf := &bytes.Buffer{}
	sub := e.ec
	sub.stdio.Out = buf
	err := e.s.subshell(sub, func() error {
		return e.s.executeStmts(sub, stmts)
	})
	e.s.substituted = true
	return buf.String(), err
}

func (e *shellEnv) NoUnset() bool {
	return e.s.Store.Option(OptNounset)
}
