// Package parse turns shell source text into commands the engine can run.
//
// Parsing is delegated to mvdan.cc/sh in POSIX mode. This package lowers
// simple commands to a Command: the expanded name and arguments, the
// assignments prefixed to the command and the redirections to apply.
package parse

import (
	"bytes"
	"errors"
	"fmt"
	"strings"

	"github.com/josephlewis42/procsh/core/proc"
	"mvdan.cc/sh/v3/syntax"
)

// ErrUnsupported is returned for syntax the engine does not execute.
var ErrUnsupported = errors.New("unsupported syntax")

// Parse parses src as a POSIX shell program. name is used in error messages.
func Parse(src, name string) (*syntax.File, error) {
	return syntax.NewParser(syntax.Variant(syntax.LangPOSIX)).Parse(strings.NewReader(src), name)
}

// String renders a node back to shell source.
func String(node syntax.Node) string {
	buf := &bytes.Buffer{}
	if err := syntax.NewPrinter(syntax.Indent(4)).Print(buf, node); err != nil {
		return ""
	}
	return strings.TrimSuffix(buf.String(), "\n")
}

// Unsupported builds an error pointing at node.
func Unsupported(node syntax.Node) error {
	pos := node.Pos()
	return fmt.Errorf("%d:%d: %w", pos.Line(), pos.Col(), ErrUnsupported)
}

// Assign is a NAME=value word prefixed to a command.
type Assign struct {
	Name  string
	Value string
}

func (a Assign) String() string {
	return a.Name + "=" + a.Value
}

// Command is a fully expanded simple command.
type Command struct {
	// Name is the command to run, empty for a bare assignment.
	Name string
	// Args holds the arguments after Name.
	Args         []string
	Redirections proc.Redirections
	Assigns      []Assign
}

// Argv returns the command name followed by its arguments.
func (c *Command) Argv() []string {
	if c.Name == "" {
		return nil
	}
	return append([]string{c.Name}, c.Args...)
}

// Environ renders the prefixed assignments as "key=value" pairs.
func (c *Command) Environ() []string {
	var out []string
	for _, a := range c.Assigns {
		out = append(out, a.String())
	}
	return out
}

// Build expands a simple command and its redirections.
func Build(env Env, call *syntax.CallExpr, redirs []*syntax.Redirect) (*Command, error) {
	cmd := &Command{}

	var err error
	if call != nil {
		if cmd.Assigns, err = Assigns(env, call.Assigns); err != nil {
			return nil, err
		}
		fields, err := Fields(env, call.Args...)
		if err != nil {
			return nil, err
		}
		if len(fields) > 0 {
			cmd.Name = fields[0]
			cmd.Args = fields[1:]
		}
	}

	if cmd.Redirections, err = Redirects(env, redirs); err != nil {
		return nil, err
	}
	return cmd, nil
}

// Assigns expands assignments left to right. Later values see earlier ones.
func Assigns(env Env, assigns []*syntax.Assign) ([]Assign, error) {
	var out []Assign
	for _, as := range assigns {
		if as.Name == nil {
			continue
		}
		if as.Append || as.Index != nil || as.Array != nil {
			return nil, Unsupported(as)
		}
		value, err := Literal(overlay(env, out), as.Value)
		if err != nil {
			return nil, err
		}
		out = append(out, Assign{Name: as.Name.Value, Value: value})
	}
	return out, nil
}

// Redirects lowers redirections to their runtime form.
func Redirects(env Env, redirs []*syntax.Redirect) (proc.Redirections, error) {
	var out proc.Redirections
	for _, rd := range redirs {
		r, err := redirect(env, rd)
		if err != nil {
			return nil, err
		}
		out = append(out, r)
	}
	return out, nil
}

func redirect(env Env, rd *syntax.Redirect) (proc.Redirection, error) {
	var r proc.Redirection

	switch rd.Op {
	case syntax.RdrIn:
		r.Fd, r.Dir = 0, proc.Read
	case syntax.RdrOut:
		r.Fd, r.Dir = 1, proc.Write
	case syntax.ClbOut:
		r.Fd, r.Dir, r.Clobber = 1, proc.Write, true
	case syntax.AppOut:
		r.Fd, r.Dir = 1, proc.Append
	case syntax.RdrInOut:
		r.Fd, r.Dir = 0, proc.ReadWrite
	case syntax.DplIn:
		r.Fd, r.Dir = 0, proc.Duplicate
	case syntax.DplOut:
		r.Fd, r.Dir = 1, proc.Duplicate
	default:
		return r, Unsupported(rd)
	}

	if rd.N != nil {
		fd, err := parseFd(rd.N.Value)
		if err != nil {
			return r, fmt.Errorf("%s: %w", rd.N.Value, proc.ErrBadFd)
		}
		r.Fd = fd
	}

	target, err := Literal(env, rd.Word)
	if err != nil {
		return r, err
	}
	if target == "" {
		return r, fmt.Errorf("ambiguous redirect at %d:%d", rd.OpPos.Line(), rd.OpPos.Col())
	}

	if r.Dir == proc.Duplicate {
		fd, err := parseFd(target)
		if err != nil {
			return r, fmt.Errorf("%s: %w", target, proc.ErrBadFd)
		}
		r.SourceFd = fd
		return r, nil
	}
	r.Path = target
	return r, nil
}

func parseFd(s string) (int, error) {
	fd := 0
	if s == "" {
		return 0, errors.New("empty descriptor")
	}
	for _, c := range s {
		if c < '0' || c > '9' {
			return 0, fmt.Errorf("invalid descriptor %q", s)
		}
		fd = fd*10 + int(c-'0')
	}
	return fd, nil
}
