package commands

import (
	"bytes"
	"fmt"
	"io"
	"syscall"

	"github.com/josephlewis42/procsh/core/parse"
	"github.com/josephlewis42/procsh/core/proc"
	"mvdan.cc/sh/v3/syntax"
)

// pipeStage is one command of a pipeline. External commands are started
// as children and run concurrently, everything else runs in the shell in a
// subshell environment, one stage at a time.
type pipeStage struct {
	stmt        *syntax.Stmt
	call        *parse.Command
	substituted bool
	external    bool

	// in and out are pipes shared with the neighbouring stages.
	in  *proc.Pipe
	out *proc.Pipe
	// inBuf and outBuf connect two shell stages that run one after the
	// other.
	inBuf  *bytes.Buffer
	outBuf *bytes.Buffer
	// collected receives everything written to in when the stage can't
	// read its input while the producer runs.
	collected chan *bytes.Buffer

	job  *proc.Job
	code int
}

// pipelineStmts flattens a | b | c into its statements.
func pipelineStmts(cmd *syntax.BinaryCmd) []*syntax.Stmt {
	var out []*syntax.Stmt
	var walk func(stmt *syntax.Stmt)
	walk = func(stmt *syntax.Stmt) {
		if b, ok := stmt.Cmd.(*syntax.BinaryCmd); ok && b.Op == syntax.Pipe &&
			len(stmt.Redirs) == 0 && !stmt.Negated && !stmt.Background {
			walk(b.X)
			walk(b.Y)
			return
		}
		out = append(out, stmt)
	}
	walk(cmd.X)
	walk(cmd.Y)
	return out
}

func (s *Shell) isExternal(name string) bool {
	if _, ok := s.functions[name]; ok {
		return false
	}
	_, ok := AllBuiltins[name]
	return !ok
}

// executePipeline connects the stages of a pipeline with pipes. The status
// is the status of the last stage.
func (s *Shell) executePipeline(ec execContext, cmd *syntax.BinaryCmd) error {
	stmts := pipelineStmts(cmd)
	stages := make([]*pipeStage, len(stmts))
	for i, stmt := range stmts {
		st := &pipeStage{stmt: stmt}
		if call, ok := stmt.Cmd.(*syntax.CallExpr); ok && !stmt.Negated {
			built, substituted, err := s.buildCall(ec, call, stmt.Redirs)
			if err != nil {
				return err
			}
			st.call, st.substituted = built, substituted
			st.external = built.Name != "" && s.isExternal(built.Name)
		}
		stages[i] = st
	}

	var pipes []*proc.Pipe
	defer func() {
		for _, p := range pipes {
			p.Close()
		}
	}()

	seenShellStage := false
	for i := 0; i+1 < len(stages); i++ {
		writer, reader := stages[i], stages[i+1]
		seenShellStage = seenShellStage || !writer.external
		// A shell stage can only start once every earlier shell stage has
		// finished, so its input is gathered in memory in the meantime.
		gather := !reader.external && seenShellStage

		if gather && !writer.external {
			buf := &bytes.Buffer{}
			writer.outBuf, reader.inBuf = buf, buf
			continue
		}

		p, err := proc.NewPipe()
		if err != nil {
			fmt.Fprintf(ec.stdio.Err, "sh: %v\n", err)
			s.lastRet = ExitFailure
			return nil
		}
		pipes = append(pipes, p)
		writer.out, reader.in = p, p
		if gather {
			reader.collected = make(chan *bytes.Buffer, 1)
		}
	}

	for _, st := range stages {
		if st.external {
			s.startStage(ec, st)
		}
	}

	for _, st := range stages {
		if st.collected == nil {
			continue
		}
		go func(r io.Reader, done chan<- *bytes.Buffer) {
			buf := &bytes.Buffer{}
			io.Copy(buf, r)
			done <- buf
		}(st.in.R, st.collected)
	}

	var firstErr error
	for _, st := range stages {
		if st.external {
			continue
		}
		if err := s.runStage(ec, st); err != nil && firstErr == nil {
			firstErr = err
		}
	}

	for _, st := range stages {
		if st.job != nil {
			st.code = s.Launcher.Wait(st.job)
		}
	}

	s.lastRet = stages[len(stages)-1].code
	return firstErr
}

// startStage starts an external stage and closes the shell's copies of the
// pipe ends the child now holds.
func (s *Shell) startStage(ec execContext, st *pipeStage) {
	stdio := ec.stdio
	if st.in != nil {
		stdio.In = st.in.R
	}
	if st.out != nil {
		stdio.Out = st.out.W
	}

	defer func() {
		if st.in != nil {
			st.in.CloseRead()
		}
		if st.out != nil {
			st.out.CloseWrite()
		}
	}()

	s.trace(ec, st.call)
	files, err := st.call.Redirections.Open(stdio, s.openOptions())
	if err != nil {
		fmt.Fprintf(stdio.Err, "sh: %v\n", err)
		st.code = ExitFailure
		return
	}
	defer files.Close()

	ctx := &Context{files: files, shell: s}
	req, err := s.request(ctx, st.call)
	if err != nil {
		st.code = s.reportStartError(ctx, st.call, err)
		return
	}
	job, err := s.Launcher.Start(req)
	if err != nil {
		st.code = s.reportStartError(ctx, st.call, err)
		return
	}
	st.job = job
}

// runStage runs a stage inside the shell. Writing to a pipe whose reader is
// gone ends the stage with the status of a SIGPIPE.
func (s *Shell) runStage(ec execContext, st *pipeStage) error {
	stageEc := ec
	switch {
	case st.collected != nil:
		stageEc.stdio.In = <-st.collected
	case st.in != nil:
		stageEc.stdio.In = st.in.R
	case st.inBuf != nil:
		stageEc.stdio.In = st.inBuf
	}
	switch {
	case st.out != nil:
		stageEc.stdio.Out = &proc.PipeWriter{
			File: st.out.W,
			Broken: func() {
				s.Exit(proc.ExitSignalBase + int(syscall.SIGPIPE))
			},
		}
	case st.outBuf != nil:
		stageEc.stdio.Out = st.outBuf
	}

	err := s.subshell(stageEc, func() error {
		if st.call != nil {
			s.runCall(stageEc, st.call, st.substituted, false)
			return nil
		}
		return s.executeStatement(stageEc, st.stmt)
	})
	st.code = s.lastRet

	if st.in != nil {
		st.in.CloseRead()
	}
	if st.out != nil {
		st.out.CloseWrite()
	}
	return err
}
