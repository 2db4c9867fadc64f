package proc

import (
	"errors"
	"os"
	"syscall"
)

// PipeWriter is the write end of a pipe written by shell code rather than
// a child process. Children given a PipeWriter receive the underlying file.
type PipeWriter struct {
	File *os.File
	// Broken is called once a write fails because the reading end was
	// closed, the in-process equivalent of SIGPIPE.
	Broken func()
}

func (w *PipeWriter) Write(p []byte) (int, error) {
	n, err := w.File.Write(p)
	if err != nil && errors.Is(err, syscall.EPIPE) && w.Broken != nil {
		w.Broken()
	}
	return n, err
}

// OSFile returns the underlying file.
func (w *PipeWriter) OSFile() *os.File {
	return w.File
}

// Close closes the underlying file.
func (w *PipeWriter) Close() error {
	return w.File.Close()
}

// osFiler is implemented by streams backed by an operating system file.
type osFiler interface {
	OSFile() *os.File
}

// Pipe is a pipe between two stages of a pipeline.
type Pipe struct {
	R *os.File
	W *os.File
}

// NewPipe creates a pipe.
func NewPipe() (*Pipe, error) {
	r, w, err := os.Pipe()
	if err != nil {
		return nil, err
	}
	return &Pipe{R: r, W: w}, nil
}

// Close closes whichever ends are still open.
func (p *Pipe) Close() {
	p.CloseRead()
	p.CloseWrite()
}

// CloseRead closes the reading end.
func (p *Pipe) CloseRead() {
	if p.R != nil {
		p.R.Close()
		p.R = nil
	}
}

// CloseWrite closes the writing end.
func (p *Pipe) CloseWrite() {
	if p.W != nil {
		p.W.Close()
		p.W = nil
	}
}
