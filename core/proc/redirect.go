package proc

import (
	"errors"
	"fmt"
	"io"
	"os"
	"sort"
	"syscall"
)

// ErrBadFd is returned when a duplication names a descriptor that is not open.
var ErrBadFd = errors.New("bad file descriptor")

// Direction is the kind of a redirection.
type Direction int

const (
	// Read opens Path for reading (<).
	Read Direction = iota
	// Write truncates or creates Path (>, >|).
	Write
	// Append appends to or creates Path (>>).
	Append
	// ReadWrite opens Path for reading and writing (<>).
	ReadWrite
	// Duplicate makes Fd a copy of SourceFd (n>&m, n<&m).
	Duplicate
)

// Redirection binds a descriptor of a command before it runs.
type Redirection struct {
	Fd       int
	Dir      Direction
	Path     string
	SourceFd int
	// Clobber overrides the noclobber option (>|).
	Clobber bool
}

func (r Redirection) String() string {
	switch r.Dir {
	case Read:
		return fmt.Sprintf("%d<%s", r.Fd, r.Path)
	case Write:
		if r.Clobber {
			return fmt.Sprintf("%d>|%s", r.Fd, r.Path)
		}
		return fmt.Sprintf("%d>%s", r.Fd, r.Path)
	case Append:
		return fmt.Sprintf("%d>>%s", r.Fd, r.Path)
	case ReadWrite:
		return fmt.Sprintf("%d<>%s", r.Fd, r.Path)
	default:
		return fmt.Sprintf("%d>&%d", r.Fd, r.SourceFd)
	}
}

// Stdio holds the standard streams of a command.
type Stdio struct {
	In  io.Reader
	Out io.Writer
	Err io.Writer
}

// OpenOptions controls how redirections are applied.
type OpenOptions struct {
	// NoClobber refuses to truncate existing regular files.
	NoClobber bool
	// Lookup resolves descriptors the shell holds outside of the standard
	// streams, such as coprocess pipes.
	Lookup func(fd int) (*os.File, bool)
}

type slot struct {
	file *os.File
	r    io.Reader
	w    io.Writer
}

// Files is the descriptor table produced by applying redirections.
type Files struct {
	slots  map[int]slot
	opened []*os.File
}

// NewFiles creates a descriptor table holding only the standard streams.
func NewFiles(base Stdio) *Files {
	f := &Files{slots: make(map[int]slot)}
	f.slots[0] = streamSlot(base.In, nil)
	f.slots[1] = streamSlot(nil, base.Out)
	f.slots[2] = streamSlot(nil, base.Err)
	return f
}

func streamSlot(r io.Reader, w io.Writer) slot {
	s := slot{r: r, w: w}
	if r != nil {
		s.file = streamFile(r)
	}
	if w != nil {
		s.file = streamFile(w)
	}
	return s
}

func streamFile(stream any) *os.File {
	switch v := stream.(type) {
	case *os.File:
		return v
	case osFiler:
		return v.OSFile()
	}
	return nil
}

func fileSlot(f *os.File) slot {
	return slot{file: f, r: f, w: f}
}

// Redirections is an ordered list of redirections, applied left to right.
type Redirections []Redirection

// Open applies every redirection on top of base. On failure every file
// opened so far is closed before the error is returned.
func (rs Redirections) Open(base Stdio, opts OpenOptions) (*Files, error) {
	files := NewFiles(base)
	for _, r := range rs {
		if err := files.apply(r, opts); err != nil {
			files.Close()
			return nil, err
		}
	}
	return files, nil
}

func (f *Files) apply(r Redirection, opts OpenOptions) error {
	if r.Dir == Duplicate {
		src, ok := f.slots[r.SourceFd]
		if !ok && opts.Lookup != nil {
			if file, found := opts.Lookup(r.SourceFd); found {
				src, ok = fileSlot(file), true
			}
		}
		if !ok || (r.Fd == 0 && src.r == nil) || (r.Fd != 0 && src.w == nil && src.file == nil) {
			return fmt.Errorf("%d: %w", r.SourceFd, ErrBadFd)
		}
		f.slots[r.Fd] = src
		return nil
	}

	var flags int
	switch r.Dir {
	case Read:
		flags = os.O_RDONLY
	case Write:
		flags = os.O_WRONLY | os.O_CREATE | os.O_TRUNC
		if opts.NoClobber && !r.Clobber {
			if info, err := os.Stat(r.Path); err == nil && info.Mode().IsRegular() {
				return &os.PathError{Op: "open", Path: r.Path, Err: syscall.EEXIST}
			}
		}
	case Append:
		flags = os.O_WRONLY | os.O_CREATE | os.O_APPEND
	case ReadWrite:
		flags = os.O_RDWR | os.O_CREATE
	default:
		return fmt.Errorf("unknown redirection %d", r.Dir)
	}

	fd, err := os.OpenFile(r.Path, flags, 0666)
	if err != nil {
		return err
	}
	f.opened = append(f.opened, fd)
	f.slots[r.Fd] = fileSlot(fd)
	return nil
}

// Stdio returns the standard streams after redirection.
func (f *Files) Stdio() Stdio {
	return Stdio{
		In:  f.slots[0].r,
		Out: f.slots[1].w,
		Err: f.slots[2].w,
	}
}

// ChildStdio returns the standard streams to give a child process,
// preferring the files behind wrapped streams so the child writes to them
// directly.
func (f *Files) ChildStdio() (in io.Reader, out, errw io.Writer) {
	if s := f.slots[0]; s.file != nil {
		in = s.file
	} else {
		in = s.r
	}
	if s := f.slots[1]; s.file != nil {
		out = s.file
	} else {
		out = s.w
	}
	if s := f.slots[2]; s.file != nil {
		errw = s.file
	} else {
		errw = s.w
	}
	return in, out, errw
}

// Extra returns descriptors 3 and up, suitable for exec.Cmd.ExtraFiles.
// Gaps are nil and therefore closed in the child.
func (f *Files) Extra() []*os.File {
	var fds []int
	for fd := range f.slots {
		if fd > 2 && f.slots[fd].file != nil {
			fds = append(fds, fd)
		}
	}
	if len(fds) == 0 {
		return nil
	}
	sort.Ints(fds)

	extra := make([]*os.File, fds[len(fds)-1]-2)
	for _, fd := range fds {
		extra[fd-3] = f.slots[fd].file
	}
	return extra
}

// fdOps are the descriptor primitives bind needs.
type fdOps struct {
	dup   func(fd int) (int, error)
	dup2  func(oldfd, newfd int) error
	close func(fd int) error
}

type savedFd struct {
	fd, copy int
}

// bind makes each descriptor of the table refer to its file in the current
// process, lowest descriptor first. The returned function puts the previous
// descriptors back. If binding fails the descriptors are already restored.
func (f *Files) bind(ops fdOps) (restore func(), err error) {
	fds := make([]int, 0, len(f.slots))
	for fd := range f.slots {
		fds = append(fds, fd)
	}
	sort.Ints(fds)

	var saved []savedFd
	restore = func() {
		for i := len(saved) - 1; i >= 0; i-- {
			s := saved[i]
			if s.copy < 0 {
				// The descriptor wasn't open before.
				ops.close(s.fd)
				continue
			}
			ops.dup2(s.copy, s.fd)
			ops.close(s.copy)
		}
		saved = nil
	}

	for _, fd := range fds {
		file := f.slots[fd].file
		if file == nil || int(file.Fd()) == fd {
			continue
		}
		copied, err := ops.dup(fd)
		if err != nil {
			if !errors.Is(err, syscall.EBADF) {
				restore()
				return nil, fmt.Errorf("%d: %w", fd, err)
			}
			copied = -1
		}
		saved = append(saved, savedFd{fd: fd, copy: copied})

		if err := ops.dup2(int(file.Fd()), fd); err != nil {
			restore()
			return nil, fmt.Errorf("%d: %w", fd, err)
		}
	}
	return restore, nil
}

// Close closes the files opened by redirections. Inherited streams are left
// open.
func (f *Files) Close() error {
	var lastErr error
	for _, fd := range f.opened {
		if err := fd.Close(); err != nil {
			lastErr = err
		}
	}
	f.opened = nil
	return lastErr
}
