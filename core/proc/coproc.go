package proc

import (
	"errors"
	"fmt"
	"os"
	"sort"
)

// ErrCoprocExists is returned when starting a coprocess under a name that is
// still in use by a live one.
var ErrCoprocExists = errors.New("coprocess already running")

// DefaultCoprocName is the name used when none is given.
const DefaultCoprocName = "COPROC"

// Coproc is a child whose standard input and output are pipes held by the
// shell.
type Coproc struct {
	Name string
	Job  *Job

	// Read receives the child's standard output.
	Read *os.File
	// Write feeds the child's standard input.
	Write *os.File
}

// Pid returns the child's process ID.
func (c *Coproc) Pid() int {
	return c.Job.Pid
}

// ReadFd returns the descriptor the shell reads the child's output from.
func (c *Coproc) ReadFd() int {
	return int(c.Read.Fd())
}

// WriteFd returns the descriptor the shell writes the child's input to.
func (c *Coproc) WriteFd() int {
	return int(c.Write.Fd())
}

// CloseWrite closes the child's standard input, usually making it finish.
func (c *Coproc) CloseWrite() error {
	if c.Write == nil {
		return nil
	}
	err := c.Write.Close()
	c.Write = nil
	return err
}

// Close releases both pipe ends held by the shell.
func (c *Coproc) Close() error {
	werr := c.CloseWrite()
	if c.Read == nil {
		return werr
	}
	rerr := c.Read.Close()
	c.Read = nil
	if werr != nil {
		return werr
	}
	return rerr
}

type fdSet []*os.File

func (s fdSet) close() {
	for _, f := range s {
		if f != nil {
			f.Close()
		}
	}
}

// StartCoproc starts req with its standard input and output connected to
// the shell by two pipes. Every descriptor created is closed again if any
// step fails. Standard error comes from req.Files.
func (l *Launcher) StartCoproc(name string, req *Request) (*Coproc, error) {
	if name == "" {
		name = DefaultCoprocName
	}

	childIn, parentWrite, err := os.Pipe()
	if err != nil {
		return nil, fmt.Errorf("coproc %s: %w", name, err)
	}
	parentRead, childOut, err := os.Pipe()
	if err != nil {
		fdSet{childIn, parentWrite}.close()
		return nil, fmt.Errorf("coproc %s: %w", name, err)
	}

	cmd := l.command(req)
	cmd.Stdin = childIn
	cmd.Stdout = childOut

	job, err := l.start(cmd)
	// The child has its own copies now, or never will.
	fdSet{childIn, childOut}.close()
	if err != nil {
		fdSet{parentRead, parentWrite}.close()
		return nil, fmt.Errorf("coproc %s: %w", name, err)
	}

	co := &Coproc{
		Name:  name,
		Job:   job,
		Read:  parentRead,
		Write: parentWrite,
	}
	l.Log.CoprocStarted(name, co.Pid(), co.ReadFd(), co.WriteFd())
	return co, nil
}

// Coprocs tracks coprocesses by name.
type Coprocs struct {
	byName map[string]*Coproc
}

// NewCoprocs creates an empty collection.
func NewCoprocs() *Coprocs {
	return &Coprocs{byName: make(map[string]*Coproc)}
}

// Get returns the coprocess registered under name.
func (c *Coprocs) Get(name string) (*Coproc, bool) {
	co, ok := c.byName[name]
	return co, ok
}

// Check reports ErrCoprocExists if name is held by a live coprocess.
func (c *Coprocs) Check(name string) error {
	if co, ok := c.byName[name]; ok && co.Job.Alive() {
		return fmt.Errorf("%s: %w", name, ErrCoprocExists)
	}
	return nil
}

// Add registers co, releasing a finished coprocess of the same name.
func (c *Coprocs) Add(co *Coproc) error {
	if err := c.Check(co.Name); err != nil {
		return err
	}
	if old, ok := c.byName[co.Name]; ok {
		old.Close()
	}
	c.byName[co.Name] = co
	return nil
}

// Remove releases and forgets the coprocess registered under name.
func (c *Coprocs) Remove(name string) bool {
	co, ok := c.byName[name]
	if !ok {
		return false
	}
	co.Close()
	delete(c.byName, name)
	return true
}

// Names returns the registered names in sorted order.
func (c *Coprocs) Names() []string {
	names := make([]string, 0, len(c.byName))
	for name := range c.byName {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// File returns the pipe end open on fd, if a coprocess holds it.
func (c *Coprocs) File(fd int) (*os.File, bool) {
	for _, co := range c.byName {
		if co.Read != nil && co.ReadFd() == fd {
			return co.Read, true
		}
		if co.Write != nil && co.WriteFd() == fd {
			return co.Write, true
		}
	}
	return nil, false
}

// CloseAll releases every coprocess's pipes.
func (c *Coprocs) CloseAll() {
	for name := range c.byName {
		c.Remove(name)
	}
}
