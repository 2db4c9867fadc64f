package state

import "errors"

// ErrNoFrame is returned by operations that need an active function call.
var ErrNoFrame = errors.New("not in a function")

// Frame is the scope of a single function call.
type Frame struct {
	// Name of the called function.
	Name string
	// Args holds the positional parameters of the call, excluding $0.
	Args []string

	locals map[string]string

	// ReturnRequested is set by the return builtin; the caller stops
	// executing the function body once it is observed.
	ReturnRequested bool
	ReturnCode      int
}

// Local returns the value of a variable bound in this frame.
func (f *Frame) Local(name string) (string, bool) {
	v, ok := f.locals[name]
	return v, ok
}

// Locals returns a copy of the frame's bindings.
func (f *Frame) Locals() map[string]string {
	out := make(map[string]string, len(f.locals))
	for k, v := range f.locals {
		out[k] = v
	}
	return out
}

// CallStack is the stack of active function calls.
type CallStack struct {
	frames []*Frame
}

// Depth returns the number of active frames.
func (c *CallStack) Depth() int {
	return len(c.frames)
}

// Push creates a frame for a call to name.
func (c *CallStack) Push(name string, args []string) *Frame {
	f := &Frame{Name: name, Args: args, locals: make(map[string]string)}
	c.frames = append(c.frames, f)
	return f
}

// Pop removes the innermost frame.
func (c *CallStack) Pop() (*Frame, error) {
	if len(c.frames) == 0 {
		return nil, ErrNoFrame
	}
	last := len(c.frames) - 1
	f := c.frames[last]
	c.frames[last] = nil
	c.frames = c.frames[:last]
	return f, nil
}

// Top returns the innermost frame.
func (c *CallStack) Top() (*Frame, error) {
	if len(c.frames) == 0 {
		return nil, ErrNoFrame
	}
	return c.frames[len(c.frames)-1], nil
}

// Call pushes a frame, runs fn and pops the frame again regardless of how fn
// exits. If fn requested a return the frame's return code is used.
func (c *CallStack) Call(name string, args []string, fn func(*Frame) int) (code int) {
	f := c.Push(name, args)
	depth := len(c.frames)
	defer func() {
		// Drop anything fn left behind along with our own frame.
		for len(c.frames) >= depth {
			c.Pop()
		}
	}()

	code = fn(f)
	if f.ReturnRequested {
		code = f.ReturnCode
	}
	return code
}

// RequestReturn marks the innermost frame as returning with code.
func (c *CallStack) RequestReturn(code int) error {
	f, err := c.Top()
	if err != nil {
		return err
	}
	f.ReturnRequested = true
	f.ReturnCode = code
	return nil
}

// Returning reports whether the innermost frame has a pending return.
func (c *CallStack) Returning() bool {
	f, err := c.Top()
	return err == nil && f.ReturnRequested
}

// Declare binds name in the innermost frame.
func (c *CallStack) Declare(name, value string) error {
	f, err := c.Top()
	if err != nil {
		return err
	}
	f.locals[name] = value
	return nil
}

// Lookup finds the innermost binding of name.
func (c *CallStack) Lookup(name string) (string, bool) {
	for i := len(c.frames) - 1; i >= 0; i-- {
		if v, ok := c.frames[i].locals[name]; ok {
			return v, true
		}
	}
	return "", false
}

// Assign updates the innermost binding of name, reporting whether one existed.
func (c *CallStack) Assign(name, value string) bool {
	for i := len(c.frames) - 1; i >= 0; i-- {
		if _, ok := c.frames[i].locals[name]; ok {
			c.frames[i].locals[name] = value
			return true
		}
	}
	return false
}

// Unbind removes the innermost binding of name, reporting whether one existed.
func (c *CallStack) Unbind(name string) bool {
	for i := len(c.frames) - 1; i >= 0; i-- {
		if _, ok := c.frames[i].locals[name]; ok {
			delete(c.frames[i].locals, name)
			return true
		}
	}
	return false
}

// Names returns every name bound in any frame.
func (c *CallStack) Names() []string {
	seen := make(map[string]bool)
	var out []string
	for _, f := range c.frames {
		for name := range f.locals {
			if !seen[name] {
				seen[name] = true
				out = append(out, name)
			}
		}
	}
	return out
}
