package state

import (
	"errors"
	"fmt"
)

var (
	// ErrStackEmpty is returned when popping or indexing an empty stack.
	ErrStackEmpty = errors.New("directory stack empty")
	// ErrStackFull is returned when a bounded stack has no room left.
	ErrStackFull = errors.New("directory stack full")
	// ErrStackIndex is returned for +N/-N offsets outside the stack.
	ErrStackIndex = errors.New("directory stack index out of range")
)

// DirStack holds the pushd/popd directory stack. Entries are ordered oldest
// first so the most recent push is the rightmost entry. A capacity of zero
// means the stack is unbounded.
type DirStack struct {
	dirs     []string
	capacity int
}

// NewDirStack creates an empty stack.
func NewDirStack(capacity int) *DirStack {
	return &DirStack{capacity: capacity}
}

// Len returns the number of entries.
func (d *DirStack) Len() int {
	return len(d.dirs)
}

// Full reports whether another Push would fail.
func (d *DirStack) Full() bool {
	return d.capacity > 0 && len(d.dirs) >= d.capacity
}

// Entries returns a copy of the stack, oldest first.
func (d *DirStack) Entries() []string {
	return append([]string(nil), d.dirs...)
}

// Push adds dir as the most recent entry.
func (d *DirStack) Push(dir string) error {
	if err := ValidatePath(dir); err != nil {
		return err
	}
	if d.Full() {
		return ErrStackFull
	}
	d.dirs = append(d.dirs, dir)
	return nil
}

// Pop removes and returns the most recent entry.
func (d *DirStack) Pop() (string, error) {
	if len(d.dirs) == 0 {
		return "", ErrStackEmpty
	}
	last := len(d.dirs) - 1
	dir := d.dirs[last]
	d.dirs[last] = ""
	d.dirs = d.dirs[:last]
	return dir, nil
}

// Top returns the most recent entry without removing it.
func (d *DirStack) Top() (string, error) {
	if len(d.dirs) == 0 {
		return "", ErrStackEmpty
	}
	return d.dirs[len(d.dirs)-1], nil
}

// Index converts a +N (from the left) or -N (from the right) offset as typed
// by the user into a slice index.
func (d *DirStack) Index(n int, fromLeft bool) (int, error) {
	if len(d.dirs) == 0 {
		return 0, ErrStackEmpty
	}
	if n < 0 || n >= len(d.dirs) {
		return 0, fmt.Errorf("%d: %w", n, ErrStackIndex)
	}
	if fromLeft {
		return n, nil
	}
	return len(d.dirs) - 1 - n, nil
}

// Remove deletes the entry at slice index i.
func (d *DirStack) Remove(i int) (string, error) {
	if len(d.dirs) == 0 {
		return "", ErrStackEmpty
	}
	if i < 0 || i >= len(d.dirs) {
		return "", fmt.Errorf("%d: %w", i, ErrStackIndex)
	}
	dir := d.dirs[i]
	d.dirs = append(d.dirs[:i], d.dirs[i+1:]...)
	return dir, nil
}

// Swap replaces the most recent entry with cwd and returns the replaced entry.
func (d *DirStack) Swap(cwd string) (string, error) {
	if err := ValidatePath(cwd); err != nil {
		return "", err
	}
	if len(d.dirs) == 0 {
		return "", ErrStackEmpty
	}
	last := len(d.dirs) - 1
	top := d.dirs[last]
	d.dirs[last] = cwd
	return top, nil
}

// Rotate treats the stack followed by cwd as a ring and rotates it so the
// entry at slice index i becomes the new current directory. The remaining
// ring, in order, becomes the stack. The stack size does not change.
func (d *DirStack) Rotate(cwd string, i int) (string, error) {
	if err := ValidatePath(cwd); err != nil {
		return "", err
	}
	if len(d.dirs) == 0 {
		return "", ErrStackEmpty
	}
	if i < 0 || i >= len(d.dirs) {
		return "", fmt.Errorf("%d: %w", i, ErrStackIndex)
	}

	ring := append(d.Entries(), cwd)
	rotated := append(append([]string{}, ring[i+1:]...), ring[:i+1]...)
	target := rotated[len(rotated)-1]
	d.dirs = rotated[:len(rotated)-1]
	return target, nil
}

// Clear removes every entry.
func (d *DirStack) Clear() {
	d.dirs = nil
}
