package state

import (
	"errors"
	"fmt"
	"path/filepath"
	"sort"
)

var (
	// ErrRelativePath is returned when a path-valued table or stack is given
	// something other than a non-empty absolute path.
	ErrRelativePath = errors.New("not an absolute path")
)

// Table is a keyed string store used for shell options, traps, the command
// hash and bookmarks. Mutations are visible to subsequent reads immediately.
type Table struct {
	entries  map[string]string
	validate func(value string) error
}

// NewTable creates an empty table that accepts any value.
func NewTable() *Table {
	return &Table{entries: make(map[string]string)}
}

// NewPathTable creates an empty table whose values must be absolute paths.
func NewPathTable() *Table {
	return &Table{
		entries:  make(map[string]string),
		validate: ValidatePath,
	}
}

// ValidatePath checks that p is a non-empty absolute path.
func ValidatePath(p string) error {
	if p == "" || !filepath.IsAbs(p) {
		return fmt.Errorf("%q: %w", p, ErrRelativePath)
	}
	return nil
}

// Get returns the value stored under key.
func (t *Table) Get(key string) (string, bool) {
	v, ok := t.entries[key]
	return v, ok
}

// Set stores value under key, replacing any previous value.
func (t *Table) Set(key, value string) error {
	if t.validate != nil {
		if err := t.validate(value); err != nil {
			return err
		}
	}
	t.entries[key] = value
	return nil
}

// Remove deletes key, reporting whether it was present.
func (t *Table) Remove(key string) bool {
	_, ok := t.entries[key]
	delete(t.entries, key)
	return ok
}

// Clear removes every entry.
func (t *Table) Clear() {
	t.entries = make(map[string]string)
}

// Len returns the number of entries.
func (t *Table) Len() int {
	return len(t.entries)
}

// Keys returns the keys in sorted order.
func (t *Table) Keys() []string {
	keys := make([]string, 0, len(t.entries))
	for k := range t.entries {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// Iterate returns an iterator over a snapshot of the current keys.
func (t *Table) Iterate() *Iterator {
	return NewIterator(t.Keys, t.Get)
}

// Iterator walks the entries of a keyed store. Entries removed after the
// snapshot was taken are skipped.
type Iterator struct {
	keys func() []string
	get  func(key string) (string, bool)

	snapshot []string
	pos      int
}

// NewIterator creates an iterator over the keys returned by keys, reading
// values through get.
func NewIterator(keys func() []string, get func(key string) (string, bool)) *Iterator {
	return &Iterator{keys: keys, get: get, snapshot: keys()}
}

// Next returns the next entry, ok is false once the iterator is exhausted.
func (it *Iterator) Next() (key, value string, ok bool) {
	for it.pos < len(it.snapshot) {
		key = it.snapshot[it.pos]
		it.pos++
		if value, ok = it.get(key); ok {
			return key, value, true
		}
	}
	return "", "", false
}

// Reset restarts the iterator with a fresh snapshot.
func (it *Iterator) Reset() {
	it.snapshot = it.keys()
	it.pos = 0
}
