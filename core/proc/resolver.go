package proc

import (
	"strings"

	"github.com/josephlewis42/procsh/core/state"
	"github.com/spf13/afero"
)

// Resolver turns command names into executable paths, memoizing successful
// PATH searches in a hash table. Failed searches are never cached.
type Resolver struct {
	fs    afero.Fs
	cache *state.Table
	path  func() string

	hits  map[string]int
	scans int
}

// NewResolver creates a resolver. path is consulted on every search so PATH
// changes take effect without resetting the cache.
func NewResolver(fsys afero.Fs, cache *state.Table, path func() string) *Resolver {
	return &Resolver{
		fs:    fsys,
		cache: cache,
		path:  path,
		hits:  make(map[string]int),
	}
}

// Resolve returns the path for name, consulting the cache first.
func (r *Resolver) Resolve(name string) (string, error) {
	if strings.Contains(name, "/") {
		return LookPath(r.fs, "", name)
	}
	if cached, ok := r.cache.Get(name); ok {
		r.hits[name]++
		return cached, nil
	}
	found, err := r.Search(name)
	if err != nil {
		return "", err
	}
	if err := r.cache.Set(name, found); err != nil {
		return "", err
	}
	r.hits[name] = 1
	return found, nil
}

// Search scans PATH for name without touching the cache.
func (r *Resolver) Search(name string) (string, error) {
	return r.SearchPath(r.path(), name)
}

// SearchPath scans an explicit search path for name without touching the
// cache.
func (r *Resolver) SearchPath(path, name string) (string, error) {
	r.scans++
	return LookPath(r.fs, path, name)
}

// Cached returns the remembered path of name.
func (r *Resolver) Cached(name string) (string, bool) {
	return r.cache.Get(name)
}

// Remember scans PATH for name and replaces any cached entry.
func (r *Resolver) Remember(name string) (string, error) {
	found, err := r.Search(name)
	if err != nil {
		return "", err
	}
	if err := r.Add(name, found); err != nil {
		return "", err
	}
	return found, nil
}

// Add caches path for name without searching, as `hash -p` does.
func (r *Resolver) Add(name, path string) error {
	if err := r.cache.Set(name, path); err != nil {
		return err
	}
	r.hits[name] = 0
	return nil
}

// Forget drops the cached entry for name.
func (r *Resolver) Forget(name string) bool {
	delete(r.hits, name)
	return r.cache.Remove(name)
}

// Reset drops every cached entry.
func (r *Resolver) Reset() {
	r.cache.Clear()
	r.hits = make(map[string]int)
}

// Hits returns how many times the cached entry for name was used.
func (r *Resolver) Hits(name string) int {
	return r.hits[name]
}

// Scans returns the number of PATH searches performed.
func (r *Resolver) Scans() int {
	return r.scans
}
