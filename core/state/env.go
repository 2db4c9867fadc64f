package state

import (
	"fmt"
	"os"
	"sort"
	"strings"
	"sync"
)

// SplitEnv splits a "key=value" pair, a missing '=' yields an empty value.
func SplitEnv(kv string) (string, string) {
	split := strings.SplitN(kv, "=", 2)
	key, value := split[0], ""
	if len(split) > 1 {
		value = split[1]
	}
	return key, value
}

// NewMapEnv creates a new environment backed by a map.
func NewMapEnv() *MapEnv {
	return &MapEnv{}
}

// NewMapEnvFromEnvList creates an environment from a list of "key=value"
// pairs like the one returned by os.Environ.
func NewMapEnvFromEnvList(environ []string) *MapEnv {
	out := &MapEnv{}

	for _, e := range environ {
		key, value := SplitEnv(e)
		if key == "" {
			continue
		}
		out.Setenv(key, value)
	}

	return out
}

// MapEnv implements an in-memory variable environment.
type MapEnv struct {
	rw  sync.RWMutex
	env map[string]string
}

// Unsetenv removes a single variable.
func (m *MapEnv) Unsetenv(key string) {
	m.rw.Lock()
	defer m.rw.Unlock()
	if m.env != nil {
		delete(m.env, key)
	}
}

// Setenv sets the value of the variable named by the key.
func (m *MapEnv) Setenv(key, value string) {
	m.rw.Lock()
	defer m.rw.Unlock()

	if m.env == nil {
		m.env = make(map[string]string)
	}
	m.env[key] = value
}

// LookupEnv retrieves the value of the variable named by the key. The boolean
// distinguishes an empty value from an unset one.
func (m *MapEnv) LookupEnv(key string) (string, bool) {
	m.rw.RLock()
	defer m.rw.RUnlock()

	val, ok := m.env[key]
	return val, ok
}

// Getenv retrieves the value of the variable named by the key.
func (m *MapEnv) Getenv(key string) string {
	val, _ := m.LookupEnv(key)
	return val
}

// ExpandEnv replaces ${var} or $var in the string.
func (m *MapEnv) ExpandEnv(s string) string {
	return os.Expand(s, m.Getenv)
}

// Keys returns the variable names in sorted order.
func (m *MapEnv) Keys() []string {
	m.rw.RLock()
	defer m.rw.RUnlock()

	keys := make([]string, 0, len(m.env))
	for k := range m.env {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// Environ returns a copy of the environment in "key=value" form, sorted by
// key so listings are stable within a run.
func (m *MapEnv) Environ() []string {
	var env []string
	for _, k := range m.Keys() {
		env = append(env, fmt.Sprintf("%s=%s", k, m.Getenv(k)))
	}
	return env
}

// Clearenv deletes all variables.
func (m *MapEnv) Clearenv() {
	m.rw.Lock()
	defer m.rw.Unlock()
	m.env = make(map[string]string)
}
