package commands

import (
	"sort"
	"strings"
)

// Exported functions travel in the environment the way bash writes them:
// BASH_FUNC_name%%=() body
const (
	funcEnvPrefix = "BASH_FUNC_"
	funcEnvSuffix = "%%"
	funcEnvValue  = "() "
)

// splitFunctionEnv decodes an exported function entry.
func splitFunctionEnv(kv string) (name, body string, ok bool) {
	key, value, found := strings.Cut(kv, "=")
	if !found || !strings.HasPrefix(key, funcEnvPrefix) || !strings.HasSuffix(key, funcEnvSuffix) {
		return "", "", false
	}
	name = strings.TrimSuffix(strings.TrimPrefix(key, funcEnvPrefix), funcEnvSuffix)
	if !nameRegex.MatchString(name) || !strings.HasPrefix(value, funcEnvValue) {
		return "", "", false
	}
	return name, strings.TrimPrefix(value, funcEnvValue), true
}

// importFunctions defines the exported functions found in environ and
// returns the remaining entries.
func (s *Shell) importFunctions(environ []string) []string {
	var rest []string
	for _, kv := range environ {
		if name, body, ok := splitFunctionEnv(kv); ok {
			s.functions[name] = body
			s.exportedFuncs[name] = true
			continue
		}
		rest = append(rest, kv)
	}
	return rest
}

// environ is the environment passed to child processes: exported variables
// followed by exported functions.
func (s *Shell) environ() []string {
	env := s.Store.Environ()
	var names []string
	for name := range s.exportedFuncs {
		if _, ok := s.functions[name]; ok {
			names = append(names, name)
		}
	}
	sort.Strings(names)
	for _, name := range names {
		env = append(env, funcEnvPrefix+name+funcEnvSuffix+"="+funcEnvValue+s.functions[name])
	}
	return env
}
