//go:build unix

package commands

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestShellQuote(t *testing.T) {
	cases := map[string]string{
		"":         "''",
		"plain":    "'plain'",
		"two word": "'two word'",
		"it's":     `'it'\''s'`,
	}
	for in, expected := range cases {
		t.Run(in, func(t *testing.T) {
			assert.Equal(t, expected, shellQuote(in))
		})
	}
}

func TestExport(t *testing.T) {
	ts := newTestShell(t)

	_, stdout, _ := ts.run(`export FOO=bar; /usr/bin/env | grep '^FOO='`)
	assert.Equal(t, "FOO=bar\n", stdout)

	_, stdout, _ = ts.run(`export -p`)
	assert.Contains(t, stdout, "export FOO='bar'\n")

	_, stdout, _ = ts.run(`NOTEXPORTED=1; /usr/bin/env | grep -c '^NOTEXPORTED='`)
	assert.Equal(t, "0\n", stdout)

	_, stdout, _ = ts.run(`export -n FOO; /usr/bin/env | grep -c '^FOO='; echo $FOO`)
	assert.Equal(t, "0\nbar\n", stdout)

	code, _, stderr := ts.run(`export 1BAD=x`)
	assert.Equal(t, ExitFailure, code)
	assert.Contains(t, stderr, "not a valid identifier")
}

func TestSet(t *testing.T) {
	ts := newTestShell(t)

	t.Run("letters", func(t *testing.T) {
		ts.run(`set -eu`)
		assert.True(t, ts.Store.Option(OptErrexit))
		assert.True(t, ts.Store.Option(OptNounset))
		ts.run(`set +e +u`)
		assert.False(t, ts.Store.Option(OptErrexit))
		assert.False(t, ts.Store.Option(OptNounset))
	})

	t.Run("long", func(t *testing.T) {
		ts.run(`set -o noclobber`)
		assert.True(t, ts.Store.Option(OptNoclobber))

		_, stdout, _ := ts.run(`set +o`)
		assert.Contains(t, stdout, "set -o noclobber\n")
		assert.Contains(t, stdout, "set +o xtrace\n")

		_, stdout, _ = ts.run(`set -o`)
		assert.Regexp(t, `(?m)^noclobber +on$`, stdout)
		assert.Regexp(t, `(?m)^xtrace +off$`, stdout)

		ts.run(`set +o noclobber`)
		assert.False(t, ts.Store.Option(OptNoclobber))
	})

	t.Run("bad-option", func(t *testing.T) {
		code, _, stderr := ts.run(`set -o bogus`)
		assert.Equal(t, ExitFailure, code)
		assert.Equal(t, "set: bogus: invalid option name\n", stderr)

		code, _, _ = ts.run(`set -Q`)
		assert.Equal(t, ExitUsage, code)
	})

	t.Run("assignments-then-positional", func(t *testing.T) {
		_, stdout, _ := ts.run(`set A=1 B=2 x y; echo $A $B $# $1`)
		assert.Equal(t, "1 2 2 x\n", stdout)
	})

	t.Run("clear-positional", func(t *testing.T) {
		_, stdout, _ := ts.run(`set -- a; set --; echo $#`)
		assert.Equal(t, "0\n", stdout)
	})

	t.Run("list", func(t *testing.T) {
		_, stdout, _ := ts.run(`LISTED='a b'; set`)
		assert.Contains(t, stdout, "LISTED='a b'\n")
	})
}

func TestUnset(t *testing.T) {
	ts := newTestShell(t)

	_, stdout, _ := ts.run(`X=1; unset X; echo ${X-gone}`)
	assert.Equal(t, "gone\n", stdout)

	_, stdout, _ = ts.run(`f() { echo f; }; unset f; f`)
	assert.Empty(t, stdout)

	_, stdout, _ = ts.run(`g() { echo g; }; g=1; unset -f g; g; echo $g`)
	assert.Equal(t, "1\n", stdout)

	_, stdout, _ = ts.run(`h() { echo h; }; unset -v h; h`)
	assert.Equal(t, "h\n", stdout)
}

func TestPathChangeResetsCache(t *testing.T) {
	ts := newTestShell(t)
	ts.run(`ls / > /dev/null`)
	_, ok := ts.Store.Hash.Get("ls")
	assert.True(t, ok)

	ts.run(`PATH=/bin:/usr/bin`)
	_, ok = ts.Store.Hash.Get("ls")
	assert.False(t, ok)
}

func TestExportFunction(t *testing.T) {
	ts := newTestShell(t)

	_, stdout, _ := ts.run(`greet() { echo "hi $1"; }; export -f greet; /usr/bin/env | grep -c '^BASH_FUNC_greet%%=() '`)
	assert.Equal(t, "1\n", stdout)

	_, stdout, _ = ts.run(`helper() { :; }; /usr/bin/env | grep -c '^BASH_FUNC_helper'`)
	assert.Equal(t, "0\n", stdout)

	// A child shell seeded with the environment defines the function.
	child := newTestShell(t)
	child.Shell = NewShell(child.Config, child.Log, ts.environ(), child.Stdio())
	_, stdout, _ = child.run(`greet child; export -pf`)
	assert.Contains(t, stdout, "hi child\n")
	assert.Contains(t, stdout, "export -f greet\n")
	_, ok := child.Store.Var("BASH_FUNC_greet%%")
	assert.False(t, ok)

	_, stdout, _ = ts.run(`export -nf greet; /usr/bin/env | grep -c '^BASH_FUNC_greet'`)
	assert.Equal(t, "0\n", stdout)
}

func TestSplitFunctionEnv(t *testing.T) {
	cases := map[string]struct {
		kv   string
		name string
		body string
		ok   bool
	}{
		"function":    {"BASH_FUNC_f%%=() { echo x; }", "f", "{ echo x; }", true},
		"plain":       {"PATH=/bin", "", "", false},
		"no-suffix":   {"BASH_FUNC_f=() { :; }", "", "", false},
		"bad-name":    {"BASH_FUNC_1f%%=() { :; }", "", "", false},
		"not-a-body":  {"BASH_FUNC_f%%=echo", "", "", false},
		"empty-value": {"BASH_FUNC_f%%", "", "", false},
	}
	for tn, tc := range cases {
		t.Run(tn, func(t *testing.T) {
			name, body, ok := splitFunctionEnv(tc.kv)
			assert.Equal(t, tc.ok, ok)
			assert.Equal(t, tc.name, name)
			assert.Equal(t, tc.body, body)
		})
	}
}
