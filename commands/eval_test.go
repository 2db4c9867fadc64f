//go:build unix

package commands

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEval(t *testing.T) {
	ts := newTestShell(t)

	_, stdout, _ := ts.run(`eval 'A=1; echo $A'`)
	assert.Equal(t, "1\n", stdout)

	_, stdout, _ = ts.run(`CMD='echo built'; eval $CMD up`)
	assert.Equal(t, "built up\n", stdout)

	code, _, _ := ts.run(`eval`)
	assert.Equal(t, ExitSuccess, code)

	code, _, _ = ts.run(`eval false`)
	assert.Equal(t, ExitFailure, code)
}

func TestCommandLookup(t *testing.T) {
	ts := newTestShell(t)
	ts.run(`fn() { :; }`)

	cases := map[string]struct {
		src    string
		code   int
		stdout string
	}{
		"type-builtin":   {`type cd`, 0, "cd is a shell builtin\n"},
		"type-function":  {`type fn`, 0, "fn is a function\n"},
		"type-kind":      {`type -t fn cd sh`, 0, "function\nbuiltin\nfile\n"},
		"type-missing":   {`type no-such-cmd`, 1, ""},
		"type-path":      {`type -p cd`, 0, ""},
		"type-path-file": {`type -p /bin/sh`, 0, "/bin/sh\n"},
		"command-v":      {`command -v cd`, 0, "cd\n"},
		"command-v-file": {`command -v /bin/sh`, 0, "/bin/sh\n"},
		"command-V":      {`command -V fn`, 0, "fn is a function\n"},
		"command-v-miss": {`command -v no-such-cmd`, 1, ""},
	}

	for tn, tc := range cases {
		t.Run(tn, func(t *testing.T) {
			code, stdout, _ := ts.run(tc.src)
			assert.Equal(t, tc.code, code)
			assert.Equal(t, tc.stdout, stdout)
		})
	}

	t.Run("hashed", func(t *testing.T) {
		ts.run(`hash -p /bin/sh sh`)
		_, stdout, _ := ts.run(`type sh`)
		assert.Equal(t, "sh is hashed (/bin/sh)\n", stdout)
	})
}

func TestCommandSkipsFunctions(t *testing.T) {
	ts := newTestShell(t)

	_, stdout, _ := ts.run(`echo() { printf 'fn\n'; }; echo x; command echo real`)
	assert.Equal(t, "fn\nreal\n", stdout)

	_, stdout, _ = ts.run(`command -p echo default path`)
	assert.Equal(t, "default path\n", stdout)

	_, stdout, _ = ts.run(`PATH=; command -p ls -d /`)
	assert.Equal(t, "/\n", stdout)
}

func TestBuiltinCmd(t *testing.T) {
	ts := newTestShell(t)

	_, stdout, _ := ts.run(`echo() { printf 'fn\n'; }; builtin echo x`)
	assert.Equal(t, "x\n", stdout)

	code, _, stderr := ts.run(`builtin ls`)
	assert.Equal(t, ExitFailure, code)
	assert.Equal(t, "builtin: ls: not a shell builtin\n", stderr)
}

func TestExec(t *testing.T) {
	t.Run("not-found-exits", func(t *testing.T) {
		ts := newTestShell(t)
		_, stdout, stderr := ts.run(`exec /no/such/program; echo after`)
		assert.Empty(t, stdout)
		assert.Equal(t, "exec: /no/such/program: not found\n", stderr)
		assert.Equal(t, ExitNotFound, ts.ExitCode())
	})

	t.Run("not-found-interactive", func(t *testing.T) {
		ts := newTestShell(t)
		ts.Interactive = true
		code, stdout, _ := ts.run(`exec /no/such/program; echo after`)
		assert.Equal(t, ExitSuccess, code)
		assert.Equal(t, "after\n", stdout)
	})

	t.Run("no-arguments", func(t *testing.T) {
		ts := newTestShell(t)
		code, _, _ := ts.run(`exec`)
		assert.Equal(t, ExitSuccess, code)
	})

	subshells := map[string]struct {
		src    string
		stdout string
	}{
		"command-substitution": {`x=$(exec /bin/echo hi); echo "got [$x]"`, "got [hi]\n"},
		"subshell":             {`(exec /bin/true); echo after`, "after\n"},
		"subshell-status":      {`(exec /bin/sh -c 'exit 6'; echo skipped); echo $?`, "6\n"},
		"subshell-not-found":   {`(exec /no/such/program; echo skipped); echo $?`, "127\n"},
		"pipeline-stage":       {`exec /bin/echo piped | tr a-z A-Z; echo after`, "PIPED\nafter\n"},
	}
	for tn, tc := range subshells {
		t.Run(tn, func(t *testing.T) {
			ts := newTestShell(t)
			_, stdout, _ := ts.run(tc.src)
			assert.Equal(t, tc.stdout, stdout)
			assert.False(t, ts.Quit)
		})
	}
}

func TestSource(t *testing.T) {
	ts := newTestShell(t)
	script := filepath.Join(t.TempDir(), "lib.sh")
	require.NoError(t, os.WriteFile(script, []byte("SOURCED=yes\necho \"sourced $1\"\n"), 0644))

	_, stdout, _ := ts.run(`set -- outer; . ` + script + ` inner; echo "$SOURCED $1"`)
	assert.Equal(t, "sourced inner\nyes outer\n", stdout)

	code, _, stderr := ts.run(`source /no/such/file`)
	assert.Equal(t, ExitFailure, code)
	assert.Contains(t, stderr, "no such file or directory")
}

func TestExitBuiltin(t *testing.T) {
	ts := newTestShell(t)
	ts.run(`exit nope`)
	assert.True(t, ts.Quit)
	assert.Equal(t, ExitUsage, ts.ExitCode())
}
