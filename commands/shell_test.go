//go:build unix

package commands

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/josephlewis42/procsh/core/config"
	"github.com/josephlewis42/procsh/core/logger"
	"github.com/josephlewis42/procsh/core/proc"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type testShell struct {
	*Shell
	stdout *bytes.Buffer
	stderr *bytes.Buffer
}

func newTestShell(t *testing.T) *testShell {
	t.Helper()

	// Builtins like cd change the process's directory.
	wd, err := os.Getwd()
	require.NoError(t, err)
	t.Cleanup(func() { os.Chdir(wd) })

	ts := &testShell{stdout: &bytes.Buffer{}, stderr: &bytes.Buffer{}}
	ts.Shell = NewShell(
		config.Default(),
		logger.Nop().NewSession(),
		[]string{"PATH=/usr/bin:/bin", "HOME=" + t.TempDir()},
		proc.Stdio{In: strings.NewReader(""), Out: ts.stdout, Err: ts.stderr},
	)
	t.Cleanup(func() { ts.Close() })
	return ts
}

// run executes src and returns its status with the captured output, the
// buffers are reset afterwards.
func (ts *testShell) run(src string) (int, string, string) {
	code := ts.Run(src)
	out, errOut := ts.stdout.String(), ts.stderr.String()
	ts.stdout.Reset()
	ts.stderr.Reset()
	return code, out, errOut
}

func TestRunShell(t *testing.T) {
	cases := map[string]struct {
		src    string
		code   int
		stdout string
	}{
		"echo":          {`echo "hello"`, 0, "hello\n"},
		"external-echo": {`/bin/echo "hello" world`, 0, "hello world\n"},
		"echo-n":        {`echo -n a; echo b`, 0, "ab\n"},
		"echo-e":        {`echo -e 'a\tb'`, 0, "a\tb\n"},

		// Ensure environment expansion works as expected:
		"no-expand-args":     {`A=B AA=$A$A echo $AA`, 0, "\n"},
		"expand-after-set":   {`A=B AA=$A$A; echo $AA`, 0, "BB\n"},
		"expand-within-prog": {`A=B AA=$A$A /usr/bin/env | grep '^AA='`, 0, "AA=BB\n"},
		"prefix-restored":    {`A=1; A=2 true; echo $A`, 0, "1\n"},
		"special-status":     {`false; echo $?`, 0, "1\n"},
		"default-value":      {`echo ${UNSET:-fallback}`, 0, "fallback\n"},
		"command-subst":      {`X=$(echo inner); echo "[$X]"`, 0, "[inner]\n"},
		"subst-exit":         {`X=$(exit 3); echo $?`, 0, "3\n"},
		"single-quotes":      {`echo '$HOME'`, 0, "$HOME\n"},

		// Control flow
		"and":        {`true && echo yes`, 0, "yes\n"},
		"and-skip":   {`false && echo yes`, 1, ""},
		"or":         {`false || echo no`, 0, "no\n"},
		"negate":     {`! false && echo negated`, 0, "negated\n"},
		"if-else":    {`if false; then echo a; elif true; then echo b; else echo c; fi`, 0, "b\n"},
		"while":      {`i=x; while [ "$i" != xxx ]; do i=${i}x; done; echo $i`, 0, "xxx\n"},
		"until":      {`i=; until [ "$i" = yy ]; do i=${i}y; done; echo $i`, 0, "yy\n"},
		"block":      {`{ echo a; echo b; } | wc -l | tr -d ' '`, 0, "2\n"},
		"subshell":   {`(exit 4); echo $?`, 0, "4\n"},
		"exit":       {`echo before; exit 5; echo after`, 5, "before\n"},
		"pipe":       {`echo hello | tr a-z A-Z`, 0, "HELLO\n"},
		"pipe-shell": {`echo "echo nested" | /bin/sh`, 0, "nested\n"},

		// Functions
		"function": {`greet() { echo "hi $1"; }; greet there`, 0, "hi there\n"},
		"function-return": {
			`f() { return 3; echo unreachable; }; f; echo $?`, 0, "3\n",
		},
		"function-local": {
			`x=global; f() { local x=inner; echo $x; }; f; echo $x`, 0, "inner\nglobal\n",
		},
		"function-args": {
			`f() { echo $# "$@"; }; f a b c; echo $#`, 0, "3 a b c\n0\n",
		},

		// Options
		"errexit": {`set -e; false; echo unreachable`, 1, ""},
		"errexit-condition": {
			`set -e; if false; then :; fi; false || true; echo reached`, 0, "reached\n",
		},
		"set-positional": {`set -- a b; echo $2 $#`, 0, "b 2\n"},
	}

	for tn, tc := range cases {
		t.Run(tn, func(t *testing.T) {
			ts := newTestShell(t)
			code, stdout, stderr := ts.run(tc.src)
			ts.Close()

			assert.Equal(t, tc.stdout, stdout, "stderr: %s", stderr)
			assert.Equal(t, tc.code, ts.ExitCode())
			_ = code
		})
	}
}

func TestRedirections(t *testing.T) {
	ts := newTestShell(t)
	dir := t.TempDir()
	out := filepath.Join(dir, "out")

	t.Run("write-then-read", func(t *testing.T) {
		code, stdout, _ := ts.run(`echo hello > ` + out + `; cat < ` + out)
		assert.Equal(t, 0, code)
		assert.Equal(t, "hello\n", stdout)
	})

	t.Run("append", func(t *testing.T) {
		ts.run(`echo one > ` + out + `; echo two >> ` + out)
		data, err := os.ReadFile(out)
		require.NoError(t, err)
		assert.Equal(t, "one\ntwo\n", string(data))
	})

	t.Run("stderr-to-stdout", func(t *testing.T) {
		_, stdout, stderr := ts.run(`echo moved 1>&2`)
		assert.Empty(t, stdout)
		assert.Equal(t, "moved\n", stderr)
	})

	t.Run("noclobber", func(t *testing.T) {
		code, _, stderr := ts.run(`set -C; echo again > ` + out)
		assert.Equal(t, ExitFailure, code)
		assert.Contains(t, stderr, "file exists")

		code, _, _ = ts.run(`echo forced >| ` + out + `; set +C`)
		assert.Equal(t, 0, code)
		data, _ := os.ReadFile(out)
		assert.Equal(t, "forced\n", string(data))
	})

	t.Run("missing-dir", func(t *testing.T) {
		code, _, stderr := ts.run(`echo hello > /does/not/exist`)
		assert.Equal(t, ExitFailure, code)
		assert.Contains(t, stderr, "no such file or directory")
	})

	t.Run("block", func(t *testing.T) {
		ts.run(`{ echo a; echo b; } > ` + out)
		data, _ := os.ReadFile(out)
		assert.Equal(t, "a\nb\n", string(data))
	})
}

func TestExternalCommands(t *testing.T) {
	ts := newTestShell(t)

	t.Run("not-found", func(t *testing.T) {
		code, _, stderr := ts.run(`no-such-command-here`)
		assert.Equal(t, ExitNotFound, code)
		assert.Contains(t, stderr, "no-such-command-here: command not found")
	})

	t.Run("not-executable", func(t *testing.T) {
		script := filepath.Join(t.TempDir(), "script")
		require.NoError(t, os.WriteFile(script, []byte("#!/bin/sh\n"), 0644))
		code, _, _ := ts.run(script)
		assert.Equal(t, ExitNotExecutable, code)
	})

	t.Run("exit-status", func(t *testing.T) {
		code, _, _ := ts.run(`/bin/sh -c 'exit 7'`)
		assert.Equal(t, 7, code)
	})

	t.Run("killed-by-signal", func(t *testing.T) {
		code, _, _ := ts.run(`/bin/sh -c 'kill -9 $$'`)
		assert.Equal(t, 128+9, code)
	})

	t.Run("background", func(t *testing.T) {
		code, stdout, _ := ts.run(`/bin/sh -c 'exit 3' & wait $!; echo $?`)
		assert.Equal(t, 0, code)
		assert.Equal(t, "3\n", stdout)
	})

	t.Run("caches-path", func(t *testing.T) {
		ts.Resolver.Reset()
		ts.run(`ls / > /dev/null; ls / > /dev/null`)
		path, ok := ts.Store.Hash.Get("ls")
		assert.True(t, ok)
		assert.True(t, filepath.IsAbs(path))
		assert.Equal(t, 2, ts.Resolver.Hits("ls"))
	})
}

func TestXtrace(t *testing.T) {
	ts := newTestShell(t)
	_, _, stderr := ts.run(`set -x; A=1 echo hi`)
	assert.Contains(t, stderr, "+ A=1 echo hi\n")
}

func TestNounset(t *testing.T) {
	ts := newTestShell(t)
	code, stdout, stderr := ts.run(`set -u; echo $NOT_SET_ANYWHERE`)
	assert.Equal(t, ExitFailure, code)
	assert.Empty(t, stdout)
	assert.Contains(t, stderr, "NOT_SET_ANYWHERE")
}

func TestSyntaxError(t *testing.T) {
	ts := newTestShell(t)
	code, _, stderr := ts.run(`echo (`)
	assert.Equal(t, ExitUsage, code)
	assert.Contains(t, stderr, "syntax error")
}

func TestExitTrapOnClose(t *testing.T) {
	ts := newTestShell(t)
	ts.run(`trap 'echo bye' EXIT; exit 3`)
	assert.Equal(t, 3, ts.Close())
	assert.Equal(t, "bye\n", ts.stdout.String())
}

func TestSubshellEnvironment(t *testing.T) {
	dir := evalTempDir(t)
	other := evalTempDir(t)

	cases := map[string]struct {
		src    string
		stdout string
	}{
		"cd":                {`cd ` + dir + `; (cd ` + other + `); pwd`, dir + "\n"},
		"cd-substitution":   {`cd ` + dir + `; x=$(cd ` + other + `; pwd); pwd; echo $x`, dir + "\n" + other + "\n"},
		"assignment":        {`(X=1); echo "X=[$X]"`, "X=[]\n"},
		"overwrite":         {`X=outer; (X=inner; echo $X); echo $X`, "inner\nouter\n"},
		"unset":             {`X=kept; (unset X); echo $X`, "kept\n"},
		"export":            {`(export SUBONLY=1); /usr/bin/env | grep -c SUBONLY=`, "0\n"},
		"substitution-vars": {`x=$(Y=2; echo $Y); echo "$x [$Y]"`, "2 []\n"},
		"options":           {`(set -C); set +o | grep noclobber`, "set +o noclobber\n"},
		"function":          {`(f() { echo inner; }); f 2>/dev/null || echo none`, "none\n"},
		"function-redefine": {`f() { echo outer; }; (f() { echo inner; }; f); f`, "inner\nouter\n"},
		"positional":        {`set -- a b; (set -- c; echo $1); echo $1 $#`, "c\na 2\n"},
		"exit":              {`(exit 3); echo $?; echo alive`, "3\nalive\n"},
		"nested":            {`X=0; (X=1; (X=2; echo $X); echo $X); echo $X`, "2\n1\n0\n"},
	}
	for tn, tc := range cases {
		t.Run(tn, func(t *testing.T) {
			ts := newTestShell(t)
			_, stdout, stderr := ts.run(tc.src)
			assert.Equal(t, tc.stdout, stdout, "stderr: %s", stderr)
			assert.False(t, ts.Quit)
		})
	}
}
