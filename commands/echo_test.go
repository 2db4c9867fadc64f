//go:build unix

package commands

import (
	"bytes"
	"testing"

	"github.com/josephlewis42/procsh/core/proc"
	"github.com/stretchr/testify/assert"
)

func TestUnescape(t *testing.T) {
	cases := []struct {
		escaped  string
		expected string
	}{
		{"not escaped", "not escaped"},
		{`newline\n`, "newline\n"},
		{`double-escape\\n`, `double-escape\n`},
		{`double-escape\\n`, `double-escape\n`},
		// Octal
		{`\07`, string(rune(7))},
		{`\011`, "\t"},
		{`\0101`, "A"},
		// Hex
		{`\x7`, string(rune(07))},
		{`\x9`, "\t"},
		{`\x4A`, "J"},
		// Escape
		{`\e[0m`, "\033[0m"},
		{`\033[0m`, "\033[0m"},
		{`\0377`, "\xff"},
		// Unknown escapes are kept
		{`\q\x`, `\q\x`},
		{`trailing\`, `trailing\`},
	}

	for _, tc := range cases {
		t.Run(tc.escaped, func(t *testing.T) {
			actual := unescape(tc.escaped)

			assert.Equal(t, tc.expected, actual)
		})
	}
}

func TestEchoStandalone(t *testing.T) {
	out := &bytes.Buffer{}
	ctx := NewContext(proc.Stdio{Out: out, Err: out})

	assert.Equal(t, ExitSuccess, Echo(ctx, []string{"echo", "-e", `a\tb`}))
	assert.Equal(t, ExitSuccess, Echo(ctx, []string{"echo", "-n", "c"}))
	assert.Equal(t, "a\tb\nc", out.String())

	out.Reset()
	assert.Equal(t, ExitSuccess, Echo(ctx, []string{"echo", "-e", `stop\chere`, "never"}))
	assert.Equal(t, ExitSuccess, Echo(ctx, []string{"echo", "-eE", `\t`}))
	assert.Equal(t, "stop\\t\n", out.String())
}

func TestPrompt(t *testing.T) {
	ts := newTestShell(t)
	home := ts.Store.Getvar(EnvHome)
	ts.run("cd " + home)

	ts.SetVar(EnvUser, "alice")
	ts.SetVar(EnvPrompt, `\u:\w\e[0m> `)
	assert.Equal(t, "alice:~\033[0m> ", ts.prompt())
}
