//go:build unix

package commands

import (
	"bytes"
	"path/filepath"
	"strings"
	"testing"

	"github.com/josephlewis42/procsh/core/proc"
	"github.com/sebdah/goldie/v2"
	"github.com/stretchr/testify/assert"
)

func TestAllBuiltins(t *testing.T) {
	for _, name := range ListBuiltins() {
		t.Run(name, func(t *testing.T) {
			if AllBuiltins[name] == nil {
				t.Fatal("nil builtin", name)
			}
		})
	}
}

func TestBuiltinHelp(t *testing.T) {
	for _, name := range []string{"echo", "cd", "hash", "trap", "jobs", "unset", "watch"} {
		t.Run(name, func(t *testing.T) {
			ts := newTestShell(t)
			code, stdout, _ := ts.run(name + " --help")
			assert.Equal(t, ExitSuccess, code)
			assert.Contains(t, stdout, "usage: ")
		})
	}
}

type goldenTestSuite map[string]goldenTest

type goldenTest struct {
	Src string
}

// Run executes each case in a fresh shell and compares the combined output
// with testdata/golden/<TestName>/<case>.golden.
func (gts goldenTestSuite) Run(t *testing.T) {
	t.Helper()

	g := goldie.New(
		t,
		goldie.WithFixtureDir(filepath.Join("testdata", "golden")),
		goldie.WithDiffEngine(goldie.ColoredDiff),
		goldie.WithTestNameForDir(true),
	)

	for tn, tc := range gts {
		t.Run(tn, func(t *testing.T) {
			ts := newTestShell(t)
			out := &bytes.Buffer{}
			ts.stdio = proc.Stdio{In: strings.NewReader(""), Out: out, Err: out}

			if code := ts.Run(tc.Src); code != 0 {
				t.Fatalf("exit status %d: %s", code, out.String())
			}

			g.Assert(t, tn, out.Bytes())
		})
	}
}
