//go:build unix

package commands

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestFunctions(t *testing.T) {
	cases := map[string]struct {
		src    string
		code   int
		stdout string
	}{
		"positional-restored": {
			`set -- outer; f() { echo $1; }; f inner; echo $1`, 0, "inner\nouter\n",
		},
		"return-default-status": {
			`f() { false; return; }; f; echo $?`, 0, "1\n",
		},
		"return-truncates": {
			`f() { return 257; }; f; echo $?`, 0, "1\n",
		},
		"return-stops-loop": {
			`f() { while true; do return 2; done; }; f; echo $?`, 0, "2\n",
		},
		"local-shadows-nested": {
			`x=0; outer() { local x=1; inner; echo "outer $x"; }; inner() { x=2; }; outer; echo "global $x"`,
			0, "outer 2\nglobal 0\n",
		},
		"local-listing": {
			`f() { local b=2 a=1; local; }; f`, 0, "a='1'\nb='2'\n",
		},
		"prefix-assignment-is-local": {
			`f() { echo $V; }; V=set f; echo ${V-unset}`, 0, "set\nunset\n",
		},
		"redefine": {
			`f() { echo one; }; f() { echo two; }; f`, 0, "two\n",
		},
		"redirected-body": {
			`f() { echo hidden; } > /dev/null; f; echo shown`, 0, "shown\n",
		},
	}

	for tn, tc := range cases {
		t.Run(tn, func(t *testing.T) {
			ts := newTestShell(t)
			code, stdout, stderr := ts.run(tc.src)
			assert.Equal(t, tc.code, code, stderr)
			assert.Equal(t, tc.stdout, stdout, stderr)
		})
	}
}

func TestFunctionErrors(t *testing.T) {
	ts := newTestShell(t)

	code, _, stderr := ts.run(`local x=1`)
	assert.Equal(t, ExitFailure, code)
	assert.Equal(t, "local: can only be used in a function\n", stderr)

	code, _, stderr = ts.run(`return 1`)
	assert.Equal(t, ExitFailure, code)
	assert.Equal(t, "return: can only `return' from a function\n", stderr)

	code, _, stderr = ts.run(`f() { f; }; f`)
	assert.Equal(t, ExitFailure, code)
	assert.Contains(t, stderr, "maximum function nesting level exceeded (1000)")
	assert.Equal(t, 0, ts.Store.Frames.Depth())
}

func TestGetopts(t *testing.T) {
	cases := map[string]struct {
		src    string
		stdout string
		stderr string
	}{
		"separate-argument": {
			`while getopts ab: opt -a -b val rest; do echo "$opt ${OPTARG-}"; done; echo $OPTIND`,
			"a \nb val\n4\n", "",
		},
		"clustered": {
			`while getopts xyz: opt -xyzarg; do echo "$opt ${OPTARG-}"; done; echo $OPTIND`,
			"x \ny \nz arg\n2\n", "",
		},
		"double-dash": {
			`while getopts a opt -a -- -a; do echo $opt; done; echo $OPTIND`,
			"a\n3\n", "",
		},
		"illegal": {
			`getopts a opt -q; echo "$opt ${OPTARG-unset}"`,
			"? unset\n", "getopts: illegal option -- q\n",
		},
		"illegal-silent": {
			`getopts :a opt -q; echo "$opt $OPTARG"`,
			"? q\n", "",
		},
		"missing-argument": {
			`getopts a: opt -a; echo "$opt"`,
			"?\n", "getopts: option requires an argument -- a\n",
		},
		"missing-argument-silent": {
			`getopts :a: opt -a; echo "$opt $OPTARG"`,
			": a\n", "",
		},
		"positional": {
			`set -- -v file; getopts v opt; echo "$opt $OPTIND"`,
			"v 2\n", "",
		},
		"reset": {
			`getopts ab opt -ab; OPTIND=1; getopts ab opt -ba; echo $opt`,
			"b\n", "",
		},
	}

	for tn, tc := range cases {
		t.Run(tn, func(t *testing.T) {
			ts := newTestShell(t)
			_, stdout, stderr := ts.run(tc.src)
			assert.Equal(t, tc.stdout, stdout)
			assert.Equal(t, tc.stderr, stderr)
		})
	}
}
