//go:build unix

package commands

import (
	"strconv"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestKill(t *testing.T) {
	ts := newTestShell(t)

	cases := map[string]struct {
		src    string
		code   int
		stdout string
		stderr string
	}{
		"list-name":      {`kill -l KILL`, 0, "9\n", ""},
		"list-number":    {`kill -l 9`, 0, "KILL\n", ""},
		"list-status":    {`kill -l 143`, 0, "TERM\n", ""},
		"list-bad":       {`kill -l NOPE`, 1, "", "kill: NOPE: invalid signal specification\n"},
		"bad-signal":     {`kill -s NOPE 1`, 1, "", "kill: NOPE: invalid signal specification\n"},
		"existence":      {`kill -0 $$`, 0, "", ""},
		"existence-long": {`kill -s 0 $$`, 0, "", ""},
		"not-a-pid":      {`kill abc`, 1, "", "kill: abc: arguments must be process or job IDs\n"},
		"no-job":         {`kill %42`, 1, "", "kill: %42: no such job\n"},
	}

	for tn, tc := range cases {
		t.Run(tn, func(t *testing.T) {
			code, stdout, stderr := ts.run(tc.src)
			assert.Equal(t, tc.code, code)
			assert.Equal(t, tc.stdout, stdout)
			assert.Equal(t, tc.stderr, stderr)
		})
	}

	t.Run("no-such-process", func(t *testing.T) {
		code, _, stderr := ts.run(`kill 2147483647`)
		assert.Equal(t, ExitFailure, code)
		assert.True(t, strings.HasPrefix(stderr, "kill: (2147483647) - "), stderr)
	})

	t.Run("usage", func(t *testing.T) {
		code, _, stderr := ts.run(`kill`)
		assert.Equal(t, ExitUsage, code)
		assert.Contains(t, stderr, "usage: kill")
	})

	t.Run("background-job", func(t *testing.T) {
		_, stdout, _ := ts.run(`sleep 30 & kill $!; wait $!; echo $?`)
		assert.Equal(t, "143\n", stdout)
	})

	t.Run("job-spec", func(t *testing.T) {
		ts.run(`sleep 30 &`)
		jobs := ts.Jobs.List()
		if assert.Len(t, jobs, 1) {
			id := jobs[0].ID
			_, stdout, _ := ts.run(`kill -s KILL %` + strconv.Itoa(id) + `; wait; echo done`)
			assert.Equal(t, "done\n", stdout)
			assert.False(t, jobs[0].Alive())
		}
	})
}
