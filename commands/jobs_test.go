//go:build unix

package commands

import (
	"strconv"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestJobs(t *testing.T) {
	ts := newTestShell(t)

	t.Run("pids", func(t *testing.T) {
		_, stdout, _ := ts.run(`sleep 30 & jobs -p; echo $!`)
		lines := strings.Split(strings.TrimSpace(stdout), "\n")
		require.Len(t, lines, 2)
		assert.Equal(t, lines[1], lines[0])
		ts.run(`kill $!; wait`)
	})

	t.Run("finished-reported-once", func(t *testing.T) {
		ts.run(`/bin/sh -c 'exit 4' &`)
		job := ts.Jobs.List()[0]
		job.Wait()

		_, stdout, _ := ts.run(`jobs`)
		assert.Equal(t, "["+strconv.Itoa(job.ID)+"]  Exit 4  /bin/sh -c exit 4\n", stdout)

		_, stdout, _ = ts.run(`jobs`)
		assert.Empty(t, stdout)
	})

	t.Run("long", func(t *testing.T) {
		ts.run(`sleep 30 &`)
		job := ts.Jobs.List()[0]

		_, stdout, _ := ts.run(`jobs -l`)
		assert.Contains(t, stdout, strconv.Itoa(job.Pid))
		assert.Contains(t, stdout, "sleep 30")
		ts.run(`kill $!; wait`)
	})
}

func TestWait(t *testing.T) {
	ts := newTestShell(t)

	t.Run("status", func(t *testing.T) {
		_, stdout, _ := ts.run(`/bin/sh -c 'exit 6' & wait $!; echo $?`)
		assert.Equal(t, "6\n", stdout)
		assert.Empty(t, ts.Jobs.List())
	})

	t.Run("all", func(t *testing.T) {
		code, _, _ := ts.run(`/bin/sh -c 'exit 1' & /bin/sh -c 'exit 2' & wait`)
		assert.Equal(t, ExitSuccess, code)
		assert.Empty(t, ts.Jobs.List())
	})

	t.Run("not-a-child", func(t *testing.T) {
		code, _, stderr := ts.run(`wait 1`)
		assert.Equal(t, ExitNotFound, code)
		assert.Equal(t, "wait: pid 1 is not a child of this shell\n", stderr)
	})

	t.Run("last-background-pid", func(t *testing.T) {
		_, stdout, _ := ts.run(`echo ${!:-none}`)
		assert.NotEqual(t, "none\n", stdout)
	})
}
