//go:build unix

package commands

import (
	"os"
	"path/filepath"
	"syscall"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// stubInterrupts makes watch behave as if it was interrupted right away.
func stubInterrupts(t *testing.T) {
	t.Helper()
	saved := interruptSignals
	t.Cleanup(func() { interruptSignals = saved })

	interruptSignals = func(c chan<- os.Signal) func() {
		c <- syscall.SIGINT
		return func() {}
	}
}

func TestWatch(t *testing.T) {
	stubInterrupts(t)
	ts := newTestShell(t)
	dir := t.TempDir()

	code, stdout, stderr := ts.run(`watch -i 50 ` + dir + ` echo changed`)
	assert.Equal(t, ExitSuccess, code, stderr)
	assert.Contains(t, stdout, "Watching "+dir+" (interval 50ms)")
	assert.Contains(t, stdout, "Stopped watching "+dir)
}

func TestWatchErrors(t *testing.T) {
	stubInterrupts(t)
	ts := newTestShell(t)

	code, _, stderr := ts.run(`watch /tmp`)
	assert.Equal(t, ExitUsage, code)
	assert.Contains(t, stderr, "path and command required")

	ts.Config.Watch.Backend = "bogus"
	code, _, stderr = ts.run(`watch /tmp echo hi`)
	assert.Equal(t, ExitFailure, code)
	assert.Equal(t, "watch: unknown watch backend \"bogus\"\n", stderr)
}

// interruptAfter edits path once after watch starts, then interrupts it
// shortly after log has content.
func interruptAfter(t *testing.T, path, log string) {
	t.Helper()
	saved := interruptSignals
	t.Cleanup(func() { interruptSignals = saved })

	interruptSignals = func(c chan<- os.Signal) func() {
		go func() {
			time.Sleep(50 * time.Millisecond)
			if err := os.WriteFile(path, []byte("edited contents"), 0644); err != nil {
				t.Error(err)
			}
			deadline := time.Now().Add(10 * time.Second)
			for time.Now().Before(deadline) {
				if data, _ := os.ReadFile(log); len(data) > 0 {
					break
				}
				time.Sleep(10 * time.Millisecond)
			}
			// Leave room for a duplicate run to show up.
			time.Sleep(200 * time.Millisecond)
			c <- syscall.SIGINT
		}()
		return func() {}
	}
}

func TestWatchRunsCommandOnEdit(t *testing.T) {
	for _, backend := range []string{"event", "poll"} {
		t.Run(backend, func(t *testing.T) {
			dir := evalTempDir(t)
			path := filepath.Join(dir, "notes.txt")
			log := filepath.Join(dir, "ran.log")
			require.NoError(t, os.WriteFile(path, []byte("a"), 0644))
			interruptAfter(t, path, log)

			ts := newTestShell(t)
			ts.Config.Shell = "/bin/sh"
			ts.Config.Watch.Backend = backend
			ts.Config.Watch.PollIntervalMs = 10

			// Words keep their spaces and quotes when handed to the shell.
			code, stdout, stderr := ts.run(`watch -i 2000 ` + path + ` /bin/sh -c 'echo "$1" >> "$2"' sh 'ran once' ` + log)
			if backend == "event" && code == ExitFailure {
				t.Skipf("event notifications unavailable: %s", stderr)
			}

			assert.Equal(t, ExitSuccess, code, stderr)
			assert.Contains(t, stdout, "Watching "+path)
			assert.Contains(t, stdout, "Stopped watching "+path+"\n")
			data, err := os.ReadFile(log)
			require.NoError(t, err)
			assert.Equal(t, "ran once\n", string(data))
		})
	}
}
