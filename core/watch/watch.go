// Package watch re-runs a shell command whenever a file or directory
// changes.
package watch

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/josephlewis42/procsh/core/logger"
	"github.com/josephlewis42/procsh/core/proc"
	"golang.org/x/sync/errgroup"
)

// Runner runs a process to completion.
type Runner interface {
	Run(req *proc.Request) (int, error)
}

// Watcher runs Command through Shell each time Backend reports a change
// that Debounce lets through.
type Watcher struct {
	Path    string
	Command string
	// Shell is the absolute path of the shell used as `Shell -c Command`.
	Shell string
	Env   []string
	Stdio proc.Stdio

	Interval time.Duration
	Backend  Backend
	Debounce *Debouncer
	Runner   Runner
	Log      *logger.SessionLogger
}

// CommandLine joins words into a command line that `sh -c` splits back into
// the same words.
func CommandLine(words []string) string {
	quoted := make([]string, len(words))
	for i, word := range words {
		quoted[i] = "'" + strings.ReplaceAll(word, "'", `'\''`) + "'"
	}
	return strings.Join(quoted, " ")
}

// Watch loops until ctx is done. It returns 0 when stopped and 1 if the
// backend failed.
func (w *Watcher) Watch(ctx context.Context) int {
	fmt.Fprintf(w.Stdio.Out, "Watching %s (interval %v), press Ctrl-C to stop\n", w.Path, w.Interval)

	for {
		changed, err := w.Backend.Wait(ctx)
		switch {
		case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded), ctx.Err() != nil:
			fmt.Fprintf(w.Stdio.Out, "Stopped watching %s\n", w.Path)
			return proc.ExitSuccess
		case err != nil:
			fmt.Fprintf(w.Stdio.Err, "watch: %v\n", err)
			return proc.ExitFailure
		case !changed:
			continue
		case !w.Debounce.Allow():
			continue
		}

		code := w.run()
		w.Log.WatchTriggered(w.Path, code)
		if code != proc.ExitSuccess {
			fmt.Fprintf(w.Stdio.Err, "watch: command exited with status %d\n", code)
		}
	}
}

func (w *Watcher) run() int {
	req := &proc.Request{
		Path:  w.Shell,
		Argv:  []string{w.Shell, "-c", w.Command},
		Env:   w.Env,
		Files: proc.NewFiles(w.Stdio),
	}
	code, err := w.Runner.Run(req)
	if err != nil {
		fmt.Fprintf(w.Stdio.Err, "watch: %v\n", err)
	}
	return code
}

// WatchSignals runs Watch until ctx is done or a signal arrives on sigs.
func (w *Watcher) WatchSignals(ctx context.Context, sigs <-chan os.Signal) int {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		select {
		case <-sigs:
			cancel()
		case <-ctx.Done():
		}
		return nil
	})

	code := proc.ExitSuccess
	g.Go(func() error {
		defer cancel()
		code = w.Watch(ctx)
		return nil
	})
	g.Wait()
	return code
}
