package commands

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/josephlewis42/procsh/core/watch"
)

// interruptSignals subscribes c to the signals that stop a watch and returns
// a function that unsubscribes it.
var interruptSignals = func(c chan<- os.Signal) (stop func()) {
	signal.Notify(c, os.Interrupt, syscall.SIGTERM)
	return func() { signal.Stop(c) }
}

// Watch implements the watch builtin: it re-runs a command each time a path
// changes until interrupted.
func Watch(ctx *Context, args []string) int {
	cmd := &SimpleCommand{
		Use:   "watch [-i ms] path command [arg ...]",
		Short: "Run a command every time a file or directory changes.",
	}
	opts := cmd.Flags()
	intervalMs := opts.Int('i', -1, "minimum milliseconds between runs", "ms")

	return cmd.Run(ctx, args, func() int {
		s, err := ctx.Shell()
		if err != nil {
			fmt.Fprintf(ctx.Stderr(), "%s: %v\n", args[0], err)
			return ExitFailure
		}
		rest := opts.Args()
		if len(rest) < 2 {
			return usageError(ctx, args, cmd.Use, errors.New("path and command required"))
		}

		interval := s.Config.Watch.Interval()
		if *intervalMs >= 0 {
			interval = time.Duration(*intervalMs) * time.Millisecond
		}

		backend, err := watch.New(s.Config.Watch.Backend, rest[0], s.Config.Watch.PollInterval())
		if err != nil {
			fmt.Fprintf(ctx.Stderr(), "%s: %v\n", args[0], err)
			return ExitFailure
		}
		defer backend.Close()

		w := &watch.Watcher{
			Path:     rest[0],
			Command:  watch.CommandLine(rest[1:]),
			Shell:    s.Config.Shell,
			Env:      s.environ(),
			Stdio:    ctx.Stdio(),
			Interval: interval,
			Backend:  backend,
			Debounce: watch.NewDebouncer(interval, nil),
			Runner:   s.Launcher,
			Log:      s.Log,
		}

		sigs := make(chan os.Signal, 1)
		stop := interruptSignals(sigs)
		defer stop()
		return w.WatchSignals(context.Background(), sigs)
	})
}

func init() {
	addBuiltin("watch", Watch)
}
