package cmd

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/josephlewis42/procsh/core/config"
	"github.com/josephlewis42/procsh/core/proc"
	"github.com/josephlewis42/procsh/core/watch"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
)

type watchFlags struct {
	interval     time.Duration
	pollInterval time.Duration
	backend      string
}

func addWatchFlags(fs *pflag.FlagSet, wf *watchFlags) {
	fs.DurationVar(&wf.interval, "interval", 0, "minimum time between runs, defaults to the configured value")
	fs.DurationVar(&wf.pollInterval, "poll-interval", 0, "how often the poll backend checks for changes")
	fs.StringVar(&wf.backend, "backend", "", "change notification backend: auto, event or poll")
}

// apply overrides the configured watch settings with any flags that were set.
func (wf *watchFlags) apply(cfg *config.Watch) {
	if wf.interval > 0 {
		cfg.IntervalMs = int(wf.interval / time.Millisecond)
	}
	if wf.pollInterval > 0 {
		cfg.PollIntervalMs = int(wf.pollInterval / time.Millisecond)
	}
	if wf.backend != "" {
		cfg.Backend = wf.backend
	}
}

var watchOpts watchFlags

var watchCmd = &cobra.Command{
	Use:   "watch path command [arg ...]",
	Short: "Run a command every time a file or directory changes.",
	Args:  cobra.MinimumNArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		cmd.SilenceUsage = true

		log := newLogger(cmd.ErrOrStderr())
		cfg, err := loadConfig(log)
		if err != nil {
			return err
		}
		watchOpts.apply(&cfg.Watch)
		if err := cfg.Validate(); err != nil {
			return err
		}

		events, closeLog, err := openEventLog(cfg)
		if err != nil {
			return err
		}
		defer closeLog()

		backend, err := watch.New(cfg.Watch.Backend, args[0], cfg.Watch.PollInterval())
		if err != nil {
			return err
		}
		defer backend.Close()

		session := events.NewSession()
		w := &watch.Watcher{
			Path:    args[0],
			Command: watch.CommandLine(args[1:]),
			Shell:   cfg.Shell,
			Env:     os.Environ(),
			Stdio: proc.Stdio{
				In:  cmd.InOrStdin(),
				Out: cmd.OutOrStdout(),
				Err: cmd.ErrOrStderr(),
			},
			Interval: cfg.Watch.Interval(),
			Backend:  backend,
			Debounce: watch.NewDebouncer(cfg.Watch.Interval(), nil),
			Runner:   proc.NewLauncher(proc.NewJobs(), session),
			Log:      session,
		}

		sigs := make(chan os.Signal, 1)
		signal.Notify(sigs, os.Interrupt, syscall.SIGTERM)
		defer signal.Stop(sigs)

		if code := w.WatchSignals(context.Background(), sigs); code != proc.ExitSuccess {
			return errors.New("watch failed")
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(watchCmd)
	addWatchFlags(watchCmd.Flags(), &watchOpts)
	watchCmd.Flags().SetInterspersed(false)
}
