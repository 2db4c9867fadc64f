package cmd

import (
	"errors"
	"io"
	"io/fs"
	"log"

	"github.com/josephlewis42/procsh/core/config"
	"github.com/josephlewis42/procsh/core/logger"
	"github.com/spf13/cobra"
)

var cfgPath string

// loadConfig reads the configuration in --config, falling back to the built
// in defaults when none was given or it hasn't been initialized.
func loadConfig(log *log.Logger) (*config.Configuration, error) {
	if cfgPath == "" {
		return config.Default(), nil
	}

	configuration, err := config.Load(cfgPath)
	if errors.Is(err, fs.ErrNotExist) {
		log.Println("Couldn't load config: did you run init? Using defaults.")
		return config.Default(), nil
	}

	return configuration, err
}

// openEventLog opens the configured event log. The returned function syncs
// and closes it.
func openEventLog(cfg *config.Configuration) (*logger.Logger, func(), error) {
	fd, err := cfg.OpenAppLog()
	if err != nil {
		return nil, nil, err
	}
	if fd == nil {
		return logger.Nop(), func() {}, nil
	}

	events := logger.NewJSONLinesLogger(fd)
	return events, func() {
		events.Sync()
		fd.Close()
	}, nil
}

func newLogger(w io.Writer) *log.Logger {
	return log.New(w, "[procsh] ", 0)
}

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "procsh",
	Short: "POSIX command interpreter",
	Long:  `A POSIX shell with job control, coprocesses, traps and file watching.`,
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() {
	cobra.CheckErr(rootCmd.Execute())
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgPath, "config", "", "config directory, the built in defaults are used if empty")
}
