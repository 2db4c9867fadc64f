package cmd

import (
	"github.com/josephlewis42/procsh/core/config"
	"github.com/spf13/cobra"
)

// initCmd writes the default configuration
var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Write the default configuration into the --config directory.",
	Args:  cobra.ExactArgs(0),
	RunE: func(cmd *cobra.Command, args []string) error {
		cmd.SilenceUsage = true

		dir := cfgPath
		if dir == "" {
			dir = "."
		}

		_, err := config.Initialize(dir, newLogger(cmd.ErrOrStderr()))
		return err
	},
}

func init() {
	rootCmd.AddCommand(initCmd)
}
