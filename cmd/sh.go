package cmd

import (
	"fmt"
	"io"
	"os"

	"github.com/josephlewis42/procsh/commands"
	"github.com/josephlewis42/procsh/core/proc"
	"github.com/mattn/go-isatty"
	"github.com/spf13/cobra"
)

var (
	shCommand     string
	shInteractive bool
)

var shCmd = &cobra.Command{
	Use:   "sh [-c command [name [arg ...]]] [script [arg ...]]",
	Short: "Run the shell.",
	Long: `Run commands from a string with -c, from a script file, or from
standard input. Standard input is read interactively when it's a terminal or
-i is set.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cmd.SilenceUsage = true

		log := newLogger(cmd.ErrOrStderr())
		cfg, err := loadConfig(log)
		if err != nil {
			return err
		}

		events, closeLog, err := openEventLog(cfg)
		if err != nil {
			return err
		}

		stdio := proc.Stdio{
			In:  cmd.InOrStdin(),
			Out: cmd.OutOrStdout(),
			Err: cmd.ErrOrStderr(),
		}
		s := commands.NewShell(cfg, events.NewSession(), os.Environ(), stdio)

		switch {
		case cmd.Flags().Changed("command"):
			if len(args) > 0 {
				s.Name = args[0]
				s.Store.Positional = args[1:]
			}
			s.Run(shCommand)

		case len(args) > 0:
			s.RunScript(args[0], args[1:])

		case shInteractive || isatty.IsTerminal(os.Stdin.Fd()):
			s.RunInteractive()

		default:
			src, err := io.ReadAll(stdio.In)
			if err != nil {
				fmt.Fprintf(stdio.Err, "sh: %v\n", err)
				closeLog()
				os.Exit(commands.ExitFailure)
			}
			s.Run(string(src))
		}

		code := s.Close()
		closeLog()
		os.Exit(code)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(shCmd)

	shCmd.Flags().StringVarP(&shCommand, "command", "c", "", "run the given command string")
	shCmd.Flags().BoolVarP(&shInteractive, "interactive", "i", false, "force interactive mode")
	// Everything after the first operand belongs to the script.
	shCmd.Flags().SetInterspersed(false)
}
