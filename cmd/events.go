package cmd

import (
	"fmt"
	"io"
	"strings"

	"github.com/fatih/color"
	"github.com/josephlewis42/procsh/core/logger"
	"github.com/spf13/cobra"
	"sigs.k8s.io/yaml"
)

var eventsCmd = &cobra.Command{
	Use:   "events",
	Short: "Explore the shell event log.",
}

var reportCommand = &cobra.Command{
	Use:   "report",
	Short: "Show a report of events.",
	RunE: func(cmd *cobra.Command, args []string) error {
		cmd.SilenceUsage = true

		config, err := loadConfig(newLogger(cmd.ErrOrStderr()))
		if err != nil {
			return err
		}

		fd, err := config.ReadAppLog()
		if err != nil {
			return err
		}
		defer fd.Close()

		var report logger.Report
		if err := logger.ReadJSONLinesLog(fd, report.Update); err != nil {
			return err
		}

		out, err := yaml.Marshal(report)
		if err != nil {
			return err
		}

		fmt.Fprintln(cmd.OutOrStdout(), string(out))

		return nil
	},
}

var (
	eventTime   = color.New(color.Faint)
	eventName   = color.New(color.FgCyan, color.Bold)
	eventDetail = color.New(color.FgYellow)
	eventError  = color.New(color.FgRed)
)

// printEntry writes a one line summary of e.
func printEntry(w io.Writer, e *logger.Entry) {
	fmt.Fprintf(w, "%s %s %s", eventTime.Sprint(e.Timestamp), e.SessionID, eventName.Sprint(e.Event))

	var details []string
	if e.Name != "" {
		details = append(details, "name="+e.Name)
	}
	if e.Path != "" {
		details = append(details, "path="+e.Path)
	}
	if len(e.Argv) > 0 {
		details = append(details, fmt.Sprintf("argv=%q", e.Argv))
	}
	if e.Pid != 0 {
		details = append(details, fmt.Sprintf("pid=%d", e.Pid))
	}
	if e.Signal != "" {
		details = append(details, "signal="+e.Signal)
	}
	if e.Action != "" {
		details = append(details, fmt.Sprintf("action=%q", e.Action))
	}
	if e.Code != 0 {
		details = append(details, fmt.Sprintf("code=%d", e.Code))
	}
	if len(details) > 0 {
		fmt.Fprint(w, " ", eventDetail.Sprint(strings.Join(details, " ")))
	}
	if e.Error != "" {
		fmt.Fprint(w, " ", eventError.Sprint(e.Error))
	}
	fmt.Fprintln(w)
}

var catCommand = &cobra.Command{
	Use:   "cat",
	Short: "Print each logged event.",
	RunE: func(cmd *cobra.Command, args []string) error {
		cmd.SilenceUsage = true

		config, err := loadConfig(newLogger(cmd.ErrOrStderr()))
		if err != nil {
			return err
		}

		fd, err := config.ReadAppLog()
		if err != nil {
			return err
		}
		defer fd.Close()

		out := cmd.OutOrStdout()
		return logger.ReadJSONLinesLog(fd, func(e *logger.Entry) {
			printEntry(out, e)
		})
	},
}

func init() {
	rootCmd.AddCommand(eventsCmd)
	eventsCmd.AddCommand(reportCommand)
	eventsCmd.AddCommand(catCommand)
}
