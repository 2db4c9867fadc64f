package commands

import (
	"fmt"
	"text/tabwriter"

	"github.com/josephlewis42/procsh/core/proc"
)

// Jobs implements the jobs builtin.
func Jobs(ctx *Context, args []string) int {
	cmd := &SimpleCommand{
		Use:   "jobs [-lp]",
		Short: "Display status of jobs.",
	}
	opts := cmd.Flags()
	long := opts.Bool('l', "list process IDs in addition to the normal information")
	pidsOnly := opts.Bool('p', "list process IDs only")

	return cmd.Run(ctx, args, func() int {
		s, err := ctx.Shell()
		if err != nil {
			fmt.Fprintf(ctx.Stderr(), "%s: %v\n", args[0], err)
			return ExitFailure
		}

		w := tabwriter.NewWriter(ctx.Stdout(), 0, 8, 2, ' ', 0)
		for _, job := range s.Jobs.List() {
			switch {
			case *pidsOnly:
				fmt.Fprintln(w, job.Pid)
			case *long:
				fmt.Fprintf(w, "[%d]\t%d\t%s\t%s\n", job.ID, job.Pid, jobStatus(job), job.Command())
			default:
				fmt.Fprintf(w, "[%d]\t%s\t%s\n", job.ID, jobStatus(job), job.Command())
			}

			// Finished jobs are reported once.
			if job.Done() {
				s.Jobs.Remove(job.ID)
			}
		}
		w.Flush()
		return ExitSuccess
	})
}

func jobStatus(job *proc.Job) string {
	if code, ok := job.ExitCode(); ok && code != ExitSuccess {
		return fmt.Sprintf("Exit %d", code)
	}
	return job.Status()
}

// Wait implements the wait builtin. Without arguments it waits for every
// job and returns 0, otherwise it returns the status of the last one.
func Wait(ctx *Context, args []string) int {
	s, err := ctx.Shell()
	if err != nil {
		fmt.Fprintf(ctx.Stderr(), "%s: %v\n", args[0], err)
		return ExitFailure
	}

	if len(args) == 1 {
		for _, job := range s.Jobs.List() {
			s.waitJob(job)
		}
		return ExitSuccess
	}

	code := ExitSuccess
	for _, target := range args[1:] {
		pid, err := targetPid(s, target)
		if err != nil {
			fmt.Fprintf(ctx.Stderr(), "%s: %s: %v\n", args[0], target, err)
			code = ExitNotFound
			continue
		}
		job, ok := s.Jobs.ByPid(pid)
		if !ok {
			fmt.Fprintf(ctx.Stderr(), "%s: pid %d is not a child of this shell\n", args[0], pid)
			code = ExitNotFound
			continue
		}
		code = s.waitJob(job)
	}
	return code
}

func (s *Shell) waitJob(job *proc.Job) int {
	code := job.Wait()
	s.Jobs.Remove(job.ID)
	s.Log.ProcessExit(job.Pid, code)
	return code
}

func init() {
	addBuiltin("jobs", Jobs)
	addBuiltin("wait", Wait)
}
