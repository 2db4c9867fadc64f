package proc

import (
	"os/exec"
	"sort"
	"strings"
	"sync"

	ps "github.com/mitchellh/go-ps"
)

// Job is a child process started by the shell.
type Job struct {
	ID   int
	Pid  int
	Argv []string

	cmd  *exec.Cmd
	once sync.Once
	done chan struct{}
	code int
}

// Wait blocks until the process exits and returns its translated exit code.
// It is safe to call more than once.
func (j *Job) Wait() int {
	j.once.Do(func() {
		// The error only repeats what ProcessState says, or reports an I/O
		// copy failure that doesn't change the exit status.
		_ = j.cmd.Wait()
		j.code = ExitStatus(j.cmd.ProcessState)
		close(j.done)
	})
	return j.code
}

// Done reports whether the job has been waited on.
func (j *Job) Done() bool {
	select {
	case <-j.done:
		return true
	default:
		return false
	}
}

// ExitCode returns the exit code of a finished job.
func (j *Job) ExitCode() (int, bool) {
	if !j.Done() {
		return 0, false
	}
	return j.code, true
}

// Alive reports whether the process still exists. A child that exited but
// has not been waited on yet is still listed by the OS.
func (j *Job) Alive() bool {
	if j.Done() {
		return false
	}
	p, err := ps.FindProcess(j.Pid)
	return err == nil && p != nil
}

// Status returns a short human readable state.
func (j *Job) Status() string {
	switch {
	case j.Done():
		return "Done"
	case j.Alive():
		return "Running"
	default:
		return "Exited"
	}
}

// Command returns the job's command line.
func (j *Job) Command() string {
	return strings.Join(j.Argv, " ")
}

// Jobs is the table of children the shell has started and not yet
// forgotten.
type Jobs struct {
	mu   sync.Mutex
	next int
	jobs map[int]*Job
}

// NewJobs creates an empty table.
func NewJobs() *Jobs {
	return &Jobs{jobs: make(map[int]*Job)}
}

func (t *Jobs) add(cmd *exec.Cmd) *Job {
	t.mu.Lock()
	defer t.mu.Unlock()

	t.next++
	job := &Job{
		ID:   t.next,
		Pid:  cmd.Process.Pid,
		Argv: append([]string(nil), cmd.Args...),
		cmd:  cmd,
		done: make(chan struct{}),
	}
	t.jobs[job.ID] = job
	return job
}

// Get returns a job by ID.
func (t *Jobs) Get(id int) (*Job, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	job, ok := t.jobs[id]
	return job, ok
}

// ByPid returns the job for a process ID.
func (t *Jobs) ByPid(pid int) (*Job, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	for _, job := range t.jobs {
		if job.Pid == pid {
			return job, true
		}
	}
	return nil, false
}

// Remove forgets a job.
func (t *Jobs) Remove(id int) {
	t.mu.Lock()
	defer t.mu.Unlock()
	delete(t.jobs, id)
}

// List returns the jobs ordered by ID.
func (t *Jobs) List() []*Job {
	t.mu.Lock()
	defer t.mu.Unlock()

	out := make([]*Job, 0, len(t.jobs))
	for _, job := range t.jobs {
		out = append(out, job)
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].ID < out[j].ID
	})
	return out
}
