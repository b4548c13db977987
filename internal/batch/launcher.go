package batch

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/exec"
)

// Launcher starts one job and blocks until it finishes.
type Launcher interface {
	Launch(ctx context.Context, job *Job) error
}

// ExecLauncher runs each job as a separate process:
//
//	<Command...> --config-dir D --config-name NAME --output-dir O [--force]
//
// Command is usually the gcsbatch binary followed by "job".
type ExecLauncher struct {
	Command []string
	Dir     string
	Env     []string // nil inherits the current environment
	Stdout  io.Writer
	Stderr  io.Writer
}

// NewSelfLauncher returns a launcher that re-invokes the running executable
// with the job subcommand.
func NewSelfLauncher() (*ExecLauncher, error) {
	exe, err := os.Executable()
	if err != nil {
		return nil, fmt.Errorf("failed to locate executable: %w", err)
	}
	return &ExecLauncher{
		Command: []string{exe, "job"},
		Stdout:  os.Stdout,
		Stderr:  os.Stderr,
	}, nil
}

// Args returns the argument list (without the program) used for job.
func (l *ExecLauncher) Args(job *Job) []string {
	args := append([]string(nil), l.Command[1:]...)
	args = append(args,
		"--config-dir", job.ConfigDir,
		"--config-name", job.Config,
		"--output-dir", job.OutputDir,
	)
	if job.Force {
		args = append(args, "--force")
	}
	return args
}

// Launch runs the job process and waits for it. A non-zero exit is returned
// as *JobError. When ctx ends the job is killed; on Unix its whole process
// group, so the solver grandchild goes with it.
func (l *ExecLauncher) Launch(ctx context.Context, job *Job) error {
	if len(l.Command) == 0 {
		return fmt.Errorf("launcher command is empty")
	}

	cmd := exec.CommandContext(ctx, l.Command[0], l.Args(job)...)
	cmd.Dir = l.Dir
	cmd.Env = l.Env
	cmd.Stdout = l.Stdout
	cmd.Stderr = l.Stderr

	setProcessGroup(cmd)

	slog.Debug("Launching job", "job_id", job.ID, "command", l.Command[0], "args", cmd.Args[1:])

	err := cmd.Run()
	if err == nil {
		return nil
	}

	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return &JobError{Config: job.Config, ExitCode: exitErr.ExitCode(), Err: ctxErr}
		}
		return &JobError{Config: job.Config, ExitCode: exitErr.ExitCode(), Err: err}
	}
	return &JobError{Config: job.Config, Err: fmt.Errorf("failed to execute job: %w", err)}
}
