// Package batch dispatches one external solve job per stored configuration,
// strictly one after another.
package batch

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"path/filepath"
	"sort"
	"time"

	"github.com/google/uuid"
	"github.com/hashicorp/go-multierror"

	"github.com/cwbudde/gcsbatch/internal/jobcache"
)

// ConfigLister is the part of the config store the dispatcher reads.
type ConfigLister interface {
	Names() ([]string, error)
}

// Policy controls how the dispatcher reacts to failing jobs.
type Policy struct {
	// ContinueOnFailure keeps dispatching after a job fails.
	ContinueOnFailure bool
	// JobTimeout bounds each job; zero means no limit.
	JobTimeout time.Duration
}

// DefaultPolicy continues past failures and never times out a job.
func DefaultPolicy() Policy {
	return Policy{ContinueOnFailure: true}
}

// Summary describes one dispatch run.
type Summary struct {
	RunID     string
	Jobs      []*Job
	Attempted int
	Succeeded int
	Skipped   int
	Failed    int
	// Errors aggregates the failures of individual jobs.
	Errors *multierror.Error
}

// Err returns the aggregated job failures, or nil if every job succeeded.
func (s *Summary) Err() error {
	return s.Errors.ErrorOrNil()
}

// Dispatcher runs jobs for stored configs through a Launcher.
type Dispatcher struct {
	Launcher Launcher
	Policy   Policy
	// ArtifactName is checked before launching; empty disables the
	// pre-launch check and leaves the decision to the job process.
	ArtifactName string
}

// NewDispatcher creates a dispatcher with the default policy.
func NewDispatcher(launcher Launcher) *Dispatcher {
	return &Dispatcher{
		Launcher:     launcher,
		Policy:       DefaultPolicy(),
		ArtifactName: jobcache.DefaultArtifactName,
	}
}

// Run launches one job per config in lister, in sorted name order. Job
// failures are logged and collected in the summary; the returned error is
// reserved for listing failures, cancellation, and (when ContinueOnFailure is
// false) the first job failure.
func (d *Dispatcher) Run(ctx context.Context, lister ConfigLister, configDir, outputRoot string, force bool) (*Summary, error) {
	if d.Launcher == nil {
		return nil, fmt.Errorf("dispatcher has no launcher")
	}

	names, err := lister.Names()
	if err != nil {
		return nil, fmt.Errorf("failed to list configs: %w", err)
	}
	names = append([]string(nil), names...)
	sort.Strings(names)

	summary := &Summary{RunID: uuid.New().String()}
	slog.Info("Starting batch", "run_id", summary.RunID, "configs", len(names), "force", force)

	for _, name := range names {
		if err := ctx.Err(); err != nil {
			return summary, fmt.Errorf("batch cancelled: %w", err)
		}

		job := NewJob(configDir, name, outputRoot, force)
		summary.Jobs = append(summary.Jobs, job)

		if d.ArtifactName != "" && !jobcache.ShouldRun(filepath.Join(job.OutputDir, d.ArtifactName), force) {
			job.State = StateSkipped
			summary.Skipped++
			slog.Info("Artifact exists, skipping", "job_id", job.ID, "config", name)
			continue
		}

		summary.Attempted++
		if err := d.runJob(ctx, job); err != nil {
			summary.Failed++
			summary.Errors = multierror.Append(summary.Errors, err)

			if errors.Is(err, context.Canceled) && ctx.Err() != nil {
				return summary, fmt.Errorf("batch cancelled: %w", ctx.Err())
			}
			if !d.Policy.ContinueOnFailure {
				return summary, fmt.Errorf("stopping batch after failure: %w", err)
			}
			continue
		}
		summary.Succeeded++
	}

	slog.Info("Batch complete",
		"run_id", summary.RunID,
		"attempted", summary.Attempted,
		"succeeded", summary.Succeeded,
		"skipped", summary.Skipped,
		"failed", summary.Failed,
	)
	return summary, nil
}

// runJob launches job and records its outcome on the job itself.
func (d *Dispatcher) runJob(ctx context.Context, job *Job) error {
	jobCtx := ctx
	if d.Policy.JobTimeout > 0 {
		var cancel context.CancelFunc
		jobCtx, cancel = context.WithTimeout(ctx, d.Policy.JobTimeout)
		defer cancel()
	}

	job.State = StateRunning
	job.StartTime = time.Now()
	slog.Info("Starting job", "job_id", job.ID, "config", job.Config, "output_dir", job.OutputDir)

	err := d.Launcher.Launch(jobCtx, job)
	endTime := time.Now()
	job.EndTime = &endTime

	if err != nil {
		markJobFailed(job, err)
		return err
	}

	job.State = StateCompleted
	slog.Info("Job completed", "job_id", job.ID, "config", job.Config, "elapsed", endTime.Sub(job.StartTime))
	return nil
}

// markJobFailed marks a job as failed and reports it with full detail.
func markJobFailed(job *Job, err error) {
	job.State = StateFailed
	job.Error = err.Error()

	attrs := []any{"job_id", job.ID, "config", job.Config, "error", err}
	var jobErr *JobError
	if errors.As(err, &jobErr) {
		attrs = append(attrs, "exit_code", jobErr.ExitCode)
	}
	slog.Error("Job failed", attrs...)
}
