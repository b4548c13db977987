package batch

import (
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/cwbudde/gcsbatch/internal/experiment"
	"github.com/google/uuid"
)

// JobState represents the current state of a job
type JobState string

const (
	StatePending   JobState = "pending"
	StateRunning   JobState = "running"
	StateCompleted JobState = "completed"
	StateSkipped   JobState = "skipped"
	StateFailed    JobState = "failed"
)

// Job is one external solve invocation. It exists only for the duration of
// a dispatch run and is never persisted.
type Job struct {
	ID        string     `json:"id"`
	Config    string     `json:"config"`
	ConfigDir string     `json:"configDir"`
	OutputDir string     `json:"outputDir"`
	Force     bool       `json:"force"`
	State     JobState   `json:"state"`
	StartTime time.Time  `json:"startTime"`
	EndTime   *time.Time `json:"endTime,omitempty"`
	Error     string     `json:"error,omitempty"`
}

// NewJob creates a pending job for config. Its output directory is
// <outputRoot>/<config name without extension>.
func NewJob(configDir, config, outputRoot string, force bool) *Job {
	return &Job{
		ID:        uuid.New().String(),
		Config:    config,
		ConfigDir: configDir,
		OutputDir: OutputDirFor(outputRoot, config),
		Force:     force,
		State:     StatePending,
	}
}

// OutputDirFor returns the per-config output directory.
func OutputDirFor(outputRoot, config string) string {
	return filepath.Join(outputRoot, strings.TrimSuffix(config, experiment.FileExtension))
}

// JobError is returned by a Launcher when a job's process did not succeed.
type JobError struct {
	Config   string
	ExitCode int
	Err      error
}

func (e *JobError) Error() string {
	if e.ExitCode != 0 {
		return fmt.Sprintf("job %s exited with code %d: %v", e.Config, e.ExitCode, e.Err)
	}
	return fmt.Sprintf("job %s failed: %v", e.Config, e.Err)
}

func (e *JobError) Unwrap() error {
	return e.Err
}
