// Package solve is the per-job entry point: it loads one stored config,
// checks whether its artifact already exists, and runs the solver.
package solve

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/cwbudde/gcsbatch/internal/experiment"
	"github.com/cwbudde/gcsbatch/internal/jobcache"
)

// SnapshotName is the copy of the record written next to the artifacts.
const SnapshotName = "config.yaml"

// ErrMissingArtifact is returned when the solver succeeded but did not
// produce the artifact.
var ErrMissingArtifact = errors.New("solver did not write artifact")

// RecordLoader is the part of the config store the runner reads.
type RecordLoader interface {
	Load(filename string) (experiment.Record, error)
}

// Request identifies one job.
type Request struct {
	Config    string
	OutputDir string
	Force     bool
}

// Outcome reports what Run did.
type Outcome string

const (
	OutcomeSkipped Outcome = "skipped"
	OutcomeSolved  Outcome = "solved"
)

// Runner executes a single job.
type Runner struct {
	Loader       RecordLoader
	Solver       Solver
	ArtifactName string
}

// NewRunner creates a runner using the default artifact name.
func NewRunner(loader RecordLoader, solver Solver) *Runner {
	return &Runner{Loader: loader, Solver: solver, ArtifactName: jobcache.DefaultArtifactName}
}

// ArtifactPath returns the artifact location for outputDir.
func (r *Runner) ArtifactPath(outputDir string) string {
	name := r.ArtifactName
	if name == "" {
		name = jobcache.DefaultArtifactName
	}
	return filepath.Join(outputDir, name)
}

// Run solves req unless its artifact already exists and Force is unset.
func (r *Runner) Run(ctx context.Context, req Request) (Outcome, error) {
	if req.OutputDir == "" {
		return "", fmt.Errorf("output directory cannot be empty")
	}

	artifact := r.ArtifactPath(req.OutputDir)
	if !jobcache.ShouldRun(artifact, req.Force) {
		slog.Info("Artifact exists, skipping", "config", req.Config, "path", artifact)
		return OutcomeSkipped, nil
	}

	record, err := r.Loader.Load(req.Config)
	if err != nil {
		return "", fmt.Errorf("failed to load config: %w", err)
	}

	if err := os.MkdirAll(req.OutputDir, 0755); err != nil {
		return "", fmt.Errorf("failed to create output directory: %w", err)
	}
	if err := writeSnapshot(req.OutputDir, record); err != nil {
		return "", err
	}

	slog.Info("Solving", "config", req.Config, "graph_name", record.GraphName, "use_l1_cost", record.UseL1Cost)
	start := time.Now()
	if err := r.Solver.Solve(ctx, record, req.OutputDir); err != nil {
		return "", fmt.Errorf("failed to solve %s (%s): %w", req.Config, record, err)
	}

	if !jobcache.Exists(artifact) {
		return "", fmt.Errorf("%w: %s", ErrMissingArtifact, artifact)
	}

	slog.Info("Solve complete", "config", req.Config, "path", artifact, "elapsed", time.Since(start))
	return OutcomeSolved, nil
}

// writeSnapshot stores the record used for this run in the output directory.
func writeSnapshot(outputDir string, record experiment.Record) error {
	data, err := yaml.Marshal(record)
	if err != nil {
		return fmt.Errorf("failed to serialize config snapshot: %w", err)
	}
	if err := os.WriteFile(filepath.Join(outputDir, SnapshotName), data, 0644); err != nil {
		return fmt.Errorf("failed to write config snapshot: %w", err)
	}
	return nil
}
