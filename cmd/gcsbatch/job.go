package main

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/cwbudde/gcsbatch/internal/jobcache"
	"github.com/cwbudde/gcsbatch/internal/solve"
	"github.com/cwbudde/gcsbatch/internal/store"
)

var jobKeys = map[string]string{
	"project-root": "project_root",
	"solver-cmd":   "solver.command",
	"num-trials":   "solver.num_trials",
	"artifact":     "solver.artifact_name",
}

// jobOptions identifies the single config a job invocation solves.
type jobOptions struct {
	configDir string
	config    string
	outputDir string
	force     bool
}

func newJobCmd(opts *rootOptions) *cobra.Command {
	jobOpts := &jobOptions{}

	cmd := &cobra.Command{
		Use:   "job",
		Short: "Solve a single stored config",
		Long: `Loads one config file and runs the solver for it, unless the result
artifact already exists in the output directory and --force is not given.
This is the entry point the run command launches once per config.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runJob(cmd, opts, jobOpts)
		},
	}

	cmd.Flags().StringVar(&jobOpts.configDir, "config-dir", "", "Directory holding the config files (required)")
	cmd.Flags().StringVar(&jobOpts.config, "config-name", "", "Config file name within --config-dir (required)")
	cmd.Flags().StringVar(&jobOpts.outputDir, "output-dir", "", "Output directory for this job (required)")
	cmd.Flags().BoolVar(&jobOpts.force, "force", false, "Recompute even if the artifact exists")
	cmd.Flags().String("project-root", "", "Project root passed to the solver as PROJECT_ROOT")
	cmd.Flags().StringSlice("solver-cmd", nil, "Solver program and leading arguments")
	cmd.Flags().Int("num-trials", 1, "Solver trials per config")
	cmd.Flags().String("artifact", jobcache.DefaultArtifactName, "Artifact file marking a completed job")

	cmd.MarkFlagRequired("config-dir")
	cmd.MarkFlagRequired("config-name")
	cmd.MarkFlagRequired("output-dir")
	return cmd
}

func runJob(cmd *cobra.Command, opts *rootOptions, jobOpts *jobOptions) error {
	cfg, err := loadSettings(cmd, opts.configFile, jobKeys)
	if err != nil {
		return err
	}

	fsStore, err := store.OpenFSStore(jobOpts.configDir)
	if err != nil {
		return err
	}

	solver := &solve.ExecSolver{
		Command:     cfg.Solver.Command,
		NumTrials:   cfg.Solver.NumTrials,
		ProjectRoot: cfg.ProjectRoot,
		Stdout:      cmd.OutOrStdout(),
		Stderr:      cmd.ErrOrStderr(),
	}
	runner := solve.NewRunner(fsStore, solver)
	runner.ArtifactName = cfg.Solver.ArtifactName

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	outcome, err := runner.Run(ctx, solve.Request{
		Config:    jobOpts.config,
		OutputDir: jobOpts.outputDir,
		Force:     jobOpts.force,
	})
	if err != nil {
		return err
	}

	if outcome == solve.OutcomeSkipped {
		fmt.Fprintf(cmd.OutOrStdout(), "Example at %s exists. Skipping\n", runner.ArtifactPath(jobOpts.outputDir))
	}
	return nil
}
