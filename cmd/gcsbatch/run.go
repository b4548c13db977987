package main

import (
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/cwbudde/gcsbatch/internal/batch"
	"github.com/cwbudde/gcsbatch/internal/store"
)

var runKeys = map[string]string{
	"results-dir":         "results_dir",
	"force":               "dispatch.force",
	"continue-on-failure": "dispatch.continue_on_failure",
	"fail-on-error":       "dispatch.fail_on_error",
	"job-timeout":         "dispatch.job_timeout",
}

func newRunCmd(opts *rootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "run",
		Short: "Generate configs and solve each one",
		Long: `Generates the config batch, then launches one job process per stored
config, one at a time. Failing jobs are logged and the batch moves on; by
default the command exits 0 once every job has been attempted.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runBatch(cmd, opts)
		},
	}

	addGenerateFlags(cmd)
	cmd.Flags().String("results-dir", "outputs", "Root directory for per-config outputs")
	cmd.Flags().Bool("force", false, "Recompute jobs whose artifact already exists")
	cmd.Flags().Bool("continue-on-failure", true, "Keep dispatching after a job fails")
	cmd.Flags().Bool("fail-on-error", false, "Exit non-zero if any job failed")
	cmd.Flags().Duration("job-timeout", 0, "Per-job time limit (0 = none)")
	return cmd
}

// jobLauncher returns a launcher that re-invokes this executable as the job
// subcommand, forwarding the log level and settings file.
func jobLauncher(opts *rootOptions) (*batch.ExecLauncher, error) {
	launcher, err := batch.NewSelfLauncher()
	if err != nil {
		return nil, err
	}
	launcher.Command = append(launcher.Command, "--log-level", opts.logLevel)
	if opts.configFile != "" {
		launcher.Command = append(launcher.Command, "--config", opts.configFile)
	}
	return launcher, nil
}

func runBatch(cmd *cobra.Command, opts *rootOptions) error {
	keys := make(map[string]string, len(generateKeys)+len(runKeys))
	for k, v := range generateKeys {
		keys[k] = v
	}
	for k, v := range runKeys {
		keys[k] = v
	}
	cfg, err := loadSettings(cmd, opts.configFile, keys)
	if err != nil {
		return err
	}

	configDir := cfg.ConfigDir
	if configDir == "" {
		configDir, err = os.MkdirTemp("", "gcsbatch_contact_config_")
		if err != nil {
			return fmt.Errorf("failed to create temp config directory: %w", err)
		}
		defer os.RemoveAll(configDir)
	}

	if _, err := generateInto(cfg, configDir); err != nil {
		return err
	}

	fsStore, err := store.OpenFSStore(configDir)
	if err != nil {
		return err
	}

	launcher, err := jobLauncher(opts)
	if err != nil {
		return err
	}

	dispatcher := batch.NewDispatcher(launcher)
	dispatcher.ArtifactName = cfg.Solver.ArtifactName
	dispatcher.Policy = batch.Policy{
		ContinueOnFailure: cfg.Dispatch.ContinueOnFailure,
		JobTimeout:        cfg.Dispatch.JobTimeout,
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	summary, err := dispatcher.Run(ctx, fsStore, configDir, cfg.ResultsDir, cfg.Dispatch.Force)
	if err != nil {
		return err
	}

	fmt.Fprintf(cmd.OutOrStdout(), "Batch %s: %d succeeded, %d skipped, %d failed\n",
		summary.RunID, summary.Succeeded, summary.Skipped, summary.Failed)

	if summary.Failed > 0 {
		if cfg.Dispatch.FailOnError {
			return fmt.Errorf("%d of %d jobs failed: %w", summary.Failed, summary.Attempted, summary.Err())
		}
		slog.Warn("Some jobs failed", "run_id", summary.RunID, "failed", summary.Failed)
	}
	return nil
}
