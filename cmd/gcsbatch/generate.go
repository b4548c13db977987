package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/cwbudde/gcsbatch/internal/experiment"
	"github.com/cwbudde/gcsbatch/internal/settings"
	"github.com/cwbudde/gcsbatch/internal/store"
)

// defaultConfigDirName is used under the system temp dir when generate is
// given no output directory.
const defaultConfigDirName = "gcsbatch_contact_params"

// Flag -> settings key bindings shared by generate and run.
var generateKeys = map[string]string{
	"output-dir":   "config_dir",
	"count":        "generate.count",
	"seed":         "generate.seed",
	"graph":        "generate.graphs",
	"seed-min":     "generate.seed_min",
	"seed-max":     "generate.seed_max",
	"max-attempts": "generate.max_attempts",
}

func newGenerateCmd(opts *rootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "generate",
		Short: "Generate experiment config files",
		Long: `Samples a deterministic batch of configurations and writes one YAML file
per configuration. Names already present in the directory are never reused.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runGenerate(cmd, opts)
		},
	}
	addGenerateFlags(cmd)
	return cmd
}

func addGenerateFlags(cmd *cobra.Command) {
	cmd.Flags().String("output-dir", "", "Directory for config files (default: temp dir)")
	cmd.Flags().Int("count", experiment.DefaultCount, "Number of configs to generate")
	cmd.Flags().Int64("seed", experiment.DefaultSeed, "Sampler seed")
	cmd.Flags().StringSlice("graph", experiment.DefaultGraphs, "Candidate graph names")
	cmd.Flags().Int64("seed-min", experiment.DefaultSeedMin, "Smallest sampled config seed")
	cmd.Flags().Int64("seed-max", experiment.DefaultSeedMax, "Largest sampled config seed")
	cmd.Flags().Int("max-attempts", experiment.DefaultMaxAttempts, "Seed bumps before the clock fallback")
}

func runGenerate(cmd *cobra.Command, opts *rootOptions) error {
	cfg, err := loadSettings(cmd, opts.configFile, generateKeys)
	if err != nil {
		return err
	}

	dir := cfg.ConfigDir
	if dir == "" {
		dir = filepath.Join(os.TempDir(), defaultConfigDirName)
	}

	result, err := generateInto(cfg, dir)
	if err != nil {
		return err
	}

	for _, path := range result.Paths {
		fmt.Fprintln(cmd.OutOrStdout(), path)
	}
	return nil
}

// generateInto runs the generation step against dir, creating it if needed.
func generateInto(cfg *settings.Settings, dir string) (*experiment.GenerateResult, error) {
	fsStore, err := store.NewFSStore(dir)
	if err != nil {
		return nil, err
	}
	result, err := cfg.Generator().Generate(fsStore)
	if err != nil {
		return nil, fmt.Errorf("generation failed: %w", err)
	}
	return result, nil
}
