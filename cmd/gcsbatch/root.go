package main

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/cwbudde/gcsbatch/internal/settings"
)

// rootOptions holds the persistent flags shared by every subcommand.
type rootOptions struct {
	logLevel   string
	configFile string
}

func newRootCmd() *cobra.Command {
	opts := &rootOptions{}

	cmd := &cobra.Command{
		Use:   "gcsbatch",
		Short: "Batch driver for contact-graph GCS experiments",
		Long: `gcsbatch samples experiment configurations, stores each one under a
unique reproducible name, and runs one external solve job per configuration,
skipping jobs whose result artifact already exists.`,
		SilenceUsage: true,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			slog.SetDefault(newLogger(opts.logLevel))
		},
	}

	cmd.PersistentFlags().StringVar(&opts.logLevel, "log-level", "info", "Log level (debug, info, warn, error)")
	cmd.PersistentFlags().StringVar(&opts.configFile, "config", "", "Config file (default: ./gcsbatch.yaml if present)")

	cmd.AddCommand(
		newGenerateCmd(opts),
		newRunCmd(opts),
		newJobCmd(opts),
		newVersionCmd(),
	)
	return cmd
}

// newLogger returns a JSON logger on stdout; unknown levels fall back to info.
func newLogger(levelName string) *slog.Logger {
	var level slog.Level
	if err := level.UnmarshalText([]byte(levelName)); err != nil {
		level = slog.LevelInfo
	}
	return slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: level}))
}

// loadSettings binds the given flag -> key pairs of cmd and loads settings.
// Bindings are made per invocation because different subcommands map flags
// of the same name to different keys.
func loadSettings(cmd *cobra.Command, configFile string, keys map[string]string) (*settings.Settings, error) {
	v := viper.New()
	for flag, key := range keys {
		f := cmd.Flags().Lookup(flag)
		if f == nil {
			return nil, fmt.Errorf("unknown flag %q for %s", flag, cmd.Name())
		}
		if err := v.BindPFlag(key, f); err != nil {
			return nil, fmt.Errorf("failed to bind flag %s: %w", flag, err)
		}
	}
	return settings.Load(v, configFile)
}
