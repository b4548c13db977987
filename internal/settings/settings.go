// Package settings loads gcsbatch configuration from defaults, an optional
// gcsbatch.yaml, GCSBATCH_* environment variables and command-line flags,
// in increasing order of precedence.
package settings

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/spf13/viper"

	"github.com/cwbudde/gcsbatch/internal/experiment"
	"github.com/cwbudde/gcsbatch/internal/jobcache"
)

const (
	// EnvPrefix namespaces environment overrides, e.g. GCSBATCH_RESULTS_DIR.
	EnvPrefix = "GCSBATCH"

	configName = "gcsbatch"
)

type Settings struct {
	// Directory the generation step writes configs into; empty selects a
	// temporary directory.
	ConfigDir string `mapstructure:"config_dir"`
	// Root of the per-config output directories
	ResultsDir string `mapstructure:"results_dir" validate:"required"`
	// Passed to the solver as PROJECT_ROOT unless the environment already sets it
	ProjectRoot string `mapstructure:"project_root"`

	Generate GenerateSettings `mapstructure:"generate"`
	Solver   SolverSettings   `mapstructure:"solver"`
	Dispatch DispatchSettings `mapstructure:"dispatch"`
}

type GenerateSettings struct {
	Count       int      `mapstructure:"count" validate:"gte=0"`
	Seed        int64    `mapstructure:"seed"`
	Graphs      []string `mapstructure:"graphs" validate:"min=1,dive,required"`
	SeedMin     int64    `mapstructure:"seed_min" validate:"gte=0"`
	SeedMax     int64    `mapstructure:"seed_max" validate:"gtefield=SeedMin"`
	MaxAttempts int      `mapstructure:"max_attempts" validate:"gt=0"`
}

type SolverSettings struct {
	// Program and leading arguments, e.g. ["python", "solve_gcs.py"]
	Command      []string `mapstructure:"command"`
	NumTrials    int      `mapstructure:"num_trials" validate:"gte=1"`
	ArtifactName string   `mapstructure:"artifact_name" validate:"required"`
}

type DispatchSettings struct {
	Force             bool          `mapstructure:"force"`
	ContinueOnFailure bool          `mapstructure:"continue_on_failure"`
	FailOnError       bool          `mapstructure:"fail_on_error"`
	JobTimeout        time.Duration `mapstructure:"job_timeout" validate:"gte=0"`
}

// SetDefaults registers every default on v.
func SetDefaults(v *viper.Viper) {
	v.SetDefault("config_dir", "")
	v.SetDefault("results_dir", "outputs")
	v.SetDefault("project_root", "")

	v.SetDefault("generate.count", experiment.DefaultCount)
	v.SetDefault("generate.seed", experiment.DefaultSeed)
	v.SetDefault("generate.graphs", experiment.DefaultGraphs)
	v.SetDefault("generate.seed_min", experiment.DefaultSeedMin)
	v.SetDefault("generate.seed_max", experiment.DefaultSeedMax)
	v.SetDefault("generate.max_attempts", experiment.DefaultMaxAttempts)

	v.SetDefault("solver.command", []string{})
	v.SetDefault("solver.num_trials", 1)
	v.SetDefault("solver.artifact_name", jobcache.DefaultArtifactName)

	v.SetDefault("dispatch.force", false)
	v.SetDefault("dispatch.continue_on_failure", true)
	v.SetDefault("dispatch.fail_on_error", false)
	v.SetDefault("dispatch.job_timeout", time.Duration(0))
}

// Load reads configuration into a validated Settings. configFile may be
// empty, in which case gcsbatch.yaml is looked up in the working directory
// and its absence is not an error.
func Load(v *viper.Viper, configFile string) (*Settings, error) {
	SetDefaults(v)

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if configFile != "" {
		v.SetConfigFile(configFile)
	} else {
		v.SetConfigName(configName)
		v.AddConfigPath(".")
	}
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if configFile != "" || !errors.As(err, &notFound) {
			return nil, fmt.Errorf("failed to read config: %w", err)
		}
	}

	var s Settings
	if err := v.Unmarshal(&s); err != nil {
		return nil, fmt.Errorf("failed to decode config: %w", err)
	}
	if err := s.Validate(); err != nil {
		return nil, err
	}
	return &s, nil
}

func (s Settings) Validate() error {
	validate := validator.New()
	if err := validate.Struct(s); err != nil {
		return fmt.Errorf("invalid settings: %w", err)
	}
	return nil
}

// Generator builds an experiment.Generator from the generate settings.
func (s Settings) Generator() *experiment.Generator {
	g := experiment.NewGenerator()
	g.Count = s.Generate.Count
	g.Seed = s.Generate.Seed
	g.Sampler.Graphs = append([]string(nil), s.Generate.Graphs...)
	g.Sampler.SeedMin = s.Generate.SeedMin
	g.Sampler.SeedMax = s.Generate.SeedMax
	g.Allocator.MaxAttempts = s.Generate.MaxAttempts
	return g
}
