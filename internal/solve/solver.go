package solve

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/exec"
	"strconv"
	"strings"

	"github.com/cwbudde/gcsbatch/internal/experiment"
)

// ProjectRootEnv is read by the solver's graph loader to locate graph files.
const ProjectRootEnv = "PROJECT_ROOT"

// Solver builds and solves the problem described by record, writing its
// artifacts into outputDir.
type Solver interface {
	Solve(ctx context.Context, record experiment.Record, outputDir string) error
}

// ExecSolver delegates the solve to an external program:
//
//	<Command...> --graph-name G --use-l1-cost B --seed S --num-trials N --output-dir O
type ExecSolver struct {
	Command     []string
	NumTrials   int
	ProjectRoot string
	Stdout      io.Writer
	Stderr      io.Writer
}

// Args returns the solver arguments (without the program) for record.
func (s *ExecSolver) Args(record experiment.Record, outputDir string) []string {
	args := append([]string(nil), s.Command[1:]...)
	return append(args,
		"--graph-name", record.GraphName,
		"--use-l1-cost", strconv.FormatBool(record.UseL1Cost),
		"--seed", strconv.FormatInt(record.Seed, 10),
		"--num-trials", strconv.Itoa(s.NumTrials),
		"--output-dir", outputDir,
	)
}

func (s *ExecSolver) Solve(ctx context.Context, record experiment.Record, outputDir string) error {
	if len(s.Command) == 0 {
		return fmt.Errorf("no solver command configured")
	}

	cmd := exec.CommandContext(ctx, s.Command[0], s.Args(record, outputDir)...)
	cmd.Env = SolverEnv(os.Environ(), s.ProjectRoot)
	cmd.Stdout = s.Stdout
	cmd.Stderr = s.Stderr

	slog.Debug("Running solver", "command", s.Command[0], "args", cmd.Args[1:])
	if err := cmd.Run(); err != nil {
		return fmt.Errorf("solver failed: %w", err)
	}
	return nil
}

// SolverEnv returns base with PROJECT_ROOT set to projectRoot, unless base
// already defines it. An externally supplied value always wins.
func SolverEnv(base []string, projectRoot string) []string {
	env := append([]string(nil), base...)
	if projectRoot == "" {
		return env
	}
	prefix := ProjectRootEnv + "="
	for _, kv := range env {
		if strings.HasPrefix(kv, prefix) {
			return env
		}
	}
	return append(env, prefix+projectRoot)
}
