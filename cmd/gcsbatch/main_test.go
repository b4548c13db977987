package main

import (
	"errors"
	"fmt"
	"os"
	"os/exec"
	"testing"
)

// jobProcessEnv makes the test binary act as the gcsbatch executable, so the
// run command can launch it as its own job subprocess.
const jobProcessEnv = "GCSBATCH_TEST_JOB_PROCESS"

func TestMain(m *testing.M) {
	if os.Getenv(jobProcessEnv) == "1" {
		os.Exit(execute(os.Args[1:]))
	}
	os.Exit(m.Run())
}

func TestExitCode(t *testing.T) {
	exitErr := exec.Command("sh", "-c", "exit 4").Run()
	if exitErr == nil {
		t.Fatal("Expected sh to fail")
	}

	tests := []struct {
		name string
		err  error
		want int
	}{
		{"plain error", errors.New("boom"), 1},
		{"solver exit", exitErr, 4},
		{"wrapped solver exit", fmt.Errorf("failed to solve x: %w", exitErr), 4},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := exitCode(tt.err); got != tt.want {
				t.Errorf("exitCode() = %d, want %d", got, tt.want)
			}
		})
	}
}
