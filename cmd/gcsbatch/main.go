package main

import (
	"errors"
	"log"
	"os"
	"os/exec"

	"github.com/joho/godotenv"
)

func main() {
	// Variables already in the environment take precedence over .env
	_ = godotenv.Load()

	os.Exit(execute(os.Args[1:]))
}

// execute runs the command tree with args and returns the process exit code.
func execute(args []string) int {
	root := newRootCmd()
	root.SetArgs(args)
	if err := root.Execute(); err != nil {
		log.Printf("Error: %v\n", err)
		return exitCode(err)
	}
	return 0
}

// exitCode passes a failed solver's exit status through, so the batch driver
// sees the same code the solver returned.
func exitCode(err error) int {
	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) && exitErr.ExitCode() > 0 {
		return exitErr.ExitCode()
	}
	return 1
}
