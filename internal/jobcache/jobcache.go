// Package jobcache decides whether a job's artifact is already on disk.
//
// Presence of the artifact file is the only signal: no checksum or
// staleness check is performed.
package jobcache

import (
	"log/slog"
	"os"
)

// DefaultArtifactName is the file whose presence marks a job complete.
const DefaultArtifactName = "solution.json"

// Exists reports whether path exists. Stat errors other than not-exist are
// treated as absent so the job runs again.
func Exists(path string) bool {
	_, err := os.Stat(path)
	if err == nil {
		return true
	}
	if !os.IsNotExist(err) {
		slog.Debug("Artifact stat failed, treating as missing", "path", path, "error", err)
	}
	return false
}

// ShouldRun returns false iff artifactPath exists and force is false.
func ShouldRun(artifactPath string, force bool) bool {
	if force {
		return true
	}
	return !Exists(artifactPath)
}
