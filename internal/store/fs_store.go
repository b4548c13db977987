package store

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/cwbudde/gcsbatch/internal/experiment"
)

// FSStore implements the Store interface with one YAML file per record:
// <dir>/<filename>. Writes use temp file + rename.
type FSStore struct {
	dir string
}

// NewFSStore creates a new filesystem-based store.
// The directory and its parents are created if they don't exist.
func NewFSStore(dir string) (*FSStore, error) {
	if dir == "" {
		return nil, fmt.Errorf("store directory cannot be empty")
	}
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create config directory: %w", err)
	}

	return &FSStore{dir: dir}, nil
}

// OpenFSStore opens an existing store without creating it.
func OpenFSStore(dir string) (*FSStore, error) {
	info, err := os.Stat(dir)
	if err != nil {
		return nil, fmt.Errorf("failed to open config directory: %w", err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("config path is not a directory: %s", dir)
	}
	return &FSStore{dir: dir}, nil
}

func (fs *FSStore) Dir() string {
	return fs.dir
}

func (fs *FSStore) path(filename string) string {
	return filepath.Join(fs.dir, filename)
}

// Write serializes record as YAML (keys sorted) to <dir>/<filename>.
func (fs *FSStore) Write(record experiment.Record, filename string) (string, error) {
	if filename == "" || filepath.Base(filename) != filename {
		return "", fmt.Errorf("invalid config filename: %q", filename)
	}
	if err := record.Validate(); err != nil {
		return "", err
	}

	data, err := yaml.Marshal(record)
	if err != nil {
		return "", fmt.Errorf("failed to serialize config: %w", err)
	}

	finalPath := fs.path(filename)
	tempPath := finalPath + ".tmp"
	if err := os.WriteFile(tempPath, data, 0644); err != nil {
		return "", fmt.Errorf("failed to write temp config file: %w", err)
	}
	if err := os.Rename(tempPath, finalPath); err != nil {
		os.Remove(tempPath)
		return "", fmt.Errorf("failed to rename config file: %w", err)
	}

	slog.Debug("Config saved", "config", filename, "path", finalPath)
	return finalPath, nil
}

// Load reads the record stored under filename.
func (fs *FSStore) Load(filename string) (experiment.Record, error) {
	var record experiment.Record
	if filename == "" {
		return record, fmt.Errorf("config name cannot be empty")
	}

	data, err := os.ReadFile(fs.path(filename))
	if os.IsNotExist(err) {
		return record, &NotFoundError{Name: filename}
	} else if err != nil {
		return record, fmt.Errorf("failed to read config file: %w", err)
	}

	if err := yaml.Unmarshal(data, &record); err != nil {
		return record, fmt.Errorf("failed to deserialize config %s: %w", filename, err)
	}
	if err := record.Validate(); err != nil {
		return record, fmt.Errorf("config %s: %w", filename, err)
	}
	return record, nil
}

// ListExisting returns the names of regular *.yaml files in the directory.
func (fs *FSStore) ListExisting() (map[string]struct{}, error) {
	entries, err := os.ReadDir(fs.dir)
	if err != nil {
		return nil, fmt.Errorf("failed to read config directory: %w", err)
	}

	names := make(map[string]struct{}, len(entries))
	for _, entry := range entries {
		if !entry.Type().IsRegular() {
			continue
		}
		if !strings.HasSuffix(entry.Name(), experiment.FileExtension) {
			continue
		}
		names[entry.Name()] = struct{}{}
	}

	slog.Debug("Listed configs", "dir", fs.dir, "count", len(names))
	return names, nil
}

// Names returns ListExisting as a sorted slice.
func (fs *FSStore) Names() ([]string, error) {
	existing, err := fs.ListExisting()
	if err != nil {
		return nil, err
	}
	names := make([]string, 0, len(existing))
	for name := range existing {
		names = append(names, name)
	}
	sort.Strings(names)
	return names, nil
}
