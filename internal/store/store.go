package store

import "github.com/cwbudde/gcsbatch/internal/experiment"

// Store defines the interface for configuration record persistence.
// Records are written once and never modified afterwards.
//
// Error handling conventions:
//   - Return nil error on success
//   - Return ErrNotFound if a record doesn't exist (for Load)
//   - Wrap underlying errors with context using fmt.Errorf("context: %w", err)
type Store interface {
	// Write atomically stores record under filename and returns its path.
	// An existing file with the same name is overwritten; callers avoid this
	// by allocating names against ListExisting.
	Write(record experiment.Record, filename string) (string, error)

	// Load reads and validates the record stored under filename.
	// Returns ErrNotFound if no such file exists.
	Load(filename string) (experiment.Record, error)

	// ListExisting returns the set of record file names already present.
	ListExisting() (map[string]struct{}, error)

	// Names returns the record file names in sorted order.
	Names() ([]string, error)

	// Dir returns the directory backing the store.
	Dir() string
}

// ErrNotFound is returned when a requested record does not exist.
// Use errors.Is(err, ErrNotFound) to check for this error.
var ErrNotFound = &NotFoundError{}

// NotFoundError represents a missing record file.
type NotFoundError struct {
	Name string
}

func (e *NotFoundError) Error() string {
	if e.Name != "" {
		return "config not found: " + e.Name
	}
	return "config not found"
}

func (e *NotFoundError) Is(target error) bool {
	_, ok := target.(*NotFoundError)
	return ok
}
