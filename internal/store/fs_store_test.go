package store

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/cwbudde/gcsbatch/internal/experiment"
)

// setupTestStore creates a temporary directory and returns an FSStore for testing.
func setupTestStore(t *testing.T) (*FSStore, string) {
	t.Helper()

	tempDir := t.TempDir()
	store, err := NewFSStore(tempDir)
	if err != nil {
		t.Fatalf("Failed to create test store: %v", err)
	}

	return store, tempDir
}

func TestNewFSStoreCreatesParents(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "conf", "contact_params")

	store, err := NewFSStore(dir)
	if err != nil {
		t.Fatalf("NewFSStore failed: %v", err)
	}
	if store.Dir() != dir {
		t.Errorf("Expected dir %s, got %s", dir, store.Dir())
	}
	if info, err := os.Stat(dir); err != nil || !info.IsDir() {
		t.Fatal("Config directory was not created")
	}
}

func TestNewFSStoreFailsOnFile(t *testing.T) {
	file := filepath.Join(t.TempDir(), "blocker")
	if err := os.WriteFile(file, nil, 0644); err != nil {
		t.Fatal(err)
	}

	if _, err := NewFSStore(filepath.Join(file, "sub")); err == nil {
		t.Fatal("Expected error when a parent is a regular file")
	}
}

func TestOpenFSStoreMissing(t *testing.T) {
	if _, err := OpenFSStore(filepath.Join(t.TempDir(), "missing")); err == nil {
		t.Fatal("Expected error for missing directory")
	}
}

func TestWriteAndLoad(t *testing.T) {
	store, tempDir := setupTestStore(t)
	record := experiment.Record{GraphName: "cg_simple_4", UseL1Cost: true, Seed: 5}

	path, err := store.Write(record, "cg_simple_4_True_5.yaml")
	if err != nil {
		t.Fatalf("Write failed: %v", err)
	}

	expectedPath := filepath.Join(tempDir, "cg_simple_4_True_5.yaml")
	if path != expectedPath {
		t.Errorf("Expected path %s, got %s", expectedPath, path)
	}
	if _, err := os.Stat(expectedPath + ".tmp"); !os.IsNotExist(err) {
		t.Errorf("Temp file should not exist after write")
	}

	loaded, err := store.Load("cg_simple_4_True_5.yaml")
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if diff := cmp.Diff(record, loaded); diff != "" {
		t.Errorf("Loaded record mismatch (-want +got):\n%s", diff)
	}
}

func TestWriteSortedKeys(t *testing.T) {
	store, _ := setupTestStore(t)

	path, err := store.Write(experiment.Record{GraphName: "cg_simple_4", Seed: 12}, "a.yaml")
	if err != nil {
		t.Fatalf("Write failed: %v", err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	want := "graph_name: cg_simple_4\nseed: 12\nuse_l1_cost: false\n"
	if string(data) != want {
		t.Errorf("Unexpected file content:\n%s\nwant:\n%s", data, want)
	}
}

func TestWriteRejectsInvalid(t *testing.T) {
	store, _ := setupTestStore(t)

	tests := []struct {
		name     string
		record   experiment.Record
		filename string
	}{
		{"empty graph", experiment.Record{Seed: 1}, "x.yaml"},
		{"negative seed", experiment.Record{GraphName: "g", Seed: -1}, "x.yaml"},
		{"empty filename", experiment.Record{GraphName: "g"}, ""},
		{"path traversal", experiment.Record{GraphName: "g"}, "../x.yaml"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := store.Write(tt.record, tt.filename); err == nil {
				t.Fatal("Expected error")
			}
		})
	}
}

func TestLoadNotFound(t *testing.T) {
	store, _ := setupTestStore(t)

	_, err := store.Load("missing.yaml")
	if !errors.Is(err, ErrNotFound) {
		t.Fatalf("Expected ErrNotFound, got %v", err)
	}
	if !strings.Contains(err.Error(), "missing.yaml") {
		t.Errorf("Error should name the config: %v", err)
	}
}

func TestLoadCorrupted(t *testing.T) {
	store, tempDir := setupTestStore(t)
	if err := os.WriteFile(filepath.Join(tempDir, "bad.yaml"), []byte("graph_name: [unclosed"), 0644); err != nil {
		t.Fatal(err)
	}

	if _, err := store.Load("bad.yaml"); err == nil {
		t.Fatal("Expected error for corrupted file")
	}
}

func TestListExistingAndNames(t *testing.T) {
	store, tempDir := setupTestStore(t)

	for _, name := range []string{"b_True_1.yaml", "a_False_2.yaml"} {
		if _, err := store.Write(experiment.Record{GraphName: "g"}, name); err != nil {
			t.Fatalf("Write failed: %v", err)
		}
	}
	// Entries that are not config files are ignored
	os.WriteFile(filepath.Join(tempDir, "notes.txt"), []byte("x"), 0644)
	os.WriteFile(filepath.Join(tempDir, "c.yaml.tmp"), []byte("x"), 0644)
	os.Mkdir(filepath.Join(tempDir, "dir.yaml"), 0755)

	existing, err := store.ListExisting()
	if err != nil {
		t.Fatalf("ListExisting failed: %v", err)
	}
	if len(existing) != 2 {
		t.Errorf("Expected 2 configs, got %v", existing)
	}

	names, err := store.Names()
	if err != nil {
		t.Fatalf("Names failed: %v", err)
	}
	if diff := cmp.Diff([]string{"a_False_2.yaml", "b_True_1.yaml"}, names); diff != "" {
		t.Errorf("Names mismatch (-want +got):\n%s", diff)
	}
}

func TestListExistingEmpty(t *testing.T) {
	store, _ := setupTestStore(t)

	existing, err := store.ListExisting()
	if err != nil {
		t.Fatalf("ListExisting failed: %v", err)
	}
	if len(existing) != 0 {
		t.Errorf("Expected no configs, got %v", existing)
	}
}
