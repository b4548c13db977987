package experiment_test

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"

	"github.com/cwbudde/gcsbatch/internal/experiment"
	"github.com/cwbudde/gcsbatch/internal/store"
)

// yamlFiles returns the names of regular .yaml files in dir.
func yamlFiles(t *testing.T, dir string) []string {
	t.Helper()

	entries, err := os.ReadDir(dir)
	if err != nil {
		t.Fatalf("ReadDir failed: %v", err)
	}
	var names []string
	for _, e := range entries {
		if e.Type().IsRegular() && strings.HasSuffix(e.Name(), ".yaml") {
			names = append(names, e.Name())
		}
	}
	return names
}

func setupStore(t *testing.T) (*store.FSStore, string) {
	t.Helper()

	dir := filepath.Join(t.TempDir(), "conf", "contact_params")
	fsStore, err := store.NewFSStore(dir)
	if err != nil {
		t.Fatalf("NewFSStore failed: %v", err)
	}
	return fsStore, dir
}

func TestGenerateDefaultBatch(t *testing.T) {
	fsStore, dir := setupStore(t)

	result, err := experiment.NewGenerator().Generate(fsStore)
	if err != nil {
		t.Fatalf("Generate failed: %v", err)
	}

	if len(result.Configs) != 150 {
		t.Fatalf("Expected 150 configs, got %d", len(result.Configs))
	}
	// The clock fallback must not be reachable with the default parameters.
	if result.Fallbacks != 0 {
		t.Errorf("Expected no fallbacks, got %d", result.Fallbacks)
	}
	if files := yamlFiles(t, dir); len(files) != 150 {
		t.Errorf("Expected 150 files, got %d", len(files))
	}
}

func TestGenerateReproducible(t *testing.T) {
	storeA, _ := setupStore(t)
	storeB, _ := setupStore(t)

	a, err := experiment.NewGenerator().Generate(storeA)
	if err != nil {
		t.Fatalf("Generate failed: %v", err)
	}
	b, err := experiment.NewGenerator().Generate(storeB)
	if err != nil {
		t.Fatalf("Generate failed: %v", err)
	}

	if diff := cmp.Diff(a.Configs, b.Configs); diff != "" {
		t.Errorf("Batches differ (-a +b):\n%s", diff)
	}
}

func TestGenerateFallbackStress(t *testing.T) {
	fsStore, dir := setupStore(t)

	g := experiment.NewGenerator()
	g.Sampler.SeedMin = 0
	g.Sampler.SeedMax = 2
	g.Allocator.MaxAttempts = 3
	stamp := time.Unix(1700000000, 0)
	g.Allocator.Now = func() time.Time { return stamp }

	result, err := g.Generate(fsStore)
	if err != nil {
		t.Fatalf("Generate failed: %v", err)
	}

	if result.Fallbacks == 0 {
		t.Fatal("Expected the fallback path to be exercised")
	}
	if files := yamlFiles(t, dir); len(files) != 150 {
		t.Errorf("Expected 150 distinct files, got %d", len(files))
	}

	seen := map[string]bool{}
	for _, c := range result.Configs {
		if seen[c.Name] {
			t.Errorf("Duplicate name %s", c.Name)
		}
		seen[c.Name] = true
	}
}

func TestGenerateAvoidsPriorRun(t *testing.T) {
	fsStore, dir := setupStore(t)

	first, err := experiment.NewGenerator().Generate(fsStore)
	if err != nil {
		t.Fatalf("First Generate failed: %v", err)
	}
	second, err := experiment.NewGenerator().Generate(fsStore)
	if err != nil {
		t.Fatalf("Second Generate failed: %v", err)
	}

	prior := map[string]bool{}
	for _, c := range first.Configs {
		prior[c.Name] = true
	}
	for _, c := range second.Configs {
		if prior[c.Name] {
			t.Errorf("Second run reused name %s", c.Name)
		}
	}
	if files := yamlFiles(t, dir); len(files) != 300 {
		t.Errorf("Expected 300 files, got %d", len(files))
	}
}

func TestGenerateRecordsMatchFiles(t *testing.T) {
	fsStore, _ := setupStore(t)

	g := experiment.NewGenerator()
	g.Count = 20
	result, err := g.Generate(fsStore)
	if err != nil {
		t.Fatalf("Generate failed: %v", err)
	}

	for _, c := range result.Configs {
		loaded, err := fsStore.Load(c.Name)
		if err != nil {
			t.Fatalf("Load(%s) failed: %v", c.Name, err)
		}
		if loaded != c.Record {
			t.Errorf("Load(%s) = %+v, want %+v", c.Name, loaded, c.Record)
		}
		if experiment.Filename(loaded) != c.Name {
			t.Errorf("Stored record %+v does not produce name %s", loaded, c.Name)
		}
	}
}

type failingWriter struct {
	writes int
}

func (w *failingWriter) ListExisting() (map[string]struct{}, error) {
	return map[string]struct{}{}, nil
}

func (w *failingWriter) Write(experiment.Record, string) (string, error) {
	w.writes++
	if w.writes == 3 {
		return "", errors.New("disk full")
	}
	return "ok", nil
}

func TestGenerateStopsOnWriteError(t *testing.T) {
	w := &failingWriter{}

	_, err := experiment.NewGenerator().Generate(w)
	if err == nil {
		t.Fatal("Expected write error")
	}
	if w.writes != 3 {
		t.Errorf("Expected generation to stop at the failing write, got %d writes", w.writes)
	}
}
