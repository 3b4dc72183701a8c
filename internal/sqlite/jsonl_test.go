// Tests for JSONL persistence.
package sqlite

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/mesh-intelligence/pantry/pkg/types"
)

func TestJSONLFilesCreatedOnAttach(t *testing.T) {
	tmpDir := t.TempDir()

	b := NewBackend()
	config := types.Config{
		Backend: types.BackendSQLite,
		DataDir: tmpDir,
	}

	if err := b.Attach(config); err != nil {
		t.Fatalf("Attach failed: %v", err)
	}
	defer b.Detach()

	for _, name := range jsonlFiles {
		path := filepath.Join(tmpDir, name)
		info, err := os.Stat(path)
		if os.IsNotExist(err) {
			t.Errorf("expected %s to be created, but it doesn't exist", name)
			continue
		}
		if info.Size() != 0 {
			t.Errorf("expected %s to start empty, has %d bytes", name, info.Size())
		}
	}
}

func TestJSONLWrittenOnSet(t *testing.T) {
	tmpDir := t.TempDir()

	b := NewBackend()
	config := types.Config{
		Backend: types.BackendSQLite,
		DataDir: tmpDir,
	}
	if err := b.Attach(config); err != nil {
		t.Fatalf("Attach failed: %v", err)
	}
	defer b.Detach()

	table, _ := b.GetTable(types.TableRequirements)
	if _, err := table.Set("", &types.Requirement{
		Name:        "pytest",
		Category:    types.CategoryTest,
		Constraints: []types.Constraint{{Op: types.OpGreaterEq, Version: "5"}},
	}); err != nil {
		t.Fatalf("Set failed: %v", err)
	}

	data, err := os.ReadFile(filepath.Join(tmpDir, requirementsJSONL))
	if err != nil {
		t.Fatalf("reading JSONL: %v", err)
	}
	content := string(data)
	if !strings.Contains(content, `"name":"pytest"`) {
		t.Errorf("requirement not persisted to JSONL: %s", content)
	}
	if !strings.Contains(content, `"constraints":">=5"`) {
		t.Errorf("constraints not persisted to JSONL: %s", content)
	}
	if strings.Count(content, "\n") != 1 {
		t.Errorf("expected one record line, got %q", content)
	}
}

func TestReadJSONLSkipsMalformedLines(t *testing.T) {
	tmpDir := t.TempDir()
	path := filepath.Join(tmpDir, "test.jsonl")

	content := `{"valid": 1}
not json at all
{"valid": 2}

{"valid": 3}
`
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("writing fixture: %v", err)
	}

	records, err := readJSONL(path)
	if err != nil {
		t.Fatalf("readJSONL failed: %v", err)
	}
	if len(records) != 3 {
		t.Errorf("expected 3 valid records, got %d", len(records))
	}
}

func TestWriteJSONLAtomic(t *testing.T) {
	tmpDir := t.TempDir()
	path := filepath.Join(tmpDir, "out.jsonl")

	if err := writeJSONL(path, nil); err != nil {
		t.Fatalf("writeJSONL empty failed: %v", err)
	}
	info, err := os.Stat(path)
	if err != nil {
		t.Fatalf("stat failed: %v", err)
	}
	if info.Size() != 0 {
		t.Errorf("expected empty file, got %d bytes", info.Size())
	}

	// No temp files left behind.
	entries, err := os.ReadDir(tmpDir)
	if err != nil {
		t.Fatalf("ReadDir failed: %v", err)
	}
	for _, e := range entries {
		if strings.HasPrefix(e.Name(), ".jsonl-") {
			t.Errorf("leftover temp file %s", e.Name())
		}
	}
}
