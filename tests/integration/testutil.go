// Package integration provides CLI integration tests for pantry.
package integration

import (
	"bufio"
	"bytes"
	"encoding/json"
	"os"
	"os/exec"
	"path/filepath"
	"testing"
)

var (
	// pantryBin is the path to the built pantry binary.
	pantryBin string
	// buildErr captures any build error.
	buildErr error
)

// BuildError wraps a build error with output.
type BuildError struct {
	Err    error
	Output string
}

func (e *BuildError) Error() string {
	return e.Err.Error() + ": " + e.Output
}

// FindProjectRoot finds the project root by walking up and looking for go.mod.
func FindProjectRoot() (string, error) {
	dir, err := os.Getwd()
	if err != nil {
		return "", err
	}

	for {
		goModPath := filepath.Join(dir, "go.mod")
		if _, err := os.Stat(goModPath); err == nil {
			return dir, nil
		}

		parent := filepath.Dir(dir)
		if parent == dir {
			return "", os.ErrNotExist
		}
		dir = parent
	}
}

// SetPantryBin sets the path to the pantry binary (called from TestMain).
func SetPantryBin(path string) {
	pantryBin = path
}

// SetBuildErr sets the build error (called from TestMain).
func SetBuildErr(err error) {
	buildErr = err
}

// TestEnv provides an isolated test environment with its own config and data
// directory, plus a working directory for manifest files.
type TestEnv struct {
	t       *testing.T
	TempDir string
	Config  string
	DataDir string
	WorkDir string
}

// NewTestEnv creates a new isolated test environment.
func NewTestEnv(t *testing.T) *TestEnv {
	t.Helper()

	if buildErr != nil {
		t.Fatalf("failed to build pantry: %v", buildErr)
	}
	if pantryBin == "" {
		t.Fatal("pantry binary not built (pantryBin is empty)")
	}

	tempDir := t.TempDir()
	dataDir := filepath.Join(tempDir, "data")
	configDir := filepath.Join(tempDir, "config")
	workDir := filepath.Join(tempDir, "work")

	if err := os.MkdirAll(configDir, 0755); err != nil {
		t.Fatalf("failed to create config dir: %v", err)
	}
	if err := os.MkdirAll(workDir, 0755); err != nil {
		t.Fatalf("failed to create work dir: %v", err)
	}
	configContent := "backend: sqlite\ndata_dir: " + dataDir + "\n"
	if err := os.WriteFile(filepath.Join(configDir, "config.yaml"), []byte(configContent), 0644); err != nil {
		t.Fatalf("failed to write config: %v", err)
	}

	return &TestEnv{
		t:       t,
		TempDir: tempDir,
		Config:  configDir,
		DataDir: dataDir,
		WorkDir: workDir,
	}
}

// WriteManifest writes a manifest file into the work directory and returns
// its full path.
func (e *TestEnv) WriteManifest(name, content string) string {
	e.t.Helper()
	path := filepath.Join(e.WorkDir, name)
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		e.t.Fatalf("failed to write manifest %s: %v", name, err)
	}
	return path
}

// ReadManifest reads a manifest file from the work directory.
func (e *TestEnv) ReadManifest(name string) string {
	e.t.Helper()
	data, err := os.ReadFile(filepath.Join(e.WorkDir, name))
	if err != nil {
		e.t.Fatalf("failed to read manifest %s: %v", name, err)
	}
	return string(data)
}

// CmdResult holds the result of a pantry command execution.
type CmdResult struct {
	Stdout   string
	Stderr   string
	ExitCode int
}

// RunPantry executes the pantry CLI with the given arguments.
// Returns stdout, stderr, and exit code.
func (e *TestEnv) RunPantry(args ...string) CmdResult {
	e.t.Helper()

	allArgs := append([]string{"--config-dir", e.Config, "--data-dir", e.DataDir}, args...)
	cmd := exec.Command(pantryBin, allArgs...)
	cmd.Dir = e.WorkDir

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	err := cmd.Run()
	exitCode := 0
	if err != nil {
		if exitErr, ok := err.(*exec.ExitError); ok {
			exitCode = exitErr.ExitCode()
		} else {
			e.t.Fatalf("failed to run pantry: %v", err)
		}
	}

	return CmdResult{
		Stdout:   stdout.String(),
		Stderr:   stderr.String(),
		ExitCode: exitCode,
	}
}

// MustRunPantry executes the pantry CLI and fails the test if it returns non-zero.
func (e *TestEnv) MustRunPantry(args ...string) CmdResult {
	e.t.Helper()
	result := e.RunPantry(args...)
	if result.ExitCode != 0 {
		e.t.Fatalf("pantry %v failed with exit code %d:\nstdout: %s\nstderr: %s",
			args, result.ExitCode, result.Stdout, result.Stderr)
	}
	return result
}

// ParseJSON parses JSON output into the target type.
func ParseJSON[T any](t *testing.T, jsonStr string) T {
	t.Helper()
	var result T
	if err := json.Unmarshal([]byte(jsonStr), &result); err != nil {
		t.Fatalf("failed to parse JSON %q: %v", jsonStr, err)
	}
	return result
}

// Requirement represents a requirement entity for JSON parsing.
type Requirement struct {
	RequirementID string `json:"requirement_id"`
	ManifestID    string `json:"manifest_id"`
	Name          string `json:"name"`
	Category      string `json:"category"`
	Comment       string `json:"comment"`
}

// ManifestRecord represents a manifest snapshot for JSON parsing.
type ManifestRecord struct {
	ManifestID string `json:"manifest_id"`
	Path       string `json:"path"`
	Checksum   string `json:"checksum"`
}

// ImportReport matches the JSON output of pantry import.
type ImportReport struct {
	ManifestID   string `json:"manifest_id"`
	Path         string `json:"path"`
	Checksum     string `json:"checksum"`
	Requirements int    `json:"requirements"`
}

// CheckReport matches the JSON output of pantry check.
type CheckReport struct {
	File     string         `json:"file"`
	Valid    bool           `json:"valid"`
	Counts   map[string]int `json:"counts"`
	Problems []string       `json:"problems"`
}

// ReadJSONLFile reads a JSONL file (one JSON object per line) and returns a slice.
func ReadJSONLFile[T any](t *testing.T, path string) []T {
	t.Helper()
	f, err := os.Open(path)
	if err != nil {
		t.Fatalf("failed to open JSONL file %s: %v", path, err)
	}
	defer f.Close()

	var results []T
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		line := scanner.Bytes()
		if len(line) == 0 {
			continue
		}
		var record T
		if err := json.Unmarshal(line, &record); err != nil {
			t.Fatalf("failed to parse JSONL line in %s: %v", path, err)
		}
		results = append(results, record)
	}
	if err := scanner.Err(); err != nil {
		t.Fatalf("failed to scan JSONL file %s: %v", path, err)
	}
	return results
}
