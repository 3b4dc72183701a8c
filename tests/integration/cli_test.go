// CLI integration tests for pantry initialization and basic commands.
package integration

import (
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"testing"
)

// TestMain builds the pantry binary once before running tests.
func TestMain(m *testing.M) {
	projectRoot, err := FindProjectRoot()
	if err != nil {
		SetBuildErr(err)
		os.Exit(1)
	}

	tmpDir, err := os.MkdirTemp("", "pantry-test-*")
	if err != nil {
		SetBuildErr(err)
		os.Exit(1)
	}
	binPath := filepath.Join(tmpDir, "pantry")
	SetPantryBin(binPath)

	cmd := exec.Command("go", "build", "-o", binPath, "./cmd/pantry")
	cmd.Dir = projectRoot
	if output, err := cmd.CombinedOutput(); err != nil {
		SetBuildErr(&BuildError{
			Err:    err,
			Output: string(output),
		})
		os.Exit(1)
	}

	code := m.Run()

	os.RemoveAll(tmpDir)

	os.Exit(code)
}

func TestInitializePantry(t *testing.T) {
	env := NewTestEnv(t)

	result := env.MustRunPantry("init")

	if !strings.Contains(result.Stdout, "initialized successfully") {
		t.Errorf("expected init success message, got %q", result.Stdout)
	}

	// Init creates the data directory and empty JSONL files.
	for _, name := range []string{"requirements.jsonl", "manifests.jsonl"} {
		if _, err := os.Stat(filepath.Join(env.DataDir, name)); err != nil {
			t.Errorf("expected %s in data dir: %v", name, err)
		}
	}
}

func TestVersionCommand(t *testing.T) {
	env := NewTestEnv(t)

	result := env.MustRunPantry("version")
	if !strings.Contains(result.Stdout, "pantry") {
		t.Errorf("expected version output, got %q", result.Stdout)
	}

	jsonResult := env.MustRunPantry("version", "--json")
	parsed := ParseJSON[map[string]string](t, jsonResult.Stdout)
	if parsed["version"] == "" {
		t.Errorf("expected version in JSON output, got %q", jsonResult.Stdout)
	}
}

func TestUnknownCommandFails(t *testing.T) {
	env := NewTestEnv(t)

	result := env.RunPantry("frobnicate")
	if result.ExitCode == 0 {
		t.Error("expected non-zero exit code for unknown command")
	}
}
