// Shared helpers for pantry CLI commands.
package main

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/mesh-intelligence/pantry/internal/sqlite"
	"github.com/mesh-intelligence/pantry/pkg/types"
)

// attachBackend resolves the data directory, creates a SQLite backend, and
// attaches it. The caller must defer backend.Detach().
func attachBackend() (*sqlite.Backend, error) {
	dataDir, err := resolveDataDir()
	if err != nil {
		return nil, fmt.Errorf("resolve data dir: %w", err)
	}

	cfg := types.Config{
		Backend: types.BackendSQLite,
		DataDir: dataDir,
	}

	backend := sqlite.NewBackend()
	if err := backend.Attach(cfg); err != nil {
		return nil, fmt.Errorf("attach backend: %w", err)
	}

	return backend, nil
}

// manifestPath returns the manifest file to operate on: the --file flag when
// set, otherwise the manifest key from config.yaml.
func manifestPath(flagValue string) string {
	if flagValue != "" {
		return flagValue
	}
	if configManifest != "" {
		return configManifest
	}
	return defaultManifest
}

// printJSON writes v as indented JSON to stdout.
func printJSON(v any) error {
	output, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal output: %w", err)
	}
	fmt.Println(string(output))
	return nil
}

// requirementsFromEntities type-asserts a Fetch result into requirements.
func requirementsFromEntities(entities []any) []*types.Requirement {
	reqs := make([]*types.Requirement, len(entities))
	for i, entity := range entities {
		reqs[i] = entity.(*types.Requirement)
	}
	return reqs
}

// isNotFound returns true if the error wraps ErrNotFound.
func isNotFound(err error) bool {
	return errors.Is(err, types.ErrNotFound)
}
