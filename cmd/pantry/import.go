// Import command snapshots a manifest file into the catalog.
package main

import (
	"crypto/sha256"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/mesh-intelligence/pantry/pkg/manifest"
	"github.com/mesh-intelligence/pantry/pkg/types"
)

var importFile string

var importCmd = &cobra.Command{
	Use:   "import [file]",
	Short: "Import a manifest file into the catalog",
	Long: `Import parses and validates a manifest file, then stores it in the
catalog as a snapshot: a manifest record with the file's checksum plus one
requirement row per declaration. The manifest must be valid; fix problems
reported by check first.

Example:
  pantry import
  pantry import requirements.txt
  pantry import --file dev-requirements.txt --json`,
	Args: cobra.MaximumNArgs(1),
	RunE: runImport,
}

func init() {
	importCmd.Flags().StringVar(&importFile, "file", "", "manifest file (default: manifest from config.yaml)")
}

// importReport is the JSON shape of an import result.
type importReport struct {
	ManifestID   string `json:"manifest_id"`
	Path         string `json:"path"`
	Checksum     string `json:"checksum"`
	Requirements int    `json:"requirements"`
}

func runImport(cmd *cobra.Command, args []string) error {
	path := manifestPath(importFile)
	if len(args) == 1 {
		path = args[0]
	}

	data, err := os.ReadFile(path)
	if err != nil {
		fmt.Fprintln(os.Stderr, "import:", err)
		os.Exit(exitSysError)
	}

	f, err := manifest.ParseString(string(data))
	if err != nil {
		fmt.Fprintln(os.Stderr, "import:", err)
		os.Exit(exitUserError)
	}
	if err := f.Validate(); err != nil {
		fmt.Fprintln(os.Stderr, "import:", err)
		os.Exit(exitUserError)
	}

	absPath, err := filepath.Abs(path)
	if err != nil {
		fmt.Fprintln(os.Stderr, "import:", err)
		os.Exit(exitSysError)
	}

	backend, err := attachBackend()
	if err != nil {
		fmt.Fprintln(os.Stderr, "import:", err)
		os.Exit(exitSysError)
	}
	defer backend.Detach()

	manifests, err := backend.GetTable(types.TableManifests)
	if err != nil {
		fmt.Fprintln(os.Stderr, "import:", err)
		os.Exit(exitSysError)
	}
	requirements, err := backend.GetTable(types.TableRequirements)
	if err != nil {
		fmt.Fprintln(os.Stderr, "import:", err)
		os.Exit(exitSysError)
	}

	checksum := fmt.Sprintf("%x", sha256.Sum256(data))
	manifestID, err := manifests.Set("", &types.ManifestRecord{
		Path:     absPath,
		Checksum: checksum,
	})
	if err != nil {
		fmt.Fprintln(os.Stderr, "import:", err)
		os.Exit(exitSysError)
	}

	reqs := f.Requirements()
	for _, req := range reqs {
		req.ManifestID = manifestID
		if _, err := requirements.Set("", req); err != nil {
			fmt.Fprintln(os.Stderr, "import:", err)
			os.Exit(exitSysError)
		}
	}

	if flagJSON {
		return printJSON(importReport{
			ManifestID:   manifestID,
			Path:         absPath,
			Checksum:     checksum,
			Requirements: len(reqs),
		})
	}
	fmt.Printf("imported %s (%d requirements)\n", path, len(reqs))
	fmt.Println("  manifest:", manifestID)
	return nil
}
