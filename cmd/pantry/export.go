// Export command renders a catalog snapshot back to manifest text.
package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/mesh-intelligence/pantry/pkg/manifest"
	"github.com/mesh-intelligence/pantry/pkg/types"
)

var exportOutput string

var exportCmd = &cobra.Command{
	Use:   "export [manifest-id]",
	Short: "Export a catalog snapshot as manifest text",
	Long: `Export renders the requirements of a manifest snapshot as canonical
manifest text, grouped by category with section headers. Without an
argument the most recently imported snapshot is exported.

Example:
  pantry export
  pantry export 0198c9a1-4f2e-7d30-b1aa-9e71f0c24d55
  pantry export -o requirements.txt`,
	Args: cobra.MaximumNArgs(1),
	RunE: runExport,
}

func init() {
	exportCmd.Flags().StringVarP(&exportOutput, "output", "o", "", "write to file instead of stdout")
}

func runExport(cmd *cobra.Command, args []string) error {
	backend, err := attachBackend()
	if err != nil {
		fmt.Fprintln(os.Stderr, "export:", err)
		os.Exit(exitSysError)
	}
	defer backend.Detach()

	manifests, err := backend.GetTable(types.TableManifests)
	if err != nil {
		fmt.Fprintln(os.Stderr, "export:", err)
		os.Exit(exitSysError)
	}
	requirements, err := backend.GetTable(types.TableRequirements)
	if err != nil {
		fmt.Fprintln(os.Stderr, "export:", err)
		os.Exit(exitSysError)
	}

	var manifestID string
	if len(args) == 1 {
		manifestID = args[0]
		if _, err := manifests.Get(manifestID); err != nil {
			if errors.Is(err, types.ErrNotFound) {
				err = fmt.Errorf("%w: %s", types.ErrManifestNotFound, manifestID)
			}
			fmt.Fprintln(os.Stderr, "export:", err)
			os.Exit(exitUserError)
		}
	} else {
		// Newest snapshot first.
		entities, err := manifests.Fetch(nil)
		if err != nil {
			fmt.Fprintln(os.Stderr, "export:", err)
			os.Exit(exitSysError)
		}
		if len(entities) == 0 {
			fmt.Fprintf(os.Stderr, "export: %v: no manifests imported\n", types.ErrManifestNotFound)
			os.Exit(exitUserError)
		}
		manifestID = entities[0].(*types.ManifestRecord).ManifestID
	}

	entities, err := requirements.Fetch(map[string]any{"manifest_id": manifestID})
	if err != nil {
		fmt.Fprintln(os.Stderr, "export:", err)
		os.Exit(exitSysError)
	}

	text := manifest.Render(requirementsFromEntities(entities))

	if exportOutput != "" {
		if err := os.WriteFile(exportOutput, []byte(text), 0o644); err != nil {
			fmt.Fprintln(os.Stderr, "export:", err)
			os.Exit(exitSysError)
		}
		fmt.Printf("exported %d requirements to %s\n", len(entities), exportOutput)
		return nil
	}
	fmt.Print(text)
	return nil
}
