// Add command inserts a declaration into a manifest file.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/mesh-intelligence/pantry/pkg/manifest"
	"github.com/mesh-intelligence/pantry/pkg/types"
)

var (
	addFile     string
	addCategory string
)

var addCmd = &cobra.Command{
	Use:   "add <requirement>",
	Short: "Add a requirement to a manifest file",
	Long: `Add parses a single requirement line and appends it to its category
section in the manifest, creating the section when missing. All other lines
keep their original layout.

Example:
  pantry add "pytest>=5"
  pantry add flake8 --category lint
  pantry add "git+https://github.com/rapidsai/asvdb.git" --file requirements.txt`,
	Args: cobra.ExactArgs(1),
	RunE: runAdd,
}

func init() {
	addCmd.Flags().StringVar(&addFile, "file", "", "manifest file (default: manifest from config.yaml)")
	addCmd.Flags().StringVar(&addCategory, "category", types.CategoryTest, "category section (test, lint, docs)")
}

func runAdd(cmd *cobra.Command, args []string) error {
	if !types.IsValidCategory(addCategory) {
		fmt.Fprintf(os.Stderr, "add: invalid category %q\n", addCategory)
		os.Exit(exitUserError)
	}

	path := manifestPath(addFile)
	f, err := loadManifestForEdit(path)
	if err != nil {
		fmt.Fprintln(os.Stderr, "add:", err)
		os.Exit(exitSysError)
	}

	parsed, err := manifest.ParseString(args[0])
	if err != nil {
		fmt.Fprintln(os.Stderr, "add:", err)
		os.Exit(exitUserError)
	}
	reqs := parsed.Requirements()
	if len(reqs) != 1 {
		fmt.Fprintf(os.Stderr, "add: expected one requirement, got %d\n", len(reqs))
		os.Exit(exitUserError)
	}

	req := reqs[0]
	req.Category = addCategory
	if err := f.Add(req); err != nil {
		fmt.Fprintln(os.Stderr, "add:", err)
		os.Exit(exitUserError)
	}

	if err := writeManifest(path, f); err != nil {
		fmt.Fprintln(os.Stderr, "add:", err)
		os.Exit(exitSysError)
	}

	fmt.Printf("added %s to %s (%s)\n", req.Name, path, req.Category)
	return nil
}

// loadManifestForEdit parses the manifest at path, treating a missing file
// as an empty manifest so add can create it.
func loadManifestForEdit(path string) (*manifest.File, error) {
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return manifest.ParseString("")
	}
	f, err := manifest.ParseFile(path)
	if f == nil {
		return nil, err
	}
	// Malformed lines are preserved verbatim, so editing around them is safe.
	return f, nil
}

// writeManifest writes the rendered manifest back to path.
func writeManifest(path string, f *manifest.File) error {
	return os.WriteFile(path, []byte(f.String()), 0o644)
}
