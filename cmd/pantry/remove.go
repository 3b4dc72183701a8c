// Remove command deletes a declaration from a manifest file.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/mesh-intelligence/pantry/pkg/manifest"
	"github.com/mesh-intelligence/pantry/pkg/types"
)

var (
	removeFile     string
	removeCategory string
)

var removeCmd = &cobra.Command{
	Use:   "remove <name>",
	Short: "Remove a requirement from a manifest file",
	Long: `Remove deletes every declaration of the named package from the
manifest. Names match after normalization, so "Py-Test" removes "py.test".
Use --category to remove from one section only.

Example:
  pantry remove pytest
  pantry remove flake8 --category lint`,
	Args: cobra.ExactArgs(1),
	RunE: runRemove,
}

func init() {
	removeCmd.Flags().StringVar(&removeFile, "file", "", "manifest file (default: manifest from config.yaml)")
	removeCmd.Flags().StringVar(&removeCategory, "category", "", "restrict removal to one category")
}

func runRemove(cmd *cobra.Command, args []string) error {
	if removeCategory != "" && !types.IsValidCategory(removeCategory) {
		fmt.Fprintf(os.Stderr, "remove: invalid category %q\n", removeCategory)
		os.Exit(exitUserError)
	}

	path := manifestPath(removeFile)
	f, err := manifest.ParseFile(path)
	if f == nil {
		fmt.Fprintln(os.Stderr, "remove:", err)
		os.Exit(exitSysError)
	}

	if err := f.Remove(args[0], removeCategory); err != nil {
		fmt.Fprintln(os.Stderr, "remove:", err)
		os.Exit(exitUserError)
	}

	if err := writeManifest(path, f); err != nil {
		fmt.Fprintln(os.Stderr, "remove:", err)
		os.Exit(exitSysError)
	}

	fmt.Printf("removed %s from %s\n", args[0], path)
	return nil
}
