// Show command displays one requirement in detail.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/mesh-intelligence/pantry/pkg/types"
)

var (
	showCategory string
	showManifest string
)

var showCmd = &cobra.Command{
	Use:   "show <name>",
	Short: "Show a requirement from the catalog",
	Long: `Show displays every catalog declaration of the named package. Names
match after normalization, so "Py-Test" finds "py.test".

Example:
  pantry show pytest
  pantry show sphinx --category docs
  pantry show pytest --json`,
	Args: cobra.ExactArgs(1),
	RunE: runShow,
}

func init() {
	showCmd.Flags().StringVar(&showCategory, "category", "", "filter by category (test, lint, docs)")
	showCmd.Flags().StringVar(&showManifest, "manifest", "", "filter by manifest ID")
}

func runShow(cmd *cobra.Command, args []string) error {
	if showCategory != "" && !types.IsValidCategory(showCategory) {
		fmt.Fprintf(os.Stderr, "show: invalid category %q\n", showCategory)
		os.Exit(exitUserError)
	}

	backend, err := attachBackend()
	if err != nil {
		fmt.Fprintln(os.Stderr, "show:", err)
		os.Exit(exitSysError)
	}
	defer backend.Detach()

	table, err := backend.GetTable(types.TableRequirements)
	if err != nil {
		fmt.Fprintln(os.Stderr, "show:", err)
		os.Exit(exitSysError)
	}

	filter := map[string]any{"name": args[0]}
	if showCategory != "" {
		filter["category"] = showCategory
	}
	if showManifest != "" {
		filter["manifest_id"] = showManifest
	}

	entities, err := table.Fetch(filter)
	if err != nil {
		fmt.Fprintln(os.Stderr, "show:", err)
		os.Exit(exitSysError)
	}
	if len(entities) == 0 {
		fmt.Fprintf(os.Stderr, "show: %s: %v\n", args[0], types.ErrNotFound)
		os.Exit(exitUserError)
	}
	reqs := requirementsFromEntities(entities)

	if flagJSON {
		return printJSON(reqs)
	}
	for i, req := range reqs {
		if i > 0 {
			fmt.Println()
		}
		printRequirement(req)
	}
	return nil
}

// printRequirement prints one requirement's fields.
func printRequirement(req *types.Requirement) {
	fmt.Println("Name:      ", req.Name)
	fmt.Println("Category:  ", req.Category)
	fmt.Println("Specifier: ", req.Specifier())
	if len(req.Extras) > 0 {
		fmt.Println("Extras:    ", req.Extras)
	}
	if req.Source != nil {
		fmt.Println("Source:    ", req.Source.String())
	}
	if req.Comment != "" {
		fmt.Println("Comment:   ", req.Comment)
	}
	fmt.Println("ID:        ", req.RequirementID)
	if req.ManifestID != "" {
		fmt.Println("Manifest:  ", req.ManifestID)
	}
	fmt.Println("Created:   ", req.CreatedAt.Format("2006-01-02 15:04:05"))
}
