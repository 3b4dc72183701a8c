// List command queries catalog requirements and manifests.
package main

import (
	"fmt"
	"os"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/mesh-intelligence/pantry/internal/sqlite"
	"github.com/mesh-intelligence/pantry/pkg/types"
)

var (
	listCategory  string
	listName      string
	listManifest  string
	listLimit     int
	listManifests bool
)

var listCmd = &cobra.Command{
	Use:   "list",
	Short: "List catalog requirements",
	Long: `List fetches requirement declarations from the catalog and displays
them in insertion order. Use --manifests to list imported manifest
snapshots instead.

Example:
  pantry list
  pantry list --category lint
  pantry list --manifest 0198c9a1-4f2e-7d30-b1aa-9e71f0c24d55 --limit 10
  pantry list --manifests --json`,
	Args: cobra.NoArgs,
	RunE: runList,
}

func init() {
	listCmd.Flags().StringVar(&listCategory, "category", "", "filter by category (test, lint, docs)")
	listCmd.Flags().StringVar(&listName, "name", "", "filter by package name (normalized match)")
	listCmd.Flags().StringVar(&listManifest, "manifest", "", "filter by manifest ID")
	listCmd.Flags().IntVar(&listLimit, "limit", 0, "maximum number of results (0 = no limit)")
	listCmd.Flags().BoolVar(&listManifests, "manifests", false, "list manifest snapshots instead of requirements")
}

func runList(cmd *cobra.Command, args []string) error {
	if listCategory != "" && !types.IsValidCategory(listCategory) {
		fmt.Fprintf(os.Stderr, "list: invalid category %q\n", listCategory)
		os.Exit(exitUserError)
	}

	backend, err := attachBackend()
	if err != nil {
		fmt.Fprintln(os.Stderr, "list:", err)
		os.Exit(exitSysError)
	}
	defer backend.Detach()

	if listManifests {
		return runListManifests(backend)
	}

	table, err := backend.GetTable(types.TableRequirements)
	if err != nil {
		fmt.Fprintln(os.Stderr, "list:", err)
		os.Exit(exitSysError)
	}

	filter := make(map[string]any)
	if listCategory != "" {
		filter["category"] = listCategory
	}
	if listName != "" {
		filter["name"] = listName
	}
	if listManifest != "" {
		filter["manifest_id"] = listManifest
	}
	if listLimit > 0 {
		filter["limit"] = listLimit
	}

	entities, err := table.Fetch(filter)
	if err != nil {
		fmt.Fprintln(os.Stderr, "list:", err)
		os.Exit(exitSysError)
	}
	reqs := requirementsFromEntities(entities)

	if flagJSON {
		return printJSON(reqs)
	}
	printRequirementTable(reqs)
	return nil
}

func runListManifests(backend *sqlite.Backend) error {
	table, err := backend.GetTable(types.TableManifests)
	if err != nil {
		fmt.Fprintln(os.Stderr, "list:", err)
		os.Exit(exitSysError)
	}

	entities, err := table.Fetch(nil)
	if err != nil {
		fmt.Fprintln(os.Stderr, "list:", err)
		os.Exit(exitSysError)
	}
	records := make([]*types.ManifestRecord, len(entities))
	for i, entity := range entities {
		records[i] = entity.(*types.ManifestRecord)
	}

	if flagJSON {
		return printJSON(records)
	}
	printManifestTable(records)
	return nil
}

// printRequirementTable prints requirements in a human-readable table.
func printRequirementTable(reqs []*types.Requirement) {
	if len(reqs) == 0 {
		fmt.Println("No requirements found.")
		return
	}

	var sb strings.Builder
	w := tabwriter.NewWriter(&sb, 0, 0, 2, ' ', 0)

	fmt.Fprintln(w, "ID\tNAME\tCATEGORY\tSPECIFIER")
	fmt.Fprintln(w, "--\t----\t--------\t---------")
	for _, req := range reqs {
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\n",
			shortID(req.RequirementID),
			req.Name,
			req.Category,
			req.Specifier(),
		)
	}
	w.Flush()

	printTrimmed(sb.String())
	fmt.Printf("Total: %d requirement(s)\n", len(reqs))
}

// printManifestTable prints manifest snapshots in a human-readable table.
func printManifestTable(records []*types.ManifestRecord) {
	if len(records) == 0 {
		fmt.Println("No manifests found.")
		return
	}

	var sb strings.Builder
	w := tabwriter.NewWriter(&sb, 0, 0, 2, ' ', 0)

	fmt.Fprintln(w, "ID\tPATH\tCHECKSUM\tIMPORTED")
	fmt.Fprintln(w, "--\t----\t--------\t--------")
	for _, rec := range records {
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\n",
			shortID(rec.ManifestID),
			rec.Path,
			shortID(rec.Checksum),
			rec.ImportedAt.Format("2006-01-02 15:04"),
		)
	}
	w.Flush()

	printTrimmed(sb.String())
	fmt.Printf("Total: %d manifest(s)\n", len(records))
}

// shortID truncates an identifier to its first 8 characters for display.
func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}

// printTrimmed prints tabwriter output with trailing spaces removed.
func printTrimmed(output string) {
	for _, line := range strings.Split(strings.TrimRight(output, "\n"), "\n") {
		fmt.Println(strings.TrimRight(line, " "))
	}
}
