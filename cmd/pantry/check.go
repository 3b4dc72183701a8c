// Check command parses and validates a manifest file.
package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/mesh-intelligence/pantry/pkg/manifest"
	"github.com/mesh-intelligence/pantry/pkg/types"
)

var checkFile string

var checkCmd = &cobra.Command{
	Use:   "check [file]",
	Short: "Parse and validate a manifest file",
	Long: `Check parses a manifest file, reports every malformed line, and
verifies that no category declares the same package twice.

Example:
  pantry check
  pantry check requirements.txt
  pantry check --file dev-requirements.txt --json`,
	Args: cobra.MaximumNArgs(1),
	RunE: runCheck,
}

func init() {
	checkCmd.Flags().StringVar(&checkFile, "file", "", "manifest file (default: manifest from config.yaml)")
}

// checkReport is the JSON shape of a check result.
type checkReport struct {
	File     string         `json:"file"`
	Valid    bool           `json:"valid"`
	Counts   map[string]int `json:"counts"`
	Problems []string       `json:"problems,omitempty"`
}

func runCheck(cmd *cobra.Command, args []string) error {
	path := manifestPath(checkFile)
	if len(args) == 1 {
		path = args[0]
	}

	f, parseErr := manifest.ParseFile(path)
	if f == nil {
		fmt.Fprintln(os.Stderr, "check:", parseErr)
		os.Exit(exitSysError)
	}

	var problems []string
	collect := func(err error) {
		if err == nil {
			return
		}
		var joined interface{ Unwrap() []error }
		if errors.As(err, &joined) {
			for _, e := range joined.Unwrap() {
				problems = append(problems, e.Error())
			}
			return
		}
		problems = append(problems, err.Error())
	}
	collect(parseErr)
	collect(f.Validate())

	counts := make(map[string]int)
	for _, req := range f.Requirements() {
		counts[req.Category]++
	}

	if flagJSON {
		if err := printJSON(checkReport{
			File:     path,
			Valid:    len(problems) == 0,
			Counts:   counts,
			Problems: problems,
		}); err != nil {
			return err
		}
	} else {
		for _, p := range problems {
			fmt.Fprintln(os.Stderr, "check:", p)
		}
		if len(problems) == 0 {
			total := 0
			for _, category := range types.Categories {
				total += counts[category]
			}
			fmt.Printf("%s: OK (%d requirements", path, total)
			for _, category := range types.Categories {
				if counts[category] > 0 {
					fmt.Printf(", %d %s", counts[category], category)
				}
			}
			fmt.Println(")")
		}
	}

	if len(problems) > 0 {
		os.Exit(exitUserError)
	}
	return nil
}
