// Version command for the pantry CLI.
package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/mesh-intelligence/pantry/pkg/pantry"
)

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the pantry version",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		if flagJSON {
			return printJSON(map[string]string{"version": pantry.Version})
		}
		fmt.Println("pantry", pantry.Version)
		return nil
	},
}
