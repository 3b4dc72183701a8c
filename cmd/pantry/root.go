// Root command for the pantry CLI.
package main

import (
	"github.com/spf13/cobra"

	"github.com/mesh-intelligence/pantry/internal/paths"
	"github.com/mesh-intelligence/pantry/pkg/pantry"
)

// Exit codes.
const (
	exitSuccess   = 0
	exitUserError = 1
	exitSysError  = 2
)

// Global flag values.
var (
	flagConfigDir string
	flagDataDir   string
	flagJSON      bool
)

// Values loaded from config.yaml by PersistentPreRunE so all subcommands
// can use them.
var (
	configDataDir  string
	configManifest string
)

var rootCmd = &cobra.Command{
	Use:   "pantry",
	Short: "Pantry manages dependency manifests",
	Long: `Pantry parses, validates, edits, and catalogs dependency manifests:
line-oriented files listing packages with optional version constraints or
version-control source locators, grouped into test, lint, and docs
categories.`,
	Version:      pantry.Version,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		configDir, err := resolveConfigDir()
		if err != nil {
			return err
		}

		cfg, err := loadConfig(configDir)
		if err != nil {
			return err
		}

		configDataDir = cfg.GetString(cfgKeyDataDir)
		configManifest = cfg.GetString(cfgKeyManifest)
		return nil
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&flagConfigDir, "config-dir", "", "configuration directory (default: platform config dir)")
	rootCmd.PersistentFlags().StringVar(&flagDataDir, "data-dir", "", "data directory (default: $(CWD)/.pantry-db)")
	rootCmd.PersistentFlags().BoolVar(&flagJSON, "json", false, "output as JSON")

	rootCmd.AddCommand(versionCmd)
	rootCmd.AddCommand(initCmd)
	rootCmd.AddCommand(checkCmd)
	rootCmd.AddCommand(addCmd)
	rootCmd.AddCommand(removeCmd)
	rootCmd.AddCommand(importCmd)
	rootCmd.AddCommand(exportCmd)
	rootCmd.AddCommand(listCmd)
	rootCmd.AddCommand(showCmd)
}

// resolveConfigDir returns the configuration directory following the
// precedence flag > PANTRY_CONFIG_DIR env > platform default.
func resolveConfigDir() (string, error) {
	return paths.ResolveConfigDir(flagConfigDir)
}

// resolveDataDir returns the data directory following the precedence
// flag > config.yaml data_dir > PANTRY_DATA_DIR env > $(CWD)/.pantry-db.
func resolveDataDir() (string, error) {
	return paths.ResolveDataDir(flagDataDir, configDataDir)
}
