// Command phleb tracks cumulative iatrogenic blood loss from phlebotomy.
// It serves the live session over HTTP or MCP and offers offline tools for
// calculation, import/export and schema migration.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var configFile string

func main() {
	rootCmd := &cobra.Command{
		Use:           "phleb",
		Short:         "Phlebotomy blood-loss tracker",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	rootCmd.PersistentFlags().StringVar(&configFile, "settings", "", "path to the settings file (default: config.yaml in ., ./config/ or /etc/phleb-loss-tracker/)")

	rootCmd.AddCommand(serveCmd())
	rootCmd.AddCommand(mcpCmd())
	rootCmd.AddCommand(calcCmd())
	rootCmd.AddCommand(stateCmd())
	rootCmd.AddCommand(configCmd())
	rootCmd.AddCommand(copyCmd())
	rootCmd.AddCommand(migrateCmd())
	rootCmd.AddCommand(setupCmd())

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
