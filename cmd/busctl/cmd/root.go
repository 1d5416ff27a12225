package cmd

import (
	"os"

	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "busctl",
	Short: "typedbus CLI tool",
	Long: `busctl is a command-line interface for typed notification channels.

Available commands:
  channels    Discover, validate and export the channels in the catalog
  probe       Exercise a host bus backend end to end
  version     Print the version

Use "busctl [command] --help" for more information about a specific command.`,
}

// Execute executes the root command
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
