package cmd

import (
	"github.com/spf13/cobra"
)

// channelsCmd represents the channels command
var channelsCmd = &cobra.Command{
	Use:   "channels",
	Short: "Explore the channel catalog",
	Long: `The channels command lists, validates and exports the typed channels
registered in the catalog. Every channel names its payload type, so the
catalog doubles as a reference for what each notification carries.

Available subcommands:
  list      List all registered channels with optional filtering
  validate  Validate a channel name and its definition
  export    Write the catalog to a JSON file

Examples:
  # List all channels
  busctl channels list

  # List channels for a specific module
  busctl channels list --module=probe

  # Validate a channel name
  busctl channels validate probe.tick

Use "busctl channels [command] --help" for more information about a specific command.`,
}

func init() {
	rootCmd.AddCommand(channelsCmd)
}
