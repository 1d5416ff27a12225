package cmd

import (
	"fmt"
	"os"

	"github.com/nfrund/typedbus/cmd/busctl/internal/channels"
	"github.com/nfrund/typedbus/internal/catalog"
	"github.com/spf13/cobra"
)

var (
	listOutputFormat string
	listModuleFilter string
)

// channelsListCmd represents the channels list command
var channelsListCmd = &cobra.Command{
	Use:   "list",
	Short: "List all registered channels",
	Long: `List all typed channels currently registered in the catalog, with their
payload type and whether the payload may be absent.

Examples:
  busctl channels list                       # List all channels in table format
  busctl channels list --format json         # List all channels in JSON format
  busctl channels list --module probe        # Show only channels from the probe module

Output formats:
  table - Human-readable table format (default)
  json  - Machine-readable JSON format`,
	Run: channelsListHandler,
}

func channelsListHandler(cmd *cobra.Command, args []string) {
	a, err := channels.Initialize(channels.Options{})
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: Failed to initialize: %v\n", err)
		os.Exit(1)
	}

	manager := a.Catalog()
	var defs []catalog.Definition
	if listModuleFilter != "" {
		defs = manager.ListByModule(listModuleFilter)
		if listOutputFormat == "table" {
			fmt.Fprintf(cmd.OutOrStdout(), "Channels for module '%s':\n\n", listModuleFilter)
		}
	} else {
		defs = manager.List()
	}

	if len(defs) == 0 && listOutputFormat == "table" {
		message := "No channels found"
		if listModuleFilter != "" {
			message += fmt.Sprintf(" matching: module '%s'", listModuleFilter)
		}
		fmt.Fprintln(cmd.OutOrStdout(), message)
		return
	}

	switch listOutputFormat {
	case "json":
		if err := channels.DisplayChannelsJSON(cmd.OutOrStdout(), defs); err != nil {
			fmt.Fprintf(os.Stderr, "Error: Failed to encode JSON: %v\n", err)
			os.Exit(1)
		}
	case "table":
		channels.DisplayChannelsTable(cmd.OutOrStdout(), defs)
	default:
		fmt.Fprintf(os.Stderr, "Error: Unsupported output format '%s'. Use 'table' or 'json'\n", listOutputFormat)
		os.Exit(1)
	}
}

func init() {
	channelsCmd.AddCommand(channelsListCmd)

	channelsListCmd.Flags().StringVarP(&listOutputFormat, "format", "f", "table", "Output format (table, json)")
	channelsListCmd.Flags().StringVarP(&listModuleFilter, "module", "m", "", "Filter channels by module name")
}
