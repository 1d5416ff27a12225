package cmd

import (
	"fmt"
	"os"

	"github.com/nfrund/typedbus/cmd/busctl/internal/channels"
	"github.com/spf13/afero"
	"github.com/spf13/cobra"
)

// channelsExportCmd represents the channels export command
var channelsExportCmd = &cobra.Command{
	Use:   "export <file>",
	Short: "Export the channel catalog as JSON",
	Long: `Write every registered channel, with catalog statistics, to a JSON file.
Parent directories are created as needed.

Examples:
  busctl channels export catalog.json
  busctl channels export build/channels/catalog.json`,
	Args: cobra.ExactArgs(1),
	Run:  channelsExportHandler,
}

func channelsExportHandler(cmd *cobra.Command, args []string) {
	path := args[0]

	a, err := channels.Initialize(channels.Options{})
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: Failed to initialize: %v\n", err)
		os.Exit(1)
	}

	manager := a.Catalog()
	if err := manager.Export(afero.NewOsFs(), path); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	fmt.Fprintf(cmd.OutOrStdout(), "✅ Exported %d channels to %s\n", manager.Count(), path)
}

func init() {
	channelsCmd.AddCommand(channelsExportCmd)
}
