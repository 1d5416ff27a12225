package cmd

import (
	"fmt"
	"os"

	"github.com/nfrund/typedbus/cmd/busctl/internal/channels"
	"github.com/spf13/cobra"
)

// channelsValidateCmd represents the channels validate command
var channelsValidateCmd = &cobra.Command{
	Use:   "validate <channel-name>",
	Short: "Validate a channel definition",
	Long: `Validate a channel name and, when the channel is registered, its definition.

The validation process includes:
- Channel name format (lowercase dot-separated segments)
- Reserved prefix checking (system., internal., debug.)
- Definition completeness (description, payload type, module prefix)

Examples:
  busctl channels validate probe.tick        # Validate a registered channel
  busctl channels validate Invalid.Name      # Shows name format error
  busctl channels validate unknown.channel   # Shows "channel not found" error`,
	Args: cobra.ExactArgs(1),
	Run:  channelsValidateHandler,
}

func channelsValidateHandler(cmd *cobra.Command, args []string) {
	name := args[0]
	out := cmd.OutOrStdout()

	a, err := channels.Initialize(channels.Options{})
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: Failed to initialize: %v\n", err)
		os.Exit(1)
	}
	manager := a.Catalog()

	if err := manager.ValidateName(name); err != nil {
		fmt.Fprintf(out, "❌ Channel name validation failed: %v\n", err)
		fmt.Fprintf(os.Stderr, "\nChannel names are lowercase dot-separated segments, module first\n")
		fmt.Fprintf(os.Stderr, "Examples: probe.tick, game.score.changed\n")
		os.Exit(1)
	}

	def, err := manager.Lookup(name)
	if err == nil {
		err = manager.Validate(def)
	}
	if err != nil {
		fmt.Fprintf(out, "❌ Channel validation failed: %v\n", err)
		fmt.Fprintf(os.Stderr, "\nUse 'busctl channels list' to see all available channels.\n")
		os.Exit(1)
	}

	fmt.Fprintf(out, "✅ Channel '%s' is valid\n", def.Name)
	channels.DisplayDefinition(out, def)
}

func init() {
	channelsCmd.AddCommand(channelsValidateCmd)
}
