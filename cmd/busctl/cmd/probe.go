package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/nfrund/typedbus/cmd/busctl/internal/channels"
	"github.com/nfrund/typedbus/internal/probe"
	"github.com/spf13/cobra"
)

var (
	probeCount   int
	probeBackend string
	probeAsync   bool
	probeTrace   bool
	probeJSON    bool
	probeVerbose bool
	probeTimeout time.Duration
)

// probeCmd represents the probe command
var probeCmd = &cobra.Command{
	Use:   "probe",
	Short: "Exercise a host bus backend end to end",
	Long: `Post a sequence of ticks on the probe channels and check that a plain
observer, a sender-filtered observer, a stream and (with --async) an async
observer all see them in order, that an absent payload arrives as nil, and
that every registration is released afterwards.

Examples:
  busctl probe                               # Probe the configured backend
  busctl probe --backend watermill --count 100
  busctl probe --async --trace               # Include async delivery and list spans`,
	Run: probeHandler,
}

func probeHandler(cmd *cobra.Command, args []string) {
	a, err := channels.Initialize(channels.Options{Verbose: probeVerbose, Backend: probeBackend})
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: Failed to initialize: %v\n", err)
		os.Exit(1)
	}
	if probeTrace {
		a.Config().Tracing = true
	}

	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	defer a.Shutdown(context.Background())

	bus, err := a.Bus()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: Failed to create bus: %v\n", err)
		os.Exit(1)
	}

	rep, runErr := probe.Run(ctx, bus, probe.Options{
		Count:   probeCount,
		Async:   probeAsync,
		Timeout: probeTimeout,
		Logger:  a.Logger(),
	})

	if probeJSON {
		encoder := json.NewEncoder(cmd.OutOrStdout())
		encoder.SetIndent("", "  ")
		if err := encoder.Encode(rep); err != nil {
			fmt.Fprintf(os.Stderr, "Error: Failed to encode JSON: %v\n", err)
			os.Exit(1)
		}
	} else {
		tr, err := a.Tracing()
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: Failed to set up tracing: %v\n", err)
			os.Exit(1)
		}
		channels.DisplayReport(cmd.OutOrStdout(), a.Config().Backend, rep, tr.Spans())
	}

	if runErr != nil || !rep.OK() {
		if runErr != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", runErr)
		}
		_ = a.Shutdown(context.Background())
		os.Exit(1)
	}
}

func init() {
	rootCmd.AddCommand(probeCmd)

	probeCmd.Flags().IntVarP(&probeCount, "count", "n", 10, "Number of ticks to post")
	probeCmd.Flags().StringVarP(&probeBackend, "backend", "b", "", "Host bus backend (memory, watermill); defaults to TYPEDBUS_BACKEND")
	probeCmd.Flags().BoolVar(&probeAsync, "async", false, "Also register an async observer")
	probeCmd.Flags().BoolVar(&probeTrace, "trace", false, "Record spans and list them after the run")
	probeCmd.Flags().BoolVar(&probeJSON, "json", false, "Print the report as JSON")
	probeCmd.Flags().BoolVarP(&probeVerbose, "verbose", "v", false, "Log to stderr at LOG_LEVEL")
	probeCmd.Flags().DurationVar(&probeTimeout, "timeout", 5*time.Second, "How long to wait for deliveries")
}
