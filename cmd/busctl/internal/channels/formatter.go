package channels

import (
	"encoding/json"
	"fmt"
	"io"
	"regexp"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/nfrund/typedbus/internal/catalog"
	"github.com/nfrund/typedbus/internal/probe"
	"github.com/nfrund/typedbus/internal/tracing"
)

// DisplayChannelsTable displays channels in a formatted table
func DisplayChannelsTable(w io.Writer, defs []catalog.Definition) {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	defer tw.Flush()

	fmt.Fprintln(tw, "NAME\tMODULE\tPAYLOAD\tOPTIONAL\tDESCRIPTION")
	fmt.Fprintln(tw, "----\t------\t-------\t--------\t-----------")

	if len(defs) == 0 {
		fmt.Fprintln(tw, "No channels found")
		return
	}
	for _, def := range defs {
		module := def.Module
		if module == "" {
			module = "-"
		}
		optional := "no"
		if def.Optional {
			optional = "yes"
		}
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\n",
			def.Name,
			module,
			truncateString(shortType(def.PayloadType), 30),
			optional,
			truncateString(def.Description, 40))
	}
}

var importPathDirs = regexp.MustCompile(`[\w.~-]+/`)

// shortType drops import path directories from a payload type, keeping the
// package name: *example.com/game/score.Event becomes *score.Event.
func shortType(payloadType string) string {
	return importPathDirs.ReplaceAllString(payloadType, "")
}

// DisplayChannelsJSON displays channels in JSON format
func DisplayChannelsJSON(w io.Writer, defs []catalog.Definition) error {
	if defs == nil {
		defs = []catalog.Definition{}
	}
	output := struct {
		Channels []catalog.Definition `json:"channels"`
		Count    int                  `json:"count"`
	}{
		Channels: defs,
		Count:    len(defs),
	}

	encoder := json.NewEncoder(w)
	encoder.SetIndent("", "  ")
	return encoder.Encode(output)
}

// DisplayDefinition prints the details of one channel
func DisplayDefinition(w io.Writer, def catalog.Definition) {
	module := def.Module
	if module == "" {
		module = "(none)"
	}
	fmt.Fprintf(w, "   Module: %s\n", module)
	fmt.Fprintf(w, "   Payload: %s\n", def.PayloadType)
	if len(def.PayloadFields) > 0 {
		fmt.Fprintf(w, "   Fields: %s\n", strings.Join(def.PayloadFields, ", "))
	}
	fmt.Fprintf(w, "   Optional: %t\n", def.Optional)
	fmt.Fprintf(w, "   Description: %s\n", def.Description)
}

// DisplayReport prints the outcome of a probe run and any spans it produced
func DisplayReport(w io.Writer, backend string, rep probe.Report, spans []tracing.Span) {
	status := "✅"
	if !rep.OK() {
		status = "❌"
	}
	fmt.Fprintf(w, "%s Probe on %s backend finished in %s\n", status, backend, rep.Duration.Round(time.Microsecond))

	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintf(tw, "   posted\t%d\n", rep.Posted)
	fmt.Fprintf(tw, "   delivered\t%d\n", rep.Delivered)
	fmt.Fprintf(tw, "   streamed\t%d\n", rep.Streamed)
	if rep.Async {
		fmt.Fprintf(tw, "   async\t%d\n", rep.AsyncDelivered)
	}
	fmt.Fprintf(tw, "   sender filtered\t%d\n", rep.Filtered)
	fmt.Fprintf(tw, "   absent delivered\t%t\n", rep.AbsentDelivered)
	fmt.Fprintf(tw, "   in order\t%t\n", rep.InOrder)
	fmt.Fprintf(tw, "   observers\t%d -> %d\n", rep.ObserversBefore, rep.ObserversAfter)
	tw.Flush()

	if len(spans) == 0 {
		return
	}
	counts := make(map[string]int)
	var names []string
	for _, s := range spans {
		if counts[s.Name] == 0 {
			names = append(names, s.Name)
		}
		counts[s.Name]++
	}
	fmt.Fprintf(w, "\nSpans (%d):\n", len(spans))
	for _, name := range names {
		fmt.Fprintf(w, "   %s x%d\n", name, counts[name])
	}
}

// truncateString truncates a string to maxLen characters, adding "..." if truncated
func truncateString(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	if maxLen <= 3 {
		return "..."
	}
	return s[:maxLen-3] + "..."
}
