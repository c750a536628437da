package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"
)

// table buffers rows and aligns them into columns on render
type table struct {
	w       io.Writer
	headers []string
	rows    [][]string
}

func newTable(w io.Writer, headers ...string) *table {
	return &table{w: w, headers: headers}
}

func (t *table) AddRow(cols ...string) {
	t.rows = append(t.rows, cols)
}

func (t *table) Render() error {
	tw := tabwriter.NewWriter(t.w, 0, 0, 2, ' ', 0)

	underline := make([]string, len(t.headers))
	for i, h := range t.headers {
		underline[i] = strings.Repeat("-", len(h))
	}

	for _, row := range append([][]string{t.headers, underline}, t.rows...) {
		if _, err := fmt.Fprintln(tw, strings.Join(row, "\t")); err != nil {
			return err
		}
	}
	return tw.Flush()
}

// printOutput writes data to the command's stdout as JSON or YAML
func printOutput(cmd *cobra.Command, data interface{}) error {
	return writeOutput(cmd.OutOrStdout(), getOutputFormat(), data)
}

// writeOutput encodes data for the non-table formats. Table output is
// rendered by each command, so "table" lands on JSON here.
func writeOutput(w io.Writer, format string, data interface{}) error {
	if format == "yaml" {
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		defer enc.Close()
		return enc.Encode(data)
	}

	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(data)
}

func truncate(s string, maxLen int) string {
	switch {
	case len(s) <= maxLen:
		return s
	case maxLen <= 3:
		return s[:maxLen]
	default:
		return s[:maxLen-3] + "..."
	}
}

var severityMarkers = map[string]string{
	"CRITICAL": "[!]",
	"HIGH":     "[H]",
	"MEDIUM":   "[M]",
	"LOW":      "[L]",
}

// formatSeverity prefixes a Security Hub severity label with a marker
func formatSeverity(label string) string {
	if m, ok := severityMarkers[strings.ToUpper(label)]; ok {
		return m + " " + strings.ToUpper(label)
	}
	return label
}

var statusMarkers = map[string]string{
	"completed": "[+]",
	"passed":    "[+]",
	"resolved":  "[+]",
	"ready":     "[+]",
	"failed":    "[-]",
	"running":   "[*]",
	"new":       "[*]",
	"cancelled": "[~]",
	"archived":  "[~]",
}

// formatStatus marks run statuses, compliance results and workflow states
func formatStatus(status string) string {
	if m, ok := statusMarkers[strings.ToLower(status)]; ok {
		return m + " " + status
	}
	return status
}
