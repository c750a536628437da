package cli

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"
)

func newStatusCmd() *cobra.Command {
	return &cobra.Command{
		Use:         "status",
		Short:       "Show server health and finding totals",
		Annotations: map[string]string{serverAnnotation: ""},
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

			format := getOutputFormat()
			if format != "table" {
				summary := map[string]interface{}{}
				if ready, err := apiClient.Ready(ctx); err == nil {
					summary["database"] = ready.Database
				}
				if s, err := apiClient.Findings().Summary(ctx, ""); err == nil {
					summary["findings"] = s
				}
				if runs, err := apiClient.Runs().List(ctx, nil); err == nil && len(runs.Data) > 0 {
					summary["last_run"] = runs.Data[0]
				}
				return printOutput(cmd, summary)
			}

			fmt.Println("amiaudit status")
			fmt.Println(strings.Repeat("=", 40))

			ready, err := apiClient.Ready(ctx)
			if err != nil {
				fmt.Printf("  Server:        (error: %v)\n", err)
				return nil
			}
			fmt.Printf("  Server:        %s (database %s)\n", formatStatus(ready.Status), ready.Database)

			s, err := apiClient.Findings().Summary(ctx, "")
			if err != nil {
				fmt.Printf("  Findings:      (error: %v)\n", err)
			} else {
				fmt.Printf("  Findings:      %d active, %d archived\n", s.Active, s.Archived)
			}

			runs, err := apiClient.Runs().List(ctx, nil)
			switch {
			case err != nil:
				fmt.Printf("  Last run:      (error: %v)\n", err)
			case len(runs.Data) == 0:
				fmt.Println("  Last run:      none")
			default:
				r := runs.Data[0]
				fmt.Printf("  Last run:      %s %s, %d failed / %d passed\n",
					r.ID, formatStatus(r.Status), r.FindingsFailed, r.FindingsPassed)
			}

			fmt.Println(strings.Repeat("=", 40))
			return nil
		},
	}
}
