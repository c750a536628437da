package cli

import (
	"fmt"
	"strings"

	"github.com/pratik-mahalle/amiaudit/pkg/client"
	"github.com/spf13/cobra"
)

func newFindingsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:         "findings",
		Short:       "Query the server's findings mirror",
		Annotations: map[string]string{serverAnnotation: ""},
	}

	cmd.AddCommand(newFindingsListCmd())
	cmd.AddCommand(newFindingsGetCmd())
	cmd.AddCommand(newFindingsSummaryCmd())

	return cmd
}

func newFindingsListCmd() *cobra.Command {
	var opts client.FindingListOptions

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List findings, most recently updated first",
		RunE: func(cmd *cobra.Command, args []string) error {
			opts.State = strings.ToUpper(opts.State)
			opts.Compliance = strings.ToUpper(opts.Compliance)

			resp, err := apiClient.Findings().List(cmd.Context(), &opts)
			if err != nil {
				return fmt.Errorf("failed to list findings: %w", err)
			}

			if format := getOutputFormat(); format != "table" {
				return printOutput(cmd, resp)
			}

			t := newTable(cmd.OutOrStdout(), "RULE", "SEVERITY", "COMPLIANCE", "WORKFLOW", "STATE", "RESOURCE", "UPDATED")
			for _, f := range resp.Data {
				t.AddRow(
					f.GeneratorID,
					formatSeverity(f.Severity.Label),
					formatStatus(f.Compliance.Status),
					f.Workflow.Status,
					f.RecordState,
					truncate(f.ResourceARN(), 70),
					f.UpdatedAt,
				)
			}
			if err := t.Render(); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "\nPage %d of %d (%d findings)\n", resp.Page, resp.TotalPages, resp.TotalItems)
			return nil
		},
	}

	f := cmd.Flags()
	f.StringVar(&opts.RuleCode, "rule", "", "filter by rule code")
	f.StringVar(&opts.State, "state", "", "filter by record state (ACTIVE, ARCHIVED)")
	f.StringVar(&opts.Compliance, "compliance", "", "filter by compliance status (PASSED, FAILED)")
	f.StringVar(&opts.ResourceID, "resource", "", "filter by resource ARN")
	f.StringVar(&opts.AccountID, "account", "", "filter by account ID")
	f.IntVar(&opts.Page, "page", 1, "page number")
	f.IntVar(&opts.PageSize, "page-size", 20, "findings per page")

	return cmd
}

func newFindingsGetCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "get <finding-id>",
		Short: "Show one finding",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			f, err := apiClient.Findings().Get(cmd.Context(), args[0])
			if err != nil {
				return fmt.Errorf("failed to get finding: %w", err)
			}
			return printOutput(cmd, f)
		},
	}
}

func newFindingsSummaryCmd() *cobra.Command {
	var account string

	cmd := &cobra.Command{
		Use:   "summary",
		Short: "Count findings by record state",
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := apiClient.Findings().Summary(cmd.Context(), account)
			if err != nil {
				return fmt.Errorf("failed to summarize findings: %w", err)
			}

			if format := getOutputFormat(); format != "table" {
				return printOutput(cmd, s)
			}

			fmt.Printf("Active:   %d\n", s.Active)
			fmt.Printf("Archived: %d\n", s.Archived)
			fmt.Printf("Total:    %d\n", s.Total)
			return nil
		},
	}

	cmd.Flags().StringVar(&account, "account", "", "limit to one account ID")

	return cmd
}
