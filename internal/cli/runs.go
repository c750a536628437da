package cli

import (
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/pratik-mahalle/amiaudit/pkg/client"
	"github.com/spf13/cobra"
)

func newRunsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:         "runs",
		Short:       "Inspect and trigger audit runs on the server",
		Annotations: map[string]string{serverAnnotation: ""},
	}

	cmd.AddCommand(newRunsListCmd())
	cmd.AddCommand(newRunsGetCmd())
	cmd.AddCommand(newRunsStartCmd())

	return cmd
}

func newRunsListCmd() *cobra.Command {
	var (
		status, account string
		page, pageSize  int
	)

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List audit runs, newest first",
		RunE: func(cmd *cobra.Command, args []string) error {
			resp, err := apiClient.Runs().List(cmd.Context(), &client.RunListOptions{
				ListOptions: client.ListOptions{Page: page, PageSize: pageSize},
				Status:      status,
				AccountID:   account,
			})
			if err != nil {
				return fmt.Errorf("failed to list runs: %w", err)
			}

			if format := getOutputFormat(); format != "table" {
				return printOutput(cmd, resp)
			}

			t := newTable(cmd.OutOrStdout(), "ID", "STATUS", "TRIGGER", "ACCOUNT", "STARTED", "DURATION", "FAILED", "PASSED", "ERRORS")
			for _, r := range resp.Data {
				t.AddRow(
					r.ID,
					formatStatus(r.Status),
					r.Trigger,
					r.AccountID,
					r.StartedAt.Local().Format(time.DateTime),
					(time.Duration(r.DurationMs) * time.Millisecond).String(),
					strconv.Itoa(r.FindingsFailed),
					strconv.Itoa(r.FindingsPassed),
					strconv.Itoa(r.SubmissionErrors+r.EvaluationErrors),
				)
			}
			if err := t.Render(); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "\nPage %d of %d (%d runs)\n", resp.Page, resp.TotalPages, resp.TotalItems)
			return nil
		},
	}

	cmd.Flags().StringVar(&status, "status", "", "filter by status (running, completed, cancelled, failed)")
	cmd.Flags().StringVar(&account, "account", "", "filter by account ID")
	cmd.Flags().IntVar(&page, "page", 1, "page number")
	cmd.Flags().IntVar(&pageSize, "page-size", 20, "runs per page")

	return cmd
}

func newRunsGetCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "get <id>",
		Short: "Show one audit run",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			run, err := apiClient.Runs().Get(cmd.Context(), args[0])
			if err != nil {
				return fmt.Errorf("failed to get run: %w", err)
			}
			return printOutput(cmd, run)
		},
	}
}

func newRunsStartCmd() *cobra.Command {
	var (
		owner   string
		rules   []string
		timeout time.Duration
	)

	cmd := &cobra.Command{
		Use:   "start",
		Short: "Start an audit run on the server",
		RunE: func(cmd *cobra.Command, args []string) error {
			req := &client.StartRunRequest{Owner: owner, Rules: rules}
			if timeout > 0 {
				req.Timeout = timeout.String()
			}

			resp, err := apiClient.Runs().Start(cmd.Context(), req)
			var apiErr *client.APIError
			if errors.As(err, &apiErr) && apiErr.IsConflict() {
				return fmt.Errorf("an audit run is already in progress on the server")
			}
			if err != nil {
				return fmt.Errorf("failed to start run: %w", err)
			}

			fmt.Printf("Audit run %s started. Follow it with 'amiaudit runs get %s'.\n", resp.RunID, resp.RunID)
			return nil
		},
	}

	cmd.Flags().StringVar(&owner, "owner", "", "image owner to audit")
	cmd.Flags().StringSliceVar(&rules, "rules", nil, "rule codes to evaluate (default all)")
	cmd.Flags().DurationVar(&timeout, "timeout", 0, "abort the run after this long")

	return cmd
}
