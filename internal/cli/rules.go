package cli

import (
	"strings"

	"github.com/pratik-mahalle/amiaudit/internal/api/dto"
	"github.com/pratik-mahalle/amiaudit/internal/domain/rule"
	"github.com/spf13/cobra"
)

func newRulesCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "rules",
		Short: "Inspect the rule catalog",
	}

	cmd.AddCommand(newRulesListCmd())

	return cmd
}

func newRulesListCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List the built-in rules",
		RunE: func(cmd *cobra.Command, args []string) error {
			rules := rule.DefaultCatalog().All()
			dtos := make([]dto.RuleDTO, len(rules))
			for i, r := range rules {
				dtos[i] = dto.NewRuleDTO(r)
			}

			if format := getOutputFormat(); format != "table" {
				return writeOutput(cmd.OutOrStdout(), format, dtos)
			}

			t := newTable(cmd.OutOrStdout(), "CODE", "SEVERITY", "SCOPE", "TITLE", "REQUIREMENTS")
			t.writer = cmd.OutOrStdout()
			for _, d := range dtos {
				t.AddRow(
					d.Code,
					formatSeverity(d.Severity),
					d.Scope,
					truncate(d.Title, 50),
					strings.Join(d.RelatedRequirements, ", "),
				)
			}
			return t.Render()
		},
	}
}
