package cli

import (
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"
	"time"

	"github.com/pratik-mahalle/amiaudit/internal/app"
	"github.com/pratik-mahalle/amiaudit/internal/config"
	"github.com/pratik-mahalle/amiaudit/internal/domain/audit"
	"github.com/pratik-mahalle/amiaudit/internal/pkg/logger"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

// TriggerCLI is the trigger name recorded for runs started from the CLI
const TriggerCLI = "cli"

// errFindingsFailed is returned by --fail-on-findings when a check failed
var errFindingsFailed = errors.New("audit produced failing findings")

func newAuditCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "audit",
		Short: "Run compliance audits",
	}

	cmd.AddCommand(newAuditRunCmd())

	return cmd
}

func newAuditRunCmd() *cobra.Command {
	var (
		dryRun         bool
		failOnFindings bool
		verbose        bool
	)

	cmd := &cobra.Command{
		Use:   "run",
		Short: "Audit the account's machine images now",
		Long: `Lists the machine images of the account, evaluates every image and
volume against the selected rules and submits the findings.

With --dry-run the findings are printed as JSON lines instead of submitted,
and --inventory audits a saved DescribeImages response without calling EC2.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(cmd)
			if err != nil {
				return err
			}
			if dryRun {
				cfg.Audit.Store = config.StoreStdout
			}

			level := cfg.Logging.Level
			if verbose {
				level = "debug"
			}
			log := logger.New(logger.Config{
				Level:  level,
				Format: "console",
				Output: cmd.ErrOrStderr(),
			})

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			a, err := app.New(ctx, cfg, log, app.WithStdout(cmd.OutOrStdout()))
			if err != nil {
				return err
			}
			defer a.Close()

			run, err := a.Audit.Run(ctx, a.DefaultOptions(TriggerCLI))
			if run != nil {
				// findings own stdout in a dry run
				out := cmd.OutOrStdout()
				if cfg.Audit.Store == config.StoreStdout {
					out = cmd.ErrOrStderr()
				}
				if perr := printRun(out, getOutputFormat(), run); perr != nil {
					return perr
				}
			}
			if err != nil {
				return err
			}

			if failOnFindings && run.FindingsFailed > 0 {
				return errFindingsFailed
			}
			return nil
		},
	}

	f := cmd.Flags()
	f.String("owner", "", "image owner to audit (\"self\" or an account ID)")
	f.StringSlice("rules", nil, "rule codes to evaluate (default all)")
	f.Duration("timeout", 0, "abort the run after this long")
	f.String("store", "", "finding store: securityhub, local, mirrored, stdout")
	f.String("inventory", "", "audit a saved DescribeImages JSON file instead of calling EC2")
	f.String("account", "", "account ID to stamp findings with, skipping the STS lookup")
	f.String("region", "", "AWS region")
	f.String("db", "", "SQLite database path")
	f.BoolVar(&dryRun, "dry-run", false, "print findings instead of submitting them")
	f.BoolVar(&failOnFindings, "fail-on-findings", false, "exit non-zero when any check fails")
	f.BoolVarP(&verbose, "verbose", "v", false, "debug logging")

	return cmd
}

// auditSettings maps flags to the config file keys they override
var auditSettings = []struct {
	flag string
	key  string
}{
	{"owner", "audit.owner"},
	{"rules", "audit.rules"},
	{"timeout", "audit.timeout"},
	{"store", "audit.store"},
	{"inventory", "audit.inventory_file"},
	{"account", "audit.account_id"},
	{"region", "aws.region"},
	{"db", "database.path"},
}

// loadConfig layers the CLI config file and flags over the environment
func loadConfig(cmd *cobra.Command) (*config.Config, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}

	v := viper.GetViper()
	for _, s := range auditSettings {
		fl := cmd.Flags().Lookup(s.flag)
		if fl == nil || !fl.Changed {
			continue
		}
		if s.flag == "rules" {
			rules, _ := cmd.Flags().GetStringSlice("rules")
			v.Set(s.key, rules)
			continue
		}
		v.Set(s.key, fl.Value.String())
	}

	if err := applySettings(cfg, v); err != nil {
		return nil, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

// applySettings copies the audit keys present in v onto cfg
func applySettings(cfg *config.Config, v *viper.Viper) error {
	if v.IsSet("aws.region") {
		cfg.AWS.Region = v.GetString("aws.region")
	}
	if v.IsSet("aws.profile") {
		cfg.AWS.Profile = v.GetString("aws.profile")
	}
	if v.IsSet("audit.owner") {
		cfg.Audit.Owner = v.GetString("audit.owner")
	}
	if v.IsSet("audit.rules") {
		// "config set" stores the list as one comma separated string
		cfg.Audit.Rules = nil
		for _, item := range v.GetStringSlice("audit.rules") {
			for _, code := range strings.Split(item, ",") {
				if code = strings.TrimSpace(code); code != "" {
					cfg.Audit.Rules = append(cfg.Audit.Rules, code)
				}
			}
		}
	}
	if v.IsSet("audit.store") {
		cfg.Audit.Store = v.GetString("audit.store")
	}
	if v.IsSet("audit.inventory_file") {
		cfg.Audit.InventoryFile = v.GetString("audit.inventory_file")
	}
	if v.IsSet("audit.account_id") {
		cfg.Audit.AccountID = v.GetString("audit.account_id")
	}
	if v.IsSet("audit.timeout") {
		d, err := time.ParseDuration(v.GetString("audit.timeout"))
		if err != nil {
			return fmt.Errorf("invalid audit.timeout: %w", err)
		}
		cfg.Audit.Timeout = d
	}
	if v.IsSet("database.driver") {
		cfg.Database.Driver = v.GetString("database.driver")
	}
	if v.IsSet("database.path") {
		cfg.Database.Path = v.GetString("database.path")
	}
	if v.IsSet("report.s3_bucket") {
		cfg.Report.S3Bucket = v.GetString("report.s3_bucket")
	}
	return nil
}

func printRun(w io.Writer, format string, run *audit.Run) error {
	if format != "table" {
		return writeOutput(w, format, run)
	}

	t := newTable(w, "FIELD", "VALUE")
	t.AddRow("Run", run.ID)
	t.AddRow("Status", formatStatus(string(run.Status)))
	t.AddRow("Account", run.AccountID)
	t.AddRow("Region", run.Region)
	t.AddRow("Duration", run.Duration().String())
	t.AddRow("Resources listed", strconv.Itoa(run.ResourcesListed))
	t.AddRow("Resources skipped", strconv.Itoa(run.ResourcesSkipped))
	t.AddRow("Evaluations", strconv.Itoa(run.Evaluations))
	t.AddRow("Evaluation errors", strconv.Itoa(run.EvaluationErrors))
	t.AddRow("Failed checks", strconv.Itoa(run.FindingsFailed))
	t.AddRow("Passed checks", strconv.Itoa(run.FindingsPassed))
	t.AddRow("Submitted", strconv.Itoa(run.Submitted))
	t.AddRow("Submission errors", strconv.Itoa(run.SubmissionErrors))
	t.AddRow("Skipped", strconv.Itoa(run.Skipped))
	if run.Error != "" {
		t.AddRow("Error", run.Error)
	}
	if err := t.Render(); err != nil {
		return err
	}

	if len(run.Failures) == 0 {
		return nil
	}

	fmt.Fprintln(w)
	ft := newTable(w, "FINDING", "CODE", "TRANSIENT", "MESSAGE")
	for _, f := range run.Failures {
		ft.AddRow(truncate(f.FindingID, 60), f.Code, strconv.FormatBool(f.Transient), truncate(f.Error(), 60))
	}
	return ft.Render()
}
