package cli

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

func newConfigCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Manage CLI configuration",
	}

	cmd.AddCommand(newConfigInitCmd())
	cmd.AddCommand(newConfigSetCmd())
	cmd.AddCommand(newConfigGetCmd())
	cmd.AddCommand(newConfigListCmd())

	return cmd
}

// prompt reads one line, returning def when the answer is empty
func prompt(r *bufio.Reader, w io.Writer, question, def string) string {
	fmt.Fprintf(w, "%s [%s]: ", question, def)
	answer, _ := r.ReadString('\n')
	if answer = strings.TrimSpace(answer); answer == "" {
		return def
	}
	return answer
}

func newConfigInitCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "init",
		Short: "Interactive first-time setup",
		RunE: func(cmd *cobra.Command, args []string) error {
			reader := bufio.NewReader(cmd.InOrStdin())
			out := cmd.OutOrStdout()

			viper.Set("server_url", prompt(reader, out, "Enter server URL", "http://localhost:8080"))
			viper.Set("output", prompt(reader, out, "Default output format (table/json/yaml)", "table"))
			viper.Set("aws.region", prompt(reader, out, "AWS region", "us-east-1"))
			viper.Set("audit.store", prompt(reader, out, "Finding store (securityhub/local/mirrored/stdout)", "mirrored"))

			path, err := writeConfig()
			if err != nil {
				return err
			}

			fmt.Fprintf(out, "Configuration saved to %s\n", path)
			return nil
		},
	}
}

// configKeys lists the keys "config set" accepts. The audit keys are the
// ones applySettings reads.
var configKeys = []string{
	"server_url",
	"output",
	"token",
	"aws.region",
	"aws.profile",
	"audit.owner",
	"audit.rules",
	"audit.store",
	"audit.inventory_file",
	"audit.account_id",
	"audit.timeout",
	"database.driver",
	"database.path",
	"report.s3_bucket",
}

func isSecretKey(key string) bool {
	for _, marker := range []string{"token", "secret", "password"} {
		if strings.Contains(key, marker) {
			return true
		}
	}
	return false
}

// displayValue renders a config value, hiding credentials
func displayValue(key string, val interface{}) string {
	switch {
	case val == nil:
		return "(not set)"
	case isSecretKey(key):
		return "(credentials stored)"
	default:
		return fmt.Sprint(val)
	}
}

func newConfigSetCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "set <key> <value>",
		Short: "Set a configuration value",
		Long:  "Set a configuration value. Known keys:\n  " + strings.Join(configKeys, "\n  "),
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			key := strings.ToLower(args[0])
			if !slices.Contains(configKeys, key) {
				return fmt.Errorf("unknown configuration key %q (see \"amiaudit config set --help\")", args[0])
			}
			viper.Set(key, args[1])
			if _, err := writeConfig(); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Set %s = %s\n", key, displayValue(key, args[1]))
			return nil
		},
	}
}

func newConfigGetCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "get <key>",
		Short: "Get a configuration value",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			fmt.Fprintf(cmd.OutOrStdout(), "%s: %s\n", args[0], displayValue(args[0], viper.Get(args[0])))
			return nil
		},
	}
}

func newConfigListCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "Show all configuration values",
		RunE: func(cmd *cobra.Command, args []string) error {
			keys := viper.AllKeys()
			slices.Sort(keys)
			for _, key := range keys {
				fmt.Fprintf(cmd.OutOrStdout(), "%s: %s\n", key, displayValue(key, viper.Get(key)))
			}
			return nil
		},
	}
}

func writeConfig() (string, error) {
	if path := viper.ConfigFileUsed(); path != "" {
		return path, viper.WriteConfigAs(path)
	}

	dir, err := configDir()
	if err != nil {
		return "", err
	}
	if err := os.MkdirAll(dir, 0700); err != nil {
		return "", fmt.Errorf("failed to create config directory: %w", err)
	}

	path := filepath.Join(dir, "config.yaml")
	return path, viper.WriteConfigAs(path)
}
