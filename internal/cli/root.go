package cli

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/pratik-mahalle/amiaudit/pkg/client"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var (
	cfgFile      string
	outputFormat string
	serverURL    string
	apiToken     string
	apiClient    *client.Client
)

var rootCmd = &cobra.Command{
	Use:   "amiaudit",
	Short: "amiaudit CLI - machine image compliance auditing",
	Long: `amiaudit evaluates the machine images of an AWS account against a catalog
of compliance rules and publishes one finding per image, volume and rule to
AWS Security Hub or a local findings store.

Audits run in-process with "amiaudit audit run". The runs, findings and
status commands query a running amiaudit server.`,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		if needsServer(cmd) {
			return initClient()
		}
		return nil
	},
	SilenceUsage:  true,
	SilenceErrors: true,
}

func Execute() error {
	return rootCmd.Execute()
}

func init() {
	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default $HOME/.amiaudit/config.yaml)")
	rootCmd.PersistentFlags().StringVarP(&outputFormat, "output", "o", "table", "output format: table, json, yaml")
	rootCmd.PersistentFlags().StringVar(&serverURL, "server", "", "server URL (overrides config)")
	rootCmd.PersistentFlags().StringVar(&apiToken, "token", "", "operator API token (overrides config)")

	_ = viper.BindPFlag("output", rootCmd.PersistentFlags().Lookup("output"))
	_ = viper.BindPFlag("server_url", rootCmd.PersistentFlags().Lookup("server"))

	rootCmd.AddCommand(newAuditCmd())
	rootCmd.AddCommand(newRulesCmd())
	rootCmd.AddCommand(newRunsCmd())
	rootCmd.AddCommand(newFindingsCmd())
	rootCmd.AddCommand(newStatusCmd())
	rootCmd.AddCommand(newConfigCmd())
	rootCmd.AddCommand(newTokenCmd())
}

// serverAnnotation marks commands that talk to a running server
const serverAnnotation = "amiaudit/server"

func needsServer(cmd *cobra.Command) bool {
	for c := cmd; c != nil; c = c.Parent() {
		if _, ok := c.Annotations[serverAnnotation]; ok {
			return true
		}
	}
	return false
}

func configDir() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("failed to get home directory: %w", err)
	}
	return filepath.Join(home, ".amiaudit"), nil
}

// initConfig points viper at --config or $HOME/.amiaudit/config.yaml. The
// directory is only created when a command saves settings.
func initConfig() {
	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else if dir, err := configDir(); err == nil {
		viper.AddConfigPath(dir)
		viper.SetConfigName("config")
		viper.SetConfigType("yaml")
	}

	viper.SetEnvPrefix("AMIAUDIT")
	viper.AutomaticEnv()

	viper.SetDefault("server_url", "http://localhost:8080")
	viper.SetDefault("output", "table")

	if err := viper.ReadInConfig(); err != nil {
		// a missing default config file is normal before "config init"
		var notFound viper.ConfigFileNotFoundError
		if cfgFile != "" || !errors.As(err, &notFound) {
			fmt.Fprintln(os.Stderr, "Warning: could not read config:", err)
		}
	}
}

func initClient() error {
	url := viper.GetString("server_url")
	if serverURL != "" {
		url = serverURL
	}

	token := viper.GetString("token")
	if apiToken != "" {
		token = apiToken
	}

	apiClient = client.NewClient(client.Config{
		BaseURL: url,
		Token:   token,
	})
	return nil
}

func getOutputFormat() string {
	if outputFormat != "" && outputFormat != "table" {
		return outputFormat
	}
	return viper.GetString("output")
}
