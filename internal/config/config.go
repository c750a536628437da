package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"

	"github.com/pratik-mahalle/amiaudit/internal/pkg/logger"
	"github.com/pratik-mahalle/amiaudit/internal/pkg/validator"
)

// Store backends
const (
	StoreSecurityHub = "securityhub"
	StoreLocal       = "local"
	StoreMirrored    = "mirrored"
	StoreStdout      = "stdout"
)

// MaxBatchSize is the largest batch the findings store accepts
const MaxBatchSize = 100

// MinAuthSecretLength is the shortest accepted token signing secret
const MinAuthSecretLength = 16

// Config holds all application configuration
type Config struct {
	Server   ServerConfig
	Database DatabaseConfig
	Logging  LoggingConfig
	AWS      AWSConfig
	Audit    AuditConfig
	Report   ReportConfig
}

// ServerConfig contains HTTP server configuration
type ServerConfig struct {
	Host            string
	Port            int
	ReadTimeout     time.Duration
	WriteTimeout    time.Duration
	ShutdownTimeout time.Duration
	AllowedOrigins  []string
	RateLimit       float64
	RateBurst       int
	// AuthSecret signs operator tokens. API auth is off when empty.
	AuthSecret string
}

// DatabaseConfig contains database configuration
type DatabaseConfig struct {
	Driver          string
	Host            string
	Port            int
	Name            string
	User            string
	Password        string
	SSLMode         string
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime time.Duration
	// For SQLite
	Path string
}

// LoggingConfig contains logging configuration
type LoggingConfig struct {
	Level  string
	Format string // json or console
}

// AWSConfig contains AWS credentials and endpoint overrides
type AWSConfig struct {
	Region          string
	Profile         string
	AccessKeyID     string
	SecretAccessKey string
	SessionToken    string
	// EndpointURL points every client at a custom endpoint (localstack)
	EndpointURL string
}

// AuditConfig controls audit runs and finding submission
type AuditConfig struct {
	Owner         string
	Rules         []string
	EvalWorkers   int
	SubmitWorkers int
	QueueSize     int
	BatchSize     int
	FlushInterval time.Duration
	RateLimit     float64
	RateBurst     int
	Timeout       time.Duration
	Schedule      string
	Store         string
	ProductName   string
	// InventoryFile audits a saved DescribeImages response instead of the live API
	InventoryFile string
	// AccountID skips the STS lookup when set
	AccountID string
}

// ReportConfig controls run report export
type ReportConfig struct {
	S3Bucket string
	S3Prefix string
}

// Load reads the configuration from the environment, after merging a .env
// file when one exists. Malformed numbers and durations are reported rather
// than replaced by their defaults.
func Load() (*Config, error) {
	_ = godotenv.Load()

	env := &envReader{}
	cfg := &Config{
		Server: ServerConfig{
			Host:            env.get("SERVER_HOST", "0.0.0.0"),
			Port:            env.getInt("SERVER_PORT", 8080),
			ReadTimeout:     env.getDuration("SERVER_READ_TIMEOUT", 10*time.Second),
			WriteTimeout:    env.getDuration("SERVER_WRITE_TIMEOUT", 30*time.Second),
			ShutdownTimeout: env.getDuration("SERVER_SHUTDOWN_TIMEOUT", 30*time.Second),
			AllowedOrigins:  env.getList("SERVER_ALLOWED_ORIGINS", []string{"*"}),
			RateLimit:       env.getFloat("SERVER_RATE_LIMIT", 10),
			RateBurst:       env.getInt("SERVER_RATE_BURST", 20),
			AuthSecret:      env.get("SERVER_AUTH_SECRET", ""),
		},
		Database: DatabaseConfig{
			Driver:          env.get("DB_DRIVER", "sqlite"),
			Host:            env.get("DB_HOST", "localhost"),
			Port:            env.getInt("DB_PORT", 5432),
			Name:            env.get("DB_NAME", "amiaudit"),
			User:            env.get("DB_USER", ""),
			Password:        env.get("DB_PASSWORD", ""),
			SSLMode:         env.get("DB_SSLMODE", "disable"),
			MaxOpenConns:    env.getInt("DB_MAX_OPEN_CONNS", 25),
			MaxIdleConns:    env.getInt("DB_MAX_IDLE_CONNS", 5),
			ConnMaxLifetime: env.getDuration("DB_CONN_MAX_LIFETIME", 5*time.Minute),
			Path:            env.get("DB_PATH", "./amiaudit.db"),
		},
		Logging: LoggingConfig{
			Level:  env.get("LOG_LEVEL", "info"),
			Format: env.get("LOG_FORMAT", "json"),
		},
		AWS: AWSConfig{
			Region:          env.get("AWS_REGION", "us-east-1"),
			Profile:         env.get("AWS_PROFILE", ""),
			AccessKeyID:     env.get("AWS_ACCESS_KEY_ID", ""),
			SecretAccessKey: env.get("AWS_SECRET_ACCESS_KEY", ""),
			SessionToken:    env.get("AWS_SESSION_TOKEN", ""),
			EndpointURL:     env.get("AWS_ENDPOINT_URL", ""),
		},
		Audit: AuditConfig{
			Owner:         env.get("AUDIT_OWNER", "self"),
			Rules:         env.getList("AUDIT_RULES", nil),
			EvalWorkers:   env.getInt("AUDIT_EVAL_WORKERS", 8),
			SubmitWorkers: env.getInt("AUDIT_SUBMIT_WORKERS", 2),
			QueueSize:     env.getInt("AUDIT_QUEUE_SIZE", 500),
			BatchSize:     env.getInt("AUDIT_BATCH_SIZE", MaxBatchSize),
			FlushInterval: env.getDuration("AUDIT_FLUSH_INTERVAL", 2*time.Second),
			RateLimit:     env.getFloat("AUDIT_RATE_LIMIT", 10),
			RateBurst:     env.getInt("AUDIT_RATE_BURST", 5),
			Timeout:       env.getDuration("AUDIT_TIMEOUT", 15*time.Minute),
			Schedule:      env.get("AUDIT_SCHEDULE", ""),
			Store:         env.get("AUDIT_STORE", StoreMirrored),
			ProductName:   env.get("AUDIT_PRODUCT_NAME", "amiaudit"),
			InventoryFile: env.get("AUDIT_INVENTORY_FILE", ""),
			AccountID:     env.get("AUDIT_ACCOUNT_ID", ""),
		},
		Report: ReportConfig{
			S3Bucket: env.get("REPORT_S3_BUCKET", ""),
			S3Prefix: env.get("REPORT_S3_PREFIX", "amiaudit/runs"),
		},
	}

	if err := errors.Join(env.errs...); err != nil {
		return nil, fmt.Errorf("invalid environment: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return cfg, nil
}

// Validate validates the configuration
func (c *Config) Validate() error {
	if c.Server.Port < 1 || c.Server.Port > 65535 {
		return fmt.Errorf("invalid server port: %d", c.Server.Port)
	}

	if c.Server.AuthSecret != "" && len(c.Server.AuthSecret) < MinAuthSecretLength {
		return fmt.Errorf("SERVER_AUTH_SECRET must be at least %d characters", MinAuthSecretLength)
	}

	if c.Database.Driver != "sqlite" && c.Database.Driver != "postgres" {
		return fmt.Errorf("unsupported database driver: %s", c.Database.Driver)
	}

	if _, err := logger.ParseLevel(c.Logging.Level); err != nil {
		return fmt.Errorf("unsupported log level: %s", c.Logging.Level)
	}

	if c.Logging.Format != "json" && c.Logging.Format != "console" {
		return fmt.Errorf("unsupported log format: %s", c.Logging.Format)
	}

	if c.AWS.Region == "" {
		return fmt.Errorf("AWS_REGION must be set")
	}

	switch c.Audit.Store {
	case StoreSecurityHub, StoreLocal, StoreMirrored, StoreStdout:
	default:
		return fmt.Errorf("unsupported finding store: %s", c.Audit.Store)
	}

	if c.Audit.BatchSize < 1 || c.Audit.BatchSize > MaxBatchSize {
		return fmt.Errorf("AUDIT_BATCH_SIZE must be between 1 and %d, got %d", MaxBatchSize, c.Audit.BatchSize)
	}

	if c.Audit.EvalWorkers < 1 {
		return fmt.Errorf("AUDIT_EVAL_WORKERS must be positive, got %d", c.Audit.EvalWorkers)
	}

	if c.Audit.SubmitWorkers < 1 {
		return fmt.Errorf("AUDIT_SUBMIT_WORKERS must be positive, got %d", c.Audit.SubmitWorkers)
	}

	if c.Audit.QueueSize < 1 {
		return fmt.Errorf("AUDIT_QUEUE_SIZE must be positive, got %d", c.Audit.QueueSize)
	}

	if c.Audit.FlushInterval <= 0 {
		return fmt.Errorf("AUDIT_FLUSH_INTERVAL must be positive")
	}

	if c.Audit.RateLimit <= 0 || c.Audit.RateBurst < 1 {
		return fmt.Errorf("AUDIT_RATE_LIMIT and AUDIT_RATE_BURST must be positive")
	}

	if !validator.IsImageOwner(c.Audit.Owner) {
		return fmt.Errorf("AUDIT_OWNER must be self, amazon, aws-marketplace or an account id, got %q", c.Audit.Owner)
	}

	if c.Audit.AccountID != "" && !validator.IsAccountID(c.Audit.AccountID) {
		return fmt.Errorf("AUDIT_ACCOUNT_ID must be a 12 digit account id")
	}

	if c.Audit.Timeout < 0 {
		return fmt.Errorf("AUDIT_TIMEOUT must not be negative")
	}

	return nil
}

// NeedsAWS reports whether the configuration talks to AWS at all
func (c *Config) NeedsAWS() bool {
	return c.Audit.InventoryFile == "" ||
		c.Audit.AccountID == "" ||
		c.Audit.Store == StoreSecurityHub ||
		c.Audit.Store == StoreMirrored ||
		c.Report.S3Bucket != ""
}

// envReader looks up typed environment values and keeps every parse
// failure so Load can report them together.
type envReader struct {
	errs []error
}

func (e *envReader) get(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func lookup[T any](e *envReader, key string, def T, parse func(string) (T, error)) T {
	raw := os.Getenv(key)
	if raw == "" {
		return def
	}
	v, err := parse(raw)
	if err != nil {
		e.errs = append(e.errs, fmt.Errorf("%s=%q: %w", key, raw, err))
		return def
	}
	return v
}

func (e *envReader) getInt(key string, def int) int {
	return lookup(e, key, def, strconv.Atoi)
}

func (e *envReader) getFloat(key string, def float64) float64 {
	return lookup(e, key, def, func(s string) (float64, error) {
		return strconv.ParseFloat(s, 64)
	})
}

func (e *envReader) getDuration(key string, def time.Duration) time.Duration {
	return lookup(e, key, def, time.ParseDuration)
}

// getList splits a comma separated value, dropping empty items
func (e *envReader) getList(key string, def []string) []string {
	raw := os.Getenv(key)
	if raw == "" {
		return def
	}
	var out []string
	for _, item := range strings.Split(raw, ",") {
		if item = strings.TrimSpace(item); item != "" {
			out = append(out, item)
		}
	}
	return out
}
