// Package app wires configuration into the audit components shared by the
// API server and the CLI.
package app

import (
	"context"
	"database/sql"
	"fmt"
	"io"
	"os"

	"github.com/aws/aws-sdk-go-v2/aws"

	"github.com/pratik-mahalle/amiaudit/internal/config"
	"github.com/pratik-mahalle/amiaudit/internal/domain/audit"
	"github.com/pratik-mahalle/amiaudit/internal/domain/finding"
	"github.com/pratik-mahalle/amiaudit/internal/domain/resource"
	"github.com/pratik-mahalle/amiaudit/internal/domain/rule"
	"github.com/pratik-mahalle/amiaudit/internal/pkg/logger"
	"github.com/pratik-mahalle/amiaudit/internal/providers"
	"github.com/pratik-mahalle/amiaudit/internal/repository/postgres"
	"github.com/pratik-mahalle/amiaudit/internal/services"
	"github.com/pratik-mahalle/amiaudit/migrations"
)

// App holds the wired components of one process
type App struct {
	Config   *config.Config
	Logger   *logger.Logger
	DB       *sql.DB
	Findings finding.Repository
	Runs     audit.Repository
	Catalog  *rule.Catalog
	Audit    *services.AuditService
}

// Option customises New
type Option func(*options)

type options struct {
	stdout io.Writer
}

// WithStdout redirects the stdout finding store
func WithStdout(w io.Writer) Option {
	return func(o *options) { o.stdout = w }
}

// New opens the database, applies migrations and builds the audit service
// for cfg. AWS configuration is only loaded when a component needs it.
func New(ctx context.Context, cfg *config.Config, log *logger.Logger, opts ...Option) (*App, error) {
	o := &options{stdout: os.Stdout}
	for _, opt := range opts {
		opt(o)
	}

	catalog := rule.DefaultCatalog()
	if _, err := catalog.Select(cfg.Audit.Rules...); err != nil {
		return nil, fmt.Errorf("invalid AUDIT_RULES: %w", err)
	}

	db, err := postgres.New(cfg.Database)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	if _, err := postgres.RunMigrations(db, cfg.Database.Driver, migrations.GetFS(), log); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}

	a := &App{
		Config:   cfg,
		Logger:   log,
		DB:       db,
		Findings: postgres.NewFindingRepository(db, cfg.Database.Driver),
		Runs:     postgres.NewRunRepository(db, cfg.Database.Driver),
		Catalog:  catalog,
	}

	var awsCfg aws.Config
	if cfg.NeedsAWS() {
		awsCfg, err = providers.LoadAWSConfig(ctx, cfg.AWS)
		if err != nil {
			db.Close()
			return nil, fmt.Errorf("failed to load AWS configuration: %w", err)
		}
	}

	store := a.findingStore(awsCfg, o.stdout)

	var reporter audit.Reporter
	if cfg.Report.S3Bucket != "" {
		reporter = providers.NewS3ReportExporter(awsCfg, cfg.Report.S3Bucket, cfg.Report.S3Prefix, log)
	}

	a.Audit = services.NewAuditService(
		a.lister(awsCfg),
		a.identity(awsCfg),
		catalog,
		store,
		a.Runs,
		reporter,
		services.AuditConfig{
			Owner:       cfg.Audit.Owner,
			EvalWorkers: cfg.Audit.EvalWorkers,
			ProductName: cfg.Audit.ProductName,
			Sink: services.SinkConfig{
				Workers:       cfg.Audit.SubmitWorkers,
				QueueSize:     cfg.Audit.QueueSize,
				BatchSize:     cfg.Audit.BatchSize,
				FlushInterval: cfg.Audit.FlushInterval,
				RateLimit:     cfg.Audit.RateLimit,
				RateBurst:     cfg.Audit.RateBurst,
			},
		},
		log,
	)

	log.WithFields(map[string]interface{}{
		"store":     cfg.Audit.Store,
		"inventory": cfg.Audit.InventoryFile,
		"rules":     catalog.Len(),
		"reporting": reporter != nil,
	}).Info("Audit components initialized")

	return a, nil
}

// DefaultOptions returns the run options configured for the process
func (a *App) DefaultOptions(trigger string) audit.Options {
	return audit.Options{
		Owner:     a.Config.Audit.Owner,
		RuleCodes: a.Config.Audit.Rules,
		Timeout:   a.Config.Audit.Timeout,
		Trigger:   trigger,
	}
}

// Close releases the database
func (a *App) Close() error {
	return a.DB.Close()
}

func (a *App) findingStore(awsCfg aws.Config, stdout io.Writer) finding.Store {
	switch a.Config.Audit.Store {
	case config.StoreSecurityHub:
		return providers.NewSecurityHubStore(awsCfg)
	case config.StoreLocal:
		return services.NewLocalFindingStore(a.Findings, a.Logger)
	case config.StoreStdout:
		return services.NewWriterStore(stdout)
	default:
		return services.NewMirroredStore(
			providers.NewSecurityHubStore(awsCfg),
			services.NewLocalFindingStore(a.Findings, a.Logger),
			a.Logger,
		)
	}
}

func (a *App) lister(awsCfg aws.Config) resource.Lister {
	if a.Config.Audit.InventoryFile != "" {
		return providers.NewFileLister(a.Config.Audit.InventoryFile)
	}
	return providers.NewEC2ImageLister(awsCfg, a.Logger)
}

func (a *App) identity(awsCfg aws.Config) resource.IdentityProvider {
	if a.Config.Audit.AccountID != "" {
		return resource.StaticIdentity{
			AccountID: a.Config.Audit.AccountID,
			Region:    a.Config.AWS.Region,
		}
	}
	return providers.NewSTSIdentityProvider(awsCfg)
}
