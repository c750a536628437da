// @title amiaudit API
// @version 1.0
// @description Machine image compliance audits, run history and mirrored findings.
// @BasePath /api/v1
// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
// @description Operator token minted with "amiaudit token create", sent as "Bearer <token>".
package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/pratik-mahalle/amiaudit/internal/api/handlers"
	"github.com/pratik-mahalle/amiaudit/internal/api/middleware"
	"github.com/pratik-mahalle/amiaudit/internal/api/router"
	"github.com/pratik-mahalle/amiaudit/internal/app"
	"github.com/pratik-mahalle/amiaudit/internal/config"
	"github.com/pratik-mahalle/amiaudit/internal/pkg/logger"
	"github.com/pratik-mahalle/amiaudit/internal/pkg/validator"
	"github.com/pratik-mahalle/amiaudit/internal/worker"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load config: %v\n", err)
		os.Exit(1)
	}

	log := logger.Init(logger.Config{
		Level:  cfg.Logging.Level,
		Format: cfg.Logging.Format,
	})

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	a, err := app.New(ctx, cfg, log)
	if err != nil {
		log.ErrorWithErr(err, "Failed to initialize application")
		os.Exit(1)
	}
	defer a.Close()

	scheduler, err := worker.NewAuditScheduler(a.Audit, cfg.Audit.Schedule, a.DefaultOptions(worker.TriggerSchedule), log)
	if err != nil {
		log.ErrorWithErr(err, "Failed to create audit scheduler")
		os.Exit(1)
	}

	schedulerDone := make(chan struct{})
	go func() {
		defer close(schedulerDone)
		if err := scheduler.Start(ctx); err != nil {
			log.ErrorWithErr(err, "Audit scheduler stopped with error")
		}
	}()

	if cfg.Server.AuthSecret == "" {
		log.Warn("API authentication disabled, set SERVER_AUTH_SECRET to require operator tokens")
	}

	limiter := middleware.NewRateLimiter(cfg.Server.RateLimit, cfg.Server.RateBurst)
	go limiter.Run(ctx, time.Minute)

	h := &router.Handlers{
		Health:  handlers.NewHealthHandler(a.DB, log),
		Rule:    handlers.NewRuleHandler(a.Catalog),
		Run:     handlers.NewRunHandler(ctx, a.Runs, scheduler, a.Catalog, cfg.Audit.Timeout, log, validator.New()),
		Finding: handlers.NewFindingHandler(a.Findings, log),
	}

	srv := &http.Server{
		Addr:         fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port),
		Handler:      router.New(cfg, log, limiter, h),
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	serverErr := make(chan error, 1)
	go func() {
		log.WithFields(map[string]interface{}{
			"addr":   srv.Addr,
			"store":  cfg.Audit.Store,
			"region": cfg.AWS.Region,
		}).Info("Starting API server")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErr <- err
		}
	}()

	select {
	case <-ctx.Done():
		log.Info("Shutdown signal received")
	case err := <-serverErr:
		log.ErrorWithErr(err, "API server failed")
		stop()
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.ErrorWithErr(err, "Server forced to shutdown")
	}

	select {
	case <-schedulerDone:
	case <-shutdownCtx.Done():
		log.Warn("Timed out waiting for the active audit run")
	}

	log.Info("Server exited")
}
