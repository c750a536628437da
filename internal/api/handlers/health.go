package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/pratik-mahalle/amiaudit/internal/pkg/errors"
	"github.com/pratik-mahalle/amiaudit/internal/pkg/logger"
	"github.com/pratik-mahalle/amiaudit/internal/pkg/utils"
)

// readyTimeout bounds the database ping behind /readyz
const readyTimeout = 2 * time.Second

// Pinger is the part of *sql.DB the readiness probe needs
type Pinger interface {
	PingContext(ctx context.Context) error
}

type HealthHandler struct {
	db      Pinger
	logger  *logger.Logger
	started time.Time
}

func NewHealthHandler(db Pinger, log *logger.Logger) *HealthHandler {
	return &HealthHandler{db: db, logger: log, started: time.Now()}
}

// Healthz reports that the process is up
// @Summary Liveness probe
// @Tags Health
// @Produce json
// @Success 200 {object} map[string]string "Application is alive"
// @Router /healthz [get]
func (h *HealthHandler) Healthz(w http.ResponseWriter, r *http.Request) {
	utils.WriteSuccess(w, http.StatusOK, map[string]string{
		"status": "ok",
		"uptime": time.Since(h.started).Truncate(time.Second).String(),
	})
}

// Readyz reports whether the run and findings database answers a ping
// @Summary Readiness probe
// @Tags Health
// @Produce json
// @Success 200 {object} map[string]string "Application is ready"
// @Failure 503 {object} utils.ErrorResponse "Service unavailable"
// @Router /readyz [get]
func (h *HealthHandler) Readyz(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), readyTimeout)
	defer cancel()

	start := time.Now()
	if err := h.db.PingContext(ctx); err != nil {
		h.logger.ErrorWithErr(err, "Readiness check failed: database unreachable")
		utils.WriteError(w, errors.ServiceUnavailable("Database connection failed"))
		return
	}

	utils.WriteSuccess(w, http.StatusOK, map[string]string{
		"status":     "ready",
		"database":   "connected",
		"ping_delay": time.Since(start).String(),
	})
}
