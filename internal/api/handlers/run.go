package handlers

import (
	"context"
	"encoding/json"
	stderrors "errors"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/pratik-mahalle/amiaudit/internal/api/dto"
	"github.com/pratik-mahalle/amiaudit/internal/api/middleware"
	"github.com/pratik-mahalle/amiaudit/internal/domain/audit"
	"github.com/pratik-mahalle/amiaudit/internal/domain/rule"
	"github.com/pratik-mahalle/amiaudit/internal/pkg/errors"
	"github.com/pratik-mahalle/amiaudit/internal/pkg/logger"
	"github.com/pratik-mahalle/amiaudit/internal/pkg/utils"
	"github.com/pratik-mahalle/amiaudit/internal/pkg/validator"
	"github.com/pratik-mahalle/amiaudit/internal/worker"
)

// TriggerAPI is the trigger name recorded for runs started over HTTP
const TriggerAPI = "api"

// RunTrigger starts audit runs in the background
type RunTrigger interface {
	Trigger(ctx context.Context, opts audit.Options) error
}

// RunHandler serves audit run history and manual triggers
type RunHandler struct {
	repo      audit.Repository
	trigger   RunTrigger
	catalog   *rule.Catalog
	baseCtx   context.Context
	timeout   time.Duration
	logger    *logger.Logger
	validator *validator.Validator
}

// NewRunHandler creates a new run handler. Triggered runs are bound to
// baseCtx instead of the request.
func NewRunHandler(
	baseCtx context.Context,
	repo audit.Repository,
	trigger RunTrigger,
	catalog *rule.Catalog,
	defaultTimeout time.Duration,
	log *logger.Logger,
	val *validator.Validator,
) *RunHandler {
	return &RunHandler{
		repo:      repo,
		trigger:   trigger,
		catalog:   catalog,
		baseCtx:   baseCtx,
		timeout:   defaultTimeout,
		logger:    log,
		validator: val,
	}
}

// List returns audit runs, newest first
// @Summary List audit runs
// @Tags Runs
// @Security BearerAuth
// @Produce json
// @Param status query string false "Filter by status"
// @Param account query string false "Filter by account ID"
// @Param page query int false "Page number (default: 1)"
// @Param page_size query int false "Page size (default: 20, max: 100)"
// @Success 200 {object} utils.PaginatedResponse{data=[]dto.RunDTO} "List of runs"
// @Failure 400 {object} utils.ErrorResponse "Invalid filter or page"
// @Router /runs [get]
func (h *RunHandler) List(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	filter := audit.Filter{
		AccountID: q.Get("account"),
		Status:    audit.Status(strings.ToLower(q.Get("status"))),
	}

	p, perr := utils.ParsePaginationParams(r)
	if perr != nil {
		utils.WriteError(w, perr)
		return
	}
	runs, total, err := h.repo.List(r.Context(), filter, p.PageSize, p.Offset)
	if err != nil {
		h.logger.ErrorWithErr(err, "Failed to list audit runs")
		utils.WriteAppError(w, err)
		return
	}

	dtos := make([]dto.RunDTO, len(runs))
	for i, run := range runs {
		dtos[i] = dto.NewRunDTO(run)
	}

	utils.WriteSuccess(w, http.StatusOK, p.Respond(dtos, total))
}

// Get returns a single run
// @Summary Get audit run
// @Tags Runs
// @Security BearerAuth
// @Produce json
// @Param id path string true "Run ID"
// @Success 200 {object} dto.RunDTO "Run"
// @Failure 404 {object} utils.ErrorResponse "Run not found"
// @Router /runs/{id} [get]
func (h *RunHandler) Get(w http.ResponseWriter, r *http.Request) {
	run, err := h.repo.GetByID(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		if !errors.IsNotFound(err) {
			h.logger.ErrorWithErr(err, "Failed to get audit run")
		}
		utils.WriteAppError(w, err)
		return
	}

	utils.WriteSuccess(w, http.StatusOK, dto.NewRunDTO(run))
}

// Create starts an audit run in the background
// @Summary Start an audit run
// @Tags Runs
// @Security BearerAuth
// @Accept json
// @Produce json
// @Param request body dto.StartRunRequest false "Run options"
// @Success 202 {object} dto.StartRunResponse "Run started; follow it at /runs/{runId}"
// @Failure 400 {object} utils.ErrorResponse "Invalid request"
// @Failure 409 {object} utils.ErrorResponse "A run is already in progress"
// @Router /runs [post]
func (h *RunHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req dto.StartRunRequest
	if r.ContentLength != 0 {
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			utils.WriteError(w, errors.BadRequest("Invalid request body"))
			return
		}
	}

	if errs := h.validator.Validate(&req); len(errs) > 0 {
		utils.WriteError(w, errors.ValidationError("Invalid run request", errs))
		return
	}

	if _, err := h.catalog.Select(req.Rules...); err != nil {
		utils.WriteError(w, errors.BadRequest(err.Error()))
		return
	}

	timeout := h.timeout
	if req.Timeout != "" {
		d, err := time.ParseDuration(req.Timeout)
		if err != nil || d <= 0 {
			utils.WriteError(w, errors.BadRequest("timeout must be a positive duration"))
			return
		}
		timeout = d
	}

	trigger := TriggerAPI
	if claims, ok := middleware.GetClaims(r); ok {
		trigger = TriggerAPI + ":" + claims.Subject
	}

	opts := audit.Options{
		RunID:     uuid.NewString(),
		Owner:     req.Owner,
		RuleCodes: req.Rules,
		Timeout:   timeout,
		Trigger:   trigger,
	}

	if err := h.trigger.Trigger(h.baseCtx, opts); err != nil {
		if stderrors.Is(err, worker.ErrRunInProgress) {
			utils.WriteError(w, errors.RunInProgress(err))
			return
		}
		h.logger.ErrorWithErr(err, "Failed to start audit run")
		utils.WriteAppError(w, err)
		return
	}

	utils.WriteSuccessWithMessage(w, http.StatusAccepted, "Audit run started", dto.StartRunResponse{
		RunID:  opts.RunID,
		Status: "started",
	})
}
