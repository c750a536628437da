package handlers

import (
	"net/http"
	"strings"

	"github.com/pratik-mahalle/amiaudit/internal/api/dto"
	"github.com/pratik-mahalle/amiaudit/internal/domain/finding"
	"github.com/pratik-mahalle/amiaudit/internal/pkg/errors"
	"github.com/pratik-mahalle/amiaudit/internal/pkg/logger"
	"github.com/pratik-mahalle/amiaudit/internal/pkg/utils"
)

// FindingHandler serves the local findings mirror
type FindingHandler struct {
	repo   finding.Repository
	logger *logger.Logger
}

// NewFindingHandler creates a new finding handler
func NewFindingHandler(repo finding.Repository, log *logger.Logger) *FindingHandler {
	return &FindingHandler{
		repo:   repo,
		logger: log,
	}
}

// List returns mirrored findings with pagination
// @Summary List findings
// @Tags Findings
// @Security BearerAuth
// @Produce json
// @Param rule query string false "Filter by rule code"
// @Param state query string false "Filter by record state (ACTIVE, ARCHIVED)"
// @Param compliance query string false "Filter by compliance status (PASSED, FAILED)"
// @Param resource query string false "Filter by resource ARN"
// @Param account query string false "Filter by account ID"
// @Param page query int false "Page number (default: 1)"
// @Param page_size query int false "Page size (default: 20, max: 100)"
// @Success 200 {object} utils.PaginatedResponse{data=[]finding.Finding} "List of findings"
// @Failure 400 {object} utils.ErrorResponse "Invalid filter"
// @Router /findings [get]
func (h *FindingHandler) List(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	filter := finding.Filter{
		RuleCode:         q.Get("rule"),
		RecordState:      strings.ToUpper(q.Get("state")),
		ComplianceStatus: strings.ToUpper(q.Get("compliance")),
		ResourceID:       q.Get("resource"),
		AwsAccountID:     q.Get("account"),
	}

	switch filter.RecordState {
	case "", finding.RecordStateActive, finding.RecordStateArchived:
	default:
		utils.WriteError(w, errors.BadRequest("state must be ACTIVE or ARCHIVED"))
		return
	}
	switch filter.ComplianceStatus {
	case "", finding.CompliancePassed, finding.ComplianceFailed:
	default:
		utils.WriteError(w, errors.BadRequest("compliance must be PASSED or FAILED"))
		return
	}

	p, perr := utils.ParsePaginationParams(r)
	if perr != nil {
		utils.WriteError(w, perr)
		return
	}
	findings, total, err := h.repo.List(r.Context(), filter, p.PageSize, p.Offset)
	if err != nil {
		h.logger.ErrorWithErr(err, "Failed to list findings")
		utils.WriteAppError(w, err)
		return
	}
	if findings == nil {
		findings = []*finding.Finding{}
	}

	utils.WriteSuccess(w, http.StatusOK, p.Respond(findings, total))
}

// Lookup returns one finding by ID. Finding IDs contain slashes, so the ID is
// passed as a query parameter.
// @Summary Get finding by ID
// @Tags Findings
// @Security BearerAuth
// @Produce json
// @Param id query string true "Finding ID"
// @Success 200 {object} finding.Finding "Finding"
// @Failure 404 {object} utils.ErrorResponse "Finding not found"
// @Router /findings/lookup [get]
func (h *FindingHandler) Lookup(w http.ResponseWriter, r *http.Request) {
	id := r.URL.Query().Get("id")
	if id == "" {
		utils.WriteError(w, errors.BadRequest("id is required"))
		return
	}

	f, err := h.repo.GetByID(r.Context(), id)
	if err != nil {
		if !errors.IsNotFound(err) {
			h.logger.ErrorWithErr(err, "Failed to get finding")
		}
		utils.WriteAppError(w, err)
		return
	}

	utils.WriteSuccess(w, http.StatusOK, f)
}

// Summary returns finding counts by record state
// @Summary Finding summary
// @Tags Findings
// @Security BearerAuth
// @Produce json
// @Param account query string false "Filter by account ID"
// @Success 200 {object} dto.FindingSummaryDTO "Counts"
// @Router /findings/summary [get]
func (h *FindingHandler) Summary(w http.ResponseWriter, r *http.Request) {
	counts, err := h.repo.CountByState(r.Context(), r.URL.Query().Get("account"))
	if err != nil {
		h.logger.ErrorWithErr(err, "Failed to count findings")
		utils.WriteAppError(w, err)
		return
	}

	summary := dto.FindingSummaryDTO{
		Active:   counts[finding.RecordStateActive],
		Archived: counts[finding.RecordStateArchived],
	}
	summary.Total = summary.Active + summary.Archived

	utils.WriteSuccess(w, http.StatusOK, summary)
}
