package handlers

import (
	"net/http"

	"github.com/pratik-mahalle/amiaudit/internal/api/dto"
	"github.com/pratik-mahalle/amiaudit/internal/domain/rule"
	"github.com/pratik-mahalle/amiaudit/internal/pkg/utils"
)

// RuleHandler serves the rule catalog
type RuleHandler struct {
	catalog *rule.Catalog
}

// NewRuleHandler creates a new rule handler
func NewRuleHandler(catalog *rule.Catalog) *RuleHandler {
	return &RuleHandler{catalog: catalog}
}

// List returns every registered rule, ordered by code
// @Summary List rules
// @Tags Rules
// @Security BearerAuth
// @Produce json
// @Success 200 {object} []dto.RuleDTO "Registered rules"
// @Router /rules [get]
func (h *RuleHandler) List(w http.ResponseWriter, r *http.Request) {
	rules := h.catalog.All()
	dtos := make([]dto.RuleDTO, len(rules))
	for i, rl := range rules {
		dtos[i] = dto.NewRuleDTO(rl)
	}
	utils.WriteSuccess(w, http.StatusOK, dtos)
}
