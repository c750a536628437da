package utils

import (
	"fmt"
	"net/http"
	"strconv"

	"github.com/pratik-mahalle/amiaudit/internal/pkg/errors"
)

const (
	DefaultPageSize = 20
	MaxPageSize     = 100
)

// PaginationParams is the window a list endpoint reads from its repository
type PaginationParams struct {
	Page     int
	PageSize int
	Offset   int
}

// PaginatedResponse is the data envelope of list endpoints
type PaginatedResponse struct {
	Data       interface{} `json:"data"`
	Page       int         `json:"page"`
	PageSize   int         `json:"page_size"`
	TotalItems int64       `json:"total_items"`
	TotalPages int         `json:"total_pages"`
}

// ParsePaginationParams reads page and page_size from the query string.
// Missing values take their defaults and page_size is capped at MaxPageSize;
// anything that is not a positive integer is rejected.
func ParsePaginationParams(r *http.Request) (PaginationParams, *errors.AppError) {
	q := r.URL.Query()

	page, err := positiveQueryInt(q.Get("page"), 1)
	if err != nil {
		return PaginationParams{}, errors.BadRequest(fmt.Sprintf("page %v", err))
	}
	pageSize, err := positiveQueryInt(q.Get("page_size"), DefaultPageSize)
	if err != nil {
		return PaginationParams{}, errors.BadRequest(fmt.Sprintf("page_size %v", err))
	}
	pageSize = min(pageSize, MaxPageSize)

	return PaginationParams{
		Page:     page,
		PageSize: pageSize,
		Offset:   (page - 1) * pageSize,
	}, nil
}

// Respond wraps one page of data together with the total row count
func (p PaginationParams) Respond(data interface{}, totalItems int64) PaginatedResponse {
	pageSize := p.PageSize
	if pageSize < 1 {
		pageSize = DefaultPageSize
	}

	return PaginatedResponse{
		Data:       data,
		Page:       p.Page,
		PageSize:   pageSize,
		TotalItems: totalItems,
		TotalPages: int((totalItems + int64(pageSize) - 1) / int64(pageSize)),
	}
}

func positiveQueryInt(value string, def int) (int, error) {
	if value == "" {
		return def, nil
	}
	n, err := strconv.Atoi(value)
	if err != nil || n < 1 {
		return 0, fmt.Errorf("must be a positive integer, got %q", value)
	}
	return n, nil
}
