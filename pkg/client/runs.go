package client

import (
	"context"
	"net/url"
	"strconv"
)

// RunService handles audit run API calls
type RunService struct {
	client *Client
}

// RunListOptions contains options for listing runs
type RunListOptions struct {
	ListOptions
	Status    string // running, completed, cancelled, failed
	AccountID string
}

// StartRunRequest represents a manual run request
type StartRunRequest struct {
	Owner   string   `json:"owner,omitempty"`
	Rules   []string `json:"rules,omitempty"`
	Timeout string   `json:"timeout,omitempty"` // Go duration, e.g. "10m"
}

// StartRunResponse identifies an accepted run
type StartRunResponse struct {
	RunID  string `json:"runId"`
	Status string `json:"status"`
}

// List retrieves audit runs, newest first
func (s *RunService) List(ctx context.Context, opts *RunListOptions) (*ListResponse[Run], error) {
	query := url.Values{}

	if opts != nil {
		if opts.Page > 0 {
			query.Set("page", strconv.Itoa(opts.Page))
		}
		if opts.PageSize > 0 {
			query.Set("page_size", strconv.Itoa(opts.PageSize))
		}
		if opts.Status != "" {
			query.Set("status", opts.Status)
		}
		if opts.AccountID != "" {
			query.Set("account", opts.AccountID)
		}
	}

	path := "/api/v1/runs"
	if len(query) > 0 {
		path += "?" + query.Encode()
	}

	var page ListResponse[Run]
	if err := s.client.doRequest(ctx, "GET", path, nil, &page); err != nil {
		return nil, err
	}

	return &page, nil
}

// Get retrieves a single run by ID
func (s *RunService) Get(ctx context.Context, id string) (*Run, error) {
	var run Run
	if err := s.client.doRequest(ctx, "GET", "/api/v1/runs/"+url.PathEscape(id), nil, &run); err != nil {
		return nil, err
	}
	return &run, nil
}

// Start asks the server to begin a run in the background and returns its id,
// which Get accepts once the run is recorded. A conflict error means another
// run is still active.
func (s *RunService) Start(ctx context.Context, req *StartRunRequest) (*StartRunResponse, error) {
	if req == nil {
		req = &StartRunRequest{}
	}
	var resp StartRunResponse
	if err := s.client.doRequest(ctx, "POST", "/api/v1/runs", req, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}
