package client

import (
	"context"
	"net/url"
	"strconv"
)

// FindingService handles finding API calls
type FindingService struct {
	client *Client
}

// FindingListOptions contains options for listing findings
type FindingListOptions struct {
	ListOptions
	RuleCode   string // AMI.1, AMI.2
	State      string // ACTIVE, ARCHIVED
	Compliance string // PASSED, FAILED
	ResourceID string // resource ARN
	AccountID  string
}

// List retrieves findings, most recently updated first
func (s *FindingService) List(ctx context.Context, opts *FindingListOptions) (*ListResponse[Finding], error) {
	query := url.Values{}

	if opts != nil {
		if opts.Page > 0 {
			query.Set("page", strconv.Itoa(opts.Page))
		}
		if opts.PageSize > 0 {
			query.Set("page_size", strconv.Itoa(opts.PageSize))
		}
		if opts.RuleCode != "" {
			query.Set("rule", opts.RuleCode)
		}
		if opts.State != "" {
			query.Set("state", opts.State)
		}
		if opts.Compliance != "" {
			query.Set("compliance", opts.Compliance)
		}
		if opts.ResourceID != "" {
			query.Set("resource", opts.ResourceID)
		}
		if opts.AccountID != "" {
			query.Set("account", opts.AccountID)
		}
	}

	path := "/api/v1/findings"
	if len(query) > 0 {
		path += "?" + query.Encode()
	}

	var page ListResponse[Finding]
	if err := s.client.doRequest(ctx, "GET", path, nil, &page); err != nil {
		return nil, err
	}

	return &page, nil
}

// Get retrieves a single finding by its ID
func (s *FindingService) Get(ctx context.Context, id string) (*Finding, error) {
	path := "/api/v1/findings/lookup?" + url.Values{"id": {id}}.Encode()

	var f Finding
	if err := s.client.doRequest(ctx, "GET", path, nil, &f); err != nil {
		return nil, err
	}
	return &f, nil
}

// Summary retrieves finding counts by record state
func (s *FindingService) Summary(ctx context.Context, accountID string) (*FindingSummary, error) {
	path := "/api/v1/findings/summary"
	if accountID != "" {
		path += "?" + url.Values{"account": {accountID}}.Encode()
	}

	var summary FindingSummary
	if err := s.client.doRequest(ctx, "GET", path, nil, &summary); err != nil {
		return nil, err
	}
	return &summary, nil
}
