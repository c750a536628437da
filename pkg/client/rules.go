package client

import "context"

// RuleService handles rule catalog API calls
type RuleService struct {
	client *Client
}

// List retrieves every registered rule
func (s *RuleService) List(ctx context.Context) ([]Rule, error) {
	var rules []Rule
	if err := s.client.doRequest(ctx, "GET", "/api/v1/rules", nil, &rules); err != nil {
		return nil, err
	}
	return rules, nil
}
