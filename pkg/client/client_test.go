package client

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestServer(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	return NewClient(Config{BaseURL: srv.URL + "/"})
}

func writeEnvelope(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(map[string]interface{}{"success": true, "data": data})
}

func TestRuleService_List(t *testing.T) {
	c := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/v1/rules", r.URL.Path)
		writeEnvelope(w, http.StatusOK, []map[string]interface{}{
			{"code": "AMI.1", "severity": "CRITICAL", "scope": "image"},
			{"code": "AMI.2", "severity": "HIGH", "scope": "volume"},
		})
	})

	rules, err := c.Rules().List(context.Background())
	require.NoError(t, err)
	require.Len(t, rules, 2)
	assert.Equal(t, "AMI.1", rules[0].Code)
	assert.Equal(t, "volume", rules[1].Scope)
}

func TestRunService_List_Query(t *testing.T) {
	c := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		assert.Equal(t, "failed", q.Get("status"))
		assert.Equal(t, "2", q.Get("page"))
		writeEnvelope(w, http.StatusOK, map[string]interface{}{
			"data":        []map[string]interface{}{{"id": "run-1", "status": "failed"}},
			"page":        2,
			"page_size":   20,
			"total_items": 21,
			"total_pages": 2,
		})
	})

	page, err := c.Runs().List(context.Background(), &RunListOptions{
		ListOptions: ListOptions{Page: 2},
		Status:      "failed",
	})
	require.NoError(t, err)
	require.Len(t, page.Data, 1)
	assert.Equal(t, "run-1", page.Data[0].ID)
	assert.Equal(t, int64(21), page.TotalItems)
}

func TestRunService_Start(t *testing.T) {
	c := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/api/v1/runs", r.URL.Path)
		writeEnvelope(w, http.StatusAccepted, map[string]string{"runId": "run-42", "status": "started"})
	})

	resp, err := c.Runs().Start(context.Background(), &StartRunRequest{Rules: []string{"AMI.2"}})
	require.NoError(t, err)
	assert.Equal(t, "run-42", resp.RunID)
	assert.Equal(t, "started", resp.Status)
}

func TestRunService_Start_Conflict(t *testing.T) {
	c := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusConflict)
		_ = json.NewEncoder(w).Encode(map[string]interface{}{
			"success": false,
			"error":   map[string]string{"code": "RUN_IN_PROGRESS", "message": "An audit run is already in progress"},
		})
	})

	resp, err := c.Runs().Start(context.Background(), nil)
	assert.Nil(t, resp)

	var apiErr *APIError
	require.True(t, errors.As(err, &apiErr))
	assert.True(t, apiErr.IsConflict())
	assert.True(t, apiErr.IsRunInProgress())
}

func TestFindingService_Get_EscapesID(t *testing.T) {
	const id = "arn:aws:ec2:us-east-1::image/ami-1/AMI.1"
	c := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/v1/findings/lookup", r.URL.Path)
		assert.Equal(t, id, r.URL.Query().Get("id"))
		writeEnvelope(w, http.StatusOK, map[string]interface{}{
			"Id":         id,
			"Compliance": map[string]string{"Status": "FAILED"},
			"Resources":  []map[string]string{{"Id": "arn:aws:ec2:us-east-1::image/ami-1"}},
		})
	})

	f, err := c.Findings().Get(context.Background(), id)
	require.NoError(t, err)
	assert.Equal(t, "FAILED", f.Compliance.Status)
	assert.Equal(t, "arn:aws:ec2:us-east-1::image/ami-1", f.ResourceARN())
}

func TestDoRequest_NonJSONError(t *testing.T) {
	c := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "bad gateway", http.StatusBadGateway)
	})

	err := c.Ping(context.Background())

	var apiErr *APIError
	require.True(t, errors.As(err, &apiErr))
	assert.True(t, apiErr.IsServerError())
	assert.Equal(t, "bad gateway", apiErr.Message)
}

func TestClient_BearerToken(t *testing.T) {
	var got string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got = r.Header.Get("Authorization")
		writeEnvelope(w, http.StatusOK, []map[string]interface{}{})
	}))
	t.Cleanup(srv.Close)

	c := NewClient(Config{BaseURL: srv.URL, Token: "tok-123"})
	_, err := c.Rules().List(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "Bearer tok-123", got)

	_, err = newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Empty(t, r.Header.Get("Authorization"))
		writeEnvelope(w, http.StatusOK, []map[string]interface{}{})
	}).Rules().List(context.Background())
	require.NoError(t, err)
}

func TestDoRequest_RetryAfter(t *testing.T) {
	c := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Header().Set("Retry-After", "3")
		w.WriteHeader(http.StatusTooManyRequests)
		_ = json.NewEncoder(w).Encode(map[string]interface{}{
			"success": false,
			"error":   map[string]string{"code": "RATE_LIMITED", "message": "Too many requests"},
		})
	})

	_, err := c.Rules().List(context.Background())

	var apiErr *APIError
	require.True(t, errors.As(err, &apiErr))
	assert.True(t, apiErr.IsRateLimited())
	assert.Equal(t, 3*time.Second, apiErr.RetryAfter)
}
