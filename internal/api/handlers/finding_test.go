package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"
	"time"

	"github.com/pratik-mahalle/amiaudit/internal/domain/finding"
	"github.com/pratik-mahalle/amiaudit/internal/domain/resource"
	"github.com/pratik-mahalle/amiaudit/internal/domain/rule"
	"github.com/pratik-mahalle/amiaudit/internal/testutil"
)

func seedFindings(t *testing.T, repo *testutil.MockFindingRepository) []finding.Finding {
	t.Helper()
	var out []finding.Finding
	for i, public := range []bool{true, true, false} {
		img, err := resource.ExtractImage(resource.Record{
			resource.KeyImageID: "ami-" + string(rune('a'+i)),
			resource.KeyName:    "image",
			resource.KeyPublic:  public,
		}, testutil.TestIdentity())
		if err != nil {
			t.Fatalf("ExtractImage() error = %v", err)
		}
		r := rule.PublicImageRule{}
		v, _ := rule.SafeEvaluate(r, img.Subject)
		f := finding.Build(testutil.TestIdentity(), r.Metadata(), v, time.Now())
		if err := repo.Upsert(context.Background(), &f); err != nil {
			t.Fatalf("Upsert() error = %v", err)
		}
		out = append(out, f)
	}
	return out
}

type envelope struct {
	Success bool            `json:"success"`
	Data    json.RawMessage `json:"data"`
	Error   struct {
		Code string `json:"code"`
	} `json:"error"`
}

func decodeEnvelope(t *testing.T, rr *httptest.ResponseRecorder) envelope {
	t.Helper()
	var env envelope
	if err := json.NewDecoder(rr.Body).Decode(&env); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	return env
}

func TestFindingHandler_List(t *testing.T) {
	repo := testutil.NewMockFindingRepository()
	seedFindings(t, repo)
	handler := NewFindingHandler(repo, testutil.NewLogger())

	tests := []struct {
		name           string
		query          string
		expectedStatus int
		expectedCount  int
	}{
		{name: "all findings", query: "", expectedStatus: http.StatusOK, expectedCount: 3},
		{name: "active only", query: "?state=active", expectedStatus: http.StatusOK, expectedCount: 2},
		{name: "passed only", query: "?compliance=PASSED", expectedStatus: http.StatusOK, expectedCount: 1},
		{name: "paged", query: "?page=2&page_size=2", expectedStatus: http.StatusOK, expectedCount: 1},
		{name: "page size capped", query: "?page_size=500", expectedStatus: http.StatusOK, expectedCount: 3},
		{name: "non-numeric page", query: "?page=two", expectedStatus: http.StatusBadRequest},
		{name: "zero page size", query: "?page_size=0", expectedStatus: http.StatusBadRequest},
		{name: "bad state", query: "?state=open", expectedStatus: http.StatusBadRequest},
		{name: "bad compliance", query: "?compliance=maybe", expectedStatus: http.StatusBadRequest},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/api/v1/findings"+tt.query, nil)
			rr := httptest.NewRecorder()

			handler.List(rr, req)

			if rr.Code != tt.expectedStatus {
				t.Fatalf("handler returned wrong status code: got %v want %v", rr.Code, tt.expectedStatus)
			}
			if rr.Code != http.StatusOK {
				return
			}

			env := decodeEnvelope(t, rr)
			var page struct {
				Data       []json.RawMessage `json:"data"`
				TotalItems int64             `json:"total_items"`
			}
			if err := json.Unmarshal(env.Data, &page); err != nil {
				t.Fatalf("failed to decode page: %v", err)
			}
			if len(page.Data) != tt.expectedCount {
				t.Errorf("got %d findings, want %d", len(page.Data), tt.expectedCount)
			}
		})
	}
}

func TestFindingHandler_ListError(t *testing.T) {
	repo := testutil.NewMockFindingRepository()
	repo.ListError = errors.New("connection refused")
	handler := NewFindingHandler(repo, testutil.NewLogger())

	rr := httptest.NewRecorder()
	handler.List(rr, httptest.NewRequest(http.MethodGet, "/api/v1/findings", nil))

	if rr.Code != http.StatusInternalServerError {
		t.Errorf("status = %d, want 500", rr.Code)
	}
}

func TestFindingHandler_Lookup(t *testing.T) {
	repo := testutil.NewMockFindingRepository()
	findings := seedFindings(t, repo)
	handler := NewFindingHandler(repo, testutil.NewLogger())

	tests := []struct {
		name           string
		id             string
		expectedStatus int
	}{
		{name: "existing finding", id: findings[0].ID, expectedStatus: http.StatusOK},
		{name: "unknown finding", id: "arn:aws:ec2:us-east-1::image/ami-zzz/AMI.1", expectedStatus: http.StatusNotFound},
		{name: "missing id", id: "", expectedStatus: http.StatusBadRequest},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			target := "/api/v1/findings/lookup"
			if tt.id != "" {
				target += "?id=" + url.QueryEscape(tt.id)
			}
			rr := httptest.NewRecorder()
			handler.Lookup(rr, httptest.NewRequest(http.MethodGet, target, nil))

			if rr.Code != tt.expectedStatus {
				t.Fatalf("status = %d, want %d", rr.Code, tt.expectedStatus)
			}
			if rr.Code != http.StatusOK {
				return
			}

			var got finding.Finding
			if err := json.Unmarshal(decodeEnvelope(t, rr).Data, &got); err != nil {
				t.Fatalf("failed to decode finding: %v", err)
			}
			if got.ID != tt.id {
				t.Errorf("Id = %q, want %q", got.ID, tt.id)
			}
		})
	}
}

func TestFindingHandler_Summary(t *testing.T) {
	repo := testutil.NewMockFindingRepository()
	seedFindings(t, repo)
	handler := NewFindingHandler(repo, testutil.NewLogger())

	rr := httptest.NewRecorder()
	handler.Summary(rr, httptest.NewRequest(http.MethodGet, "/api/v1/findings/summary", nil))

	if rr.Code != http.StatusOK {
		t.Fatalf("status = %d", rr.Code)
	}

	var summary struct {
		Active   int64 `json:"active"`
		Archived int64 `json:"archived"`
		Total    int64 `json:"total"`
	}
	if err := json.Unmarshal(decodeEnvelope(t, rr).Data, &summary); err != nil {
		t.Fatalf("failed to decode summary: %v", err)
	}
	if summary.Active != 2 || summary.Archived != 1 || summary.Total != 3 {
		t.Errorf("summary = %+v", summary)
	}
}
