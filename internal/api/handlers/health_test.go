package handlers

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"

	"github.com/pratik-mahalle/amiaudit/internal/domain/rule"
	"github.com/pratik-mahalle/amiaudit/internal/testutil"
)

func TestHealthHandler(t *testing.T) {
	db, mock, err := sqlmock.New(sqlmock.MonitorPingsOption(true))
	if err != nil {
		t.Fatalf("sqlmock.New() error = %v", err)
	}
	defer db.Close()
	handler := NewHealthHandler(db, testutil.NewLogger())

	rr := httptest.NewRecorder()
	handler.Healthz(rr, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	if rr.Code != http.StatusOK {
		t.Errorf("Healthz status = %d", rr.Code)
	}

	mock.ExpectPing()
	rr = httptest.NewRecorder()
	handler.Readyz(rr, httptest.NewRequest(http.MethodGet, "/readyz", nil))
	if rr.Code != http.StatusOK {
		t.Errorf("Readyz status = %d, want 200", rr.Code)
	}

	mock.ExpectPing().WillReturnError(errors.New("connection refused"))
	rr = httptest.NewRecorder()
	handler.Readyz(rr, httptest.NewRequest(http.MethodGet, "/readyz", nil))
	if rr.Code != http.StatusServiceUnavailable {
		t.Errorf("Readyz status = %d, want 503", rr.Code)
	}

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Error(err)
	}
}

func TestRuleHandler_List(t *testing.T) {
	handler := NewRuleHandler(rule.DefaultCatalog())

	rr := httptest.NewRecorder()
	handler.List(rr, httptest.NewRequest(http.MethodGet, "/rules", nil))
	if rr.Code != http.StatusOK {
		t.Fatalf("status = %d", rr.Code)
	}

	env := decodeEnvelope(t, rr)
	for _, want := range []string{`"code":"AMI.1"`, `"code":"AMI.2"`, `"scope":"volume"`} {
		if !strings.Contains(string(env.Data), want) {
			t.Errorf("response missing %s", want)
		}
	}
}
