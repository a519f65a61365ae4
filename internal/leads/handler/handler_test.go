package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"

	"leadsync_backend/internal/leads/domain"
	"leadsync_backend/internal/leads/repository"
	"leadsync_backend/internal/leads/service"
	"leadsync_backend/platform/validator"
)

type stubPublisher struct{}

func (stubPublisher) Publish(ctx context.Context, lead domain.Lead, override string) domain.CapiLog {
	return domain.CapiLog{Status: domain.CapiSuccess, Timestamp: time.Now(), EventName: "Lead"}
}

type stubSyncer struct{}

func (stubSyncer) Sync(ctx context.Context) ([]domain.Lead, error) { return nil, nil }

func testRouter(t *testing.T, seeds ...domain.Lead) *gin.Engine {
	t.Helper()
	gin.SetMode(gin.TestMode)

	repo, err := repository.New(context.Background(), nil, nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(seeds) > 0 {
		repo.AddNew(context.Background(), seeds)
	}

	svc := service.New(repo, stubPublisher{}, stubSyncer{}, func(string) []domain.Lead { return nil }, nil, nil, nil)
	h := New(svc, validator.New())

	r := gin.New()
	h.RegisterRoutes(r.Group("/leads"))
	return r
}

func seedLead(id string) domain.Lead {
	return domain.Lead{ID: id, FullName: "Lead " + id, Email: id + "@example.com", Status: domain.StatusNewLead}
}

func TestListLeads(t *testing.T) {
	r := testRouter(t, seedLead("a"), seedLead("b"))

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/leads", nil))

	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}
	var got []map[string]interface{}
	if err := json.Unmarshal(w.Body.Bytes(), &got); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("expected 2 leads, got %d", len(got))
	}
}

func TestGetLeadNotFound(t *testing.T) {
	r := testRouter(t)

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/leads/ghost", nil))

	if w.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", w.Code)
	}
}

func TestUpdateStatus(t *testing.T) {
	r := testRouter(t, seedLead("a"))

	body := strings.NewReader(`{"status":"Qualified Lead"}`)
	req := httptest.NewRequest(http.MethodPatch, "/leads/a/status", body)
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", w.Code, w.Body.String())
	}
	var got map[string]interface{}
	if err := json.Unmarshal(w.Body.Bytes(), &got); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if got["status"] != "Qualified Lead" {
		t.Fatalf("expected updated status in response, got %v", got["status"])
	}
	if got["capiLog"] == nil {
		t.Fatalf("expected conversion log in response")
	}
}

func TestUpdateStatusRejectsUnknownLabel(t *testing.T) {
	r := testRouter(t, seedLead("a"))

	body := strings.NewReader(`{"status":"Closed Won"}`)
	req := httptest.NewRequest(http.MethodPatch, "/leads/a/status", body)
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	if w.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for unknown status, got %d", w.Code)
	}
}

func TestUpdateStatusRejectsMissingBody(t *testing.T) {
	r := testRouter(t, seedLead("a"))

	req := httptest.NewRequest(http.MethodPatch, "/leads/a/status", strings.NewReader(`{}`))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	if w.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for empty status, got %d", w.Code)
	}
}

func TestSimulateCreatesLead(t *testing.T) {
	r := testRouter(t)

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/leads/simulate", nil))

	if w.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d", w.Code)
	}
}

func TestExportCSVEndpoint(t *testing.T) {
	r := testRouter(t, seedLead("a"))

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/leads/export", nil))

	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}
	if ct := w.Header().Get("Content-Type"); !strings.HasPrefix(ct, "text/csv") {
		t.Fatalf("expected csv content type, got %q", ct)
	}
	if !strings.Contains(w.Header().Get("Content-Disposition"), "attachment") {
		t.Fatalf("expected attachment disposition")
	}
}
