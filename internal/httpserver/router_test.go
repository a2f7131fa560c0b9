package httpserver

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"

	"wholesale-catalog/internal/domain"
	"wholesale-catalog/internal/service/importrun"
)

type stubRunService struct {
	started []importrun.Request
	run     *domain.ImportRun
	err     error
}

func (s *stubRunService) Start(_ context.Context, req importrun.Request) (*domain.ImportRun, error) {
	s.started = append(s.started, req)
	return &domain.ImportRun{ID: "run-1", Status: domain.RunRunning}, s.err
}

func (s *stubRunService) Get(_ context.Context, id string) (*domain.ImportRun, error) {
	if s.run == nil || s.run.ID != id {
		return nil, domain.ErrNotFound
	}
	return s.run, nil
}

func (s *stubRunService) List(context.Context, int) ([]domain.ImportRun, error) {
	if s.run == nil {
		return []domain.ImportRun{}, s.err
	}
	return []domain.ImportRun{*s.run}, s.err
}

func (s *stubRunService) Errors(_ context.Context, id string) ([]domain.ItemError, []domain.ItemError, error) {
	if s.run == nil || s.run.ID != id {
		return nil, nil, domain.ErrNotFound
	}
	return []domain.ItemError{{Key: "0001", Stage: domain.StageSink, Message: "rejected"}}, []domain.ItemError{}, nil
}

type stubProductService struct{}

func (stubProductService) GetByBarcode(_ context.Context, barcode string) (*domain.CatalogProduct, error) {
	if barcode != "0001" {
		return nil, domain.ErrNotFound
	}
	return &domain.CatalogProduct{Barcode: barcode, Name: "Widget", RegularPrice: decimal.RequireFromString("8.97")}, nil
}

type stubCategoryService struct {
	err error
}

func (s stubCategoryService) List(context.Context) ([]domain.Category, error) {
	if s.err != nil {
		return nil, s.err
	}
	return []domain.Category{{Code: "C1", Name: "Toys"}}, nil
}

func newTestRouter(t *testing.T, runs *stubRunService, cats stubCategoryService, checks ...Check) *gin.Engine {
	t.Helper()
	router, err := buildRouter(nil, Deps{
		RunSvc:      runs,
		ProductSvc:  stubProductService{},
		CategorySvc: cats,
		Checks:      checks,
		FeedDir:     "/srv/feeds",
	})
	if err != nil {
		t.Fatalf("build router: %v", err)
	}
	gin.SetMode(gin.TestMode)
	return router
}

func serve(router *gin.Engine, method, target, body string) *httptest.ResponseRecorder {
	var req *http.Request
	if body != "" {
		req = httptest.NewRequest(method, target, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	} else {
		req = httptest.NewRequest(method, target, nil)
	}
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	return rec
}

func TestReadyz(t *testing.T) {
	ok := Check{Name: "db", Ping: func(context.Context) error { return nil }}
	down := Check{Name: "redis", Ping: func(context.Context) error { return errors.New("refused") }}

	if rec := serve(newTestRouter(t, &stubRunService{}, stubCategoryService{}, ok), http.MethodGet, "/readyz", ""); rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	rec := serve(newTestRouter(t, &stubRunService{}, stubCategoryService{}, ok, down), http.MethodGet, "/readyz", "")
	if rec.Code != http.StatusServiceUnavailable || !strings.Contains(rec.Body.String(), "redis") {
		t.Fatalf("expected 503 naming redis, got %d %s", rec.Code, rec.Body.String())
	}
	if rec := serve(newTestRouter(t, &stubRunService{}, stubCategoryService{}), http.MethodGet, "/readyz", ""); rec.Code != http.StatusServiceUnavailable {
		t.Fatalf("expected 503 without checks, got %d", rec.Code)
	}
}

func TestHealthzAndMetrics(t *testing.T) {
	router := newTestRouter(t, &stubRunService{}, stubCategoryService{})
	if rec := serve(router, http.MethodGet, "/healthz", ""); rec.Code != http.StatusOK {
		t.Fatalf("healthz: %d", rec.Code)
	}
	rec := serve(router, http.MethodGet, "/metrics", "")
	if rec.Code != http.StatusOK || !strings.Contains(rec.Body.String(), "catalog_http_requests_total") {
		t.Fatalf("metrics endpoint missing request counter: %d", rec.Code)
	}
}

func TestStartRun(t *testing.T) {
	runs := &stubRunService{}
	router := newTestRouter(t, runs, stubCategoryService{})

	rec := serve(router, http.MethodPost, "/runs", `{"file":"acme/feed.xml","source":"acme","format":"xml"}`)
	if rec.Code != http.StatusAccepted {
		t.Fatalf("expected 202, got %d %s", rec.Code, rec.Body.String())
	}
	if len(runs.started) != 1 {
		t.Fatalf("expected one started run")
	}
	got := runs.started[0]
	if got.Path != filepath.Join("/srv/feeds", "acme/feed.xml") || got.SourceKey != "acme" || got.Format != "xml" {
		t.Fatalf("unexpected request %+v", got)
	}

	for _, body := range []string{
		`{}`,
		`{"file":"../etc/passwd"}`,
		`{"file":"/etc/passwd"}`,
		`{"file":"feed.json","format":"json"}`,
	} {
		if rec := serve(router, http.MethodPost, "/runs", body); rec.Code != http.StatusBadRequest {
			t.Fatalf("expected 400 for %s, got %d", body, rec.Code)
		}
	}
	if len(runs.started) != 1 {
		t.Fatalf("rejected requests must not start runs")
	}
}

func TestRunLookups(t *testing.T) {
	runs := &stubRunService{run: &domain.ImportRun{ID: "run-1", Status: domain.RunSucceeded}}
	router := newTestRouter(t, runs, stubCategoryService{})

	rec := serve(router, http.MethodGet, "/runs/run-1", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("get run: %d", rec.Code)
	}
	var run domain.ImportRun
	if err := json.Unmarshal(rec.Body.Bytes(), &run); err != nil || run.Status != domain.RunSucceeded {
		t.Fatalf("unexpected body %s", rec.Body.String())
	}

	if rec := serve(router, http.MethodGet, "/runs/nope", ""); rec.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", rec.Code)
	}

	rec = serve(router, http.MethodGet, "/runs/run-1/errors", "")
	var errs runErrorsResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &errs); err != nil || len(errs.Errors) != 1 || errs.Errors[0].Stage != domain.StageSink {
		t.Fatalf("unexpected errors body %s", rec.Body.String())
	}

	if rec := serve(router, http.MethodGet, "/runs?limit=0", ""); rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for bad limit, got %d", rec.Code)
	}
	if rec := serve(router, http.MethodGet, "/runs?limit=5", ""); rec.Code != http.StatusOK {
		t.Fatalf("list runs: %d", rec.Code)
	}
}

func TestCatalogLookups(t *testing.T) {
	router := newTestRouter(t, &stubRunService{}, stubCategoryService{})

	rec := serve(router, http.MethodGet, "/products/0001", "")
	if rec.Code != http.StatusOK || !strings.Contains(rec.Body.String(), `"regularPrice":"8.97"`) {
		t.Fatalf("unexpected product response %d %s", rec.Code, rec.Body.String())
	}
	if rec := serve(router, http.MethodGet, "/products/9999", ""); rec.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", rec.Code)
	}
	if rec := serve(router, http.MethodGet, "/categories", ""); rec.Code != http.StatusOK {
		t.Fatalf("categories: %d", rec.Code)
	}

	broken := newTestRouter(t, &stubRunService{}, stubCategoryService{err: errors.New("boom")})
	if rec := serve(broken, http.MethodGet, "/categories", ""); rec.Code != http.StatusInternalServerError {
		t.Fatalf("expected 500, got %d", rec.Code)
	}
}

func TestResolveFeedPath(t *testing.T) {
	cases := map[string]bool{
		"feed.csv":         true,
		"acme/feed.xml":    true,
		"acme/../feed.xml": true,
		"../feed.xml":      false,
		"acme/../../etc/x": false,
		"/abs/feed.xml":    false,
		"":                 false,
	}
	for name, want := range cases {
		if _, ok := resolveFeedPath("/srv/feeds", name); ok != want {
			t.Fatalf("resolveFeedPath(%q) ok=%v, want %v", name, ok, want)
		}
	}
}
