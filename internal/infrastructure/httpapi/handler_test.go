package httpapi

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"

	"NewsFetcher/internal/domain"
	"NewsFetcher/internal/usecase"
)

type stubRunner struct {
	triggers []string
	err      error
}

func (s *stubRunner) Run(_ context.Context, trigger string) (usecase.RunReport, error) {
	s.triggers = append(s.triggers, trigger)
	return usecase.RunReport{RunID: "run-1", Trigger: trigger, Persist: usecase.PersistReport{Saved: 2}}, s.err
}

type stubRecoverer struct{}

func (stubRecoverer) Sweep(context.Context) (usecase.SweepReport, error) {
	return usecase.SweepReport{Disabled: 3, Probed: 1, Reenabled: []int64{7}}, nil
}

type stubHealth struct{}

func (stubHealth) Report(context.Context) (domain.HealthReport, error) {
	rows := []domain.SourceHealth{{SourceID: 1, Name: "Wire", Enabled: true, Status: domain.HealthHealthy, SuccessRate: 100}}
	return domain.HealthReport{Summary: domain.Summarize(rows), Sources: rows}, nil
}

type stubDiagnostics struct{}

func (stubDiagnostics) TestSourceByID(_ context.Context, id int64) (domain.SourceTest, error) {
	if id != 1 {
		return domain.SourceTest{}, domain.ErrNotFound
	}
	return domain.SourceTest{SourceID: 1, EntryCount: 4, RelevantCount: 2, Samples: []domain.SampleEntry{}}, nil
}

func (stubDiagnostics) TestEnabled(context.Context) (domain.TestSummary, error) {
	return domain.TestSummary{Total: 2, Working: 1}, nil
}

func (stubDiagnostics) ValidateFeedURL(_ context.Context, rawURL string) domain.FeedValidation {
	if rawURL == "https://feeds.example/rss" {
		return domain.FeedValidation{URL: rawURL, IsValid: true, Issues: []string{}}
	}
	return domain.FeedValidation{URL: rawURL, Issues: []string{"Feed contains no entries"}}
}

func setupTestRouter(t *testing.T, runner *stubRunner) *gin.Engine {
	t.Helper()

	gin.SetMode(gin.TestMode)
	return NewRouter(NewHandler(HandlerDeps{
		Runner:      runner,
		Recoverer:   stubRecoverer{},
		Health:      stubHealth{},
		Diagnostics: stubDiagnostics{},
		Version:     "test",
	}), nil)
}

func serve(t *testing.T, router *gin.Engine, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()

	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			t.Fatalf("encode body: %v", err)
		}
	}
	req, err := http.NewRequestWithContext(t.Context(), method, path, &buf)
	if err != nil {
		t.Fatalf("new request: %v", err)
	}
	req.Header.Set("Content-Type", "application/json")

	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func decode[T any](t *testing.T, w *httptest.ResponseRecorder) T {
	t.Helper()
	var out T
	if err := json.Unmarshal(w.Body.Bytes(), &out); err != nil {
		t.Fatalf("decode %q: %v", w.Body.String(), err)
	}
	return out
}

func TestLivenessAndRequestID(t *testing.T) {
	router := setupTestRouter(t, &stubRunner{})

	w := serve(t, router, http.MethodGet, "/healthz", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("status %d", w.Code)
	}
	if w.Header().Get(requestIDHeader) == "" {
		t.Fatal("expected a generated request id")
	}
}

func TestHealthReportRoute(t *testing.T) {
	router := setupTestRouter(t, &stubRunner{})

	w := serve(t, router, http.MethodGet, "/api/health", nil)
	report := decode[domain.HealthReport](t, w)
	if w.Code != http.StatusOK || report.Summary.Overall != domain.HealthHealthy || len(report.Sources) != 1 {
		t.Fatalf("unexpected health response %d %s", w.Code, w.Body.String())
	}
}

func TestFetchRoute(t *testing.T) {
	runner := &stubRunner{}
	router := setupTestRouter(t, runner)

	w := serve(t, router, http.MethodPost, "/api/fetch", nil)
	report := decode[usecase.RunReport](t, w)
	if w.Code != http.StatusOK || report.Persist.Saved != 2 {
		t.Fatalf("unexpected fetch response %d %s", w.Code, w.Body.String())
	}
	if len(runner.triggers) != 1 || runner.triggers[0] != "api" {
		t.Fatalf("unexpected triggers %v", runner.triggers)
	}

	failing := setupTestRouter(t, &stubRunner{err: errors.New("registry unavailable")})
	if w := serve(t, failing, http.MethodPost, "/api/fetch", nil); w.Code != http.StatusInternalServerError {
		t.Fatalf("expected 500, got %d", w.Code)
	}
}

func TestRecoverRoute(t *testing.T) {
	router := setupTestRouter(t, &stubRunner{})

	w := serve(t, router, http.MethodPost, "/api/recover", nil)
	report := decode[usecase.SweepReport](t, w)
	if w.Code != http.StatusOK || len(report.Reenabled) != 1 || report.Reenabled[0] != 7 {
		t.Fatalf("unexpected recover response %d %s", w.Code, w.Body.String())
	}
}

func TestSourceTestRoutes(t *testing.T) {
	router := setupTestRouter(t, &stubRunner{})

	cases := []struct {
		path string
		want int
	}{
		{"/api/sources/1/test", http.StatusOK},
		{"/api/sources/99/test", http.StatusNotFound},
		{"/api/sources/abc/test", http.StatusBadRequest},
		{"/api/sources/test", http.StatusOK},
	}
	for _, tc := range cases {
		if w := serve(t, router, http.MethodPost, tc.path, nil); w.Code != tc.want {
			t.Fatalf("%s: expected %d, got %d (%s)", tc.path, tc.want, w.Code, w.Body.String())
		}
	}

	summary := decode[domain.TestSummary](t, serve(t, router, http.MethodPost, "/api/sources/test", nil))
	if summary.Total != 2 || summary.Working != 1 {
		t.Fatalf("unexpected summary %+v", summary)
	}
}

func TestValidateRoute(t *testing.T) {
	router := setupTestRouter(t, &stubRunner{})

	ok := serve(t, router, http.MethodPost, "/api/validate", map[string]string{"url": "https://feeds.example/rss"})
	if ok.Code != http.StatusOK || !decode[domain.FeedValidation](t, ok).IsValid {
		t.Fatalf("unexpected validate response %d %s", ok.Code, ok.Body.String())
	}

	bad := serve(t, router, http.MethodPost, "/api/validate", map[string]string{"url": "https://empty.example/rss"})
	if bad.Code != http.StatusBadRequest || len(decode[domain.FeedValidation](t, bad).Issues) != 1 {
		t.Fatalf("invalid feed should answer 400 with issues, got %d %s", bad.Code, bad.Body.String())
	}

	if w := serve(t, router, http.MethodPost, "/api/validate", map[string]string{}); w.Code != http.StatusBadRequest {
		t.Fatalf("missing url should answer 400, got %d", w.Code)
	}
}
