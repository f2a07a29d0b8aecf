package server

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"github.com/John-Robertt/pipoca/internal/catalog"
	"github.com/John-Robertt/pipoca/internal/config"
	"github.com/John-Robertt/pipoca/internal/domain"
	"github.com/John-Robertt/pipoca/internal/infra/cache"
)

var testSource = config.Source{
	RelayURL:  "https://relay.test/",
	SheetsURL: "https://sheets.test/pub?output=csv",
	GIDs: map[domain.SheetID]int{
		domain.SheetMovies:   1,
		domain.SheetSeries:   2,
		domain.SheetEpisodes: 3,
	},
}

type fakeFetcher struct {
	mu     sync.Mutex
	calls  int
	bodies map[string]string
	errs   map[string]error
}

func (f *fakeFetcher) Fetch(_ context.Context, target string) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	if err := f.errs[target]; err != nil {
		return "", err
	}
	return f.bodies[target], nil
}

func targetOf(id domain.SheetID) string {
	u, _ := testSource.SheetURL(id)
	return u
}

func newTestRouter(t *testing.T) (http.Handler, *fakeFetcher) {
	t.Helper()
	f := &fakeFetcher{
		bodies: map[string]string{
			targetOf(domain.SheetMovies):   "h\nCoração Valente,https://v/1\nO Poderoso Chefão,https://v/2\n",
			targetOf(domain.SheetSeries):   "h\nDark,https://v/d,,,,,,,,,,,,3\n",
			targetOf(domain.SheetEpisodes): "h\nDark,https://v/d2,1,2\nDark,https://v/d1,1,1\nLost,https://v/l1,1,1\n",
		},
		errs: map[string]error{},
	}
	log := slog.New(slog.NewTextHandler(io.Discard, nil))
	svc := catalog.New(f, cache.New(), testSource, log)
	return NewRouter(New(svc, log)), f
}

func get(t *testing.T, h http.Handler, method, target string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, target, nil)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func TestHealth(t *testing.T) {
	h, _ := newTestRouter(t)
	rec := get(t, h, http.MethodGet, "/health")
	if rec.Code != http.StatusOK {
		t.Fatalf("status=%d", rec.Code)
	}
	if rec.Header().Get(headerRequestID) == "" {
		t.Fatalf("missing request id header")
	}
}

func TestRequestIDIsEchoed(t *testing.T) {
	h, _ := newTestRouter(t)
	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	req.Header.Set(headerRequestID, "abc-123")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	if got := rec.Header().Get(headerRequestID); got != "abc-123" {
		t.Fatalf("request id=%q", got)
	}
}

func TestMoviesFilteredByQuery(t *testing.T) {
	h, _ := newTestRouter(t)
	rec := get(t, h, http.MethodGet, "/api/movies?q=coracao")
	if rec.Code != http.StatusOK {
		t.Fatalf("status=%d", rec.Code)
	}
	var got []domain.Movie
	if err := json.Unmarshal(rec.Body.Bytes(), &got); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(got) != 1 || got[0].Title.Title != "Coração Valente" {
		t.Fatalf("movies=%+v", got)
	}
	if got[0].Kind != domain.KindMovie {
		t.Fatalf("kind=%q", got[0].Kind)
	}
}

func TestEpisodesOfSeriesOrdered(t *testing.T) {
	h, _ := newTestRouter(t)
	rec := get(t, h, http.MethodGet, "/api/episodes?series=dark")
	var got []domain.Episode
	if err := json.Unmarshal(rec.Body.Bytes(), &got); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(got) != 2 || got[0].Episode != 1 || got[1].Episode != 2 {
		t.Fatalf("episodes=%+v", got)
	}
}

func TestCatalogIsolatesFailedSheet(t *testing.T) {
	h, f := newTestRouter(t)
	f.errs[targetOf(domain.SheetMovies)] = errors.New("relay down")

	rec := get(t, h, http.MethodGet, "/api/catalog")
	if rec.Code != http.StatusOK {
		t.Fatalf("status=%d", rec.Code)
	}
	body := rec.Body.String()
	if !strings.Contains(body, `"movies":[]`) {
		t.Fatalf("movies should be empty array, body=%s", body)
	}
	var got domain.Catalog
	if err := json.Unmarshal(rec.Body.Bytes(), &got); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(got.Series) != 1 || got.Series[0].Seasons != 3 {
		t.Fatalf("series=%+v", got.Series)
	}
}

func TestSnapshotReportsErrors(t *testing.T) {
	h, f := newTestRouter(t)
	f.errs[targetOf(domain.SheetEpisodes)] = errors.New("boom")

	rec := get(t, h, http.MethodGet, "/api/snapshot")
	var got struct {
		ID     string `json:"id"`
		Errors []struct {
			Sheet string `json:"sheet"`
		} `json:"errors"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &got); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if got.ID == "" {
		t.Fatalf("snapshot id empty")
	}
	if len(got.Errors) != 1 || got.Errors[0].Sheet != string(domain.SheetEpisodes) {
		t.Fatalf("errors=%+v", got.Errors)
	}
}

func TestClearCacheForcesRefetch(t *testing.T) {
	h, f := newTestRouter(t)
	get(t, h, http.MethodGet, "/api/series")
	get(t, h, http.MethodGet, "/api/series")
	if f.calls != 1 {
		t.Fatalf("calls=%d, want 1 (cached)", f.calls)
	}

	rec := get(t, h, http.MethodPost, "/api/cache/clear")
	if rec.Code != http.StatusNoContent {
		t.Fatalf("clear status=%d", rec.Code)
	}
	get(t, h, http.MethodGet, "/api/series")
	if f.calls != 2 {
		t.Fatalf("calls=%d, want 2 after clear", f.calls)
	}
}

func TestMethodNotAllowed(t *testing.T) {
	h, _ := newTestRouter(t)
	rec := get(t, h, http.MethodGet, "/api/cache/clear")
	if rec.Code != http.StatusMethodNotAllowed {
		t.Fatalf("status=%d", rec.Code)
	}
}
