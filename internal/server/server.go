// Package server 以只读 JSON API 暴露目录门面（供外部 UI 调用）。
package server

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/mux"

	"github.com/John-Robertt/pipoca/internal/catalog"
	"github.com/John-Robertt/pipoca/internal/logging"
)

const headerRequestID = "X-Request-ID"

// Handler 持有门面实例；路由由 NewRouter 注册。
type Handler struct {
	svc *catalog.Service
	log *slog.Logger
}

func New(svc *catalog.Service, log *slog.Logger) *Handler {
	if log == nil {
		log = slog.Default()
	}
	return &Handler{svc: svc, log: log.With("component", "server")}
}

// NewRouter 注册全部路由：
//
//	GET  /health
//	GET  /api/movies?q=
//	GET  /api/series?q=
//	GET  /api/episodes?series=
//	GET  /api/catalog
//	GET  /api/snapshot
//	POST /api/cache/clear
func NewRouter(h *Handler) *mux.Router {
	r := mux.NewRouter()
	r.Use(h.requestID, h.accessLog)

	r.HandleFunc("/health", func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	}).Methods(http.MethodGet)

	api := r.PathPrefix("/api").Subrouter()
	api.HandleFunc("/movies", h.movies).Methods(http.MethodGet)
	api.HandleFunc("/series", h.series).Methods(http.MethodGet)
	api.HandleFunc("/episodes", h.episodes).Methods(http.MethodGet)
	api.HandleFunc("/catalog", h.catalog).Methods(http.MethodGet)
	api.HandleFunc("/snapshot", h.snapshot).Methods(http.MethodGet)
	api.HandleFunc("/cache/clear", h.clearCache).Methods(http.MethodPost)
	return r
}

func (h *Handler) movies(w http.ResponseWriter, r *http.Request) {
	items := h.svc.ListMovies(r.Context())
	writeJSON(w, http.StatusOK, catalog.Filter(items, r.URL.Query().Get("q"), catalog.MovieTitle))
}

func (h *Handler) series(w http.ResponseWriter, r *http.Request) {
	items := h.svc.ListSeries(r.Context())
	writeJSON(w, http.StatusOK, catalog.Filter(items, r.URL.Query().Get("q"), catalog.SeriesTitle))
}

func (h *Handler) episodes(w http.ResponseWriter, r *http.Request) {
	items := h.svc.ListEpisodes(r.Context())
	if name := strings.TrimSpace(r.URL.Query().Get("series")); name != "" {
		items = catalog.EpisodesOf(items, name)
	}
	writeJSON(w, http.StatusOK, items)
}

func (h *Handler) catalog(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.svc.ListAll(r.Context()))
}

func (h *Handler) snapshot(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.svc.Snapshot(r.Context()))
}

func (h *Handler) clearCache(w http.ResponseWriter, r *http.Request) {
	h.svc.ClearCache()
	logging.FromContext(r.Context(), h.log).Info("通过 API 清空缓存")
	w.WriteHeader(http.StatusNoContent)
}

// requestID 为每个请求分配（或沿用调用方提供的）X-Request-ID，并写入 ctx。
func (h *Handler) requestID(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := strings.TrimSpace(r.Header.Get(headerRequestID))
		if id == "" || len(id) > 128 {
			id = uuid.NewString()
		}
		w.Header().Set(headerRequestID, id)
		next.ServeHTTP(w, r.WithContext(logging.WithRequestID(r.Context(), id)))
	})
}

func (h *Handler) accessLog(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		started := time.Now()
		sw := &statusWriter{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(sw, r)
		logging.FromContext(r.Context(), h.log).Debug("request",
			"method", r.Method, "path", r.URL.Path, "status", sw.status, "dur", time.Since(started))
	})
}

type statusWriter struct {
	http.ResponseWriter
	status int
}

func (w *statusWriter) WriteHeader(code int) {
	w.status = code
	w.ResponseWriter.WriteHeader(code)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
