// Package httpapi serves pages, blocks, backlinks and record tables as JSON
// over a chi router.
package httpapi

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/skridlevsky/pagetree/backend"
	"github.com/skridlevsky/pagetree/backlink"
	"github.com/skridlevsky/pagetree/session"
	"github.com/skridlevsky/pagetree/tree"
	"github.com/skridlevsky/pagetree/types"
)

// maxBody bounds request bodies; a full page snapshot is the largest.
const maxBody = 8 << 20

// API holds the handlers' dependencies.
type API struct {
	backend   backend.Backend
	sessions  *session.Manager
	backlinks *backlink.Extractor
	logger    *slog.Logger
	version   string
}

// Option configures an API.
type Option func(*API)

// WithLogger sets the request and error logger (default slog.Default()).
func WithLogger(l *slog.Logger) Option {
	return func(a *API) { a.logger = l }
}

// WithVersion sets the version reported by /api/health.
func WithVersion(v string) Option {
	return func(a *API) { a.version = v }
}

// New creates an API over b. Block reads and page edits go through sessions
// so HTTP clients see the same working set as other callers.
func New(b backend.Backend, sessions *session.Manager, opts ...Option) *API {
	a := &API{
		backend:   b,
		sessions:  sessions,
		backlinks: backlink.New(b),
		version:   "dev",
	}
	for _, opt := range opts {
		opt(a)
	}
	if a.logger == nil {
		a.logger = slog.Default()
	}
	return a
}

// Router returns the HTTP handler with every route mounted.
func (a *API) Router() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(a.logRequests)
	r.Use(middleware.Recoverer)

	r.Get("/api/health", a.health)

	r.Route("/api/pages", func(r chi.Router) {
		r.Get("/", a.listPages)
		r.Post("/", a.createPage)
		r.Get("/{id}", a.getPage)
		r.Patch("/{id}", a.updatePage)
		r.Get("/{id}/backlinks", a.getBacklinks)
		r.Put("/{id}/blocks", a.replaceBlocks)
	})

	r.Route("/api/databases", func(r chi.Router) {
		r.Post("/", a.createDatabase)
		r.Get("/{id}", a.getDatabase)
	})
	return r
}

// logRequests writes one slog line per request.
func (a *API) logRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		start := time.Now()
		next.ServeHTTP(ww, r)
		a.logger.Info("http request",
			"method", r.Method,
			"path", r.URL.Path,
			"status", ww.Status(),
			"bytes", ww.BytesWritten(),
			"duration", time.Since(start),
			"request_id", middleware.GetReqID(r.Context()),
		)
	})
}

func (a *API) health(w http.ResponseWriter, r *http.Request) {
	if err := a.backend.Ping(r.Context()); err != nil {
		writeJSON(w, http.StatusServiceUnavailable, map[string]string{"status": "error", "error": err.Error()})
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok", "version": a.version})
}

func (a *API) listPages(w http.ResponseWriter, r *http.Request) {
	pages, err := a.backend.ListPages(r.Context())
	if err != nil {
		a.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, pages)
}

type createPageRequest struct {
	Title    string         `json:"title"`
	Type     types.PageType `json:"type"`
	Icon     string         `json:"icon"`
	ParentID string         `json:"parentId"`
}

func (a *API) createPage(w http.ResponseWriter, r *http.Request) {
	var req createPageRequest
	if !decode(w, r, &req) {
		return
	}
	s, err := a.sessions.CreatePage(r.Context(), types.Page{
		Title:    req.Title,
		Type:     req.Type,
		Icon:     req.Icon,
		ParentID: req.ParentID,
	})
	if err != nil {
		a.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, s.Page())
}

type pageResponse struct {
	Page   types.Page    `json:"page"`
	Blocks []types.Block `json:"blocks"`
	Tree   []*tree.Node  `json:"tree"`
}

func (a *API) getPage(w http.ResponseWriter, r *http.Request) {
	s, err := a.sessions.Open(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		a.fail(w, r, err)
		return
	}
	blocks := s.Blocks()
	writeJSON(w, http.StatusOK, pageResponse{Page: s.Page(), Blocks: blocks, Tree: tree.Build(blocks)})
}

func (a *API) updatePage(w http.ResponseWriter, r *http.Request) {
	var u types.PageUpdate
	if !decode(w, r, &u) {
		return
	}
	if _, err := a.sessions.UpdatePage(r.Context(), chi.URLParam(r, "id"), u); err != nil {
		a.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]bool{"success": true})
}

func (a *API) getBacklinks(w http.ResponseWriter, r *http.Request) {
	links, err := a.backlinks.Find(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		a.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string][]types.Backlink{"backlinks": links})
}

// replaceBlocks stores a full snapshot sent by the client. The server-side
// session is dropped first, so none of its pending saves lands on top.
func (a *API) replaceBlocks(w http.ResponseWriter, r *http.Request) {
	pageID := chi.URLParam(r, "id")
	var blocks []types.Block
	if !decode(w, r, &blocks) {
		return
	}
	a.sessions.Drop(pageID)
	if err := a.backend.ReplaceBlocks(r.Context(), pageID, blocks); err != nil {
		a.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]bool{"success": true})
}

type createDatabaseRequest struct {
	PageID string `json:"pageId"`
	Title  string `json:"title"`
}

func (a *API) createDatabase(w http.ResponseWriter, r *http.Request) {
	var req createDatabaseRequest
	if !decode(w, r, &req) {
		return
	}
	if req.PageID == "" {
		writeError(w, http.StatusBadRequest, errors.New("pageId is required"))
		return
	}
	table, err := a.backend.CreateRecordTable(r.Context(), req.PageID, req.Title)
	if err != nil {
		a.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, table)
}

func (a *API) getDatabase(w http.ResponseWriter, r *http.Request) {
	details, err := a.backend.GetRecordTable(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		a.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, details)
}

// fail maps backend errors to status codes and logs the unexpected ones.
func (a *API) fail(w http.ResponseWriter, r *http.Request, err error) {
	code := statusOf(err)
	if code == http.StatusInternalServerError {
		a.logger.Error("request failed",
			"method", r.Method,
			"path", r.URL.Path,
			"request_id", middleware.GetReqID(r.Context()),
			"error", err,
		)
	}
	writeError(w, code, err)
}

func statusOf(err error) int {
	switch {
	case errors.Is(err, backend.ErrPageNotFound), errors.Is(err, backend.ErrTableNotFound):
		return http.StatusNotFound
	case errors.Is(err, backend.ErrReadOnly):
		return http.StatusForbidden
	case errors.Is(err, backend.ErrForeignBlock):
		return http.StatusBadRequest
	}
	return http.StatusInternalServerError
}

// decode reads a JSON body into v, answering 400 itself on failure.
func decode(w http.ResponseWriter, r *http.Request, v any) bool {
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBody)).Decode(v); err != nil {
		writeError(w, http.StatusBadRequest, fmt.Errorf("invalid JSON body: %w", err))
		return false
	}
	return true
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, code int, err error) {
	writeJSON(w, code, map[string]string{"error": err.Error()})
}
