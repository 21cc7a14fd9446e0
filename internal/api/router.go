package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/starford/guidsync/internal/history"
	"github.com/starford/guidsync/internal/syncservice"
)

// NewRouter creates a chi router with all API routes mounted.
// authEnabled controls whether Bearer token auth is enforced.
// sseHandler, if non-nil, is mounted at GET /events inside the auth group.
func NewRouter(svc *syncservice.Service, store history.Store, mainRoot, subRoot string, authEnabled bool, token string, sseHandler http.Handler) chi.Router {
	h := NewHandler(svc, store, mainRoot, subRoot)

	r := chi.NewRouter()
	r.Use(AuthMiddleware(authEnabled, token))

	// Read-only engine projections.
	r.Get("/scan", h.Scan)
	r.Get("/plan", h.Plan)
	r.Get("/history", h.History)

	// SSE endpoint (protected by same auth middleware).
	if sseHandler != nil {
		r.Get("/events", sseHandler.ServeHTTP)
	}

	return r
}
