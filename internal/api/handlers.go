package api

import (
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/starford/guidsync/internal/apperr"
	"github.com/starford/guidsync/internal/history"
	"github.com/starford/guidsync/internal/mapping"
	"github.com/starford/guidsync/internal/models"
	"github.com/starford/guidsync/internal/report"
	"github.com/starford/guidsync/internal/syncservice"
)

// Handler holds API route handlers.
type Handler struct {
	svc      *syncservice.Service
	store    history.Store
	mainRoot string
	subRoot  string
}

// NewHandler creates a new Handler. store may be nil when history is not
// configured; the /history endpoint then reports an empty list.
func NewHandler(svc *syncservice.Service, store history.Store, mainRoot, subRoot string) *Handler {
	return &Handler{svc: svc, store: store, mainRoot: mainRoot, subRoot: subRoot}
}

// Scan handles GET /scan: runs a fresh scan of both trees and returns the
// GUID differences.
func (h *Handler) Scan(w http.ResponseWriter, r *http.Request) {
	res, err := h.svc.Scan(r.Context(), h.mainRoot, h.subRoot)
	if err != nil {
		h.writeEngineError(w, err)
		return
	}

	resp := ScanResponse{
		MainRoot:      res.MainRoot,
		SubRoot:       res.SubRoot,
		Differences:   []DiffItem{},
		AlreadySynced: len(res.Corr.Entries) - res.Corr.Differences(),
		Skipped:       res.Corr.Skipped,
		MainStats:     res.Main.Stats(),
		SubStats:      res.Sub.Stats(),
		DurationMS:    res.Duration.Milliseconds(),
	}
	if resp.Skipped == nil {
		resp.Skipped = []models.SkippedAsset{}
	}
	for _, e := range res.Corr.Entries {
		if e.Reason != mapping.MatchedByPath {
			continue
		}
		resp.Differences = append(resp.Differences, DiffItem{Path: e.Path, SubGuid: e.SubGuid, MainGuid: e.MainGuid})
	}
	writeJSON(w, http.StatusOK, resp)
}

// Plan handles GET /plan: computes the sync plan and returns the full
// operations report without executing anything.
func (h *Handler) Plan(w http.ResponseWriter, r *http.Request) {
	res, p, err := h.svc.PlanSync(r.Context(), h.mainRoot, h.subRoot)
	if err != nil {
		h.writeEngineError(w, err)
		return
	}
	rep := report.Build(res.MainRoot, res.SubRoot, res.Corr, res.Sub, p)
	writeJSON(w, http.StatusOK, rep)
}

// History handles GET /history?limit=N.
func (h *Handler) History(w http.ResponseWriter, r *http.Request) {
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
	scans := []history.Scan{}
	if h.store != nil {
		rows, err := h.store.RecentScans(limit)
		if err != nil {
			slog.Error("history query failed", slog.String("error", err.Error()))
			writeJSON(w, http.StatusInternalServerError, errorBody("internal error"))
			return
		}
		if rows != nil {
			scans = rows
		}
	}
	writeJSON(w, http.StatusOK, HistoryResponse{Scans: scans})
}

// writeEngineError maps engine failures to HTTP statuses: unsound tree
// state (duplicates, collisions) is a conflict, everything else internal.
func (h *Handler) writeEngineError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, apperr.ErrDuplicateGuid), errors.Is(err, apperr.ErrCollision):
		writeJSON(w, http.StatusConflict, errorBody(err.Error()))
	default:
		slog.Error("scan failed", slog.String("error", err.Error()))
		writeJSON(w, http.StatusInternalServerError, errorBody("internal error"))
	}
}
