package api

import (
	"errors"
	"net/http"
	"time"

	"github.com/vironax/adinsights/internal/meta"
	"github.com/vironax/adinsights/internal/pkg/httputil"
	"github.com/vironax/adinsights/internal/syncer"
)

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	status := map[string]any{
		"status": "ok",
		"time":   time.Now().UTC().Format(time.RFC3339),
	}
	if s.pinger != nil {
		if err := s.pinger.Ping(r.Context()); err != nil {
			status["status"] = "degraded"
			status["database"] = err.Error()
			httputil.JSON(w, http.StatusServiceUnavailable, status)
			return
		}
		status["database"] = "ok"
	}
	httputil.JSON(w, http.StatusOK, status)
}

// handleSync runs a synchronous sync for one store and returns the summary.
// Adapter failures are reported inside the summary, not as an HTTP error;
// only a total failure (nothing ran) maps to 503.
func (s *Server) handleSync(w http.ResponseWriter, r *http.Request) {
	if s.syncer == nil {
		httputil.Error(w, http.StatusNotImplemented, "sync is not configured")
		return
	}
	store := s.storeFromRequest(w, r)
	if store == nil {
		return
	}

	win := s.syncer.DefaultWindow(time.Now().In(s.storeLocation(store)))
	q := r.URL.Query()
	if q.Get("days") != "" || q.Get("weeks") != "" || q.Get("months") != "" ||
		q.Get("yesterday") != "" || q.Get("startDate") != "" || q.Get("endDate") != "" {
		parsed, ok := s.windowFromRequest(w, r, store)
		if !ok {
			return
		}
		win = parsed
	}

	summary, err := s.syncer.SyncStore(r.Context(), *store, win)
	if errors.Is(err, syncer.ErrLocked) {
		httputil.Error(w, http.StatusConflict, "a sync for this store is already running")
		return
	}
	if err != nil {
		httputil.Unavailable(w, err)
		return
	}
	httputil.OK(w, map[string]any{"summary": summary})
}

// handleMetaImport ingests a client-parsed CSV export as meta_csv spend facts.
func (s *Server) handleMetaImport(w http.ResponseWriter, r *http.Request) {
	store := s.storeFromRequest(w, r)
	if store == nil {
		return
	}
	var body struct {
		Rows []meta.ImportRow `json:"rows"`
	}
	if !httputil.Decode(w, r, &body) {
		return
	}
	if len(body.Rows) == 0 {
		httputil.BadRequest(w, "rows must not be empty")
		return
	}

	spendRows, dims, err := meta.NormalizeImport(store.ID, body.Rows)
	if err != nil {
		httputil.BadRequest(w, err.Error())
		return
	}

	if len(dims) > 0 {
		if _, err := s.facts.UpsertCampaignBatch(r.Context(), dims); err != nil {
			httputil.Unavailable(w, err)
			return
		}
	}
	res, err := s.facts.UpsertSpendBatch(r.Context(), spendRows)
	if err != nil {
		httputil.Unavailable(w, err)
		return
	}
	httputil.OK(w, map[string]any{
		"inserted": res.Inserted,
		"updated":  res.Updated,
		"skipped":  res.Skipped,
	})
}

// handleMetaClear removes every meta-sourced fact for the store. Manual
// entries and storefront orders are untouched.
func (s *Server) handleMetaClear(w http.ResponseWriter, r *http.Request) {
	store := s.storeFromRequest(w, r)
	if store == nil {
		return
	}
	removed, err := s.facts.ClearStoreMetaData(r.Context(), store.ID)
	if err != nil {
		httputil.Unavailable(w, err)
		return
	}
	httputil.OK(w, map[string]any{"removed": removed})
}
