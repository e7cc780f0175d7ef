package api

import (
	"net/http"

	"github.com/vironax/adinsights/internal/pkg/httputil"
)

func (s *Server) handleBudgetIntelligence(w http.ResponseWriter, r *http.Request) {
	store := s.storeFromRequest(w, r)
	if store == nil {
		return
	}
	win, ok := s.windowFromRequest(w, r, store)
	if !ok {
		return
	}
	report, err := s.budget.Report(r.Context(), store.ID, win)
	if err != nil {
		httputil.Unavailable(w, err)
		return
	}
	httputil.OK(w, map[string]any{
		"window": windowEnvelope(win),
		"report": report,
	})
}
