package api

import (
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/vironax/adinsights/internal/domain"
	"github.com/vironax/adinsights/internal/pkg/httputil"
)

func (s *Server) handleManualList(w http.ResponseWriter, r *http.Request) {
	store := s.storeFromRequest(w, r)
	if store == nil {
		return
	}
	win, ok := s.windowFromRequest(w, r, store)
	if !ok {
		return
	}
	orders, err := s.facts.ManualOrders(r.Context(), store.ID, win)
	if err != nil {
		httputil.Unavailable(w, err)
		return
	}
	httputil.OK(w, map[string]any{
		"window": windowEnvelope(win),
		"orders": orders,
	})
}

func (s *Server) handleManualUpsert(w http.ResponseWriter, r *http.Request) {
	store := s.storeFromRequest(w, r)
	if store == nil {
		return
	}
	var o domain.ManualOrder
	if !httputil.Decode(w, r, &o) {
		return
	}
	if _, err := time.Parse(domain.DateLayout, o.Date); err != nil {
		httputil.BadRequest(w, "date must be YYYY-MM-DD")
		return
	}
	o.Country = strings.ToUpper(strings.TrimSpace(o.Country))
	if o.Country == "" || o.Country == domain.OverrideAllCountries {
		httputil.BadRequest(w, "country must be an ISO country code")
		return
	}
	if o.OrdersCount < 0 || o.Revenue < 0 {
		httputil.BadRequest(w, "orders_count and revenue must not be negative")
		return
	}
	if o.Spend != nil && *o.Spend < 0 {
		httputil.BadRequest(w, "spend must not be negative")
		return
	}
	o.StoreID = store.ID
	if o.ID == "" {
		o.ID = uuid.NewString()
	}
	if o.CreatedAt.IsZero() {
		o.CreatedAt = time.Now().UTC()
	}
	if err := s.facts.UpsertManualOrder(r.Context(), o); err != nil {
		httputil.Unavailable(w, err)
		return
	}
	httputil.OK(w, map[string]any{"order": o})
}

func (s *Server) handleManualDelete(w http.ResponseWriter, r *http.Request) {
	store := s.storeFromRequest(w, r)
	if store == nil {
		return
	}
	id := chi.URLParam(r, "id")
	if err := s.facts.DeleteManualOrder(r.Context(), store.ID, id); err != nil {
		httputil.Unavailable(w, err)
		return
	}
	httputil.OK(w, map[string]any{"deleted": id})
}

func (s *Server) handleOverrideList(w http.ResponseWriter, r *http.Request) {
	store := s.storeFromRequest(w, r)
	if store == nil {
		return
	}
	win, ok := s.windowFromRequest(w, r, store)
	if !ok {
		return
	}
	overrides, err := s.facts.SpendOverrides(r.Context(), store.ID, win)
	if err != nil {
		httputil.Unavailable(w, err)
		return
	}
	httputil.OK(w, map[string]any{
		"window":    windowEnvelope(win),
		"overrides": overrides,
	})
}

func (s *Server) handleOverrideUpsert(w http.ResponseWriter, r *http.Request) {
	store := s.storeFromRequest(w, r)
	if store == nil {
		return
	}
	var o domain.SpendOverride
	if !httputil.Decode(w, r, &o) {
		return
	}
	if _, err := time.Parse(domain.DateLayout, o.Date); err != nil {
		httputil.BadRequest(w, "date must be YYYY-MM-DD")
		return
	}
	o.Country = strings.ToUpper(strings.TrimSpace(o.Country))
	if o.Country == "" {
		httputil.BadRequest(w, "country must be an ISO code or ALL")
		return
	}
	if o.Amount < 0 {
		httputil.BadRequest(w, "amount must not be negative")
		return
	}
	o.StoreID = store.ID
	if o.ID == "" {
		o.ID = uuid.NewString()
	}
	if o.CreatedAt.IsZero() {
		o.CreatedAt = time.Now().UTC()
	}
	// One override per (date, country); posting the same cell replaces it.
	if err := s.facts.ReplaceManualOverride(r.Context(), o); err != nil {
		httputil.Unavailable(w, err)
		return
	}
	httputil.OK(w, map[string]any{"override": o})
}

func (s *Server) handleOverrideDelete(w http.ResponseWriter, r *http.Request) {
	store := s.storeFromRequest(w, r)
	if store == nil {
		return
	}
	id := chi.URLParam(r, "id")
	if err := s.facts.DeleteManualOverride(r.Context(), store.ID, id); err != nil {
		httputil.Unavailable(w, err)
		return
	}
	httputil.OK(w, map[string]any{"deleted": id})
}
