// Package api is the stateless HTTP layer: it parses windows, fans out to
// the aggregation and budget services, and renders the JSON envelopes the
// dashboard consumes.
package api

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/vironax/adinsights/internal/aggregate"
	"github.com/vironax/adinsights/internal/budget"
	"github.com/vironax/adinsights/internal/config"
	"github.com/vironax/adinsights/internal/domain"
	"github.com/vironax/adinsights/internal/factstore"
	"github.com/vironax/adinsights/internal/pkg/httputil"
	"github.com/vironax/adinsights/internal/syncer"
)

// Pinger reports backend liveness for the health endpoint.
type Pinger interface {
	Ping(ctx context.Context) error
}

// Server carries the handler dependencies and the router.
type Server struct {
	cfg      config.Config
	facts    factstore.Store
	agg      *aggregate.Service
	budget   *budget.Service
	syncer   *syncer.Syncer
	notifier *syncer.Notifier
	pinger   Pinger
	router   *chi.Mux
	server   *http.Server
}

// NewServer wires the HTTP layer. notifier and pinger may be nil in tests.
func NewServer(cfg config.Config, facts factstore.Store, sync *syncer.Syncer, notifier *syncer.Notifier, pinger Pinger) *Server {
	s := &Server{
		cfg:      cfg,
		facts:    facts,
		agg:      aggregate.New(facts),
		budget:   budget.New(facts, cfg.Budget),
		syncer:   sync,
		notifier: notifier,
		pinger:   pinger,
	}
	s.router = s.routes()
	return s
}

// Handler exposes the router, mainly for tests.
func (s *Server) Handler() http.Handler { return s.router }

// ListenAndServe starts the HTTP server on addr.
func (s *Server) ListenAndServe(addr string) error {
	s.server = &http.Server{
		Addr:         addr,
		Handler:      s.router,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 2 * time.Minute,
		IdleTimeout:  2 * time.Minute,
	}
	return s.server.ListenAndServe()
}

// Shutdown drains in-flight requests.
func (s *Server) Shutdown(ctx context.Context) error {
	if s.server == nil {
		return nil
	}
	return s.server.Shutdown(ctx)
}

// storeFromRequest resolves the store query parameter. A nil return means
// the response is already written.
func (s *Server) storeFromRequest(w http.ResponseWriter, r *http.Request) *domain.Store {
	id := r.URL.Query().Get("store")
	if id == "" {
		httputil.BadRequest(w, "missing store parameter")
		return nil
	}
	store, err := s.cfg.StoreByID(id)
	if err != nil {
		httputil.NotFound(w, err.Error())
		return nil
	}
	return &store
}

// storeLocation resolves the store's IANA timezone, falling back to the
// service default and then UTC.
func (s *Server) storeLocation(store *domain.Store) *time.Location {
	for _, name := range []string{store.Timezone, s.cfg.DefaultTimezone} {
		if name == "" {
			continue
		}
		if loc, err := time.LoadLocation(name); err == nil {
			return loc
		}
	}
	return time.UTC
}

// windowFromRequest parses the window grammar against the store's calendar.
// A zero window return with false means the response is already written.
func (s *Server) windowFromRequest(w http.ResponseWriter, r *http.Request, store *domain.Store) (domain.Window, bool) {
	win, err := parseWindow(r, s.storeLocation(store))
	if err != nil {
		httputil.BadRequest(w, err.Error())
		return domain.Window{}, false
	}
	return win, true
}
