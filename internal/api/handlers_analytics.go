package api

import (
	"net/http"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/vironax/adinsights/internal/aggregate"
	"github.com/vironax/adinsights/internal/domain"
	"github.com/vironax/adinsights/internal/pkg/httputil"
	"github.com/vironax/adinsights/internal/syncer"
)

// windowEnvelope is the window block echoed on every analytics payload.
func windowEnvelope(w domain.Window) map[string]any {
	return map[string]any{
		"start_date": w.StartDate(),
		"end_date":   w.EndDate(),
		"days":       w.Days(),
	}
}

// diagnostics is the freshness and sync-health block of the dashboard.
type diagnostics struct {
	SourceFreshness map[string]time.Time  `json:"source_freshness"`
	LastSync        *syncer.Summary       `json:"last_sync,omitempty"`
	Notifications   []domain.Notification `json:"notifications,omitempty"`
}

func (s *Server) handleDashboard(w http.ResponseWriter, r *http.Request) {
	store := s.storeFromRequest(w, r)
	if store == nil {
		return
	}
	win, ok := s.windowFromRequest(w, r, store)
	if !ok {
		return
	}

	var (
		overview  *aggregate.Overview
		trends    []aggregate.DayPoint
		campaigns []*aggregate.Node
		countries []aggregate.CountryRow
		diag      diagnostics
	)

	g, ctx := errgroup.WithContext(r.Context())
	g.Go(func() error {
		v, err := s.agg.Overview(ctx, store.ID, win)
		overview = v
		return err
	})
	g.Go(func() error {
		v, err := s.agg.Trends(ctx, store.ID, win)
		trends = v
		return err
	})
	g.Go(func() error {
		v, err := s.agg.Hierarchy(ctx, store.ID, win)
		campaigns = v
		return err
	})
	g.Go(func() error {
		v, err := s.agg.Countries(ctx, store.ID, win)
		countries = v
		return err
	})
	g.Go(func() error {
		fresh, err := s.facts.SourceFreshness(ctx, store.ID)
		if err != nil {
			return err
		}
		diag.SourceFreshness = fresh
		if s.notifier != nil {
			// Sync diagnostics are best-effort; a cold cache is not an error.
			if sum, err := s.notifier.LastSummary(ctx, store.ID); err == nil {
				diag.LastSync = sum
			}
			if notes, err := s.notifier.Recent(ctx, store.ID, 20); err == nil {
				diag.Notifications = notes
			}
		}
		return nil
	})
	if err := g.Wait(); err != nil {
		httputil.Unavailable(w, err)
		return
	}

	httputil.OK(w, map[string]any{
		"window":      windowEnvelope(win),
		"overview":    overview,
		"trends":      trends,
		"campaigns":   campaigns,
		"countries":   countries,
		"diagnostics": diag,
	})
}

func (s *Server) handleEfficiency(w http.ResponseWriter, r *http.Request) {
	store := s.storeFromRequest(w, r)
	if store == nil {
		return
	}
	win, ok := s.windowFromRequest(w, r, store)
	if !ok {
		return
	}
	eff, err := s.agg.Efficiency(r.Context(), store.ID, win)
	if err != nil {
		httputil.Unavailable(w, err)
		return
	}
	httputil.OK(w, map[string]any{
		"window":     windowEnvelope(win),
		"efficiency": eff,
	})
}

func (s *Server) handleEfficiencyTrends(w http.ResponseWriter, r *http.Request) {
	store := s.storeFromRequest(w, r)
	if store == nil {
		return
	}
	win, ok := s.windowFromRequest(w, r, store)
	if !ok {
		return
	}
	points, err := s.agg.EfficiencyTrends(r.Context(), store.ID, win)
	if err != nil {
		httputil.Unavailable(w, err)
		return
	}
	httputil.OK(w, map[string]any{
		"window": windowEnvelope(win),
		"trends": points,
	})
}

func (s *Server) handleRecommendations(w http.ResponseWriter, r *http.Request) {
	store := s.storeFromRequest(w, r)
	if store == nil {
		return
	}
	win, ok := s.windowFromRequest(w, r, store)
	if !ok {
		return
	}
	target := s.cfg.Budget.TargetROAS
	recs, err := s.agg.Recommendations(r.Context(), store.ID, win, target)
	if err != nil {
		httputil.Unavailable(w, err)
		return
	}
	httputil.OK(w, map[string]any{
		"window":          windowEnvelope(win),
		"target_roas":     target,
		"recommendations": recs,
	})
}

func (s *Server) handleCountries(w http.ResponseWriter, r *http.Request) {
	store := s.storeFromRequest(w, r)
	if store == nil {
		return
	}
	win, ok := s.windowFromRequest(w, r, store)
	if !ok {
		return
	}
	rows, err := s.agg.Countries(r.Context(), store.ID, win)
	if err != nil {
		httputil.Unavailable(w, err)
		return
	}
	httputil.OK(w, map[string]any{
		"window":    windowEnvelope(win),
		"countries": rows,
	})
}

func (s *Server) handleCountryTrends(w http.ResponseWriter, r *http.Request) {
	store := s.storeFromRequest(w, r)
	if store == nil {
		return
	}
	win, ok := s.windowFromRequest(w, r, store)
	if !ok {
		return
	}
	rows, err := s.agg.CountryTrends(r.Context(), store.ID, win)
	if err != nil {
		httputil.Unavailable(w, err)
		return
	}
	httputil.OK(w, map[string]any{
		"window":    windowEnvelope(win),
		"countries": rows,
	})
}

// breakdownHandler renders one audience/placement breakdown dimension.
// The sort query parameter picks the ranking column.
func (s *Server) breakdownHandler(dimension string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		store := s.storeFromRequest(w, r)
		if store == nil {
			return
		}
		win, ok := s.windowFromRequest(w, r, store)
		if !ok {
			return
		}
		rows, err := s.agg.Breakdown(r.Context(), store.ID, win, dimension, r.URL.Query().Get("sort"))
		if err != nil {
			httputil.Unavailable(w, err)
			return
		}
		httputil.OK(w, map[string]any{
			"window":    windowEnvelope(win),
			"dimension": dimension,
			"rows":      rows,
		})
	}
}

func (s *Server) handleAdManager(w http.ResponseWriter, r *http.Request) {
	store := s.storeFromRequest(w, r)
	if store == nil {
		return
	}
	win, ok := s.windowFromRequest(w, r, store)
	if !ok {
		return
	}
	nodes, err := s.agg.Hierarchy(r.Context(), store.ID, win)
	if err != nil {
		httputil.Unavailable(w, err)
		return
	}
	httputil.OK(w, map[string]any{
		"window":    windowEnvelope(win),
		"campaigns": nodes,
	})
}

func (s *Server) handleTimeOfDay(w http.ResponseWriter, r *http.Request) {
	store := s.storeFromRequest(w, r)
	if store == nil {
		return
	}
	win, ok := s.windowFromRequest(w, r, store)
	if !ok {
		return
	}
	storeTZ := s.storeLocation(store).String()
	tz := r.URL.Query().Get("tz")
	if tz == "" {
		tz = storeTZ
	} else if _, err := time.LoadLocation(tz); err != nil {
		httputil.BadRequest(w, "unknown timezone: "+tz)
		return
	}
	buckets, err := s.agg.TimeOfDay(r.Context(), store.ID, win, storeTZ, tz, r.URL.Query().Get("country"))
	if err != nil {
		httputil.Unavailable(w, err)
		return
	}
	httputil.OK(w, map[string]any{
		"window":   windowEnvelope(win),
		"timezone": tz,
		"hours":    buckets,
	})
}

func (s *Server) handleDaysOfWeek(w http.ResponseWriter, r *http.Request) {
	store := s.storeFromRequest(w, r)
	if store == nil {
		return
	}
	win, ok := s.windowFromRequest(w, r, store)
	if !ok {
		return
	}
	buckets, err := s.agg.DaysOfWeek(r.Context(), store.ID, win)
	if err != nil {
		httputil.Unavailable(w, err)
		return
	}
	httputil.OK(w, map[string]any{
		"window": windowEnvelope(win),
		"days":   buckets,
	})
}
