package api

import (
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

func (s *Server) routes() *chi.Mux {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders: []string{"Accept", "Authorization", "Content-Type"},
		MaxAge:         300,
	}))

	r.Get("/health", s.handleHealth)
	r.Get("/metrics", promhttp.Handler().ServeHTTP)

	requestTimeout := s.cfg.Server.RequestTimeout()
	if requestTimeout <= 0 {
		requestTimeout = 60 * time.Second
	}

	// Query surface, bounded by the per-request deadline.
	r.Group(func(r chi.Router) {
		r.Use(middleware.Timeout(requestTimeout))

		r.Route("/analytics", func(r chi.Router) {
			r.Get("/dashboard", s.handleDashboard)
			r.Get("/efficiency", s.handleEfficiency)
			r.Get("/efficiency/trends", s.handleEfficiencyTrends)
			r.Get("/recommendations", s.handleRecommendations)
			r.Get("/countries", s.handleCountries)
			r.Get("/countries/trends", s.handleCountryTrends)
			r.Get("/campaigns/by-country", s.breakdownHandler("country"))
			r.Get("/campaigns/by-age", s.breakdownHandler("age"))
			r.Get("/campaigns/by-gender", s.breakdownHandler("gender"))
			r.Get("/campaigns/by-age-gender", s.breakdownHandler("age_gender"))
			r.Get("/campaigns/by-placement", s.breakdownHandler("placement"))
			r.Get("/meta-ad-manager", s.handleAdManager)
			r.Get("/time-of-day", s.handleTimeOfDay)
			r.Get("/days-of-week", s.handleDaysOfWeek)

			r.Post("/meta/import", s.handleMetaImport)
			r.Delete("/meta/clear", s.handleMetaClear)
		})

		r.Get("/budget-intelligence", s.handleBudgetIntelligence)

		r.Route("/manual", func(r chi.Router) {
			r.Get("/", s.handleManualList)
			r.Post("/", s.handleManualUpsert)
			r.Delete("/{id}", s.handleManualDelete)
			r.Get("/spend", s.handleOverrideList)
			r.Post("/spend", s.handleOverrideUpsert)
			r.Delete("/spend/{id}", s.handleOverrideDelete)
		})
	})

	// Sync triggers run longer than the query deadline.
	r.Group(func(r chi.Router) {
		r.Use(middleware.Timeout(s.cfg.Sync.Timeout() + time.Minute))
		r.Post("/sync", s.handleSync)
		r.Post("/analytics/meta/sync-now", s.handleSync)
	})

	return r
}
