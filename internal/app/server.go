// Package app is the HTTP service: the lunar calendar API, the festival
// browser, personal events and calendar exports.
package app

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"golang.org/x/time/rate"

	"github.com/klabast/wb-services/festival-calendar/internal/events"
	"github.com/klabast/wb-services/festival-calendar/internal/festival"
	"github.com/klabast/wb-services/festival-calendar/internal/lunar"
)

// Server carries the dependencies of the HTTP handlers.
type Server struct {
	lunar   *lunar.Service
	catalog *festival.Catalog
	store   events.Store
	auth    *Auth
	limiter *rate.Limiter
	logger  *slog.Logger
}

// Deps are the collaborators a Server is built from.
type Deps struct {
	Lunar   *lunar.Service
	Catalog *festival.Catalog
	Store   events.Store
	Auth    *Auth
	Logger  *slog.Logger

	WriteRPS   float64
	WriteBurst int
}

// NewServer wires the handlers. A nil Auth disables authentication.
func NewServer(d Deps) *Server {
	if d.Logger == nil {
		d.Logger = slog.Default()
	}
	if d.WriteRPS <= 0 {
		d.WriteRPS = 5
	}
	if d.WriteBurst <= 0 {
		d.WriteBurst = 10
	}
	return &Server{
		lunar:   d.Lunar,
		catalog: d.Catalog,
		store:   d.Store,
		auth:    d.Auth,
		limiter: rate.NewLimiter(rate.Limit(d.WriteRPS), d.WriteBurst),
		logger:  d.Logger.With("component", "http"),
	}
}

// Router registers the routes and middleware stack.
func (s *Server) Router() http.Handler {
	r := chi.NewRouter()
	r.Use(requestIDMiddleware)
	r.Use(recoverMiddleware(s.logger))
	r.Use(loggingMiddleware(s.logger))

	r.Get("/healthz", s.healthz)

	r.Route("/api", func(r chi.Router) {
		r.Get("/config", s.getConfig)
		r.Get("/holidays", s.listHolidays)

		r.Route("/lunar", func(r chi.Router) {
			r.Get("/today", s.lunarToday)
			r.Get("/convert", s.lunarConvert)
			r.Get("/solar", s.lunarToSolar)
			r.Get("/months/{month}", s.lunarMonth)
		})

		r.Get("/festivals", s.listFestivals)
		r.Get("/festivals/upcoming", s.upcomingFestivals)
		r.Get("/festivals/{id}", s.getFestival)
		r.Get("/lunar-festivals", s.listLunarFestivals)

		r.Route("/events", func(r chi.Router) {
			r.Get("/", s.listEvents)
			r.Group(func(r chi.Router) {
				r.Use(s.auth.Require)
				r.Get("/status", s.eventsStatus)
				r.Group(func(r chi.Router) {
					r.Use(rateLimitMiddleware(s.limiter))
					r.Post("/", s.addEvent)
					r.Delete("/{id}", s.deleteEvent)
					r.Post("/commit", s.commitEvents)
					r.Post("/revert", s.revertEvents)
				})
			})
		})

		r.Get("/download", s.download)
		r.Get("/subscribe", s.subscribe)
	})

	return r
}

// HTTPServer returns an http.Server for addr with sane timeouts.
func (s *Server) HTTPServer(addr string) *http.Server {
	return &http.Server{
		Addr:              addr,
		Handler:           s.Router(),
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      60 * time.Second,
		IdleTimeout:       2 * time.Minute,
	}
}
