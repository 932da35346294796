// Package server assembles all HTTP handlers and starts the server.
package server

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/matthewbaird/formvis/internal/activity"
	"github.com/matthewbaird/formvis/internal/engine"
	"github.com/matthewbaird/formvis/internal/registry"
	"github.com/matthewbaird/formvis/internal/session"
	"github.com/matthewbaird/formvis/internal/wire"
)

// Config holds server configuration.
type Config struct {
	Port     int
	Forms    *registry.Registry
	Sessions *session.Manager
	Engine   *engine.Engine
	Activity activity.Store      // serves the event journal when set
	Gatherer prometheus.Gatherer // serves /metrics when set
}

// NewRouter registers every route.
func NewRouter(cfg Config) http.Handler {
	eng := cfg.Engine
	if eng == nil {
		eng = engine.New()
	}

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)

	// Health check
	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"status":"ok"}`))
	})
	if cfg.Gatherer != nil {
		r.Handle("/metrics", promhttp.HandlerFor(cfg.Gatherer, promhttp.HandlerOpts{}))
	}

	fh := NewFormHandler(cfg.Forms, eng)
	sh := NewSessionHandler(cfg.Forms, cfg.Sessions)
	ws := wire.NewHandler(cfg.Sessions, cfg.Forms)
	var ah *ActivityHandler
	if cfg.Activity != nil {
		ah = NewActivityHandler(cfg.Activity)
	}

	r.Route("/api", func(r chi.Router) {
		r.Get("/forms", fh.ListForms)
		r.Route("/forms/{id}", func(r chi.Router) {
			r.Get("/", fh.GetForm)
			r.Put("/", fh.PutForm)
			r.Delete("/", fh.DeleteForm)
			r.Post("/resolve", fh.Resolve)
			r.Post("/sessions", sh.CreateSession)
			r.Get("/ws", ws.ServeHTTP)
			if ah != nil {
				r.Get("/activity", ah.FormActivity)
			}
		})
		r.Route("/sessions/{sid}", func(r chi.Router) {
			r.Get("/", sh.GetSession)
			r.Delete("/", sh.DeleteSession)
			r.Post("/changes", sh.PostChange)
			r.Put("/values", sh.PutValues)
			r.Post("/dates", sh.PostDate)
			if ah != nil {
				r.Get("/activity", ah.SessionActivity)
			}
		})
	})
	return r
}

// Run starts the HTTP server and shuts it down when ctx is cancelled.
func Run(ctx context.Context, cfg Config) error {
	addr := fmt.Sprintf(":%d", cfg.Port)
	server := &http.Server{
		Addr:    addr,
		Handler: NewRouter(cfg),
	}

	go func() {
		<-ctx.Done()
		server.Shutdown(context.Background())
	}()

	log.Printf("starting server on %s", addr)
	if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}
