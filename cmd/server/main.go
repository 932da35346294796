package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"golang.org/x/sync/errgroup"

	"github.com/matthewbaird/formvis/internal/activity"
	"github.com/matthewbaird/formvis/internal/config"
	"github.com/matthewbaird/formvis/internal/engine"
	"github.com/matthewbaird/formvis/internal/event"
	"github.com/matthewbaird/formvis/internal/eventbus"
	"github.com/matthewbaird/formvis/internal/formdef"
	"github.com/matthewbaird/formvis/internal/metrics"
	"github.com/matthewbaird/formvis/internal/registry"
	"github.com/matthewbaird/formvis/internal/server"
	"github.com/matthewbaird/formvis/internal/session"
	"github.com/matthewbaird/formvis/internal/store"
)

const janitorInterval = time.Minute

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg, err := config.FromEnv()
	if err != nil {
		log.Fatalf("loading config: %v", err)
	}
	logger := cfg.Logger(os.Stderr)

	var st store.Store
	if cfg.UseMemoryStore() {
		st = store.NewMemoryStore()
		log.Println("using in-memory definition store")
	} else {
		sqlStore, err := store.OpenSQLite(ctx, cfg.DatabaseURL)
		if err != nil {
			log.Fatalf("opening database: %v", err)
		}
		st = sqlStore
		log.Println("database migrated successfully")
	}
	defer st.Close()

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	m := metrics.New(reg)

	journal := activity.NewMemoryStore(cfg.ActivityCapacity)
	bus := eventbus.New(256)
	bus.Subscribe("log", eventbus.NewLogConsumer())
	bus.Subscribe("metrics", eventbus.NewMetricsConsumer(m))
	bus.Subscribe("activity", activity.NewIndexer(journal))
	bus.Start(ctx)

	eng := engine.New(engine.WithMetrics(m), engine.WithLogger(logger))
	sessions := session.NewManager(cfg.SessionMaxAge, cfg.SessionIdleTimeout,
		session.WithEngine(eng),
		session.WithRecorder(event.NewRecorder(bus)),
		session.WithMetrics(m),
		session.WithLogger(logger),
	)
	forms := registry.New(st, m)

	if cfg.Definitions != "" {
		defs, err := formdef.LoadDir(cfg.Definitions)
		if err != nil {
			log.Printf("loading definitions from %s: %v", cfg.Definitions, err)
		}
		n, errs := forms.Seed(ctx, defs)
		for _, err := range errs {
			log.Printf("seeding definition: %v", err)
		}
		log.Printf("seeded %d form definitions from %s", n, cfg.Definitions)
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return server.Run(gctx, server.Config{
			Port:     cfg.Port,
			Forms:    forms,
			Sessions: sessions,
			Engine:   eng,
			Activity: journal,
			Gatherer: reg,
		})
	})
	g.Go(func() error {
		return sessions.Run(gctx, janitorInterval)
	})

	err = g.Wait()
	bus.Stop()
	if err != nil {
		log.Fatalf("server error: %v", err)
	}
}
