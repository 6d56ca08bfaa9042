package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"go.opentelemetry.io/otel"
	"golang.org/x/sync/errgroup"

	"contactlink/internal/contact/handler"
	"contactlink/internal/contact/integrity"
	contactmetrics "contactlink/internal/contact/metrics"
	"contactlink/internal/contact/service"
	"contactlink/internal/contact/store"
	"contactlink/internal/platform/config"
	"contactlink/internal/platform/httpserver"
	"contactlink/internal/platform/logger"
	"contactlink/internal/platform/metrics"
	httptransport "contactlink/internal/transport/http"
)

// main wires dependencies, exposes the HTTP router and owns the process
// lifecycle. Reconciliation logic lives in internal/contact.
func main() {
	cfg := config.FromEnv()
	log := logger.New(cfg.LogLevel)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, log); err != nil {
		log.Error("contactlink stopped with error", "error", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, cfg config.Server, log *slog.Logger) error {
	registry := prometheus.NewRegistry()
	registry.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	httpMetrics := metrics.New(registry)
	contactMetrics := contactmetrics.New(registry)

	backend, err := store.Open(ctx, cfg.Store, log)
	if err != nil {
		return err
	}
	defer backend.Close()
	if err := backend.Migrate(ctx); err != nil {
		return err
	}

	health := map[string]httptransport.HealthCheck{"store": backend.Health}

	locker, redisClient, err := newLocker(ctx, cfg, log, contactMetrics)
	if err != nil {
		return err
	}
	if redisClient != nil {
		defer redisClient.Close()
		health["redis"] = redisClient.Health
	}

	svc, err := service.New(backend.Tx,
		service.WithLocker(locker),
		service.WithLogger(log),
		service.WithMetrics(contactMetrics),
		service.WithTracer(otel.Tracer("contactlink/contact")),
	)
	if err != nil {
		return err
	}

	router := httptransport.NewRouter(httptransport.RouterConfig{
		CORSOrigins: cfg.CORSOrigins,
		Gatherer:    registry,
		Health:      health,
	}, handler.New(svc, log, httpMetrics, cfg.RequestTimeout))
	srv := httpserver.New(cfg.Addr, router, cfg.RequestTimeout)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		log.Info("starting contactlink", "addr", cfg.Addr, "store", cfg.Store.Driver, "distributed_locks", redisClient != nil)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(gctx), cfg.ShutdownTimeout)
		defer cancel()
		log.Info("shutting down")
		return srv.Shutdown(shutdownCtx)
	})
	if cfg.IntegrityCron != "" {
		sweeper, err := integrity.NewSweeper(svc, cfg.IntegrityCron, log)
		if err != nil {
			return err
		}
		g.Go(func() error { return sweeper.Run(gctx) })
	}
	return g.Wait()
}
