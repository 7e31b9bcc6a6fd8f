package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"

	tbhttp "github.com/Strob0t/TrailBench/internal/adapter/http"
	"github.com/Strob0t/TrailBench/internal/adapter/judge"
	tbnats "github.com/Strob0t/TrailBench/internal/adapter/nats"
	tbotel "github.com/Strob0t/TrailBench/internal/adapter/otel"
	"github.com/Strob0t/TrailBench/internal/adapter/postgres"
	"github.com/Strob0t/TrailBench/internal/adapter/ristretto"
	"github.com/Strob0t/TrailBench/internal/adapter/ws"
	"github.com/Strob0t/TrailBench/internal/config"
	runpkg "github.com/Strob0t/TrailBench/internal/domain/run"
	"github.com/Strob0t/TrailBench/internal/logger"
	"github.com/Strob0t/TrailBench/internal/middleware"
	"github.com/Strob0t/TrailBench/internal/port/messagequeue"
	"github.com/Strob0t/TrailBench/internal/resilience"
	"github.com/Strob0t/TrailBench/internal/service"
)

func main() {
	if err := run(); err != nil {
		slog.Error("fatal", "error", err)
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("config: %w", err)
	}

	slog.SetDefault(logger.New(cfg.Logging))
	slog.Info("config loaded",
		"port", cfg.Server.Port,
		"log_level", cfg.Logging.Level,
		"pg_max_conns", cfg.Postgres.MaxConns,
	)

	ctx := context.Background()

	// --- Infrastructure ---

	// PostgreSQL
	pool, err := postgres.NewPool(ctx, cfg.Postgres)
	if err != nil {
		return fmt.Errorf("postgres: %w", err)
	}
	defer pool.Close()
	slog.Info("postgres connected")

	if err := postgres.RunMigrations(ctx, cfg.Postgres.DSN); err != nil {
		return fmt.Errorf("migrations: %w", err)
	}
	slog.Info("migrations applied")

	// NATS
	queue, err := tbnats.Connect(ctx, cfg.NATS.URL)
	if err != nil {
		return fmt.Errorf("nats: %w", err)
	}
	defer func() { _ = queue.Close() }()

	// Report cache
	reportCache, err := ristretto.New(cfg.Cache.MaxSizeMB << 20)
	if err != nil {
		return fmt.Errorf("cache: %w", err)
	}
	defer reportCache.Close()

	// Telemetry
	if cfg.Telemetry.Enabled {
		shutdown, err := tbotel.InitMetrics(ctx, cfg.Logging.Service, cfg.Telemetry.OTLPEndpoint)
		if err != nil {
			return fmt.Errorf("telemetry: %w", err)
		}
		defer func() {
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			_ = shutdown(shutdownCtx)
		}()
	}
	metrics, err := tbotel.NewMetrics()
	if err != nil {
		return fmt.Errorf("metrics: %w", err)
	}

	// Evaluation service client
	judgeClient := judge.NewClient(cfg.Judge.URL, cfg.Judge.APIKey, cfg.Judge.Timeout)
	judgeClient.SetBreaker(resilience.NewBreaker(cfg.Breaker.MaxFailures, cfg.Breaker.Timeout))

	// --- Services ---
	hub := ws.NewHub()
	store := postgres.NewStore(pool)

	reportSvc := service.NewReportService(store, reportCache, cfg.Cache.TTL, hub)
	trackerSvc := service.NewTrackerService(store, reportSvc)
	benchmarkSvc := service.NewBenchmarkService(store)
	executorSvc := service.NewExecutorService(store, judgeClient, reportSvc, queue, hub, metrics)
	compareSvc := service.NewCompareService(store, reportSvc)
	catalogSvc := service.NewCatalogService(store, cfg.Catalog.SeedsDir)

	if _, err := catalogSvc.ImportSeeds(ctx); err != nil {
		return fmt.Errorf("seed import: %w", err)
	}

	// Reconciliation scheduler
	scheduler := service.NewSchedulerService(
		cfg.Scheduler.DrivingInterval,
		cfg.Scheduler.BackgroundInterval,
		func() bool { return executorSvc.ActiveRuns() > 0 },
		func(ctx context.Context) bool {
			active, err := trackerSvc.HasActiveRuns(ctx)
			if err != nil {
				slog.Error("scheduler work check", "error", err)
				return false
			}
			if active {
				return true
			}
			pending, err := trackerSvc.HasPendingEvaluations(ctx)
			if err != nil {
				slog.Error("scheduler work check", "error", err)
				return false
			}
			return pending
		},
		func(ctx context.Context) {
			reconcile(ctx, store, hub)
		},
	)
	executorSvc.SetOnChange(scheduler.Update)
	go scheduler.Run(ctx)
	defer scheduler.Stop()

	// Asynchronous metric completion from the evaluation service
	cancelMetrics, err := queue.Subscribe(ctx, messagequeue.SubjectReportMetrics,
		func(ctx context.Context, subject string, data []byte) error {
			if err := reportSvc.HandleMetricsMessage(ctx, subject, data); err != nil {
				return err
			}
			scheduler.Update()
			return nil
		})
	if err != nil {
		return fmt.Errorf("metrics subscriber: %w", err)
	}
	defer cancelMetrics()

	// --- HTTP ---
	handlers := &tbhttp.Handlers{
		Benchmarks: benchmarkSvc,
		Executor:   executorSvc,
		Tracker:    trackerSvc,
		Reports:    reportSvc,
		Compare:    compareSvc,
		Catalog:    catalogSvc,
		Judge:      judgeClient,
	}

	r := chi.NewRouter()

	// Middleware
	r.Use(tbhttp.CORS(cfg.Server.CORSOrigin))
	r.Use(middleware.RequestID)
	r.Use(tbhttp.Logger)
	r.Use(tbhttp.SecurityHeaders)
	r.Use(chimw.RealIP)
	r.Use(chimw.Recoverer)
	if cfg.Telemetry.Enabled {
		r.Use(tbotel.HTTPMiddleware(cfg.Logging.Service))
	}

	// WebSocket endpoint
	r.Get("/ws", hub.HandleWS)

	// API routes
	tbhttp.MountRoutes(r, handlers)

	addr := ":" + cfg.Server.Port

	srv := &http.Server{
		Addr:              addr,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      60 * time.Second,
		IdleTimeout:       120 * time.Second,
	}

	// Graceful shutdown
	done := make(chan os.Signal, 1)
	signal.Notify(done, os.Interrupt, syscall.SIGTERM)

	go func() {
		slog.Info("starting server", "addr", addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			slog.Error("server failed", "error", err)
		}
	}()

	<-done
	slog.Info("shutting down server")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	return srv.Shutdown(shutdownCtx)
}

// runLister and statusBroadcaster narrow the reconcile pass to what it
// reads and writes.
type runLister interface {
	ListRunningRuns(ctx context.Context) ([]runpkg.Run, error)
}

type statusBroadcaster interface {
	ConnectionCount() int
	BroadcastEvent(ctx context.Context, eventType string, payload any)
}

// reconcile pushes the current status of every active run to connected
// clients. Push events are best-effort; this pass converges clients that
// missed one.
func reconcile(ctx context.Context, store runLister, hub statusBroadcaster) {
	if hub.ConnectionCount() == 0 {
		return
	}
	runs, err := store.ListRunningRuns(ctx)
	if err != nil {
		slog.Error("reconcile: list running runs", "error", err)
		return
	}
	for i := range runs {
		hub.BroadcastEvent(ctx, ws.EventRunStatus, ws.RunStatusEvent{
			RunID:       runs[i].ID,
			BenchmarkID: runs[i].BenchmarkID,
			Status:      string(runpkg.EffectiveStatus(&runs[i])),
		})
	}
}
