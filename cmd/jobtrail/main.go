package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"

	"github.com/jobtrail/jobtrail/internal/adapter/collab"
	jthttp "github.com/jobtrail/jobtrail/internal/adapter/http"
	jtnats "github.com/jobtrail/jobtrail/internal/adapter/nats"
	jtotel "github.com/jobtrail/jobtrail/internal/adapter/otel"
	"github.com/jobtrail/jobtrail/internal/adapter/postgres"
	"github.com/jobtrail/jobtrail/internal/adapter/ristretto"
	"github.com/jobtrail/jobtrail/internal/adapter/ws"
	"github.com/jobtrail/jobtrail/internal/config"
	"github.com/jobtrail/jobtrail/internal/logger"
	"github.com/jobtrail/jobtrail/internal/middleware"
	"github.com/jobtrail/jobtrail/internal/resilience"
	"github.com/jobtrail/jobtrail/internal/service"
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

	log, closeLogger := logger.New(cfg.Logging)
	slog.SetDefault(log)
	defer closeLogger.Close()

	slog.Info("config loaded",
		"port", cfg.Server.Port,
		"log_level", cfg.Logging.Level,
		"pg_max_conns", cfg.Postgres.MaxConns,
		"engine_max_parallel", cfg.Engine.MaxParallel,
	)

	ctx := context.Background()

	shutdownTracer := jtotel.InitTracer(cfg.Logging.Service)
	defer func() {
		if err := shutdownTracer(context.Background()); err != nil {
			slog.Error("tracer shutdown", "error", err)
		}
	}()

	metrics, err := jtotel.NewMetrics()
	if err != nil {
		return fmt.Errorf("metrics: %w", err)
	}

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
	queue, err := jtnats.Connect(ctx, cfg.NATS.URL)
	if err != nil {
		return fmt.Errorf("nats: %w", err)
	}
	defer func() { _ = queue.Close() }()

	// In-process cache for the enabled-policy snapshot
	policyCache, err := ristretto.New(cfg.Cache.MaxSizeMB << 20)
	if err != nil {
		return fmt.Errorf("cache: %w", err)
	}

	// --- Collaborator clients ---
	breaker := resilience.NewBreaker(cfg.Breaker.MaxFailures, cfg.Breaker.Timeout)

	mail := collab.NewMailClient(cfg.Collab.MailURL, cfg.Collab.APIKey)
	mail.SetBreaker(breaker)
	calendar := collab.NewCalendarClient(cfg.Collab.CalendarURL, cfg.Collab.APIKey)
	calendar.SetBreaker(breaker)
	tasks := collab.NewTaskClient(cfg.Collab.TasksURL, cfg.Collab.APIKey)
	tasks.SetBreaker(breaker)
	contexts := collab.NewContextClient(cfg.Collab.ContextURL, cfg.Collab.APIKey)
	contexts.SetBreaker(breaker)

	// --- Services ---
	hub := ws.NewHub()
	store := postgres.NewStore(pool)

	policySvc := service.NewPolicyService(store, policyCache, cfg.Cache.PolicyTTL)
	if cfg.Engine.SeedPresets {
		if err := policySvc.SeedPresets(ctx); err != nil {
			return fmt.Errorf("seed presets: %w", err)
		}
	}

	executor := service.NewExecutor(store, mail, calendar, tasks, cfg.Engine.HandlerTimeout, queue, hub, metrics)
	approvalSvc := service.NewApprovalService(store, executor, queue, hub, metrics)
	proposalSvc := service.NewProposalService(store, policySvc, contexts, approvalSvc, queue, hub, metrics, cfg.Engine.MaxParallel)

	// --- HTTP ---
	handlers := &jthttp.Handlers{
		Policies:     policySvc,
		Proposals:    proposalSvc,
		Approvals:    approvalSvc,
		Hub:          hub,
		Queue:        queue,
		DefaultLimit: cfg.Engine.DefaultLimit,
	}

	r := chi.NewRouter()

	r.Use(jthttp.CORS(cfg.Server.CORSOrigin))
	r.Use(jthttp.Logger)
	r.Use(middleware.RequestID)
	r.Use(chimw.RealIP)
	r.Use(chimw.Recoverer)
	r.Use(chimw.Timeout(30 * time.Second))
	r.Use(jtotel.HTTPMiddleware(cfg.Logging.Service))

	jthttp.MountRoutes(r, handlers)

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
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			slog.Error("server failed", "error", err)
		}
	}()

	<-done
	slog.Info("shutting down server")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	return srv.Shutdown(shutdownCtx)
}
