package main

import (
	"context"
	"encoding/json"
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
	"golang.org/x/sync/errgroup"

	aghttp "github.com/lexorahq/aigate/internal/adapter/http"
	"github.com/lexorahq/aigate/internal/adapter/litellm"
	agnats "github.com/lexorahq/aigate/internal/adapter/nats"
	agotel "github.com/lexorahq/aigate/internal/adapter/otel"
	"github.com/lexorahq/aigate/internal/adapter/postgres"
	"github.com/lexorahq/aigate/internal/adapter/ristretto"
	"github.com/lexorahq/aigate/internal/adapter/tiered"
	"github.com/lexorahq/aigate/internal/adapter/ws"
	"github.com/lexorahq/aigate/internal/config"
	"github.com/lexorahq/aigate/internal/domain/model"
	"github.com/lexorahq/aigate/internal/logger"
	"github.com/lexorahq/aigate/internal/middleware"
	"github.com/lexorahq/aigate/internal/resilience"
	"github.com/lexorahq/aigate/internal/service"
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

	log := logger.New(cfg.Logging)
	slog.SetDefault(log)

	log.Info("config loaded",
		"port", cfg.Server.Port,
		"log_level", cfg.Logging.Level,
		"provider_url", cfg.Provider.URL,
		"auth_enabled", cfg.Auth.Enabled,
	)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// --- Infrastructure ---

	pool, err := postgres.NewPool(ctx, cfg.Postgres)
	if err != nil {
		return fmt.Errorf("postgres: %w", err)
	}
	defer pool.Close()
	log.Info("postgres connected")

	if err := postgres.RunMigrations(ctx, cfg.Postgres.DSN); err != nil {
		return fmt.Errorf("migrations: %w", err)
	}
	log.Info("migrations applied")

	// Audit delivery is best-effort everywhere else, so an unreachable NATS
	// degrades the sink instead of blocking startup.
	var sink *agnats.Sink
	if sink, err = agnats.Connect(ctx, cfg.NATS.URL); err != nil {
		log.Warn("nats unavailable, audit events will only be logged", "error", err)
		sink = nil
	} else {
		defer func() { _ = sink.Close() }()
	}

	// --- Metrics ---

	var metrics *agotel.Metrics
	if cfg.OTel.Enabled {
		shutdown, err := agotel.InitMetrics(ctx, cfg.Logging.Service, cfg.OTel.Endpoint)
		if err != nil {
			return fmt.Errorf("otel: %w", err)
		}
		defer func() {
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			_ = shutdown(shutdownCtx)
		}()

		if metrics, err = agotel.NewMetrics(); err != nil {
			return fmt.Errorf("otel metrics: %w", err)
		}
	}

	// --- Response cache (L1 in-process, L2 durable) ---

	l1, err := ristretto.New(cfg.Cache.L1MaxBytes)
	if err != nil {
		return fmt.Errorf("l1 cache: %w", err)
	}
	defer l1.Close()
	l2 := postgres.NewCache(pool)
	respCache := service.NewResponseCache(
		tiered.New(l1, l2, cfg.Cache.L1TTL),
		cfg.Cache.SearchTTL, cfg.Cache.EmbeddingTTL)

	// --- Provider client ---

	client := litellm.NewClient(cfg.Provider.URL, cfg.Provider.APIKey, cfg.Provider.Timeout)
	client.SetBreaker(resilience.NewBreaker(cfg.Breaker.Threshold, cfg.Breaker.Cooldown))

	// --- Services ---

	catalog := model.DefaultCatalog()
	router := service.NewRouter(catalog, log)
	estimator := service.NewEstimator(catalog)
	store := postgres.NewStore(pool)
	governor := service.NewGovernor(store, cfg.Governor.CheckTimeout, log)
	hub := ws.NewHub()

	opts := service.PipelineOpts{Alerts: hub, Metrics: metrics, Logger: log}
	if sink != nil {
		opts.Sink = sink
	}
	pipeline := service.NewPipeline(catalog, router, estimator, governor, respCache, client, store, opts)

	// --- HTTP ---

	handlers := &aghttp.Handlers{
		Pipeline:  pipeline,
		Router:    router,
		Estimator: estimator,
		Cache:     respCache,
		Catalog:   catalog,
		Store:     store,
	}

	r := chi.NewRouter()
	r.Use(aghttp.CORS(cfg.Server.CORSOrigin))
	r.Use(aghttp.SecurityHeaders)
	r.Use(aghttp.Logger)
	r.Use(chimw.RequestID)
	r.Use(chimw.RealIP)
	r.Use(chimw.Recoverer)
	r.Use(chimw.Timeout(2 * time.Minute))
	if cfg.OTel.Enabled {
		r.Use(agotel.HTTPMiddleware(cfg.Logging.Service))
	}
	r.Use(middleware.Auth(cfg.Auth.Callers, cfg.Auth.Enabled))

	r.Get("/health", healthHandler(hub))
	r.Get("/ws", hub.HandleWS)
	aghttp.MountRoutes(r, handlers)

	srv := &http.Server{
		Addr:              ":" + cfg.Server.Port,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      3 * time.Minute,
		IdleTimeout:       120 * time.Second,
	}

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		log.Info("starting server", "addr", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("server: %w", err)
		}
		return nil
	})

	g.Go(func() error {
		service.StartSweeper(gctx, l2, cfg.Cache.SweepInterval, log)
		return nil
	})

	g.Go(func() error {
		<-gctx.Done()
		log.Info("shutting down server")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})

	return g.Wait()
}

// healthHandler reports service liveness and hub fanout.
func healthHandler(hub *ws.Hub) http.HandlerFunc {
	type healthStatus struct {
		Status        string `json:"status"`
		WSConnections int    `json:"ws_connections"`
	}

	return func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		_ = json.NewEncoder(w).Encode(healthStatus{
			Status:        "ok",
			WSConnections: hub.ConnectionCount(),
		})
	}
}
