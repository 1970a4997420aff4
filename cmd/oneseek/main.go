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
	"gopkg.in/yaml.v3"

	oshttp "github.com/robinandreeklund-collab/oneseekv1-sub000/internal/adapter/http"
	"github.com/robinandreeklund-collab/oneseekv1-sub000/internal/adapter/litellm"
	"github.com/robinandreeklund-collab/oneseekv1-sub000/internal/adapter/mcp"
	"github.com/robinandreeklund-collab/oneseekv1-sub000/internal/adapter/memory"
	osnats "github.com/robinandreeklund-collab/oneseekv1-sub000/internal/adapter/nats"
	"github.com/robinandreeklund-collab/oneseekv1-sub000/internal/adapter/otel"
	"github.com/robinandreeklund-collab/oneseekv1-sub000/internal/adapter/postgres"
	"github.com/robinandreeklund-collab/oneseekv1-sub000/internal/adapter/rerank"
	"github.com/robinandreeklund-collab/oneseekv1-sub000/internal/adapter/ristretto"
	"github.com/robinandreeklund-collab/oneseekv1-sub000/internal/config"
	capdomain "github.com/robinandreeklund-collab/oneseekv1-sub000/internal/domain/capability"
	"github.com/robinandreeklund-collab/oneseekv1-sub000/internal/domain/retrieval"
	"github.com/robinandreeklund-collab/oneseekv1-sub000/internal/logger"
	"github.com/robinandreeklund-collab/oneseekv1-sub000/internal/middleware"
	capport "github.com/robinandreeklund-collab/oneseekv1-sub000/internal/port/capability"
	"github.com/robinandreeklund-collab/oneseekv1-sub000/internal/port/feedback"
	"github.com/robinandreeklund-collab/oneseekv1-sub000/internal/port/messagequeue"
	"github.com/robinandreeklund-collab/oneseekv1-sub000/internal/port/reranker"
	"github.com/robinandreeklund-collab/oneseekv1-sub000/internal/resilience"
	"github.com/robinandreeklund-collab/oneseekv1-sub000/internal/service"
)

const (
	serviceName = "oneseek-core"
	version     = "0.1.0"
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

	log, logCloser := logger.New(cfg.Logging)
	slog.SetDefault(log)
	defer logCloser.Close()

	slog.Info("config loaded",
		"port", cfg.Server.Port,
		"log_level", cfg.Logging.Level,
		"decision_model", cfg.Orchestrator.DecisionModel,
		"mcp_servers", len(cfg.MCP.Servers),
	)

	ctx := context.Background()

	// --- Telemetry ---

	otelShutdown, err := otel.Init(ctx, cfg.Telemetry, serviceName, version)
	if err != nil {
		return fmt.Errorf("telemetry: %w", err)
	}
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := otelShutdown(shutdownCtx); err != nil {
			slog.Warn("telemetry shutdown", "error", err)
		}
	}()

	metrics, err := otel.NewMetrics()
	if err != nil {
		slog.Warn("metrics unavailable", "error", err)
		metrics = nil
	}

	// --- Infrastructure ---

	// Feedback store: PostgreSQL, or in-memory when the database is down.
	var feedbackStore feedback.Store
	if cfg.Postgres.DSN != "" {
		pool, err := postgres.NewPool(ctx, cfg.Postgres)
		if err != nil {
			slog.Warn("postgres unavailable, feedback is in-memory only", "error", err)
		} else {
			defer pool.Close()
			if err := postgres.RunMigrations(ctx, cfg.Postgres.DSN); err != nil {
				return fmt.Errorf("migrations: %w", err)
			}
			feedbackStore = postgres.NewFeedbackStore(pool)
			slog.Info("postgres connected")
		}
	}
	if feedbackStore == nil {
		feedbackStore = memory.NewFeedbackStore()
	}

	// NATS JetStream: turn lifecycle events. Optional.
	var queue messagequeue.Queue
	if cfg.NATS.URL != "" {
		nq, err := osnats.Connect(ctx, cfg.NATS.URL)
		if err != nil {
			slog.Warn("nats unavailable, turn events disabled", "error", err)
		} else {
			defer func() {
				if err := nq.Drain(); err != nil {
					slog.Warn("nats drain", "error", err)
				}
			}()
			queue = nq
			slog.Info("nats connected")
		}
	}

	// In-process caches.
	cacheBytes := cfg.Cache.MaxSizeMB << 20
	embeddingCache, err := ristretto.New(cacheBytes / 2)
	if err != nil {
		return fmt.Errorf("embedding cache: %w", err)
	}
	defer embeddingCache.Close()
	traceCache, err := ristretto.New(cacheBytes / 2)
	if err != nil {
		return fmt.Errorf("trace cache: %w", err)
	}
	defer traceCache.Close()

	// --- External model services ---

	breaker := resilience.NewBreaker(cfg.Breaker.MaxFailures, cfg.Breaker.Timeout)
	llm := litellm.NewClient(cfg.LiteLLM.URL, cfg.LiteLLM.MasterKey)
	llm.SetBreaker(breaker)
	decisionProvider := litellm.NewDecisionProvider(llm, cfg.Orchestrator.DecisionModel)
	embeddingProvider := litellm.NewEmbeddingProvider(llm, cfg.LiteLLM.EmbeddingModel)

	var rerankBackend reranker.Reranker
	if cfg.Rerank.URL != "" {
		rc := rerank.NewClient(cfg.Rerank.URL, cfg.Rerank.Model)
		rc.SetBreaker(resilience.NewBreaker(cfg.Breaker.MaxFailures, cfg.Breaker.Timeout))
		rerankBackend = rc
	}

	// --- Capability sources ---

	var sources []capport.Source
	for _, srv := range cfg.MCP.Servers {
		src, err := mcp.Connect(ctx, srv.Name, srv.URL)
		if err != nil {
			slog.Warn("mcp server unavailable, skipping", "server", srv.Name, "error", err)
			continue
		}
		defer func() {
			if err := src.Close(); err != nil {
				slog.Warn("mcp close", "server", src.Name(), "error", err)
			}
		}()
		sources = append(sources, src)
	}

	overrides, err := loadOverrides(cfg.Catalog.OverridesPath)
	if err != nil {
		return fmt.Errorf("catalog overrides: %w", err)
	}

	// --- Services ---

	retryPolicy := resilience.RetryPolicy{
		Attempts:    cfg.Runtime.RetryAttempts,
		Backoff:     cfg.Runtime.RetryBackoff,
		MaxBackoff:  5 * time.Second,
		Exponential: true,
	}

	embeddingSvc := service.NewEmbeddingService(embeddingProvider, embeddingCache, retryPolicy, cfg.Cache.EmbeddingTTL)
	catalogSvc := service.NewCatalogService(embeddingSvc, overrides)
	if err := catalogSvc.Build(ctx, sources); err != nil {
		return fmt.Errorf("catalog build: %w", err)
	}

	tuning := toTuning(cfg.Retrieval)
	retrievalSvc := service.NewRetrievalService(catalogSvc, embeddingSvc, feedbackStore, tuning, queue)
	rerankSvc := service.NewRerankService(catalogSvc, rerankBackend, traceCache, cfg.Cache.TraceTTL)
	executor := service.NewCapabilityExecutor(catalogSvc, decisionProvider, cfg.Orchestrator.DecisionMaxTokens, retryPolicy)
	convergeSvc := service.NewConvergenceService(decisionProvider, cfg.Orchestrator.DecisionMaxTokens)

	orchestrator := service.NewOrchestrator(service.OrchestratorDeps{
		Retrieval: retrievalSvc,
		Rerank:    rerankSvc,
		Provider:  decisionProvider,
		Executor:  executor,
		Converge:  convergeSvc,
		Exposure:  service.NewNamespaceExposure(catalogSvc),
		Queue:     queue,
		Gate:      resilience.NewGate(cfg.Runtime.MaxConcurrentCalls),
		Metrics:   metrics,
	},
		cfg.Orchestrator.MaxReplanAttempts,
		cfg.Orchestrator.MaxTotalSteps,
		cfg.Orchestrator.MaxPlanSteps,
		cfg.Orchestrator.DecisionMaxTokens,
	)

	// --- HTTP ---

	handlers := &oshttp.Handlers{
		Catalog:      catalogSvc,
		Retrieval:    retrievalSvc,
		Rerank:       rerankSvc,
		Orchestrator: orchestrator,
		Feedback:     feedbackStore,
		Queue:        queue,
		Version:      version,
	}

	r := chi.NewRouter()
	r.Use(oshttp.SecurityHeaders)
	r.Use(oshttp.CORS(cfg.Server.CORSOrigin))
	r.Use(middleware.RequestID)
	r.Use(oshttp.Logger)
	r.Use(chimw.RealIP)
	r.Use(chimw.Recoverer)
	r.Use(chimw.Timeout(cfg.Runtime.ExecuteTimeout))
	r.Use(otel.HTTPMiddleware(serviceName))
	oshttp.MountRoutes(r, handlers)

	srv := &http.Server{
		Addr:              ":" + cfg.Server.Port,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      60 * time.Second,
		IdleTimeout:       120 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		slog.Info("server listening", "addr", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)

	select {
	case err := <-errCh:
		return fmt.Errorf("server: %w", err)
	case sig := <-stop:
		slog.Info("shutting down", "signal", sig.String())
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}

	slog.Info("server stopped")
	return nil
}

// loadOverrides reads operator capability overrides from a YAML file.
// An empty path means no overrides.
func loadOverrides(path string) ([]capdomain.Override, error) {
	if path == "" {
		return nil, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}
	var doc struct {
		Overrides []capdomain.Override `yaml:"overrides"`
	}
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}
	return doc.Overrides, nil
}

func toTuning(cfg config.Retrieval) retrieval.Tuning {
	return retrieval.Tuning{
		NameWeight:        cfg.NameWeight,
		KeywordWeight:     cfg.KeywordWeight,
		DescriptionWeight: cfg.DescriptionWeight,
		ExampleWeight:     cfg.ExampleWeight,
		SemanticWeight:    cfg.SemanticWeight,
		StructuralWeight:  cfg.StructuralWeight,
		NamespaceBonus:    cfg.NamespaceBonus,
		FallbackBonus:     cfg.FallbackBonus,
		MaxFeedbackBoost:  cfg.MaxFeedbackBoost,
		RerankCandidates:  cfg.RerankCandidates,
		VectorRecallTopK:  cfg.VectorRecallTopK,
		ScoreThreshold:    cfg.ScoreThreshold,
		MarginThreshold:   cfg.MarginThreshold,
		LiveAutoSelect:    cfg.LiveAutoSelect,
	}
}
