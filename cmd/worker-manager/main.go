// cmd/worker-manager/main.go
package main

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	_ "net/http/pprof"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/elastic/go-elasticsearch/v8"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"food-recommender/internal/common/camunda"
	"food-recommender/internal/common/config"
	"food-recommender/internal/common/database"
	"food-recommender/internal/common/logger"
	"food-recommender/internal/common/observability"
	"food-recommender/internal/intent"
	"food-recommender/internal/pipeline"
	"food-recommender/internal/profile"
	"food-recommender/internal/ranking"
	"food-recommender/internal/retrieval"
	"food-recommender/internal/suitability"

	cqi "food-recommender/internal/workers/recommendation/classify-query-intent"
	cl "food-recommender/internal/workers/recommendation/curate-listings"
	rl "food-recommender/internal/workers/recommendation/recommend-listings"
	uup "food-recommender/internal/workers/recommendation/update-user-profile"
)

// retryWithBackoff attempts to execute a function with exponential backoff
func retryWithBackoff(operation func() error, maxRetries int, initialDelay time.Duration, log *zap.Logger, operationName string) error {
	var err error
	delay := initialDelay

	for i := 0; i < maxRetries; i++ {
		err = operation()
		if err == nil {
			return nil
		}

		if i < maxRetries-1 {
			log.Warn(fmt.Sprintf("%s failed, retrying...", operationName),
				zap.Error(err),
				zap.Int("attempt", i+1),
				zap.Int("maxRetries", maxRetries),
				zap.Duration("nextRetryIn", delay),
			)
			time.Sleep(delay)
			delay *= 2
		}
	}

	return fmt.Errorf("%s failed after %d attempts: %w", operationName, maxRetries, err)
}

func main() {
	bootLog := logger.New("info", "console")

	cfg, err := config.Load()
	if err != nil {
		bootLog.Fatal("config load failed", zap.Error(err))
	}

	zapLog := logger.New(cfg.Logging.Level, cfg.Logging.Format, cfg.Logging.Output)
	defer zapLog.Sync()
	log := logger.NewZapAdapter(zapLog)

	zapLog.Info("Starting worker manager...",
		zap.String("app", cfg.App.Name),
		zap.String("environment", cfg.App.Environment),
	)

	obs := observability.New("food-recommender")
	defer obs.Shutdown()

	ctx := context.Background()

	// --- Zeebe ---
	zeebe, err := camunda.NewClientWithConfig(ctx, &camunda.ClientConfig{
		GatewayAddress:         cfg.Camunda.BrokerAddress,
		UsePlaintextConnection: true,
		ConnectionTimeout:      config.GetDuration(cfg.Camunda.RequestTimeout),
		RetryConfig: &camunda.RetryConfig{
			MaxRetries: 10,
			BaseDelay:  2 * time.Second,
			MaxDelay:   30 * time.Second,
		},
	}, log)
	if err != nil {
		zapLog.Fatal("zeebe client failed after retries", zap.Error(err))
	}
	zapLog.Info("Zeebe client connected successfully")

	// --- PostgreSQL ---
	var pg *database.PostgresClient
	err = retryWithBackoff(func() error {
		var err error
		pg, err = database.NewPostgres(cfg.Database.Postgres)
		if err != nil {
			return err
		}
		return pg.Ping(ctx)
	}, 15, 2*time.Second, zapLog, "PostgreSQL connection")
	if err != nil {
		zapLog.Fatal("postgres failed after retries", zap.Error(err))
	}
	defer pg.Close()
	zapLog.Info("PostgreSQL connected successfully")

	// --- Redis ---
	var rdb *database.RedisClient
	err = retryWithBackoff(func() error {
		var err error
		rdb, err = database.NewRedis(cfg.Database.Redis)
		if err != nil {
			return err
		}
		return rdb.Ping(ctx)
	}, 10, 2*time.Second, zapLog, "Redis connection")
	if err != nil {
		zapLog.Fatal("redis failed after retries", zap.Error(err))
	}
	defer rdb.Close()
	zapLog.Info("Redis connected successfully")

	// --- Elasticsearch (catalogue platforms only) ---
	var esClient *database.ElasticsearchClient
	if cfg.Database.Elasticsearch.Enabled() {
		err = retryWithBackoff(func() error {
			var err error
			esClient, err = database.NewElasticsearch(cfg.Database.Elasticsearch)
			if err != nil {
				return err
			}
			return esClient.Ping(ctx)
		}, 15, 2*time.Second, zapLog, "Elasticsearch connection")
		if err != nil {
			zapLog.Fatal("elasticsearch failed after retries", zap.Error(err))
		}
		zapLog.Info("Elasticsearch connected successfully")
	}

	// --- Pipeline ---
	var es *elasticsearch.Client
	if esClient != nil {
		es = esClient.Client
	}
	registry, err := retrieval.BuildRegistry(cfg.EnabledPlatforms(), retrieval.Dependencies{
		Redis:         rdb.Client,
		Elasticsearch: es,
		CacheTTL:      time.Duration(cfg.Recommendation.CacheTTL) * time.Second,
		Logger:        log,
	})
	if err != nil {
		zapLog.Fatal("platform registry failed", zap.Error(err))
	}

	scheme, err := ranking.SchemeByName(cfg.Recommendation.RankingScheme)
	if err != nil {
		zapLog.Fatal("ranking scheme", zap.Error(err))
	}

	classifier := intent.NewClassifier(nil, log)
	filter := suitability.NewFilter(nil, log)

	orchestrator, err := pipeline.New(pipeline.Dependencies{
		Classifier:    classifier,
		Registry:      registry,
		Filter:        filter,
		Ranker:        ranking.NewEngine(scheme, log),
		Observability: obs,
		Logger:        log,
	}, pipeline.Options{
		ProviderTimeout: config.GetDuration(cfg.Recommendation.ProviderTimeout),
		MaxResults:      cfg.Recommendation.MaxResults,
	})
	if err != nil {
		zapLog.Fatal("pipeline init failed", zap.Error(err))
	}

	profiles := profile.NewRepository(pg.DB, rdb.Client,
		time.Duration(cfg.Profile.CacheTTL)*time.Second, log)

	zapLog.Info("Recommendation pipeline ready",
		zap.Strings("platforms", registry.Names()),
		zap.String("rankingScheme", scheme.Name),
	)

	// --- Workers ---
	workers := camunda.NewWorkers(zeebe.GetClient(), log)

	if wcfg := config.GetWorkerConfig(cfg, rl.TaskType); wcfg.Enabled {
		handler := rl.NewHandler(&rl.Config{Timeout: config.GetDuration(wcfg.Timeout)}, orchestrator, profiles, log)
		workers.Start(camunda.OptionsFromConfig(rl.TaskType, wcfg), handler.Handle)
	}

	if wcfg := config.GetWorkerConfig(cfg, cqi.TaskType); wcfg.Enabled {
		handler := cqi.NewHandler(&cqi.Config{Timeout: config.GetDuration(wcfg.Timeout)}, classifier, log)
		workers.Start(camunda.OptionsFromConfig(cqi.TaskType, wcfg), handler.Handle)
	}

	if wcfg := config.GetWorkerConfig(cfg, cl.TaskType); wcfg.Enabled {
		handler := cl.NewHandler(&cl.Config{
			Timeout:       config.GetDuration(wcfg.Timeout),
			RankingScheme: cfg.Recommendation.RankingScheme,
			MaxResults:    cfg.Recommendation.MaxResults,
		}, filter, log)
		workers.Start(camunda.OptionsFromConfig(cl.TaskType, wcfg), handler.Handle)
	}

	if wcfg := config.GetWorkerConfig(cfg, uup.TaskType); wcfg.Enabled {
		handler := uup.NewHandler(&uup.Config{Timeout: config.GetDuration(wcfg.Timeout)}, profiles, log)
		workers.Start(camunda.OptionsFromConfig(uup.TaskType, wcfg), handler.Handle)
	}

	zapLog.Info("Workers registered", zap.Strings("taskTypes", workers.TaskTypes()))

	// --- Health & Metrics Server ---
	server := &http.Server{Addr: cfg.Server.Address}
	http.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		writeStatus(w, http.StatusOK, map[string]string{
			"status": "healthy",
			"time":   time.Now().Format(time.RFC3339),
		})
	})
	http.HandleFunc("/ready", func(w http.ResponseWriter, r *http.Request) {
		checks := readiness(r.Context(), zeebe, pg, rdb, esClient)
		status := http.StatusOK
		for _, v := range checks {
			if v != "ok" {
				status = http.StatusServiceUnavailable
			}
		}
		checks["time"] = time.Now().Format(time.RFC3339)
		writeStatus(w, status, checks)
	})
	http.Handle("/metrics", promhttp.Handler())

	go func() {
		zapLog.Info("Health/Metrics server listening", zap.String("address", cfg.Server.Address))
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			zapLog.Error("Health/Metrics server failed", zap.Error(err))
		}
	}()

	// --- Graceful Shutdown ---
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	<-sigCh

	zapLog.Info("Shutdown signal received, stopping workers...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	workers.Close()
	if err := server.Shutdown(shutdownCtx); err != nil {
		zapLog.Error("Error stopping health server", zap.Error(err))
	}
	if err := zeebe.Close(); err != nil {
		zapLog.Error("Error closing Zeebe client", zap.Error(err))
	}

	zapLog.Info("Worker manager stopped gracefully")
}

// readiness pings every backing service with a short deadline.
func readiness(ctx context.Context, zeebe *camunda.Client, pg *database.PostgresClient, rdb *database.RedisClient, es *database.ElasticsearchClient) map[string]string {
	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()

	result := func(err error) string {
		if err != nil {
			return err.Error()
		}
		return "ok"
	}

	checks := map[string]string{
		"zeebe":    result(zeebe.HealthCheck(ctx)),
		"postgres": result(pg.Ping(ctx)),
		"redis":    result(rdb.Ping(ctx)),
	}
	if es != nil {
		checks["elasticsearch"] = result(es.Ping(ctx))
	}
	return checks
}

func writeStatus(w http.ResponseWriter, status int, body map[string]string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}
