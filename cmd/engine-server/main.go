package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"

	"scholarship-engine/internal/api"
	appaws "scholarship-engine/internal/common/aws"
	"scholarship-engine/internal/common/camunda"
	"scholarship-engine/internal/common/config"
	"scholarship-engine/internal/common/database"
	apperrors "scholarship-engine/internal/common/errors"
	"scholarship-engine/internal/common/logger"
	"scholarship-engine/internal/common/metrics"
	"scholarship-engine/internal/common/observability"
	"scholarship-engine/internal/engine/modelstore"
	"scholarship-engine/internal/matching"
	"scholarship-engine/internal/modelsync"
	"scholarship-engine/internal/repository"
	"scholarship-engine/internal/training"

	evaluatematch "scholarship-engine/internal/workers/matching/evaluate-match"
	retrainmodel "scholarship-engine/internal/workers/training/retrain-model"
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
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(1)
	}

	zapLog, err := logger.NewFromConfig(cfg.Logging, cfg.App.Name, cfg.App.Version)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to build logger: %v\n", err)
		os.Exit(1)
	}
	defer zapLog.Sync()
	log := logger.NewZapAdapter(zapLog)

	zapLog.Info("Starting scholarship engine",
		zap.String("version", cfg.App.Version),
		zap.String("environment", cfg.App.Environment),
	)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	obs, err := observability.New(cfg.Observability.ServiceName, prometheus.DefaultRegisterer)
	if err != nil {
		zapLog.Warn("OTel metrics disabled", zap.Error(err))
	}
	shutdownTracing, err := observability.InitTracing(ctx, cfg.Observability, cfg.App.Version)
	if err != nil {
		zapLog.Fatal("Failed to initialize tracing", zap.Error(err))
	}

	// --- Init PostgreSQL with retry ---
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
		zapLog.Fatal("Failed to connect to PostgreSQL", zap.Error(err))
	}
	defer pg.Close()
	zapLog.Info("PostgreSQL connected")

	if err := pg.RegisterStats(prometheus.DefaultRegisterer, cfg.Database.Postgres.Database); err != nil {
		zapLog.Warn("Postgres pool metrics not registered", zap.Error(err))
	}
	if cfg.Database.Postgres.AutoMigrate {
		applied, err := pg.Migrate(ctx, os.DirFS(cfg.Database.Postgres.MigrationsDir))
		if err != nil {
			zapLog.Fatal("Failed to apply migrations", zap.Error(err))
		}
		zapLog.Info("Migrations applied", zap.Strings("files", applied))
	}

	checks := map[string]api.ReadinessCheck{"postgres": pg.Ping}

	// --- Init Redis with retry ---
	var rdb *database.RedisClient
	if cfg.Database.Redis.Address != "" {
		err = retryWithBackoff(func() error {
			var err error
			rdb, err = database.NewRedis(cfg.Database.Redis)
			if err != nil {
				return err
			}
			return rdb.Ping(ctx)
		}, 10, 2*time.Second, zapLog, "Redis connection")
		if err != nil {
			zapLog.Fatal("Failed to connect to Redis", zap.Error(err))
		}
		defer rdb.Close()
		checks["redis"] = rdb.Ping
		zapLog.Info("Redis connected")
	}

	// --- Init Elasticsearch with retry ---
	var esClient *database.ElasticsearchClient
	if cfg.Database.Elasticsearch.Enabled {
		err = retryWithBackoff(func() error {
			var err error
			esClient, err = database.NewElasticsearch(cfg.Database.Elasticsearch)
			if err != nil {
				return err
			}
			return esClient.Ping(ctx)
		}, 15, 2*time.Second, zapLog, "Elasticsearch connection")
		if err != nil {
			zapLog.Fatal("Failed to connect to Elasticsearch", zap.Error(err))
		}
		checks["elasticsearch"] = esClient.Ping
		zapLog.Info("Elasticsearch connected")
	}

	db := pg.GetDB()
	modelRepo := repository.NewModelRepository(db, log)
	store := modelstore.New()

	if err := bootModel(ctx, cfg.Model, modelRepo, store, log); err != nil {
		zapLog.Fatal("Failed to load model", zap.Error(err))
	}

	// Process identity for sync messages, so a replica ignores its own announcements.
	origin := uuid.NewString()
	if host, err := os.Hostname(); err == nil {
		origin = host + "-" + origin[:8]
	}

	var students repository.StudentReader = repository.NewStudentRepository(db, log)
	var scholarships repository.ScholarshipReader = repository.NewScholarshipRepository(db, log)
	if rdb != nil {
		ttl := time.Duration(cfg.Database.Redis.CacheTTL) * time.Second
		students = repository.NewCachedStudents(students, rdb.GetClient(), ttl, log)
		scholarships = repository.NewCachedScholarships(scholarships, rdb.GetClient(), ttl, log)
	}

	deps := training.Dependencies{
		Store:    store,
		Outcomes: repository.NewOutcomeRepository(db, log),
		Models:   modelRepo,
	}
	if cfg.Model.SyncEnabled {
		deps.Sync = modelsync.NewPublisher(rdb.GetClient(), cfg.Model.SyncChannel, origin)

		subscriber := modelsync.NewSubscriber(rdb.GetClient(), cfg.Model.SyncChannel, origin, modelRepo, store, log)
		go func() {
			if err := subscriber.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
				zapLog.Error("Model sync subscriber stopped", zap.Error(err))
			}
		}()
		zapLog.Info("Model sync enabled", zap.String("channel", cfg.Model.SyncChannel), zap.String("origin", origin))
	}
	var events training.Publishers
	if cfg.Integrations.AWS.SNS.Enabled {
		sns, err := appaws.NewSNSClient(ctx, cfg.Integrations.AWS.Region, cfg.Integrations.AWS.SNS.TopicARN)
		if err != nil {
			zapLog.Fatal("Failed to create SNS client", zap.Error(err))
		}
		events = append(events, sns)
	}
	if esClient != nil {
		reports := repository.NewTrainingReportIndex(esClient.Client, cfg.Database.Elasticsearch.TrainingIndex)
		if err := reports.EnsureIndex(ctx); err != nil {
			zapLog.Warn("Training report index not ready, reports may fail", zap.Error(err))
		}
		deps.Reports = reports
	}

	// --- Init Zeebe Client with retry ---
	var zeebe *camunda.Client
	if cfg.Camunda.Enabled {
		err = retryWithBackoff(func() error {
			var err error
			zeebe, err = camunda.NewClient(cfg.Camunda)
			return err
		}, 10, 2*time.Second, zapLog, "Zeebe client initialization")
		if err != nil {
			zapLog.Fatal("Failed to create Zeebe client", zap.Error(err))
		}
		checks["zeebe"] = zeebe.HealthCheck
		events = append(events, zeebe)
	}
	if len(events) > 0 {
		deps.Events = events
	}

	runner := training.NewRunner(cfg.Training, deps, log)
	matcher := matching.NewService(students, scholarships, store, log, matching.WithRecorder(obs))

	var workers []*camunda.CamundaWorker
	if zeebe != nil {
		if taskType := evaluatematch.TaskType; config.IsWorkerEnabled(cfg, taskType) {
			wcfg := config.GetWorkerConfig(cfg, taskType)
			handler := evaluatematch.NewHandler(evaluatematch.LoadConfig(wcfg), matcher, log)
			workers = append(workers, startWorker(zeebe, taskType, wcfg, handler, obs, log, zapLog))
		}

		if taskType := retrainmodel.TaskType; config.IsWorkerEnabled(cfg, taskType) {
			wcfg := config.GetWorkerConfig(cfg, taskType)
			handler := retrainmodel.NewHandler(retrainmodel.LoadConfig(wcfg), runner, log)
			workers = append(workers, startWorker(zeebe, taskType, wcfg, handler, obs, log, zapLog))
		}
		zapLog.Info("Workers registered", zap.Int("count", len(workers)))
	}

	router := api.NewRouter(api.RouterConfig{
		Server:  cfg.Server,
		Matcher: matcher,
		Trainer: runner,
		Models:  store,
		Checks:  checks,
		Logger:  log,
	})

	server := &http.Server{
		Addr:         cfg.Server.Addr(),
		Handler:      router,
		ReadTimeout:  config.GetDuration(cfg.Server.ReadTimeout),
		WriteTimeout: config.GetDuration(cfg.Server.WriteTimeout),
	}

	go func() {
		zapLog.Info("HTTP server listening", zap.String("addr", server.Addr))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			zapLog.Error("HTTP server failed", zap.Error(err))
			stop()
		}
	}()

	<-ctx.Done()

	zapLog.Info("Shutdown signal received, stopping engine...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), config.GetDuration(cfg.Server.ShutdownTimeout))
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		zapLog.Error("Error shutting down HTTP server", zap.Error(err))
	}

	for _, w := range workers {
		w.Stop()
	}
	if zeebe != nil {
		if err := zeebe.Close(); err != nil {
			zapLog.Error("Error closing Zeebe client", zap.Error(err))
		}
	}

	if err := runner.Shutdown(shutdownCtx); err != nil {
		zapLog.Error("Training run did not stop in time", zap.Error(err))
	}

	if err := obs.Shutdown(shutdownCtx); err != nil {
		zapLog.Error("Error shutting down metrics", zap.Error(err))
	}
	if err := shutdownTracing(shutdownCtx); err != nil {
		zapLog.Error("Error shutting down tracing", zap.Error(err))
	}

	zapLog.Info("Scholarship engine stopped gracefully")
}

// bootModel activates the stored active model, falling back to the bootstrap
// file. Starting with no model is allowed: predictions report unavailable.
func bootModel(ctx context.Context, cfg config.ModelConfig, repo *repository.ModelRepository, store *modelstore.Store, log logger.Logger) error {
	m, err := repo.GetActive(ctx)
	switch {
	case err == nil:
	case errors.Is(err, apperrors.ErrModelNotFound) && cfg.BootstrapPath != "":
		m, err = modelstore.LoadFile(cfg.BootstrapPath)
		if err != nil {
			return fmt.Errorf("bootstrap model %s: %w", cfg.BootstrapPath, err)
		}
		log.Warn("no active model stored, serving bootstrap file", map[string]interface{}{
			"path":    cfg.BootstrapPath,
			"version": m.Version,
		})
	case errors.Is(err, apperrors.ErrModelNotFound):
		log.Warn("no active model, predictions unavailable until a training run succeeds", nil)
		return nil
	default:
		return err
	}

	if _, err := store.Activate(m); err != nil {
		return err
	}
	metrics.ActiveModelVersion.Set(float64(m.Version))
	log.Info("model activated", map[string]interface{}{"version": m.Version, "features": len(m.FeatureNames)})
	return nil
}

func startWorker(client *camunda.Client, taskType string, wcfg config.WorkerConfig, handler camunda.JobHandler, rec camunda.JobRecorder, log logger.Logger, zapLog *zap.Logger) *camunda.CamundaWorker {
	w := camunda.NewWorker(client.Zeebe(), taskType, camunda.WorkerOptions{
		MaxJobsActive: wcfg.MaxJobsActive,
		Timeout:       config.GetDuration(wcfg.Timeout),
		Recorder:      rec,
	}, handler, log)

	zapLog.Info("worker started",
		zap.String("taskType", taskType),
		zap.Int("maxJobsActive", wcfg.MaxJobsActive),
		zap.Int("timeout_ms", wcfg.Timeout),
	)
	return w
}
