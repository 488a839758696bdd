package main

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"judgecore/internal/api"
	"judgecore/internal/clients"
	"judgecore/internal/config"
	"judgecore/internal/coordinator"
	"judgecore/internal/database"
	"judgecore/internal/ids"
	"judgecore/internal/logging"
	"judgecore/internal/metrics"
	"judgecore/internal/models"
	"judgecore/internal/queue"
	"judgecore/internal/services"
	"judgecore/internal/worker"
	"judgecore/internal/worker/executors"
	"judgecore/pkg/utils"

	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"
	"google.golang.org/grpc"
	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
)

func main() {
	if err := run(); err != nil {
		logrus.WithError(err).Fatal("Judge server failed")
	}
}

func run() error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}

	logger := logging.Setup(cfg.Logging.Level, cfg.Logging.Format)
	metrics.Register()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	db, err := database.NewGormConnection(database.Config{
		Driver:   cfg.Database.Driver,
		Path:     cfg.Database.Path,
		Host:     cfg.Database.Host,
		Port:     cfg.Database.Port,
		User:     cfg.Database.User,
		Password: cfg.Database.Password,
		DBName:   cfg.Database.DBName,
		SSLMode:  cfg.Database.SSLMode,
	})
	if err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}
	defer db.Close()

	if err := db.AutoMigrate(); err != nil {
		return fmt.Errorf("failed to run auto-migration: %w", err)
	}
	if cfg.Judge.FlushData {
		if err := db.Flush(ctx); err != nil {
			return fmt.Errorf("failed to flush data: %w", err)
		}
		logger.Warn("Flushed all persisted users, contests and jobs")
	}

	catalog, err := config.LoadCatalog(cfg.Judge.CatalogPath)
	if err != nil {
		return fmt.Errorf("failed to load catalog: %w", err)
	}

	store := database.NewStore(db)
	alloc := ids.NewAllocator()
	if err := store.SeedAllocator(ctx, alloc); err != nil {
		return err
	}

	userService := services.NewUserService(store, alloc)
	if err := userService.EnsureRoot(ctx); err != nil {
		return fmt.Errorf("failed to create root user: %w", err)
	}

	var (
		dispatcher services.Dispatcher
		results    <-chan *models.ExecutionResult
		notifier   coordinator.Notifier
		monitor    api.WorkerMonitor
	)
	switch cfg.Judge.ExecutionMode {
	case config.ExecutionModeLocal:
		executor := executors.NewDirectExecutor(catalog, cfg.Worker.WorkDir, time.Duration(cfg.Worker.CompileTimeoutSeconds)*time.Second)
		pool := worker.NewLocalPool(executor, cfg.Worker.MaxWorkers, time.Duration(cfg.Worker.JobTimeoutSeconds)*time.Second)
		defer pool.Close()
		dispatcher, results = pool, pool.Results()

	case config.ExecutionModeRedis:
		redisClient := redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		defer redisClient.Close()

		pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
		err := redisClient.Ping(pingCtx).Err()
		cancel()
		if err != nil {
			return fmt.Errorf("failed to connect to redis: %w", err)
		}

		execQueue := queue.NewExecutionQueue(redisClient)
		go cleanupWorkers(ctx, execQueue)
		dispatcher, results = execQueue, execQueue.Results(ctx)
		notifier = utils.NewRedisClient(redisClient)
		monitor = execQueue

	default:
		return fmt.Errorf("unknown execution mode %q", cfg.Judge.ExecutionMode)
	}

	jobService := services.NewJobService(store, catalog, alloc, dispatcher, nil)
	processor := coordinator.NewResultProcessor(jobService, notifier)
	go processor.Run(ctx, results)

	router := api.NewRouter(api.Services{
		Jobs:     jobService,
		Users:    userService,
		Contests: services.NewContestService(store, catalog, alloc),
		Ranklist: services.NewRanklistService(store, catalog),
		Workers:  monitor,
	}, logger)

	httpServer := &http.Server{
		Addr:              ":" + cfg.Server.HTTPPort,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	grpcServer := grpc.NewServer()
	healthServer := health.NewServer()
	healthpb.RegisterHealthServer(grpcServer, healthServer)

	listener, err := net.Listen("tcp", ":"+cfg.Server.GRPCPort)
	if err != nil {
		return fmt.Errorf("failed to listen on port %s: %w", cfg.Server.GRPCPort, err)
	}

	errCh := make(chan error, 2)
	go func() {
		if err := grpcServer.Serve(listener); err != nil {
			errCh <- fmt.Errorf("gRPC server: %w", err)
		}
	}()
	go func() {
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- fmt.Errorf("HTTP server: %w", err)
		}
	}()
	healthServer.SetServingStatus(clients.JudgeService, healthpb.HealthCheckResponse_SERVING)

	logger.WithFields(logrus.Fields{
		"http_port":      cfg.Server.HTTPPort,
		"grpc_port":      cfg.Server.GRPCPort,
		"db_driver":      db.Driver(),
		"execution_mode": cfg.Judge.ExecutionMode,
		"problems":       len(catalog.Problems),
		"languages":      len(catalog.Languages),
	}).Info("Judge server started")

	var serveErr error
	select {
	case <-ctx.Done():
		logger.Info("Received shutdown signal, stopping judge server...")
	case serveErr = <-errCh:
	}

	healthServer.Shutdown()
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		logger.WithError(err).Warn("HTTP server did not shut down cleanly")
	}
	grpcServer.GracefulStop()

	logger.Info("Judge server stopped")
	return serveErr
}

func cleanupWorkers(ctx context.Context, q *queue.ExecutionQueue) {
	ticker := time.NewTicker(time.Minute)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if err := q.CleanupStaleWorkers(ctx); err != nil {
				logrus.WithError(err).Warn("Failed to clean up stale workers")
			}
		}
	}
}
