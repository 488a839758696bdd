package main

import (
	"context"
	"os/signal"
	"syscall"
	"time"

	"judgecore/internal/clients"
	"judgecore/internal/config"
	"judgecore/internal/logging"
	"judgecore/internal/queue"
	"judgecore/internal/worker"
	"judgecore/internal/worker/executors"

	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		logrus.WithError(err).Fatal("Failed to load configuration")
	}
	logger := logging.Setup(cfg.Logging.Level, cfg.Logging.Format)
	logger.Info("Starting code execution worker...")

	catalog, err := config.LoadCatalog(cfg.Judge.CatalogPath)
	if err != nil {
		logger.WithError(err).Fatal("Failed to load catalog")
	}

	redisClient := redis.NewClient(&redis.Options{
		Addr:     cfg.Redis.Addr,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})
	defer redisClient.Close()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	err = redisClient.Ping(pingCtx).Err()
	cancel()
	if err != nil {
		logger.WithError(err).Fatal("Failed to connect to Redis")
	}
	logger.Info("Connected to Redis successfully")

	// results need a consumer
	health, err := clients.NewHealthClient(cfg.Worker.ServerGRPCAddr)
	if err != nil {
		logger.WithError(err).Fatal("Failed to create health client")
	}
	waitCtx, cancel := context.WithTimeout(ctx, time.Minute)
	if err := health.WaitServing(waitCtx, time.Second); err != nil {
		logger.WithError(err).Warn("Judge server is not serving, consuming the queue anyway")
	}
	cancel()
	health.Close()

	executor := executors.NewDirectExecutor(
		catalog,
		cfg.Worker.WorkDir,
		time.Duration(cfg.Worker.CompileTimeoutSeconds)*time.Second,
	)
	workerService := worker.NewWorkerService(
		queue.NewExecutionQueue(redisClient),
		executor,
		time.Duration(cfg.Worker.HeartbeatIntervalSeconds)*time.Second,
		time.Duration(cfg.Worker.JobTimeoutSeconds)*time.Second,
	)

	if err := workerService.Start(ctx); err != nil {
		logger.WithError(err).Fatal("Worker failed")
	}
	logger.WithField("jobs_processed", workerService.JobsProcessed()).Info("Worker stopped")
}
