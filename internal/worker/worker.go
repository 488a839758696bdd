package worker

import (
	"context"
	"fmt"
	"os"
	"sync/atomic"
	"time"

	"judgecore/internal/models"
	"judgecore/internal/worker/executors"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

const dequeueTimeout = 5 * time.Second

// JobQueue is the worker's side of the execution queue.
type JobQueue interface {
	RegisterWorker(ctx context.Context, workerID string) error
	UnregisterWorker(ctx context.Context, workerID string) error
	DequeueExecution(ctx context.Context, workerID string, timeout time.Duration) (*models.ExecutionRequest, error)
	PublishResult(ctx context.Context, result *models.ExecutionResult) error
	MarkWorkerIdle(ctx context.Context, workerID string, jobsProcessed int64) error
	HeartbeatWorker(ctx context.Context, workerID string, jobsProcessed int64) error
}

// WorkerService pulls execution requests from the shared queue, runs them
// and publishes the results.
type WorkerService struct {
	workerID          string
	queue             JobQueue
	executor          executors.Executor
	heartbeatInterval time.Duration
	jobTimeout        time.Duration
	jobsProcessed     atomic.Int64
}

func NewWorkerService(queue JobQueue, executor executors.Executor, heartbeatInterval, jobTimeout time.Duration) *WorkerService {
	return &WorkerService{
		workerID:          NewWorkerID(),
		queue:             queue,
		executor:          executor,
		heartbeatInterval: heartbeatInterval,
		jobTimeout:        jobTimeout,
	}
}

func NewWorkerID() string {
	if hostname, err := os.Hostname(); err == nil {
		return fmt.Sprintf("worker-%s-%s", hostname, uuid.New().String()[:8])
	}
	return fmt.Sprintf("worker-%s", uuid.New().String()[:8])
}

func (ws *WorkerService) ID() string {
	return ws.workerID
}

func (ws *WorkerService) JobsProcessed() int64 {
	return ws.jobsProcessed.Load()
}

// Start blocks until ctx is done.
func (ws *WorkerService) Start(ctx context.Context) error {
	logrus.WithField("worker_id", ws.workerID).Info("Starting worker")

	if err := ws.queue.RegisterWorker(ctx, ws.workerID); err != nil {
		return fmt.Errorf("failed to register worker: %w", err)
	}
	defer func() {
		if err := ws.queue.UnregisterWorker(context.Background(), ws.workerID); err != nil {
			logrus.WithError(err).Warn("Failed to unregister worker")
		}
	}()

	if ws.heartbeatInterval > 0 {
		go ws.heartbeatLoop(ctx)
	}

	return ws.processJobs(ctx)
}

func (ws *WorkerService) processJobs(ctx context.Context) error {
	log := logrus.WithField("worker_id", ws.workerID)

	for {
		select {
		case <-ctx.Done():
			log.Info("Worker shutting down")
			return nil
		default:
		}

		job, err := ws.queue.DequeueExecution(ctx, ws.workerID, dequeueTimeout)
		if err != nil {
			if ctx.Err() != nil {
				continue
			}
			log.WithError(err).Error("Error dequeuing job")
			select {
			case <-time.After(dequeueTimeout):
			case <-ctx.Done():
			}
			continue
		}
		if job == nil {
			continue
		}

		result := ws.processJob(ctx, job)

		if err := ws.queue.PublishResult(ctx, result); err != nil {
			log.WithError(err).WithField("job_id", job.JobID).Error("Failed to publish result")
		}

		processed := ws.jobsProcessed.Add(1)
		if err := ws.queue.MarkWorkerIdle(ctx, ws.workerID, processed); err != nil {
			log.WithError(err).Warn("Failed to mark worker as idle")
		}
	}
}

func (ws *WorkerService) processJob(ctx context.Context, job *models.ExecutionRequest) *models.ExecutionResult {
	return runJob(ctx, ws.executor, ws.workerID, ws.jobTimeout, job)
}

func (ws *WorkerService) heartbeatLoop(ctx context.Context) {
	ticker := time.NewTicker(ws.heartbeatInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if err := ws.queue.HeartbeatWorker(ctx, ws.workerID, ws.jobsProcessed.Load()); err != nil {
				logrus.WithError(err).Warn("Failed to send heartbeat")
			}
		}
	}
}

// runJob executes one request; executor failures become System Error results.
func runJob(ctx context.Context, executor executors.Executor, workerID string, timeout time.Duration, job *models.ExecutionRequest) *models.ExecutionResult {
	log := logrus.WithFields(logrus.Fields{
		"worker_id":  workerID,
		"job_id":     job.JobID,
		"generation": job.Generation,
	})
	log.Debug("Processing job")

	if timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}

	startTime := time.Now()
	result, err := executor.Execute(ctx, job)
	if err != nil {
		log.WithError(err).Error("Execution failed")
		return executors.SystemErrorResult(job, workerID, err)
	}

	result.WorkerID = workerID
	result.ProcessedAt = time.Now()

	log.WithFields(logrus.Fields{
		"duration": time.Since(startTime),
		"result":   result.Result,
	}).Info("Completed job")
	return result
}
