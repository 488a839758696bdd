package queue

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"judgecore/internal/models"

	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"
)

const (
	ExecutionJobsQueue    = "judge:execution:jobs"
	ExecutionResultsQueue = "judge:execution:results"
	WorkerStatusHash      = "judge:workers:status"

	resultPollTimeout = time.Second
	activeWorkerTTL   = 30 * time.Second
	staleWorkerTTL    = 2 * time.Minute
)

// ExecutionQueue carries execution requests to remote workers and their
// results back. Both directions are Redis lists so nothing is lost while the
// other side is down.
type ExecutionQueue struct {
	client *redis.Client
}

func NewExecutionQueue(client *redis.Client) *ExecutionQueue {
	return &ExecutionQueue{
		client: client,
	}
}

// Dispatch implements services.Dispatcher.
func (eq *ExecutionQueue) Dispatch(ctx context.Context, req *models.ExecutionRequest) error {
	data, err := json.Marshal(req)
	if err != nil {
		return fmt.Errorf("failed to marshal execution request: %w", err)
	}

	if err := eq.client.LPush(ctx, ExecutionJobsQueue, data).Err(); err != nil {
		return fmt.Errorf("failed to queue execution job: %w", err)
	}

	logrus.WithFields(logrus.Fields{
		"job_id":     req.JobID,
		"generation": req.Generation,
	}).Debug("Queued execution job")
	return nil
}

// DequeueExecution blocks up to timeout for a request; it returns nil, nil
// when none arrived.
func (eq *ExecutionQueue) DequeueExecution(ctx context.Context, workerID string, timeout time.Duration) (*models.ExecutionRequest, error) {
	result, err := eq.client.BRPop(ctx, timeout, ExecutionJobsQueue).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to dequeue execution job: %w", err)
	}

	if len(result) != 2 {
		return nil, fmt.Errorf("unexpected BRPOP result length: %d", len(result))
	}

	var req models.ExecutionRequest
	if err := json.Unmarshal([]byte(result[1]), &req); err != nil {
		return nil, fmt.Errorf("failed to unmarshal execution request: %w", err)
	}

	eq.updateWorkerStatus(ctx, &models.WorkerStatus{
		WorkerID:     workerID,
		Status:       "busy",
		CurrentJobID: &req.JobID,
	})
	return &req, nil
}

func (eq *ExecutionQueue) PublishResult(ctx context.Context, result *models.ExecutionResult) error {
	data, err := json.Marshal(result)
	if err != nil {
		return fmt.Errorf("failed to marshal execution result: %w", err)
	}

	if err := eq.client.LPush(ctx, ExecutionResultsQueue, data).Err(); err != nil {
		return fmt.Errorf("failed to publish execution result: %w", err)
	}
	return nil
}

// Results streams execution results until ctx is done. The channel is closed
// when the stream stops.
func (eq *ExecutionQueue) Results(ctx context.Context) <-chan *models.ExecutionResult {
	resultChan := make(chan *models.ExecutionResult, 10)

	go func() {
		defer close(resultChan)

		for ctx.Err() == nil {
			reply, err := eq.client.BRPop(ctx, resultPollTimeout, ExecutionResultsQueue).Result()
			if err != nil {
				if errors.Is(err, redis.Nil) || ctx.Err() != nil {
					continue
				}
				logrus.WithError(err).Error("Failed to read execution results")
				select {
				case <-time.After(resultPollTimeout):
				case <-ctx.Done():
				}
				continue
			}
			if len(reply) != 2 {
				continue
			}

			var result models.ExecutionResult
			if err := json.Unmarshal([]byte(reply[1]), &result); err != nil {
				logrus.WithError(err).Error("Failed to unmarshal execution result")
				continue
			}

			select {
			case resultChan <- &result:
			case <-ctx.Done():
				return
			}
		}
	}()

	return resultChan
}

func (eq *ExecutionQueue) updateWorkerStatus(ctx context.Context, status *models.WorkerStatus) {
	status.LastPing = time.Now()

	data, err := json.Marshal(status)
	if err != nil {
		logrus.WithError(err).Error("Failed to marshal worker status")
		return
	}

	if err := eq.client.HSet(ctx, WorkerStatusHash, status.WorkerID, data).Err(); err != nil {
		logrus.WithError(err).WithField("worker_id", status.WorkerID).Error("Failed to update worker status")
	}
}

func (eq *ExecutionQueue) RegisterWorker(ctx context.Context, workerID string) error {
	eq.updateWorkerStatus(ctx, &models.WorkerStatus{WorkerID: workerID, Status: "idle"})
	logrus.WithField("worker_id", workerID).Info("Registered worker")
	return nil
}

func (eq *ExecutionQueue) HeartbeatWorker(ctx context.Context, workerID string, jobsProcessed int64) error {
	statusData, err := eq.client.HGet(ctx, WorkerStatusHash, workerID).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return eq.RegisterWorker(ctx, workerID)
		}
		return fmt.Errorf("failed to get worker status: %w", err)
	}

	var status models.WorkerStatus
	if err := json.Unmarshal([]byte(statusData), &status); err != nil {
		return fmt.Errorf("failed to unmarshal worker status: %w", err)
	}

	status.JobsProcessed = jobsProcessed
	eq.updateWorkerStatus(ctx, &status)
	return nil
}

func (eq *ExecutionQueue) MarkWorkerIdle(ctx context.Context, workerID string, jobsProcessed int64) error {
	eq.updateWorkerStatus(ctx, &models.WorkerStatus{
		WorkerID:      workerID,
		Status:        "idle",
		JobsProcessed: jobsProcessed,
	})
	return nil
}

func (eq *ExecutionQueue) UnregisterWorker(ctx context.Context, workerID string) error {
	return eq.client.HDel(ctx, WorkerStatusHash, workerID).Err()
}

// GetActiveWorkers returns workers that pinged within the last 30 seconds.
func (eq *ExecutionQueue) GetActiveWorkers(ctx context.Context) ([]models.WorkerStatus, error) {
	workers, err := eq.client.HGetAll(ctx, WorkerStatusHash).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to get workers: %w", err)
	}

	activeWorkers := []models.WorkerStatus{}
	cutoff := time.Now().Add(-activeWorkerTTL)

	for _, workerData := range workers {
		var worker models.WorkerStatus
		if err := json.Unmarshal([]byte(workerData), &worker); err != nil {
			logrus.WithError(err).Warn("Failed to unmarshal worker status")
			continue
		}

		if worker.LastPing.After(cutoff) {
			activeWorkers = append(activeWorkers, worker)
		}
	}

	return activeWorkers, nil
}

func (eq *ExecutionQueue) GetQueueLength(ctx context.Context) (int64, error) {
	return eq.client.LLen(ctx, ExecutionJobsQueue).Result()
}

func (eq *ExecutionQueue) CleanupStaleWorkers(ctx context.Context) error {
	workers, err := eq.client.HGetAll(ctx, WorkerStatusHash).Result()
	if err != nil {
		return fmt.Errorf("failed to get workers: %w", err)
	}

	cutoff := time.Now().Add(-staleWorkerTTL)

	for workerID, workerData := range workers {
		var worker models.WorkerStatus
		if err := json.Unmarshal([]byte(workerData), &worker); err != nil {
			logrus.WithError(err).Warn("Failed to unmarshal worker status")
			continue
		}

		if worker.LastPing.Before(cutoff) {
			if err := eq.client.HDel(ctx, WorkerStatusHash, workerID).Err(); err != nil {
				logrus.WithError(err).WithField("worker_id", workerID).Error("Failed to remove stale worker")
			} else {
				logrus.WithField("worker_id", workerID).Info("Removed stale worker")
			}
		}
	}

	return nil
}
