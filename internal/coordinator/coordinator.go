package coordinator

import (
	"context"
	"fmt"
	"time"

	"judgecore/internal/models"
	"judgecore/pkg/types"

	"github.com/sirupsen/logrus"
)

// ResultApplier persists an execution result; see services.JobService.Complete.
type ResultApplier interface {
	Complete(ctx context.Context, result *models.ExecutionResult) (*models.Job, bool, error)
}

// Notifier publishes judging events to subscribers.
type Notifier interface {
	PublishVerdictUpdate(ctx context.Context, contestID uint32, update types.VerdictUpdate) error
	PublishLeaderboardUpdate(ctx context.Context, contestID uint32, update types.LeaderboardUpdate) error
}

// ResultProcessor applies execution results coming back from the local pool
// or from remote workers.
type ResultProcessor struct {
	jobs     ResultApplier
	notifier Notifier
}

// NewResultProcessor builds a processor; notifier may be nil.
func NewResultProcessor(jobs ResultApplier, notifier Notifier) *ResultProcessor {
	return &ResultProcessor{jobs: jobs, notifier: notifier}
}

// Run handles results until the channel is closed or ctx is done.
func (p *ResultProcessor) Run(ctx context.Context, results <-chan *models.ExecutionResult) {
	logrus.Info("Started execution results processor")

	for {
		select {
		case <-ctx.Done():
			logrus.Info("Execution results processor stopped")
			return

		case result, ok := <-results:
			if !ok {
				logrus.Info("Results channel closed")
				return
			}

			if err := p.Handle(ctx, result); err != nil {
				logrus.WithError(err).WithField("job_id", result.JobID).Error("Failed to handle execution result")
			}
		}
	}
}

func (p *ResultProcessor) Handle(ctx context.Context, result *models.ExecutionResult) error {
	job, applied, err := p.jobs.Complete(ctx, result)
	if err != nil {
		return fmt.Errorf("failed to apply result: %w", err)
	}
	if !applied || p.notifier == nil {
		return nil
	}

	if err := p.notifier.PublishVerdictUpdate(ctx, job.ContestID, types.VerdictUpdate{
		JobID:     job.ID,
		UserID:    job.UserID,
		ContestID: job.ContestID,
		ProblemID: job.ProblemID,
		Result:    job.Result,
		Score:     job.Score,
	}); err != nil {
		logrus.WithError(err).WithField("job_id", job.ID).Warn("Failed to publish verdict update")
	}

	if err := p.notifier.PublishLeaderboardUpdate(ctx, job.ContestID, types.LeaderboardUpdate{
		ContestID: job.ContestID,
		JobID:     job.ID,
		UpdatedAt: models.FormatTime(time.Now()),
	}); err != nil {
		logrus.WithError(err).WithField("contest_id", job.ContestID).Warn("Failed to publish leaderboard update")
	}

	return nil
}
