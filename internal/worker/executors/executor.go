package executors

import (
	"context"
	"time"

	"judgecore/internal/models"
)

type Executor interface {
	Execute(ctx context.Context, req *models.ExecutionRequest) (*models.ExecutionResult, error)
}

// SystemErrorResult reports an execution that could not be carried out. The
// case list keeps the job's shape; only case 0 carries the failure.
func SystemErrorResult(req *models.ExecutionRequest, workerID string, err error) *models.ExecutionResult {
	cases := models.WaitingCases(req.NumCases)
	cases[0].Result = models.JobResultSystemError
	cases[0].Info = err.Error()

	return &models.ExecutionResult{
		JobID:       req.JobID,
		Generation:  req.Generation,
		Result:      models.JobResultSystemError,
		Cases:       cases,
		ProcessedAt: time.Now(),
		WorkerID:    workerID,
	}
}
