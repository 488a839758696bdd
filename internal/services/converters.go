package services

import (
	"judgecore/internal/models"
	"judgecore/pkg/types"
)

func ConvertJobToResponse(job *models.Job) *types.JobResponse {
	cases := make([]models.CaseResult, len(job.Cases))
	copy(cases, job.Cases)

	return &types.JobResponse{
		ID:          job.ID,
		CreatedTime: job.CreatedTime,
		UpdatedTime: job.UpdatedTime,
		Submission: types.PostJobRequest{
			SourceCode: job.SourceCode,
			Language:   job.Language,
			UserID:     job.UserID,
			ContestID:  job.ContestID,
			ProblemID:  job.ProblemID,
		},
		State:  job.State,
		Result: job.Result,
		Score:  job.Score,
		Cases:  cases,
	}
}

func ConvertJobsToResponse(jobs []models.Job) []types.JobResponse {
	out := make([]types.JobResponse, len(jobs))
	for i := range jobs {
		out[i] = *ConvertJobToResponse(&jobs[i])
	}
	return out
}

func ConvertJobToExecutionRequest(job *models.Job) *models.ExecutionRequest {
	numCases := len(job.Cases) - 1
	if numCases < 0 {
		numCases = 0
	}
	return &models.ExecutionRequest{
		JobID:      job.ID,
		Generation: job.Generation,
		ProblemID:  job.ProblemID,
		Language:   job.Language,
		SourceCode: job.SourceCode,
		NumCases:   numCases,
	}
}

func ConvertContestRequest(id uint32, req *types.PostContestRequest) *models.Contest {
	problemIDs := req.ProblemIDs
	if problemIDs == nil {
		problemIDs = []uint32{}
	}
	userIDs := req.UserIDs
	if userIDs == nil {
		userIDs = []uint32{}
	}

	return &models.Contest{
		ID:              id,
		Name:            req.Name,
		From:            req.From,
		To:              req.To,
		ProblemIDs:      problemIDs,
		UserIDs:         userIDs,
		SubmissionLimit: req.SubmissionLimit,
	}
}
