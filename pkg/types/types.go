package types

import (
	"judgecore/internal/models"
)

// PostJobRequest is the body of POST /jobs.
type PostJobRequest struct {
	SourceCode string `json:"source_code"`
	Language   string `json:"language"`
	UserID     uint32 `json:"user_id"`
	ContestID  uint32 `json:"contest_id"`
	ProblemID  uint32 `json:"problem_id"`
}

// JobResponse is the externally visible snapshot of a job.
type JobResponse struct {
	ID          uint32              `json:"id"`
	CreatedTime string              `json:"created_time"`
	UpdatedTime string              `json:"updated_time"`
	Submission  PostJobRequest      `json:"submission"`
	State       models.JobState     `json:"state"`
	Result      models.JobResult    `json:"result"`
	Score       float64             `json:"score"`
	Cases       []models.CaseResult `json:"cases"`
}

// JobFilter holds the optional, conjunctive predicates of GET /jobs.
type JobFilter struct {
	UserID    *uint32
	UserName  *string
	ContestID *uint32
	ProblemID *uint32
	Language  *string
	From      *string
	To        *string
	State     *models.JobState
	Result    *models.JobResult
}

// PostUserRequest creates a user when ID is nil and renames one otherwise.
type PostUserRequest struct {
	ID   *uint32 `json:"id,omitempty"`
	Name string  `json:"name"`
}

// PostContestRequest creates a contest when ID is nil and replaces one otherwise.
type PostContestRequest struct {
	ID              *uint32  `json:"id,omitempty"`
	Name            string   `json:"name"`
	From            string   `json:"from"`
	To              string   `json:"to"`
	ProblemIDs      []uint32 `json:"problem_ids"`
	UserIDs         []uint32 `json:"user_ids"`
	SubmissionLimit uint32   `json:"submission_limit"`
}

type RankUser struct {
	ID   uint32 `json:"id"`
	Name string `json:"name"`
}

// RankEntry is one row of a contest ranklist. Scores follow the contest's
// problem order.
type RankEntry struct {
	User       RankUser  `json:"user"`
	Rank       int       `json:"rank"`
	Scores     []float64 `json:"scores"`
	TotalScore float64   `json:"total_score"`
}

// VerdictUpdate is published whenever a job reaches Finished.
type VerdictUpdate struct {
	JobID     uint32           `json:"job_id"`
	UserID    uint32           `json:"user_id"`
	ContestID uint32           `json:"contest_id"`
	ProblemID uint32           `json:"problem_id"`
	Result    models.JobResult `json:"result"`
	Score     float64          `json:"score"`
}

// LeaderboardUpdate tells subscribers that a contest ranklist is stale.
type LeaderboardUpdate struct {
	ContestID uint32 `json:"contest_id"`
	JobID     uint32 `json:"job_id"`
	UpdatedAt string `json:"updated_at"`
}
