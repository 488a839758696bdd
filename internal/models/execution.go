package models

import (
	"time"
)

// ExecutionRequest is what the execution engine receives for one dispatch.
type ExecutionRequest struct {
	JobID      uint32 `json:"job_id"`
	Generation uint32 `json:"generation"`
	ProblemID  uint32 `json:"problem_id"`
	Language   string `json:"language"`
	SourceCode string `json:"source_code"`
	// NumCases is the number of test cases, excluding compilation.
	NumCases  int       `json:"num_cases"`
	CreatedAt time.Time `json:"created_at"`
}

type ExecutionResult struct {
	JobID       uint32       `json:"job_id"`
	Generation  uint32       `json:"generation"`
	Result      JobResult    `json:"result"`
	Score       float64      `json:"score"`
	Cases       []CaseResult `json:"cases"`
	ProcessedAt time.Time    `json:"processed_at"`
	WorkerID    string       `json:"worker_id"`
}

type WorkerStatus struct {
	WorkerID      string    `json:"worker_id"`
	Status        string    `json:"status"`
	LastPing      time.Time `json:"last_ping"`
	JobsProcessed int64     `json:"jobs_processed"`
	CurrentJobID  *uint32   `json:"current_job_id,omitempty"`
}
