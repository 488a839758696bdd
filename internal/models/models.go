package models

type JobState string

const (
	JobStateQueued   JobState = "Queued"
	JobStateRunning  JobState = "Running"
	JobStateFinished JobState = "Finished"
)

type JobResult string

const (
	JobResultWaiting             JobResult = "Waiting"
	JobResultRunning             JobResult = "Running"
	JobResultAccepted            JobResult = "Accepted"
	JobResultCompilationError    JobResult = "Compilation Error"
	JobResultCompilationSuccess  JobResult = "Compilation Success"
	JobResultWrongAnswer         JobResult = "Wrong Answer"
	JobResultRuntimeError        JobResult = "Runtime Error"
	JobResultTimeLimitExceeded   JobResult = "Time Limit Exceeded"
	JobResultMemoryLimitExceeded JobResult = "Memory Limit Exceeded"
	JobResultSystemError         JobResult = "System Error"
	JobResultSkipped             JobResult = "Skipped"
)

// PracticeContestID marks a submission that belongs to no contest.
const PracticeContestID uint32 = 0

type User struct {
	ID   uint32 `json:"id" gorm:"primaryKey;autoIncrement:false"`
	Name string `json:"name" gorm:"size:255;not null;uniqueIndex"`
}

type Contest struct {
	ID              uint32   `json:"id" gorm:"primaryKey;autoIncrement:false"`
	Name            string   `json:"name" gorm:"size:255;not null"`
	From            string   `json:"from" gorm:"size:24;not null"`
	To              string   `json:"to" gorm:"size:24;not null"`
	ProblemIDs      []uint32 `json:"problem_ids" gorm:"serializer:json;type:text;not null"`
	UserIDs         []uint32 `json:"user_ids" gorm:"serializer:json;type:text;not null"`
	SubmissionLimit uint32   `json:"submission_limit" gorm:"not null;default:0"`
}

func (c *Contest) HasUser(id uint32) bool {
	return containsID(c.UserIDs, id)
}

func (c *Contest) HasProblem(id uint32) bool {
	return containsID(c.ProblemIDs, id)
}

func containsID(ids []uint32, id uint32) bool {
	for _, v := range ids {
		if v == id {
			return true
		}
	}
	return false
}

type CaseResult struct {
	ID     uint32    `json:"id"`
	Result JobResult `json:"result"`
	Time   uint64    `json:"time"`
	Memory uint64    `json:"memory"`
	Info   string    `json:"info"`
}

// Job is one submission and its judging lifecycle. Generation is bumped on
// every rejudge so results of a superseded execution can be told apart.
type Job struct {
	ID          uint32       `gorm:"primaryKey;autoIncrement:false"`
	CreatedTime string       `gorm:"size:24;not null;index"`
	UpdatedTime string       `gorm:"size:24;not null"`
	UserID      uint32       `gorm:"not null;index:idx_jobs_submitter,priority:1"`
	ProblemID   uint32       `gorm:"not null;index:idx_jobs_submitter,priority:2"`
	ContestID   uint32       `gorm:"not null;index:idx_jobs_submitter,priority:3"`
	Language    string       `gorm:"size:64;not null"`
	SourceCode  string       `gorm:"type:text;not null"`
	State       JobState     `gorm:"size:16;not null;default:'Queued'"`
	Result      JobResult    `gorm:"size:32;not null;default:'Waiting'"`
	Score       float64      `gorm:"not null;default:0"`
	Cases       []CaseResult `gorm:"serializer:json;type:text"`
	Generation  uint32       `gorm:"not null;default:0"`
}

// WaitingCases returns the case list of a job that has not been judged:
// case 0 is compilation, cases 1..n are the problem's test cases.
func WaitingCases(numCases int) []CaseResult {
	cases := make([]CaseResult, numCases+1)
	for i := range cases {
		cases[i] = CaseResult{ID: uint32(i), Result: JobResultWaiting}
	}
	return cases
}
