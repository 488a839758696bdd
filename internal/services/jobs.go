package services

import (
	"context"
	"time"

	"judgecore/internal/config"
	"judgecore/internal/database"
	"judgecore/internal/ids"
	"judgecore/internal/metrics"
	"judgecore/internal/models"
	"judgecore/pkg/types"

	"github.com/sirupsen/logrus"
)

const (
	dispatchReasonSubmit  = "submit"
	dispatchReasonRejudge = "rejudge"
)

// Dispatcher hands a job to the execution engine without waiting for it.
type Dispatcher interface {
	Dispatch(ctx context.Context, req *models.ExecutionRequest) error
}

type JobService struct {
	store      *database.Store
	catalog    *config.Catalog
	alloc      *ids.Allocator
	admission  *AdmissionController
	dispatcher Dispatcher
	now        func() time.Time
}

func NewJobService(
	store *database.Store,
	catalog *config.Catalog,
	alloc *ids.Allocator,
	dispatcher Dispatcher,
	now func() time.Time,
) *JobService {
	if now == nil {
		now = time.Now
	}
	return &JobService{
		store:      store,
		catalog:    catalog,
		alloc:      alloc,
		admission:  NewAdmissionController(catalog, now),
		dispatcher: dispatcher,
		now:        now,
	}
}

// Submit admits a submission, persists it and dispatches it for execution.
// Admission and insert share one transaction so the rate limit count cannot
// race with a concurrent insert.
func (s *JobService) Submit(ctx context.Context, req *types.PostJobRequest) (*types.JobResponse, error) {
	var job *models.Job
	err := s.store.Transaction(ctx, func(tx *database.Store) error {
		problem, err := s.admission.Validate(ctx, NewAdmissionStore(tx), req)
		if err != nil {
			return err
		}

		now := models.FormatTime(s.now())
		job = &models.Job{
			ID:          s.alloc.Next(ids.KindJob),
			CreatedTime: now,
			UpdatedTime: now,
			UserID:      req.UserID,
			ProblemID:   req.ProblemID,
			ContestID:   req.ContestID,
			Language:    req.Language,
			SourceCode:  req.SourceCode,
			State:       models.JobStateQueued,
			Result:      models.JobResultWaiting,
			Cases:       models.WaitingCases(len(problem.Cases)),
		}
		if err := tx.Jobs.CreateJob(ctx, job); err != nil {
			return types.External(err, "failed to create job %d", job.ID)
		}
		return nil
	})
	if err != nil {
		apiErr := types.AsAPIError(err)
		metrics.RecordAdmission(string(apiErr.Kind))
		return nil, apiErr
	}
	metrics.RecordAdmission("Admitted")

	logrus.WithFields(logrus.Fields{
		"job_id":     job.ID,
		"user_id":    job.UserID,
		"problem_id": job.ProblemID,
		"contest_id": job.ContestID,
	}).Info("Job queued")

	running, err := s.start(ctx, job, dispatchReasonSubmit)
	if err != nil {
		return nil, err
	}
	return ConvertJobToResponse(running), nil
}

func (s *JobService) Get(ctx context.Context, id uint32) (*types.JobResponse, error) {
	job, err := s.store.Jobs.GetJob(ctx, id)
	if err != nil {
		return nil, types.External(err, "failed to get job %d", id)
	}
	if job == nil {
		return nil, types.NotFound("Job %d not found.", id)
	}
	return ConvertJobToResponse(job), nil
}

// List returns the jobs matching every set predicate of filter, ascending by
// id. Malformed time bounds and unknown user names match nothing.
func (s *JobService) List(ctx context.Context, filter *types.JobFilter) ([]types.JobResponse, error) {
	empty := []types.JobResponse{}

	if filter.From != nil && !models.ValidTime(*filter.From) {
		return empty, nil
	}
	if filter.To != nil && !models.ValidTime(*filter.To) {
		return empty, nil
	}

	query := database.JobQuery{
		UserID:    filter.UserID,
		ContestID: filter.ContestID,
		ProblemID: filter.ProblemID,
		Language:  filter.Language,
		From:      filter.From,
		To:        filter.To,
		State:     filter.State,
		Result:    filter.Result,
	}

	if filter.UserName != nil {
		user, err := s.store.Users.GetUserByName(ctx, *filter.UserName)
		if err != nil {
			return nil, types.External(err, "failed to resolve user %s", *filter.UserName)
		}
		if user == nil {
			return empty, nil
		}
		if filter.UserID != nil && *filter.UserID != user.ID {
			return empty, nil
		}
		query.UserID = &user.ID
	}

	jobs, err := s.store.Jobs.ListJobs(ctx, query)
	if err != nil {
		return nil, types.External(err, "failed to list jobs")
	}
	return ConvertJobsToResponse(jobs), nil
}

// Rejudge resets a job to Queued, discarding its result, and dispatches it
// again. The returned snapshot is the post-reset one.
func (s *JobService) Rejudge(ctx context.Context, id uint32) (*types.JobResponse, error) {
	if id >= s.alloc.Peek(ids.KindJob) {
		return nil, types.NotFound("Job %d not found.", id)
	}

	var job *models.Job
	err := s.store.Transaction(ctx, func(tx *database.Store) error {
		j, err := tx.Jobs.GetJob(ctx, id)
		if err != nil {
			return types.External(err, "failed to get job %d", id)
		}
		if j == nil {
			return types.NotFound("Job %d not found.", id)
		}

		numCases := len(j.Cases) - 1
		if problem, ok := s.catalog.Problem(j.ProblemID); ok {
			numCases = len(problem.Cases)
		}
		if numCases < 0 {
			numCases = 0
		}

		j.State = models.JobStateQueued
		j.Result = models.JobResultWaiting
		j.Score = 0
		j.Cases = models.WaitingCases(numCases)
		j.Generation++
		j.UpdatedTime = models.FormatTime(s.now())
		if err := tx.Jobs.SaveJob(ctx, j); err != nil {
			return types.External(err, "failed to reset job %d", id)
		}
		job = j
		return nil
	})
	if err != nil {
		return nil, types.AsAPIError(err)
	}

	logrus.WithFields(logrus.Fields{
		"job_id":     job.ID,
		"generation": job.Generation,
	}).Info("Job reset for rejudge")

	snapshot := ConvertJobToResponse(job)
	if _, err := s.start(ctx, job, dispatchReasonRejudge); err != nil {
		return nil, err
	}
	return snapshot, nil
}

// Complete applies an execution result. Results whose generation no longer
// matches the job, or that arrive when the job is not Running, are dropped
// and reported as not applied.
func (s *JobService) Complete(ctx context.Context, result *models.ExecutionResult) (*models.Job, bool, error) {
	var job *models.Job
	applied := false
	err := s.store.Transaction(ctx, func(tx *database.Store) error {
		j, err := tx.Jobs.GetJob(ctx, result.JobID)
		if err != nil {
			return types.External(err, "failed to get job %d", result.JobID)
		}
		if j == nil {
			return types.NotFound("Job %d not found.", result.JobID)
		}
		job = j

		if j.Generation != result.Generation || j.State != models.JobStateRunning {
			return nil
		}

		j.State = models.JobStateFinished
		j.Result = result.Result
		j.Score = result.Score
		if len(result.Cases) > 0 {
			j.Cases = result.Cases
		}
		j.UpdatedTime = models.FormatTime(s.now())
		if err := tx.Jobs.SaveJob(ctx, j); err != nil {
			return types.External(err, "failed to save result of job %d", j.ID)
		}
		applied = true
		return nil
	})
	if err != nil {
		return nil, false, types.AsAPIError(err)
	}

	if !applied {
		metrics.RecordStaleResult()
		logrus.WithFields(logrus.Fields{
			"job_id":            result.JobID,
			"result_generation": result.Generation,
			"job_generation":    job.Generation,
			"state":             job.State,
		}).Warn("Discarding stale execution result")
		return job, false, nil
	}

	metrics.RecordResult(string(job.Result))
	logrus.WithFields(logrus.Fields{
		"job_id": job.ID,
		"result": job.Result,
		"score":  job.Score,
	}).Info("Job finished")
	return job, true, nil
}

// start moves a queued job to Running and dispatches it. If the job was
// reset again in between, the newer rejudge owns the dispatch and start only
// returns the current row.
func (s *JobService) start(ctx context.Context, job *models.Job, reason string) (*models.Job, error) {
	var current *models.Job
	claimed := false
	err := s.store.Transaction(ctx, func(tx *database.Store) error {
		j, err := tx.Jobs.GetJob(ctx, job.ID)
		if err != nil {
			return types.External(err, "failed to get job %d", job.ID)
		}
		if j == nil {
			return types.NotFound("Job %d not found.", job.ID)
		}
		current = j

		if j.Generation != job.Generation || j.State != models.JobStateQueued {
			return nil
		}

		j.State = models.JobStateRunning
		j.Result = models.JobResultRunning
		j.UpdatedTime = models.FormatTime(s.now())
		if err := tx.Jobs.SaveJob(ctx, j); err != nil {
			return types.External(err, "failed to start job %d", j.ID)
		}
		claimed = true
		return nil
	})
	if err != nil {
		return nil, types.AsAPIError(err)
	}
	if !claimed {
		return current, nil
	}

	req := ConvertJobToExecutionRequest(current)
	req.CreatedAt = s.now()
	if err := s.dispatcher.Dispatch(ctx, req); err != nil {
		logrus.WithError(err).WithField("job_id", current.ID).Error("Failed to dispatch job")
		s.fail(ctx, current.ID, current.Generation, err)
		return nil, types.External(err, "failed to dispatch job %d", current.ID)
	}
	metrics.RecordDispatch(reason)
	return current, nil
}

// fail finishes a job with System Error when it could not be dispatched.
func (s *JobService) fail(ctx context.Context, id, generation uint32, cause error) {
	err := s.store.Transaction(ctx, func(tx *database.Store) error {
		j, err := tx.Jobs.GetJob(ctx, id)
		if err != nil || j == nil || j.Generation != generation {
			return err
		}
		j.State = models.JobStateFinished
		j.Result = models.JobResultSystemError
		if len(j.Cases) > 0 {
			j.Cases[0].Result = models.JobResultSystemError
			j.Cases[0].Info = cause.Error()
		}
		j.UpdatedTime = models.FormatTime(s.now())
		return tx.Jobs.SaveJob(ctx, j)
	})
	if err != nil {
		logrus.WithError(err).WithField("job_id", id).Error("Failed to mark job as system error")
	}
}
