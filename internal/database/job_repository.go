package database

import (
	"context"
	"errors"

	"judgecore/internal/models"

	"gorm.io/gorm"
)

type JobRepository struct {
	conn     *gorm.DB
	lockRows bool
}

// JobQuery narrows ListJobs. Nil fields do not constrain the result; From and
// To are inclusive bounds on the fixed-width creation timestamp.
type JobQuery struct {
	UserID    *uint32
	ContestID *uint32
	ProblemID *uint32
	Language  *string
	From      *string
	To        *string
	State     *models.JobState
	Result    *models.JobResult
}

func (r *JobRepository) CreateJob(ctx context.Context, job *models.Job) error {
	return r.conn.WithContext(ctx).Create(job).Error
}

func (r *JobRepository) GetJob(ctx context.Context, id uint32) (*models.Job, error) {
	var job models.Job
	err := lockingFor(r.conn.WithContext(ctx), r.lockRows).
		First(&job, "id = ?", id).Error

	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}

	return &job, nil
}

// SaveJob overwrites every column of an existing job. Id 0 is a valid job, so
// this updates by key rather than letting gorm treat a zero key as new.
func (r *JobRepository) SaveJob(ctx context.Context, job *models.Job) error {
	return r.conn.WithContext(ctx).
		Model(&models.Job{}).
		Where("id = ?", job.ID).
		Select("*").
		Omit("id").
		Updates(job).Error
}

func (r *JobRepository) ListJobs(ctx context.Context, q JobQuery) ([]models.Job, error) {
	var jobs []models.Job
	query := r.conn.WithContext(ctx).Model(&models.Job{}).Order("id ASC")

	if q.UserID != nil {
		query = query.Where("user_id = ?", *q.UserID)
	}
	if q.ContestID != nil {
		query = query.Where("contest_id = ?", *q.ContestID)
	}
	if q.ProblemID != nil {
		query = query.Where("problem_id = ?", *q.ProblemID)
	}
	if q.Language != nil {
		query = query.Where("language = ?", *q.Language)
	}
	if q.From != nil {
		query = query.Where("created_time >= ?", *q.From)
	}
	if q.To != nil {
		query = query.Where("created_time <= ?", *q.To)
	}
	if q.State != nil {
		query = query.Where("state = ?", *q.State)
	}
	if q.Result != nil {
		query = query.Where("result = ?", *q.Result)
	}

	if err := query.Find(&jobs).Error; err != nil {
		return nil, err
	}
	return jobs, nil
}

// CountJobs counts every submission of a user to a problem within a contest,
// whatever its state.
func (r *JobRepository) CountJobs(ctx context.Context, userID, problemID, contestID uint32) (int64, error) {
	var count int64
	err := r.conn.WithContext(ctx).
		Model(&models.Job{}).
		Where("user_id = ? AND problem_id = ? AND contest_id = ?", userID, problemID, contestID).
		Count(&count).Error
	return count, err
}

// FinishedJobsByContest returns the finished jobs of a contest in id order.
func (r *JobRepository) FinishedJobsByContest(ctx context.Context, contestID uint32) ([]models.Job, error) {
	var jobs []models.Job
	err := r.conn.WithContext(ctx).
		Where("contest_id = ? AND state = ?", contestID, models.JobStateFinished).
		Order("id ASC").
		Find(&jobs).Error
	if err != nil {
		return nil, err
	}
	return jobs, nil
}

func (r *JobRepository) MaxJobID(ctx context.Context) (uint32, bool, error) {
	return maxID(ctx, r.conn, &models.Job{})
}
