package database

import (
	"context"
	"errors"

	"judgecore/internal/models"

	"gorm.io/gorm"
)

type ContestRepository struct {
	conn     *gorm.DB
	lockRows bool
}

func (r *ContestRepository) CreateContest(ctx context.Context, contest *models.Contest) error {
	return r.conn.WithContext(ctx).Create(contest).Error
}

func (r *ContestRepository) GetContest(ctx context.Context, id uint32) (*models.Contest, error) {
	var contest models.Contest
	err := lockingFor(r.conn.WithContext(ctx), r.lockRows).
		First(&contest, "id = ?", id).Error

	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}

	return &contest, nil
}

// SaveContest replaces every mutable field of an existing contest.
func (r *ContestRepository) SaveContest(ctx context.Context, contest *models.Contest) error {
	return r.conn.WithContext(ctx).
		Model(&models.Contest{}).
		Where("id = ?", contest.ID).
		Select("*").
		Omit("id").
		Updates(contest).Error
}

func (r *ContestRepository) ListContests(ctx context.Context) ([]models.Contest, error) {
	var contests []models.Contest
	err := r.conn.WithContext(ctx).
		Order("id ASC").
		Find(&contests).Error

	if err != nil {
		return nil, err
	}

	return contests, nil
}

func (r *ContestRepository) MaxContestID(ctx context.Context) (uint32, bool, error) {
	return maxID(ctx, r.conn, &models.Contest{})
}
