package database

import (
	"context"
	"errors"

	"judgecore/internal/models"

	"gorm.io/gorm"
)

type UserRepository struct {
	conn *gorm.DB
}

func (r *UserRepository) CreateUser(ctx context.Context, user *models.User) error {
	return r.conn.WithContext(ctx).Create(user).Error
}

func (r *UserRepository) GetUser(ctx context.Context, id uint32) (*models.User, error) {
	var user models.User
	err := r.conn.WithContext(ctx).First(&user, "id = ?", id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &user, nil
}

func (r *UserRepository) GetUserByName(ctx context.Context, name string) (*models.User, error) {
	var user models.User
	err := r.conn.WithContext(ctx).First(&user, "name = ?", name).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &user, nil
}

func (r *UserRepository) UpdateUserName(ctx context.Context, id uint32, name string) error {
	return r.conn.WithContext(ctx).
		Model(&models.User{}).
		Where("id = ?", id).
		Update("name", name).Error
}

func (r *UserRepository) ListUsers(ctx context.Context) ([]models.User, error) {
	var users []models.User
	err := r.conn.WithContext(ctx).Order("id ASC").Find(&users).Error
	if err != nil {
		return nil, err
	}
	return users, nil
}

// GetUsers returns the users with the given ids keyed by id; missing ids are absent.
func (r *UserRepository) GetUsers(ctx context.Context, ids []uint32) (map[uint32]models.User, error) {
	result := make(map[uint32]models.User, len(ids))
	if len(ids) == 0 {
		return result, nil
	}
	var users []models.User
	if err := r.conn.WithContext(ctx).Where("id IN ?", ids).Find(&users).Error; err != nil {
		return nil, err
	}
	for _, u := range users {
		result[u.ID] = u
	}
	return result, nil
}

func (r *UserRepository) MaxUserID(ctx context.Context) (uint32, bool, error) {
	return maxID(ctx, r.conn, &models.User{})
}
