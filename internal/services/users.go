package services

import (
	"context"

	"judgecore/internal/database"
	"judgecore/internal/ids"
	"judgecore/internal/models"
	"judgecore/pkg/types"

	"github.com/sirupsen/logrus"
)

const RootUserName = "root"

type UserService struct {
	store *database.Store
	alloc *ids.Allocator
}

func NewUserService(store *database.Store, alloc *ids.Allocator) *UserService {
	return &UserService{store: store, alloc: alloc}
}

// Save creates a user when req.ID is nil and renames an existing one otherwise.
func (s *UserService) Save(ctx context.Context, req *types.PostUserRequest) (*models.User, error) {
	if req.ID != nil {
		return s.Rename(ctx, *req.ID, req.Name)
	}
	return s.Create(ctx, req.Name)
}

// Create registers a new user. The id is taken before the name check, so a
// rejected name still consumes one.
func (s *UserService) Create(ctx context.Context, name string) (*models.User, error) {
	user := &models.User{ID: s.alloc.Next(ids.KindUser), Name: name}

	err := s.store.Transaction(ctx, func(tx *database.Store) error {
		existing, err := tx.Users.GetUserByName(ctx, name)
		if err != nil {
			return types.External(err, "failed to look up user %s", name)
		}
		if existing != nil {
			return types.InvalidArgument("User name '%s' already exists.", name)
		}
		if err := tx.Users.CreateUser(ctx, user); err != nil {
			return types.External(err, "failed to create user %s", name)
		}
		return nil
	})
	if err != nil {
		return nil, types.AsAPIError(err)
	}

	logrus.WithFields(logrus.Fields{"user_id": user.ID, "name": user.Name}).Info("User created")
	return user, nil
}

func (s *UserService) Rename(ctx context.Context, id uint32, name string) (*models.User, error) {
	var user *models.User
	err := s.store.Transaction(ctx, func(tx *database.Store) error {
		u, err := tx.Users.GetUser(ctx, id)
		if err != nil {
			return types.External(err, "failed to get user %d", id)
		}
		if u == nil {
			return types.NotFound("User %d not found.", id)
		}
		user = u
		if u.Name == name {
			return nil
		}

		existing, err := tx.Users.GetUserByName(ctx, name)
		if err != nil {
			return types.External(err, "failed to look up user %s", name)
		}
		if existing != nil {
			return types.InvalidArgument("User name '%s' already exists.", name)
		}
		if err := tx.Users.UpdateUserName(ctx, id, name); err != nil {
			return types.External(err, "failed to rename user %d", id)
		}
		u.Name = name
		return nil
	})
	if err != nil {
		return nil, types.AsAPIError(err)
	}
	return user, nil
}

func (s *UserService) List(ctx context.Context) ([]models.User, error) {
	users, err := s.store.Users.ListUsers(ctx)
	if err != nil {
		return nil, types.External(err, "failed to list users")
	}
	if users == nil {
		users = []models.User{}
	}
	return users, nil
}

// EnsureRoot creates user 0 named root on an empty user table.
func (s *UserService) EnsureRoot(ctx context.Context) error {
	if _, ok, err := s.store.Users.MaxUserID(ctx); err != nil {
		return types.External(err, "failed to inspect users")
	} else if ok {
		return nil
	}
	_, err := s.Create(ctx, RootUserName)
	return err
}
