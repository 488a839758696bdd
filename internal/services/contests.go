package services

import (
	"context"

	"judgecore/internal/config"
	"judgecore/internal/database"
	"judgecore/internal/ids"
	"judgecore/internal/models"
	"judgecore/pkg/types"

	"github.com/sirupsen/logrus"
)

type ContestService struct {
	store   *database.Store
	catalog *config.Catalog
	alloc   *ids.Allocator
}

func NewContestService(store *database.Store, catalog *config.Catalog, alloc *ids.Allocator) *ContestService {
	return &ContestService{store: store, catalog: catalog, alloc: alloc}
}

// Save creates a contest when req.ID is nil and replaces one otherwise.
func (s *ContestService) Save(ctx context.Context, req *types.PostContestRequest) (*models.Contest, error) {
	if req.ID != nil {
		return s.Update(ctx, *req.ID, req)
	}
	return s.Create(ctx, req)
}

func (s *ContestService) Create(ctx context.Context, req *types.PostContestRequest) (*models.Contest, error) {
	var contest *models.Contest
	err := s.store.Transaction(ctx, func(tx *database.Store) error {
		if err := s.validate(ctx, tx, req); err != nil {
			return err
		}
		contest = ConvertContestRequest(s.alloc.Next(ids.KindContest), req)
		if err := tx.Contests.CreateContest(ctx, contest); err != nil {
			return types.External(err, "failed to create contest")
		}
		return nil
	})
	if err != nil {
		return nil, types.AsAPIError(err)
	}

	logrus.WithFields(logrus.Fields{
		"contest_id": contest.ID,
		"problems":   len(contest.ProblemIDs),
		"users":      len(contest.UserIDs),
	}).Info("Contest created")
	return contest, nil
}

// Update replaces every mutable field of contest id. The practice contest
// cannot be updated.
func (s *ContestService) Update(ctx context.Context, id uint32, req *types.PostContestRequest) (*models.Contest, error) {
	var contest *models.Contest
	err := s.store.Transaction(ctx, func(tx *database.Store) error {
		if err := s.validate(ctx, tx, req); err != nil {
			return err
		}
		if id == models.PracticeContestID {
			return types.InvalidArgument("Cannot change contest 0.")
		}

		existing, err := tx.Contests.GetContest(ctx, id)
		if err != nil {
			return types.External(err, "failed to get contest %d", id)
		}
		if existing == nil {
			return types.NotFound("Contest %d not found.", id)
		}

		contest = ConvertContestRequest(id, req)
		if err := tx.Contests.SaveContest(ctx, contest); err != nil {
			return types.External(err, "failed to update contest %d", id)
		}
		return nil
	})
	if err != nil {
		return nil, types.AsAPIError(err)
	}
	return contest, nil
}

func (s *ContestService) Get(ctx context.Context, id uint32) (*models.Contest, error) {
	contest, err := s.store.Contests.GetContest(ctx, id)
	if err != nil {
		return nil, types.External(err, "failed to get contest %d", id)
	}
	if contest == nil {
		return nil, types.NotFound("Contest %d not found.", id)
	}
	return contest, nil
}

func (s *ContestService) List(ctx context.Context) ([]models.Contest, error) {
	contests, err := s.store.Contests.ListContests(ctx)
	if err != nil {
		return nil, types.External(err, "failed to list contests")
	}
	if contests == nil {
		contests = []models.Contest{}
	}
	return contests, nil
}

func (s *ContestService) validate(ctx context.Context, tx *database.Store, req *types.PostContestRequest) error {
	seenProblems := make(map[uint32]bool, len(req.ProblemIDs))
	for _, id := range req.ProblemIDs {
		if _, ok := s.catalog.Problem(id); !ok {
			return types.NotFound("Problem %d not found.", id)
		}
		if seenProblems[id] {
			return types.InvalidArgument("Problem %d is listed twice.", id)
		}
		seenProblems[id] = true
	}

	users, err := tx.Users.GetUsers(ctx, req.UserIDs)
	if err != nil {
		return types.External(err, "failed to load contest users")
	}
	seenUsers := make(map[uint32]bool, len(req.UserIDs))
	for _, id := range req.UserIDs {
		if _, ok := users[id]; !ok {
			return types.NotFound("User %d not found.", id)
		}
		if seenUsers[id] {
			return types.InvalidArgument("User %d is listed twice.", id)
		}
		seenUsers[id] = true
	}

	if !models.ValidTime(req.From) || !models.ValidTime(req.To) {
		return types.InvalidArgument("Invalid contest time range.")
	}
	if req.From > req.To {
		return types.InvalidArgument("Contest ends before it starts.")
	}
	return nil
}
