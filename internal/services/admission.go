package services

import (
	"context"
	"time"

	"judgecore/internal/config"
	"judgecore/internal/database"
	"judgecore/internal/models"
	"judgecore/pkg/types"
)

// AdmissionStore is the read side of the data store that admission needs.
type AdmissionStore interface {
	GetUser(ctx context.Context, id uint32) (*models.User, error)
	GetContest(ctx context.Context, id uint32) (*models.Contest, error)
	CountJobs(ctx context.Context, userID, problemID, contestID uint32) (int64, error)
}

type storeAdmission struct {
	store *database.Store
}

// NewAdmissionStore adapts a Store (usually one bound to a transaction).
func NewAdmissionStore(store *database.Store) AdmissionStore {
	return storeAdmission{store: store}
}

func (a storeAdmission) GetUser(ctx context.Context, id uint32) (*models.User, error) {
	return a.store.Users.GetUser(ctx, id)
}

func (a storeAdmission) GetContest(ctx context.Context, id uint32) (*models.Contest, error) {
	return a.store.Contests.GetContest(ctx, id)
}

func (a storeAdmission) CountJobs(ctx context.Context, userID, problemID, contestID uint32) (int64, error) {
	return a.store.Jobs.CountJobs(ctx, userID, problemID, contestID)
}

// AdmissionController decides whether a submission may be queued. It has no
// side effects; checks run in a fixed order and the first failure wins.
type AdmissionController struct {
	catalog *config.Catalog
	now     func() time.Time
}

func NewAdmissionController(catalog *config.Catalog, now func() time.Time) *AdmissionController {
	if now == nil {
		now = time.Now
	}
	return &AdmissionController{catalog: catalog, now: now}
}

// Validate returns the catalog problem the request targets when it is admitted.
func (a *AdmissionController) Validate(ctx context.Context, store AdmissionStore, req *types.PostJobRequest) (*config.Problem, error) {
	if _, ok := a.catalog.Language(req.Language); !ok {
		return nil, types.NotFound("Language %s not found.", req.Language)
	}

	problem, ok := a.catalog.Problem(req.ProblemID)
	if !ok {
		return nil, types.NotFound("Problem %d not found.", req.ProblemID)
	}

	user, err := store.GetUser(ctx, req.UserID)
	if err != nil {
		return nil, types.External(err, "failed to load user %d", req.UserID)
	}
	if user == nil {
		return nil, types.NotFound("User %d not found.", req.UserID)
	}

	if req.ContestID == models.PracticeContestID {
		return problem, nil
	}

	contest, err := store.GetContest(ctx, req.ContestID)
	if err != nil {
		return nil, types.External(err, "failed to load contest %d", req.ContestID)
	}
	if contest == nil {
		return nil, types.NotFound("Contest %d not found.", req.ContestID)
	}

	if !contest.HasUser(req.UserID) {
		return nil, types.InvalidArgument("User %d is not registered in contest %d.", req.UserID, req.ContestID)
	}
	if !contest.HasProblem(req.ProblemID) {
		return nil, types.InvalidArgument("Problem %d is not in contest %d.", req.ProblemID, req.ContestID)
	}

	// the time window is only enforced for rate-limited contests
	if contest.SubmissionLimit == 0 {
		return problem, nil
	}

	count, err := store.CountJobs(ctx, req.UserID, req.ProblemID, req.ContestID)
	if err != nil {
		return nil, types.External(err, "failed to count submissions")
	}
	if count >= int64(contest.SubmissionLimit) {
		return nil, types.RateLimit("Too many submissions.")
	}

	now := models.FormatTime(a.now())
	if now < contest.From {
		return nil, types.InvalidArgument("The contest has not started yet.")
	}
	if now > contest.To {
		return nil, types.InvalidArgument("The contest has already finished.")
	}

	return problem, nil
}
