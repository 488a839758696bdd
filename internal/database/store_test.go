package database_test

import (
	"context"
	"errors"
	"testing"

	"judgecore/internal/database"
	"judgecore/internal/ids"
	"judgecore/internal/models"
	"judgecore/internal/testutil"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newJob(id, userID, problemID, contestID uint32, created string) *models.Job {
	return &models.Job{
		ID:          id,
		CreatedTime: created,
		UpdatedTime: created,
		UserID:      userID,
		ProblemID:   problemID,
		ContestID:   contestID,
		Language:    "Shell",
		SourceCode:  "cat",
		State:       models.JobStateQueued,
		Result:      models.JobResultWaiting,
		Cases:       models.WaitingCases(2),
	}
}

func TestUserRepository(t *testing.T) {
	ctx := context.Background()
	store := database.NewStore(testutil.NewTestDB(t))

	_, ok, err := store.Users.MaxUserID(ctx)
	require.NoError(t, err)
	assert.False(t, ok, "empty table has no max id")

	require.NoError(t, store.Users.CreateUser(ctx, &models.User{ID: 0, Name: "root"}))
	require.NoError(t, store.Users.CreateUser(ctx, &models.User{ID: 4, Name: "alice"}))
	assert.Error(t, store.Users.CreateUser(ctx, &models.User{ID: 5, Name: "alice"}), "names are unique")

	u, err := store.Users.GetUser(ctx, 0)
	require.NoError(t, err)
	require.NotNil(t, u)
	assert.Equal(t, "root", u.Name)

	missing, err := store.Users.GetUser(ctx, 99)
	require.NoError(t, err)
	assert.Nil(t, missing)

	require.NoError(t, store.Users.UpdateUserName(ctx, 4, "bob"))
	byName, err := store.Users.GetUserByName(ctx, "bob")
	require.NoError(t, err)
	require.NotNil(t, byName)
	assert.Equal(t, uint32(4), byName.ID)

	users, err := store.Users.ListUsers(ctx)
	require.NoError(t, err)
	assert.Equal(t, []models.User{{ID: 0, Name: "root"}, {ID: 4, Name: "bob"}}, users)

	max, ok, err := store.Users.MaxUserID(ctx)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, uint32(4), max)
}

func TestContestRepositoryRoundTripsIDLists(t *testing.T) {
	ctx := context.Background()
	store := database.NewStore(testutil.NewTestDB(t))

	contest := &models.Contest{
		ID:              1,
		Name:            "weekly",
		From:            "2022-08-27T02:05:29.000Z",
		To:              "2022-08-27T03:05:29.000Z",
		ProblemIDs:      []uint32{2, 0, 1},
		UserIDs:         []uint32{3, 1},
		SubmissionLimit: 2,
	}
	require.NoError(t, store.Contests.CreateContest(ctx, contest))

	got, err := store.Contests.GetContest(ctx, 1)
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, contest, got, "declaration order of id lists is preserved")

	got.Name = "renamed"
	got.UserIDs = []uint32{1}
	require.NoError(t, store.Contests.SaveContest(ctx, got))

	contests, err := store.Contests.ListContests(ctx)
	require.NoError(t, err)
	require.Len(t, contests, 1)
	assert.Equal(t, "renamed", contests[0].Name)
	assert.Equal(t, []uint32{1}, contests[0].UserIDs)
}

func TestJobRepositoryFilters(t *testing.T) {
	ctx := context.Background()
	store := database.NewStore(testutil.NewTestDB(t))

	jobs := []*models.Job{
		newJob(0, 1, 0, 0, "2022-08-27T02:00:00.000Z"),
		newJob(1, 1, 1, 3, "2022-08-27T02:10:00.000Z"),
		newJob(2, 2, 0, 3, "2022-08-27T02:20:00.000Z"),
		newJob(3, 1, 0, 3, "2022-08-27T02:30:00.000Z"),
	}
	jobs[2].State = models.JobStateFinished
	jobs[2].Result = models.JobResultAccepted
	for _, j := range jobs {
		require.NoError(t, store.Jobs.CreateJob(ctx, j))
	}

	ids := func(js []models.Job) []uint32 {
		out := []uint32{}
		for _, j := range js {
			out = append(out, j.ID)
		}
		return out
	}
	u32 := func(v uint32) *uint32 { return &v }
	str := func(v string) *string { return &v }
	finished := models.JobStateFinished
	accepted := models.JobResultAccepted

	tests := []struct {
		name  string
		query database.JobQuery
		want  []uint32
	}{
		{"no filter", database.JobQuery{}, []uint32{0, 1, 2, 3}},
		{"user", database.JobQuery{UserID: u32(1)}, []uint32{0, 1, 3}},
		{"user and contest", database.JobQuery{UserID: u32(1), ContestID: u32(3)}, []uint32{1, 3}},
		{"problem", database.JobQuery{ProblemID: u32(0)}, []uint32{0, 2, 3}},
		{"inclusive bounds", database.JobQuery{From: str("2022-08-27T02:10:00.000Z"), To: str("2022-08-27T02:20:00.000Z")}, []uint32{1, 2}},
		{"state", database.JobQuery{State: &finished}, []uint32{2}},
		{"result", database.JobQuery{Result: &accepted}, []uint32{2}},
		{"language", database.JobQuery{Language: str("Rust")}, []uint32{}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := store.Jobs.ListJobs(ctx, tt.query)
			require.NoError(t, err)
			assert.Equal(t, tt.want, ids(got))
		})
	}

	count, err := store.Jobs.CountJobs(ctx, 1, 0, 3)
	require.NoError(t, err)
	assert.Equal(t, int64(1), count)

	finishedJobs, err := store.Jobs.FinishedJobsByContest(ctx, 3)
	require.NoError(t, err)
	assert.Equal(t, []uint32{2}, ids(finishedJobs))

	got, err := store.Jobs.GetJob(ctx, 1)
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, models.WaitingCases(2), got.Cases)
}

func TestTransactionRollsBack(t *testing.T) {
	ctx := context.Background()
	db := testutil.NewTestDB(t)
	store := database.NewStore(db)

	sentinel := errors.New("abort")
	err := store.Transaction(ctx, func(tx *database.Store) error {
		require.NoError(t, tx.Users.CreateUser(ctx, &models.User{ID: 7, Name: "ghost"}))
		return sentinel
	})
	assert.ErrorIs(t, err, sentinel)

	u, err := store.Users.GetUser(ctx, 7)
	require.NoError(t, err)
	assert.Nil(t, u)

	require.NoError(t, store.Users.CreateUser(ctx, &models.User{ID: 1, Name: "kept"}))
	require.NoError(t, store.Jobs.CreateJob(ctx, newJob(0, 1, 0, 0, "2022-08-27T02:00:00.000Z")))
	require.NoError(t, db.Flush(ctx))

	users, err := store.Users.ListUsers(ctx)
	require.NoError(t, err)
	assert.Empty(t, users)
}

func TestSeedAllocatorResumesAfterPersistedIDs(t *testing.T) {
	ctx := context.Background()
	store := database.NewStore(testutil.NewTestDB(t))

	alloc := ids.NewAllocator()
	require.NoError(t, store.SeedAllocator(ctx, alloc))
	assert.Equal(t, uint32(0), alloc.Peek(ids.KindUser))
	assert.Equal(t, uint32(1), alloc.Peek(ids.KindContest), "empty store keeps contest 0 reserved")
	assert.Equal(t, uint32(0), alloc.Peek(ids.KindJob))

	require.NoError(t, store.Users.CreateUser(ctx, &models.User{ID: 4, Name: "dora"}))
	require.NoError(t, store.Jobs.CreateJob(ctx, newJob(11, 4, 0, 0, "2022-08-27T02:00:00.000Z")))

	alloc = ids.NewAllocator()
	require.NoError(t, store.SeedAllocator(ctx, alloc))
	assert.Equal(t, uint32(5), alloc.Peek(ids.KindUser))
	assert.Equal(t, uint32(1), alloc.Peek(ids.KindContest))
	assert.Equal(t, uint32(12), alloc.Peek(ids.KindJob))
}

func TestSaveJobUpdatesJobZeroInPlace(t *testing.T) {
	ctx := context.Background()
	store := database.NewStore(testutil.NewTestDB(t))

	job := newJob(0, 1, 0, 0, "2022-08-27T02:00:00.000Z")
	require.NoError(t, store.Jobs.CreateJob(ctx, job))

	job.State = models.JobStateFinished
	job.Result = models.JobResultAccepted
	job.Score = 100
	job.Generation = 2
	job.Cases[1].Result = models.JobResultAccepted
	job.UpdatedTime = "2022-08-27T02:01:00.000Z"
	require.NoError(t, store.Jobs.SaveJob(ctx, job))

	all, err := store.Jobs.ListJobs(ctx, database.JobQuery{})
	require.NoError(t, err)
	require.Len(t, all, 1, "saving job 0 must not insert a second row")
	assert.Equal(t, *job, all[0])

	// zero values are written too
	job.State = models.JobStateQueued
	job.Result = models.JobResultWaiting
	job.Score = 0
	job.Cases = models.WaitingCases(2)
	require.NoError(t, store.Jobs.SaveJob(ctx, job))

	got, err := store.Jobs.GetJob(ctx, 0)
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, *job, *got)
}
