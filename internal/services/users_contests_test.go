package services

import (
	"context"
	"testing"
	"time"

	"judgecore/internal/database"
	"judgecore/internal/ids"
	"judgecore/internal/models"
	"judgecore/internal/testutil"
	"judgecore/pkg/types"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestUserService(t *testing.T) {
	ctx := context.Background()
	store := database.NewStore(testutil.NewTestDB(t))
	alloc := ids.NewAllocator()
	users := NewUserService(store, alloc)

	require.NoError(t, users.EnsureRoot(ctx))
	require.NoError(t, users.EnsureRoot(ctx), "root is only created once")

	alice, err := users.Save(ctx, &types.PostUserRequest{Name: "alice"})
	require.NoError(t, err)
	assert.Equal(t, uint32(1), alice.ID)

	_, err = users.Save(ctx, &types.PostUserRequest{Name: "alice"})
	assert.True(t, types.IsKind(err, types.KindInvalidArgument))

	bob, err := users.Save(ctx, &types.PostUserRequest{Name: "bob"})
	require.NoError(t, err)
	assert.Equal(t, uint32(3), bob.ID, "the rejected create consumed id 2")

	renamed, err := users.Save(ctx, &types.PostUserRequest{ID: &alice.ID, Name: "alicia"})
	require.NoError(t, err)
	assert.Equal(t, models.User{ID: 1, Name: "alicia"}, *renamed)

	_, err = users.Rename(ctx, bob.ID, "alicia")
	assert.True(t, types.IsKind(err, types.KindInvalidArgument))

	same, err := users.Rename(ctx, bob.ID, "bob")
	require.NoError(t, err, "renaming to the current name is a no-op")
	assert.Equal(t, "bob", same.Name)

	_, err = users.Rename(ctx, 42, "ghost")
	assert.True(t, types.IsKind(err, types.KindNotFound))

	all, err := users.List(ctx)
	require.NoError(t, err)
	assert.Equal(t, []models.User{{ID: 0, Name: RootUserName}, {ID: 1, Name: "alicia"}, {ID: 3, Name: "bob"}}, all)
}

func TestContestService(t *testing.T) {
	ctx := context.Background()
	store := database.NewStore(testutil.NewTestDB(t))
	alloc := ids.NewAllocator()
	contests := NewContestService(store, testutil.SampleCatalog(t), alloc)

	testutil.CreateUser(t, store, alloc, "root")
	alice := testutil.CreateUser(t, store, alloc, "alice")

	from := models.FormatTime(contestStart)
	to := models.FormatTime(contestStart.Add(time.Hour))
	valid := func() *types.PostContestRequest {
		return &types.PostContestRequest{
			Name:            "weekly",
			From:            from,
			To:              to,
			ProblemIDs:      []uint32{testutil.ProblemEcho, testutil.ProblemAPlusB},
			UserIDs:         []uint32{alice.ID},
			SubmissionLimit: 3,
		}
	}

	created, err := contests.Save(ctx, valid())
	require.NoError(t, err)
	assert.Equal(t, uint32(1), created.ID, "contest ids start after the practice contest")

	u32 := func(v uint32) *uint32 { return &v }
	tests := []struct {
		name     string
		mutate   func(r *types.PostContestRequest)
		wantKind types.ErrorKind
	}{
		{"unknown problem", func(r *types.PostContestRequest) { r.ProblemIDs = []uint32{99} }, types.KindNotFound},
		{"unknown user", func(r *types.PostContestRequest) { r.UserIDs = []uint32{99} }, types.KindNotFound},
		{"duplicate problem", func(r *types.PostContestRequest) { r.ProblemIDs = []uint32{1, 1} }, types.KindInvalidArgument},
		{"duplicate user", func(r *types.PostContestRequest) { r.UserIDs = []uint32{alice.ID, alice.ID} }, types.KindInvalidArgument},
		{"malformed time", func(r *types.PostContestRequest) { r.From = "yesterday" }, types.KindInvalidArgument},
		{"reversed window", func(r *types.PostContestRequest) { r.From, r.To = r.To, r.From }, types.KindInvalidArgument},
		{"update practice contest", func(r *types.PostContestRequest) { r.ID = u32(0) }, types.KindInvalidArgument},
		{"update unknown contest", func(r *types.PostContestRequest) { r.ID = u32(7) }, types.KindNotFound},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := valid()
			tt.mutate(req)
			_, err := contests.Save(ctx, req)
			require.Error(t, err)
			assert.True(t, types.IsKind(err, tt.wantKind), "got %v", err)
		})
	}

	update := valid()
	update.ID = &created.ID
	update.Name = "weekly #2"
	update.UserIDs = []uint32{}
	updated, err := contests.Save(ctx, update)
	require.NoError(t, err)
	assert.Equal(t, "weekly #2", updated.Name)

	got, err := contests.Get(ctx, created.ID)
	require.NoError(t, err)
	assert.Equal(t, updated, got)

	_, err = contests.Get(ctx, 5)
	assert.True(t, types.IsKind(err, types.KindNotFound))

	list, err := contests.List(ctx)
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Empty(t, list[0].UserIDs)
}
