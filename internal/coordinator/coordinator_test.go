package coordinator_test

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"judgecore/internal/coordinator"
	"judgecore/internal/database"
	"judgecore/internal/ids"
	"judgecore/internal/models"
	"judgecore/internal/services"
	"judgecore/internal/testutil"
	"judgecore/pkg/types"
	"judgecore/pkg/utils"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestResultProcessorAppliesAndPublishes(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	store := database.NewStore(testutil.NewTestDB(t))
	alloc := ids.NewAllocator()
	dispatcher := &testutil.RecordingDispatcher{}
	jobs := services.NewJobService(store, testutil.SampleCatalog(t), alloc, dispatcher, nil)
	user := testutil.CreateUser(t, store, alloc, "alice")

	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	defer client.Close()
	notifier := utils.NewRedisClient(client)

	verdicts := notifier.SubscribeToVerdictUpdates(ctx, models.PracticeContestID)
	defer verdicts.Close()
	_, err := verdicts.Receive(ctx)
	require.NoError(t, err, "subscription confirmed")

	job, err := jobs.Submit(ctx, &types.PostJobRequest{
		SourceCode: "cat", Language: testutil.LanguageShell, UserID: user.ID, ProblemID: testutil.ProblemEcho,
	})
	require.NoError(t, err)

	results := make(chan *models.ExecutionResult, 2)
	processor := coordinator.NewResultProcessor(jobs, notifier)
	done := make(chan struct{})
	go func() {
		processor.Run(ctx, results)
		close(done)
	}()

	// stale generation first, then the real one
	results <- &models.ExecutionResult{JobID: job.ID, Generation: 7, Result: models.JobResultWrongAnswer}
	results <- &models.ExecutionResult{JobID: job.ID, Generation: 0, Result: models.JobResultAccepted, Score: 100}
	close(results)

	select {
	case <-done:
	case <-time.After(5 * time.Second):
		t.Fatal("processor did not drain results")
	}

	got, err := jobs.Get(ctx, job.ID)
	require.NoError(t, err)
	assert.Equal(t, models.JobStateFinished, got.State)
	assert.Equal(t, models.JobResultAccepted, got.Result)

	msg, err := verdicts.ReceiveMessage(ctx)
	require.NoError(t, err)
	var update types.VerdictUpdate
	require.NoError(t, json.Unmarshal([]byte(msg.Payload), &update))
	assert.Equal(t, types.VerdictUpdate{
		JobID: job.ID, UserID: user.ID, ContestID: 0, ProblemID: testutil.ProblemEcho,
		Result: models.JobResultAccepted, Score: 100,
	}, update)
}

func TestResultProcessorWithoutNotifier(t *testing.T) {
	ctx := context.Background()
	store := database.NewStore(testutil.NewTestDB(t))
	alloc := ids.NewAllocator()
	jobs := services.NewJobService(store, testutil.SampleCatalog(t), alloc, &testutil.RecordingDispatcher{}, nil)

	processor := coordinator.NewResultProcessor(jobs, nil)
	err := processor.Handle(ctx, &models.ExecutionResult{JobID: 3})
	require.Error(t, err)
	assert.True(t, types.IsKind(err, types.KindNotFound))
}
