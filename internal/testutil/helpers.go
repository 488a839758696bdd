// Package testutil builds in-process judge environments for tests.
package testutil

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"judgecore/internal/config"
	"judgecore/internal/database"
	"judgecore/internal/ids"
	"judgecore/internal/models"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
)

// Problem ids available in SampleCatalog.
const (
	ProblemAPlusB uint32 = 0
	ProblemEcho   uint32 = 1
	ProblemSort   uint32 = 2
)

const LanguageShell = "Shell"

func SampleCatalog(t *testing.T) *config.Catalog {
	catalog, err := config.NewCatalog(
		[]config.Problem{
			{ID: ProblemAPlusB, Name: "aplusb", Type: config.ProblemTypeStandard, Cases: []config.Case{
				{Score: 50, InputFile: "1.in", AnswerFile: "1.ans", TimeLimit: 1_000_000},
				{Score: 50, InputFile: "2.in", AnswerFile: "2.ans", TimeLimit: 1_000_000},
			}},
			{ID: ProblemEcho, Name: "echo", Type: config.ProblemTypeStrict, Cases: []config.Case{
				{Score: 100, InputFile: "echo.in", AnswerFile: "echo.ans", TimeLimit: 1_000_000},
			}},
			{ID: ProblemSort, Name: "sort", Type: config.ProblemTypeStandard},
		},
		[]config.Language{
			{Name: LanguageShell, FileName: "main.sh", Command: []string{"cp", "%INPUT%", "%OUTPUT%"}},
			{Name: "C++", FileName: "main.cpp", Command: []string{"g++", "-O2", "-o", "%OUTPUT%", "%INPUT%"}},
		},
	)
	require.NoError(t, err, "Failed to build sample catalog")
	return catalog
}

// NewTestDB opens a private in-memory sqlite database with the schema applied.
func NewTestDB(t *testing.T) *database.GormDB {
	db, err := database.NewGormConnection(database.Config{
		Driver: database.DriverSQLite,
		Path:   fmt.Sprintf("file:%s?mode=memory&cache=shared", uuid.NewString()),
	})
	require.NoError(t, err, "Failed to open test database")
	require.NoError(t, db.AutoMigrate(), "Failed to run database migrations")

	t.Cleanup(func() { db.Close() })
	return db
}

// Clock is a settable time source.
type Clock struct {
	mu  sync.Mutex
	now time.Time
}

func NewClock(now time.Time) *Clock {
	return &Clock{now: now}
}

func (c *Clock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *Clock) Set(now time.Time) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = now
}

// Advance moves the clock forward and returns the new time.
func (c *Clock) Advance(d time.Duration) time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
	return c.now
}

// RecordingDispatcher captures dispatched execution requests instead of running them.
type RecordingDispatcher struct {
	mu       sync.Mutex
	requests []*models.ExecutionRequest
	Err      error
}

func (d *RecordingDispatcher) Dispatch(ctx context.Context, req *models.ExecutionRequest) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.Err != nil {
		return d.Err
	}
	d.requests = append(d.requests, req)
	return nil
}

func (d *RecordingDispatcher) Requests() []*models.ExecutionRequest {
	d.mu.Lock()
	defer d.mu.Unlock()
	out := make([]*models.ExecutionRequest, len(d.requests))
	copy(out, d.requests)
	return out
}

func (d *RecordingDispatcher) Last() *models.ExecutionRequest {
	d.mu.Lock()
	defer d.mu.Unlock()
	if len(d.requests) == 0 {
		return nil
	}
	return d.requests[len(d.requests)-1]
}

// CreateUser inserts a user directly, consuming an allocator id.
func CreateUser(t *testing.T, store *database.Store, alloc *ids.Allocator, name string) *models.User {
	user := &models.User{ID: alloc.Next(ids.KindUser), Name: name}
	require.NoError(t, store.Users.CreateUser(context.Background(), user), "Failed to create user %s", name)
	return user
}

// CreateContest inserts a contest directly, consuming an allocator id.
func CreateContest(t *testing.T, store *database.Store, alloc *ids.Allocator, from, to time.Time, limit uint32, problemIDs, userIDs []uint32) *models.Contest {
	contest := &models.Contest{
		ID:              alloc.Next(ids.KindContest),
		Name:            fmt.Sprintf("contest-%d", alloc.Peek(ids.KindContest)),
		From:            models.FormatTime(from),
		To:              models.FormatTime(to),
		ProblemIDs:      problemIDs,
		UserIDs:         userIDs,
		SubmissionLimit: limit,
	}
	require.NoError(t, store.Contests.CreateContest(context.Background(), contest), "Failed to create contest")
	return contest
}
