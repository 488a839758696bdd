package services

import (
	"context"
	"sort"
	"time"

	"judgecore/internal/config"
	"judgecore/internal/database"
	"judgecore/internal/metrics"
	"judgecore/internal/models"
	"judgecore/pkg/types"
)

type ScoringRule string

const (
	ScoringRuleLatest  ScoringRule = "latest"
	ScoringRuleHighest ScoringRule = "highest"
)

type TieBreaker string

const (
	TieBreakerSubmissionTime  TieBreaker = "submission_time"
	TieBreakerSubmissionCount TieBreaker = "submission_count"
	TieBreakerUserID          TieBreaker = "user_id"
	TieBreakerNone            TieBreaker = "none"
)

// ParseScoringRule maps a query value to a rule; empty means highest.
func ParseScoringRule(s string) (ScoringRule, error) {
	switch ScoringRule(s) {
	case "":
		return ScoringRuleHighest, nil
	case ScoringRuleLatest, ScoringRuleHighest:
		return ScoringRule(s), nil
	}
	return "", types.InvalidArgument("Unknown scoring rule %q.", s)
}

// ParseTieBreaker maps a query value to a tie breaker; empty means none.
func ParseTieBreaker(s string) (TieBreaker, error) {
	switch TieBreaker(s) {
	case "":
		return TieBreakerNone, nil
	case TieBreakerSubmissionTime, TieBreakerSubmissionCount, TieBreakerUserID, TieBreakerNone:
		return TieBreaker(s), nil
	}
	return "", types.InvalidArgument("Unknown tie breaker %q.", s)
}

type RanklistService struct {
	store   *database.Store
	catalog *config.Catalog
}

func NewRanklistService(store *database.Store, catalog *config.Catalog) *RanklistService {
	return &RanklistService{store: store, catalog: catalog}
}

// Compute ranks the users of a contest from its finished jobs. Contest 0
// ranks every user over every catalog problem using all finished jobs.
func (s *RanklistService) Compute(ctx context.Context, contestID uint32, scoringRule, tieBreaker string) ([]types.RankEntry, error) {
	start := time.Now()
	defer func() { metrics.RecordRanklistLatency(time.Since(start)) }()

	rule, err := ParseScoringRule(scoringRule)
	if err != nil {
		return nil, err
	}
	tb, err := ParseTieBreaker(tieBreaker)
	if err != nil {
		return nil, err
	}

	var (
		users      []types.RankUser
		problemIDs []uint32
		jobs       []models.Job
	)

	if contestID == models.PracticeContestID {
		all, err := s.store.Users.ListUsers(ctx)
		if err != nil {
			return nil, types.External(err, "failed to list users")
		}
		for _, u := range all {
			users = append(users, types.RankUser{ID: u.ID, Name: u.Name})
		}
		problemIDs = s.catalog.ProblemIDs()

		finished := models.JobStateFinished
		jobs, err = s.store.Jobs.ListJobs(ctx, database.JobQuery{State: &finished})
		if err != nil {
			return nil, types.External(err, "failed to list jobs")
		}
	} else {
		contest, err := s.store.Contests.GetContest(ctx, contestID)
		if err != nil {
			return nil, types.External(err, "failed to get contest %d", contestID)
		}
		if contest == nil {
			return nil, types.NotFound("Contest %d not found.", contestID)
		}

		byID, err := s.store.Users.GetUsers(ctx, contest.UserIDs)
		if err != nil {
			return nil, types.External(err, "failed to load contest users")
		}
		for _, id := range contest.UserIDs {
			users = append(users, types.RankUser{ID: id, Name: byID[id].Name})
		}
		problemIDs = contest.ProblemIDs

		jobs, err = s.store.Jobs.FinishedJobsByContest(ctx, contestID)
		if err != nil {
			return nil, types.External(err, "failed to list contest jobs")
		}
	}

	return BuildRanklist(users, problemIDs, jobs, rule, tb), nil
}

type rankRow struct {
	entry    types.RankEntry
	count    int
	earliest string
}

// BuildRanklist aggregates finished jobs into ranked entries. users and
// problemIDs fix the candidate set and the column order; jobs by users or
// problems outside them are ignored.
func BuildRanklist(users []types.RankUser, problemIDs []uint32, jobs []models.Job, rule ScoringRule, tb TieBreaker) []types.RankEntry {
	userIndex := make(map[uint32]int, len(users))
	for i, u := range users {
		userIndex[u.ID] = i
	}
	problemIndex := make(map[uint32]int, len(problemIDs))
	for i, id := range problemIDs {
		problemIndex[id] = i
	}

	reps := make([][]*models.Job, len(users))
	for i := range reps {
		reps[i] = make([]*models.Job, len(problemIDs))
	}
	counts := make([]int, len(users))

	for i := range jobs {
		job := &jobs[i]
		if job.State != models.JobStateFinished {
			continue
		}
		u, ok := userIndex[job.UserID]
		if !ok {
			continue
		}
		p, ok := problemIndex[job.ProblemID]
		if !ok {
			continue
		}
		counts[u]++

		current := reps[u][p]
		switch {
		case current == nil:
			reps[u][p] = job
		case rule == ScoringRuleLatest:
			if submittedBefore(current, job) {
				reps[u][p] = job
			}
		default:
			if job.Score > current.Score || (job.Score == current.Score && submittedBefore(job, current)) {
				reps[u][p] = job
			}
		}
	}

	rows := make([]rankRow, len(users))
	for i, u := range users {
		row := rankRow{
			entry: types.RankEntry{User: u, Scores: make([]float64, len(problemIDs))},
			count: counts[i],
		}
		for p, rep := range reps[i] {
			if rep == nil {
				continue
			}
			row.entry.Scores[p] = rep.Score
			row.entry.TotalScore += rep.Score
			if row.earliest == "" || rep.CreatedTime < row.earliest {
				row.earliest = rep.CreatedTime
			}
		}
		rows[i] = row
	}

	sort.SliceStable(rows, func(a, b int) bool {
		ra, rb := &rows[a], &rows[b]
		if ra.entry.TotalScore != rb.entry.TotalScore {
			return ra.entry.TotalScore > rb.entry.TotalScore
		}
		return tieCompare(ra, rb, tb) < 0
	})

	out := make([]types.RankEntry, len(rows))
	for i := range rows {
		rank := i + 1
		if i > 0 && rows[i].entry.TotalScore == rows[i-1].entry.TotalScore && tieCompare(&rows[i-1], &rows[i], tb) == 0 {
			rank = out[i-1].Rank
		}
		rows[i].entry.Rank = rank
		out[i] = rows[i].entry
	}
	return out
}

// tieCompare orders two rows with equal totals. Zero means they share a rank.
func tieCompare(a, b *rankRow, tb TieBreaker) int {
	switch tb {
	case TieBreakerSubmissionTime:
		// users without any submission sort after those with one
		switch {
		case a.earliest == b.earliest:
			return 0
		case a.earliest == "":
			return 1
		case b.earliest == "":
			return -1
		case a.earliest < b.earliest:
			return -1
		default:
			return 1
		}
	case TieBreakerSubmissionCount:
		return a.count - b.count
	case TieBreakerUserID:
		switch {
		case a.entry.User.ID < b.entry.User.ID:
			return -1
		case a.entry.User.ID > b.entry.User.ID:
			return 1
		}
		return 0
	}
	return 0
}

func submittedBefore(a, b *models.Job) bool {
	if a.CreatedTime != b.CreatedTime {
		return a.CreatedTime < b.CreatedTime
	}
	return a.ID < b.ID
}
