package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"

	"judgecore/internal/config"
	"judgecore/internal/database"
	"judgecore/internal/ids"
	"judgecore/internal/logging"
	"judgecore/internal/services"
	"judgecore/pkg/types"

	"github.com/sirupsen/logrus"
)

// Fixture lists users to create and contests to create over them. Contest
// members are named rather than numbered since ids are issued on import.
type Fixture struct {
	Users    []string         `json:"users"`
	Contests []FixtureContest `json:"contests"`
}

type FixtureContest struct {
	Name            string   `json:"name"`
	From            string   `json:"from"`
	To              string   `json:"to"`
	ProblemIDs      []uint32 `json:"problem_ids"`
	UserNames       []string `json:"user_names"`
	SubmissionLimit uint32   `json:"submission_limit"`
}

func main() {
	if len(os.Args) != 2 {
		fmt.Println("Usage: go run ./cmd/import-contests <fixture.json>")
		fmt.Println("Example: go run ./cmd/import-contests ./data/weekly.json")
		os.Exit(1)
	}

	cfg, err := config.Load()
	if err != nil {
		logrus.WithError(err).Fatal("Failed to load configuration")
	}
	logging.Setup(cfg.Logging.Level, cfg.Logging.Format)

	data, err := os.ReadFile(os.Args[1])
	if err != nil {
		logrus.WithError(err).Fatal("Failed to read fixture")
	}
	var fixture Fixture
	if err := json.Unmarshal(data, &fixture); err != nil {
		logrus.WithError(err).Fatal("Failed to parse fixture")
	}

	catalog, err := config.LoadCatalog(cfg.Judge.CatalogPath)
	if err != nil {
		logrus.WithError(err).Fatal("Failed to load catalog")
	}

	db, err := database.NewGormConnection(database.Config{
		Driver:   cfg.Database.Driver,
		Path:     cfg.Database.Path,
		Host:     cfg.Database.Host,
		Port:     cfg.Database.Port,
		User:     cfg.Database.User,
		Password: cfg.Database.Password,
		DBName:   cfg.Database.DBName,
		SSLMode:  cfg.Database.SSLMode,
	})
	if err != nil {
		logrus.WithError(err).Fatal("Failed to connect to database")
	}
	defer db.Close()

	if err := db.AutoMigrate(); err != nil {
		logrus.WithError(err).Fatal("Failed to run auto-migration")
	}

	ctx := context.Background()
	store := database.NewStore(db)
	alloc := ids.NewAllocator()
	if err := store.SeedAllocator(ctx, alloc); err != nil {
		logrus.WithError(err).Fatal("Failed to seed id allocator")
	}

	users := services.NewUserService(store, alloc)
	contests := services.NewContestService(store, catalog, alloc)
	if err := importFixture(ctx, users, contests, &fixture); err != nil {
		logrus.WithError(err).Fatal("Failed to import fixture")
	}

	fmt.Printf("Successfully imported %d users and %d contests from %s\n",
		len(fixture.Users), len(fixture.Contests), os.Args[1])
}

// importFixture creates the fixture's users, reusing any that already exist
// by name, then its contests.
func importFixture(ctx context.Context, users *services.UserService, contests *services.ContestService, fixture *Fixture) error {
	existing, err := users.List(ctx)
	if err != nil {
		return err
	}
	byName := make(map[string]uint32, len(existing))
	for _, u := range existing {
		byName[u.Name] = u.ID
	}

	for _, name := range fixture.Users {
		if _, ok := byName[name]; ok {
			fmt.Printf("User %s already exists, skipping\n", name)
			continue
		}
		user, err := users.Create(ctx, name)
		if err != nil {
			return fmt.Errorf("failed to create user %s: %w", name, err)
		}
		byName[name] = user.ID
		fmt.Printf("Created user: %s (ID: %d)\n", user.Name, user.ID)
	}

	for _, fc := range fixture.Contests {
		userIDs := make([]uint32, 0, len(fc.UserNames))
		for _, name := range fc.UserNames {
			id, ok := byName[name]
			if !ok {
				return fmt.Errorf("contest %s references unknown user %s", fc.Name, name)
			}
			userIDs = append(userIDs, id)
		}

		contest, err := contests.Create(ctx, &types.PostContestRequest{
			Name:            fc.Name,
			From:            fc.From,
			To:              fc.To,
			ProblemIDs:      fc.ProblemIDs,
			UserIDs:         userIDs,
			SubmissionLimit: fc.SubmissionLimit,
		})
		if err != nil {
			return fmt.Errorf("failed to create contest %s: %w", fc.Name, err)
		}
		fmt.Printf("Created contest: %s (ID: %d) with %d problems and %d users\n",
			contest.Name, contest.ID, len(contest.ProblemIDs), len(contest.UserIDs))
	}

	return nil
}
