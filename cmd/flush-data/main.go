package main

import (
	"context"
	"fmt"
	"os"

	"judgecore/internal/config"
	"judgecore/internal/database"
	"judgecore/internal/logging"
	"judgecore/internal/models"

	"github.com/sirupsen/logrus"
)

func main() {
	if len(os.Args) != 2 || os.Args[1] != "--yes" {
		fmt.Println("Usage: go run ./cmd/flush-data --yes")
		fmt.Println("Deletes every persisted user, contest and job.")
		os.Exit(1)
	}

	cfg, err := config.Load()
	if err != nil {
		logrus.WithError(err).Fatal("Failed to load configuration")
	}
	logging.Setup(cfg.Logging.Level, cfg.Logging.Format)

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

	counts := make(map[string]int64, 3)
	for name, model := range map[string]interface{}{"users": &models.User{}, "contests": &models.Contest{}, "jobs": &models.Job{}} {
		var n int64
		if err := db.WithContext(ctx).Model(model).Count(&n).Error; err != nil {
			logrus.WithError(err).Fatalf("Failed to count %s", name)
		}
		counts[name] = n
	}

	if err := db.Flush(ctx); err != nil {
		logrus.WithError(err).Fatal("Failed to flush data")
	}

	fmt.Printf("Deleted %d users, %d contests and %d jobs\n", counts["users"], counts["contests"], counts["jobs"])
}
