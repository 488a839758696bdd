package database

import (
	"context"
	"database/sql"
	"fmt"

	"judgecore/internal/ids"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// Store groups the repositories over one connection handle. Inside
// Transaction the handle is the transaction itself, so every statement issued
// through the tx Store commits or rolls back together.
type Store struct {
	db       *GormDB
	conn     *gorm.DB
	lockRows bool

	Users    *UserRepository
	Contests *ContestRepository
	Jobs     *JobRepository
}

func NewStore(db *GormDB) *Store {
	return newStore(db, db.DB, false)
}

func newStore(db *GormDB, conn *gorm.DB, lockRows bool) *Store {
	return &Store{
		db:       db,
		conn:     conn,
		lockRows: lockRows,
		Users:    &UserRepository{conn: conn},
		Contests: &ContestRepository{conn: conn, lockRows: lockRows},
		Jobs:     &JobRepository{conn: conn, lockRows: lockRows},
	}
}

// Transaction runs fn against a Store bound to a single transaction. On
// postgres, contest and job rows read inside it are locked FOR UPDATE.
func (s *Store) Transaction(ctx context.Context, fn func(tx *Store) error) error {
	return s.conn.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(newStore(s.db, tx, s.db.Driver() == DriverPostgres))
	})
}

func (s *Store) DB() *GormDB {
	return s.db
}

// SeedAllocator raises alloc past every id already persisted, so a restarted
// server never reissues one.
func (s *Store) SeedAllocator(ctx context.Context, alloc *ids.Allocator) error {
	seeds := []struct {
		kind ids.Kind
		max  func(context.Context) (uint32, bool, error)
	}{
		{ids.KindUser, s.Users.MaxUserID},
		{ids.KindContest, s.Contests.MaxContestID},
		{ids.KindJob, s.Jobs.MaxJobID},
	}
	for _, seed := range seeds {
		max, ok, err := seed.max(ctx)
		if err != nil {
			return fmt.Errorf("failed to read max %s id: %w", seed.kind, err)
		}
		if ok {
			alloc.Seed(seed.kind, max+1)
		}
	}
	return nil
}

func lockingFor(conn *gorm.DB, lock bool) *gorm.DB {
	if lock {
		return conn.Clauses(clause.Locking{Strength: "UPDATE"})
	}
	return conn
}

func maxID(ctx context.Context, conn *gorm.DB, model interface{}) (uint32, bool, error) {
	var max sql.NullInt64
	err := conn.WithContext(ctx).Model(model).Select("MAX(id)").Scan(&max).Error
	if err != nil {
		return 0, false, err
	}
	if !max.Valid {
		return 0, false, nil
	}
	return uint32(max.Int64), true, nil
}
