// Package sqlstore implements store.Store on gorm, for PostgreSQL and SQLite.
package sqlstore

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"gamerank/backend/internal/database"
	"gamerank/backend/internal/models"
	"gamerank/backend/internal/store"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// Store is a store.Store backed by gorm.
type Store struct {
	DB *gorm.DB
}

// New wraps an already migrated connection.
func New(db *gorm.DB) *Store {
	return &Store{DB: db}
}

// Open connects, migrates and wraps the database.
func Open(driver, dsn string) (*Store, error) {
	db, err := database.Connect(driver, dsn)
	if err != nil {
		return nil, err
	}
	return New(db), nil
}

func (s *Store) Categories() store.CategoryRepo { return categoryRepo{db: s.DB} }
func (s *Store) Games() store.GameRepo         { return gameRepo{db: s.DB} }
func (s *Store) Reviews() store.ReviewRepo     { return reviewRepo{db: s.DB} }
func (s *Store) Rankings() store.RankingRepo   { return rankingRepo{db: s.DB} }
func (s *Store) Users() store.UserRepo         { return userRepo{db: s.DB} }

func (s *Store) Close(context.Context) error {
	sqlDB, err := s.DB.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

// translate maps gorm errors onto the store sentinels.
func translate(err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, gorm.ErrRecordNotFound):
		return store.ErrNotFound
	case errors.Is(err, gorm.ErrDuplicatedKey), isUniqueViolation(err):
		return fmt.Errorf("%w: %v", store.ErrConflict, err)
	default:
		return err
	}
}

func isUniqueViolation(err error) bool {
	msg := err.Error()
	return strings.Contains(msg, "UNIQUE constraint failed") ||
		strings.Contains(msg, "duplicate key value")
}

// nextValue increments the named sequence and returns the new value. The
// sequence never hands out a value at or below floor, which callers set to the
// largest code already stored. Must run inside a transaction: the UPDATE holds
// the row lock until commit, so concurrent callers get distinct values.
func nextValue(tx *gorm.DB, name string, floor int) (int, error) {
	seq := models.Sequence{Name: name, Value: 0}
	if err := tx.Clauses(clause.OnConflict{DoNothing: true}).Create(&seq).Error; err != nil {
		return 0, fmt.Errorf("init sequence %s: %w", name, err)
	}
	if err := tx.Model(&models.Sequence{}).
		Where("name = ? AND value < ?", name, floor).
		Update("value", floor).Error; err != nil {
		return 0, fmt.Errorf("floor sequence %s: %w", name, err)
	}
	if err := tx.Model(&models.Sequence{}).
		Where("name = ?", name).
		Update("value", gorm.Expr("value + 1")).Error; err != nil {
		return 0, fmt.Errorf("advance sequence %s: %w", name, err)
	}
	var out models.Sequence
	if err := tx.Where("name = ?", name).First(&out).Error; err != nil {
		return 0, fmt.Errorf("read sequence %s: %w", name, err)
	}
	return out.Value, nil
}

// maxColumn returns MAX(column) over the model's rows matching the optional condition.
func maxColumn(tx *gorm.DB, model any, column string, conds ...any) (int, error) {
	var max int
	q := tx.Model(model).Select("COALESCE(MAX(" + column + "), 0)")
	if len(conds) > 0 {
		q = q.Where(conds[0], conds[1:]...)
	}
	if err := q.Scan(&max).Error; err != nil {
		return 0, err
	}
	return max, nil
}
