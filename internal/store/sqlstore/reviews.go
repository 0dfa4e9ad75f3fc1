package sqlstore

import (
	"context"
	"fmt"
	"time"

	"gamerank/backend/internal/models"
	"gamerank/backend/internal/store"

	"gorm.io/gorm"
)

type reviewRepo struct {
	db *gorm.DB
}

func (r reviewRepo) ListByGame(ctx context.Context, gameCode int) ([]models.Review, error) {
	var reviews []models.Review
	err := r.db.WithContext(ctx).
		Where("game_code = ?", gameCode).
		Order("reviewed_at DESC").Order("serie DESC").
		Find(&reviews).Error
	return reviews, err
}

func (r reviewRepo) Get(ctx context.Context, gameCode, serie int) (models.Review, error) {
	var review models.Review
	err := r.db.WithContext(ctx).Where("game_code = ? AND serie = ?", gameCode, serie).First(&review).Error
	return review, translate(err)
}

func (r reviewRepo) Create(ctx context.Context, review *models.Review) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var existing int64
		if err := tx.Model(&models.Review{}).
			Where("game_code = ? AND author = ?", review.GameCode, review.Author).
			Count(&existing).Error; err != nil {
			return err
		}
		if existing > 0 {
			return fmt.Errorf("%w: %s already reviewed game %d", store.ErrConflict, review.Author, review.GameCode)
		}

		floor, err := maxColumn(tx, &models.Review{}, "serie", "game_code = ?", review.GameCode)
		if err != nil {
			return err
		}
		serie, err := nextValue(tx, store.ReviewSeq(review.GameCode), floor)
		if err != nil {
			return err
		}
		review.Serie = serie
		if review.ReviewedAt.IsZero() {
			review.ReviewedAt = time.Now()
		}
		return translate(tx.Create(review).Error)
	})
}

func (r reviewRepo) Update(ctx context.Context, gameCode, serie int, patch models.ReviewPatch) (models.Review, error) {
	var review models.Review
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("game_code = ? AND serie = ?", gameCode, serie).First(&review).Error; err != nil {
			return translate(err)
		}
		patch.Apply(&review)
		return tx.Save(&review).Error
	})
	return review, err
}

func (r reviewRepo) Delete(ctx context.Context, gameCode, serie int) error {
	result := r.db.WithContext(ctx).Where("game_code = ? AND serie = ?", gameCode, serie).Delete(&models.Review{})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return store.ErrNotFound
	}
	return nil
}

func (r reviewRepo) Stats(ctx context.Context) (map[int]models.ReviewStats, error) {
	var rows []models.ReviewStats
	err := r.db.WithContext(ctx).Model(&models.Review{}).
		Select("game_code, COUNT(*) AS count, AVG(rating) AS average").
		Group("game_code").
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}
	stats := make(map[int]models.ReviewStats, len(rows))
	for _, row := range rows {
		stats[row.GameCode] = row
	}
	return stats, nil
}
