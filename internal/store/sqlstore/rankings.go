package sqlstore

import (
	"context"
	"errors"
	"time"

	"gamerank/backend/internal/models"
	"gamerank/backend/internal/store"

	"gorm.io/datatypes"
	"gorm.io/gorm"
)

type rankingRepo struct {
	db *gorm.DB
}

func (r rankingRepo) ListByCategory(ctx context.Context, categoryCode int) ([]models.Ranking, error) {
	var rankings []models.Ranking
	err := r.db.WithContext(ctx).Where("category_code = ?", categoryCode).Order("code").Find(&rankings).Error
	return rankings, err
}

func (r rankingRepo) ListByAuthor(ctx context.Context, author string) ([]models.Ranking, error) {
	var rankings []models.Ranking
	err := r.db.WithContext(ctx).Where("author = ?", author).Order("category_code").Find(&rankings).Error
	return rankings, err
}

func (r rankingRepo) Get(ctx context.Context, author string, categoryCode int) (models.Ranking, error) {
	var ranking models.Ranking
	err := r.db.WithContext(ctx).Where("author = ? AND category_code = ?", author, categoryCode).First(&ranking).Error
	return ranking, translate(err)
}

// Upsert overwrites the author's list for the category or creates it. When a
// concurrent first save wins the insert, the update is retried once so the
// later write still lands.
func (r rankingRepo) Upsert(ctx context.Context, author string, categoryCode int, games []int) (models.Ranking, bool, error) {
	list := datatypes.JSONSlice[int](append([]int{}, games...))
	ranking, created, err := r.save(ctx, author, categoryCode, list)
	if errors.Is(err, store.ErrConflict) {
		ranking, created, err = r.save(ctx, author, categoryCode, list)
	}
	return ranking, created, err
}

func (r rankingRepo) save(ctx context.Context, author string, categoryCode int, list datatypes.JSONSlice[int]) (models.Ranking, bool, error) {
	var (
		ranking models.Ranking
		created bool
	)
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		err := tx.Where("author = ? AND category_code = ?", author, categoryCode).First(&ranking).Error
		if err == nil {
			ranking.RankedGames = list
			ranking.RankedAt = time.Now()
			return tx.Save(&ranking).Error
		}
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			return err
		}

		floor, err := maxColumn(tx, &models.Ranking{}, "code")
		if err != nil {
			return err
		}
		code, err := nextValue(tx, store.SeqRankings, floor)
		if err != nil {
			return err
		}
		ranking = models.Ranking{
			Code:         code,
			Author:       author,
			CategoryCode: categoryCode,
			RankedAt:     time.Now(),
			RankedGames:  list,
		}
		created = true
		return translate(tx.Create(&ranking).Error)
	})
	if err != nil {
		return models.Ranking{}, false, err
	}
	return ranking, created, nil
}

func (r rankingRepo) Delete(ctx context.Context, author string, categoryCode int) error {
	result := r.db.WithContext(ctx).
		Where("author = ? AND category_code = ?", author, categoryCode).
		Delete(&models.Ranking{})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return store.ErrNotFound
	}
	return nil
}

func (r rankingRepo) CountByCategory(ctx context.Context) (map[int]int, error) {
	var rows []struct {
		CategoryCode int
		Count        int
	}
	err := r.db.WithContext(ctx).Model(&models.Ranking{}).
		Select("category_code, COUNT(*) AS count").
		Group("category_code").
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}
	counts := make(map[int]int, len(rows))
	for _, row := range rows {
		counts[row.CategoryCode] = row.Count
	}
	return counts, nil
}
