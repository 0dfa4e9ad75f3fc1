package sqlstore

import (
	"context"
	"errors"
	"sort"
	"strings"

	"gamerank/backend/internal/models"
	"gamerank/backend/internal/store"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type gameRepo struct {
	db *gorm.DB
}

func (r gameRepo) List(ctx context.Context, filter models.GameFilter) ([]models.Game, error) {
	db := r.db.WithContext(ctx)
	query := db.Model(&models.Game{})

	// Filter by categories
	if len(filter.CategoryCodes) > 0 {
		members := db.Table("game_categories").
			Select("game_categories.game_id").
			Joins("JOIN categories ON categories.id = game_categories.category_id").
			Where("categories.code IN ?", filter.CategoryCodes)
		query = query.Where("games.id IN (?)", members)
	}

	// Filter by name
	if q := strings.TrimSpace(filter.Query); q != "" {
		query = query.Where("LOWER(games.name) LIKE ?", "%"+strings.ToLower(q)+"%")
	}

	var games []models.Game
	if err := query.Preload("Categories", byCode).Order("games.code").Find(&games).Error; err != nil {
		return nil, err
	}

	// Platforms live in a JSON column; match them here so every dialect agrees.
	out := games[:0]
	for _, g := range games {
		if filter.Match(g) {
			out = append(out, g)
		}
	}
	return out, nil
}

func (r gameRepo) Get(ctx context.Context, code int) (models.Game, error) {
	var game models.Game
	err := r.db.WithContext(ctx).Preload("Categories", byCode).Where("code = ?", code).First(&game).Error
	return game, translate(err)
}

func (r gameRepo) GetBySlug(ctx context.Context, slug string) (models.Game, error) {
	var game models.Game
	err := r.db.WithContext(ctx).Preload("Categories", byCode).Where("slug = ?", slug).Order("code").First(&game).Error
	return game, translate(err)
}

func (r gameRepo) Platforms(ctx context.Context) ([]string, error) {
	var games []models.Game
	if err := r.db.WithContext(ctx).Select("platforms").Find(&games).Error; err != nil {
		return nil, err
	}
	return distinctPlatforms(games), nil
}

func distinctPlatforms(games []models.Game) []string {
	seen := make(map[string]bool)
	platforms := []string{}
	for _, g := range games {
		for _, p := range g.Platforms {
			if p != "" && !seen[p] {
				seen[p] = true
				platforms = append(platforms, p)
			}
		}
	}
	sort.Strings(platforms)
	return platforms
}

func (r gameRepo) Create(ctx context.Context, code int, patch models.GamePatch) (models.Game, error) {
	var game models.Game
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return createGame(tx, code, patch, &game)
	})
	return game, err
}

func createGame(tx *gorm.DB, code int, patch models.GamePatch, game *models.Game) error {
	if code == 0 {
		floor, err := maxColumn(tx, &models.Game{}, "code")
		if err != nil {
			return err
		}
		if code, err = nextValue(tx, store.SeqGames, floor); err != nil {
			return err
		}
	}
	*game = models.Game{Code: code}
	patch.Apply(game)

	if patch.Categories != nil {
		categories, err := findCategories(tx, *patch.Categories)
		if err != nil {
			return err
		}
		game.Categories = categories
	}
	return translate(tx.Create(game).Error)
}

func (r gameRepo) Update(ctx context.Context, code int, patch models.GamePatch) (models.Game, error) {
	var game models.Game
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Preload("Categories", byCode).Where("code = ?", code).First(&game).Error; err != nil {
			return translate(err)
		}
		return updateGame(tx, patch, &game)
	})
	return game, err
}

func updateGame(tx *gorm.DB, patch models.GamePatch, game *models.Game) error {
	patch.Apply(game)
	if err := tx.Omit(clause.Associations).Save(game).Error; err != nil {
		return translate(err)
	}
	if patch.Categories == nil {
		return nil
	}

	categories, err := findCategories(tx, *patch.Categories)
	if err != nil {
		return err
	}
	// Replace association
	if err := tx.Model(game).Association("Categories").Replace(categories); err != nil {
		return err
	}
	game.Categories = categories
	return nil
}

func (r gameRepo) Upsert(ctx context.Context, code int, patch models.GamePatch) (models.Game, bool, error) {
	var (
		game    models.Game
		created bool
	)
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		err := tx.Preload("Categories", byCode).Where("code = ?", code).First(&game).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			created = true
			return createGame(tx, code, patch, &game)
		}
		if err != nil {
			return err
		}
		return updateGame(tx, patch, &game)
	})
	return game, created, err
}

func (r gameRepo) Delete(ctx context.Context, code int) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var game models.Game
		if err := tx.Where("code = ?", code).First(&game).Error; err != nil {
			return translate(err)
		}
		if err := tx.Where("game_code = ?", code).Delete(&models.Review{}).Error; err != nil {
			return err
		}
		return tx.Select("Categories").Delete(&game).Error
	})
}

// findCategories loads the categories with the given codes, ordered by code.
// Unknown codes are skipped.
func findCategories(tx *gorm.DB, codes []int) ([]*models.Category, error) {
	categories := []*models.Category{}
	if len(codes) == 0 {
		return categories, nil
	}
	err := tx.Where("code IN ?", codes).Order("code").Find(&categories).Error
	return categories, err
}

func byCode(db *gorm.DB) *gorm.DB {
	return db.Order("code")
}
