package sqlstore

import (
	"context"
	"errors"

	"gamerank/backend/internal/models"
	"gamerank/backend/internal/store"

	"gorm.io/gorm"
)

type categoryRepo struct {
	db *gorm.DB
}

func (r categoryRepo) List(ctx context.Context) ([]models.Category, error) {
	var categories []models.Category
	err := r.db.WithContext(ctx).Order("code").Find(&categories).Error
	return categories, err
}

func (r categoryRepo) Get(ctx context.Context, code int) (models.Category, error) {
	var category models.Category
	err := r.db.WithContext(ctx).Where("code = ?", code).First(&category).Error
	return category, translate(err)
}

func (r categoryRepo) GetBySlug(ctx context.Context, slug string) (models.Category, error) {
	var category models.Category
	err := r.db.WithContext(ctx).Where("slug = ?", slug).Order("code").First(&category).Error
	return category, translate(err)
}

func (r categoryRepo) Create(ctx context.Context, c *models.Category) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return createCategory(tx, c)
	})
}

func createCategory(tx *gorm.DB, c *models.Category) error {
	if c.Code == 0 {
		floor, err := maxColumn(tx, &models.Category{}, "code")
		if err != nil {
			return err
		}
		code, err := nextValue(tx, store.SeqCategories, floor)
		if err != nil {
			return err
		}
		c.Code = code
	}
	models.CategoryPatch{}.Apply(c)
	return translate(tx.Create(c).Error)
}

func (r categoryRepo) Update(ctx context.Context, code int, patch models.CategoryPatch) (models.Category, error) {
	var category models.Category
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("code = ?", code).First(&category).Error; err != nil {
			return translate(err)
		}
		patch.Apply(&category)
		return translate(tx.Save(&category).Error)
	})
	return category, err
}

func (r categoryRepo) Upsert(ctx context.Context, code int, patch models.CategoryPatch) (models.Category, bool, error) {
	var (
		category models.Category
		created  bool
	)
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		err := tx.Where("code = ?", code).First(&category).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			category = models.NewCategory(code, patch)
			created = true
			return createCategory(tx, &category)
		}
		if err != nil {
			return err
		}
		patch.Apply(&category)
		return translate(tx.Save(&category).Error)
	})
	return category, created, err
}

func (r categoryRepo) Delete(ctx context.Context, code int) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var category models.Category
		if err := tx.Where("code = ?", code).First(&category).Error; err != nil {
			return translate(err)
		}
		if err := tx.Exec("DELETE FROM game_categories WHERE category_id = ?", category.ID).Error; err != nil {
			return err
		}
		if err := tx.Where("category_code = ?", code).Delete(&models.Ranking{}).Error; err != nil {
			return err
		}
		return tx.Delete(&category).Error
	})
}
