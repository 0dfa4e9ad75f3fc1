package sqlstore

import (
	"context"

	"gamerank/backend/internal/models"
	"gamerank/backend/internal/store"

	"gorm.io/gorm"
)

type userRepo struct {
	db *gorm.DB
}

func (r userRepo) Create(ctx context.Context, u *models.User) error {
	if u.Role == "" {
		u.Role = models.RoleClient
	}
	return translate(r.db.WithContext(ctx).Create(u).Error)
}

func (r userRepo) GetByUsername(ctx context.Context, username string) (models.User, error) {
	var user models.User
	err := r.db.WithContext(ctx).Where("username = ?", username).First(&user).Error
	return user, translate(err)
}

func (r userRepo) GetByLogin(ctx context.Context, login string) (models.User, error) {
	var user models.User
	err := r.db.WithContext(ctx).Where("username = ? OR email = ?", login, login).First(&user).Error
	return user, translate(err)
}

func (r userRepo) List(ctx context.Context) ([]models.User, error) {
	var users []models.User
	err := r.db.WithContext(ctx).Order("id DESC").Find(&users).Error
	return users, err
}

func (r userRepo) Update(ctx context.Context, username string, patch models.UserPatch) (models.User, error) {
	var user models.User
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("username = ?", username).First(&user).Error; err != nil {
			return translate(err)
		}
		patch.Apply(&user)
		return tx.Save(&user).Error
	})
	return user, err
}

func (r userRepo) Delete(ctx context.Context, username string) error {
	result := r.db.WithContext(ctx).Where("username = ?", username).Delete(&models.User{})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return store.ErrNotFound
	}
	return nil
}
