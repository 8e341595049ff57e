package repositories

import (
	"context"
	"errors"
	"fmt"

	"stakepot/internal/models"
	"stakepot/internal/repositories/cache"

	"gorm.io/gorm"
)

var ErrAdminNotFound = errors.New("admin not found")

// AdminRepository defines database operations for admin accounts.
type AdminRepository interface {
	Create(admin *models.Admin) error
	GetByID(id uint) (*models.Admin, error)
	GetByEmail(email string) (*models.Admin, error)
	Update(admin *models.Admin) error
	IncrementTokenVersion(id uint) error
}

type adminRepository struct {
	db    *gorm.DB
	cache *cache.CacheService
}

func NewAdminRepository(db *gorm.DB, cacheService *cache.CacheService) AdminRepository {
	return &adminRepository{db: db, cache: cacheService}
}

func (r *adminRepository) Create(admin *models.Admin) error {
	if err := r.db.Create(admin).Error; err != nil {
		return fmt.Errorf("failed to create admin: %w", err)
	}
	return nil
}

func (r *adminRepository) GetByID(id uint) (*models.Admin, error) {
	if r.cache != nil {
		var cached models.Admin
		key := r.cache.GenerateKey("admin", "id", id)
		if found, _ := r.cache.Get(context.Background(), key, &cached); found {
			return &cached, nil
		}
	}

	var admin models.Admin
	if err := r.db.First(&admin, id).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, ErrAdminNotFound
		}
		return nil, fmt.Errorf("failed to get admin: %w", err)
	}

	if r.cache != nil {
		r.cache.Set(context.Background(), r.cache.GenerateKey("admin", "id", id), &admin)
	}
	return &admin, nil
}

func (r *adminRepository) GetByEmail(email string) (*models.Admin, error) {
	var admin models.Admin
	if err := r.db.Where("email = ?", email).First(&admin).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, ErrAdminNotFound
		}
		return nil, fmt.Errorf("failed to get admin: %w", err)
	}
	return &admin, nil
}

func (r *adminRepository) Update(admin *models.Admin) error {
	if err := r.db.Save(admin).Error; err != nil {
		return fmt.Errorf("failed to update admin: %w", err)
	}
	r.invalidate(admin.ID)
	return nil
}

func (r *adminRepository) IncrementTokenVersion(id uint) error {
	result := r.db.Model(&models.Admin{}).
		Where("id = ?", id).
		UpdateColumn("token_version", gorm.Expr("token_version + 1"))
	if result.Error != nil {
		return fmt.Errorf("failed to increment token version: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return ErrAdminNotFound
	}
	r.invalidate(id)
	return nil
}

func (r *adminRepository) invalidate(id uint) {
	if r.cache != nil {
		r.cache.Delete(context.Background(), r.cache.GenerateKey("admin", "id", id))
	}
}
