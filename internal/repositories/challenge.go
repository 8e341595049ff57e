package repositories

import (
	"context"
	"errors"
	"fmt"

	"stakepot/internal/models"

	"gorm.io/gorm"
)

var ErrChallengeNotFound = errors.New("challenge not found")

// ChallengeRepository defines database operations for challenges.
type ChallengeRepository interface {
	Create(challenge *models.Challenge) error
	GetByID(id uint) (*models.Challenge, error)
	Update(challenge *models.Challenge) error
	List(ctx context.Context, adminID uint, status string, limit, offset int) ([]models.Challenge, error)
}

type challengeRepository struct {
	db *gorm.DB
}

func NewChallengeRepository(db *gorm.DB) ChallengeRepository {
	return &challengeRepository{db: db}
}

func (r *challengeRepository) Create(challenge *models.Challenge) error {
	if err := r.db.Create(challenge).Error; err != nil {
		return fmt.Errorf("failed to create challenge: %w", err)
	}
	return nil
}

func (r *challengeRepository) GetByID(id uint) (*models.Challenge, error) {
	var challenge models.Challenge
	if err := r.db.First(&challenge, id).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, ErrChallengeNotFound
		}
		return nil, fmt.Errorf("failed to get challenge: %w", err)
	}
	return &challenge, nil
}

func (r *challengeRepository) Update(challenge *models.Challenge) error {
	if err := r.db.Save(challenge).Error; err != nil {
		return fmt.Errorf("failed to update challenge: %w", err)
	}
	return nil
}

func (r *challengeRepository) List(ctx context.Context, adminID uint, status string, limit, offset int) ([]models.Challenge, error) {
	var challenges []models.Challenge
	q := r.db.WithContext(ctx).Where("admin_id = ?", adminID)
	if status != "" {
		q = q.Where("status = ?", status)
	}
	err := q.Order("created_at DESC").
		Limit(limit).
		Offset(offset).
		Find(&challenges).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list challenges: %w", err)
	}
	return challenges, nil
}
