package repository

import (
	"context"
	"errors"
	"time"

	"atelier/internal/models"

	"gorm.io/gorm"
)

// XpRepository defines read-side persistence operations for the XP ledger.
// Ledger inserts always run inside the XP service's transactions; this
// interface never exposes an update or delete on transactions.
type XpRepository interface {
	GetProfile(ctx context.Context, userID uint) (*models.XpProfile, error)
	ListTransactions(ctx context.Context, userID uint, limit, offset int) ([]models.XpTransaction, error)
	ListActiveBoosts(ctx context.Context, userID uint, now time.Time) ([]models.XpBoost, error)
	CreateBoost(ctx context.Context, boost *models.XpBoost) error
	DeactivateBoost(ctx context.Context, id uint) error
}

type xpRepository struct {
	db *gorm.DB
}

// NewXpRepository returns a new XpRepository implementation.
func NewXpRepository(db *gorm.DB) XpRepository {
	return &xpRepository{db: db}
}

func (r *xpRepository) GetProfile(ctx context.Context, userID uint) (*models.XpProfile, error) {
	var profile models.XpProfile
	err := r.db.WithContext(ctx).Where("user_id = ?", userID).First(&profile).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			// A user with no transactions has an implicit zero profile.
			return &models.XpProfile{UserID: userID, TotalXp: 0}, nil
		}
		return nil, models.NewInternalError(err)
	}
	return &profile, nil
}

func (r *xpRepository) ListTransactions(ctx context.Context, userID uint, limit, offset int) ([]models.XpTransaction, error) {
	var txs []models.XpTransaction
	err := r.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("created_at desc, id desc").
		Limit(limit).Offset(offset).
		Find(&txs).Error
	if err != nil {
		return nil, models.NewInternalError(err)
	}
	return txs, nil
}

func (r *xpRepository) ListActiveBoosts(ctx context.Context, userID uint, now time.Time) ([]models.XpBoost, error) {
	var boosts []models.XpBoost
	err := r.db.WithContext(ctx).
		Where("is_active = ?", true).
		Where("starts_at <= ? AND ends_at >= ?", now, now).
		Where("user_id IS NULL OR user_id = ?", userID).
		Find(&boosts).Error
	if err != nil {
		return nil, models.NewInternalError(err)
	}
	return boosts, nil
}

func (r *xpRepository) CreateBoost(ctx context.Context, boost *models.XpBoost) error {
	if err := r.db.WithContext(ctx).Create(boost).Error; err != nil {
		return models.NewInternalError(err)
	}
	return nil
}

func (r *xpRepository) DeactivateBoost(ctx context.Context, id uint) error {
	result := r.db.WithContext(ctx).Model(&models.XpBoost{}).
		Where("id = ?", id).
		Update("is_active", false)
	if result.Error != nil {
		return models.NewInternalError(result.Error)
	}
	if result.RowsAffected == 0 {
		return models.NewNotFoundError("Boost", id)
	}
	return nil
}
