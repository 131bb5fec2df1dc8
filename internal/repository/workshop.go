package repository

import (
	"context"
	"errors"
	"strings"

	"atelier/internal/cache"
	"atelier/internal/models"

	"gorm.io/gorm"
)

// WorkshopRepository defines persistence operations for workshops.
type WorkshopRepository interface {
	Create(ctx context.Context, workshop *models.Workshop) error
	GetByID(ctx context.Context, id uint) (*models.Workshop, error)
	GetBySlug(ctx context.Context, slug string) (*models.Workshop, error)
	Update(ctx context.Context, workshop *models.Workshop) error
	Delete(ctx context.Context, id uint) error
	ListPublished(ctx context.Context, limit, offset int) ([]models.Workshop, error)
	ListByCreator(ctx context.Context, creatorID uint, limit, offset int) ([]models.Workshop, error)
	ListByCommunity(ctx context.Context, communityID uint, limit, offset int) ([]models.Workshop, error)
	Search(ctx context.Context, query string, limit, offset int) ([]models.Workshop, error)
	AddCoHost(ctx context.Context, workshopID, userID uint) error
	RemoveCoHost(ctx context.Context, workshopID, userID uint) error
	IsCoHost(ctx context.Context, workshopID, userID uint) (bool, error)
}

type workshopRepository struct {
	db *gorm.DB
}

// NewWorkshopRepository returns a new WorkshopRepository implementation.
func NewWorkshopRepository(db *gorm.DB) WorkshopRepository {
	return &workshopRepository{db: db}
}

func (r *workshopRepository) Create(ctx context.Context, workshop *models.Workshop) error {
	if err := r.db.WithContext(ctx).Create(workshop).Error; err != nil {
		if isUniqueConstraintError(err) {
			return models.NewValidationError("A workshop with this slug already exists")
		}
		return models.NewInternalError(err)
	}
	return nil
}

func (r *workshopRepository) GetByID(ctx context.Context, id uint) (*models.Workshop, error) {
	var workshop models.Workshop
	key := cache.WorkshopCardKey(id)

	err := cache.Aside(ctx, key, &workshop, cache.WorkshopCardTTL, func() error {
		if err := r.db.WithContext(ctx).Preload("CoHosts").First(&workshop, id).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return models.NewNotFoundError("Workshop", id)
			}
			return models.NewInternalError(err)
		}
		return nil
	})

	if err != nil {
		return nil, err
	}
	return &workshop, nil
}

func (r *workshopRepository) GetBySlug(ctx context.Context, slug string) (*models.Workshop, error) {
	var workshop models.Workshop
	if err := r.db.WithContext(ctx).Preload("CoHosts").Where("slug = ?", slug).First(&workshop).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, models.NewNotFoundError("Workshop", slug)
		}
		return nil, models.NewInternalError(err)
	}
	return &workshop, nil
}

func (r *workshopRepository) Update(ctx context.Context, workshop *models.Workshop) error {
	if err := r.db.WithContext(ctx).Save(workshop).Error; err != nil {
		return models.NewInternalError(err)
	}
	cache.InvalidateWorkshop(ctx, workshop.ID)
	return nil
}

func (r *workshopRepository) Delete(ctx context.Context, id uint) error {
	if err := r.db.WithContext(ctx).Delete(&models.Workshop{}, id).Error; err != nil {
		return models.NewInternalError(err)
	}
	cache.InvalidateWorkshop(ctx, id)
	return nil
}

func (r *workshopRepository) ListPublished(ctx context.Context, limit, offset int) ([]models.Workshop, error) {
	var workshops []models.Workshop
	err := r.db.WithContext(ctx).
		Where("status = ?", models.WorkshopStatusPublished).
		Order("starts_at asc").
		Limit(limit).Offset(offset).
		Find(&workshops).Error
	if err != nil {
		return nil, models.NewInternalError(err)
	}
	return workshops, nil
}

func (r *workshopRepository) ListByCreator(ctx context.Context, creatorID uint, limit, offset int) ([]models.Workshop, error) {
	var workshops []models.Workshop
	err := r.db.WithContext(ctx).
		Where("creator_id = ?", creatorID).
		Order("starts_at desc").
		Limit(limit).Offset(offset).
		Find(&workshops).Error
	if err != nil {
		return nil, models.NewInternalError(err)
	}
	return workshops, nil
}

func (r *workshopRepository) ListByCommunity(ctx context.Context, communityID uint, limit, offset int) ([]models.Workshop, error) {
	var workshops []models.Workshop
	err := r.db.WithContext(ctx).
		Where("community_id = ? AND status = ?", communityID, models.WorkshopStatusPublished).
		Order("starts_at asc").
		Limit(limit).Offset(offset).
		Find(&workshops).Error
	if err != nil {
		return nil, models.NewInternalError(err)
	}
	return workshops, nil
}

func (r *workshopRepository) Search(ctx context.Context, query string, limit, offset int) ([]models.Workshop, error) {
	var workshops []models.Workshop
	pattern := "%" + strings.ToLower(strings.TrimSpace(query)) + "%"
	err := r.db.WithContext(ctx).
		Where("status = ?", models.WorkshopStatusPublished).
		Where("LOWER(title) LIKE ? OR LOWER(description) LIKE ?", pattern, pattern).
		Order("starts_at asc").
		Limit(limit).Offset(offset).
		Find(&workshops).Error
	if err != nil {
		return nil, models.NewInternalError(err)
	}
	return workshops, nil
}

func (r *workshopRepository) AddCoHost(ctx context.Context, workshopID, userID uint) error {
	coHost := models.WorkshopCoHost{WorkshopID: workshopID, UserID: userID}
	if err := r.db.WithContext(ctx).Create(&coHost).Error; err != nil {
		if isUniqueConstraintError(err) {
			return nil
		}
		return models.NewInternalError(err)
	}
	cache.InvalidateWorkshop(ctx, workshopID)
	return nil
}

func (r *workshopRepository) RemoveCoHost(ctx context.Context, workshopID, userID uint) error {
	err := r.db.WithContext(ctx).
		Where("workshop_id = ? AND user_id = ?", workshopID, userID).
		Delete(&models.WorkshopCoHost{}).Error
	if err != nil {
		return models.NewInternalError(err)
	}
	cache.InvalidateWorkshop(ctx, workshopID)
	return nil
}

func (r *workshopRepository) IsCoHost(ctx context.Context, workshopID, userID uint) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&models.WorkshopCoHost{}).
		Where("workshop_id = ? AND user_id = ?", workshopID, userID).
		Count(&count).Error
	if err != nil {
		return false, models.NewInternalError(err)
	}
	return count > 0, nil
}
