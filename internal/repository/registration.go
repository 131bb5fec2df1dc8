package repository

import (
	"context"
	"errors"

	"atelier/internal/models"

	"gorm.io/gorm"
)

// RegistrationRepository defines read-side persistence operations for
// registrations and attendance. All admission mutations run inside locked
// transactions owned by the registration service and do not go through
// this interface.
type RegistrationRepository interface {
	GetByWorkshopAndUser(ctx context.Context, workshopID, userID uint) (*models.WorkshopRegistration, error)
	ListByWorkshop(ctx context.Context, workshopID uint, status models.RegistrationStatus, limit, offset int) ([]models.WorkshopRegistration, error)
	ListByUser(ctx context.Context, userID uint, limit, offset int) ([]models.WorkshopRegistration, error)
	CountByStatus(ctx context.Context, workshopID uint, status models.RegistrationStatus) (int64, error)
	GetAttendance(ctx context.Context, workshopID, userID uint) (*models.WorkshopAttendance, error)
	ListAttendance(ctx context.Context, workshopID uint, limit, offset int) ([]models.WorkshopAttendance, error)
}

type registrationRepository struct {
	db *gorm.DB
}

// NewRegistrationRepository returns a new RegistrationRepository implementation.
func NewRegistrationRepository(db *gorm.DB) RegistrationRepository {
	return &registrationRepository{db: db}
}

func (r *registrationRepository) GetByWorkshopAndUser(ctx context.Context, workshopID, userID uint) (*models.WorkshopRegistration, error) {
	var reg models.WorkshopRegistration
	err := r.db.WithContext(ctx).
		Where("workshop_id = ? AND user_id = ?", workshopID, userID).
		First(&reg).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, models.NewInternalError(err)
	}
	return &reg, nil
}

func (r *registrationRepository) ListByWorkshop(ctx context.Context, workshopID uint, status models.RegistrationStatus, limit, offset int) ([]models.WorkshopRegistration, error) {
	var regs []models.WorkshopRegistration
	q := r.db.WithContext(ctx).Preload("User").Where("workshop_id = ?", workshopID)
	if status != "" {
		q = q.Where("status = ?", status)
	}
	err := q.Order("registered_at asc").Limit(limit).Offset(offset).Find(&regs).Error
	if err != nil {
		return nil, models.NewInternalError(err)
	}
	return regs, nil
}

func (r *registrationRepository) ListByUser(ctx context.Context, userID uint, limit, offset int) ([]models.WorkshopRegistration, error) {
	var regs []models.WorkshopRegistration
	err := r.db.WithContext(ctx).Preload("Workshop").
		Where("user_id = ?", userID).
		Order("registered_at desc").
		Limit(limit).Offset(offset).
		Find(&regs).Error
	if err != nil {
		return nil, models.NewInternalError(err)
	}
	return regs, nil
}

func (r *registrationRepository) CountByStatus(ctx context.Context, workshopID uint, status models.RegistrationStatus) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&models.WorkshopRegistration{}).
		Where("workshop_id = ? AND status = ?", workshopID, status).
		Count(&count).Error
	if err != nil {
		return 0, models.NewInternalError(err)
	}
	return count, nil
}

func (r *registrationRepository) GetAttendance(ctx context.Context, workshopID, userID uint) (*models.WorkshopAttendance, error) {
	var att models.WorkshopAttendance
	err := r.db.WithContext(ctx).
		Where("workshop_id = ? AND user_id = ?", workshopID, userID).
		First(&att).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, models.NewInternalError(err)
	}
	return &att, nil
}

func (r *registrationRepository) ListAttendance(ctx context.Context, workshopID uint, limit, offset int) ([]models.WorkshopAttendance, error) {
	var atts []models.WorkshopAttendance
	err := r.db.WithContext(ctx).Preload("User").
		Where("workshop_id = ?", workshopID).
		Order("checked_in_at asc").
		Limit(limit).Offset(offset).
		Find(&atts).Error
	if err != nil {
		return nil, models.NewInternalError(err)
	}
	return atts, nil
}
