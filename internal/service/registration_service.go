package service

import (
	"context"
	"errors"
	"time"

	"atelier/internal/models"
	"atelier/internal/observability"
	"atelier/internal/repository"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// RegistrationService implements workshop admission control. Every
// mutation locks the workshop row first so the seat counter, the
// registration rows and the waitlist can never drift apart.
type RegistrationService struct {
	db            *gorm.DB
	regRepo       repository.RegistrationRepository
	communityRepo repository.CommunityRepository
	xp            *XpService
}

// NewRegistrationService creates the registration service.
func NewRegistrationService(db *gorm.DB, regRepo repository.RegistrationRepository, communityRepo repository.CommunityRepository, xp *XpService) *RegistrationService {
	return &RegistrationService{db: db, regRepo: regRepo, communityRepo: communityRepo, xp: xp}
}

// CancelResult reports what a cancellation did.
type CancelResult struct {
	Cancelled *models.WorkshopRegistration
	// Promoted is the waitlisted registration that took the freed seat,
	// nil when no promotion happened.
	Promoted *models.WorkshopRegistration
}

// openMode is the admission policy applied while a workshop has no
// configured mode.
var openMode = models.RegistrationMode{Kind: models.RegistrationModeOpen}

func effectiveMode(w *models.Workshop) models.RegistrationMode {
	if w.Mode == nil {
		return openMode
	}
	return *w.Mode
}

// Register attempts to admit the user to the workshop under its admission
// mode. The resulting status depends on the mode: registered, waitlisted
// or pending_approval.
func (s *RegistrationService) Register(ctx context.Context, workshopID, userID uint) (*models.WorkshopRegistration, error) {
	var reg *models.WorkshopRegistration
	var modeKind models.RegistrationModeKind

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var workshop models.Workshop
		if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).First(&workshop, workshopID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return models.NewNotFoundError("Workshop", workshopID)
			}
			return models.NewInternalError(err)
		}

		if workshop.Status != models.WorkshopStatusPublished {
			return models.NewNotPublishedError(workshopID)
		}

		mode := effectiveMode(&workshop)
		modeKind = mode.Kind

		if workshop.CommunityID != nil {
			var memberCount int64
			if err := tx.Model(&models.CommunityMembership{}).
				Where("community_id = ? AND user_id = ?", *workshop.CommunityID, userID).
				Count(&memberCount).Error; err != nil {
				return models.NewInternalError(err)
			}
			if memberCount == 0 {
				return models.NewForbiddenError("This workshop is restricted to community members")
			}
		}

		var existing models.WorkshopRegistration
		found := true
		err := tx.Where("workshop_id = ? AND user_id = ?", workshopID, userID).First(&existing).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			found = false
		} else if err != nil {
			return models.NewInternalError(err)
		}
		if found && existing.Status.IsActive() {
			return models.NewAlreadyRegisteredError(workshopID)
		}

		// A failed level gate is a terminal outcome, not an error: the
		// attempt is recorded as a rejected registration and no seat is
		// taken.
		gateRejected := false
		if mode.Kind == models.RegistrationModeLevelGated {
			level, err := s.xp.GetLevelTx(tx, userID)
			if err != nil {
				return err
			}
			gateRejected = level < mode.LevelGated.MinLevel
		}

		var status models.RegistrationStatus
		var takesSeat bool
		if gateRejected {
			status = models.RegistrationStatusRejected
		} else {
			var admitErr error
			status, takesSeat, admitErr = admit(&workshop, mode)
			if admitErr != nil {
				return admitErr
			}
		}

		now := time.Now().UTC()
		if found {
			// Cancelled and rejected rows are reused on re-registration.
			existing.Status = status
			existing.RegisteredAt = now
			if err := tx.Save(&existing).Error; err != nil {
				return models.NewInternalError(err)
			}
			reg = &existing
		} else {
			newReg := models.WorkshopRegistration{
				WorkshopID:   workshopID,
				UserID:       userID,
				Status:       status,
				RegisteredAt: now,
			}
			if err := tx.Create(&newReg).Error; err != nil {
				return models.NewInternalError(err)
			}
			reg = &newReg
		}

		if takesSeat {
			workshop.RegistrationCount++
			if err := tx.Model(&models.Workshop{}).
				Where("id = ?", workshopID).
				Update("registration_count", workshop.RegistrationCount).Error; err != nil {
				return models.NewInternalError(err)
			}
		}
		return nil
	})

	if err != nil {
		observability.RegistrationOutcomes.WithLabelValues(string(modeKind), outcomeLabel(err)).Inc()
		return nil, err
	}
	observability.RegistrationOutcomes.WithLabelValues(string(modeKind), string(reg.Status)).Inc()
	return reg, nil
}

// admit resolves the registration status for a new attempt under the
// given mode, assuming the level gate has already passed.
func admit(w *models.Workshop, mode models.RegistrationMode) (models.RegistrationStatus, bool, error) {
	switch mode.Kind {
	case models.RegistrationModeOpen:
		return models.RegistrationStatusRegistered, true, nil

	case models.RegistrationModeCapped:
		if w.RegistrationCount < mode.Capped.MaxCapacity {
			return models.RegistrationStatusRegistered, true, nil
		}
		if mode.Capped.WaitlistEnabled {
			return models.RegistrationStatusWaitlisted, false, nil
		}
		return "", false, models.NewAtCapacityError(w.ID)

	case models.RegistrationModeApproval:
		// Capacity is enforced at approval time, not here.
		return models.RegistrationStatusPendingApproval, false, nil

	case models.RegistrationModeLevelGated:
		if max := mode.MaxSeats(); max > 0 && w.RegistrationCount >= max {
			return "", false, models.NewAtCapacityError(w.ID)
		}
		return models.RegistrationStatusRegistered, true, nil
	}
	return "", false, models.NewInvalidStateError("workshop has an unknown admission mode")
}

func outcomeLabel(err error) string {
	var appErr *models.AppError
	if errors.As(err, &appErr) {
		return appErr.Code
	}
	return models.CodeInternalError
}

// Cancel withdraws the user's registration. When a confirmed seat frees
// up and the workshop runs a waitlist, the oldest waitlisted registration
// is promoted in the same transaction.
func (s *RegistrationService) Cancel(ctx context.Context, workshopID, userID uint) (*CancelResult, error) {
	result := &CancelResult{}

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var workshop models.Workshop
		if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).First(&workshop, workshopID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return models.NewNotFoundError("Workshop", workshopID)
			}
			return models.NewInternalError(err)
		}

		var reg models.WorkshopRegistration
		err := tx.Where("workshop_id = ? AND user_id = ?", workshopID, userID).First(&reg).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return models.NewNotRegisteredError(workshopID)
		}
		if err != nil {
			return models.NewInternalError(err)
		}
		if !reg.Status.IsActive() {
			return models.NewNotRegisteredError(workshopID)
		}

		heldSeat := reg.Status == models.RegistrationStatusRegistered
		reg.Status = models.RegistrationStatusCancelled
		if err := tx.Save(&reg).Error; err != nil {
			return models.NewInternalError(err)
		}
		result.Cancelled = &reg

		if !heldSeat {
			// Waitlisted or pending rows never held a seat, so nothing to
			// free and nobody to promote.
			return nil
		}

		workshop.RegistrationCount--
		mode := effectiveMode(&workshop)
		if mode.Kind == models.RegistrationModeCapped && mode.Capped.WaitlistEnabled {
			var next models.WorkshopRegistration
			err := tx.
				Where("workshop_id = ? AND status = ?", workshopID, models.RegistrationStatusWaitlisted).
				Order("registered_at asc, id asc").
				First(&next).Error
			if err == nil {
				next.Status = models.RegistrationStatusRegistered
				if err := tx.Save(&next).Error; err != nil {
					return models.NewInternalError(err)
				}
				workshop.RegistrationCount++
				result.Promoted = &next
			} else if !errors.Is(err, gorm.ErrRecordNotFound) {
				return models.NewInternalError(err)
			}
		}

		if err := tx.Model(&models.Workshop{}).
			Where("id = ?", workshopID).
			Update("registration_count", workshop.RegistrationCount).Error; err != nil {
			return models.NewInternalError(err)
		}
		return nil
	})

	if err != nil {
		return nil, err
	}
	if result.Promoted != nil {
		observability.WaitlistPromotions.Inc()
	}
	return result, nil
}

// Approve confirms a pending registration. For approval modes with a
// seat bound, capacity is enforced here, at decision time.
func (s *RegistrationService) Approve(ctx context.Context, workshopID, targetUserID uint) (*models.WorkshopRegistration, error) {
	var reg *models.WorkshopRegistration

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var workshop models.Workshop
		if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).First(&workshop, workshopID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return models.NewNotFoundError("Workshop", workshopID)
			}
			return models.NewInternalError(err)
		}

		var pending models.WorkshopRegistration
		err := tx.Where("workshop_id = ? AND user_id = ?", workshopID, targetUserID).First(&pending).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return models.NewNotRegisteredError(workshopID)
		}
		if err != nil {
			return models.NewInternalError(err)
		}
		if pending.Status != models.RegistrationStatusPendingApproval {
			return models.NewInvalidStateError("registration is not pending approval")
		}

		mode := effectiveMode(&workshop)
		if max := mode.MaxSeats(); max > 0 && workshop.RegistrationCount >= max {
			return models.NewAtCapacityError(workshopID)
		}

		pending.Status = models.RegistrationStatusRegistered
		if err := tx.Save(&pending).Error; err != nil {
			return models.NewInternalError(err)
		}
		if err := tx.Model(&models.Workshop{}).
			Where("id = ?", workshopID).
			Update("registration_count", workshop.RegistrationCount+1).Error; err != nil {
			return models.NewInternalError(err)
		}
		reg = &pending
		return nil
	})

	if err != nil {
		return nil, err
	}
	return reg, nil
}

// Reject denies a pending registration. The user may register again
// later; the row is reused.
func (s *RegistrationService) Reject(ctx context.Context, workshopID, targetUserID uint) (*models.WorkshopRegistration, error) {
	var reg *models.WorkshopRegistration

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var pending models.WorkshopRegistration
		err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
			Where("workshop_id = ? AND user_id = ?", workshopID, targetUserID).
			First(&pending).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return models.NewNotRegisteredError(workshopID)
		}
		if err != nil {
			return models.NewInternalError(err)
		}
		if pending.Status != models.RegistrationStatusPendingApproval {
			return models.NewInvalidStateError("registration is not pending approval")
		}

		pending.Status = models.RegistrationStatusRejected
		if err := tx.Save(&pending).Error; err != nil {
			return models.NewInternalError(err)
		}
		reg = &pending
		return nil
	})

	if err != nil {
		return nil, err
	}
	return reg, nil
}

// GetRegistration returns the user's registration for a workshop, or a
// not-registered error when none exists.
func (s *RegistrationService) GetRegistration(ctx context.Context, workshopID, userID uint) (*models.WorkshopRegistration, error) {
	reg, err := s.regRepo.GetByWorkshopAndUser(ctx, workshopID, userID)
	if err != nil {
		return nil, err
	}
	if reg == nil {
		return nil, models.NewNotRegisteredError(workshopID)
	}
	return reg, nil
}

// ListRegistrations returns a page of a workshop's registrations,
// optionally filtered by status, in FIFO order.
func (s *RegistrationService) ListRegistrations(ctx context.Context, workshopID uint, status models.RegistrationStatus, limit, offset int) ([]models.WorkshopRegistration, error) {
	return s.regRepo.ListByWorkshop(ctx, workshopID, status, clampLimit(limit), offset)
}

// ListMyRegistrations returns the user's registrations, newest first.
func (s *RegistrationService) ListMyRegistrations(ctx context.Context, userID uint, limit, offset int) ([]models.WorkshopRegistration, error) {
	return s.regRepo.ListByUser(ctx, userID, clampLimit(limit), offset)
}
