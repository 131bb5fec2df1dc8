package service

import (
	"context"
	"errors"
	"time"

	"atelier/internal/models"
	"atelier/internal/observability"
	"atelier/internal/repository"
	"atelier/internal/validation"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// AttendanceService implements check-in for live workshops: the rotating
// code, self check-in and organizer-performed manual check-in.
type AttendanceService struct {
	db           *gorm.DB
	regRepo      repository.RegistrationRepository
	xp           *XpService
	attendanceXp int
}

// NewAttendanceService creates the attendance service. attendanceXp is
// the base reward paid per check-in; zero disables the reward.
func NewAttendanceService(db *gorm.DB, regRepo repository.RegistrationRepository, xp *XpService, attendanceXp int) *AttendanceService {
	return &AttendanceService{db: db, regRepo: regRepo, xp: xp, attendanceXp: attendanceXp}
}

// CheckInResult reports a recorded check-in and the reward it paid.
// Award is nil for repeated check-ins and when the reward is disabled.
type CheckInResult struct {
	Attendance *models.WorkshopAttendance
	// AlreadyCheckedIn is true when the user had checked in before; the
	// original attendance row is returned unchanged and no XP is paid.
	AlreadyCheckedIn bool
	Award            *XpAward
}

// RefreshCode rotates the workshop's check-in code and returns the new
// one. Only the latest code is valid; a concurrent refresh simply wins
// by being last.
func (s *AttendanceService) RefreshCode(ctx context.Context, workshopID uint) (string, error) {
	var workshop models.Workshop
	if err := s.db.WithContext(ctx).First(&workshop, workshopID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return "", models.NewNotFoundError("Workshop", workshopID)
		}
		return "", models.NewInternalError(err)
	}
	if !workshop.IsLive(time.Now().UTC()) {
		return "", models.NewNotLiveError(workshopID)
	}

	code, err := validation.GenerateCheckInCode()
	if err != nil {
		return "", models.NewInternalError(err)
	}
	if err := s.db.WithContext(ctx).Model(&models.Workshop{}).
		Where("id = ?", workshopID).
		Update("check_in_code", code).Error; err != nil {
		return "", models.NewInternalError(err)
	}
	return code, nil
}

// GetCode returns the currently valid check-in code for organizers to
// display, generating one if the workshop has none yet.
func (s *AttendanceService) GetCode(ctx context.Context, workshopID uint) (string, error) {
	var workshop models.Workshop
	if err := s.db.WithContext(ctx).First(&workshop, workshopID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return "", models.NewNotFoundError("Workshop", workshopID)
		}
		return "", models.NewInternalError(err)
	}
	if !workshop.IsLive(time.Now().UTC()) {
		return "", models.NewNotLiveError(workshopID)
	}
	if workshop.CheckInCode != "" {
		return workshop.CheckInCode, nil
	}
	return s.RefreshCode(ctx, workshopID)
}

// CheckIn records a self check-in against the current code. Repeating a
// check-in is idempotent: the first row stands and no second reward is
// paid.
func (s *AttendanceService) CheckIn(ctx context.Context, workshopID, userID uint, code string) (*CheckInResult, error) {
	result := &CheckInResult{}
	now := time.Now().UTC()

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var workshop models.Workshop
		if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).First(&workshop, workshopID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return models.NewNotFoundError("Workshop", workshopID)
			}
			return models.NewInternalError(err)
		}

		if !workshop.IsLive(now) {
			return models.NewNotLiveError(workshopID)
		}

		normalized := validation.NormalizeCheckInCode(code)
		if workshop.CheckInCode == "" || normalized != workshop.CheckInCode {
			return models.NewInvalidCodeError()
		}

		return s.recordAttendanceTx(tx, &workshop, userID, models.AttendanceMethodCode, now, result)
	})

	if err != nil {
		return nil, err
	}
	if !result.AlreadyCheckedIn {
		observability.CheckIns.WithLabelValues(string(models.AttendanceMethodCode)).Inc()
	}
	return result, nil
}

// ManualCheckIn records an organizer-performed check-in for a registered
// user, bypassing the code. The workshop must be live.
func (s *AttendanceService) ManualCheckIn(ctx context.Context, workshopID, targetUserID uint) (*CheckInResult, error) {
	result := &CheckInResult{}
	now := time.Now().UTC()

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var workshop models.Workshop
		if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).First(&workshop, workshopID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return models.NewNotFoundError("Workshop", workshopID)
			}
			return models.NewInternalError(err)
		}

		if !workshop.IsLive(now) {
			return models.NewNotLiveError(workshopID)
		}

		return s.recordAttendanceTx(tx, &workshop, targetUserID, models.AttendanceMethodManual, now, result)
	})

	if err != nil {
		return nil, err
	}
	if !result.AlreadyCheckedIn {
		observability.CheckIns.WithLabelValues(string(models.AttendanceMethodManual)).Inc()
	}
	return result, nil
}

// recordAttendanceTx verifies the seat, writes the attendance row and
// pays the reward, all inside the caller's transaction.
func (s *AttendanceService) recordAttendanceTx(tx *gorm.DB, workshop *models.Workshop, userID uint, method models.AttendanceMethod, now time.Time, result *CheckInResult) error {
	var reg models.WorkshopRegistration
	err := tx.Where("workshop_id = ? AND user_id = ?", workshop.ID, userID).First(&reg).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return models.NewNotRegisteredError(workshop.ID)
	}
	if err != nil {
		return models.NewInternalError(err)
	}
	if reg.Status != models.RegistrationStatusRegistered {
		// Waitlisted and pending registrations hold no seat yet.
		return models.NewNotRegisteredError(workshop.ID)
	}

	var existing models.WorkshopAttendance
	err = tx.Where("workshop_id = ? AND user_id = ?", workshop.ID, userID).First(&existing).Error
	if err == nil {
		result.Attendance = &existing
		result.AlreadyCheckedIn = true
		return nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return models.NewInternalError(err)
	}

	attendance := models.WorkshopAttendance{
		WorkshopID:  workshop.ID,
		UserID:      userID,
		Method:      method,
		CheckedInAt: now,
	}
	if err := tx.Create(&attendance).Error; err != nil {
		return models.NewInternalError(err)
	}
	result.Attendance = &attendance

	source := models.XpSource{
		Kind:       models.XpSourceAttendance,
		Attendance: &models.AttendanceSource{WorkshopID: workshop.ID},
	}
	award, err := s.xp.AwardTx(tx, userID, s.attendanceXp, source, now)
	if err != nil {
		return err
	}
	result.Award = award
	return nil
}

// GetAttendance returns the user's attendance row, or a not-checked-in
// error when none exists.
func (s *AttendanceService) GetAttendance(ctx context.Context, workshopID, userID uint) (*models.WorkshopAttendance, error) {
	att, err := s.regRepo.GetAttendance(ctx, workshopID, userID)
	if err != nil {
		return nil, err
	}
	if att == nil {
		return nil, models.NewNotCheckedInError(workshopID)
	}
	return att, nil
}

// ListAttendance returns a page of a workshop's check-ins in arrival order.
func (s *AttendanceService) ListAttendance(ctx context.Context, workshopID uint, limit, offset int) ([]models.WorkshopAttendance, error) {
	return s.regRepo.ListAttendance(ctx, workshopID, clampLimit(limit), offset)
}
