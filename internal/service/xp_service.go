// Package service implements the application's business logic layer.
package service

import (
	"context"
	"errors"
	"math"
	"time"

	"atelier/internal/cache"
	"atelier/internal/models"
	"atelier/internal/observability"
	"atelier/internal/repository"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// XpService owns the append-only XP ledger and the cached totals derived
// from it. Every reward flows through Award or AwardTx; nothing else
// writes xp_transactions or xp_profiles.
type XpService struct {
	db     *gorm.DB
	xpRepo repository.XpRepository
	xpBase int
}

// XpAward describes the outcome of a paid reward.
type XpAward struct {
	Transaction   *models.XpTransaction
	TotalXp       int64
	PreviousLevel int
	NewLevel      int
}

// LeveledUp reports whether the award crossed a level boundary.
func (a *XpAward) LeveledUp() bool {
	return a != nil && a.NewLevel > a.PreviousLevel
}

// NewXpService creates the XP service. xpBase tunes the level curve.
func NewXpService(db *gorm.DB, xpRepo repository.XpRepository, xpBase int) *XpService {
	if xpBase <= 0 {
		xpBase = models.DefaultXpBase
	}
	return &XpService{db: db, xpRepo: xpRepo, xpBase: xpBase}
}

// Award pays a reward in its own transaction. A non-positive amount is a
// no-op and returns (nil, nil); callers must not treat that as an error.
func (s *XpService) Award(ctx context.Context, userID uint, amount int, source models.XpSource) (*XpAward, error) {
	if amount <= 0 {
		return nil, nil
	}

	var award *XpAward
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var txErr error
		award, txErr = s.AwardTx(tx, userID, amount, source, time.Now().UTC())
		return txErr
	})
	if err != nil {
		return nil, err
	}
	return award, nil
}

// AwardTx pays a reward inside the caller's transaction so the ledger
// insert commits or rolls back together with the event that earned it.
// The profile row is locked for the read-modify-write on the cached total.
func (s *XpService) AwardTx(tx *gorm.DB, userID uint, amount int, source models.XpSource, now time.Time) (*XpAward, error) {
	if amount <= 0 {
		return nil, nil
	}
	if err := source.Validate(); err != nil {
		return nil, models.NewValidationError(err.Error())
	}

	multiplier, err := s.activeMultiplierTx(tx, userID, now)
	if err != nil {
		return nil, err
	}
	finalXp := int(math.Round(float64(amount) * multiplier))

	var profile models.XpProfile
	err = tx.Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("user_id = ?", userID).
		First(&profile).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		profile = models.XpProfile{UserID: userID, TotalXp: 0}
		if err := tx.Create(&profile).Error; err != nil {
			return nil, models.NewInternalError(err)
		}
	} else if err != nil {
		return nil, models.NewInternalError(err)
	}

	record := models.XpTransaction{
		UserID:     userID,
		Amount:     amount,
		Multiplier: multiplier,
		FinalXp:    finalXp,
		Source:     source,
		CreatedAt:  now,
	}
	if err := tx.Create(&record).Error; err != nil {
		return nil, models.NewInternalError(err)
	}

	previousLevel := models.ComputeLevel(profile.TotalXp, s.xpBase)
	profile.TotalXp += int64(finalXp)
	if err := tx.Model(&models.XpProfile{}).
		Where("user_id = ?", userID).
		Update("total_xp", profile.TotalXp).Error; err != nil {
		return nil, models.NewInternalError(err)
	}

	cache.InvalidateLevelInfo(tx.Statement.Context, userID)
	observability.XpAwarded.WithLabelValues(string(source.Kind)).Add(float64(finalXp))

	return &XpAward{
		Transaction:   &record,
		TotalXp:       profile.TotalXp,
		PreviousLevel: previousLevel,
		NewLevel:      models.ComputeLevel(profile.TotalXp, s.xpBase),
	}, nil
}

// activeMultiplierTx resolves the strongest boost in effect for the user.
// Boosts do not stack; the highest applicable multiplier wins.
func (s *XpService) activeMultiplierTx(tx *gorm.DB, userID uint, now time.Time) (float64, error) {
	var boosts []models.XpBoost
	err := tx.
		Where("is_active = ?", true).
		Where("starts_at <= ? AND ends_at >= ?", now, now).
		Where("user_id IS NULL OR user_id = ?", userID).
		Find(&boosts).Error
	if err != nil {
		return 0, models.NewInternalError(err)
	}

	multiplier := 1.0
	for _, b := range boosts {
		if b.AppliesTo(userID, now) && b.Multiplier > multiplier {
			multiplier = b.Multiplier
		}
	}
	return multiplier, nil
}

// GrantBonus pays an administrative XP grant.
func (s *XpService) GrantBonus(ctx context.Context, userID uint, amount int, reason string) (*XpAward, error) {
	if amount <= 0 {
		return nil, models.NewValidationError("Bonus amount must be positive")
	}
	source := models.XpSource{
		Kind:  models.XpSourceBonus,
		Bonus: &models.BonusSource{Reason: reason},
	}
	return s.Award(ctx, userID, amount, source)
}

// GetLevelInfo derives the leveling view from the cached total.
func (s *XpService) GetLevelInfo(ctx context.Context, userID uint) (*models.LevelInfo, error) {
	var info models.LevelInfo
	key := cache.LevelInfoKey(userID)

	err := cache.Aside(ctx, key, &info, cache.LevelInfoTTL, func() error {
		profile, err := s.xpRepo.GetProfile(ctx, userID)
		if err != nil {
			return err
		}
		info = models.NewLevelInfo(userID, profile.TotalXp, s.xpBase)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &info, nil
}

// GetLevelTx reads the user's current level inside the caller's
// transaction. Level-gated admission uses it so the gate and the seat
// update see the same snapshot.
func (s *XpService) GetLevelTx(tx *gorm.DB, userID uint) (int, error) {
	var profile models.XpProfile
	err := tx.Where("user_id = ?", userID).First(&profile).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return 0, nil
	}
	if err != nil {
		return 0, models.NewInternalError(err)
	}
	return models.ComputeLevel(profile.TotalXp, s.xpBase), nil
}

// ListTransactions returns a page of the user's ledger, newest first.
func (s *XpService) ListTransactions(ctx context.Context, userID uint, limit, offset int) ([]models.XpTransaction, error) {
	limit = clampLimit(limit)
	return s.xpRepo.ListTransactions(ctx, userID, limit, offset)
}

// CreateBoostInput carries the fields for a new boost.
type CreateBoostInput struct {
	UserID     *uint
	Multiplier float64
	StartsAt   time.Time
	EndsAt     time.Time
}

// CreateBoost registers a time-boxed multiplier. A nil UserID applies to
// everyone.
func (s *XpService) CreateBoost(ctx context.Context, in CreateBoostInput) (*models.XpBoost, error) {
	if in.Multiplier <= 1.0 {
		return nil, models.NewValidationError("Boost multiplier must be greater than 1")
	}
	if !in.EndsAt.After(in.StartsAt) {
		return nil, models.NewValidationError("Boost window must end after it starts")
	}

	boost := models.XpBoost{
		UserID:     in.UserID,
		Multiplier: in.Multiplier,
		StartsAt:   in.StartsAt,
		EndsAt:     in.EndsAt,
		IsActive:   true,
	}
	if err := s.xpRepo.CreateBoost(ctx, &boost); err != nil {
		return nil, err
	}
	return &boost, nil
}

// DeactivateBoost retires a boost before its window ends.
func (s *XpService) DeactivateBoost(ctx context.Context, id uint) error {
	return s.xpRepo.DeactivateBoost(ctx, id)
}

func clampLimit(limit int) int {
	if limit <= 0 {
		return 20
	}
	if limit > 100 {
		return 100
	}
	return limit
}
