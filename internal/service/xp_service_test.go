package service

import (
	"context"
	"testing"
	"time"

	"atelier/internal/models"
	"atelier/internal/repository"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func newXpService(db *gorm.DB) *XpService {
	return NewXpService(db, repository.NewXpRepository(db), models.DefaultXpBase)
}

func bonusSource(reason string) models.XpSource {
	return models.XpSource{
		Kind:  models.XpSourceBonus,
		Bonus: &models.BonusSource{Reason: reason},
	}
}

func TestAwardNonPositiveIsNoOp(t *testing.T) {
	t.Parallel()
	db := setupTestDB(t)
	svc := newXpService(db)
	ctx := context.Background()

	alice := createTestUser(t, db, "alice")

	for _, amount := range []int{0, -50} {
		award, err := svc.Award(ctx, alice.ID, amount, bonusSource("noop"))
		require.NoError(t, err)
		assert.Nil(t, award)
	}

	var ledgerRows int64
	require.NoError(t, db.Model(&models.XpTransaction{}).Count(&ledgerRows).Error)
	assert.EqualValues(t, 0, ledgerRows)

	var profiles int64
	require.NoError(t, db.Model(&models.XpProfile{}).Count(&profiles).Error)
	assert.EqualValues(t, 0, profiles)
}

func TestAwardAccumulates(t *testing.T) {
	t.Parallel()
	db := setupTestDB(t)
	svc := newXpService(db)
	ctx := context.Background()

	alice := createTestUser(t, db, "alice")

	first, err := svc.Award(ctx, alice.ID, 60, bonusSource("first"))
	require.NoError(t, err)
	assert.EqualValues(t, 60, first.TotalXp)
	assert.Equal(t, 0, first.PreviousLevel)
	assert.Equal(t, 0, first.NewLevel)
	assert.False(t, first.LeveledUp())

	// 60 + 50 = 110 crosses the 100 XP boundary into level 1.
	second, err := svc.Award(ctx, alice.ID, 50, bonusSource("second"))
	require.NoError(t, err)
	assert.EqualValues(t, 110, second.TotalXp)
	assert.Equal(t, 0, second.PreviousLevel)
	assert.Equal(t, 1, second.NewLevel)
	assert.True(t, second.LeveledUp())

	var profile models.XpProfile
	require.NoError(t, db.Where("user_id = ?", alice.ID).First(&profile).Error)
	assert.EqualValues(t, 110, profile.TotalXp)

	var ledgerRows int64
	require.NoError(t, db.Model(&models.XpTransaction{}).
		Where("user_id = ?", alice.ID).Count(&ledgerRows).Error)
	assert.EqualValues(t, 2, ledgerRows)
}

func TestAwardAppliesStrongestBoost(t *testing.T) {
	t.Parallel()
	db := setupTestDB(t)
	svc := newXpService(db)
	ctx := context.Background()

	alice := createTestUser(t, db, "alice")
	now := time.Now().UTC()

	_, err := svc.CreateBoost(ctx, CreateBoostInput{
		Multiplier: 1.5,
		StartsAt:   now.Add(-time.Hour),
		EndsAt:     now.Add(time.Hour),
	})
	require.NoError(t, err)
	_, err = svc.CreateBoost(ctx, CreateBoostInput{
		UserID:     &alice.ID,
		Multiplier: 2.0,
		StartsAt:   now.Add(-time.Hour),
		EndsAt:     now.Add(time.Hour),
	})
	require.NoError(t, err)
	// Expired boosts never apply.
	_, err = svc.CreateBoost(ctx, CreateBoostInput{
		Multiplier: 10.0,
		StartsAt:   now.Add(-3 * time.Hour),
		EndsAt:     now.Add(-2 * time.Hour),
	})
	require.NoError(t, err)

	award, err := svc.Award(ctx, alice.ID, 50, bonusSource("boosted"))
	require.NoError(t, err)
	assert.Equal(t, 2.0, award.Transaction.Multiplier)
	assert.Equal(t, 100, award.Transaction.FinalXp)
	assert.Equal(t, 50, award.Transaction.Amount)
	assert.EqualValues(t, 100, award.TotalXp)
}

func TestAwardBoostDoesNotApplyToOthers(t *testing.T) {
	t.Parallel()
	db := setupTestDB(t)
	svc := newXpService(db)
	ctx := context.Background()

	alice := createTestUser(t, db, "alice")
	bob := createTestUser(t, db, "bob")
	now := time.Now().UTC()

	_, err := svc.CreateBoost(ctx, CreateBoostInput{
		UserID:     &alice.ID,
		Multiplier: 2.0,
		StartsAt:   now.Add(-time.Hour),
		EndsAt:     now.Add(time.Hour),
	})
	require.NoError(t, err)

	award, err := svc.Award(ctx, bob.ID, 50, bonusSource("plain"))
	require.NoError(t, err)
	assert.Equal(t, 1.0, award.Transaction.Multiplier)
	assert.Equal(t, 50, award.Transaction.FinalXp)
}

func TestCreateBoostValidation(t *testing.T) {
	t.Parallel()
	db := setupTestDB(t)
	svc := newXpService(db)
	ctx := context.Background()
	now := time.Now().UTC()

	_, err := svc.CreateBoost(ctx, CreateBoostInput{
		Multiplier: 1.0,
		StartsAt:   now,
		EndsAt:     now.Add(time.Hour),
	})
	requireAppErrorCode(t, err, models.CodeValidationError)

	_, err = svc.CreateBoost(ctx, CreateBoostInput{
		Multiplier: 2.0,
		StartsAt:   now.Add(time.Hour),
		EndsAt:     now,
	})
	requireAppErrorCode(t, err, models.CodeValidationError)
}

func TestGrantBonus(t *testing.T) {
	t.Parallel()
	db := setupTestDB(t)
	svc := newXpService(db)
	ctx := context.Background()

	alice := createTestUser(t, db, "alice")

	award, err := svc.GrantBonus(ctx, alice.ID, 75, "hackathon winner")
	require.NoError(t, err)
	assert.Equal(t, models.XpSourceBonus, award.Transaction.Source.Kind)
	assert.Equal(t, "hackathon winner", award.Transaction.Source.Bonus.Reason)

	_, err = svc.GrantBonus(ctx, alice.ID, 0, "nothing")
	requireAppErrorCode(t, err, models.CodeValidationError)
}

func TestGetLevelInfo(t *testing.T) {
	t.Parallel()
	db := setupTestDB(t)
	svc := newXpService(db)
	ctx := context.Background()

	alice := createTestUser(t, db, "alice")

	// A user with no ledger history is level 0 with an implicit zero total.
	info, err := svc.GetLevelInfo(ctx, alice.ID)
	require.NoError(t, err)
	assert.EqualValues(t, 0, info.TotalXp)
	assert.Equal(t, 0, info.Level)

	_, err = svc.Award(ctx, alice.ID, 450, bonusSource("bulk"))
	require.NoError(t, err)

	// 450 XP with base 100: level 2 spans [400, 900).
	info, err = svc.GetLevelInfo(ctx, alice.ID)
	require.NoError(t, err)
	assert.EqualValues(t, 450, info.TotalXp)
	assert.Equal(t, 2, info.Level)
	assert.Equal(t, "Newcomer", info.Title)
	assert.EqualValues(t, 50, info.CurrentXp)
	assert.EqualValues(t, 500, info.XpForNextLevel)
}

func TestListTransactionsNewestFirst(t *testing.T) {
	t.Parallel()
	db := setupTestDB(t)
	svc := newXpService(db)
	ctx := context.Background()

	alice := createTestUser(t, db, "alice")
	for i, amount := range []int{10, 20, 30} {
		_, err := svc.Award(ctx, alice.ID, amount, bonusSource("batch"))
		require.NoError(t, err)
		// sqlite stores timestamps at second resolution; force distinct
		// ordering instead of sleeping.
		require.NoError(t, db.Model(&models.XpTransaction{}).
			Where("amount = ?", amount).
			Update("created_at", time.Now().UTC().Add(time.Duration(i)*time.Minute)).Error)
	}

	transactions, err := svc.ListTransactions(ctx, alice.ID, 10, 0)
	require.NoError(t, err)
	require.Len(t, transactions, 3)
	assert.Equal(t, 30, transactions[0].Amount)
	assert.Equal(t, 10, transactions[2].Amount)
}
