package service

import (
	"testing"
	"time"

	"atelier/internal/models"

	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

func setupTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}

	if err := db.AutoMigrate(
		&models.User{},
		&models.Community{},
		&models.CommunityMembership{},
		&models.Workshop{},
		&models.WorkshopCoHost{},
		&models.WorkshopRegistration{},
		&models.WorkshopAttendance{},
		&models.WorkshopAssignment{},
		&models.AssignmentSubmission{},
		&models.QuizCompletion{},
		&models.XpTransaction{},
		&models.XpProfile{},
		&models.XpBoost{},
	); err != nil {
		t.Fatalf("migrate sqlite: %v", err)
	}

	return db
}

func createTestUser(t *testing.T, db *gorm.DB, username string) *models.User {
	t.Helper()
	user := models.User{
		Username: username,
		Email:    username + "@example.com",
		Password: "pw",
		Role:     models.UserRoleMember,
	}
	require.NoError(t, db.Create(&user).Error)
	return &user
}

func createTestWorkshop(t *testing.T, db *gorm.DB, creator *models.User, mode *models.RegistrationMode) *models.Workshop {
	t.Helper()
	now := time.Now().UTC()
	workshop := models.Workshop{
		Title:     "Intro to Pottery",
		Slug:      "intro-to-pottery-" + creator.Username,
		Status:    models.WorkshopStatusPublished,
		StartsAt:  now.Add(-time.Hour),
		EndsAt:    now.Add(time.Hour),
		Mode:      mode,
		CreatorID: creator.ID,
	}
	require.NoError(t, db.Create(&workshop).Error)
	return &workshop
}

func cappedMode(capacity int, waitlist bool) *models.RegistrationMode {
	return &models.RegistrationMode{
		Kind:   models.RegistrationModeCapped,
		Capped: &models.CappedMode{MaxCapacity: capacity, WaitlistEnabled: waitlist},
	}
}

func approvalMode(capacity *int) *models.RegistrationMode {
	return &models.RegistrationMode{
		Kind:     models.RegistrationModeApproval,
		Approval: &models.ApprovalMode{MaxCapacity: capacity},
	}
}

func levelGatedMode(minLevel int, capacity *int) *models.RegistrationMode {
	return &models.RegistrationMode{
		Kind:       models.RegistrationModeLevelGated,
		LevelGated: &models.LevelGatedMode{MinLevel: minLevel, MaxCapacity: capacity},
	}
}

func requireAppErrorCode(t *testing.T, err error, code string) {
	t.Helper()
	require.Error(t, err)
	appErr, ok := err.(*models.AppError)
	require.True(t, ok, "expected *models.AppError, got %T: %v", err, err)
	require.Equal(t, code, appErr.Code)
}
