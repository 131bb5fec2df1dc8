package seed

import (
	"testing"

	"atelier/internal/database"
	"atelier/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

func setupSeedTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	if err := db.AutoMigrate(database.PersistentModels()...); err != nil {
		t.Fatalf("migrate sqlite: %v", err)
	}
	return db
}

func TestSeedPopulatesDatabase(t *testing.T) {
	db := setupSeedTestDB(t)

	require.NoError(t, Seed(db, Options{NumUsers: 10, NumWorkshops: 5, ShouldClean: false}))

	var userCount int64
	require.NoError(t, db.Model(&models.User{}).Count(&userCount).Error)
	// 10 members + organizers + the admin.
	assert.Greater(t, userCount, int64(10))

	var admin models.User
	require.NoError(t, db.Where("role = ?", models.UserRoleAdmin).First(&admin).Error)
	assert.Equal(t, "admin", admin.Username)

	var workshopCount int64
	require.NoError(t, db.Model(&models.Workshop{}).Count(&workshopCount).Error)
	assert.Equal(t, int64(5), workshopCount)

	// Every workshop carries at least one assignment and an admission mode.
	var workshops []models.Workshop
	require.NoError(t, db.Find(&workshops).Error)
	for _, w := range workshops {
		require.NotNil(t, w.Mode)
		assert.NoError(t, w.Mode.Validate())

		var assignments int64
		require.NoError(t, db.Model(&models.WorkshopAssignment{}).
			Where("workshop_id = ?", w.ID).Count(&assignments).Error)
		assert.GreaterOrEqual(t, assignments, int64(1))
	}

	// The seat counter matches the registration rows it summarizes.
	for _, w := range workshops {
		var regs int64
		require.NoError(t, db.Model(&models.WorkshopRegistration{}).
			Where("workshop_id = ? AND status = ?", w.ID, models.RegistrationStatusRegistered).
			Count(&regs).Error)
		assert.Equal(t, regs, int64(w.RegistrationCount))
	}

	var boostCount int64
	require.NoError(t, db.Model(&models.XpBoost{}).Count(&boostCount).Error)
	assert.Equal(t, int64(2), boostCount)
}

func TestSeedCleanRemovesPriorData(t *testing.T) {
	db := setupSeedTestDB(t)

	require.NoError(t, Seed(db, Options{NumUsers: 3, NumWorkshops: 2, ShouldClean: false}))
	require.NoError(t, Seed(db, Options{NumUsers: 3, NumWorkshops: 2, ShouldClean: true}))

	var workshopCount int64
	require.NoError(t, db.Model(&models.Workshop{}).Count(&workshopCount).Error)
	assert.Equal(t, int64(2), workshopCount)
}
