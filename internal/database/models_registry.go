package database

import "atelier/internal/models"

// PersistentModels returns the authoritative set of schema-managed GORM models.
func PersistentModels() []interface{} {
	return []interface{}{
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
	}
}
