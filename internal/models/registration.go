package models

import "time"

// RegistrationStatus defines lifecycle states for a workshop registration.
// "registered" is the single "may attend" state across all admission modes;
// an approval decision moves pending_approval directly to registered.
type RegistrationStatus string

const (
	// RegistrationStatusRegistered holds a confirmed seat.
	RegistrationStatusRegistered RegistrationStatus = "registered"
	// RegistrationStatusWaitlisted is queued for a freed seat.
	RegistrationStatusWaitlisted RegistrationStatus = "waitlisted"
	// RegistrationStatusPendingApproval awaits an organizer decision.
	RegistrationStatusPendingApproval RegistrationStatus = "pending_approval"
	// RegistrationStatusRejected was denied admission.
	RegistrationStatusRejected RegistrationStatus = "rejected"
	// RegistrationStatusCancelled was withdrawn by the registrant.
	RegistrationStatusCancelled RegistrationStatus = "cancelled"
)

// IsActive reports whether the status blocks a new registration attempt.
func (s RegistrationStatus) IsActive() bool {
	switch s {
	case RegistrationStatusRegistered, RegistrationStatusWaitlisted, RegistrationStatusPendingApproval:
		return true
	}
	return false
}

// WorkshopRegistration is the admission record for one user on one workshop.
// Rows are never hard-deleted; cancelled and rejected rows are reused on a
// later registration attempt.
type WorkshopRegistration struct {
	ID           uint               `gorm:"primaryKey" json:"id"`
	WorkshopID   uint               `gorm:"not null;uniqueIndex:idx_workshop_user_registration" json:"workshop_id"`
	Workshop     *Workshop          `gorm:"foreignKey:WorkshopID" json:"workshop,omitempty"`
	UserID       uint               `gorm:"not null;uniqueIndex:idx_workshop_user_registration" json:"user_id"`
	User         *User              `gorm:"foreignKey:UserID" json:"user,omitempty"`
	Status       RegistrationStatus `gorm:"type:varchar(20);not null;index" json:"status"`
	RegisteredAt time.Time          `gorm:"not null;index" json:"registered_at"`
	CreatedAt    time.Time          `json:"created_at"`
	UpdatedAt    time.Time          `json:"updated_at"`
}

// TableName specifies the table name for GORM.
func (WorkshopRegistration) TableName() string {
	return "workshop_registrations"
}
