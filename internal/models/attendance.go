package models

import "time"

// AttendanceMethod records how a check-in was performed.
type AttendanceMethod string

const (
	// AttendanceMethodCode is a self check-in with the rotating code.
	AttendanceMethodCode AttendanceMethod = "code"
	// AttendanceMethodManual is an organizer-performed check-in.
	AttendanceMethodManual AttendanceMethod = "manual"
)

// WorkshopAttendance records that a registered user checked in to a
// workshop. At most one row exists per (workshop, user).
type WorkshopAttendance struct {
	ID          uint             `gorm:"primaryKey" json:"id"`
	WorkshopID  uint             `gorm:"not null;uniqueIndex:idx_workshop_user_attendance" json:"workshop_id"`
	UserID      uint             `gorm:"not null;uniqueIndex:idx_workshop_user_attendance" json:"user_id"`
	User        *User            `gorm:"foreignKey:UserID" json:"user,omitempty"`
	Method      AttendanceMethod `gorm:"type:varchar(10);not null" json:"method"`
	CheckedInAt time.Time        `gorm:"not null" json:"checked_in_at"`
	CreatedAt   time.Time        `json:"created_at"`
}

// TableName specifies the table name for GORM.
func (WorkshopAttendance) TableName() string {
	return "workshop_attendances"
}
