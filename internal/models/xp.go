package models

import (
	"database/sql/driver"
	"errors"
	"time"
)

// XpSourceKind discriminates the provenance variants of an XP transaction.
type XpSourceKind string

const (
	// XpSourceAttendance was paid for a workshop check-in.
	XpSourceAttendance XpSourceKind = "attendance"
	// XpSourceAssignment was paid for an approved assignment submission.
	XpSourceAssignment XpSourceKind = "assignment"
	// XpSourceQuiz was paid for a quiz completion.
	XpSourceQuiz XpSourceKind = "quiz"
	// XpSourceBonus was paid by an administrative grant.
	XpSourceBonus XpSourceKind = "bonus"
)

// AttendanceSource identifies the check-in that paid a reward.
type AttendanceSource struct {
	WorkshopID uint `json:"workshop_id"`
}

// AssignmentSource identifies the approved submission that paid a reward.
type AssignmentSource struct {
	AssignmentID uint `json:"assignment_id"`
	SubmissionID uint `json:"submission_id"`
}

// QuizSource identifies the quiz completion that paid a reward.
type QuizSource struct {
	CompletionID uint `json:"completion_id"`
}

// BonusSource carries the reason for an administrative grant.
type BonusSource struct {
	Reason string `json:"reason"`
}

// XpSource is a tagged union identifying exactly which event paid a
// reward, stored as a JSON column on the transaction row.
type XpSource struct {
	Kind       XpSourceKind      `json:"kind"`
	Attendance *AttendanceSource `json:"attendance,omitempty"`
	Assignment *AssignmentSource `json:"assignment,omitempty"`
	Quiz       *QuizSource       `json:"quiz,omitempty"`
	Bonus      *BonusSource      `json:"bonus,omitempty"`
}

// Value implements driver.Valuer.
func (s XpSource) Value() (driver.Value, error) {
	return jsonValue(s)
}

// Scan implements sql.Scanner.
func (s *XpSource) Scan(src any) error {
	return jsonScan(src, s)
}

// Validate checks that exactly the variant payload selected by Kind is set.
func (s XpSource) Validate() error {
	switch s.Kind {
	case XpSourceAttendance:
		if s.Attendance == nil || s.Assignment != nil || s.Quiz != nil || s.Bonus != nil {
			return errors.New("attendance source requires exactly the attendance payload")
		}
	case XpSourceAssignment:
		if s.Assignment == nil || s.Attendance != nil || s.Quiz != nil || s.Bonus != nil {
			return errors.New("assignment source requires exactly the assignment payload")
		}
	case XpSourceQuiz:
		if s.Quiz == nil || s.Attendance != nil || s.Assignment != nil || s.Bonus != nil {
			return errors.New("quiz source requires exactly the quiz payload")
		}
	case XpSourceBonus:
		if s.Bonus == nil || s.Attendance != nil || s.Assignment != nil || s.Quiz != nil {
			return errors.New("bonus source requires exactly the bonus payload")
		}
	default:
		return errors.New("unknown xp source kind")
	}
	return nil
}

// XpTransaction is an append-only reward record. Rows are never updated or
// deleted; the ledger is the audit source of truth.
type XpTransaction struct {
	ID         uint      `gorm:"primaryKey" json:"id"`
	UserID     uint      `gorm:"not null;index" json:"user_id"`
	Amount     int       `gorm:"not null" json:"amount"`
	Multiplier float64   `gorm:"not null;default:1" json:"multiplier"`
	FinalXp    int       `gorm:"not null" json:"final_xp"`
	Source     XpSource  `gorm:"type:text" json:"source"`
	CreatedAt  time.Time `json:"created_at"`
}

// TableName specifies the table name for GORM.
func (XpTransaction) TableName() string {
	return "xp_transactions"
}

// XpProfile caches a user's running XP total. It is written in the same
// transaction as every ledger insert and is never recomputed by summing.
type XpProfile struct {
	UserID    uint      `gorm:"primaryKey;autoIncrement:false" json:"user_id"`
	TotalXp   int64     `gorm:"not null;default:0" json:"total_xp"`
	UpdatedAt time.Time `json:"updated_at"`
}

// TableName specifies the table name for GORM.
func (XpProfile) TableName() string {
	return "xp_profiles"
}

// XpBoost is a time-boxed reward multiplier. A nil UserID applies globally.
type XpBoost struct {
	ID         uint      `gorm:"primaryKey" json:"id"`
	UserID     *uint     `gorm:"index" json:"user_id,omitempty"`
	Multiplier float64   `gorm:"not null" json:"multiplier"`
	StartsAt   time.Time `gorm:"not null" json:"starts_at"`
	EndsAt     time.Time `gorm:"not null" json:"ends_at"`
	IsActive   bool      `gorm:"not null;default:true" json:"is_active"`
	CreatedAt  time.Time `json:"created_at"`
}

// TableName specifies the table name for GORM.
func (XpBoost) TableName() string {
	return "xp_boosts"
}

// AppliesTo reports whether the boost is in effect for the user at now.
func (b *XpBoost) AppliesTo(userID uint, now time.Time) bool {
	if !b.IsActive {
		return false
	}
	if b.UserID != nil && *b.UserID != userID {
		return false
	}
	return !now.Before(b.StartsAt) && !now.After(b.EndsAt)
}
