package models

import (
	"database/sql/driver"
	"errors"
	"time"
)

// WorkshopStatus defines the publication lifecycle state of a workshop.
type WorkshopStatus string

const (
	// WorkshopStatusDraft indicates a workshop is still being prepared.
	WorkshopStatusDraft WorkshopStatus = "draft"
	// WorkshopStatusScheduled indicates a workshop is ready but not yet announced.
	WorkshopStatusScheduled WorkshopStatus = "scheduled"
	// WorkshopStatusPublished indicates a workshop is announced and open for registration.
	WorkshopStatusPublished WorkshopStatus = "published"
	// WorkshopStatusArchived indicates a workshop has ended and is read-only.
	WorkshopStatusArchived WorkshopStatus = "archived"
)

// RegistrationModeKind discriminates the admission-control policy variants.
type RegistrationModeKind string

const (
	// RegistrationModeOpen admits everyone immediately with no capacity bound.
	RegistrationModeOpen RegistrationModeKind = "open"
	// RegistrationModeCapped bounds capacity with an optional waitlist.
	RegistrationModeCapped RegistrationModeKind = "capped"
	// RegistrationModeApproval defers every request to an organizer decision.
	RegistrationModeApproval RegistrationModeKind = "approval"
	// RegistrationModeLevelGated requires a minimum XP level for admission.
	RegistrationModeLevelGated RegistrationModeKind = "level_gated"
)

// CappedMode carries the fields of the capped admission variant.
type CappedMode struct {
	MaxCapacity     int  `json:"max_capacity"`
	WaitlistEnabled bool `json:"waitlist_enabled"`
}

// ApprovalMode carries the fields of the approval admission variant.
type ApprovalMode struct {
	MaxCapacity *int `json:"max_capacity,omitempty"`
}

// LevelGatedMode carries the fields of the level-gated admission variant.
type LevelGatedMode struct {
	MinLevel    int  `json:"min_level"`
	MaxCapacity *int `json:"max_capacity,omitempty"`
}

// RegistrationMode is a tagged union selecting exactly one admission policy.
// It is stored as a JSON column; Validate enforces that the payload matching
// Kind is the only one present.
type RegistrationMode struct {
	Kind       RegistrationModeKind `json:"kind"`
	Capped     *CappedMode          `json:"capped,omitempty"`
	Approval   *ApprovalMode        `json:"approval,omitempty"`
	LevelGated *LevelGatedMode      `json:"level_gated,omitempty"`
}

// Value implements driver.Valuer.
func (m RegistrationMode) Value() (driver.Value, error) {
	return jsonValue(m)
}

// Scan implements sql.Scanner.
func (m *RegistrationMode) Scan(src any) error {
	return jsonScan(src, m)
}

// Validate checks that exactly the variant payload selected by Kind is set
// and that its fields are coherent.
func (m RegistrationMode) Validate() error {
	switch m.Kind {
	case RegistrationModeOpen:
		if m.Capped != nil || m.Approval != nil || m.LevelGated != nil {
			return errors.New("open mode carries no variant payload")
		}
	case RegistrationModeCapped:
		if m.Capped == nil || m.Approval != nil || m.LevelGated != nil {
			return errors.New("capped mode requires exactly the capped payload")
		}
		if m.Capped.MaxCapacity <= 0 {
			return errors.New("capped mode requires max_capacity > 0")
		}
	case RegistrationModeApproval:
		if m.Approval == nil || m.Capped != nil || m.LevelGated != nil {
			return errors.New("approval mode requires exactly the approval payload")
		}
		if m.Approval.MaxCapacity != nil && *m.Approval.MaxCapacity <= 0 {
			return errors.New("approval mode max_capacity must be > 0 when set")
		}
	case RegistrationModeLevelGated:
		if m.LevelGated == nil || m.Capped != nil || m.Approval != nil {
			return errors.New("level_gated mode requires exactly the level_gated payload")
		}
		if m.LevelGated.MinLevel <= 0 {
			return errors.New("level_gated mode requires min_level > 0")
		}
		if m.LevelGated.MaxCapacity != nil && *m.LevelGated.MaxCapacity <= 0 {
			return errors.New("level_gated mode max_capacity must be > 0 when set")
		}
	default:
		return errors.New("unknown registration mode kind")
	}
	return nil
}

// MaxSeats returns the confirmed-seat bound of the mode, or 0 if unbounded.
func (m RegistrationMode) MaxSeats() int {
	switch m.Kind {
	case RegistrationModeCapped:
		return m.Capped.MaxCapacity
	case RegistrationModeApproval:
		if m.Approval.MaxCapacity != nil {
			return *m.Approval.MaxCapacity
		}
	case RegistrationModeLevelGated:
		if m.LevelGated.MaxCapacity != nil {
			return *m.LevelGated.MaxCapacity
		}
	}
	return 0
}

// Workshop represents a scheduled community workshop.
type Workshop struct {
	ID          uint           `gorm:"primaryKey" json:"id"`
	Title       string         `gorm:"size:160;not null" json:"title"`
	Slug        string         `gorm:"size:64;not null;uniqueIndex" json:"slug"`
	Description string         `gorm:"type:text" json:"description"`
	Status      WorkshopStatus `gorm:"type:varchar(20);not null;default:'draft';index" json:"status"`

	StartsAt time.Time `json:"starts_at"`
	EndsAt   time.Time `json:"ends_at"`

	// Mode is nil until the organizer configures admission control.
	Mode *RegistrationMode `gorm:"type:text" json:"mode,omitempty"`

	// CheckInCode is set only while the workshop is live; it is the single
	// valid check-in credential until refreshed.
	CheckInCode string `gorm:"size:12" json:"-"`

	// RegistrationCount equals the number of registrations currently in
	// status "registered". Mutated only inside locked transactions.
	RegistrationCount int `gorm:"not null;default:0" json:"registration_count"`

	ImageID     *string `gorm:"size:64" json:"image_id,omitempty"`
	CreatorID   uint    `gorm:"not null;index" json:"creator_id"`
	Creator     *User   `gorm:"foreignKey:CreatorID" json:"creator,omitempty"`
	CommunityID *uint   `gorm:"index" json:"community_id,omitempty"`

	Tags StringList `gorm:"type:text" json:"tags"`

	CoHosts []WorkshopCoHost `gorm:"foreignKey:WorkshopID" json:"co_hosts,omitempty"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// TableName specifies the table name for GORM.
func (Workshop) TableName() string {
	return "workshops"
}

// IsLive reports whether the workshop is published and now falls inside its
// scheduled window.
func (w *Workshop) IsLive(now time.Time) bool {
	return w.Status == WorkshopStatusPublished &&
		!now.Before(w.StartsAt) && !now.After(w.EndsAt)
}

// WorkshopCoHost maps co-hosting users to a workshop.
type WorkshopCoHost struct {
	WorkshopID uint      `gorm:"primaryKey;autoIncrement:false" json:"workshop_id"`
	UserID     uint      `gorm:"primaryKey;autoIncrement:false" json:"user_id"`
	User       *User     `gorm:"foreignKey:UserID" json:"user,omitempty"`
	CreatedAt  time.Time `json:"created_at"`
}

// TableName specifies the table name for GORM.
func (WorkshopCoHost) TableName() string {
	return "workshop_co_hosts"
}
