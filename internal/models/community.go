package models

import "time"

// CommunityStatus defines the moderation state of a community.
type CommunityStatus string

const (
	// CommunityStatusActive indicates a community is visible and usable.
	CommunityStatusActive CommunityStatus = "active"
	// CommunityStatusArchived indicates a community is read-only.
	CommunityStatusArchived CommunityStatus = "archived"
)

// Community represents a named group that hosts workshops.
type Community struct {
	ID              uint            `gorm:"primaryKey" json:"id"`
	Name            string          `gorm:"size:120;not null" json:"name"`
	Slug            string          `gorm:"size:24;not null;uniqueIndex" json:"slug"`
	Description     string          `gorm:"type:text" json:"description"`
	CreatedByUserID *uint           `json:"created_by_user_id"`
	CreatedByUser   *User           `gorm:"foreignKey:CreatedByUserID" json:"created_by_user,omitempty"`
	Status          CommunityStatus `gorm:"type:varchar(20);not null;default:'active'" json:"status"`
	CreatedAt       time.Time       `json:"created_at"`
	UpdatedAt       time.Time       `json:"updated_at"`
}

// TableName specifies the table name for GORM.
func (Community) TableName() string {
	return "communities"
}

// CommunityMembershipRole defines a member's role within a community.
type CommunityMembershipRole string

const (
	// CommunityMembershipRoleOrganizer may run workshops for the community.
	CommunityMembershipRoleOrganizer CommunityMembershipRole = "organizer"
	// CommunityMembershipRoleMember is the default member role.
	CommunityMembershipRoleMember CommunityMembershipRole = "member"
)

// CommunityMembership maps users to communities and tracks role.
type CommunityMembership struct {
	CommunityID uint                    `gorm:"primaryKey;autoIncrement:false" json:"community_id"`
	Community   *Community              `gorm:"foreignKey:CommunityID" json:"community,omitempty"`
	UserID      uint                    `gorm:"primaryKey;autoIncrement:false" json:"user_id"`
	User        *User                   `gorm:"foreignKey:UserID" json:"user,omitempty"`
	Role        CommunityMembershipRole `gorm:"type:varchar(20);not null;default:'member'" json:"role"`
	CreatedAt   time.Time               `json:"created_at"`
	UpdatedAt   time.Time               `json:"updated_at"`
}

// TableName specifies the table name for GORM.
func (CommunityMembership) TableName() string {
	return "community_memberships"
}
