package models

import (
	"database/sql/driver"
	"errors"
	"time"
)

// AssignmentKind discriminates the assignment type variants.
type AssignmentKind string

const (
	// AssignmentKindQuiz expects a quiz-completion reference.
	AssignmentKindQuiz AssignmentKind = "quiz"
	// AssignmentKindFileUpload expects an uploaded file.
	AssignmentKindFileUpload AssignmentKind = "file_upload"
	// AssignmentKindLinkSubmission expects a URL.
	AssignmentKindLinkSubmission AssignmentKind = "link_submission"
)

// QuizAssignment carries the fields of the quiz variant.
type QuizAssignment struct {
	QuizID string `json:"quiz_id"`
}

// FileUploadAssignment carries the fields of the file-upload variant.
type FileUploadAssignment struct {
	// AcceptedFormats are file extensions with a leading dot, matched
	// case-insensitively, e.g. [".pdf", ".zip"].
	AcceptedFormats []string `json:"accepted_formats"`
	MaxSizeBytes    int64    `json:"max_size_bytes"`
}

// LinkSubmissionAssignment carries the fields of the link variant.
type LinkSubmissionAssignment struct{}

// AssignmentSpec is a tagged union selecting exactly one assignment type,
// stored as a JSON column.
type AssignmentSpec struct {
	Kind       AssignmentKind            `json:"kind"`
	Quiz       *QuizAssignment           `json:"quiz,omitempty"`
	FileUpload *FileUploadAssignment     `json:"file_upload,omitempty"`
	Link       *LinkSubmissionAssignment `json:"link_submission,omitempty"`
}

// Value implements driver.Valuer.
func (s AssignmentSpec) Value() (driver.Value, error) {
	return jsonValue(s)
}

// Scan implements sql.Scanner.
func (s *AssignmentSpec) Scan(src any) error {
	return jsonScan(src, s)
}

// Validate checks that exactly the variant payload selected by Kind is set.
func (s AssignmentSpec) Validate() error {
	switch s.Kind {
	case AssignmentKindQuiz:
		if s.Quiz == nil || s.FileUpload != nil || s.Link != nil {
			return errors.New("quiz assignment requires exactly the quiz payload")
		}
		if s.Quiz.QuizID == "" {
			return errors.New("quiz assignment requires quiz_id")
		}
	case AssignmentKindFileUpload:
		if s.FileUpload == nil || s.Quiz != nil || s.Link != nil {
			return errors.New("file_upload assignment requires exactly the file_upload payload")
		}
		if len(s.FileUpload.AcceptedFormats) == 0 {
			return errors.New("file_upload assignment requires accepted_formats")
		}
		if s.FileUpload.MaxSizeBytes <= 0 {
			return errors.New("file_upload assignment requires max_size_bytes > 0")
		}
	case AssignmentKindLinkSubmission:
		if s.Link == nil || s.Quiz != nil || s.FileUpload != nil {
			return errors.New("link_submission assignment requires exactly the link_submission payload")
		}
	default:
		return errors.New("unknown assignment kind")
	}
	return nil
}

// WorkshopAssignment is a reviewable task attached to a workshop.
type WorkshopAssignment struct {
	ID         uint           `gorm:"primaryKey" json:"id"`
	WorkshopID uint           `gorm:"not null;index" json:"workshop_id"`
	Workshop   *Workshop      `gorm:"foreignKey:WorkshopID" json:"workshop,omitempty"`
	Title      string         `gorm:"size:160;not null" json:"title"`
	Position   int            `gorm:"not null" json:"position"`
	Deadline   time.Time      `gorm:"not null" json:"deadline"`
	XpReward   int            `gorm:"not null" json:"xp_reward"`
	Spec       AssignmentSpec `gorm:"type:text" json:"spec"`
	CreatedAt  time.Time      `json:"created_at"`
	UpdatedAt  time.Time      `json:"updated_at"`
}

// TableName specifies the table name for GORM.
func (WorkshopAssignment) TableName() string {
	return "workshop_assignments"
}
