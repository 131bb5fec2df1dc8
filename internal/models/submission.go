package models

import (
	"database/sql/driver"
	"errors"
	"time"
)

// QuizSubmission references a quiz-completion record.
type QuizSubmission struct {
	CompletionID uint `json:"completion_id"`
}

// FileUploadSubmission references an uploaded blob.
type FileUploadSubmission struct {
	BlobID   string `json:"blob_id"`
	Filename string `json:"filename"`
}

// LinkSubmission carries a submitted URL.
type LinkSubmission struct {
	URL string `json:"url"`
}

// SubmissionContent is a tagged union carrying exactly one submission
// payload, stored as a JSON column. Its Kind must match the assignment's
// configured kind.
type SubmissionContent struct {
	Kind       AssignmentKind        `json:"kind"`
	Quiz       *QuizSubmission       `json:"quiz,omitempty"`
	FileUpload *FileUploadSubmission `json:"file_upload,omitempty"`
	Link       *LinkSubmission       `json:"link_submission,omitempty"`
}

// Value implements driver.Valuer.
func (c SubmissionContent) Value() (driver.Value, error) {
	return jsonValue(c)
}

// Scan implements sql.Scanner.
func (c *SubmissionContent) Scan(src any) error {
	return jsonScan(src, c)
}

// Validate checks that exactly the variant payload selected by Kind is set.
func (c SubmissionContent) Validate() error {
	switch c.Kind {
	case AssignmentKindQuiz:
		if c.Quiz == nil || c.FileUpload != nil || c.Link != nil {
			return errors.New("quiz content requires exactly the quiz payload")
		}
		if c.Quiz.CompletionID == 0 {
			return errors.New("quiz content requires completion_id")
		}
	case AssignmentKindFileUpload:
		if c.FileUpload == nil || c.Quiz != nil || c.Link != nil {
			return errors.New("file_upload content requires exactly the file_upload payload")
		}
		if c.FileUpload.BlobID == "" || c.FileUpload.Filename == "" {
			return errors.New("file_upload content requires blob_id and filename")
		}
	case AssignmentKindLinkSubmission:
		if c.Link == nil || c.Quiz != nil || c.FileUpload != nil {
			return errors.New("link content requires exactly the link_submission payload")
		}
		if c.Link.URL == "" {
			return errors.New("link content requires url")
		}
	default:
		return errors.New("unknown submission content kind")
	}
	return nil
}

// ReviewKind discriminates the review state variants.
type ReviewKind string

const (
	// ReviewKindSubmitted awaits review; no review fields exist.
	ReviewKindSubmitted ReviewKind = "submitted"
	// ReviewKindApproved is terminal and carries the paid reward.
	ReviewKindApproved ReviewKind = "approved"
	// ReviewKindRejected carries reviewer feedback and permits re-submission.
	ReviewKindRejected ReviewKind = "rejected"
)

// ApprovedReview carries the fields of the approved state.
type ApprovedReview struct {
	ReviewedAt time.Time `json:"reviewed_at"`
	ReviewedBy uint      `json:"reviewed_by"`
	Feedback   string    `json:"feedback,omitempty"`
	XpAwarded  int       `json:"xp_awarded"`
}

// RejectedReview carries the fields of the rejected state.
type RejectedReview struct {
	ReviewedAt time.Time `json:"reviewed_at"`
	ReviewedBy uint      `json:"reviewed_by"`
	Feedback   string    `json:"feedback,omitempty"`
}

// ReviewState is a tagged union over the submission review lifecycle,
// stored as a JSON column. A submitted state cannot carry review fields.
type ReviewState struct {
	Kind     ReviewKind      `json:"kind"`
	Approved *ApprovedReview `json:"approved,omitempty"`
	Rejected *RejectedReview `json:"rejected,omitempty"`
}

// Submitted returns the initial review state.
func Submitted() ReviewState {
	return ReviewState{Kind: ReviewKindSubmitted}
}

// Value implements driver.Valuer.
func (r ReviewState) Value() (driver.Value, error) {
	return jsonValue(r)
}

// Scan implements sql.Scanner.
func (r *ReviewState) Scan(src any) error {
	return jsonScan(src, r)
}

// Validate checks that exactly the variant payload selected by Kind is set.
func (r ReviewState) Validate() error {
	switch r.Kind {
	case ReviewKindSubmitted:
		if r.Approved != nil || r.Rejected != nil {
			return errors.New("submitted state carries no review payload")
		}
	case ReviewKindApproved:
		if r.Approved == nil || r.Rejected != nil {
			return errors.New("approved state requires exactly the approved payload")
		}
	case ReviewKindRejected:
		if r.Rejected == nil || r.Approved != nil {
			return errors.New("rejected state requires exactly the rejected payload")
		}
	default:
		return errors.New("unknown review state kind")
	}
	return nil
}

// AssignmentSubmission is one user's submission for an assignment. At most
// one row exists per (assignment, user); re-submission before approval
// overwrites content in place.
type AssignmentSubmission struct {
	ID           uint                `gorm:"primaryKey" json:"id"`
	AssignmentID uint                `gorm:"not null;uniqueIndex:idx_assignment_user_submission" json:"assignment_id"`
	Assignment   *WorkshopAssignment `gorm:"foreignKey:AssignmentID" json:"assignment,omitempty"`
	UserID       uint                `gorm:"not null;uniqueIndex:idx_assignment_user_submission" json:"user_id"`
	User         *User               `gorm:"foreignKey:UserID" json:"user,omitempty"`
	Content      SubmissionContent   `gorm:"type:text" json:"content"`
	Review       ReviewState         `gorm:"type:text" json:"review"`
	SubmittedAt  time.Time           `gorm:"not null" json:"submitted_at"`
	CreatedAt    time.Time           `json:"created_at"`
	UpdatedAt    time.Time           `json:"updated_at"`
}

// TableName specifies the table name for GORM.
func (AssignmentSubmission) TableName() string {
	return "assignment_submissions"
}
