package models

import "time"

// QuizCompletion records that a user finished a quiz attached to a
// workshop. The quiz widget itself lives outside this service; submissions
// of quiz-type assignments reference these rows.
type QuizCompletion struct {
	ID          uint      `gorm:"primaryKey" json:"id"`
	QuizID      string    `gorm:"size:64;not null;index" json:"quiz_id"`
	WorkshopID  uint      `gorm:"not null;index" json:"workshop_id"`
	UserID      uint      `gorm:"not null;index" json:"user_id"`
	Score       int       `gorm:"not null" json:"score"`
	CompletedAt time.Time `gorm:"not null" json:"completed_at"`
	CreatedAt   time.Time `json:"created_at"`
}

// TableName specifies the table name for GORM.
func (QuizCompletion) TableName() string {
	return "quiz_completions"
}
