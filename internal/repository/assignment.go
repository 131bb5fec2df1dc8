package repository

import (
	"context"
	"errors"

	"atelier/internal/models"

	"gorm.io/gorm"
)

// AssignmentRepository defines persistence operations for assignments,
// submissions and quiz completions. Review mutations run inside locked
// transactions owned by the assignment service.
type AssignmentRepository interface {
	Create(ctx context.Context, assignment *models.WorkshopAssignment) error
	GetByID(ctx context.Context, id uint) (*models.WorkshopAssignment, error)
	ListByWorkshop(ctx context.Context, workshopID uint) ([]models.WorkshopAssignment, error)
	Update(ctx context.Context, assignment *models.WorkshopAssignment) error
	Delete(ctx context.Context, id uint) error

	GetSubmission(ctx context.Context, assignmentID, userID uint) (*models.AssignmentSubmission, error)
	GetSubmissionByID(ctx context.Context, id uint) (*models.AssignmentSubmission, error)
	ListSubmissions(ctx context.Context, assignmentID uint, limit, offset int) ([]models.AssignmentSubmission, error)
	ListSubmissionsByUser(ctx context.Context, userID uint, limit, offset int) ([]models.AssignmentSubmission, error)

	CreateQuizCompletion(ctx context.Context, completion *models.QuizCompletion) error
	GetQuizCompletion(ctx context.Context, id uint) (*models.QuizCompletion, error)
}

type assignmentRepository struct {
	db *gorm.DB
}

// NewAssignmentRepository returns a new AssignmentRepository implementation.
func NewAssignmentRepository(db *gorm.DB) AssignmentRepository {
	return &assignmentRepository{db: db}
}

func (r *assignmentRepository) Create(ctx context.Context, assignment *models.WorkshopAssignment) error {
	if err := r.db.WithContext(ctx).Create(assignment).Error; err != nil {
		return models.NewInternalError(err)
	}
	return nil
}

func (r *assignmentRepository) GetByID(ctx context.Context, id uint) (*models.WorkshopAssignment, error) {
	var assignment models.WorkshopAssignment
	if err := r.db.WithContext(ctx).First(&assignment, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, models.NewNotFoundError("Assignment", id)
		}
		return nil, models.NewInternalError(err)
	}
	return &assignment, nil
}

func (r *assignmentRepository) ListByWorkshop(ctx context.Context, workshopID uint) ([]models.WorkshopAssignment, error) {
	var assignments []models.WorkshopAssignment
	err := r.db.WithContext(ctx).
		Where("workshop_id = ?", workshopID).
		Order("position asc, id asc").
		Find(&assignments).Error
	if err != nil {
		return nil, models.NewInternalError(err)
	}
	return assignments, nil
}

func (r *assignmentRepository) Update(ctx context.Context, assignment *models.WorkshopAssignment) error {
	if err := r.db.WithContext(ctx).Save(assignment).Error; err != nil {
		return models.NewInternalError(err)
	}
	return nil
}

func (r *assignmentRepository) Delete(ctx context.Context, id uint) error {
	if err := r.db.WithContext(ctx).Delete(&models.WorkshopAssignment{}, id).Error; err != nil {
		return models.NewInternalError(err)
	}
	return nil
}

func (r *assignmentRepository) GetSubmission(ctx context.Context, assignmentID, userID uint) (*models.AssignmentSubmission, error) {
	var sub models.AssignmentSubmission
	err := r.db.WithContext(ctx).
		Where("assignment_id = ? AND user_id = ?", assignmentID, userID).
		First(&sub).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, models.NewInternalError(err)
	}
	return &sub, nil
}

func (r *assignmentRepository) GetSubmissionByID(ctx context.Context, id uint) (*models.AssignmentSubmission, error) {
	var sub models.AssignmentSubmission
	if err := r.db.WithContext(ctx).First(&sub, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, models.NewNotFoundError("Submission", id)
		}
		return nil, models.NewInternalError(err)
	}
	return &sub, nil
}

func (r *assignmentRepository) ListSubmissions(ctx context.Context, assignmentID uint, limit, offset int) ([]models.AssignmentSubmission, error) {
	var subs []models.AssignmentSubmission
	err := r.db.WithContext(ctx).Preload("User").
		Where("assignment_id = ?", assignmentID).
		Order("submitted_at asc").
		Limit(limit).Offset(offset).
		Find(&subs).Error
	if err != nil {
		return nil, models.NewInternalError(err)
	}
	return subs, nil
}

func (r *assignmentRepository) ListSubmissionsByUser(ctx context.Context, userID uint, limit, offset int) ([]models.AssignmentSubmission, error) {
	var subs []models.AssignmentSubmission
	err := r.db.WithContext(ctx).Preload("Assignment").
		Where("user_id = ?", userID).
		Order("submitted_at desc").
		Limit(limit).Offset(offset).
		Find(&subs).Error
	if err != nil {
		return nil, models.NewInternalError(err)
	}
	return subs, nil
}

func (r *assignmentRepository) CreateQuizCompletion(ctx context.Context, completion *models.QuizCompletion) error {
	if err := r.db.WithContext(ctx).Create(completion).Error; err != nil {
		return models.NewInternalError(err)
	}
	return nil
}

func (r *assignmentRepository) GetQuizCompletion(ctx context.Context, id uint) (*models.QuizCompletion, error) {
	var completion models.QuizCompletion
	if err := r.db.WithContext(ctx).First(&completion, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, models.NewNotFoundError("Quiz completion", id)
		}
		return nil, models.NewInternalError(err)
	}
	return &completion, nil
}
