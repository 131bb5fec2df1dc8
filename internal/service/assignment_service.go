package service

import (
	"context"
	"errors"
	"time"

	"atelier/internal/blob"
	"atelier/internal/models"
	"atelier/internal/observability"
	"atelier/internal/repository"
	"atelier/internal/validation"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// AssignmentService implements assignment management, submission intake
// and review. Approval is one-way and pays the reward exactly once.
type AssignmentService struct {
	db         *gorm.DB
	assignRepo repository.AssignmentRepository
	blobs      blob.Store
	xp         *XpService
}

// NewAssignmentService creates the assignment service.
func NewAssignmentService(db *gorm.DB, assignRepo repository.AssignmentRepository, blobs blob.Store, xp *XpService) *AssignmentService {
	return &AssignmentService{db: db, assignRepo: assignRepo, blobs: blobs, xp: xp}
}

// CreateAssignmentInput carries the fields for a new assignment.
type CreateAssignmentInput struct {
	WorkshopID uint
	Title      string
	Position   int
	Deadline   time.Time
	XpReward   int
	Spec       models.AssignmentSpec
}

// CreateAssignment attaches a new assignment to a workshop.
func (s *AssignmentService) CreateAssignment(ctx context.Context, in CreateAssignmentInput) (*models.WorkshopAssignment, error) {
	if in.Title == "" {
		return nil, models.NewValidationError("Assignment title is required")
	}
	if in.XpReward < 0 {
		return nil, models.NewValidationError("XP reward cannot be negative")
	}
	if in.Deadline.IsZero() {
		return nil, models.NewValidationError("Assignment deadline is required")
	}
	if err := in.Spec.Validate(); err != nil {
		return nil, models.NewValidationError(err.Error())
	}

	var workshop models.Workshop
	if err := s.db.WithContext(ctx).First(&workshop, in.WorkshopID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, models.NewNotFoundError("Workshop", in.WorkshopID)
		}
		return nil, models.NewInternalError(err)
	}
	if workshop.Status == models.WorkshopStatusArchived {
		return nil, models.NewInvalidStateError("archived workshops cannot take new assignments")
	}

	assignment := models.WorkshopAssignment{
		WorkshopID: in.WorkshopID,
		Title:      in.Title,
		Position:   in.Position,
		Deadline:   in.Deadline,
		XpReward:   in.XpReward,
		Spec:       in.Spec,
	}
	if err := s.assignRepo.Create(ctx, &assignment); err != nil {
		return nil, err
	}
	return &assignment, nil
}

// UpdateAssignmentInput carries the patchable assignment fields. Nil
// pointers leave a field unchanged.
type UpdateAssignmentInput struct {
	Title    *string
	Position *int
	Deadline *time.Time
	XpReward *int
}

// UpdateAssignment patches title, ordering, deadline or reward. The
// submission type spec is immutable once submissions exist.
func (s *AssignmentService) UpdateAssignment(ctx context.Context, id uint, in UpdateAssignmentInput) (*models.WorkshopAssignment, error) {
	assignment, err := s.assignRepo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if in.Title != nil {
		if *in.Title == "" {
			return nil, models.NewValidationError("Assignment title is required")
		}
		assignment.Title = *in.Title
	}
	if in.Position != nil {
		assignment.Position = *in.Position
	}
	if in.Deadline != nil {
		assignment.Deadline = *in.Deadline
	}
	if in.XpReward != nil {
		if *in.XpReward < 0 {
			return nil, models.NewValidationError("XP reward cannot be negative")
		}
		assignment.XpReward = *in.XpReward
	}

	if err := s.assignRepo.Update(ctx, assignment); err != nil {
		return nil, err
	}
	return assignment, nil
}

// DeleteAssignment removes an assignment that has no submissions yet.
func (s *AssignmentService) DeleteAssignment(ctx context.Context, id uint) error {
	if _, err := s.assignRepo.GetByID(ctx, id); err != nil {
		return err
	}

	var count int64
	if err := s.db.WithContext(ctx).Model(&models.AssignmentSubmission{}).
		Where("assignment_id = ?", id).Count(&count).Error; err != nil {
		return models.NewInternalError(err)
	}
	if count > 0 {
		return models.NewInvalidStateError("assignments with submissions cannot be deleted")
	}
	return s.assignRepo.Delete(ctx, id)
}

// GetAssignment returns one assignment.
func (s *AssignmentService) GetAssignment(ctx context.Context, id uint) (*models.WorkshopAssignment, error) {
	return s.assignRepo.GetByID(ctx, id)
}

// ListAssignments returns a workshop's assignments in display order.
func (s *AssignmentService) ListAssignments(ctx context.Context, workshopID uint) ([]models.WorkshopAssignment, error) {
	return s.assignRepo.ListByWorkshop(ctx, workshopID)
}

// RecordQuizCompletionInput carries a finished quiz attempt.
type RecordQuizCompletionInput struct {
	QuizID     string
	WorkshopID uint
	UserID     uint
	Score      int
}

// RecordQuizCompletion stores a finished quiz attempt so quiz-type
// submissions can reference it.
func (s *AssignmentService) RecordQuizCompletion(ctx context.Context, in RecordQuizCompletionInput) (*models.QuizCompletion, error) {
	if in.QuizID == "" {
		return nil, models.NewValidationError("Quiz ID is required")
	}
	completion := models.QuizCompletion{
		QuizID:      in.QuizID,
		WorkshopID:  in.WorkshopID,
		UserID:      in.UserID,
		Score:       in.Score,
		CompletedAt: time.Now().UTC(),
	}
	if err := s.assignRepo.CreateQuizCompletion(ctx, &completion); err != nil {
		return nil, err
	}
	return &completion, nil
}

// Submit files or replaces the user's submission for an assignment.
// Submission requires a prior check-in to the workshop, must happen
// before the deadline, and the content must match the assignment's
// configured type. An approved submission can never be overwritten.
func (s *AssignmentService) Submit(ctx context.Context, assignmentID, userID uint, content models.SubmissionContent) (*models.AssignmentSubmission, error) {
	var submission *models.AssignmentSubmission
	now := time.Now().UTC()

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var assignment models.WorkshopAssignment
		if err := tx.First(&assignment, assignmentID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return models.NewNotFoundError("Assignment", assignmentID)
			}
			return models.NewInternalError(err)
		}

		if now.After(assignment.Deadline) {
			return models.NewInvalidStateError("the assignment deadline has passed")
		}

		// Cancelling a registration revokes submission rights even when
		// a check-in row remains from before the cancellation.
		var reg models.WorkshopRegistration
		err := tx.Where("workshop_id = ? AND user_id = ?", assignment.WorkshopID, userID).
			First(&reg).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return models.NewNotRegisteredError(assignment.WorkshopID)
		}
		if err != nil {
			return models.NewInternalError(err)
		}
		if reg.Status != models.RegistrationStatusRegistered {
			return models.NewNotRegisteredError(assignment.WorkshopID)
		}

		var attended int64
		if err := tx.Model(&models.WorkshopAttendance{}).
			Where("workshop_id = ? AND user_id = ?", assignment.WorkshopID, userID).
			Count(&attended).Error; err != nil {
			return models.NewInternalError(err)
		}
		if attended == 0 {
			return models.NewNotCheckedInError(assignment.WorkshopID)
		}

		if err := content.Validate(); err != nil {
			return models.NewValidationError(err.Error())
		}
		if content.Kind != assignment.Spec.Kind {
			return models.NewValidationError("Submission type does not match the assignment type")
		}
		if err := s.validateContentTx(ctx, tx, &assignment, userID, content); err != nil {
			return err
		}

		var existing models.AssignmentSubmission
		err = tx.Clauses(clause.Locking{Strength: "UPDATE"}).
			Where("assignment_id = ? AND user_id = ?", assignmentID, userID).
			First(&existing).Error
		switch {
		case err == nil:
			if existing.Review.Kind == models.ReviewKindApproved {
				return models.NewAlreadyApprovedError(existing.ID)
			}
			existing.Content = content
			existing.Review = models.Submitted()
			existing.SubmittedAt = now
			if err := tx.Save(&existing).Error; err != nil {
				return models.NewInternalError(err)
			}
			submission = &existing
		case errors.Is(err, gorm.ErrRecordNotFound):
			created := models.AssignmentSubmission{
				AssignmentID: assignmentID,
				UserID:       userID,
				Content:      content,
				Review:       models.Submitted(),
				SubmittedAt:  now,
			}
			if err := tx.Create(&created).Error; err != nil {
				return models.NewInternalError(err)
			}
			submission = &created
		default:
			return models.NewInternalError(err)
		}
		return nil
	})

	if err != nil {
		return nil, err
	}
	return submission, nil
}

// validateContentTx runs the type-specific checks of a submission.
func (s *AssignmentService) validateContentTx(ctx context.Context, tx *gorm.DB, assignment *models.WorkshopAssignment, userID uint, content models.SubmissionContent) error {
	switch content.Kind {
	case models.AssignmentKindQuiz:
		var completion models.QuizCompletion
		err := tx.First(&completion, content.Quiz.CompletionID).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return models.NewValidationError("Referenced quiz completion does not exist")
		}
		if err != nil {
			return models.NewInternalError(err)
		}
		if completion.UserID != userID {
			return models.NewForbiddenError("Quiz completion belongs to another user")
		}
		if completion.QuizID != assignment.Spec.Quiz.QuizID || completion.WorkshopID != assignment.WorkshopID {
			return models.NewValidationError("Quiz completion does not match this assignment")
		}

	case models.AssignmentKindFileUpload:
		info, err := s.blobs.Stat(ctx, content.FileUpload.BlobID)
		if errors.Is(err, blob.ErrNotFound) {
			return models.NewValidationError("Uploaded file not found")
		}
		if err != nil {
			return models.NewInternalError(err)
		}
		spec := assignment.Spec.FileUpload
		if !validation.AllowedFileFormat(content.FileUpload.Filename, spec.AcceptedFormats) {
			return models.NewValidationError("File format is not accepted for this assignment")
		}
		if !validation.WithinSizeLimit(info.SizeBytes, spec.MaxSizeBytes) {
			return models.NewValidationError("File exceeds the assignment size limit")
		}

	case models.AssignmentKindLinkSubmission:
		if !validation.ValidSubmissionURL(content.Link.URL) {
			return models.NewValidationError("Submission URL must be an absolute http(s) URL")
		}
	}
	return nil
}

// ReviewResult reports a review decision and the reward it paid.
type ReviewResult struct {
	Submission *models.AssignmentSubmission
	// Award is non-nil only when an approval paid XP.
	Award *XpAward
}

// Review records an organizer's decision on a submission. Approval is
// terminal and pays the assignment's reward exactly once; a rejected
// submission may be re-submitted and reviewed again.
func (s *AssignmentService) Review(ctx context.Context, submissionID, reviewerID uint, approve bool, feedback string) (*ReviewResult, error) {
	result := &ReviewResult{}
	now := time.Now().UTC()

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var submission models.AssignmentSubmission
		err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).First(&submission, submissionID).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return models.NewNotFoundError("Submission", submissionID)
		}
		if err != nil {
			return models.NewInternalError(err)
		}

		if submission.Review.Kind == models.ReviewKindApproved {
			return models.NewAlreadyApprovedError(submissionID)
		}

		if !approve {
			submission.Review = models.ReviewState{
				Kind: models.ReviewKindRejected,
				Rejected: &models.RejectedReview{
					ReviewedAt: now,
					ReviewedBy: reviewerID,
					Feedback:   feedback,
				},
			}
			if err := tx.Save(&submission).Error; err != nil {
				return models.NewInternalError(err)
			}
			result.Submission = &submission
			return nil
		}

		var assignment models.WorkshopAssignment
		if err := tx.First(&assignment, submission.AssignmentID).Error; err != nil {
			return models.NewInternalError(err)
		}

		source := models.XpSource{
			Kind: models.XpSourceAssignment,
			Assignment: &models.AssignmentSource{
				AssignmentID: assignment.ID,
				SubmissionID: submission.ID,
			},
		}
		award, err := s.xp.AwardTx(tx, submission.UserID, assignment.XpReward, source, now)
		if err != nil {
			return err
		}

		paid := 0
		if award != nil {
			paid = award.Transaction.FinalXp
		}
		submission.Review = models.ReviewState{
			Kind: models.ReviewKindApproved,
			Approved: &models.ApprovedReview{
				ReviewedAt: now,
				ReviewedBy: reviewerID,
				Feedback:   feedback,
				XpAwarded:  paid,
			},
		}
		if err := tx.Save(&submission).Error; err != nil {
			return models.NewInternalError(err)
		}
		result.Submission = &submission
		result.Award = award
		return nil
	})

	if err != nil {
		return nil, err
	}
	decision := "rejected"
	if approve {
		decision = "approved"
	}
	observability.SubmissionReviews.WithLabelValues(decision).Inc()
	return result, nil
}

// GetSubmission returns one submission by ID.
func (s *AssignmentService) GetSubmission(ctx context.Context, id uint) (*models.AssignmentSubmission, error) {
	return s.assignRepo.GetSubmissionByID(ctx, id)
}

// GetMySubmission returns the user's submission for an assignment, if any.
func (s *AssignmentService) GetMySubmission(ctx context.Context, assignmentID, userID uint) (*models.AssignmentSubmission, error) {
	sub, err := s.assignRepo.GetSubmission(ctx, assignmentID, userID)
	if err != nil {
		return nil, err
	}
	if sub == nil {
		return nil, models.NewNotFoundError("Submission", assignmentID)
	}
	return sub, nil
}

// ListSubmissions returns a page of an assignment's submissions in
// submission order.
func (s *AssignmentService) ListSubmissions(ctx context.Context, assignmentID uint, limit, offset int) ([]models.AssignmentSubmission, error) {
	return s.assignRepo.ListSubmissions(ctx, assignmentID, clampLimit(limit), offset)
}

// ListMySubmissions returns the user's submissions, newest first.
func (s *AssignmentService) ListMySubmissions(ctx context.Context, userID uint, limit, offset int) ([]models.AssignmentSubmission, error) {
	return s.assignRepo.ListSubmissionsByUser(ctx, userID, clampLimit(limit), offset)
}
