package server

import (
	"time"

	"atelier/internal/models"
	"atelier/internal/service"

	"github.com/gofiber/fiber/v2"
)

// GetAssignments handles GET /api/workshops/:id/assignments
func (s *Server) GetAssignments(c *fiber.Ctx) error {
	workshopID, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}

	assignments, err := s.assignmentService.ListAssignments(c.Context(), workshopID)
	if err != nil {
		return models.RespondWithAppError(c, err)
	}
	return c.JSON(assignments)
}

// CreateAssignment handles POST /api/workshops/:id/assignments
func (s *Server) CreateAssignment(c *fiber.Ctx) error {
	workshopID, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}
	if _, err := s.requireWorkshopManager(c, workshopID); err != nil {
		return nil
	}

	var req struct {
		Title    string                `json:"title"`
		Position int                   `json:"position"`
		Deadline time.Time             `json:"deadline"`
		XpReward int                   `json:"xp_reward"`
		Spec     models.AssignmentSpec `json:"spec"`
	}
	if err := c.BodyParser(&req); err != nil {
		return models.RespondWithError(c, fiber.StatusBadRequest,
			models.NewValidationError("Invalid request body"))
	}

	assignment, err := s.assignmentService.CreateAssignment(c.Context(), service.CreateAssignmentInput{
		WorkshopID: workshopID,
		Title:      req.Title,
		Position:   req.Position,
		Deadline:   req.Deadline,
		XpReward:   req.XpReward,
		Spec:       req.Spec,
	})
	if err != nil {
		return models.RespondWithAppError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(assignment)
}

// UpdateAssignment handles PUT /api/assignments/:id
func (s *Server) UpdateAssignment(c *fiber.Ctx) error {
	assignmentID, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}

	assignment, err := s.assignmentService.GetAssignment(c.Context(), assignmentID)
	if err != nil {
		return models.RespondWithAppError(c, err)
	}
	if _, err := s.requireWorkshopManager(c, assignment.WorkshopID); err != nil {
		return nil
	}

	var req struct {
		Title    *string    `json:"title"`
		Position *int       `json:"position"`
		Deadline *time.Time `json:"deadline"`
		XpReward *int       `json:"xp_reward"`
	}
	if err := c.BodyParser(&req); err != nil {
		return models.RespondWithError(c, fiber.StatusBadRequest,
			models.NewValidationError("Invalid request body"))
	}

	updated, err := s.assignmentService.UpdateAssignment(c.Context(), assignmentID, service.UpdateAssignmentInput{
		Title:    req.Title,
		Position: req.Position,
		Deadline: req.Deadline,
		XpReward: req.XpReward,
	})
	if err != nil {
		return models.RespondWithAppError(c, err)
	}
	return c.JSON(updated)
}

// DeleteAssignment handles DELETE /api/assignments/:id
func (s *Server) DeleteAssignment(c *fiber.Ctx) error {
	assignmentID, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}

	assignment, err := s.assignmentService.GetAssignment(c.Context(), assignmentID)
	if err != nil {
		return models.RespondWithAppError(c, err)
	}
	if _, err := s.requireWorkshopManager(c, assignment.WorkshopID); err != nil {
		return nil
	}

	if err := s.assignmentService.DeleteAssignment(c.Context(), assignmentID); err != nil {
		return models.RespondWithAppError(c, err)
	}
	return c.SendStatus(fiber.StatusNoContent)
}

// SubmitAssignment handles POST /api/assignments/:id/submissions
func (s *Server) SubmitAssignment(c *fiber.Ctx) error {
	userID := c.Locals("userID").(uint)
	assignmentID, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}

	var content models.SubmissionContent
	if err := c.BodyParser(&content); err != nil {
		return models.RespondWithError(c, fiber.StatusBadRequest,
			models.NewValidationError("Invalid request body"))
	}

	submission, err := s.assignmentService.Submit(c.Context(), assignmentID, userID, content)
	if err != nil {
		return models.RespondWithAppError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(submission)
}

// GetMySubmission handles GET /api/assignments/:id/submissions/me
func (s *Server) GetMySubmission(c *fiber.Ctx) error {
	userID := c.Locals("userID").(uint)
	assignmentID, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}

	submission, err := s.assignmentService.GetMySubmission(c.Context(), assignmentID, userID)
	if err != nil {
		return models.RespondWithAppError(c, err)
	}
	return c.JSON(submission)
}

// GetSubmissions handles GET /api/assignments/:id/submissions
func (s *Server) GetSubmissions(c *fiber.Ctx) error {
	assignmentID, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}

	assignment, err := s.assignmentService.GetAssignment(c.Context(), assignmentID)
	if err != nil {
		return models.RespondWithAppError(c, err)
	}
	if _, err := s.requireWorkshopManager(c, assignment.WorkshopID); err != nil {
		return nil
	}
	page := parsePagination(c, 50)

	submissions, err := s.assignmentService.ListSubmissions(c.Context(), assignmentID, page.Limit, page.Offset)
	if err != nil {
		return models.RespondWithAppError(c, err)
	}
	return c.JSON(submissions)
}

// GetMySubmissions handles GET /api/submissions/me
func (s *Server) GetMySubmissions(c *fiber.Ctx) error {
	userID := c.Locals("userID").(uint)
	page := parsePagination(c, 20)

	submissions, err := s.assignmentService.ListMySubmissions(c.Context(), userID, page.Limit, page.Offset)
	if err != nil {
		return models.RespondWithAppError(c, err)
	}
	return c.JSON(submissions)
}

// ReviewSubmission handles POST /api/submissions/:id/review
func (s *Server) ReviewSubmission(c *fiber.Ctx) error {
	reviewerID := c.Locals("userID").(uint)
	submissionID, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}

	var req struct {
		Approve  bool   `json:"approve"`
		Feedback string `json:"feedback"`
	}
	if err := c.BodyParser(&req); err != nil {
		return models.RespondWithError(c, fiber.StatusBadRequest,
			models.NewValidationError("Invalid request body"))
	}

	submission, err := s.assignmentService.GetSubmission(c.Context(), submissionID)
	if err != nil {
		return models.RespondWithAppError(c, err)
	}
	assignment, err := s.assignmentService.GetAssignment(c.Context(), submission.AssignmentID)
	if err != nil {
		return models.RespondWithAppError(c, err)
	}
	if _, err := s.requireWorkshopManager(c, assignment.WorkshopID); err != nil {
		return nil
	}

	result, err := s.assignmentService.Review(c.Context(), submissionID, reviewerID, req.Approve, req.Feedback)
	if err != nil {
		return models.RespondWithAppError(c, err)
	}

	s.publishUserEvent(result.Submission.UserID, EventSubmissionReviewed, map[string]interface{}{
		"submission_id": result.Submission.ID,
		"assignment_id": result.Submission.AssignmentID,
		"review":        result.Submission.Review.Kind,
	})
	if result.Award != nil {
		s.publishLevelUpIfAny(result.Submission.UserID, result.Award)
	}

	return c.JSON(result.Submission)
}

// RecordQuizCompletion handles POST /api/quiz-completions
func (s *Server) RecordQuizCompletion(c *fiber.Ctx) error {
	userID := c.Locals("userID").(uint)

	var req struct {
		QuizID     string `json:"quiz_id"`
		WorkshopID uint   `json:"workshop_id"`
		Score      int    `json:"score"`
	}
	if err := c.BodyParser(&req); err != nil {
		return models.RespondWithError(c, fiber.StatusBadRequest,
			models.NewValidationError("Invalid request body"))
	}

	completion, err := s.assignmentService.RecordQuizCompletion(c.Context(), service.RecordQuizCompletionInput{
		QuizID:     req.QuizID,
		WorkshopID: req.WorkshopID,
		UserID:     userID,
		Score:      req.Score,
	})
	if err != nil {
		return models.RespondWithAppError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(completion)
}
