package server

import (
	"strings"
	"time"

	"atelier/internal/models"

	"github.com/gofiber/fiber/v2"
)

// Register handles POST /api/workshops/:id/register
func (s *Server) Register(c *fiber.Ctx) error {
	userID := c.Locals("userID").(uint)
	workshopID, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}

	registration, err := s.registrationService.Register(c.Context(), workshopID, userID)
	if err != nil {
		return models.RespondWithAppError(c, err)
	}

	event := EventRegistrationConfirmed
	if registration.Status == models.RegistrationStatusWaitlisted {
		event = EventRegistrationWaitlist
	}
	s.publishUserEvent(userID, event, map[string]interface{}{
		"workshop_id": workshopID,
		"status":      registration.Status,
	})

	return c.Status(fiber.StatusCreated).JSON(registration)
}

// CancelRegistration handles DELETE /api/workshops/:id/register
func (s *Server) CancelRegistration(c *fiber.Ctx) error {
	userID := c.Locals("userID").(uint)
	workshopID, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}

	result, err := s.registrationService.Cancel(c.Context(), workshopID, userID)
	if err != nil {
		return models.RespondWithAppError(c, err)
	}

	if result.Promoted != nil {
		s.publishUserEvent(result.Promoted.UserID, EventWaitlistPromoted, map[string]interface{}{
			"workshop_id": workshopID,
			"promoted_at": time.Now().UTC().Format(time.RFC3339Nano),
		})
	}

	return c.JSON(fiber.Map{
		"cancelled": result.Cancelled,
		"promoted":  result.Promoted,
	})
}

// GetRegistrations handles GET /api/workshops/:id/registrations
func (s *Server) GetRegistrations(c *fiber.Ctx) error {
	workshopID, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}
	if _, err := s.requireWorkshopManager(c, workshopID); err != nil {
		return nil
	}

	status := models.RegistrationStatus(strings.TrimSpace(c.Query("status")))
	page := parsePagination(c, 50)

	registrations, err := s.registrationService.ListRegistrations(c.Context(), workshopID, status, page.Limit, page.Offset)
	if err != nil {
		return models.RespondWithAppError(c, err)
	}
	return c.JSON(registrations)
}

// GetMyRegistrations handles GET /api/registrations/me
func (s *Server) GetMyRegistrations(c *fiber.Ctx) error {
	userID := c.Locals("userID").(uint)
	page := parsePagination(c, 20)

	registrations, err := s.registrationService.ListMyRegistrations(c.Context(), userID, page.Limit, page.Offset)
	if err != nil {
		return models.RespondWithAppError(c, err)
	}
	return c.JSON(registrations)
}

// ApproveRegistration handles POST /api/workshops/:id/registrations/:userId/approve
func (s *Server) ApproveRegistration(c *fiber.Ctx) error {
	workshopID, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}
	targetID, err := s.parseID(c, "userId")
	if err != nil {
		return nil
	}
	if _, err := s.requireWorkshopManager(c, workshopID); err != nil {
		return nil
	}

	registration, err := s.registrationService.Approve(c.Context(), workshopID, targetID)
	if err != nil {
		return models.RespondWithAppError(c, err)
	}

	s.publishUserEvent(targetID, EventRegistrationReviewed, map[string]interface{}{
		"workshop_id": workshopID,
		"status":      registration.Status,
	})

	return c.JSON(registration)
}

// RejectRegistration handles POST /api/workshops/:id/registrations/:userId/reject
func (s *Server) RejectRegistration(c *fiber.Ctx) error {
	workshopID, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}
	targetID, err := s.parseID(c, "userId")
	if err != nil {
		return nil
	}
	if _, err := s.requireWorkshopManager(c, workshopID); err != nil {
		return nil
	}

	registration, err := s.registrationService.Reject(c.Context(), workshopID, targetID)
	if err != nil {
		return models.RespondWithAppError(c, err)
	}

	s.publishUserEvent(targetID, EventRegistrationReviewed, map[string]interface{}{
		"workshop_id": workshopID,
		"status":      registration.Status,
	})

	return c.JSON(registration)
}
