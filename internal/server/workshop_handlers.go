package server

import (
	"strings"
	"time"

	"atelier/internal/models"
	"atelier/internal/service"

	"github.com/gofiber/fiber/v2"
)

// GetWorkshops handles GET /api/workshops
func (s *Server) GetWorkshops(c *fiber.Ctx) error {
	page := parsePagination(c, 20)

	workshops, err := s.catalogService.ListPublished(c.Context(), page.Limit, page.Offset)
	if err != nil {
		return models.RespondWithAppError(c, err)
	}
	return c.JSON(workshops)
}

// SearchWorkshops handles GET /api/workshops/search
func (s *Server) SearchWorkshops(c *fiber.Ctx) error {
	query := strings.TrimSpace(c.Query("q"))
	if query == "" {
		return models.RespondWithError(c, fiber.StatusBadRequest,
			models.NewValidationError("q is required"))
	}
	page := parsePagination(c, 20)

	workshops, err := s.catalogService.Search(c.Context(), query, page.Limit, page.Offset)
	if err != nil {
		return models.RespondWithAppError(c, err)
	}
	return c.JSON(workshops)
}

// GetWorkshop handles GET /api/workshops/:id
func (s *Server) GetWorkshop(c *fiber.Ctx) error {
	workshopID, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}

	workshop, err := s.catalogService.GetWorkshop(c.Context(), workshopID)
	if err != nil {
		return models.RespondWithAppError(c, err)
	}
	return c.JSON(workshop)
}

// GetWorkshopBySlug handles GET /api/workshops/slug/:slug
func (s *Server) GetWorkshopBySlug(c *fiber.Ctx) error {
	slug := strings.TrimSpace(c.Params("slug"))
	if slug == "" {
		return models.RespondWithError(c, fiber.StatusBadRequest,
			models.NewValidationError("slug is required"))
	}

	workshop, err := s.catalogService.GetWorkshopBySlug(c.Context(), slug)
	if err != nil {
		return models.RespondWithAppError(c, err)
	}
	return c.JSON(workshop)
}

// CreateWorkshop handles POST /api/workshops
func (s *Server) CreateWorkshop(c *fiber.Ctx) error {
	userID := c.Locals("userID").(uint)

	user, err := s.userRepo.GetByID(c.Context(), userID)
	if err != nil {
		return models.RespondWithAppError(c, err)
	}
	if user.Role != models.UserRoleOrganizer && !user.IsAdmin() {
		return models.RespondWithError(c, fiber.StatusForbidden,
			models.NewForbiddenError("Only organizers can create workshops"))
	}

	var req struct {
		Title       string    `json:"title"`
		Slug        string    `json:"slug"`
		Description string    `json:"description"`
		StartsAt    time.Time `json:"starts_at"`
		EndsAt      time.Time `json:"ends_at"`
		CommunityID *uint     `json:"community_id"`
		Tags        []string  `json:"tags"`
		ImageID     *string   `json:"image_id"`
	}
	if err := c.BodyParser(&req); err != nil {
		return models.RespondWithError(c, fiber.StatusBadRequest,
			models.NewValidationError("Invalid request body"))
	}

	workshop, err := s.catalogService.CreateWorkshop(c.Context(), service.CreateWorkshopInput{
		Title:       strings.TrimSpace(req.Title),
		Slug:        strings.TrimSpace(req.Slug),
		Description: req.Description,
		StartsAt:    req.StartsAt,
		EndsAt:      req.EndsAt,
		CreatorID:   userID,
		CommunityID: req.CommunityID,
		Tags:        req.Tags,
		ImageID:     req.ImageID,
	})
	if err != nil {
		return models.RespondWithAppError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(workshop)
}

// UpdateWorkshop handles PUT /api/workshops/:id
func (s *Server) UpdateWorkshop(c *fiber.Ctx) error {
	workshopID, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}
	if _, err := s.requireWorkshopManager(c, workshopID); err != nil {
		return nil
	}

	var req struct {
		Title       *string    `json:"title"`
		Description *string    `json:"description"`
		StartsAt    *time.Time `json:"starts_at"`
		EndsAt      *time.Time `json:"ends_at"`
		Tags        []string   `json:"tags"`
		ImageID     *string    `json:"image_id"`
	}
	if err := c.BodyParser(&req); err != nil {
		return models.RespondWithError(c, fiber.StatusBadRequest,
			models.NewValidationError("Invalid request body"))
	}

	workshop, err := s.catalogService.UpdateWorkshop(c.Context(), workshopID, service.UpdateWorkshopInput{
		Title:       req.Title,
		Description: req.Description,
		StartsAt:    req.StartsAt,
		EndsAt:      req.EndsAt,
		Tags:        req.Tags,
		ImageID:     req.ImageID,
	})
	if err != nil {
		return models.RespondWithAppError(c, err)
	}
	return c.JSON(workshop)
}

// SetWorkshopMode handles PUT /api/workshops/:id/mode
func (s *Server) SetWorkshopMode(c *fiber.Ctx) error {
	workshopID, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}
	if _, err := s.requireWorkshopManager(c, workshopID); err != nil {
		return nil
	}

	var mode models.RegistrationMode
	if err := c.BodyParser(&mode); err != nil {
		return models.RespondWithError(c, fiber.StatusBadRequest,
			models.NewValidationError("Invalid request body"))
	}

	workshop, err := s.catalogService.SetMode(c.Context(), workshopID, mode)
	if err != nil {
		return models.RespondWithAppError(c, err)
	}
	return c.JSON(workshop)
}

// ScheduleWorkshop handles POST /api/workshops/:id/schedule
func (s *Server) ScheduleWorkshop(c *fiber.Ctx) error {
	workshopID, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}
	if _, err := s.requireWorkshopManager(c, workshopID); err != nil {
		return nil
	}

	workshop, err := s.catalogService.Schedule(c.Context(), workshopID)
	if err != nil {
		return models.RespondWithAppError(c, err)
	}
	return c.JSON(workshop)
}

// PublishWorkshop handles POST /api/workshops/:id/publish
func (s *Server) PublishWorkshop(c *fiber.Ctx) error {
	workshopID, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}
	if _, err := s.requireWorkshopManager(c, workshopID); err != nil {
		return nil
	}

	workshop, err := s.catalogService.Publish(c.Context(), workshopID)
	if err != nil {
		return models.RespondWithAppError(c, err)
	}

	s.publishBroadcastEvent(EventWorkshopPublished, map[string]interface{}{
		"id":        workshop.ID,
		"title":     workshop.Title,
		"slug":      workshop.Slug,
		"starts_at": workshop.StartsAt.Format(time.RFC3339Nano),
	})

	return c.JSON(workshop)
}

// ArchiveWorkshop handles POST /api/workshops/:id/archive
func (s *Server) ArchiveWorkshop(c *fiber.Ctx) error {
	workshopID, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}
	if _, err := s.requireWorkshopManager(c, workshopID); err != nil {
		return nil
	}

	workshop, err := s.catalogService.Archive(c.Context(), workshopID)
	if err != nil {
		return models.RespondWithAppError(c, err)
	}

	s.publishWorkshopEvent(workshop.ID, EventWorkshopArchived, map[string]interface{}{
		"id": workshop.ID,
	})

	return c.JSON(workshop)
}

// DeleteWorkshop handles DELETE /api/workshops/:id
func (s *Server) DeleteWorkshop(c *fiber.Ctx) error {
	workshopID, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}
	if _, err := s.requireWorkshopManager(c, workshopID); err != nil {
		return nil
	}

	if err := s.catalogService.DeleteWorkshop(c.Context(), workshopID); err != nil {
		return models.RespondWithAppError(c, err)
	}
	return c.SendStatus(fiber.StatusNoContent)
}

// AddCoHost handles POST /api/workshops/:id/cohosts/:userId
func (s *Server) AddCoHost(c *fiber.Ctx) error {
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

	if _, err := s.userRepo.GetByID(c.Context(), targetID); err != nil {
		return models.RespondWithAppError(c, err)
	}
	if err := s.catalogService.AddCoHost(c.Context(), workshopID, targetID); err != nil {
		return models.RespondWithAppError(c, err)
	}
	return c.SendStatus(fiber.StatusNoContent)
}

// RemoveCoHost handles DELETE /api/workshops/:id/cohosts/:userId
func (s *Server) RemoveCoHost(c *fiber.Ctx) error {
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

	if err := s.catalogService.RemoveCoHost(c.Context(), workshopID, targetID); err != nil {
		return models.RespondWithAppError(c, err)
	}
	return c.SendStatus(fiber.StatusNoContent)
}
