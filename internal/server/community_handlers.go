package server

import (
	"strings"

	"atelier/internal/models"
	"atelier/internal/validation"

	"github.com/gofiber/fiber/v2"
)

// GetCommunities handles GET /api/communities
func (s *Server) GetCommunities(c *fiber.Ctx) error {
	page := parsePagination(c, 20)

	communities, err := s.communityRepo.List(c.Context(), page.Limit, page.Offset)
	if err != nil {
		return models.RespondWithAppError(c, err)
	}
	return c.JSON(communities)
}

// GetCommunityBySlug handles GET /api/communities/:slug
func (s *Server) GetCommunityBySlug(c *fiber.Ctx) error {
	slug := strings.TrimSpace(c.Params("slug"))
	if slug == "" {
		return models.RespondWithError(c, fiber.StatusBadRequest,
			models.NewValidationError("slug is required"))
	}

	community, err := s.communityRepo.GetBySlug(c.Context(), slug)
	if err != nil {
		return models.RespondWithAppError(c, err)
	}
	return c.JSON(community)
}

// GetCommunityWorkshops handles GET /api/communities/:slug/workshops
func (s *Server) GetCommunityWorkshops(c *fiber.Ctx) error {
	slug := strings.TrimSpace(c.Params("slug"))
	if slug == "" {
		return models.RespondWithError(c, fiber.StatusBadRequest,
			models.NewValidationError("slug is required"))
	}

	community, err := s.communityRepo.GetBySlug(c.Context(), slug)
	if err != nil {
		return models.RespondWithAppError(c, err)
	}
	page := parsePagination(c, 20)

	workshops, err := s.catalogService.ListByCommunity(c.Context(), community.ID, page.Limit, page.Offset)
	if err != nil {
		return models.RespondWithAppError(c, err)
	}
	return c.JSON(workshops)
}

// JoinCommunity handles POST /api/communities/:id/join
func (s *Server) JoinCommunity(c *fiber.Ctx) error {
	userID := c.Locals("userID").(uint)
	communityID, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}

	community, err := s.communityRepo.GetByID(c.Context(), communityID)
	if err != nil {
		return models.RespondWithAppError(c, err)
	}
	if community.Status != models.CommunityStatusActive {
		return models.RespondWithAppError(c,
			models.NewInvalidStateError("archived communities cannot be joined"))
	}

	if err := s.communityRepo.AddMember(c.Context(), communityID, userID, models.CommunityMembershipRoleMember); err != nil {
		return models.RespondWithAppError(c, err)
	}

	membership, err := s.communityRepo.GetMembership(c.Context(), communityID, userID)
	if err != nil {
		return models.RespondWithAppError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(membership)
}

// CreateCommunity handles POST /api/admin/communities
func (s *Server) CreateCommunity(c *fiber.Ctx) error {
	userID := c.Locals("userID").(uint)

	var req struct {
		Name        string `json:"name"`
		Slug        string `json:"slug"`
		Description string `json:"description"`
		OrganizerID *uint  `json:"organizer_id"`
	}
	if err := c.BodyParser(&req); err != nil {
		return models.RespondWithError(c, fiber.StatusBadRequest,
			models.NewValidationError("Invalid request body"))
	}

	req.Name = strings.TrimSpace(req.Name)
	req.Slug = strings.TrimSpace(req.Slug)
	if req.Name == "" {
		return models.RespondWithError(c, fiber.StatusBadRequest,
			models.NewValidationError("name is required"))
	}
	if req.Slug == "" {
		req.Slug = validation.Slugify(req.Name)
	}
	if err := validation.ValidateSlug(req.Slug); err != nil {
		return models.RespondWithError(c, fiber.StatusBadRequest,
			models.NewValidationError(err.Error()))
	}

	community := models.Community{
		Name:            req.Name,
		Slug:            req.Slug,
		Description:     req.Description,
		CreatedByUserID: &userID,
		Status:          models.CommunityStatusActive,
	}
	if err := s.communityRepo.Create(c.Context(), &community); err != nil {
		return models.RespondWithAppError(c, err)
	}

	// The designated organizer (or the creating admin) runs the community.
	organizerID := userID
	if req.OrganizerID != nil {
		organizerID = *req.OrganizerID
	}
	if err := s.communityRepo.AddMember(c.Context(), community.ID, organizerID, models.CommunityMembershipRoleOrganizer); err != nil {
		return models.RespondWithAppError(c, err)
	}

	return c.Status(fiber.StatusCreated).JSON(community)
}
