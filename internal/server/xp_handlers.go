package server

import (
	"time"

	"atelier/internal/models"
	"atelier/internal/service"

	"github.com/gofiber/fiber/v2"
)

// GetMyLevelInfo handles GET /api/xp/me
func (s *Server) GetMyLevelInfo(c *fiber.Ctx) error {
	userID := c.Locals("userID").(uint)

	info, err := s.xpService.GetLevelInfo(c.Context(), userID)
	if err != nil {
		return models.RespondWithAppError(c, err)
	}
	return c.JSON(info)
}

// GetUserLevelInfo handles GET /api/xp/users/:id
func (s *Server) GetUserLevelInfo(c *fiber.Ctx) error {
	targetID, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}

	if _, err := s.userRepo.GetByID(c.Context(), targetID); err != nil {
		return models.RespondWithAppError(c, err)
	}
	info, err := s.xpService.GetLevelInfo(c.Context(), targetID)
	if err != nil {
		return models.RespondWithAppError(c, err)
	}
	return c.JSON(info)
}

// GetMyTransactions handles GET /api/xp/me/transactions
func (s *Server) GetMyTransactions(c *fiber.Ctx) error {
	userID := c.Locals("userID").(uint)
	page := parsePagination(c, 20)

	transactions, err := s.xpService.ListTransactions(c.Context(), userID, page.Limit, page.Offset)
	if err != nil {
		return models.RespondWithAppError(c, err)
	}
	return c.JSON(transactions)
}

// GrantBonus handles POST /api/admin/xp/bonus
func (s *Server) GrantBonus(c *fiber.Ctx) error {
	var req struct {
		UserID uint   `json:"user_id"`
		Amount int    `json:"amount"`
		Reason string `json:"reason"`
	}
	if err := c.BodyParser(&req); err != nil {
		return models.RespondWithError(c, fiber.StatusBadRequest,
			models.NewValidationError("Invalid request body"))
	}

	if _, err := s.userRepo.GetByID(c.Context(), req.UserID); err != nil {
		return models.RespondWithAppError(c, err)
	}

	award, err := s.xpService.GrantBonus(c.Context(), req.UserID, req.Amount, req.Reason)
	if err != nil {
		return models.RespondWithAppError(c, err)
	}

	s.publishLevelUpIfAny(req.UserID, award)

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"transaction": award.Transaction,
		"total_xp":    award.TotalXp,
	})
}

// CreateBoost handles POST /api/admin/xp/boosts
func (s *Server) CreateBoost(c *fiber.Ctx) error {
	var req struct {
		UserID     *uint     `json:"user_id"`
		Multiplier float64   `json:"multiplier"`
		StartsAt   time.Time `json:"starts_at"`
		EndsAt     time.Time `json:"ends_at"`
	}
	if err := c.BodyParser(&req); err != nil {
		return models.RespondWithError(c, fiber.StatusBadRequest,
			models.NewValidationError("Invalid request body"))
	}

	boost, err := s.xpService.CreateBoost(c.Context(), service.CreateBoostInput{
		UserID:     req.UserID,
		Multiplier: req.Multiplier,
		StartsAt:   req.StartsAt,
		EndsAt:     req.EndsAt,
	})
	if err != nil {
		return models.RespondWithAppError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(boost)
}

// DeactivateBoost handles DELETE /api/admin/xp/boosts/:id
func (s *Server) DeactivateBoost(c *fiber.Ctx) error {
	boostID, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}

	if err := s.xpService.DeactivateBoost(c.Context(), boostID); err != nil {
		return models.RespondWithAppError(c, err)
	}
	return c.SendStatus(fiber.StatusNoContent)
}
