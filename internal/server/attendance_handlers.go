package server

import (
	"time"

	"atelier/internal/models"
	"atelier/internal/service"

	"github.com/gofiber/fiber/v2"
)

// CheckIn handles POST /api/workshops/:id/checkin
func (s *Server) CheckIn(c *fiber.Ctx) error {
	userID := c.Locals("userID").(uint)
	workshopID, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}

	var req struct {
		Code string `json:"code"`
	}
	if err := c.BodyParser(&req); err != nil {
		return models.RespondWithError(c, fiber.StatusBadRequest,
			models.NewValidationError("Invalid request body"))
	}

	result, err := s.attendanceService.CheckIn(c.Context(), workshopID, userID, req.Code)
	if err != nil {
		return models.RespondWithAppError(c, err)
	}

	s.publishCheckIn(workshopID, userID, result)

	return c.JSON(checkInResponse(result))
}

// ManualCheckIn handles POST /api/workshops/:id/attendance/:userId
func (s *Server) ManualCheckIn(c *fiber.Ctx) error {
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

	result, err := s.attendanceService.ManualCheckIn(c.Context(), workshopID, targetID)
	if err != nil {
		return models.RespondWithAppError(c, err)
	}

	s.publishCheckIn(workshopID, targetID, result)

	return c.JSON(checkInResponse(result))
}

// RefreshCheckInCode handles POST /api/workshops/:id/checkin-code/refresh
func (s *Server) RefreshCheckInCode(c *fiber.Ctx) error {
	workshopID, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}
	if _, err := s.requireWorkshopManager(c, workshopID); err != nil {
		return nil
	}

	code, err := s.attendanceService.RefreshCode(c.Context(), workshopID)
	if err != nil {
		return models.RespondWithAppError(c, err)
	}
	return c.JSON(fiber.Map{"code": code})
}

// GetCheckInCode handles GET /api/workshops/:id/checkin-code
func (s *Server) GetCheckInCode(c *fiber.Ctx) error {
	workshopID, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}
	if _, err := s.requireWorkshopManager(c, workshopID); err != nil {
		return nil
	}

	code, err := s.attendanceService.GetCode(c.Context(), workshopID)
	if err != nil {
		return models.RespondWithAppError(c, err)
	}
	return c.JSON(fiber.Map{"code": code})
}

// GetAttendance handles GET /api/workshops/:id/attendance
func (s *Server) GetAttendance(c *fiber.Ctx) error {
	workshopID, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}
	if _, err := s.requireWorkshopManager(c, workshopID); err != nil {
		return nil
	}
	page := parsePagination(c, 50)

	attendance, err := s.attendanceService.ListAttendance(c.Context(), workshopID, page.Limit, page.Offset)
	if err != nil {
		return models.RespondWithAppError(c, err)
	}
	return c.JSON(attendance)
}

func (s *Server) publishCheckIn(workshopID, userID uint, result *service.CheckInResult) {
	if result.AlreadyCheckedIn {
		return
	}
	s.publishWorkshopEvent(workshopID, EventCheckinRecorded, map[string]interface{}{
		"workshop_id":   workshopID,
		"user_id":       userID,
		"method":        result.Attendance.Method,
		"checked_in_at": result.Attendance.CheckedInAt.Format(time.RFC3339Nano),
	})
	if result.Award != nil {
		s.publishLevelUpIfAny(userID, result.Award)
	}
}

func checkInResponse(result *service.CheckInResult) fiber.Map {
	resp := fiber.Map{
		"attendance":         result.Attendance,
		"already_checked_in": result.AlreadyCheckedIn,
	}
	if result.Award != nil {
		resp["xp_awarded"] = result.Award.Transaction.FinalXp
	}
	return resp
}
