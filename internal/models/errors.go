// Package models contains data structures for the application's domain models.
package models

import (
	"fmt"

	"github.com/gofiber/fiber/v2"
)

// Error codes for expected, caller-recoverable denials.
const (
	CodeNotFound          = "NOT_FOUND"
	CodeNotPublished      = "NOT_PUBLISHED"
	CodeNotLive           = "NOT_LIVE"
	CodeForbidden         = "FORBIDDEN"
	CodeAlreadyRegistered = "ALREADY_REGISTERED"
	CodeAlreadyApproved   = "ALREADY_APPROVED"
	CodeAtCapacity        = "AT_CAPACITY"
	CodeInvalidCode       = "INVALID_CODE"
	CodeNotRegistered     = "NOT_REGISTERED"
	CodeNotCheckedIn      = "NOT_CHECKED_IN"
	CodeInvalidState      = "INVALID_STATE"
	CodeValidationError   = "VALIDATION_ERROR"
	CodeUnauthorized      = "UNAUTHORIZED"
	CodeInternalError     = "INTERNAL_ERROR"
)

// ErrorResponse represents a standardized API error response
type ErrorResponse struct {
	Error   string `json:"error"`
	Code    string `json:"code,omitempty"`
	Details string `json:"details,omitempty"`
}

// AppError represents a custom application error
type AppError struct {
	Code    string
	Message string
	Err     error
}

func (e *AppError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *AppError) Unwrap() error {
	return e.Err
}

// Predefined error constructors
func NewNotFoundError(resource string, id interface{}) *AppError {
	return &AppError{
		Code:    CodeNotFound,
		Message: fmt.Sprintf("%s with ID %v not found", resource, id),
	}
}

func NewNotPublishedError(workshopID uint) *AppError {
	return &AppError{
		Code:    CodeNotPublished,
		Message: fmt.Sprintf("workshop %d is not published", workshopID),
	}
}

func NewNotLiveError(workshopID uint) *AppError {
	return &AppError{
		Code:    CodeNotLive,
		Message: fmt.Sprintf("workshop %d is not live", workshopID),
	}
}

func NewForbiddenError(message string) *AppError {
	return &AppError{
		Code:    CodeForbidden,
		Message: message,
	}
}

func NewAlreadyRegisteredError(workshopID uint) *AppError {
	return &AppError{
		Code:    CodeAlreadyRegistered,
		Message: fmt.Sprintf("an active registration for workshop %d already exists", workshopID),
	}
}

func NewAlreadyApprovedError(submissionID uint) *AppError {
	return &AppError{
		Code:    CodeAlreadyApproved,
		Message: fmt.Sprintf("submission %d is already approved", submissionID),
	}
}

func NewAtCapacityError(workshopID uint) *AppError {
	return &AppError{
		Code:    CodeAtCapacity,
		Message: fmt.Sprintf("workshop %d is at capacity", workshopID),
	}
}

func NewInvalidCodeError() *AppError {
	return &AppError{
		Code:    CodeInvalidCode,
		Message: "check-in code does not match",
	}
}

func NewNotRegisteredError(workshopID uint) *AppError {
	return &AppError{
		Code:    CodeNotRegistered,
		Message: fmt.Sprintf("no active registration for workshop %d", workshopID),
	}
}

func NewNotCheckedInError(workshopID uint) *AppError {
	return &AppError{
		Code:    CodeNotCheckedIn,
		Message: fmt.Sprintf("check-in to workshop %d is required first", workshopID),
	}
}

func NewInvalidStateError(message string) *AppError {
	return &AppError{
		Code:    CodeInvalidState,
		Message: message,
	}
}

func NewValidationError(message string) *AppError {
	return &AppError{
		Code:    CodeValidationError,
		Message: message,
	}
}

func NewUnauthorizedError(message string) *AppError {
	return &AppError{
		Code:    CodeUnauthorized,
		Message: message,
	}
}

func NewInternalError(err error) *AppError {
	return &AppError{
		Code:    CodeInternalError,
		Message: "Internal server error",
		Err:     err,
	}
}

// StatusForCode maps an application error code to an HTTP status.
func StatusForCode(code string) int {
	switch code {
	case CodeNotFound:
		return fiber.StatusNotFound
	case CodeForbidden:
		return fiber.StatusForbidden
	case CodeUnauthorized:
		return fiber.StatusUnauthorized
	case CodeAlreadyRegistered, CodeAlreadyApproved, CodeAtCapacity, CodeInvalidState:
		return fiber.StatusConflict
	case CodeNotPublished, CodeNotLive, CodeInvalidCode, CodeNotRegistered,
		CodeNotCheckedIn, CodeValidationError:
		return fiber.StatusBadRequest
	case CodeInternalError:
		return fiber.StatusInternalServerError
	default:
		return fiber.StatusInternalServerError
	}
}

// RespondWithError creates a standardized error response
func RespondWithError(c *fiber.Ctx, status int, err error) error {
	var response ErrorResponse

	if appErr, ok := err.(*AppError); ok {
		response = ErrorResponse{
			Error: appErr.Message,
			Code:  appErr.Code,
		}
		if appErr.Err != nil {
			response.Details = appErr.Err.Error()
		}
	} else {
		response = ErrorResponse{
			Error: err.Error(),
		}
	}

	return c.Status(status).JSON(response)
}

// RespondWithAppError writes err using the status derived from its code.
func RespondWithAppError(c *fiber.Ctx, err error) error {
	if appErr, ok := err.(*AppError); ok {
		return RespondWithError(c, StatusForCode(appErr.Code), appErr)
	}
	return RespondWithError(c, fiber.StatusInternalServerError, err)
}
