package server

import (
	"errors"
	"fmt"
	"io"

	"atelier/internal/blob"
	"atelier/internal/models"

	"github.com/gofiber/fiber/v2"
)

// UploadFile handles POST /api/files
func (s *Server) UploadFile(c *fiber.Ctx) error {
	fileHeader, err := c.FormFile("file")
	if err != nil {
		return models.RespondWithError(c, fiber.StatusBadRequest,
			models.NewValidationError("A multipart 'file' field is required"))
	}

	maxBytes := int64(s.config.UploadMaxSizeMB) << 20
	if maxBytes > 0 && fileHeader.Size > maxBytes {
		return models.RespondWithError(c, fiber.StatusRequestEntityTooLarge,
			models.NewValidationError(fmt.Sprintf("File exceeds the %dMB upload limit", s.config.UploadMaxSizeMB)))
	}

	src, err := fileHeader.Open()
	if err != nil {
		return models.RespondWithError(c, fiber.StatusInternalServerError,
			models.NewInternalError(err))
	}
	defer src.Close()

	content, err := io.ReadAll(src)
	if err != nil {
		return models.RespondWithError(c, fiber.StatusInternalServerError,
			models.NewInternalError(err))
	}

	info, err := s.blobs.Save(c.Context(), fileHeader.Filename, content)
	if err != nil {
		return models.RespondWithError(c, fiber.StatusInternalServerError,
			models.NewInternalError(err))
	}

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"id":         info.ID,
		"filename":   info.Filename,
		"size_bytes": info.SizeBytes,
		"url":        s.blobs.URL(info.ID),
	})
}

// DownloadFile handles GET /api/files/:id
func (s *Server) DownloadFile(c *fiber.Ctx) error {
	blobID := c.Params("id")

	info, err := s.blobs.Stat(c.Context(), blobID)
	if err != nil {
		if errors.Is(err, blob.ErrNotFound) {
			return models.RespondWithError(c, fiber.StatusNotFound,
				models.NewNotFoundError("File", blobID))
		}
		return models.RespondWithError(c, fiber.StatusInternalServerError,
			models.NewInternalError(err))
	}

	reader, err := s.blobs.Open(c.Context(), blobID)
	if err != nil {
		return models.RespondWithError(c, fiber.StatusInternalServerError,
			models.NewInternalError(err))
	}

	c.Set(fiber.HeaderContentDisposition, fmt.Sprintf("attachment; filename=%q", info.Filename))
	return c.SendStream(reader, int(info.SizeBytes))
}
