package handlers

import (
	"github.com/gofiber/fiber/v2"
	"github.com/localnerve/chapterviewer/internal/book"
	"github.com/localnerve/chapterviewer/internal/utils"
)

// BookHandler serves the structure scanned from the book directory
type BookHandler struct {
	BookDir string
	Title   string
}

// GetBookStructure handles GET /api/book-structure
// @Summary Get the book structure
// @Description Scan BOOK_DIR and return the structure document the viewer loads
// @Tags Book
// @Produce json
// @Success 200 {object} book.Structure
// @Failure 404 {object} utils.ErrorResponseStruct
// @Failure 500 {object} utils.ErrorResponseStruct
// @Router /book-structure [get]
func (h *BookHandler) GetBookStructure(c *fiber.Ctx) error {
	if h.BookDir == "" {
		return utils.NotFoundResponse(c, "BOOK_DIR is not configured")
	}

	structure, err := book.Scan(h.BookDir, h.Title)
	if err != nil {
		return utils.ErrorResponse(c, err.Error(), fiber.StatusInternalServerError, "bookStructure")
	}

	c.Set(fiber.HeaderCacheControl, "no-cache")
	return c.Status(fiber.StatusOK).JSON(structure)
}
