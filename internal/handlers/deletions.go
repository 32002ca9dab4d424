package handlers

import (
	"errors"
	"fmt"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/localnerve/chapterviewer/internal/services"
	"github.com/localnerve/chapterviewer/internal/utils"
	"gorm.io/gorm"
)

// DeletionHandler handles deletion reports and the shared deleted list
type DeletionHandler struct {
	DB     *gorm.DB
	Store  services.RecordStore
	BookID string
}

// LogDeletionResponse is returned after a deletion report is stored
type LogDeletionResponse struct {
	Success  bool   `json:"success"`
	Message  string `json:"message"`
	LoggedAt string `json:"logged_at"`
}

// DeletedFilesResponse lists the paths currently marked deleted
type DeletedFilesResponse struct {
	DeletedFiles []string `json:"deleted_files"`
}

// LogDeletion handles POST /api/log-deletion
// @Summary Log a file deletion
// @Description Record who hid which file and when. No files are removed.
// @Tags Deletions
// @Accept json
// @Produce json
// @Param body body services.DeletionInput true "Deleted file"
// @Success 200 {object} LogDeletionResponse
// @Failure 400 {object} utils.ErrorResponseStruct
// @Failure 500 {object} utils.ErrorResponseStruct
// @Router /log-deletion [post]
func (h *DeletionHandler) LogDeletion(c *fiber.Ctx) error {
	var body services.DeletionInput
	if err := c.BodyParser(&body); err != nil {
		return utils.ErrorResponse(c, "Invalid input", fiber.StatusBadRequest, "data.validation.input")
	}

	loggedAt, err := services.LogDeletion(c.UserContext(), h.DB, h.BookID, body)
	if err != nil {
		if errors.Is(err, services.ErrMissingDeletionFields) {
			return utils.ErrorResponse(c, "Missing filePath or fileName", fiber.StatusBadRequest, "data.validation.input")
		}
		return utils.ErrorResponse(c, err.Error(), fiber.StatusInternalServerError, "logDeletion")
	}

	return c.Status(fiber.StatusOK).JSON(LogDeletionResponse{
		Success:  true,
		Message:  fmt.Sprintf("Deletion logged: %s", body.FileName),
		LoggedAt: loggedAt.Format(time.RFC3339Nano),
	})
}

// DeletedFiles handles GET /api/deleted-files
// @Summary List deleted files
// @Description List the paths currently marked deleted for the book
// @Tags Deletions
// @Produce json
// @Success 200 {object} DeletedFilesResponse
// @Failure 500 {object} utils.ErrorResponseStruct
// @Router /deleted-files [get]
func (h *DeletionHandler) DeletedFiles(c *fiber.Ctx) error {
	paths, err := services.DeletedFiles(c.UserContext(), h.Store)
	if err != nil {
		return utils.ErrorResponse(c, err.Error(), fiber.StatusInternalServerError, "deletedFiles")
	}
	return c.Status(fiber.StatusOK).JSON(DeletedFilesResponse{DeletedFiles: paths})
}

// RecentDeletions handles GET /api/deletions
// @Summary List recent deletion reports
// @Description Newest deletion reports first. Only available on the database store.
// @Tags Deletions
// @Produce json
// @Param limit query int false "Maximum number of reports" default(50)
// @Success 200 {array} object
// @Failure 501 {object} utils.ErrorResponseStruct
// @Failure 500 {object} utils.ErrorResponseStruct
// @Router /deletions [get]
func (h *DeletionHandler) RecentDeletions(c *fiber.Ctx) error {
	if h.DB == nil {
		return utils.ErrorResponse(c, services.ErrNotSupported.Error(), fiber.StatusNotImplemented, "recentDeletions")
	}
	limit := c.QueryInt("limit", 50)
	if limit <= 0 || limit > 500 {
		limit = 50
	}
	logs, err := services.RecentDeletions(c.UserContext(), h.DB, h.BookID, limit)
	if err != nil {
		return utils.ErrorResponse(c, err.Error(), fiber.StatusInternalServerError, "recentDeletions")
	}
	return c.Status(fiber.StatusOK).JSON(logs)
}
