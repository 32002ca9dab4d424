package handlers

import (
	"github.com/gofiber/fiber/v2"
	"github.com/localnerve/chapterviewer/internal/config"
	"github.com/localnerve/chapterviewer/internal/services"
)

// HealthHandler reports service health
type HealthHandler struct {
	Cfg   *config.Config
	Store services.RecordStore
}

// Health handles GET /api/health
// @Summary Health check
// @Description Ping the record store and the Authorizer when configured
// @Tags Health
// @Produce json
// @Success 200 {object} services.HealthCheckResult
// @Failure 503 {object} services.HealthCheckResult
// @Router /health [get]
func (h *HealthHandler) Health(c *fiber.Ctx) error {
	result := services.HealthCheck(c.UserContext(), h.Cfg, h.Store)
	status := fiber.StatusOK
	if !result.Healthy() {
		status = fiber.StatusServiceUnavailable
	}
	return c.Status(status).JSON(result)
}
