package middleware

import (
	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
)

// CurrentAPIVersion is reported when the client sends no X-Api-Version
const CurrentAPIVersion = "1.0.0"

// VersionMiddleware parses the X-Api-Version header and tags the request
// with an id for log correlation
func VersionMiddleware() fiber.Handler {
	return func(c *fiber.Ctx) error {
		version := c.Get("X-Api-Version", CurrentAPIVersion)
		if version == "1" || version == "1.0" {
			version = CurrentAPIVersion
		}
		c.Locals("apiVersion", version)

		requestID := c.Get(fiber.HeaderXRequestID)
		if requestID == "" {
			requestID = uuid.NewString()
		}
		c.Locals("requestID", requestID)
		c.Set(fiber.HeaderXRequestID, requestID)
		c.Set("X-Api-Version", version)

		return c.Next()
	}
}
