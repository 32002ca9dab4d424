package middleware

import (
	"fmt"
	"log"

	"github.com/gofiber/fiber/v2"
	"github.com/localnerve/chapterviewer/internal/config"
	"github.com/localnerve/chapterviewer/internal/services"
	"github.com/localnerve/chapterviewer/internal/types"
)

// SessionValidator checks a session cookie against roles and returns the
// session user
type SessionValidator func(cookie string, roles []string) (any, error)

// AuthEditor guards state writes with the configured editor role. Without
// AUTHZ_URL writes stay open.
func AuthEditor(cfg *config.Config) fiber.Handler {
	if !cfg.AuthEnabled() {
		log.Printf("AUTHZ_URL not set, state writes are not authenticated")
		return func(c *fiber.Ctx) error {
			return c.Next()
		}
	}

	validate := func(cookie string, roles []string) (any, error) {
		return services.ValidateSession(cookie, roles)
	}

	return func(c *fiber.Ctx) error {
		if err := services.InitAuthorizer(cfg, c.Protocol(), c.Hostname()); err != nil {
			return types.NewCustomError(fiber.StatusServiceUnavailable,
				"data.authorization.unavailable", err.Error(), err)
		}
		return authorize(c, []string{cfg.EditorRole}, "data.authorization.editor", validate)
	}
}

// AuthRoles validates the session against roles with the given validator
func AuthRoles(roles []string, errorType string, validate SessionValidator) fiber.Handler {
	return func(c *fiber.Ctx) error {
		return authorize(c, roles, errorType, validate)
	}
}

// authorize performs the authorization check
func authorize(c *fiber.Ctx, roles []string, errorType string, validate SessionValidator) error {
	session := c.Cookies("cookie_session")
	if session == "" {
		return &types.CustomError{
			Code:    fiber.StatusForbidden,
			Message: "Authorizer cookie \"cookie_session\" not found",
			Type:    errorType,
		}
	}

	user, err := validate(session, roles)
	if err != nil {
		return types.NewCustomError(fiber.StatusForbidden, errorType,
			fmt.Sprintf("Invalid session: %v", err), err)
	}

	c.Locals("user", user)
	return c.Next()
}
