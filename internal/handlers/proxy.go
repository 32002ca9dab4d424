package handlers

import (
	"encoding/json"
	"errors"
	"log"

	"github.com/gofiber/fiber/v2"
	"github.com/localnerve/chapterviewer/internal/backend"
	"github.com/localnerve/chapterviewer/internal/services"
	"github.com/localnerve/chapterviewer/internal/types"
)

// ProxyHandler serves the save/load endpoint browser clients persist
// through. It answers in the proxy's own {success, ...} envelope rather than
// the error envelope of the other routes.
type ProxyHandler struct {
	Store services.RecordStore
}

func proxyError(c *fiber.Ctx, status int, message string) error {
	return c.Status(status).JSON(backend.ProxyResponse{Error: message})
}

// Proxy handles POST /api/github-proxy
// @Summary Save or load a record
// @Description Compatibility endpoint: action "save" replaces the record of a kind, "load" returns it ({} when empty). Saves always win.
// @Tags State
// @Accept json
// @Produce json
// @Param body body backend.ProxyRequest true "Action, record kind and data"
// @Success 200 {object} backend.ProxyResponse
// @Failure 400 {object} backend.ProxyResponse
// @Failure 405 {object} backend.ProxyResponse
// @Failure 500 {object} backend.ProxyResponse
// @Router /github-proxy [post]
func (h *ProxyHandler) Proxy(c *fiber.Ctx) error {
	if c.Method() != fiber.MethodPost {
		return proxyError(c, fiber.StatusMethodNotAllowed, "Method not allowed")
	}

	var body backend.ProxyRequest
	if err := c.BodyParser(&body); err != nil {
		return proxyError(c, fiber.StatusBadRequest, "Invalid input")
	}

	kind, err := types.ParseKind(body.Type)
	if err != nil {
		return proxyError(c, fiber.StatusBadRequest, err.Error())
	}

	switch body.Action {
	case "save":
		if len(body.Data) == 0 {
			return proxyError(c, fiber.StatusBadRequest, "Missing data")
		}
		res, err := h.Store.PutRecord(c.UserContext(), kind, body.Data, nil)
		if err != nil {
			if errors.Is(err, services.ErrInvalidRecord) {
				return proxyError(c, fiber.StatusBadRequest, err.Error())
			}
			log.Printf("Proxy save %s failed: %v", kind, err)
			return proxyError(c, fiber.StatusInternalServerError, err.Error())
		}
		action := "updated"
		if res.Created {
			action = "created"
		}
		return c.Status(fiber.StatusOK).JSON(backend.ProxyResponse{Success: true, Action: action})

	case "load":
		data := json.RawMessage("{}")
		record, err := h.Store.GetRecord(c.UserContext(), kind)
		if err != nil && !errors.Is(err, services.ErrNotFound) {
			log.Printf("Proxy load %s failed: %v", kind, err)
			return proxyError(c, fiber.StatusInternalServerError, err.Error())
		}
		if err == nil && len(record.Data) > 0 {
			data = record.Data
		}
		return c.Status(fiber.StatusOK).JSON(backend.ProxyResponse{Success: true, Data: data})
	}

	return proxyError(c, fiber.StatusBadRequest, "Unknown action: "+body.Action)
}
