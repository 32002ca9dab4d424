package handlers

import (
	"encoding/json"
	"errors"

	"github.com/gofiber/fiber/v2"
	"github.com/localnerve/chapterviewer/internal/services"
	"github.com/localnerve/chapterviewer/internal/types"
	"github.com/localnerve/chapterviewer/internal/utils"
)

// StateHandler handles the collaborative record routes
type StateHandler struct {
	Store services.RecordStore
}

// PutStateInput is the body of a whole-record replace
type PutStateInput struct {
	Version *types.FlexUint64 `json:"version,omitempty" swaggertype:"string"`
	Data    json.RawMessage   `json:"data" swaggertype:"object"`
}

// PatchStateInput is the body of a per-key change
type PatchStateInput struct {
	Version *types.FlexUint64          `json:"version" swaggertype:"string"`
	Set     map[string]json.RawMessage `json:"set,omitempty" swaggertype:"object"`
	Delete  types.FlexList[string]     `json:"delete,omitempty" swaggertype:"array,string"`
}

// GetState handles GET /api/state/:kind
// @Summary Get a collaborative record
// @Description Get the whole record of one kind with its version
// @Tags State
// @Accept json
// @Produce json
// @Param kind path string true "Record kind"
// @Success 200 {object} services.Record
// @Success 204 "Record is empty"
// @Failure 400 {object} utils.ErrorResponseStruct
// @Failure 500 {object} utils.ErrorResponseStruct
// @Router /state/{kind} [get]
func (h *StateHandler) GetState(c *fiber.Ctx) error {
	kind, err := parseKind(c)
	if err != nil {
		return utils.ErrorResponse(c, err.Error(), fiber.StatusBadRequest, "data.validation.kind")
	}

	record, err := h.Store.GetRecord(c.UserContext(), kind)
	if err != nil {
		if errors.Is(err, services.ErrNotFound) {
			return c.SendStatus(fiber.StatusNoContent)
		}
		return utils.ErrorResponse(c, err.Error(), fiber.StatusInternalServerError, "getState")
	}

	if !hasContent(record.Data) {
		return c.SendStatus(fiber.StatusNoContent)
	}

	return c.Status(fiber.StatusOK).JSON(record)
}

// PutState handles PUT /api/state/:kind
// @Summary Replace a collaborative record
// @Description Replace the whole record. Without a version the write always wins.
// @Tags State
// @Accept json
// @Produce json
// @Param kind path string true "Record kind"
// @Param body body PutStateInput true "Record data and optional version"
// @Success 200 {object} utils.SuccessResponseStruct
// @Failure 400 {object} utils.ErrorResponseStruct
// @Failure 403 {object} utils.ErrorResponseStruct
// @Failure 409 {object} utils.ErrorResponseStruct
// @Failure 500 {object} utils.ErrorResponseStruct
// @Security CookieAuth
// @Router /state/{kind} [put]
func (h *StateHandler) PutState(c *fiber.Ctx) error {
	kind, err := parseKind(c)
	if err != nil {
		return utils.ErrorResponse(c, err.Error(), fiber.StatusBadRequest, "data.validation.kind")
	}

	var body PutStateInput
	if err := c.BodyParser(&body); err != nil {
		return utils.ErrorResponse(c, "Invalid input", fiber.StatusBadRequest, "data.validation.input")
	}
	if len(body.Data) == 0 {
		return utils.ErrorResponse(c, "Invalid input", fiber.StatusBadRequest, "data.validation.input")
	}

	res, err := h.Store.PutRecord(c.UserContext(), kind, body.Data, types.OptionalVersion(body.Version))
	if err != nil {
		return storeErrorResponse(c, err, "putState")
	}

	return utils.MutationSuccessResponse(c, res.Version, res.AffectedRows)
}

// PatchState handles PATCH /api/state/:kind
// @Summary Change keys of a collaborative record
// @Description Set and delete individual keys. The version is required.
// @Tags State
// @Accept json
// @Produce json
// @Param kind path string true "Record kind"
// @Param body body PatchStateInput true "Version, keys to set and keys to delete"
// @Success 200 {object} utils.SuccessResponseStruct
// @Failure 400 {object} utils.ErrorResponseStruct
// @Failure 403 {object} utils.ErrorResponseStruct
// @Failure 409 {object} utils.ErrorResponseStruct
// @Failure 501 {object} utils.ErrorResponseStruct
// @Security CookieAuth
// @Router /state/{kind} [patch]
func (h *StateHandler) PatchState(c *fiber.Ctx) error {
	kind, err := parseKind(c)
	if err != nil {
		return utils.ErrorResponse(c, err.Error(), fiber.StatusBadRequest, "data.validation.kind")
	}

	var body PatchStateInput
	if err := c.BodyParser(&body); err != nil {
		return utils.ErrorResponse(c, "Invalid input", fiber.StatusBadRequest, "data.validation.input")
	}

	if body.Version == nil {
		return utils.ErrorResponse(c, "Version is required", fiber.StatusBadRequest, "data.validation.input")
	}

	remove := types.UniqueStrings(body.Delete)
	if len(body.Set) == 0 && len(remove) == 0 {
		return utils.ErrorResponse(c, "Nothing to set or delete", fiber.StatusBadRequest, "data.validation.input")
	}
	for key := range body.Set {
		if key == "" {
			return utils.ErrorResponse(c, "Keys must not be empty", fiber.StatusBadRequest, "data.validation.input")
		}
	}

	res, err := h.Store.PatchRecord(c.UserContext(), kind, body.Version.Uint64(), services.Patch{
		Set:    body.Set,
		Delete: remove,
	})
	if err != nil {
		return storeErrorResponse(c, err, "patchState")
	}

	return utils.MutationSuccessResponse(c, res.Version, res.AffectedRows)
}
