package api

import (
	"errors"

	"github.com/gofiber/fiber/v2"

	"github.com/finelli/fraudgate/internal/types"
)

// respondError maps domain errors onto the wire: validation failures are
// 422 with the offending field list, version conflicts are 409 carrying
// expected and actual versions, missing entities are 404. Anything else
// bubbles to the fiber error handler as a 500.
func respondError(c *fiber.Ctx, err error) error {
	var ve *types.ValidationError
	if errors.As(err, &ve) {
		return c.Status(fiber.StatusUnprocessableEntity).JSON(fiber.Map{
			"error": fiber.Map{
				"code":    "VALIDATION_FAILED",
				"message": ve.Error(),
				"fields":  ve.Fields,
			},
		})
	}

	var ce *types.ConflictError
	if errors.As(err, &ce) {
		return c.Status(fiber.StatusConflict).JSON(fiber.Map{
			"error": fiber.Map{
				"code":            "VERSION_CONFLICT",
				"message":         ce.Error(),
				"expectedVersion": ce.Expected,
				"actualVersion":   ce.Actual,
			},
		})
	}

	var nf *types.NotFoundError
	if errors.As(err, &nf) {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"error": fiber.Map{"code": "NOT_FOUND", "message": nf.Error()},
		})
	}

	if errors.Is(err, types.ErrPayloadTooLarge) {
		return c.Status(fiber.StatusRequestEntityTooLarge).JSON(fiber.Map{
			"error": fiber.Map{"code": "PAYLOAD_TOO_LARGE", "message": err.Error()},
		})
	}
	if errors.Is(err, types.ErrTooManyConditions) {
		return c.Status(fiber.StatusUnprocessableEntity).JSON(fiber.Map{
			"error": fiber.Map{"code": "TOO_MANY_CONDITIONS", "message": err.Error()},
		})
	}

	return err
}

func badRequest(c *fiber.Ctx, msg string) error {
	return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
		"error": fiber.Map{"code": "INVALID_PAYLOAD", "message": msg},
	})
}
