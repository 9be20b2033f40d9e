package api

import (
	"github.com/gofiber/fiber/v2"

	"github.com/finelli/fraudgate/internal/audit"
)

// ListAudit returns audit entries newest first, optionally filtered by
// action, entity type, entity id and actor query parameters.
func (h *Handler) ListAudit(c *fiber.Ctx) error {
	entries, err := h.audit.List(c.Context(), audit.Filter{
		Action:     c.Query("action"),
		EntityType: c.Query("entityType"),
		EntityID:   c.Query("entityId"),
		Actor:      c.Query("actor"),
		Limit:      c.QueryInt("limit", h.listLimit),
		Offset:     c.QueryInt("offset", 0),
	})
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(fiber.Map{"data": entries})
}
