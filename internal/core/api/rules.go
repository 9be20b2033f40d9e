package api

import (
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/finelli/fraudgate/internal/types"
	"github.com/finelli/fraudgate/internal/version"
)

// ruleRequest carries the mutable rule fields shared by create, update
// and publish.
type ruleRequest struct {
	Name        string          `json:"name"`
	Description string          `json:"description"`
	Category    types.Category  `json:"category"`
	Severity    types.Severity  `json:"severity"`
	Tags        []string        `json:"tags"`
	Logic       types.RuleLogic `json:"logic"`
}

func (r ruleRequest) toInput(actor string) version.RuleInput {
	return version.RuleInput{
		Name:        r.Name,
		Description: r.Description,
		Category:    r.Category,
		Severity:    r.Severity,
		Tags:        r.Tags,
		Logic:       r.Logic,
		Actor:       actor,
	}
}

// ListRules returns rules newest first, without version history.
func (h *Handler) ListRules(c *fiber.Ctx) error {
	limit := c.QueryInt("limit", h.listLimit)
	offset := c.QueryInt("offset", 0)

	rules, err := h.store.ListRules(c.Context(), limit, offset)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(fiber.Map{"data": rules})
}

// GetRule returns one rule with its version history and trigger counter.
func (h *Handler) GetRule(c *fiber.Ctx) error {
	id, err := types.ParseRuleID(c.Params("id"))
	if err != nil {
		return badRequest(c, "invalid rule id")
	}

	rule, err := h.store.GetRule(c.Context(), id)
	if err != nil {
		return respondError(c, err)
	}
	versions, err := h.store.ListVersions(c.Context(), id)
	if err != nil {
		return respondError(c, err)
	}
	rule.Versions = versions

	since := time.Now().UTC().Add(-24 * time.Hour)
	triggers, err := h.store.CountTriggersSince(c.Context(), id, since)
	if err != nil {
		return respondError(c, err)
	}
	rule.Triggers24h = triggers

	return c.JSON(fiber.Map{"data": rule})
}

// CreateRule persists a new draft rule.
func (h *Handler) CreateRule(c *fiber.Ctx) error {
	var req ruleRequest
	if err := c.BodyParser(&req); err != nil {
		return badRequest(c, "invalid JSON body")
	}

	rule, err := h.manager.Create(c.Context(), req.toInput(actor(c)))
	if err != nil {
		return respondError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(fiber.Map{"data": rule})
}

// UpdateRule saves draft edits without publishing.
func (h *Handler) UpdateRule(c *fiber.Ctx) error {
	id, err := types.ParseRuleID(c.Params("id"))
	if err != nil {
		return badRequest(c, "invalid rule id")
	}
	var req ruleRequest
	if err := c.BodyParser(&req); err != nil {
		return badRequest(c, "invalid JSON body")
	}

	rule, err := h.manager.SaveDraft(c.Context(), id, req.toInput(actor(c)))
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(fiber.Map{"data": rule})
}

// DeleteRule removes a rule and its version history.
func (h *Handler) DeleteRule(c *fiber.Ctx) error {
	id, err := types.ParseRuleID(c.Params("id"))
	if err != nil {
		return badRequest(c, "invalid rule id")
	}

	if err := h.store.DeleteRule(c.Context(), id); err != nil {
		return respondError(c, err)
	}
	h.recordDelete(c, id)
	return c.SendStatus(fiber.StatusNoContent)
}

type publishRequest struct {
	ruleRequest

	Notes           string `json:"notes"`
	ExpectedVersion string `json:"expectedVersion"`
}

// PublishRule snapshots the submitted logic into a new active version.
func (h *Handler) PublishRule(c *fiber.Ctx) error {
	id, err := types.ParseRuleID(c.Params("id"))
	if err != nil {
		return badRequest(c, "invalid rule id")
	}
	var req publishRequest
	if err := c.BodyParser(&req); err != nil {
		return badRequest(c, "invalid JSON body")
	}

	rule, err := h.manager.Publish(c.Context(), id, version.PublishInput{
		RuleInput:       req.toInput(actor(c)),
		Notes:           req.Notes,
		ExpectedVersion: req.ExpectedVersion,
	})
	if err != nil {
		if types.IsConflict(err) {
			h.metrics.PublishConflicts.Inc()
		}
		return respondError(c, err)
	}
	h.metrics.Publishes.Inc()
	return c.JSON(fiber.Map{"data": rule})
}

// CloneRule creates a fresh draft from a rule's active snapshot.
func (h *Handler) CloneRule(c *fiber.Ctx) error {
	id, err := types.ParseRuleID(c.Params("id"))
	if err != nil {
		return badRequest(c, "invalid rule id")
	}

	clone, err := h.manager.Clone(c.Context(), id, actor(c))
	if err != nil {
		return respondError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(fiber.Map{"data": clone})
}

type statusRequest struct {
	Status          types.RuleStatus `json:"status"`
	ExpectedVersion string           `json:"expectedVersion"`
}

// SetRuleStatus toggles a published rule between active and inactive.
func (h *Handler) SetRuleStatus(c *fiber.Ctx) error {
	id, err := types.ParseRuleID(c.Params("id"))
	if err != nil {
		return badRequest(c, "invalid rule id")
	}
	var req statusRequest
	if err := c.BodyParser(&req); err != nil {
		return badRequest(c, "invalid JSON body")
	}

	if err := h.manager.SetStatus(c.Context(), id, req.Status, req.ExpectedVersion, actor(c)); err != nil {
		if types.IsConflict(err) {
			h.metrics.PublishConflicts.Inc()
		}
		return respondError(c, err)
	}
	rule, err := h.store.GetRule(c.Context(), id)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(fiber.Map{"data": rule})
}

// ListVersions returns a rule's snapshots, newest first.
func (h *Handler) ListVersions(c *fiber.Ctx) error {
	id, err := types.ParseRuleID(c.Params("id"))
	if err != nil {
		return badRequest(c, "invalid rule id")
	}

	versions, err := h.store.ListVersions(c.Context(), id)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(fiber.Map{"data": versions})
}

// GetVersion returns one snapshot.
func (h *Handler) GetVersion(c *fiber.Ctx) error {
	id, err := types.ParseVersionID(c.Params("id"))
	if err != nil {
		return badRequest(c, "invalid version id")
	}

	v, err := h.store.GetVersion(c.Context(), id)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(fiber.Map{"data": v})
}

type notesRequest struct {
	Notes string `json:"notes"`
}

// UpdateVersionNotes edits a snapshot's notes.
func (h *Handler) UpdateVersionNotes(c *fiber.Ctx) error {
	id, err := types.ParseVersionID(c.Params("id"))
	if err != nil {
		return badRequest(c, "invalid version id")
	}
	var req notesRequest
	if err := c.BodyParser(&req); err != nil {
		return badRequest(c, "invalid JSON body")
	}

	if err := h.manager.UpdateVersionNotes(c.Context(), id, req.Notes, actor(c)); err != nil {
		return respondError(c, err)
	}
	v, err := h.store.GetVersion(c.Context(), id)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(fiber.Map{"data": v})
}

type testRequest struct {
	Logic    types.RuleLogic `json:"logic"`
	Severity types.Severity  `json:"severity"`
	Payload  types.Payload   `json:"payload"`
}

// TestRule evaluates logic against a supplied or generated sample claim.
// Purely ephemeral: nothing is persisted and no counters move.
func (h *Handler) TestRule(c *fiber.Ctx) error {
	var req testRequest
	if err := c.BodyParser(&req); err != nil {
		return badRequest(c, "invalid JSON body")
	}

	result, err := h.manager.Test(req.Logic, req.Severity, req.Payload)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(fiber.Map{"data": result})
}
