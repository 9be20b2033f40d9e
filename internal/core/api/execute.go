package api

import (
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/finelli/fraudgate/internal/audit"
	"github.com/finelli/fraudgate/internal/rules"
	"github.com/finelli/fraudgate/internal/store"
	"github.com/finelli/fraudgate/internal/types"
)

type executeRequest struct {
	Payload types.Payload `json:"payload"`
}

// executionOutcome is one rule's verdict in an execute response.
type executionOutcome struct {
	RuleID    types.RuleID    `json:"ruleId"`
	VersionID types.VersionID `json:"versionId"`
	Version   string          `json:"version"`
	Triggered bool            `json:"triggered"`
	Severity  types.Severity  `json:"severity"`
	Details   string          `json:"details"`
}

// Execute scores a claim against the active snapshot of every active
// rule, appending one execution record per rule in a single
// transaction. Trigger counters and the performance endpoint read from
// these records, so either the whole batch lands or none of it does.
func (h *Handler) Execute(c *fiber.Ctx) error {
	var req executeRequest
	if err := c.BodyParser(&req); err != nil {
		return badRequest(c, "invalid JSON body")
	}
	if len(req.Payload) == 0 {
		return badRequest(c, "payload is required")
	}
	if len(req.Payload) > types.MaxPayloadSize {
		return respondError(c, types.ErrPayloadTooLarge)
	}

	active, err := h.store.ListActiveVersions(c.Context())
	if err != nil {
		return respondError(c, err)
	}

	now := time.Now().UTC()
	outcomes := make([]executionOutcome, 0, len(active))
	execs := make([]store.Execution, 0, len(active))
	triggered := 0
	for _, av := range active {
		result := rules.Evaluate(av.LogicSnapshot, av.Severity, req.Payload)
		if result.Triggered {
			triggered++
		}

		execs = append(execs, store.Execution{
			ID:         types.NewExecutionID(),
			RuleID:     av.RuleID,
			VersionID:  av.ID,
			Payload:    req.Payload,
			Triggered:  result.Triggered,
			Severity:   av.Severity,
			ExecutedAt: now,
		})
		outcomes = append(outcomes, executionOutcome{
			RuleID:    av.RuleID,
			VersionID: av.ID,
			Version:   av.Version,
			Triggered: result.Triggered,
			Severity:  av.Severity,
			Details:   result.Details,
		})
	}

	if err := h.store.AppendExecutions(c.Context(), execs); err != nil {
		return respondError(c, err)
	}

	// Counters move only once the records are committed
	h.metrics.Evaluations.Add(float64(len(execs)))
	h.metrics.Triggers.Add(float64(triggered))

	return c.JSON(fiber.Map{"data": outcomes})
}

// rulePerformance summarizes a rule's last 24 hours of executions.
type rulePerformance struct {
	RuleID        types.RuleID `json:"ruleId"`
	Executions24h int          `json:"executions24h"`
	Triggers24h   int          `json:"triggers24h"`
	TriggerRate   float64      `json:"triggerRate"`
}

// RulePerformance reports execution and trigger counts over a 24h window.
func (h *Handler) RulePerformance(c *fiber.Ctx) error {
	id, err := types.ParseRuleID(c.Params("id"))
	if err != nil {
		return badRequest(c, "invalid rule id")
	}
	if _, err := h.store.GetRule(c.Context(), id); err != nil {
		return respondError(c, err)
	}

	since := time.Now().UTC().Add(-24 * time.Hour)
	executions, err := h.store.CountExecutionsSince(c.Context(), id, since)
	if err != nil {
		return respondError(c, err)
	}
	triggers, err := h.store.CountTriggersSince(c.Context(), id, since)
	if err != nil {
		return respondError(c, err)
	}

	perf := rulePerformance{RuleID: id, Executions24h: executions, Triggers24h: triggers}
	if executions > 0 {
		perf.TriggerRate = float64(triggers) / float64(executions)
	}
	return c.JSON(fiber.Map{"data": perf})
}

// recordDelete appends the deletion audit event. Deletion happens at the
// store, not the manager, so the API records it directly.
func (h *Handler) recordDelete(c *fiber.Ctx, id types.RuleID) {
	if h.audit == nil {
		return
	}
	if err := h.audit.Record(c.Context(), audit.Event{
		Actor:      actor(c),
		Action:     audit.ActionDeletedRule,
		EntityType: audit.EntityRule,
		EntityID:   string(id),
	}); err != nil {
		h.log.Warn("audit record failed", "action", audit.ActionDeletedRule, "error", err)
	}
}
