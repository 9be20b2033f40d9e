// Package api exposes the admin console's REST surface over fiber.
//
// Route groups: /api/rules for authoring and lifecycle, /api/versions for
// snapshot notes, /api/execute for scoring claims against the active rule
// set, and /api/audit for the action log. The acting analyst is taken
// from the X-Actor header; absent means "system".
package api

import (
	"log/slog"

	"github.com/gofiber/fiber/v2"

	"github.com/finelli/fraudgate/internal/audit"
	"github.com/finelli/fraudgate/internal/metrics"
	"github.com/finelli/fraudgate/internal/store"
	"github.com/finelli/fraudgate/internal/version"
)

const defaultActor = "system"

// Handler serves the admin API routes.
type Handler struct {
	manager   *version.Manager
	store     *store.SQLStore
	audit     *audit.Log
	metrics   *metrics.Metrics
	log       *slog.Logger
	listLimit int
}

// NewHandler wires the API over the version manager and the store.
// listLimit caps unpaginated list responses.
func NewHandler(m *version.Manager, s *store.SQLStore, a *audit.Log, mx *metrics.Metrics, log *slog.Logger, listLimit int) *Handler {
	return &Handler{manager: m, store: s, audit: a, metrics: mx, log: log, listLimit: listLimit}
}

// RegisterRoutes mounts all admin API routes on the app.
func RegisterRoutes(app *fiber.App, h *Handler) {
	api := app.Group("/api")

	rules := api.Group("/rules")
	rules.Get("/", h.ListRules)
	rules.Post("/", h.CreateRule)
	rules.Post("/test", h.TestRule)
	rules.Post("/execute", h.Execute)
	rules.Get("/:id", h.GetRule)
	rules.Put("/:id", h.UpdateRule)
	rules.Delete("/:id", h.DeleteRule)
	rules.Post("/:id/publish", h.PublishRule)
	rules.Post("/:id/clone", h.CloneRule)
	rules.Put("/:id/status", h.SetRuleStatus)
	rules.Get("/:id/versions", h.ListVersions)
	rules.Get("/:id/performance", h.RulePerformance)

	api.Get("/versions/:id", h.GetVersion)
	api.Put("/versions/:id/notes", h.UpdateVersionNotes)

	api.Get("/audit", h.ListAudit)
}

// actor extracts the acting analyst from the request headers.
func actor(c *fiber.Ctx) string {
	if a := c.Get("X-Actor"); a != "" {
		return a
	}
	return defaultActor
}
