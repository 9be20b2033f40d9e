// Package server owns the HTTP listener lifecycle for the admin API.
package server

import (
	"errors"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"

	"github.com/finelli/fraudgate/internal/core/config"
)

// Server wraps the fiber app with config-driven lifecycle handling.
type Server struct {
	app *fiber.App
	cfg *config.AdminAPIConfig
	log *slog.Logger
}

// New builds the fiber app with recovery, request logging and the health
// endpoint. Routes are registered by the caller via App().
func New(cfg *config.AdminAPIConfig, log *slog.Logger) *Server {
	app := fiber.New(fiber.Config{
		AppName:      "fraudgate-admin-api",
		ReadTimeout:  cfg.RequestTimeout,
		WriteTimeout: cfg.RequestTimeout,
		ErrorHandler: newErrorHandler(log),
	})
	app.Use(recover.New(recover.Config{
		EnableStackTrace: true,
	}))
	app.Use(logger.New(logger.Config{
		Format: "${time} ${status} ${method} ${path} ${latency}\n",
	}))

	app.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{"status": "ok"})
	})

	return &Server{app: app, cfg: cfg, log: log}
}

// App exposes the underlying fiber app for route registration.
func (s *Server) App() *fiber.App {
	return s.app
}

// MountMetrics serves a stdlib http.Handler scrape endpoint on the app.
func (s *Server) MountMetrics(path string, h http.Handler) {
	s.app.Get(path, adaptor.HTTPHandler(h))
}

// Listen blocks serving requests until Shutdown is called.
func (s *Server) Listen() error {
	addr := fmt.Sprintf("%s:%d", s.cfg.Host, s.cfg.Port)
	s.log.Info("admin api listening", "addr", addr)
	return s.app.Listen(addr)
}

// Shutdown drains in-flight requests and closes the listener.
func (s *Server) Shutdown() error {
	return s.app.Shutdown()
}

func newErrorHandler(log *slog.Logger) fiber.ErrorHandler {
	return func(c *fiber.Ctx, err error) error {
		code := fiber.StatusInternalServerError

		var fiberErr *fiber.Error
		if errors.As(err, &fiberErr) {
			code = fiberErr.Code
		}

		if code >= http.StatusInternalServerError {
			log.Error("request failed", "method", c.Method(), "path", c.Path(), "error", err)
			return c.Status(code).JSON(fiber.Map{
				"error": fiber.Map{"code": "INTERNAL_ERROR", "message": "internal server error"},
			})
		}
		return c.Status(code).JSON(fiber.Map{
			"error": fiber.Map{"code": http.StatusText(code), "message": err.Error()},
		})
	}
}
