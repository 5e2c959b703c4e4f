// Package httpapi serves synchronous path builds and stored path documents
// over HTTP.
package httpapi

import (
	"context"
	"errors"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/rs/zerolog/log"

	"github.com/stuartshay/path-worker/internal/config"
	"github.com/stuartshay/path-worker/internal/path"
)

// Store persists built path documents
type Store interface {
	SavePath(ctx context.Context, doc path.Document) (string, error)
	GetPath(ctx context.Context, id string) (*path.Document, error)
	HealthCheck(ctx context.Context) error
}

// Server wraps the fiber app serving the path API
type Server struct {
	App *fiber.App

	builder      *path.Builder
	store        Store
	buildTimeout time.Duration
}

// NewServer creates the fiber app and registers every route
func NewServer(cfg *config.Config, builder *path.Builder, store Store) *Server {
	app := fiber.New(fiber.Config{
		AppName:               cfg.ServiceName,
		DisableStartupMessage: true,
		ErrorHandler:          errorHandler,
	})
	app.Use(recover.New())
	app.Use(requestLogger())

	s := &Server{
		App:          app,
		builder:      builder,
		store:        store,
		buildTimeout: cfg.BuildTimeout,
	}

	registerRoutes(s)
	return s
}

func registerRoutes(s *Server) {
	s.App.Get("/healthz", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{"status": "ok"})
	})
	s.App.Get("/readyz", s.ready)

	RegisterRoutes(s.App.Group("/v1/paths"), s)
}

// Listen serves HTTP on addr until Shutdown is called
func (s *Server) Listen(addr string) error {
	return s.App.Listen(addr)
}

// Shutdown stops accepting connections and waits for in-flight requests
func (s *Server) Shutdown(ctx context.Context) error {
	return s.App.ShutdownWithContext(ctx)
}

func (s *Server) ready(c *fiber.Ctx) error {
	ctx, cancel := context.WithTimeout(c.UserContext(), 2*time.Second)
	defer cancel()

	if err := s.store.HealthCheck(ctx); err != nil {
		log.Warn().Err(err).Msg("Readiness check failed")
		return fiber.NewError(fiber.StatusServiceUnavailable, "database unavailable")
	}
	return c.JSON(fiber.Map{"status": "ready"})
}

// errorHandler renders every error as {"error": message}
func errorHandler(c *fiber.Ctx, err error) error {
	code := fiber.StatusInternalServerError
	var fe *fiber.Error
	if errors.As(err, &fe) {
		code = fe.Code
	}
	return c.Status(code).JSON(fiber.Map{"error": err.Error()})
}

// requestLogger logs one line per request once the error handler has set
// the final status
func requestLogger() fiber.Handler {
	return func(c *fiber.Ctx) error {
		start := time.Now()

		if err := c.Next(); err != nil {
			if herr := c.App().Config().ErrorHandler(c, err); herr != nil {
				_ = c.SendStatus(fiber.StatusInternalServerError)
			}
		}

		status := c.Response().StatusCode()
		event := log.Info()
		if status >= fiber.StatusInternalServerError {
			event = log.Error()
		}
		event.
			Str("method", c.Method()).
			Str("path", c.Path()).
			Int("status", status).
			Dur("duration", time.Since(start)).
			Msg("HTTP request")

		return nil
	}
}
