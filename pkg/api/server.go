// Package api exposes the note store over HTTP.
//
//	GET    /api/notes          list notes (?category=GLOB&pending=true)
//	GET    /api/notes/:id      fetch one note
//	POST   /api/notes          create a note (201)
//	PUT    /api/notes/:id      partial update
//	DELETE /api/notes/:id      delete a note
//	GET    /api/state          introspection snapshot
package api

import (
	"context"
	"io"
	"log/slog"

	"github.com/aretw0/introspection"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"

	"github.com/aretw0/nudge/pkg/core"
)

// Option configures a Server.
type Option func(*Server)

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Server) {
		s.logger = logger
	}
}

// Component is anything that can report its state under a type name.
type Component interface {
	introspection.Introspectable
	ComponentType() string
}

// WithComponents adds components reported by GET /api/state.
func WithComponents(components ...Component) Option {
	return func(s *Server) {
		s.components = append(s.components, components...)
	}
}

// Server is the HTTP front end of a core.Service.
type Server struct {
	app        *fiber.App
	logger     *slog.Logger
	components []Component
}

type handlers struct {
	svc *core.Service
}

// New builds the fiber application and registers the routes.
func New(svc *core.Service, opts ...Option) *Server {
	s := &Server{logger: slog.New(slog.NewTextHandler(io.Discard, nil))}
	for _, opt := range opts {
		opt(s)
	}
	s.components = append([]Component{svc}, s.components...)

	app := fiber.New(fiber.Config{
		AppName:               "nudge",
		DisableStartupMessage: true,
	})
	app.Use(errorHandlerMiddleware(s.logger))
	app.Use(cors.New())

	h := &handlers{svc: svc}
	r := app.Group("/api")
	r.Get("/notes", h.list)
	r.Get("/notes/:id", h.show)
	r.Post("/notes", h.create)
	r.Put("/notes/:id", h.update)
	r.Delete("/notes/:id", h.remove)
	r.Get("/state", s.state)

	s.app = app
	return s
}

// App returns the underlying fiber application.
func (s *Server) App() *fiber.App {
	return s.app
}

// Listen serves HTTP on addr until Shutdown is called.
func (s *Server) Listen(addr string) error {
	s.logger.Info("http api listening", "addr", addr)
	return s.app.Listen(addr)
}

// Shutdown stops accepting connections and waits for in-flight requests.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.app.ShutdownWithContext(ctx)
}

func (s *Server) state(c *fiber.Ctx) error {
	out := make(map[string]any, len(s.components))
	for _, comp := range s.components {
		out[comp.ComponentType()] = comp.State()
	}
	return c.JSON(out)
}
