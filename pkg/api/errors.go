package api

import (
	"errors"
	"fmt"
	"log/slog"
	"runtime/debug"

	"github.com/gofiber/fiber/v2"

	"github.com/aretw0/nudge/pkg/core"
)

// ErrBadRequest marks a request body or parameter the API cannot accept.
var ErrBadRequest = errors.New("invalid request")

func badRequest(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrBadRequest, fmt.Sprintf(format, args...))
}

// errorResponse is the body of every failed request.
type errorResponse struct {
	Error string `json:"error"`
}

// errorHandlerMiddleware maps domain errors to status codes and recovers panics.
func errorHandlerMiddleware(logger *slog.Logger) fiber.Handler {
	return func(c *fiber.Ctx) (err error) {
		defer func() {
			if r := recover(); r != nil {
				if logger.Enabled(c.UserContext(), slog.LevelDebug) {
					logger.Error("panic in handler", "panic", r, "stack", string(debug.Stack()))
				} else {
					logger.Error("panic in handler", "panic", r)
				}
				err = c.Status(fiber.StatusInternalServerError).JSON(errorResponse{Error: "internal server error"})
			}
		}()

		err = c.Next()
		if err == nil {
			return nil
		}

		switch {
		case errors.Is(err, core.ErrNotFound):
			return c.Status(fiber.StatusNotFound).JSON(errorResponse{Error: "Note not found"})
		case errors.Is(err, ErrBadRequest):
			return c.Status(fiber.StatusBadRequest).JSON(errorResponse{Error: err.Error()})
		case errors.Is(err, core.ErrReadOnly):
			return c.Status(fiber.StatusForbidden).JSON(errorResponse{Error: err.Error()})
		case errors.Is(err, core.ErrStorageUnavailable):
			logger.Error("storage unavailable", "path", c.Path(), "error", err)
			return c.Status(fiber.StatusServiceUnavailable).JSON(errorResponse{Error: "note storage unavailable"})
		}

		var fiberErr *fiber.Error
		if errors.As(err, &fiberErr) {
			return c.Status(fiberErr.Code).JSON(errorResponse{Error: fiberErr.Message})
		}

		logger.Error("request failed", "method", c.Method(), "path", c.Path(), "error", err)
		return c.Status(fiber.StatusInternalServerError).JSON(errorResponse{Error: err.Error()})
	}
}
