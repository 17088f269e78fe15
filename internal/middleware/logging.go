package middleware

import (
	"errors"
	"log/slog"
	"time"

	"github.com/gofiber/fiber/v2"
)

// RequestLogger returns a middleware that logs every request with its
// method, path, user, status, and duration.
func RequestLogger() fiber.Handler {
	return func(c *fiber.Ctx) error {
		start := time.Now()

		err := c.Next()

		status := c.Response().StatusCode()
		var fiberErr *fiber.Error
		if errors.As(err, &fiberErr) {
			status = fiberErr.Code
		} else if err != nil {
			status = fiber.StatusInternalServerError
		}

		attrs := []any{
			"method", c.Method(),
			"path", c.Path(),
			"status", status,
			"user_id", UserID(c),
			"duration_ms", time.Since(start).Milliseconds(),
		}
		switch {
		case err != nil:
			slog.Warn("request failed", append(attrs, "error", err)...)
		case status >= fiber.StatusInternalServerError:
			slog.Error("request errored", attrs...)
		default:
			slog.Info("request ok", attrs...)
		}

		return err
	}
}
