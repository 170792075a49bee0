package middleware

import (
	"log/slog"
	"runtime/debug"

	"github.com/gofiber/fiber/v2"
)

// Recover turns a handler panic into a 500 and logs its stack.
func Recover(logger *slog.Logger) fiber.Handler {
	return func(c *fiber.Ctx) (err error) {
		defer func() {
			r := recover()
			if r == nil {
				return
			}
			logger.Error("handler panicked",
				"panic", r,
				"method", c.Method(),
				"path", c.Path(),
				"request_id", requestID(c),
				"stack", string(debug.Stack()),
			)
			err = writeError(c, fiber.StatusInternalServerError, internalError())
		}()
		return c.Next()
	}
}
