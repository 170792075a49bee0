package middleware

import (
	"errors"
	"log/slog"

	"github.com/gofiber/fiber/v2"

	"github.com/saturnino-fabrica-de-software/ponto/internal/domain"
)

// errorBody is the JSON shape of every failed request.
type errorBody struct {
	Error errorDetail `json:"error"`
}

type errorDetail struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	// Detail carries the cause of a client error, e.g. which dimension was
	// expected. Server errors never expose it.
	Detail    string `json:"detail,omitempty"`
	RequestID string `json:"request_id,omitempty"`
}

// routingCodes names the errors fiber raises before a handler runs.
var routingCodes = map[int]string{
	fiber.StatusNotFound:              "ROUTE_NOT_FOUND",
	fiber.StatusMethodNotAllowed:      "METHOD_NOT_ALLOWED",
	fiber.StatusRequestEntityTooLarge: "IMAGE_TOO_LARGE",
	fiber.StatusBadRequest:            "BAD_REQUEST",
}

// ErrorHandler renders domain errors with their own status and code. Fiber
// routing errors get a code of their own; anything else is a 500.
func ErrorHandler(logger *slog.Logger) fiber.ErrorHandler {
	return func(c *fiber.Ctx, err error) error {
		var appErr *domain.AppError
		if errors.As(err, &appErr) {
			detail := errorDetail{Code: appErr.Code, Message: appErr.Message}
			if appErr.StatusCode >= 500 {
				logger.Error("request failed",
					"code", appErr.Code,
					"path", c.Path(),
					"request_id", requestID(c),
					"error", err,
				)
			} else if appErr.Err != nil {
				detail.Detail = appErr.Err.Error()
			}
			return writeError(c, appErr.StatusCode, detail)
		}

		var fiberErr *fiber.Error
		if errors.As(err, &fiberErr) {
			code, ok := routingCodes[fiberErr.Code]
			if !ok {
				code = "HTTP_ERROR"
			}
			return writeError(c, fiberErr.Code, errorDetail{Code: code, Message: fiberErr.Message})
		}

		logger.Error("unhandled error", "path", c.Path(), "request_id", requestID(c), "error", err)
		return writeError(c, fiber.StatusInternalServerError, internalError())
	}
}

func internalError() errorDetail {
	return errorDetail{Code: domain.ErrInternal.Code, Message: domain.ErrInternal.Message}
}

func writeError(c *fiber.Ctx, status int, detail errorDetail) error {
	detail.RequestID = requestID(c)
	return c.Status(status).JSON(errorBody{Error: detail})
}

// requestID is set by the requestid middleware, when installed.
func requestID(c *fiber.Ctx) string {
	id, _ := c.Locals("requestid").(string)
	return id
}
