package apperr

import (
	"errors"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"
)

// ErrorHandler renders *Error and *fiber.Error as JSON. Anything else is
// logged and answered with a generic 500 so internals never reach the client.
func ErrorHandler(logger zerolog.Logger) fiber.ErrorHandler {
	return func(c *fiber.Ctx, err error) error {
		var appErr *Error
		if errors.As(err, &appErr) {
			if appErr.Err != nil {
				logger.Warn().
					Err(appErr.Err).
					Str("request_id", requestID(c)).
					Str("kind", appErr.Kind.String()).
					Msg(appErr.Message)
			}
			body := fiber.Map{"error": appErr.Message}
			if len(appErr.Fields) > 0 {
				body["fields"] = appErr.Fields
			}
			return c.Status(appErr.Kind.Status()).JSON(body)
		}

		var fe *fiber.Error
		if errors.As(err, &fe) {
			return c.Status(fe.Code).JSON(fiber.Map{"error": fe.Message})
		}

		logger.Error().
			Err(err).
			Str("request_id", requestID(c)).
			Str("method", c.Method()).
			Str("path", c.Path()).
			Msg("unexpected error")
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Unexpected server error",
		})
	}
}

func requestID(c *fiber.Ctx) string {
	if v, ok := c.Locals("requestid").(string); ok {
		return v
	}
	return ""
}
