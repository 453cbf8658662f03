package logging

import (
	"errors"
	"io"
	"os"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// Setup configures the global zerolog logger and returns it.
func Setup(level, format string) zerolog.Logger {
	lvl, err := zerolog.ParseLevel(strings.ToLower(level))
	if err != nil || level == "" {
		lvl = zerolog.InfoLevel
	}
	zerolog.SetGlobalLevel(lvl)

	var out io.Writer = os.Stdout
	if format != "json" {
		out = zerolog.ConsoleWriter{Out: os.Stdout, TimeFormat: time.RFC3339}
	}
	logger := zerolog.New(out).With().Timestamp().Logger()
	log.Logger = logger
	return logger
}

// UserIDFunc pulls the authenticated user id from the request, 0 when anonymous.
type UserIDFunc func(c *fiber.Ctx) uint

// RequestLogger logs one line per request after the handler chain ran.
func RequestLogger(logger zerolog.Logger, userID UserIDFunc) fiber.Handler {
	return func(c *fiber.Ctx) error {
		start := time.Now()
		chainErr := c.Next()

		status := c.Response().StatusCode()
		if chainErr != nil {
			// ErrorHandler has not run yet; report what it will send.
			status = fiber.StatusInternalServerError
			var fe *fiber.Error
			var se interface{ Status() int }
			if errors.As(chainErr, &fe) {
				status = fe.Code
			} else if errors.As(chainErr, &se) {
				status = se.Status()
			}
		}

		evt := logger.Info()
		if status >= fiber.StatusInternalServerError {
			evt = logger.Error().Err(chainErr)
		}
		reqID, _ := c.Locals("requestid").(string)
		var uid uint
		if userID != nil {
			uid = userID(c)
		}
		evt.
			Str("request_id", reqID).
			Uint("user_id", uid).
			Str("method", c.Method()).
			Str("path", c.Path()).
			Int("status", status).
			Dur("latency", time.Since(start)).
			Msg("request completed")
		return chainErr
	}
}
