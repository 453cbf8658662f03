// Package testutil holds helpers shared by handler tests.
package testutil

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"scanorder-backend/internal/apperr"
	"scanorder-backend/internal/auth"
	"scanorder-backend/internal/identity"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"
)

// App returns a fiber app with the production error handler. Requests run
// as whatever *actor points to at request time; a nil actor is anonymous.
func App(actor *identity.Actor) *fiber.App {
	app := fiber.New(fiber.Config{ErrorHandler: apperr.ErrorHandler(zerolog.Nop())})
	app.Use(func(c *fiber.Ctx) error {
		if actor != nil && actor.ID != 0 {
			c.Locals(auth.CtxActorKey, *actor)
		}
		return c.Next()
	})
	return app
}

// Do sends a JSON request and decodes the JSON response into a map.
func Do(t testing.TB, app *fiber.App, method, path string, body any) (int, map[string]any) {
	t.Helper()
	var reader io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(b)
	}
	req := httptest.NewRequest(method, path, reader)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	resp, err := app.Test(req, -1)
	require.NoError(t, err)
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	out := map[string]any{}
	if len(raw) > 0 && resp.StatusCode != http.StatusNoContent {
		require.NoError(t, json.Unmarshal(raw, &out), string(raw))
	}
	return resp.StatusCode, out
}
