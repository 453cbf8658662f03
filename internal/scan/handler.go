package scan

import (
	"github.com/gofiber/fiber/v2"
)

type scanRequest struct {
	StoreCode string `json:"store_code"`
}

// POST /api/scan
func ScanHandler(g *Gateway) fiber.Handler {
	return func(c *fiber.Ctx) error {
		var body scanRequest
		if err := c.BodyParser(&body); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "Invalid request body")
		}
		menu, err := g.ResolveStoreCode(c.UserContext(), body.StoreCode)
		if err != nil {
			return err
		}
		return c.JSON(fiber.Map{"store": menu})
	}
}

// GET /api/scan/:code
func LookupHandler(g *Gateway) fiber.Handler {
	return func(c *fiber.Ctx) error {
		menu, err := g.ResolveStoreCode(c.UserContext(), c.Params("code"))
		if err != nil {
			return err
		}
		return c.JSON(fiber.Map{"store": menu})
	}
}
