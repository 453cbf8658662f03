package order

import (
	"scanorder-backend/internal/auth"
	"scanorder-backend/internal/paging"

	"github.com/gofiber/fiber/v2"
)

const ordersPerPage = 15

func idParam(c *fiber.Ctx) (uint, error) {
	id, err := c.ParamsInt("id")
	if err != nil || id <= 0 {
		return 0, fiber.NewError(fiber.StatusBadRequest, "Invalid order id")
	}
	return uint(id), nil
}

// GET /api/orders?status=&page=&per_page=
func ListOrdersHandler(engine *Engine) fiber.Handler {
	return func(c *fiber.Ctx) error {
		actor, err := auth.ActorFrom(c)
		if err != nil {
			return err
		}
		res, err := engine.List(c.UserContext(), actor, ListFilter{Status: c.Query("status")}, paging.FromQuery(c, ordersPerPage))
		if err != nil {
			return err
		}
		return c.JSON(res)
	}
}

// POST /api/orders
func CreateOrderHandler(engine *Engine) fiber.Handler {
	return func(c *fiber.Ctx) error {
		actor, err := auth.ActorFrom(c)
		if err != nil {
			return err
		}
		var body CreateInput
		if err := c.BodyParser(&body); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "Invalid request body")
		}
		o, err := engine.Create(c.UserContext(), actor, body)
		if err != nil {
			return err
		}
		return c.Status(fiber.StatusCreated).JSON(fiber.Map{
			"message": "Order placed successfully",
			"order":   o,
		})
	}
}

// GET /api/orders/:id
func GetOrderHandler(engine *Engine) fiber.Handler {
	return func(c *fiber.Ctx) error {
		actor, err := auth.ActorFrom(c)
		if err != nil {
			return err
		}
		id, err := idParam(c)
		if err != nil {
			return err
		}
		o, err := engine.Get(c.UserContext(), actor, id)
		if err != nil {
			return err
		}
		return c.JSON(o)
	}
}

// PUT /api/orders/:id
func TransitionOrderHandler(engine *Engine) fiber.Handler {
	return func(c *fiber.Ctx) error {
		actor, err := auth.ActorFrom(c)
		if err != nil {
			return err
		}
		id, err := idParam(c)
		if err != nil {
			return err
		}
		var body TransitionInput
		if err := c.BodyParser(&body); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "Invalid request body")
		}
		o, err := engine.Transition(c.UserContext(), actor, id, body)
		if err != nil {
			return err
		}
		return c.JSON(fiber.Map{
			"message": "Order updated successfully",
			"order":   o,
		})
	}
}

// DELETE /api/orders/:id
func DeleteOrderHandler(engine *Engine) fiber.Handler {
	return func(c *fiber.Ctx) error {
		actor, err := auth.ActorFrom(c)
		if err != nil {
			return err
		}
		id, err := idParam(c)
		if err != nil {
			return err
		}
		if err := engine.Delete(c.UserContext(), actor, id); err != nil {
			return err
		}
		return c.SendStatus(fiber.StatusNoContent)
	}
}
