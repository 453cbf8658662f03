package dashboard

import (
	"scanorder-backend/internal/auth"

	"github.com/gofiber/fiber/v2"
)

// GET /api/dashboard
func DashboardHandler(a *Aggregator) fiber.Handler {
	return func(c *fiber.Ctx) error {
		actor, err := auth.ActorFrom(c)
		if err != nil {
			return err
		}
		data, err := a.Build(c.UserContext(), actor)
		if err != nil {
			return err
		}
		return c.JSON(data)
	}
}

// GET /api/dashboard/revenue-chart?period=daily&count=7&store_id=1
func RevenueChartHandler(a *Aggregator) fiber.Handler {
	return func(c *fiber.Ctx) error {
		actor, err := auth.ActorFrom(c)
		if err != nil {
			return err
		}

		req := ChartRequest{Period: Period(c.Query("period", string(PeriodDaily)))}
		if raw := c.Query("count"); raw != "" {
			req.Count = c.QueryInt("count", -1)
			if req.Count <= 0 {
				return fiber.NewError(fiber.StatusBadRequest, "Invalid count")
			}
		}
		if raw := c.Query("store_id"); raw != "" {
			id := c.QueryInt("store_id", 0)
			if id <= 0 {
				return fiber.NewError(fiber.StatusBadRequest, "Invalid store_id")
			}
			storeID := uint(id)
			req.StoreID = &storeID
		}

		chart, err := a.RevenueChart(c.UserContext(), actor, req)
		if err != nil {
			return err
		}
		return c.JSON(chart)
	}
}
