package audit

import (
	"encoding/json"

	"scanorder-backend/internal/auth"
	"scanorder-backend/internal/models"
	"scanorder-backend/internal/paging"

	"github.com/gofiber/fiber/v2"
)

const logsPerPage = 25

type AuditLogResponse struct {
	ID          uint               `json:"id"`
	CreatedAt   string             `json:"created_at"`
	StoreID     *uint              `json:"store_id"`
	UserID      uint               `json:"user_id"`
	UserName    string             `json:"user_name"`
	EntityType  string             `json:"entity_type"`
	EntityID    uint               `json:"entity_id"`
	Action      models.AuditAction `json:"action"`
	Description string             `json:"description"`
	Before      json.RawMessage    `json:"before"`
	After       json.RawMessage    `json:"after"`
}

func rawOrNull(s string) json.RawMessage {
	if s == "" {
		return json.RawMessage("null")
	}
	return json.RawMessage(s)
}

func positiveQuery(c *fiber.Ctx, key string) (uint, error) {
	if c.Query(key) == "" {
		return 0, nil
	}
	v := c.QueryInt(key, 0)
	if v <= 0 {
		return 0, fiber.NewError(fiber.StatusBadRequest, "Invalid "+key)
	}
	return uint(v), nil
}

// GET /api/audit-logs?store_id=1&entity_type=order&entity_id=1&user_id=2
func ListAuditLogsHandler(svc *Service) fiber.Handler {
	return func(c *fiber.Ctx) error {
		actor, err := auth.ActorFrom(c)
		if err != nil {
			return err
		}

		q := ListQuery{EntityType: c.Query("entity_type")}
		storeID, err := positiveQuery(c, "store_id")
		if err != nil {
			return err
		}
		if storeID > 0 {
			q.StoreID = &storeID
		}
		if q.EntityID, err = positiveQuery(c, "entity_id"); err != nil {
			return err
		}
		if q.UserID, err = positiveQuery(c, "user_id"); err != nil {
			return err
		}

		p := paging.FromQuery(c, logsPerPage)
		res, err := svc.ListForActor(c.UserContext(), actor, q, p)
		if err != nil {
			return err
		}

		data := make([]AuditLogResponse, 0, len(res.Data))
		for _, l := range res.Data {
			data = append(data, AuditLogResponse{
				ID:          l.ID,
				CreatedAt:   l.CreatedAt.Format("2006-01-02 15:04:05"),
				StoreID:     l.StoreID,
				UserID:      l.UserID,
				UserName:    l.UserName,
				EntityType:  l.EntityType,
				EntityID:    l.EntityID,
				Action:      l.Action,
				Description: l.Description,
				Before:      rawOrNull(l.BeforeData),
				After:       rawOrNull(l.AfterData),
			})
		}
		return c.JSON(paging.Result[AuditLogResponse]{
			Data:     data,
			Total:    res.Total,
			Page:     res.Page,
			PerPage:  res.PerPage,
			LastPage: res.LastPage,
		})
	}
}
