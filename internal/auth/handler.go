package auth

import (
	"errors"

	"scanorder-backend/internal/models"

	"github.com/gofiber/fiber/v2"
)

type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type UserResponse struct {
	ID        uint            `json:"id"`
	Name      string          `json:"name"`
	Email     string          `json:"email"`
	Role      models.UserRole `json:"role"`
	StoreID   *uint           `json:"store_id"`
	CreatedAt string          `json:"created_at"`
}

func toUserResponse(u *models.User) UserResponse {
	return UserResponse{
		ID:        u.ID,
		Name:      u.Name,
		Email:     u.Email,
		Role:      u.Role,
		StoreID:   u.StoreID,
		CreatedAt: u.CreatedAt.Format("2006-01-02 15:04:05"),
	}
}

// POST /api/auth/register
func RegisterHandler(svc *Service) fiber.Handler {
	return func(c *fiber.Ctx) error {
		var body RegisterInput
		if err := c.BodyParser(&body); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "Invalid request body")
		}

		user, err := svc.Register(c.UserContext(), body)
		if err != nil {
			return err
		}
		return c.Status(fiber.StatusCreated).JSON(toUserResponse(user))
	}
}

// POST /api/auth/login
func LoginHandler(svc *Service) fiber.Handler {
	return func(c *fiber.Ctx) error {
		var body LoginRequest
		if err := c.BodyParser(&body); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "Invalid request body")
		}

		token, user, err := svc.Login(c.UserContext(), body.Email, body.Password)
		if err != nil {
			if errors.Is(err, ErrInvalidCredentials) {
				return fiber.NewError(fiber.StatusUnauthorized, "These credentials do not match our records.")
			}
			return err
		}

		return c.JSON(fiber.Map{
			"token": token,
			"user":  toUserResponse(user),
		})
	}
}

// GET /api/auth/me
func MeHandler(svc *Service) fiber.Handler {
	return func(c *fiber.Ctx) error {
		actor, err := ActorFrom(c)
		if err != nil {
			return err
		}

		user, err := svc.Me(c.UserContext(), actor)
		if err != nil {
			return err
		}

		return c.JSON(fiber.Map{
			"user":            toUserResponse(user),
			"owned_store_ids": actor.OwnedStoreIDs,
		})
	}
}

// POST /api/stores/:id/cashiers
func CreateCashierHandler(svc *Service) fiber.Handler {
	return func(c *fiber.Ctx) error {
		actor, err := ActorFrom(c)
		if err != nil {
			return err
		}
		storeID, err := c.ParamsInt("id")
		if err != nil || storeID <= 0 {
			return fiber.NewError(fiber.StatusBadRequest, "Invalid store id")
		}

		var body CashierInput
		if err := c.BodyParser(&body); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "Invalid request body")
		}

		user, err := svc.CreateCashier(c.UserContext(), actor, uint(storeID), body)
		if err != nil {
			return err
		}
		return c.Status(fiber.StatusCreated).JSON(toUserResponse(user))
	}
}

// GET /api/stores/:id/cashiers
func ListCashiersHandler(svc *Service) fiber.Handler {
	return func(c *fiber.Ctx) error {
		actor, err := ActorFrom(c)
		if err != nil {
			return err
		}
		storeID, err := c.ParamsInt("id")
		if err != nil || storeID <= 0 {
			return fiber.NewError(fiber.StatusBadRequest, "Invalid store id")
		}

		users, err := svc.ListCashiers(c.UserContext(), actor, uint(storeID))
		if err != nil {
			return err
		}

		res := make([]UserResponse, 0, len(users))
		for i := range users {
			res = append(res, toUserResponse(&users[i]))
		}
		return c.JSON(res)
	}
}
