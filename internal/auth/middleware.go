package auth

import (
	"strings"

	"scanorder-backend/internal/identity"
	"scanorder-backend/internal/models"

	"github.com/gofiber/fiber/v2"
)

const CtxActorKey = "actor"

func JWTMiddleware(svc *Service) fiber.Handler {
	return func(c *fiber.Ctx) error {
		authHeader := c.Get("Authorization")
		if authHeader == "" {
			return fiber.NewError(fiber.StatusUnauthorized, "Authorization header is missing")
		}

		parts := strings.SplitN(authHeader, " ", 2)
		if len(parts) != 2 || strings.ToLower(parts[0]) != "bearer" {
			return fiber.NewError(fiber.StatusUnauthorized, "Authorization header must be 'Bearer <token>'")
		}

		claims, err := ParseToken(svc.secret, parts[1])
		if err != nil {
			return fiber.NewError(fiber.StatusUnauthorized, "Invalid or expired token")
		}

		actor, err := svc.ResolveActor(c.UserContext(), claims)
		if err != nil {
			return fiber.NewError(fiber.StatusUnauthorized, "Invalid or expired token")
		}

		c.Locals(CtxActorKey, actor)
		return c.Next()
	}
}

// ActorFrom returns the actor JWTMiddleware stored on the request.
func ActorFrom(c *fiber.Ctx) (identity.Actor, error) {
	actor, ok := c.Locals(CtxActorKey).(identity.Actor)
	if !ok {
		return identity.Actor{}, fiber.NewError(fiber.StatusUnauthorized, "Unauthenticated")
	}
	return actor, nil
}

// ActorID is 0 for anonymous requests.
func ActorID(c *fiber.Ctx) uint {
	if actor, ok := c.Locals(CtxActorKey).(identity.Actor); ok {
		return actor.ID
	}
	return 0
}

func RequireRole(allowedRoles ...models.UserRole) fiber.Handler {
	return func(c *fiber.Ctx) error {
		actor, err := ActorFrom(c)
		if err != nil {
			return err
		}

		for _, r := range allowedRoles {
			if r == actor.Role {
				return c.Next()
			}
		}
		return fiber.NewError(fiber.StatusForbidden, "This action is unauthorized.")
	}
}
