package middleware

import (
	"log"
	"strings"

	"katalog/internal/policy"
	"katalog/internal/services"

	"github.com/gofiber/fiber/v2"
)

// ActorKey is the fiber.Ctx locals key under which AuthRequired stores
// the resolved policy.Actor.
const ActorKey = "actor"

// AuthRequired is a Fiber middleware to check for a valid JWT token.
// On success it resolves the token's identity and role into a
// policy.Actor (capability set included) and stores it in the request
// locals, so downstream handlers never reach for ambient role state.
func AuthRequired(authService *services.AuthService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		authHeader := c.Get("Authorization")
		if authHeader == "" {
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
				"message": "Authorization header is required",
			})
		}

		// Expected format: "Bearer <token>"
		parts := strings.SplitN(authHeader, " ", 2)
		if !(len(parts) == 2 && parts[0] == "Bearer") {
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
				"message": "Authorization header format must be 'Bearer <token>'",
			})
		}

		tokenString := parts[1]

		claims, err := authService.ValidateToken(tokenString)
		if err != nil {
			log.Printf("JWT validation failed: %v", err)
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
				"message": "Invalid or expired token",
				"error":   err.Error(),
			})
		}

		userID, _ := claims["user_id"].(string)
		role, _ := claims["role"].(string)
		if userID == "" {
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
				"message": "Invalid or expired token",
			})
		}

		// Store the resolved actor in Fiber context for subsequent handlers
		c.Locals(ActorKey, policy.NewActor(userID, role))
		c.Locals("username", claims["username"])

		// Continue to the next handler
		return c.Next()
	}
}

// ActorFromCtx returns the actor resolved by AuthRequired.
func ActorFromCtx(c *fiber.Ctx) policy.Actor {
	actor, _ := c.Locals(ActorKey).(policy.Actor)
	return actor
}
