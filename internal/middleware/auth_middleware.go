package middleware

import (
	"errors"
	"strings"

	"go-pos-ledger/internal/service"
	"go-pos-ledger/pkg/jwt"

	"github.com/gofiber/fiber/v2"
)

// Locals keys set by RequireAuth.
const (
	LocalUserID   = "user_id"
	LocalUsername = "username"
	LocalRole     = "role"
)

// RequireAuth is middleware that validates JWT token and sets user info in context
func RequireAuth(auth service.AuthService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		authHeader := c.Get("Authorization")
		if authHeader == "" {
			return c.Status(401).JSON(fiber.Map{"error": "Missing authorization token"})
		}

		// Extract token from "Bearer <token>"
		parts := strings.Split(authHeader, " ")
		if len(parts) != 2 || strings.ToLower(parts[0]) != "bearer" {
			return c.Status(401).JSON(fiber.Map{"error": "Invalid authorization format. Use: Bearer <token>"})
		}

		user, err := auth.ValidateToken(c.UserContext(), parts[1])
		if err != nil {
			switch {
			case errors.Is(err, jwt.ErrInvalidToken), errors.Is(err, jwt.ErrMissingToken):
				return c.Status(401).JSON(fiber.Map{"error": "Invalid or expired token"})
			case errors.Is(err, service.ErrSessionExpired):
				return c.Status(401).JSON(fiber.Map{"error": "Session expired (logged in on another device)"})
			default:
				return c.Status(401).JSON(fiber.Map{"error": err.Error()})
			}
		}

		c.Locals(LocalUserID, user.ID)
		c.Locals(LocalUsername, user.Username)
		c.Locals(LocalRole, user.Role)

		return c.Next()
	}
}

// RequireRole lets the request through only for users holding role.
func RequireRole(role string) fiber.Handler {
	return func(c *fiber.Ctx) error {
		got, ok := c.Locals(LocalRole).(string)
		if !ok || got != role {
			return c.Status(403).JSON(fiber.Map{
				"error": "Forbidden: requires '" + role + "' role",
			})
		}
		return c.Next()
	}
}

// Actor returns the username of the authenticated caller, used for audit
// columns.
func Actor(c *fiber.Ctx) string {
	if name, ok := c.Locals(LocalUsername).(string); ok {
		return name
	}
	return ""
}
