package handler

import (
	"log/slog"

	"go-pos-ledger/internal/middleware"
	"go-pos-ledger/internal/service"

	"github.com/gofiber/fiber/v2"
)

type AuthHandler struct {
	authService service.AuthService
	log         *slog.Logger
}

func NewAuthHandler(authService service.AuthService, log *slog.Logger) *AuthHandler {
	return &AuthHandler{authService: authService, log: log}
}

// LoginRequest represents the login request body
type LoginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

// ResetPasswordRequest represents the reset password request body
type ResetPasswordRequest struct {
	Username    string `json:"username"`
	OldPassword string `json:"old_password"`
	NewPassword string `json:"new_password"`
}

// ValidateTokenRequest represents the validate token request body
type ValidateTokenRequest struct {
	Token string `json:"token"`
}

// Login handles user authentication
// POST /api/v1/auth/login
func (h *AuthHandler) Login(c *fiber.Ctx) error {
	var req LoginRequest
	if err := c.BodyParser(&req); err != nil {
		return badRequest(c, "Invalid JSON")
	}
	if req.Username == "" || req.Password == "" {
		return badRequest(c, "Username and password are required")
	}

	response, err := h.authService.Login(c.UserContext(), req.Username, req.Password)
	if err != nil {
		return respondError(c, h.log, err)
	}
	return c.JSON(response)
}

// ResetPassword handles password change
// POST /api/v1/auth/reset-password
func (h *AuthHandler) ResetPassword(c *fiber.Ctx) error {
	var req ResetPasswordRequest
	if err := c.BodyParser(&req); err != nil {
		return badRequest(c, "Invalid JSON")
	}
	if req.Username == "" || req.OldPassword == "" || req.NewPassword == "" {
		return badRequest(c, "Username, old_password, and new_password are required")
	}

	if err := h.authService.ResetPassword(c.UserContext(), req.Username, req.OldPassword, req.NewPassword); err != nil {
		return respondError(c, h.log, err)
	}
	return c.JSON(fiber.Map{"message": "Password updated successfully"})
}

// ValidateToken handles JWT token validation
// POST /api/v1/auth/validate-token
func (h *AuthHandler) ValidateToken(c *fiber.Ctx) error {
	var req ValidateTokenRequest
	if err := c.BodyParser(&req); err != nil {
		return badRequest(c, "Invalid JSON")
	}
	if req.Token == "" {
		return badRequest(c, "Token is required")
	}

	user, err := h.authService.ValidateToken(c.UserContext(), req.Token)
	if err != nil {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": err.Error()})
	}
	return c.JSON(fiber.Map{"user": user.ToResponse()})
}

func (h *AuthHandler) Heartbeat(c *fiber.Ctx) error {
	userID, ok := c.Locals(middleware.LocalUserID).(uint)
	if !ok {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "Unauthorized"})
	}
	if err := h.authService.Heartbeat(c.UserContext(), userID); err != nil {
		return respondError(c, h.log, err)
	}
	return c.JSON(fiber.Map{"message": "Heartbeat received", "status": "online"})
}
