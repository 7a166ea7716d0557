package handlers

import (
	"crypto/subtle"

	"github.com/gofiber/fiber/v2"

	"doesitwork/internal/config"
	"doesitwork/internal/middleware"
)

// AuthHandler handles admin login and logout
type AuthHandler struct {
	cfg *config.Config
}

// NewAuthHandler creates a new auth handler
func NewAuthHandler(cfg *config.Config) *AuthHandler {
	return &AuthHandler{cfg: cfg}
}

type loginRequest struct {
	Password string `json:"password"`
}

// Login checks the shared admin secret and issues a session cookie
func (h *AuthHandler) Login(c *fiber.Ctx) error {
	var req loginRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid request body",
		})
	}

	if h.cfg.AdminSecret == "" ||
		subtle.ConstantTimeCompare([]byte(req.Password), []byte(h.cfg.AdminSecret)) != 1 {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
			"error": "Invalid password",
		})
	}

	middleware.SetAdminSessionCookie(c)
	return c.JSON(fiber.Map{"success": true})
}

// Logout clears the admin session cookie
func (h *AuthHandler) Logout(c *fiber.Ctx) error {
	middleware.ClearAdminSessionCookie(c)
	return c.JSON(fiber.Map{"success": true})
}
