package middleware

import (
	"time"

	"github.com/gofiber/fiber/v2"
)

// AdminSessionCookie is the cookie carrying the admin session marker
const AdminSessionCookie = "admin_session"

// adminSessionValue is the marker set after a successful login
const adminSessionValue = "authenticated"

// adminSessionMaxAge is how long an admin session lasts
const adminSessionMaxAge = 7 * 24 * time.Hour

// AdminMiddleware guards admin routes behind the shared-secret session
// cookie set by the login endpoint.
func AdminMiddleware() fiber.Handler {
	return func(c *fiber.Ctx) error {
		if c.Cookies(AdminSessionCookie) != adminSessionValue {
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
				"error": "Unauthorized",
			})
		}
		return c.Next()
	}
}

// SetAdminSessionCookie attaches a fresh admin session cookie to the response
func SetAdminSessionCookie(c *fiber.Ctx) {
	c.Cookie(&fiber.Cookie{
		Name:     AdminSessionCookie,
		Value:    adminSessionValue,
		HTTPOnly: true,
		SameSite: fiber.CookieSameSiteLaxMode,
		MaxAge:   int(adminSessionMaxAge.Seconds()),
		Path:     "/",
	})
}

// ClearAdminSessionCookie expires the admin session cookie
func ClearAdminSessionCookie(c *fiber.Ctx) {
	c.Cookie(&fiber.Cookie{
		Name:     AdminSessionCookie,
		Value:    "",
		HTTPOnly: true,
		SameSite: fiber.CookieSameSiteLaxMode,
		MaxAge:   -1,
		Path:     "/",
	})
}
