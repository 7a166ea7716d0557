package handlers

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gofiber/fiber/v2"

	"doesitwork/internal/config"
	"doesitwork/internal/middleware"
)

func newAuthTestApp(adminSecret string) *fiber.App {
	app := fiber.New()
	h := NewAuthHandler(&config.Config{AdminSecret: adminSecret})
	app.Post("/api/admin/login", h.Login)
	app.Post("/api/admin/logout", h.Logout)

	admin := app.Group("/api/admin", middleware.AdminMiddleware())
	admin.Get("/ping", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{"ok": true})
	})
	return app
}

func TestLoginSetsSessionCookie(t *testing.T) {
	app := newAuthTestApp("s3cret")

	req := httptest.NewRequest(http.MethodPost, "/api/admin/login", strings.NewReader(`{"password":"s3cret"}`))
	req.Header.Set("Content-Type", "application/json")

	resp, err := app.Test(req)
	if err != nil {
		t.Fatalf("request failed: %v", err)
	}
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}

	var session *http.Cookie
	for _, c := range resp.Cookies() {
		if c.Name == middleware.AdminSessionCookie {
			session = c
		}
	}
	if session == nil {
		t.Fatal("expected admin session cookie to be set")
	}
	if !session.HttpOnly {
		t.Error("session cookie should be HttpOnly")
	}

	// Cookie grants access to guarded routes
	ping := httptest.NewRequest(http.MethodGet, "/api/admin/ping", nil)
	ping.AddCookie(session)
	resp, err = app.Test(ping)
	if err != nil {
		t.Fatalf("request failed: %v", err)
	}
	if resp.StatusCode != http.StatusOK {
		t.Errorf("expected 200 with session cookie, got %d", resp.StatusCode)
	}
}

func TestLoginRejectsWrongPassword(t *testing.T) {
	app := newAuthTestApp("s3cret")

	req := httptest.NewRequest(http.MethodPost, "/api/admin/login", strings.NewReader(`{"password":"guess"}`))
	req.Header.Set("Content-Type", "application/json")

	resp, err := app.Test(req)
	if err != nil {
		t.Fatalf("request failed: %v", err)
	}
	if resp.StatusCode != http.StatusUnauthorized {
		t.Errorf("expected 401, got %d", resp.StatusCode)
	}
	if len(resp.Cookies()) != 0 {
		t.Error("no cookie should be set on failed login")
	}
}

func TestLoginRejectsWhenSecretUnset(t *testing.T) {
	app := newAuthTestApp("")

	req := httptest.NewRequest(http.MethodPost, "/api/admin/login", strings.NewReader(`{"password":""}`))
	req.Header.Set("Content-Type", "application/json")

	resp, err := app.Test(req)
	if err != nil {
		t.Fatalf("request failed: %v", err)
	}
	if resp.StatusCode != http.StatusUnauthorized {
		t.Errorf("expected 401 when no admin secret is configured, got %d", resp.StatusCode)
	}
}

func TestAdminMiddlewareBlocksWithoutCookie(t *testing.T) {
	app := newAuthTestApp("s3cret")

	req := httptest.NewRequest(http.MethodGet, "/api/admin/ping", nil)
	resp, err := app.Test(req)
	if err != nil {
		t.Fatalf("request failed: %v", err)
	}
	if resp.StatusCode != http.StatusUnauthorized {
		t.Errorf("expected 401 without session cookie, got %d", resp.StatusCode)
	}
}
