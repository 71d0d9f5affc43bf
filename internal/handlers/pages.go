package handlers

import (
	"embed"

	"github.com/gofiber/fiber/v2"
)

//go:embed static/login.html static/dashboard.html
var pageFS embed.FS

// PagesHandler serves the embedded login and dashboard pages.
type PagesHandler struct{}

// NewPagesHandler creates a new pages handler.
func NewPagesHandler() *PagesHandler {
	return &PagesHandler{}
}

// Login serves the login view
// GET /login
func (h *PagesHandler) Login(c *fiber.Ctx) error {
	return h.serve(c, "static/login.html")
}

// Dashboard serves the dashboard view; the route is behind RequirePage
// GET /
func (h *PagesHandler) Dashboard(c *fiber.Ctx) error {
	return h.serve(c, "static/dashboard.html")
}

func (h *PagesHandler) serve(c *fiber.Ctx, name string) error {
	page, err := pageFS.ReadFile(name)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).SendString("page unavailable")
	}
	c.Set(fiber.HeaderContentType, fiber.MIMETextHTMLCharsetUTF8)
	return c.Send(page)
}
