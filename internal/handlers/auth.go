package handlers

import (
	"log"
	"strings"
	"time"

	"querydash/internal/middleware"
	"querydash/internal/models"
	"querydash/internal/services"

	"github.com/gofiber/fiber/v2"
)

// AuthHandler handles login, logout and identity endpoints.
type AuthHandler struct {
	authService *services.AuthService
}

// NewAuthHandler creates a new auth handler.
func NewAuthHandler(authService *services.AuthService) *AuthHandler {
	return &AuthHandler{authService: authService}
}

// LoginRequest is the request body for login
type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// LoginResponse is the response for successful authentication
type LoginResponse struct {
	User        models.Principal `json:"user"`
	AccessToken string           `json:"access_token,omitempty"`
	ExpiresIn   int              `json:"expires_in,omitempty"` // seconds
}

// Login authenticates the administrator
// POST /api/auth/login
func (h *AuthHandler) Login(c *fiber.Ctx) error {
	var req LoginRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid request body",
		})
	}

	req.Email = strings.TrimSpace(strings.ToLower(req.Email))

	token, principal, err := h.authService.Login(c.UserContext(), req.Email, req.Password)
	if err != nil {
		log.Printf("❌ Failed to create session: %v", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to create session",
		})
	}
	if principal == nil {
		// Uniform response: wrong email and wrong password are
		// indistinguishable to the caller.
		if m := services.GetMetrics(); m != nil {
			m.RecordLoginAttempt("failure")
		}
		log.Printf("⚠️ Failed login attempt for: %s", req.Email)
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
			"error": "Invalid email or password",
		})
	}

	c.Cookie(&fiber.Cookie{
		Name:     middleware.SessionCookieName,
		Value:    token,
		Expires:  time.Now().Add(24 * time.Hour),
		HTTPOnly: true,
		Secure:   c.Protocol() == "https",
		SameSite: "Strict",
		Path:     "/",
	})

	if m := services.GetMetrics(); m != nil {
		m.RecordLoginAttempt("success")
	}
	log.Printf("✅ Admin logged in: %s", principal.Email)

	resp := LoginResponse{User: *principal}
	if accessToken, expiry, ok := h.authService.IssueAccessToken(principal); ok {
		resp.AccessToken = accessToken
		resp.ExpiresIn = int(expiry.Seconds())
	}

	return c.JSON(resp)
}

// Logout destroys the current session
// POST /api/auth/logout
func (h *AuthHandler) Logout(c *fiber.Ctx) error {
	token := c.Cookies(middleware.SessionCookieName)
	if err := h.authService.Logout(c.UserContext(), token); err != nil {
		log.Printf("⚠️ Failed to destroy session: %v", err)
		// Non-critical, continue
	}

	c.ClearCookie(middleware.SessionCookieName)

	return c.JSON(fiber.Map{
		"message": "Logged out successfully",
	})
}

// Me returns the currently authenticated principal
// GET /api/auth/me
func (h *AuthHandler) Me(c *fiber.Ctx) error {
	email, _ := c.Locals("user_email").(string)
	role, _ := c.Locals("user_role").(string)
	if email == "" {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
			"error": "Authentication required",
		})
	}

	return c.JSON(models.Principal{Email: email, Role: role})
}
