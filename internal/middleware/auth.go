package middleware

import (
	"querydash/internal/models"
	"querydash/internal/services"
	"querydash/pkg/auth"

	"github.com/gofiber/fiber/v2"
)

// SessionCookieName is the cookie that carries the opaque session token.
const SessionCookieName = "querydash_session"

// principalFromRequest is the single adapter behind both guards: a
// request is authenticated when it carries any recognized marker —
// a session cookie that resolves in the session store, or a valid
// bearer access token. Absent or malformed markers mean "not
// authenticated", never an error.
func principalFromRequest(c *fiber.Ctx, authService *services.AuthService) *models.Principal {
	if token := c.Cookies(SessionCookieName); token != "" {
		if principal, ok := authService.SessionPrincipal(c.UserContext(), token); ok {
			return principal
		}
	}

	if authHeader := c.Get("Authorization"); authHeader != "" {
		if token, err := auth.ExtractToken(authHeader); err == nil {
			if principal, ok := authService.TokenPrincipal(token); ok {
				return principal
			}
		}
	}

	return nil
}

// RequireAuth guards data/API routes: unauthenticated requests get a
// structured 401 response.
func RequireAuth(authService *services.AuthService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		principal := principalFromRequest(c, authService)
		if principal == nil {
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
				"error": "Authentication required",
			})
		}

		c.Locals("user_email", principal.Email)
		c.Locals("user_role", principal.Role)
		return c.Next()
	}
}

// RequirePage guards page routes: unauthenticated requests are
// redirected to the login view. Same check as RequireAuth; only the
// failure shape differs.
func RequirePage(authService *services.AuthService, loginPath string) fiber.Handler {
	return func(c *fiber.Ctx) error {
		principal := principalFromRequest(c, authService)
		if principal == nil {
			return c.Redirect(loginPath, fiber.StatusFound)
		}

		c.Locals("user_email", principal.Email)
		c.Locals("user_role", principal.Role)
		return c.Next()
	}
}
