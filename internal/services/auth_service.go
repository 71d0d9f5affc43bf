package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"querydash/internal/models"
	"querydash/pkg/auth"

	"github.com/google/uuid"
)

// AdminRole is the role assigned to the configured administrator.
const AdminRole = "admin"

// ErrNotConfigured is returned when the admin identity cannot be
// established. It is fatal to startup; there is no degraded mode.
var ErrNotConfigured = errors.New("admin credentials not configured")

// AuthService verifies credentials against the single configured
// administrator identity and manages its login sessions. The identity
// is immutable after construction.
type AuthService struct {
	adminEmail   string
	passwordHash string
	dummyHash    string // verified on unknown-email attempts

	sessions SessionStore
	tokens   *auth.TokenIssuer // nil when JWT_SECRET is unset
}

// NewAuthService hashes the configured password once and returns the
// gate. tokens may be nil; sessions must not be.
func NewAuthService(email, rawPassword string, sessions SessionStore, tokens *auth.TokenIssuer) (*AuthService, error) {
	email = strings.TrimSpace(strings.ToLower(email))
	if email == "" || rawPassword == "" {
		return nil, ErrNotConfigured
	}

	passwordHash, err := auth.HashPassword(rawPassword)
	if err != nil {
		return nil, fmt.Errorf("failed to hash admin password: %w", err)
	}

	// A throwaway hash keeps the unknown-email path as expensive as
	// the wrong-password path.
	dummyHash, err := auth.HashPassword(uuid.NewString())
	if err != nil {
		return nil, fmt.Errorf("failed to prepare dummy hash: %w", err)
	}

	return &AuthService{
		adminEmail:   email,
		passwordHash: passwordHash,
		dummyHash:    dummyHash,
		sessions:     sessions,
		tokens:       tokens,
	}, nil
}

// Authenticate verifies a credential pair. All mismatches — wrong
// email, wrong password, malformed stored hash — come back as a
// uniform no-match; hash errors are logged, never surfaced.
func (s *AuthService) Authenticate(email, rawPassword string) (*models.Principal, bool) {
	email = strings.TrimSpace(strings.ToLower(email))

	if email != s.adminEmail {
		// Burn the same verification cost as a real attempt.
		_, _ = auth.VerifyPassword(s.dummyHash, rawPassword)
		return nil, false
	}

	valid, err := auth.VerifyPassword(s.passwordHash, rawPassword)
	if err != nil {
		slog.Error("password verification failed", "error", err)
		return nil, false
	}
	if !valid {
		return nil, false
	}

	return &models.Principal{Email: s.adminEmail, Role: AdminRole}, true
}

// Login authenticates and, on success, creates a session. The returned
// token is the opaque session key for the cookie.
func (s *AuthService) Login(ctx context.Context, email, rawPassword string) (string, *models.Principal, error) {
	principal, ok := s.Authenticate(email, rawPassword)
	if !ok {
		return "", nil, nil
	}

	token, err := s.sessions.Create(ctx, Session{
		Email:     principal.Email,
		Role:      principal.Role,
		CreatedAt: time.Now().UTC(),
	})
	if err != nil {
		return "", nil, fmt.Errorf("failed to create session: %w", err)
	}

	return token, principal, nil
}

// Logout destroys the session behind the given token, if any.
func (s *AuthService) Logout(ctx context.Context, token string) error {
	if token == "" {
		return nil
	}
	return s.sessions.Destroy(ctx, token)
}

// SessionPrincipal resolves a session token to a principal. A missing
// or expired session is (nil, false), never an error for the caller.
func (s *AuthService) SessionPrincipal(ctx context.Context, token string) (*models.Principal, bool) {
	if token == "" {
		return nil, false
	}
	session, err := s.sessions.Get(ctx, token)
	if err != nil {
		if !errors.Is(err, ErrSessionNotFound) {
			slog.Warn("session lookup failed", "error", err)
		}
		return nil, false
	}
	return &models.Principal{Email: session.Email, Role: session.Role}, true
}

// TokenPrincipal resolves a bearer access token to a principal.
// Invalid tokens are (nil, false). Returns false when no token issuer
// is configured.
func (s *AuthService) TokenPrincipal(tokenString string) (*models.Principal, bool) {
	if s.tokens == nil || tokenString == "" {
		return nil, false
	}
	identity, err := s.tokens.Verify(tokenString)
	if err != nil {
		return nil, false
	}
	return &models.Principal{Email: identity.Email, Role: identity.Role}, true
}

// IssueAccessToken signs a short-lived API token for the principal.
// Returns false when no token issuer is configured.
func (s *AuthService) IssueAccessToken(principal *models.Principal) (string, time.Duration, bool) {
	if s.tokens == nil {
		return "", 0, false
	}
	token, err := s.tokens.Issue(principal.Email, principal.Role)
	if err != nil {
		slog.Error("failed to issue access token", "error", err)
		return "", 0, false
	}
	return token, s.tokens.Expiry(), true
}
