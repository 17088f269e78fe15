package middleware

import (
	"strings"

	"github.com/gofiber/fiber/v2"

	"github.com/okastudio/tripsplit/internal/auth"
)

// Locals keys for the authenticated user. Custom type avoids collisions
// with other handlers' locals.
type localKey string

const (
	userIDKey localKey = "user_id"
	emailKey  localKey = "email"
	nameKey   localKey = "display_name"
)

// UserID extracts the authenticated user ID from the request context.
// Returns empty string if not authenticated.
func UserID(c *fiber.Ctx) string {
	id, _ := c.Locals(userIDKey).(string)
	return id
}

// Email extracts the authenticated user's email from the request context.
func Email(c *fiber.Ctx) string {
	email, _ := c.Locals(emailKey).(string)
	return email
}

// DisplayName extracts the authenticated user's display name from the request context.
func DisplayName(c *fiber.Ctx) string {
	name, _ := c.Locals(nameKey).(string)
	return name
}

// SetUser stores the authenticated identity on the request.
func SetUser(c *fiber.Ctx, userID, email, displayName string) {
	c.Locals(userIDKey, userID)
	c.Locals(emailKey, email)
	c.Locals(nameKey, displayName)
}

func bearerToken(c *fiber.Ctx) (string, error) {
	header := c.Get(fiber.HeaderAuthorization)
	if header == "" {
		return "", auth.ErrMissingToken
	}
	parts := strings.Split(header, " ")
	if len(parts) != 2 || parts[0] != "Bearer" {
		return "", auth.ErrInvalidToken
	}
	return parts[1], nil
}

// RequireAuth returns a middleware that validates JWT tokens and requires
// authentication. It extracts the token from the Authorization header,
// validates it, and stores the user identity on the request.
func RequireAuth(jwtManager *auth.JWTManager) fiber.Handler {
	return func(c *fiber.Ctx) error {
		token, err := bearerToken(c)
		if err != nil {
			return fiber.NewError(fiber.StatusUnauthorized, err.Error())
		}

		claims, err := jwtManager.Validate(token)
		if err != nil {
			return fiber.NewError(fiber.StatusUnauthorized, auth.ErrInvalidToken.Error())
		}

		SetUser(c, claims.UserID, claims.Email, claims.DisplayName)
		return c.Next()
	}
}

// OptionalAuth returns a middleware that validates JWT tokens if present, but
// allows requests without authentication. Useful for endpoints with different
// behavior for authenticated vs unauthenticated users.
func OptionalAuth(jwtManager *auth.JWTManager) fiber.Handler {
	return func(c *fiber.Ctx) error {
		if token, err := bearerToken(c); err == nil {
			if claims, err := jwtManager.Validate(token); err == nil {
				SetUser(c, claims.UserID, claims.Email, claims.DisplayName)
			}
		}
		return c.Next()
	}
}
