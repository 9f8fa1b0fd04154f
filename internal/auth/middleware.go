package auth

import (
	"slices"
	"strings"

	"sitedesk-backend/internal/models"

	"github.com/gofiber/fiber/v2"
)

const claimsKey = "auth.claims"

func bearer(c *fiber.Ctx) (string, bool) {
	scheme, token, ok := strings.Cut(c.Get(fiber.HeaderAuthorization), " ")
	if !ok || !strings.EqualFold(scheme, "bearer") || token == "" {
		return "", false
	}
	return strings.TrimSpace(token), true
}

func JWTMiddleware(secret string) fiber.Handler {
	return func(c *fiber.Ctx) error {
		raw, ok := bearer(c)
		if !ok {
			return fiber.NewError(fiber.StatusUnauthorized, "bearer token required")
		}
		claims, err := ParseToken(secret, raw)
		if err != nil {
			return fiber.NewError(fiber.StatusUnauthorized, err.Error())
		}
		c.Locals(claimsKey, claims)
		return c.Next()
	}
}

func claimsOf(c *fiber.Ctx) *Claims {
	claims, _ := c.Locals(claimsKey).(*Claims)
	return claims
}

func RequireRole(roles ...models.UserRole) fiber.Handler {
	return func(c *fiber.Ctx) error {
		claims := claimsOf(c)
		if claims == nil || !slices.Contains(roles, claims.Role) {
			return fiber.NewError(fiber.StatusForbidden, "not allowed")
		}
		return c.Next()
	}
}

// CurrentUser returns the id and display name of the authenticated user, or
// zero values outside JWTMiddleware.
func CurrentUser(c *fiber.Ctx) (uint, string) {
	claims := claimsOf(c)
	if claims == nil {
		return 0, ""
	}
	return claims.UserID(), claims.Name
}
