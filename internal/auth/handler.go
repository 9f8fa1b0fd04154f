package auth

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"sitedesk-backend/internal/api"
	"sitedesk-backend/internal/models"
	"sitedesk-backend/internal/store"

	"github.com/gofiber/fiber/v2"
	"golang.org/x/crypto/bcrypt"
)

type LoginRequest struct {
	Username string `json:"username" validate:"required"`
	Password string `json:"password" validate:"required"`
}

// EnsureAdmin creates the administrator account on first start. An existing
// account is left untouched so a changed password survives restarts.
func EnsureAdmin(ctx context.Context, users store.UserRepository, username, password, name string) (bool, error) {
	username = strings.TrimSpace(strings.ToLower(username))
	_, err := users.ByUsername(ctx, username)
	if err == nil {
		return false, nil
	}
	if !errors.Is(err, store.ErrNotFound) {
		return false, fmt.Errorf("look up admin: %w", err)
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return false, fmt.Errorf("hash admin password: %w", err)
	}
	user := models.User{
		Username:     username,
		Name:         name,
		PasswordHash: string(hash),
		Role:         models.RoleAdmin,
	}
	if err := users.Create(ctx, &user); err != nil {
		return false, fmt.Errorf("create admin: %w", err)
	}
	return true, nil
}

// POST /api/auth/login
func LoginHandler(users store.UserRepository, secret string, ttl time.Duration) fiber.Handler {
	return func(c *fiber.Ctx) error {
		var body LoginRequest
		if err := api.Bind(c, &body); err != nil {
			return err
		}

		username := strings.TrimSpace(strings.ToLower(body.Username))

		user, err := users.ByUsername(c.UserContext(), username)
		if errors.Is(err, store.ErrNotFound) {
			return fiber.NewError(fiber.StatusUnauthorized, "invalid username or password")
		}
		if err != nil {
			return err
		}

		if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(body.Password)); err != nil {
			return fiber.NewError(fiber.StatusUnauthorized, "invalid username or password")
		}

		token, err := GenerateToken(secret, &user, ttl)
		if err != nil {
			return fmt.Errorf("sign token: %w", err)
		}

		return c.JSON(fiber.Map{
			"token": token,
			"user":  user,
		})
	}
}

// GET /api/auth/me
func MeHandler(users store.UserRepository) fiber.Handler {
	return func(c *fiber.Ctx) error {
		userID, _ := CurrentUser(c)
		user, err := users.Get(c.UserContext(), userID)
		if err != nil {
			return api.NotFound(err, "user")
		}
		return c.JSON(user)
	}
}
