// Package api holds the HTTP plumbing shared by every resource package: the
// error handler, request binding and query parsing.
package api

import (
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"sitedesk-backend/internal/store"

	"github.com/gofiber/fiber/v2"
)

type FieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

// ValidationError is answered with 400 and the list of offending fields.
type ValidationError struct {
	Fields []FieldError
}

func (e *ValidationError) Error() string {
	parts := make([]string, 0, len(e.Fields))
	for _, f := range e.Fields {
		parts = append(parts, f.Field+": "+f.Message)
	}
	return "validation failed: " + strings.Join(parts, "; ")
}

// Invalid builds a single-field validation error.
func Invalid(field, message string) *ValidationError {
	return &ValidationError{Fields: []FieldError{{Field: field, Message: message}}}
}

// NotFound turns store.ErrNotFound into a 404 naming the entity and passes
// other errors through.
func NotFound(err error, entity string) error {
	if errors.Is(err, store.ErrNotFound) {
		return fiber.NewError(fiber.StatusNotFound, fmt.Sprintf("%s not found", entity))
	}
	return err
}

// StatusCode is the status ErrorHandler answers err with.
func StatusCode(err error) int {
	var ve *ValidationError
	var fe *fiber.Error
	switch {
	case err == nil:
		return fiber.StatusOK
	case errors.As(err, &ve):
		return fiber.StatusBadRequest
	case errors.Is(err, store.ErrNotFound):
		return fiber.StatusNotFound
	case errors.As(err, &fe):
		return fe.Code
	default:
		return fiber.StatusInternalServerError
	}
}

// ErrorHandler is installed as fiber.Config.ErrorHandler. Only 5xx errors are
// logged; their details never reach the client.
func ErrorHandler(log *slog.Logger) fiber.ErrorHandler {
	return func(c *fiber.Ctx, err error) error {
		var ve *ValidationError
		var fe *fiber.Error
		switch {
		case errors.As(err, &ve):
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
				"error":  "validation failed",
				"fields": ve.Fields,
			})
		case errors.Is(err, store.ErrNotFound):
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
				"error": "not found",
			})
		case errors.As(err, &fe):
			if fe.Code >= fiber.StatusInternalServerError {
				log.Error("request failed", "method", c.Method(), "path", c.Path(), "err", fe.Message)
			}
			return c.Status(fe.Code).JSON(fiber.Map{
				"error": fe.Message,
			})
		}

		log.Error("unexpected error", "method", c.Method(), "path", c.Path(), "err", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "internal server error",
		})
	}
}
