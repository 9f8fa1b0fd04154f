package api

import (
	"errors"
	"fmt"
	"reflect"
	"strconv"
	"strings"
	"time"

	"sitedesk-backend/internal/store"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
)

const DateLayout = "2006-01-02"

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	// report json names, not Go field names
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name := strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
		if name == "-" || name == "" {
			return f.Name
		}
		return name
	})
	return v
}

// Bind parses the JSON body into dst and runs its `validate` tags.
func Bind(c *fiber.Ctx, dst any) error {
	if err := c.BodyParser(dst); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid request body")
	}
	return Validate(dst)
}

// Validate runs the struct's `validate` tags and converts failures into a
// *ValidationError.
func Validate(v any) error {
	err := validate.Struct(v)
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return err
	}
	out := &ValidationError{Fields: make([]FieldError, 0, len(verrs))}
	for _, fe := range verrs {
		out.Fields = append(out.Fields, FieldError{Field: fe.Field(), Message: message(fe)})
	}
	return out
}

func message(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "is required"
	case "gt":
		return "must be greater than " + fe.Param()
	case "gte":
		return "must be at least " + fe.Param()
	case "max":
		return "must be at most " + fe.Param() + " characters"
	case "oneof":
		return "must be one of: " + strings.ReplaceAll(fe.Param(), " ", ", ")
	case "datetime":
		return "must be a date formatted " + fe.Param()
	default:
		return "failed " + fe.Tag() + " check"
	}
}

// ParseID reads a positive integer route parameter.
func ParseID(c *fiber.Ctx, name string) (uint, error) {
	id, err := strconv.ParseUint(c.Params(name), 10, 64)
	if err != nil || id == 0 {
		return 0, fiber.NewError(fiber.StatusBadRequest, fmt.Sprintf("invalid %s", name))
	}
	return uint(id), nil
}

// ParseDate accepts YYYY-MM-DD or RFC 3339. Empty input yields the zero time.
func ParseDate(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, nil
	}
	if d, err := time.Parse(DateLayout, s); err == nil {
		return d, nil
	}
	return time.Parse(time.RFC3339, s)
}

// ParseQuery reads the common list filters: siteId, materialId, workerId,
// from, to (YYYY-MM-DD) and limit.
func ParseQuery(c *fiber.Ctx) (store.Query, error) {
	var q store.Query
	var fields []FieldError

	uintParam := func(name string, dst *uint) {
		raw := c.Query(name)
		if raw == "" {
			return
		}
		v, err := strconv.ParseUint(raw, 10, 64)
		if err != nil {
			fields = append(fields, FieldError{Field: name, Message: "must be a positive integer"})
			return
		}
		*dst = uint(v)
	}
	dateParam := func(name string) *time.Time {
		raw := c.Query(name)
		if raw == "" {
			return nil
		}
		d, err := time.Parse(DateLayout, raw)
		if err != nil {
			fields = append(fields, FieldError{Field: name, Message: "must be a date formatted " + DateLayout})
			return nil
		}
		return &d
	}

	uintParam("siteId", &q.SiteID)
	uintParam("materialId", &q.MaterialID)
	uintParam("workerId", &q.WorkerID)
	q.From = dateParam("from")
	q.To = dateParam("to")
	if raw := c.Query("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 0 {
			fields = append(fields, FieldError{Field: "limit", Message: "must be a non-negative integer"})
		}
		q.Limit = n
	}

	if len(fields) > 0 {
		return store.Query{}, &ValidationError{Fields: fields}
	}
	return q, nil
}
