package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http/httptest"
	"strings"
	"testing"

	"sitedesk-backend/internal/logger"
	"sitedesk-backend/internal/store"

	"github.com/gofiber/fiber/v2"
)

type errorBody struct {
	Error  string       `json:"error"`
	Fields []FieldError `json:"fields"`
}

func newApp() *fiber.App {
	return fiber.New(fiber.Config{ErrorHandler: ErrorHandler(logger.Discard())})
}

func do(t *testing.T, app *fiber.App, method, target, body string) (int, errorBody) {
	t.Helper()
	req := httptest.NewRequest(method, target, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	resp, err := app.Test(req)
	if err != nil {
		t.Fatal(err)
	}
	defer resp.Body.Close()
	raw, _ := io.ReadAll(resp.Body)
	var out errorBody
	_ = json.Unmarshal(raw, &out)
	return resp.StatusCode, out
}

func TestErrorHandler(t *testing.T) {
	app := newApp()
	app.Get("/validation", func(c *fiber.Ctx) error { return Invalid("quantity", "must be greater than 0") })
	app.Get("/missing", func(c *fiber.Ctx) error { return fmt.Errorf("load: %w", store.ErrNotFound) })
	app.Get("/named", func(c *fiber.Ctx) error { return NotFound(store.ErrNotFound, "material") })
	app.Get("/fiber", func(c *fiber.Ctx) error { return fiber.NewError(fiber.StatusUnauthorized, "invalid token") })
	app.Get("/boom", func(c *fiber.Ctx) error { return errors.New("db exploded") })

	tests := []struct {
		path   string
		status int
		msg    string
	}{
		{"/validation", 400, "validation failed"},
		{"/missing", 404, "not found"},
		{"/named", 404, "material not found"},
		{"/fiber", 401, "invalid token"},
		{"/boom", 500, "internal server error"},
	}
	for _, tt := range tests {
		status, body := do(t, app, "GET", tt.path, "")
		if status != tt.status || body.Error != tt.msg {
			t.Errorf("%s: got %d %q, want %d %q", tt.path, status, body.Error, tt.status, tt.msg)
		}
	}

	_, body := do(t, app, "GET", "/validation", "")
	if len(body.Fields) != 1 || body.Fields[0].Field != "quantity" {
		t.Errorf("fields = %+v", body.Fields)
	}
}

func TestStatusCode(t *testing.T) {
	cases := map[error]int{
		nil:                          200,
		Invalid("a", "b"):            400,
		store.ErrNotFound:            404,
		fiber.ErrForbidden:           403,
		errors.New("something else"): 500,
	}
	for err, want := range cases {
		if got := StatusCode(err); got != want {
			t.Errorf("StatusCode(%v) = %d, want %d", err, got, want)
		}
	}
}

type sample struct {
	MaterialID uint    `json:"materialId" validate:"required"`
	Type       string  `json:"transactionType" validate:"required,oneof=added used"`
	Quantity   float64 `json:"quantity" validate:"required,gt=0"`
	Date       string  `json:"date" validate:"omitempty,datetime=2006-01-02"`
}

func TestBind(t *testing.T) {
	app := newApp()
	app.Post("/", func(c *fiber.Ctx) error {
		var s sample
		if err := Bind(c, &s); err != nil {
			return err
		}
		return c.SendStatus(fiber.StatusNoContent)
	})

	status, _ := do(t, app, "POST", "/", `{"materialId":1,"transactionType":"used","quantity":2.5,"date":"2025-01-31"}`)
	if status != 204 {
		t.Fatalf("valid body status = %d", status)
	}

	status, body := do(t, app, "POST", "/", `{"transactionType":"moved","quantity":-1,"date":"31/01/2025"}`)
	if status != 400 {
		t.Fatalf("invalid body status = %d", status)
	}
	got := map[string]bool{}
	for _, f := range body.Fields {
		got[f.Field] = true
	}
	for _, f := range []string{"materialId", "transactionType", "quantity", "date"} {
		if !got[f] {
			t.Errorf("missing field error for %s in %+v", f, body.Fields)
		}
	}

	status, body = do(t, app, "POST", "/", `{not json`)
	if status != 400 || body.Error != "invalid request body" {
		t.Fatalf("malformed body: %d %+v", status, body)
	}
}

func TestParseQuery(t *testing.T) {
	app := newApp()
	var got store.Query
	app.Get("/", func(c *fiber.Ctx) error {
		q, err := ParseQuery(c)
		if err != nil {
			return err
		}
		got = q
		return c.SendStatus(fiber.StatusNoContent)
	})

	status, _ := do(t, app, "GET", "/?siteId=3&materialId=9&from=2025-01-01&to=2025-01-31&limit=5", "")
	if status != 204 {
		t.Fatalf("status = %d", status)
	}
	if got.SiteID != 3 || got.MaterialID != 9 || got.Limit != 5 {
		t.Errorf("query = %+v", got)
	}
	if got.From == nil || got.From.Format(DateLayout) != "2025-01-01" || got.To == nil {
		t.Errorf("range = %v..%v", got.From, got.To)
	}

	status, body := do(t, app, "GET", "/?siteId=abc&from=yesterday", "")
	if status != 400 || len(body.Fields) != 2 {
		t.Fatalf("bad query: %d %+v", status, body)
	}
}

func TestParseID(t *testing.T) {
	app := newApp()
	app.Get("/:id", func(c *fiber.Ctx) error {
		if _, err := ParseID(c, "id"); err != nil {
			return err
		}
		return c.SendStatus(fiber.StatusNoContent)
	})
	for path, want := range map[string]int{"/12": 204, "/0": 400, "/x": 400} {
		if status, _ := do(t, app, "GET", path, ""); status != want {
			t.Errorf("%s: status %d, want %d", path, status, want)
		}
	}
}
