package expense

import (
	"fmt"
	"strings"
	"time"

	"sitedesk-backend/internal/api"
	"sitedesk-backend/internal/audit"
	"sitedesk-backend/internal/auth"
	"sitedesk-backend/internal/models"
	"sitedesk-backend/internal/site"
	"sitedesk-backend/internal/store"

	"github.com/gofiber/fiber/v2"
)

type CreateExpenseRequest struct {
	SiteID        uint    `json:"siteId" validate:"required,gt=0"`
	Date          string  `json:"date" validate:"required,datetime=2006-01-02"`
	Category      string  `json:"category" validate:"required,max=100"`
	Amount        float64 `json:"amount" validate:"required,gt=0"`
	Description   string  `json:"description" validate:"max=500"`
	PaymentMethod string  `json:"paymentMethod" validate:"max=50"`
	RecordedBy    string  `json:"recordedBy" validate:"max=100"`
}

type UpdateExpenseRequest struct {
	Date          *string  `json:"date" validate:"omitempty,datetime=2006-01-02"`
	Category      *string  `json:"category" validate:"omitempty,min=1,max=100"`
	Amount        *float64 `json:"amount" validate:"omitempty,gt=0"`
	Description   *string  `json:"description" validate:"omitempty,max=500"`
	PaymentMethod *string  `json:"paymentMethod" validate:"omitempty,max=50"`
}

// POST /api/expenses
func CreateExpenseHandler(st *store.Store, aw *audit.Writer) fiber.Handler {
	return func(c *fiber.Ctx) error {
		var body CreateExpenseRequest
		if err := api.Bind(c, &body); err != nil {
			return err
		}
		if err := site.RequireSite(c, st, body.SiteID); err != nil {
			return err
		}

		d, _ := api.ParseDate(body.Date)
		e := models.Expense{
			SiteID:        body.SiteID,
			Date:          d,
			Category:      strings.TrimSpace(strings.ToLower(body.Category)),
			Amount:        body.Amount,
			Description:   strings.TrimSpace(body.Description),
			PaymentMethod: strings.TrimSpace(body.PaymentMethod),
			RecordedBy:    body.RecordedBy,
		}
		if e.Category == "" {
			return api.Invalid("category", "is required")
		}
		if e.RecordedBy == "" {
			_, e.RecordedBy = auth.CurrentUser(c)
		}

		if err := st.Expenses.Create(c.UserContext(), &e); err != nil {
			return fmt.Errorf("create expense: %w", err)
		}

		aw.Record(c, audit.LogOptions{
			SiteID:      audit.SiteRef(e.SiteID),
			EntityType:  "expense",
			EntityID:    e.ID,
			Action:      models.AuditActionCreate,
			Description: fmt.Sprintf("Expense: %s - %.2f (%s)", e.Category, e.Amount, e.Description),
			After:       e,
		})

		return c.Status(fiber.StatusCreated).JSON(e)
	}
}

// GET /api/expenses?siteId=&from=&to=&category=
func ListExpensesHandler(st *store.Store) fiber.Handler {
	return func(c *fiber.Ctx) error {
		q, err := api.ParseQuery(c)
		if err != nil {
			return err
		}
		expenses, err := st.Expenses.List(c.UserContext(), q)
		if err != nil {
			return err
		}
		if cat := strings.ToLower(c.Query("category")); cat != "" {
			filtered := expenses[:0]
			for _, e := range expenses {
				if e.Category == cat {
					filtered = append(filtered, e)
				}
			}
			expenses = filtered
		}
		return c.JSON(expenses)
	}
}

// GET /api/expenses/:id
func GetExpenseHandler(st *store.Store) fiber.Handler {
	return func(c *fiber.Ctx) error {
		id, err := api.ParseID(c, "id")
		if err != nil {
			return err
		}
		e, err := st.Expenses.Get(c.UserContext(), id)
		if err != nil {
			return api.NotFound(err, "expense")
		}
		return c.JSON(e)
	}
}

// PUT /api/expenses/:id
func UpdateExpenseHandler(st *store.Store, aw *audit.Writer) fiber.Handler {
	return func(c *fiber.Ctx) error {
		id, err := api.ParseID(c, "id")
		if err != nil {
			return err
		}
		e, err := st.Expenses.Get(c.UserContext(), id)
		if err != nil {
			return api.NotFound(err, "expense")
		}
		before := e

		var body UpdateExpenseRequest
		if err := api.Bind(c, &body); err != nil {
			return err
		}
		if body.Date != nil {
			e.Date, _ = api.ParseDate(*body.Date)
		}
		if body.Category != nil {
			cat := strings.TrimSpace(strings.ToLower(*body.Category))
			if cat == "" {
				return api.Invalid("category", "must not be empty")
			}
			e.Category = cat
		}
		if body.Amount != nil {
			e.Amount = *body.Amount
		}
		if body.Description != nil {
			e.Description = strings.TrimSpace(*body.Description)
		}
		if body.PaymentMethod != nil {
			e.PaymentMethod = strings.TrimSpace(*body.PaymentMethod)
		}

		if err := st.Expenses.Update(c.UserContext(), &e); err != nil {
			return api.NotFound(err, "expense")
		}

		aw.Record(c, audit.LogOptions{
			SiteID:      audit.SiteRef(e.SiteID),
			EntityType:  "expense",
			EntityID:    e.ID,
			Action:      models.AuditActionUpdate,
			Description: fmt.Sprintf("Expense updated: %.2f -> %.2f", before.Amount, e.Amount),
			Before:      before,
			After:       e,
		})

		return c.JSON(e)
	}
}

// DELETE /api/expenses/:id
func DeleteExpenseHandler(st *store.Store, aw *audit.Writer) fiber.Handler {
	return func(c *fiber.Ctx) error {
		id, err := api.ParseID(c, "id")
		if err != nil {
			return err
		}
		e, err := st.Expenses.Get(c.UserContext(), id)
		if err != nil {
			return api.NotFound(err, "expense")
		}
		if err := st.Expenses.Delete(c.UserContext(), id); err != nil {
			return api.NotFound(err, "expense")
		}

		aw.Record(c, audit.LogOptions{
			SiteID:      audit.SiteRef(e.SiteID),
			EntityType:  "expense",
			EntityID:    e.ID,
			Action:      models.AuditActionDelete,
			Description: fmt.Sprintf("Expense deleted: %s - %.2f", e.Category, e.Amount),
			Before:      e,
		})

		return c.SendStatus(fiber.StatusNoContent)
	}
}

// GET /api/expenses/summary/monthly?siteId=1&year=2025&month=12
func MonthlyExpenseSummaryHandler(st *store.Store) fiber.Handler {
	return func(c *fiber.Ctx) error {
		q, err := api.ParseQuery(c)
		if err != nil {
			return err
		}
		if q.SiteID == 0 {
			return api.Invalid("siteId", "is required")
		}

		year := c.QueryInt("year", 0)
		month := c.QueryInt("month", 0)
		if year < 2000 {
			return api.Invalid("year", "must be 2000 or later")
		}
		if month < 1 || month > 12 {
			return api.Invalid("month", "must be between 1 and 12")
		}

		firstDay := time.Date(year, time.Month(month), 1, 0, 0, 0, 0, time.UTC)
		lastDay := firstDay.AddDate(0, 1, -1)
		q.From, q.To = &firstDay, &lastDay

		expenses, err := st.Expenses.List(c.UserContext(), q)
		if err != nil {
			return err
		}

		return c.JSON(MonthlySummary{
			SiteID:  q.SiteID,
			Year:    year,
			Month:   month,
			Summary: Summarize(expenses),
		})
	}
}
