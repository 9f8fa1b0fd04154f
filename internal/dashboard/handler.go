package dashboard

import (
	"strconv"
	"time"

	"sitedesk-backend/internal/api"
	"sitedesk-backend/internal/store"

	"github.com/gofiber/fiber/v2"
)

// day reads ?date=YYYY-MM-DD, defaulting to the current day.
func day(c *fiber.Ctx) (time.Time, error) {
	d, err := api.ParseDate(c.Query("date"))
	if err != nil {
		return time.Time{}, api.Invalid("date", "must be a YYYY-MM-DD date")
	}
	if d.IsZero() {
		d = time.Now()
	}
	return d, nil
}

// GET /api/sites/:id/dashboard?date=2025-01-31
func SiteDashboardHandler(st *store.Store) fiber.Handler {
	return func(c *fiber.Ctx) error {
		id, err := api.ParseID(c, "id")
		if err != nil {
			return err
		}
		today, err := day(c)
		if err != nil {
			return err
		}
		sum, err := BuildSite(c.UserContext(), st, id, today)
		if err != nil {
			return api.NotFound(err, "site")
		}
		return c.JSON(sum)
	}
}

// GET /api/dashboard
func OverviewHandler(st *store.Store) fiber.Handler {
	return func(c *fiber.Ctx) error {
		today, err := day(c)
		if err != nil {
			return err
		}
		ov, err := BuildOverview(c.UserContext(), st, today)
		if err != nil {
			return err
		}
		return c.JSON(ov)
	}
}

// GET /api/sites/:id/trend?period=weekly&count=8
func SiteTrendHandler(st *store.Store) fiber.Handler {
	return func(c *fiber.Ctx) error {
		id, err := api.ParseID(c, "id")
		if err != nil {
			return err
		}
		p := Period(c.Query("period", string(Daily)))
		if !p.Valid() {
			return api.Invalid("period", "must be one of: daily, weekly, monthly")
		}
		count := p.DefaultCount()
		if raw := c.Query("count"); raw != "" {
			n, err := strconv.Atoi(raw)
			if err != nil || n <= 0 || n > 366 {
				return api.Invalid("count", "must be between 1 and 366")
			}
			count = n
		}
		today, err := day(c)
		if err != nil {
			return err
		}

		tr, err := BuildTrend(c.UserContext(), st, id, p, count, today)
		if err != nil {
			return api.NotFound(err, "site")
		}
		return c.JSON(tr)
	}
}
