package audit

import (
	"sitedesk-backend/internal/api"
	"sitedesk-backend/internal/store"

	"github.com/gofiber/fiber/v2"
)

const defaultListLimit = 200

// GET /api/audit-logs?siteId=1&entityType=material&limit=50
func ListAuditLogsHandler(repo store.AuditRepository) fiber.Handler {
	return func(c *fiber.Ctx) error {
		q, err := api.ParseQuery(c)
		if err != nil {
			return err
		}
		if q.Limit == 0 {
			q.Limit = defaultListLimit
		}

		logs, err := repo.List(c.UserContext(), q, c.Query("entityType"))
		if err != nil {
			return err
		}
		return c.JSON(logs)
	}
}
