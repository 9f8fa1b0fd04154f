package report

import (
	"fmt"
	"time"

	"sitedesk-backend/internal/api"
	"sitedesk-backend/internal/store"

	"github.com/gofiber/fiber/v2"
)

const xlsxContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

// GET /api/sites/:id/report?from=2025-01-01&to=2025-01-31
func SiteReportHandler(st *store.Store) fiber.Handler {
	return func(c *fiber.Ctx) error {
		id, err := api.ParseID(c, "id")
		if err != nil {
			return err
		}
		q, err := api.ParseQuery(c)
		if err != nil {
			return err
		}

		now := time.Now()
		f, err := Build(c.UserContext(), st, id, q, now)
		if err != nil {
			return api.NotFound(err, "site")
		}
		defer f.Close()

		buf, err := f.WriteToBuffer()
		if err != nil {
			return fmt.Errorf("write workbook: %w", err)
		}

		c.Set(fiber.HeaderContentType, xlsxContentType)
		c.Set(fiber.HeaderContentDisposition,
			fmt.Sprintf(`attachment; filename="site-%d-%s.xlsx"`, id, now.Format("20060102")))
		return c.Send(buf.Bytes())
	}
}
