package inventory

import (
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"sitedesk-backend/internal/api"
	"sitedesk-backend/internal/audit"
	"sitedesk-backend/internal/models"
	"sitedesk-backend/internal/site"
	"sitedesk-backend/internal/stock"
	"sitedesk-backend/internal/store"

	"github.com/gofiber/fiber/v2"
	"github.com/xuri/excelize/v2"
)

// ImportRow is one parsed spreadsheet line: Name | Category | Unit | Quantity | Min stock.
type ImportRow struct {
	Line          int
	Name          string
	Category      string
	Unit          string
	Quantity      float64
	MinStockLevel float64
}

type SkippedRow struct {
	Line   int    `json:"line"`
	Reason string `json:"reason"`
}

type ImportResult struct {
	Created []MaterialResponse `json:"created"`
	Updated []MaterialResponse `json:"updated"`
	Skipped []SkippedRow       `json:"skipped"`
}

func isHeader(row []string) bool {
	if len(row) == 0 {
		return false
	}
	first := strings.ToLower(strings.TrimSpace(row[0]))
	return first == "name" || strings.Contains(first, "material")
}

func number(cell string) (float64, error) {
	cell = strings.TrimSpace(strings.ReplaceAll(cell, ",", "."))
	if cell == "" {
		return 0, nil
	}
	v, err := strconv.ParseFloat(cell, 64)
	if err != nil || v < 0 {
		return 0, fmt.Errorf("%q is not a non-negative number", cell)
	}
	return v, nil
}

// ParseMaterialSheet reads the first sheet of an xlsx workbook. A header row
// is skipped when its first cell says "name" or "material".
func ParseMaterialSheet(r io.Reader) ([]ImportRow, []SkippedRow, error) {
	f, err := excelize.OpenReader(r)
	if err != nil {
		return nil, nil, fmt.Errorf("open workbook: %w", err)
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return nil, nil, fmt.Errorf("workbook has no sheets")
	}
	rows, err := f.GetRows(sheets[0])
	if err != nil {
		return nil, nil, fmt.Errorf("read sheet %s: %w", sheets[0], err)
	}

	var out []ImportRow
	var skipped []SkippedRow
	for i, row := range rows {
		line := i + 1
		if i == 0 && isHeader(row) {
			continue
		}
		cell := func(n int) string {
			if n < len(row) {
				return strings.TrimSpace(row[n])
			}
			return ""
		}
		if cell(0) == "" {
			continue
		}

		r := ImportRow{Line: line, Name: cell(0), Category: cell(1), Unit: cell(2)}
		if r.Unit == "" {
			skipped = append(skipped, SkippedRow{Line: line, Reason: "unit is required"})
			continue
		}
		if r.Quantity, err = number(cell(3)); err != nil {
			skipped = append(skipped, SkippedRow{Line: line, Reason: "quantity: " + err.Error()})
			continue
		}
		if r.MinStockLevel, err = number(cell(4)); err != nil {
			skipped = append(skipped, SkippedRow{Line: line, Reason: "min stock: " + err.Error()})
			continue
		}
		r.Quantity, r.MinStockLevel = stock.Normalize(r.Quantity), stock.Normalize(r.MinStockLevel)
		out = append(out, r)
	}
	return out, skipped, nil
}

// POST /api/sites/:id/materials/import (multipart: file)
//
// Rows matching an existing material by name (case-insensitive) update its
// category, unit and minimum; quantities of existing materials only change
// through transactions. Other rows create new materials.
func ImportMaterialsHandler(st *store.Store, aw *audit.Writer) fiber.Handler {
	return func(c *fiber.Ctx) error {
		siteID, err := api.ParseID(c, "id")
		if err != nil {
			return err
		}
		if err := site.RequireSite(c, st, siteID); err != nil {
			return err
		}

		fh, err := c.FormFile("file")
		if err != nil {
			return api.Invalid("file", "is required")
		}
		if !strings.HasSuffix(strings.ToLower(fh.Filename), ".xlsx") {
			return api.Invalid("file", "must be an .xlsx workbook")
		}
		file, err := fh.Open()
		if err != nil {
			return fmt.Errorf("open upload: %w", err)
		}
		defer file.Close()

		rows, skipped, err := ParseMaterialSheet(file)
		if err != nil {
			return api.Invalid("file", err.Error())
		}

		ctx := c.UserContext()
		existing, err := st.Materials.List(ctx, store.Query{SiteID: siteID})
		if err != nil {
			return err
		}
		byName := make(map[string]models.Material, len(existing))
		for _, m := range existing {
			byName[strings.ToLower(m.Name)] = m
		}

		res := ImportResult{
			Created: make([]MaterialResponse, 0),
			Updated: make([]MaterialResponse, 0),
			Skipped: skipped,
		}
		if res.Skipped == nil {
			res.Skipped = make([]SkippedRow, 0)
		}
		now := time.Now()
		for _, r := range rows {
			key := strings.ToLower(r.Name)
			if m, ok := byName[key]; ok {
				before := m
				// metadata only; Update leaves the stock count to the ledger
				m.Category, m.Unit, m.MinStockLevel = r.Category, r.Unit, r.MinStockLevel
				m.LastUpdated = now
				if err := st.Materials.Update(ctx, &m); err != nil {
					res.Skipped = append(res.Skipped, SkippedRow{Line: r.Line, Reason: err.Error()})
					continue
				}
				byName[key] = m
				res.Updated = append(res.Updated, toResponse(m))
				aw.Record(c, audit.LogOptions{
					SiteID: audit.SiteRef(siteID), EntityType: "material", EntityID: m.ID,
					Action:      models.AuditActionUpdate,
					Description: fmt.Sprintf("Material updated by import: %s", m.Name),
					Before:      before, After: m,
				})
				continue
			}

			m := models.Material{
				SiteID:        siteID,
				Name:          r.Name,
				Category:      r.Category,
				Unit:          r.Unit,
				Quantity:      r.Quantity,
				MinStockLevel: r.MinStockLevel,
				LastUpdated:   now,
			}
			if err := st.Materials.Create(ctx, &m); err != nil {
				res.Skipped = append(res.Skipped, SkippedRow{Line: r.Line, Reason: err.Error()})
				continue
			}
			byName[key] = m
			res.Created = append(res.Created, toResponse(m))
			aw.Record(c, audit.LogOptions{
				SiteID: audit.SiteRef(siteID), EntityType: "material", EntityID: m.ID,
				Action:      models.AuditActionCreate,
				Description: fmt.Sprintf("Material imported: %s - %.2f %s", m.Name, m.Quantity, m.Unit),
				After:       m,
			})
		}
		return c.JSON(res)
	}
}
