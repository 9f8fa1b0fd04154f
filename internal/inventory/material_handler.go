package inventory

import (
	"fmt"
	"strings"
	"time"

	"sitedesk-backend/internal/api"
	"sitedesk-backend/internal/audit"
	"sitedesk-backend/internal/models"
	"sitedesk-backend/internal/site"
	"sitedesk-backend/internal/stock"
	"sitedesk-backend/internal/store"

	"github.com/gofiber/fiber/v2"
)

type MaterialResponse struct {
	models.Material
	StockStatus stock.Status `json:"stockStatus"`
}

func toResponse(m models.Material) MaterialResponse {
	return MaterialResponse{Material: m, StockStatus: stock.Classify(m.Quantity, m.MinStockLevel)}
}

func toResponses(ms []models.Material) []MaterialResponse {
	res := make([]MaterialResponse, 0, len(ms))
	for _, m := range ms {
		res = append(res, toResponse(m))
	}
	return res
}

type CreateMaterialRequest struct {
	SiteID        uint    `json:"siteId" validate:"required,gt=0"`
	Name          string  `json:"name" validate:"required,max=150"`
	Category      string  `json:"category" validate:"max=100"`
	Unit          string  `json:"unit" validate:"required,max=20"`
	Quantity      float64 `json:"quantity" validate:"gte=0"`
	MinStockLevel float64 `json:"minStockLevel" validate:"gte=0"`
}

type UpdateMaterialRequest struct {
	Name          *string  `json:"name" validate:"omitempty,min=1,max=150"`
	Category      *string  `json:"category" validate:"omitempty,max=100"`
	Unit          *string  `json:"unit" validate:"omitempty,min=1,max=20"`
	Quantity      *float64 `json:"quantity" validate:"omitempty,gte=0"`
	MinStockLevel *float64 `json:"minStockLevel" validate:"omitempty,gte=0"`
}

// POST /api/materials
func CreateMaterialHandler(st *store.Store, aw *audit.Writer) fiber.Handler {
	return func(c *fiber.Ctx) error {
		var body CreateMaterialRequest
		if err := api.Bind(c, &body); err != nil {
			return err
		}
		if err := site.RequireSite(c, st, body.SiteID); err != nil {
			return err
		}

		m := models.Material{
			SiteID:        body.SiteID,
			Name:          strings.TrimSpace(body.Name),
			Category:      strings.TrimSpace(body.Category),
			Unit:          strings.TrimSpace(body.Unit),
			Quantity:      stock.Normalize(body.Quantity),
			MinStockLevel: stock.Normalize(body.MinStockLevel),
			LastUpdated:   time.Now(),
		}
		if m.Name == "" {
			return api.Invalid("name", "is required")
		}
		if m.Unit == "" {
			return api.Invalid("unit", "is required")
		}

		if err := st.Materials.Create(c.UserContext(), &m); err != nil {
			return fmt.Errorf("create material: %w", err)
		}

		aw.Record(c, audit.LogOptions{
			SiteID:      audit.SiteRef(m.SiteID),
			EntityType:  "material",
			EntityID:    m.ID,
			Action:      models.AuditActionCreate,
			Description: fmt.Sprintf("Material created: %s - %.2f %s", m.Name, m.Quantity, m.Unit),
			After:       m,
		})

		return c.Status(fiber.StatusCreated).JSON(toResponse(m))
	}
}

// GET /api/materials?siteId=1&status=low
func ListMaterialsHandler(st *store.Store) fiber.Handler {
	return func(c *fiber.Ctx) error {
		q, err := api.ParseQuery(c)
		if err != nil {
			return err
		}
		materials, err := st.Materials.List(c.UserContext(), q)
		if err != nil {
			return err
		}

		res := toResponses(materials)
		if status := c.Query("status"); status != "" {
			filtered := res[:0]
			for _, r := range res {
				if string(r.StockStatus) == status {
					filtered = append(filtered, r)
				}
			}
			res = filtered
		}
		return c.JSON(res)
	}
}

// GET /api/sites/:id/materials
func ListSiteMaterialsHandler(st *store.Store) fiber.Handler {
	return func(c *fiber.Ctx) error {
		siteID, err := api.ParseID(c, "id")
		if err != nil {
			return err
		}
		if _, err := st.Sites.Get(c.UserContext(), siteID); err != nil {
			return api.NotFound(err, "site")
		}
		materials, err := st.Materials.List(c.UserContext(), store.Query{SiteID: siteID})
		if err != nil {
			return err
		}
		return c.JSON(toResponses(materials))
	}
}

// GET /api/sites/:id/materials/low-stock
//
// Materials whose quantity is below their minimum, critical ones first.
func LowStockHandler(st *store.Store) fiber.Handler {
	return func(c *fiber.Ctx) error {
		siteID, err := api.ParseID(c, "id")
		if err != nil {
			return err
		}
		if _, err := st.Sites.Get(c.UserContext(), siteID); err != nil {
			return api.NotFound(err, "site")
		}

		materials, err := st.Materials.List(c.UserContext(), store.Query{SiteID: siteID})
		if err != nil {
			return err
		}
		return c.JSON(LowStock(materials))
	}
}

// LowStock keeps materials below their minimum, critical before low and by
// ascending fill ratio within a bucket.
func LowStock(materials []models.Material) []MaterialResponse {
	var critical, low []MaterialResponse
	for _, m := range materials {
		if !stock.IsLow(m) {
			continue
		}
		r := toResponse(m)
		if r.StockStatus == stock.StatusCritical {
			critical = append(critical, r)
		} else {
			low = append(low, r)
		}
	}
	byRatio(critical)
	byRatio(low)
	return append(append(make([]MaterialResponse, 0, len(critical)+len(low)), critical...), low...)
}

// GET /api/materials/:id
func GetMaterialHandler(st *store.Store) fiber.Handler {
	return func(c *fiber.Ctx) error {
		id, err := api.ParseID(c, "id")
		if err != nil {
			return err
		}
		m, err := st.Materials.Get(c.UserContext(), id)
		if err != nil {
			return api.NotFound(err, "material")
		}
		return c.JSON(toResponse(m))
	}
}

// PUT /api/materials/:id
//
// Name, category, unit and minimum are written without touching the stock
// count, so ledger transactions landing meanwhile are kept. A quantity in the
// body is a physical recount and replaces the count outright; day to day
// movement goes through POST /api/transactions.
func UpdateMaterialHandler(st *store.Store, aw *audit.Writer) fiber.Handler {
	return func(c *fiber.Ctx) error {
		id, err := api.ParseID(c, "id")
		if err != nil {
			return err
		}

		m, err := st.Materials.Get(c.UserContext(), id)
		if err != nil {
			return api.NotFound(err, "material")
		}
		before := m

		var body UpdateMaterialRequest
		if err := api.Bind(c, &body); err != nil {
			return err
		}

		if body.Name != nil {
			name := strings.TrimSpace(*body.Name)
			if name == "" {
				return api.Invalid("name", "must not be empty")
			}
			m.Name = name
		}
		if body.Category != nil {
			m.Category = strings.TrimSpace(*body.Category)
		}
		if body.Unit != nil {
			unit := strings.TrimSpace(*body.Unit)
			if unit == "" {
				return api.Invalid("unit", "must not be empty")
			}
			m.Unit = unit
		}
		if body.MinStockLevel != nil {
			m.MinStockLevel = stock.Normalize(*body.MinStockLevel)
		}
		now := time.Now()
		m.LastUpdated = now

		if err := st.Materials.Update(c.UserContext(), &m); err != nil {
			return api.NotFound(err, "material")
		}
		if body.Quantity != nil {
			if m, err = st.Materials.SetQuantity(c.UserContext(), id, stock.Normalize(*body.Quantity), now); err != nil {
				return api.NotFound(err, "material")
			}
		}

		desc := fmt.Sprintf("Material updated: %s", m.Name)
		if body.Quantity != nil {
			desc = fmt.Sprintf("Material recounted: %s - %.2f %s", m.Name, m.Quantity, m.Unit)
		}
		aw.Record(c, audit.LogOptions{
			SiteID:      audit.SiteRef(m.SiteID),
			EntityType:  "material",
			EntityID:    m.ID,
			Action:      models.AuditActionUpdate,
			Description: desc,
			Before:      before,
			After:       m,
		})

		return c.JSON(toResponse(m))
	}
}

// DELETE /api/materials/:id
//
// The material's transactions stay in the ledger untouched.
func DeleteMaterialHandler(st *store.Store, aw *audit.Writer) fiber.Handler {
	return func(c *fiber.Ctx) error {
		id, err := api.ParseID(c, "id")
		if err != nil {
			return err
		}

		m, err := st.Materials.Get(c.UserContext(), id)
		if err != nil {
			return api.NotFound(err, "material")
		}
		if err := st.Materials.Delete(c.UserContext(), id); err != nil {
			return api.NotFound(err, "material")
		}

		aw.Record(c, audit.LogOptions{
			SiteID:      audit.SiteRef(m.SiteID),
			EntityType:  "material",
			EntityID:    m.ID,
			Action:      models.AuditActionDelete,
			Description: fmt.Sprintf("Material deleted: %s - %.2f %s", m.Name, m.Quantity, m.Unit),
			Before:      m,
		})

		return c.SendStatus(fiber.StatusNoContent)
	}
}
