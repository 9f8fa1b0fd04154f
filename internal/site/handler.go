package site

import (
	"fmt"
	"strings"
	"time"

	"sitedesk-backend/internal/api"
	"sitedesk-backend/internal/audit"
	"sitedesk-backend/internal/models"
	"sitedesk-backend/internal/store"

	"github.com/gofiber/fiber/v2"
)

type CreateSiteRequest struct {
	Name        string   `json:"name" validate:"required,max=150"`
	Location    string   `json:"location" validate:"max=255"`
	Description string   `json:"description" validate:"max=1000"`
	StartDate   string   `json:"startDate" validate:"omitempty,datetime=2006-01-02"`
	EndDate     *string  `json:"endDate" validate:"omitempty,datetime=2006-01-02"`
	Status      string   `json:"status" validate:"omitempty,oneof=active on_hold completed"`
	Budget      *float64 `json:"budget" validate:"omitempty,gte=0"`
}

type UpdateSiteRequest struct {
	Name        *string  `json:"name" validate:"omitempty,min=1,max=150"`
	Location    *string  `json:"location" validate:"omitempty,max=255"`
	Description *string  `json:"description" validate:"omitempty,max=1000"`
	StartDate   *string  `json:"startDate" validate:"omitempty,datetime=2006-01-02"`
	EndDate     *string  `json:"endDate" validate:"omitempty,datetime=2006-01-02"`
	Status      *string  `json:"status" validate:"omitempty,oneof=active on_hold completed"`
	Budget      *float64 `json:"budget" validate:"omitempty,gte=0"`
}

func parseEndDate(raw *string) *time.Time {
	if raw == nil || *raw == "" {
		return nil
	}
	d, _ := time.Parse(api.DateLayout, *raw)
	return &d
}

// POST /api/sites
func CreateSiteHandler(st *store.Store, aw *audit.Writer) fiber.Handler {
	return func(c *fiber.Ctx) error {
		var body CreateSiteRequest
		if err := api.Bind(c, &body); err != nil {
			return err
		}

		s := models.Site{
			Name:        strings.TrimSpace(body.Name),
			Location:    strings.TrimSpace(body.Location),
			Description: body.Description,
			EndDate:     parseEndDate(body.EndDate),
			Status:      models.SiteActive,
		}
		if s.Name == "" {
			return api.Invalid("name", "is required")
		}
		s.StartDate, _ = api.ParseDate(body.StartDate)
		if s.StartDate.IsZero() {
			s.StartDate = time.Now()
		}
		if body.Status != "" {
			s.Status = models.SiteStatus(body.Status)
		}
		if body.Budget != nil {
			s.Budget = *body.Budget
		}
		if s.EndDate != nil && s.EndDate.Before(s.StartDate) {
			return api.Invalid("endDate", "must not be before startDate")
		}

		if err := st.Sites.Create(c.UserContext(), &s); err != nil {
			return fmt.Errorf("create site: %w", err)
		}

		aw.Record(c, audit.LogOptions{
			SiteID:      audit.SiteRef(s.ID),
			EntityType:  "site",
			EntityID:    s.ID,
			Action:      models.AuditActionCreate,
			Description: fmt.Sprintf("Site created: %s", s.Name),
			After:       s,
		})

		return c.Status(fiber.StatusCreated).JSON(s)
	}
}

// GET /api/sites
func ListSitesHandler(st *store.Store) fiber.Handler {
	return func(c *fiber.Ctx) error {
		sites, err := st.Sites.List(c.UserContext(), store.Query{})
		if err != nil {
			return err
		}

		if status := c.Query("status"); status != "" {
			filtered := sites[:0]
			for _, s := range sites {
				if string(s.Status) == status {
					filtered = append(filtered, s)
				}
			}
			sites = filtered
		}
		return c.JSON(sites)
	}
}

// GET /api/sites/:id
func GetSiteHandler(st *store.Store) fiber.Handler {
	return func(c *fiber.Ctx) error {
		id, err := api.ParseID(c, "id")
		if err != nil {
			return err
		}
		s, err := st.Sites.Get(c.UserContext(), id)
		if err != nil {
			return api.NotFound(err, "site")
		}
		return c.JSON(s)
	}
}

// PUT /api/sites/:id
func UpdateSiteHandler(st *store.Store, aw *audit.Writer) fiber.Handler {
	return func(c *fiber.Ctx) error {
		id, err := api.ParseID(c, "id")
		if err != nil {
			return err
		}

		s, err := st.Sites.Get(c.UserContext(), id)
		if err != nil {
			return api.NotFound(err, "site")
		}
		before := s

		var body UpdateSiteRequest
		if err := api.Bind(c, &body); err != nil {
			return err
		}

		if body.Name != nil {
			name := strings.TrimSpace(*body.Name)
			if name == "" {
				return api.Invalid("name", "must not be empty")
			}
			s.Name = name
		}
		if body.Location != nil {
			s.Location = strings.TrimSpace(*body.Location)
		}
		if body.Description != nil {
			s.Description = *body.Description
		}
		if body.StartDate != nil {
			s.StartDate, _ = api.ParseDate(*body.StartDate)
		}
		if body.EndDate != nil {
			s.EndDate = parseEndDate(body.EndDate)
		}
		if body.Status != nil {
			s.Status = models.SiteStatus(*body.Status)
		}
		if body.Budget != nil {
			s.Budget = *body.Budget
		}
		if s.EndDate != nil && s.EndDate.Before(s.StartDate) {
			return api.Invalid("endDate", "must not be before startDate")
		}

		if err := st.Sites.Update(c.UserContext(), &s); err != nil {
			return api.NotFound(err, "site")
		}

		aw.Record(c, audit.LogOptions{
			SiteID:      audit.SiteRef(s.ID),
			EntityType:  "site",
			EntityID:    s.ID,
			Action:      models.AuditActionUpdate,
			Description: fmt.Sprintf("Site updated: %s", s.Name),
			Before:      before,
			After:       s,
		})

		return c.JSON(s)
	}
}

// DELETE /api/sites/:id
//
// Materials, workers and the rest of the site's rows are kept; nothing
// cascades.
func DeleteSiteHandler(st *store.Store, aw *audit.Writer) fiber.Handler {
	return func(c *fiber.Ctx) error {
		id, err := api.ParseID(c, "id")
		if err != nil {
			return err
		}

		s, err := st.Sites.Get(c.UserContext(), id)
		if err != nil {
			return api.NotFound(err, "site")
		}
		if err := st.Sites.Delete(c.UserContext(), id); err != nil {
			return api.NotFound(err, "site")
		}

		aw.Record(c, audit.LogOptions{
			SiteID:      audit.SiteRef(s.ID),
			EntityType:  "site",
			EntityID:    s.ID,
			Action:      models.AuditActionDelete,
			Description: fmt.Sprintf("Site deleted: %s", s.Name),
			Before:      s,
		})

		return c.SendStatus(fiber.StatusNoContent)
	}
}

// RequireSite checks that a referenced site exists. A missing site is a
// client error on the referencing request, not a 404.
func RequireSite(c *fiber.Ctx, st *store.Store, siteID uint) error {
	if _, err := st.Sites.Get(c.UserContext(), siteID); err != nil {
		if api.StatusCode(err) == fiber.StatusNotFound {
			return api.Invalid("siteId", fmt.Sprintf("site %d does not exist", siteID))
		}
		return err
	}
	return nil
}
