package workforce

import (
	"fmt"
	"strings"
	"time"

	"sitedesk-backend/internal/api"
	"sitedesk-backend/internal/audit"
	"sitedesk-backend/internal/models"
	"sitedesk-backend/internal/site"
	"sitedesk-backend/internal/store"

	"github.com/gofiber/fiber/v2"
)

type CreateWorkerRequest struct {
	SiteID    uint    `json:"siteId" validate:"required,gt=0"`
	Name      string  `json:"name" validate:"required,max=150"`
	Role      string  `json:"role" validate:"max=100"`
	Phone     string  `json:"phone" validate:"max=50"`
	DailyWage float64 `json:"dailyWage" validate:"gte=0"`
	JoinDate  string  `json:"joinDate" validate:"omitempty,datetime=2006-01-02"`
	IsActive  *bool   `json:"isActive"`
}

type UpdateWorkerRequest struct {
	SiteID    *uint    `json:"siteId" validate:"omitempty,gt=0"`
	Name      *string  `json:"name" validate:"omitempty,min=1,max=150"`
	Role      *string  `json:"role" validate:"omitempty,max=100"`
	Phone     *string  `json:"phone" validate:"omitempty,max=50"`
	DailyWage *float64 `json:"dailyWage" validate:"omitempty,gte=0"`
	JoinDate  *string  `json:"joinDate" validate:"omitempty,datetime=2006-01-02"`
	IsActive  *bool    `json:"isActive"`
}

// POST /api/workers
func CreateWorkerHandler(st *store.Store, aw *audit.Writer) fiber.Handler {
	return func(c *fiber.Ctx) error {
		var body CreateWorkerRequest
		if err := api.Bind(c, &body); err != nil {
			return err
		}
		if err := site.RequireSite(c, st, body.SiteID); err != nil {
			return err
		}

		w := models.Worker{
			SiteID:    body.SiteID,
			Name:      strings.TrimSpace(body.Name),
			Role:      strings.TrimSpace(body.Role),
			Phone:     strings.TrimSpace(body.Phone),
			DailyWage: body.DailyWage,
			IsActive:  true,
		}
		if w.Name == "" {
			return api.Invalid("name", "is required")
		}
		w.JoinDate, _ = api.ParseDate(body.JoinDate)
		if w.JoinDate.IsZero() {
			w.JoinDate = time.Now()
		}
		if body.IsActive != nil {
			w.IsActive = *body.IsActive
		}

		if err := st.Workers.Create(c.UserContext(), &w); err != nil {
			return fmt.Errorf("create worker: %w", err)
		}

		aw.Record(c, audit.LogOptions{
			SiteID:      audit.SiteRef(w.SiteID),
			EntityType:  "worker",
			EntityID:    w.ID,
			Action:      models.AuditActionCreate,
			Description: fmt.Sprintf("Worker added: %s (%s)", w.Name, w.Role),
			After:       w,
		})

		return c.Status(fiber.StatusCreated).JSON(w)
	}
}

// GET /api/workers?siteId=1&active=true
func ListWorkersHandler(st *store.Store) fiber.Handler {
	return func(c *fiber.Ctx) error {
		q, err := api.ParseQuery(c)
		if err != nil {
			return err
		}
		workers, err := st.Workers.List(c.UserContext(), q)
		if err != nil {
			return err
		}

		switch c.Query("active") {
		case "true", "false":
			want := c.Query("active") == "true"
			filtered := workers[:0]
			for _, w := range workers {
				if w.IsActive == want {
					filtered = append(filtered, w)
				}
			}
			workers = filtered
		}
		return c.JSON(workers)
	}
}

// GET /api/workers/:id
func GetWorkerHandler(st *store.Store) fiber.Handler {
	return func(c *fiber.Ctx) error {
		id, err := api.ParseID(c, "id")
		if err != nil {
			return err
		}
		w, err := st.Workers.Get(c.UserContext(), id)
		if err != nil {
			return api.NotFound(err, "worker")
		}
		return c.JSON(w)
	}
}

// PUT /api/workers/:id
func UpdateWorkerHandler(st *store.Store, aw *audit.Writer) fiber.Handler {
	return func(c *fiber.Ctx) error {
		id, err := api.ParseID(c, "id")
		if err != nil {
			return err
		}
		w, err := st.Workers.Get(c.UserContext(), id)
		if err != nil {
			return api.NotFound(err, "worker")
		}
		before := w

		var body UpdateWorkerRequest
		if err := api.Bind(c, &body); err != nil {
			return err
		}

		if body.SiteID != nil && *body.SiteID != w.SiteID {
			if err := site.RequireSite(c, st, *body.SiteID); err != nil {
				return err
			}
			w.SiteID = *body.SiteID
		}
		if body.Name != nil {
			name := strings.TrimSpace(*body.Name)
			if name == "" {
				return api.Invalid("name", "must not be empty")
			}
			w.Name = name
		}
		if body.Role != nil {
			w.Role = strings.TrimSpace(*body.Role)
		}
		if body.Phone != nil {
			w.Phone = strings.TrimSpace(*body.Phone)
		}
		if body.DailyWage != nil {
			w.DailyWage = *body.DailyWage
		}
		if body.JoinDate != nil {
			w.JoinDate, _ = api.ParseDate(*body.JoinDate)
		}
		if body.IsActive != nil {
			w.IsActive = *body.IsActive
		}

		if err := st.Workers.Update(c.UserContext(), &w); err != nil {
			return api.NotFound(err, "worker")
		}

		aw.Record(c, audit.LogOptions{
			SiteID:      audit.SiteRef(w.SiteID),
			EntityType:  "worker",
			EntityID:    w.ID,
			Action:      models.AuditActionUpdate,
			Description: fmt.Sprintf("Worker updated: %s", w.Name),
			Before:      before,
			After:       w,
		})

		return c.JSON(w)
	}
}

// DELETE /api/workers/:id
func DeleteWorkerHandler(st *store.Store, aw *audit.Writer) fiber.Handler {
	return func(c *fiber.Ctx) error {
		id, err := api.ParseID(c, "id")
		if err != nil {
			return err
		}
		w, err := st.Workers.Get(c.UserContext(), id)
		if err != nil {
			return api.NotFound(err, "worker")
		}
		if err := st.Workers.Delete(c.UserContext(), id); err != nil {
			return api.NotFound(err, "worker")
		}

		aw.Record(c, audit.LogOptions{
			SiteID:      audit.SiteRef(w.SiteID),
			EntityType:  "worker",
			EntityID:    w.ID,
			Action:      models.AuditActionDelete,
			Description: fmt.Sprintf("Worker removed: %s", w.Name),
			Before:      w,
		})

		return c.SendStatus(fiber.StatusNoContent)
	}
}
