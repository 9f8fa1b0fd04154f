package workforce

import (
	"context"
	"errors"
	"fmt"
	"time"

	"sitedesk-backend/internal/api"
	"sitedesk-backend/internal/audit"
	"sitedesk-backend/internal/models"
	"sitedesk-backend/internal/store"

	"github.com/gofiber/fiber/v2"
)

type CreateAttendanceRequest struct {
	WorkerID uint   `json:"workerId" validate:"required,gt=0"`
	SiteID   uint   `json:"siteId"`
	Date     string `json:"date" validate:"required,datetime=2006-01-02"`
	Status   string `json:"status" validate:"required,oneof=present absent half_day"`
	CheckIn  string `json:"checkIn" validate:"omitempty,datetime=15:04"`
	CheckOut string `json:"checkOut" validate:"omitempty,datetime=15:04"`
	Notes    string `json:"notes" validate:"max=500"`
}

type UpdateAttendanceRequest struct {
	Status   *string `json:"status" validate:"omitempty,oneof=present absent half_day"`
	CheckIn  *string `json:"checkIn" validate:"omitempty,datetime=15:04"`
	CheckOut *string `json:"checkOut" validate:"omitempty,datetime=15:04"`
	Notes    *string `json:"notes" validate:"omitempty,max=500"`
}

// recordedFor finds an existing row for the worker on the given day.
func recordedFor(ctx context.Context, st *store.Store, workerID uint, day time.Time) (*models.Attendance, error) {
	rows, err := st.Attendance.List(ctx, store.Query{WorkerID: workerID, From: &day, To: &day})
	if err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return nil, nil
	}
	return &rows[0], nil
}

// POST /api/attendance
//
// One row per worker and day; a second POST for the same day is rejected.
func CreateAttendanceHandler(st *store.Store, aw *audit.Writer) fiber.Handler {
	return func(c *fiber.Ctx) error {
		var body CreateAttendanceRequest
		if err := api.Bind(c, &body); err != nil {
			return err
		}

		worker, err := st.Workers.Get(c.UserContext(), body.WorkerID)
		if err != nil {
			if api.StatusCode(err) == fiber.StatusNotFound {
				return api.Invalid("workerId", fmt.Sprintf("worker %d does not exist", body.WorkerID))
			}
			return err
		}

		day, _ := api.ParseDate(body.Date)
		existing, err := recordedFor(c.UserContext(), st, worker.ID, day)
		if err != nil {
			return err
		}
		if existing != nil {
			return api.Invalid("date", fmt.Sprintf("attendance already recorded for worker %d on %s (id %d)", worker.ID, body.Date, existing.ID))
		}

		a := models.Attendance{
			WorkerID: worker.ID,
			SiteID:   body.SiteID,
			Date:     day,
			Status:   models.AttendanceStatus(body.Status),
			CheckIn:  body.CheckIn,
			CheckOut: body.CheckOut,
			Notes:    body.Notes,
		}
		if a.SiteID == 0 {
			a.SiteID = worker.SiteID
		}

		// the lookup above can race another request; the store has the last word
		if err := st.Attendance.Create(c.UserContext(), &a); err != nil {
			if errors.Is(err, store.ErrDuplicate) {
				return api.Invalid("date", fmt.Sprintf("attendance already recorded for worker %d on %s", worker.ID, body.Date))
			}
			return fmt.Errorf("create attendance: %w", err)
		}

		aw.Record(c, audit.LogOptions{
			SiteID:      audit.SiteRef(a.SiteID),
			EntityType:  "attendance",
			EntityID:    a.ID,
			Action:      models.AuditActionCreate,
			Description: fmt.Sprintf("Attendance: %s %s on %s", worker.Name, a.Status, body.Date),
			After:       a,
		})

		return c.Status(fiber.StatusCreated).JSON(a)
	}
}

// GET /api/attendance?siteId=&workerId=&from=&to=
func ListAttendanceHandler(st *store.Store) fiber.Handler {
	return func(c *fiber.Ctx) error {
		q, err := api.ParseQuery(c)
		if err != nil {
			return err
		}
		rows, err := st.Attendance.List(c.UserContext(), q)
		if err != nil {
			return err
		}
		return c.JSON(rows)
	}
}

// GET /api/attendance/:id
func GetAttendanceHandler(st *store.Store) fiber.Handler {
	return func(c *fiber.Ctx) error {
		id, err := api.ParseID(c, "id")
		if err != nil {
			return err
		}
		a, err := st.Attendance.Get(c.UserContext(), id)
		if err != nil {
			return api.NotFound(err, "attendance")
		}
		return c.JSON(a)
	}
}

// PUT /api/attendance/:id
func UpdateAttendanceHandler(st *store.Store, aw *audit.Writer) fiber.Handler {
	return func(c *fiber.Ctx) error {
		id, err := api.ParseID(c, "id")
		if err != nil {
			return err
		}
		a, err := st.Attendance.Get(c.UserContext(), id)
		if err != nil {
			return api.NotFound(err, "attendance")
		}
		before := a

		var body UpdateAttendanceRequest
		if err := api.Bind(c, &body); err != nil {
			return err
		}
		if body.Status != nil {
			a.Status = models.AttendanceStatus(*body.Status)
		}
		if body.CheckIn != nil {
			a.CheckIn = *body.CheckIn
		}
		if body.CheckOut != nil {
			a.CheckOut = *body.CheckOut
		}
		if body.Notes != nil {
			a.Notes = *body.Notes
		}

		if err := st.Attendance.Update(c.UserContext(), &a); err != nil {
			if errors.Is(err, store.ErrDuplicate) {
				return api.Invalid("date", "attendance already recorded for this worker and day")
			}
			return api.NotFound(err, "attendance")
		}

		aw.Record(c, audit.LogOptions{
			SiteID:      audit.SiteRef(a.SiteID),
			EntityType:  "attendance",
			EntityID:    a.ID,
			Action:      models.AuditActionUpdate,
			Description: fmt.Sprintf("Attendance updated: worker #%d %s", a.WorkerID, a.Status),
			Before:      before,
			After:       a,
		})

		return c.JSON(a)
	}
}

// DELETE /api/attendance/:id
func DeleteAttendanceHandler(st *store.Store, aw *audit.Writer) fiber.Handler {
	return func(c *fiber.Ctx) error {
		id, err := api.ParseID(c, "id")
		if err != nil {
			return err
		}
		a, err := st.Attendance.Get(c.UserContext(), id)
		if err != nil {
			return api.NotFound(err, "attendance")
		}
		if err := st.Attendance.Delete(c.UserContext(), id); err != nil {
			return api.NotFound(err, "attendance")
		}

		aw.Record(c, audit.LogOptions{
			SiteID:      audit.SiteRef(a.SiteID),
			EntityType:  "attendance",
			EntityID:    a.ID,
			Action:      models.AuditActionDelete,
			Description: fmt.Sprintf("Attendance deleted: worker #%d on %s", a.WorkerID, a.Date.Format(api.DateLayout)),
			Before:      a,
		})

		return c.SendStatus(fiber.StatusNoContent)
	}
}
