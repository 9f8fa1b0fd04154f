package workforce

import (
	"context"
	"encoding/json"
	"io"
	"net/http/httptest"
	"strings"
	"testing"

	"sitedesk-backend/internal/api"
	"sitedesk-backend/internal/audit"
	"sitedesk-backend/internal/logger"
	"sitedesk-backend/internal/models"
	"sitedesk-backend/internal/store"
	"sitedesk-backend/internal/store/memory"

	"github.com/gofiber/fiber/v2"
)

// blindAttendance hides existing rows from List, the view a request gets when
// a concurrent request inserts between its lookup and its insert.
type blindAttendance struct {
	store.Repository[models.Attendance]
}

func (blindAttendance) List(context.Context, store.Query) ([]models.Attendance, error) {
	return nil, nil
}

func newAttendanceApp(t *testing.T) (*fiber.App, *store.Store) {
	t.Helper()
	st := memory.New(nil)
	if err := st.Workers.Create(context.Background(), &models.Worker{SiteID: 3, Name: "Ravi", DailyWage: 800, IsActive: true}); err != nil {
		t.Fatal(err)
	}
	log := logger.Discard()
	aw := audit.NewWriter(st.AuditLogs, log)
	app := fiber.New(fiber.Config{ErrorHandler: api.ErrorHandler(log)})
	app.Post("/attendance", CreateAttendanceHandler(st, aw))
	return app, st
}

func postAttendance(t *testing.T, app *fiber.App, body string) (int, string) {
	t.Helper()
	req := httptest.NewRequest("POST", "/attendance", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	resp, err := app.Test(req, -1)
	if err != nil {
		t.Fatal(err)
	}
	defer resp.Body.Close()
	raw, _ := io.ReadAll(resp.Body)
	return resp.StatusCode, string(raw)
}

func TestCreateAttendance(t *testing.T) {
	app, st := newAttendanceApp(t)

	status, body := postAttendance(t, app, `{"workerId":1,"date":"2025-06-12","status":"present","checkIn":"08:00"}`)
	if status != 201 {
		t.Fatalf("create = %d %s", status, body)
	}
	var a models.Attendance
	_ = json.Unmarshal([]byte(body), &a)
	if a.SiteID != 3 {
		t.Errorf("site defaulted to %d, want the worker's site 3", a.SiteID)
	}

	if status, _ := postAttendance(t, app, `{"workerId":1,"date":"2025-06-12","status":"absent"}`); status != 400 {
		t.Errorf("second row same day = %d", status)
	}
	if status, _ := postAttendance(t, app, `{"workerId":9,"date":"2025-06-12","status":"absent"}`); status != 400 {
		t.Errorf("unknown worker = %d", status)
	}
	rows, _ := st.Attendance.List(context.Background(), store.Query{})
	if len(rows) != 1 {
		t.Fatalf("rows = %+v", rows)
	}
}

func TestCreateAttendanceDuplicateFromStore(t *testing.T) {
	app, st := newAttendanceApp(t)
	if status, body := postAttendance(t, app, `{"workerId":1,"date":"2025-06-12","status":"present"}`); status != 201 {
		t.Fatalf("create = %d %s", status, body)
	}

	st.Attendance = blindAttendance{st.Attendance}
	status, body := postAttendance(t, app, `{"workerId":1,"date":"2025-06-12","status":"half_day"}`)
	if status != 400 {
		t.Fatalf("duplicate past the lookup = %d %s", status, body)
	}
	var res struct {
		Fields []api.FieldError `json:"fields"`
	}
	_ = json.Unmarshal([]byte(body), &res)
	if len(res.Fields) != 1 || res.Fields[0].Field != "date" {
		t.Fatalf("fields = %+v", res.Fields)
	}
}
