package expense

import (
	"context"
	"encoding/json"
	"net/http/httptest"
	"testing"
	"time"

	"sitedesk-backend/internal/api"
	"sitedesk-backend/internal/logger"
	"sitedesk-backend/internal/models"
	"sitedesk-backend/internal/store/memory"

	"github.com/gofiber/fiber/v2"
)

func TestSummarize(t *testing.T) {
	s := Summarize([]models.Expense{
		{Category: "transport", Amount: 40},
		{Category: "materials", Amount: 300},
		{Category: "transport", Amount: 20},
	})
	if s.GrandTotal != 360 {
		t.Fatalf("grand total = %v", s.GrandTotal)
	}
	if len(s.Items) != 2 || s.Items[0].Category != "materials" {
		t.Fatalf("items = %+v", s.Items)
	}
	if s.Items[1].Total != 60 || s.Items[1].Count != 2 {
		t.Fatalf("transport = %+v", s.Items[1])
	}

	if empty := Summarize(nil); empty.Items == nil || empty.GrandTotal != 0 {
		t.Fatalf("empty = %+v", empty)
	}
}

func TestMonthlySummaryHandler(t *testing.T) {
	st := memory.New(nil)
	ctx := context.Background()
	day := func(m time.Month, d int) time.Time { return time.Date(2025, m, d, 0, 0, 0, 0, time.UTC) }
	for _, e := range []models.Expense{
		{SiteID: 1, Date: day(6, 1), Category: "labor", Amount: 100},
		{SiteID: 1, Date: day(6, 30), Category: "labor", Amount: 50},
		{SiteID: 1, Date: day(7, 1), Category: "labor", Amount: 999},
		{SiteID: 2, Date: day(6, 15), Category: "labor", Amount: 999},
	} {
		if err := st.Expenses.Create(ctx, &e); err != nil {
			t.Fatal(err)
		}
	}

	app := fiber.New(fiber.Config{ErrorHandler: api.ErrorHandler(logger.Discard())})
	app.Get("/summary", MonthlyExpenseSummaryHandler(st))

	resp, err := app.Test(httptest.NewRequest("GET", "/summary?siteId=1&year=2025&month=6", nil), -1)
	if err != nil {
		t.Fatal(err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != 200 {
		t.Fatalf("status = %d", resp.StatusCode)
	}
	var got MonthlySummary
	if err := json.NewDecoder(resp.Body).Decode(&got); err != nil {
		t.Fatal(err)
	}
	if got.GrandTotal != 150 || got.Month != 6 || got.SiteID != 1 {
		t.Fatalf("summary = %+v", got)
	}

	for _, path := range []string{
		"/summary?year=2025&month=6",
		"/summary?siteId=1&year=2025&month=13",
		"/summary?siteId=1&month=6",
	} {
		resp, err := app.Test(httptest.NewRequest("GET", path, nil), -1)
		if err != nil {
			t.Fatal(err)
		}
		resp.Body.Close()
		if resp.StatusCode != 400 {
			t.Errorf("%s: status = %d, want 400", path, resp.StatusCode)
		}
	}
}
