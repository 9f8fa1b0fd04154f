// Package report exports a site's records as an xlsx workbook.
package report

import (
	"context"
	"fmt"
	"time"

	"sitedesk-backend/internal/dashboard"
	"sitedesk-backend/internal/models"
	"sitedesk-backend/internal/stock"
	"sitedesk-backend/internal/store"

	"github.com/xuri/excelize/v2"
)

const dateLayout = "2006-01-02"

// Sheets lists the workbook tabs in order.
var Sheets = []string{"Summary", "Materials", "Transactions", "Expenses", "Attendance"}

// Build writes the site workbook. Transactions, expenses and attendance are
// limited to the From/To range of q; materials are always the current state.
func Build(ctx context.Context, st *store.Store, siteID uint, q store.Query, now time.Time) (*excelize.File, error) {
	sum, err := dashboard.BuildSite(ctx, st, siteID, now)
	if err != nil {
		return nil, err
	}
	q.SiteID = siteID
	q.MaterialID, q.WorkerID, q.Limit = 0, 0, 0

	materials, err := st.Materials.List(ctx, store.Query{SiteID: siteID})
	if err != nil {
		return nil, fmt.Errorf("list materials: %w", err)
	}
	txs, err := st.Transactions.List(ctx, q)
	if err != nil {
		return nil, fmt.Errorf("list transactions: %w", err)
	}
	expenses, err := st.Expenses.List(ctx, q)
	if err != nil {
		return nil, fmt.Errorf("list expenses: %w", err)
	}
	attendance, err := st.Attendance.List(ctx, q)
	if err != nil {
		return nil, fmt.Errorf("list attendance: %w", err)
	}
	workers, err := st.Workers.List(ctx, store.Query{SiteID: siteID})
	if err != nil {
		return nil, fmt.Errorf("list workers: %w", err)
	}

	f := excelize.NewFile()
	w := &writer{f: f}
	if err := w.init(); err != nil {
		_ = f.Close()
		return nil, err
	}

	w.summary(sum, now)
	w.materials(materials)
	w.transactions(txs, materials)
	w.expenses(expenses)
	w.attendance(attendance, workers)

	if w.err != nil {
		_ = f.Close()
		return nil, w.err
	}
	return f, nil
}

// writer keeps the first error so sheet code stays linear.
type writer struct {
	f      *excelize.File
	header int
	err    error
}

func (w *writer) init() error {
	first := w.f.GetSheetName(w.f.GetActiveSheetIndex())
	if err := w.f.SetSheetName(first, Sheets[0]); err != nil {
		return fmt.Errorf("rename sheet: %w", err)
	}
	for _, name := range Sheets[1:] {
		if _, err := w.f.NewSheet(name); err != nil {
			return fmt.Errorf("add sheet %s: %w", name, err)
		}
	}
	style, err := w.f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err != nil {
		return fmt.Errorf("header style: %w", err)
	}
	w.header = style
	return nil
}

func (w *writer) row(sheet string, n int, values []interface{}) {
	if w.err != nil {
		return
	}
	cell, err := excelize.CoordinatesToCellName(1, n)
	if err != nil {
		w.err = err
		return
	}
	if err := w.f.SetSheetRow(sheet, cell, &values); err != nil {
		w.err = fmt.Errorf("%s row %d: %w", sheet, n, err)
	}
}

func (w *writer) table(sheet string, header []interface{}, rows [][]interface{}) {
	w.row(sheet, 1, header)
	if w.err == nil {
		w.err = w.f.SetRowStyle(sheet, 1, 1, w.header)
	}
	for i, r := range rows {
		w.row(sheet, i+2, r)
	}
}

func (w *writer) summary(s dashboard.SiteSummary, now time.Time) {
	end := ""
	if s.Site.EndDate != nil {
		end = s.Site.EndDate.Format(dateLayout)
	}
	rows := [][]interface{}{
		{"Site", s.Site.Name},
		{"Location", s.Site.Location},
		{"Status", string(s.Site.Status)},
		{"Start date", s.Site.StartDate.Format(dateLayout)},
		{"End date", end},
		{"Budget", s.Site.Budget},
		{"Total expenses", s.Expenses.GrandTotal},
		{"Budget remaining", s.BudgetRemaining},
		{"Labor cost", s.LaborCost},
		{"Materials", s.MaterialCount},
		{"Low stock", s.LowStockCount},
		{"Critical stock", s.CriticalStockCount},
		{"Active workers", s.ActiveWorkers},
		{"Generated at", now.Format("2006-01-02 15:04")},
	}
	for _, c := range s.Expenses.Items {
		rows = append(rows, []interface{}{"Expenses: " + c.Category, c.Total})
	}
	w.table("Summary", []interface{}{"Field", "Value"}, rows)
}

func (w *writer) materials(ms []models.Material) {
	rows := make([][]interface{}, 0, len(ms))
	for _, m := range ms {
		rows = append(rows, []interface{}{
			m.ID, m.Name, m.Category, m.Unit, m.Quantity, m.MinStockLevel,
			string(stock.Classify(m.Quantity, m.MinStockLevel)),
			m.LastUpdated.Format("2006-01-02 15:04"),
		})
	}
	w.table("Materials", []interface{}{
		"ID", "Name", "Category", "Unit", "Quantity", "Min stock", "Status", "Last updated",
	}, rows)
}

func (w *writer) transactions(txs []models.MaterialTransaction, ms []models.Material) {
	names := make(map[uint]string, len(ms))
	for _, m := range ms {
		names[m.ID] = m.Name
	}
	rows := make([][]interface{}, 0, len(txs))
	for _, t := range txs {
		name, ok := names[t.MaterialID]
		if !ok {
			name = fmt.Sprintf("#%d (deleted)", t.MaterialID)
		}
		rows = append(rows, []interface{}{
			t.ID, t.Date.Format(dateLayout), name, string(t.TransactionType), t.Quantity, t.RecordedBy, t.Notes,
		})
	}
	w.table("Transactions", []interface{}{
		"ID", "Date", "Material", "Type", "Quantity", "Recorded by", "Notes",
	}, rows)
}

func (w *writer) expenses(es []models.Expense) {
	rows := make([][]interface{}, 0, len(es))
	for _, e := range es {
		rows = append(rows, []interface{}{
			e.ID, e.Date.Format(dateLayout), e.Category, e.Amount, e.PaymentMethod, e.RecordedBy, e.Description,
		})
	}
	w.table("Expenses", []interface{}{
		"ID", "Date", "Category", "Amount", "Payment method", "Recorded by", "Description",
	}, rows)
}

func (w *writer) attendance(as []models.Attendance, workers []models.Worker) {
	names := make(map[uint]string, len(workers))
	for _, wk := range workers {
		names[wk.ID] = wk.Name
	}
	rows := make([][]interface{}, 0, len(as))
	for _, a := range as {
		rows = append(rows, []interface{}{
			a.Date.Format(dateLayout), names[a.WorkerID], string(a.Status), a.CheckIn, a.CheckOut, a.Notes,
		})
	}
	w.table("Attendance", []interface{}{
		"Date", "Worker", "Status", "Check in", "Check out", "Notes",
	}, rows)
}
