// Package dashboard aggregates per-site figures for the home screen.
package dashboard

import (
	"context"
	"fmt"
	"sort"
	"time"

	"sitedesk-backend/internal/expense"
	"sitedesk-backend/internal/models"
	"sitedesk-backend/internal/stock"
	"sitedesk-backend/internal/store"
)

const recentTransactions = 5

type AttendanceCounts struct {
	Present  int `json:"present"`
	Absent   int `json:"absent"`
	HalfDay  int `json:"halfDay"`
	Recorded int `json:"recorded"`
}

type SiteSummary struct {
	Site               models.Site                  `json:"site"`
	MaterialCount      int                          `json:"materialCount"`
	LowStockCount      int                          `json:"lowStockCount"`
	CriticalStockCount int                          `json:"criticalStockCount"`
	Expenses           expense.Summary              `json:"expenses"`
	BudgetRemaining    float64                      `json:"budgetRemaining"`
	ActiveWorkers      int                          `json:"activeWorkers"`
	LaborCost          float64                      `json:"laborCost"`
	TodayAttendance    AttendanceCounts             `json:"todayAttendance"`
	RecentTransactions []models.MaterialTransaction `json:"recentTransactions"`
	Date               string                       `json:"date"`
}

type Overview struct {
	Date               string        `json:"date"`
	SiteCount          int           `json:"siteCount"`
	ActiveSites        int           `json:"activeSites"`
	TotalExpenses      float64       `json:"totalExpenses"`
	LowStockCount      int           `json:"lowStockCount"`
	CriticalStockCount int           `json:"criticalStockCount"`
	ActiveWorkers      int           `json:"activeWorkers"`
	Sites              []SiteSummary `json:"sites"`
}

// BuildSite computes the dashboard of one site as of the given day.
func BuildSite(ctx context.Context, st *store.Store, siteID uint, today time.Time) (SiteSummary, error) {
	s, err := st.Sites.Get(ctx, siteID)
	if err != nil {
		return SiteSummary{}, err
	}
	q := store.Query{SiteID: siteID}
	sum := SiteSummary{Site: s, Date: today.Format("2006-01-02")}

	materials, err := st.Materials.List(ctx, q)
	if err != nil {
		return SiteSummary{}, fmt.Errorf("list materials: %w", err)
	}
	sum.MaterialCount = len(materials)
	for _, m := range materials {
		switch stock.Classify(m.Quantity, m.MinStockLevel) {
		case stock.StatusLow:
			sum.LowStockCount++
		case stock.StatusCritical:
			sum.CriticalStockCount++
		}
	}

	expenses, err := st.Expenses.List(ctx, q)
	if err != nil {
		return SiteSummary{}, fmt.Errorf("list expenses: %w", err)
	}
	sum.Expenses = expense.Summarize(expenses)
	sum.BudgetRemaining = s.Budget - sum.Expenses.GrandTotal

	workers, err := st.Workers.List(ctx, q)
	if err != nil {
		return SiteSummary{}, fmt.Errorf("list workers: %w", err)
	}
	wages := make(map[uint]float64, len(workers))
	for _, w := range workers {
		wages[w.ID] = w.DailyWage
		if w.IsActive {
			sum.ActiveWorkers++
		}
	}

	attendance, err := st.Attendance.List(ctx, q)
	if err != nil {
		return SiteSummary{}, fmt.Errorf("list attendance: %w", err)
	}
	sum.LaborCost, sum.TodayAttendance = labor(attendance, wages, today)

	txs, err := st.Transactions.List(ctx, q)
	if err != nil {
		return SiteSummary{}, fmt.Errorf("list transactions: %w", err)
	}
	sum.RecentTransactions = latest(txs, recentTransactions)

	return sum, nil
}

// labor totals wages earned over all attendance rows (half days count half)
// and counts the rows recorded on today.
func labor(rows []models.Attendance, wages map[uint]float64, today time.Time) (float64, AttendanceCounts) {
	var cost float64
	var counts AttendanceCounts
	for _, a := range rows {
		switch a.Status {
		case models.AttendancePresent:
			cost += wages[a.WorkerID]
		case models.AttendanceHalfDay:
			cost += wages[a.WorkerID] / 2
		}
		if !sameDay(a.Date, today) {
			continue
		}
		counts.Recorded++
		switch a.Status {
		case models.AttendancePresent:
			counts.Present++
		case models.AttendanceAbsent:
			counts.Absent++
		case models.AttendanceHalfDay:
			counts.HalfDay++
		}
	}
	return cost, counts
}

func sameDay(a, b time.Time) bool {
	ay, am, ad := a.Date()
	by, bm, bd := b.Date()
	return ay == by && am == bm && ad == bd
}

func latest(txs []models.MaterialTransaction, n int) []models.MaterialTransaction {
	sort.SliceStable(txs, func(i, j int) bool {
		if !txs[i].Date.Equal(txs[j].Date) {
			return txs[i].Date.After(txs[j].Date)
		}
		return txs[i].ID > txs[j].ID
	})
	if len(txs) > n {
		txs = txs[:n]
	}
	return txs
}

// BuildOverview summarises every site.
func BuildOverview(ctx context.Context, st *store.Store, today time.Time) (Overview, error) {
	sites, err := st.Sites.List(ctx, store.Query{})
	if err != nil {
		return Overview{}, fmt.Errorf("list sites: %w", err)
	}
	ov := Overview{
		Date:      today.Format("2006-01-02"),
		SiteCount: len(sites),
		Sites:     make([]SiteSummary, 0, len(sites)),
	}
	for _, s := range sites {
		sum, err := BuildSite(ctx, st, s.ID, today)
		if err != nil {
			return Overview{}, fmt.Errorf("site %d: %w", s.ID, err)
		}
		if s.Status == models.SiteActive {
			ov.ActiveSites++
		}
		ov.TotalExpenses += sum.Expenses.GrandTotal
		ov.LowStockCount += sum.LowStockCount
		ov.CriticalStockCount += sum.CriticalStockCount
		ov.ActiveWorkers += sum.ActiveWorkers
		ov.Sites = append(ov.Sites, sum)
	}
	return ov, nil
}
