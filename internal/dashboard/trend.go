package dashboard

import (
	"context"
	"fmt"
	"time"

	"sitedesk-backend/internal/models"
	"sitedesk-backend/internal/store"
)

type Period string

const (
	Daily   Period = "daily"
	Weekly  Period = "weekly"
	Monthly Period = "monthly"
)

// DefaultCount is the number of buckets returned when none is asked for.
func (p Period) DefaultCount() int {
	switch p {
	case Weekly:
		return 8
	case Monthly:
		return 12
	default:
		return 7
	}
}

func (p Period) Valid() bool {
	return p == Daily || p == Weekly || p == Monthly
}

type TrendPoint struct {
	Label    string  `json:"label"` // first day of the bucket
	Expenses float64 `json:"expenses"`
	Labor    float64 `json:"labor"`
	Total    float64 `json:"total"`
}

type Trend struct {
	SiteID      uint         `json:"siteId"`
	Period      Period       `json:"period"`
	From        string       `json:"from"`
	To          string       `json:"to"`
	Points      []TrendPoint `json:"points"`
	GrandTotals TrendPoint   `json:"grandTotals"`
}

// bucketStart truncates d to the start of its day, ISO week (Monday) or month.
func bucketStart(p Period, d time.Time) time.Time {
	day := time.Date(d.Year(), d.Month(), d.Day(), 0, 0, 0, 0, time.UTC)
	switch p {
	case Weekly:
		offset := (int(day.Weekday()) + 6) % 7
		return day.AddDate(0, 0, -offset)
	case Monthly:
		return time.Date(d.Year(), d.Month(), 1, 0, 0, 0, 0, time.UTC)
	default:
		return day
	}
}

func step(p Period, d time.Time, n int) time.Time {
	switch p {
	case Weekly:
		return d.AddDate(0, 0, 7*n)
	case Monthly:
		return d.AddDate(0, n, 0)
	default:
		return d.AddDate(0, 0, n)
	}
}

// BuildTrend buckets a site's expenses and earned wages over the last count
// periods ending with the one containing today. Empty buckets are included.
func BuildTrend(ctx context.Context, st *store.Store, siteID uint, p Period, count int, today time.Time) (Trend, error) {
	if _, err := st.Sites.Get(ctx, siteID); err != nil {
		return Trend{}, err
	}

	last := bucketStart(p, today)
	first := step(p, last, -(count - 1))
	end := step(p, last, 1).AddDate(0, 0, -1)

	q := store.Query{SiteID: siteID, From: &first, To: &end}
	expenses, err := st.Expenses.List(ctx, q)
	if err != nil {
		return Trend{}, fmt.Errorf("list expenses: %w", err)
	}
	attendance, err := st.Attendance.List(ctx, q)
	if err != nil {
		return Trend{}, fmt.Errorf("list attendance: %w", err)
	}
	workers, err := st.Workers.List(ctx, store.Query{SiteID: siteID})
	if err != nil {
		return Trend{}, fmt.Errorf("list workers: %w", err)
	}
	wages := make(map[uint]float64, len(workers))
	for _, w := range workers {
		wages[w.ID] = w.DailyWage
	}

	points := make([]TrendPoint, count)
	index := make(map[time.Time]int, count)
	for i := range points {
		b := step(p, first, i)
		points[i].Label = b.Format("2006-01-02")
		index[b] = i
	}

	for _, e := range expenses {
		if i, ok := index[bucketStart(p, e.Date)]; ok {
			points[i].Expenses += e.Amount
		}
	}
	for _, a := range attendance {
		i, ok := index[bucketStart(p, a.Date)]
		if !ok {
			continue
		}
		switch a.Status {
		case models.AttendancePresent:
			points[i].Labor += wages[a.WorkerID]
		case models.AttendanceHalfDay:
			points[i].Labor += wages[a.WorkerID] / 2
		}
	}

	tr := Trend{
		SiteID: siteID,
		Period: p,
		From:   first.Format("2006-01-02"),
		To:     end.Format("2006-01-02"),
		Points: points,
	}
	for i := range points {
		points[i].Total = points[i].Expenses + points[i].Labor
		tr.GrandTotals.Expenses += points[i].Expenses
		tr.GrandTotals.Labor += points[i].Labor
		tr.GrandTotals.Total += points[i].Total
	}
	tr.GrandTotals.Label = "total"
	return tr, nil
}
