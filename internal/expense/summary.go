package expense

import (
	"sort"

	"sitedesk-backend/internal/models"
)

type CategoryTotal struct {
	Category string  `json:"category"`
	Total    float64 `json:"total"`
	Count    int     `json:"count"`
}

type Summary struct {
	Items      []CategoryTotal `json:"items"`
	GrandTotal float64         `json:"grandTotal"`
}

type MonthlySummary struct {
	SiteID uint `json:"siteId"`
	Year   int  `json:"year"`
	Month  int  `json:"month"`
	Summary
}

// Summarize totals expenses per category, largest first.
func Summarize(expenses []models.Expense) Summary {
	idx := make(map[string]int)
	s := Summary{Items: make([]CategoryTotal, 0)}
	for _, e := range expenses {
		i, ok := idx[e.Category]
		if !ok {
			i = len(s.Items)
			idx[e.Category] = i
			s.Items = append(s.Items, CategoryTotal{Category: e.Category})
		}
		s.Items[i].Total += e.Amount
		s.Items[i].Count++
		s.GrandTotal += e.Amount
	}
	sort.SliceStable(s.Items, func(i, j int) bool {
		return s.Items[i].Total > s.Items[j].Total
	})
	return s
}
