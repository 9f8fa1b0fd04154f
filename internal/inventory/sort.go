package inventory

import (
	"sort"

	"sitedesk-backend/internal/models"
)

func fillRatio(r MaterialResponse) float64 {
	if r.MinStockLevel == 0 {
		return 1
	}
	return r.Quantity / r.MinStockLevel
}

func byRatio(rs []MaterialResponse) {
	sort.SliceStable(rs, func(i, j int) bool {
		return fillRatio(rs[i]) < fillRatio(rs[j])
	})
}

// newestFirst orders ledger rows by business date, then id, descending.
func newestFirst(txs []models.MaterialTransaction) []models.MaterialTransaction {
	sort.SliceStable(txs, func(i, j int) bool {
		if !txs[i].Date.Equal(txs[j].Date) {
			return txs[i].Date.After(txs[j].Date)
		}
		return txs[i].ID > txs[j].ID
	})
	return txs
}
