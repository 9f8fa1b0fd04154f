// Package stock holds the material ledger rule and low-stock classification.
package stock

import (
	"math"

	"sitedesk-backend/internal/models"
)

type Status string

const (
	StatusSufficient Status = "sufficient"
	StatusLow        Status = "low"
	StatusCritical   Status = "critical"
)

// CriticalRatio is the quantity/minimum ratio below which stock is critical.
const CriticalRatio = 0.4

// quantityScale keeps running totals on a fixed decimal grid so that adding
// and then using the same amount lands exactly on the starting quantity.
const quantityScale = 1e6

// Normalize puts a stock figure on the ledger grid. Every quantity and minimum
// stored outside the ledger (create, edit, import, recount) goes through it.
func Normalize(v float64) float64 {
	return math.Round(v*quantityScale) / quantityScale
}

// Apply returns the quantity after a transaction and how much of a "used"
// amount could not be covered by stock. The result is never negative; excess
// usage is absorbed, not rejected.
func Apply(current float64, t models.TransactionType, qty float64) (next, absorbed float64) {
	switch t {
	case models.TransactionAdded:
		next = current + qty
	case models.TransactionUsed:
		next = current - qty
	default:
		return current, 0
	}
	if next < 0 {
		return 0, Normalize(-next)
	}
	return Normalize(next), 0
}

// Classify buckets a quantity against its minimum stock level.
func Classify(quantity, minStockLevel float64) Status {
	if quantity >= minStockLevel {
		return StatusSufficient
	}
	if quantity/minStockLevel < CriticalRatio {
		return StatusCritical
	}
	return StatusLow
}

// IsLow reports whether a material sits below its minimum.
func IsLow(m models.Material) bool {
	return m.Quantity < m.MinStockLevel
}
