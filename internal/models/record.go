package models

import "time"

// Scope carries the foreign keys and the business date a row can be filtered by.
type Scope struct {
	SiteID     uint
	MaterialID uint
	WorkerID   uint
	Date       time.Time
}

// Timestamps is embedded by entities that track creation and update times.
type Timestamps struct {
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// Stamp fills CreatedAt once and moves UpdatedAt forward. gorm does this on its
// own; the in-memory store calls it explicitly.
func (t *Timestamps) Stamp(now time.Time) {
	if t.CreatedAt.IsZero() {
		t.CreatedAt = now
	}
	t.UpdatedAt = now
}
