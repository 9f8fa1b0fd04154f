package models

import "time"

type TransactionType string

const (
	TransactionAdded TransactionType = "added"
	TransactionUsed  TransactionType = "used"
)

func (t TransactionType) Valid() bool {
	return t == TransactionAdded || t == TransactionUsed
}

// MaterialTransaction is an append-only ledger row. It is never updated or
// deleted, not even when its material goes away.
type MaterialTransaction struct {
	ID              uint            `gorm:"primaryKey" json:"id"`
	MaterialID      uint            `gorm:"index;not null" json:"materialId"`
	SiteID          uint            `gorm:"index" json:"siteId"`
	Date            time.Time       `gorm:"index;not null" json:"date"`
	TransactionType TransactionType `gorm:"size:10;not null" json:"transactionType"`
	Quantity        float64         `gorm:"not null" json:"quantity"`
	Notes           string          `gorm:"size:500" json:"notes"`
	RecordedBy      string          `gorm:"size:100" json:"recordedBy"`
	CreatedAt       time.Time       `json:"createdAt"`
}

func (t *MaterialTransaction) PrimaryKey() uint      { return t.ID }
func (t *MaterialTransaction) SetPrimaryKey(id uint) { t.ID = id }
func (t *MaterialTransaction) Scope() Scope {
	return Scope{SiteID: t.SiteID, MaterialID: t.MaterialID, Date: t.Date}
}

func (t *MaterialTransaction) Stamp(now time.Time) {
	if t.CreatedAt.IsZero() {
		t.CreatedAt = now
	}
}
