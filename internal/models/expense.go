package models

import "time"

type Expense struct {
	ID            uint      `gorm:"primaryKey" json:"id"`
	SiteID        uint      `gorm:"index;not null" json:"siteId"`
	Date          time.Time `gorm:"index;not null" json:"date"`
	Category      string    `gorm:"size:100;not null" json:"category"` // labor, materials, equipment, transport...
	Amount        float64   `gorm:"not null" json:"amount"`
	Description   string    `gorm:"size:500" json:"description"`
	PaymentMethod string    `gorm:"size:50" json:"paymentMethod"`
	RecordedBy    string    `gorm:"size:100" json:"recordedBy"`
	Timestamps
}

func (e *Expense) PrimaryKey() uint      { return e.ID }
func (e *Expense) SetPrimaryKey(id uint) { e.ID = id }
func (e *Expense) Scope() Scope          { return Scope{SiteID: e.SiteID, Date: e.Date} }
