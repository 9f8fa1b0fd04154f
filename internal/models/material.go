package models

import "time"

// Material is a stock item on a site. Quantity is the running total of its
// transactions and never drops below zero.
type Material struct {
	ID            uint      `gorm:"primaryKey" json:"id"`
	SiteID        uint      `gorm:"index;not null" json:"siteId"`
	Name          string    `gorm:"size:150;not null" json:"name"`
	Category      string    `gorm:"size:100" json:"category"`
	Unit          string    `gorm:"size:20;not null" json:"unit"` // kg, bag, m3, pcs...
	Quantity      float64   `gorm:"not null;default:0" json:"quantity"`
	MinStockLevel float64   `gorm:"not null;default:0" json:"minStockLevel"`
	LastUpdated   time.Time `gorm:"not null" json:"lastUpdated"`
}

func (m *Material) PrimaryKey() uint      { return m.ID }
func (m *Material) SetPrimaryKey(id uint) { m.ID = id }
func (m *Material) Scope() Scope          { return Scope{SiteID: m.SiteID, MaterialID: m.ID} }
