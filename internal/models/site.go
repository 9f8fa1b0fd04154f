package models

import "time"

type SiteStatus string

const (
	SiteActive    SiteStatus = "active"
	SiteOnHold    SiteStatus = "on_hold"
	SiteCompleted SiteStatus = "completed"
)

// Site is a construction project everything else hangs off.
type Site struct {
	ID          uint       `gorm:"primaryKey" json:"id"`
	Name        string     `gorm:"size:150;not null" json:"name"`
	Location    string     `gorm:"size:255" json:"location"`
	Description string     `gorm:"size:1000" json:"description"`
	StartDate   time.Time  `gorm:"index" json:"startDate"`
	EndDate     *time.Time `json:"endDate"`
	Status      SiteStatus `gorm:"size:20;not null;default:active" json:"status"`
	Budget      float64    `gorm:"not null;default:0" json:"budget"`
	Timestamps
}

func (s *Site) PrimaryKey() uint      { return s.ID }
func (s *Site) SetPrimaryKey(id uint) { s.ID = id }
func (s *Site) Scope() Scope          { return Scope{SiteID: s.ID, Date: s.StartDate} }
