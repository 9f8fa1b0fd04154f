package models

import "time"

type Worker struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	SiteID    uint      `gorm:"index;not null" json:"siteId"`
	Name      string    `gorm:"size:150;not null" json:"name"`
	Role      string    `gorm:"size:100" json:"role"` // mason, electrician, helper...
	Phone     string    `gorm:"size:50" json:"phone"`
	DailyWage float64   `gorm:"not null;default:0" json:"dailyWage"`
	JoinDate  time.Time `json:"joinDate"`
	IsActive  bool      `gorm:"not null;default:true" json:"isActive"`
	Timestamps
}

func (w *Worker) PrimaryKey() uint      { return w.ID }
func (w *Worker) SetPrimaryKey(id uint) { w.ID = id }
func (w *Worker) Scope() Scope          { return Scope{SiteID: w.SiteID, WorkerID: w.ID, Date: w.JoinDate} }
