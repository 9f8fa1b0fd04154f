package models

import "time"

type AttendanceStatus string

const (
	AttendancePresent AttendanceStatus = "present"
	AttendanceAbsent  AttendanceStatus = "absent"
	AttendanceHalfDay AttendanceStatus = "half_day"
)

type Attendance struct {
	ID       uint             `gorm:"primaryKey" json:"id"`
	WorkerID uint             `gorm:"index;not null" json:"workerId"`
	SiteID   uint             `gorm:"index;not null" json:"siteId"`
	Date     time.Time        `gorm:"index;not null" json:"date"`
	Status   AttendanceStatus `gorm:"size:20;not null" json:"status"`
	CheckIn  string           `gorm:"size:5" json:"checkIn"` // "08:00"
	CheckOut string           `gorm:"size:5" json:"checkOut"`
	Notes    string           `gorm:"size:500" json:"notes"`
	Timestamps
}

func (Attendance) TableName() string { return "attendance" }

func (a *Attendance) PrimaryKey() uint      { return a.ID }
func (a *Attendance) SetPrimaryKey(id uint) { a.ID = id }
func (a *Attendance) Scope() Scope {
	return Scope{SiteID: a.SiteID, WorkerID: a.WorkerID, Date: a.Date}
}
