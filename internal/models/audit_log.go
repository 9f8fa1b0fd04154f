package models

import "time"

type AuditAction string

const (
	AuditActionCreate AuditAction = "create"
	AuditActionUpdate AuditAction = "update"
	AuditActionDelete AuditAction = "delete"
)

type AuditLog struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	CreatedAt time.Time `gorm:"index" json:"createdAt"`

	// Which site? nil for site-independent rows (users, sites themselves on create)
	SiteID *uint `gorm:"index" json:"siteId"`

	UserID   uint   `json:"userId"`
	UserName string `gorm:"size:100" json:"userName"`

	// "site", "material", "material_transaction", "worker", ...
	EntityType string `gorm:"size:50;index" json:"entityType"`
	EntityID   uint   `gorm:"index" json:"entityId"`

	Action      AuditAction `gorm:"size:20" json:"action"`
	Description string      `gorm:"size:255" json:"description"`

	// JSON snapshots, "null" when absent
	BeforeData string `gorm:"type:jsonb" json:"beforeData"`
	AfterData  string `gorm:"type:jsonb" json:"afterData"`
}

func (a *AuditLog) PrimaryKey() uint      { return a.ID }
func (a *AuditLog) SetPrimaryKey(id uint) { a.ID = id }
func (a *AuditLog) Scope() Scope {
	s := Scope{Date: a.CreatedAt}
	if a.SiteID != nil {
		s.SiteID = *a.SiteID
	}
	return s
}

func (a *AuditLog) Stamp(now time.Time) {
	if a.CreatedAt.IsZero() {
		a.CreatedAt = now
	}
}
