package models

type NotePriority string

const (
	PriorityLow    NotePriority = "low"
	PriorityMedium NotePriority = "medium"
	PriorityHigh   NotePriority = "high"
)

type Note struct {
	ID        uint         `gorm:"primaryKey" json:"id"`
	SiteID    uint         `gorm:"index;not null" json:"siteId"`
	Title     string       `gorm:"size:200;not null" json:"title"`
	Content   string       `gorm:"type:text" json:"content"`
	Category  string       `gorm:"size:100" json:"category"`
	Priority  NotePriority `gorm:"size:10;not null;default:medium" json:"priority"`
	CreatedBy string       `gorm:"size:100" json:"createdBy"`
	Timestamps
}

func (n *Note) PrimaryKey() uint      { return n.ID }
func (n *Note) SetPrimaryKey(id uint) { n.ID = id }
func (n *Note) Scope() Scope          { return Scope{SiteID: n.SiteID, Date: n.CreatedAt} }
