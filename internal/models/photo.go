package models

import "time"

// Photo is site imagery. Uploaded files live in blob storage under ImageKey and
// ThumbnailKey; ImageURL is used for photos registered by link only.
type Photo struct {
	ID           uint      `gorm:"primaryKey" json:"id"`
	SiteID       uint      `gorm:"index;not null" json:"siteId"`
	Title        string    `gorm:"size:200;not null" json:"title"`
	Description  string    `gorm:"size:1000" json:"description"`
	Category     string    `gorm:"size:100" json:"category"`
	ImageKey     string    `gorm:"size:255" json:"imageKey"`
	ThumbnailKey string    `gorm:"size:255" json:"thumbnailKey"`
	ImageURL     string    `gorm:"size:500" json:"imageUrl"`
	ContentType  string    `gorm:"size:100" json:"contentType"`
	UploadedBy   string    `gorm:"size:100" json:"uploadedBy"`
	UploadDate   time.Time `gorm:"index;not null" json:"uploadDate"`
}

func (p *Photo) PrimaryKey() uint      { return p.ID }
func (p *Photo) SetPrimaryKey(id uint) { p.ID = id }
func (p *Photo) Scope() Scope          { return Scope{SiteID: p.SiteID, Date: p.UploadDate} }
