package models

type UserRole string

const (
	RoleAdmin UserRole = "admin"
)

type User struct {
	ID           uint     `gorm:"primaryKey" json:"id"`
	Username     string   `gorm:"size:100;uniqueIndex;not null" json:"username"`
	Name         string   `gorm:"size:100;not null" json:"name"`
	PasswordHash string   `gorm:"size:255;not null" json:"-"`
	Role         UserRole `gorm:"size:20;not null" json:"role"`
	Timestamps
}

func (u *User) PrimaryKey() uint      { return u.ID }
func (u *User) SetPrimaryKey(id uint) { u.ID = id }
func (u *User) Scope() Scope          { return Scope{} }
