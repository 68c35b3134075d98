package models

import (
	"time"
)

const (
	RoleCustomer = "customer"
	RoleBusiness = "business"
)

type User struct {
	ID       uint   `gorm:"primaryKey" json:"id"`
	Username string `gorm:"size:150;not null;uniqueIndex" json:"username"`
	Email    string `gorm:"size:254" json:"email"`
	Password string `gorm:"not null" json:"-"`
	Role     string `gorm:"size:20;not null;default:'customer'" json:"role"`
	IsStaff  bool   `gorm:"default:false" json:"is_staff"`
	IsActive bool   `gorm:"default:true" json:"is_active"`

	Profile *UserProfile `gorm:"foreignKey:UserID" json:"-"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (u *User) IsCustomer() bool {
	return u.Role == RoleCustomer
}

func (u *User) IsBusiness() bool {
	return u.Role == RoleBusiness
}

// AuthToken is the single API key issued to a user.
type AuthToken struct {
	ID        uint      `gorm:"primaryKey"`
	Key       string    `gorm:"size:512;not null;uniqueIndex"`
	UserID    uint      `gorm:"not null;uniqueIndex"`
	User      User      `gorm:"foreignKey:UserID"`
	CreatedAt time.Time
}
