package models

import (
	"time"
)

type UserProfile struct {
	ID           uint       `gorm:"primaryKey"`
	UserID       uint       `gorm:"not null;uniqueIndex"`
	User         User       `gorm:"foreignKey:UserID"`
	IsCustomer   bool       `gorm:"not null"`
	File         *string    `gorm:"size:500"`
	UploadedAt   *time.Time
	FirstName    string     `gorm:"size:100;not null;default:''"`
	LastName     string     `gorm:"size:100;not null;default:''"`
	Location     string     `gorm:"size:255;not null;default:''"`
	Tel          string     `gorm:"size:50;not null;default:''"`
	Description  string     `gorm:"type:text;not null;default:''"`
	WorkingHours string     `gorm:"size:100;not null;default:''"`
	CreatedAt    time.Time
}

// FileURL renders a missing upload as an empty string.
func (p *UserProfile) FileURL() string {
	if p.File == nil {
		return ""
	}
	return *p.File
}
