package models

import (
	"time"
)

type Review struct {
	ID             uint      `gorm:"primaryKey" json:"id"`
	BusinessUserID uint      `gorm:"not null;uniqueIndex:idx_review_business_reviewer" json:"business_user"`
	BusinessUser   User      `gorm:"foreignKey:BusinessUserID" json:"-"`
	ReviewerID     uint      `gorm:"not null;uniqueIndex:idx_review_business_reviewer" json:"reviewer"`
	Reviewer       User      `gorm:"foreignKey:ReviewerID" json:"-"`
	Rating         int       `gorm:"not null" json:"rating"`
	Description    string    `gorm:"type:text;not null;default:''" json:"description"`
	CreatedAt      time.Time `json:"created_at"`
	UpdatedAt      time.Time `json:"updated_at"`
}
