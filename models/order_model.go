package models

import (
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/datatypes"
)

const (
	OrderStatusInProgress = "in_progress"
	OrderStatusCompleted  = "completed"
	OrderStatusCancelled  = "cancelled"
)

// Order is a snapshot of an OfferDetail taken when the customer placed it.
type Order struct {
	ID                 uint                        `gorm:"primaryKey" json:"id"`
	CustomerUserID     uint                        `gorm:"not null;index" json:"customer_user"`
	CustomerUser       User                        `gorm:"foreignKey:CustomerUserID" json:"-"`
	BusinessUserID     uint                        `gorm:"not null;index" json:"business_user"`
	BusinessUser       User                        `gorm:"foreignKey:BusinessUserID" json:"-"`
	Title              string                      `gorm:"size:255;not null" json:"title"`
	Revisions          int                         `gorm:"not null" json:"revisions"`
	DeliveryTimeInDays int                         `gorm:"not null" json:"delivery_time_in_days"`
	Price              decimal.Decimal             `gorm:"type:numeric(10,2);not null" json:"price"`
	Features           datatypes.JSONSlice[string] `json:"features"`
	OfferType          string                      `gorm:"size:20;not null" json:"offer_type"`
	Status             string                      `gorm:"size:20;not null;default:'in_progress'" json:"status"`
	CreatedAt          time.Time                   `json:"created_at"`
	UpdatedAt          time.Time                   `json:"updated_at"`
}

func ValidOrderStatus(s string) bool {
	switch s {
	case OrderStatusInProgress, OrderStatusCompleted, OrderStatusCancelled:
		return true
	}
	return false
}

func (o *Order) Involves(userID uint) bool {
	return o.CustomerUserID == userID || o.BusinessUserID == userID
}
