package models

import (
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/datatypes"
)

const (
	OfferTypeBasic    = "basic"
	OfferTypeStandard = "standard"
	OfferTypePremium  = "premium"
)

func init() {
	// prices go out as JSON numbers, whole values without a fraction
	decimal.MarshalJSONWithoutQuotes = true
}

type Offer struct {
	ID              uint                `gorm:"primaryKey" json:"id"`
	UserID          uint                `gorm:"not null;index" json:"user"`
	User            User                `gorm:"foreignKey:UserID" json:"-"`
	Title           string              `gorm:"size:255;not null" json:"title"`
	Image           *string             `gorm:"size:500" json:"image"`
	Description     string              `gorm:"type:text;not null;default:''" json:"description"`
	MinPrice        decimal.NullDecimal `gorm:"type:numeric(10,2)" json:"min_price"`
	MinDeliveryTime *int                `json:"min_delivery_time"`
	Details         []OfferDetail       `gorm:"foreignKey:OfferID" json:"-"`
	CreatedAt       time.Time           `json:"created_at"`
	UpdatedAt       time.Time           `json:"updated_at"`
}

// RecomputeAggregates sets MinPrice and MinDeliveryTime from details.
// It reports false and leaves the offer untouched when details is empty.
func (o *Offer) RecomputeAggregates(details []OfferDetail) bool {
	if len(details) == 0 {
		return false
	}
	minPrice := details[0].Price
	minDays := details[0].DeliveryTimeInDays
	for _, d := range details[1:] {
		if d.Price.LessThan(minPrice) {
			minPrice = d.Price
		}
		if d.DeliveryTimeInDays < minDays {
			minDays = d.DeliveryTimeInDays
		}
	}
	o.MinPrice = decimal.NewNullDecimal(minPrice)
	o.MinDeliveryTime = &minDays
	return true
}

type OfferDetail struct {
	ID                 uint                        `gorm:"primaryKey" json:"id"`
	OfferID            uint                        `gorm:"not null;index" json:"-"`
	Title              string                      `gorm:"size:255;not null" json:"title"`
	Revisions          int                         `gorm:"not null" json:"revisions"`
	DeliveryTimeInDays int                         `gorm:"not null" json:"delivery_time_in_days"`
	Price              decimal.Decimal             `gorm:"type:numeric(10,2);not null" json:"price"`
	Features           datatypes.JSONSlice[string] `json:"features"`
	OfferType          string                      `gorm:"size:20;not null" json:"offer_type"`
}

func ValidOfferType(t string) bool {
	switch t {
	case OfferTypeBasic, OfferTypeStandard, OfferTypePremium:
		return true
	}
	return false
}
