package services

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/anjiri1684/coderr/models"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// MinOfferDetails is the number of tiers an offer needs at creation.
const MinOfferDetails = 3

// DetailInput is one tier as sent by the client. Nil fields were not provided.
type DetailInput struct {
	ID                 *uint            `json:"id"`
	Title              *string          `json:"title"`
	Revisions          *int             `json:"revisions"`
	DeliveryTimeInDays *int             `json:"delivery_time_in_days"`
	Price              *decimal.Decimal `json:"price"`
	Features           *[]string        `json:"features"`
	OfferType          *string          `json:"offer_type"`

	nulls []string
}

var detailFields = []string{"title", "revisions", "delivery_time_in_days", "price", "features", "offer_type"}

// UnmarshalJSON decodes a tier and remembers which fields were sent as null.
func (d *DetailInput) UnmarshalJSON(data []byte) error {
	type plain DetailInput
	var decoded plain
	if err := json.Unmarshal(data, &decoded); err != nil {
		return err
	}
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(data, &fields); err != nil {
		return err
	}
	*d = DetailInput(decoded)
	d.nulls = nil
	for _, name := range detailFields {
		if raw, ok := fields[name]; ok && bytes.Equal(bytes.TrimSpace(raw), []byte("null")) {
			d.nulls = append(d.nulls, name)
		}
	}
	return nil
}

// DetailError reports a tier that cannot be stored as sent.
type DetailError struct {
	Message string
}

func (e *DetailError) Error() string { return e.Message }

// MissingFields lists the fields a new tier needs but does not have.
func (d DetailInput) MissingFields() []string {
	var missing []string
	if d.Title == nil || *d.Title == "" {
		missing = append(missing, "title")
	}
	if d.Revisions == nil {
		missing = append(missing, "revisions")
	}
	if d.DeliveryTimeInDays == nil {
		missing = append(missing, "delivery_time_in_days")
	}
	if d.Price == nil {
		missing = append(missing, "price")
	}
	if d.Features == nil {
		missing = append(missing, "features")
	}
	if d.OfferType == nil || *d.OfferType == "" {
		missing = append(missing, "offer_type")
	}
	return missing
}

// Check validates the provided fields; complete also demands every field.
func (d DetailInput) Check(complete bool) error {
	if len(d.nulls) > 0 {
		return &DetailError{Message: "Missing fields: " + strings.Join(d.nulls, ", ")}
	}
	if complete {
		if missing := d.MissingFields(); len(missing) > 0 {
			return &DetailError{Message: "Missing fields: " + strings.Join(missing, ", ")}
		}
	}
	if d.OfferType != nil && !models.ValidOfferType(*d.OfferType) {
		return &DetailError{Message: fmt.Sprintf("%q is not a valid offer_type.", *d.OfferType)}
	}
	if d.Revisions != nil && *d.Revisions < -1 {
		return &DetailError{Message: "revisions must be -1 (unlimited) or greater."}
	}
	if d.DeliveryTimeInDays != nil && *d.DeliveryTimeInDays < 1 {
		return &DetailError{Message: "delivery_time_in_days must be at least 1."}
	}
	if d.Price != nil && d.Price.IsNegative() {
		return &DetailError{Message: "price must not be negative."}
	}
	return nil
}

// ApplyTo copies the provided fields onto detail.
func (d DetailInput) ApplyTo(detail *models.OfferDetail) {
	if d.Title != nil {
		detail.Title = *d.Title
	}
	if d.Revisions != nil {
		detail.Revisions = *d.Revisions
	}
	if d.DeliveryTimeInDays != nil {
		detail.DeliveryTimeInDays = *d.DeliveryTimeInDays
	}
	if d.Price != nil {
		detail.Price = d.Price.Round(2)
	}
	if d.Features != nil {
		detail.Features = append([]string{}, (*d.Features)...)
	}
	if d.OfferType != nil {
		detail.OfferType = *d.OfferType
	}
}

// CheckDetailsForCreate enforces the tier count and completeness of each tier.
func CheckDetailsForCreate(details []DetailInput) error {
	if len(details) < MinOfferDetails {
		return &DetailError{Message: "At least 3 offer details are required."}
	}
	for _, d := range details {
		if err := d.Check(true); err != nil {
			return err
		}
	}
	return nil
}

// CreateOffer stores offer with its tiers and aggregates. Run it inside a transaction.
func CreateOffer(tx *gorm.DB, offer *models.Offer, details []DetailInput) error {
	if err := CheckDetailsForCreate(details); err != nil {
		return err
	}

	offer.Details = make([]models.OfferDetail, 0, len(details))
	for _, d := range details {
		var detail models.OfferDetail
		d.ApplyTo(&detail)
		offer.Details = append(offer.Details, detail)
	}
	offer.RecomputeAggregates(offer.Details)

	return tx.Create(offer).Error
}

// MergeDetails updates tiers matched by id, then by offer_type, and creates
// the rest. Aggregates are recomputed over the resulting tier set.
func MergeDetails(tx *gorm.DB, offer *models.Offer, details []DetailInput) error {
	var existing []models.OfferDetail
	if err := tx.Where("offer_id = ?", offer.ID).Order("id").Find(&existing).Error; err != nil {
		return err
	}

	byID := make(map[uint]int, len(existing))
	byType := make(map[string]int, len(existing))
	for i, d := range existing {
		byID[d.ID] = i
		if _, seen := byType[d.OfferType]; !seen {
			byType[d.OfferType] = i
		}
	}

	for _, in := range details {
		idx, found := -1, false
		if in.ID != nil {
			idx, found = byID[*in.ID]
		}
		if !found && in.OfferType != nil {
			idx, found = byType[*in.OfferType]
		}

		if found {
			if err := in.Check(false); err != nil {
				return err
			}
			in.ApplyTo(&existing[idx])
			if err := tx.Save(&existing[idx]).Error; err != nil {
				return err
			}
			continue
		}

		if err := in.Check(true); err != nil {
			return err
		}
		detail := models.OfferDetail{OfferID: offer.ID}
		in.ApplyTo(&detail)
		if err := tx.Create(&detail).Error; err != nil {
			return err
		}
		existing = append(existing, detail)
		byID[detail.ID] = len(existing) - 1
		if _, seen := byType[detail.OfferType]; !seen {
			byType[detail.OfferType] = len(existing) - 1
		}
	}

	offer.Details = existing
	return RefreshAggregates(tx, offer)
}

// RefreshAggregates reloads the offer's tiers and persists min_price and
// min_delivery_time. An offer without tiers keeps its stored values.
func RefreshAggregates(tx *gorm.DB, offer *models.Offer) error {
	var details []models.OfferDetail
	if err := tx.Where("offer_id = ?", offer.ID).Find(&details).Error; err != nil {
		return err
	}
	if !offer.RecomputeAggregates(details) {
		return nil
	}
	return tx.Model(offer).
		Select("min_price", "min_delivery_time").
		Updates(map[string]interface{}{
			"min_price":         offer.MinPrice,
			"min_delivery_time": offer.MinDeliveryTime,
		}).Error
}

// DeleteOffer removes offer and its tiers.
func DeleteOffer(tx *gorm.DB, offer *models.Offer) error {
	if err := tx.Where("offer_id = ?", offer.ID).Delete(&models.OfferDetail{}).Error; err != nil {
		return err
	}
	return tx.Delete(offer).Error
}

// ReconcileAggregates recomputes stored aggregates for every offer whose
// values drifted from its tiers and returns how many were fixed.
func ReconcileAggregates(db *gorm.DB) (int, error) {
	var offers []models.Offer
	if err := db.Preload("Details").Find(&offers).Error; err != nil {
		return 0, err
	}

	fixed := 0
	for i := range offers {
		offer := &offers[i]
		before := offer.MinPrice
		beforeDays := offer.MinDeliveryTime
		if !offer.RecomputeAggregates(offer.Details) {
			continue
		}
		if aggregatesEqual(before, beforeDays, offer) {
			continue
		}
		err := db.Model(offer).
			Select("min_price", "min_delivery_time").
			Updates(map[string]interface{}{
				"min_price":         offer.MinPrice,
				"min_delivery_time": offer.MinDeliveryTime,
			}).Error
		if err != nil {
			return fixed, err
		}
		fixed++
	}
	return fixed, nil
}

func aggregatesEqual(price decimal.NullDecimal, days *int, offer *models.Offer) bool {
	if price.Valid != offer.MinPrice.Valid || !price.Decimal.Equal(offer.MinPrice.Decimal) {
		return false
	}
	if days == nil || offer.MinDeliveryTime == nil {
		return days == offer.MinDeliveryTime
	}
	return *days == *offer.MinDeliveryTime
}
