package services

import (
	"database/sql"
	"math"

	"github.com/anjiri1684/coderr/models"
	"gorm.io/gorm"
)

type BaseInfo struct {
	ReviewCount          int64   `json:"review_count"`
	AverageRating        float64 `json:"average_rating"`
	BusinessProfileCount int64   `json:"business_profile_count"`
	OfferCount           int64   `json:"offer_count"`
}

// PlatformStats gathers the public counters shown on the landing page.
func PlatformStats(db *gorm.DB) (*BaseInfo, error) {
	var info BaseInfo

	if err := db.Model(&models.Review{}).Count(&info.ReviewCount).Error; err != nil {
		return nil, err
	}

	var avg sql.NullFloat64
	if err := db.Model(&models.Review{}).Select("AVG(rating)").Row().Scan(&avg); err != nil {
		return nil, err
	}
	if avg.Valid {
		info.AverageRating = math.Round(avg.Float64*10) / 10
	}

	if err := db.Model(&models.User{}).Where("role = ?", models.RoleBusiness).Count(&info.BusinessProfileCount).Error; err != nil {
		return nil, err
	}
	if err := db.Model(&models.Offer{}).Count(&info.OfferCount).Error; err != nil {
		return nil, err
	}
	return &info, nil
}

// CountOrders counts orders of businessID in the given status.
func CountOrders(db *gorm.DB, businessID uint, status string) (int64, error) {
	var n int64
	err := db.Model(&models.Order{}).
		Where("business_user_id = ? AND status = ?", businessID, status).
		Count(&n).Error
	return n, err
}
