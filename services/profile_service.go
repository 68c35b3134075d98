package services

import (
	"errors"
	"strconv"
	"strings"

	"github.com/anjiri1684/coderr/models"
	"gorm.io/gorm"
)

// EnsureProfile returns user's profile, creating an empty one on first use.
func EnsureProfile(tx *gorm.DB, user *models.User) (*models.UserProfile, error) {
	var profile models.UserProfile
	err := tx.Where("user_id = ?", user.ID).First(&profile).Error
	if err == nil {
		return &profile, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}

	profile = models.UserProfile{
		UserID:     user.ID,
		IsCustomer: user.IsCustomer(),
	}
	if err := tx.Omit("User").Create(&profile).Error; err != nil {
		return nil, err
	}
	return &profile, nil
}

// ParseUserRef reads a numeric id or a "ref<id>" reference. ok is false for
// anything else, which callers treat as a username.
func ParseUserRef(ref string) (id uint, ok bool) {
	raw := strings.TrimPrefix(ref, "ref")
	n, err := strconv.ParseUint(raw, 10, 64)
	if err != nil || n == 0 {
		return 0, false
	}
	return uint(n), true
}

// FindUserByRef looks a user up by id, "ref<id>" or username.
func FindUserByRef(db *gorm.DB, ref string) (*models.User, error) {
	var user models.User
	query := db.Model(&models.User{})
	if id, ok := ParseUserRef(ref); ok {
		query = query.Where("id = ?", id)
	} else {
		query = query.Where("username = ?", ref)
	}
	if err := query.First(&user).Error; err != nil {
		return nil, err
	}
	return &user, nil
}

// EnsureBusinessProfiles creates placeholder profiles for business accounts
// that have none yet.
func EnsureBusinessProfiles(db *gorm.DB) error {
	var missing []models.User
	err := db.Where("role = ?", models.RoleBusiness).
		Where("id NOT IN (?)", db.Model(&models.UserProfile{}).Select("user_id")).
		Find(&missing).Error
	if err != nil {
		return err
	}
	for i := range missing {
		if _, err := EnsureProfile(db, &missing[i]); err != nil {
			return err
		}
	}
	return nil
}
