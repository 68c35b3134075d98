package utils

import (
	"errors"
	"fmt"
	"time"

	config "github.com/anjiri1684/coderr/configs"
	"github.com/anjiri1684/coderr/models"
	"github.com/golang-jwt/jwt/v4"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

const maxKeyAttempts = 5

// SignTokenKey builds a new signed key for user. Keys carry no expiry; they
// stay valid for as long as the matching auth_tokens row exists.
func SignTokenKey(user *models.User) (string, error) {
	claims := jwt.MapClaims{
		"user_id": user.ID,
		"role":    user.Role,
		"jti":     uuid.NewString(),
		"iat":     time.Now().Unix(),
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString([]byte(config.Config("JWT_SECRET")))
}

// GetOrCreateToken returns the key already issued to user, issuing one if needed.
func GetOrCreateToken(tx *gorm.DB, user *models.User) (string, error) {
	var existing models.AuthToken
	err := tx.Where("user_id = ?", user.ID).First(&existing).Error
	if err == nil {
		return existing.Key, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return "", err
	}

	for i := 0; i < maxKeyAttempts; i++ {
		key, err := SignTokenKey(user)
		if err != nil {
			return "", err
		}

		var count int64
		if err := tx.Model(&models.AuthToken{}).Where(&models.AuthToken{Key: key}).Count(&count).Error; err != nil {
			return "", err
		}
		if count > 0 {
			continue
		}

		token := models.AuthToken{Key: key, UserID: user.ID}
		if err := tx.Create(&token).Error; err != nil {
			return "", err
		}
		return key, nil
	}
	return "", fmt.Errorf("could not issue a unique token for user %d", user.ID)
}

// NewPublicID names an uploaded asset for the owning user.
func NewPublicID(prefix string, userID uint) string {
	return fmt.Sprintf("%s/%d_%s", prefix, userID, uuid.NewString())
}
