package handlers

import (
	"errors"
	"strings"
	"time"

	"github.com/anjiri1684/coderr/database"
	"github.com/anjiri1684/coderr/media"
	"github.com/anjiri1684/coderr/middleware"
	"github.com/anjiri1684/coderr/models"
	"github.com/anjiri1684/coderr/services"
	"github.com/anjiri1684/coderr/utils"
	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"
)

type ProfileResponse struct {
	User         uint      `json:"user"`
	Username     string    `json:"username"`
	FirstName    string    `json:"first_name"`
	LastName     string    `json:"last_name"`
	File         string    `json:"file"`
	Location     string    `json:"location"`
	Tel          string    `json:"tel"`
	Description  string    `json:"description"`
	WorkingHours string    `json:"working_hours"`
	Type         string    `json:"type"`
	Email        string    `json:"email"`
	CreatedAt    time.Time `json:"created_at"`
}

type BusinessProfileItem struct {
	User         uint   `json:"user"`
	Username     string `json:"username"`
	FirstName    string `json:"first_name"`
	LastName     string `json:"last_name"`
	File         string `json:"file"`
	Location     string `json:"location"`
	Tel          string `json:"tel"`
	Description  string `json:"description"`
	WorkingHours string `json:"working_hours"`
	Type         string `json:"type"`
}

type CustomerProfileItem struct {
	User       uint       `json:"user"`
	Username   string     `json:"username"`
	FirstName  string     `json:"first_name"`
	LastName   string     `json:"last_name"`
	File       string     `json:"file"`
	UploadedAt *time.Time `json:"uploaded_at"`
	Type       string     `json:"type"`
}

// ProfilePatch lists the editable profile fields. Nil fields are left alone.
type ProfilePatch struct {
	FirstName    *string `json:"first_name" form:"first_name" validate:"omitempty,max=50"`
	LastName     *string `json:"last_name" form:"last_name" validate:"omitempty,max=50"`
	Location     *string `json:"location" form:"location" validate:"omitempty,max=100"`
	Tel          *string `json:"tel" form:"tel" validate:"omitempty,max=30"`
	Description  *string `json:"description" form:"description"`
	WorkingHours *string `json:"working_hours" form:"working_hours" validate:"omitempty,max=100"`
	Email        *string `json:"email" form:"email" validate:"omitempty,email"`
}

func toProfileResponse(p *models.UserProfile) ProfileResponse {
	return ProfileResponse{
		User:         p.UserID,
		Username:     p.User.Username,
		FirstName:    p.FirstName,
		LastName:     p.LastName,
		File:         p.FileURL(),
		Location:     p.Location,
		Tel:          p.Tel,
		Description:  p.Description,
		WorkingHours: p.WorkingHours,
		Type:         p.User.Role,
		Email:        p.User.Email,
		CreatedAt:    p.CreatedAt,
	}
}

func loadProfile(db *gorm.DB, user *models.User) (*models.UserProfile, error) {
	profile, err := services.EnsureProfile(db, user)
	if err != nil {
		return nil, err
	}
	profile.User = *user
	return profile, nil
}

// profileByRef resolves the route's ref, optionally restricted to business accounts.
func profileByRef(c *fiber.Ctx, businessOnly bool) (*models.UserProfile, error) {
	query := database.DB
	if businessOnly {
		query = query.Where("role = ?", models.RoleBusiness)
	}
	user, err := services.FindUserByRef(query, c.Params("ref"))
	if err != nil {
		return nil, lookupError(c, "fetch profile", err)
	}
	profile, err := loadProfile(database.DB, user)
	if err != nil {
		return nil, serverError(c, "load profile", err)
	}
	return profile, nil
}

func GetProfile(c *fiber.Ctx) error {
	profile, err := profileByRef(c, false)
	if profile == nil {
		return err
	}
	return c.JSON(toProfileResponse(profile))
}

func GetBusinessProfile(c *fiber.Ctx) error {
	profile, err := profileByRef(c, true)
	if profile == nil {
		return err
	}
	return c.JSON(toProfileResponse(profile))
}

func UpdateProfile(c *fiber.Ctx) error {
	profile, err := profileByRef(c, false)
	if profile == nil {
		return err
	}
	return patchProfile(c, profile)
}

func UpdateBusinessProfile(c *fiber.Ctx) error {
	profile, err := profileByRef(c, true)
	if profile == nil {
		return err
	}
	return patchProfile(c, profile)
}

// FirstBusinessProfile returns the profile of the first business account.
func FirstBusinessProfile(c *fiber.Ctx) error {
	var profile models.UserProfile
	err := database.DB.
		Joins("JOIN users ON users.id = user_profiles.user_id").
		Where("users.role = ?", models.RoleBusiness).
		Preload("User").
		Order("user_profiles.id").
		First(&profile).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return detail(c, fiber.StatusNotFound, "No business profile found")
		}
		return serverError(c, "fetch business profile", err)
	}
	return c.JSON(toProfileResponse(&profile))
}

func patchProfile(c *fiber.Ctx, profile *models.UserProfile) error {
	if profile.UserID != middleware.CurrentUser(c).ID {
		return detail(c, fiber.StatusForbidden, "You do not have permission to perform this action.")
	}

	var req ProfilePatch
	if len(c.Body()) > 0 {
		if err := c.BodyParser(&req); err != nil {
			return detail(c, fiber.StatusBadRequest, "Cannot parse request body.")
		}
	}
	if err := validate.Struct(req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fieldErrors(err))
	}

	updates := map[string]interface{}{}
	for column, value := range map[string]*string{
		"first_name":    req.FirstName,
		"last_name":     req.LastName,
		"location":      req.Location,
		"tel":           req.Tel,
		"description":   req.Description,
		"working_hours": req.WorkingHours,
	} {
		if value != nil {
			updates[column] = *value
		}
	}

	if fileHeader, err := c.FormFile("file"); err == nil {
		if media.Store == nil {
			return c.Status(fiber.StatusServiceUnavailable).JSON(fieldError("file", "File uploads are not configured."))
		}
		file, err := fileHeader.Open()
		if err != nil {
			return c.Status(fiber.StatusBadRequest).JSON(fieldError("file", "The submitted file could not be read."))
		}
		defer file.Close()

		url, err := media.Store.Upload(c.UserContext(), file, utils.NewPublicID("profiles", profile.UserID))
		if err != nil {
			return serverError(c, "upload profile file", err)
		}
		updates["file"] = url
		updates["uploaded_at"] = time.Now()
	}

	err := database.DB.Transaction(func(tx *gorm.DB) error {
		if len(updates) > 0 {
			if err := tx.Model(&models.UserProfile{}).Where("id = ?", profile.ID).Updates(updates).Error; err != nil {
				return err
			}
		}
		if req.Email != nil && *req.Email != "" {
			if err := tx.Model(&models.User{}).Where("id = ?", profile.UserID).Update("email", *req.Email).Error; err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return serverError(c, "update profile", err)
	}

	var updated models.UserProfile
	if err := database.DB.Preload("User").First(&updated, profile.ID).Error; err != nil {
		return serverError(c, "reload profile", err)
	}
	return c.JSON(toProfileResponse(&updated))
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, "%", `\%`, "_", `\_`)

// containsPattern builds a LIKE pattern matching term literally.
func containsPattern(term string) string {
	return "%" + likeEscaper.Replace(term) + "%"
}

func profileSearch(query *gorm.DB, term string, columns ...string) *gorm.DB {
	term = strings.ToLower(strings.TrimSpace(term))
	if term == "" {
		return query
	}
	like := containsPattern(term)
	clauses := make([]string, len(columns))
	args := make([]interface{}, len(columns))
	for i, col := range columns {
		clauses[i] = "LOWER(" + col + ") LIKE ? ESCAPE '\\'"
		args[i] = like
	}
	return query.Where("("+strings.Join(clauses, " OR ")+")", args...)
}

func profilesByRole(role string) *gorm.DB {
	return database.DB.
		Joins("JOIN users ON users.id = user_profiles.user_id").
		Where("users.role = ?", role).
		Preload("User").
		Order("users.id")
}

func GetBusinessProfiles(c *fiber.Ctx) error {
	if err := services.EnsureBusinessProfiles(database.DB); err != nil {
		return serverError(c, "prepare business profiles", err)
	}

	query := profileSearch(profilesByRole(models.RoleBusiness), c.Query("search"),
		"users.username", "user_profiles.first_name", "user_profiles.last_name", "user_profiles.location")

	var profiles []models.UserProfile
	if err := query.Find(&profiles).Error; err != nil {
		return serverError(c, "fetch business profiles", err)
	}

	items := make([]BusinessProfileItem, 0, len(profiles))
	for _, p := range profiles {
		items = append(items, BusinessProfileItem{
			User:         p.UserID,
			Username:     p.User.Username,
			FirstName:    p.FirstName,
			LastName:     p.LastName,
			File:         p.FileURL(),
			Location:     p.Location,
			Tel:          p.Tel,
			Description:  p.Description,
			WorkingHours: p.WorkingHours,
			Type:         p.User.Role,
		})
	}
	return c.JSON(items)
}

func GetCustomerProfiles(c *fiber.Ctx) error {
	query := profileSearch(profilesByRole(models.RoleCustomer), c.Query("search"),
		"users.username", "user_profiles.first_name", "user_profiles.last_name")

	var profiles []models.UserProfile
	if err := query.Find(&profiles).Error; err != nil {
		return serverError(c, "fetch customer profiles", err)
	}

	items := make([]CustomerProfileItem, 0, len(profiles))
	for _, p := range profiles {
		items = append(items, CustomerProfileItem{
			User:       p.UserID,
			Username:   p.User.Username,
			FirstName:  p.FirstName,
			LastName:   p.LastName,
			File:       p.FileURL(),
			UploadedAt: p.UploadedAt,
			Type:       p.User.Role,
		})
	}
	return c.JSON(items)
}
