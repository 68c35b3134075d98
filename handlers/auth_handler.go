package handlers

import (
	"encoding/json"
	"errors"
	"strings"

	"github.com/anjiri1684/coderr/database"
	"github.com/anjiri1684/coderr/models"
	"github.com/anjiri1684/coderr/notifications"
	"github.com/anjiri1684/coderr/services"
	"github.com/anjiri1684/coderr/utils"
	"github.com/gofiber/fiber/v2"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

const demoPassword = "demo123"

type guestAccount struct {
	role     string
	password string
}

var (
	demoUsernames = map[string]string{
		"demo_business": models.RoleBusiness,
		"demo_customer": models.RoleCustomer,
	}
	guestAccounts = map[string]guestAccount{
		"kevin":  {role: models.RoleBusiness, password: "asdasd24"},
		"andrey": {role: models.RoleCustomer, password: "asdasd"},
	}
)

type RegisterRequest struct {
	Username         string `json:"username" form:"username" validate:"required,max=150"`
	Email            string `json:"email" form:"email" validate:"required,email"`
	Password         string `json:"password" form:"password" validate:"required"`
	RepeatedPassword string `json:"repeated_password" form:"repeated_password" validate:"required"`
	Role             string `json:"role" form:"role" validate:"oneof=customer business"`
}

func RegisterUser(c *fiber.Ctx) error {
	var req RegisterRequest
	if err := c.BodyParser(&req); err != nil {
		return detail(c, fiber.StatusBadRequest, "Cannot parse request body.")
	}
	req.Username = strings.TrimSpace(req.Username)
	if req.Role == "" {
		req.Role = models.RoleCustomer
	}
	if err := validate.Struct(req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fieldErrors(err))
	}
	if req.Password != req.RepeatedPassword {
		return c.Status(fiber.StatusBadRequest).JSON(fieldError("repeated_password", "Passwords do not match."))
	}

	var taken int64
	if err := database.DB.Model(&models.User{}).Where("username = ?", req.Username).Count(&taken).Error; err != nil {
		return serverError(c, "check username", err)
	}
	if taken > 0 {
		return c.Status(fiber.StatusBadRequest).JSON(fieldError("username", "A user with that username already exists."))
	}

	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		return serverError(c, "hash password", err)
	}

	var newUser models.User
	var key string
	err = database.DB.Transaction(func(tx *gorm.DB) error {
		newUser = models.User{
			Username: req.Username,
			Email:    req.Email,
			Password: string(hashedPassword),
			Role:     req.Role,
		}
		if err := tx.Create(&newUser).Error; err != nil {
			return err
		}
		if _, err := services.EnsureProfile(tx, &newUser); err != nil {
			return err
		}
		key, err = utils.GetOrCreateToken(tx, &newUser)
		return err
	})
	if err != nil {
		return serverError(c, "create user", err)
	}

	go notifications.SendWelcome(newUser)

	return c.Status(fiber.StatusCreated).JSON(tokenResponse(&newUser, key))
}

func tokenResponse(user *models.User, key string) fiber.Map {
	return fiber.Map{
		"token":    key,
		"username": user.Username,
		"email":    user.Email,
		"user_id":  user.ID,
	}
}

// LoginUser resolves, in order: an empty body to both demo accounts, a lone
// role to that demo account, a demo username without password, the guest
// accounts, and finally regular username and password.
func LoginUser(c *fiber.Ctx) error {
	body := lenientBody(c)
	username := strings.TrimSpace(body["username"])
	password := body["password"]
	role := strings.ToLower(strings.TrimSpace(body["role"]))

	if username == "" && password == "" && role == "" {
		business, err := demoPayload(models.RoleBusiness)
		if err != nil {
			return serverError(c, "prepare demo account", err)
		}
		customer, err := demoPayload(models.RoleCustomer)
		if err != nil {
			return serverError(c, "prepare demo account", err)
		}
		return c.JSON(fiber.Map{"business": business, "customer": customer})
	}

	if (role == models.RoleBusiness || role == models.RoleCustomer) && username == "" && password == "" {
		payload, err := demoPayload(role)
		if err != nil {
			return serverError(c, "prepare demo account", err)
		}
		return c.JSON(payload)
	}

	if demoRole, ok := demoUsernames[username]; ok && password == "" {
		payload, err := demoPayload(demoRole)
		if err != nil {
			return serverError(c, "prepare demo account", err)
		}
		return c.JSON(payload)
	}

	if guest, ok := guestAccounts[username]; ok {
		if password == "" {
			password = guest.password
		}
		user := authenticate(username, password)
		if user == nil {
			var err error
			user, err = ensureGuestUser(username, password, guest.role)
			if err != nil {
				return serverError(c, "prepare guest account", err)
			}
		}
		return loginResponse(c, user)
	}

	user := authenticate(username, password)
	if user == nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid credentials"})
	}
	if _, err := services.EnsureProfile(database.DB, user); err != nil {
		return serverError(c, "load profile", err)
	}
	return loginResponse(c, user)
}

// lenientBody reads username, password and role from a JSON or form body.
// A body that cannot be decoded counts as empty.
func lenientBody(c *fiber.Ctx) map[string]string {
	out := map[string]string{}
	if strings.HasPrefix(c.Get(fiber.HeaderContentType), fiber.MIMEApplicationForm) {
		for _, key := range []string{"username", "password", "role"} {
			out[key] = c.FormValue(key)
		}
		return out
	}

	var raw map[string]interface{}
	if err := json.Unmarshal(c.Body(), &raw); err != nil {
		return out
	}
	for _, key := range []string{"username", "password", "role"} {
		if s, ok := raw[key].(string); ok {
			out[key] = s
		}
	}
	return out
}

func authenticate(username, password string) *models.User {
	if username == "" || password == "" {
		return nil
	}
	var user models.User
	if err := database.DB.Where("username = ?", username).First(&user).Error; err != nil {
		return nil
	}
	if !user.IsActive {
		return nil
	}
	if bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(password)) != nil {
		return nil
	}
	return &user
}

func loginResponse(c *fiber.Ctx, user *models.User) error {
	key, err := utils.GetOrCreateToken(database.DB, user)
	if err != nil {
		return serverError(c, "issue token", err)
	}
	return c.JSON(tokenResponse(user, key))
}

// findOrCreateUser returns the named account, creating it with role and password.
func findOrCreateUser(tx *gorm.DB, username, role, password string) (*models.User, bool, error) {
	var user models.User
	err := tx.Where("username = ?", username).First(&user).Error
	if err == nil {
		return &user, false, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, false, err
	}

	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, false, err
	}
	user = models.User{
		Username: username,
		Email:    username + "@example.com",
		Password: string(hashedPassword),
		Role:     role,
	}
	if err := tx.Create(&user).Error; err != nil {
		return nil, false, err
	}
	return &user, true, nil
}

func demoPayload(role string) (fiber.Map, error) {
	var payload fiber.Map
	err := database.DB.Transaction(func(tx *gorm.DB) error {
		user, _, err := findOrCreateUser(tx, "demo_"+role, role, demoPassword)
		if err != nil {
			return err
		}
		if _, err := services.EnsureProfile(tx, user); err != nil {
			return err
		}
		key, err := utils.GetOrCreateToken(tx, user)
		if err != nil {
			return err
		}
		payload = tokenResponse(user, key)
		payload["role"] = role
		return nil
	})
	return payload, err
}

// ensureGuestUser creates the guest account or resets its password to password.
func ensureGuestUser(username, password, role string) (*models.User, error) {
	var user *models.User
	err := database.DB.Transaction(func(tx *gorm.DB) error {
		found, created, err := findOrCreateUser(tx, username, role, password)
		if err != nil {
			return err
		}
		if !created {
			hashedPassword, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
			if err != nil {
				return err
			}
			found.Password = string(hashedPassword)
			found.IsActive = true
			if err := tx.Model(found).Select("password", "is_active").Updates(found).Error; err != nil {
				return err
			}
		}
		if _, err := services.EnsureProfile(tx, found); err != nil {
			return err
		}
		user = found
		return nil
	})
	return user, err
}
