package handlers

import (
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/anjiri1684/coderr/database"
	"github.com/anjiri1684/coderr/middleware"
	"github.com/anjiri1684/coderr/models"
	"github.com/anjiri1684/coderr/services"
	"github.com/gofiber/fiber/v2"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

type UserDetails struct {
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
	Username  string `json:"username"`
}

type OfferDetailLink struct {
	ID  uint   `json:"id"`
	URL string `json:"url"`
}

type OfferListItem struct {
	ID              uint                `json:"id"`
	User            uint                `json:"user"`
	Title           string              `json:"title"`
	Image           *string             `json:"image"`
	Description     string              `json:"description"`
	CreatedAt       time.Time           `json:"created_at"`
	UpdatedAt       time.Time           `json:"updated_at"`
	CreatedAtAlias  time.Time           `json:"createdAt"`
	UpdatedAtAlias  time.Time           `json:"updatedAt"`
	Details         []OfferDetailLink   `json:"details"`
	MinPrice        decimal.NullDecimal `json:"min_price"`
	MinDeliveryTime *int                `json:"min_delivery_time"`
	UserDetails     UserDetails         `json:"user_details"`
}

type OfferResponse struct {
	ID              uint                 `json:"id"`
	User            uint                 `json:"user"`
	Title           string               `json:"title"`
	Image           *string              `json:"image"`
	Description     string               `json:"description"`
	CreatedAt       time.Time            `json:"created_at"`
	UpdatedAt       time.Time            `json:"updated_at"`
	Details         []models.OfferDetail `json:"details"`
	MinPrice        decimal.NullDecimal  `json:"min_price"`
	MinDeliveryTime *int                 `json:"min_delivery_time"`
	UserDetails     UserDetails          `json:"user_details"`
}

type OfferCreatedResponse struct {
	ID              uint                 `json:"id"`
	Title           string               `json:"title"`
	Image           *string              `json:"image"`
	Description     string               `json:"description"`
	Details         []models.OfferDetail `json:"details"`
	MinPrice        decimal.NullDecimal  `json:"min_price"`
	MinDeliveryTime *int                 `json:"min_delivery_time"`
}

type CreateOfferRequest struct {
	Title       string                 `json:"title" validate:"required,max=255"`
	Image       *string                `json:"image"`
	Description string                 `json:"description" validate:"required"`
	Details     []services.DetailInput `json:"details"`
}

func userDetailsOf(user *models.User) UserDetails {
	d := UserDetails{Username: user.Username}
	if user.Profile != nil {
		d.FirstName = user.Profile.FirstName
		d.LastName = user.Profile.LastName
	}
	return d
}

func detailsOrEmpty(details []models.OfferDetail) []models.OfferDetail {
	if details == nil {
		return []models.OfferDetail{}
	}
	return details
}

func toOfferListItem(o *models.Offer) OfferListItem {
	links := make([]OfferDetailLink, 0, len(o.Details))
	for _, d := range o.Details {
		links = append(links, OfferDetailLink{ID: d.ID, URL: fmt.Sprintf("/offerdetails/%d/", d.ID)})
	}
	return OfferListItem{
		ID:              o.ID,
		User:            o.UserID,
		Title:           o.Title,
		Image:           o.Image,
		Description:     o.Description,
		CreatedAt:       o.CreatedAt,
		UpdatedAt:       o.UpdatedAt,
		CreatedAtAlias:  o.CreatedAt,
		UpdatedAtAlias:  o.UpdatedAt,
		Details:         links,
		MinPrice:        o.MinPrice,
		MinDeliveryTime: o.MinDeliveryTime,
		UserDetails:     userDetailsOf(&o.User),
	}
}

func toOfferResponse(o *models.Offer) OfferResponse {
	return OfferResponse{
		ID:              o.ID,
		User:            o.UserID,
		Title:           o.Title,
		Image:           o.Image,
		Description:     o.Description,
		CreatedAt:       o.CreatedAt,
		UpdatedAt:       o.UpdatedAt,
		Details:         detailsOrEmpty(o.Details),
		MinPrice:        o.MinPrice,
		MinDeliveryTime: o.MinDeliveryTime,
		UserDetails:     userDetailsOf(&o.User),
	}
}

func orderedDetails(db *gorm.DB) *gorm.DB {
	return db.Order("offer_details.id")
}

func loadOffer(db *gorm.DB, id uint) (*models.Offer, error) {
	var offer models.Offer
	err := db.Preload("User.Profile").
		Preload("Details", orderedDetails).
		First(&offer, id).Error
	if err != nil {
		return nil, err
	}
	return &offer, nil
}

var offerOrderings = map[string]string{
	"updated_at":  "offers.updated_at",
	"-updated_at": "offers.updated_at DESC",
	"min_price":   "offers.min_price",
	"-min_price":  "offers.min_price DESC",
}

// GetOffers lists offers with filters, search, ordering and pagination.
func GetOffers(c *fiber.Ctx) error {
	query := database.DB.Model(&models.Offer{})

	creatorID, present, ok := uintQuery(c, "creator_id")
	if !ok {
		return c.Status(fiber.StatusBadRequest).JSON(fieldError("creator_id", "Enter a number."))
	}
	if present {
		query = query.Where("offers.user_id = ?", creatorID)
	}

	if raw := c.Query("min_price"); raw != "" {
		minPrice, err := decimal.NewFromString(raw)
		if err != nil {
			return c.Status(fiber.StatusBadRequest).JSON(fieldError("min_price", "Enter a number."))
		}
		query = query.Where("offers.min_price >= ?", minPrice)
	}

	if raw := c.Query("max_delivery_time"); raw != "" {
		days, err := strconv.Atoi(raw)
		if err != nil {
			return c.Status(fiber.StatusBadRequest).JSON(fieldError("max_delivery_time", "Enter a number."))
		}
		query = query.Where("offers.min_delivery_time <= ?", days)
	}

	if term := strings.ToLower(strings.TrimSpace(c.Query("search"))); term != "" {
		like := containsPattern(term)
		matchingDetails := database.DB.Model(&models.OfferDetail{}).
			Select("offer_id").
			Where(`LOWER(title) LIKE ? ESCAPE '\' OR LOWER(CAST(features AS TEXT)) LIKE ? ESCAPE '\' OR LOWER(offer_type) LIKE ? ESCAPE '\'`, like, like, like)
		matchingUsers := database.DB.Model(&models.User{}).
			Select("id").
			Where(`LOWER(username) LIKE ? ESCAPE '\'`, like)
		query = query.Where(
			`(LOWER(offers.title) LIKE ? ESCAPE '\' OR LOWER(offers.description) LIKE ? ESCAPE '\' OR offers.id IN (?) OR offers.user_id IN (?))`,
			like, like, matchingDetails, matchingUsers,
		)
	}

	ordering, known := offerOrderings[c.Query("ordering")]
	if !known {
		ordering = offerOrderings["-updated_at"]
	}

	page, ok := readPage(c)
	if !ok {
		return detail(c, fiber.StatusNotFound, "Invalid page.")
	}

	base := query.Session(&gorm.Session{})
	var total int64
	if err := base.Count(&total).Error; err != nil {
		return serverError(c, "count offers", err)
	}
	if page.number > lastPage(total, page.size) {
		return detail(c, fiber.StatusNotFound, "Invalid page.")
	}

	var offers []models.Offer
	err := base.
		Preload("User.Profile").
		Preload("Details", orderedDetails).
		Order(ordering).
		Order("offers.id DESC").
		Offset(page.offset()).
		Limit(page.size).
		Find(&offers).Error
	if err != nil {
		return serverError(c, "fetch offers", err)
	}

	results := make([]OfferListItem, 0, len(offers))
	for i := range offers {
		results = append(results, toOfferListItem(&offers[i]))
	}
	return c.JSON(newPage(c, page, total, results))
}

func CreateOffer(c *fiber.Ctx) error {
	user := middleware.CurrentUser(c)

	var req CreateOfferRequest
	if err := c.BodyParser(&req); err != nil {
		return detail(c, fiber.StatusBadRequest, "Cannot parse request body.")
	}
	if err := validate.Struct(req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fieldErrors(err))
	}

	offer := models.Offer{
		UserID:      user.ID,
		Title:       req.Title,
		Image:       req.Image,
		Description: req.Description,
	}
	err := database.DB.Transaction(func(tx *gorm.DB) error {
		return services.CreateOffer(tx, &offer, req.Details)
	})
	if err != nil {
		var detailErr *services.DetailError
		if errors.As(err, &detailErr) {
			return c.Status(fiber.StatusBadRequest).JSON(fieldError("details", detailErr.Message))
		}
		return serverError(c, "create offer", err)
	}

	return c.Status(fiber.StatusCreated).JSON(OfferCreatedResponse{
		ID:              offer.ID,
		Title:           offer.Title,
		Image:           offer.Image,
		Description:     offer.Description,
		Details:         detailsOrEmpty(offer.Details),
		MinPrice:        offer.MinPrice,
		MinDeliveryTime: offer.MinDeliveryTime,
	})
}

func GetOffer(c *fiber.Ctx) error {
	id, ok := idParam(c, "id")
	if !ok {
		return notFound(c)
	}
	offer, err := loadOffer(database.DB, id)
	if err != nil {
		return lookupError(c, "fetch offer", err)
	}
	return c.JSON(toOfferResponse(offer))
}

// ownedOffer loads the offer named in the route and checks the requester owns it.
func ownedOffer(c *fiber.Ctx) (*models.Offer, error) {
	id, ok := idParam(c, "id")
	if !ok {
		return nil, notFound(c)
	}
	offer, err := loadOffer(database.DB, id)
	if err != nil {
		return nil, lookupError(c, "fetch offer", err)
	}
	if offer.UserID != middleware.CurrentUser(c).ID {
		return nil, detail(c, fiber.StatusForbidden, "You do not have permission to perform this action.")
	}
	return offer, nil
}

// offerPatch holds the decoded PATCH body. Nil fields were not sent.
type offerPatch struct {
	updates map[string]interface{}
	details []services.DetailInput
	touched bool
}

func parseOfferPatch(body []byte) (*offerPatch, fiber.Map) {
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(body, &raw); err != nil {
		return nil, fiber.Map{"detail": "Cannot parse request body."}
	}

	patch := &offerPatch{updates: map[string]interface{}{}}

	if v, ok := raw["title"]; ok {
		var title string
		if string(v) == "null" || json.Unmarshal(v, &title) != nil {
			return nil, fieldError("title", "Must be a string.")
		}
		if strings.TrimSpace(title) == "" {
			return nil, fieldError("title", "This field may not be blank.")
		}
		patch.updates["title"] = title
	}

	if v, ok := raw["description"]; ok {
		var description string
		if string(v) == "null" {
			return nil, fieldError("description", "This field may not be null.")
		}
		if json.Unmarshal(v, &description) != nil {
			return nil, fieldError("description", "Not a valid string.")
		}
		patch.updates["description"] = description
	}

	if v, ok := raw["image"]; ok {
		var image *string
		if json.Unmarshal(v, &image) != nil {
			return nil, fieldError("image", "Not a valid string.")
		}
		patch.updates["image"] = image
	}

	if v, ok := raw["details"]; ok {
		if string(v) == "null" {
			return nil, fieldError("details", "This field may not be null.")
		}
		if err := json.Unmarshal(v, &patch.details); err != nil {
			return nil, fieldError("details", "Expected a list of offer details.")
		}
		patch.touched = true
	}
	return patch, nil
}

func UpdateOffer(c *fiber.Ctx) error {
	offer, err := ownedOffer(c)
	if offer == nil {
		return err
	}

	patch, problem := parseOfferPatch(c.Body())
	if problem != nil {
		return c.Status(fiber.StatusBadRequest).JSON(problem)
	}

	err = database.DB.Transaction(func(tx *gorm.DB) error {
		patch.updates["updated_at"] = time.Now()
		if err := tx.Model(&models.Offer{ID: offer.ID}).Updates(patch.updates).Error; err != nil {
			return err
		}
		if patch.touched {
			return services.MergeDetails(tx, offer, patch.details)
		}
		return services.RefreshAggregates(tx, offer)
	})
	if err != nil {
		var detailErr *services.DetailError
		if errors.As(err, &detailErr) {
			return c.Status(fiber.StatusBadRequest).JSON(fieldError("details", detailErr.Message))
		}
		return serverError(c, "update offer", err)
	}

	updated, err := loadOffer(database.DB, offer.ID)
	if err != nil {
		return serverError(c, "reload offer", err)
	}
	return c.JSON(toOfferResponse(updated))
}

func DeleteOffer(c *fiber.Ctx) error {
	offer, err := ownedOffer(c)
	if offer == nil {
		return err
	}

	err = database.DB.Transaction(func(tx *gorm.DB) error {
		return services.DeleteOffer(tx, offer)
	})
	if err != nil {
		return serverError(c, "delete offer", err)
	}
	return c.SendStatus(fiber.StatusNoContent)
}

func GetOfferDetail(c *fiber.Ctx) error {
	id, ok := idParam(c, "id")
	if !ok {
		return notFound(c)
	}
	var offerDetail models.OfferDetail
	if err := database.DB.First(&offerDetail, id).Error; err != nil {
		return lookupError(c, "fetch offer detail", err)
	}
	return c.JSON(offerDetail)
}
