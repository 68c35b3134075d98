package handlers

import (
	"encoding/json"

	"github.com/anjiri1684/coderr/database"
	"github.com/anjiri1684/coderr/middleware"
	"github.com/anjiri1684/coderr/models"
	"github.com/gofiber/fiber/v2"
)

const (
	ratingRangeMessage    = "Rating must be between 1 and 5."
	duplicateReviewDetail = "You have already reviewed this business user."
)

type CreateReviewRequest struct {
	BusinessUser *uint  `json:"business_user" validate:"required"`
	Rating       *int   `json:"rating" validate:"required"`
	Description  string `json:"description" validate:"required"`
}

var reviewOrderings = map[string]string{
	"updated_at":  "updated_at",
	"-updated_at": "updated_at DESC",
	"rating":      "rating",
	"-rating":     "rating DESC",
}

func validRating(r int) bool {
	return r >= 1 && r <= 5
}

func GetReviews(c *fiber.Ctx) error {
	query := database.DB.Model(&models.Review{})

	for _, f := range []struct{ param, column string }{
		{"business_user", "business_user_id"},
		{"business_user_id", "business_user_id"},
		{"reviewer", "reviewer_id"},
		{"reviewer_id", "reviewer_id"},
	} {
		id, present, ok := uintQuery(c, f.param)
		if !ok {
			return c.Status(fiber.StatusBadRequest).JSON(fieldError(f.param, "Enter a number."))
		}
		if present {
			query = query.Where(f.column+" = ?", id)
		}
	}

	ordering, known := reviewOrderings[c.Query("ordering")]
	if !known {
		ordering = reviewOrderings["-updated_at"]
	}

	reviews := []models.Review{}
	if err := query.Order(ordering).Order("id DESC").Find(&reviews).Error; err != nil {
		return serverError(c, "fetch reviews", err)
	}
	return c.JSON(reviews)
}

// isCustomer accepts the customer role or the legacy profile flag.
func isCustomer(user *models.User) bool {
	if user.IsCustomer() {
		return true
	}
	var profile models.UserProfile
	if err := database.DB.Where("user_id = ?", user.ID).First(&profile).Error; err != nil {
		return false
	}
	return profile.IsCustomer
}

func hasReviewed(reviewerID, businessID uint) (bool, error) {
	var n int64
	err := database.DB.Model(&models.Review{}).
		Where("reviewer_id = ? AND business_user_id = ?", reviewerID, businessID).
		Count(&n).Error
	return n > 0, err
}

// CreateReview stores one review per customer and business user.
func CreateReview(c *fiber.Ctx) error {
	reviewer := middleware.CurrentUser(c)
	if !isCustomer(reviewer) {
		return detail(c, fiber.StatusForbidden, "Only customers can create reviews.")
	}

	var req CreateReviewRequest
	if err := c.BodyParser(&req); err != nil {
		return detail(c, fiber.StatusBadRequest, "Cannot parse request body.")
	}
	if err := validate.Struct(req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fieldErrors(err))
	}
	if !validRating(*req.Rating) {
		return c.Status(fiber.StatusBadRequest).JSON(fieldError("rating", ratingRangeMessage))
	}

	var business models.User
	if err := database.DB.First(&business, *req.BusinessUser).Error; err != nil || !business.IsBusiness() {
		return c.Status(fiber.StatusBadRequest).JSON(fieldError("business_user", "Business user does not exist."))
	}

	reviewed, err := hasReviewed(reviewer.ID, business.ID)
	if err != nil {
		return serverError(c, "check existing reviews", err)
	}
	if reviewed {
		return detail(c, fiber.StatusBadRequest, duplicateReviewDetail)
	}

	review := models.Review{
		BusinessUserID: business.ID,
		ReviewerID:     reviewer.ID,
		Rating:         *req.Rating,
		Description:    req.Description,
	}
	if err := database.DB.Create(&review).Error; err != nil {
		// a concurrent request may have won the unique index
		if reviewed, _ := hasReviewed(reviewer.ID, business.ID); reviewed {
			return detail(c, fiber.StatusBadRequest, duplicateReviewDetail)
		}
		return serverError(c, "create review", err)
	}
	return c.Status(fiber.StatusCreated).JSON(review)
}

func findReview(c *fiber.Ctx) (*models.Review, error) {
	id, ok := idParam(c, "id")
	if !ok {
		return nil, notFound(c)
	}
	var review models.Review
	if err := database.DB.First(&review, id).Error; err != nil {
		return nil, lookupError(c, "fetch review", err)
	}
	return &review, nil
}

func GetReview(c *fiber.Ctx) error {
	review, err := findReview(c)
	if review == nil {
		return err
	}
	return c.JSON(review)
}

// ownReview loads the review and checks the requester wrote it.
func ownReview(c *fiber.Ctx) (*models.Review, error) {
	review, err := findReview(c)
	if review == nil {
		return nil, err
	}
	if review.ReviewerID != middleware.CurrentUser(c).ID {
		return nil, detail(c, fiber.StatusForbidden, "Only the reviewer can modify this review.")
	}
	return review, nil
}

func UpdateReview(c *fiber.Ctx) error {
	review, err := ownReview(c)
	if review == nil {
		return err
	}

	var body map[string]json.RawMessage
	if err := json.Unmarshal(c.Body(), &body); err != nil {
		return detail(c, fiber.StatusBadRequest, "Cannot parse request body.")
	}

	updates := map[string]interface{}{}
	if raw, ok := body["rating"]; ok {
		var rating int
		if err := json.Unmarshal(raw, &rating); err != nil {
			return c.Status(fiber.StatusBadRequest).JSON(fieldError("rating", "A valid integer is required."))
		}
		if !validRating(rating) {
			return c.Status(fiber.StatusBadRequest).JSON(fieldError("rating", ratingRangeMessage))
		}
		updates["rating"] = rating
	}
	if raw, ok := body["description"]; ok {
		var description string
		if err := json.Unmarshal(raw, &description); err != nil || string(raw) == "null" {
			return c.Status(fiber.StatusBadRequest).JSON(fieldError("description", "Not a valid string."))
		}
		updates["description"] = description
	}

	if len(updates) > 0 {
		if err := database.DB.Model(review).Updates(updates).Error; err != nil {
			return serverError(c, "update review", err)
		}
	}
	if err := database.DB.First(review, review.ID).Error; err != nil {
		return serverError(c, "reload review", err)
	}
	return c.JSON(review)
}

func DeleteReview(c *fiber.Ctx) error {
	review, err := ownReview(c)
	if review == nil {
		return err
	}
	if err := database.DB.Delete(review).Error; err != nil {
		return serverError(c, "delete review", err)
	}
	return c.SendStatus(fiber.StatusNoContent)
}
