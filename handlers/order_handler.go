package handlers

import (
	"encoding/json"
	"fmt"
	"log"
	"strconv"
	"strings"

	"github.com/anjiri1684/coderr/database"
	"github.com/anjiri1684/coderr/middleware"
	"github.com/anjiri1684/coderr/models"
	"github.com/anjiri1684/coderr/notifications"
	"github.com/anjiri1684/coderr/services"
	"github.com/anjiri1684/coderr/websocket"
	"github.com/gofiber/fiber/v2"
)

func GetOrders(c *fiber.Ctx) error {
	user := middleware.CurrentUser(c)

	orders := []models.Order{}
	err := database.DB.
		Where("customer_user_id = ? OR business_user_id = ?", user.ID, user.ID).
		Order("created_at DESC").
		Order("id DESC").
		Find(&orders).Error
	if err != nil {
		return serverError(c, "fetch orders", err)
	}
	return c.JSON(orders)
}

// offerDetailID reads offer_detail_id, or its camelCase alias, as a positive integer.
func offerDetailID(body map[string]interface{}) (uint, fiber.Map) {
	raw, ok := body["offer_detail_id"]
	if !ok || raw == nil || raw == "" {
		raw, ok = body["offerDetailId"]
	}
	if !ok || raw == nil || raw == "" {
		return 0, fieldError("offer_detail_id", "This field is required.")
	}

	invalid := fieldError("offer_detail_id", "A valid integer is required.")
	switch v := raw.(type) {
	case float64:
		if v < 1 || v != float64(uint(v)) {
			return 0, invalid
		}
		return uint(v), nil
	case string:
		n, err := strconv.ParseUint(strings.TrimSpace(v), 10, 64)
		if err != nil || n == 0 {
			return 0, invalid
		}
		return uint(n), nil
	}
	return 0, invalid
}

// CreateOrder snapshots an offer tier into a new in-progress order.
func CreateOrder(c *fiber.Ctx) error {
	customer := middleware.CurrentUser(c)

	var body map[string]interface{}
	if err := json.Unmarshal(c.Body(), &body); err != nil {
		return detail(c, fiber.StatusBadRequest, "Cannot parse request body.")
	}
	id, problem := offerDetailID(body)
	if problem != nil {
		return c.Status(fiber.StatusBadRequest).JSON(problem)
	}

	var offerDetail models.OfferDetail
	if err := database.DB.First(&offerDetail, id).Error; err != nil {
		return detail(c, fiber.StatusNotFound, "OfferDetail not found.")
	}
	var offer models.Offer
	if err := database.DB.Preload("User").First(&offer, offerDetail.OfferID).Error; err != nil {
		return detail(c, fiber.StatusNotFound, "OfferDetail not found.")
	}

	order := models.Order{
		CustomerUserID:     customer.ID,
		BusinessUserID:     offer.UserID,
		Title:              offerDetail.Title,
		Revisions:          offerDetail.Revisions,
		DeliveryTimeInDays: offerDetail.DeliveryTimeInDays,
		Price:              offerDetail.Price,
		Features:           append([]string{}, offerDetail.Features...),
		OfferType:          offerDetail.OfferType,
		Status:             models.OrderStatusInProgress,
	}
	if err := database.DB.Create(&order).Error; err != nil {
		return serverError(c, "create order", err)
	}

	log.Printf("✅ Order %d placed by user %d for business %d", order.ID, customer.ID, order.BusinessUserID)
	websocket.Publish(&websocket.Event{
		Type:       websocket.EventOrderCreated,
		Payload:    order,
		Recipients: []uint{order.BusinessUserID},
	})
	go notifications.SendOrderCreated(offer.User, order)

	return c.Status(fiber.StatusCreated).JSON(order)
}

func findOrder(c *fiber.Ctx) (*models.Order, error) {
	id, ok := idParam(c, "id")
	if !ok {
		return nil, notFound(c)
	}
	var order models.Order
	if err := database.DB.First(&order, id).Error; err != nil {
		return nil, lookupError(c, "fetch order", err)
	}
	return &order, nil
}

func GetOrder(c *fiber.Ctx) error {
	order, err := findOrder(c)
	if order == nil {
		return err
	}
	if !order.Involves(middleware.CurrentUser(c).ID) {
		return detail(c, fiber.StatusForbidden, "Not allowed to access this order.")
	}
	return c.JSON(order)
}

// UpdateOrderStatus lets the order's business user move it to another status.
func UpdateOrderStatus(c *fiber.Ctx) error {
	order, err := findOrder(c)
	if order == nil {
		return err
	}
	if order.BusinessUserID != middleware.CurrentUser(c).ID {
		return detail(c, fiber.StatusForbidden, "Only the business user of this order can update it.")
	}

	var body map[string]json.RawMessage
	if err := json.Unmarshal(c.Body(), &body); err != nil {
		return detail(c, fiber.StatusBadRequest, "Cannot parse request body.")
	}
	if _, ok := body["status"]; !ok || len(body) != 1 {
		return detail(c, fiber.StatusBadRequest, "Only 'status' field can be updated via PATCH.")
	}

	var status string
	if err := json.Unmarshal(body["status"], &status); err != nil || !models.ValidOrderStatus(status) {
		return c.Status(fiber.StatusBadRequest).JSON(fieldError("status", fmt.Sprintf(
			"Status must be one of %s, %s, %s.",
			models.OrderStatusCancelled, models.OrderStatusCompleted, models.OrderStatusInProgress,
		)))
	}

	if err := database.DB.Model(order).Update("status", status).Error; err != nil {
		return serverError(c, "update order", err)
	}
	if err := database.DB.First(order, order.ID).Error; err != nil {
		return serverError(c, "reload order", err)
	}

	websocket.Publish(&websocket.Event{
		Type:       websocket.EventOrderStatusChanged,
		Payload:    order,
		Recipients: []uint{order.CustomerUserID, order.BusinessUserID},
	})
	var customer models.User
	if err := database.DB.First(&customer, order.CustomerUserID).Error; err == nil {
		go notifications.SendOrderStatusChanged(customer, *order)
	}

	return c.JSON(order)
}

// DeleteOrder is reserved for staff accounts.
func DeleteOrder(c *fiber.Ctx) error {
	if !middleware.CurrentUser(c).IsStaff {
		return detail(c, fiber.StatusForbidden, "You do not have permission to perform this action.")
	}
	order, err := findOrder(c)
	if order == nil {
		return err
	}
	if err := database.DB.Delete(order).Error; err != nil {
		return serverError(c, "delete order", err)
	}
	return c.SendStatus(fiber.StatusNoContent)
}

// GetOrderReceipt streams a PDF receipt to either party of the order.
func GetOrderReceipt(c *fiber.Ctx) error {
	order, err := findOrder(c)
	if order == nil {
		return err
	}
	if !order.Involves(middleware.CurrentUser(c).ID) {
		return detail(c, fiber.StatusForbidden, "Not allowed to access this order.")
	}

	var customer, business models.User
	if err := database.DB.First(&customer, order.CustomerUserID).Error; err != nil {
		return serverError(c, "load customer", err)
	}
	if err := database.DB.First(&business, order.BusinessUserID).Error; err != nil {
		return serverError(c, "load business user", err)
	}

	pdf, err := services.OrderReceiptPDF(c.UserContext(), order, customer.Username, business.Username)
	if err != nil {
		return serverError(c, "render receipt", err)
	}

	c.Set(fiber.HeaderContentType, "application/pdf")
	c.Set(fiber.HeaderContentDisposition, fmt.Sprintf(`attachment; filename="order-%d.pdf"`, order.ID))
	return c.Send(pdf)
}

func businessCount(c *fiber.Ctx, status, field string) error {
	raw := c.Params("business_user_id")
	if raw == "" {
		raw = c.Query("business_user_id")
	}
	if raw == "" {
		return detail(c, fiber.StatusBadRequest, "business_user_id is required.")
	}

	id, err := strconv.ParseUint(raw, 10, 64)
	if err != nil {
		return detail(c, fiber.StatusNotFound, "Business user not found.")
	}
	var business models.User
	if err := database.DB.First(&business, id).Error; err != nil || !business.IsBusiness() {
		return detail(c, fiber.StatusNotFound, "Business user not found.")
	}

	n, err := services.CountOrders(database.DB, business.ID, status)
	if err != nil {
		return serverError(c, "count orders", err)
	}
	return c.JSON(fiber.Map{field: n})
}

func GetOrderCount(c *fiber.Ctx) error {
	return businessCount(c, models.OrderStatusInProgress, "order_count")
}

func GetCompletedOrderCount(c *fiber.Ctx) error {
	return businessCount(c, models.OrderStatusCompleted, "completed_order_count")
}
