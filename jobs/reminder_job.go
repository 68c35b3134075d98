package jobs

import (
	"fmt"
	"log"
	"time"

	"github.com/anjiri1684/coderr/database"
	"github.com/anjiri1684/coderr/models"
	"github.com/anjiri1684/coderr/notifications"
)

// OverdueOrders returns in-progress orders whose delivery window ended before now.
func OverdueOrders(now time.Time) ([]models.Order, error) {
	var open []models.Order
	err := database.DB.
		Preload("BusinessUser").
		Where("status = ?", models.OrderStatusInProgress).
		Find(&open).Error
	if err != nil {
		return nil, err
	}

	var overdue []models.Order
	for _, order := range open {
		due := order.CreatedAt.AddDate(0, 0, order.DeliveryTimeInDays)
		if due.Before(now) {
			overdue = append(overdue, order)
		}
	}
	return overdue, nil
}

func SendOverdueOrderReminders() {
	log.Println("Running job: SendOverdueOrderReminders...")

	overdue, err := OverdueOrders(time.Now())
	if err != nil {
		log.Printf("Error checking for overdue orders: %v", err)
		return
	}
	if len(overdue) == 0 {
		return
	}

	for _, order := range overdue {
		log.Printf("Sending overdue reminder for order ID: %d", order.ID)

		emailSubject := fmt.Sprintf("Reminder: order #%d is past its delivery date", order.ID)
		emailBody := fmt.Sprintf(
			"<h1>Delivery reminder</h1><p>Your order <b>%s</b> was due %s and is still in progress.</p>",
			order.Title,
			order.CreatedAt.AddDate(0, 0, order.DeliveryTimeInDays).Format("January 2, 2006"),
		)

		go notifications.SendEmail(order.BusinessUser.Username, order.BusinessUser.Email, emailSubject, emailBody)
	}
}
