package jobs

import (
	"log"

	"github.com/anjiri1684/coderr/database"
	"github.com/anjiri1684/coderr/services"
)

// ReconcileOfferAggregates repairs min_price and min_delivery_time on offers
// whose tiers were changed outside the API.
func ReconcileOfferAggregates() {
	log.Println("Running job: ReconcileOfferAggregates...")

	fixed, err := services.ReconcileAggregates(database.DB)
	if err != nil {
		log.Printf("Error reconciling offer aggregates: %v", err)
		return
	}
	if fixed == 0 {
		log.Println("No offer aggregates needed repair.")
		return
	}
	log.Printf("Repaired aggregates on %d offer(s).", fixed)
}
