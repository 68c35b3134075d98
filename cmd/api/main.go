package main

import (
	"log"

	config "github.com/anjiri1684/coderr/configs"
	"github.com/anjiri1684/coderr/database"
	"github.com/anjiri1684/coderr/jobs"
	"github.com/anjiri1684/coderr/media"
	"github.com/anjiri1684/coderr/notifications"
	"github.com/anjiri1684/coderr/routes"
	"github.com/anjiri1684/coderr/websocket"
	"github.com/robfig/cron/v3"
)

func main() {
	database.ConnectDB()
	database.Migrate()
	database.SeedStaff()
	notifications.InitEmailService()

	if err := media.Init(); err != nil {
		log.Printf("⚠️ Media uploads disabled: %v", err)
	} else {
		log.Println("✅ Media storage initialized successfully.")
	}

	c := cron.New()
	if _, err := c.AddFunc("@hourly", jobs.ReconcileOfferAggregates); err != nil {
		log.Fatalf("🔥 Failed to schedule aggregate job: %v", err)
	}
	if _, err := c.AddFunc("0 8 * * *", jobs.SendOverdueOrderReminders); err != nil {
		log.Fatalf("🔥 Failed to schedule reminder job: %v", err)
	}
	c.Start()
	defer c.Stop()
	log.Println("✅ Cron jobs scheduled successfully.")

	go websocket.RunHub()

	app := routes.NewApp()

	port := config.ConfigDefault("PORT", "8080")
	log.Printf("✅ Server is running on port %s", port)
	if err := app.Listen(":" + port); err != nil {
		log.Fatalf("🔥 Server failed to start: %v", err)
	}
}
