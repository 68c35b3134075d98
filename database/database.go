package database

import (
	"fmt"
	"log"

	config "github.com/anjiri1684/coderr/configs"
	"github.com/anjiri1684/coderr/models"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

var DB *gorm.DB

// GormConfig is shared by the server connection and test databases.
func GormConfig() *gorm.Config {
	return &gorm.Config{
		PrepareStmt:                              false,
		SkipDefaultTransaction:                   true,
		DisableForeignKeyConstraintWhenMigrating: true,
	}
}

func ConnectDB() {
	var err error
	dsn := config.Config("DATABASE_URL")

	DB, err = gorm.Open(postgres.Open(dsn), GormConfig())
	if err != nil {
		log.Fatalf("🔥 Failed to connect to database: %v", err)
	}

	fmt.Println("✅ Database connected successfully")
}

// AutoMigrate creates or updates every marketplace table on db.
func AutoMigrate(db *gorm.DB) error {
	return db.AutoMigrate(
		&models.User{},
		&models.UserProfile{},
		&models.AuthToken{},
		&models.Offer{},
		&models.OfferDetail{},
		&models.Order{},
		&models.Review{},
	)
}

func Migrate() {
	if err := AutoMigrate(DB); err != nil {
		log.Fatalf("🔥 Failed to migrate database: %v", err)
	}
	fmt.Println("✅ Database migration successful")
}

// SeedStaff creates the staff account from ADMIN_USERNAME and ADMIN_PASSWORD.
// Staff accounts are the only ones allowed to delete orders.
func SeedStaff() {
	username := config.Config("ADMIN_USERNAME")
	password := config.Config("ADMIN_PASSWORD")
	if username == "" || password == "" {
		log.Println("⚠️ ADMIN_USERNAME or ADMIN_PASSWORD not set, skipping staff seed.")
		return
	}

	var count int64
	if err := DB.Model(&models.User{}).Where("username = ?", username).Count(&count).Error; err != nil {
		log.Fatalf("🔥 Failed to check for staff user: %v", err)
	}
	if count > 0 {
		log.Println("Staff user already exists.")
		return
	}

	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		log.Fatalf("🔥 Failed to hash staff password: %v", err)
	}

	staff := models.User{
		Username: username,
		Email:    config.Config("ADMIN_EMAIL"),
		Password: string(hashedPassword),
		Role:     models.RoleBusiness,
		IsStaff:  true,
	}
	if err := DB.Create(&staff).Error; err != nil {
		log.Fatalf("🔥 Failed to seed staff user: %v", err)
	}

	log.Println("✅ Staff user seeded successfully")
}
