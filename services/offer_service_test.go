package services

import (
	"encoding/json"
	"errors"
	"fmt"
	"testing"

	"github.com/anjiri1684/coderr/database"
	"github.com/anjiri1684/coderr/models"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func setupTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	cfg := database.GormConfig()
	cfg.Logger = logger.Default.LogMode(logger.Silent)
	db, err := gorm.Open(sqlite.Open(fmt.Sprintf("file:%s?mode=memory&cache=shared", uuid.NewString())), cfg)
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	sqlDB, _ := db.DB()
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { sqlDB.Close() })
	if err := database.AutoMigrate(db); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	return db
}

func newBusiness(t *testing.T, db *gorm.DB, username string) *models.User {
	t.Helper()
	user := &models.User{Username: username, Email: username + "@mail.test", Password: "x", Role: models.RoleBusiness}
	if err := db.Create(user).Error; err != nil {
		t.Fatalf("create user: %v", err)
	}
	return user
}

func input(title, offerType string, price string, days int) DetailInput {
	p := decimal.RequireFromString(price)
	revisions := 1
	features := []string{"feature"}
	return DetailInput{
		Title:              &title,
		Revisions:          &revisions,
		DeliveryTimeInDays: &days,
		Price:              &p,
		Features:           &features,
		OfferType:          &offerType,
	}
}

func threeTiers() []DetailInput {
	return []DetailInput{
		input("Basic", "basic", "120", 9),
		input("Standard", "standard", "80.25", 4),
		input("Premium", "premium", "300", 2),
	}
}

func TestCheckDetailsForCreate(t *testing.T) {
	err := CheckDetailsForCreate(threeTiers()[:2])
	var detailErr *DetailError
	if !errors.As(err, &detailErr) || detailErr.Message != "At least 3 offer details are required." {
		t.Fatalf("two tiers: got %v", err)
	}

	tiers := threeTiers()
	tiers[0].Price = nil
	tiers[0].Features = nil
	err = CheckDetailsForCreate(tiers)
	if err == nil || err.Error() != "Missing fields: price, features" {
		t.Fatalf("missing fields: got %v", err)
	}

	tiers = threeTiers()
	negative := -2
	tiers[1].Revisions = &negative
	if CheckDetailsForCreate(tiers) == nil {
		t.Fatalf("revisions below -1 accepted")
	}

	tiers = threeTiers()
	unlimited := -1
	tiers[1].Revisions = &unlimited
	if err := CheckDetailsForCreate(tiers); err != nil {
		t.Fatalf("unlimited revisions rejected: %v", err)
	}

	tiers = threeTiers()
	zero := 0
	tiers[2].DeliveryTimeInDays = &zero
	if CheckDetailsForCreate(tiers) == nil {
		t.Fatalf("zero delivery days accepted")
	}
}

func TestCreateOfferStoresAggregates(t *testing.T) {
	db := setupTestDB(t)
	owner := newBusiness(t, db, "studio")

	offer := models.Offer{UserID: owner.ID, Title: "Design", Description: "d"}
	if err := CreateOffer(db, &offer, threeTiers()); err != nil {
		t.Fatalf("create offer: %v", err)
	}

	var stored models.Offer
	db.First(&stored, offer.ID)
	if !stored.MinPrice.Valid || !stored.MinPrice.Decimal.Equal(decimal.RequireFromString("80.25")) {
		t.Fatalf("min_price = %v, want 80.25", stored.MinPrice)
	}
	if stored.MinDeliveryTime == nil || *stored.MinDeliveryTime != 2 {
		t.Fatalf("min_delivery_time = %v, want 2", stored.MinDeliveryTime)
	}

	var n int64
	db.Model(&models.OfferDetail{}).Where("offer_id = ?", offer.ID).Count(&n)
	if n != 3 {
		t.Fatalf("details = %d, want 3", n)
	}
}

func TestMergeDetails(t *testing.T) {
	db := setupTestDB(t)
	owner := newBusiness(t, db, "studio")
	offer := models.Offer{UserID: owner.ID, Title: "Design", Description: "d"}
	if err := CreateOffer(db, &offer, threeTiers()); err != nil {
		t.Fatalf("create offer: %v", err)
	}
	premiumID := offer.Details[2].ID

	cheaper := decimal.RequireFromString("10")
	basic := "basic"
	if err := MergeDetails(db, &offer, []DetailInput{{OfferType: &basic, Price: &cheaper}}); err != nil {
		t.Fatalf("merge by type: %v", err)
	}

	slower := 30
	if err := MergeDetails(db, &offer, []DetailInput{{ID: &premiumID, DeliveryTimeInDays: &slower}}); err != nil {
		t.Fatalf("merge by id: %v", err)
	}

	var stored models.Offer
	db.Preload("Details").First(&stored, offer.ID)
	if len(stored.Details) != 3 {
		t.Fatalf("details = %d, want 3", len(stored.Details))
	}
	if !stored.MinPrice.Decimal.Equal(cheaper) {
		t.Fatalf("min_price = %v, want 10", stored.MinPrice.Decimal)
	}
	if *stored.MinDeliveryTime != 4 {
		t.Fatalf("min_delivery_time = %d, want 4", *stored.MinDeliveryTime)
	}

	unknownID := uint(9999)
	partial := DetailInput{ID: &unknownID, Price: &cheaper}
	if err := MergeDetails(db, &offer, []DetailInput{partial}); err == nil {
		t.Fatalf("partial new tier accepted")
	}

	extra := input("Express", "premium", "500", 1)
	// premium already exists, so this updates it instead of adding a tier
	if err := MergeDetails(db, &offer, []DetailInput{extra}); err != nil {
		t.Fatalf("merge full tier: %v", err)
	}
	db.Preload("Details").First(&stored, offer.ID)
	if len(stored.Details) != 3 || *stored.MinDeliveryTime != 1 {
		t.Fatalf("details = %d, min days = %d", len(stored.Details), *stored.MinDeliveryTime)
	}
}

func TestMergeDetailsRejectsNullFields(t *testing.T) {
	db := setupTestDB(t)
	owner := newBusiness(t, db, "studio")
	offer := models.Offer{UserID: owner.ID, Title: "Design", Description: "d"}
	if err := CreateOffer(db, &offer, threeTiers()); err != nil {
		t.Fatalf("create offer: %v", err)
	}

	var details []DetailInput
	if err := json.Unmarshal([]byte(`[{"offer_type": "basic", "price": null, "title": null}]`), &details); err != nil {
		t.Fatalf("decode: %v", err)
	}
	var detailErr *DetailError
	if err := MergeDetails(db, &offer, details); !errors.As(err, &detailErr) || detailErr.Message != "Missing fields: title, price" {
		t.Fatalf("null fields: got %v", err)
	}

	// omitted fields stay optional on a matched tier
	if err := json.Unmarshal([]byte(`[{"offer_type": "basic", "revisions": 2}]`), &details); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if err := MergeDetails(db, &offer, details); err != nil {
		t.Fatalf("partial update: %v", err)
	}
}

func TestReconcileAggregates(t *testing.T) {
	db := setupTestDB(t)
	owner := newBusiness(t, db, "studio")
	offer := models.Offer{UserID: owner.ID, Title: "Design", Description: "d"}
	if err := CreateOffer(db, &offer, threeTiers()); err != nil {
		t.Fatalf("create offer: %v", err)
	}

	fixed, err := ReconcileAggregates(db)
	if err != nil || fixed != 0 {
		t.Fatalf("clean offers: fixed %d, err %v", fixed, err)
	}

	db.Model(&models.OfferDetail{}).Where("offer_id = ? AND offer_type = ?", offer.ID, "standard").Update("price", "5")
	fixed, err = ReconcileAggregates(db)
	if err != nil || fixed != 1 {
		t.Fatalf("drifted offer: fixed %d, err %v", fixed, err)
	}

	var stored models.Offer
	db.First(&stored, offer.ID)
	if !stored.MinPrice.Decimal.Equal(decimal.NewFromInt(5)) {
		t.Fatalf("min_price = %v, want 5", stored.MinPrice.Decimal)
	}
}

func TestDeleteOfferRemovesDetails(t *testing.T) {
	db := setupTestDB(t)
	owner := newBusiness(t, db, "studio")
	offer := models.Offer{UserID: owner.ID, Title: "Design", Description: "d"}
	if err := CreateOffer(db, &offer, threeTiers()); err != nil {
		t.Fatalf("create offer: %v", err)
	}

	if err := DeleteOffer(db, &offer); err != nil {
		t.Fatalf("delete: %v", err)
	}
	var n int64
	db.Model(&models.OfferDetail{}).Count(&n)
	if n != 0 {
		t.Fatalf("details left: %d", n)
	}
}
