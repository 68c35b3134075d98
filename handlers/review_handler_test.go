package handlers_test

import (
	"net/http"
	"testing"

	"github.com/gofiber/fiber/v2"
)

func postReview(t *testing.T, app *fiber.App, token string, business uint, rating int) response {
	t.Helper()
	return call(t, app, http.MethodPost, "/api/reviews/", token, map[string]interface{}{
		"business_user": business,
		"rating":        rating,
		"description":   "Great work",
	})
}

func TestCreateReviewOncePerBusiness(t *testing.T) {
	app := newTestApp(t)
	biz := register(t, app, "shop", "business")
	customer := register(t, app, "fan", "customer")

	r := postReview(t, app, customer.token, biz.id, 5)
	expectStatus(t, r, http.StatusCreated)
	review := r.object(t)
	if idOf(review["reviewer"]) != customer.id || idOf(review["business_user"]) != biz.id || review["rating"] != float64(5) {
		t.Fatalf("unexpected review %v", review)
	}

	r = postReview(t, app, customer.token, biz.id, 4)
	expectStatus(t, r, http.StatusBadRequest)
	if r.object(t)["detail"] != "You have already reviewed this business user." {
		t.Fatalf("unexpected body %s", r.body)
	}
}

func TestCreateReviewValidation(t *testing.T) {
	app := newTestApp(t)
	biz := register(t, app, "shop", "business")
	customer := register(t, app, "fan", "customer")

	r := postReview(t, app, biz.token, biz.id, 5)
	expectStatus(t, r, http.StatusForbidden)
	if r.object(t)["detail"] != "Only customers can create reviews." {
		t.Fatalf("unexpected body %s", r.body)
	}

	for _, rating := range []int{0, 6} {
		r = postReview(t, app, customer.token, biz.id, rating)
		expectStatus(t, r, http.StatusBadRequest)
		if _, ok := r.object(t)["rating"]; !ok {
			t.Fatalf("rating %d: unexpected body %s", rating, r.body)
		}
	}

	r = postReview(t, app, customer.token, customer.id, 5)
	expectStatus(t, r, http.StatusBadRequest)
	if _, ok := r.object(t)["business_user"]; !ok {
		t.Fatalf("unexpected body %s", r.body)
	}

	r = call(t, app, http.MethodPost, "/api/reviews/", customer.token, map[string]interface{}{"rating": 3})
	expectStatus(t, r, http.StatusBadRequest)
	errs := r.object(t)
	if _, ok := errs["business_user"]; !ok {
		t.Fatalf("missing business_user error: %s", r.body)
	}
	if _, ok := errs["description"]; !ok {
		t.Fatalf("missing description error: %s", r.body)
	}
}

func TestReviewOnlyEditableByReviewer(t *testing.T) {
	app := newTestApp(t)
	biz := register(t, app, "shop", "business")
	author := register(t, app, "author", "customer")
	other := register(t, app, "other", "customer")

	r := postReview(t, app, author.token, biz.id, 3)
	expectStatus(t, r, http.StatusCreated)
	reviewPath := path("/api/reviews/%d/", idOf(r.object(t)["id"]))

	expectStatus(t, call(t, app, http.MethodPatch, reviewPath, other.token, map[string]int{"rating": 1}), http.StatusForbidden)
	expectStatus(t, call(t, app, http.MethodDelete, reviewPath, other.token, nil), http.StatusForbidden)

	r = call(t, app, http.MethodPatch, reviewPath, author.token, map[string]interface{}{"rating": 4, "description": "Even better"})
	expectStatus(t, r, http.StatusOK)
	updated := r.object(t)
	if updated["rating"] != float64(4) || updated["description"] != "Even better" {
		t.Fatalf("unexpected review %v", updated)
	}

	expectStatus(t, call(t, app, http.MethodPatch, reviewPath, author.token, map[string]int{"rating": 9}), http.StatusBadRequest)

	expectStatus(t, call(t, app, http.MethodDelete, reviewPath, author.token, nil), http.StatusNoContent)
	expectStatus(t, call(t, app, http.MethodGet, reviewPath, author.token, nil), http.StatusNotFound)
}

func TestListReviewsFilterAndOrder(t *testing.T) {
	app := newTestApp(t)
	shopA := register(t, app, "shop-a", "business")
	shopB := register(t, app, "shop-b", "business")
	first := register(t, app, "first", "customer")
	second := register(t, app, "second", "customer")

	expectStatus(t, postReview(t, app, first.token, shopA.id, 2), http.StatusCreated)
	expectStatus(t, postReview(t, app, second.token, shopA.id, 5), http.StatusCreated)
	expectStatus(t, postReview(t, app, first.token, shopB.id, 4), http.StatusCreated)

	r := call(t, app, http.MethodGet, path("/api/reviews/?business_user_id=%d&ordering=-rating", shopA.id), first.token, nil)
	expectStatus(t, r, http.StatusOK)
	reviews := r.list(t)
	if len(reviews) != 2 {
		t.Fatalf("reviews = %d, want 2", len(reviews))
	}
	if reviews[0]["rating"] != float64(5) || reviews[1]["rating"] != float64(2) {
		t.Fatalf("reviews not ordered by rating: %s", r.body)
	}

	r = call(t, app, http.MethodGet, path("/api/reviews/?reviewer_id=%d", first.id), first.token, nil)
	expectStatus(t, r, http.StatusOK)
	if n := len(r.list(t)); n != 2 {
		t.Fatalf("reviewer filter returned %d", n)
	}

	expectStatus(t, call(t, app, http.MethodGet, "/api/reviews/", "", nil), http.StatusUnauthorized)
	expectStatus(t, call(t, app, http.MethodGet, "/api/reviews/?reviewer_id=x", first.token, nil), http.StatusBadRequest)
}

func TestBaseInfo(t *testing.T) {
	app := newTestApp(t)
	biz := register(t, app, "shop", "business")
	register(t, app, "shop-2", "business")
	first := register(t, app, "first", "customer")
	second := register(t, app, "second", "customer")
	createOffer(t, app, biz.token, "Branding", standardTiers())

	expectStatus(t, postReview(t, app, first.token, biz.id, 4), http.StatusCreated)
	expectStatus(t, postReview(t, app, second.token, biz.id, 5), http.StatusCreated)

	r := call(t, app, http.MethodGet, "/api/base-info/", "", nil)
	expectStatus(t, r, http.StatusOK)
	info := r.object(t)
	want := map[string]float64{
		"review_count":           2,
		"average_rating":         4.5,
		"business_profile_count": 2,
		"offer_count":            1,
	}
	for key, value := range want {
		if info[key] != value {
			t.Fatalf("%s = %v, want %v", key, info[key], value)
		}
	}
}
