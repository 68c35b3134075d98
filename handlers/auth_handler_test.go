package handlers_test

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/anjiri1684/coderr/database"
	"github.com/anjiri1684/coderr/models"
	"github.com/anjiri1684/coderr/notifications"
)

func TestRegistrationReturnsTokenAndCreatesProfile(t *testing.T) {
	app := newTestApp(t)

	r := call(t, app, http.MethodPost, "/api/registration/", "", map[string]string{
		"username":          "ada",
		"email":             "ada@mail.test",
		"password":          "pw-123456",
		"repeated_password": "pw-123456",
		"role":              "business",
	})
	expectStatus(t, r, http.StatusCreated)

	body := r.object(t)
	if body["token"] == "" || body["username"] != "ada" || body["email"] != "ada@mail.test" {
		t.Fatalf("unexpected registration payload: %v", body)
	}

	var profile models.UserProfile
	if err := database.DB.Where("user_id = ?", idOf(body["user_id"])).First(&profile).Error; err != nil {
		t.Fatalf("profile not created: %v", err)
	}
	if profile.IsCustomer {
		t.Fatalf("business profile flagged as customer")
	}
}

func TestRegistrationDefaultsToCustomer(t *testing.T) {
	app := newTestApp(t)

	r := call(t, app, http.MethodPost, "/registration/", "", map[string]string{
		"username":          "bo",
		"email":             "bo@mail.test",
		"password":          "pw",
		"repeated_password": "pw",
	})
	expectStatus(t, r, http.StatusCreated)

	var user models.User
	if err := database.DB.Where("username = ?", "bo").First(&user).Error; err != nil {
		t.Fatalf("user not stored: %v", err)
	}
	if user.Role != models.RoleCustomer {
		t.Fatalf("role = %q, want customer", user.Role)
	}
}

func TestRegistrationRejectsMismatchAndDuplicates(t *testing.T) {
	app := newTestApp(t)

	r := call(t, app, http.MethodPost, "/api/registration/", "", map[string]string{
		"username":          "cy",
		"email":             "cy@mail.test",
		"password":          "one",
		"repeated_password": "two",
	})
	expectStatus(t, r, http.StatusBadRequest)
	if _, ok := r.object(t)["repeated_password"]; !ok {
		t.Fatalf("expected repeated_password error, got %s", r.body)
	}

	register(t, app, "cy", "customer")
	r = call(t, app, http.MethodPost, "/api/registration/", "", map[string]string{
		"username":          "cy",
		"email":             "other@mail.test",
		"password":          "pw",
		"repeated_password": "pw",
	})
	expectStatus(t, r, http.StatusBadRequest)
	if _, ok := r.object(t)["username"]; !ok {
		t.Fatalf("expected username error, got %s", r.body)
	}

	r = call(t, app, http.MethodPost, "/api/registration/", "", map[string]string{
		"username":          "dee",
		"email":             "not-an-email",
		"password":          "pw",
		"repeated_password": "pw",
		"role":              "admin",
	})
	expectStatus(t, r, http.StatusBadRequest)
	errs := r.object(t)
	if _, ok := errs["email"]; !ok {
		t.Fatalf("expected email error, got %s", r.body)
	}
	if _, ok := errs["role"]; !ok {
		t.Fatalf("expected role error, got %s", r.body)
	}
}

func TestLoginWithCredentials(t *testing.T) {
	app := newTestApp(t)
	acc := register(t, app, "eve", "customer")

	r := call(t, app, http.MethodPost, "/api/login/", "", map[string]string{
		"username": "eve",
		"password": "s3cret-pass",
	})
	expectStatus(t, r, http.StatusOK)
	body := r.object(t)
	if body["token"] != acc.token {
		t.Fatalf("login issued a new token %v, want the registration token", body["token"])
	}
	if idOf(body["user_id"]) != acc.id {
		t.Fatalf("user_id = %v, want %d", body["user_id"], acc.id)
	}

	r = call(t, app, http.MethodPost, "/api/login/", "", map[string]string{
		"username": "eve",
		"password": "wrong",
	})
	expectStatus(t, r, http.StatusBadRequest)
	if r.object(t)["error"] != "Invalid credentials" {
		t.Fatalf("unexpected error body %s", r.body)
	}
}

func TestLoginEmptyBodyReturnsDemoAccounts(t *testing.T) {
	app := newTestApp(t)

	for _, body := range []interface{}{map[string]string{}, "not json"} {
		r := call(t, app, http.MethodPost, "/api/login/", "", body)
		expectStatus(t, r, http.StatusOK)
		payload := r.object(t)

		for role, username := range map[string]string{"business": "demo_business", "customer": "demo_customer"} {
			account, ok := payload[role].(map[string]interface{})
			if !ok {
				t.Fatalf("missing %s account in %s", role, r.body)
			}
			if account["username"] != username || account["role"] != role || account["token"] == "" {
				t.Fatalf("unexpected %s demo payload: %v", role, account)
			}
		}
	}

	var count int64
	database.DB.Model(&models.User{}).Where("username LIKE ?", "demo_%").Count(&count)
	if count != 2 {
		t.Fatalf("demo users = %d, want 2 after repeated logins", count)
	}
}

func TestLoginDemoByRoleOrUsername(t *testing.T) {
	app := newTestApp(t)

	r := call(t, app, http.MethodPost, "/api/login/", "", map[string]string{"role": "business"})
	expectStatus(t, r, http.StatusOK)
	if body := r.object(t); body["username"] != "demo_business" || body["role"] != "business" {
		t.Fatalf("unexpected role login payload: %v", body)
	}

	r = call(t, app, http.MethodPost, "/api/login/", "", map[string]string{"username": "demo_customer"})
	expectStatus(t, r, http.StatusOK)
	if body := r.object(t); body["username"] != "demo_customer" || body["role"] != "customer" {
		t.Fatalf("unexpected demo username payload: %v", body)
	}
}

func TestLoginGuestAccounts(t *testing.T) {
	app := newTestApp(t)

	r := call(t, app, http.MethodPost, "/api/login/", "", map[string]string{"username": "kevin"})
	expectStatus(t, r, http.StatusOK)

	var kevin models.User
	if err := database.DB.Where("username = ?", "kevin").First(&kevin).Error; err != nil {
		t.Fatalf("guest not provisioned: %v", err)
	}
	if kevin.Role != models.RoleBusiness {
		t.Fatalf("kevin role = %q, want business", kevin.Role)
	}

	r = call(t, app, http.MethodPost, "/api/login/", "", map[string]string{"username": "andrey", "password": "asdasd"})
	expectStatus(t, r, http.StatusOK)
	if r.object(t)["username"] != "andrey" {
		t.Fatalf("unexpected guest payload %s", r.body)
	}
}

func TestLoginAcceptsFormBody(t *testing.T) {
	app := newTestApp(t)
	register(t, app, "fay", "business")

	req := httptest.NewRequest(http.MethodPost, "/api/login/", strings.NewReader("username=fay&password=s3cret-pass"))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	r := send(t, app, req)
	expectStatus(t, r, http.StatusOK)
	if r.object(t)["username"] != "fay" {
		t.Fatalf("unexpected payload %s", r.body)
	}
}

func TestFormRegistrationWelcomeEmailKeepsRecipient(t *testing.T) {
	app := newTestApp(t)
	if !app.Config().Immutable {
		t.Fatalf("request values must outlive the handler")
	}

	recipients := make(chan string, 1)
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var payload struct {
			To []map[string]string `json:"to"`
		}
		json.NewDecoder(r.Body).Decode(&payload)
		if len(payload.To) == 1 {
			recipients <- payload.To[0]["email"]
		}
		w.WriteHeader(http.StatusCreated)
	}))
	t.Cleanup(server.Close)

	prev := notifications.EmailClient
	notifications.EmailClient = &notifications.BrevoService{
		APIKey:      "test-key",
		SenderEmail: "noreply@coderr.test",
		SenderName:  "Coderr",
		Endpoint:    server.URL,
		HTTPClient:  server.Client(),
	}
	t.Cleanup(func() { notifications.EmailClient = prev })

	form := "username=formuser&email=formuser@mail.test&password=s3cret-pass&repeated_password=s3cret-pass&role=customer"
	req := httptest.NewRequest(http.MethodPost, "/api/registration/", strings.NewReader(form))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	expectStatus(t, send(t, app, req), http.StatusCreated)

	// a following request reuses the server's buffers
	req = httptest.NewRequest(http.MethodPost, "/api/login/", strings.NewReader("username=zzzzzzzz&password=zzzzzzzzzzzzzzzzzzzzzzzzzzzzzzzzzz"))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	send(t, app, req)

	select {
	case got := <-recipients:
		if got != "formuser@mail.test" {
			t.Fatalf("welcome email sent to %q", got)
		}
	case <-time.After(5 * time.Second):
		t.Fatalf("no welcome email sent")
	}
}

func TestProtectedRoutesNeedToken(t *testing.T) {
	app := newTestApp(t)

	r := call(t, app, http.MethodGet, "/api/orders/", "", nil)
	expectStatus(t, r, http.StatusUnauthorized)
	if r.object(t)["detail"] != "Authentication credentials were not provided." {
		t.Fatalf("unexpected detail %s", r.body)
	}

	r = call(t, app, http.MethodGet, "/api/orders/", "not-a-real-key", nil)
	expectStatus(t, r, http.StatusUnauthorized)
	if r.object(t)["detail"] != "Invalid token." {
		t.Fatalf("unexpected detail %s", r.body)
	}
}

func TestUnknownPathReturnsJSONNotFound(t *testing.T) {
	app := newTestApp(t)

	r := call(t, app, http.MethodGet, "/api/nothing-here/", "", nil)
	expectStatus(t, r, http.StatusNotFound)
	if r.object(t)["detail"] != "Not found." {
		t.Fatalf("unexpected body %s", r.body)
	}
}
