package notifications

import (
	"bytes"
	"encoding/json"
	"fmt"
	"html/template"
	"io"
	"log"
	"net/http"
	"strings"
	"time"

	config "github.com/anjiri1684/coderr/configs"
	"github.com/anjiri1684/coderr/models"
)

const brevoEndpoint = "https://api.brevo.com/v3/smtp/email"

type BrevoService struct {
	APIKey      string
	SenderEmail string
	SenderName  string
	Endpoint    string
	HTTPClient  *http.Client
}

var EmailClient *BrevoService

type brevoPayload struct {
	Sender      map[string]string   `json:"sender"`
	To          []map[string]string `json:"to"`
	Subject     string              `json:"subject"`
	HTMLContent string              `json:"htmlContent"`
}

func InitEmailService() {
	apiKey := config.Config("BREVO_API_KEY")
	senderEmail := config.Config("EMAIL_SENDER")
	senderName := config.Config("EMAIL_SENDER_NAME")

	if apiKey == "" || senderEmail == "" || senderName == "" {
		log.Println("⚠️ Email service not configured. Missing API Key, Sender Email, or Sender Name.")
		EmailClient = nil
		return
	}

	EmailClient = &BrevoService{
		APIKey:      apiKey,
		SenderEmail: senderEmail,
		SenderName:  senderName,
		Endpoint:    brevoEndpoint,
		HTTPClient:  &http.Client{Timeout: 10 * time.Second},
	}
	log.Printf("✅ Email service initialized for sender %s.", senderEmail)
}

func (s *BrevoService) send(toEmail, toName, subject, htmlContent string) error {
	if toEmail == "" || !strings.Contains(toEmail, "@") {
		return fmt.Errorf("invalid recipient email: %s", toEmail)
	}

	recipientName := toName
	if recipientName == "" {
		recipientName = toEmail[:strings.Index(toEmail, "@")]
	}

	payload := brevoPayload{
		Sender:      map[string]string{"name": s.SenderName, "email": s.SenderEmail},
		To:          []map[string]string{{"email": toEmail, "name": recipientName}},
		Subject:     subject,
		HTMLContent: htmlContent,
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("failed to marshal payload: %w", err)
	}

	req, err := http.NewRequest(http.MethodPost, s.Endpoint, bytes.NewBuffer(body))
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("accept", "application/json")
	req.Header.Set("api-key", s.APIKey)
	req.Header.Set("content-type", "application/json")

	client := s.HTTPClient
	if client == nil {
		client = http.DefaultClient
	}
	resp, err := client.Do(req)
	if err != nil {
		return fmt.Errorf("failed to send request: %w", err)
	}
	defer resp.Body.Close()

	bodyBytes, _ := io.ReadAll(resp.Body)
	if resp.StatusCode != http.StatusCreated {
		log.Printf("Brevo API error: Status %d, Body: %s", resp.StatusCode, string(bodyBytes))
		return fmt.Errorf("failed to send email via Brevo: %s", string(bodyBytes))
	}
	return nil
}

func SendEmail(toName, toEmail, subject, htmlContent string) {
	if EmailClient == nil {
		log.Println("Email client not initialized, skipping email send.")
		return
	}

	if err := EmailClient.send(toEmail, toName, subject, htmlContent); err != nil {
		log.Printf("🔥 Failed to send email to %s: %v", toEmail, err)
		return
	}

	log.Printf("✅ Email sent successfully to %s", toEmail)
}

var (
	welcomeTemplate = template.Must(template.New("welcome").Parse(
		`<h1>Welcome to Coderr, {{.Username}}!</h1><p>Your {{.Role}} account is ready.</p>`))
	orderCreatedTemplate = template.Must(template.New("order_created").Parse(
		`<h1>New order #{{.ID}}</h1><p>You received an order for <b>{{.Title}}</b> ({{.OfferType}}).</p><p>Delivery is due in {{.DeliveryTimeInDays}} day(s).</p>`))
	orderStatusTemplate = template.Must(template.New("order_status").Parse(
		`<h1>Order #{{.ID}} updated</h1><p>Your order <b>{{.Title}}</b> is now <b>{{.Status}}</b>.</p>`))
)

func render(t *template.Template, data interface{}) string {
	var buf bytes.Buffer
	if err := t.Execute(&buf, data); err != nil {
		log.Printf("Error rendering %s email: %v", t.Name(), err)
		return ""
	}
	return buf.String()
}

func SendWelcome(user models.User) {
	SendEmail(user.Username, user.Email, "Welcome to Coderr", render(welcomeTemplate, user))
}

// SendOrderCreated tells the business user about a new order.
func SendOrderCreated(business models.User, order models.Order) {
	subject := fmt.Sprintf("New order #%d: %s", order.ID, order.Title)
	SendEmail(business.Username, business.Email, subject, render(orderCreatedTemplate, order))
}

// SendOrderStatusChanged tells the customer that the business moved the order.
func SendOrderStatusChanged(customer models.User, order models.Order) {
	subject := fmt.Sprintf("Order #%d is now %s", order.ID, order.Status)
	SendEmail(customer.Username, customer.Email, subject, render(orderStatusTemplate, order))
}
