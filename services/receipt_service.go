package services

import (
	"bytes"
	"context"
	_ "embed"
	"html/template"
	"strconv"
	"time"

	config "github.com/anjiri1684/coderr/configs"
	"github.com/anjiri1684/coderr/models"
	"github.com/chromedp/cdproto/page"
	"github.com/chromedp/chromedp"
)

const receiptRenderTimeout = 30 * time.Second

//go:embed templates/order_receipt.html
var receiptTemplateSource string

var receiptTemplate = template.Must(template.New("order_receipt").Parse(receiptTemplateSource))

// RenderPDF turns an HTML document into PDF bytes. Tests replace it to avoid
// launching a browser.
var RenderPDF = renderPDFWithChrome

type receiptData struct {
	OrderID            uint
	IssuedAt           string
	Title              string
	OfferType          string
	Customer           string
	Business           string
	DeliveryTimeInDays int
	Revisions          string
	Status             string
	Features           []string
	Price              string
}

// OrderReceiptHTML renders the receipt page for order.
func OrderReceiptHTML(order *models.Order, customer, business string) (string, error) {
	revisions := "unlimited"
	if order.Revisions >= 0 {
		revisions = strconv.Itoa(order.Revisions)
	}

	data := receiptData{
		OrderID:            order.ID,
		IssuedAt:           time.Now().Format("January 2, 2006"),
		Title:              order.Title,
		OfferType:          order.OfferType,
		Customer:           customer,
		Business:           business,
		DeliveryTimeInDays: order.DeliveryTimeInDays,
		Revisions:          revisions,
		Status:             order.Status,
		Features:           order.Features,
		Price:              order.Price.StringFixed(2) + " EUR",
	}

	var rendered bytes.Buffer
	if err := receiptTemplate.Execute(&rendered, data); err != nil {
		return "", err
	}
	return rendered.String(), nil
}

// OrderReceiptPDF renders the receipt and prints it to PDF.
func OrderReceiptPDF(ctx context.Context, order *models.Order, customer, business string) ([]byte, error) {
	html, err := OrderReceiptHTML(order, customer, business)
	if err != nil {
		return nil, err
	}
	return RenderPDF(ctx, html)
}

func renderPDFWithChrome(parent context.Context, htmlContent string) ([]byte, error) {
	opts := chromedp.DefaultExecAllocatorOptions[:]
	if path := config.Config("CHROME_PATH"); path != "" {
		opts = append(opts, chromedp.ExecPath(path))
	}
	allocCtx, cancelAlloc := chromedp.NewExecAllocator(parent, opts...)
	defer cancelAlloc()

	ctx, cancel := chromedp.NewContext(allocCtx)
	defer cancel()
	ctx, cancelTimeout := context.WithTimeout(ctx, receiptRenderTimeout)
	defer cancelTimeout()

	var pdfBuffer []byte
	err := chromedp.Run(ctx,
		chromedp.Navigate("about:blank"),
		chromedp.ActionFunc(func(ctx context.Context) error {
			frameTree, err := page.GetFrameTree().Do(ctx)
			if err != nil {
				return err
			}
			return page.SetDocumentContent(frameTree.Frame.ID, htmlContent).Do(ctx)
		}),
		chromedp.ActionFunc(func(ctx context.Context) error {
			pdf, _, err := page.PrintToPDF().WithPrintBackground(true).Do(ctx)
			if err != nil {
				return err
			}
			pdfBuffer = pdf
			return nil
		}),
	)
	if err != nil {
		return nil, err
	}
	return pdfBuffer, nil
}
