package checkout

import (
	"github.com/shopspring/decimal"

	"github.com/TobiasKrahl/Velora/app/models"
)

// PaymentMethod is one advertised way to pay, appended during the
// payment.init hook phase.
type PaymentMethod struct {
	Type     string         `json:"type"`
	Data     map[string]any `json:"data"`
	Priority int            `json:"priority"`
}

// MethodSelection is the payment.init hook payload. Handlers append their
// method descriptor when Action is "payment".
type MethodSelection struct {
	Action  string
	Methods []PaymentMethod
}

// OrderItem is the product.order hook payload: a product being ordered with
// its resolved unit price. Pricing hooks may adjust Price.
type OrderItem struct {
	Qty     int
	Opts    map[string]string
	Product *models.Product
	Price   decimal.Decimal
}

// LinePricing is the line.price hook payload. Base is the unit price after
// product.order hooks ran, Price the line total; hooks may adjust either.
type LinePricing struct {
	Qty   int
	Item  *OrderItem
	Base  decimal.Decimal
	Price decimal.Decimal
	Order *models.Order
}

// lineItem is an invoice line mapped to provider shape, still carrying the
// product type and period needed to split subscription lines.
type lineItem struct {
	SKU      string
	Name     string
	Price    decimal.Decimal
	Currency string
	Quantity int
	Type     string
	Period   string
}

func (l lineItem) total() decimal.Decimal {
	return l.Price.Mul(decimal.NewFromInt(int64(l.Quantity)))
}

// ProcessInput carries the query parameters of the provider return redirect.
type ProcessInput struct {
	PaymentToken      string
	ProviderPaymentID string
	PayerID           string
	AgreementToken    string
}

// ProcessResult is the redirect target the controller sends the buyer to.
// Process never exposes provider errors to the browser directly; failures
// are persisted on the Payment and surfaced through the order page.
type ProcessResult struct {
	RedirectPath string
}
