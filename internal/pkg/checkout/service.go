package checkout

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/TobiasKrahl/Velora/app/models"
	"github.com/TobiasKrahl/Velora/internal/pkg/env"
	"github.com/TobiasKrahl/Velora/internal/pkg/hook"
	"github.com/TobiasKrahl/Velora/internal/pkg/paypal"
)

// Agreements must start after the provider has finished activating them, so
// the start date is pushed a little into the future.
const agreementStartOffset = time.Minute

// ProviderClient is the slice of the PayPal REST client the checkout uses.
// Satisfied by *paypal.Client; faked in tests.
type ProviderClient interface {
	CreatePayment(ctx context.Context, in *paypal.CreatePaymentRequest) (*paypal.Payment, error)
	ExecutePayment(ctx context.Context, paymentID, payerID string) (*paypal.Payment, error)
	CreateBillingPlan(ctx context.Context, plan *paypal.BillingPlan) (*paypal.BillingPlan, error)
	ActivateBillingPlan(ctx context.Context, planID string) error
	CreateBillingAgreement(ctx context.Context, agreement *paypal.BillingAgreement) (*paypal.BillingAgreement, error)
	ExecuteBillingAgreement(ctx context.Context, token string) (*paypal.BillingAgreement, error)
	CancelBillingAgreement(ctx context.Context, agreementID, note string) ([]byte, error)
	GetBillingAgreement(ctx context.Context, agreementID string) (*paypal.BillingAgreement, error)
}

// Config carries the shop-level settings the checkout needs to build
// provider requests.
type Config struct {
	// PublicBaseURL is the externally reachable base URL used for the
	// provider's return/cancel redirects.
	PublicBaseURL string
	// Currency is the default shop currency for payments without one.
	Currency string
}

// ConfigFromEnv reads PUBLIC_DOMAIN and SHOP_CURRENCY.
func ConfigFromEnv() Config {
	base := strings.TrimRight(strings.TrimSpace(env.GetEnv("PUBLIC_DOMAIN", "")), "/")
	if base != "" && !strings.Contains(base, "://") {
		base = "https://" + base
	}
	return Config{
		PublicBaseURL: base,
		Currency:      strings.TrimSpace(env.GetEnv("SHOP_CURRENCY", "USD")),
	}
}

// Service builds provider payment/subscription requests from invoices and
// maps the responses back onto the local Payment and Subscription records.
type Service struct {
	repo     Repository
	provider ProviderClient
	bus      *hook.Bus
	cfg      Config

	now func() time.Time
}

// NewService creates a checkout service from injected collaborators.
func NewService(repo Repository, provider ProviderClient, bus *hook.Bus, cfg Config) *Service {
	return &Service{
		repo:     repo,
		provider: provider,
		bus:      bus,
		cfg:      cfg,
		now:      time.Now,
	}
}

// NewServiceFromDB creates a checkout service from a GORM DB handle with
// environment configuration.
func NewServiceFromDB(db *gorm.DB, provider ProviderClient, bus *hook.Bus) *Service {
	return NewService(NewRepository(db), provider, bus, ConfigFromEnv())
}

// RegisterHooks subscribes the PayPal integration to the checkout lifecycle:
// method advertisement on payment.init and payment submission on payment.pay.
func (s *Service) RegisterHooks(bus *hook.Bus) {
	bus.Pre(hook.PaymentInit, func(ctx context.Context, payload any) error {
		sel, ok := payload.(*MethodSelection)
		if !ok || sel.Action != "payment" {
			return nil
		}
		sel.Methods = append(sel.Methods, PaymentMethod{
			Type:     models.PaymentMethodPaypal,
			Data:     map[string]any{},
			Priority: 1,
		})
		return nil
	})

	bus.Pre(hook.PaymentPay, func(ctx context.Context, payload any) error {
		payment, ok := payload.(*models.Payment)
		if !ok {
			return fmt.Errorf("checkout: payment.pay payload is %T, want *models.Payment", payload)
		}
		return s.Pay(ctx, payment)
	})
}

// Pay submits the payment to the provider. Payments that already errored or
// use another method are left untouched. Provider-call failures on the
// payment/agreement creation are recorded on the Payment, not returned;
// billing-plan creation and activation failures propagate to the caller.
func (s *Service) Pay(ctx context.Context, payment *models.Payment) error {
	if payment.HasError() || payment.MethodType != models.PaymentMethodPaypal {
		return nil
	}

	invoice, err := s.repo.GetInvoice(payment.InvoiceID)
	if err != nil {
		return err
	}
	orders, err := s.repo.ListOrdersByInvoice(invoice.ID)
	if err != nil {
		return err
	}
	var order *models.Order
	if len(orders) > 0 {
		order = &orders[0]
	}

	items, err := s.buildLineItems(ctx, payment, invoice, order)
	if err != nil {
		return err
	}

	for _, it := range items {
		if it.Type == models.ProductTypeSubscription {
			return s.paySubscription(ctx, payment, invoice, items)
		}
	}
	return s.payNormal(ctx, payment, invoice, items)
}

// buildLineItems prices every invoice line through the product.order and
// line.price hooks and maps it to provider shape.
func (s *Service) buildLineItems(ctx context.Context, payment *models.Payment, invoice *models.Invoice, order *models.Order) ([]lineItem, error) {
	currency := payment.Currency
	if currency == "" {
		currency = s.cfg.Currency
	}

	items := make([]lineItem, 0, len(invoice.Lines))
	for _, line := range invoice.Lines {
		product, err := s.repo.GetProduct(line.ProductID)
		if err != nil {
			return nil, fmt.Errorf("checkout: line %d product lookup: %w", line.ID, err)
		}

		opts := map[string]string{}
		if line.OptsJSON != "" {
			// Malformed opts only lose the SKU suffix, never the line.
			_ = json.Unmarshal([]byte(line.OptsJSON), &opts)
		}

		qty := line.Qty
		if qty < 1 {
			qty = 1
		}

		item := &OrderItem{
			Qty:     qty,
			Opts:    opts,
			Product: product,
			Price:   product.Price,
		}
		if err := s.bus.Hook(ctx, hook.ProductOrder, item); err != nil {
			return nil, err
		}

		pricing := &LinePricing{
			Qty:   item.Qty,
			Item:  item,
			Base:  item.Price,
			Price: item.Price.Mul(decimal.NewFromInt(int64(item.Qty))),
			Order: order,
		}
		if err := s.bus.Hook(ctx, hook.LinePrice, pricing); err != nil {
			return nil, err
		}

		items = append(items, lineItem{
			SKU:      product.SKU + optsSuffix(opts),
			Name:     product.Title,
			Price:    pricing.Base,
			Currency: currency,
			Quantity: pricing.Qty,
			Type:     product.Type,
			Period:   product.Period,
		})
	}
	return items, nil
}

// optsSuffix appends the selected variant values to the SKU, sorted for a
// stable provider-side identifier.
func optsSuffix(opts map[string]string) string {
	if len(opts) == 0 {
		return ""
	}
	keys := make([]string, 0, len(opts))
	for k := range opts {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	var b strings.Builder
	for _, k := range keys {
		b.WriteString("_")
		b.WriteString(opts[k])
	}
	return b.String()
}

// payNormal submits a one-off sale payment. When the authorized amount and
// the computed line total differ, a synthetic discount line makes the
// provider-side total reconcile exactly with the authorized amount.
func (s *Service) payNormal(ctx context.Context, payment *models.Payment, invoice *models.Invoice, items []lineItem) error {
	currency := payment.Currency
	if currency == "" {
		currency = s.cfg.Currency
	}

	computed := decimal.Zero
	providerItems := make([]paypal.Item, 0, len(items)+1)
	for _, it := range items {
		computed = computed.Add(it.total())
		providerItems = append(providerItems, paypal.Item{
			SKU:      it.SKU,
			Name:     it.Name,
			Price:    it.Price.StringFixed(2),
			Currency: it.Currency,
			Quantity: it.Quantity,
		})
	}

	if !payment.Amount.Equal(computed) {
		adjustment := payment.Amount.Sub(computed)
		providerItems = append(providerItems, paypal.Item{
			SKU:      "discount",
			Name:     "Discount",
			Price:    adjustment.StringFixed(2),
			Currency: currency,
			Quantity: 1,
		})
	}

	req := &paypal.CreatePaymentRequest{
		Intent:       "sale",
		Payer:        paypal.Payer{PaymentMethod: models.PaymentMethodPaypal},
		RedirectURLs: s.redirectURLs(),
		Transactions: []paypal.Transaction{{
			ItemList: &paypal.ItemList{Items: providerItems},
			Amount: paypal.Amount{
				Total:    payment.Amount.StringFixed(2),
				Currency: currency,
			},
			Description: fmt.Sprintf("Payment for invoice #%d.", invoice.ID),
		}},
	}

	created, err := s.provider.CreatePayment(ctx, req)
	if err != nil {
		payment.SetError(models.PaymentErrorPaypalError, err.Error())
		return nil
	}

	url, ok := paypal.ApprovalURL(created.Links)
	if !ok {
		payment.SetError(models.PaymentErrorPaypalNoURL, "no redirect URI present")
		return nil
	}

	payment.ProviderPaymentID = created.ID
	payment.RedirectURL = url
	payment.DataJSON = string(created.Raw)
	return nil
}

// paySubscription builds a billing plan from the invoice's subscription
// lines, activates it and creates the agreement the buyer approves. One-off
// lines on the same invoice are collected through the plan's setup fee.
func (s *Service) paySubscription(ctx context.Context, payment *models.Payment, invoice *models.Invoice, items []lineItem) error {
	currency := payment.Currency
	if currency == "" {
		currency = s.cfg.Currency
	}

	var subItems []lineItem
	for _, it := range items {
		if it.Type == models.ProductTypeSubscription {
			subItems = append(subItems, it)
		}
	}
	if len(subItems) == 0 {
		return fmt.Errorf("checkout: subscription path invoked without subscription lines")
	}

	period := subItems[0].Period
	for _, it := range subItems[1:] {
		if it.Period != period {
			return fmt.Errorf("checkout: invoice %d mixes subscription periods %q and %q", invoice.ID, period, it.Period)
		}
	}
	freq, err := FrequencyForPeriod(period)
	if err != nil {
		return err
	}

	subTotal := decimal.Zero
	for _, it := range subItems {
		subTotal = subTotal.Add(it.total())
	}
	setupFee := payment.Amount.Sub(subTotal)

	defs := []paypal.PaymentDefinition{{
		Name:              fmt.Sprintf("Subscription for payment %s", payment.Token),
		Type:              "REGULAR",
		Frequency:         freq.Unit,
		FrequencyInterval: strconv.Itoa(freq.Interval),
		Cycles:            "0",
		Amount: paypal.Money{
			Value:    subTotal.StringFixed(2),
			Currency: currency,
		},
	}}

	if invoice.TrialEndsAt != nil {
		if cycles := TrialCycles(s.now(), *invoice.TrialEndsAt, freq); cycles > 0 {
			trial := paypal.PaymentDefinition{
				Name:              fmt.Sprintf("Trial for payment %s", payment.Token),
				Type:              "TRIAL",
				Frequency:         freq.Unit,
				FrequencyInterval: strconv.Itoa(freq.Interval),
				Cycles:            strconv.Itoa(cycles),
				Amount: paypal.Money{
					Value:    "0.00",
					Currency: currency,
				},
			}
			defs = append([]paypal.PaymentDefinition{trial}, defs...)
		}
	}

	urls := s.redirectURLs()
	plan := &paypal.BillingPlan{
		Name:               fmt.Sprintf("Subscription plan for payment %s", payment.Token),
		Description:        fmt.Sprintf("Subscription plan for payment %s", payment.Token),
		Type:               "INFINITE",
		PaymentDefinitions: defs,
		MerchantPreferences: &paypal.MerchantPreferences{
			SetupFee: &paypal.Money{
				Value:    setupFee.StringFixed(2),
				Currency: currency,
			},
			ReturnURL:               urls.ReturnURL,
			CancelURL:               urls.CancelURL,
			AutoBillAmount:          "YES",
			MaxFailAttempts:         "0",
			InitialFailAmountAction: "CONTINUE",
		},
	}

	// Plan creation and activation happen before any approval redirect, so a
	// failure here propagates instead of being parked on the payment.
	createdPlan, err := s.provider.CreateBillingPlan(ctx, plan)
	if err != nil {
		return err
	}
	if err := s.provider.ActivateBillingPlan(ctx, createdPlan.ID); err != nil {
		return err
	}

	agreement := &paypal.BillingAgreement{
		Name:        fmt.Sprintf("Payment for invoice #%d.", invoice.ID),
		Description: fmt.Sprintf("Payment for invoice #%d.", invoice.ID),
		StartDate:   s.now().UTC().Add(agreementStartOffset).Format("2006-01-02T15:04:05Z"),
		Plan:        &paypal.PlanRef{ID: createdPlan.ID},
		Payer:       &paypal.Payer{PaymentMethod: models.PaymentMethodPaypal},
	}

	created, err := s.provider.CreateBillingAgreement(ctx, agreement)
	if err != nil {
		payment.SetError(models.PaymentErrorPaypalError, err.Error())
		return nil
	}

	url, ok := paypal.ApprovalURL(created.Links)
	if !ok {
		payment.SetError(models.PaymentErrorPaypalNoURL, "no redirect URI present")
		return nil
	}

	payment.ProviderPlanID = createdPlan.ID
	payment.ProviderPaymentID = created.ID
	payment.RedirectURL = url
	payment.DataJSON = string(created.Raw)
	return nil
}

func (s *Service) redirectURLs() paypal.RedirectURLs {
	return paypal.RedirectURLs{
		ReturnURL: s.cfg.PublicBaseURL + "/paypal/process",
		CancelURL: s.cfg.PublicBaseURL + "/paypal/cancel",
	}
}
