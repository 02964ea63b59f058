package paypal

import "encoding/json"

// Provider-side payment and billing-plan states this integration inspects.
// Everything else in provider payloads is carried opaquely.
const (
	PaymentStateApproved   = "approved"
	AgreementStateActive   = "Active"
	AgreementStateCancel   = "Cancelled"
	BillingPlanStateActive = "ACTIVE"
)

// Link is a HATEOAS link as returned by the provider.
type Link struct {
	Href   string `json:"href"`
	Rel    string `json:"rel"`
	Method string `json:"method,omitempty"`
}

// ApprovalURL finds the hosted approval page link in a link set.
func ApprovalURL(links []Link) (string, bool) {
	for _, l := range links {
		if l.Rel == "approval_url" {
			return l.Href, true
		}
	}
	return "", false
}

// Amount is a transaction total (payments API shape).
type Amount struct {
	Total    string `json:"total"`
	Currency string `json:"currency"`
}

// Money is a value/currency pair (billing plans API shape).
type Money struct {
	Value    string `json:"value"`
	Currency string `json:"currency"`
}

// Item is one provider-facing line item.
type Item struct {
	SKU      string `json:"sku"`
	Name     string `json:"name"`
	Price    string `json:"price"`
	Currency string `json:"currency"`
	Quantity int    `json:"quantity"`
}

type ItemList struct {
	Items []Item `json:"items"`
}

type Transaction struct {
	ItemList    *ItemList `json:"item_list,omitempty"`
	Amount      Amount    `json:"amount"`
	Description string    `json:"description,omitempty"`
}

type Payer struct {
	PaymentMethod string `json:"payment_method"`
}

type RedirectURLs struct {
	ReturnURL string `json:"return_url"`
	CancelURL string `json:"cancel_url"`
}

// CreatePaymentRequest is the sale-intent payment request body.
type CreatePaymentRequest struct {
	Intent       string        `json:"intent"`
	Payer        Payer         `json:"payer"`
	RedirectURLs RedirectURLs  `json:"redirect_urls"`
	Transactions []Transaction `json:"transactions"`
}

// Payment is the provider's payment resource. Raw preserves the full
// response body for persistence on the local Payment record.
type Payment struct {
	ID           string        `json:"id"`
	Intent       string        `json:"intent"`
	State        string        `json:"state"`
	Transactions []Transaction `json:"transactions,omitempty"`
	Links        []Link        `json:"links,omitempty"`

	Raw json.RawMessage `json:"-"`
}

// PaymentDefinition is one recurring or trial segment of a billing plan.
type PaymentDefinition struct {
	Name              string `json:"name"`
	Type              string `json:"type"`
	Frequency         string `json:"frequency"`
	FrequencyInterval string `json:"frequency_interval"`
	Cycles            string `json:"cycles"`
	Amount            Money  `json:"amount"`
}

type MerchantPreferences struct {
	SetupFee                *Money `json:"setup_fee,omitempty"`
	ReturnURL               string `json:"return_url"`
	CancelURL               string `json:"cancel_url"`
	AutoBillAmount          string `json:"auto_bill_amount,omitempty"`
	MaxFailAttempts         string `json:"max_fail_attempts,omitempty"`
	InitialFailAmountAction string `json:"initial_fail_amount_action,omitempty"`
}

// BillingPlan is the recurring charge template created before an agreement.
type BillingPlan struct {
	ID                  string               `json:"id,omitempty"`
	Name                string               `json:"name"`
	Description         string               `json:"description"`
	Type                string               `json:"type"`
	State               string               `json:"state,omitempty"`
	PaymentDefinitions  []PaymentDefinition  `json:"payment_definitions"`
	MerchantPreferences *MerchantPreferences `json:"merchant_preferences,omitempty"`
	Links               []Link               `json:"links,omitempty"`
}

// PlanRef points an agreement at an existing billing plan.
type PlanRef struct {
	ID string `json:"id"`
}

// BillingAgreement is a billing plan instance bound to a payer.
type BillingAgreement struct {
	ID          string   `json:"id,omitempty"`
	Name        string   `json:"name,omitempty"`
	Description string   `json:"description,omitempty"`
	State       string   `json:"state,omitempty"`
	StartDate   string   `json:"start_date,omitempty"`
	Plan        *PlanRef `json:"plan,omitempty"`
	Payer       *Payer   `json:"payer,omitempty"`
	Links       []Link   `json:"links,omitempty"`

	Raw json.RawMessage `json:"-"`
}

type patchOp struct {
	Op    string `json:"op"`
	Path  string `json:"path"`
	Value any    `json:"value"`
}

type cancelNote struct {
	Note string `json:"note"`
}

type tokenResponse struct {
	AccessToken string `json:"access_token"`
	TokenType   string `json:"token_type"`
	ExpiresIn   int    `json:"expires_in"`
}
