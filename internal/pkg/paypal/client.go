package paypal

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/TobiasKrahl/Velora/internal/pkg/env"
)

const (
	sandboxAPIBaseURL = "https://api.sandbox.paypal.com"
	liveAPIBaseURL    = "https://api.paypal.com"

	// Refresh the OAuth token slightly before the provider expires it.
	tokenExpirySkew = 60 * time.Second
)

// Config holds the REST API credentials. Mode selects the sandbox or live
// endpoint unless an explicit base URL override is configured.
type Config struct {
	ClientID     string `validate:"required"`
	ClientSecret string `validate:"required"`
	Mode         string `validate:"oneof=sandbox live"`
	APIBaseURL   string
}

func (c Config) Validate() error {
	v := validator.New()

	return v.Struct(c)
}

// Client is a minimal PayPal REST API client covering one-off payments and
// recurring billing plans/agreements.
type Client struct {
	cfg        Config
	HTTPClient *http.Client

	mu          sync.Mutex
	accessToken string
	tokenExpiry time.Time
}

// NewClient validates the configuration and builds a client.
func NewClient(cfg Config) (*Client, error) {
	if cfg.Mode == "" {
		cfg.Mode = "sandbox"
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("paypal config invalid: %w", err)
	}
	if cfg.APIBaseURL == "" {
		cfg.APIBaseURL = sandboxAPIBaseURL
		if cfg.Mode == "live" {
			cfg.APIBaseURL = liveAPIBaseURL
		}
	}
	cfg.APIBaseURL = strings.TrimRight(cfg.APIBaseURL, "/")

	return &Client{
		cfg: cfg,
		HTTPClient: &http.Client{
			Timeout: 15 * time.Second,
		},
	}, nil
}

// NewClientFromEnv builds a client from PAYPAL_* environment configuration.
func NewClientFromEnv() (*Client, error) {
	return NewClient(Config{
		ClientID:     strings.TrimSpace(env.GetEnv("PAYPAL_CLIENT_ID", "")),
		ClientSecret: strings.TrimSpace(env.GetEnv("PAYPAL_CLIENT_SECRET", "")),
		Mode:         strings.TrimSpace(env.GetEnv("PAYPAL_MODE", "sandbox")),
		APIBaseURL:   strings.TrimSpace(env.GetEnv("PAYPAL_API_BASE_URL", "")),
	})
}

// APIError is a non-2xx provider response with the body preserved.
type APIError struct {
	StatusCode int
	Body       string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("paypal: status=%d body=%s", e.StatusCode, e.Body)
}

func (c *Client) token(ctx context.Context) (string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.accessToken != "" && time.Now().Before(c.tokenExpiry) {
		return c.accessToken, nil
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost,
		c.cfg.APIBaseURL+"/v1/oauth2/token", strings.NewReader("grant_type=client_credentials"))
	if err != nil {
		return "", err
	}
	req.SetBasicAuth(c.cfg.ClientID, c.cfg.ClientSecret)
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.Header.Set("Accept", "application/json")

	resp, err := c.HTTPClient.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	body, _ := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return "", &APIError{StatusCode: resp.StatusCode, Body: string(body)}
	}

	var out tokenResponse
	if err := json.Unmarshal(body, &out); err != nil {
		return "", err
	}
	if strings.TrimSpace(out.AccessToken) == "" {
		return "", fmt.Errorf("paypal token endpoint returned empty access_token")
	}

	c.accessToken = out.AccessToken
	c.tokenExpiry = time.Now().Add(time.Duration(out.ExpiresIn)*time.Second - tokenExpirySkew)
	return c.accessToken, nil
}

// do sends an authenticated JSON request and returns the raw response body.
func (c *Client) do(ctx context.Context, method, path string, payload any) ([]byte, error) {
	token, err := c.token(ctx)
	if err != nil {
		return nil, err
	}

	var reqBody io.Reader
	if payload != nil {
		buf, err := json.Marshal(payload)
		if err != nil {
			return nil, err
		}
		reqBody = bytes.NewReader(buf)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.cfg.APIBaseURL+path, reqBody)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Authorization", "Bearer "+token)
	req.Header.Set("Accept", "application/json")
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.HTTPClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	body, _ := io.ReadAll(io.LimitReader(resp.Body, 2<<20))
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, &APIError{StatusCode: resp.StatusCode, Body: string(body)}
	}
	return body, nil
}

// CreatePayment creates a one-off payment and returns the provider resource
// including its approval link.
func (c *Client) CreatePayment(ctx context.Context, in *CreatePaymentRequest) (*Payment, error) {
	body, err := c.do(ctx, http.MethodPost, "/v1/payments/payment", in)
	if err != nil {
		return nil, err
	}

	var out Payment
	if err := json.Unmarshal(body, &out); err != nil {
		return nil, err
	}
	out.Raw = body
	return &out, nil
}

// ExecutePayment captures an approved payment on behalf of the payer.
func (c *Client) ExecutePayment(ctx context.Context, paymentID, payerID string) (*Payment, error) {
	payload := map[string]string{"payer_id": payerID}
	body, err := c.do(ctx, http.MethodPost, "/v1/payments/payment/"+paymentID+"/execute", payload)
	if err != nil {
		return nil, err
	}

	var out Payment
	if err := json.Unmarshal(body, &out); err != nil {
		return nil, err
	}
	out.Raw = body
	return &out, nil
}

// CreateBillingPlan creates a billing plan in CREATED state.
func (c *Client) CreateBillingPlan(ctx context.Context, plan *BillingPlan) (*BillingPlan, error) {
	body, err := c.do(ctx, http.MethodPost, "/v1/payments/billing-plans", plan)
	if err != nil {
		return nil, err
	}

	var out BillingPlan
	if err := json.Unmarshal(body, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// ActivateBillingPlan patches a created plan into ACTIVE state. Agreements
// can only be created against active plans.
func (c *Client) ActivateBillingPlan(ctx context.Context, planID string) error {
	patch := []patchOp{{
		Op:    "replace",
		Path:  "/",
		Value: map[string]string{"state": BillingPlanStateActive},
	}}
	_, err := c.do(ctx, http.MethodPatch, "/v1/payments/billing-plans/"+planID, patch)
	return err
}

// CreateBillingAgreement creates an agreement against an active plan and
// returns it with the payer approval link.
func (c *Client) CreateBillingAgreement(ctx context.Context, agreement *BillingAgreement) (*BillingAgreement, error) {
	body, err := c.do(ctx, http.MethodPost, "/v1/payments/billing-agreements", agreement)
	if err != nil {
		return nil, err
	}

	var out BillingAgreement
	if err := json.Unmarshal(body, &out); err != nil {
		return nil, err
	}
	out.Raw = body
	return &out, nil
}

// ExecuteBillingAgreement finalizes an approved agreement using the token
// the provider appended to the return URL.
func (c *Client) ExecuteBillingAgreement(ctx context.Context, token string) (*BillingAgreement, error) {
	body, err := c.do(ctx, http.MethodPost, "/v1/payments/billing-agreements/"+token+"/agreement-execute", struct{}{})
	if err != nil {
		return nil, err
	}

	var out BillingAgreement
	if err := json.Unmarshal(body, &out); err != nil {
		return nil, err
	}
	out.Raw = body
	return &out, nil
}

// CancelBillingAgreement cancels an agreement with a note. The provider
// usually responds with 204 and no body; whatever body it does send is
// returned for persistence.
func (c *Client) CancelBillingAgreement(ctx context.Context, agreementID, note string) ([]byte, error) {
	return c.do(ctx, http.MethodPost, "/v1/payments/billing-agreements/"+agreementID+"/cancel", cancelNote{Note: note})
}

// GetBillingAgreement fetches the current agreement state.
func (c *Client) GetBillingAgreement(ctx context.Context, agreementID string) (*BillingAgreement, error) {
	body, err := c.do(ctx, http.MethodGet, "/v1/payments/billing-agreements/"+agreementID, nil)
	if err != nil {
		return nil, err
	}

	var out BillingAgreement
	if err := json.Unmarshal(body, &out); err != nil {
		return nil, err
	}
	out.Raw = body
	return &out, nil
}
