package checkout

import (
	"context"
	"testing"

	"github.com/TobiasKrahl/Velora/app/models"
	"github.com/TobiasKrahl/Velora/internal/pkg/paypal"
)

func processRepo(t *testing.T, payment *models.Payment) *fakeRepo {
	t.Helper()

	repo := oneOffRepo(t)
	repo.payments = []*models.Payment{payment}
	return repo
}

func TestProcessUnknownPayment(t *testing.T) {
	repo := &fakeRepo{}
	svc := newTestService(repo, &fakeProvider{})

	result, err := svc.Process(context.Background(), ProcessInput{ProviderPaymentID: "PAY-missing", PaymentToken: "nope"})
	if err != nil {
		t.Fatalf("Process returned error: %v", err)
	}
	if result.RedirectPath != "/checkout" {
		t.Fatalf("redirect = %q, want /checkout", result.RedirectPath)
	}
	if len(repo.savedPayments) != 0 || len(repo.savedOrders) != 0 {
		t.Fatalf("unknown payment must not write anything")
	}
}

func TestProcessExecuteErrorRecorded(t *testing.T) {
	payment := &models.Payment{ID: 1, Token: "pay-token", InvoiceID: 1, MethodType: models.PaymentMethodPaypal, ProviderPaymentID: "PAY-1"}
	repo := processRepo(t, payment)
	provider := &fakeProvider{
		executePayment: func(ctx context.Context, paymentID, payerID string) (*paypal.Payment, error) {
			return nil, &paypal.APIError{StatusCode: 500, Body: "execute failed"}
		},
	}

	svc := newTestService(repo, provider)
	result, err := svc.Process(context.Background(), ProcessInput{ProviderPaymentID: "PAY-1", PayerID: "PAYER-1"})
	if err != nil {
		t.Fatalf("Process returned error: %v", err)
	}
	if result.RedirectPath != "/order/order-token" {
		t.Fatalf("redirect = %q, want order page", result.RedirectPath)
	}

	if len(repo.savedPayments) != 1 {
		t.Fatalf("got %d payment saves, want 1", len(repo.savedPayments))
	}
	saved := repo.savedPayments[0]
	if saved.ErrorID != models.PaymentErrorPaypalError {
		t.Fatalf("error id = %q, want %q", saved.ErrorID, models.PaymentErrorPaypalError)
	}
	if saved.Complete {
		t.Fatalf("errored payment saved as complete")
	}
	if len(repo.savedOrders) != 0 {
		t.Fatalf("orders must stay untouched on execute failure")
	}
}

func TestProcessNotApproved(t *testing.T) {
	payment := &models.Payment{ID: 1, Token: "pay-token", InvoiceID: 1, MethodType: models.PaymentMethodPaypal, ProviderPaymentID: "PAY-1"}
	repo := processRepo(t, payment)
	provider := &fakeProvider{
		executePayment: func(ctx context.Context, paymentID, payerID string) (*paypal.Payment, error) {
			return &paypal.Payment{ID: "PAY-1", State: "failed", Raw: []byte(`{"state":"failed"}`)}, nil
		},
	}

	svc := newTestService(repo, provider)
	if _, err := svc.Process(context.Background(), ProcessInput{ProviderPaymentID: "PAY-1"}); err != nil {
		t.Fatalf("Process returned error: %v", err)
	}

	saved := repo.savedPayments[0]
	if saved.ErrorID != models.PaymentErrorPaypalFail {
		t.Fatalf("error id = %q, want %q", saved.ErrorID, models.PaymentErrorPaypalFail)
	}
	if saved.ErrorText != "Payment not successful" {
		t.Fatalf("error text = %q", saved.ErrorText)
	}
	if saved.Complete || saved.CompletedAt != nil {
		t.Fatalf("non-approved payment saved as complete")
	}
}

func TestProcessSuccessCompletesOrders(t *testing.T) {
	payment := &models.Payment{ID: 1, Token: "pay-token", InvoiceID: 1, MethodType: models.PaymentMethodPaypal, ProviderPaymentID: "PAY-1"}
	repo := processRepo(t, payment)
	repo.orders[0].RedirectPending = true

	var gotPayerID string
	provider := &fakeProvider{
		executePayment: func(ctx context.Context, paymentID, payerID string) (*paypal.Payment, error) {
			gotPayerID = payerID
			return &paypal.Payment{ID: "PAY-1", State: "approved", Raw: []byte(`{"state":"approved"}`)}, nil
		},
	}

	svc := newTestService(repo, provider)
	result, err := svc.Process(context.Background(), ProcessInput{ProviderPaymentID: "PAY-1", PayerID: "PAYER-1"})
	if err != nil {
		t.Fatalf("Process returned error: %v", err)
	}
	if result.RedirectPath != "/order/order-token" {
		t.Fatalf("redirect = %q", result.RedirectPath)
	}
	if gotPayerID != "PAYER-1" {
		t.Fatalf("payer id = %q", gotPayerID)
	}

	if len(repo.savedOrders) != 1 {
		t.Fatalf("got %d order saves, want 1", len(repo.savedOrders))
	}
	order := repo.savedOrders[0]
	if order.Status != models.OrderStatusComplete || order.RedirectPending {
		t.Fatalf("order after success = %+v", order)
	}

	saved := repo.savedPayments[len(repo.savedPayments)-1]
	if !saved.Complete || saved.CompletedAt == nil || !saved.CompletedAt.Equal(testNow) {
		t.Fatalf("payment after success = %+v", saved)
	}
	if saved.HasError() {
		t.Fatalf("successful payment still carries error %q", saved.ErrorID)
	}
	if saved.DataJSON != `{"state":"approved"}` {
		t.Fatalf("data json = %q", saved.DataJSON)
	}
}

func TestProcessSuccessClearsEarlierError(t *testing.T) {
	payment := &models.Payment{ID: 1, Token: "pay-token", InvoiceID: 1, MethodType: models.PaymentMethodPaypal, ProviderPaymentID: "PAY-1"}
	payment.SetError(models.PaymentErrorPaypalFail, "Payment not successful")
	repo := processRepo(t, payment)
	provider := &fakeProvider{
		executePayment: func(ctx context.Context, paymentID, payerID string) (*paypal.Payment, error) {
			return &paypal.Payment{ID: "PAY-1", State: "approved", Raw: []byte(`{}`)}, nil
		},
	}

	svc := newTestService(repo, provider)
	if _, err := svc.Process(context.Background(), ProcessInput{ProviderPaymentID: "PAY-1"}); err != nil {
		t.Fatalf("Process returned error: %v", err)
	}

	saved := repo.savedPayments[len(repo.savedPayments)-1]
	if saved.HasError() || !saved.Complete {
		t.Fatalf("retried payment = %+v, want error cleared and complete", saved)
	}
}

func TestProcessAgreementPropagatesToSubscriptions(t *testing.T) {
	payment := &models.Payment{ID: 2, Token: "sub-pay", InvoiceID: 2, MethodType: models.PaymentMethodPaypal, ProviderPaymentID: "A-1", ProviderPlanID: "P-9"}
	repo := subscriptionRepo(t)
	repo.payments = []*models.Payment{payment}
	repo.subs = []*models.Subscription{
		{ID: 1, OrderID: 7, ProductID: 20, Period: models.PeriodMonthly, State: models.SubscriptionStateActive},
	}

	var gotToken string
	provider := &fakeProvider{
		executeAgreement: func(ctx context.Context, token string) (*paypal.BillingAgreement, error) {
			gotToken = token
			return &paypal.BillingAgreement{ID: "I-555", State: "Active", Raw: []byte(`{"id":"I-555"}`)}, nil
		},
	}

	svc := newTestService(repo, provider)
	result, err := svc.Process(context.Background(), ProcessInput{PaymentToken: "sub-pay", AgreementToken: "EC-77"})
	if err != nil {
		t.Fatalf("Process returned error: %v", err)
	}
	if result.RedirectPath != "/order/sub-order" {
		t.Fatalf("redirect = %q", result.RedirectPath)
	}
	if gotToken != "EC-77" {
		t.Fatalf("agreement token = %q, want EC-77", gotToken)
	}

	if len(repo.savedSubs) != 1 {
		t.Fatalf("got %d subscription saves, want 1", len(repo.savedSubs))
	}
	if repo.savedSubs[0].ProviderAgreementID != "I-555" {
		t.Fatalf("agreement id on subscription = %q, want I-555", repo.savedSubs[0].ProviderAgreementID)
	}

	saved := repo.savedPayments[len(repo.savedPayments)-1]
	if !saved.Complete || saved.DataJSON != `{"id":"I-555"}` {
		t.Fatalf("payment after agreement execute = %+v", saved)
	}
}

func TestProcessFindsPaymentByTokenFallback(t *testing.T) {
	payment := &models.Payment{ID: 1, Token: "pay-token", InvoiceID: 1, MethodType: models.PaymentMethodPaypal, ProviderPaymentID: "PAY-1"}
	repo := processRepo(t, payment)
	provider := &fakeProvider{
		executePayment: func(ctx context.Context, paymentID, payerID string) (*paypal.Payment, error) {
			return &paypal.Payment{ID: "PAY-1", State: "approved", Raw: []byte(`{}`)}, nil
		},
	}

	svc := newTestService(repo, provider)
	result, err := svc.Process(context.Background(), ProcessInput{ProviderPaymentID: "PAY-unknown", PaymentToken: "pay-token"})
	if err != nil {
		t.Fatalf("Process returned error: %v", err)
	}
	if result.RedirectPath != "/order/order-token" {
		t.Fatalf("redirect = %q, want token lookup to resolve the payment", result.RedirectPath)
	}
}
