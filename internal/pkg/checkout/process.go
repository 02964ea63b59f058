package checkout

import (
	"context"
	"errors"
	"strings"

	"gorm.io/gorm"

	"github.com/TobiasKrahl/Velora/app/models"
	"github.com/TobiasKrahl/Velora/internal/pkg/paypal"
)

// Process resumes a payment after the buyer returns from the provider's
// approval page. Every outcome ends in a redirect: /checkout when no payment
// matches, the order page otherwise; provider failures are persisted on the
// Payment and readable from the order page.
func (s *Service) Process(ctx context.Context, in ProcessInput) (*ProcessResult, error) {
	payment, err := s.findPayment(in)
	if err != nil {
		return nil, err
	}
	if payment == nil {
		return &ProcessResult{RedirectPath: "/checkout"}, nil
	}

	invoice, err := s.repo.GetInvoice(payment.InvoiceID)
	if err != nil {
		return nil, err
	}
	orders, err := s.repo.ListOrdersByInvoice(invoice.ID)
	if err != nil {
		return nil, err
	}

	redirectPath := "/checkout"
	if len(orders) > 0 {
		redirectPath = "/order/" + orders[0].Token
	}
	result := &ProcessResult{RedirectPath: redirectPath}

	var (
		approved    bool
		rawPayload  string
		agreementID string
	)
	if payment.ProviderPlanID != "" {
		agreement, execErr := s.provider.ExecuteBillingAgreement(ctx, in.AgreementToken)
		if execErr != nil {
			payment.SetError(models.PaymentErrorPaypalError, execErr.Error())
			if err := s.repo.SavePayment(payment); err != nil {
				return nil, err
			}
			return result, nil
		}
		approved = strings.EqualFold(agreement.State, paypal.AgreementStateActive) ||
			strings.EqualFold(agreement.State, paypal.PaymentStateApproved)
		rawPayload = string(agreement.Raw)
		agreementID = agreement.ID
	} else {
		executed, execErr := s.provider.ExecutePayment(ctx, payment.ProviderPaymentID, in.PayerID)
		if execErr != nil {
			payment.SetError(models.PaymentErrorPaypalError, execErr.Error())
			if err := s.repo.SavePayment(payment); err != nil {
				return nil, err
			}
			return result, nil
		}
		approved = strings.EqualFold(executed.State, paypal.PaymentStateApproved)
		rawPayload = string(executed.Raw)
	}

	if !approved {
		payment.SetError(models.PaymentErrorPaypalFail, "Payment not successful")
		if err := s.repo.SavePayment(payment); err != nil {
			return nil, err
		}
		return result, nil
	}

	orderIDs := make([]uint, 0, len(orders))
	for i := range orders {
		orders[i].RedirectPending = false
		orders[i].Status = models.OrderStatusComplete
		if err := s.repo.SaveOrder(&orders[i]); err != nil {
			return nil, err
		}
		orderIDs = append(orderIDs, orders[i].ID)
	}

	payment.MarkComplete(s.now())
	payment.DataJSON = rawPayload
	if err := s.repo.SavePayment(payment); err != nil {
		return nil, err
	}

	if agreementID != "" {
		subs, err := s.repo.ListSubscriptionsByOrders(orderIDs)
		if err != nil {
			return nil, err
		}
		for i := range subs {
			subs[i].ProviderAgreementID = agreementID
			if err := s.repo.SaveSubscription(&subs[i]); err != nil {
				return nil, err
			}
		}
	}

	return result, nil
}

// findPayment resolves the returning payment by provider payment id first,
// then by the local payment token from the route.
func (s *Service) findPayment(in ProcessInput) (*models.Payment, error) {
	if in.ProviderPaymentID != "" {
		p, err := s.repo.FindPaymentByProviderID(in.ProviderPaymentID)
		if err == nil {
			return p, nil
		}
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, err
		}
	}
	if in.PaymentToken != "" {
		p, err := s.repo.FindPaymentByToken(in.PaymentToken)
		if err == nil {
			return p, nil
		}
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, err
		}
	}
	return nil, nil
}
