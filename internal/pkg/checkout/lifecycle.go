package checkout

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/TobiasKrahl/Velora/app/models"
	"github.com/TobiasKrahl/Velora/internal/pkg/hook"
	"github.com/TobiasKrahl/Velora/internal/pkg/paypal"
)

// Endpoint names the subscription domain model calls through the bus.
const (
	EndpointSubscriptionCancel = "subscription.paypal.cancel"
	EndpointSubscriptionUpdate = "subscription.paypal.update"
)

const agreementCancelNote = "Cancelled as per request"

// RegisterEndpoints exposes the agreement lifecycle operations on the bus.
func (s *Service) RegisterEndpoints(bus *hook.Bus) {
	bus.Endpoint(EndpointSubscriptionCancel, func(ctx context.Context, payload any) error {
		sub, ok := payload.(*models.Subscription)
		if !ok {
			return fmt.Errorf("checkout: %s payload is %T, want *models.Subscription", EndpointSubscriptionCancel, payload)
		}
		return s.CancelSubscription(ctx, sub)
	})

	bus.Endpoint(EndpointSubscriptionUpdate, func(ctx context.Context, payload any) error {
		sub, ok := payload.(*models.Subscription)
		if !ok {
			return fmt.Errorf("checkout: %s payload is %T, want *models.Subscription", EndpointSubscriptionUpdate, payload)
		}
		return s.RefreshSubscription(ctx, sub)
	})
}

// CancelSubscription cancels the provider agreement and drives the local
// state to cancelled. An agreement the provider already considers cancelled
// still ends cancelled locally; any other provider failure propagates and
// leaves the subscription untouched.
func (s *Service) CancelSubscription(ctx context.Context, sub *models.Subscription) error {
	raw, err := s.provider.CancelBillingAgreement(ctx, sub.ProviderAgreementID, agreementCancelNote)
	if err != nil {
		agreement, getErr := s.provider.GetBillingAgreement(ctx, sub.ProviderAgreementID)
		if getErr != nil || !strings.EqualFold(agreement.State, paypal.AgreementStateCancel) {
			return err
		}
		raw = agreement.Raw
	}

	sub.CancelPayloadJSON = string(raw)
	sub.State = models.SubscriptionStateCancelled
	return s.repo.SaveSubscription(sub)
}

// RefreshSubscription polls the provider for the agreement state and mirrors
// a provider-side cancellation into the local record. All other provider
// states leave the subscription as-is.
func (s *Service) RefreshSubscription(ctx context.Context, sub *models.Subscription) error {
	if sub.ProviderAgreementID == "" {
		return errors.New("checkout: subscription has no provider agreement reference")
	}

	agreement, err := s.provider.GetBillingAgreement(ctx, sub.ProviderAgreementID)
	if err != nil {
		return err
	}
	if !strings.EqualFold(agreement.State, paypal.AgreementStateCancel) {
		return nil
	}

	sub.CancelPayloadJSON = string(agreement.Raw)
	sub.State = models.SubscriptionStateCancelled
	return s.repo.SaveSubscription(sub)
}
