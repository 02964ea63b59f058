package controllers

import (
	"context"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/sujit-baniya/flash"

	"github.com/TobiasKrahl/Velora/internal/pkg/checkout"
	"github.com/TobiasKrahl/Velora/internal/pkg/constants"
	"github.com/TobiasKrahl/Velora/internal/pkg/database"
	"github.com/TobiasKrahl/Velora/internal/pkg/hook"
	"github.com/TobiasKrahl/Velora/internal/pkg/paypal"
)

func newCheckoutService() (*checkout.Service, error) {
	client, err := paypal.NewClientFromEnv()
	if err != nil {
		return nil, err
	}
	return checkout.NewServiceFromDB(database.GetDB(), client, hook.Default()), nil
}

// HandlePaypalProcess resumes a payment after the buyer returns from the
// PayPal approval page. It always redirects: to /checkout when no matching
// payment exists, to the order page in every other case.
func HandlePaypalProcess(c *fiber.Ctx) error {
	svc, err := newCheckoutService()
	if err != nil {
		return flash.WithError(c, fiber.Map{"type": "error", "message": "PayPal ist nicht korrekt konfiguriert"}).Redirect(constants.CheckoutRoute)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Second)
	defer cancel()

	result, err := svc.Process(ctx, checkout.ProcessInput{
		PaymentToken:      c.Params("id"),
		ProviderPaymentID: c.Query("paymentId"),
		PayerID:           c.Query("PayerID"),
		AgreementToken:    c.Query("token"),
	})
	if err != nil {
		return flash.WithError(c, fiber.Map{"type": "error", "message": "Zahlung konnte nicht abgeschlossen werden"}).Redirect(constants.CheckoutRoute)
	}

	return c.Redirect(result.RedirectPath, fiber.StatusSeeOther)
}

// HandlePaypalCancel returns the buyer to checkout after aborting on the
// provider's page. No state is touched.
func HandlePaypalCancel(c *fiber.Ctx) error {
	return c.Redirect(constants.CheckoutRoute, fiber.StatusSeeOther)
}
