package controllers

import (
	"context"
	"errors"
	"sort"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/sujit-baniya/flash"
	"gorm.io/gorm"

	"github.com/TobiasKrahl/Velora/app/models"
	"github.com/TobiasKrahl/Velora/internal/pkg/checkout"
	"github.com/TobiasKrahl/Velora/internal/pkg/constants"
	"github.com/TobiasKrahl/Velora/internal/pkg/database"
	"github.com/TobiasKrahl/Velora/internal/pkg/hook"
	"github.com/TobiasKrahl/Velora/internal/pkg/session"
)

const checkoutOrderSessionKey = "checkout_order"

// HandleCheckout shows the active checkout state for the session.
func HandleCheckout(c *fiber.Ctx) error {
	return c.JSON(fiber.Map{
		"order": session.GetSessionValue(c, checkoutOrderSessionKey),
	})
}

// HandleCheckoutPay starts paying an open order: runs the payment.init hook
// phase to collect available methods, creates the Payment and submits it via
// the payment.pay hook. The buyer ends up either on the provider's approval
// page or back on the order page where the payment state is readable.
func HandleCheckoutPay(c *fiber.Ctx) error {
	db := database.GetDB()

	var order models.Order
	if err := db.Where("token = ?", c.Params("token")).First(&order).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return flash.WithError(c, fiber.Map{"type": "error", "message": "Bestellung nicht gefunden"}).Redirect(constants.CheckoutRoute)
		}
		return flash.WithError(c, fiber.Map{"type": "error", "message": "Bestellung konnte nicht geladen werden"}).Redirect(constants.CheckoutRoute)
	}

	var invoice models.Invoice
	if err := db.Preload("Lines").Where("id = ?", order.InvoiceID).First(&invoice).Error; err != nil {
		return flash.WithError(c, fiber.Map{"type": "error", "message": "Rechnung konnte nicht geladen werden"}).Redirect(constants.CheckoutRoute)
	}

	// Hook registration happens once at startup; here we only publish.
	bus := hook.Default()

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	selection := &checkout.MethodSelection{Action: "payment"}
	if err := bus.Hook(ctx, hook.PaymentInit, selection); err != nil {
		return flash.WithError(c, fiber.Map{"type": "error", "message": "Zahlungsarten konnten nicht ermittelt werden"}).Redirect(constants.CheckoutRoute)
	}

	method, ok := pickMethod(selection.Methods, c.FormValue("method"))
	if !ok {
		return flash.WithError(c, fiber.Map{"type": "error", "message": "Keine passende Zahlungsart verfuegbar"}).Redirect(constants.CheckoutRoute)
	}

	payment := &models.Payment{
		Token:      uuid.NewString(),
		InvoiceID:  invoice.ID,
		Amount:     invoice.Total,
		Currency:   invoice.Currency,
		MethodType: method.Type,
	}
	if err := db.Create(payment).Error; err != nil {
		return flash.WithError(c, fiber.Map{"type": "error", "message": "Zahlung konnte nicht angelegt werden"}).Redirect(constants.CheckoutRoute)
	}

	orderPath := constants.OrderRoute + "/" + order.Token
	if err := bus.Hook(ctx, hook.PaymentPay, payment); err != nil {
		// Billing-plan failures surface here before any money moved.
		_ = db.Save(payment).Error
		return flash.WithError(c, fiber.Map{"type": "error", "message": "Zahlung konnte nicht eingeleitet werden"}).Redirect(orderPath)
	}

	order.RedirectPending = payment.RedirectURL != ""
	if err := db.Save(&order).Error; err != nil {
		return flash.WithError(c, fiber.Map{"type": "error", "message": "Bestellung konnte nicht gespeichert werden"}).Redirect(orderPath)
	}
	if err := db.Save(payment).Error; err != nil {
		return flash.WithError(c, fiber.Map{"type": "error", "message": "Zahlung konnte nicht gespeichert werden"}).Redirect(orderPath)
	}

	_ = session.SetSessionValue(c, checkoutOrderSessionKey, order.Token)

	if payment.RedirectURL != "" {
		return c.Redirect(payment.RedirectURL, fiber.StatusSeeOther)
	}
	return c.Redirect(orderPath, fiber.StatusSeeOther)
}

// HandleOrderShow exposes the order plus the latest payment state; after a
// provider round-trip this is where success or failure becomes visible.
func HandleOrderShow(c *fiber.Ctx) error {
	db := database.GetDB()

	var order models.Order
	if err := db.Where("token = ?", c.Params("token")).First(&order).Error; err != nil {
		return c.Redirect(constants.CheckoutRoute, fiber.StatusSeeOther)
	}

	var payment models.Payment
	paymentFound := db.Where("invoice_id = ?", order.InvoiceID).Order("id desc").First(&payment).Error == nil

	resp := fiber.Map{"order": order}
	if paymentFound {
		resp["payment"] = fiber.Map{
			"token":        payment.Token,
			"method_type":  payment.MethodType,
			"amount":       payment.Amount,
			"currency":     payment.Currency,
			"complete":     payment.Complete,
			"completed_at": payment.CompletedAt,
			"error_id":     payment.ErrorID,
			"error_text":   payment.ErrorText,
		}
	}
	return c.JSON(resp)
}

// pickMethod chooses the payment method for this attempt: the requested one
// when advertised, otherwise the advertised method with the highest priority.
func pickMethod(methods []checkout.PaymentMethod, requested string) (checkout.PaymentMethod, bool) {
	if len(methods) == 0 {
		return checkout.PaymentMethod{}, false
	}
	if requested != "" {
		for _, m := range methods {
			if m.Type == requested {
				return m, true
			}
		}
		return checkout.PaymentMethod{}, false
	}

	sorted := make([]checkout.PaymentMethod, len(methods))
	copy(sorted, methods)
	sort.SliceStable(sorted, func(i, j int) bool { return sorted[i].Priority > sorted[j].Priority })
	return sorted[0], true
}
