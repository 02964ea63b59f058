package router

import (
	"github.com/gofiber/fiber/v2"

	"github.com/TobiasKrahl/Velora/app/controllers"
	"github.com/TobiasKrahl/Velora/internal/pkg/constants"
	"github.com/TobiasKrahl/Velora/internal/pkg/session"
)

type HttpRouter struct {
}

func NewHttpRouter() *HttpRouter {
	return &HttpRouter{}
}

func (h HttpRouter) InstallRouter(app *fiber.App) {
	// init session
	session.NewSessionStore()

	h.registerPublicRoutes(app)
}

func (h HttpRouter) registerPublicRoutes(app *fiber.App) {
	// Checkout flow
	app.Get(constants.CheckoutRoute, controllers.HandleCheckout)
	app.Post(constants.CheckoutRoute+"/:token/pay", controllers.HandleCheckoutPay)
	app.Get(constants.OrderRoute+"/:token", controllers.HandleOrderShow)

	// PayPal return/cancel redirects (browser-facing, provider appends
	// PayerID/paymentId/token query parameters)
	app.Get(constants.PaypalProcessRoute, controllers.HandlePaypalProcess)
	app.Get(constants.PaypalProcessRoute+"/:id", controllers.HandlePaypalProcess)
	app.Get(constants.PaypalCancelRoute, controllers.HandlePaypalCancel)
}
