package constants

// Static route constants
const (
	PublicRoute        = "/"
	CheckoutRoute      = "/checkout"
	OrderRoute         = "/order"
	PaypalProcessRoute = "/paypal/process"
	PaypalCancelRoute  = "/paypal/cancel"
)
