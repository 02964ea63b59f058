package models

import "time"

// Order statuses touched by the checkout flow.
const (
	OrderStatusOpen     = "open"
	OrderStatusComplete = "complete"
)

// Order links a user to an invoice. Token is the public identifier used in
// /order/:token URLs; RedirectPending is set while the buyer is away at the
// payment provider's approval page and cleared once the payment executes.
type Order struct {
	ID              uint      `gorm:"primaryKey" json:"id"`
	Token           string    `gorm:"type:varchar(36);not null;uniqueIndex" json:"token"`
	UserID          uint      `gorm:"not null;index" json:"user_id"`
	InvoiceID       uint      `gorm:"not null;index" json:"invoice_id"`
	Status          string    `gorm:"type:varchar(20);not null;default:'open';index" json:"status"`
	RedirectPending bool      `gorm:"default:false" json:"redirect_pending"`
	CreatedAt       time.Time `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt       time.Time `gorm:"autoUpdateTime" json:"updated_at"`
}
