package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// Subscription states owned by the PayPal lifecycle endpoints. The only
// transition this code performs is active -> cancelled.
const (
	SubscriptionStateActive    = "active"
	SubscriptionStateCancelled = "cancelled"
)

// Subscription tracks one recurring invoice line after checkout. The provider
// agreement reference is attached when the billing agreement executes and is
// required for later cancel/refresh calls.
type Subscription struct {
	ID                  uint            `gorm:"primaryKey" json:"id"`
	OrderID             uint            `gorm:"not null;index" json:"order_id"`
	ProductID           uint            `gorm:"not null;index" json:"product_id"`
	Period              string          `gorm:"type:varchar(16);not null" json:"period"`
	Price               decimal.Decimal `gorm:"type:decimal(12,2);not null;default:0" json:"price"`
	State               string          `gorm:"type:varchar(20);not null;default:'active';index" json:"state"`
	ProviderAgreementID string          `gorm:"type:varchar(191);default:'';index" json:"provider_agreement_id,omitempty"`
	CancelPayloadJSON   string          `gorm:"type:longtext" json:"cancel_payload_json,omitempty"`
	CreatedAt           time.Time       `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt           time.Time       `gorm:"autoUpdateTime" json:"updated_at"`
}
