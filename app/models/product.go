package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// Product types used across checkout-related models.
const (
	ProductTypeStandard     = "product"
	ProductTypeSubscription = "subscription"
)

// Subscription billing periods supported by recurring products.
const (
	PeriodWeekly     = "weekly"
	PeriodMonthly    = "monthly"
	PeriodQuarterly  = "quarterly"
	PeriodBiannually = "biannually"
	PeriodAnnually   = "annually"
)

// Product is a purchasable catalog entry. Subscription products carry the
// billing period used when building recurring billing plans.
type Product struct {
	ID        uint            `gorm:"primaryKey" json:"id"`
	SKU       string          `gorm:"type:varchar(100);not null;uniqueIndex" json:"sku"`
	Title     string          `gorm:"type:varchar(200);not null" json:"title"`
	Type      string          `gorm:"type:varchar(20);not null;default:'product';index" json:"type"`
	Price     decimal.Decimal `gorm:"type:decimal(12,2);not null;default:0" json:"price"`
	Period    string          `gorm:"type:varchar(16);default:''" json:"period,omitempty"`
	CreatedAt time.Time       `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt time.Time       `gorm:"autoUpdateTime" json:"updated_at"`
}

// IsSubscription reports whether purchasing this product creates a
// recurring subscription.
func (p *Product) IsSubscription() bool {
	return p.Type == ProductTypeSubscription
}
