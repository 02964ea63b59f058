package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// Invoice owns the priced line items of one checkout. A multi-order checkout
// produces several orders referencing the same invoice.
type Invoice struct {
	ID          uint            `gorm:"primaryKey" json:"id"`
	Total       decimal.Decimal `gorm:"type:decimal(12,2);not null;default:0" json:"total"`
	Currency    string          `gorm:"type:varchar(8);not null;default:'USD'" json:"currency"`
	TrialEndsAt *time.Time      `gorm:"type:timestamp;default:null" json:"trial_ends_at,omitempty"`
	Lines       []InvoiceLine   `gorm:"foreignKey:InvoiceID" json:"lines"`
	Orders      []Order         `gorm:"foreignKey:InvoiceID" json:"orders,omitempty"`
	CreatedAt   time.Time       `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt   time.Time       `gorm:"autoUpdateTime" json:"updated_at"`
}

// InvoiceLine snapshots a product at purchase time. Price is the unit price;
// Opts carries variant selections that become part of the provider SKU.
type InvoiceLine struct {
	ID        uint            `gorm:"primaryKey" json:"id"`
	InvoiceID uint            `gorm:"not null;index" json:"invoice_id"`
	ProductID uint            `gorm:"not null;index" json:"product_id"`
	SKU       string          `gorm:"type:varchar(100);not null" json:"sku"`
	Title     string          `gorm:"type:varchar(200);not null" json:"title"`
	Type      string          `gorm:"type:varchar(20);not null;default:'product'" json:"type"`
	Price     decimal.Decimal `gorm:"type:decimal(12,2);not null;default:0" json:"price"`
	Qty       int             `gorm:"not null;default:1" json:"qty"`
	Discount  decimal.Decimal `gorm:"type:decimal(12,2);not null;default:0" json:"discount"`
	OptsJSON  string          `gorm:"type:text" json:"opts_json,omitempty"`
	Period    string          `gorm:"type:varchar(16);default:''" json:"period,omitempty"`
	CreatedAt time.Time       `gorm:"autoCreateTime" json:"created_at"`
}
