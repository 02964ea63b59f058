package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// Payment method types known to the checkout.
const (
	PaymentMethodPaypal = "paypal"
)

// Payment error identifiers written by the PayPal integration.
const (
	PaymentErrorPaypalFail  = "paypal.fail"
	PaymentErrorPaypalError = "paypal.error"
	PaymentErrorPaypalNoURL = "paypal.nourl"
)

// Payment is one checkout attempt against an invoice. The PayPal integration
// is the only writer of Complete, ErrorID/ErrorText, RedirectURL and the
// provider reference fields.
//
// Invariant: RedirectURL is set only when the provider returned an approval
// link and no error occurred; Complete and ErrorID are mutually exclusive.
type Payment struct {
	ID                uint            `gorm:"primaryKey" json:"id"`
	Token             string          `gorm:"type:varchar(36);not null;uniqueIndex" json:"token"`
	InvoiceID         uint            `gorm:"not null;index" json:"invoice_id"`
	Amount            decimal.Decimal `gorm:"type:decimal(12,2);not null;default:0" json:"amount"`
	Currency          string          `gorm:"type:varchar(8);not null;default:'USD'" json:"currency"`
	MethodType        string          `gorm:"type:varchar(20);not null;index" json:"method_type"`
	Complete          bool            `gorm:"default:false;index" json:"complete"`
	CompletedAt       *time.Time      `gorm:"type:timestamp;default:null" json:"completed_at,omitempty"`
	ErrorID           string          `gorm:"type:varchar(50);default:''" json:"error_id,omitempty"`
	ErrorText         string          `gorm:"type:text" json:"error_text,omitempty"`
	ProviderPaymentID string          `gorm:"type:varchar(191);default:'';index" json:"provider_payment_id,omitempty"`
	ProviderPlanID    string          `gorm:"type:varchar(191);default:''" json:"provider_plan_id,omitempty"`
	RedirectURL       string          `gorm:"type:text" json:"redirect_url,omitempty"`
	DataJSON          string          `gorm:"type:longtext" json:"data_json,omitempty"`
	CreatedAt         time.Time       `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt         time.Time       `gorm:"autoUpdateTime" json:"updated_at"`
}

// HasError reports whether a previous step already failed this payment.
func (p *Payment) HasError() bool {
	return p.ErrorID != "" || p.ErrorText != ""
}

// SetError records a terminal error on the payment. A payment with an error
// can never be complete, so completion state is cleared here.
func (p *Payment) SetError(id, text string) {
	p.ErrorID = id
	p.ErrorText = text
	p.Complete = false
	p.CompletedAt = nil
	p.RedirectURL = ""
}

// MarkComplete flags the payment as successfully executed.
func (p *Payment) MarkComplete(at time.Time) {
	p.Complete = true
	p.CompletedAt = &at
	p.ErrorID = ""
	p.ErrorText = ""
}
