// Package domain contains persistence models for invoicing.
package domain

import (
	"time"

	"github.com/bwmarrin/snowflake"
)

// InvoiceStatus represents invoice lifecycle states.
type InvoiceStatus string

const (
	InvoiceStatusDraft   InvoiceStatus = "draft"
	InvoiceStatusSent    InvoiceStatus = "sent"
	InvoiceStatusPaid    InvoiceStatus = "paid"
	InvoiceStatusOverdue InvoiceStatus = "overdue"
)

// DiscountType names how a discount line derives its amount.
type DiscountType string

const (
	DiscountTypePercentage DiscountType = "percentage"
	DiscountTypeFixed      DiscountType = "fixed"
)

// Invoice is created at most once per company and billing cycle. Subtotal,
// Tax and TotalAmount are minor units derived from the items.
type Invoice struct {
	ID             snowflake.ID  `gorm:"primaryKey" json:"invoice_id"`
	CompanyID      snowflake.ID  `gorm:"not null;index;uniqueIndex:ux_invoices_company_cycle,priority:1" json:"company_id"`
	BillingCycleID *snowflake.ID `gorm:"uniqueIndex:ux_invoices_company_cycle,priority:2" json:"billing_cycle_id,omitempty"`
	InvoiceNumber  string        `gorm:"type:text;not null" json:"invoice_number"`
	InvoiceDate    time.Time     `gorm:"not null" json:"invoice_date"`
	DueDate        *time.Time    `gorm:"" json:"due_date,omitempty"`
	Status         InvoiceStatus `gorm:"type:text;not null;default:'draft'" json:"status"`
	Subtotal       int64         `gorm:"not null;default:0" json:"subtotal"`
	Tax            int64         `gorm:"not null;default:0" json:"tax"`
	TotalAmount    int64         `gorm:"not null;default:0" json:"total_amount"`
	CreatedAt      time.Time     `gorm:"not null;default:CURRENT_TIMESTAMP" json:"created_at"`
	UpdatedAt      time.Time     `gorm:"not null;default:CURRENT_TIMESTAMP" json:"updated_at"`
}

// TableName sets the database table name.
func (Invoice) TableName() string { return "invoices" }

// InvoiceItem is a line on an invoice. Discount lines carry negative
// NetAmount and, for percentage discounts, the percentage they were created with.
type InvoiceItem struct {
	ID                 snowflake.ID  `gorm:"primaryKey" json:"item_id"`
	InvoiceID          snowflake.ID  `gorm:"not null;index" json:"invoice_id"`
	ServiceID          *snowflake.ID `gorm:"index" json:"service_id,omitempty"`
	Description        string        `gorm:"type:text" json:"description"`
	Quantity           float64       `gorm:"not null;default:1" json:"quantity"`
	UnitPrice          int64         `gorm:"not null;default:0" json:"unit_price"`
	NetAmount          int64         `gorm:"not null;default:0" json:"net_amount"`
	TaxAmount          int64         `gorm:"not null;default:0" json:"tax_amount"`
	TaxRate            float64       `gorm:"not null;default:0" json:"tax_rate"`
	TaxRegion          *string       `gorm:"type:text" json:"tax_region,omitempty"`
	TotalPrice         int64         `gorm:"not null;default:0" json:"total_price"`
	IsManual           bool          `gorm:"not null;default:false" json:"is_manual"`
	IsDiscount         bool          `gorm:"not null;default:false" json:"is_discount"`
	DiscountType       *DiscountType `gorm:"type:text" json:"discount_type,omitempty"`
	DiscountPercentage *float64      `gorm:"" json:"discount_percentage,omitempty"`
	AppliesToItemID    *snowflake.ID `gorm:"" json:"applies_to_item_id,omitempty"`
	CreatedAt          time.Time     `gorm:"not null;default:CURRENT_TIMESTAMP" json:"created_at"`
}

// TableName sets the database table name.
func (InvoiceItem) TableName() string { return "invoice_items" }

// Totals are the recalculated invoice amounts.
type Totals struct {
	Subtotal int64 `json:"subtotal"`
	Tax      int64 `json:"tax"`
	Total    int64 `json:"total"`
}
