package domain

import (
	"context"
	"time"

	"github.com/bwmarrin/snowflake"
	"gorm.io/gorm"
)

// InvoiceCursor positions keyset pagination over invoices ordered by
// invoice date then id, both descending.
type InvoiceCursor struct {
	InvoiceDate time.Time
	ID          snowflake.ID
}

type Repository interface {
	// ListInvoices returns up to limit invoices after the cursor, newest first.
	ListInvoices(ctx context.Context, db *gorm.DB, companyID snowflake.ID, after *InvoiceCursor, limit int) ([]*InvoiceSummary, error)
}
