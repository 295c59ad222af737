package domain

import (
	"context"
	"time"

	"github.com/bwmarrin/snowflake"
	"gorm.io/gorm"
)

type Repository interface {
	// FindByID returns nil, nil when the invoice does not exist.
	FindByID(ctx context.Context, db *gorm.DB, id snowflake.ID) (*Invoice, error)
	ExistsForCycle(ctx context.Context, db *gorm.DB, companyID, billingCycleID snowflake.ID) (bool, error)
	// ListItems returns the items of an invoice in creation order.
	ListItems(ctx context.Context, db *gorm.DB, invoiceID snowflake.ID) ([]InvoiceItem, error)
	FindItem(ctx context.Context, db *gorm.DB, id snowflake.ID) (*InvoiceItem, error)
	UpdateItem(ctx context.Context, db *gorm.DB, id snowflake.ID, fields map[string]any) error
	UpdateTotals(ctx context.Context, db *gorm.DB, id snowflake.ID, totals Totals, updatedAt time.Time) error
}
