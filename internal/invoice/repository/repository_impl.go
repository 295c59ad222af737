package repository

import (
	"context"
	"time"

	"github.com/bwmarrin/snowflake"
	invoicedomain "github.com/smallbiznis/billingengine/internal/invoice/domain"
	"gorm.io/gorm"
)

type repo struct{}

func Provide() invoicedomain.Repository {
	return &repo{}
}

func (r *repo) FindByID(ctx context.Context, db *gorm.DB, id snowflake.ID) (*invoicedomain.Invoice, error) {
	var invoice invoicedomain.Invoice
	err := db.WithContext(ctx).Raw(
		`SELECT id, company_id, billing_cycle_id, invoice_number, invoice_date, due_date, status,
		        subtotal, tax, total_amount, created_at, updated_at
		 FROM invoices WHERE id = ?`,
		id,
	).Scan(&invoice).Error
	if err != nil {
		return nil, err
	}
	if invoice.ID == 0 {
		return nil, nil
	}
	return &invoice, nil
}

func (r *repo) ExistsForCycle(ctx context.Context, db *gorm.DB, companyID, billingCycleID snowflake.ID) (bool, error) {
	var count int64
	err := db.WithContext(ctx).
		Model(&invoicedomain.Invoice{}).
		Where("company_id = ? AND billing_cycle_id = ?", companyID, billingCycleID).
		Limit(1).
		Count(&count).Error
	if err != nil {
		return false, err
	}
	return count > 0, nil
}

func (r *repo) ListItems(ctx context.Context, db *gorm.DB, invoiceID snowflake.ID) ([]invoicedomain.InvoiceItem, error) {
	var items []invoicedomain.InvoiceItem
	err := db.WithContext(ctx).
		Where("invoice_id = ?", invoiceID).
		Order("created_at ASC, id ASC").
		Find(&items).Error
	if err != nil {
		return nil, err
	}
	return items, nil
}

func (r *repo) FindItem(ctx context.Context, db *gorm.DB, id snowflake.ID) (*invoicedomain.InvoiceItem, error) {
	var item invoicedomain.InvoiceItem
	err := db.WithContext(ctx).Where("id = ?", id).Limit(1).Find(&item).Error
	if err != nil {
		return nil, err
	}
	if item.ID == 0 {
		return nil, nil
	}
	return &item, nil
}

func (r *repo) UpdateItem(ctx context.Context, db *gorm.DB, id snowflake.ID, fields map[string]any) error {
	return db.WithContext(ctx).
		Model(&invoicedomain.InvoiceItem{}).
		Where("id = ?", id).
		Updates(fields).Error
}

func (r *repo) UpdateTotals(ctx context.Context, db *gorm.DB, id snowflake.ID, totals invoicedomain.Totals, updatedAt time.Time) error {
	return db.WithContext(ctx).Exec(
		`UPDATE invoices SET subtotal = ?, tax = ?, total_amount = ?, updated_at = ? WHERE id = ?`,
		totals.Subtotal,
		totals.Tax,
		totals.Total,
		updatedAt.UTC(),
		id,
	).Error
}
