package repository

import (
	"context"

	"github.com/bwmarrin/snowflake"
	"github.com/smallbiznis/billingengine/internal/clientbilling/domain"
	"gorm.io/gorm"
)

type repo struct{}

func Provide() domain.Repository {
	return &repo{}
}

func (r *repo) ListInvoices(ctx context.Context, db *gorm.DB, companyID snowflake.ID, after *domain.InvoiceCursor, limit int) ([]*domain.InvoiceSummary, error) {
	stmt := db.WithContext(ctx).
		Table("invoices").
		Select("id, invoice_number, invoice_date AS created_at, total_amount, status").
		Where("company_id = ?", companyID)
	if after != nil {
		at := after.InvoiceDate.UTC()
		stmt = stmt.Where("(invoice_date < ?) OR (invoice_date = ? AND id < ?)", at, at, after.ID)
	}
	if limit > 0 {
		stmt = stmt.Limit(limit)
	}

	var rows []*domain.InvoiceSummary
	if err := stmt.Order("invoice_date DESC, id DESC").Scan(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}
