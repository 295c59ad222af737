package repository

import (
	"context"
	"time"

	"github.com/bwmarrin/snowflake"
	taxdomain "github.com/smallbiznis/billingengine/internal/tax/domain"
	"go.uber.org/fx"
	"gorm.io/gorm"
)

type RepositoryParam struct {
	fx.In

	DB *gorm.DB
}

type repository struct {
	db *gorm.DB
}

func NewRepository(p RepositoryParam) taxdomain.Repository {
	return &repository{db: p.DB}
}

type percentageRow struct {
	Total *float64
}

func (r *repository) SumRegionPercentage(ctx context.Context, region string, asOf time.Time) (float64, error) {
	var row percentageRow
	err := r.db.WithContext(ctx).Raw(
		`SELECT SUM(tax_percentage) AS total
		 FROM tax_rates
		 WHERE region = ?
		   AND start_date <= ?
		   AND (end_date IS NULL OR end_date > ?)`,
		region,
		asOf.UTC(),
		asOf.UTC(),
	).Scan(&row).Error
	if err != nil {
		return 0, err
	}
	if row.Total == nil {
		return 0, nil
	}
	return *row.Total, nil
}

func (r *repository) SumCompanyPercentage(ctx context.Context, companyID snowflake.ID, asOf time.Time) (float64, error) {
	var row percentageRow
	err := r.db.WithContext(ctx).Raw(
		`SELECT SUM(tr.tax_percentage) AS total
		 FROM company_tax_rates ctr
		 JOIN tax_rates tr ON tr.id = ctr.tax_rate_id
		 WHERE ctr.company_id = ?
		   AND tr.start_date <= ?
		   AND (tr.end_date IS NULL OR tr.end_date > ?)`,
		companyID,
		asOf.UTC(),
		asOf.UTC(),
	).Scan(&row).Error
	if err != nil {
		return 0, err
	}
	if row.Total == nil {
		return 0, nil
	}
	return *row.Total, nil
}
