package repository

import (
	"context"
	"time"

	"github.com/bwmarrin/snowflake"
	discountdomain "github.com/smallbiznis/billingengine/internal/discount/domain"
	"gorm.io/gorm"
)

type repo struct{}

func Provide() discountdomain.Repository {
	return &repo{}
}

func (r *repo) ListActive(ctx context.Context, db *gorm.DB, companyID snowflake.ID, start, end time.Time) ([]discountdomain.Discount, error) {
	var discounts []discountdomain.Discount
	err := db.WithContext(ctx).Raw(
		`SELECT DISTINCT d.id, d.discount_name, d.description, d.discount_type, d.value,
		        d.start_date, d.end_date, d.is_active, d.created_at
		 FROM discounts d
		 JOIN plan_discounts pd ON pd.discount_id = d.id
		 JOIN company_billing_plans cbp ON cbp.plan_id = pd.plan_id AND cbp.company_id = pd.company_id
		 WHERE cbp.company_id = ?
		   AND d.is_active = ?
		   AND d.start_date <= ?
		   AND (d.end_date IS NULL OR d.end_date > ?)
		 ORDER BY d.start_date ASC, d.id ASC`,
		companyID,
		true,
		end.UTC(),
		start.UTC(),
	).Scan(&discounts).Error
	if err != nil {
		return nil, err
	}
	return discounts, nil
}
