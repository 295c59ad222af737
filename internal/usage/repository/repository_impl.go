package repository

import (
	"context"
	"time"

	"github.com/bwmarrin/snowflake"
	usagedomain "github.com/smallbiznis/billingengine/internal/usage/domain"
	"gorm.io/gorm"
)

type repo struct{}

func Provide() usagedomain.Repository {
	return &repo{}
}

func (r *repo) ListBillable(ctx context.Context, db *gorm.DB, companyID, planID snowflake.ID, category *snowflake.ID, start, end time.Time) ([]usagedomain.BillableUsage, error) {
	stmt := db.WithContext(ctx).
		Table("usage_tracking ut").
		Select(`ut.id, ut.service_id, sc.service_name, ut.quantity, sc.default_rate, ps.custom_rate,
			COALESCE(sc.tax_region, c.tax_region) AS tax_region, ut.usage_date`).
		Joins("JOIN service_catalog sc ON sc.id = ut.service_id").
		Joins("JOIN plan_services ps ON ps.service_id = sc.id AND ps.plan_id = ?", planID).
		Joins("LEFT JOIN companies c ON c.id = ut.company_id").
		Where("ut.company_id = ?", companyID).
		Where("ut.invoiced = ?", false).
		Where("ut.usage_date >= ? AND ut.usage_date < ?", start.UTC(), end.UTC())
	if category != nil {
		stmt = stmt.Where("sc.category_id = ?", *category)
	} else {
		stmt = stmt.Where("sc.category_id IS NULL")
	}

	var rows []usagedomain.BillableUsage
	if err := stmt.Order("ut.usage_date ASC, ut.id ASC").Scan(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}

func (r *repo) FindBucketPlan(ctx context.Context, db *gorm.DB, planID snowflake.ID) (*usagedomain.BucketPlan, error) {
	var plan usagedomain.BucketPlan
	err := db.WithContext(ctx).Raw(
		`SELECT id, plan_id, total_hours, overage_rate, allow_rollover, created_at
		 FROM bucket_plans WHERE plan_id = ?
		 ORDER BY created_at ASC, id ASC
		 LIMIT 1`,
		planID,
	).Scan(&plan).Error
	if err != nil {
		return nil, err
	}
	if plan.ID == 0 {
		return nil, nil
	}
	return &plan, nil
}

func (r *repo) FindBucketUsage(ctx context.Context, db *gorm.DB, bucketPlanID, companyID snowflake.ID, start, end time.Time) (*usagedomain.BucketUsage, error) {
	var usage usagedomain.BucketUsage
	err := db.WithContext(ctx).Raw(
		`SELECT id, bucket_plan_id, company_id, period_start, period_end, hours_used,
		        overage_hours, rolled_over_hours, service_catalog_id, created_at
		 FROM bucket_usage
		 WHERE bucket_plan_id = ? AND company_id = ?
		   AND period_start >= ? AND period_start <= ?
		 ORDER BY period_start ASC, id ASC
		 LIMIT 1`,
		bucketPlanID,
		companyID,
		start.UTC(),
		end.UTC(),
	).Scan(&usage).Error
	if err != nil {
		return nil, err
	}
	if usage.ID == 0 {
		return nil, nil
	}
	return &usage, nil
}

func (r *repo) ListCurrentBucketUsage(ctx context.Context, db *gorm.DB, companyID snowflake.ID, at time.Time) ([]usagedomain.CurrentBucketUsage, error) {
	var rows []usagedomain.CurrentBucketUsage
	err := db.WithContext(ctx).Raw(
		`SELECT bu.id, bu.bucket_plan_id, bu.company_id, bu.period_start, bu.period_end,
		        bu.hours_used, bu.overage_hours, bu.rolled_over_hours, bu.service_catalog_id, bu.created_at,
		        bp.plan_id, b.plan_name, bp.total_hours, bp.overage_rate, sc.service_name
		 FROM bucket_usage bu
		 JOIN bucket_plans bp ON bp.id = bu.bucket_plan_id
		 JOIN billing_plans b ON b.id = bp.plan_id
		 LEFT JOIN service_catalog sc ON sc.id = bu.service_catalog_id
		 WHERE bu.company_id = ?
		   AND bu.period_start <= ?
		   AND bu.period_end > ?
		 ORDER BY bu.period_start DESC, bu.id ASC`,
		companyID,
		at.UTC(),
		at.UTC(),
	).Scan(&rows).Error
	if err != nil {
		return nil, err
	}
	return rows, nil
}
