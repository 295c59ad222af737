package repository

import (
	"context"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/smallbiznis/billingengine/internal/plan/domain"
	"gorm.io/gorm"
)

type repo struct{}

func Provide() domain.Repository {
	return &repo{}
}

const companyPlanColumns = `cbp.id, cbp.company_id, cbp.plan_id, cbp.service_category, cbp.start_date,
	cbp.end_date, cbp.is_active, cbp.created_at, bp.plan_name, bp.plan_type, bp.billing_frequency`

func (r *repo) ListOverlapping(ctx context.Context, db *gorm.DB, companyID snowflake.ID, start, end time.Time) ([]domain.CompanyBillingPlan, error) {
	var plans []domain.CompanyBillingPlan
	err := db.WithContext(ctx).Raw(
		`SELECT `+companyPlanColumns+`
		 FROM company_billing_plans cbp
		 JOIN billing_plans bp ON bp.id = cbp.plan_id
		 WHERE cbp.company_id = ?
		   AND cbp.is_active = ?
		   AND cbp.start_date <= ?
		   AND (cbp.end_date >= ? OR cbp.end_date IS NULL)
		 ORDER BY cbp.start_date DESC, cbp.id ASC`,
		companyID,
		true,
		end.UTC(),
		start.UTC(),
	).Scan(&plans).Error
	if err != nil {
		return nil, err
	}
	return plans, nil
}

func (r *repo) ListActiveAt(ctx context.Context, db *gorm.DB, companyID snowflake.ID, at time.Time) ([]domain.CompanyBillingPlan, error) {
	var plans []domain.CompanyBillingPlan
	err := db.WithContext(ctx).Raw(
		`SELECT `+companyPlanColumns+`
		 FROM company_billing_plans cbp
		 JOIN billing_plans bp ON bp.id = cbp.plan_id
		 WHERE cbp.company_id = ?
		   AND cbp.is_active = ?
		   AND cbp.start_date <= ?
		   AND (cbp.end_date > ? OR cbp.end_date IS NULL)
		 ORDER BY cbp.start_date DESC, cbp.id ASC`,
		companyID,
		true,
		at.UTC(),
		at.UTC(),
	).Scan(&plans).Error
	if err != nil {
		return nil, err
	}
	return plans, nil
}

const serviceRateColumns = `sc.id AS service_id, sc.service_name, sc.service_type, sc.default_rate,
	ps.custom_rate, ps.quantity, sc.is_taxable, sc.tax_region, sc.tax_rate`

func (r *repo) ListFixedServices(ctx context.Context, db *gorm.DB, companyID, companyBillingPlanID snowflake.ID) ([]domain.PlanServiceRate, error) {
	var rates []domain.PlanServiceRate
	err := db.WithContext(ctx).Raw(
		`SELECT `+serviceRateColumns+`
		 FROM company_billing_plans cbp
		 JOIN billing_plans bp ON bp.id = cbp.plan_id
		 JOIN plan_services ps ON ps.plan_id = bp.id
		 JOIN service_catalog sc ON sc.id = ps.service_id
		 WHERE cbp.company_id = ?
		   AND cbp.id = ?
		   AND sc.service_type = ?
		   AND bp.plan_type = ?
		 ORDER BY sc.service_name ASC, sc.id ASC`,
		companyID,
		companyBillingPlanID,
		domain.ServiceTypeFixed,
		domain.PlanTypeFixed,
	).Scan(&rates).Error
	if err != nil {
		return nil, err
	}
	return rates, nil
}

func (r *repo) ListPlanServices(ctx context.Context, db *gorm.DB, planIDs []snowflake.ID) ([]domain.PlanServiceRate, error) {
	if len(planIDs) == 0 {
		return nil, nil
	}
	var rates []domain.PlanServiceRate
	err := db.WithContext(ctx).Raw(
		`SELECT `+serviceRateColumns+`
		 FROM plan_services ps
		 JOIN service_catalog sc ON sc.id = ps.service_id
		 WHERE ps.plan_id IN ?
		 ORDER BY sc.service_name ASC, sc.id ASC`,
		planIDs,
	).Scan(&rates).Error
	if err != nil {
		return nil, err
	}
	return rates, nil
}

func (r *repo) FindService(ctx context.Context, db *gorm.DB, serviceID snowflake.ID) (*domain.ServiceCatalog, error) {
	var service domain.ServiceCatalog
	err := db.WithContext(ctx).Raw(
		`SELECT id, service_name, service_type, category_id, default_rate, unit_of_measure,
		        is_taxable, tax_region, tax_rate, created_at
		 FROM service_catalog WHERE id = ?`,
		serviceID,
	).Scan(&service).Error
	if err != nil {
		return nil, err
	}
	if service.ID == 0 {
		return nil, nil
	}
	return &service, nil
}
