package service

import (
	"context"
	"fmt"

	"github.com/bwmarrin/snowflake"
	billingcycledomain "github.com/smallbiznis/billingengine/internal/billingcycle/domain"
	companydomain "github.com/smallbiznis/billingengine/internal/company/domain"
	plandomain "github.com/smallbiznis/billingengine/internal/plan/domain"
	ratingdomain "github.com/smallbiznis/billingengine/internal/rating/domain"
	taxdomain "github.com/smallbiznis/billingengine/internal/tax/domain"
	timeentrydomain "github.com/smallbiznis/billingengine/internal/timeentry/domain"
	usagedomain "github.com/smallbiznis/billingengine/internal/usage/domain"
	"github.com/smallbiznis/billingengine/pkg/money"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type ServiceParam struct {
	fx.In

	DB          *gorm.DB
	Log         *zap.Logger
	CompanyRepo companydomain.Repository
	PlanRepo    plandomain.Repository
	UsageRepo   usagedomain.Repository
	TimeRepo    timeentrydomain.Repository
	TaxProvider taxdomain.Provider
}

type Service struct {
	db  *gorm.DB
	log *zap.Logger

	companyRepo companydomain.Repository
	planRepo    plandomain.Repository
	usageRepo   usagedomain.Repository
	timeRepo    timeentrydomain.Repository
	taxProvider taxdomain.Provider
}

func NewService(p ServiceParam) ratingdomain.Service {
	return &Service{
		db:  p.DB,
		log: p.Log.Named("rating.service"),

		companyRepo: p.CompanyRepo,
		planRepo:    p.PlanRepo,
		usageRepo:   p.UsageRepo,
		timeRepo:    p.TimeRepo,
		taxProvider: p.TaxProvider,
	}
}

func (s *Service) CalculateFixed(ctx context.Context, companyID snowflake.ID, period billingcycledomain.Period, plan plandomain.CompanyBillingPlan) ([]ratingdomain.FixedCharge, error) {
	company, err := s.companyRepo.FindByID(ctx, s.db, companyID)
	if err != nil {
		return nil, err
	}
	if company == nil {
		return nil, fmt.Errorf("%w: %s", companydomain.ErrCompanyNotFound, companyID)
	}

	services, err := s.planRepo.ListFixedServices(ctx, s.db, companyID, plan.ID)
	if err != nil {
		return nil, err
	}

	charges := make([]ratingdomain.FixedCharge, 0, len(services))
	for _, svc := range services {
		rate := svc.Rate()
		raw := rate * svc.Quantity

		charge := ratingdomain.FixedCharge{
			ChargeBase: ratingdomain.ChargeBase{
				ServiceID:   svc.ServiceID,
				ServiceName: svc.ServiceName,
				Rate:        rate,
				Total:       money.Ceil(raw),
				TaxRegion:   firstNonEmpty(svc.TaxRegion, company.Region()),
			},
			Quantity: svc.Quantity,
		}
		if !company.IsTaxExempt && svc.Taxable() {
			charge.TaxRate = derefFloat(svc.TaxRate)
			charge.TaxAmount = raw * charge.TaxRate
		}
		charges = append(charges, charge)
	}

	s.log.Debug("calculated fixed charges",
		zap.String("company_id", companyID.String()),
		zap.String("company_billing_plan_id", plan.ID.String()),
		zap.Int("count", len(charges)),
	)
	return charges, nil
}

func (s *Service) CalculateTime(ctx context.Context, companyID snowflake.ID, period billingcycledomain.Period, plan plandomain.CompanyBillingPlan) ([]ratingdomain.TimeCharge, error) {
	entries, err := s.timeRepo.ListBillable(ctx, s.db, companyID, plan.PlanID, plan.ServiceCategory, period.Start, period.End)
	if err != nil {
		return nil, err
	}

	charges := make([]ratingdomain.TimeCharge, 0, len(entries))
	for _, entry := range entries {
		duration := entry.Hours()
		rate := float64(money.Ceil(plandomain.EffectiveRate(entry.CustomRate, entry.DefaultRate)))
		charges = append(charges, ratingdomain.TimeCharge{
			ChargeBase: ratingdomain.ChargeBase{
				ServiceID:   entry.ServiceID,
				ServiceName: entry.ServiceName,
				Rate:        rate,
				Total:       money.Round(duration * rate),
				TaxRegion:   derefString(entry.TaxRegion),
			},
			Duration: duration,
			UserID:   entry.UserID,
			EntryID:  entry.ID,
		})
	}

	s.log.Debug("calculated time charges",
		zap.String("company_id", companyID.String()),
		zap.String("company_billing_plan_id", plan.ID.String()),
		zap.Int("count", len(charges)),
	)
	return charges, nil
}

func (s *Service) CalculateUsage(ctx context.Context, companyID snowflake.ID, period billingcycledomain.Period, plan plandomain.CompanyBillingPlan) ([]ratingdomain.UsageCharge, error) {
	records, err := s.usageRepo.ListBillable(ctx, s.db, companyID, plan.PlanID, plan.ServiceCategory, period.Start, period.End)
	if err != nil {
		return nil, err
	}

	charges := make([]ratingdomain.UsageCharge, 0, len(records))
	for _, record := range records {
		rate := float64(money.Ceil(plandomain.EffectiveRate(record.CustomRate, record.DefaultRate)))
		charges = append(charges, ratingdomain.UsageCharge{
			ChargeBase: ratingdomain.ChargeBase{
				ServiceID:   record.ServiceID,
				ServiceName: record.ServiceName,
				Rate:        rate,
				Total:       money.Ceil(record.Quantity * rate),
				TaxRegion:   derefString(record.TaxRegion),
			},
			Quantity: record.Quantity,
			UsageID:  record.ID,
		})
	}

	s.log.Debug("calculated usage charges",
		zap.String("company_id", companyID.String()),
		zap.String("company_billing_plan_id", plan.ID.String()),
		zap.Int("count", len(charges)),
	)
	return charges, nil
}

func (s *Service) CalculateBucket(ctx context.Context, companyID snowflake.ID, period billingcycledomain.Period, plan plandomain.CompanyBillingPlan) ([]ratingdomain.BucketCharge, error) {
	bucketPlan, err := s.usageRepo.FindBucketPlan(ctx, s.db, plan.PlanID)
	if err != nil {
		return nil, err
	}
	if bucketPlan == nil {
		return nil, nil
	}

	usage, err := s.usageRepo.FindBucketUsage(ctx, s.db, bucketPlan.ID, companyID, period.Start, period.End)
	if err != nil {
		return nil, err
	}
	if usage == nil {
		return nil, nil
	}

	company, err := s.companyRepo.FindByID(ctx, s.db, companyID)
	if err != nil {
		return nil, err
	}
	if company == nil {
		return nil, nil
	}

	service, err := s.planRepo.FindService(ctx, s.db, usage.ServiceCatalogID)
	if err != nil {
		return nil, err
	}

	serviceName := ratingdomain.DefaultBucketServiceName
	var serviceRegion *string
	if service != nil {
		serviceName = service.ServiceName
		serviceRegion = service.TaxRegion
	}
	taxRegion := firstNonEmpty(serviceRegion, company.Region())

	var taxRate float64
	if !company.IsTaxExempt {
		taxRate, err = s.taxProvider.GetCompanyTaxRate(ctx, taxRegion, period.End)
		if err != nil {
			return nil, err
		}
	}

	overageRate := float64(money.Ceil(bucketPlan.OverageRate))
	total := money.Ceil(usage.OverageHours * overageRate)
	charge := ratingdomain.BucketCharge{
		ChargeBase: ratingdomain.ChargeBase{
			ServiceID:   usage.ServiceCatalogID,
			ServiceName: serviceName,
			Rate:        overageRate,
			Total:       total,
			TaxRate:     taxRate,
			TaxAmount:   float64(money.Ceil(taxRate * float64(total))),
			TaxRegion:   taxRegion,
		},
		HoursUsed:    usage.HoursUsed,
		OverageHours: usage.OverageHours,
		OverageRate:  overageRate,
	}

	s.log.Debug("calculated bucket charge",
		zap.String("company_id", companyID.String()),
		zap.String("bucket_plan_id", bucketPlan.ID.String()),
		zap.Float64("overage_hours", usage.OverageHours),
		zap.Int64("total", total),
	)
	return []ratingdomain.BucketCharge{charge}, nil
}

func firstNonEmpty(primary *string, fallback string) string {
	if primary != nil && *primary != "" {
		return *primary
	}
	return fallback
}

func derefString(v *string) string {
	if v == nil {
		return ""
	}
	return *v
}

func derefFloat(v *float64) float64 {
	if v == nil {
		return 0
	}
	return *v
}
