package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/bwmarrin/snowflake"
	billingdomain "github.com/smallbiznis/billingengine/internal/billing/domain"
	billingcycledomain "github.com/smallbiznis/billingengine/internal/billingcycle/domain"
	companydomain "github.com/smallbiznis/billingengine/internal/company/domain"
	"github.com/smallbiznis/billingengine/internal/config"
	discountdomain "github.com/smallbiznis/billingengine/internal/discount/domain"
	invoicedomain "github.com/smallbiznis/billingengine/internal/invoice/domain"
	obsmetrics "github.com/smallbiznis/billingengine/internal/observability/metrics"
	"github.com/smallbiznis/billingengine/internal/observability/tracing"
	plandomain "github.com/smallbiznis/billingengine/internal/plan/domain"
	ratingdomain "github.com/smallbiznis/billingengine/internal/rating/domain"
	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
	"gorm.io/gorm"
)

type ServiceParam struct {
	fx.In

	DB          *gorm.DB
	Log         *zap.Logger
	Engine      *config.EngineConfigHolder
	CompanyRepo companydomain.Repository
	CycleSvc    billingcycledomain.Service
	PlanSvc     plandomain.Service
	RatingSvc   ratingdomain.Service
	DiscountSvc discountdomain.Service
	InvoiceSvc  invoicedomain.Service
	Metrics     *obsmetrics.BillingMetrics `optional:"true"`
	ObsMetrics  *obsmetrics.Metrics        `optional:"true"`
}

type Service struct {
	db     *gorm.DB
	log    *zap.Logger
	engine *config.EngineConfigHolder

	companyRepo companydomain.Repository
	cycleSvc    billingcycledomain.Service
	planSvc     plandomain.Service
	ratingSvc   ratingdomain.Service
	discountSvc discountdomain.Service
	invoiceSvc  invoicedomain.Service

	metrics    *obsmetrics.BillingMetrics
	obsMetrics *obsmetrics.Metrics
}

func NewService(p ServiceParam) billingdomain.Service {
	return &Service{
		db:     p.DB,
		log:    p.Log.Named("billing.service"),
		engine: p.Engine,

		companyRepo: p.CompanyRepo,
		cycleSvc:    p.CycleSvc,
		planSvc:     p.PlanSvc,
		ratingSvc:   p.RatingSvc,
		discountSvc: p.DiscountSvc,
		invoiceSvc:  p.InvoiceSvc,

		metrics:    p.Metrics,
		obsMetrics: p.ObsMetrics,
	}
}

func (s *Service) CalculateBilling(ctx context.Context, req billingdomain.Request) (result billingdomain.Result, err error) {
	started := time.Now()
	ctx, span := tracing.Start(ctx, "billing.CalculateBilling",
		attribute.String("billing.company_id", req.CompanyID.String()),
		attribute.String("billing.cycle_id", req.BillingCycleID.String()),
	)
	defer func() {
		s.metrics.ObserveCalculation(outcome(result, err), time.Since(started))
		span.SetAttributes(tracing.SafeAttributes(
			attribute.Int("billing.charge_count", len(result.Charges)),
			attribute.Bool("billing.already_invoiced", result.AlreadyInvoiced),
		)...)
		tracing.End(span, err)
	}()

	if req.CompanyID == 0 || req.BillingCycleID == 0 {
		return billingdomain.Result{}, billingdomain.ErrInvalidRequest
	}
	period := req.Period()
	if err := period.Validate(); err != nil {
		return billingdomain.Result{}, err
	}

	log := s.log.With(
		zap.String("company_id", req.CompanyID.String()),
		zap.String("billing_cycle_id", req.BillingCycleID.String()),
	)

	company, err := s.companyRepo.FindByID(ctx, s.db, req.CompanyID)
	if err != nil {
		return billingdomain.Result{}, err
	}
	if company == nil {
		return billingdomain.Result{}, fmt.Errorf("%w: %s", billingdomain.ErrCompanyNotFound, req.CompanyID)
	}

	invoiced, err := s.invoiceSvc.ExistsForCycle(ctx, req.CompanyID, req.BillingCycleID)
	if err != nil {
		return billingdomain.Result{}, err
	}
	if invoiced {
		log.Info("billing cycle already invoiced")
		return billingdomain.AlreadyInvoicedResult(), nil
	}

	if err := s.cycleSvc.ValidatePeriod(ctx, req.CompanyID, period); err != nil {
		return billingdomain.Result{}, err
	}

	cycle, err := s.cycleSvc.Resolve(ctx, req.CompanyID, period.Start)
	if err != nil {
		return billingdomain.Result{}, err
	}

	plans, err := s.planSvc.ListForPeriod(ctx, req.CompanyID, period.Start, period.End)
	if err != nil {
		return billingdomain.Result{}, err
	}
	span.SetAttributes(tracing.SafeAttributes(attribute.Int("billing.plan_count", len(plans)))...)

	log.Info("calculating billing",
		zap.String("company_name", company.CompanyName),
		zap.Time("period_start", period.Start),
		zap.Time("period_end", period.End),
		zap.String("billing_cycle", cycle),
		zap.Int("plan_count", len(plans)),
	)

	loc := s.engine.Get().Location()
	charges := make([]ratingdomain.Charge, 0)
	for _, plan := range plans {
		planCharges, err := s.chargesForPlan(ctx, req.CompanyID, period, plan, cycle, loc)
		if err != nil {
			return billingdomain.Result{}, fmt.Errorf("plan %s: %w", plan.ID, err)
		}
		charges = append(charges, planCharges...)
	}

	for kind, n := range ratingdomain.CountByKind(charges) {
		s.metrics.AddCharges(string(kind), n)
		s.obsMetrics.RecordCharges(ctx, string(kind), n)
	}

	totalAmount := ratingdomain.Sum(charges)
	applied, err := s.discountSvc.Apply(ctx, req.CompanyID, period, totalAmount)
	if err != nil {
		return billingdomain.Result{}, err
	}

	log.Info("billing calculated",
		zap.Int("charge_count", len(charges)),
		zap.Int64("total_amount", totalAmount),
		zap.Int("discount_count", len(applied.Discounts)),
		zap.Float64("final_amount", applied.FinalAmount),
	)

	return billingdomain.Result{
		Charges:     charges,
		TotalAmount: totalAmount,
		Discounts:   applied.Discounts,
		Adjustments: applied.Adjustments,
		FinalAmount: applied.FinalAmount,
	}, nil
}

// chargesForPlan runs the four calculators concurrently and prorates the
// fixed charges. Charges come back fixed, time, usage, then bucket.
func (s *Service) chargesForPlan(ctx context.Context, companyID snowflake.ID, period billingcycledomain.Period, plan plandomain.CompanyBillingPlan, cycle string, loc *time.Location) ([]ratingdomain.Charge, error) {
	var (
		fixed  []ratingdomain.FixedCharge
		timed  []ratingdomain.TimeCharge
		usage  []ratingdomain.UsageCharge
		bucket []ratingdomain.BucketCharge
	)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() (err error) {
		fixed, err = s.ratingSvc.CalculateFixed(gctx, companyID, period, plan)
		return err
	})
	g.Go(func() (err error) {
		timed, err = s.ratingSvc.CalculateTime(gctx, companyID, period, plan)
		return err
	})
	g.Go(func() (err error) {
		usage, err = s.ratingSvc.CalculateUsage(gctx, companyID, period, plan)
		return err
	})
	g.Go(func() (err error) {
		bucket, err = s.ratingSvc.CalculateBucket(gctx, companyID, period, plan)
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	prorated := ratingdomain.Prorate(fixed, period, plan.StartDate, cycle, loc)

	s.log.Debug("plan charges",
		zap.String("company_billing_plan_id", plan.ID.String()),
		zap.String("plan_name", plan.PlanName),
		zap.Int("fixed", len(prorated)),
		zap.Int("time", len(timed)),
		zap.Int("usage", len(usage)),
		zap.Int("bucket", len(bucket)),
	)

	out := make([]ratingdomain.Charge, 0, len(prorated)+len(timed)+len(usage)+len(bucket))
	for _, c := range prorated {
		out = append(out, c)
	}
	for _, c := range timed {
		out = append(out, c)
	}
	for _, c := range usage {
		out = append(out, c)
	}
	for _, c := range bucket {
		out = append(out, c)
	}
	return out, nil
}

func outcome(result billingdomain.Result, err error) string {
	switch {
	case err == nil && result.AlreadyInvoiced:
		return obsmetrics.ResultAlreadyInvoiced
	case err == nil:
		return obsmetrics.ResultSuccess
	case errors.Is(err, billingdomain.ErrInvalidRequest),
		errors.Is(err, billingdomain.ErrInvalidPeriod),
		errors.Is(err, billingcycledomain.ErrPeriodSpansCycleChange),
		errors.Is(err, plandomain.ErrNoApplicablePlan),
		errors.Is(err, billingdomain.ErrCompanyNotFound):
		return obsmetrics.ResultRejected
	default:
		return obsmetrics.ResultError
	}
}
