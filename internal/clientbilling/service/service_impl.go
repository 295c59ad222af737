package service

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/smallbiznis/billingengine/internal/clientbilling/domain"
	"github.com/smallbiznis/billingengine/internal/clock"
	companydomain "github.com/smallbiznis/billingengine/internal/company/domain"
	plandomain "github.com/smallbiznis/billingengine/internal/plan/domain"
	usagedomain "github.com/smallbiznis/billingengine/internal/usage/domain"
	"github.com/smallbiznis/billingengine/pkg/db/pagination"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

const (
	defaultPageSize = 50
	maxPageSize     = 250
)

type ServiceParam struct {
	fx.In

	DB          *gorm.DB
	Log         *zap.Logger
	Clock       clock.Clock
	Repo        domain.Repository
	CompanyRepo companydomain.Repository
	PlanRepo    plandomain.Repository
	UsageRepo   usagedomain.Repository
}

type Service struct {
	db    *gorm.DB
	log   *zap.Logger
	clock clock.Clock

	repo        domain.Repository
	companyRepo companydomain.Repository
	planRepo    plandomain.Repository
	usageRepo   usagedomain.Repository
}

func NewService(p ServiceParam) domain.Service {
	return &Service{
		db:    p.DB,
		log:   p.Log.Named("clientbilling.service"),
		clock: p.Clock,

		repo:        p.Repo,
		companyRepo: p.CompanyRepo,
		planRepo:    p.PlanRepo,
		usageRepo:   p.UsageRepo,
	}
}

func (s *Service) GetActivePlan(ctx context.Context, companyID snowflake.ID) (*domain.ActivePlan, error) {
	if err := s.ensureCompany(ctx, companyID); err != nil {
		return nil, err
	}

	plans, err := s.planRepo.ListActiveAt(ctx, s.db, companyID, s.clock.Now())
	if err != nil {
		return nil, err
	}
	if len(plans) == 0 {
		return nil, nil
	}

	plan := plans[0]
	return &domain.ActivePlan{
		CompanyBillingPlanID: plan.ID,
		PlanID:               plan.PlanID,
		PlanName:             plan.PlanName,
		PlanType:             plan.PlanType,
		PlanTypeLabel:        plan.PlanType.DisplayName(),
		BillingFrequency:     plan.BillingFrequency,
		FrequencyLabel:       plan.BillingFrequency.DisplayName(),
		StartDate:            plan.StartDate,
		EndDate:              plan.EndDate,
	}, nil
}

func (s *Service) ListInvoices(ctx context.Context, req domain.ListInvoicesRequest) (domain.ListInvoicesResponse, error) {
	if err := s.ensureCompany(ctx, req.CompanyID); err != nil {
		return domain.ListInvoicesResponse{}, err
	}

	pageSize := pagination.PageSize(req.PageSize, defaultPageSize, maxPageSize)

	after, err := decodeInvoiceCursor(req.PageToken)
	if err != nil {
		return domain.ListInvoicesResponse{}, err
	}

	rows, err := s.repo.ListInvoices(ctx, s.db, req.CompanyID, after, int(pageSize)+1)
	if err != nil {
		return domain.ListInvoicesResponse{}, err
	}

	items, pageInfo, err := pagination.BuildCursorPage(rows, pageSize, func(invoice *domain.InvoiceSummary) pagination.Cursor {
		return pagination.Cursor{
			ID:      invoice.ID.String(),
			SortKey: invoice.CreatedAt.UTC().Format(time.RFC3339Nano),
		}
	})
	if err != nil {
		return domain.ListInvoicesResponse{}, err
	}

	invoices := make([]domain.InvoiceSummary, 0, len(items))
	for _, item := range items {
		if item == nil {
			continue
		}
		invoices = append(invoices, *item)
	}

	return domain.ListInvoicesResponse{PageInfo: pageInfo, Invoices: invoices}, nil
}

func (s *Service) GetCurrentUsage(ctx context.Context, companyID snowflake.ID) (domain.CurrentUsage, error) {
	if err := s.ensureCompany(ctx, companyID); err != nil {
		return domain.CurrentUsage{}, err
	}

	now := s.clock.Now()
	usage := domain.CurrentUsage{Services: []domain.PlanService{}}

	rows, err := s.usageRepo.ListCurrentBucketUsage(ctx, s.db, companyID, now)
	if err != nil {
		return domain.CurrentUsage{}, err
	}
	if len(rows) > 0 {
		usage.BucketUsage = domain.NewBucketUsage(rows[0])
	}

	plans, err := s.planRepo.ListActiveAt(ctx, s.db, companyID, now)
	if err != nil {
		return domain.CurrentUsage{}, err
	}
	planIDs := make([]snowflake.ID, 0, len(plans))
	seen := make(map[snowflake.ID]struct{}, len(plans))
	for _, plan := range plans {
		if _, ok := seen[plan.PlanID]; ok {
			continue
		}
		seen[plan.PlanID] = struct{}{}
		planIDs = append(planIDs, plan.PlanID)
	}

	rates, err := s.planRepo.ListPlanServices(ctx, s.db, planIDs)
	if err != nil {
		return domain.CurrentUsage{}, err
	}
	for _, rate := range rates {
		usage.Services = append(usage.Services, domain.PlanService{
			ServiceID:   rate.ServiceID,
			ServiceName: rate.ServiceName,
			ServiceType: rate.ServiceType,
			Rate:        rate.Rate(),
			Quantity:    rate.Quantity,
		})
	}

	s.log.Debug("loaded current usage",
		zap.String("company_id", companyID.String()),
		zap.Bool("has_bucket", usage.BucketUsage != nil),
		zap.Int("service_count", len(usage.Services)),
	)
	return usage, nil
}

func (s *Service) ensureCompany(ctx context.Context, companyID snowflake.ID) error {
	if companyID == 0 {
		return domain.ErrInvalidCompany
	}
	company, err := s.companyRepo.FindByID(ctx, s.db, companyID)
	if err != nil {
		return err
	}
	if company == nil {
		return fmt.Errorf("%w: %s", companydomain.ErrCompanyNotFound, companyID)
	}
	return nil
}

func decodeInvoiceCursor(token string) (*domain.InvoiceCursor, error) {
	if token == "" {
		return nil, nil
	}
	cursor, err := pagination.DecodeCursor(token)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrInvalidPageToken, err)
	}
	id, err := strconv.ParseInt(cursor.ID, 10, 64)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrInvalidPageToken, err)
	}
	at, err := time.Parse(time.RFC3339Nano, cursor.SortKey)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrInvalidPageToken, err)
	}
	return &domain.InvoiceCursor{InvoiceDate: at, ID: snowflake.ID(id)}, nil
}
