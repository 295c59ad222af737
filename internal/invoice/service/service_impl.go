package service

import (
	"context"
	"fmt"

	"github.com/bwmarrin/snowflake"
	"github.com/smallbiznis/billingengine/internal/clock"
	companydomain "github.com/smallbiznis/billingengine/internal/company/domain"
	invoicedomain "github.com/smallbiznis/billingengine/internal/invoice/domain"
	ledgerdomain "github.com/smallbiznis/billingengine/internal/ledger/domain"
	"github.com/smallbiznis/billingengine/internal/lock"
	obsmetrics "github.com/smallbiznis/billingengine/internal/observability/metrics"
	"github.com/smallbiznis/billingengine/internal/observability/tracing"
	plandomain "github.com/smallbiznis/billingengine/internal/plan/domain"
	taxdomain "github.com/smallbiznis/billingengine/internal/tax/domain"
	"github.com/smallbiznis/billingengine/pkg/money"
	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

const lockResource = "invoice_recalculation"

type ServiceParam struct {
	fx.In

	DB          *gorm.DB
	Log         *zap.Logger
	Clock       clock.Clock
	Repo        invoicedomain.Repository
	CompanyRepo companydomain.Repository
	PlanRepo    plandomain.Repository
	TaxProvider taxdomain.Provider
	LedgerSvc   ledgerdomain.Service
	Guard       *lock.Guard                `optional:"true"`
	Metrics     *obsmetrics.BillingMetrics `optional:"true"`
}

type Service struct {
	db    *gorm.DB
	log   *zap.Logger
	clock clock.Clock

	repo        invoicedomain.Repository
	companyRepo companydomain.Repository
	planRepo    plandomain.Repository
	taxProvider taxdomain.Provider
	ledgerSvc   ledgerdomain.Service
	guard       *lock.Guard
	metrics     *obsmetrics.BillingMetrics
}

func NewService(p ServiceParam) invoicedomain.Service {
	return &Service{
		db:    p.DB,
		log:   p.Log.Named("invoice.service"),
		clock: p.Clock,

		repo:        p.Repo,
		companyRepo: p.CompanyRepo,
		planRepo:    p.PlanRepo,
		taxProvider: p.TaxProvider,
		ledgerSvc:   p.LedgerSvc,
		guard:       p.Guard,
		metrics:     p.Metrics,
	}
}

func (s *Service) ExistsForCycle(ctx context.Context, companyID, billingCycleID snowflake.ID) (bool, error) {
	return s.repo.ExistsForCycle(ctx, s.db, companyID, billingCycleID)
}

func (s *Service) Recalculate(ctx context.Context, invoiceID snowflake.ID) (totals invoicedomain.Totals, err error) {
	ctx, span := tracing.Start(ctx, "invoice.Recalculate", attribute.String("billing.invoice_id", invoiceID.String()))
	defer func() {
		s.metrics.ObserveRecalculation(err)
		tracing.End(span, err)
	}()

	if invoiceID == 0 {
		return invoicedomain.Totals{}, invoicedomain.ErrInvalidInvoice
	}

	run := func(ctx context.Context) error {
		var runErr error
		totals, runErr = s.recalculate(ctx, invoiceID)
		return runErr
	}
	if s.guard == nil {
		err = run(ctx)
	} else {
		err = s.guard.WithLock(ctx, lockResource, "billingengine:invoice:recalculate:"+invoiceID.String(), run)
	}
	return totals, err
}

func (s *Service) recalculate(ctx context.Context, invoiceID snowflake.ID) (invoicedomain.Totals, error) {
	invoice, err := s.repo.FindByID(ctx, s.db, invoiceID)
	if err != nil {
		return invoicedomain.Totals{}, err
	}
	if invoice == nil {
		return invoicedomain.Totals{}, fmt.Errorf("%w: %s", invoicedomain.ErrInvoiceNotFound, invoiceID)
	}

	company, err := s.companyRepo.FindByID(ctx, s.db, invoice.CompanyID)
	if err != nil {
		return invoicedomain.Totals{}, err
	}
	if company == nil {
		return invoicedomain.Totals{}, fmt.Errorf("%w: %s", invoicedomain.ErrCompanyNotFound, invoice.CompanyID)
	}

	items, err := s.repo.ListItems(ctx, s.db, invoiceID)
	if err != nil {
		return invoicedomain.Totals{}, err
	}

	log := s.log.With(
		zap.String("invoice_id", invoiceID.String()),
		zap.String("company_id", company.ID.String()),
	)
	log.Info("recalculating invoice", zap.Int("item_count", len(items)), zap.Bool("tax_exempt", company.IsTaxExempt))

	var totals invoicedomain.Totals
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var subtotal, totalTax int64

		for _, item := range items {
			if item.IsDiscount {
				continue
			}
			taxAmount, taxRate, taxRegion, err := s.taxItem(ctx, tx, company, item)
			if err != nil {
				return err
			}
			if err := s.repo.UpdateItem(ctx, tx, item.ID, map[string]any{
				"tax_amount":  taxAmount,
				"tax_rate":    taxRate,
				"tax_region":  taxRegion,
				"total_price": item.NetAmount + taxAmount,
			}); err != nil {
				return err
			}
			subtotal += item.NetAmount
			totalTax += taxAmount
		}

		for _, item := range items {
			if !item.IsDiscount {
				continue
			}
			netAmount, fields, err := s.discountItem(ctx, tx, item, subtotal)
			if err != nil {
				return err
			}
			if err := s.repo.UpdateItem(ctx, tx, item.ID, fields); err != nil {
				return err
			}
			subtotal += netAmount
		}

		totals = invoicedomain.Totals{
			Subtotal: subtotal,
			Tax:      totalTax,
			Total:    subtotal + totalTax,
		}
		now := s.clock.Now()
		if err := s.repo.UpdateTotals(ctx, tx, invoiceID, totals, now); err != nil {
			return err
		}

		_, err := s.ledgerSvc.AppendTx(ctx, tx, ledgerdomain.Transaction{
			CompanyID:    invoice.CompanyID,
			InvoiceID:    &invoice.ID,
			Amount:       totals.Total,
			Type:         ledgerdomain.TransactionTypeInvoiceAdjustment,
			Status:       ledgerdomain.TransactionStatusCompleted,
			Description:  fmt.Sprintf("Recalculated invoice %s", invoice.InvoiceNumber),
			BalanceAfter: totals.Total,
			Metadata: datatypes.JSONMap{
				"subtotal": totals.Subtotal,
				"tax":      totals.Tax,
			},
		})
		return err
	})
	if err != nil {
		log.Error("invoice recalculation rolled back", zap.Error(err))
		return invoicedomain.Totals{}, err
	}

	log.Info("invoice recalculated",
		zap.Int64("subtotal", totals.Subtotal),
		zap.Int64("tax", totals.Tax),
		zap.Int64("total", totals.Total),
	)
	return totals, nil
}

// taxItem resolves tax for a regular line. A missing service counts as taxable.
func (s *Service) taxItem(ctx context.Context, tx *gorm.DB, company *companydomain.Company, item invoicedomain.InvoiceItem) (int64, float64, *string, error) {
	var service *plandomain.ServiceCatalog
	if item.ServiceID != nil {
		var err error
		service, err = s.planRepo.FindService(ctx, tx, *item.ServiceID)
		if err != nil {
			return 0, 0, nil, err
		}
	}

	taxRegion := company.TaxRegion
	if service != nil && service.TaxRegion != nil && *service.TaxRegion != "" {
		taxRegion = service.TaxRegion
	}

	if company.IsTaxExempt || !service.Taxable() {
		return 0, 0, taxRegion, nil
	}

	result, err := s.taxProvider.CalculateTax(ctx, company.ID, item.NetAmount, s.clock.Now())
	if err != nil {
		return 0, 0, nil, err
	}
	return money.Round(result.TaxAmount), result.TaxRate, taxRegion, nil
}

// discountItem derives the negative amount of a discount line. Percentage
// discounts apply to their linked item when set, else to the running subtotal.
func (s *Service) discountItem(ctx context.Context, tx *gorm.DB, item invoicedomain.InvoiceItem, subtotal int64) (int64, map[string]any, error) {
	fields := map[string]any{
		"tax_amount": 0,
		"tax_rate":   0,
	}

	if item.DiscountType != nil && *item.DiscountType == invoicedomain.DiscountTypePercentage {
		base := subtotal
		if item.AppliesToItemID != nil {
			base = 0
			target, err := s.repo.FindItem(ctx, tx, *item.AppliesToItemID)
			if err != nil {
				return 0, nil, err
			}
			if target != nil {
				base = target.NetAmount
			}
		}

		var percentage float64
		if item.DiscountPercentage != nil {
			percentage = *item.DiscountPercentage
		}
		netAmount := -money.Round(float64(base) * percentage / 100)

		fields["net_amount"] = netAmount
		fields["total_price"] = netAmount
		fields["unit_price"] = netAmount
		fields["discount_percentage"] = percentage
		return netAmount, fields, nil
	}

	netAmount := item.NetAmount
	if netAmount > 0 {
		netAmount = -netAmount
	}
	fields["net_amount"] = netAmount
	fields["total_price"] = netAmount
	fields["unit_price"] = netAmount
	fields["discount_percentage"] = nil
	return netAmount, fields, nil
}
