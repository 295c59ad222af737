package service

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	billingdomain "github.com/smallbiznis/billingengine/internal/billing/domain"
	billingcycledomain "github.com/smallbiznis/billingengine/internal/billingcycle/domain"
	billingcycleservice "github.com/smallbiznis/billingengine/internal/billingcycle/service"
	"github.com/smallbiznis/billingengine/internal/clock"
	companydomain "github.com/smallbiznis/billingengine/internal/company/domain"
	companyrepository "github.com/smallbiznis/billingengine/internal/company/repository"
	"github.com/smallbiznis/billingengine/internal/config"
	discountdomain "github.com/smallbiznis/billingengine/internal/discount/domain"
	discountrepository "github.com/smallbiznis/billingengine/internal/discount/repository"
	discountservice "github.com/smallbiznis/billingengine/internal/discount/service"
	invoicedomain "github.com/smallbiznis/billingengine/internal/invoice/domain"
	invoicerepository "github.com/smallbiznis/billingengine/internal/invoice/repository"
	invoiceservice "github.com/smallbiznis/billingengine/internal/invoice/service"
	ledgerdomain "github.com/smallbiznis/billingengine/internal/ledger/domain"
	ledgerservice "github.com/smallbiznis/billingengine/internal/ledger/service"
	obsmetrics "github.com/smallbiznis/billingengine/internal/observability/metrics"
	plandomain "github.com/smallbiznis/billingengine/internal/plan/domain"
	planrepository "github.com/smallbiznis/billingengine/internal/plan/repository"
	planservice "github.com/smallbiznis/billingengine/internal/plan/service"
	ratingdomain "github.com/smallbiznis/billingengine/internal/rating/domain"
	ratingservice "github.com/smallbiznis/billingengine/internal/rating/service"
	taxdomain "github.com/smallbiznis/billingengine/internal/tax/domain"
	taxrepository "github.com/smallbiznis/billingengine/internal/tax/repository"
	taxservice "github.com/smallbiznis/billingengine/internal/tax/service"
	timeentrydomain "github.com/smallbiznis/billingengine/internal/timeentry/domain"
	timeentryrepository "github.com/smallbiznis/billingengine/internal/timeentry/repository"
	usagedomain "github.com/smallbiznis/billingengine/internal/usage/domain"
	usagerepository "github.com/smallbiznis/billingengine/internal/usage/repository"
	"github.com/smallbiznis/billingengine/pkg/db/dbtest"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

func date(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

type fixture struct {
	db       *gorm.DB
	svc      billingdomain.Service
	registry *prometheus.Registry
	node     *snowflake.Node
	company  companydomain.Company
}

func setupEngine(t *testing.T) *fixture {
	t.Helper()
	db := dbtest.Open(t,
		&companydomain.Company{},
		&billingcycledomain.CompanyBillingCycle{},
		&plandomain.BillingPlan{},
		&plandomain.CompanyBillingPlan{},
		&plandomain.PlanService{},
		&plandomain.ServiceCatalog{},
		&usagedomain.UsageRecord{},
		&usagedomain.BucketPlan{},
		&usagedomain.BucketUsage{},
		&timeentrydomain.User{},
		&timeentrydomain.Ticket{},
		&timeentrydomain.Project{},
		&timeentrydomain.ProjectPhase{},
		&timeentrydomain.ProjectTask{},
		&timeentrydomain.TimeEntry{},
		&taxdomain.TaxRate{},
		&taxdomain.CompanyTaxRate{},
		&discountdomain.Discount{},
		&discountdomain.PlanDiscount{},
		&invoicedomain.Invoice{},
		&invoicedomain.InvoiceItem{},
		&ledgerdomain.Transaction{},
	)
	node, err := snowflake.NewNode(1)
	require.NoError(t, err)

	log := zap.NewNop()
	engine := config.NewStaticEngineConfigHolder(config.DefaultEngineConfig())
	fakeClock := clock.NewFakeClock(date(2024, 5, 2))
	companyRepo := companyrepository.Provide()
	planRepo := planrepository.Provide()
	taxProvider := taxservice.NewProvider(taxservice.ServiceParam{
		Log:        log,
		Repository: taxrepository.NewRepository(taxrepository.RepositoryParam{DB: db}),
	})
	registry := prometheus.NewRegistry()
	metrics := obsmetrics.NewBillingMetricsForRegistry(registry)

	svc := NewService(ServiceParam{
		DB:          db,
		Log:         log,
		Engine:      engine,
		CompanyRepo: companyRepo,
		CycleSvc: billingcycleservice.NewService(billingcycleservice.ServiceParam{
			DB: db, Log: log, GenID: node, CompanyRepo: companyRepo, Engine: engine,
		}),
		PlanSvc: planservice.NewService(planservice.ServiceParam{DB: db, Log: log, PlanRepo: planRepo}),
		RatingSvc: ratingservice.NewService(ratingservice.ServiceParam{
			DB:          db,
			Log:         log,
			CompanyRepo: companyRepo,
			PlanRepo:    planRepo,
			UsageRepo:   usagerepository.Provide(),
			TimeRepo:    timeentryrepository.Provide(),
			TaxProvider: taxProvider,
		}),
		DiscountSvc: discountservice.NewService(discountservice.ServiceParam{DB: db, Log: log, Repo: discountrepository.Provide()}),
		InvoiceSvc: invoiceservice.NewService(invoiceservice.ServiceParam{
			DB:          db,
			Log:         log,
			Clock:       fakeClock,
			Repo:        invoicerepository.Provide(),
			CompanyRepo: companyRepo,
			PlanRepo:    planRepo,
			TaxProvider: taxProvider,
			LedgerSvc:   ledgerservice.NewService(ledgerservice.Params{DB: db, Log: log, GenID: node, Clock: fakeClock}),
		}),
		Metrics: metrics,
	})

	company := companydomain.Company{ID: node.Generate(), CompanyName: "Acme"}
	require.NoError(t, db.Create(&company).Error)

	return &fixture{db: db, svc: svc, registry: registry, node: node, company: company}
}

func (f *fixture) assign(t *testing.T, planType plandomain.PlanType, start time.Time) plandomain.CompanyBillingPlan {
	t.Helper()
	plan := plandomain.BillingPlan{ID: f.node.Generate(), PlanName: planType.DisplayName(), PlanType: planType, BillingFrequency: plandomain.BillingFrequencyMonthly}
	require.NoError(t, f.db.Create(&plan).Error)
	cbp := plandomain.CompanyBillingPlan{ID: f.node.Generate(), CompanyID: f.company.ID, PlanID: plan.ID, StartDate: start, IsActive: true}
	require.NoError(t, f.db.Create(&cbp).Error)
	return cbp
}

func (f *fixture) attach(t *testing.T, planID snowflake.ID, svc plandomain.ServiceCatalog) snowflake.ID {
	t.Helper()
	svc.ID = f.node.Generate()
	require.NoError(t, f.db.Create(&svc).Error)
	require.NoError(t, f.db.Create(&plandomain.PlanService{PlanID: planID, ServiceID: svc.ID, Quantity: 1}).Error)
	return svc.ID
}

func TestCalculateBillingProratesFixedAndAppliesDiscount(t *testing.T) {
	f := setupEngine(t)
	fixedPlan := f.assign(t, plandomain.PlanTypeFixed, date(2024, 4, 16))
	f.attach(t, fixedPlan.PlanID, plandomain.ServiceCatalog{ServiceName: "Managed Support", ServiceType: plandomain.ServiceTypeFixed, DefaultRate: 10000})

	usagePlan := f.assign(t, plandomain.PlanTypeUsage, date(2024, 1, 1))
	backup := f.attach(t, usagePlan.PlanID, plandomain.ServiceCatalog{ServiceName: "Backup GB", ServiceType: plandomain.ServiceTypeUsage, DefaultRate: 10000})
	require.NoError(t, f.db.Create(&usagedomain.UsageRecord{ID: f.node.Generate(), CompanyID: f.company.ID, ServiceID: backup, UsageDate: date(2024, 4, 20), Quantity: 2.5}).Error)

	discount := discountdomain.Discount{ID: f.node.Generate(), DiscountName: "Launch", DiscountType: discountdomain.DiscountTypeFixed, Value: 500, StartDate: date(2024, 1, 1)}
	require.NoError(t, f.db.Create(&discount).Error)
	require.NoError(t, f.db.Create(&discountdomain.PlanDiscount{ID: f.node.Generate(), PlanID: fixedPlan.PlanID, CompanyID: f.company.ID, DiscountID: discount.ID}).Error)

	result, err := f.svc.CalculateBilling(context.Background(), billingdomain.Request{
		CompanyID:      f.company.ID,
		BillingCycleID: f.node.Generate(),
		Start:          date(2024, 4, 1),
		End:            date(2024, 5, 1),
	})
	require.NoError(t, err)
	require.Len(t, result.Charges, 2)

	// Plans are processed newest start first.
	fixed, ok := result.Charges[0].(ratingdomain.FixedCharge)
	require.True(t, ok)
	assert.EqualValues(t, 5000, fixed.Total)

	usage, ok := result.Charges[1].(ratingdomain.UsageCharge)
	require.True(t, ok)
	assert.EqualValues(t, 25000, usage.Total)

	assert.EqualValues(t, 30000, result.TotalAmount)
	require.Len(t, result.Discounts, 1)
	assert.Equal(t, 500.0, result.Discounts[0].Amount)
	assert.Equal(t, 29500.0, result.FinalAmount)
	assert.Empty(t, result.Adjustments)
	assert.False(t, result.AlreadyInvoiced)

	var cycles []billingcycledomain.CompanyBillingCycle
	require.NoError(t, f.db.Where("company_id = ?", f.company.ID).Find(&cycles).Error)
	require.Len(t, cycles, 1)
	assert.Equal(t, config.CycleMonthly, cycles[0].BillingCycle)
}

func TestCalculateBillingAlreadyInvoiced(t *testing.T) {
	f := setupEngine(t)
	f.assign(t, plandomain.PlanTypeFixed, date(2024, 1, 1))
	cycleID := f.node.Generate()
	req := billingdomain.Request{CompanyID: f.company.ID, BillingCycleID: cycleID, Start: date(2024, 4, 1), End: date(2024, 5, 1)}

	first, err := f.svc.CalculateBilling(context.Background(), req)
	require.NoError(t, err)
	assert.False(t, first.AlreadyInvoiced)

	require.NoError(t, f.db.Create(&invoicedomain.Invoice{
		ID: f.node.Generate(), CompanyID: f.company.ID, BillingCycleID: &cycleID,
		InvoiceNumber: "INV-1", InvoiceDate: date(2024, 5, 1),
	}).Error)

	second, err := f.svc.CalculateBilling(context.Background(), req)
	require.NoError(t, err)
	assert.True(t, second.AlreadyInvoiced)
	assert.Empty(t, second.Charges)
	assert.NotNil(t, second.Charges)
	assert.Zero(t, second.TotalAmount)
	assert.Zero(t, second.FinalAmount)

	expected := `
# HELP billing_calculations_total Billing calculations by outcome.
# TYPE billing_calculations_total counter
billing_calculations_total{env="test",result="already_invoiced",service="billingengine"} 1
billing_calculations_total{env="test",result="error",service="billingengine"} 0
billing_calculations_total{env="test",result="rejected",service="billingengine"} 0
billing_calculations_total{env="test",result="success",service="billingengine"} 1
`
	require.NoError(t, testutil.GatherAndCompare(f.registry, strings.NewReader(expected), "billing_calculations_total"))
}

func TestCalculateBillingWithoutPlans(t *testing.T) {
	f := setupEngine(t)

	_, err := f.svc.CalculateBilling(context.Background(), billingdomain.Request{
		CompanyID: f.company.ID, BillingCycleID: f.node.Generate(), Start: date(2024, 4, 1), End: date(2024, 5, 1),
	})
	require.ErrorIs(t, err, plandomain.ErrNoApplicablePlan)
}

func TestCalculateBillingRejectsPeriodSpanningCycleChange(t *testing.T) {
	f := setupEngine(t)
	f.assign(t, plandomain.PlanTypeFixed, date(2023, 1, 1))
	for _, c := range []billingcycledomain.CompanyBillingCycle{
		{ID: f.node.Generate(), CompanyID: f.company.ID, BillingCycle: config.CycleMonthly, EffectiveDate: date(2023, 1, 1)},
		{ID: f.node.Generate(), CompanyID: f.company.ID, BillingCycle: config.CycleWeekly, EffectiveDate: date(2024, 1, 20)},
	} {
		require.NoError(t, f.db.Create(&c).Error)
	}

	_, err := f.svc.CalculateBilling(context.Background(), billingdomain.Request{
		CompanyID: f.company.ID, BillingCycleID: f.node.Generate(), Start: date(2024, 1, 1), End: date(2024, 2, 15),
	})
	require.ErrorIs(t, err, billingcycledomain.ErrPeriodSpansCycleChange)
}

func TestCalculateBillingValidatesRequest(t *testing.T) {
	f := setupEngine(t)
	ctx := context.Background()

	_, err := f.svc.CalculateBilling(ctx, billingdomain.Request{CompanyID: f.company.ID, Start: date(2024, 4, 1), End: date(2024, 5, 1)})
	assert.ErrorIs(t, err, billingdomain.ErrInvalidRequest)

	_, err = f.svc.CalculateBilling(ctx, billingdomain.Request{CompanyID: f.company.ID, BillingCycleID: 1, Start: date(2024, 5, 1), End: date(2024, 4, 1)})
	assert.ErrorIs(t, err, billingdomain.ErrInvalidPeriod)

	_, err = f.svc.CalculateBilling(ctx, billingdomain.Request{CompanyID: f.node.Generate(), BillingCycleID: 1, Start: date(2024, 4, 1), End: date(2024, 5, 1)})
	assert.ErrorIs(t, err, billingdomain.ErrCompanyNotFound)
}
