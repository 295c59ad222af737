package service

import (
	"context"
	"testing"
	"time"

	"github.com/bwmarrin/snowflake"
	billingcycledomain "github.com/smallbiznis/billingengine/internal/billingcycle/domain"
	companydomain "github.com/smallbiznis/billingengine/internal/company/domain"
	companyrepository "github.com/smallbiznis/billingengine/internal/company/repository"
	plandomain "github.com/smallbiznis/billingengine/internal/plan/domain"
	planrepository "github.com/smallbiznis/billingengine/internal/plan/repository"
	ratingdomain "github.com/smallbiznis/billingengine/internal/rating/domain"
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

type fixture struct {
	db      *gorm.DB
	svc     ratingdomain.Service
	node    *snowflake.Node
	company companydomain.Company
	period  billingcycledomain.Period
}

func setupRating(t *testing.T) fixture {
	t.Helper()
	db := dbtest.Open(t,
		&companydomain.Company{},
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
	)
	node, err := snowflake.NewNode(1)
	require.NoError(t, err)

	log := zap.NewNop()
	taxRepo := taxrepository.NewRepository(taxrepository.RepositoryParam{DB: db})
	svc := NewService(ServiceParam{
		DB:          db,
		Log:         log,
		CompanyRepo: companyrepository.Provide(),
		PlanRepo:    planrepository.Provide(),
		UsageRepo:   usagerepository.Provide(),
		TimeRepo:    timeentryrepository.Provide(),
		TaxProvider: taxservice.NewProvider(taxservice.ServiceParam{Log: log, Repository: taxRepo}),
	})

	region := "CA"
	company := companydomain.Company{ID: node.Generate(), CompanyName: "Acme", TaxRegion: &region}
	require.NoError(t, db.Create(&company).Error)

	return fixture{
		db:      db,
		svc:     svc,
		node:    node,
		company: company,
		period: billingcycledomain.Period{
			Start: time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC),
			End:   time.Date(2024, 2, 1, 0, 0, 0, 0, time.UTC),
		},
	}
}

func (f fixture) plan(t *testing.T, planType plandomain.PlanType) plandomain.CompanyBillingPlan {
	t.Helper()
	bp := plandomain.BillingPlan{ID: f.node.Generate(), PlanName: string(planType) + " plan", PlanType: planType, BillingFrequency: plandomain.BillingFrequencyMonthly}
	require.NoError(t, f.db.Create(&bp).Error)
	cbp := plandomain.CompanyBillingPlan{ID: f.node.Generate(), CompanyID: f.company.ID, PlanID: bp.ID, StartDate: f.period.Start, IsActive: true}
	require.NoError(t, f.db.Create(&cbp).Error)
	return cbp
}

func (f fixture) service(t *testing.T, planID snowflake.ID, svc plandomain.ServiceCatalog, quantity float64, custom *float64) plandomain.ServiceCatalog {
	t.Helper()
	svc.ID = f.node.Generate()
	require.NoError(t, f.db.Create(&svc).Error)
	require.NoError(t, f.db.Create(&plandomain.PlanService{PlanID: planID, ServiceID: svc.ID, Quantity: quantity, CustomRate: custom}).Error)
	return svc
}

func ptr[T any](v T) *T { return &v }

func TestCalculateFixedCeilsTotalAndTaxesRawAmount(t *testing.T) {
	f := setupRating(t)
	plan := f.plan(t, plandomain.PlanTypeFixed)
	f.service(t, plan.PlanID, plandomain.ServiceCatalog{
		ServiceName: "Managed Support",
		ServiceType: plandomain.ServiceTypeFixed,
		DefaultRate: 10000.4,
		TaxRate:     ptr(0.1),
	}, 1, nil)
	f.service(t, plan.PlanID, plandomain.ServiceCatalog{
		ServiceName: "Hardware Lease",
		ServiceType: plandomain.ServiceTypeFixed,
		DefaultRate: 500,
		IsTaxable:   ptr(false),
		TaxRegion:   ptr("NY"),
		TaxRate:     ptr(0.2),
	}, 2, ptr(250.0))
	f.service(t, plan.PlanID, plandomain.ServiceCatalog{
		ServiceName: "Backup GB",
		ServiceType: plandomain.ServiceTypeUsage,
		DefaultRate: 1,
	}, 1, nil)

	charges, err := f.svc.CalculateFixed(context.Background(), f.company.ID, f.period, plan)
	require.NoError(t, err)
	require.Len(t, charges, 2)

	lease := charges[0]
	assert.Equal(t, "Hardware Lease", lease.ServiceName)
	assert.Equal(t, 250.0, lease.Rate)
	assert.EqualValues(t, 500, lease.Total)
	assert.Equal(t, "NY", lease.TaxRegion)
	assert.Zero(t, lease.TaxAmount)

	support := charges[1]
	assert.EqualValues(t, 10001, support.Total)
	assert.Equal(t, "CA", support.TaxRegion)
	assert.Equal(t, 0.1, support.TaxRate)
	assert.InDelta(t, 1000.04, support.TaxAmount, 1e-6)
}

func TestCalculateFixedTaxExemptCompany(t *testing.T) {
	f := setupRating(t)
	require.NoError(t, f.db.Model(&companydomain.Company{}).Where("id = ?", f.company.ID).Update("is_tax_exempt", true).Error)
	plan := f.plan(t, plandomain.PlanTypeFixed)
	f.service(t, plan.PlanID, plandomain.ServiceCatalog{
		ServiceName: "Managed Support",
		ServiceType: plandomain.ServiceTypeFixed,
		DefaultRate: 10000,
		TaxRate:     ptr(0.1),
	}, 1, nil)

	charges, err := f.svc.CalculateFixed(context.Background(), f.company.ID, f.period, plan)
	require.NoError(t, err)
	require.Len(t, charges, 1)
	assert.EqualValues(t, 10000, charges[0].Total)
	assert.Zero(t, charges[0].TaxRate)
	assert.Zero(t, charges[0].TaxAmount)
}

func TestCalculateFixedUnknownCompany(t *testing.T) {
	f := setupRating(t)
	plan := f.plan(t, plandomain.PlanTypeFixed)

	_, err := f.svc.CalculateFixed(context.Background(), f.node.Generate(), f.period, plan)
	require.ErrorIs(t, err, companydomain.ErrCompanyNotFound)
}

func TestCalculateTimeRoundsFractionalHours(t *testing.T) {
	f := setupRating(t)
	plan := f.plan(t, plandomain.PlanTypeTimeBased)
	svc := f.service(t, plan.PlanID, plandomain.ServiceCatalog{
		ServiceName: "Onsite Labor",
		ServiceType: plandomain.ServiceTypeTime,
		DefaultRate: 100.2,
	}, 1, nil)

	userID := f.node.Generate()
	require.NoError(t, f.db.Create(&timeentrydomain.User{ID: userID, Username: "jo"}).Error)
	ticket := timeentrydomain.Ticket{ID: f.node.Generate(), CompanyID: f.company.ID, Title: "Printer down"}
	require.NoError(t, f.db.Create(&ticket).Error)

	approved := timeentrydomain.TimeEntry{
		ID: f.node.Generate(), UserID: userID, WorkItemID: ticket.ID, WorkItemType: timeentrydomain.WorkItemTypeTicket,
		ServiceID: svc.ID, ApprovalStatus: timeentrydomain.ApprovalStatusApproved,
		StartTime: time.Date(2024, 1, 10, 9, 0, 0, 0, time.UTC), EndTime: time.Date(2024, 1, 10, 10, 30, 0, 0, time.UTC),
	}
	draft := approved
	draft.ID = f.node.Generate()
	draft.ApprovalStatus = timeentrydomain.ApprovalStatusDraft
	outside := approved
	outside.ID = f.node.Generate()
	outside.StartTime = time.Date(2024, 2, 3, 9, 0, 0, 0, time.UTC)
	outside.EndTime = time.Date(2024, 2, 3, 10, 0, 0, 0, time.UTC)
	for _, e := range []*timeentrydomain.TimeEntry{&approved, &draft, &outside} {
		require.NoError(t, f.db.Create(e).Error)
	}

	charges, err := f.svc.CalculateTime(context.Background(), f.company.ID, f.period, plan)
	require.NoError(t, err)
	require.Len(t, charges, 1)
	assert.Equal(t, approved.ID, charges[0].EntryID)
	assert.Equal(t, userID, charges[0].UserID)
	assert.Equal(t, 1.5, charges[0].Duration)
	assert.Equal(t, 101.0, charges[0].Rate)
	assert.EqualValues(t, 152, charges[0].Total)
	assert.Equal(t, "CA", charges[0].TaxRegion)
}

func TestCalculateUsageCeilsTotal(t *testing.T) {
	f := setupRating(t)
	plan := f.plan(t, plandomain.PlanTypeUsage)
	svc := f.service(t, plan.PlanID, plandomain.ServiceCatalog{
		ServiceName: "Backup GB",
		ServiceType: plandomain.ServiceTypeUsage,
		DefaultRate: 100.2,
	}, 1, nil)

	record := usagedomain.UsageRecord{ID: f.node.Generate(), CompanyID: f.company.ID, ServiceID: svc.ID, UsageDate: time.Date(2024, 1, 15, 0, 0, 0, 0, time.UTC), Quantity: 2.5}
	invoiced := usagedomain.UsageRecord{ID: f.node.Generate(), CompanyID: f.company.ID, ServiceID: svc.ID, UsageDate: time.Date(2024, 1, 16, 0, 0, 0, 0, time.UTC), Quantity: 4, Invoiced: true}
	require.NoError(t, f.db.Create(&record).Error)
	require.NoError(t, f.db.Create(&invoiced).Error)

	charges, err := f.svc.CalculateUsage(context.Background(), f.company.ID, f.period, plan)
	require.NoError(t, err)
	require.Len(t, charges, 1)
	assert.Equal(t, record.ID, charges[0].UsageID)
	assert.Equal(t, 101.0, charges[0].Rate)
	assert.EqualValues(t, 253, charges[0].Total)
}

func TestTimeRoundsWhereUsageCeils(t *testing.T) {
	f := setupRating(t)
	ctx := context.Background()

	timePlan := f.plan(t, plandomain.PlanTypeTimeBased)
	labor := f.service(t, timePlan.PlanID, plandomain.ServiceCatalog{
		ServiceName: "Remote Labor",
		ServiceType: plandomain.ServiceTypeTime,
		DefaultRate: 100.2,
	}, 1, nil)
	userID := f.node.Generate()
	require.NoError(t, f.db.Create(&timeentrydomain.User{ID: userID, Username: "sam"}).Error)
	ticket := timeentrydomain.Ticket{ID: f.node.Generate(), CompanyID: f.company.ID, Title: "VPN"}
	require.NoError(t, f.db.Create(&ticket).Error)
	require.NoError(t, f.db.Create(&timeentrydomain.TimeEntry{
		ID: f.node.Generate(), UserID: userID, WorkItemID: ticket.ID, WorkItemType: timeentrydomain.WorkItemTypeTicket,
		ServiceID: labor.ID, ApprovalStatus: timeentrydomain.ApprovalStatusApproved,
		StartTime: time.Date(2024, 1, 11, 9, 0, 0, 0, time.UTC), EndTime: time.Date(2024, 1, 11, 10, 12, 0, 0, time.UTC),
	}).Error)

	usagePlan := f.plan(t, plandomain.PlanTypeUsage)
	storage := f.service(t, usagePlan.PlanID, plandomain.ServiceCatalog{
		ServiceName: "Archive GB",
		ServiceType: plandomain.ServiceTypeUsage,
		DefaultRate: 100.2,
	}, 1, nil)
	require.NoError(t, f.db.Create(&usagedomain.UsageRecord{
		ID: f.node.Generate(), CompanyID: f.company.ID, ServiceID: storage.ID,
		UsageDate: time.Date(2024, 1, 11, 0, 0, 0, 0, time.UTC), Quantity: 1.2,
	}).Error)

	timeCharges, err := f.svc.CalculateTime(ctx, f.company.ID, f.period, timePlan)
	require.NoError(t, err)
	require.Len(t, timeCharges, 1)
	assert.InDelta(t, 1.2, timeCharges[0].Duration, 1e-9)
	assert.Equal(t, 101.0, timeCharges[0].Rate)
	assert.EqualValues(t, 121, timeCharges[0].Total)

	usageCharges, err := f.svc.CalculateUsage(ctx, f.company.ID, f.period, usagePlan)
	require.NoError(t, err)
	require.Len(t, usageCharges, 1)
	assert.Equal(t, 101.0, usageCharges[0].Rate)
	assert.EqualValues(t, 122, usageCharges[0].Total)
}

func TestCalculateBucketBillsOverage(t *testing.T) {
	f := setupRating(t)
	plan := f.plan(t, plandomain.PlanTypeBucket)
	require.NoError(t, f.db.Create(&taxdomain.TaxRate{ID: f.node.Generate(), Region: "CA", TaxPercentage: 8.25, StartDate: time.Date(2023, 1, 1, 0, 0, 0, 0, time.UTC)}).Error)

	bucket := usagedomain.BucketPlan{ID: f.node.Generate(), PlanID: plan.PlanID, TotalHours: 40, OverageRate: 50.5}
	require.NoError(t, f.db.Create(&bucket).Error)
	require.NoError(t, f.db.Create(&usagedomain.BucketUsage{
		ID: f.node.Generate(), BucketPlanID: bucket.ID, CompanyID: f.company.ID,
		PeriodStart: f.period.Start, PeriodEnd: f.period.End,
		HoursUsed: 42.5, OverageHours: 2.5, ServiceCatalogID: f.node.Generate(),
	}).Error)

	charges, err := f.svc.CalculateBucket(context.Background(), f.company.ID, f.period, plan)
	require.NoError(t, err)
	require.Len(t, charges, 1)

	charge := charges[0]
	assert.Equal(t, ratingdomain.DefaultBucketServiceName, charge.ServiceName)
	assert.Equal(t, 51.0, charge.OverageRate)
	assert.EqualValues(t, 128, charge.Total)
	assert.Equal(t, "CA", charge.TaxRegion)
	assert.InDelta(t, 0.0825, charge.TaxRate, 1e-9)
	assert.Equal(t, 11.0, charge.TaxAmount)
	assert.Equal(t, 42.5, charge.HoursUsed)
}

func TestCalculateBucketWithoutUsage(t *testing.T) {
	f := setupRating(t)
	plan := f.plan(t, plandomain.PlanTypeBucket)

	charges, err := f.svc.CalculateBucket(context.Background(), f.company.ID, f.period, plan)
	require.NoError(t, err)
	assert.Empty(t, charges)

	require.NoError(t, f.db.Create(&usagedomain.BucketPlan{ID: f.node.Generate(), PlanID: plan.PlanID, TotalHours: 10, OverageRate: 10}).Error)
	charges, err = f.svc.CalculateBucket(context.Background(), f.company.ID, f.period, plan)
	require.NoError(t, err)
	assert.Empty(t, charges)
}
