package service

import (
	"context"
	"testing"
	"time"

	"github.com/bwmarrin/snowflake"
	billingcycledomain "github.com/smallbiznis/billingengine/internal/billingcycle/domain"
	discountdomain "github.com/smallbiznis/billingengine/internal/discount/domain"
	discountrepository "github.com/smallbiznis/billingengine/internal/discount/repository"
	plandomain "github.com/smallbiznis/billingengine/internal/plan/domain"
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
	db        *gorm.DB
	svc       discountdomain.Service
	node      *snowflake.Node
	companyID snowflake.ID
	planID    snowflake.ID
}

func setupDiscounts(t *testing.T) fixture {
	t.Helper()
	db := dbtest.Open(t,
		&plandomain.CompanyBillingPlan{},
		&discountdomain.Discount{},
		&discountdomain.PlanDiscount{},
	)
	node, err := snowflake.NewNode(1)
	require.NoError(t, err)

	f := fixture{
		db:        db,
		svc:       NewService(ServiceParam{DB: db, Log: zap.NewNop(), Repo: discountrepository.Provide()}),
		node:      node,
		companyID: node.Generate(),
		planID:    node.Generate(),
	}
	require.NoError(t, db.Create(&plandomain.CompanyBillingPlan{
		ID: node.Generate(), CompanyID: f.companyID, PlanID: f.planID, StartDate: date(2023, 1, 1), IsActive: true,
	}).Error)
	return f
}

func (f fixture) offer(t *testing.T, d discountdomain.Discount, companyID snowflake.ID) discountdomain.Discount {
	t.Helper()
	d.ID = f.node.Generate()
	require.NoError(t, f.db.Create(&d).Error)
	require.NoError(t, f.db.Create(&discountdomain.PlanDiscount{
		ID: f.node.Generate(), PlanID: f.planID, CompanyID: companyID, DiscountID: d.ID,
	}).Error)
	return d
}

func TestApplyPercentageAndFixed(t *testing.T) {
	f := setupDiscounts(t)
	period := billingcycledomain.Period{Start: date(2024, 1, 1), End: date(2024, 2, 1)}

	pct := f.offer(t, discountdomain.Discount{DiscountName: "Loyalty", DiscountType: discountdomain.DiscountTypePercentage, Value: 0.1, StartDate: date(2023, 6, 1)}, f.companyID)
	fixed := f.offer(t, discountdomain.Discount{DiscountName: "Credit", DiscountType: discountdomain.DiscountTypeFixed, Value: 500, StartDate: date(2024, 1, 15)}, f.companyID)

	ended := date(2024, 1, 1)
	f.offer(t, discountdomain.Discount{DiscountName: "Expired", DiscountType: discountdomain.DiscountTypeFixed, Value: 100, StartDate: date(2023, 1, 1), EndDate: &ended}, f.companyID)
	f.offer(t, discountdomain.Discount{DiscountName: "Future", DiscountType: discountdomain.DiscountTypeFixed, Value: 100, StartDate: date(2024, 3, 1)}, f.companyID)
	f.offer(t, discountdomain.Discount{DiscountName: "Other company", DiscountType: discountdomain.DiscountTypeFixed, Value: 100, StartDate: date(2023, 1, 1)}, f.node.Generate())

	inactive := f.offer(t, discountdomain.Discount{DiscountName: "Paused", DiscountType: discountdomain.DiscountTypeFixed, Value: 100, StartDate: date(2023, 1, 1)}, f.companyID)
	require.NoError(t, f.db.Model(&discountdomain.Discount{}).Where("id = ?", inactive.ID).Update("is_active", false).Error)

	applied, err := f.svc.Apply(context.Background(), f.companyID, period, 10000)
	require.NoError(t, err)
	require.Len(t, applied.Discounts, 2)

	assert.Equal(t, pct.ID, applied.Discounts[0].ID)
	assert.InDelta(t, 1000, applied.Discounts[0].Amount, 1e-9)
	assert.Equal(t, fixed.ID, applied.Discounts[1].ID)
	assert.Equal(t, 500.0, applied.Discounts[1].Amount)
	assert.InDelta(t, 8500, applied.FinalAmount, 1e-9)
	assert.NotNil(t, applied.Adjustments)
	assert.Empty(t, applied.Adjustments)
}

func TestApplyWithoutDiscounts(t *testing.T) {
	f := setupDiscounts(t)
	period := billingcycledomain.Period{Start: date(2024, 1, 1), End: date(2024, 2, 1)}

	applied, err := f.svc.Apply(context.Background(), f.companyID, period, 4200)
	require.NoError(t, err)
	assert.Empty(t, applied.Discounts)
	assert.Equal(t, 4200.0, applied.FinalAmount)
}

func TestApplyDeduplicatesAcrossAssignments(t *testing.T) {
	f := setupDiscounts(t)
	period := billingcycledomain.Period{Start: date(2024, 1, 1), End: date(2024, 2, 1)}
	require.NoError(t, f.db.Create(&plandomain.CompanyBillingPlan{
		ID: f.node.Generate(), CompanyID: f.companyID, PlanID: f.planID, StartDate: date(2024, 1, 1), IsActive: true,
	}).Error)
	f.offer(t, discountdomain.Discount{DiscountName: "Credit", DiscountType: discountdomain.DiscountTypeFixed, Value: 250, StartDate: date(2023, 1, 1)}, f.companyID)

	applied, err := f.svc.Apply(context.Background(), f.companyID, period, 1000)
	require.NoError(t, err)
	require.Len(t, applied.Discounts, 1)
	assert.Equal(t, 750.0, applied.FinalAmount)
}
