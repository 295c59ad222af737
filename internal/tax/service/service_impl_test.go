package service

import (
	"context"
	"testing"
	"time"

	"github.com/bwmarrin/snowflake"
	taxdomain "github.com/smallbiznis/billingengine/internal/tax/domain"
	taxrepository "github.com/smallbiznis/billingengine/internal/tax/repository"
	"github.com/smallbiznis/billingengine/pkg/db/dbtest"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

func setupProvider(t *testing.T) (*gorm.DB, taxdomain.Provider, *snowflake.Node) {
	t.Helper()
	db := dbtest.Open(t, &taxdomain.TaxRate{}, &taxdomain.CompanyTaxRate{})
	node, err := snowflake.NewNode(1)
	require.NoError(t, err)

	repo := taxrepository.NewRepository(taxrepository.RepositoryParam{DB: db})
	return db, NewProvider(ServiceParam{Log: zap.NewNop(), Repository: repo}), node
}

func seedRate(t *testing.T, db *gorm.DB, node *snowflake.Node, region string, pct float64, start time.Time, end *time.Time) taxdomain.TaxRate {
	t.Helper()
	rate := taxdomain.TaxRate{ID: node.Generate(), Region: region, TaxPercentage: pct, StartDate: start, EndDate: end}
	require.NoError(t, rate.Validate())
	require.NoError(t, db.Create(&rate).Error)
	return rate
}

func TestGetCompanyTaxRateByRegion(t *testing.T) {
	db, provider, node := setupProvider(t)
	expired := time.Date(2023, 12, 31, 0, 0, 0, 0, time.UTC)
	seedRate(t, db, node, "US-NY", 4, time.Date(2023, 1, 1, 0, 0, 0, 0, time.UTC), nil)
	seedRate(t, db, node, "US-NY", 4.5, time.Date(2023, 1, 1, 0, 0, 0, 0, time.UTC), nil)
	seedRate(t, db, node, "US-NY", 10, time.Date(2022, 1, 1, 0, 0, 0, 0, time.UTC), &expired)

	rate, err := provider.GetCompanyTaxRate(context.Background(), "US-NY", time.Date(2024, 1, 31, 0, 0, 0, 0, time.UTC))
	require.NoError(t, err)
	assert.InDelta(t, 0.085, rate, 1e-9)

	rate, err = provider.GetCompanyTaxRate(context.Background(), "", time.Now())
	require.NoError(t, err)
	assert.Zero(t, rate)
}

func TestCalculateTaxUsesCompanyRates(t *testing.T) {
	db, provider, node := setupProvider(t)
	companyID := node.Generate()
	rate := seedRate(t, db, node, "US-CA", 10, time.Date(2023, 1, 1, 0, 0, 0, 0, time.UTC), nil)
	require.NoError(t, db.Create(&taxdomain.CompanyTaxRate{ID: node.Generate(), CompanyID: companyID, TaxRateID: rate.ID}).Error)

	result, err := provider.CalculateTax(context.Background(), companyID, 12345, time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC))
	require.NoError(t, err)
	assert.InDelta(t, 0.10, result.TaxRate, 1e-9)
	assert.InDelta(t, 1234.5, result.TaxAmount, 1e-9)

	none, err := provider.CalculateTax(context.Background(), node.Generate(), 12345, time.Now())
	require.NoError(t, err)
	assert.Equal(t, taxdomain.Result{}, none)
}

func TestTaxRateValidate(t *testing.T) {
	start := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	assert.ErrorIs(t, (&taxdomain.TaxRate{TaxPercentage: 1, StartDate: start}).Validate(), taxdomain.ErrInvalidRegion)
	assert.ErrorIs(t, (&taxdomain.TaxRate{Region: "EU", TaxPercentage: -1, StartDate: start}).Validate(), taxdomain.ErrInvalidTaxRate)
	assert.ErrorIs(t, (&taxdomain.TaxRate{Region: "EU", TaxPercentage: 1, StartDate: start, EndDate: &start}).Validate(), taxdomain.ErrInvalidTaxRate)
}
