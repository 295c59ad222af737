package service

import (
	"context"
	"strings"
	"time"

	"github.com/bwmarrin/snowflake"
	taxdomain "github.com/smallbiznis/billingengine/internal/tax/domain"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

type ServiceParam struct {
	fx.In

	Log        *zap.Logger
	Repository taxdomain.Repository
}

type provider struct {
	log  *zap.Logger
	repo taxdomain.Repository
}

// NewProvider returns the database-backed tax provider.
func NewProvider(p ServiceParam) taxdomain.Provider {
	return &provider{
		log:  p.Log.Named("tax.provider"),
		repo: p.Repository,
	}
}

func (p *provider) CalculateTax(ctx context.Context, companyID snowflake.ID, netAmount int64, asOf time.Time) (taxdomain.Result, error) {
	percentage, err := p.repo.SumCompanyPercentage(ctx, companyID, asOf)
	if err != nil {
		return taxdomain.Result{}, err
	}
	if percentage <= 0 {
		return taxdomain.Result{}, nil
	}
	rate := percentage / 100
	if netAmount <= 0 {
		return taxdomain.Result{TaxRate: rate}, nil
	}
	return taxdomain.Result{
		TaxAmount: float64(netAmount) * rate,
		TaxRate:   rate,
	}, nil
}

func (p *provider) GetCompanyTaxRate(ctx context.Context, region string, asOf time.Time) (float64, error) {
	region = strings.TrimSpace(region)
	if region == "" {
		p.log.Debug("no tax region, rate is zero")
		return 0, nil
	}
	percentage, err := p.repo.SumRegionPercentage(ctx, region, asOf)
	if err != nil {
		return 0, err
	}
	return percentage / 100, nil
}
