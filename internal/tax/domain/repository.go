package domain

import (
	"context"
	"time"

	"github.com/bwmarrin/snowflake"
)

type Repository interface {
	// SumRegionPercentage totals the percentages of rates for region valid at asOf.
	SumRegionPercentage(ctx context.Context, region string, asOf time.Time) (float64, error)
	// SumCompanyPercentage totals the percentages of the company's rates valid at asOf.
	SumCompanyPercentage(ctx context.Context, companyID snowflake.ID, asOf time.Time) (float64, error)
}
