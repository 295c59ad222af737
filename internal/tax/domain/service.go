package domain

import (
	"context"
	"time"

	"github.com/bwmarrin/snowflake"
)

// Provider resolves tax for the billing engine. Results are authoritative
// and are not cached across requests.
type Provider interface {
	CalculateTax(ctx context.Context, companyID snowflake.ID, netAmount int64, asOf time.Time) (Result, error)
	// GetCompanyTaxRate returns the fractional rate for region at asOf.
	GetCompanyTaxRate(ctx context.Context, region string, asOf time.Time) (float64, error)
}
