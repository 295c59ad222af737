package domain

import (
	"context"

	"github.com/bwmarrin/snowflake"
	billingcycledomain "github.com/smallbiznis/billingengine/internal/billingcycle/domain"
)

type Service interface {
	// Apply reduces totalAmount by every discount active in period.
	// FinalAmount is totalAmount minus the discount amounts plus adjustments.
	Apply(ctx context.Context, companyID snowflake.ID, period billingcycledomain.Period, totalAmount int64) (Applied, error)
}
