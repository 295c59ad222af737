package domain

import (
	"context"

	"github.com/bwmarrin/snowflake"
	billingcycledomain "github.com/smallbiznis/billingengine/internal/billingcycle/domain"
	plandomain "github.com/smallbiznis/billingengine/internal/plan/domain"
)

// Service computes the charges of one plan assignment for a period. Each
// method is independent of the others and may run concurrently. None prorate.
type Service interface {
	CalculateFixed(ctx context.Context, companyID snowflake.ID, period billingcycledomain.Period, plan plandomain.CompanyBillingPlan) ([]FixedCharge, error)
	CalculateTime(ctx context.Context, companyID snowflake.ID, period billingcycledomain.Period, plan plandomain.CompanyBillingPlan) ([]TimeCharge, error)
	CalculateUsage(ctx context.Context, companyID snowflake.ID, period billingcycledomain.Period, plan plandomain.CompanyBillingPlan) ([]UsageCharge, error)
	CalculateBucket(ctx context.Context, companyID snowflake.ID, period billingcycledomain.Period, plan plandomain.CompanyBillingPlan) ([]BucketCharge, error)
}

const DefaultBucketServiceName = "Bucket Plan Hours"
