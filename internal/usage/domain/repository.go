package domain

import (
	"context"
	"time"

	"github.com/bwmarrin/snowflake"
	"gorm.io/gorm"
)

type Repository interface {
	// ListBillable returns uninvoiced usage in [start, end) for services of
	// planID whose category matches category (nil matches uncategorized).
	ListBillable(ctx context.Context, db *gorm.DB, companyID, planID snowflake.ID, category *snowflake.ID, start, end time.Time) ([]BillableUsage, error)
	FindBucketPlan(ctx context.Context, db *gorm.DB, planID snowflake.ID) (*BucketPlan, error)
	// FindBucketUsage returns the usage row whose period_start lies in [start, end].
	FindBucketUsage(ctx context.Context, db *gorm.DB, bucketPlanID, companyID snowflake.ID, start, end time.Time) (*BucketUsage, error)
	ListCurrentBucketUsage(ctx context.Context, db *gorm.DB, companyID snowflake.ID, at time.Time) ([]CurrentBucketUsage, error)
}
