package domain

import (
	"context"
	"time"

	"github.com/bwmarrin/snowflake"
	"gorm.io/gorm"
)

type Repository interface {
	// ListOverlapping returns active assignments overlapping [start, end],
	// newest start first.
	ListOverlapping(ctx context.Context, db *gorm.DB, companyID snowflake.ID, start, end time.Time) ([]CompanyBillingPlan, error)
	ListActiveAt(ctx context.Context, db *gorm.DB, companyID snowflake.ID, at time.Time) ([]CompanyBillingPlan, error)
	// ListFixedServices returns Fixed services of a Fixed plan for one assignment.
	ListFixedServices(ctx context.Context, db *gorm.DB, companyID, companyBillingPlanID snowflake.ID) ([]PlanServiceRate, error)
	ListPlanServices(ctx context.Context, db *gorm.DB, planIDs []snowflake.ID) ([]PlanServiceRate, error)
	FindService(ctx context.Context, db *gorm.DB, serviceID snowflake.ID) (*ServiceCatalog, error)
}
