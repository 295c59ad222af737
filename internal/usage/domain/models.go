package domain

import (
	"time"

	"github.com/bwmarrin/snowflake"
)

// UsageRecord is one metered quantity of a service consumed by a company.
type UsageRecord struct {
	ID        snowflake.ID `gorm:"primaryKey"`
	CompanyID snowflake.ID `gorm:"not null;index"`
	ServiceID snowflake.ID `gorm:"not null;index"`
	UsageDate time.Time    `gorm:"not null;index"`
	Quantity  float64      `gorm:"not null"`
	Invoiced  bool         `gorm:"not null;default:false"`
	CreatedAt time.Time    `gorm:"not null;default:CURRENT_TIMESTAMP"`
}

// TableName sets the database table name.
func (UsageRecord) TableName() string { return "usage_tracking" }

// BucketPlan grants a pool of prepaid hours for a plan; hours beyond the pool
// are billed at OverageRate.
type BucketPlan struct {
	ID            snowflake.ID `gorm:"primaryKey"`
	PlanID        snowflake.ID `gorm:"not null;index"`
	TotalHours    float64      `gorm:"not null"`
	OverageRate   float64      `gorm:"not null"`
	AllowRollover bool         `gorm:"not null;default:false"`
	CreatedAt     time.Time    `gorm:"not null;default:CURRENT_TIMESTAMP"`
}

// TableName sets the database table name.
func (BucketPlan) TableName() string { return "bucket_plans" }

// BucketUsage tracks hours consumed against a bucket for one period.
type BucketUsage struct {
	ID               snowflake.ID `gorm:"primaryKey"`
	BucketPlanID     snowflake.ID `gorm:"not null;index"`
	CompanyID        snowflake.ID `gorm:"not null;index"`
	PeriodStart      time.Time    `gorm:"not null"`
	PeriodEnd        time.Time    `gorm:"not null"`
	HoursUsed        float64      `gorm:"not null;default:0"`
	OverageHours     float64      `gorm:"not null;default:0"`
	RolledOverHours  float64      `gorm:"not null;default:0"`
	ServiceCatalogID snowflake.ID `gorm:"not null"`
	CreatedAt        time.Time    `gorm:"not null;default:CURRENT_TIMESTAMP"`
}

// TableName sets the database table name.
func (BucketUsage) TableName() string { return "bucket_usage" }

// BillableUsage is an uninvoiced usage record priced under a plan.
type BillableUsage struct {
	ID          snowflake.ID
	ServiceID   snowflake.ID
	ServiceName string
	Quantity    float64
	DefaultRate float64
	CustomRate  *float64
	TaxRegion   *string
	UsageDate   time.Time
}

// CurrentBucketUsage is a bucket usage row with its plan and service context.
type CurrentBucketUsage struct {
	BucketUsage
	PlanID      snowflake.ID
	PlanName    string
	TotalHours  float64
	OverageRate float64
	ServiceName *string
}
