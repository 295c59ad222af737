package domain

import (
	"time"

	"github.com/bwmarrin/snowflake"
)

// PlanType classifies how a billing plan charges.
type PlanType string

const (
	PlanTypeFixed     PlanType = "Fixed"
	PlanTypeBucket    PlanType = "Bucket"
	PlanTypeTimeBased PlanType = "Hourly"
	PlanTypeUsage     PlanType = "Usage"
)

// ServiceType classifies a catalog entry.
type ServiceType string

const (
	ServiceTypeFixed ServiceType = "Fixed"
	ServiceTypeTime  ServiceType = "Time"
	ServiceTypeUsage ServiceType = "Usage"
)

// BillingFrequency is the display cadence of a plan.
type BillingFrequency string

const (
	BillingFrequencyMonthly   BillingFrequency = "monthly"
	BillingFrequencyQuarterly BillingFrequency = "quarterly"
	BillingFrequencyAnnually  BillingFrequency = "annually"
)

var planTypeDisplay = map[PlanType]string{
	PlanTypeFixed:     "Fixed",
	PlanTypeBucket:    "Bucket",
	PlanTypeTimeBased: "Time Based",
	PlanTypeUsage:     "Usage Based",
}

var billingFrequencyDisplay = map[BillingFrequency]string{
	BillingFrequencyMonthly:   "Monthly",
	BillingFrequencyQuarterly: "Quarterly",
	BillingFrequencyAnnually:  "Annually",
}

// DisplayName returns the human label for the plan type.
func (t PlanType) DisplayName() string {
	if label, ok := planTypeDisplay[t]; ok {
		return label
	}
	return string(t)
}

// DisplayName returns the human label for the frequency.
func (f BillingFrequency) DisplayName() string {
	if label, ok := billingFrequencyDisplay[f]; ok {
		return label
	}
	return string(f)
}

// BillingPlan is a catalog plan that companies are assigned to.
type BillingPlan struct {
	ID               snowflake.ID     `gorm:"primaryKey"`
	PlanName         string           `gorm:"type:text;not null"`
	PlanType         PlanType         `gorm:"type:text;not null"`
	BillingFrequency BillingFrequency `gorm:"type:text;not null"`
	IsCustom         bool             `gorm:"not null;default:false"`
	CreatedAt        time.Time        `gorm:"not null;default:CURRENT_TIMESTAMP"`
}

// TableName sets the database table name.
func (BillingPlan) TableName() string { return "billing_plans" }

// ServiceCatalog is a billable service with its list rate in minor units.
type ServiceCatalog struct {
	ID            snowflake.ID  `gorm:"primaryKey"`
	ServiceName   string        `gorm:"type:text;not null"`
	ServiceType   ServiceType   `gorm:"type:text;not null"`
	CategoryID    *snowflake.ID `gorm:"index"`
	DefaultRate   float64       `gorm:"not null;default:0"`
	UnitOfMeasure string        `gorm:"type:text"`
	IsTaxable     *bool         `gorm:""`
	TaxRegion     *string       `gorm:"type:text"`
	TaxRate       *float64      `gorm:""`
	CreatedAt     time.Time     `gorm:"not null;default:CURRENT_TIMESTAMP"`
}

// TableName sets the database table name.
func (ServiceCatalog) TableName() string { return "service_catalog" }

// Taxable reports whether the service may be taxed. A missing flag means taxable.
func (s *ServiceCatalog) Taxable() bool {
	if s == nil || s.IsTaxable == nil {
		return true
	}
	return *s.IsTaxable
}

// PlanService attaches a catalog service to a plan with an optional rate override.
type PlanService struct {
	PlanID     snowflake.ID `gorm:"primaryKey"`
	ServiceID  snowflake.ID `gorm:"primaryKey"`
	Quantity   float64      `gorm:"not null;default:1"`
	CustomRate *float64     `gorm:""`
}

// TableName sets the database table name.
func (PlanService) TableName() string { return "plan_services" }

// CompanyBillingPlan assigns a plan to a company for a date range.
type CompanyBillingPlan struct {
	ID              snowflake.ID  `gorm:"primaryKey"`
	CompanyID       snowflake.ID  `gorm:"not null;index"`
	PlanID          snowflake.ID  `gorm:"not null;index"`
	ServiceCategory *snowflake.ID `gorm:""`
	StartDate       time.Time     `gorm:"not null"`
	EndDate         *time.Time    `gorm:""`
	IsActive        bool          `gorm:"not null;default:true"`
	CreatedAt       time.Time     `gorm:"not null;default:CURRENT_TIMESTAMP"`

	PlanName         string           `gorm:"->;-:migration"`
	PlanType         PlanType         `gorm:"->;-:migration"`
	BillingFrequency BillingFrequency `gorm:"->;-:migration"`
}

// TableName sets the database table name.
func (CompanyBillingPlan) TableName() string { return "company_billing_plans" }

// PlanServiceRate is a catalog service as priced within one plan.
type PlanServiceRate struct {
	ServiceID   snowflake.ID
	ServiceName string
	ServiceType ServiceType
	DefaultRate float64
	CustomRate  *float64
	Quantity    float64
	IsTaxable   *bool
	TaxRegion   *string
	TaxRate     *float64
}

// Rate returns the plan override when present, else the list rate.
func (r PlanServiceRate) Rate() float64 {
	return EffectiveRate(r.CustomRate, r.DefaultRate)
}

// Taxable reports whether the service may be taxed.
func (r PlanServiceRate) Taxable() bool {
	return r.IsTaxable == nil || *r.IsTaxable
}

// EffectiveRate prefers a present custom rate over the default rate.
func EffectiveRate(custom *float64, def float64) float64 {
	if custom != nil {
		return *custom
	}
	return def
}
