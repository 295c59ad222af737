package domain

import (
	"time"

	"github.com/bwmarrin/snowflake"
)

// CompanyBillingCycle records the cadence a company is billed on from
// EffectiveDate onwards. A later row is a cycle change.
type CompanyBillingCycle struct {
	ID            snowflake.ID `gorm:"primaryKey"`
	CompanyID     snowflake.ID `gorm:"not null;index;uniqueIndex:ux_company_billing_cycles_effective,priority:1"`
	BillingCycle  string       `gorm:"type:text;not null"`
	EffectiveDate time.Time    `gorm:"not null;uniqueIndex:ux_company_billing_cycles_effective,priority:2"`
	CreatedAt     time.Time    `gorm:"not null;default:CURRENT_TIMESTAMP"`
}

// TableName sets the database table name.
func (CompanyBillingCycle) TableName() string { return "company_billing_cycles" }

// Period is a half-open billing window [Start, End).
type Period struct {
	Start time.Time
	End   time.Time
}

// Validate rejects empty and inverted windows.
func (p Period) Validate() error {
	if p.Start.IsZero() || p.End.IsZero() || !p.End.After(p.Start) {
		return ErrInvalidPeriod
	}
	return nil
}
