package domain

import (
	"time"

	"github.com/bwmarrin/snowflake"
)

// TaxRate is a regional rate valid over [StartDate, EndDate).
// TaxPercentage is stored as a percentage, e.g. 8.25.
type TaxRate struct {
	ID            snowflake.ID `gorm:"primaryKey"`
	Region        string       `gorm:"type:text;not null;index"`
	TaxPercentage float64      `gorm:"not null"`
	Description   *string      `gorm:"type:text"`
	StartDate     time.Time    `gorm:"not null"`
	EndDate       *time.Time   `gorm:""`
	CreatedAt     time.Time    `gorm:"not null;default:CURRENT_TIMESTAMP"`
}

func (TaxRate) TableName() string { return "tax_rates" }

func (t *TaxRate) Validate() error {
	if t.Region == "" {
		return ErrInvalidRegion
	}
	if t.TaxPercentage < 0 {
		return ErrInvalidTaxRate
	}
	if t.EndDate != nil && !t.EndDate.After(t.StartDate) {
		return ErrInvalidTaxRate
	}
	return nil
}

// CompanyTaxRate links a company to a rate it is charged.
type CompanyTaxRate struct {
	ID        snowflake.ID `gorm:"primaryKey"`
	CompanyID snowflake.ID `gorm:"not null;uniqueIndex:ux_company_tax_rates,priority:1"`
	TaxRateID snowflake.ID `gorm:"not null;uniqueIndex:ux_company_tax_rates,priority:2"`
	CreatedAt time.Time    `gorm:"not null;default:CURRENT_TIMESTAMP"`
}

func (CompanyTaxRate) TableName() string { return "company_tax_rates" }

// Result is the tax owed on a net amount. TaxRate is a fraction (0.0825).
// TaxAmount is unrounded; callers round to minor units.
type Result struct {
	TaxAmount float64
	TaxRate   float64
}
