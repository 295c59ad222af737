package domain

import (
	"errors"
	"time"

	"github.com/bwmarrin/snowflake"
)

var ErrCompanyNotFound = errors.New("company_not_found")

// Company is the billed customer. TaxRegion is the fallback region for
// services that do not carry their own.
type Company struct {
	ID          snowflake.ID `gorm:"primaryKey"`
	CompanyName string       `gorm:"type:text;not null"`
	TaxRegion   *string      `gorm:"type:text"`
	IsTaxExempt bool         `gorm:"not null;default:false"`
	CreatedAt   time.Time    `gorm:"not null;default:CURRENT_TIMESTAMP"`
	UpdatedAt   time.Time    `gorm:"not null;default:CURRENT_TIMESTAMP"`
}

// TableName sets the database table name.
func (Company) TableName() string { return "companies" }

// Region returns the company tax region or "".
func (c *Company) Region() string {
	if c == nil || c.TaxRegion == nil {
		return ""
	}
	return *c.TaxRegion
}
