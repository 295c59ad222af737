package domain

import (
	"time"

	"github.com/bwmarrin/snowflake"
)

type DiscountType string

const (
	DiscountTypePercentage DiscountType = "percentage"
	DiscountTypeFixed      DiscountType = "fixed"
)

// Discount reduces a billing total while active. A percentage Value is a
// fraction of the total (0.1 is ten percent); a fixed Value is in minor units.
type Discount struct {
	ID           snowflake.ID `gorm:"primaryKey" json:"discount_id"`
	DiscountName string       `gorm:"type:text;not null" json:"discount_name"`
	Description  *string      `gorm:"type:text" json:"description,omitempty"`
	DiscountType DiscountType `gorm:"type:text;not null" json:"discount_type"`
	Value        float64      `gorm:"not null" json:"value"`
	StartDate    time.Time    `gorm:"not null" json:"start_date"`
	EndDate      *time.Time   `gorm:"" json:"end_date,omitempty"`
	IsActive     bool         `gorm:"not null;default:true" json:"is_active"`
	CreatedAt    time.Time    `gorm:"not null;default:CURRENT_TIMESTAMP" json:"-"`
}

func (Discount) TableName() string { return "discounts" }

// PlanDiscount offers a discount to a company on one of its plans.
type PlanDiscount struct {
	ID         snowflake.ID `gorm:"primaryKey"`
	PlanID     snowflake.ID `gorm:"not null;index"`
	CompanyID  snowflake.ID `gorm:"not null;index"`
	DiscountID snowflake.ID `gorm:"not null;index"`
	CreatedAt  time.Time    `gorm:"not null;default:CURRENT_TIMESTAMP"`
}

func (PlanDiscount) TableName() string { return "plan_discounts" }

// AppliedDiscount is a discount with the amount it took off the total.
// Amount is not rounded.
type AppliedDiscount struct {
	Discount
	Amount float64 `json:"amount"`
}

// Adjustment is a manual correction to a billing total.
type Adjustment struct {
	Description string  `json:"description"`
	Amount      float64 `json:"amount"`
}

// Applied is the outcome of applying discounts and adjustments to a total.
type Applied struct {
	Discounts   []AppliedDiscount
	Adjustments []Adjustment
	FinalAmount float64
}
