package domain

import (
	"context"
	"errors"
	"time"

	"github.com/bwmarrin/snowflake"
)

type Service interface {
	// Resolve returns the cycle type in force for the company at date,
	// creating the default cycle when the company has none.
	Resolve(ctx context.Context, companyID snowflake.ID, date time.Time) (string, error)
	// ValidatePeriod rejects a period that straddles a cycle change.
	ValidatePeriod(ctx context.Context, companyID snowflake.ID, period Period) error
}

var (
	ErrInvalidPeriod          = errors.New("invalid_period")
	ErrPeriodSpansCycleChange = errors.New("period_spans_cycle_change")
)
