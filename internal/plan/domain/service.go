package domain

import (
	"context"
	"errors"
	"time"

	"github.com/bwmarrin/snowflake"
)

type Service interface {
	// ListForPeriod loads the assignments billable in [start, end]. It fails
	// with ErrNoApplicablePlan when there are none.
	ListForPeriod(ctx context.Context, companyID snowflake.ID, start, end time.Time) ([]CompanyBillingPlan, error)
}

var ErrNoApplicablePlan = errors.New("no_applicable_plan")
