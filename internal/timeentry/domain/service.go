package domain

import (
	"context"
	"errors"
	"time"

	"github.com/bwmarrin/snowflake"
)

type Service interface {
	// Rollover moves unapproved entries ending by currentPeriodEnd to start at
	// nextPeriodStart, keeping each entry's duration. It returns the number moved.
	Rollover(ctx context.Context, companyID snowflake.ID, currentPeriodEnd, nextPeriodStart time.Time) (int64, error)
}

var ErrInvalidRolloverWindow = errors.New("invalid_rollover_window")
