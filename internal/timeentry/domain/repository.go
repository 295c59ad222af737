package domain

import (
	"context"
	"time"

	"github.com/bwmarrin/snowflake"
	"gorm.io/gorm"
)

type Repository interface {
	// ListBillable returns approved, uninvoiced entries of the company with
	// start >= start and end < end, for services of planID in category.
	ListBillable(ctx context.Context, db *gorm.DB, companyID, planID snowflake.ID, category *snowflake.ID, start, end time.Time) ([]BillableTimeEntry, error)
	// ListUnapproved returns unapproved entries of the company ending at or before end.
	ListUnapproved(ctx context.Context, db *gorm.DB, companyID snowflake.ID, end time.Time) ([]TimeEntry, error)
	UpdateWindow(ctx context.Context, db *gorm.DB, id snowflake.ID, start, end time.Time, updatedAt time.Time) error
}
