package domain

import (
	"context"
	"time"

	"github.com/bwmarrin/snowflake"
	"gorm.io/gorm"
)

type Repository interface {
	// ListActive returns active discounts offered on the company's plans that
	// start on or before end and have not ended by start.
	ListActive(ctx context.Context, db *gorm.DB, companyID snowflake.ID, start, end time.Time) ([]Discount, error)
}
