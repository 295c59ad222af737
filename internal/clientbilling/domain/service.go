package domain

import (
	"context"
	"errors"

	"github.com/bwmarrin/snowflake"
)

var (
	ErrInvalidCompany   = errors.New("invalid_company")
	ErrInvalidPageToken = errors.New("invalid_page_token")
)

// Service answers the read-only billing queries of the client portal.
type Service interface {
	// GetActivePlan returns nil, nil when the client has no active plan.
	GetActivePlan(ctx context.Context, companyID snowflake.ID) (*ActivePlan, error)
	ListInvoices(ctx context.Context, req ListInvoicesRequest) (ListInvoicesResponse, error)
	GetCurrentUsage(ctx context.Context, companyID snowflake.ID) (CurrentUsage, error)
}
