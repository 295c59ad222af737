package domain

import (
	"context"
	"errors"

	billingcycledomain "github.com/smallbiznis/billingengine/internal/billingcycle/domain"
	companydomain "github.com/smallbiznis/billingengine/internal/company/domain"
)

type Service interface {
	// CalculateBilling computes every charge owed for the request. A cycle
	// that already has an invoice yields AlreadyInvoicedResult, not an error.
	CalculateBilling(ctx context.Context, req Request) (Result, error)
}

var (
	ErrInvalidRequest  = errors.New("invalid_billing_request")
	ErrInvalidPeriod   = billingcycledomain.ErrInvalidPeriod
	ErrCompanyNotFound = companydomain.ErrCompanyNotFound
)
