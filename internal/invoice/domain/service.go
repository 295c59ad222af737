package domain

import (
	"context"

	"github.com/bwmarrin/snowflake"
)

type Service interface {
	// Recalculate rewrites tax and totals of an invoice from its items in a
	// single transaction and appends an invoice_adjustment ledger record.
	Recalculate(ctx context.Context, invoiceID snowflake.ID) (Totals, error)
	ExistsForCycle(ctx context.Context, companyID, billingCycleID snowflake.ID) (bool, error)
}
