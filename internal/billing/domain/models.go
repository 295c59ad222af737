package domain

import (
	"time"

	"github.com/bwmarrin/snowflake"
	billingcycledomain "github.com/smallbiznis/billingengine/internal/billingcycle/domain"
	discountdomain "github.com/smallbiznis/billingengine/internal/discount/domain"
	ratingdomain "github.com/smallbiznis/billingengine/internal/rating/domain"
)

// Request identifies the company, window and cycle instance to bill.
type Request struct {
	CompanyID      snowflake.ID
	BillingCycleID snowflake.ID
	Start          time.Time
	End            time.Time
}

func (r Request) Period() billingcycledomain.Period {
	return billingcycledomain.Period{Start: r.Start.UTC(), End: r.End.UTC()}
}

// Result is computed fresh per request. TotalAmount is the sum of charge
// totals in minor units; FinalAmount subtracts discounts and adds adjustments.
type Result struct {
	Charges         []ratingdomain.Charge            `json:"charges"`
	TotalAmount     int64                            `json:"totalAmount"`
	Discounts       []discountdomain.AppliedDiscount `json:"discounts"`
	Adjustments     []discountdomain.Adjustment      `json:"adjustments"`
	FinalAmount     float64                          `json:"finalAmount"`
	AlreadyInvoiced bool                             `json:"alreadyInvoiced"`
}

// AlreadyInvoicedResult is returned when the cycle already produced an invoice.
func AlreadyInvoicedResult() Result {
	return Result{
		Charges:         []ratingdomain.Charge{},
		Discounts:       []discountdomain.AppliedDiscount{},
		Adjustments:     []discountdomain.Adjustment{},
		AlreadyInvoiced: true,
	}
}
