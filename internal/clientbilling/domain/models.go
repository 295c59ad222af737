package domain

import (
	"time"

	"github.com/bwmarrin/snowflake"
	invoicedomain "github.com/smallbiznis/billingengine/internal/invoice/domain"
	plandomain "github.com/smallbiznis/billingengine/internal/plan/domain"
	usagedomain "github.com/smallbiznis/billingengine/internal/usage/domain"
	"github.com/smallbiznis/billingengine/pkg/db/pagination"
)

// ActivePlan is the plan a client is currently billed under.
type ActivePlan struct {
	CompanyBillingPlanID snowflake.ID                `json:"company_billing_plan_id"`
	PlanID               snowflake.ID                `json:"plan_id"`
	PlanName             string                      `json:"plan_name"`
	PlanType             plandomain.PlanType         `json:"plan_type"`
	PlanTypeLabel        string                      `json:"plan_type_label"`
	BillingFrequency     plandomain.BillingFrequency `json:"billing_frequency"`
	FrequencyLabel       string                      `json:"billing_frequency_label"`
	StartDate            time.Time                   `json:"start_date"`
	EndDate              *time.Time                  `json:"end_date,omitempty"`
}

// InvoiceSummary is the client-facing row of an invoice listing. CreatedAt
// carries the invoice date.
type InvoiceSummary struct {
	ID            snowflake.ID                `json:"id"`
	InvoiceNumber string                      `json:"invoice_number"`
	CreatedAt     time.Time                   `json:"created_at"`
	TotalAmount   int64                       `json:"total_amount"`
	Status        invoicedomain.InvoiceStatus `json:"status"`
}

type ListInvoicesRequest struct {
	CompanyID snowflake.ID
	PageToken string
	PageSize  int32
}

type ListInvoicesResponse struct {
	pagination.PageInfo
	Invoices []InvoiceSummary `json:"invoices"`
}

// BucketUsage is the bucket consumption of the period covering now.
type BucketUsage struct {
	BucketUsageID   snowflake.ID `json:"bucket_usage_id"`
	PlanID          snowflake.ID `json:"plan_id"`
	PlanName        string       `json:"plan_name"`
	ServiceName     string       `json:"service_name,omitempty"`
	PeriodStart     time.Time    `json:"period_start"`
	PeriodEnd       time.Time    `json:"period_end"`
	TotalHours      float64      `json:"total_hours"`
	HoursUsed       float64      `json:"hours_used"`
	OverageHours    float64      `json:"overage_hours"`
	RolledOverHours float64      `json:"rolled_over_hours"`
	RemainingHours  float64      `json:"remaining_hours"`
}

// PlanService is a catalog service attached to one of the client's active plans.
type PlanService struct {
	ServiceID   snowflake.ID           `json:"service_id"`
	ServiceName string                 `json:"service_name"`
	ServiceType plandomain.ServiceType `json:"service_type"`
	Rate        float64                `json:"rate"`
	Quantity    float64                `json:"quantity"`
}

type CurrentUsage struct {
	BucketUsage *BucketUsage  `json:"bucket_usage"`
	Services    []PlanService `json:"services"`
}

func NewBucketUsage(row usagedomain.CurrentBucketUsage) *BucketUsage {
	remaining := row.TotalHours + row.RolledOverHours - row.HoursUsed
	if remaining < 0 {
		remaining = 0
	}
	name := ""
	if row.ServiceName != nil {
		name = *row.ServiceName
	}
	return &BucketUsage{
		BucketUsageID:   row.ID,
		PlanID:          row.PlanID,
		PlanName:        row.PlanName,
		ServiceName:     name,
		PeriodStart:     row.PeriodStart,
		PeriodEnd:       row.PeriodEnd,
		TotalHours:      row.TotalHours,
		HoursUsed:       row.HoursUsed,
		OverageHours:    row.OverageHours,
		RolledOverHours: row.RolledOverHours,
		RemainingHours:  remaining,
	}
}
