package server

import (
	"net/http"
	"strings"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/gin-gonic/gin"
	billingdomain "github.com/smallbiznis/billingengine/internal/billing/domain"
)

type calculateBillingRequest struct {
	CompanyID      string    `json:"company_id"`
	BillingCycleID string    `json:"billing_cycle_id"`
	StartDate      time.Time `json:"start_date"`
	EndDate        time.Time `json:"end_date"`
}

func (s *Server) CalculateBilling(c *gin.Context) {
	var req calculateBillingRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	companyID, err := snowflake.ParseString(strings.TrimSpace(req.CompanyID))
	if err != nil || companyID == 0 {
		AbortWithError(c, newValidationError("company_id", "invalid_company_id", "invalid company id"))
		return
	}
	cycleID, err := snowflake.ParseString(strings.TrimSpace(req.BillingCycleID))
	if err != nil || cycleID == 0 {
		AbortWithError(c, newValidationError("billing_cycle_id", "invalid_billing_cycle_id", "invalid billing cycle id"))
		return
	}
	if req.StartDate.IsZero() || req.EndDate.IsZero() {
		AbortWithError(c, newValidationError("period", "required", "start_date and end_date are required"))
		return
	}

	result, err := s.billingSvc.CalculateBilling(c.Request.Context(), billingdomain.Request{
		CompanyID:      companyID,
		BillingCycleID: cycleID,
		Start:          req.StartDate,
		End:            req.EndDate,
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": result})
}
