package server

import (
	"net/http"

	"github.com/gin-gonic/gin"
	clientbillingdomain "github.com/smallbiznis/billingengine/internal/clientbilling/domain"
	"github.com/smallbiznis/billingengine/pkg/db/pagination"
)

func (s *Server) GetClientBillingPlan(c *gin.Context) {
	plan, err := s.clientBillingSvc.GetActivePlan(c.Request.Context(), idParam(c, "company_id"))
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": plan})
}

func (s *Server) ListClientInvoices(c *gin.Context) {
	var query struct {
		pagination.Pagination
	}
	if err := c.ShouldBindQuery(&query); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}
	if !query.Valid() {
		AbortWithError(c, newValidationError("page_size", "invalid_page_size", "page_size must be between 1 and 250"))
		return
	}

	resp, err := s.clientBillingSvc.ListInvoices(c.Request.Context(), clientbillingdomain.ListInvoicesRequest{
		CompanyID: idParam(c, "company_id"),
		PageToken: query.PageToken,
		PageSize:  int32(query.PageSize),
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"data":      resp.Invoices,
		"page_info": resp.PageInfo,
	})
}

func (s *Server) GetClientCurrentUsage(c *gin.Context) {
	usage, err := s.clientBillingSvc.GetCurrentUsage(c.Request.Context(), idParam(c, "company_id"))
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": usage})
}
