package server

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

func (s *Server) RecalculateInvoice(c *gin.Context) {
	totals, err := s.invoiceSvc.Recalculate(c.Request.Context(), idParam(c, "invoice_id"))
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": totals})
}

func (s *Server) ListInvoiceTransactions(c *gin.Context) {
	items, err := s.ledgerSvc.ListForInvoice(c.Request.Context(), idParam(c, "invoice_id"))
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": items})
}
