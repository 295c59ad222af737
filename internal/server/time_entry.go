package server

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
)

type rolloverRequest struct {
	CurrentPeriodEnd time.Time `json:"current_period_end"`
	NextPeriodStart  time.Time `json:"next_period_start"`
}

type rolloverResponse struct {
	RolledOver int64 `json:"rolled_over"`
}

func (s *Server) RolloverTimeEntries(c *gin.Context) {
	var req rolloverRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}
	if req.CurrentPeriodEnd.IsZero() || req.NextPeriodStart.IsZero() {
		AbortWithError(c, newValidationError("period", "required", "current_period_end and next_period_start are required"))
		return
	}

	moved, err := s.timeEntrySvc.Rollover(c.Request.Context(), idParam(c, "company_id"), req.CurrentPeriodEnd, req.NextPeriodStart)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": rolloverResponse{RolledOver: moved}})
}
