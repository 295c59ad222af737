package server

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	billingdomain "github.com/smallbiznis/billingengine/internal/billing/domain"
	billingcycledomain "github.com/smallbiznis/billingengine/internal/billingcycle/domain"
	clientbillingdomain "github.com/smallbiznis/billingengine/internal/clientbilling/domain"
	companydomain "github.com/smallbiznis/billingengine/internal/company/domain"
	invoicedomain "github.com/smallbiznis/billingengine/internal/invoice/domain"
	"github.com/smallbiznis/billingengine/internal/lock"
	plandomain "github.com/smallbiznis/billingengine/internal/plan/domain"
	timeentrydomain "github.com/smallbiznis/billingengine/internal/timeentry/domain"
	"gorm.io/gorm"
)

type ValidationError struct {
	Field   string `json:"field"`
	Code    string `json:"code"`
	Message string `json:"message"`
}

type ValidationErrors struct {
	Errors []ValidationError `json:"errors"`
}

func (v ValidationErrors) Error() string {
	return "validation error"
}

type errorPayload struct {
	Type    string            `json:"type"`
	Code    string            `json:"code,omitempty"`
	Message string            `json:"message"`
	Errors  []ValidationError `json:"errors,omitempty"`
}

type errorResponse struct {
	Error errorPayload `json:"error"`
}

var (
	ErrConflict       = errors.New("conflict")
	ErrInternal       = errors.New("internal_error")
	ErrNotFound       = errors.New("not_found")
	ErrInvalidRequest = errors.New("invalid_request")
)

var validationErrors = []error{
	ErrInvalidRequest,
	billingdomain.ErrInvalidRequest,
	billingcycledomain.ErrInvalidPeriod,
	timeentrydomain.ErrInvalidRolloverWindow,
	invoicedomain.ErrInvalidInvoice,
	clientbillingdomain.ErrInvalidCompany,
	clientbillingdomain.ErrInvalidPageToken,
}

var unprocessableErrors = []error{
	plandomain.ErrNoApplicablePlan,
	billingcycledomain.ErrPeriodSpansCycleChange,
}

var notFoundErrors = []error{
	ErrNotFound,
	companydomain.ErrCompanyNotFound,
	invoicedomain.ErrInvoiceNotFound,
	invoicedomain.ErrCompanyNotFound,
	gorm.ErrRecordNotFound,
}

var conflictErrors = []error{
	ErrConflict,
	lock.ErrNotAcquired,
	gorm.ErrDuplicatedKey,
}

func ErrorHandlingMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()

		if c.Writer.Written() {
			return
		}

		lastErr := c.Errors.Last()
		if lastErr == nil {
			return
		}

		status, payload := mapError(lastErr.Err)
		c.Header("Content-Type", "application/json")
		c.AbortWithStatusJSON(status, errorResponse{Error: payload})
	}
}

func AbortWithError(c *gin.Context, err error) {
	if err == nil {
		return
	}
	_ = c.Error(err)
	c.Abort()
}

func invalidRequestError() error {
	return newValidationError("request", "invalid_request", "invalid request")
}

func newValidationError(field, code, message string) error {
	return &ValidationErrors{
		Errors: []ValidationError{
			{
				Field:   field,
				Code:    code,
				Message: message,
			},
		},
	}
}

func mapError(err error) (int, errorPayload) {
	if err == nil {
		return http.StatusInternalServerError, errorPayload{
			Type:    "internal_error",
			Message: "internal server error",
		}
	}

	if vErr := asValidationErrors(err); vErr != nil {
		return http.StatusBadRequest, errorPayload{
			Type:    "validation_error",
			Message: "validation error",
			Errors:  vErr.Errors,
		}
	}

	if code, ok := matchSentinel(err, validationErrors); ok {
		return http.StatusBadRequest, errorPayload{
			Type:    "validation_error",
			Message: "validation error",
			Errors: []ValidationError{
				{
					Field:   validationErrorField(code),
					Code:    code,
					Message: validationErrorMessage(code),
				},
			},
		}
	}

	if code, ok := matchSentinel(err, notFoundErrors); ok {
		return http.StatusNotFound, errorPayload{
			Type:    "not_found",
			Code:    code,
			Message: "not found",
		}
	}

	if code, ok := matchSentinel(err, unprocessableErrors); ok {
		return http.StatusUnprocessableEntity, errorPayload{
			Type:    "unprocessable_entity",
			Code:    code,
			Message: unprocessableMessage(code),
		}
	}

	if code, ok := matchSentinel(err, conflictErrors); ok {
		return http.StatusConflict, errorPayload{
			Type:    "conflict",
			Code:    code,
			Message: "conflict",
		}
	}

	return http.StatusInternalServerError, errorPayload{
		Type:    "internal_error",
		Message: "internal server error",
	}
}

// classifyErrorForLog feeds the request logger with the mapped type and code.
func classifyErrorForLog(err error) (string, string) {
	_, payload := mapError(err)
	if payload.Code != "" {
		return payload.Type, payload.Code
	}
	if len(payload.Errors) > 0 {
		return payload.Type, payload.Errors[0].Code
	}
	return payload.Type, ""
}

func matchSentinel(err error, sentinels []error) (string, bool) {
	for _, sentinel := range sentinels {
		if errors.Is(err, sentinel) {
			return sentinel.Error(), true
		}
	}
	return "", false
}

func asValidationErrors(err error) *ValidationErrors {
	var vErr *ValidationErrors
	if errors.As(err, &vErr) && vErr != nil {
		return vErr
	}
	return nil
}

func validationErrorField(code string) string {
	switch code {
	case billingcycledomain.ErrInvalidPeriod.Error(),
		timeentrydomain.ErrInvalidRolloverWindow.Error():
		return "period"
	case clientbillingdomain.ErrInvalidPageToken.Error():
		return "page_token"
	}
	if strings.HasPrefix(code, "invalid_") {
		return strings.TrimPrefix(code, "invalid_")
	}
	return ""
}

func validationErrorMessage(code string) string {
	switch code {
	case "invalid_request", billingdomain.ErrInvalidRequest.Error():
		return "invalid request"
	case billingcycledomain.ErrInvalidPeriod.Error():
		return "period end must be after start"
	default:
		return "invalid value"
	}
}

func unprocessableMessage(code string) string {
	switch code {
	case plandomain.ErrNoApplicablePlan.Error():
		return "no billing plan applies to the period"
	case billingcycledomain.ErrPeriodSpansCycleChange.Error():
		return "period spans a billing cycle change"
	default:
		return "unprocessable entity"
	}
}
