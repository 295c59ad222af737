package logger

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func TestWithContextAddsCorrelationFields(t *testing.T) {
	core, logs := observer.New(zapcore.DebugLevel)
	base := zap.New(core)

	ctx := WithRequestID(context.Background(), " req-1 ")
	ctx = WithCompanyID(ctx, "42")

	WithContext(ctx, base).Info("calculated")

	require.Equal(t, 1, logs.Len())
	fields := logs.All()[0].ContextMap()
	assert.Equal(t, "req-1", fields["request_id"])
	assert.Equal(t, "42", fields["company_id"])
}

func TestWithContextWithoutFieldsReturnsBase(t *testing.T) {
	base := zap.NewNop()
	assert.Same(t, base, WithContext(context.Background(), base))
	assert.Empty(t, RequestIDFromContext(context.Background()))
}

func TestGinMiddlewarePropagatesRequestID(t *testing.T) {
	gin.SetMode(gin.TestMode)

	core, logs := observer.New(zapcore.DebugLevel)
	restore := zap.ReplaceGlobals(zap.New(core))
	defer restore()

	var seenRequestID, seenCompanyID string
	router := gin.New()
	router.Use(GinMiddleware(MiddlewareConfig{}))
	router.GET("/companies/:company_id/billing/plan", func(c *gin.Context) {
		seenRequestID = RequestIDFromContext(c.Request.Context())
		seenCompanyID = CompanyIDFromContext(c.Request.Context())
		c.Status(http.StatusNoContent)
	})

	req := httptest.NewRequest(http.MethodGet, "/companies/7/billing/plan", nil)
	req.Header.Set("X-Request-Id", "abc")
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, req)

	assert.Equal(t, "abc", resp.Header().Get("X-Request-Id"))
	assert.Equal(t, "abc", seenRequestID)
	assert.Equal(t, "7", seenCompanyID)
	require.GreaterOrEqual(t, logs.Len(), 1)
}

func TestNewRejectsUnknownLevel(t *testing.T) {
	_, err := New(nil, Config{Level: "loud"})
	assert.Error(t, err)
}

func TestRequestLevel(t *testing.T) {
	assert.Equal(t, zapcore.DebugLevel, requestLevel("/health", http.StatusInternalServerError))
	assert.Equal(t, zapcore.ErrorLevel, requestLevel("/api/billing/calculate", http.StatusInternalServerError))
	assert.Equal(t, zapcore.WarnLevel, requestLevel("/api/invoices/:invoice_id/recalculate", http.StatusConflict))
	assert.Equal(t, zapcore.InfoLevel, requestLevel("unknown", http.StatusNotFound))
}

func TestGinMiddlewareClassifiesErrors(t *testing.T) {
	gin.SetMode(gin.TestMode)

	core, logs := observer.New(zapcore.DebugLevel)
	restore := zap.ReplaceGlobals(zap.New(core))
	defer restore()

	router := gin.New()
	router.Use(GinMiddleware(MiddlewareConfig{
		ErrorClassifier: func(error) (string, string) { return "conflict", "recalculation_in_progress" },
	}))
	router.POST("/invoices/:invoice_id/recalculate", func(c *gin.Context) {
		_ = c.Error(assert.AnError)
		c.Status(http.StatusConflict)
	})

	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, httptest.NewRequest(http.MethodPost, "/invoices/9/recalculate", nil))

	assert.NotEmpty(t, resp.Header().Get("X-Request-Id"))
	entries := logs.FilterMessage("http_request").All()
	require.Len(t, entries, 1)
	assert.Equal(t, zapcore.WarnLevel, entries[0].Level)
	fields := entries[0].ContextMap()
	assert.Equal(t, "9", fields["invoice_id"])
	assert.Equal(t, "recalculation_in_progress", fields["error_code"])
}
