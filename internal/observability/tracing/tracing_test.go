package tracing

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

func TestSafeAttributesDropsUnknownKeys(t *testing.T) {
	attrs := SafeAttributes(
		attribute.String("billing.company_id", "42"),
		attribute.String("customer_email", "a@b.c"),
		attribute.Int("http.status_code", 200),
	)
	require.Len(t, attrs, 2)
	assert.Equal(t, attribute.Key("billing.company_id"), attrs[0].Key)
	assert.Equal(t, attribute.Key("http.status_code"), attrs[1].Key)
}

func TestSafeError(t *testing.T) {
	assert.Nil(t, SafeError(nil))
	assert.ErrorIs(t, SafeError(context.Canceled), context.Canceled)
	assert.ErrorIs(t, SafeError(gorm.ErrRecordNotFound), gorm.ErrRecordNotFound)
	assert.Equal(t, errDatabase, SafeError(errors.New("pq: sql syntax near 'secret'")))

	plain := errors.New("plan_not_found")
	assert.Equal(t, plain, SafeError(plain))
}

func TestNewProviderDisabledNeverSamples(t *testing.T) {
	provider, err := NewProvider(nil, Config{Enabled: false}, zap.NewNop())
	require.NoError(t, err)
	t.Cleanup(func() { _ = provider.Shutdown(context.Background()) })

	_, span := Start(context.Background(), "billing.calculate")
	assert.False(t, span.SpanContext().IsSampled())
	End(span, errors.New("boom"))
}

func TestGinMiddlewareRecordsRouteAttributes(t *testing.T) {
	gin.SetMode(gin.TestMode)
	recorder := tracetest.NewSpanRecorder()
	provider := sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(recorder))
	previous := otel.GetTracerProvider()
	otel.SetTracerProvider(provider)
	t.Cleanup(func() { otel.SetTracerProvider(previous) })

	router := gin.New()
	router.Use(GinMiddleware())
	router.GET("/api/invoices/:invoice_id/transactions", func(c *gin.Context) { c.Status(http.StatusOK) })
	router.GET("/health", func(c *gin.Context) { c.Status(http.StatusOK) })

	for _, path := range []string{"/api/invoices/77/transactions", "/health"} {
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, path, nil))
		require.Equal(t, http.StatusOK, rec.Code)
	}

	spans := recorder.Ended()
	require.Len(t, spans, 1)
	assert.Equal(t, "HTTP GET /api/invoices/:invoice_id/transactions", spans[0].Name())

	found := false
	for _, attr := range spans[0].Attributes() {
		if attr.Key == "billing.invoice_id" {
			found = true
			assert.Equal(t, "77", attr.Value.AsString())
		}
	}
	assert.True(t, found)
}
