package metrics

import (
	"context"
	"errors"
	"strings"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/smallbiznis/billingengine/pkg/db"
	"gorm.io/gorm"
)

const (
	ResultSuccess         = "success"
	ResultAlreadyInvoiced = "already_invoiced"
	ResultRejected        = "rejected"
	ResultError           = "error"
)

const (
	ErrorReasonDeadlineExceeded     = "deadline_exceeded"
	ErrorReasonDBLockTimeout        = "db_lock_timeout"
	ErrorReasonSerializationFailure = "serialization_failure"
	ErrorReasonUniqueViolation      = "unique_violation"
	ErrorReasonNotFound             = "not_found"
	ErrorReasonUnknown              = "unknown"
)

// BillingMetrics captures billing engine health signals scraped by Prometheus.
type BillingMetrics struct {
	calculations        *prometheus.CounterVec
	calculationDuration prometheus.Observer
	charges             *prometheus.CounterVec
	recalculations      *prometheus.CounterVec
	recalcErrors        *prometheus.CounterVec
	rolledOver          prometheus.Counter
	resultCounters      map[string]prometheus.Counter
}

var (
	billingMetricsOnce sync.Once
	billingMetrics     *BillingMetrics
)

// Billing returns the singleton billing metrics registry.
func Billing() *BillingMetrics {
	return BillingWithConfig(Config{})
}

// BillingWithConfig returns the singleton billing metrics registry using config labels.
func BillingWithConfig(cfg Config) *BillingMetrics {
	billingMetricsOnce.Do(func() {
		billingMetrics = newBillingMetrics(prometheus.DefaultRegisterer, cfg)
	})
	return billingMetrics
}

// NewBillingMetricsForRegistry builds an unshared registry-scoped instance.
func NewBillingMetricsForRegistry(registerer prometheus.Registerer) *BillingMetrics {
	return newBillingMetrics(registerer, Config{ServiceName: "billingengine", Environment: "test"})
}

func newBillingMetrics(registerer prometheus.Registerer, cfg Config) *BillingMetrics {
	if registerer == nil {
		registerer = prometheus.DefaultRegisterer
	}

	serviceName := strings.TrimSpace(cfg.ServiceName)
	if serviceName == "" {
		serviceName = "billingengine"
	}
	environment := strings.TrimSpace(cfg.Environment)
	if environment == "" {
		environment = "unknown"
	}
	constLabels := prometheus.Labels{
		"service": serviceName,
		"env":     environment,
	}

	calculations := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name:        "billing_calculations_total",
		Help:        "Billing calculations by outcome.",
		ConstLabels: constLabels,
	}, []string{"result"})
	calculationDuration := prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:        "billing_calculation_duration_seconds",
		Help:        "End to end latency of a billing calculation.",
		Buckets:     []float64{0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30},
		ConstLabels: constLabels,
	})
	charges := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name:        "billing_charges_total",
		Help:        "Charges produced by calculator kind.",
		ConstLabels: constLabels,
	}, []string{"kind"})
	recalculations := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name:        "invoice_recalculations_total",
		Help:        "Invoice recalculations by outcome.",
		ConstLabels: constLabels,
	}, []string{"result"})
	recalcErrors := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name:        "invoice_recalculation_errors_total",
		Help:        "Invoice recalculation failures by low-cardinality reason.",
		ConstLabels: constLabels,
	}, []string{"reason"})
	rolledOver := prometheus.NewCounter(prometheus.CounterOpts{
		Name:        "time_entries_rolled_over_total",
		Help:        "Unapproved time entries moved into the next period.",
		ConstLabels: constLabels,
	})

	registerer.MustRegister(
		calculations,
		calculationDuration,
		charges,
		recalculations,
		recalcErrors,
		rolledOver,
	)

	resultCounters := map[string]prometheus.Counter{}
	for _, result := range []string{ResultSuccess, ResultAlreadyInvoiced, ResultRejected, ResultError} {
		resultCounters[result] = calculations.WithLabelValues(result)
	}

	return &BillingMetrics{
		calculations:        calculations,
		calculationDuration: calculationDuration,
		charges:             charges,
		recalculations:      recalculations,
		recalcErrors:        recalcErrors,
		rolledOver:          rolledOver,
		resultCounters:      resultCounters,
	}
}

// ObserveCalculation records one billing calculation outcome and its latency.
func (m *BillingMetrics) ObserveCalculation(result string, duration time.Duration) {
	if m == nil {
		return
	}
	if counter, ok := m.resultCounters[result]; ok {
		counter.Inc()
	} else {
		m.calculations.WithLabelValues(result).Inc()
	}
	if duration < 0 {
		duration = 0
	}
	m.calculationDuration.Observe(duration.Seconds())
}

// AddCharges increments the charge counter for a calculator kind.
func (m *BillingMetrics) AddCharges(kind string, count int) {
	if m == nil || count <= 0 {
		return
	}
	m.charges.WithLabelValues(kind).Add(float64(count))
}

// ObserveRecalculation records an invoice recalculation outcome.
func (m *BillingMetrics) ObserveRecalculation(err error) {
	if m == nil {
		return
	}
	if err == nil {
		m.recalculations.WithLabelValues(ResultSuccess).Inc()
		return
	}
	m.recalculations.WithLabelValues(ResultError).Inc()
	m.recalcErrors.WithLabelValues(ClassifyErrorReason(err)).Inc()
}

// AddRolledOver increments the rolled-over time entry counter.
func (m *BillingMetrics) AddRolledOver(count int64) {
	if m == nil || count <= 0 {
		return
	}
	m.rolledOver.Add(float64(count))
}

// ClassifyErrorReason maps storage errors to low-cardinality reasons.
func ClassifyErrorReason(err error) string {
	if err == nil {
		return ErrorReasonUnknown
	}
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
		return ErrorReasonDeadlineExceeded
	}
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return ErrorReasonNotFound
	}
	if db.PGCode(err) == db.PGLockNotAvailable {
		return ErrorReasonDBLockTimeout
	}
	if db.PGCode(err) == db.PGSerializationFailure {
		return ErrorReasonSerializationFailure
	}
	if errors.Is(err, gorm.ErrDuplicatedKey) || db.PGCode(err) == db.PGUniqueViolation {
		return ErrorReasonUniqueViolation
	}
	return ErrorReasonUnknown
}

// IsRetryable reports whether a storage error is transient.
func IsRetryable(err error) bool {
	switch ClassifyErrorReason(err) {
	case ErrorReasonDBLockTimeout, ErrorReasonSerializationFailure:
		return true
	default:
		return false
	}
}
