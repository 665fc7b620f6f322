package metrics

import (
	"context"
	"errors"
	"strings"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/smallbiznis/roomledger/internal/errclass"
	"github.com/smallbiznis/roomledger/pkg/db"
)

const (
	StoreReasonDeadlineExceeded     = "deadline_exceeded"
	StoreReasonCanceled             = "canceled"
	StoreReasonSerializationFailure = "serialization_failure"
	StoreReasonDeadlock             = "deadlock"
	StoreReasonLockTimeout          = "db_lock_timeout"
	StoreReasonUniqueViolation      = "unique_violation"
	StoreReasonInsufficientCapacity = "insufficient_capacity"
	StoreReasonInput                = "input"
	StoreReasonUnknown              = "unknown"
)

// StoreMetrics captures calendar store contention and bulk initialization signals.
type StoreMetrics struct {
	txRetries       *prometheus.CounterVec
	txFailures      *prometheus.CounterVec
	txDuration      *prometheus.HistogramVec
	daysInitialized *prometheus.CounterVec
	initDuration    prometheus.Observer
}

var (
	storeMetricsOnce sync.Once
	storeMetrics     *StoreMetrics
)

// StoreWithConfig returns the process-wide store metrics registered on the default registry.
func StoreWithConfig(cfg Config) *StoreMetrics {
	storeMetricsOnce.Do(func() {
		storeMetrics = newStoreMetrics(prometheus.DefaultRegisterer, cfg)
	})
	return storeMetrics
}

func newStoreMetrics(registerer prometheus.Registerer, cfg Config) *StoreMetrics {
	if registerer == nil {
		registerer = prometheus.DefaultRegisterer
	}

	serviceName := strings.TrimSpace(cfg.ServiceName)
	if serviceName == "" {
		serviceName = "roomledger"
	}
	environment := strings.TrimSpace(cfg.Environment)
	if environment == "" {
		environment = "unknown"
	}
	constLabels := prometheus.Labels{
		"service": serviceName,
		"env":     environment,
	}

	m := &StoreMetrics{
		txRetries: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name:        "roomledger_calendar_tx_retries_total",
			Help:        "Calendar transactions retried after a transient store failure.",
			ConstLabels: constLabels,
		}, []string{"operation", "reason"}),
		txFailures: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name:        "roomledger_calendar_tx_failures_total",
			Help:        "Calendar transactions that returned an error, by reason.",
			ConstLabels: constLabels,
		}, []string{"operation", "reason"}),
		txDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:        "roomledger_calendar_tx_duration_seconds",
			Help:        "Calendar transaction latency including retries.",
			Buckets:     []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5},
			ConstLabels: constLabels,
		}, []string{"operation"}),
		daysInitialized: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name:        "roomledger_calendar_days_initialized_total",
			Help:        "Calendar days touched by bulk initialization.",
			ConstLabels: constLabels,
		}, []string{"result"}),
	}
	initDuration := prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:        "roomledger_calendar_initialize_duration_seconds",
		Help:        "Bulk initialization run time.",
		Buckets:     []float64{0.01, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30, 60},
		ConstLabels: constLabels,
	})
	m.initDuration = initDuration

	m.txRetries = registerCounterVec(registerer, m.txRetries)
	m.txFailures = registerCounterVec(registerer, m.txFailures)
	m.daysInitialized = registerCounterVec(registerer, m.daysInitialized)
	if err := registerer.Register(m.txDuration); err != nil {
		var already prometheus.AlreadyRegisteredError
		if errors.As(err, &already) {
			if existing, ok := already.ExistingCollector.(*prometheus.HistogramVec); ok {
				m.txDuration = existing
			}
		}
	}
	if err := registerer.Register(initDuration); err != nil {
		var already prometheus.AlreadyRegisteredError
		if errors.As(err, &already) {
			if existing, ok := already.ExistingCollector.(prometheus.Histogram); ok {
				m.initDuration = existing
			}
		}
	}
	return m
}

func registerCounterVec(registerer prometheus.Registerer, vec *prometheus.CounterVec) *prometheus.CounterVec {
	if err := registerer.Register(vec); err != nil {
		var already prometheus.AlreadyRegisteredError
		if errors.As(err, &already) {
			if existing, ok := already.ExistingCollector.(*prometheus.CounterVec); ok {
				return existing
			}
		}
	}
	return vec
}

func (m *StoreMetrics) IncRetry(operation, reason string) {
	if m == nil {
		return
	}
	m.txRetries.WithLabelValues(operation, reason).Inc()
}

func (m *StoreMetrics) IncFailure(operation string, err error) {
	if m == nil || err == nil {
		return
	}
	m.txFailures.WithLabelValues(operation, ClassifyStoreReason(err)).Inc()
}

func (m *StoreMetrics) ObserveTx(operation string, elapsed time.Duration) {
	if m == nil {
		return
	}
	m.txDuration.WithLabelValues(operation).Observe(elapsed.Seconds())
}

func (m *StoreMetrics) AddDaysInitialized(created, skipped int64) {
	if m == nil {
		return
	}
	if created > 0 {
		m.daysInitialized.WithLabelValues("created").Add(float64(created))
	}
	if skipped > 0 {
		m.daysInitialized.WithLabelValues("skipped").Add(float64(skipped))
	}
}

func (m *StoreMetrics) ObserveInitialize(elapsed time.Duration) {
	if m == nil {
		return
	}
	m.initDuration.Observe(elapsed.Seconds())
}

// ClassifyStoreReason maps an error to a low-cardinality reason label.
func ClassifyStoreReason(err error) string {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, context.DeadlineExceeded):
		return StoreReasonDeadlineExceeded
	case errors.Is(err, context.Canceled):
		return StoreReasonCanceled
	case errors.Is(err, errclass.ErrCapacity):
		return StoreReasonInsufficientCapacity
	case errors.Is(err, errclass.ErrInput):
		return StoreReasonInput
	}

	switch db.PgErrorCode(err) {
	case db.PgCodeSerializationFailure:
		return StoreReasonSerializationFailure
	case db.PgCodeDeadlockDetected:
		return StoreReasonDeadlock
	case db.PgCodeLockNotAvailable:
		return StoreReasonLockTimeout
	}
	if db.IsDuplicateKeyErr(err) {
		return StoreReasonUniqueViolation
	}
	return StoreReasonUnknown
}
