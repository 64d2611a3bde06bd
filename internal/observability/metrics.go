// Package observability provides Prometheus metrics for a token issuance run.
package observability

import (
	"context"
	"fmt"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/push"
)

// DefaultNamespace prefixes every metric name.
const DefaultNamespace = "spl_mint"

// PushJob is the pushgateway job name.
const PushJob = "spl_mint"

// Step status label values.
const (
	StatusSuccess = "success"
	StatusError   = "error"
)

// Metrics holds all Prometheus metrics for one run.
// Metrics live in their own registry, never the global default one.
type Metrics struct {
	registry *prometheus.Registry

	// RPC metrics
	RPCCallDuration *prometheus.HistogramVec
	RPCCallErrors   *prometheus.CounterVec

	// Issuance metrics
	StepsTotal   *prometheus.CounterVec
	StepDuration *prometheus.HistogramVec
	TokensMinted prometheus.Gauge
	LastSuccess  prometheus.Gauge

	// Database metrics
	DBQueryDuration *prometheus.HistogramVec
	DBQueryErrors   *prometheus.CounterVec
}

// NewMetrics creates a Metrics instance registered in a fresh registry.
func NewMetrics(namespace string) *Metrics {
	if namespace == "" {
		namespace = DefaultNamespace
	}

	reg := prometheus.NewRegistry()
	factory := promauto.With(reg)

	return &Metrics{
		registry: reg,

		RPCCallDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "solana",
			Name:      "rpc_call_duration_seconds",
			Help:      "Solana RPC call duration in seconds",
			Buckets:   prometheus.DefBuckets,
		}, []string{"method"}),
		RPCCallErrors: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "solana",
			Name:      "rpc_call_errors_total",
			Help:      "Total number of failed Solana RPC calls",
		}, []string{"method"}),

		StepsTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "issuance",
			Name:      "steps_total",
			Help:      "Total number of issuance steps by outcome",
		}, []string{"step", "status"}),
		StepDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "issuance",
			Name:      "step_duration_seconds",
			Help:      "Issuance step duration in seconds, confirmation included",
			Buckets:   []float64{0.25, 0.5, 1, 2, 5, 10, 20, 30, 60},
		}, []string{"step"}),
		TokensMinted: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "issuance",
			Name:      "tokens_minted_base_units",
			Help:      "Base units minted by the last issuance",
		}),
		LastSuccess: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "issuance",
			Name:      "last_success_timestamp",
			Help:      "Unix timestamp of the last completed issuance",
		}),

		DBQueryDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "database",
			Name:      "query_duration_seconds",
			Help:      "Ledger query duration in seconds",
			Buckets:   prometheus.DefBuckets,
		}, []string{"operation"}),
		DBQueryErrors: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "database",
			Name:      "query_errors_total",
			Help:      "Total number of ledger query errors",
		}, []string{"operation"}),
	}
}

// Registry returns the registry the metrics are registered in.
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// ObserveRPCCall records one RPC call. Its signature matches solana.CallObserver.
func (m *Metrics) ObserveRPCCall(method string, elapsed time.Duration, err error) {
	m.RPCCallDuration.WithLabelValues(method).Observe(elapsed.Seconds())
	if err != nil {
		m.RPCCallErrors.WithLabelValues(method).Inc()
	}
}

// RecordStep records the outcome and duration of an issuance step.
func (m *Metrics) RecordStep(step string, elapsed time.Duration, err error) {
	status := StatusSuccess
	if err != nil {
		status = StatusError
	}
	m.StepsTotal.WithLabelValues(step, status).Inc()
	m.StepDuration.WithLabelValues(step).Observe(elapsed.Seconds())
}

// RecordMinted records the minted base units. Precision beyond float64 is lost.
func (m *Metrics) RecordMinted(baseUnits float64, at time.Time) {
	m.TokensMinted.Set(baseUnits)
	m.LastSuccess.Set(float64(at.Unix()))
}

// RecordDBQuery records ledger query metrics.
func (m *Metrics) RecordDBQuery(operation string, elapsed time.Duration, err error) {
	m.DBQueryDuration.WithLabelValues(operation).Observe(elapsed.Seconds())
	if err != nil {
		m.DBQueryErrors.WithLabelValues(operation).Inc()
	}
}

// Push sends every collected metric to the pushgateway at url under PushJob.
func (m *Metrics) Push(ctx context.Context, url string) error {
	err := push.New(url, PushJob).
		Gatherer(m.registry).
		PushContext(ctx)
	if err != nil {
		return fmt.Errorf("push metrics to %s: %w", url, err)
	}
	return nil
}
