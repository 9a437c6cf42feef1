package observability

import (
	"fmt"
	"math/big"
	"strings"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

type moduleMetrics struct {
	requests  *prometheus.CounterVec
	errors    *prometheus.CounterVec
	latency   *prometheus.HistogramVec
	throttles *prometheus.CounterVec
}

var (
	moduleMetricsOnce sync.Once
	moduleRegistry    *moduleMetrics

	marketplaceOnce sync.Once
	marketplaceReg  *MarketplaceMetrics
)

// ModuleMetrics returns the lazily-initialised registry used to record
// JSON-RPC module activity.
func ModuleMetrics() *moduleMetrics {
	moduleMetricsOnce.Do(func() {
		moduleRegistry = &moduleMetrics{
			requests: prometheus.NewCounterVec(prometheus.CounterOpts{
				Namespace: "birdswap",
				Subsystem: "rpc",
				Name:      "requests_total",
				Help:      "Total JSON-RPC requests segmented by module and method.",
			}, []string{"module", "method", "outcome"}),
			errors: prometheus.NewCounterVec(prometheus.CounterOpts{
				Namespace: "birdswap",
				Subsystem: "rpc",
				Name:      "errors_total",
				Help:      "Total JSON-RPC errors segmented by module, method, and error code.",
			}, []string{"module", "method", "code"}),
			latency: prometheus.NewHistogramVec(prometheus.HistogramOpts{
				Namespace: "birdswap",
				Subsystem: "rpc",
				Name:      "request_duration_seconds",
				Help:      "Latency distribution for JSON-RPC handlers.",
				Buckets:   prometheus.DefBuckets,
			}, []string{"module", "method"}),
			throttles: prometheus.NewCounterVec(prometheus.CounterOpts{
				Namespace: "birdswap",
				Subsystem: "rpc",
				Name:      "throttles_total",
				Help:      "Count of requests rejected due to throttling policies.",
			}, []string{"module", "reason"}),
		}
		prometheus.MustRegister(
			moduleRegistry.requests,
			moduleRegistry.errors,
			moduleRegistry.latency,
			moduleRegistry.throttles,
		)
	})
	return moduleRegistry
}

// Observe records the outcome of a JSON-RPC request. code is the JSON-RPC
// error code, or 0 on success.
func (m *moduleMetrics) Observe(module, method string, code int, duration time.Duration) {
	if m == nil {
		return
	}
	if module == "" {
		module = "unknown"
	}
	if method == "" {
		method = "unknown"
	}
	outcome := "success"
	if code != 0 {
		outcome = "error"
		m.errors.WithLabelValues(module, method, fmt.Sprintf("%d", code)).Inc()
	}
	m.requests.WithLabelValues(module, method, outcome).Inc()
	m.latency.WithLabelValues(module, method).Observe(duration.Seconds())
}

// RecordThrottle increments the throttle counter for the supplied module and
// reason. Reasons should be stable strings such as "rate_limit".
func (m *moduleMetrics) RecordThrottle(module, reason string) {
	if m == nil {
		return
	}
	if module == "" {
		module = "unknown"
	}
	if reason == "" {
		reason = "unspecified"
	}
	m.throttles.WithLabelValues(module, reason).Inc()
}

// MarketplaceMetrics tracks node calls and settlements.
type MarketplaceMetrics struct {
	calls   *prometheus.CounterVec
	latency *prometheus.HistogramVec
	fills   *prometheus.CounterVec
	volume  *prometheus.CounterVec
}

// Marketplace returns the singleton registry for marketplace activity.
func Marketplace() *MarketplaceMetrics {
	marketplaceOnce.Do(func() {
		marketplaceReg = &MarketplaceMetrics{
			calls: prometheus.NewCounterVec(prometheus.CounterOpts{
				Namespace: "birdswap",
				Subsystem: "node",
				Name:      "calls_total",
				Help:      "State-mutating calls segmented by method and outcome (committed or reverted).",
			}, []string{"method", "outcome"}),
			latency: prometheus.NewHistogramVec(prometheus.HistogramOpts{
				Namespace: "birdswap",
				Subsystem: "node",
				Name:      "call_duration_seconds",
				Help:      "Latency distribution for state-mutating calls.",
				Buckets:   prometheus.DefBuckets,
			}, []string{"method"}),
			fills: prometheus.NewCounterVec(prometheus.CounterOpts{
				Namespace: "birdswap",
				Subsystem: "market",
				Name:      "fills_total",
				Help:      "Successful fills segmented by currency.",
			}, []string{"currency"}),
			volume: prometheus.NewCounterVec(prometheus.CounterOpts{
				Namespace: "birdswap",
				Subsystem: "market",
				Name:      "settled_volume",
				Help:      "Settled ask price in whole units (18 decimals) segmented by currency.",
			}, []string{"currency"}),
		}
		prometheus.MustRegister(
			marketplaceReg.calls,
			marketplaceReg.latency,
			marketplaceReg.fills,
			marketplaceReg.volume,
		)
	})
	return marketplaceReg
}

// ObserveCall records a committed or reverted call.
func (m *MarketplaceMetrics) ObserveCall(method string, committed bool, duration time.Duration) {
	if m == nil {
		return
	}
	outcome := "committed"
	if !committed {
		outcome = "reverted"
	}
	m.calls.WithLabelValues(method, outcome).Inc()
	m.latency.WithLabelValues(method).Observe(duration.Seconds())
}

var weiPerUnit = new(big.Float).SetFloat64(1e18)

// RecordFill counts a settlement and adds its price to the volume counter.
func (m *MarketplaceMetrics) RecordFill(currency string, price *big.Int) {
	if m == nil {
		return
	}
	currency = strings.ToLower(strings.TrimSpace(currency))
	if currency == "" {
		currency = "native"
	}
	m.fills.WithLabelValues(currency).Inc()
	if price == nil || price.Sign() <= 0 {
		return
	}
	units, _ := new(big.Float).Quo(new(big.Float).SetInt(price), weiPerUnit).Float64()
	m.volume.WithLabelValues(currency).Add(units)
}
