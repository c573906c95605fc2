// Package metrics exposes node activity as Prometheus collectors on a private
// registry.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/shopspring/decimal"

	"github.com/rony4d/go-neurax/inter"
)

const namespace = "neurax"

// Metrics holds the node collectors.
type Metrics struct {
	registry *prometheus.Registry

	TxApplied   *prometheus.CounterVec
	TxRejected  *prometheus.CounterVec
	Blocks      prometheus.Counter
	Height      prometheus.Gauge
	Pending     prometheus.Gauge
	BlockSize   prometheus.Histogram
	Accounts    prometheus.Gauge
	RewardPools *prometheus.GaugeVec
	FraudFlags  prometheus.Counter
	Swaps       *prometheus.CounterVec
}

// New creates the collectors and registers them, together with the Go and
// process collectors, on a fresh registry.
func New() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		TxApplied: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "tx",
			Name:      "applied_total",
			Help:      "Applied transactions by type",
		}, []string{"type"}),
		TxRejected: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "tx",
			Name:      "rejected_total",
			Help:      "Rejected transactions by error kind",
		}, []string{"kind"}),
		Blocks: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "chain",
			Name:      "blocks_total",
			Help:      "Blocks sealed since node start",
		}),
		Height: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "chain",
			Name:      "height",
			Help:      "Height of the latest block",
		}),
		Pending: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "tx",
			Name:      "pending",
			Help:      "Applied transactions waiting for a block",
		}),
		BlockSize: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "chain",
			Name:      "block_transactions",
			Help:      "Transactions per sealed block",
			Buckets:   prometheus.ExponentialBuckets(1, 4, 6),
		}),
		Accounts: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "ledger",
			Name:      "accounts",
			Help:      "Known accounts",
		}),
		RewardPools: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "tokenomics",
			Name:      "reward_pool",
			Help:      "Coins left in each reward pool",
		}, []string{"pool"}),
		FraudFlags: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "ai",
			Name:      "fraud_flags_total",
			Help:      "Transactions reported as fraud-suspect",
		}),
		Swaps: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "liquidity",
			Name:      "swaps_total",
			Help:      "Swaps by pool",
		}, []string{"pool"}),
	}
	m.registry.MustRegister(
		prometheus.NewGoCollector(),
		prometheus.NewProcessCollector(prometheus.ProcessCollectorOpts{}),
		m.TxApplied, m.TxRejected, m.Blocks, m.Height, m.Pending, m.BlockSize,
		m.Accounts, m.RewardPools, m.FraudFlags, m.Swaps,
	)
	return m
}

// Registry returns the registry the collectors live on.
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// ObserveReceipt records an applied transaction.
func (m *Metrics) ObserveReceipt(r *inter.Receipt) {
	m.TxApplied.WithLabelValues(r.Tx.Type.String()).Inc()
	if r.FraudFlagged {
		m.FraudFlags.Inc()
	}
}

// ObserveRejection records a rejected transaction.
func (m *Metrics) ObserveRejection(err error) {
	m.TxRejected.WithLabelValues(inter.KindOf(err).String()).Inc()
}

// ObserveBlock records a sealed block and the queue left behind it.
func (m *Metrics) ObserveBlock(b *inter.Block, pending int) {
	m.Blocks.Inc()
	m.Height.Set(float64(b.Height))
	m.BlockSize.Observe(float64(len(b.Transactions)))
	m.Pending.Set(float64(pending))
}

// SetPool reports the balance of a reward pool.
func (m *Metrics) SetPool(name string, balance decimal.Decimal) {
	v, _ := balance.Float64()
	m.RewardPools.WithLabelValues(name).Set(v)
}
