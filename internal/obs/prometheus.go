package obs

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/yanun0323/logs"
)

const namespace = "hl_tracker"

// Metrics exposes tracker counters on a dedicated prometheus registry.
type Metrics struct {
	registry *prometheus.Registry

	activeConnections    prometheus.Gauge
	messagesTotal        prometheus.Counter
	accountUpdatesTotal  prometheus.Counter
	pricesAppliedTotal   prometheus.Counter
	parseErrorsTotal     prometheus.Counter
	valuationErrorsTotal prometheus.Counter
	persistErrorsTotal   prometheus.Counter
	reconnectsTotal      prometheus.Counter

	accountValue *prometheus.GaugeVec
	lowestValue  *prometheus.GaugeVec
}

// NewMetrics builds the metric set on its own registry.
func NewMetrics() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		activeConnections: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "active_connections",
			Help:      "Connections currently connected or receiving",
		}),
		messagesTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "messages_total",
			Help:      "Inbound feed messages across all connections",
		}),
		accountUpdatesTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "account_updates_total",
			Help:      "Account update messages processed",
		}),
		pricesAppliedTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "prices_applied_total",
			Help:      "Price broadcasts applied to the cache",
		}),
		parseErrorsTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "parse_errors_total",
			Help:      "Messages that failed to decode",
		}),
		valuationErrorsTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "valuation_errors_total",
			Help:      "Account updates that failed valuation",
		}),
		persistErrorsTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "persist_errors_total",
			Help:      "Record writes that failed",
		}),
		reconnectsTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "reconnects_total",
			Help:      "Reconnect attempts across all connections",
		}),
		accountValue: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "account_value",
			Help:      "Latest computed total account value",
		}, []string{"account"}),
		lowestValue: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "lowest_account_value",
			Help:      "Lowest total account value observed",
		}, []string{"account"}),
	}

	m.registry.MustRegister(
		m.activeConnections,
		m.messagesTotal,
		m.accountUpdatesTotal,
		m.pricesAppliedTotal,
		m.parseErrorsTotal,
		m.valuationErrorsTotal,
		m.persistErrorsTotal,
		m.reconnectsTotal,
		m.accountValue,
		m.lowestValue,
	)

	return m
}

// Handler returns the scrape handler for the registry.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// Serve starts the scrape listener in the background.
func (m *Metrics) Serve(addr string) {
	mux := http.NewServeMux()
	mux.Handle("/metrics", m.Handler())
	srv := &http.Server{
		Addr:              addr,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}
	go func() {
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logs.Errorf("metrics listener stopped: %v", err)
		}
	}()
	logs.Infof("metrics listening on %s", addr)
}
