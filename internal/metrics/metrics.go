package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/vietanh2810/kids-ledger-api/internal/domain"
)

const namespace = "kids_ledger"

// Metrics owns a private registry so tests can build as many as they like.
type Metrics struct {
	Registry *prometheus.Registry

	httpInFlight prometheus.Gauge
	httpRequests *prometheus.CounterVec
	httpDuration *prometheus.HistogramVec

	checkins          prometheus.Counter
	cooldownRejects   prometheus.Counter
	balanceMoves      *prometheus.CounterVec
	balanceMovedCents *prometheus.CounterVec
	qrCodesGenerated  prometheus.Counter
}

func New() *Metrics {
	m := &Metrics{
		Registry: prometheus.NewRegistry(),
		httpInFlight: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "http",
			Name:      "inflight_requests",
			Help:      "Current number of in-flight HTTP requests.",
		}),
		httpRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "http",
			Name:      "requests_total",
			Help:      "Total number of HTTP requests handled.",
		}, []string{"method", "path", "status"}),
		httpDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "http",
			Name:      "request_duration_seconds",
			Help:      "Duration of HTTP requests.",
			Buckets:   prometheus.ExponentialBuckets(0.005, 2, 10),
		}, []string{"method", "path"}),
		checkins: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "ledger",
			Name:      "checkins_total",
			Help:      "Committed check-ins.",
		}),
		cooldownRejects: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "ledger",
			Name:      "cooldown_rejections_total",
			Help:      "Check-ins refused because the cooldown had not elapsed.",
		}),
		balanceMoves: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "ledger",
			Name:      "transactions_total",
			Help:      "Committed balance transactions by type.",
		}, []string{"type"}),
		balanceMovedCents: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "ledger",
			Name:      "transaction_cents_total",
			Help:      "Cents moved by committed balance transactions, by type.",
		}, []string{"type"}),
		qrCodesGenerated: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "qr",
			Name:      "codes_generated_total",
			Help:      "QR codes inserted by generation batches.",
		}),
	}

	m.Registry.MustRegister(
		m.httpInFlight,
		m.httpRequests,
		m.httpDuration,
		m.checkins,
		m.cooldownRejects,
		m.balanceMoves,
		m.balanceMovedCents,
		m.qrCodesGenerated,
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		collectors.NewGoCollector(),
	)

	return m
}

func (m *Metrics) CheckinRecorded() {
	m.checkins.Inc()
}

func (m *Metrics) CooldownRejected() {
	m.cooldownRejects.Inc()
}

func (m *Metrics) BalanceMoved(t domain.TransactionType, cents int64) {
	m.balanceMoves.WithLabelValues(string(t)).Inc()
	if cents > 0 {
		m.balanceMovedCents.WithLabelValues(string(t)).Add(float64(cents))
	}
}

func (m *Metrics) CodesGenerated(n int) {
	if n > 0 {
		m.qrCodesGenerated.Add(float64(n))
	}
}

func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.Registry, promhttp.HandlerOpts{})
}

// Middleware labels requests with the matched route template, so
// /api/checkin/:childId stays one series. Unmatched routes share "unmatched".
func (m *Metrics) Middleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		m.httpInFlight.Inc()
		defer m.httpInFlight.Dec()

		c.Next()

		path := c.FullPath()
		if path == "" {
			path = "unmatched"
		}
		m.httpRequests.WithLabelValues(c.Request.Method, path, strconv.Itoa(c.Writer.Status())).Inc()
		m.httpDuration.WithLabelValues(c.Request.Method, path).Observe(time.Since(start).Seconds())
	}
}
