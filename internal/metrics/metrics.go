// Package metrics owns the prometheus collectors of the backend.
package metrics

import (
	"strconv"
	"time"

	"sitedesk-backend/internal/api"
	"sitedesk-backend/internal/models"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

type Metrics struct {
	registry *prometheus.Registry

	requests         *prometheus.CounterVec
	requestDuration  *prometheus.HistogramVec
	transactions     *prometheus.CounterVec
	absorbedEvents   prometheus.Counter
	absorbedQuantity prometheus.Counter
}

// New registers every collector on a fresh registry, so tests can build as
// many instances as they like.
func New() *Metrics {
	reg := prometheus.NewRegistry()
	m := &Metrics{
		registry: reg,
		requests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "http_requests_total",
			Help: "HTTP requests by method, route and status.",
		}, []string{"method", "route", "status"}),
		requestDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "HTTP request latency.",
			Buckets: prometheus.DefBuckets,
		}, []string{"method", "route"}),
		transactions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "stock_transactions_total",
			Help: "Recorded material transactions by type.",
		}, []string{"type"}),
		absorbedEvents: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "stock_consumption_absorbed_total",
			Help: "Usage transactions that exceeded available stock and were clamped to zero.",
		}),
		absorbedQuantity: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "stock_consumption_absorbed_quantity_total",
			Help: "Sum of usage quantity that exceeded available stock.",
		}),
	}
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		m.requests, m.requestDuration, m.transactions, m.absorbedEvents, m.absorbedQuantity,
	)
	return m
}

func (m *Metrics) Registry() *prometheus.Registry { return m.registry }

func (m *Metrics) TransactionRecorded(t models.TransactionType) {
	m.transactions.WithLabelValues(string(t)).Inc()
}

func (m *Metrics) ConsumptionAbsorbed(qty float64) {
	m.absorbedEvents.Inc()
	m.absorbedQuantity.Add(qty)
}

// Middleware counts requests per matched route pattern, not raw path, to keep
// label cardinality bounded.
func (m *Metrics) Middleware() fiber.Handler {
	return func(c *fiber.Ctx) error {
		start := time.Now()
		err := c.Next()

		status := c.Response().StatusCode()
		if err != nil {
			status = api.StatusCode(err)
		}
		route := c.Route().Path
		m.requests.WithLabelValues(c.Method(), route, strconv.Itoa(status)).Inc()
		m.requestDuration.WithLabelValues(c.Method(), route).Observe(time.Since(start).Seconds())
		return err
	}
}

// Handler serves the registry in the prometheus text format.
func (m *Metrics) Handler() fiber.Handler {
	return adaptor.HTTPHandler(promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{}))
}
