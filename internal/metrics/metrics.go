package metrics

import (
	"context"
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"task-dashboard/internal/model"
	"task-dashboard/internal/service"
)

const namespace = "taskdashboard"

// collectTimeout bounds the stats query made on each scrape.
const collectTimeout = 5 * time.Second

// StatsCollector exports task statistics, recomputed on every scrape.
type StatsCollector struct {
	stats *service.StatsService

	tasks          *prometheus.Desc
	overdue        *prometheus.Desc
	completionRate *prometheus.Desc
}

func NewStatsCollector(stats *service.StatsService) *StatsCollector {
	return &StatsCollector{
		stats: stats,
		tasks: prometheus.NewDesc(
			prometheus.BuildFQName(namespace, "", "tasks"),
			"Number of tasks by status.",
			[]string{"status"}, nil,
		),
		overdue: prometheus.NewDesc(
			prometheus.BuildFQName(namespace, "", "tasks_overdue"),
			"Number of open tasks past their due date.",
			nil, nil,
		),
		completionRate: prometheus.NewDesc(
			prometheus.BuildFQName(namespace, "", "completion_rate_percent"),
			"Share of completed tasks, rounded to a whole percent.",
			nil, nil,
		),
	}
}

func (c *StatsCollector) Describe(ch chan<- *prometheus.Desc) {
	ch <- c.tasks
	ch <- c.overdue
	ch <- c.completionRate
}

func (c *StatsCollector) Collect(ch chan<- prometheus.Metric) {
	ctx, cancel := context.WithTimeout(context.Background(), collectTimeout)
	defer cancel()

	stats, err := c.stats.ComputeStats(ctx)
	if err != nil {
		ch <- prometheus.NewInvalidMetric(c.tasks, err)
		return
	}

	byStatus := map[model.Status]int{
		model.StatusPending:    stats.Pending,
		model.StatusInProgress: stats.InProgress,
		model.StatusCompleted:  stats.Completed,
	}
	for _, status := range model.Statuses {
		ch <- prometheus.MustNewConstMetric(c.tasks, prometheus.GaugeValue, float64(byStatus[status]), string(status))
	}
	ch <- prometheus.MustNewConstMetric(c.overdue, prometheus.GaugeValue, float64(stats.Overdue))
	ch <- prometheus.MustNewConstMetric(c.completionRate, prometheus.GaugeValue, float64(stats.CompletionRate))
}

// Metrics owns the registry served on /metrics.
type Metrics struct {
	registry *prometheus.Registry
	requests *prometheus.CounterVec
}

// New registers the stats collector, HTTP request counter and Go runtime collectors.
func New(stats *service.StatsService) *Metrics {
	reg := prometheus.NewRegistry()
	requests := prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "http_requests_total",
		Help:      "HTTP requests by route and status code.",
	}, []string{"route", "code"})

	reg.MustRegister(
		NewStatsCollector(stats),
		requests,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return &Metrics{registry: reg, requests: requests}
}

// ObserveRequest counts one finished HTTP request.
func (m *Metrics) ObserveRequest(route string, code int) {
	m.requests.WithLabelValues(route, strconv.Itoa(code)).Inc()
}

func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// Registry exposes the underlying registry for tests and extra collectors.
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}
