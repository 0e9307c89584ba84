package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "roteiro"

// Metrics owns a private registry so tests can build as many as they like.
type Metrics struct {
	Registry *prometheus.Registry

	HTTPRequests   *prometheus.CounterVec // route, method, status
	SearchRequests *prometheus.CounterVec // provider, status
	MailMessages   *prometheus.CounterVec // outcome
	NotifyMessages prometheus.Counter
	NotifyChunks   *prometheus.CounterVec // result
	JobRuns        *prometheus.CounterVec // job, result
}

func New() *Metrics {
	reg := prometheus.NewRegistry()
	m := &Metrics{
		Registry: reg,
		HTTPRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "http",
			Name:      "requests_total",
			Help:      "HTTP requests served, by route pattern, method and status code.",
		}, []string{"route", "method", "status"}),
		SearchRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "search",
			Name:      "upstream_requests_total",
			Help:      "Upstream search calls, by provider and upstream status (\"error\" on transport failure).",
		}, []string{"provider", "status"}),
		MailMessages: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "mail_import",
			Name:      "messages_total",
			Help:      "Inbound messages handled by the import watcher, by outcome.",
		}, []string{"outcome"}),
		NotifyMessages: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "notify",
			Name:      "messages_total",
			Help:      "Reminder push messages built.",
		}),
		NotifyChunks: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "notify",
			Name:      "chunks_total",
			Help:      "Push chunks sent, by result.",
		}, []string{"result"}),
		JobRuns: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "scheduler",
			Name:      "runs_total",
			Help:      "Scheduled job ticks, by job and result (ok, error, skipped).",
		}, []string{"job", "result"}),
	}
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		m.HTTPRequests,
		m.SearchRequests,
		m.MailMessages,
		m.NotifyMessages,
		m.NotifyChunks,
		m.JobRuns,
	)
	return m
}

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.Registry, promhttp.HandlerOpts{Registry: m.Registry})
}
