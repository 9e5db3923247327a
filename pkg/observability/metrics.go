package observability

import (
	"context"
	"strconv"

	"github.com/aretw0/leynos/pkg/domain"
	"github.com/prometheus/client_golang/prometheus"
)

// Metrics holds the dispatch collectors.
type Metrics struct {
	Requests      *prometheus.CounterVec
	RequestTime   *prometheus.HistogramVec
	SliceDuration *prometheus.HistogramVec
	Unmapped      *prometheus.CounterVec
	Rewrites      *prometheus.CounterVec
}

// NewMetrics creates the collectors without registering them.
func NewMetrics() *Metrics {
	return &Metrics{
		Requests: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "leynos_requests_total",
				Help: "Total number of dispatched requests",
			},
			[]string{"group", "route", "mode", "status"},
		),
		RequestTime: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "leynos_request_duration_seconds",
				Help:    "Duration of dispatched requests",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"group", "route"},
		),
		SliceDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "leynos_slice_duration_seconds",
				Help:    "Duration of controller executions",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"controller"},
		),
		Unmapped: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "leynos_unmapped_exit_codes_total",
				Help: "Controller exit codes with no exit state",
			},
			[]string{"route", "controller"},
		),
		Rewrites: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "leynos_rewrites_total",
				Help: "Total number of internal rewrites",
			},
			[]string{"from", "to"},
		),
	}
}

// Register registers every collector with reg.
func (m *Metrics) Register(reg prometheus.Registerer) error {
	for _, c := range []prometheus.Collector{m.Requests, m.RequestTime, m.SliceDuration, m.Unmapped, m.Rewrites} {
		if err := reg.Register(c); err != nil {
			return err
		}
	}
	return nil
}

// Hooks returns lifecycle hooks recording into the collectors.
func (m *Metrics) Hooks() domain.LifecycleHooks {
	return domain.LifecycleHooks{
		OnSliceLeave: func(_ context.Context, e *domain.SliceEvent) {
			m.SliceDuration.WithLabelValues(e.Controller).Observe(e.Duration.Seconds())
			if !e.Mapped {
				m.Unmapped.WithLabelValues(e.Route, e.Controller).Inc()
			}
		},
		OnRewrite: func(_ context.Context, e *domain.RewriteEvent) {
			m.Rewrites.WithLabelValues(e.From, e.To).Inc()
		},
		OnResponse: func(_ context.Context, e *domain.ResponseEvent) {
			m.Requests.WithLabelValues(e.Group, e.Route, string(e.Mode), strconv.Itoa(e.Status)).Inc()
			m.RequestTime.WithLabelValues(e.Group, e.Route).Observe(e.Duration.Seconds())
		},
	}
}
