package observe

import (
	"github.com/cockroachdb/errors"
	"github.com/prometheus/client_golang/prometheus"

	ez "github.com/tef/ezpeg"
)

var defaultDurationBuckets = prometheus.ExponentialBuckets(0.00001, 4, 12)

// Metrics counts parses and rule matches into prometheus collectors.
type Metrics struct {
	ez.BaseObserver

	parses   *prometheus.CounterVec
	rules    *prometheus.CounterVec
	duration prometheus.Histogram
}

var _ ez.Observer = (*Metrics)(nil)

// NewMetrics creates the collectors and registers them with reg, when reg is
// not nil.
func NewMetrics(reg prometheus.Registerer) (*Metrics, error) {
	m := &Metrics{
		parses: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "ez",
				Name:      "parses_total",
				Help:      "Parses run, by result.",
			},
			[]string{"result"},
		),
		rules: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "ez",
				Name:      "rule_matches_total",
				Help:      "Rules tried, by kind and result.",
			},
			[]string{"kind", "result"},
		),
		duration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "ez",
			Name:      "parse_duration_seconds",
			Help:      "Histogram of parse durations.",
			Buckets:   defaultDurationBuckets,
		}),
	}
	if reg == nil {
		return m, nil
	}
	for _, c := range m.collectors() {
		if err := reg.Register(c); err != nil {
			return nil, errors.Wrap(err, "registering parse metrics")
		}
	}
	return m, nil
}

func (m *Metrics) collectors() []prometheus.Collector {
	return []prometheus.Collector{m.parses, m.rules, m.duration}
}

// Unregister removes the collectors from reg.
func (m *Metrics) Unregister(reg prometheus.Registerer) {
	for _, c := range m.collectors() {
		reg.Unregister(c)
	}
}

func (m *Metrics) MatchSuccess(c *ez.Context) {
	m.rules.WithLabelValues(string(c.Rule().Kind()), "matched").Inc()
}

func (m *Metrics) MatchFailure(c *ez.Context) {
	m.rules.WithLabelValues(string(c.Rule().Kind()), "failed").Inc()
}

func (m *Metrics) AfterParse(ev *ez.ParseEvent) {
	m.parses.WithLabelValues(resultLabel(ev)).Inc()
	m.duration.Observe(ev.Elapsed.Seconds())
}

func resultLabel(ev *ez.ParseEvent) string {
	switch {
	case ev.Err != nil:
		return "error"
	case ev.Result.MatchedEntireInput:
		return "complete"
	case ev.Result.Matched:
		return "partial"
	default:
		return "failed"
	}
}
