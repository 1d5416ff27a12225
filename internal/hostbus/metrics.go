package hostbus

import (
	"errors"

	"github.com/prometheus/client_golang/prometheus"
)

// metrics are optional. A nil *metrics is valid and records nothing.
type metrics struct {
	observers  *prometheus.GaugeVec
	posts      *prometheus.CounterVec
	deliveries *prometheus.CounterVec
	backlog    prometheus.Gauge
}

func newMetrics(reg prometheus.Registerer, backend string) (*metrics, error) {
	labels := prometheus.Labels{"backend": backend}
	m := &metrics{
		observers: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace:   "typedbus",
			Subsystem:   "hostbus",
			Name:        "observers",
			Help:        "Number of live observer registrations per channel.",
			ConstLabels: labels,
		}, []string{"channel"}),
		posts: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace:   "typedbus",
			Subsystem:   "hostbus",
			Name:        "posts_total",
			Help:        "Number of posts per channel.",
			ConstLabels: labels,
		}, []string{"channel"}),
		deliveries: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace:   "typedbus",
			Subsystem:   "hostbus",
			Name:        "deliveries_total",
			Help:        "Number of observer invocations per channel.",
			ConstLabels: labels,
		}, []string{"channel"}),
		backlog: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace:   "typedbus",
			Subsystem:   "hostbus",
			Name:        "event_backlog",
			Help:        "Events buffered in open streams and not yet consumed.",
			ConstLabels: labels,
		}),
	}

	var err error
	if m.observers, err = register(reg, m.observers); err != nil {
		return nil, err
	}
	if m.posts, err = register(reg, m.posts); err != nil {
		return nil, err
	}
	if m.deliveries, err = register(reg, m.deliveries); err != nil {
		return nil, err
	}
	if m.backlog, err = register(reg, m.backlog); err != nil {
		return nil, err
	}
	return m, nil
}

// register adds c to reg, reusing the collector already registered under the
// same description so that several buses can share one registry.
func register[C prometheus.Collector](reg prometheus.Registerer, c C) (C, error) {
	if err := reg.Register(c); err != nil {
		var already prometheus.AlreadyRegisteredError
		if errors.As(err, &already) {
			if existing, ok := already.ExistingCollector.(C); ok {
				return existing, nil
			}
		}
		return c, err
	}
	return c, nil
}

func channelLabel(name string) string {
	if name == "" {
		return "*"
	}
	return name
}

func (m *metrics) observerAdded(name string) {
	if m == nil {
		return
	}
	m.observers.WithLabelValues(channelLabel(name)).Inc()
}

func (m *metrics) observerRemoved(name string) {
	if m == nil {
		return
	}
	m.observers.WithLabelValues(channelLabel(name)).Dec()
}

func (m *metrics) posted(name string) {
	if m == nil {
		return
	}
	m.posts.WithLabelValues(channelLabel(name)).Inc()
}

func (m *metrics) delivered(name string) {
	if m == nil {
		return
	}
	m.deliveries.WithLabelValues(channelLabel(name)).Inc()
}

func (m *metrics) buffered(delta int) {
	if m == nil {
		return
	}
	m.backlog.Add(float64(delta))
}
