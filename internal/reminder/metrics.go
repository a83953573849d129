package reminder

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const metricNamespace = "threadrelay_reminder"

type metricCollector struct {
	sentDigests prometheus.Counter
}

var metrics = newMetricCollector()

func newMetricCollector() *metricCollector {
	return &metricCollector{
		sentDigests: promauto.NewCounter(
			prometheus.CounterOpts{
				Namespace: metricNamespace,
				Name:      "sent_digests_total",
				Help:      "count of reminder digest messages that were posted to slack",
			},
		),
	}
}

func (m *metricCollector) DigestSent() {
	m.sentDigests.Inc()
}
