package relay

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const metricNamespace = "threadrelay"

const (
	processedEventsMetricName = "processed_github_events_total"
	droppedEventsMetricName   = "dropped_github_events_total"
	slackMessagesMetricName   = "slack_messages_sent_total"
)

const (
	eventKindLabel   = "event_kind"
	dropReasonLabel  = "reason"
	messageTypeLabel = "message_type"
)

type dropReasonVal string

const (
	dropReasonUnsupported dropReasonVal = "unsupported"
	dropReasonUnknownRepo dropReasonVal = "unknown_repository"
	dropReasonDisabled    dropReasonVal = "repository_disabled"
	dropReasonBilling     dropReasonVal = "billing_paused"
	dropReasonNoThread    dropReasonVal = "no_thread"
	dropReasonStale       dropReasonVal = "stale_delivery"
)

type messageTypeVal string

const (
	messageTypeMain    messageTypeVal = "main_message"
	messageTypeUpdate  messageTypeVal = "main_message_update"
	messageTypeReply   messageTypeVal = "thread_reply"
	messageTypeDM      messageTypeVal = "direct_message"
	messageTypeBilling messageTypeVal = "billing_notice"
)

type metricCollector struct {
	processedEvents *prometheus.CounterVec
	droppedEvents   *prometheus.CounterVec
	slackMessages   *prometheus.CounterVec
}

var metrics = newMetricCollector()

func newMetricCollector() *metricCollector {
	return &metricCollector{
		processedEvents: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: metricNamespace,
				Name:      processedEventsMetricName,
				Help:      "count of processed github webhook events",
			},
			[]string{eventKindLabel},
		),
		droppedEvents: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: metricNamespace,
				Name:      droppedEventsMetricName,
				Help:      "count of github webhook events that were dropped without processing",
			},
			[]string{eventKindLabel, dropReasonLabel},
		),
		slackMessages: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: metricNamespace,
				Name:      slackMessagesMetricName,
				Help:      "count of messages sent to slack",
			},
			[]string{messageTypeLabel},
		),
	}
}

func (m *metricCollector) EventProcessed(kind EventKind) {
	m.processedEvents.WithLabelValues(kind.String()).Inc()
}

func (m *metricCollector) EventDropped(kind EventKind, reason dropReasonVal) {
	m.droppedEvents.WithLabelValues(kind.String(), string(reason)).Inc()
}

func (m *metricCollector) SlackMessageSent(msgType messageTypeVal) {
	m.slackMessages.WithLabelValues(string(msgType)).Inc()
}
