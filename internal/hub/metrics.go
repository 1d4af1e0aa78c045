package hub

import "github.com/prometheus/client_golang/prometheus"

var (
	messagesBroadcast = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "printerd",
			Subsystem: "hub",
			Name:      "messages_broadcast_total",
			Help:      "Messages offered to the subscriber queues",
		},
		[]string{"type"},
	)

	messagesDropped = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "printerd",
			Subsystem: "hub",
			Name:      "messages_dropped_total",
			Help:      "Messages dropped because a subscriber queue was full",
		},
		[]string{"type"},
	)

	messagesDelivered = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: "printerd",
			Subsystem: "hub",
			Name:      "messages_delivered_total",
			Help:      "Messages handed to the subscriber transport",
		},
	)

	deliveryFailures = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: "printerd",
			Subsystem: "hub",
			Name:      "delivery_failures_total",
			Help:      "Deliver calls that returned an error",
		},
	)

	subscribersActive = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Namespace: "printerd",
			Subsystem: "hub",
			Name:      "subscribers_active",
			Help:      "Currently attached subscribers",
		},
	)

	subscribeRejected = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: "printerd",
			Subsystem: "hub",
			Name:      "subscribe_rejected_total",
			Help:      "Subscribe attempts rejected because no slot was free",
		},
	)
)

func init() {
	prometheus.MustRegister(
		messagesBroadcast,
		messagesDropped,
		messagesDelivered,
		deliveryFailures,
		subscribersActive,
		subscribeRejected,
	)
}
