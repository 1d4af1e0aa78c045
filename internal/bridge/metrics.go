package bridge

import "github.com/prometheus/client_golang/prometheus"

var (
	linesTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: "printerd",
			Subsystem: "bridge",
			Name:      "lines_total",
			Help:      "Console lines assembled from the device stream",
		},
	)

	eventsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "printerd",
			Subsystem: "bridge",
			Name:      "events_total",
			Help:      "Telemetry events broadcast, by message type",
		},
		[]string{"type"},
	)

	commandsTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: "printerd",
			Subsystem: "bridge",
			Name:      "commands_total",
			Help:      "Commands forwarded to the device",
		},
	)
)

func init() {
	prometheus.MustRegister(linesTotal, eventsTotal, commandsTotal)
}
