package chat

import "github.com/prometheus/client_golang/prometheus"

var (
	ConnectedClients = prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "chat_connected_clients",
		Help: "Number of currently registered clients",
	})

	MessagesTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "chat_messages_total",
		Help: "Total messages processed by type",
	}, []string{"type"})

	DroppedMessagesTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "chat_dropped_messages_total",
		Help: "Messages dropped because a recipient queue was full",
	})

	EventLogErrorsTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "chat_event_log_errors_total",
		Help: "Failed appends to the event log",
	})

	BroadcastDuration = prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "chat_broadcast_seconds",
		Help:    "Time to fan out one message to every recipient queue",
		Buckets: prometheus.DefBuckets,
	})
)

func init() {
	prometheus.MustRegister(ConnectedClients)
	prometheus.MustRegister(MessagesTotal)
	prometheus.MustRegister(DroppedMessagesTotal)
	prometheus.MustRegister(EventLogErrorsTotal)
	prometheus.MustRegister(BroadcastDuration)
}
