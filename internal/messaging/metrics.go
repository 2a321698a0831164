package messaging

import "github.com/prometheus/client_golang/prometheus"

var messagesTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
	Name: "voternet_messages_total",
	Help: "Outbound messages by channel and result.",
}, []string{"channel", "result"})

// Collectors exposes the messaging counters for a prometheus registry.
func Collectors() []prometheus.Collector {
	return []prometheus.Collector{messagesTotal}
}

func count(channel, result string, n int) {
	if n > 0 {
		messagesTotal.WithLabelValues(channel, result).Add(float64(n))
	}
}
